package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flipflow/flipflow/internal/domain"
	"github.com/flipflow/flipflow/internal/gateway"
	"github.com/flipflow/flipflow/internal/gateway/mock"
	"github.com/flipflow/flipflow/internal/store"
	"github.com/flipflow/flipflow/internal/store/memory"
)

func TestRotatePhotosIsItsOwnInverse(t *testing.T) {
	urls := []string{"a", "b", "c"}
	once := domain.RotatePhotos(urls)
	assert.Equal(t, []string{"b", "a", "c"}, once)
	assert.Equal(t, urls, domain.RotatePhotos(once))
}

func TestShouldShuffle(t *testing.T) {
	p := NewPhotoShuffler(mock.New(), testConfig(t))

	// Default: 14 days with zero views.
	assert.True(t, p.ShouldShuffle(activeListing("S", "L", "50.00", 14, 0)))
	assert.False(t, p.ShouldShuffle(activeListing("S", "L", "50.00", 13, 0)))
	assert.False(t, p.ShouldShuffle(activeListing("S", "L", "50.00", 20, 1)))

	single := activeListing("S", "L", "50.00", 20, 0)
	single.PhotoURLs = []string{"only.jpg"}
	assert.False(t, p.ShouldShuffle(single))

	zombie := activeListing("S", "L", "50.00", 20, 0)
	zombie.Status = domain.ListingZombie
	assert.False(t, p.ShouldShuffle(zombie))
}

func TestRunShufflesAndPushes(t *testing.T) {
	ctx := context.Background()
	gw := mock.New()
	require.NoError(t, gw.CreateInventoryItem(ctx, "SKU-1", gateway.InventoryItem{Quantity: 1}))

	st := memory.New()
	st.Seed(activeListing("SKU-1", "L1", "50.00", 20, 0))

	p := NewPhotoShuffler(gw, testConfig(t))

	var report *ShuffleReport
	require.NoError(t, st.WithSession(ctx, func(sess store.Session) error {
		var err error
		report, err = p.Run(ctx, sess)
		return err
	}))

	assert.Equal(t, 1, report.Shuffled)
	require.Len(t, report.Details, 1)
	assert.Equal(t, "https://img/2.jpg", report.Details[0].NewMainPhoto)

	l, _ := st.Listing(1)
	assert.Equal(t, []string{"https://img/2.jpg", "https://img/1.jpg"}, l.PhotoURLs)

	item, ok := gw.Inventory("SKU-1")
	require.True(t, ok)
	assert.Equal(t, []string{"https://img/2.jpg", "https://img/1.jpg"}, item.PhotoURLs)
}

func TestRunSkipsSinglePhoto(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	single := activeListing("SKU-1", "L1", "50.00", 20, 0)
	single.PhotoURLs = []string{"only.jpg"}
	st.Seed(single)

	p := NewPhotoShuffler(mock.New(), testConfig(t))

	var report *ShuffleReport
	require.NoError(t, st.WithSession(ctx, func(sess store.Session) error {
		var err error
		report, err = p.Run(ctx, sess)
		return err
	}))

	assert.Equal(t, 0, report.Shuffled)
	assert.Equal(t, 1, report.Skipped)

	l, _ := st.Listing(1)
	assert.Equal(t, []string{"only.jpg"}, l.PhotoURLs)
}

func TestRunCountsGatewayErrors(t *testing.T) {
	ctx := context.Background()
	gw := mock.New()
	// SKU never created on the marketplace: the update 404s.

	st := memory.New()
	st.Seed(activeListing("SKU-1", "L1", "50.00", 20, 0))

	p := NewPhotoShuffler(gw, testConfig(t))

	var report *ShuffleReport
	require.NoError(t, st.WithSession(ctx, func(sess store.Session) error {
		var err error
		report, err = p.Run(ctx, sess)
		return err
	}))

	assert.Equal(t, 0, report.Shuffled)
	assert.Equal(t, 1, report.Errors)

	// Local photos untouched when the push fails.
	l, _ := st.Listing(1)
	assert.Equal(t, "https://img/1.jpg", l.PhotoURLs[0])
}

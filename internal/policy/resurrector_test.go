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

func TestResurrectionSKU(t *testing.T) {
	assert.Equal(t, "ABC123_R1", ResurrectionSKU("ABC123", 1))
	assert.Equal(t, "ABC123_R2", ResurrectionSKU("ABC123_R1", 2))
	assert.Equal(t, "ABC123_R7", ResurrectionSKU("ABC123_R6", 7))
}

func newTestResurrector(t *testing.T, gw gateway.Gateway) *Resurrector {
	t.Helper()
	r := NewResurrector(gw, testConfig(t))
	r.cooldown = 0
	return r
}

func TestResurrectSuccess(t *testing.T) {
	ctx := context.Background()
	gw := mock.New()
	offer, err := gw.CreateOffer(ctx, gateway.OfferRequest{SKU: "ABC123", Price: d("50.00"), Quantity: 1})
	require.NoError(t, err)

	st := memory.New()
	zombie := activeListing("ABC123", "OLD-ITEM", "50.00", 70, 3)
	zombie.Status = domain.ListingZombie
	zombie.OfferID = &offer.OfferID
	zombie.Watchers = 2
	st.Seed(zombie)

	r := newTestResurrector(t, gw)

	var res *ResurrectionResult
	require.NoError(t, st.WithSession(ctx, func(sess store.Session) error {
		res, err = r.Resurrect(ctx, sess, 1)
		return err
	}))

	require.True(t, res.Success, res.Error)
	assert.Equal(t, "ABC123_R1", res.SKU)
	assert.Equal(t, 1, res.CycleNumber)
	require.NotNil(t, res.NewItemID)
	assert.NotEqual(t, "OLD-ITEM", *res.NewItemID)

	l, _ := st.Listing(1)
	assert.Equal(t, domain.ListingActive, l.Status)
	assert.Equal(t, "ABC123_R1", l.SKU)
	assert.Equal(t, 1, l.ZombieCycleCount)
	assert.Equal(t, 0, l.DaysActive)
	assert.Equal(t, 0, l.TotalViews)
	assert.Equal(t, 0, l.Watchers)
	assert.NotNil(t, l.ListedAt)

	// Photos rotate so the marketplace sees a fresh thumbnail.
	item, ok := gw.Inventory("ABC123_R1")
	require.True(t, ok)
	require.Len(t, item.PhotoURLs, 2)
	assert.Equal(t, "https://img/2.jpg", item.PhotoURLs[0])
	assert.Equal(t, "https://img/1.jpg", item.PhotoURLs[1])

	// Old offer is withdrawn.
	old, err := gw.GetOffer(ctx, offer.OfferID)
	require.NoError(t, err)
	assert.False(t, old.Published)
}

func TestResurrectAppendsRecord(t *testing.T) {
	ctx := context.Background()
	gw := mock.New()

	st := memory.New()
	zombie := activeListing("ABC123", "OLD-ITEM", "50.00", 70, 3)
	zombie.Status = domain.ListingZombie
	st.Seed(zombie)

	r := newTestResurrector(t, gw)

	require.NoError(t, st.WithSession(ctx, func(sess store.Session) error {
		res, err := r.Resurrect(ctx, sess, 1)
		if err != nil {
			return err
		}
		require.True(t, res.Success)

		recs, err := sess.Zombies().ListByListing(ctx, 1)
		if err != nil {
			return err
		}
		require.Len(t, recs, 1)
		assert.Equal(t, domain.ZombieResurrected, recs[0].ActionTaken)
		assert.Equal(t, 1, recs[0].CycleNumber)
		require.NotNil(t, recs[0].OldItemID)
		assert.Equal(t, "OLD-ITEM", *recs[0].OldItemID)
		return nil
	}))
}

func TestResurrectWithdrawFailure(t *testing.T) {
	ctx := context.Background()
	gw := mock.New()

	st := memory.New()
	zombie := activeListing("ABC123", "OLD-ITEM", "50.00", 70, 3)
	zombie.Status = domain.ListingZombie
	zombie.OfferID = strp("GONE")
	st.Seed(zombie)

	r := newTestResurrector(t, gw)

	var res *ResurrectionResult
	require.NoError(t, st.WithSession(ctx, func(sess store.Session) error {
		var err error
		res, err = r.Resurrect(ctx, sess, 1)
		return err
	}))

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "withdraw offer")

	// Nothing mutated on failure.
	l, _ := st.Listing(1)
	assert.Equal(t, domain.ListingZombie, l.Status)
	assert.Equal(t, "ABC123", l.SKU)
	assert.Equal(t, 0, l.ZombieCycleCount)
}

func TestResurrectCreateFailure(t *testing.T) {
	ctx := context.Background()
	gw := mock.New()
	gw.InjectFailure("create_inventory_item", gateway.NewError(gateway.KindAPI, "create_inventory_item", "down"))

	st := memory.New()
	zombie := activeListing("ABC123", "OLD-ITEM", "50.00", 70, 3)
	zombie.Status = domain.ListingZombie
	st.Seed(zombie)

	r := newTestResurrector(t, gw)

	var res *ResurrectionResult
	require.NoError(t, st.WithSession(ctx, func(sess store.Session) error {
		var err error
		res, err = r.Resurrect(ctx, sess, 1)
		return err
	}))
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "create inventory item")
}

package gatekeeper

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeSpammyTitle(t *testing.T) {
	s := NewTitleSanitizer()

	res := s.Sanitize(
		"!!!L@@K!! AMAZING VINTAGE NIKE AIR JORDAN 1 RETRO HIGH WOW!!!",
		"Nike", "Air Jordan 1",
	)

	assert.True(t, strings.HasPrefix(res.Sanitized, "Nike Air Jordan 1"), "got %q", res.Sanitized)
	lower := strings.ToLower(res.Sanitized)
	assert.NotContains(t, lower, "l@@k")
	assert.NotContains(t, lower, "wow")
	assert.NotContains(t, lower, "amazing")
	assert.LessOrEqual(t, len([]rune(res.Sanitized)), MaxTitleLength)
	assert.True(t, res.BrandModelInFront)
}

func TestSanitizeLengthCap(t *testing.T) {
	s := NewTitleSanitizer()
	long := strings.Repeat("Vintage Camera Lens ", 10)

	res := s.Sanitize(long, "", "")
	assert.LessOrEqual(t, len([]rune(res.Sanitized)), MaxTitleLength)
	// Word-boundary trim: no trailing partial word space.
	assert.Equal(t, res.Sanitized, strings.TrimSpace(res.Sanitized))
}

func TestSanitizeIdempotent(t *testing.T) {
	s := NewTitleSanitizer()
	inputs := []string{
		"!!!L@@K!! AMAZING VINTAGE NIKE AIR JORDAN 1 RETRO HIGH WOW!!!",
		"Sony WH-1000XM4 Wireless Headphones NIB",
		"RARE! Vintage 1980s CASIO Calculator Watch MUST SEE",
		"plain lowercase title with nothing wrong",
	}
	for _, in := range inputs {
		first := s.Sanitize(in, "", "")
		second := s.Sanitize(first.Sanitized, "", "")
		assert.Equal(t, first.Sanitized, second.Sanitized, "input %q", in)
	}
}

func TestSanitizePurgesBannedWords(t *testing.T) {
	s := NewTitleSanitizer()
	for banned := range bannedWords {
		title := "Vintage " + banned + " Camera"
		res := s.Sanitize(title, "", "")
		for _, w := range strings.Fields(strings.ToLower(res.Sanitized)) {
			assert.NotEqual(t, banned, w, "banned word %q survived in %q", banned, res.Sanitized)
		}
	}
}

func TestSanitizePreservesAcronyms(t *testing.T) {
	s := NewTitleSanitizer()
	res := s.Sanitize("SONY CAMERA NIB WITH USB CABLE", "", "")
	assert.Contains(t, res.Sanitized, "NIB")
	assert.Contains(t, res.Sanitized, "USB")
	assert.Contains(t, res.Sanitized, "Sony")
	assert.Contains(t, res.Sanitized, "Camera")
}

func TestSanitizeNoChangesNeeded(t *testing.T) {
	s := NewTitleSanitizer()
	res := s.Sanitize("Sony WH-1000XM4 Wireless Headphones", "", "")
	assert.Equal(t, []string{"No changes needed"}, res.Changes)
	assert.Equal(t, res.Original, res.Sanitized)
}

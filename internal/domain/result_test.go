package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultBuilder_AccountsEveryRecord(t *testing.T) {
	b := NewResultBuilder("cma")
	a, err := NewArtwork(Artwork{ID: "1", ImageURL: "u"})
	require.NoError(t, err)

	b.Keep(a)
	b.Skip(SkipMissingImage)
	b.Skip(SkipMissingImage)
	b.Skip(SkipMissingIdentifier)
	b.Applied("department", "Department: Prints")
	b.Warn("no mapping for %s", "Drawings")
	b.Warn("no mapping for %s", "Drawings")

	r := b.Result()
	assert.Equal(t, "cma", r.Museum)
	assert.Equal(t, 4, r.Fetched)
	assert.Equal(t, r.Fetched, len(r.Artworks)+r.SkippedTotal())
	assert.Equal(t, []string{SkipMissingIdentifier, SkipMissingImage}, r.SkipReasons())
	assert.Equal(t, []string{"no mapping for Drawings"}, r.Warnings)
	assert.Equal(t, "Department: Prints", r.Applied["department"])
}

func TestAdapterResult_Summary(t *testing.T) {
	r := AdapterResult{Fetched: 3, Artworks: make([]Artwork, 1), Skipped: map[string]int{SkipOrientationMismatch: 1, SkipDimensionsUnknown: 1}}
	assert.Equal(t, "3 fetched, 1 kept, 2 skipped, reasons: dimensions unknown=1, orientation mismatch=1", r.Summary())

	empty := AdapterResult{Fetched: 2, Artworks: make([]Artwork, 2)}
	assert.Equal(t, "2 fetched, 2 kept, 0 skipped", empty.Summary())
}

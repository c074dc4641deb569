package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/artfinder/internal/domain"
)

func art(t *testing.T, id string, w, h int, dept string, years *domain.YearRange) domain.Artwork {
	t.Helper()
	in := domain.Artwork{ID: id, Museum: "cma", ImageURL: "https://img.test/" + id, CanonicalDepartment: dept, Years: years}
	if w > 0 && h > 0 {
		in.Image = &domain.ImageSize{Width: w, Height: h}
	}
	a, err := domain.NewArtwork(in)
	require.NoError(t, err)
	return a
}

func result(arts ...domain.Artwork) domain.AdapterResult {
	b := domain.NewResultBuilder("cma")
	for _, a := range arts {
		b.Keep(a)
	}
	return b.Result()
}

func filters(t *testing.T, f domain.SearchFilters) domain.SearchFilters {
	t.Helper()
	out, err := domain.NewSearchFilters(f)
	require.NoError(t, err)
	return out
}

func ids(r domain.AdapterResult) []string {
	out := make([]string, 0, len(r.Artworks))
	for _, a := range r.Artworks {
		out = append(out, a.ID)
	}
	return out
}

func TestApply_Orientation(t *testing.T) {
	r := result(
		art(t, "tall", 400, 600, "", nil),
		art(t, "wide", 600, 400, "", nil),
		art(t, "nosize", 0, 0, "", nil),
	)
	got := Apply(r, filters(t, domain.SearchFilters{Orientation: domain.OrientationPortrait}))

	assert.Equal(t, []string{"tall"}, ids(got))
	assert.True(t, got.Artworks[0].IsPortrait())
	assert.Equal(t, 1, got.Skipped[domain.SkipOrientationMismatch])
	assert.Equal(t, 1, got.Skipped[domain.SkipDimensionsUnknown])
}

func TestApply_SquareIsLandscape(t *testing.T) {
	r := result(art(t, "square", 500, 500, "", nil))

	assert.Len(t, Apply(r, filters(t, domain.SearchFilters{Orientation: domain.OrientationLandscape})).Artworks, 1)
	assert.Empty(t, Apply(r, filters(t, domain.SearchFilters{Orientation: domain.OrientationPortrait})).Artworks)
}

func TestApply_AnyOrientationKeepsUnknownSize(t *testing.T) {
	r := result(art(t, "nosize", 0, 0, "", nil))
	got := Apply(r, filters(t, domain.SearchFilters{}))
	assert.Len(t, got.Artworks, 1)
	assert.Empty(t, got.Skipped)
}

func TestApply_MinResolution(t *testing.T) {
	r := result(
		art(t, "small", 1000, 500, "", nil),
		art(t, "big", 1200, 800, "", nil),
		art(t, "nosize", 0, 0, "", nil),
	)
	got := Apply(r, filters(t, domain.SearchFilters{MinResolution: domain.Int(800)}))

	assert.Equal(t, []string{"big"}, ids(got))
	assert.Equal(t, 2, got.Skipped[domain.SkipResolutionBelow])
}

func TestApply_Department(t *testing.T) {
	r := result(
		art(t, "a", 10, 10, "Asian Art", nil),
		art(t, "b", 10, 10, "Modern Art", nil),
		art(t, "c", 10, 10, "", nil),
	)
	got := Apply(r, filters(t, domain.SearchFilters{Department: "Asian Art"}))

	assert.Equal(t, []string{"a"}, ids(got))
	assert.Equal(t, 2, got.Skipped[domain.SkipDepartmentMismatch])
}

func TestApply_YearRange(t *testing.T) {
	r := result(
		art(t, "early", 10, 10, "", &domain.YearRange{Start: 1700, End: 1750}),
		art(t, "overlap", 10, 10, "", &domain.YearRange{Start: 1790, End: 1810}),
		art(t, "late", 10, 10, "", &domain.YearRange{Start: 1950, End: 1950}),
		art(t, "undated", 10, 10, "", nil),
	)
	got := Apply(r, filters(t, domain.SearchFilters{YearMin: domain.Int(1800), YearMax: domain.Int(1900)}))

	assert.Equal(t, []string{"overlap", "undated"}, ids(got))
	assert.Equal(t, 2, got.Skipped[domain.SkipYearOutOfRange])
}

func TestApply_FirstFailingRuleWins(t *testing.T) {
	// 方向与部门都不符：只计入方向。
	r := result(art(t, "wide", 600, 400, "Modern Art", nil))
	got := Apply(r, filters(t, domain.SearchFilters{Orientation: domain.OrientationPortrait, Department: "Asian Art"}))

	assert.Equal(t, map[string]int{domain.SkipOrientationMismatch: 1}, got.Skipped)
}

func TestApply_PreservesOrderAccountingAndInput(t *testing.T) {
	b := domain.NewResultBuilder("cma")
	b.Skip(domain.SkipMissingImage)
	for _, a := range []domain.Artwork{
		art(t, "1", 400, 600, "", nil),
		art(t, "2", 600, 400, "", nil),
		art(t, "3", 300, 900, "", nil),
		art(t, "4", 0, 0, "", nil),
		art(t, "5", 500, 501, "", nil),
	} {
		b.Keep(a)
	}
	b.Applied("query", "Search term: x")
	in := b.Result()
	f := filters(t, domain.SearchFilters{Orientation: domain.OrientationPortrait})

	got := Apply(in, f)

	assert.Equal(t, []string{"1", "3", "5"}, ids(got))
	assert.Equal(t, in.Fetched, len(got.Artworks)+got.SkippedTotal())
	assert.Equal(t, 1, got.Skipped[domain.SkipMissingImage])
	assert.Equal(t, in.Applied, got.Applied)

	// 输入不被修改。
	assert.Len(t, in.Artworks, 5)
	assert.Equal(t, map[string]int{domain.SkipMissingImage: 1}, in.Skipped)

	// 幂等。
	assert.Equal(t, got, Apply(got, f))
}

func TestApply_EmptyInput(t *testing.T) {
	got := Apply(domain.NewResultBuilder("aic").Result(), filters(t, domain.SearchFilters{MinResolution: domain.Int(1)}))
	assert.Equal(t, 0, got.Fetched)
	assert.Empty(t, got.Artworks)
	assert.NotNil(t, got.Skipped)
}

package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestNewArtwork_RequiredFields(t *testing.T) {
	cases := []struct {
		name  string
		in    Artwork
		field string
	}{
		{name: "empty id", in: Artwork{ID: "  ", ImageURL: "https://x/1.jpg"}, field: "id"},
		{name: "empty image url", in: Artwork{ID: "1"}, field: "image_url"},
		{name: "zero width", in: Artwork{ID: "1", ImageURL: "u", Image: &ImageSize{Width: 0, Height: 10}}, field: "image"},
		{name: "negative height", in: Artwork{ID: "1", ImageURL: "u", Image: &ImageSize{Width: 10, Height: -1}}, field: "image"},
		{name: "reversed years", in: Artwork{ID: "1", ImageURL: "u", Years: &YearRange{Start: 1900, End: 1800}}, field: "years"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewArtwork(tc.in)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("期望 *ValidationError，实际：%v", err)
			}
			if ve.Field != tc.field {
				t.Fatalf("期望 field=%q，实际=%q", tc.field, ve.Field)
			}
		})
	}
}

func TestNewArtwork_NormalizesAndCopies(t *testing.T) {
	size := &ImageSize{Width: 10, Height: 20}
	a, err := NewArtwork(Artwork{ID: " 42 ", Museum: " CMA ", Title: "  Water   Lilies ", ImageURL: " https://x/1.jpg ", Image: size})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if a.ID != "42" || a.Museum != "cma" || a.Title != "Water Lilies" || a.ImageURL != "https://x/1.jpg" {
		t.Fatalf("规范化不符合预期：%+v", a)
	}

	// 构造后修改入参不应影响 Artwork。
	size.Width = 999
	if a.Image.Width != 10 {
		t.Fatalf("Image 未被复制：%+v", a.Image)
	}

	b, err := NewArtwork(Artwork{ID: "1", ImageURL: "u"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if b.Title != "Untitled" {
		t.Fatalf("期望缺省标题 Untitled，实际=%q", b.Title)
	}
}

func TestArtwork_Orientation(t *testing.T) {
	cases := []struct {
		size *ImageSize
		want Orientation
	}{
		{size: &ImageSize{Width: 400, Height: 600}, want: OrientationPortrait},
		{size: &ImageSize{Width: 600, Height: 400}, want: OrientationLandscape},
		{size: &ImageSize{Width: 500, Height: 500}, want: OrientationLandscape},
		{size: nil, want: OrientationUnknown},
	}
	for _, tc := range cases {
		a := Artwork{ID: "1", ImageURL: "u", Image: tc.size}
		if got := a.Orientation(); got != tc.want {
			t.Fatalf("size=%v 期望 %q，实际 %q", tc.size, tc.want, got)
		}
	}

	p := Artwork{Image: &ImageSize{Width: 400, Height: 600}}
	if !p.IsPortrait() || p.IsLandscape() || p.UnknownOrientation() {
		t.Fatalf("400x600 应为 portrait")
	}
	if !(Artwork{}).UnknownOrientation() {
		t.Fatalf("无尺寸应为 unknown")
	}
}

func TestArtwork_MinDimension(t *testing.T) {
	if _, ok := (Artwork{}).MinDimension(); ok {
		t.Fatalf("无尺寸时 ok 应为 false")
	}
	d, ok := Artwork{Image: &ImageSize{Width: 1000, Height: 500}}.MinDimension()
	if !ok || d != 500 {
		t.Fatalf("期望 500，实际 %d ok=%v", d, ok)
	}
}

func TestArtwork_Filename(t *testing.T) {
	a := Artwork{ID: "1953.424", Museum: "cma", Title: `Twilight: "The Lake" / Study?`}
	if got, want := a.Filename(), "CMA-Twilight The Lake Study-1953.424.jpg"; got != want {
		t.Fatalf("期望 %q，实际 %q", want, got)
	}

	long := Artwork{ID: "7", Museum: "aic", Title: strings.Repeat("é", 150)}
	got := long.Filename()
	base := strings.TrimSuffix(got, "-7.jpg")
	if n := len([]rune(base)); n != maxFilenameBase {
		t.Fatalf("期望 base 截断为 %d 个字符，实际 %d：%q", maxFilenameBase, n, got)
	}
	if !strings.HasPrefix(got, "AIC-") {
		t.Fatalf("期望以博物馆前缀开头：%q", got)
	}
}

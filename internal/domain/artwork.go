package domain

import (
	"strings"
)

// Orientation 是由图片像素尺寸派生出的方向分类。
type Orientation string

const (
	OrientationAny       Orientation = "any"
	OrientationPortrait  Orientation = "portrait"
	OrientationLandscape Orientation = "landscape"
	// OrientationUnknown 只会由 Artwork.Orientation 返回（尺寸未知），不能作为过滤条件。
	OrientationUnknown Orientation = "unknown"
)

// ImageSize 是图片的像素尺寸。
// 宽高放在同一个结构体里：要么都有（*ImageSize 非 nil），要么都没有，类型本身保证不会只剩一半。
type ImageSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// YearRange 是作品的创作年份区间（闭区间，允许负数表示公元前）。
type YearRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Artwork 是跨博物馆统一后的作品记录。
//
// 不变量（由 NewArtwork 保证）：
// - ID 与 ImageURL 非空
// - Image 为 nil 或宽高均为正数
// - 方向只由 Image 派生，不单独存储
//
// 字符串字段为空串表示“来源未提供”。
type Artwork struct {
	ID     string `json:"id"`
	Museum string `json:"museum"`

	Title  string `json:"title"`
	Artist string `json:"artist"`

	Date  string     `json:"date"`
	Years *YearRange `json:"years,omitempty"`

	Department          string `json:"department"`
	CanonicalDepartment string `json:"canonical_department"`

	Medium         string `json:"medium"`
	Classification string `json:"classification"`

	Image    *ImageSize `json:"image,omitempty"`
	ImageURL string     `json:"image_url"`
	License  string     `json:"license"`

	CreditLine      string `json:"credit_line"`
	Culture         string `json:"culture"`
	Description     string `json:"description"`
	AccessionNumber string `json:"accession_number"`
	SourceURL       string `json:"source_url"`
}

// NewArtwork 规范化并校验一条作品记录。
func NewArtwork(a Artwork) (Artwork, error) {
	a.ID = strings.TrimSpace(a.ID)
	a.Museum = strings.ToLower(strings.TrimSpace(a.Museum))
	a.Title = normSpace(a.Title)
	a.Artist = strings.TrimSpace(a.Artist)
	a.Date = strings.TrimSpace(a.Date)
	a.Department = strings.TrimSpace(a.Department)
	a.CanonicalDepartment = strings.TrimSpace(a.CanonicalDepartment)
	a.Medium = strings.TrimSpace(a.Medium)
	a.Classification = strings.TrimSpace(a.Classification)
	a.ImageURL = strings.TrimSpace(a.ImageURL)
	a.License = strings.TrimSpace(a.License)

	if a.ID == "" {
		return Artwork{}, invalid("id", "不能为空")
	}
	if a.ImageURL == "" {
		return Artwork{}, invalid("image_url", "不能为空（id=%s）", a.ID)
	}
	if a.Image != nil {
		if a.Image.Width <= 0 || a.Image.Height <= 0 {
			return Artwork{}, invalid("image", "宽高必须为正数，实际 %dx%d（id=%s）", a.Image.Width, a.Image.Height, a.ID)
		}
		sz := *a.Image
		a.Image = &sz
	}
	if a.Years != nil {
		if a.Years.Start > a.Years.End {
			return Artwork{}, invalid("years", "起始年份 %d 晚于结束年份 %d（id=%s）", a.Years.Start, a.Years.End, a.ID)
		}
		yr := *a.Years
		a.Years = &yr
	}
	if a.Title == "" {
		a.Title = "Untitled"
	}
	return a, nil
}

// Orientation 由宽高派生方向：高 > 宽 为 portrait，否则（含正方形）为 landscape；尺寸未知为 unknown。
func (a Artwork) Orientation() Orientation {
	if a.Image == nil {
		return OrientationUnknown
	}
	if a.Image.Height > a.Image.Width {
		return OrientationPortrait
	}
	return OrientationLandscape
}

func (a Artwork) IsPortrait() bool { return a.Orientation() == OrientationPortrait }

func (a Artwork) IsLandscape() bool { return a.Orientation() == OrientationLandscape }

func (a Artwork) UnknownOrientation() bool { return a.Orientation() == OrientationUnknown }

// MinDimension 返回 min(宽, 高)；尺寸未知时 ok=false。
func (a Artwork) MinDimension() (int, bool) {
	if a.Image == nil {
		return 0, false
	}
	return min(a.Image.Width, a.Image.Height), true
}

func normSpace(s string) string { return strings.Join(strings.Fields(s), " ") }

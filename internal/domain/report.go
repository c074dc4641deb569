package domain

import (
	"encoding/json"
	"time"
)

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

const (
	ErrCodeValidation        = "validation_failed"
	ErrCodeUnknownMuseum     = "unknown_museum"
	ErrCodeSourceUnavailable = "source_unavailable"
	ErrCodeSourceResponse    = "source_response"
	ErrCodeConfigNotFound    = "config_not_found"
	ErrCodeConfigInvalid     = "config_invalid"
)

// SearchReport 是对外稳定输出（stdout JSON / HTTP API）的结构。
type SearchReport struct {
	MuseumRequested string        `json:"museum_requested"`
	MuseumUsed      string        `json:"museum_used"`
	Filters         SearchFilters `json:"filters"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`

	Summary  ReportSummary     `json:"summary"`
	Skipped  map[string]int    `json:"skipped"`
	Applied  map[string]string `json:"applied"`
	Warnings []string          `json:"warnings"`
	Attempts []MuseumAttempt   `json:"attempts"`
	Artworks []ArtworkView     `json:"artworks"`
}

type ReportSummary struct {
	Fetched int `json:"fetched"`
	Kept    int `json:"kept"`
	Skipped int `json:"skipped"`
}

// MuseumAttempt 记录一次博物馆尝试（用于解释回退原因）。
type MuseumAttempt struct {
	Museum string `json:"museum"`
	Stage  string `json:"stage"` // "resolve" / "fetch" / "ok"
	Error  string `json:"error,omitempty"`
}

// ArtworkView 是 Artwork 加上派生字段（方向、下载文件名）的输出视图。
type ArtworkView struct {
	Artwork
	Orientation Orientation `json:"orientation"`
	Filename    string      `json:"filename"`
}

// NewArtworkView 为 a 计算派生字段。
func NewArtworkView(a Artwork) ArtworkView {
	return ArtworkView{Artwork: a, Orientation: a.Orientation(), Filename: a.Filename()}
}

// Finalize 做三件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) nil 切片/map 统一为空值，保证 JSON 结构稳定（[] 与 {} 而不是 null）
// 3) summary 由 artworks/skipped 计算得出；有错误码时 status=failed
func (r *SearchReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	if r.Skipped == nil {
		r.Skipped = map[string]int{}
	}
	if r.Applied == nil {
		r.Applied = map[string]string{}
	}
	if r.Warnings == nil {
		r.Warnings = []string{}
	}
	if r.Attempts == nil {
		r.Attempts = []MuseumAttempt{}
	}
	if r.Artworks == nil {
		r.Artworks = []ArtworkView{}
	}

	var skipped int
	for _, c := range r.Skipped {
		skipped += c
	}
	r.Summary = ReportSummary{
		Fetched: len(r.Artworks) + skipped,
		Kept:    len(r.Artworks),
		Skipped: skipped,
	}

	if r.ErrorCode != "" {
		r.Status = StatusFailed
	} else {
		r.Status = StatusOK
	}
}

// MarshalJSON 仅用于集中约束输出的稳定性（避免未来不小心引入非确定字段）。
// 当前只是透传 encoding/json 的默认行为。
func (r SearchReport) MarshalJSON() ([]byte, error) {
	type Alias SearchReport
	return json.Marshal(Alias(r))
}

package search

import (
	"context"
	"strings"
	"time"

	"github.com/John-Robertt/artfinder/internal/domain"
)

// Request 是一次对外检索请求（CLI / HTTP API 共用）。
type Request struct {
	Museum   string
	Fallback bool
	Filters  domain.SearchFilters
}

// Run 执行一次检索并返回对外稳定的 SearchReport。
// 错误不会以 error 返回，而是写入 report 的 error_code/error_msg（status=failed）。
func (s Service) Run(ctx context.Context, req Request) domain.SearchReport {
	started := time.Now()
	requested := strings.ToLower(strings.TrimSpace(req.Museum))
	if requested == "" {
		requested = strings.ToLower(strings.TrimSpace(req.Filters.Museum))
	}

	codes := []string{requested}
	if req.Fallback {
		codes = s.FallbackOrder(requested)
	}
	f := req.Filters
	f.Museum = requested
	// report 中展示解析后的 canonical 部门名；非法条件由 SearchWithFallback 报告。
	if nf, err := s.Normalize(f); err == nil {
		f = nf
	}

	r, used, attempts, err := s.SearchWithFallback(ctx, codes, f)
	return Report(requested, f, r, used, attempts, err, started, time.Now())
}

// Report 把一次检索的结果与尝试链路组装为 SearchReport（已 Finalize）。
func Report(requested string, f domain.SearchFilters, r domain.AdapterResult, used string, attempts []Attempt, err error, started, finished time.Time) domain.SearchReport {
	if nf, ferr := domain.NewSearchFilters(f); ferr == nil {
		f = nf
	}
	rep := domain.SearchReport{
		MuseumRequested: requested,
		MuseumUsed:      used,
		Filters:         f,
		StartedAt:       started,
		FinishedAt:      finished,
		Attempts:        make([]domain.MuseumAttempt, 0, len(attempts)),
	}
	for _, a := range attempts {
		ma := domain.MuseumAttempt{Museum: a.Museum, Stage: a.Stage}
		if a.Err != nil {
			ma.Error = a.Err.Error()
		}
		rep.Attempts = append(rep.Attempts, ma)
	}

	if err != nil {
		rep.ErrorCode = ErrorCode(err)
		rep.ErrorMsg = err.Error()
		rep.Finalize()
		return rep
	}

	rep.Skipped = r.Skipped
	rep.Applied = r.Applied
	rep.Warnings = r.Warnings
	rep.Artworks = make([]domain.ArtworkView, 0, len(r.Artworks))
	for _, a := range r.Artworks {
		rep.Artworks = append(rep.Artworks, domain.NewArtworkView(a))
	}
	rep.Finalize()
	return rep
}

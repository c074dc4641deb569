package search

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/John-Robertt/artfinder/internal/domain"
	"github.com/John-Robertt/artfinder/internal/museum"
)

type stubAdapter struct {
	code string
	arts []domain.Artwork
	err  error

	mu    sync.Mutex
	calls int
	got   domain.SearchFilters
}

func (s *stubAdapter) Code() string { return s.code }
func (s *stubAdapter) Name() string { return strings.ToUpper(s.code) }

func (s *stubAdapter) Fetch(ctx context.Context, f domain.SearchFilters) (domain.AdapterResult, error) {
	s.mu.Lock()
	s.calls++
	s.got = f
	s.mu.Unlock()
	if s.err != nil {
		return domain.AdapterResult{}, s.err
	}
	b := domain.NewResultBuilder(s.code)
	b.Skip(domain.SkipMissingImage)
	for _, a := range s.arts {
		b.Keep(a)
	}
	return b.Result(), nil
}

type recordObserver struct {
	mu       sync.Mutex
	attempts []Attempt
}

func (o *recordObserver) OnAttempt(a Attempt, dur time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.attempts = append(o.attempts, a)
}

func mustArtwork(t *testing.T, museumCode, id string, w, h int) domain.Artwork {
	t.Helper()
	a, err := domain.NewArtwork(domain.Artwork{
		ID:       id,
		Museum:   museumCode,
		Title:    "Title " + id,
		ImageURL: "https://img.test/" + id + ".jpg",
		Image:    &domain.ImageSize{Width: w, Height: h},
	})
	if err != nil {
		t.Fatalf("构造 Artwork 失败: %v", err)
	}
	return a
}

func newService(t *testing.T, adapters ...museum.Adapter) Service {
	t.Helper()
	reg, err := museum.NewRegistry(adapters...)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	return Service{Registry: reg}
}

func TestSearch_AppliesEngine(t *testing.T) {
	cma := &stubAdapter{code: "cma", arts: []domain.Artwork{}}
	cma.arts = append(cma.arts, mustArtwork(t, "cma", "1", 400, 600), mustArtwork(t, "cma", "2", 600, 400))
	s := newService(t, cma)

	r, err := s.Search(context.Background(), "CMA", domain.SearchFilters{Orientation: domain.OrientationPortrait})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(r.Artworks) != 1 || r.Artworks[0].ID != "1" {
		t.Fatalf("期望只保留竖幅作品，实际 %+v", r.Artworks)
	}
	if r.Fetched != 3 || r.Skipped[domain.SkipOrientationMismatch] != 1 || r.Skipped[domain.SkipMissingImage] != 1 {
		t.Fatalf("计数不符合预期: %s", r.Summary())
	}
	if cma.got.Museum != "cma" || cma.got.Limit != domain.DefaultLimit {
		t.Fatalf("adapter 收到的条件未规范化: %+v", cma.got)
	}
}

func TestSearch_ValidationAndUnknownMuseum(t *testing.T) {
	cma := &stubAdapter{code: "cma"}
	s := newService(t, cma)

	_, err := s.Search(context.Background(), "cma", domain.SearchFilters{Limit: -1})
	if !domain.IsValidation(err) {
		t.Fatalf("期望 ValidationError，实际 %v", err)
	}
	_, err = s.Search(context.Background(), "louvre", domain.SearchFilters{})
	var um *museum.UnknownMuseumError
	if !errors.As(err, &um) {
		t.Fatalf("期望 UnknownMuseumError，实际 %v", err)
	}
	if cma.calls != 0 {
		t.Fatalf("失败前不应调用 adapter，实际 %d 次", cma.calls)
	}
}

func TestSearchWithFallback_MovesOnOnlyForSourceErrors(t *testing.T) {
	down := &stubAdapter{code: "cma", err: &museum.SourceUnavailableError{Museum: "cma", StatusCode: 503, Err: errors.New("HTTP 503")}}
	up := &stubAdapter{code: "aic", arts: nil}
	up.arts = []domain.Artwork{mustArtwork(t, "aic", "9", 100, 100)}
	s := newService(t, down, up)
	obs := &recordObserver{}
	s.Observer = obs

	r, used, attempts, err := s.SearchWithFallback(context.Background(), s.FallbackOrder("cma"), domain.SearchFilters{})
	if err != nil {
		t.Fatalf("SearchWithFallback: %v", err)
	}
	if used != "aic" || len(r.Artworks) != 1 {
		t.Fatalf("期望回退到 aic，实际 used=%s r=%+v", used, r)
	}
	if len(attempts) != 2 || attempts[0].Stage != "fetch" || attempts[0].Err == nil || attempts[1].Stage != "ok" {
		t.Fatalf("attempts 不符合预期: %+v", attempts)
	}
	if len(obs.attempts) != 2 {
		t.Fatalf("observer 应收到 2 次 attempt，实际 %d", len(obs.attempts))
	}
}

func TestSearchWithFallback_StopsOnUnknownMuseum(t *testing.T) {
	aic := &stubAdapter{code: "aic"}
	s := newService(t, aic)

	_, _, attempts, err := s.SearchWithFallback(context.Background(), []string{"nope", "aic"}, domain.SearchFilters{})
	var um *museum.UnknownMuseumError
	if !errors.As(err, &um) {
		t.Fatalf("期望 UnknownMuseumError，实际 %v", err)
	}
	if len(attempts) != 1 || attempts[0].Stage != "resolve" || aic.calls != 0 {
		t.Fatalf("未知 museum 不应触发回退: %+v calls=%d", attempts, aic.calls)
	}
}

func TestSearchWithFallback_AllFail(t *testing.T) {
	respErr := &museum.SourceResponseError{Museum: "aic", Err: errors.New("bad json")}
	s := newService(t,
		&stubAdapter{code: "cma", err: &museum.SourceUnavailableError{Museum: "cma", Err: errors.New("timeout")}},
		&stubAdapter{code: "aic", err: respErr},
	)

	_, used, attempts, err := s.SearchWithFallback(context.Background(), []string{"cma", "aic"}, domain.SearchFilters{})
	if !errors.Is(err, respErr) || used != "" || len(attempts) != 2 {
		t.Fatalf("期望返回最后一个错误: err=%v used=%q attempts=%+v", err, used, attempts)
	}
}

func TestRun_ReportJSON(t *testing.T) {
	cma := &stubAdapter{code: "cma"}
	cma.arts = []domain.Artwork{mustArtwork(t, "cma", "42", 800, 1200)}
	s := newService(t, cma)

	rep := s.Run(context.Background(), Request{Museum: "cma", Filters: domain.SearchFilters{Query: "  lily "}})
	if rep.Status != domain.StatusOK || rep.MuseumUsed != "cma" {
		t.Fatalf("report 状态不符合预期: %+v", rep)
	}
	if rep.Summary != (domain.ReportSummary{Fetched: 2, Kept: 1, Skipped: 1}) {
		t.Fatalf("summary 不符合预期: %+v", rep.Summary)
	}
	if rep.Filters.Query != "lily" {
		t.Fatalf("filters 应为规范化后的值: %+v", rep.Filters)
	}
	if len(rep.Artworks) != 1 || rep.Artworks[0].Filename != "CMA-Title 42-42.jpg" || rep.Artworks[0].Orientation != domain.OrientationPortrait {
		t.Fatalf("artwork 视图不符合预期: %+v", rep.Artworks)
	}

	b, err := json.Marshal(rep)
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}
	for _, k := range []string{"museum_requested", "summary", "skipped", "attempts", "artworks", "warnings"} {
		if _, ok := m[k]; !ok {
			t.Fatalf("JSON 缺少字段 %s: %s", k, b)
		}
	}
	if !strings.HasSuffix(m["started_at"].(string), "Z") {
		t.Fatalf("时间应为 UTC: %v", m["started_at"])
	}
}

func TestRun_FailureReport(t *testing.T) {
	s := newService(t, &stubAdapter{code: "cma", err: &museum.SourceResponseError{Museum: "cma", Err: errors.New("bad")}})

	rep := s.Run(context.Background(), Request{Museum: "cma", Fallback: true})
	if rep.Status != domain.StatusFailed || rep.ErrorCode != domain.ErrCodeSourceResponse {
		t.Fatalf("期望 failed/source_response，实际 %s/%s", rep.Status, rep.ErrorCode)
	}
	if len(rep.Artworks) != 0 || rep.Artworks == nil {
		t.Fatalf("失败时 artworks 应为空数组: %#v", rep.Artworks)
	}
	if len(rep.Attempts) != 1 || rep.Attempts[0].Error == "" {
		t.Fatalf("attempts 应记录错误: %+v", rep.Attempts)
	}

	rep = s.Run(context.Background(), Request{Museum: "moma"})
	if rep.ErrorCode != domain.ErrCodeUnknownMuseum {
		t.Fatalf("期望 unknown_museum，实际 %s", rep.ErrorCode)
	}
}

func TestErrorCode(t *testing.T) {
	cases := map[string]error{
		domain.ErrCodeValidation:        &domain.ValidationError{Field: "limit", Reason: "x"},
		domain.ErrCodeUnknownMuseum:     &museum.UnknownMuseumError{Code: "x"},
		domain.ErrCodeSourceUnavailable: &museum.SourceUnavailableError{Museum: "cma", Err: errors.New("x")},
		domain.ErrCodeSourceResponse:    &museum.SourceResponseError{Museum: "cma", Err: errors.New("x")},
	}
	for want, err := range cases {
		if got := ErrorCode(err); got != want {
			t.Fatalf("ErrorCode(%T)=%q，期望 %q", err, got, want)
		}
	}
	if ErrorCode(nil) != "" {
		t.Fatalf("nil 错误应返回空串")
	}
}

func TestSearch_DepartmentMustBeCanonical(t *testing.T) {
	a := mustArtwork(t, "cma", "1", 400, 600)
	a.CanonicalDepartment = "Asian Art"
	cma := &stubAdapter{code: "cma", arts: []domain.Artwork{a}}
	s := newService(t, cma)

	r, err := s.Search(context.Background(), "cma", domain.SearchFilters{Department: "  asian ART "})
	if err != nil {
		t.Fatalf("大小写不同的 canonical 名应被接受：%v", err)
	}
	if cma.got.Department != "Asian Art" {
		t.Fatalf("adapter 应收到标准写法，实际 %q", cma.got.Department)
	}
	if len(r.Artworks) != 1 {
		t.Fatalf("期望保留 1 件作品，实际 %s", r.Summary())
	}

	for _, dept := range []string{"Bogus", "Chinese Art"} {
		_, err := s.Search(context.Background(), "cma", domain.SearchFilters{Department: dept})
		var ve *domain.ValidationError
		if !errors.As(err, &ve) || ve.Field != "department" {
			t.Fatalf("%q：期望 department ValidationError，实际 %v", dept, err)
		}
	}
	if cma.calls != 1 {
		t.Fatalf("非法 department 不应调用 adapter，实际 %d 次", cma.calls)
	}
}

func TestRun_InvalidDepartmentFailsWithoutFallback(t *testing.T) {
	cma := &stubAdapter{code: "cma"}
	aic := &stubAdapter{code: "aic"}
	s := newService(t, cma, aic)

	rep := s.Run(context.Background(), Request{Museum: "cma", Fallback: true, Filters: domain.SearchFilters{Department: "Bogus"}})
	if rep.ErrorCode != domain.ErrCodeValidation || rep.Status != domain.StatusFailed {
		t.Fatalf("期望 validation_failed，实际 %s: %s", rep.ErrorCode, rep.ErrorMsg)
	}
	if len(rep.Attempts) != 0 || cma.calls+aic.calls != 0 {
		t.Fatalf("校验失败不应尝试任何博物馆：attempts=%v", rep.Attempts)
	}

	rep = s.Run(context.Background(), Request{Museum: "cma", Filters: domain.SearchFilters{Department: "photography"}})
	if rep.ErrorCode != "" || rep.Filters.Department != "Photography" {
		t.Fatalf("report 应展示 canonical 部门名：%+v", rep.Filters)
	}
}

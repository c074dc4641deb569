// Package server 以 JSON HTTP API 暴露检索能力（artfinder serve）。
package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/John-Robertt/artfinder/internal/app/search"
	"github.com/John-Robertt/artfinder/internal/department"
	"github.com/John-Robertt/artfinder/internal/domain"
)

// HeaderRequestID 是请求 ID 的响应头（请求中已带时沿用）。
const HeaderRequestID = "X-Request-ID"

// Deps 是 API 依赖；全部只读，可被并发请求共享。
type Deps struct {
	Service     search.Service
	Departments department.Mapping
	Logger      *zap.Logger
	// DefaultMuseum 在请求未带 museum 参数时使用。
	DefaultMuseum string
}

type api struct {
	Deps
	log *zap.Logger
}

// New 构造 API 路由。
func New(d Deps) http.Handler {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	a := &api{Deps: d, log: log}

	router := mux.NewRouter()
	router.StrictSlash(true)

	router.Handle("/healthz", http.HandlerFunc(a.healthz)).Methods("GET")
	router.Handle("/api/museums", http.HandlerFunc(a.museums)).Methods("GET")
	router.Handle("/api/departments", http.HandlerFunc(a.departments)).Methods("GET")
	router.Handle("/api/artworks", http.HandlerFunc(a.artworks)).Methods("GET")
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "not_found", "未知路径："+r.URL.Path)
	})

	router.Use(a.requestID, a.accessLog)
	return router
}

type errorBody struct {
	ErrorCode string `json:"error_code"`
	Error     string `json:"error"`
}

type museumView struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type departmentView struct {
	Name     string   `json:"name"`
	RawNames []string `json:"raw_names,omitempty"`
}

func (a *api) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *api) museums(w http.ResponseWriter, r *http.Request) {
	adapters := a.Service.Registry.Adapters()
	out := make([]museumView, 0, len(adapters))
	for _, ad := range adapters {
		out = append(out, museumView{Code: ad.Code(), Name: ad.Name()})
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (a *api) departments(w http.ResponseWriter, r *http.Request) {
	code := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("museum")))
	if code != "" {
		if _, err := a.Service.Registry.Resolve(code); err != nil {
			writeError(w, r, http.StatusNotFound, domain.ErrCodeUnknownMuseum, err.Error())
			return
		}
	}

	names := a.Departments.CanonicalDepartments()
	out := make([]departmentView, 0, len(names))
	for _, n := range names {
		v := departmentView{Name: n}
		if code != "" {
			v.RawNames = a.Departments.RawNames(code, n)
		}
		out = append(out, v)
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (a *api) artworks(w http.ResponseWriter, r *http.Request) {
	req, err := a.parseRequest(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, domain.ErrCodeValidation, err.Error())
		return
	}

	rep := a.Service.Run(r.Context(), req)
	writeJSON(w, r, statusFor(rep.ErrorCode), rep)
}

func (a *api) parseRequest(r *http.Request) (search.Request, error) {
	q := r.URL.Query()
	f := domain.SearchFilters{
		Museum:      strings.TrimSpace(q.Get("museum")),
		Orientation: domain.Orientation(q.Get("orientation")),
		Department:  q.Get("department"),
		Query:       q.Get("q"),
	}
	if f.Museum == "" {
		f.Museum = a.DefaultMuseum
	}

	var err error
	if f.YearMin, err = optInt(q, "year_from"); err != nil {
		return search.Request{}, err
	}
	if f.YearMax, err = optInt(q, "year_to"); err != nil {
		return search.Request{}, err
	}
	if f.MinResolution, err = optInt(q, "min_resolution"); err != nil {
		return search.Request{}, err
	}
	limit, err := optInt(q, "limit")
	if err != nil {
		return search.Request{}, err
	}
	if limit != nil {
		f.Limit = *limit
		if f.Limit == 0 {
			return search.Request{}, &domain.ValidationError{Field: "limit", Reason: "必须 >= 1"}
		}
	}

	fallback := false
	if s := strings.TrimSpace(q.Get("fallback")); s != "" {
		fallback, err = strconv.ParseBool(s)
		if err != nil {
			return search.Request{}, &domain.ValidationError{Field: "fallback", Reason: "必须是布尔值，实际 " + strconv.Quote(s)}
		}
	}

	nf, err := domain.NewSearchFilters(f)
	if err != nil {
		return search.Request{}, err
	}
	return search.Request{Museum: nf.Museum, Fallback: fallback, Filters: nf}, nil
}

func optInt(q map[string][]string, key string) (*int, error) {
	vs := q[key]
	if len(vs) == 0 || strings.TrimSpace(vs[0]) == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(vs[0]))
	if err != nil {
		return nil, &domain.ValidationError{Field: key, Reason: "必须是整数，实际 " + strconv.Quote(vs[0])}
	}
	return &v, nil
}

// statusFor 把 report 的错误码映射为 HTTP 状态码。
func statusFor(code string) int {
	switch code {
	case "":
		return http.StatusOK
	case domain.ErrCodeValidation:
		return http.StatusBadRequest
	case domain.ErrCodeUnknownMuseum:
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	writeJSON(w, r, status, errorBody{ErrorCode: code, Error: msg})
}

// writeJSON 按 Accept-Encoding 协商 br/gzip 压缩后写出 JSON。
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	body := brotli.HTTPCompressor(w, r)
	defer body.Close()
	w.WriteHeader(status)

	enc := json.NewEncoder(body)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func (a *api) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(HeaderRequestID))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (a *api) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		a.log.Info("request",
			zap.String("request_id", w.Header().Get(HeaderRequestID)),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("query", r.URL.RawQuery),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(started)),
		)
	})
}

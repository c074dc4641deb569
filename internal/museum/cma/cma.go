package cma

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/John-Robertt/artfinder/internal/department"
	"github.com/John-Robertt/artfinder/internal/domain"
	"github.com/John-Robertt/artfinder/internal/infra/htmltext"
	"github.com/John-Robertt/artfinder/internal/museum"
)

const (
	Code = "cma"

	// DefaultBaseURL 是 Cleveland Museum of Art Open Access API 的作品检索端点。
	DefaultBaseURL = "https://openaccess-api.clevelandart.org/api/artworks/"
)

// Adapter 实现 Cleveland Museum of Art Open Access API 的检索与字段映射。
//
// 原生支持：关键词、创作年份区间、has_image、部门（仅当 canonical 部门在 CMA 恰好对应一个原始部门名）。
// 方向/分辨率等条件由 engine 在客户端处理。
type Adapter struct {
	Client *http.Client
	// BaseURL 为空时使用 DefaultBaseURL（测试中指向 httptest 服务）。
	BaseURL     string
	Departments department.Mapping
	Logger      *zap.Logger
}

var _ museum.Adapter = Adapter{}

func (Adapter) Code() string { return Code }

func (Adapter) Name() string { return "Cleveland Museum of Art" }

func (a Adapter) Fetch(ctx context.Context, f domain.SearchFilters) (domain.AdapterResult, error) {
	log := a.logger()
	b := domain.NewResultBuilder(Code)

	u := a.searchURL(f, b)
	log.Debug("请求 CMA", zap.String("url", u))

	var resp searchResponse
	if err := museum.GetJSON(ctx, a.Client, Code, u, nil, &resp); err != nil {
		return domain.AdapterResult{}, err
	}
	if resp.Data == nil {
		return domain.AdapterResult{}, &museum.SourceResponseError{Museum: Code, URL: u, Err: errMissingData}
	}

	for _, rec := range *resp.Data {
		art, reason := a.toArtwork(rec)
		if reason != "" {
			log.Debug("跳过 CMA 记录", zap.String("id", string(rec.ID)), zap.String("reason", reason))
			b.Skip(reason)
			continue
		}
		b.Keep(art)
	}

	r := b.Result()
	log.Info("CMA 检索完成",
		zap.Int("fetched", r.Fetched),
		zap.Int("kept", len(r.Artworks)),
		zap.Int("skipped", r.SkippedTotal()),
	)
	return r, nil
}

// searchURL 构造查询参数，并把原生处理的条件记录到 builder。
func (a Adapter) searchURL(f domain.SearchFilters, b *domain.ResultBuilder) string {
	q := url.Values{}
	q.Set("has_image", "1")
	q.Set("limit", strconv.Itoa(f.Limit))

	if f.Query != "" {
		q.Set("q", f.Query)
		b.Applied("query", "Search term: "+f.Query)
	}
	if f.YearMin != nil {
		q.Set("created_after", strconv.Itoa(*f.YearMin))
		b.Applied("year_min", "Created after "+strconv.Itoa(*f.YearMin))
	}
	if f.YearMax != nil {
		q.Set("created_before", strconv.Itoa(*f.YearMax))
		b.Applied("year_max", "Created before "+strconv.Itoa(*f.YearMax))
	}
	if f.Department != "" {
		raws := a.Departments.RawNames(Code, f.Department)
		switch len(raws) {
		case 0:
			b.Warn("No CMA mapping for department %q", f.Department)
		case 1:
			// CMA 的 department 参数只接受单个部门名；多个原始名时交给 engine 在客户端过滤。
			q.Set("department", raws[0])
			b.Applied("department", "Department: "+raws[0])
		}
	}

	return a.baseURL() + "?" + q.Encode()
}

// toArtwork 把一条 CMA 记录映射为 Artwork；无法映射时返回跳过原因。
func (a Adapter) toArtwork(rec record) (domain.Artwork, string) {
	id := strings.TrimSpace(string(rec.ID))
	if id == "" {
		return domain.Artwork{}, domain.SkipMissingIdentifier
	}
	var web webImage
	if rec.Images != nil && rec.Images.Web != nil {
		web = *rec.Images.Web
	}
	if strings.TrimSpace(web.URL) == "" {
		return domain.Artwork{}, domain.SkipMissingImage
	}

	artist := ""
	for _, c := range rec.Creators {
		if d := strings.TrimSpace(c.Description); d != "" {
			artist = d
			break
		}
	}
	if artist == "" {
		artist = string(rec.Culture)
	}

	dept := strings.TrimSpace(rec.Department)
	canonical, _ := a.Departments.Canonicalize(Code, dept)

	art, err := domain.NewArtwork(domain.Artwork{
		ID:                  id,
		Museum:              Code,
		Title:               rec.Title,
		Artist:              artist,
		Date:                rec.CreationDate,
		Years:               museum.Years(rec.CreationDateEarliest, rec.CreationDateLatest),
		Department:          dept,
		CanonicalDepartment: canonical,
		Medium:              rec.Technique,
		Classification:      rec.Type,
		Image:               museum.Size(web.Width, web.Height),
		ImageURL:            web.URL,
		License:             rec.ShareLicenseStatus,
		CreditLine:          strings.TrimSpace(rec.CreditLine),
		Culture:             string(rec.Culture),
		Description:         htmltext.ToText(rec.Description),
		AccessionNumber:     strings.TrimSpace(rec.AccessionNumber),
		SourceURL:           strings.TrimSpace(rec.URL),
	})
	if err == nil {
		err = museum.CheckImageURL(art.ImageURL)
	}
	if err != nil {
		a.logger().Debug("CMA 记录无效", zap.String("id", id), zap.Error(err))
		return domain.Artwork{}, domain.SkipInvalidRecord
	}
	return art, ""
}

func (a Adapter) baseURL() string {
	u := strings.TrimSpace(a.BaseURL)
	if u == "" {
		return DefaultBaseURL
	}
	return u
}

func (a Adapter) logger() *zap.Logger {
	if a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger.With(zap.String("museum", Code))
}

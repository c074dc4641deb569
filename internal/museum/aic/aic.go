package aic

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
	Code = "aic"

	// DefaultBaseURL 是 Art Institute of Chicago API 的作品检索端点。
	DefaultBaseURL = "https://api.artic.edu/api/v1/artworks/search"

	defaultIIIFURL = "https://www.artic.edu/iiif/2"
	sourceURLBase  = "https://www.artic.edu/artworks/"

	// maxPageSize 是 AIC 单页允许的最大 limit。
	maxPageSize = 100

	// DefaultAgent 会放进 AIC-User-Agent 头（AIC 要求调用方自报身份）。
	DefaultAgent = "artfinder (https://github.com/John-Robertt/artfinder)"
)

// fields 只请求映射需要的字段，减小响应体。
var fields = strings.Join([]string{
	"id", "title", "artist_display", "date_display", "date_start", "date_end",
	"medium_display", "department_title", "classification_title", "credit_line",
	"place_of_origin", "accession_number", "is_public_domain", "description",
	"image_id", "thumbnail",
}, ",")

// Adapter 实现 Art Institute of Chicago API 的分页检索与字段映射。
//
// 原生支持：关键词。年份与部门由 engine 在客户端处理。
type Adapter struct {
	Client      *http.Client
	BaseURL     string
	Departments department.Mapping
	Logger      *zap.Logger
	// Agent 为空时使用 DefaultAgent。
	Agent string
}

var _ museum.Adapter = Adapter{}

func (Adapter) Code() string { return Code }

func (Adapter) Name() string { return "Art Institute of Chicago" }

func (a Adapter) Fetch(ctx context.Context, f domain.SearchFilters) (domain.AdapterResult, error) {
	log := a.logger()
	b := domain.NewResultBuilder(Code)

	if f.Query != "" {
		b.Applied("query", "Search term: "+f.Query)
	}
	if f.HasYearBound() {
		b.Applied("year", "Not supported natively; filtered client-side")
	}
	if f.Department != "" {
		b.Applied("department", "Not supported natively; filtered client-side")
		if len(a.Departments.RawNames(Code, f.Department)) == 0 {
			b.Warn("No AIC mapping for department %q", f.Department)
		}
	}

	pageSize, pages := pagePlan(f.Limit)
	header := http.Header{}
	header.Set("AIC-User-Agent", a.agent())

	for page := 1; page <= pages; page++ {
		u := a.searchURL(f.Query, pageSize, page)
		log.Debug("请求 AIC", zap.String("url", u), zap.Int("page", page))

		var resp searchResponse
		if err := museum.GetJSON(ctx, a.Client, Code, u, header, &resp); err != nil {
			return domain.AdapterResult{}, err
		}
		if resp.Data == nil {
			return domain.AdapterResult{}, &museum.SourceResponseError{Museum: Code, URL: u, Err: errMissingData}
		}

		iiif := defaultIIIFURL
		if resp.Config != nil && strings.TrimSpace(resp.Config.IIIFURL) != "" {
			iiif = strings.TrimRight(strings.TrimSpace(resp.Config.IIIFURL), "/")
		}
		for _, rec := range *resp.Data {
			art, reason := a.toArtwork(rec, iiif)
			if reason != "" {
				log.Debug("跳过 AIC 记录", zap.String("id", string(rec.ID)), zap.String("reason", reason))
				b.Skip(reason)
				continue
			}
			b.Keep(art)
		}

		// 最后一页：记录数不足一页，或 pagination 报告已到末页。
		if len(*resp.Data) < pageSize {
			break
		}
		if resp.Pagination != nil && resp.Pagination.TotalPages > 0 && page >= resp.Pagination.TotalPages {
			break
		}
	}

	r := b.Result()
	log.Info("AIC 检索完成",
		zap.Int("fetched", r.Fetched),
		zap.Int("kept", len(r.Artworks)),
		zap.Int("skipped", r.SkippedTotal()),
	)
	return r, nil
}

// pagePlan 选择页大小与页数：页数 = ceil(limit/100)，页大小在各页间均分。
// AIC 以 (page-1)*limit 计算偏移，所以每页必须使用同一 limit；
// 均分后总请求数最多比 limit 多 pages-1 条，这些记录同样计入 fetched。
func pagePlan(limit int) (pageSize, pages int) {
	if limit < 1 {
		limit = domain.DefaultLimit
	}
	pages = (limit + maxPageSize - 1) / maxPageSize
	pageSize = (limit + pages - 1) / pages
	return pageSize, pages
}

func (a Adapter) searchURL(query string, pageSize, page int) string {
	q := url.Values{}
	q.Set("fields", fields)
	q.Set("limit", strconv.Itoa(pageSize))
	q.Set("page", strconv.Itoa(page))
	if query != "" {
		q.Set("q", query)
	}
	return a.baseURL() + "?" + q.Encode()
}

func (a Adapter) toArtwork(rec record, iiif string) (domain.Artwork, string) {
	id := strings.TrimSpace(string(rec.ID))
	if id == "" {
		return domain.Artwork{}, domain.SkipMissingIdentifier
	}
	imageID := strings.TrimSpace(rec.ImageID)
	if imageID == "" {
		return domain.Artwork{}, domain.SkipMissingImage
	}

	var size *domain.ImageSize
	altText := ""
	if rec.Thumbnail != nil {
		size = museum.Size(rec.Thumbnail.Width, rec.Thumbnail.Height)
		altText = rec.Thumbnail.AltText
	}

	dept := strings.TrimSpace(rec.DepartmentTitle)
	canonical, _ := a.Departments.Canonicalize(Code, dept)

	desc := htmltext.ToText(rec.Description)
	if desc == "" {
		desc = htmltext.ToText(altText)
	}

	license := ""
	if rec.IsPublicDomain != nil {
		if *rec.IsPublicDomain {
			license = "Public Domain"
		} else {
			license = "Copyrighted"
		}
	}

	art, err := domain.NewArtwork(domain.Artwork{
		ID:                  id,
		Museum:              Code,
		Title:               rec.Title,
		Artist:              firstLine(rec.ArtistDisplay),
		Date:                rec.DateDisplay,
		Years:               museum.Years(rec.DateStart, rec.DateEnd),
		Department:          dept,
		CanonicalDepartment: canonical,
		Medium:              rec.MediumDisplay,
		Classification:      rec.ClassificationTitle,
		Image:               size,
		ImageURL:            iiif + "/" + url.PathEscape(imageID) + "/full/843,/0/default.jpg",
		License:             license,
		CreditLine:          strings.TrimSpace(rec.CreditLine),
		Culture:             strings.TrimSpace(rec.PlaceOfOrigin),
		Description:         desc,
		AccessionNumber:     strings.TrimSpace(rec.AccessionNumber),
		SourceURL:           sourceURLBase + url.PathEscape(id),
	})
	if err == nil {
		err = museum.CheckImageURL(art.ImageURL)
	}
	if err != nil {
		a.logger().Debug("AIC 记录无效", zap.String("id", id), zap.Error(err))
		return domain.Artwork{}, domain.SkipInvalidRecord
	}
	return art, ""
}

// firstLine 取 artist_display 的第一行（第二行通常是国籍与生卒年）。
func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

func (a Adapter) baseURL() string {
	u := strings.TrimSpace(a.BaseURL)
	if u == "" {
		return DefaultBaseURL
	}
	return u
}

func (a Adapter) agent() string {
	if s := strings.TrimSpace(a.Agent); s != "" {
		return s
	}
	return DefaultAgent
}

func (a Adapter) logger() *zap.Logger {
	if a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger.With(zap.String("museum", Code))
}

// Package download 把检索到的作品图片并发下载到本地目录（统一为 JPEG，且从不覆盖已有文件）。
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/John-Robertt/artfinder/internal/domain"
	"github.com/John-Robertt/artfinder/internal/infra/fsx"
	"github.com/John-Robertt/artfinder/internal/infra/imgx"
)

const (
	StatusDownloaded = "downloaded"
	StatusExists     = "exists"
	StatusFailed     = "failed"
)

const (
	// DefaultConcurrency 是未指定并发时的 worker 数。
	DefaultConcurrency = 4
	// maxImageBytes 限制单张图片大小，防止异常响应耗尽内存。
	maxImageBytes = 64 << 20
)

// Result 是单件作品的下载结果（顺序与输入一致）。
type Result struct {
	Museum    string `json:"museum"`
	ArtworkID string `json:"artwork_id"`
	Path      string `json:"path"`
	Status    string `json:"status"`
	// Format 是下载到的原始格式（jpeg/png/webp/...）；非 JPEG 会被转换。
	Format string `json:"format,omitempty"`
	Bytes  int    `json:"bytes,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Observer 接收每件作品的完成事件（CLI 进度输出）。
// 实现必须并发安全：事件来自多个 goroutine。
type Observer interface {
	OnDownloadDone(idx, total int, r Result, dur time.Duration)
}

// Downloader 下载作品图片到 Dir/<Artwork.Filename()>。
type Downloader struct {
	Client *http.Client
	// Fs 为 nil 时使用真实文件系统。
	Fs          afero.Fs
	Dir         string
	Concurrency int
	Logger      *zap.Logger
	Observer    Observer
}

// Download 并发下载 arts 的图片；单件失败写入对应 Result，不影响其它下载。
func (d Downloader) Download(ctx context.Context, arts []domain.Artwork) []Result {
	results := make([]Result, len(arts))
	if len(arts) == 0 {
		return results
	}

	fs := d.fs()
	log := d.logger()
	total := len(arts)
	var done int32

	finish := func(i int, started time.Time) {
		n := int(atomic.AddInt32(&done, 1))
		r := results[i]
		switch r.Status {
		case StatusFailed:
			log.Warn("下载失败", zap.String("id", r.ArtworkID), zap.String("error", r.Error))
		default:
			log.Debug("下载完成", zap.String("id", r.ArtworkID), zap.String("status", r.Status), zap.String("path", r.Path))
		}
		if d.Observer != nil {
			d.Observer.OnDownloadDone(n, total, r, time.Since(started))
		}
	}

	g := new(errgroup.Group)
	g.SetLimit(d.concurrency())

	// 同一批次内重复的文件名只下载一次；重复项在全部下载结束后沿用首个下载的结果。
	first := make(map[string]int, len(arts))
	names := make([]string, len(arts))
	var dups []int
	for i, a := range arts {
		name := a.Filename()
		names[i] = name
		results[i] = Result{Museum: a.Museum, ArtworkID: a.ID, Path: filepath.Join(d.Dir, name)}

		if _, ok := first[name]; ok {
			dups = append(dups, i)
			continue
		}
		first[name] = i

		i, a, name := i, a, name
		g.Go(func() error {
			started := time.Now()
			d.downloadOne(ctx, fs, a, name, &results[i])
			finish(i, started)
			return nil
		})
	}
	_ = g.Wait()

	for _, i := range dups {
		started := time.Now()
		src := results[first[names[i]]]
		if src.Status == StatusFailed {
			results[i].Status = StatusFailed
			results[i].Error = src.Error
		} else {
			// 首个下载成功或文件本就存在：磁盘上已有该文件。
			results[i].Status = StatusExists
		}
		finish(i, started)
	}
	return results
}

func (d Downloader) downloadOne(ctx context.Context, fs afero.Fs, a domain.Artwork, name string, r *Result) {
	fail := func(err error) {
		r.Status = StatusFailed
		r.Error = err.Error()
	}
	if err := ctx.Err(); err != nil {
		fail(err)
		return
	}

	// 已存在就不发请求。
	exists, err := fsx.Exists(fs, r.Path)
	if err != nil {
		fail(err)
		return
	}
	if exists {
		r.Status = StatusExists
		return
	}

	body, err := d.fetch(ctx, a.ImageURL)
	if err != nil {
		fail(err)
		return
	}
	out, format, err := imgx.EnsureJPEG(body)
	if err != nil {
		fail(fmt.Errorf("图片无法解码：%w", err))
		return
	}
	r.Format = format

	if err := fsx.WriteFileAtomicNoOverwrite(fs, d.Dir, name, out); err != nil {
		if errors.Is(err, os.ErrExist) {
			r.Status = StatusExists
			return
		}
		fail(err)
		return
	}
	r.Status = StatusDownloaded
	r.Bytes = len(out)
}

func (d Downloader) fetch(ctx context.Context, u string) ([]byte, error) {
	if strings.TrimSpace(u) == "" {
		return nil, errors.New("image_url 为空")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "image/jpeg,image/*;q=0.8")

	c := d.Client
	if c == nil {
		c = http.DefaultClient
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, err
	}
	if len(b) > maxImageBytes {
		return nil, fmt.Errorf("图片超过 %d 字节上限", maxImageBytes)
	}
	return b, nil
}

func (d Downloader) concurrency() int {
	n := d.Concurrency
	if n <= 0 {
		n = DefaultConcurrency
	}
	return n
}

func (d Downloader) fs() afero.Fs {
	if d.Fs == nil {
		return afero.NewOsFs()
	}
	return d.Fs
}

func (d Downloader) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// Summary 统计各状态数量。
func Summary(results []Result) (downloaded, exists, failed int) {
	for _, r := range results {
		switch r.Status {
		case StatusDownloaded:
			downloaded++
		case StatusExists:
			exists++
		case StatusFailed:
			failed++
		}
	}
	return downloaded, exists, failed
}

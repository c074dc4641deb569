package main

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/John-Robertt/artfinder/internal/app/search"
	"github.com/John-Robertt/artfinder/internal/config"
	"github.com/John-Robertt/artfinder/internal/domain"
	"github.com/John-Robertt/artfinder/internal/download"
)

var (
	_ search.Observer   = (*progressUI)(nil)
	_ download.Observer = (*progressUI)(nil)
)

// progressUI 是交互终端下的简洁进度输出。
//
// - 所有过程信息写到 stderr（或 fallback 到 stdout），不污染 stdout 的 JSON 输出契约
// - 事件驱动：search/download 只发事件，CLI 决定如何展示
// - 下载阶段长时间无完成事件时定期输出一行 keepalive
type progressUI struct {
	w io.Writer

	mu          sync.Mutex
	startedAt   time.Time
	lastPrinted time.Time

	workers int
	total   int
	done    int
	ok      int
	exists  int
	fail    int

	keepaliveThreshold time.Duration
	tickerInterval     time.Duration

	stopCh        chan struct{}
	tickerStarted bool
}

func newProgressUI(w io.Writer) *progressUI {
	return &progressUI{
		w:                  w,
		keepaliveThreshold: 6 * time.Second,
		tickerInterval:     2 * time.Second,
	}
}

// OnStart 输出生效配置与查询条件。
func (p *progressUI) OnStart(eff config.EffectiveConfig, f domain.SearchFilters, chain []string) {
	now := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.startedAt.IsZero() {
		p.startedAt = now
	}

	fmt.Fprintf(p.w, "[%s] artfinder search\n", now.Format("15:04:05"))
	fmt.Fprintln(p.w, "配置（生效）:")
	if eff.ConfigPath != "" {
		fmt.Fprintf(p.w, "  config: %s\n", eff.ConfigPath)
	}
	fmt.Fprintf(p.w, "  museum: %s\n", strings.Join(chain, " -> "))
	fmt.Fprintf(p.w, "  timeout: %s\n", eff.Timeout)
	fmt.Fprintf(p.w, "  proxy: %s\n", formatProxy(eff.ProxyURL))
	fmt.Fprintf(p.w, "  cache: %s\n", formatCache(eff))
	fmt.Fprintln(p.w, "条件:")
	fmt.Fprintf(p.w, "  %s\n", formatFilters(f))
	fmt.Fprintln(p.w)

	p.lastPrinted = time.Now()
}

func (p *progressUI) OnAttempt(a search.Attempt, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case a.Err == nil:
		fmt.Fprintf(p.w, "%s OK (%s)\n", a.Museum, formatShortDuration(dur))
	default:
		fmt.Fprintf(p.w, "%s FAIL %s: %s (%s)\n",
			a.Museum, a.Stage, truncate(a.Err.Error(), 160), formatShortDuration(dur),
		)
	}
	p.lastPrinted = time.Now()
}

// OnDownloadStart 输出下载阶段概要，并在有待下载作品时启动 keepalive。
func (p *progressUI) OnDownloadStart(total, workers int, dir string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.startedAt.IsZero() {
		p.startedAt = time.Now()
	}
	p.total = total
	p.workers = workers
	fmt.Fprintf(p.w, "下载: workers=%d total=%d dir=%s\n\n", workers, total, dir)
	if total > 0 && !p.tickerStarted {
		p.startTickerLocked()
	}
	p.lastPrinted = time.Now()
}

func (p *progressUI) OnDownloadDone(idx, total int, r download.Result, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done = idx
	p.total = total

	name := strings.ToUpper(r.Museum) + "-" + r.ArtworkID
	switch r.Status {
	case download.StatusDownloaded:
		p.ok++
		note := ""
		if r.Format != "" && r.Format != "jpeg" {
			note = " " + r.Format + "->jpeg"
		}
		fmt.Fprintf(p.w, "[%d/%d] %s OK %s%s (%s)\n",
			idx, total, name, formatBytes(r.Bytes), note, formatShortDuration(dur),
		)
	case download.StatusExists:
		p.exists++
		fmt.Fprintf(p.w, "[%d/%d] %s EXISTS (已存在，跳过) (%s)\n",
			idx, total, name, formatShortDuration(dur),
		)
	default:
		p.fail++
		fmt.Fprintf(p.w, "[%d/%d] %s FAIL: %s (%s)\n",
			idx, total, name, truncate(r.Error, 160), formatShortDuration(dur),
		)
	}
	p.lastPrinted = time.Now()

	// 最后一件完成：停止 ticker，避免在结束打印后又冒出 keepalive。
	if p.done >= p.total {
		p.stopLocked()
	}
}

// Stop 停止 keepalive（可重复调用）。
func (p *progressUI) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *progressUI) stopLocked() {
	if p.tickerStarted {
		close(p.stopCh)
		p.tickerStarted = false
	}
}

func (p *progressUI) startTickerLocked() {
	p.stopCh = make(chan struct{})
	p.tickerStarted = true
	stopCh := p.stopCh

	interval := p.tickerInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	threshold := p.keepaliveThreshold
	if threshold <= 0 {
		threshold = 6 * time.Second
	}

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-t.C:
				p.mu.Lock()
				if p.total > 0 && time.Since(p.lastPrinted) > threshold {
					p.printProgressLocked()
				}
				p.mu.Unlock()
			case <-stopCh:
				return
			}
		}
	}()
}

func (p *progressUI) printProgressLocked() {
	active := min(p.workers, p.total-p.done)
	fmt.Fprintf(p.w, "进度: done=%d/%d ok=%d exists=%d fail=%d active=%d elapsed=%s\n",
		p.done, p.total, p.ok, p.exists, p.fail, active, formatElapsed(time.Since(p.startedAt)),
	)
	p.lastPrinted = time.Now()
}

func formatFilters(f domain.SearchFilters) string {
	parts := []string{"orientation=" + string(f.Orientation), fmt.Sprintf("limit=%d", f.Limit)}
	if f.Query != "" {
		parts = append(parts, fmt.Sprintf("query=%q", f.Query))
	}
	if f.Department != "" {
		parts = append(parts, fmt.Sprintf("department=%q", f.Department))
	}
	if f.HasYearBound() {
		parts = append(parts, "years="+formatBound(f.YearMin)+".."+formatBound(f.YearMax))
	}
	if f.MinResolution != nil {
		parts = append(parts, fmt.Sprintf("min_resolution=%d", *f.MinResolution))
	}
	return strings.Join(parts, " ")
}

func formatBound(p *int) string {
	if p == nil {
		return "*"
	}
	return fmt.Sprint(*p)
}

func formatCache(eff config.EffectiveConfig) string {
	if eff.CacheDriver == "" || eff.CacheDriver == config.CacheNone {
		return "off"
	}
	mem := "off"
	if eff.MemoryEntries > 0 {
		mem = fmt.Sprint(eff.MemoryEntries)
	}
	return fmt.Sprintf("%s (%s, ttl=%s, memory=%s)", eff.CacheDriver, eff.CacheDir, eff.CacheTTL, mem)
}

func formatProxy(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "off"
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "on (" + truncate(raw, 120) + ")"
	}
	auth := "off"
	if u.User != nil {
		auth = "on"
	}
	return fmt.Sprintf("on (%s://%s, auth=%s)", u.Scheme, u.Host, auth)
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

// formatFallbackNote 说明 requested 博物馆为何被跳过；未发生回退时为空。
func formatFallbackNote(rep domain.SearchReport) string {
	req := strings.ToLower(strings.TrimSpace(rep.MuseumRequested))
	used := strings.ToLower(strings.TrimSpace(rep.MuseumUsed))
	if req == "" || used == "" || req == used {
		return ""
	}
	for _, a := range rep.Attempts {
		if strings.ToLower(strings.TrimSpace(a.Museum)) != req || strings.TrimSpace(a.Error) == "" {
			continue
		}
		return " fallback(" + req + " " + a.Stage + ": " + truncate(a.Error, 90) + ")"
	}
	return " fallback(" + req + ")"
}

func formatAttemptChain(attempts []domain.MuseumAttempt, max int) string {
	if len(attempts) == 0 || max == 0 {
		return ""
	}
	if max < 0 {
		max = len(attempts)
	}
	parts := make([]string, 0, len(attempts))
	for _, a := range attempts {
		s := strings.TrimSpace(a.Museum) + ":" + strings.TrimSpace(a.Stage)
		if em := strings.TrimSpace(a.Error); em != "" {
			s += ":" + truncate(em, 80)
		}
		parts = append(parts, s)
		if len(parts) >= max {
			break
		}
	}
	return strings.Join(parts, ";")
}

func formatBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1fMB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.0fKB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%dB", n)
	}
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int(d.Seconds())
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

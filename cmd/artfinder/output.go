package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/John-Robertt/artfinder/internal/config"
	"github.com/John-Robertt/artfinder/internal/department"
	"github.com/John-Robertt/artfinder/internal/domain"
	"github.com/John-Robertt/artfinder/internal/download"
)

type museumEntry struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type departmentEntry struct {
	Name     string   `json:"name"`
	RawNames []string `json:"raw_names,omitempty"`
}

// downloadReport 是 download 命令在 stdout 输出的 JSON 文档。
type downloadReport struct {
	Search  domain.SearchReport `json:"search"`
	Dir     string              `json:"dir"`
	Summary downloadSummary     `json:"summary"`
	Results []download.Result   `json:"results"`
}

type downloadSummary struct {
	Downloaded int `json:"downloaded"`
	Exists     int `json:"exists"`
	Failed     int `json:"failed"`
}

func departmentEntries(m department.Mapping, museum string) []departmentEntry {
	names := m.CanonicalDepartments()
	out := make([]departmentEntry, 0, len(names))
	for _, n := range names {
		e := departmentEntry{Name: n}
		if museum != "" {
			e.RawNames = m.RawNames(museum, n)
		}
		out = append(out, e)
	}
	return out
}

func emitMuseums(w io.Writer, tty bool, ms []museumEntry) {
	if !tty {
		_ = json.NewEncoder(w).Encode(ms)
		return
	}
	for _, m := range ms {
		fmt.Fprintf(w, "%-5s %s\n", m.Code, m.Name)
	}
}

func emitDepartments(w io.Writer, tty bool, ds []departmentEntry) {
	if !tty {
		_ = json.NewEncoder(w).Encode(ds)
		return
	}
	for _, d := range ds {
		if len(d.RawNames) == 0 {
			fmt.Fprintln(w, d.Name)
			continue
		}
		fmt.Fprintf(w, "%s <- %s\n", d.Name, strings.Join(d.RawNames, "; "))
	}
}

// emitReport：stdout 非 TTY 时必须且仅输出一个 SearchReport JSON（摘要走 stderr）；
// TTY 下输出面向人的摘要与作品列表。
func emitReport(stdout, stderr io.Writer, tty bool, rep domain.SearchReport) {
	if !tty {
		_ = json.NewEncoder(stdout).Encode(rep)
		fmt.Fprintln(stderr, summaryLine(rep))
		if rep.ErrorCode != "" {
			fmt.Fprintln(stderr, errorLine(rep))
		}
		return
	}

	fmt.Fprintln(stdout, summaryLine(rep))
	if rep.ErrorCode != "" {
		fmt.Fprintln(stderr, errorLine(rep))
		return
	}
	for _, msg := range rep.Warnings {
		fmt.Fprintf(stderr, "warning: %s\n", msg)
	}
	for i, a := range rep.Artworks {
		fmt.Fprintf(stdout, "%3d. %s\n", i+1, formatArtworkLine(a))
	}
}

func emitDownloadReport(stdout, stderr io.Writer, tty bool, dr downloadReport) {
	dr.Summary.Downloaded, dr.Summary.Exists, dr.Summary.Failed = download.Summary(dr.Results)
	if dr.Results == nil {
		dr.Results = []download.Result{}
	}
	line := fmt.Sprintf("下载完成：downloaded=%d exists=%d failed=%d dir=%s",
		dr.Summary.Downloaded, dr.Summary.Exists, dr.Summary.Failed, dr.Dir,
	)

	if !tty {
		_ = json.NewEncoder(stdout).Encode(dr)
		fmt.Fprintln(stderr, summaryLine(dr.Search))
		fmt.Fprintln(stderr, line)
	} else {
		fmt.Fprintln(stdout, summaryLine(dr.Search))
		fmt.Fprintln(stdout, line)
	}
	for _, r := range dr.Results {
		if r.Status == download.StatusFailed {
			fmt.Fprintf(stderr, "%s-%s %s: %s\n", strings.ToUpper(r.Museum), r.ArtworkID, r.Status, r.Error)
		}
	}
}

// emitConfigError：search/download 仍输出一个失败的 report，保证 stdout 契约不变。
func emitConfigError(cmd string, err error) {
	if cmd != "search" && cmd != "download" {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return
	}
	now := time.Now()
	rep := domain.SearchReport{
		StartedAt:  now,
		FinishedAt: now,
		ErrorCode:  config.Code(err),
		ErrorMsg:   err.Error(),
	}
	if rep.ErrorCode == "" {
		rep.ErrorCode = domain.ErrCodeConfigInvalid
	}
	rep.Finalize()
	emitReport(os.Stdout, os.Stderr, isTTY(os.Stdout), rep)
}

func errorLine(rep domain.SearchReport) string {
	s := rep.ErrorCode + ": " + rep.ErrorMsg
	if len(rep.Attempts) > 1 {
		s += " attempts=" + formatAttemptChain(rep.Attempts, -1)
	}
	return s
}

// summaryLine 形如 "cma: 100 fetched, 12 kept, 88 skipped, reasons: orientation mismatch=80, ..."。
func summaryLine(rep domain.SearchReport) string {
	museum := rep.MuseumUsed
	if museum == "" {
		museum = rep.MuseumRequested
	}
	if museum == "" {
		museum = "-"
	}
	s := fmt.Sprintf("%s: %d fetched, %d kept, %d skipped",
		museum, rep.Summary.Fetched, rep.Summary.Kept, rep.Summary.Skipped,
	)
	if reasons := formatSkipped(rep.Skipped); reasons != "" {
		s += ", reasons: " + reasons
	}
	if note := formatFallbackNote(rep); note != "" {
		s += note
	}
	return s
}

// formatSkipped 按次数降序（同次数按原因名）列出跳过原因。
func formatSkipped(skipped map[string]int) string {
	if len(skipped) == 0 {
		return ""
	}
	reasons := make([]string, 0, len(skipped))
	for r := range skipped {
		reasons = append(reasons, r)
	}
	sort.Slice(reasons, func(i, j int) bool {
		ci, cj := skipped[reasons[i]], skipped[reasons[j]]
		if ci != cj {
			return ci > cj
		}
		return reasons[i] < reasons[j]
	})
	parts := make([]string, 0, len(reasons))
	for _, r := range reasons {
		parts = append(parts, fmt.Sprintf("%s=%d", r, skipped[r]))
	}
	return strings.Join(parts, ", ")
}

func formatArtworkLine(a domain.ArtworkView) string {
	size := "?x?"
	if a.Image != nil {
		size = fmt.Sprintf("%dx%d", a.Image.Width, a.Image.Height)
	}
	s := fmt.Sprintf("[%s %s] %s", a.Orientation, size, truncate(a.Title, 80))
	if a.Artist != "" {
		s += " / " + truncate(a.Artist, 60)
	}
	if a.Date != "" {
		s += " (" + a.Date + ")"
	}
	if a.CanonicalDepartment != "" {
		s += " {" + a.CanonicalDepartment + "}"
	}
	return s
}

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func pickProgressWriter() (io.Writer, bool) {
	// 进度输出只在交互终端启用；默认走 stderr（不污染 stdout JSON）。
	if isTTY(os.Stderr) {
		return os.Stderr, true
	}
	// 某些环境（例如仅重定向 stderr）下，stdout 仍是 TTY：退化输出到 stdout。
	if isTTY(os.Stdout) {
		return os.Stdout, true
	}
	return nil, false
}

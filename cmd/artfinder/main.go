package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/John-Robertt/artfinder/internal/app/search"
	"github.com/John-Robertt/artfinder/internal/config"
	"github.com/John-Robertt/artfinder/internal/department"
	"github.com/John-Robertt/artfinder/internal/domain"
	"github.com/John-Robertt/artfinder/internal/download"
	"github.com/John-Robertt/artfinder/internal/infra/cache"
	"github.com/John-Robertt/artfinder/internal/infra/httpx"
	"github.com/John-Robertt/artfinder/internal/infra/logx"
	"github.com/John-Robertt/artfinder/internal/museum"
	"github.com/John-Robertt/artfinder/internal/museum/builtin"
	"github.com/John-Robertt/artfinder/internal/server"
)

const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 || isHelp(args[0]) {
		printUsage(os.Stdout)
		return
	}

	cmd := args[0]
	if _, ok := allowedFlags[cmd]; !ok {
		fmt.Fprintf(os.Stderr, "未知命令：%q\n\n", cmd)
		printUsage(os.Stderr)
		os.Exit(exitUsage)
	}
	for _, a := range args[1:] {
		if isHelp(a) {
			printUsage(os.Stdout)
			return
		}
	}

	ca, err := parseArgs(cmd, args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n\n", err)
		printUsage(os.Stderr)
		os.Exit(exitUsage)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := dispatch(ctx, cmd, ca)
	stop()
	if code != exitOK {
		os.Exit(code)
	}
}

func dispatch(ctx context.Context, cmd string, ca cliArgs) int {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取当前目录失败：%v\n", err)
		return exitFail
	}
	eff, err := config.LoadEffective(cwd, ca.configArgs())
	if err != nil {
		emitConfigError(cmd, err)
		return exitFail
	}

	a, err := newApp(eff, cmd == "serve")
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化失败：%v\n", err)
		return exitFail
	}
	defer a.Close()

	switch cmd {
	case "museums":
		return a.museumsCmd()
	case "departments":
		return a.departmentsCmd(ca)
	case "search":
		return a.searchCmd(ctx, ca)
	case "download":
		return a.downloadCmd(ctx, ca)
	case "serve":
		return a.serveCmd(ctx)
	}
	return exitUsage
}

// app 持有一次命令执行所需的全部依赖。
type app struct {
	eff    config.EffectiveConfig
	log    *zap.Logger
	reg    *museum.Registry
	depts  department.Mapping
	images *http.Client

	closers []io.Closer
}

func newApp(eff config.EffectiveConfig, jsonLogs bool) (*app, error) {
	log, err := logx.New(logx.Options{Level: eff.LogLevel, JSON: jsonLogs})
	if err != nil {
		return nil, err
	}
	a := &app{eff: eff, log: log, depts: department.Default()}

	netOpts := httpx.Options{
		Timeout:            eff.Timeout,
		ProxyURL:           eff.ProxyURL,
		InsecureSkipVerify: eff.InsecureSkipVerify,
	}
	api, err := httpx.NewClient(netOpts)
	if err != nil {
		return nil, err
	}
	if err := a.wireCache(api); err != nil {
		a.Close()
		return nil, err
	}

	// 图片不进响应缓存：体积大且只下载一次。
	a.images, err = httpx.NewClient(netOpts)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.reg, err = builtin.NewRegistry(builtin.Options{
		Client:      api,
		Departments: &a.depts,
		Logger:      log,
		BaseURLs:    eff.BaseURLs,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// wireCache 按配置在 API client 外层包一层响应缓存。
func (a *app) wireCache(c *http.Client) error {
	var store cache.Store
	switch a.eff.CacheDriver {
	case config.CacheFile:
		store = cache.NewFileStore(afero.NewOsFs(), a.eff.CacheDir)
	case config.CacheSQLite:
		db, err := cache.OpenSQLite(a.eff.CacheDir)
		if err != nil {
			return fmt.Errorf("打开缓存数据库失败：%w", err)
		}
		a.closers = append(a.closers, db)
		store = db
	default:
		return nil
	}
	if a.eff.MemoryEntries > 0 {
		store = cache.Tiered{
			Front:    cache.NewMemoryStore(a.eff.MemoryEntries, a.eff.CacheTTL),
			Back:     store,
			FrontTTL: a.eff.CacheTTL,
		}
	}

	c.Transport = &cache.Transport{
		Base:   c.Transport,
		Store:  store,
		TTL:    a.eff.CacheTTL,
		Logger: a.log,
	}
	a.log.Debug("response cache enabled",
		zap.String("driver", a.eff.CacheDriver),
		zap.String("dir", a.eff.CacheDir),
		zap.Duration("ttl", a.eff.CacheTTL),
		zap.Int("memory_entries", a.eff.MemoryEntries),
	)
	return nil
}

func (a *app) Close() {
	for _, c := range a.closers {
		_ = c.Close()
	}
	a.closers = nil
	if a.log != nil {
		_ = a.log.Sync()
	}
}

func (a *app) service(obs search.Observer) search.Service {
	return search.Service{Registry: a.reg, Departments: &a.depts, Logger: a.log, Observer: obs}
}

func (a *app) museumsCmd() int {
	adapters := a.reg.Adapters()
	out := make([]museumEntry, 0, len(adapters))
	for _, ad := range adapters {
		out = append(out, museumEntry{Code: ad.Code(), Name: ad.Name()})
	}
	emitMuseums(os.Stdout, isTTY(os.Stdout), out)
	return exitOK
}

func (a *app) departmentsCmd(ca cliArgs) int {
	code := ""
	if ca.MuseumSet {
		code = ca.Museum
		if _, err := a.reg.Resolve(code); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", domain.ErrCodeUnknownMuseum, err)
			return exitUsage
		}
	}
	emitDepartments(os.Stdout, isTTY(os.Stdout), departmentEntries(a.depts, code))
	return exitOK
}

func (a *app) searchCmd(ctx context.Context, ca cliArgs) int {
	rep, err := a.runSearch(ctx, ca)
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n", err)
		return exitUsage
	}
	emitReport(os.Stdout, os.Stderr, isTTY(os.Stdout), rep)
	return exitCodeFor(rep.ErrorCode)
}

// runSearch 执行检索；只有查询条件本身非法时返回 error，其余错误写入 report。
func (a *app) runSearch(ctx context.Context, ca cliArgs) (domain.SearchReport, error) {
	f, err := ca.filters(a.eff)
	if err != nil {
		return domain.SearchReport{}, err
	}
	if f, err = a.service(nil).Normalize(f); err != nil {
		return domain.SearchReport{}, err
	}

	var obs search.Observer
	if w, interactive := pickProgressWriter(); interactive {
		chain := []string{f.Museum}
		if ca.Fallback {
			chain = a.service(nil).FallbackOrder(f.Museum)
		}
		ui := newProgressUI(w)
		ui.OnStart(a.eff, f, chain)
		obs = ui
	}
	return a.service(obs).Run(ctx, search.Request{Museum: f.Museum, Fallback: ca.Fallback, Filters: f}), nil
}

func (a *app) downloadCmd(ctx context.Context, ca cliArgs) int {
	rep, err := a.runSearch(ctx, ca)
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n", err)
		return exitUsage
	}
	if rep.ErrorCode != "" {
		emitReport(os.Stdout, os.Stderr, isTTY(os.Stdout), rep)
		return exitCodeFor(rep.ErrorCode)
	}

	arts, err := pickArtworks(rep.Artworks, ca.Pick)
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n", err)
		return exitUsage
	}

	d := download.Downloader{
		Client:      a.images,
		Dir:         a.eff.DownloadDir,
		Concurrency: a.eff.DownloadConcurrency,
		Logger:      a.log,
	}
	var ui *progressUI
	if w, interactive := pickProgressWriter(); interactive {
		ui = newProgressUI(w)
		ui.OnDownloadStart(len(arts), d.Concurrency, d.Dir)
		d.Observer = ui
	}

	results := d.Download(ctx, arts)
	if ui != nil {
		ui.Stop()
	}

	dr := downloadReport{Search: rep, Dir: a.eff.DownloadDir, Results: results}
	emitDownloadReport(os.Stdout, os.Stderr, isTTY(os.Stdout), dr)
	if _, _, failed := download.Summary(results); failed > 0 {
		return exitFail
	}
	return exitOK
}

func (a *app) serveCmd(ctx context.Context) int {
	h := server.New(server.Deps{
		Service:       a.service(nil),
		Departments:   a.depts,
		Logger:        a.log,
		DefaultMuseum: a.eff.Museum,
	})
	if err := server.Run(ctx, a.eff.Listen, h, a.log); err != nil {
		a.log.Error("server stopped", zap.Error(err))
		return exitFail
	}
	return exitOK
}

// pickArtworks 按 1-based 序号挑选作品；picks 为空表示全部。
func pickArtworks(views []domain.ArtworkView, picks []int) ([]domain.Artwork, error) {
	if len(picks) == 0 {
		out := make([]domain.Artwork, 0, len(views))
		for _, v := range views {
			out = append(out, v.Artwork)
		}
		return out, nil
	}
	out := make([]domain.Artwork, 0, len(picks))
	for _, p := range picks {
		if p < 1 || p > len(views) {
			return nil, fmt.Errorf("--pick 序号 %d 超出范围（共 %d 件作品）", p, len(views))
		}
		out = append(out, views[p-1].Artwork)
	}
	return out, nil
}

// exitCodeFor：参数问题（校验失败、未知博物馆）为 2，来源/配置错误为 1。
func exitCodeFor(errCode string) int {
	switch errCode {
	case "":
		return exitOK
	case domain.ErrCodeValidation, domain.ErrCodeUnknownMuseum:
		return exitUsage
	default:
		return exitFail
	}
}

func isHelp(s string) bool {
	return s == "-h" || s == "--help" || s == "help"
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `用法：
  artfinder museums
  artfinder departments [--museum cma|aic]
  artfinder search   [检索参数]
  artfinder download [检索参数] [--pick 1,3] [--dir <目录>]
  artfinder serve    [--listen <地址>]

检索参数：
  --museum          博物馆 code：cma|aic（未指定则读配置文件；最终默认 cma）
  --orientation     any|portrait|landscape（默认 any）
  --department      canonical 部门名（见 artfinder departments）
  --year-from       创作年份下界（含；负数表示公元前）
  --year-to         创作年份上界（含）
  --min-resolution  min(宽, 高) 的最小像素数
  --query           关键词
  --limit           向来源请求的记录数：1..1000（默认 100）
  --fallback        当前博物馆不可用时依次尝试其它博物馆

通用参数：
  --config     配置文件路径（默认读取 ./artfinder.json，不存在则使用默认值）
  --log-level  debug|info|warn|error（日志写 stderr）
  -h, --help   显示帮助

stdout 非终端时只输出一个 JSON 文档；退出码：0 成功，1 来源/配置错误，2 参数错误。
`)
}

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileName 是配置文件的固定文件名（在 cwd 下自动发现）。
const FileName = "artfinder.json"

const (
	// ErrCodeNotFound 表示 --config 指定的配置文件不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

const (
	// DefaultMuseum 是 museum 的最终默认值（当 CLI 与配置文件都未指定时）。
	DefaultMuseum = "cma"
	// DefaultLimit 与 domain.DefaultLimit 保持一致。
	DefaultLimit = 100
	// DefaultTimeout 是单次 API 请求的超时时间。
	DefaultTimeout = 30 * time.Second
	// DefaultDownloadConcurrency 是下载并发的内置默认值。
	DefaultDownloadConcurrency = 4
	// MaxDownloadConcurrency 是下载并发的上限；超出截断。
	MaxDownloadConcurrency = 16
	// DefaultListen 是 serve 的默认监听地址。
	DefaultListen = "127.0.0.1:8080"
	// DefaultLogLevel 是默认日志级别。
	DefaultLogLevel = "info"
	// DefaultCacheTTL 是响应缓存的默认有效期。
	DefaultCacheTTL = 24 * time.Hour
	// DefaultMemoryEntries 是内存缓存层的默认容量（条目数）。
	DefaultMemoryEntries = 256
)

// 缓存驱动。
const (
	CacheNone   = "none"
	CacheFile   = "file"
	CacheSQLite = "sqlite"
)

// CLIArgs 是 CLI 可以覆盖的配置项，并保留“是否显式指定”的信息。
// 这能保证覆盖优先级可实现：例如 --limit 必须能覆盖 config.limit。
type CLIArgs struct {
	// ConfigPath 为 --config 指定的配置文件；非空时文件必须存在。
	ConfigPath string

	Museum    string
	MuseumSet bool

	Limit    int
	LimitSet bool

	DownloadDir    string
	DownloadDirSet bool

	Listen    string
	ListenSet bool

	LogLevel    string
	LogLevelSet bool
}

// FileConfig 对应 artfinder.json 的解析结构。
type FileConfig struct {
	Museum              string                  `json:"museum"`
	Limit               int                     `json:"limit"`
	TimeoutSeconds      int                     `json:"timeout_seconds"`
	Proxy               *ProxyConfig            `json:"proxy"`
	InsecureSkipVerify  bool                    `json:"insecure_skip_verify"`
	Cache               *CacheConfig            `json:"cache"`
	DownloadDir         string                  `json:"download_dir"`
	DownloadConcurrency int                     `json:"download_concurrency"`
	Listen              string                  `json:"listen"`
	LogLevel            string                  `json:"log_level"`
	Museums             map[string]MuseumConfig `json:"museums"`
}

type ProxyConfig struct {
	URL string `json:"url"`
}

type CacheConfig struct {
	Driver        string `json:"driver"`
	Dir           string `json:"dir"`
	TTLHours      int    `json:"ttl_hours"`
	MemoryEntries int    `json:"memory_entries"`
}

// MuseumConfig 是单个博物馆的高级配置（仅通过 artfinder.json 配置，不暴露 CLI 参数）。
type MuseumConfig struct {
	// BaseURL 允许把 API 端点指向镜像或本地录制服务（可选）。
	BaseURL string `json:"base_url"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	// ConfigPath 是实际读取的配置文件；未读取任何文件时为空。
	ConfigPath string

	Museum string
	Limit  int

	Timeout            time.Duration
	ProxyURL           string
	InsecureSkipVerify bool

	CacheDriver   string
	CacheDir      string
	CacheTTL      time.Duration
	MemoryEntries int

	DownloadDir         string
	DownloadConcurrency int

	Listen   string
	LogLevel string

	// BaseURLs 按 museum code（小写）覆盖 API 端点。
	BaseURLs map[string]string
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 发现并读取配置文件，然后与 CLI 参数合并为最终配置。
//
// 发现规则（固定）：
// 1) CLI 提供 --config：读取该文件（必选，不存在即 config_not_found）
// 2) 否则尝试读取 <cwd>/artfinder.json（可选，不存在则全部使用默认值）
//
// 覆盖优先级（固定）：
// - museum/limit/download_dir/listen/log_level：CLI > config > 默认
// - 其他字段：仅由 config 控制
//
// 相对路径（cache.dir、download_dir）以 cwd 为基准。
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	if strings.TrimSpace(cli.ConfigPath) != "" {
		cfgPath := absCleanFrom(cwdAbs, cli.ConfigPath)
		fc, exists, err := readFileConfig(cfgPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
		if !exists {
			return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
		}
		return merge(cwdAbs, cli, fc, cfgPath)
	}

	cfgPath := filepath.Join(cwdAbs, FileName)
	fc, exists, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	if !exists {
		eff, err := merge(cwdAbs, cli, FileConfig{}, cfgPath)
		eff.ConfigPath = ""
		return eff, err
	}
	return merge(cwdAbs, cli, fc, cfgPath)
}

func merge(cwd string, cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	invalid := func(format string, args ...any) error {
		return &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf(format, args...)}
	}

	// museum：CLI > config > 默认
	museum := DefaultMuseum
	if cli.MuseumSet {
		museum = cli.Museum
	} else if strings.TrimSpace(fc.Museum) != "" {
		museum = fc.Museum
	}
	museum = strings.ToLower(strings.TrimSpace(museum))
	if museum == "" {
		return EffectiveConfig{}, invalid("museum 不能为空")
	}

	limit := DefaultLimit
	if cli.LimitSet {
		limit = cli.Limit
	} else if fc.Limit != 0 {
		limit = fc.Limit
	}
	if limit < 1 || limit > 1000 {
		return EffectiveConfig{}, invalid("limit 必须在 [1, 1000] 内，实际 %d", limit)
	}

	timeout := DefaultTimeout
	if fc.TimeoutSeconds < 0 {
		return EffectiveConfig{}, invalid("timeout_seconds 不能为负数，实际 %d", fc.TimeoutSeconds)
	}
	if fc.TimeoutSeconds > 0 {
		timeout = time.Duration(fc.TimeoutSeconds) * time.Second
	}

	proxyURL := ""
	if fc.Proxy != nil {
		proxyURL = strings.TrimSpace(fc.Proxy.URL)
	}
	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("proxy.url 无效：%w", err)}
		}
		if u.Scheme == "" || u.Host == "" {
			return EffectiveConfig{}, invalid("proxy.url 缺少 scheme 或 host：%q", proxyURL)
		}
	}

	cacheCfg := CacheConfig{}
	if fc.Cache != nil {
		cacheCfg = *fc.Cache
	}
	driver := strings.ToLower(strings.TrimSpace(cacheCfg.Driver))
	switch driver {
	case "":
		driver = CacheNone
	case CacheNone, CacheFile, CacheSQLite:
	default:
		return EffectiveConfig{}, invalid("cache.driver 只能是 none、file 或 sqlite，实际 %q", cacheCfg.Driver)
	}
	cacheDir := strings.TrimSpace(cacheCfg.Dir)
	if cacheDir == "" {
		cacheDir = defaultCacheDir(cwd)
	}
	cacheDir = absCleanFrom(cwd, cacheDir)
	if cacheCfg.TTLHours < 0 {
		return EffectiveConfig{}, invalid("cache.ttl_hours 不能为负数，实际 %d", cacheCfg.TTLHours)
	}
	ttl := DefaultCacheTTL
	if cacheCfg.TTLHours > 0 {
		ttl = time.Duration(cacheCfg.TTLHours) * time.Hour
	}
	// memory_entries：0 使用默认值，负数关闭内存层。
	memEntries := cacheCfg.MemoryEntries
	if memEntries == 0 {
		memEntries = DefaultMemoryEntries
	}
	if memEntries < 0 {
		memEntries = 0
	}

	downloadDir := "downloads"
	if cli.DownloadDirSet {
		downloadDir = cli.DownloadDir
	} else if strings.TrimSpace(fc.DownloadDir) != "" {
		downloadDir = fc.DownloadDir
	}
	if strings.TrimSpace(downloadDir) == "" {
		return EffectiveConfig{}, invalid("download_dir 不能为空")
	}
	downloadDir = absCleanFrom(cwd, downloadDir)

	concurrency := fc.DownloadConcurrency
	if concurrency == 0 {
		concurrency = DefaultDownloadConcurrency
	}
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > MaxDownloadConcurrency {
		concurrency = MaxDownloadConcurrency
	}

	listen := DefaultListen
	if cli.ListenSet {
		listen = cli.Listen
	} else if strings.TrimSpace(fc.Listen) != "" {
		listen = fc.Listen
	}
	listen = strings.TrimSpace(listen)
	if listen == "" {
		return EffectiveConfig{}, invalid("listen 不能为空")
	}

	level := DefaultLogLevel
	if cli.LogLevelSet {
		level = cli.LogLevel
	} else if strings.TrimSpace(fc.LogLevel) != "" {
		level = fc.LogLevel
	}
	level = strings.ToLower(strings.TrimSpace(level))
	switch level {
	case "debug", "info", "warn", "error":
	default:
		return EffectiveConfig{}, invalid("log_level 只能是 debug、info、warn 或 error，实际 %q", level)
	}

	baseURLs := make(map[string]string, len(fc.Museums))
	for code, mc := range fc.Museums {
		u := strings.TrimSpace(mc.BaseURL)
		if u == "" {
			continue
		}
		pu, err := url.Parse(u)
		if err != nil || pu.Scheme == "" || pu.Host == "" {
			return EffectiveConfig{}, invalid("museums.%s.base_url 无效：%q", code, u)
		}
		if pu.Scheme != "http" && pu.Scheme != "https" {
			return EffectiveConfig{}, invalid("museums.%s.base_url 必须是 http/https：%q", code, u)
		}
		baseURLs[strings.ToLower(strings.TrimSpace(code))] = u
	}

	return EffectiveConfig{
		ConfigPath:          cfgPath,
		Museum:              museum,
		Limit:               limit,
		Timeout:             timeout,
		ProxyURL:            proxyURL,
		InsecureSkipVerify:  fc.InsecureSkipVerify,
		CacheDriver:         driver,
		CacheDir:            cacheDir,
		CacheTTL:            ttl,
		MemoryEntries:       memEntries,
		DownloadDir:         downloadDir,
		DownloadConcurrency: concurrency,
		Listen:              listen,
		LogLevel:            level,
		BaseURLs:            baseURLs,
	}, nil
}

// defaultCacheDir 优先使用用户缓存目录；不可用时退回 <cwd>/.artfinder-cache。
func defaultCacheDir(cwd string) string {
	if d, err := os.UserCacheDir(); err == nil && d != "" {
		return filepath.Join(d, "artfinder")
	}
	return filepath.Join(cwd, ".artfinder-cache")
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
// - p 若已是绝对路径：直接 Clean
// - p 若是相对路径：Join(base, p) 后 Clean
func absCleanFrom(base, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = filepath.Clean(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 JSON 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}

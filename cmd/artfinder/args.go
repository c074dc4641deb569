package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/John-Robertt/artfinder/internal/config"
	"github.com/John-Robertt/artfinder/internal/domain"
)

// cliArgs 是所有子命令共享的参数集合；每个子命令只接受其中一部分（见 allowedFlags）。
type cliArgs struct {
	Config string

	Museum    string
	MuseumSet bool

	Orientation   string
	Department    string
	YearFrom      *int
	YearTo        *int
	MinResolution *int
	Query         string

	Limit    int
	LimitSet bool

	Fallback bool

	// Pick 是 1-based 的作品序号（按检索结果顺序）；为空表示全部。
	Pick []int

	Dir    string
	DirSet bool

	Listen    string
	ListenSet bool

	LogLevel    string
	LogLevelSet bool
}

var searchFlags = []string{
	"--config", "--museum", "--orientation", "--department", "--year-from", "--year-to",
	"--min-resolution", "--query", "--limit", "--fallback", "--log-level",
}

var allowedFlags = map[string][]string{
	"museums":     {"--config", "--log-level"},
	"departments": {"--config", "--museum", "--log-level"},
	"search":      searchFlags,
	"download":    append(append([]string{}, searchFlags...), "--pick", "--dir"),
	"serve":       {"--config", "--museum", "--listen", "--log-level"},
}

// boolFlags 可以不带值出现（--fallback 等价于 --fallback=true）。
var boolFlags = map[string]bool{"--fallback": true}

func parseArgs(cmd string, args []string) (cliArgs, error) {
	allowed, ok := allowedFlags[cmd]
	if !ok {
		return cliArgs{}, fmt.Errorf("未知命令 %q", cmd)
	}
	isAllowed := func(name string) bool {
		for _, a := range allowed {
			if a == name {
				return true
			}
		}
		return false
	}

	ca := cliArgs{}
	for i := 0; i < len(args); i++ {
		a := args[i]
		if !strings.HasPrefix(a, "-") {
			return cliArgs{}, fmt.Errorf("多余的参数 %q", a)
		}

		name, val, hasVal := strings.Cut(a, "=")
		if !isAllowed(name) {
			return cliArgs{}, fmt.Errorf("未知参数 %q", name)
		}
		if !hasVal && !boolFlags[name] {
			if i+1 >= len(args) {
				return cliArgs{}, fmt.Errorf("%s 需要一个值", name)
			}
			i++
			val = args[i]
		}

		if err := ca.set(name, val, hasVal); err != nil {
			return cliArgs{}, err
		}
	}
	return ca, nil
}

func (ca *cliArgs) set(name, val string, hasVal bool) error {
	var err error
	switch name {
	case "--config":
		ca.Config = strings.TrimSpace(val)
		if ca.Config == "" {
			return fmt.Errorf("--config 不能为空")
		}
	case "--museum":
		ca.Museum = strings.ToLower(strings.TrimSpace(val))
		ca.MuseumSet = true
		if ca.Museum == "" {
			return fmt.Errorf("--museum 不能为空")
		}
	case "--orientation":
		o, perr := domain.ParseOrientation(val)
		if perr != nil {
			return fmt.Errorf("--orientation 只能是 any、portrait 或 landscape，实际是 %q", val)
		}
		ca.Orientation = string(o)
	case "--department":
		ca.Department = strings.TrimSpace(val)
	case "--query":
		ca.Query = strings.TrimSpace(val)
	case "--year-from":
		ca.YearFrom, err = intFlag(name, val)
	case "--year-to":
		ca.YearTo, err = intFlag(name, val)
	case "--min-resolution":
		ca.MinResolution, err = intFlag(name, val)
	case "--limit":
		var p *int
		if p, err = intFlag(name, val); err == nil {
			if *p < 1 || *p > domain.MaxLimit {
				return fmt.Errorf("--limit 必须在 [1, %d] 内，实际是 %d", domain.MaxLimit, *p)
			}
			ca.Limit, ca.LimitSet = *p, true
		}
	case "--fallback":
		if !hasVal {
			ca.Fallback = true
			return nil
		}
		switch val {
		case "true":
			ca.Fallback = true
		case "false":
			ca.Fallback = false
		default:
			return fmt.Errorf("--fallback 只能是 true 或 false，实际是 %q", val)
		}
	case "--pick":
		ca.Pick, err = parsePick(val)
	case "--dir":
		ca.Dir = strings.TrimSpace(val)
		ca.DirSet = true
		if ca.Dir == "" {
			return fmt.Errorf("--dir 不能为空")
		}
	case "--listen":
		ca.Listen = strings.TrimSpace(val)
		ca.ListenSet = true
		if ca.Listen == "" {
			return fmt.Errorf("--listen 不能为空")
		}
	case "--log-level":
		ca.LogLevel = strings.TrimSpace(val)
		ca.LogLevelSet = true
	}
	return err
}

func intFlag(name, val string) (*int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return nil, fmt.Errorf("%s 必须是整数，实际是 %q", name, val)
	}
	return &v, nil
}

// parsePick 解析 "1,3,5"；序号从 1 开始，重复的序号只保留一次。
func parsePick(s string) ([]int, error) {
	var out []int
	seen := map[int]bool{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("--pick 只能是逗号分隔的正整数，实际是 %q", s)
		}
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("--pick 不能为空")
	}
	return out, nil
}

func (ca cliArgs) configArgs() config.CLIArgs {
	return config.CLIArgs{
		ConfigPath:     ca.Config,
		Museum:         ca.Museum,
		MuseumSet:      ca.MuseumSet,
		Limit:          ca.Limit,
		LimitSet:       ca.LimitSet,
		DownloadDir:    ca.Dir,
		DownloadDirSet: ca.DirSet,
		Listen:         ca.Listen,
		ListenSet:      ca.ListenSet,
		LogLevel:       ca.LogLevel,
		LogLevelSet:    ca.LogLevelSet,
	}
}

// filters 把 CLI 参数与生效配置合并为查询条件（museum/limit 已在配置层完成优先级合并）。
func (ca cliArgs) filters(eff config.EffectiveConfig) (domain.SearchFilters, error) {
	return domain.NewSearchFilters(domain.SearchFilters{
		Museum:        eff.Museum,
		Orientation:   domain.Orientation(ca.Orientation),
		Department:    ca.Department,
		YearMin:       ca.YearFrom,
		YearMax:       ca.YearTo,
		MinResolution: ca.MinResolution,
		Query:         ca.Query,
		Limit:         eff.Limit,
	})
}

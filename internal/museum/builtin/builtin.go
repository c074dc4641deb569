// Package builtin 把内置的博物馆 adapter 组装成注册表。
package builtin

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/John-Robertt/artfinder/internal/department"
	"github.com/John-Robertt/artfinder/internal/museum"
	"github.com/John-Robertt/artfinder/internal/museum/aic"
	"github.com/John-Robertt/artfinder/internal/museum/cma"
)

// Options 是所有内置 adapter 共享的依赖。
type Options struct {
	Client *http.Client
	// Departments 为零值时使用 department.Default()。
	Departments *department.Mapping
	Logger      *zap.Logger
	// BaseURLs 按 museum code 覆盖 API 端点（配置 museums.<code>.base_url）。
	BaseURLs map[string]string
}

// Codes 是内置 museum code（按字典序）。
func Codes() []string { return []string{aic.Code, cma.Code} }

// NewRegistry 注册全部内置 adapter。
func NewRegistry(opts Options) (*museum.Registry, error) {
	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}
	m := department.Default()
	if opts.Departments != nil {
		m = *opts.Departments
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return museum.NewRegistry(
		cma.Adapter{Client: client, BaseURL: baseURL(opts.BaseURLs, cma.Code), Departments: m, Logger: log},
		aic.Adapter{Client: client, BaseURL: baseURL(opts.BaseURLs, aic.Code), Departments: m, Logger: log},
	)
}

func baseURL(urls map[string]string, code string) string {
	for k, v := range urls {
		if strings.EqualFold(strings.TrimSpace(k), code) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

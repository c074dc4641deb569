package museum

import (
	"context"

	"github.com/John-Robertt/artfinder/internal/domain"
)

// Adapter 把“博物馆 API 的差异”限制在各自的包内部；核心流程只依赖统一接口与稳定的 Artwork。
//
// 约束：
// - Fetch 不做缓存、不做重试（这些由 httpx/cache 层统一实现）
// - Fetch 不保留跨调用的状态；同一 Adapter 可被并发调用
// - 每条来源记录要么映射为 Artwork，要么计入一个跳过原因
// - 远端不可达/超时/非 2xx 返回 *SourceUnavailableError；响应无法解析返回 *SourceResponseError
type Adapter interface {
	// Code 是注册表中的 museum code（小写，例如 "cma"）。
	Code() string
	// Name 是完整的展示名（例如 "Cleveland Museum of Art"）。
	Name() string
	Fetch(ctx context.Context, f domain.SearchFilters) (domain.AdapterResult, error)
}

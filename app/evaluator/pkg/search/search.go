package search

import (
	"context"
	"errors"

	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/model"
)

// ErrThrottled 检索服务返回限流信号
var ErrThrottled = errors.New("search provider throttled")

// Searcher 定义通用的检索接口
type Searcher interface {
	Search(ctx context.Context, req *Request) (*Response, error)
	// Stats 返回进程级请求计数，仅用于观测
	Stats() Stats
}

// Request 通用检索请求，按采集器逐次构造，构造后不再修改
type Request struct {
	Query              string
	NumResults         int
	IncludeDomains     []string
	ExcludeDomains     []string
	StartPublishedDate string // YYYY-MM-DD
	EndPublishedDate   string // YYYY-MM-DD
	IncludeText        bool
	Highlights         bool
}

// Response 通用检索响应
type Response struct {
	Results []model.EvidenceItem
}

// Stats 进程级请求统计
type Stats struct {
	RequestCount    int64
	LastRequestUnix int64
}

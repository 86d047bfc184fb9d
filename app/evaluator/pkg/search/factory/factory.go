package factory

import (
	"fmt"

	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/config"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/exa"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/search"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/tavily"
)

// NewSearcher 根据配置创建检索实例
func NewSearcher(cfg *config.Config) (search.Searcher, error) {
	provider := cfg.Search.Provider
	if provider == "" {
		// 默认回退逻辑：有哪个 key 用哪个，Exa 优先
		switch {
		case cfg.Search.Exa.APIKey != "":
			provider = "exa"
		case cfg.Search.Tavily.APIKey != "":
			provider = "tavily"
		default:
			return nil, fmt.Errorf("search provider not configured")
		}
	}

	switch provider {
	case "exa":
		return exa.NewClient(cfg.Search.Exa.APIKey)
	case "tavily":
		return tavily.NewClient(cfg.Search.Tavily.APIKey)
	default:
		return nil, fmt.Errorf("unknown search provider: %s", provider)
	}
}

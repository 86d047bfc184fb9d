package main

import (
	"context"
	"flag"
	"os"

	"github.com/go-kratos/kratos/v2"
	kconfig "github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/file"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"
	"golang.org/x/time/rate"

	"github.com/kyadav2270/iva-agent/app/display/internal/biz"
	"github.com/kyadav2270/iva-agent/app/display/internal/conf"
	"github.com/kyadav2270/iva-agent/app/display/internal/data"
	"github.com/kyadav2270/iva-agent/app/display/internal/server"
	"github.com/kyadav2270/iva-agent/app/display/internal/service"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/config"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/evaluator"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/llm"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/portfolio"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/search/factory"
)

// go build -ldflags "-X main.Version=x.y.z"
var (
	// Name 是服务的名称
	Name string = "display"
	// Version 是服务的版本号
	Version string
	// flagconf 是配置文件的路径命令行参数
	flagconf string

	id, _ = os.Hostname()
)

func init() {
	flag.StringVar(&flagconf, "conf", "app/display/configs/config.yaml", "config path, eg: -conf config.yaml")
}

func main() {
	flag.Parse()
	logger := log.With(log.NewStdLogger(os.Stdout),
		"ts", log.DefaultTimestamp,
		"caller", log.DefaultCaller,
		"service.id", id,
		"service.name", Name,
		"service.version", Version,
	)

	c := kconfig.New(
		kconfig.WithSource(
			file.NewSource(flagconf),
		),
	)
	defer c.Close()

	if err := c.Load(); err != nil {
		panic(err)
	}

	var bc conf.Bootstrap
	if err := c.Scan(&bc); err != nil {
		panic(err)
	}

	app, cleanup, err := initApp(&bc, logger)
	if err != nil {
		panic(err)
	}
	defer cleanup()

	if err := app.Run(); err != nil {
		panic(err)
	}
}

// initApp 手工装配依赖：存储、评估引擎、监控器、用例与 HTTP 服务
func initApp(bc *conf.Bootstrap, logger log.Logger) (*kratos.App, func(), error) {
	d, cleanup, err := data.NewData(bc.Data, logger)
	if err != nil {
		return nil, nil, err
	}

	agentCfg := agentConfig(bc.Agent)
	searcher, err := factory.NewSearcher(agentCfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	limiter := rate.NewLimiter(rate.Limit(float64(agentCfg.Concurrency.RPM)/60.0), agentCfg.Concurrency.QPS)
	llmClient, err := llm.NewClient(context.Background(), agentCfg.LLM, limiter)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	engine := evaluator.New(searcher, llmClient, d.Store(), agentCfg.Scoring.DDThreshold)
	watcher := portfolio.NewMonitor(searcher, llmClient)

	ucEval := biz.NewEvaluationUseCase(engine, data.NewEvaluationRepo(d, logger), logger)
	ucPortfolio := biz.NewPortfolioUseCase(watcher, data.NewPortfolioRepo(d, logger), logger)
	svc := service.NewDisplayService(ucEval, ucPortfolio, logger)
	hs := server.NewHTTPServer(bc.Server, svc, logger)

	return newApp(logger, hs), cleanup, nil
}

// agentConfig 把展示服务的引擎配置映射到 evaluator 侧的配置结构
func agentConfig(a *conf.Agent) *config.Config {
	cfg := &config.Config{}
	if a == nil {
		return cfg
	}
	if a.Llm != nil {
		cfg.LLM = config.LLMConfig{BaseURL: a.Llm.BaseUrl, APIKey: a.Llm.ApiKey, Model: a.Llm.Model}
	}
	if a.Search != nil {
		cfg.Search.Provider = a.Search.Provider
		if a.Search.Exa != nil {
			cfg.Search.Exa.APIKey = a.Search.Exa.ApiKey
		}
		if a.Search.Tavily != nil {
			cfg.Search.Tavily.APIKey = a.Search.Tavily.ApiKey
		}
	}
	if a.Scoring != nil {
		cfg.Scoring.DDThreshold = int(a.Scoring.DdThreshold)
	}
	if a.Concurrency != nil {
		cfg.Concurrency.QPS = int(a.Concurrency.Qps)
		cfg.Concurrency.RPM = int(a.Concurrency.Rpm)
	}
	cfg.Normalize()
	return cfg
}

func newApp(logger log.Logger, hs *http.Server) *kratos.App {
	return kratos.New(
		kratos.ID(id),
		kratos.Name(Name),
		kratos.Version(Version),
		kratos.Metadata(map[string]string{}),
		kratos.Logger(logger),
		kratos.Server(hs),
	)
}

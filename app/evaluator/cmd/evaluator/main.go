package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/config"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/evaluator"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/llm"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/logger"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/model"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/portfolio"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/search"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/search/factory"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/storage"
)

func main() {
	var (
		configPath  = flag.String("config", "configs/config.yaml", "配置文件路径")
		companyName = flag.String("company", "", "待评估的公司名")
		website     = flag.String("website", "", "公司官网（可选）")
		industry    = flag.String("industry", "", "所属行业（可选）")
		founders    = flag.String("founders", "", "创始人名单，逗号分隔（可选）")
		monitor     = flag.Bool("monitor", false, "执行组合监控而非单公司评估")
	)
	flag.Parse()

	// .env 不存在时静默跳过，环境变量仍可直接注入
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("无法加载配置文件: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("配置错误: %v", err)
	}

	if err := logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		log.Fatalf("无法初始化日志: %v", err)
	}
	logger.Log.Info("启动投资评估代理...")

	ctx := context.Background()

	searcher, err := factory.NewSearcher(cfg)
	if err != nil {
		logger.Log.Fatalf("检索客户端初始化失败: %v", err)
	}

	limit := rate.Limit(float64(cfg.Concurrency.RPM) / 60.0)
	limiter := rate.NewLimiter(limit, cfg.Concurrency.QPS)
	logger.Log.Infof("限流器已配置: Limit=%.2f req/s, Burst=%d", float64(limit), cfg.Concurrency.QPS)

	llmClient, err := llm.NewClient(ctx, cfg.LLM, limiter)
	if err != nil {
		logger.Log.Fatalf("LLM 初始化失败: %v", err)
	}

	// 数据库未配置时以纯内存模式运行
	var store *storage.Storage
	if cfg.DB.Host != "" {
		store, err = storage.NewStorage(cfg.DB)
		if err != nil {
			logger.Log.Fatalf("数据库初始化失败: %v", err)
		}
		defer store.Close()
	} else {
		logger.Log.Warn("未配置数据库，评估结果不会持久化")
	}

	if *monitor {
		runMonitor(ctx, searcher, llmClient, store)
		return
	}

	if *companyName == "" {
		fmt.Fprintln(os.Stderr, "usage: evaluator -company <name> [-website <url>] [-industry <name>] [-founders <a,b>]")
		os.Exit(2)
	}

	runEvaluation(ctx, cfg, searcher, llmClient, store, evaluator.Input{
		CompanyName:  *companyName,
		Website:      *website,
		Industry:     *industry,
		FounderNames: splitNames(*founders),
	})
}

func runEvaluation(ctx context.Context, cfg *config.Config, searcher search.Searcher, llmClient *llm.Client, store *storage.Storage, input evaluator.Input) {
	eval := evaluator.New(searcher, llmClient, storeOrNil(store), cfg.Scoring.DDThreshold)
	eval.StatusFunc = func(event model.ProgressEvent) {
		if event.Err != "" {
			logger.Log.Errorf("[%3d%%] %s: %s", event.Progress, event.Step, event.Err)
			return
		}
		logger.Log.Infof("[%3d%%] %s: %s", event.Progress, event.Step, event.Message)
	}

	result, err := eval.Run(ctx, input)
	if err != nil {
		logger.Log.Fatalf("评估失败 [%s]: %v", input.CompanyName, err)
	}

	printJSON(struct {
		Company        model.Company         `json:"company"`
		Score          model.InvestmentScore `json:"score"`
		Recommendation string                `json:"recommendation"`
		DataQuality    string                `json:"data_quality"`
		Memo           string                `json:"memo"`
	}{
		Company:        result.Company,
		Score:          result.Score,
		Recommendation: result.Recommendation,
		DataQuality:    result.DataQuality,
		Memo:           result.Memo,
	})

	if result.DDReport != nil {
		logger.Log.Infof("综合尽调完成: 总分 %d, 建议 %s", result.DDReport.OverallScore, result.DDReport.Recommendation)
	}
	logger.Log.Infof("✅ 评估完成: %s (耗时 %v)", input.CompanyName, result.ProcessingTime)
}

func runMonitor(ctx context.Context, searcher search.Searcher, llmClient *llm.Client, store *storage.Storage) {
	if store == nil {
		logger.Log.Fatal("组合监控需要配置数据库")
	}
	companies, err := store.ListCompanies(ctx)
	if err != nil {
		logger.Log.Fatalf("读取公司列表失败: %v", err)
	}
	if len(companies) == 0 {
		logger.Log.Warn("数据库中没有公司，跳过监控")
		return
	}

	mon := portfolio.NewMonitor(searcher, llmClient)
	batch := mon.MonitorAll(ctx, companies)

	for _, report := range batch.Reports {
		if len(report.Alerts) == 0 {
			continue
		}
		if err := store.SaveAlerts(ctx, report.Alerts); err != nil {
			logger.Log.Errorf("告警入库失败 [%s]: %v", report.CompanyName, err)
		}
	}

	printJSON(batch)
	logger.Log.Infof("✅ 组合监控完成: %d/%d 家公司巡检成功, %d 条洞察",
		len(batch.Reports), len(companies), len(batch.Insights))
}

// storeOrNil 避免把非 nil 的 *Storage 空指针包进非空接口
func storeOrNil(store *storage.Storage) evaluator.Store {
	if store == nil {
		return nil
	}
	return store
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		logger.Log.Errorf("结果序列化失败: %v", err)
		return
	}
	fmt.Println(string(out))
}

func splitNames(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}

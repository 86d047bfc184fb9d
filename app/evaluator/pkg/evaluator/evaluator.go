package evaluator

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/dd"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/logger"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/model"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/search"
)

// 流水线步骤名与对应进度百分比，顺序固定
const (
	StepInitialization     = "initialization"
	StepDatabaseCheck      = "database-check"
	StepDataGathering      = "data-gathering"
	StepNewsSearch         = "news-search"
	StepCompetitorAnalysis = "competitor-analysis"
	StepMarketResearch     = "market-research"
	StepFounderResearch    = "founder-research"
	StepDatabaseUpdate     = "database-update"
	StepAIAnalysis         = "ai-analysis"
	StepMemoGeneration     = "memo-generation"
	StepDueDiligence       = "due-diligence"
	StepStoringResults     = "storing-results"
	StepComprehensiveDD    = "comprehensive-dd"
	StepCompleted          = "completed"
	StepError              = "error"
)

// Store 评估结果持久化接口。实现见 storage 包，允许为 nil（纯内存运行）。
type Store interface {
	GetCompanyByName(ctx context.Context, name string) (*model.Company, error)
	CreateCompany(ctx context.Context, company *model.Company) error
	UpdateCompany(ctx context.Context, company *model.Company) error
	CreateFounder(ctx context.Context, founder *model.Founder) error
	CreateEvaluation(ctx context.Context, evaluation *model.Evaluation) error
	CreateMarketInsight(ctx context.Context, insight *model.MarketInsight) error
	SaveDDReport(ctx context.Context, companyID string, report *dd.Report) error
}

// Input 一次评估的输入
type Input struct {
	CompanyName  string
	Website      string
	Description  string
	Industry     string
	FoundedYear  int
	FounderNames []string
}

// Result 一次评估的完整产出
type Result struct {
	Company        model.Company
	Founders       []model.Founder
	Score          model.InvestmentScore
	Recommendation string
	Memo           string
	DDQuestions    []string
	MarketInsight  model.MarketInsight
	DDReport       *dd.Report
	DataQuality    string
	ProcessingTime time.Duration
}

// Evaluator 评估编排器：串行推进各步骤，进度事件同步回调
type Evaluator struct {
	gatherer    *Gatherer
	extractor   dd.Extractor
	aggregator  *dd.Aggregator
	store       Store
	ddThreshold int

	// StatusFunc 进度回调，可为 nil
	StatusFunc func(model.ProgressEvent)
}

// New 创建评估编排器。ddThreshold 为触发综合尽调的快速评分下限。
func New(searcher search.Searcher, extractor dd.Extractor, store Store, ddThreshold int) *Evaluator {
	return &Evaluator{
		gatherer:    NewGatherer(searcher),
		extractor:   extractor,
		aggregator:  dd.NewAggregator(dd.NewCollectors(searcher, extractor), extractor),
		store:       store,
		ddThreshold: ddThreshold,
	}
}

func (e *Evaluator) updateStatus(step string, progress int, message string, completed bool, err error) {
	if e.StatusFunc == nil {
		return
	}
	event := model.ProgressEvent{Step: step, Progress: progress, Message: message, Completed: completed}
	if err != nil {
		event.Err = err.Error()
	}
	e.StatusFunc(event)
}

// Run 执行完整评估流水线。可恢复的采集失败被吸收，
// 关键步骤失败时发出终态错误事件并返回错误。
func (e *Evaluator) Run(ctx context.Context, input Input) (*Result, error) {
	started := time.Now()
	companyName := strings.TrimSpace(input.CompanyName)
	if companyName == "" {
		return nil, fmt.Errorf("company name is required")
	}

	result, err := e.run(ctx, companyName, input)
	if err != nil {
		e.updateStatus(StepError, 0, fmt.Sprintf("evaluation failed: %v", err), false, err)
		return nil, err
	}

	result.ProcessingTime = time.Since(started)
	e.updateStatus(StepCompleted, 100, "Evaluation completed", true, nil)
	logger.Log.Infof("评估完成 [%s]: 评分 %d, 数据质量 %s, 耗时 %v",
		companyName, result.Score.OverallScore, result.DataQuality, result.ProcessingTime)
	return result, nil
}

func (e *Evaluator) run(ctx context.Context, companyName string, input Input) (*Result, error) {
	e.updateStatus(StepInitialization, 0, fmt.Sprintf("Starting evaluation of %s", companyName), false, nil)

	e.updateStatus(StepDatabaseCheck, 10, "Checking for existing records", false, nil)
	var existing *model.Company
	if e.store != nil {
		found, err := e.store.GetCompanyByName(ctx, companyName)
		if err != nil {
			return nil, fmt.Errorf("database check failed: %w", err)
		}
		existing = found
	}

	e.updateStatus(StepDataGathering, 20, "Gathering company information", false, nil)
	info := e.gatherer.SearchCompanyInfo(ctx, companyName)
	mergeInput(&info, input)

	e.updateStatus(StepNewsSearch, 30, "Searching recent news", false, nil)
	news := e.gatherer.SearchRecentNews(ctx, companyName, 90)

	e.updateStatus(StepCompetitorAnalysis, 40, "Analyzing competitors", false, nil)
	competitors := e.gatherer.SearchCompetitors(ctx, companyName, info.Industry)

	e.updateStatus(StepMarketResearch, 50, "Researching market", false, nil)
	marketData := e.gatherer.SearchMarketData(ctx, info.Industry)

	e.updateStatus(StepFounderResearch, 60, "Researching founders", false, nil)
	founderData := make([]model.FounderBackground, 0, len(input.FounderNames))
	for _, name := range input.FounderNames {
		founderData = append(founderData, e.gatherer.SearchFounderBackground(ctx, name, companyName))
	}

	e.updateStatus(StepDatabaseUpdate, 65, "Updating company records", false, nil)
	company, founders, err := e.persistCompany(ctx, existing, info, founderData)
	if err != nil {
		return nil, fmt.Errorf("database update failed: %w", err)
	}

	e.updateStatus(StepAIAnalysis, 70, "Running investment analysis", false, nil)
	score, err := e.analyzeStartup(ctx, info, news, competitors, marketData, founderData)
	if err != nil {
		return nil, fmt.Errorf("investment analysis failed: %w", err)
	}

	e.updateStatus(StepMemoGeneration, 80, "Generating investment memo", false, nil)
	memo, err := e.generateMemo(ctx, info, score, marketData)
	if err != nil {
		return nil, fmt.Errorf("memo generation failed: %w", err)
	}

	e.updateStatus(StepDueDiligence, 85, "Generating due diligence questions", false, nil)
	questions, err := e.generateDDQuestions(ctx, info, score)
	if err != nil {
		return nil, fmt.Errorf("due diligence question generation failed: %w", err)
	}

	e.updateStatus(StepStoringResults, 90, "Storing evaluation results", false, nil)
	insight := deriveMarketInsight(company.ID, marketData, competitors)
	evaluation := model.Evaluation{
		ID:                    uuid.NewString(),
		CompanyID:             company.ID,
		Score:                 score,
		InvestmentMemo:        renderMemo(memo),
		DueDiligenceQuestions: questions.Flatten(),
		Recommendation:        recommendationFromScore(score),
		EvaluationDate:        time.Now().Format(time.RFC3339),
	}
	if e.store != nil {
		if err := e.store.CreateEvaluation(ctx, &evaluation); err != nil {
			return nil, fmt.Errorf("storing evaluation failed: %w", err)
		}
		if err := e.store.CreateMarketInsight(ctx, &insight); err != nil {
			return nil, fmt.Errorf("storing market insight failed: %w", err)
		}
	}

	var report *dd.Report
	if score.OverallScore >= e.ddThreshold {
		e.updateStatus(StepComprehensiveDD, 95, "Performing comprehensive due diligence", false, nil)
		report = e.aggregator.Run(ctx, model.CompanyContext{
			Name:        company.Name,
			Website:     company.Website,
			Industry:    company.Industry,
			Description: company.Description,
			FoundedYear: company.FoundedYear,
		})
		if e.store != nil {
			if err := e.store.SaveDDReport(ctx, company.ID, report); err != nil {
				return nil, fmt.Errorf("storing due diligence report failed: %w", err)
			}
		}
	} else {
		logger.Log.Infof("快速评分 %d 低于阈值 %d，跳过综合尽调 [%s]",
			score.OverallScore, e.ddThreshold, companyName)
	}

	quality := qualityTier(dataQualityScore(info, news, competitors, founderData))
	return &Result{
		Company:        company,
		Founders:       founders,
		Score:          score,
		Recommendation: evaluation.Recommendation,
		Memo:           evaluation.InvestmentMemo,
		DDQuestions:    evaluation.DueDiligenceQuestions,
		MarketInsight:  insight,
		DDReport:       report,
		DataQuality:    quality,
	}, nil
}

// mergeInput 调用方显式提供的字段覆盖检索提取值
func mergeInput(info *model.CompanyInfo, input Input) {
	if input.Website != "" {
		info.Website = input.Website
	}
	if input.Description != "" {
		info.Description = input.Description
	}
	if input.Industry != "" {
		info.Industry = input.Industry
	}
	if input.FoundedYear != 0 {
		info.FoundedYear = input.FoundedYear
	}
}

func (e *Evaluator) persistCompany(ctx context.Context, existing *model.Company, info model.CompanyInfo, founderData []model.FounderBackground) (model.Company, []model.Founder, error) {
	company := model.Company{
		Name:        info.Name,
		Website:     info.Website,
		Description: info.Description,
		Industry:    info.Industry,
		Location:    info.Location,
		FoundedYear: info.FoundedYear,
	}
	if n, err := strconv.Atoi(strings.Fields(info.EmployeeCount + " 0")[0]); err == nil {
		company.EmployeeCount = n
	}

	if existing != nil {
		company.ID = existing.ID
		if e.store != nil {
			if err := e.store.UpdateCompany(ctx, &company); err != nil {
				return company, nil, err
			}
		}
	} else {
		company.ID = uuid.NewString()
		if e.store != nil {
			if err := e.store.CreateCompany(ctx, &company); err != nil {
				return company, nil, err
			}
		}
	}

	founders := make([]model.Founder, 0, len(founderData))
	for _, background := range founderData {
		founder := model.Founder{
			ID:                uuid.NewString(),
			CompanyID:         company.ID,
			Name:              background.Name,
			PreviousCompanies: background.PreviousCompanies,
			Education:         background.Education,
			FintechExperience: hasFintechExperience(background),
		}
		if e.store != nil {
			if err := e.store.CreateFounder(ctx, &founder); err != nil {
				return company, founders, err
			}
		}
		founders = append(founders, founder)
	}
	return company, founders, nil
}

// hasFintechExperience 经历文本中出现金融领域关键词即判定
func hasFintechExperience(background model.FounderBackground) bool {
	all := strings.ToLower(strings.Join(background.Experience, " ") + " " + strings.Join(background.PreviousCompanies, " "))
	for _, keyword := range fintechKeywords {
		if strings.Contains(all, keyword) {
			return true
		}
	}
	return false
}

func recommendationFromScore(score model.InvestmentScore) string {
	return string(dd.RecommendationFor(score.OverallScore))
}

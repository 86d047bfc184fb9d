package dd

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/llm"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/logger"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/model"
)

// Stage 聚合器所处阶段
type Stage string

const (
	StageIdle         Stage = "idle"
	StageCollecting   Stage = "collecting"
	StageScoring      Stage = "scoring"
	StageSynthesizing Stage = "synthesizing"
	StageDone         Stage = "done"
)

// Aggregator 综合尽调聚合器：并发跑五个采集器，按固定权重合成总分，
// 再做一轮综合洞察。采集器保证永不抛错，join 阶段没有失败分支。
type Aggregator struct {
	collectors *Collectors
	extractor  Extractor
	weights    Weights

	// StageFunc 可选的阶段回调
	StageFunc func(Stage)
}

// NewAggregator 创建聚合器
func NewAggregator(collectors *Collectors, extractor Extractor) *Aggregator {
	return &Aggregator{
		collectors: collectors,
		extractor:  extractor,
		weights:    DefaultWeights(),
	}
}

// WithWeights 覆盖默认类别权重
func (a *Aggregator) WithWeights(w Weights) *Aggregator {
	a.weights = w
	return a
}

func (a *Aggregator) setStage(s Stage) {
	if a.StageFunc != nil {
		a.StageFunc(s)
	}
}

// Run 生成一份综合尽调报告
func (a *Aggregator) Run(ctx context.Context, company model.CompanyContext) *Report {
	logger.Log.Infof("开始综合尽调 [%s]", company.Name)
	a.setStage(StageCollecting)

	var (
		financial FinancialRecord
		legal     LegalRecord
		technical TechnicalRecord
		market    MarketRecord
		team      TeamRecord
	)

	var wg sync.WaitGroup
	wg.Add(5)
	go func() { defer wg.Done(); financial = a.collectors.CollectFinancial(ctx, company) }()
	go func() { defer wg.Done(); legal = a.collectors.CollectLegal(ctx, company) }()
	go func() { defer wg.Done(); technical = a.collectors.CollectTechnical(ctx, company) }()
	go func() { defer wg.Done(); market = a.collectors.CollectMarket(ctx, company) }()
	go func() { defer wg.Done(); team = a.collectors.CollectTeam(ctx, company) }()
	wg.Wait()

	a.setStage(StageScoring)
	overall := OverallScore(a.weights, financial.Composite(), legal.Composite(), technical.Composite(), market.Composite(), team.Composite())

	a.setStage(StageSynthesizing)
	insights := a.synthesize(ctx, company, overall, financial, legal, technical, market, team)

	degraded := countDegraded(financial.Degraded, legal.Degraded, technical.Degraded, market.Degraded, team.Degraded)

	report := &Report{
		ID:                 uuid.NewString(),
		CompanyName:        company.Name,
		ReportDate:         time.Now().Format(time.RFC3339),
		OverallScore:       overall,
		Recommendation:     RecommendationFor(overall),
		Financial:          financial,
		Legal:              legal,
		Technical:          technical,
		Market:             market,
		Team:               team,
		KeyFindings:        insights.KeyFindings,
		RedFlags:           insights.RedFlags,
		MitigationActions:  insights.MitigationStrategies,
		FollowUpActions:    insights.FollowUpActions,
		DataQuality:        dataQuality(degraded),
		AnalysisConfidence: analysisConfidence(degraded),
		InformationGaps:    informationGaps(financial.Degraded, legal.Degraded, technical.Degraded, market.Degraded, team.Degraded),
	}

	a.setStage(StageDone)
	logger.Log.Infof("综合尽调完成 [%s]: 总分 %d, 建议 %s", company.Name, overall, report.Recommendation)
	return report
}

// OverallScore 按权重合成总分，取整到最近整数，.5 取偶
func OverallScore(w Weights, financial, legal, technical, market, team float64) int {
	sum := financial*w.Financial +
		legal*w.Legal +
		technical*w.Technical +
		market*w.Market +
		team*w.Team
	return int(math.RoundToEven(sum))
}

func countDegraded(flags ...bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}

// dataQuality 默认记录越少，数据质量越高。
// 粒度为整条记录：只统计完全回退到保底记录的类别数，不按字段计数。
func dataQuality(degraded int) int {
	return 100 - 12*degraded
}

// analysisConfidence 默认记录越少，分析置信度越高，粒度同 dataQuality
func analysisConfidence(degraded int) int {
	return 100 - 15*degraded
}

var gapLabels = [5]string{
	"Reliable financial data unavailable; defaults applied",
	"Reliable legal and compliance data unavailable; defaults applied",
	"Reliable technical data unavailable; defaults applied",
	"Reliable market validation data unavailable; defaults applied",
	"Reliable team data unavailable; defaults applied",
}

func informationGaps(flags ...bool) []string {
	gaps := []string{}
	for i, f := range flags {
		if f {
			gaps = append(gaps, gapLabels[i])
		}
	}
	return gaps
}

// insightSet 综合洞察，提取失败时使用静态兜底值
type insightSet struct {
	KeyFindings          []string `json:"keyFindings"`
	RedFlags             []string `json:"redFlags"`
	MitigationStrategies []string `json:"mitigationStrategies"`
	FollowUpActions      []string `json:"followUpActions"`
}

func defaultInsights() insightSet {
	return insightSet{
		KeyFindings:          []string{"Strong technical foundation", "Experienced team", "Growing market opportunity"},
		RedFlags:             []string{"Limited financial runway", "Regulatory uncertainty"},
		MitigationStrategies: []string{"Diversify revenue streams", "Engage regulatory consultants"},
		FollowUpActions:      []string{"Request detailed financial projections", "Schedule regulatory compliance review"},
	}
}

func (a *Aggregator) synthesize(ctx context.Context, company model.CompanyContext, overall int, financial FinancialRecord, legal LegalRecord, technical TechnicalRecord, market MarketRecord, team TeamRecord) insightSet {
	prompt := fmt.Sprintf(`Synthesize due diligence insights for %s (overall score %d/100).

Category composites: financial %.0f, legal %.0f, technical %.0f, market %.0f, team %.0f.
Financial: burn %.0f/month (%s), runway %d months, profitability %d.
Legal: compliance %d, litigation risk %d, contract risk %s.
Technical: scalability %d, security %d, maintainability %d, debt %s.
Market: competitive advantage %d, growth potential %d, direct competitors %d.
Team: experience %d, domain expertise %d, execution %d, key person risk %d.

Return a JSON object:
{"keyFindings":["finding1","finding2","finding3"],"redFlags":["flag1","flag2"],"mitigationStrategies":["strategy1","strategy2"],"followUpActions":["action1","action2"]}`,
		company.Name, overall,
		financial.Composite(), legal.Composite(), technical.Composite(), market.Composite(), team.Composite(),
		financial.BurnRateMonthly, financial.BurnTrend, financial.RunwayMonths, financial.ProfitabilityScore,
		legal.ComplianceScore, legal.LitigationRisk, legal.ContractRisk,
		technical.ScalabilityScore, technical.SecurityScore, technical.MaintainabilityScore, technical.TechnicalDebt,
		market.CompetitiveAdvantage, market.GrowthPotential, len(market.DirectCompetitors),
		team.ExperienceScore, team.DomainExpertise, team.ExecutionCapability, team.KeyPersonRisk)

	var insights insightSet
	if err := a.extractor.ExtractJSON(ctx, llm.Request{Prompt: prompt, Temperature: 0.4, MaxTokens: 800}, &insights); err != nil {
		logger.Log.Warnf("综合洞察提取失败 [%s]: %v", company.Name, err)
		return defaultInsights()
	}
	if len(insights.KeyFindings) == 0 && len(insights.RedFlags) == 0 {
		return defaultInsights()
	}
	if insights.KeyFindings == nil {
		insights.KeyFindings = []string{}
	}
	if insights.RedFlags == nil {
		insights.RedFlags = []string{}
	}
	if insights.MitigationStrategies == nil {
		insights.MitigationStrategies = []string{}
	}
	if insights.FollowUpActions == nil {
		insights.FollowUpActions = []string{}
	}
	return insights
}

package dd

import (
	"context"
	"fmt"
	"strings"

	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/llm"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/logger"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/model"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/search"
)

// Extractor 结构化提取能力，由 llm.Client 实现
type Extractor interface {
	ExtractJSON(ctx context.Context, req llm.Request, out any) error
}

// Collectors 五类尽调采集器。每个采集器把公司上下文映射成一条完整的
// 类别记录：检索、提取、逐字段回填，任何一步失败都落到保底记录，
// 永不向上抛错，也因此聚合阶段可以无脑并发。
type Collectors struct {
	searcher  search.Searcher
	extractor Extractor
}

// NewCollectors 创建采集器集合
func NewCollectors(searcher search.Searcher, extractor Extractor) *Collectors {
	return &Collectors{searcher: searcher, extractor: extractor}
}

const collectorNumResults = 5

// evidenceBlock 把靠前的检索结果压成提示词里的证据段
func evidenceBlock(items []model.EvidenceItem, limit int) string {
	if len(items) > limit {
		items = items[:limit]
	}
	var sb strings.Builder
	for i, item := range items {
		text := item.Text
		if len(text) > 1500 {
			text = text[:1500]
		}
		fmt.Fprintf(&sb, "Result %d:\nTitle: %s\nURL: %s\nText: %s\n", i+1, item.Title, item.URL, text)
		if len(item.Highlights) > 0 {
			fmt.Fprintf(&sb, "Highlights: %s\n", strings.Join(item.Highlights, " | "))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (c *Collectors) performSearch(ctx context.Context, query string, includeDomains []string) ([]model.EvidenceItem, error) {
	resp, err := c.searcher.Search(ctx, &search.Request{
		Query:          query,
		NumResults:     collectorNumResults,
		IncludeDomains: includeDomains,
		IncludeText:    true,
		Highlights:     true,
	})
	if err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// financialExtraction 财务提取结果，指针字段区分缺失与零值
type financialExtraction struct {
	BurnRate           *float64 `json:"burnRate"`
	BurnTrend          string   `json:"burnTrend"`
	Runway             *int     `json:"runway"`
	BurnConfidence     *int     `json:"burnConfidence"`
	MRR                *float64 `json:"mrr"`
	ARR                *float64 `json:"arr"`
	GrowthRate         *float64 `json:"growthRate"`
	ChurnRate          *float64 `json:"churnRate"`
	GrossMargin        *float64 `json:"grossMargin"`
	ContributionMargin *float64 `json:"contributionMargin"`
	PaybackPeriod      *int     `json:"paybackPeriod"`
	ProfitabilityScore *int     `json:"profitabilityScore"`
	TotalRaised        *float64 `json:"totalRaised"`
	LastRoundSize      *float64 `json:"lastRoundSize"`
	LastRoundDate      string   `json:"lastRoundDate"`
	LeadInvestors      []string `json:"leadInvestors"`
}

// CollectFinancial 采集财务健康记录
func (c *Collectors) CollectFinancial(ctx context.Context, company model.CompanyContext) FinancialRecord {
	query := fmt.Sprintf("%s financial metrics revenue growth burn rate funding valuation", company.Name)
	results, err := c.performSearch(ctx, query, []string{"crunchbase.com", "pitchbook.com", "sec.gov", "techcrunch.com", "bloomberg.com"})
	if err != nil {
		logger.Log.Warnf("财务数据检索失败 [%s]: %v", company.Name, err)
		return DefaultFinancialRecord()
	}

	prompt := fmt.Sprintf(`Extract financial metrics for %s from these search results:

%s
Return a JSON object:
{"burnRate":number,"burnTrend":"increasing|stable|decreasing","runway":number,"burnConfidence":number,"mrr":number,"arr":number,"growthRate":number,"churnRate":number,"grossMargin":number,"contributionMargin":number,"paybackPeriod":number,"profitabilityScore":number,"totalRaised":number,"lastRoundSize":number,"lastRoundDate":"YYYY-MM-DD","leadInvestors":["investor1"]}
Omit keys you cannot support with evidence.`, company.Name, evidenceBlock(results, 3))

	var ext financialExtraction
	if err := c.extractor.ExtractJSON(ctx, llm.Request{Prompt: prompt, Temperature: 0.3, MaxTokens: 800}, &ext); err != nil {
		logger.Log.Warnf("财务数据提取失败 [%s]: %v", company.Name, err)
		return DefaultFinancialRecord()
	}

	return FinancialRecord{
		BurnRateMonthly:    orFloat(ext.BurnRate, 0),
		BurnTrend:          orTrend(ext.BurnTrend, TrendStable),
		RunwayMonths:       orInt(ext.Runway, 12),
		BurnConfidence:     orInt(ext.BurnConfidence, 50),
		GrowthRate:         orFloat(ext.GrowthRate, 0),
		MRR:                orFloat(ext.MRR, 0),
		ARR:                orFloat(ext.ARR, 0),
		ChurnRate:          orFloat(ext.ChurnRate, 0),
		GrossMargin:        orFloat(ext.GrossMargin, 0),
		ContributionMargin: orFloat(ext.ContributionMargin, 0),
		PaybackPeriod:      orInt(ext.PaybackPeriod, 24),
		ProfitabilityScore: orInt(ext.ProfitabilityScore, 50),
		TotalRaised:        orFloat(ext.TotalRaised, 0),
		LastRoundSize:      orFloat(ext.LastRoundSize, 0),
		LastRoundDate:      ext.LastRoundDate,
		LeadInvestors:      orList(ext.LeadInvestors),
	}
}

type legalExtraction struct {
	Licenses            []string `json:"licenses"`
	Jurisdictions       []string `json:"jurisdictions"`
	ComplianceScore     *int     `json:"complianceScore"`
	PendingApplications []string `json:"pendingApplications"`
	Patents             []string `json:"patents"`
	Trademarks          []string `json:"trademarks"`
	IPStrength          *int     `json:"ipStrength"`
	ActiveCases         []string `json:"activeCases"`
	LitigationRisk      *int     `json:"litigationRisk"`
	Jurisdiction        string   `json:"jurisdiction"`
	EntityType          string   `json:"entityType"`
	Subsidiaries        []string `json:"subsidiaries"`
	ContractRisk        string   `json:"contractRisk"`
}

// CollectLegal 采集法务合规记录
func (c *Collectors) CollectLegal(ctx context.Context, company model.CompanyContext) LegalRecord {
	query := fmt.Sprintf("%s legal compliance regulatory licenses patents litigation", company.Name)
	results, err := c.performSearch(ctx, query, []string{"sec.gov", "uspto.gov", "justia.com"})
	if err != nil {
		logger.Log.Warnf("法务数据检索失败 [%s]: %v", company.Name, err)
		return DefaultLegalRecord()
	}

	prompt := fmt.Sprintf(`Extract legal and compliance data for %s from these search results:

%s
Return a JSON object:
{"licenses":["license1"],"jurisdictions":["jurisdiction1"],"complianceScore":number,"pendingApplications":["app1"],"patents":["patent title"],"trademarks":["mark"],"ipStrength":number,"activeCases":["case"],"litigationRisk":number,"jurisdiction":"Delaware","entityType":"C-Corp","subsidiaries":["sub1"],"contractRisk":"low|medium|high"}
Omit keys you cannot support with evidence.`, company.Name, evidenceBlock(results, 3))

	var ext legalExtraction
	if err := c.extractor.ExtractJSON(ctx, llm.Request{Prompt: prompt, Temperature: 0.3, MaxTokens: 1200}, &ext); err != nil {
		logger.Log.Warnf("法务数据提取失败 [%s]: %v", company.Name, err)
		return DefaultLegalRecord()
	}

	return LegalRecord{
		Licenses:            orList(ext.Licenses),
		Jurisdictions:       orList(ext.Jurisdictions),
		ComplianceScore:     orInt(ext.ComplianceScore, 70),
		PendingApplications: orList(ext.PendingApplications),
		Patents:             orList(ext.Patents),
		Trademarks:          orList(ext.Trademarks),
		IPStrength:          orInt(ext.IPStrength, 50),
		ActiveCases:         orList(ext.ActiveCases),
		LitigationRisk:      orInt(ext.LitigationRisk, 20),
		Jurisdiction:        orStr(ext.Jurisdiction, "Delaware"),
		EntityType:          orStr(ext.EntityType, "C-Corp"),
		Subsidiaries:        orList(ext.Subsidiaries),
		ContractRisk:        orRisk(ext.ContractRisk, RiskMedium),
	}
}

type technicalExtraction struct {
	ScalabilityScore     *int     `json:"scalabilityScore"`
	ModernityScore       *int     `json:"modernityScore"`
	SecurityScore        *int     `json:"securityScore"`
	MaintainabilityScore *int     `json:"maintainabilityScore"`
	TechnicalDebt        string   `json:"technicalDebt"`
	Certifications       []string `json:"certifications"`
	DevTeamSize          *int     `json:"devTeamSize"`
	DeploymentFreq       string   `json:"deploymentFreq"`
	LeadTime             string   `json:"leadTime"`
	FailureRate          *int     `json:"failureRate"`
	APIQuality           *int     `json:"apiQuality"`
	Capabilities         []string `json:"capabilities"`
}

// CollectTechnical 采集技术尽调记录
func (c *Collectors) CollectTechnical(ctx context.Context, company model.CompanyContext) TechnicalRecord {
	query := fmt.Sprintf("%s technology architecture security scalability platform", company.Name)
	results, err := c.performSearch(ctx, query, []string{"github.com", "stackoverflow.com", "medium.com", "techcrunch.com"})
	if err != nil {
		logger.Log.Warnf("技术数据检索失败 [%s]: %v", company.Name, err)
		return DefaultTechnicalRecord()
	}

	prompt := fmt.Sprintf(`Extract technical data for %s from these search results:

%s
Return a JSON object:
{"scalabilityScore":number,"modernityScore":number,"securityScore":number,"maintainabilityScore":number,"technicalDebt":"low|medium|high","certifications":["cert1"],"devTeamSize":number,"deploymentFreq":"Daily|Weekly|Monthly","leadTime":"1-2 days","failureRate":number,"apiQuality":number,"capabilities":["capability1"]}
Omit keys you cannot support with evidence.`, company.Name, evidenceBlock(results, 3))

	var ext technicalExtraction
	if err := c.extractor.ExtractJSON(ctx, llm.Request{Prompt: prompt, Temperature: 0.3, MaxTokens: 1200}, &ext); err != nil {
		logger.Log.Warnf("技术数据提取失败 [%s]: %v", company.Name, err)
		return DefaultTechnicalRecord()
	}

	return TechnicalRecord{
		ScalabilityScore:     orInt(ext.ScalabilityScore, 70),
		ModernityScore:       orInt(ext.ModernityScore, 75),
		SecurityScore:        orInt(ext.SecurityScore, 80),
		MaintainabilityScore: orInt(ext.MaintainabilityScore, 70),
		TechnicalDebt:        orRisk(ext.TechnicalDebt, RiskMedium),
		Certifications:       orList(ext.Certifications),
		DevTeamSize:          orInt(ext.DevTeamSize, 10),
		DeploymentFrequency:  orStr(ext.DeploymentFreq, "Weekly"),
		LeadTime:             orStr(ext.LeadTime, "2-3 days"),
		ChangeFailureRate:    orInt(ext.FailureRate, 5),
		APIQuality:           orInt(ext.APIQuality, 80),
		PlatformCapabilities: orList(ext.Capabilities),
	}
}

type marketExtraction struct {
	NPSScore               *int     `json:"npsScore"`
	SatisfactionScore      *int     `json:"satisfactionScore"`
	ChurnReasons           []string `json:"churnReasons"`
	DirectCompetitors      []string `json:"directCompetitors"`
	IndirectCompetitors    []string `json:"indirectCompetitors"`
	DifferentiationFactors []string `json:"differentiationFactors"`
	CompetitiveAdvantage   *int     `json:"competitiveAdvantage"`
	TAM                    *float64 `json:"tam"`
	SAM                    *float64 `json:"sam"`
	SOM                    *float64 `json:"som"`
	Penetration            *float64 `json:"penetration"`
	GrowthPotential        *int     `json:"growthPotential"`
	SalesCycle             *int     `json:"salesCycle"`
	AvgDealSize            *float64 `json:"avgDealSize"`
}

// CollectMarket 采集市场验证记录
func (c *Collectors) CollectMarket(ctx context.Context, company model.CompanyContext) MarketRecord {
	query := fmt.Sprintf("%s customer reviews satisfaction market share competition", company.Name)
	results, err := c.performSearch(ctx, query, []string{"g2.com", "trustpilot.com", "glassdoor.com", "statista.com"})
	if err != nil {
		logger.Log.Warnf("市场数据检索失败 [%s]: %v", company.Name, err)
		return DefaultMarketRecord()
	}

	prompt := fmt.Sprintf(`Extract market validation data for %s from these search results:

%s
Return a JSON object:
{"npsScore":number,"satisfactionScore":number,"churnReasons":["reason1"],"directCompetitors":["name"],"indirectCompetitors":["name"],"differentiationFactors":["factor1"],"competitiveAdvantage":number,"tam":number,"sam":number,"som":number,"penetration":number,"growthPotential":number,"salesCycle":number,"avgDealSize":number}
Omit keys you cannot support with evidence.`, company.Name, evidenceBlock(results, 3))

	var ext marketExtraction
	if err := c.extractor.ExtractJSON(ctx, llm.Request{Prompt: prompt, Temperature: 0.3, MaxTokens: 1200}, &ext); err != nil {
		logger.Log.Warnf("市场数据提取失败 [%s]: %v", company.Name, err)
		return DefaultMarketRecord()
	}

	return MarketRecord{
		SatisfactionScore:      orInt(ext.SatisfactionScore, 75),
		NPSScore:               orInt(ext.NPSScore, 0),
		ChurnReasons:           orList(ext.ChurnReasons),
		DirectCompetitors:      orList(ext.DirectCompetitors),
		IndirectCompetitors:    orList(ext.IndirectCompetitors),
		DifferentiationFactors: orList(ext.DifferentiationFactors),
		CompetitiveAdvantage:   orInt(ext.CompetitiveAdvantage, 60),
		TAM:                    orFloat(ext.TAM, 1_000_000_000),
		SAM:                    orFloat(ext.SAM, 100_000_000),
		SOM:                    orFloat(ext.SOM, 10_000_000),
		CurrentPenetration:     orFloat(ext.Penetration, 0.1),
		GrowthPotential:        orInt(ext.GrowthPotential, 80),
		SalesCycleDays:         orInt(ext.SalesCycle, 90),
		AverageDealSize:        orFloat(ext.AvgDealSize, 50_000),
	}
}

type teamExtraction struct {
	Founders            []TeamMember `json:"founders"`
	KeyEmployees        []string     `json:"keyEmployees"`
	Advisors            []string     `json:"advisors"`
	ExperienceScore     *int         `json:"experienceScore"`
	DomainExpertise     *int         `json:"domainExpertise"`
	ExecutionCapability *int         `json:"executionCapability"`
	CultureFit          *int         `json:"cultureFit"`
	KeyPersonRisk       *int         `json:"keyPersonRisk"`
	RetentionRisk       *int         `json:"retentionRisk"`
}

// CollectTeam 采集团队评估记录
func (c *Collectors) CollectTeam(ctx context.Context, company model.CompanyContext) TeamRecord {
	query := fmt.Sprintf("%s founders CEO team leadership experience LinkedIn", company.Name)
	results, err := c.performSearch(ctx, query, []string{"linkedin.com", "crunchbase.com", "bloomberg.com", "forbes.com"})
	if err != nil {
		logger.Log.Warnf("团队数据检索失败 [%s]: %v", company.Name, err)
		return DefaultTeamRecord()
	}

	prompt := fmt.Sprintf(`Extract team assessment data for %s from these search results:

%s
Return a JSON object:
{"founders":[{"name":"","role":""}],"keyEmployees":["role"],"advisors":["name"],"experienceScore":number,"domainExpertise":number,"executionCapability":number,"cultureFit":number,"keyPersonRisk":number,"retentionRisk":number}
Omit keys you cannot support with evidence.`, company.Name, evidenceBlock(results, 3))

	var ext teamExtraction
	if err := c.extractor.ExtractJSON(ctx, llm.Request{Prompt: prompt, Temperature: 0.3, MaxTokens: 1500}, &ext); err != nil {
		logger.Log.Warnf("团队数据提取失败 [%s]: %v", company.Name, err)
		return DefaultTeamRecord()
	}

	founders := ext.Founders
	if founders == nil {
		founders = []TeamMember{}
	}
	return TeamRecord{
		Founders:            founders,
		KeyEmployees:        orList(ext.KeyEmployees),
		Advisors:            orList(ext.Advisors),
		ExperienceScore:     orInt(ext.ExperienceScore, 75),
		DomainExpertise:     orInt(ext.DomainExpertise, 80),
		ExecutionCapability: orInt(ext.ExecutionCapability, 70),
		CultureFit:          orInt(ext.CultureFit, 75),
		KeyPersonRisk:       orInt(ext.KeyPersonRisk, 30),
		RetentionRisk:       orInt(ext.RetentionRisk, 25),
	}
}

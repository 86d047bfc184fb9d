package dd

// Recommendation 投资建议档位
type Recommendation string

const (
	RecommendInvest         Recommendation = "INVEST"
	RecommendStrongConsider Recommendation = "STRONG_CONSIDER"
	RecommendConsider       Recommendation = "CONSIDER"
	RecommendWeakPass       Recommendation = "WEAK_PASS"
	RecommendPass           Recommendation = "PASS"
)

// RecommendationFor 按总分映射建议档位，各档位下界闭区间
func RecommendationFor(score int) Recommendation {
	switch {
	case score >= 85:
		return RecommendInvest
	case score >= 75:
		return RecommendStrongConsider
	case score >= 65:
		return RecommendConsider
	case score >= 55:
		return RecommendWeakPass
	default:
		return RecommendPass
	}
}

// Trend 趋势方向枚举
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendStable     Trend = "stable"
	TrendDecreasing Trend = "decreasing"
)

// RiskLevel 风险档位枚举
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// FinancialRecord 财务健康记录。Degraded 为真表示采集失败、整条为默认值。
type FinancialRecord struct {
	BurnRateMonthly    float64
	BurnTrend          Trend
	RunwayMonths       int
	BurnConfidence     int // 0-100
	GrowthRate         float64
	MRR                float64
	ARR                float64
	ChurnRate          float64
	GrossMargin        float64
	ContributionMargin float64
	PaybackPeriod      int
	ProfitabilityScore int // 0-100
	TotalRaised        float64
	LastRoundSize      float64
	LastRoundDate      string
	LeadInvestors      []string
	Degraded           bool
}

// Composite 该类别进入加权总分的综合值
func (r FinancialRecord) Composite() float64 {
	return float64(r.ProfitabilityScore+r.BurnConfidence) / 2
}

// LegalRecord 法务合规记录
type LegalRecord struct {
	Licenses            []string
	Jurisdictions       []string
	ComplianceScore     int // 0-100
	PendingApplications []string
	Patents             []string
	Trademarks          []string
	IPStrength          int // 0-100
	ActiveCases         []string
	LitigationRisk      int // 0-100
	Jurisdiction        string
	EntityType          string
	Subsidiaries        []string
	ContractRisk        RiskLevel
	Degraded            bool
}

func (r LegalRecord) Composite() float64 {
	return float64(r.ComplianceScore)
}

// TechnicalRecord 技术尽调记录
type TechnicalRecord struct {
	ScalabilityScore     int // 0-100
	ModernityScore       int // 0-100
	SecurityScore        int // 0-100
	MaintainabilityScore int // 0-100
	TechnicalDebt        RiskLevel
	Certifications       []string
	DevTeamSize          int
	DeploymentFrequency  string
	LeadTime             string
	ChangeFailureRate    int
	APIQuality           int // 0-100
	PlatformCapabilities []string
	Degraded             bool
}

func (r TechnicalRecord) Composite() float64 {
	return float64(r.ScalabilityScore+r.SecurityScore+r.MaintainabilityScore) / 3
}

// MarketRecord 市场验证记录
type MarketRecord struct {
	SatisfactionScore      int // 0-100
	NPSScore               int
	ChurnReasons           []string
	DirectCompetitors      []string
	IndirectCompetitors    []string
	DifferentiationFactors []string
	CompetitiveAdvantage   int // 0-100
	TAM                    float64
	SAM                    float64
	SOM                    float64
	CurrentPenetration     float64 // %
	GrowthPotential        int     // 0-100
	SalesCycleDays         int
	AverageDealSize        float64
	Degraded               bool
}

func (r MarketRecord) Composite() float64 {
	return float64(r.CompetitiveAdvantage+r.GrowthPotential) / 2
}

// TeamMember 团队成员概要
type TeamMember struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// TeamRecord 团队评估记录
type TeamRecord struct {
	Founders            []TeamMember
	KeyEmployees        []string
	Advisors            []string
	ExperienceScore     int // 0-100
	DomainExpertise     int // 0-100
	ExecutionCapability int // 0-100
	CultureFit          int // 0-100
	KeyPersonRisk       int // 0-100
	RetentionRisk       int // 0-100
	Degraded            bool
}

func (r TeamRecord) Composite() float64 {
	return float64(r.ExperienceScore+r.DomainExpertise+r.ExecutionCapability) / 3
}

// Report 综合尽调报告，构造完成后只读
type Report struct {
	ID                 string
	CompanyName        string
	ReportDate         string
	OverallScore       int
	Recommendation     Recommendation
	Financial          FinancialRecord
	Legal              LegalRecord
	Technical          TechnicalRecord
	Market             MarketRecord
	Team               TeamRecord
	KeyFindings        []string
	RedFlags           []string
	MitigationActions  []string
	FollowUpActions    []string
	DataQuality        int // 0-100
	AnalysisConfidence int // 0-100
	InformationGaps    []string
}

// Weights 各类别进入总分的权重，总和为 1.0
type Weights struct {
	Financial float64
	Legal     float64
	Technical float64
	Market    float64
	Team      float64
}

// DefaultWeights 默认类别权重
func DefaultWeights() Weights {
	return Weights{
		Financial: 0.25,
		Legal:     0.15,
		Technical: 0.20,
		Market:    0.25,
		Team:      0.15,
	}
}

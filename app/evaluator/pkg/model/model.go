package model

// CompanyContext 一次评估的公司上下文，由调用方提供并在各采集器间只读共享
type CompanyContext struct {
	Name        string
	Website     string
	Industry    string
	Description string
	FoundedYear int
}

// CompanyInfo 从检索结果中提取的公司基础信息
type CompanyInfo struct {
	Name          string
	Website       string
	Description   string
	Industry      string
	FoundedYear   int
	EmployeeCount string
	Location      string
}

// NewsData 新闻检索的三类结果
type NewsData struct {
	RecentNews     []EvidenceItem
	PressReleases  []EvidenceItem
	IndustryTrends []EvidenceItem
}

// MarketData 市场检索的聚合结果
type MarketData struct {
	KeyTrends             []string
	CompetitiveData       []EvidenceItem
	RegulatoryEnvironment string
}

// FounderBackground 创始人背景检索结果
type FounderBackground struct {
	Name              string
	Experience        []string
	Education         []string
	PreviousCompanies []string
	Achievements      []string
}

// EvidenceItem 单条检索证据，生成后只读
type EvidenceItem struct {
	Title         string   `json:"title"`
	URL           string   `json:"url"`
	Text          string   `json:"text"`
	Highlights    []string `json:"highlights"`
	PublishedDate string   `json:"publishedDate,omitempty"`
}

// InvestmentScore 快速评分结果，由一次结构化提取产生
type InvestmentScore struct {
	OverallScore              int      `json:"overall_score"`
	TeamScore                 int      `json:"team_score"`
	MarketScore               int      `json:"market_score"`
	ProductScore              int      `json:"product_score"`
	TractionScore             int      `json:"traction_score"`
	CompetitiveAdvantageScore int      `json:"competitive_advantage_score"`
	BusinessModelScore        int      `json:"business_model_score"`
	MeetsCriteria             bool     `json:"meets_criteria"`
	Strengths                 []string `json:"strengths"`
	RedFlags                  []string `json:"red_flags"`
	Reasoning                 string   `json:"reasoning"`
}

// InvestmentMemo 投资备忘录，各段落拼接后入库
type InvestmentMemo struct {
	ExecutiveSummary      string   `json:"executive_summary"`
	InvestmentThesis      string   `json:"investment_thesis"`
	MarketOpportunity     string   `json:"market_opportunity"`
	CompetitiveLandscape  string   `json:"competitive_landscape"`
	TeamAssessment        string   `json:"team_assessment"`
	FinancialProjections  string   `json:"financial_projections"`
	RisksAndMitigations   string   `json:"risks_and_mitigations"`
	Recommendation        string   `json:"recommendation"`
	DueDiligenceQuestions []string `json:"due_diligence_questions"`
}

// DDQuestions 按类别分组的尽调问题
type DDQuestions struct {
	Technical []string `json:"technical"`
	Business  []string `json:"business"`
	Financial []string `json:"financial"`
	Legal     []string `json:"legal"`
	Market    []string `json:"market"`
	Team      []string `json:"team"`
}

// Flatten 按固定类别顺序展开全部问题
func (q DDQuestions) Flatten() []string {
	out := make([]string, 0, len(q.Technical)+len(q.Business)+len(q.Financial)+len(q.Legal)+len(q.Market)+len(q.Team))
	out = append(out, q.Technical...)
	out = append(out, q.Business...)
	out = append(out, q.Financial...)
	out = append(out, q.Legal...)
	out = append(out, q.Market...)
	out = append(out, q.Team...)
	return out
}

// ProgressEvent 流水线进度事件，同步回调给观察者，不落库
type ProgressEvent struct {
	Step      string
	Progress  int
	Message   string
	Completed bool
	Err       string
}

// Company 公司记录
type Company struct {
	ID            string
	Name          string
	Website       string
	Description   string
	Industry      string
	Location      string
	EmployeeCount int
	FoundedYear   int
}

// Founder 创始人记录
type Founder struct {
	ID                string
	CompanyID         string
	Name              string
	PreviousCompanies []string
	Education         []string
	FintechExperience bool
}

// Evaluation 评估记录
type Evaluation struct {
	ID                    string
	CompanyID             string
	Score                 InvestmentScore
	InvestmentMemo        string
	DueDiligenceQuestions []string
	Recommendation        string
	EvaluationDate        string
}

// MarketInsight 市场洞察记录
type MarketInsight struct {
	ID                      string
	CompanyID               string
	MarketSizeBillion       float64
	GrowthRatePercent       float64
	KeyTrends               []string
	RegulatoryEnvironment   string
	MarketTimingAssessment  string
	CompetitiveLandscape    []EvidenceItem
	CompetitiveAnalysisText string
}

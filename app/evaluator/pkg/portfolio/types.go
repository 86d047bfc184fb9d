package portfolio

// AlertType 告警类别
type AlertType string

const (
	AlertFunding         AlertType = "funding"
	AlertAcquisition     AlertType = "acquisition"
	AlertCompetitive     AlertType = "competitive"
	AlertTeamDeparture   AlertType = "team_departure"
	AlertTeamAppointment AlertType = "team_appointment"
)

// Severity 告警级别
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Alert 单条监控告警
type Alert struct {
	ID           string    `json:"id"`
	CompanyID    string    `json:"company_id"`
	CompanyName  string    `json:"company_name"`
	Type         AlertType `json:"type"`
	Severity     Severity  `json:"severity"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	SourceURL    string    `json:"source_url"`
	CreatedAt    string    `json:"created_at"`
	Acknowledged bool      `json:"acknowledged"`
}

// Metrics 单个公司的窗口期监控指标
type Metrics struct {
	NewsVolume          int `json:"news_volume"`
	Sentiment           int `json:"sentiment"`
	MarketMentions      int `json:"market_mentions"`
	CompetitiveActivity int `json:"competitive_activity"`
	FundingActivity     int `json:"funding_activity"`
	TeamChanges         int `json:"team_changes"`
	ProductUpdates      int `json:"product_updates"`
}

// CompanyReport 单个公司的监控结果
type CompanyReport struct {
	CompanyID   string  `json:"company_id"`
	CompanyName string  `json:"company_name"`
	Alerts      []Alert `json:"alerts"`
	Metrics     Metrics `json:"metrics"`
	CheckedAt   string  `json:"checked_at"`
}

// Insight 组合层面的监控洞察
type Insight struct {
	Type     string `json:"type"`
	Priority string `json:"priority"`
	Message  string `json:"message"`
}

// BatchReport 一轮组合监控的汇总结果。失败的公司不出现在 Reports 中。
type BatchReport struct {
	Reports  []CompanyReport `json:"reports"`
	Insights []Insight       `json:"insights"`
}

package portfolio

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/dd"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/llm"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/logger"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/model"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/search"
)

// 监控回看窗口
const lookbackDays = 7

// Monitor 投资组合监控器：按公司并发巡检，单个公司失败不影响整轮
type Monitor struct {
	searcher  search.Searcher
	extractor dd.Extractor
}

// NewMonitor 创建组合监控器
func NewMonitor(searcher search.Searcher, extractor dd.Extractor) *Monitor {
	return &Monitor{searcher: searcher, extractor: extractor}
}

// MonitorAll 并发巡检全部公司。失败的公司记录日志后从结果中剔除，
// 整轮永不返回错误。
func (m *Monitor) MonitorAll(ctx context.Context, companies []model.Company) *BatchReport {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		reports []CompanyReport
	)

	for _, company := range companies {
		wg.Add(1)
		go func(company model.Company) {
			defer wg.Done()
			report, err := m.MonitorCompany(ctx, company)
			if err != nil {
				logger.Log.Errorf("公司监控失败 [%s]: %v", company.Name, err)
				return
			}
			mu.Lock()
			reports = append(reports, *report)
			mu.Unlock()
		}(company)
	}
	wg.Wait()

	return &BatchReport{
		Reports:  reports,
		Insights: generateInsights(reports),
	}
}

// MonitorCompany 巡检单个公司：四类检索、告警规则与指标计算
func (m *Monitor) MonitorCompany(ctx context.Context, company model.Company) (*CompanyReport, error) {
	if strings.TrimSpace(company.Name) == "" {
		return nil, fmt.Errorf("company name is required")
	}

	endDate := time.Now().Format(time.DateOnly)
	startDate := time.Now().AddDate(0, 0, -lookbackDays).Format(time.DateOnly)
	window := func(query string, numResults int) *search.Request {
		return &search.Request{
			Query:              query,
			NumResults:         numResults,
			StartPublishedDate: startDate,
			EndPublishedDate:   endDate,
			IncludeText:        true,
			Highlights:         true,
		}
	}

	newsResults, err := m.searchOrEmpty(ctx, window(fmt.Sprintf("%s news announcement", company.Name), 5))
	if err != nil {
		return nil, fmt.Errorf("news search failed: %w", err)
	}
	financialResults, _ := m.searchOrEmptyLogged(ctx, company.Name, "财务",
		window(fmt.Sprintf("%s funding investment revenue", company.Name), 3))
	industry := company.Industry
	if industry == "" {
		industry = "fintech"
	}
	competitiveResults, _ := m.searchOrEmptyLogged(ctx, company.Name, "竞品",
		window(fmt.Sprintf("%s competitors product launch announces", industry), 5))
	teamResults, _ := m.searchOrEmptyLogged(ctx, company.Name, "团队",
		window(fmt.Sprintf("%s CEO founder CTO executive", company.Name), 3))

	alerts := m.detectAlerts(company, newsResults, financialResults, competitiveResults, teamResults)
	metrics := Metrics{
		NewsVolume:          len(newsResults),
		Sentiment:           m.analyzeSentiment(ctx, company.Name, newsResults),
		MarketMentions:      len(newsResults) + len(competitiveResults),
		CompetitiveActivity: countKeywordHits(competitiveResults, "launch", "new product", "announces", "releases"),
		FundingActivity:     countKeywordHits(financialResults, "funding", "investment", "round", "raised"),
		TeamChanges:         countAlerts(alerts, AlertTeamDeparture) + countAlerts(alerts, AlertTeamAppointment),
		ProductUpdates:      countKeywordHits(newsResults, "launch", "release", "feature", "update"),
	}

	return &CompanyReport{
		CompanyID:   company.ID,
		CompanyName: company.Name,
		Alerts:      alerts,
		Metrics:     metrics,
		CheckedAt:   time.Now().Format(time.RFC3339),
	}, nil
}

func (m *Monitor) searchOrEmpty(ctx context.Context, req *search.Request) ([]model.EvidenceItem, error) {
	resp, err := m.searcher.Search(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// searchOrEmptyLogged 次要检索失败时仅告警并返回空结果
func (m *Monitor) searchOrEmptyLogged(ctx context.Context, companyName, kind string, req *search.Request) ([]model.EvidenceItem, error) {
	results, err := m.searchOrEmpty(ctx, req)
	if err != nil {
		logger.Log.Warnf("%s检索失败 [%s]: %v", kind, companyName, err)
		return []model.EvidenceItem{}, err
	}
	return results, nil
}

// detectAlerts 对各类检索结果套用关键词告警规则
func (m *Monitor) detectAlerts(company model.Company, news, financial, competitive, team []model.EvidenceItem) []Alert {
	alerts := []Alert{}
	now := time.Now().Format(time.RFC3339)
	nameLower := strings.ToLower(company.Name)

	newAlert := func(alertType AlertType, severity Severity, item model.EvidenceItem, description string) Alert {
		return Alert{
			ID:          uuid.NewString(),
			CompanyID:   company.ID,
			CompanyName: company.Name,
			Type:        alertType,
			Severity:    severity,
			Title:       item.Title,
			Description: description,
			SourceURL:   item.URL,
			CreatedAt:   now,
		}
	}

	for _, item := range append(append([]model.EvidenceItem{}, news...), financial...) {
		text := strings.ToLower(item.Title + " " + item.Text)
		if containsAny(text, "acquisition", "merger", "acquired") {
			alerts = append(alerts, newAlert(AlertAcquisition, SeverityCritical, item, "Possible acquisition or merger activity detected"))
			continue
		}
		if containsAny(text, "funding", "investment", "round") {
			alerts = append(alerts, newAlert(AlertFunding, SeverityHigh, item, "Funding or investment activity detected"))
		}
	}

	for _, item := range competitive {
		text := strings.ToLower(item.Title + " " + item.Text)
		if strings.Contains(text, nameLower) {
			continue
		}
		if containsAny(text, "launch", "new product", "announces") {
			alerts = append(alerts, newAlert(AlertCompetitive, SeverityMedium, item, "Competitor product activity detected"))
		}
	}

	for _, item := range team {
		text := strings.ToLower(item.Title + " " + item.Text)
		if !strings.Contains(text, nameLower) || !containsAny(text, "ceo", "founder", "cto") {
			continue
		}
		if containsAny(text, "leaves", "resigned", "stepping down") {
			alerts = append(alerts, newAlert(AlertTeamDeparture, SeverityHigh, item, "Key executive departure detected"))
		} else if containsAny(text, "joins", "appointed", "hired") {
			alerts = append(alerts, newAlert(AlertTeamAppointment, SeverityMedium, item, "Key executive appointment detected"))
		}
	}

	return alerts
}

// analyzeSentiment 对新闻标题做情绪打分，范围 [-100, 100]，失败时返回 0
func (m *Monitor) analyzeSentiment(ctx context.Context, companyName string, news []model.EvidenceItem) int {
	if len(news) == 0 {
		return 0
	}
	var headlines strings.Builder
	for _, item := range news {
		fmt.Fprintf(&headlines, "- %s\n", item.Title)
	}

	var out struct {
		Sentiment *int `json:"sentiment"`
	}
	err := m.extractor.ExtractJSON(ctx, llm.Request{
		System: "You analyze news sentiment for portfolio companies. Respond with valid JSON only.",
		Prompt: fmt.Sprintf(`Rate the overall sentiment of these recent headlines about %s from -100 (very negative) to 100 (very positive).

%s
Return JSON: {"sentiment": number}`, companyName, headlines.String()),
		Temperature: 0.1,
		MaxTokens:   100,
	}, &out)
	if err != nil || out.Sentiment == nil {
		logger.Log.Warnf("情绪分析失败 [%s]: %v", companyName, err)
		return 0
	}
	return clamp(*out.Sentiment, -100, 100)
}

// generateInsights 组合层面的阈值洞察
func generateInsights(reports []CompanyReport) []Insight {
	insights := []Insight{}
	if len(reports) == 0 {
		return insights
	}

	financialAlerts := 0
	sentimentSum := 0
	for _, report := range reports {
		sentimentSum += report.Metrics.Sentiment
		for _, alert := range report.Alerts {
			if alert.Type == AlertFunding || alert.Type == AlertAcquisition {
				financialAlerts++
			}
		}
	}

	if financialAlerts >= 2 {
		insights = append(insights, Insight{
			Type:     "trend",
			Priority: "medium",
			Message:  fmt.Sprintf("%d financial events detected across the portfolio this week", financialAlerts),
		})
	}

	if avg := sentimentSum / len(reports); avg < -30 {
		insights = append(insights, Insight{
			Type:     "risk",
			Priority: "high",
			Message:  fmt.Sprintf("Portfolio sentiment is negative (average %d), review affected companies", avg),
		})
	}

	for _, report := range reports {
		if report.Metrics.CompetitiveActivity >= 3 {
			insights = append(insights, Insight{
				Type:     "risk",
				Priority: "medium",
				Message:  fmt.Sprintf("High competitive activity around %s (%d events)", report.CompanyName, report.Metrics.CompetitiveActivity),
			})
		}
	}

	return insights
}

func containsAny(text string, keywords ...string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

func countKeywordHits(items []model.EvidenceItem, keywords ...string) int {
	count := 0
	for _, item := range items {
		if containsAny(strings.ToLower(item.Title+" "+item.Text), keywords...) {
			count++
		}
	}
	return count
}

func countAlerts(alerts []Alert, alertType AlertType) int {
	count := 0
	for _, alert := range alerts {
		if alert.Type == alertType {
			count++
		}
	}
	return count
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

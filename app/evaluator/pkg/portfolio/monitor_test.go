package portfolio

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/llm"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/model"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/search"
)

// routedSearcher 按查询关键词返回不同结果，未命中返回空
type routedSearcher struct {
	newsByCompany map[string][]model.EvidenceItem
	competitive   []model.EvidenceItem
	team          []model.EvidenceItem
	failFor       string
}

func (s *routedSearcher) Search(ctx context.Context, req *search.Request) (*search.Response, error) {
	if s.failFor != "" && strings.Contains(req.Query, s.failFor) {
		return nil, errors.New("provider unavailable")
	}
	switch {
	case strings.Contains(req.Query, "news announcement"):
		for name, items := range s.newsByCompany {
			if strings.Contains(req.Query, name) {
				return &search.Response{Results: items}, nil
			}
		}
		return &search.Response{Results: []model.EvidenceItem{}}, nil
	case strings.Contains(req.Query, "competitors"):
		return &search.Response{Results: s.competitive}, nil
	case strings.Contains(req.Query, "CEO founder"):
		return &search.Response{Results: s.team}, nil
	default:
		return &search.Response{Results: []model.EvidenceItem{}}, nil
	}
}

func (s *routedSearcher) Stats() search.Stats { return search.Stats{} }

// sentimentExtractor 返回固定情绪值
type sentimentExtractor struct {
	sentiment int
	fail      bool
}

func (e *sentimentExtractor) ExtractJSON(ctx context.Context, req llm.Request, out any) error {
	if e.fail {
		return errors.New("model unavailable")
	}
	if v, ok := out.(*struct {
		Sentiment *int `json:"sentiment"`
	}); ok {
		s := e.sentiment
		v.Sentiment = &s
	}
	return nil
}

func TestMonitorAllIsolatesFailures(t *testing.T) {
	searcher := &routedSearcher{
		newsByCompany: map[string][]model.EvidenceItem{},
		failFor:       "Broken Co",
	}
	m := NewMonitor(searcher, &sentimentExtractor{})

	companies := []model.Company{
		{ID: "1", Name: "Acme Pay"},
		{ID: "2", Name: "Broken Co"},
		{ID: "3", Name: "Ledger Labs"},
	}
	batch := m.MonitorAll(context.Background(), companies)

	if len(batch.Reports) != 2 {
		t.Fatalf("reports = %d, want 2 (failing company omitted)", len(batch.Reports))
	}
	for _, report := range batch.Reports {
		if report.CompanyName == "Broken Co" {
			t.Error("failing company should be omitted from results")
		}
	}
}

func TestMonitorCompanyFundingAlert(t *testing.T) {
	searcher := &routedSearcher{
		newsByCompany: map[string][]model.EvidenceItem{
			"Acme Pay": {{Title: "Acme Pay closes $30M Series B round", URL: "https://example.com/1", Text: "funding round led by..."}},
		},
	}
	m := NewMonitor(searcher, &sentimentExtractor{sentiment: 40})

	report, err := m.MonitorCompany(context.Background(), model.Company{ID: "1", Name: "Acme Pay"})
	if err != nil {
		t.Fatalf("MonitorCompany() error = %v", err)
	}

	if len(report.Alerts) != 1 {
		t.Fatalf("alerts = %+v, want 1 funding alert", report.Alerts)
	}
	alert := report.Alerts[0]
	if alert.Type != AlertFunding || alert.Severity != SeverityHigh {
		t.Errorf("alert = %s/%s, want funding/high", alert.Type, alert.Severity)
	}
	if alert.ID == "" || alert.Acknowledged {
		t.Errorf("alert identity = %+v", alert)
	}
	if report.Metrics.Sentiment != 40 {
		t.Errorf("Sentiment = %d, want 40", report.Metrics.Sentiment)
	}
	if report.Metrics.NewsVolume != 1 {
		t.Errorf("NewsVolume = %d, want 1", report.Metrics.NewsVolume)
	}
}

func TestMonitorCompanyAcquisitionBeatsFunding(t *testing.T) {
	searcher := &routedSearcher{
		newsByCompany: map[string][]model.EvidenceItem{
			"Acme Pay": {{Title: "Acme Pay acquired after funding talks", Text: "acquisition and funding round"}},
		},
	}
	m := NewMonitor(searcher, &sentimentExtractor{})

	report, err := m.MonitorCompany(context.Background(), model.Company{ID: "1", Name: "Acme Pay"})
	if err != nil {
		t.Fatalf("MonitorCompany() error = %v", err)
	}
	if len(report.Alerts) != 1 || report.Alerts[0].Type != AlertAcquisition {
		t.Fatalf("alerts = %+v, want single acquisition alert", report.Alerts)
	}
	if report.Alerts[0].Severity != SeverityCritical {
		t.Errorf("severity = %s, want critical", report.Alerts[0].Severity)
	}
}

func TestMonitorCompanyCompetitiveAlertSkipsOwnNews(t *testing.T) {
	searcher := &routedSearcher{
		newsByCompany: map[string][]model.EvidenceItem{},
		competitive: []model.EvidenceItem{
			{Title: "Rival launches new product", Text: "rival announces platform"},
			{Title: "Acme Pay launches new product", Text: "Acme Pay announces platform"},
		},
	}
	m := NewMonitor(searcher, &sentimentExtractor{})

	report, err := m.MonitorCompany(context.Background(), model.Company{ID: "1", Name: "Acme Pay", Industry: "fintech"})
	if err != nil {
		t.Fatalf("MonitorCompany() error = %v", err)
	}

	competitive := 0
	for _, alert := range report.Alerts {
		if alert.Type == AlertCompetitive {
			competitive++
		}
	}
	if competitive != 1 {
		t.Errorf("competitive alerts = %d, want 1 (own news excluded)", competitive)
	}
}

func TestMonitorCompanyTeamAlerts(t *testing.T) {
	searcher := &routedSearcher{
		newsByCompany: map[string][]model.EvidenceItem{},
		team: []model.EvidenceItem{
			{Title: "Acme Pay CTO stepping down", Text: "Acme Pay announced its CTO is stepping down"},
			{Title: "Acme Pay appoints new CEO", Text: "Jane Doe joins Acme Pay as CEO, appointed this week"},
			{Title: "Unrelated CEO news", Text: "some other ceo resigned"},
		},
	}
	m := NewMonitor(searcher, &sentimentExtractor{})

	report, err := m.MonitorCompany(context.Background(), model.Company{ID: "1", Name: "Acme Pay"})
	if err != nil {
		t.Fatalf("MonitorCompany() error = %v", err)
	}

	var departures, appointments int
	for _, alert := range report.Alerts {
		switch alert.Type {
		case AlertTeamDeparture:
			departures++
		case AlertTeamAppointment:
			appointments++
		}
	}
	if departures != 1 || appointments != 1 {
		t.Errorf("departures = %d, appointments = %d, want 1 each", departures, appointments)
	}
	if report.Metrics.TeamChanges != 2 {
		t.Errorf("TeamChanges = %d, want 2", report.Metrics.TeamChanges)
	}
}

func TestSentimentFailureDefaultsToZero(t *testing.T) {
	searcher := &routedSearcher{
		newsByCompany: map[string][]model.EvidenceItem{
			"Acme Pay": {{Title: "Acme Pay in the news", Text: "neutral"}},
		},
	}
	m := NewMonitor(searcher, &sentimentExtractor{fail: true})

	report, err := m.MonitorCompany(context.Background(), model.Company{ID: "1", Name: "Acme Pay"})
	if err != nil {
		t.Fatalf("MonitorCompany() error = %v", err)
	}
	if report.Metrics.Sentiment != 0 {
		t.Errorf("Sentiment = %d, want 0 on extraction failure", report.Metrics.Sentiment)
	}
}

func TestSentimentClamped(t *testing.T) {
	searcher := &routedSearcher{
		newsByCompany: map[string][]model.EvidenceItem{
			"Acme Pay": {{Title: "Acme Pay collapse", Text: "bad"}},
		},
	}
	m := NewMonitor(searcher, &sentimentExtractor{sentiment: -500})

	report, err := m.MonitorCompany(context.Background(), model.Company{ID: "1", Name: "Acme Pay"})
	if err != nil {
		t.Fatalf("MonitorCompany() error = %v", err)
	}
	if report.Metrics.Sentiment != -100 {
		t.Errorf("Sentiment = %d, want clamped -100", report.Metrics.Sentiment)
	}
}

func TestGenerateInsightsThresholds(t *testing.T) {
	reports := []CompanyReport{
		{
			CompanyName: "Acme Pay",
			Alerts: []Alert{
				{Type: AlertFunding},
				{Type: AlertAcquisition},
			},
			Metrics: Metrics{Sentiment: -60, CompetitiveActivity: 3},
		},
		{
			CompanyName: "Ledger Labs",
			Metrics:     Metrics{Sentiment: -20},
		},
	}

	insights := generateInsights(reports)

	var hasTrend, hasSentimentRisk, hasCompetitiveRisk bool
	for _, insight := range insights {
		switch {
		case insight.Type == "trend":
			hasTrend = true
		case insight.Type == "risk" && insight.Priority == "high":
			hasSentimentRisk = true
		case insight.Type == "risk" && strings.Contains(insight.Message, "competitive"):
			hasCompetitiveRisk = true
		}
	}
	if !hasTrend {
		t.Error("expected trend insight for >=2 financial alerts")
	}
	if !hasSentimentRisk {
		t.Error("expected high-priority risk for average sentiment below -30")
	}
	if !hasCompetitiveRisk {
		t.Error("expected risk insight for competitive activity >= 3")
	}
}

func TestGenerateInsightsEmpty(t *testing.T) {
	if got := generateInsights(nil); len(got) != 0 {
		t.Errorf("insights = %+v, want none", got)
	}
}

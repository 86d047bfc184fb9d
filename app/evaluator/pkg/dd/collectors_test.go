package dd

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/model"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/search"
)

// stubSearcher 返回固定检索结果
type stubSearcher struct {
	results []model.EvidenceItem
}

func (s *stubSearcher) Search(ctx context.Context, req *search.Request) (*search.Response, error) {
	return &search.Response{Results: s.results}, nil
}

func (s *stubSearcher) Stats() search.Stats { return search.Stats{} }

func evidence() []model.EvidenceItem {
	return []model.EvidenceItem{
		{Title: "Acme Pay raises Series B", URL: "https://example.com/a", Text: "Acme Pay announced...", Highlights: []string{"raised $30M"}},
	}
}

func TestCollectFinancialSearchFailure(t *testing.T) {
	c := NewCollectors(&failingSearcher{}, &failingExtractor{})
	got := c.CollectFinancial(context.Background(), model.CompanyContext{Name: "Acme Pay"})

	want := DefaultFinancialRecord()
	if !got.Degraded {
		t.Error("expected degraded record on search failure")
	}
	if got.RunwayMonths != want.RunwayMonths || got.BurnConfidence != want.BurnConfidence ||
		got.ProfitabilityScore != want.ProfitabilityScore || got.BurnTrend != want.BurnTrend {
		t.Errorf("CollectFinancial() = %+v, want defaults %+v", got, want)
	}
}

func TestCollectFinancialExtractionFailure(t *testing.T) {
	c := NewCollectors(&stubSearcher{results: evidence()}, &failingExtractor{})
	got := c.CollectFinancial(context.Background(), model.CompanyContext{Name: "Acme Pay"})

	if !got.Degraded {
		t.Error("expected degraded record on extraction failure")
	}
	if got.PaybackPeriod != 24 {
		t.Errorf("PaybackPeriod = %d, want default 24", got.PaybackPeriod)
	}
}

func TestCollectFinancialPartialExtraction(t *testing.T) {
	c := NewCollectors(&stubSearcher{results: evidence()}, &stubExtractor{payload: `{
		"burnRate": 250000,
		"runway": 18,
		"profitabilityScore": 65
	}`})
	got := c.CollectFinancial(context.Background(), model.CompanyContext{Name: "Acme Pay"})

	if got.Degraded {
		t.Error("record should not be degraded on successful extraction")
	}
	if got.BurnRateMonthly != 250000 || got.RunwayMonths != 18 || got.ProfitabilityScore != 65 {
		t.Errorf("extracted fields not applied: %+v", got)
	}
	// 缺失字段回填满路径默认值
	if got.BurnConfidence != 50 {
		t.Errorf("BurnConfidence = %d, want 50", got.BurnConfidence)
	}
	if got.BurnTrend != TrendStable {
		t.Errorf("BurnTrend = %s, want stable", got.BurnTrend)
	}
	if got.LeadInvestors == nil {
		t.Error("LeadInvestors should be an empty slice, not nil")
	}
}

func TestCollectLegalDefaults(t *testing.T) {
	c := NewCollectors(&failingSearcher{}, &failingExtractor{})
	got := c.CollectLegal(context.Background(), model.CompanyContext{Name: "Acme Pay"})

	if !got.Degraded {
		t.Error("expected degraded record")
	}
	if got.ComplianceScore != 50 || got.Jurisdiction != "Delaware" || got.EntityType != "C-Corp" {
		t.Errorf("CollectLegal() defaults = %+v", got)
	}
	if got.ContractRisk != RiskMedium {
		t.Errorf("ContractRisk = %s, want medium", got.ContractRisk)
	}
}

func TestCollectTechnicalPartialExtraction(t *testing.T) {
	c := NewCollectors(&stubSearcher{results: evidence()}, &stubExtractor{payload: `{
		"scalabilityScore": 90,
		"technicalDebt": "low"
	}`})
	got := c.CollectTechnical(context.Background(), model.CompanyContext{Name: "Acme Pay"})

	if got.ScalabilityScore != 90 {
		t.Errorf("ScalabilityScore = %d, want 90", got.ScalabilityScore)
	}
	if got.TechnicalDebt != RiskLow {
		t.Errorf("TechnicalDebt = %s, want low", got.TechnicalDebt)
	}
	if got.SecurityScore != 80 || got.DeploymentFrequency != "Weekly" {
		t.Errorf("defaults not applied: %+v", got)
	}
}

func TestCollectMarketDefaults(t *testing.T) {
	c := NewCollectors(&failingSearcher{}, &failingExtractor{})
	got := c.CollectMarket(context.Background(), model.CompanyContext{Name: "Acme Pay"})

	if !got.Degraded {
		t.Error("expected degraded record")
	}
	if got.TAM != 1_000_000_000 || got.SAM != 100_000_000 || got.SOM != 10_000_000 {
		t.Errorf("market sizing defaults = TAM %.0f SAM %.0f SOM %.0f", got.TAM, got.SAM, got.SOM)
	}
}

func TestCollectTeamNeverReturnsNilSlices(t *testing.T) {
	c := NewCollectors(&stubSearcher{results: evidence()}, &stubExtractor{payload: `{"experienceScore": 85}`})
	got := c.CollectTeam(context.Background(), model.CompanyContext{Name: "Acme Pay"})

	if got.ExperienceScore != 85 {
		t.Errorf("ExperienceScore = %d, want 85", got.ExperienceScore)
	}
	if got.Founders == nil || got.KeyEmployees == nil || got.Advisors == nil {
		t.Error("team slices should never be nil")
	}
}

func TestCompositeFormulas(t *testing.T) {
	f := FinancialRecord{ProfitabilityScore: 80, BurnConfidence: 80}
	if f.Composite() != 80 {
		t.Errorf("financial composite = %.1f, want 80", f.Composite())
	}
	l := LegalRecord{ComplianceScore: 70}
	if l.Composite() != 70 {
		t.Errorf("legal composite = %.1f, want 70", l.Composite())
	}
	tech := TechnicalRecord{ScalabilityScore: 60, SecurityScore: 60, MaintainabilityScore: 60}
	if tech.Composite() != 60 {
		t.Errorf("technical composite = %.1f, want 60", tech.Composite())
	}
	m := MarketRecord{CompetitiveAdvantage: 90, GrowthPotential: 90}
	if m.Composite() != 90 {
		t.Errorf("market composite = %.1f, want 90", m.Composite())
	}
	team := TeamRecord{ExperienceScore: 50, DomainExpertise: 50, ExecutionCapability: 50}
	if team.Composite() != 50 {
		t.Errorf("team composite = %.1f, want 50", team.Composite())
	}
}

// 确认提取结构体的 json 标签与提示词中的键一致
func TestFinancialExtractionTags(t *testing.T) {
	var ext financialExtraction
	if err := json.Unmarshal([]byte(`{"burnRate": 1.5, "leadInvestors": ["a16z"]}`), &ext); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if ext.BurnRate == nil || *ext.BurnRate != 1.5 {
		t.Error("burnRate tag mismatch")
	}
	if len(ext.LeadInvestors) != 1 {
		t.Error("leadInvestors tag mismatch")
	}
}

package evaluator

import (
	"context"
	"errors"
	"testing"

	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/dd"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/llm"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/model"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/search"
)

// emptySearcher 返回空结果，流水线走通但数据质量为低
type emptySearcher struct{}

func (s *emptySearcher) Search(ctx context.Context, req *search.Request) (*search.Response, error) {
	return &search.Response{Results: []model.EvidenceItem{}}, nil
}

func (s *emptySearcher) Stats() search.Stats { return search.Stats{} }

// typedExtractor 按输出类型填充固定值
type typedExtractor struct {
	overallScore int
	failScore    bool
}

func (e *typedExtractor) ExtractJSON(ctx context.Context, req llm.Request, out any) error {
	switch v := out.(type) {
	case *model.InvestmentScore:
		if e.failScore {
			return errors.New("model unavailable")
		}
		*v = model.InvestmentScore{
			OverallScore: e.overallScore,
			Strengths:    []string{"strong team"},
			RedFlags:     []string{"limited runway"},
			Reasoning:    "test reasoning",
		}
	case *model.InvestmentMemo:
		*v = model.InvestmentMemo{
			ExecutiveSummary: "summary",
			Recommendation:   "consider",
		}
	case *model.DDQuestions:
		*v = model.DDQuestions{
			Technical: []string{"tq"},
			Financial: []string{"fq"},
		}
	}
	// 其余类型（尽调采集、洞察）保持零值
	return nil
}

// memoryStore 记录持久化调用
type memoryStore struct {
	existing    *model.Company
	companies   []model.Company
	updates     []model.Company
	founders    []model.Founder
	evaluations []model.Evaluation
	insights    []model.MarketInsight
	ddReports   []*dd.Report
}

func (s *memoryStore) GetCompanyByName(ctx context.Context, name string) (*model.Company, error) {
	return s.existing, nil
}

func (s *memoryStore) CreateCompany(ctx context.Context, company *model.Company) error {
	s.companies = append(s.companies, *company)
	return nil
}

func (s *memoryStore) UpdateCompany(ctx context.Context, company *model.Company) error {
	s.updates = append(s.updates, *company)
	return nil
}

func (s *memoryStore) CreateFounder(ctx context.Context, founder *model.Founder) error {
	s.founders = append(s.founders, *founder)
	return nil
}

func (s *memoryStore) CreateEvaluation(ctx context.Context, evaluation *model.Evaluation) error {
	s.evaluations = append(s.evaluations, *evaluation)
	return nil
}

func (s *memoryStore) CreateMarketInsight(ctx context.Context, insight *model.MarketInsight) error {
	s.insights = append(s.insights, *insight)
	return nil
}

func (s *memoryStore) SaveDDReport(ctx context.Context, companyID string, report *dd.Report) error {
	s.ddReports = append(s.ddReports, report)
	return nil
}

func newTestEvaluator(extractor dd.Extractor, store Store) *Evaluator {
	return New(&emptySearcher{}, extractor, store, 60)
}

func TestRunTriggersDDAtThreshold(t *testing.T) {
	store := &memoryStore{}
	eval := newTestEvaluator(&typedExtractor{overallScore: 60}, store)

	result, err := eval.Run(context.Background(), Input{CompanyName: "Acme Pay"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.DDReport == nil {
		t.Fatal("expected comprehensive DD report at threshold score 60")
	}
	if len(store.ddReports) != 1 {
		t.Errorf("stored DD reports = %d, want 1", len(store.ddReports))
	}
}

func TestRunSkipsDDBelowThreshold(t *testing.T) {
	store := &memoryStore{}
	eval := newTestEvaluator(&typedExtractor{overallScore: 59}, store)

	result, err := eval.Run(context.Background(), Input{CompanyName: "Acme Pay"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.DDReport != nil {
		t.Error("expected no DD report below threshold")
	}
	if len(store.ddReports) != 0 {
		t.Errorf("stored DD reports = %d, want 0", len(store.ddReports))
	}
	if len(store.evaluations) != 1 {
		t.Errorf("stored evaluations = %d, want 1", len(store.evaluations))
	}
}

func TestRunProgressSequence(t *testing.T) {
	eval := newTestEvaluator(&typedExtractor{overallScore: 70}, nil)

	var events []model.ProgressEvent
	eval.StatusFunc = func(e model.ProgressEvent) { events = append(events, e) }

	if _, err := eval.Run(context.Background(), Input{CompanyName: "Acme Pay"}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	wantSteps := []struct {
		step     string
		progress int
	}{
		{StepInitialization, 0},
		{StepDatabaseCheck, 10},
		{StepDataGathering, 20},
		{StepNewsSearch, 30},
		{StepCompetitorAnalysis, 40},
		{StepMarketResearch, 50},
		{StepFounderResearch, 60},
		{StepDatabaseUpdate, 65},
		{StepAIAnalysis, 70},
		{StepMemoGeneration, 80},
		{StepDueDiligence, 85},
		{StepStoringResults, 90},
		{StepComprehensiveDD, 95},
		{StepCompleted, 100},
	}
	if len(events) != len(wantSteps) {
		t.Fatalf("got %d events, want %d: %+v", len(events), len(wantSteps), events)
	}
	for i, want := range wantSteps {
		if events[i].Step != want.step || events[i].Progress != want.progress {
			t.Errorf("event[%d] = %s/%d, want %s/%d", i, events[i].Step, events[i].Progress, want.step, want.progress)
		}
	}
	last := events[len(events)-1]
	if !last.Completed {
		t.Error("final event should be marked completed")
	}
}

func TestRunFatalStepEmitsErrorEvent(t *testing.T) {
	eval := newTestEvaluator(&typedExtractor{failScore: true}, nil)

	var events []model.ProgressEvent
	eval.StatusFunc = func(e model.ProgressEvent) { events = append(events, e) }

	if _, err := eval.Run(context.Background(), Input{CompanyName: "Acme Pay"}); err == nil {
		t.Fatal("expected error when analysis fails")
	}

	last := events[len(events)-1]
	if last.Step != StepError || last.Progress != 0 || last.Completed || last.Err == "" {
		t.Errorf("terminal event = %+v, want error step with progress 0", last)
	}
}

func TestRunUpdatesExistingCompany(t *testing.T) {
	store := &memoryStore{existing: &model.Company{ID: "existing-id", Name: "Acme Pay"}}
	eval := newTestEvaluator(&typedExtractor{overallScore: 50}, store)

	result, err := eval.Run(context.Background(), Input{CompanyName: "Acme Pay"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Company.ID != "existing-id" {
		t.Errorf("Company.ID = %s, want existing-id", result.Company.ID)
	}
	if len(store.updates) != 1 || len(store.companies) != 0 {
		t.Errorf("updates = %d, creates = %d; want 1 update and no create", len(store.updates), len(store.companies))
	}
}

func TestRunRequiresCompanyName(t *testing.T) {
	eval := newTestEvaluator(&typedExtractor{}, nil)
	if _, err := eval.Run(context.Background(), Input{CompanyName: "  "}); err == nil {
		t.Error("expected error for blank company name")
	}
}

func TestRunFounderResearch(t *testing.T) {
	store := &memoryStore{}
	eval := newTestEvaluator(&typedExtractor{overallScore: 40}, store)

	result, err := eval.Run(context.Background(), Input{
		CompanyName:  "Acme Pay",
		FounderNames: []string{"Jane Doe", "John Roe"},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(result.Founders) != 2 || len(store.founders) != 2 {
		t.Errorf("founders = %d (stored %d), want 2", len(result.Founders), len(store.founders))
	}
	if result.Recommendation != "PASS" {
		t.Errorf("Recommendation = %s, want PASS for score 40", result.Recommendation)
	}
}

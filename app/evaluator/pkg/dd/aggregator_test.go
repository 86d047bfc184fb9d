package dd

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/llm"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/model"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/search"
)

// failingSearcher 模拟检索全部失败
type failingSearcher struct{}

func (s *failingSearcher) Search(ctx context.Context, req *search.Request) (*search.Response, error) {
	return nil, errors.New("search unavailable")
}

func (s *failingSearcher) Stats() search.Stats { return search.Stats{} }

// failingExtractor 模拟提取全部失败
type failingExtractor struct{}

func (e *failingExtractor) ExtractJSON(ctx context.Context, req llm.Request, out any) error {
	return errors.New("extraction unavailable")
}

// stubExtractor 返回固定 JSON
type stubExtractor struct {
	payload string
}

func (e *stubExtractor) ExtractJSON(ctx context.Context, req llm.Request, out any) error {
	return json.Unmarshal([]byte(e.payload), out)
}

func TestOverallScore(t *testing.T) {
	got := OverallScore(DefaultWeights(), 80, 70, 60, 90, 50)
	if got != 72 {
		t.Errorf("OverallScore() = %d, want 72", got)
	}
	if rec := RecommendationFor(got); rec != RecommendConsider {
		t.Errorf("RecommendationFor(%d) = %s, want %s", got, rec, RecommendConsider)
	}
}

func TestRecommendationFor(t *testing.T) {
	cases := []struct {
		score int
		want  Recommendation
	}{
		{100, RecommendInvest},
		{85, RecommendInvest},
		{84, RecommendStrongConsider},
		{75, RecommendStrongConsider},
		{74, RecommendConsider},
		{65, RecommendConsider},
		{64, RecommendWeakPass},
		{55, RecommendWeakPass},
		{54, RecommendPass},
		{0, RecommendPass},
	}
	for _, c := range cases {
		if got := RecommendationFor(c.score); got != c.want {
			t.Errorf("RecommendationFor(%d) = %s, want %s", c.score, got, c.want)
		}
	}
}

func TestAggregatorRunAllDegraded(t *testing.T) {
	collectors := NewCollectors(&failingSearcher{}, &failingExtractor{})
	agg := NewAggregator(collectors, &failingExtractor{})

	var stages []Stage
	agg.StageFunc = func(s Stage) { stages = append(stages, s) }

	report := agg.Run(context.Background(), model.CompanyContext{Name: "Acme Pay"})

	if !report.Financial.Degraded || !report.Legal.Degraded || !report.Technical.Degraded ||
		!report.Market.Degraded || !report.Team.Degraded {
		t.Error("expected all category records to be degraded")
	}
	if report.DataQuality != 40 {
		t.Errorf("DataQuality = %d, want 40", report.DataQuality)
	}
	if report.AnalysisConfidence != 25 {
		t.Errorf("AnalysisConfidence = %d, want 25", report.AnalysisConfidence)
	}
	if len(report.InformationGaps) != 5 {
		t.Errorf("InformationGaps = %d entries, want 5", len(report.InformationGaps))
	}
	// 提取不可用时洞察使用静态兜底值
	if len(report.KeyFindings) == 0 || len(report.RedFlags) == 0 {
		t.Error("expected fallback insights to be populated")
	}
	if report.ID == "" || report.ReportDate == "" {
		t.Error("expected report identity fields to be set")
	}
	if report.Recommendation != RecommendationFor(report.OverallScore) {
		t.Errorf("Recommendation = %s, inconsistent with score %d", report.Recommendation, report.OverallScore)
	}

	want := []Stage{StageCollecting, StageScoring, StageSynthesizing, StageDone}
	if len(stages) != len(want) {
		t.Fatalf("stages = %v, want %v", stages, want)
	}
	for i := range want {
		if stages[i] != want[i] {
			t.Errorf("stage[%d] = %s, want %s", i, stages[i], want[i])
		}
	}
}

func TestAggregatorRunDefaultScore(t *testing.T) {
	collectors := NewCollectors(&failingSearcher{}, &failingExtractor{})
	agg := NewAggregator(collectors, &failingExtractor{})

	report := agg.Run(context.Background(), model.CompanyContext{Name: "Acme Pay"})

	// 全默认记录时的确定性得分：
	// financial (40+30)/2=35, legal 50, technical (60+60+60)/3=60,
	// market (50+60)/2=55, team (60+60+60)/3=60
	want := OverallScore(DefaultWeights(), 35, 50, 60, 55, 60)
	if report.OverallScore != want {
		t.Errorf("OverallScore = %d, want %d", report.OverallScore, want)
	}
}

func TestAggregatorSynthesizeInsights(t *testing.T) {
	collectors := NewCollectors(&failingSearcher{}, &failingExtractor{})
	agg := NewAggregator(collectors, &stubExtractor{payload: `{
		"keyFindings": ["finding"],
		"redFlags": ["flag"],
		"mitigationStrategies": ["strategy"],
		"followUpActions": ["action"]
	}`})

	report := agg.Run(context.Background(), model.CompanyContext{Name: "Acme Pay"})

	if len(report.KeyFindings) != 1 || report.KeyFindings[0] != "finding" {
		t.Errorf("KeyFindings = %v", report.KeyFindings)
	}
	if len(report.MitigationActions) != 1 || report.MitigationActions[0] != "strategy" {
		t.Errorf("MitigationActions = %v", report.MitigationActions)
	}
}

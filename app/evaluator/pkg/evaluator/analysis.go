package evaluator

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/llm"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/model"
)

const analystSystem = "You are a senior venture capital analyst specializing in fintech investments. Respond with valid JSON only, no markdown."

// analyzeStartup 基于采集数据做一次快速投资评分
func (e *Evaluator) analyzeStartup(ctx context.Context, info model.CompanyInfo, news model.NewsData, competitors []model.EvidenceItem, marketData model.MarketData, founderData []model.FounderBackground) (model.InvestmentScore, error) {
	var prompt strings.Builder
	prompt.WriteString("Evaluate this startup as an investment opportunity.\n\n")
	writeCompanySection(&prompt, info)
	prompt.WriteString("\nRecent news:\n")
	writeEvidenceSection(&prompt, news.RecentNews, 3)
	prompt.WriteString("\nCompetitors:\n")
	writeEvidenceSection(&prompt, competitors, 3)
	prompt.WriteString("\nMarket trends:\n")
	for _, trend := range marketData.KeyTrends {
		fmt.Fprintf(&prompt, "- %s\n", trend)
	}
	prompt.WriteString("\nFounders:\n")
	for _, founder := range founderData {
		fmt.Fprintf(&prompt, "- %s: %s\n", founder.Name, truncate(strings.Join(founder.Experience, "; "), 400))
	}
	prompt.WriteString(`
Score each dimension from 0 to 100 and return JSON:
{"overall_score": number, "team_score": number, "market_score": number, "product_score": number, "traction_score": number, "competitive_advantage_score": number, "business_model_score": number, "meets_criteria": boolean, "strengths": [string], "red_flags": [string], "reasoning": string}`)

	var score model.InvestmentScore
	err := e.extractor.ExtractJSON(ctx, llm.Request{
		System:      analystSystem,
		Prompt:      prompt.String(),
		Temperature: 0.3,
		MaxTokens:   2000,
	}, &score)
	if err != nil {
		return model.InvestmentScore{}, err
	}
	return score, nil
}

// generateMemo 生成投资备忘录各段落
func (e *Evaluator) generateMemo(ctx context.Context, info model.CompanyInfo, score model.InvestmentScore, marketData model.MarketData) (model.InvestmentMemo, error) {
	var prompt strings.Builder
	prompt.WriteString("Write an investment memo for this startup.\n\n")
	writeCompanySection(&prompt, info)
	fmt.Fprintf(&prompt, "\nOverall score: %d/100\nStrengths: %s\nRed flags: %s\nReasoning: %s\n",
		score.OverallScore,
		strings.Join(score.Strengths, "; "),
		strings.Join(score.RedFlags, "; "),
		truncate(score.Reasoning, 800))
	fmt.Fprintf(&prompt, "Market trends: %s\n", strings.Join(marketData.KeyTrends, "; "))
	prompt.WriteString(`
Return JSON:
{"executive_summary": string, "investment_thesis": string, "market_opportunity": string, "competitive_landscape": string, "team_assessment": string, "financial_projections": string, "risks_and_mitigations": string, "recommendation": string, "due_diligence_questions": [string]}`)

	var memo model.InvestmentMemo
	err := e.extractor.ExtractJSON(ctx, llm.Request{
		System:      analystSystem,
		Prompt:      prompt.String(),
		Temperature: 0.4,
		MaxTokens:   3000,
	}, &memo)
	if err != nil {
		return model.InvestmentMemo{}, err
	}
	return memo, nil
}

// generateDDQuestions 按类别生成尽调问题
func (e *Evaluator) generateDDQuestions(ctx context.Context, info model.CompanyInfo, score model.InvestmentScore) (model.DDQuestions, error) {
	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Generate due diligence questions for %s (%s).\n", info.Name, info.Industry)
	fmt.Fprintf(&prompt, "Known red flags: %s\n", strings.Join(score.RedFlags, "; "))
	prompt.WriteString(`
Return 3-5 questions per category as JSON:
{"technical": [string], "business": [string], "financial": [string], "legal": [string], "market": [string], "team": [string]}`)

	var questions model.DDQuestions
	err := e.extractor.ExtractJSON(ctx, llm.Request{
		System:      analystSystem,
		Prompt:      prompt.String(),
		Temperature: 0.5,
		MaxTokens:   2000,
	}, &questions)
	if err != nil {
		return model.DDQuestions{}, err
	}
	return questions, nil
}

// renderMemo 把备忘录各段落按固定标题拼接成一段文本
func renderMemo(memo model.InvestmentMemo) string {
	sections := []struct {
		title string
		body  string
	}{
		{"Executive Summary", memo.ExecutiveSummary},
		{"Investment Thesis", memo.InvestmentThesis},
		{"Market Opportunity", memo.MarketOpportunity},
		{"Competitive Landscape", memo.CompetitiveLandscape},
		{"Team Assessment", memo.TeamAssessment},
		{"Financial Projections", memo.FinancialProjections},
		{"Risks and Mitigations", memo.RisksAndMitigations},
		{"Recommendation", memo.Recommendation},
	}
	var out strings.Builder
	for _, section := range sections {
		if section.body == "" {
			continue
		}
		fmt.Fprintf(&out, "## %s\n\n%s\n\n", section.title, section.body)
	}
	return strings.TrimSpace(out.String())
}

func writeCompanySection(out *strings.Builder, info model.CompanyInfo) {
	fmt.Fprintf(out, "Company: %s\n", info.Name)
	if info.Website != "" {
		fmt.Fprintf(out, "Website: %s\n", info.Website)
	}
	if info.Industry != "" {
		fmt.Fprintf(out, "Industry: %s\n", info.Industry)
	}
	if info.FoundedYear != 0 {
		fmt.Fprintf(out, "Founded: %d\n", info.FoundedYear)
	}
	if info.Location != "" {
		fmt.Fprintf(out, "Location: %s\n", info.Location)
	}
	if info.Description != "" {
		fmt.Fprintf(out, "Description: %s\n", truncate(info.Description, 600))
	}
}

func writeEvidenceSection(out *strings.Builder, items []model.EvidenceItem, limit int) {
	if len(items) > limit {
		items = items[:limit]
	}
	for _, item := range items {
		fmt.Fprintf(out, "- %s: %s\n", item.Title, truncate(item.Text, 800))
	}
}

// truncate 按字节上限截断，回退到最近的 rune 边界，避免切出非法 UTF-8 序列
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

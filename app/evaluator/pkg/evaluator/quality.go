package evaluator

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/model"
)

// 数据质量按四个维度各 25 分计算
const (
	qualityHighThreshold   = 70
	qualityMediumThreshold = 40
)

// dataQualityScore 对采集完整度打分，满分 100
func dataQualityScore(info model.CompanyInfo, news model.NewsData, competitors []model.EvidenceItem, founderData []model.FounderBackground) int {
	score := 0

	// 公司信息：五个字段各 5 分
	if info.Website != "" {
		score += 5
	}
	if info.Description != "" {
		score += 5
	}
	if info.Industry != "" {
		score += 5
	}
	if info.FoundedYear != 0 {
		score += 5
	}
	if info.EmployeeCount != "" {
		score += 5
	}

	// 新闻覆盖
	if len(news.RecentNews) > 0 {
		score += 10
	}
	if len(news.PressReleases) > 0 {
		score += 10
	}
	if len(news.IndustryTrends) > 0 {
		score += 5
	}

	// 竞品覆盖
	if len(competitors) >= 3 {
		score += 15
	} else if len(competitors) >= 1 {
		score += 8
	}
	for _, competitor := range competitors {
		if len(competitor.Highlights) > 0 {
			score += 10
			break
		}
	}

	// 创始人覆盖
	if len(founderData) > 0 {
		score += 10
		for _, founder := range founderData {
			if len(founder.Experience) > 0 {
				score += 15
				break
			}
		}
	}

	return score
}

func qualityTier(score int) string {
	switch {
	case score >= qualityHighThreshold:
		return "high"
	case score >= qualityMediumThreshold:
		return "medium"
	default:
		return "low"
	}
}

var (
	marketSizeRe = regexp.MustCompile(`(?i)\$(\d+(?:\.\d+)?)\s*(?:billion|bn)`)
	growthRateRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*%[^.%]*?(?:growth|cagr)`)
)

var (
	positiveTimingSignals = []string{"growing", "growth", "expansion", "increasing", "rising", "emerging", "opportunity"}
	negativeTimingSignals = []string{"declining", "saturation", "saturated", "mature", "shrinking", "consolidation"}
)

// deriveMarketInsight 从市场检索文本中提取规模、增速与时机判断
func deriveMarketInsight(companyID string, marketData model.MarketData, competitors []model.EvidenceItem) model.MarketInsight {
	var corpus strings.Builder
	for _, item := range marketData.CompetitiveData {
		corpus.WriteString(item.Title)
		corpus.WriteString(" ")
		corpus.WriteString(item.Text)
		corpus.WriteString(" ")
	}
	for _, trend := range marketData.KeyTrends {
		corpus.WriteString(trend)
		corpus.WriteString(" ")
	}
	text := corpus.String()

	insight := model.MarketInsight{
		ID:                     uuid.NewString(),
		CompanyID:              companyID,
		KeyTrends:              marketData.KeyTrends,
		RegulatoryEnvironment:  marketData.RegulatoryEnvironment,
		MarketTimingAssessment: assessMarketTiming(marketData.KeyTrends),
		CompetitiveLandscape:   competitors,
	}

	if m := marketSizeRe.FindStringSubmatch(text); m != nil {
		if size, err := strconv.ParseFloat(m[1], 64); err == nil {
			insight.MarketSizeBillion = size
		}
	}
	if m := growthRateRe.FindStringSubmatch(text); m != nil {
		if rate, err := strconv.ParseFloat(m[1], 64); err == nil {
			insight.GrowthRatePercent = rate
		}
	}

	var competitiveText strings.Builder
	for _, competitor := range competitors {
		if len(competitor.Highlights) > 0 {
			competitiveText.WriteString(competitor.Title)
			competitiveText.WriteString(": ")
			competitiveText.WriteString(competitor.Highlights[0])
			competitiveText.WriteString("\n")
		}
	}
	insight.CompetitiveAnalysisText = strings.TrimSpace(competitiveText.String())

	return insight
}

// assessMarketTiming 统计趋势文本中的正负信号占比
func assessMarketTiming(trends []string) string {
	if len(trends) == 0 {
		return "insufficient data"
	}
	text := strings.ToLower(strings.Join(trends, " "))
	positive, negative := 0, 0
	for _, signal := range positiveTimingSignals {
		positive += strings.Count(text, signal)
	}
	for _, signal := range negativeTimingSignals {
		negative += strings.Count(text, signal)
	}
	total := positive + negative
	if total == 0 {
		return "insufficient data"
	}
	ratio := float64(positive) / float64(total)
	switch {
	case ratio > 0.6:
		return "favorable"
	case ratio > 0.3:
		return "moderate"
	default:
		return "challenging"
	}
}

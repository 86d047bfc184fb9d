package evaluator

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"

	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/logger"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/model"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/search"
)

// Gatherer 数据采集层：把检索服务包装成一组面向评估流程的查询。
// 每个查询自己吸收失败并退回空值，流水线不因单项检索失败而中断。
type Gatherer struct {
	searcher search.Searcher

	// fetch 可在测试中替换以避免真实抓取
	fetch func(string) (string, error)
}

// NewGatherer 创建数据采集层
func NewGatherer(searcher search.Searcher) *Gatherer {
	return &Gatherer{searcher: searcher, fetch: fetchAndCleanContent}
}

var (
	foundedYearRe   = regexp.MustCompile(`(?i)(?:founded|established)\s+(?:in\s+)?(\d{4})`)
	employeeCountRe = regexp.MustCompile(`(?i)(\d+[-\s]*\d*)\s+employees?`)
	locationRe      = regexp.MustCompile(`(?i)(?:based in|headquarters in|located in)\s+([^,.]+)`)
)

var fintechKeywords = []string{"fintech", "financial technology", "banking", "insurance", "payments", "lending", "wealth management"}

// SearchCompanyInfo 检索并提取公司基础信息，失败时仅返回公司名
func (g *Gatherer) SearchCompanyInfo(ctx context.Context, companyName string) model.CompanyInfo {
	info := model.CompanyInfo{Name: companyName}

	basicQuery := fmt.Sprintf("%s company overview description products funding", companyName)
	basicResults, err := g.search(ctx, &search.Request{
		Query:          basicQuery,
		NumResults:     3,
		IncludeDomains: []string{"crunchbase.com", "linkedin.com", "pitchbook.com", "techcrunch.com"},
		IncludeText:    true,
		Highlights:     true,
	})
	if err != nil {
		logger.Log.Warnf("公司信息检索失败 [%s]: %v", companyName, err)
		return info
	}

	sectorQuery := fmt.Sprintf("%s fintech financial technology banking insurance", companyName)
	sectorResults, err := g.search(ctx, &search.Request{
		Query:       sectorQuery,
		NumResults:  3,
		IncludeText: true,
		Highlights:  true,
	})
	if err != nil {
		logger.Log.Warnf("行业检索失败 [%s]: %v", companyName, err)
		sectorResults = nil
	}

	allResults := append(append([]model.EvidenceItem{}, basicResults...), sectorResults...)
	compact := strings.ToLower(strings.ReplaceAll(companyName, " ", ""))

	for _, result := range allResults {
		text := strings.ToLower(result.Text)
		title := strings.ToLower(result.Title)

		// 官网：结果 URL 中包含公司名且不是数据库站点
		if info.Website == "" && strings.Contains(strings.ToLower(result.URL), compact) {
			if u, err := url.Parse(result.URL); err == nil {
				host := u.Hostname()
				if !strings.Contains(host, "crunchbase") && !strings.Contains(host, "linkedin") {
					info.Website = "https://" + host
				}
			}
		}

		if info.Description == "" && len(result.Highlights) > 0 {
			info.Description = result.Highlights[0]
		}

		if info.Industry == "" {
			for _, keyword := range fintechKeywords {
				if strings.Contains(text, keyword) || strings.Contains(title, keyword) {
					info.Industry = "Fintech"
					break
				}
			}
		}

		if info.FoundedYear == 0 {
			if m := foundedYearRe.FindStringSubmatch(result.Text); m != nil {
				if year, err := strconv.Atoi(m[1]); err == nil {
					info.FoundedYear = year
				}
			}
		}

		if info.EmployeeCount == "" {
			if m := employeeCountRe.FindStringSubmatch(result.Text); m != nil {
				info.EmployeeCount = strings.TrimSpace(m[1])
			}
		}

		if info.Location == "" {
			if m := locationRe.FindStringSubmatch(result.Text); m != nil {
				info.Location = strings.TrimSpace(m[1])
			}
		}
	}

	return info
}

// SearchRecentNews 检索近期新闻、通稿与行业动态，默认回看 90 天
func (g *Gatherer) SearchRecentNews(ctx context.Context, companyName string, daysBack int) model.NewsData {
	if daysBack <= 0 {
		daysBack = 90
	}
	endDate := time.Now().Format(time.DateOnly)
	startDate := time.Now().AddDate(0, 0, -daysBack).Format(time.DateOnly)

	news := model.NewsData{
		RecentNews:     []model.EvidenceItem{},
		PressReleases:  []model.EvidenceItem{},
		IndustryTrends: []model.EvidenceItem{},
	}

	recent, err := g.search(ctx, &search.Request{
		Query:              fmt.Sprintf("%s news funding investment announcement", companyName),
		NumResults:         3,
		StartPublishedDate: startDate,
		EndPublishedDate:   endDate,
		IncludeDomains:     []string{"techcrunch.com", "reuters.com", "bloomberg.com", "wsj.com", "prnewswire.com"},
		IncludeText:        true,
		Highlights:         true,
	})
	if err != nil {
		logger.Log.Warnf("新闻检索失败 [%s]: %v", companyName, err)
		return news
	}
	news.RecentNews = recent

	press, err := g.search(ctx, &search.Request{
		Query:              fmt.Sprintf("%s press release announcement", companyName),
		NumResults:         3,
		StartPublishedDate: startDate,
		EndPublishedDate:   endDate,
		IncludeText:        true,
		Highlights:         true,
	})
	if err == nil {
		news.PressReleases = press
	}

	trends, err := g.search(ctx, &search.Request{
		Query:              fmt.Sprintf("fintech trends financial technology innovation %s", companyName),
		NumResults:         3,
		StartPublishedDate: startDate,
		IncludeText:        true,
		Highlights:         true,
	})
	if err == nil {
		news.IndustryTrends = trends
	}

	return news
}

// SearchCompetitors 检索竞品信息，失败返回空列表
func (g *Gatherer) SearchCompetitors(ctx context.Context, companyName, industry string) []model.EvidenceItem {
	if industry == "" {
		industry = "fintech"
	}
	results, err := g.search(ctx, &search.Request{
		Query:          fmt.Sprintf("%s companies similar to %s competitors alternative", industry, companyName),
		NumResults:     3,
		ExcludeDomains: []string{"wikipedia.org"},
		IncludeText:    true,
		Highlights:     true,
	})
	if err != nil {
		logger.Log.Warnf("竞品检索失败 [%s]: %v", companyName, err)
		return []model.EvidenceItem{}
	}
	return results
}

// SearchMarketData 检索市场规模、趋势与监管环境
func (g *Gatherer) SearchMarketData(ctx context.Context, industry string) model.MarketData {
	data := model.MarketData{KeyTrends: []string{}, CompetitiveData: []model.EvidenceItem{}}
	if industry == "" {
		industry = "fintech"
	}

	marketResults, err := g.search(ctx, &search.Request{
		Query:          fmt.Sprintf("%s market size growth rate forecast", industry),
		NumResults:     3,
		IncludeDomains: []string{"statista.com", "mckinsey.com", "pwc.com", "deloitte.com", "accenture.com"},
		IncludeText:    true,
		Highlights:     true,
	})
	if err != nil {
		logger.Log.Warnf("市场数据检索失败 [%s]: %v", industry, err)
		return data
	}
	data.CompetitiveData = marketResults

	trendResults, err := g.search(ctx, &search.Request{
		Query:       fmt.Sprintf("%s trends innovation technology disruption", industry),
		NumResults:  5,
		IncludeText: true,
		Highlights:  true,
	})
	if err == nil {
		for _, result := range trendResults {
			data.KeyTrends = append(data.KeyTrends, result.Highlights...)
		}
		if len(data.KeyTrends) > 5 {
			data.KeyTrends = data.KeyTrends[:5]
		}
	}

	regulatoryResults, err := g.search(ctx, &search.Request{
		Query:          fmt.Sprintf("%s regulation compliance requirements laws", industry),
		NumResults:     3,
		IncludeDomains: []string{"sec.gov", "federalreserve.gov", "occ.gov", "cftc.gov"},
		IncludeText:    true,
	})
	if err == nil && len(regulatoryResults) > 0 {
		data.RegulatoryEnvironment = regulatoryResults[0].Text
	}

	return data
}

// SearchFounderBackground 检索创始人背景
func (g *Gatherer) SearchFounderBackground(ctx context.Context, founderName, companyName string) model.FounderBackground {
	background := model.FounderBackground{
		Name:              founderName,
		Experience:        []string{},
		Education:         []string{},
		PreviousCompanies: []string{},
		Achievements:      []string{},
	}

	results, err := g.search(ctx, &search.Request{
		Query:          fmt.Sprintf("%s %s CEO founder experience background LinkedIn", founderName, companyName),
		NumResults:     3,
		IncludeDomains: []string{"linkedin.com", "crunchbase.com", "bloomberg.com"},
		IncludeText:    true,
		Highlights:     true,
	})
	if err != nil {
		logger.Log.Warnf("创始人背景检索失败 [%s]: %v", founderName, err)
		return background
	}

	for _, result := range results {
		background.Experience = append(background.Experience, result.Highlights...)
	}
	return background
}

// search 执行检索并对过短的摘要做正文增补
func (g *Gatherer) search(ctx context.Context, req *search.Request) ([]model.EvidenceItem, error) {
	resp, err := g.searcher.Search(ctx, req)
	if err != nil {
		return nil, err
	}
	results := resp.Results
	if req.IncludeText {
		g.enrichEvidence(results)
	}
	return results, nil
}

// enrichEvidence 摘要不足 500 字符时抓取页面正文替换
func (g *Gatherer) enrichEvidence(items []model.EvidenceItem) {
	for i, item := range items {
		if len(item.Text) >= 500 {
			continue
		}
		fetched, err := g.fetch(item.URL)
		if err != nil || len(fetched) <= len(item.Text) {
			continue
		}
		if len(fetched) > 5000 {
			fetched = fetched[:5000]
		}
		items[i].Text = fetched
	}
}

func fetchAndCleanContent(pageURL string) (string, error) {
	article, err := readability.FromURL(pageURL, 30*time.Second)
	if err != nil {
		return "", err
	}
	return article.TextContent, nil
}

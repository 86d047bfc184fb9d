package exa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/model"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/search"
)

const baseURL = "https://api.exa.ai/search"

const (
	// rateLimitDelay 相邻两次出站请求的最小间隔
	rateLimitDelay = time.Second
	// throttleCooldown 命中 429 后的冷却时间，冷却结束重试一次
	throttleCooldown = 5 * time.Second
)

// Client Exa API 客户端，同一实例上的并发调用串行通过限速门
type Client struct {
	apiKey string
	client *http.Client

	mu           sync.Mutex
	lastRequest  time.Time
	requestCount atomic.Int64

	// 便于测试缩短等待、替换服务地址
	spacing      time.Duration
	cooldown     time.Duration
	baseOverride string
}

// NewClient 创建一个新的 Exa 客户端
func NewClient(apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("configuration error: exa api key is missing")
	}
	return &Client{
		apiKey:   apiKey,
		client:   http.DefaultClient,
		spacing:  rateLimitDelay,
		cooldown: throttleCooldown,
	}, nil
}

// Ensure Client implements search.Searcher
var _ search.Searcher = (*Client)(nil)

// searchRequest Exa 检索请求体
type searchRequest struct {
	Query              string          `json:"query"`
	Type               string          `json:"type,omitempty"` // neural or keyword
	NumResults         int             `json:"numResults,omitempty"`
	IncludeDomains     []string        `json:"includeDomains,omitempty"`
	ExcludeDomains     []string        `json:"excludeDomains,omitempty"`
	StartPublishedDate string          `json:"startPublishedDate,omitempty"`
	EndPublishedDate   string          `json:"endPublishedDate,omitempty"`
	Contents           *contentsOption `json:"contents,omitempty"`
}

type contentsOption struct {
	Text       bool              `json:"text"`
	Highlights *highlightsOption `json:"highlights,omitempty"`
}

type highlightsOption struct {
	NumSentences     int `json:"numSentences"`
	HighlightsPerURL int `json:"highlightsPerUrl"`
}

// searchResponse Exa 检索响应
type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	Title         string   `json:"title"`
	URL           string   `json:"url"`
	Text          string   `json:"text"`
	Highlights    []string `json:"highlights"`
	PublishedDate string   `json:"publishedDate"`
	Author        string   `json:"author"`
}

// Search implements search.Searcher
func (c *Client) Search(ctx context.Context, req *search.Request) (*search.Response, error) {
	exaReq := searchRequest{
		Query:              req.Query,
		Type:               "neural",
		NumResults:         req.NumResults,
		IncludeDomains:     req.IncludeDomains,
		ExcludeDomains:     req.ExcludeDomains,
		StartPublishedDate: req.StartPublishedDate,
		EndPublishedDate:   req.EndPublishedDate,
	}
	if exaReq.NumResults == 0 {
		exaReq.NumResults = 3
	}
	if req.IncludeText || req.Highlights {
		exaReq.Contents = &contentsOption{Text: req.IncludeText}
		if req.Highlights {
			exaReq.Contents.Highlights = &highlightsOption{NumSentences: 3, HighlightsPerURL: 3}
		}
	}

	if err := c.waitTurn(ctx); err != nil {
		return nil, err
	}

	resp, err := c.doSearch(ctx, exaReq)
	if err == herrThrottled {
		// 命中限流：固定冷却后仅重试一次，再失败则上抛
		select {
		case <-time.After(c.cooldown):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		resp, err = c.doSearch(ctx, exaReq)
		if err == herrThrottled {
			err = fmt.Errorf("exa api error: %w", search.ErrThrottled)
		}
	}
	if err != nil {
		return nil, err
	}

	results := make([]model.EvidenceItem, 0, len(resp.Results))
	for _, r := range resp.Results {
		results = append(results, model.EvidenceItem{
			Title:         r.Title,
			URL:           r.URL,
			Text:          r.Text,
			Highlights:    r.Highlights,
			PublishedDate: r.PublishedDate,
		})
	}

	return &search.Response{Results: results}, nil
}

// Stats implements search.Searcher
func (c *Client) Stats() search.Stats {
	c.mu.Lock()
	last := c.lastRequest
	c.mu.Unlock()
	return search.Stats{
		RequestCount:    c.requestCount.Load(),
		LastRequestUnix: last.Unix(),
	}
}

// waitTurn 保证与上一次请求之间至少间隔 spacing
func (c *Client) waitTurn(ctx context.Context) error {
	c.mu.Lock()
	now := time.Now()
	wait := c.spacing - now.Sub(c.lastRequest)
	if wait < 0 {
		wait = 0
	}
	c.lastRequest = now.Add(wait)
	c.mu.Unlock()

	if wait > 0 {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	c.requestCount.Add(1)
	return nil
}

// herrThrottled doSearch 内部的限流标记
var herrThrottled = fmt.Errorf("exa: 429")

func (c *Client) doSearch(ctx context.Context, req searchRequest) (*searchResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request failed: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}

	httpReq.Header.Add("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Add("Content-Type", "application/json")

	res, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read body failed: %w", err)
	}

	if res.StatusCode == http.StatusTooManyRequests {
		return nil, herrThrottled
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("exa api error (status %d): %s", res.StatusCode, string(body))
	}

	var searchResp searchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, fmt.Errorf("unmarshal response failed: %w", err)
	}

	return &searchResp, nil
}

func (c *Client) endpoint() string {
	if c.baseOverride != "" {
		return c.baseOverride
	}
	return baseURL
}

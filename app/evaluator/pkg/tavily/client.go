package tavily

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

const baseURL = "https://api.tavily.com/search"

// Client Tavily API 客户端，备用检索服务，与 Exa 客户端遵循相同的限速约定
type Client struct {
	apiKey string
	client *http.Client

	mu           sync.Mutex
	lastRequest  time.Time
	requestCount atomic.Int64
	spacing      time.Duration
	cooldown     time.Duration
}

// NewClient 创建一个新的 Tavily 客户端
func NewClient(apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("configuration error: tavily api key is missing")
	}
	return &Client{
		apiKey:   apiKey,
		client:   http.DefaultClient,
		spacing:  time.Second,
		cooldown: 5 * time.Second,
	}, nil
}

// Ensure Client implements search.Searcher
var _ search.Searcher = (*Client)(nil)

// SearchRequest Tavily 检索请求参数
type SearchRequest struct {
	Query          string   `json:"query"`
	SearchDepth    string   `json:"search_depth,omitempty"` // basic or advanced
	Topic          string   `json:"topic,omitempty"`        // general or news
	MaxResults     int      `json:"max_results,omitempty"`
	IncludeDomains []string `json:"include_domains,omitempty"`
	ExcludeDomains []string `json:"exclude_domains,omitempty"`
	StartDate      string   `json:"start_date,omitempty"`
	EndDate        string   `json:"end_date,omitempty"`
}

// SearchResponse Tavily 检索响应
type SearchResponse struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
}

// SearchResult 单个检索结果
type SearchResult struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Content       string  `json:"content"`
	Score         float64 `json:"score"`
	PublishedDate string  `json:"published_date"`
}

// Search implements search.Searcher
func (c *Client) Search(ctx context.Context, req *search.Request) (*search.Response, error) {
	tavilyReq := SearchRequest{
		Query:          req.Query,
		Topic:          "general",
		MaxResults:     req.NumResults,
		IncludeDomains: req.IncludeDomains,
		ExcludeDomains: req.ExcludeDomains,
		StartDate:      req.StartPublishedDate,
		EndDate:        req.EndPublishedDate,
	}
	if tavilyReq.MaxResults == 0 {
		tavilyReq.MaxResults = 5
	}

	if err := c.waitTurn(ctx); err != nil {
		return nil, err
	}

	resp, err := c.doSearch(ctx, tavilyReq)
	if err == errThrottled {
		select {
		case <-time.After(c.cooldown):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		resp, err = c.doSearch(ctx, tavilyReq)
		if err == errThrottled {
			err = fmt.Errorf("tavily api error: %w", search.ErrThrottled)
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
			Text:          r.Content,
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

var errThrottled = fmt.Errorf("tavily: 429")

// doSearch 执行检索 (Internal)
func (c *Client) doSearch(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	if req.SearchDepth == "" {
		req.SearchDepth = "basic"
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request failed: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", baseURL, bytes.NewReader(payload))
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
		return nil, errThrottled
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily api error (status %d): %s", res.StatusCode, string(body))
	}

	var searchResp SearchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, fmt.Errorf("unmarshal response failed: %w", err)
	}

	return &searchResp, nil
}

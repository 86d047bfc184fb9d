package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/time/rate"

	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/config"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/logger"
)

var (
	// ErrEmptyResponse 模型返回了空内容
	ErrEmptyResponse = errors.New("empty response from model")
	// ErrMalformed 模型返回的内容无法按 JSON 解析
	ErrMalformed = errors.New("malformed model response")
)

const (
	maxAttempts = 3
	baseDelay   = time.Second
)

// Client 结构化提取客户端：提交提示词并要求返回一个 JSON 对象，
// 按节流与否区分退避策略，重试耗尽后上抛最后一次错误。
type Client struct {
	cm      model.ChatModel
	limiter *rate.Limiter

	// sleep 可在测试中替换以消除真实等待
	sleep func(time.Duration)
}

// NewClient 按配置初始化 LLM 并创建提取客户端
func NewClient(ctx context.Context, cfg config.LLMConfig, limiter *rate.Limiter) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("configuration error: llm api key is missing")
	}
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("llm init failed: %w", err)
	}
	return NewWithModel(cm, limiter), nil
}

// NewWithModel 用现成的 ChatModel 构造客户端，测试时注入伪实现
func NewWithModel(cm model.ChatModel, limiter *rate.Limiter) *Client {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Limit(1), 1)
	}
	return &Client{cm: cm, limiter: limiter, sleep: time.Sleep}
}

// Request 一次提取调用的参数
type Request struct {
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// ExtractJSON 执行提取并把返回的 JSON 对象解码到 out。
// 最多尝试 maxAttempts 次：普通失败退避 attempt*baseDelay，
// 节流失败退避 attempt*baseDelay*2。
func (c *Client) ExtractJSON(ctx context.Context, req Request, out any) error {
	raw, err := c.extract(ctx, req)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (c *Client) extract(ctx context.Context, req Request) (json.RawMessage, error) {
	system := req.System
	if system == "" {
		system = "You are a JSON generator. Output a single JSON object and nothing else."
	}
	messages := []*schema.Message{
		{Role: schema.System, Content: system},
		{Role: schema.User, Content: req.Prompt},
	}

	var opts []model.Option
	if req.Temperature > 0 {
		opts = append(opts, model.WithTemperature(req.Temperature))
	}
	if req.MaxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(req.MaxTokens))
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := c.cm.Generate(ctx, messages, opts...)
		if err != nil {
			lastErr = err
			if attempt < maxAttempts {
				c.backoff(attempt, isThrottled(err))
				continue
			}
			break
		}

		raw, err := decodeObject(resp.Content)
		if err != nil {
			lastErr = err
			logger.Log.Warnf("提取结果不可用 (attempt %d/%d): %v", attempt, maxAttempts, err)
			if attempt < maxAttempts {
				c.backoff(attempt, false)
				continue
			}
			break
		}
		return raw, nil
	}
	return nil, lastErr
}

func (c *Client) backoff(attempt int, throttled bool) {
	d := time.Duration(attempt) * baseDelay
	if throttled {
		d *= 2
	}
	c.sleep(d)
}

// isThrottled 依据错误文本判断节流响应
func isThrottled(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "too many requests") || strings.Contains(msg, "rate limit")
}

// decodeObject 剥掉 markdown 围栏并校验内容确实是一个 JSON 值
func decodeObject(content string) (json.RawMessage, error) {
	clean := strings.TrimSpace(content)
	if clean == "" {
		return nil, ErrEmptyResponse
	}
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return nil, ErrEmptyResponse
	}

	if !json.Valid([]byte(clean)) {
		return nil, fmt.Errorf("%w: %.80s", ErrMalformed, clean)
	}
	return json.RawMessage(clean), nil
}

package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// scriptedModel 按脚本依次返回预设的响应或错误
type scriptedModel struct {
	responses []scriptedResponse
	calls     int
}

type scriptedResponse struct {
	content string
	err     error
}

func (m *scriptedModel) Generate(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	if m.calls >= len(m.responses) {
		return nil, errors.New("unexpected call")
	}
	r := m.responses[m.calls]
	m.calls++
	if r.err != nil {
		return nil, r.err
	}
	return &schema.Message{Role: schema.Assistant, Content: r.content}, nil
}

func (m *scriptedModel) Stream(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func (m *scriptedModel) BindTools(tools []*schema.ToolInfo) error { return nil }

func newTestClient(cm model.ChatModel) (*Client, *[]time.Duration) {
	c := NewWithModel(cm, nil)
	delays := &[]time.Duration{}
	c.sleep = func(d time.Duration) { *delays = append(*delays, d) }
	return c, delays
}

func TestExtractJSONRetriesThenSucceeds(t *testing.T) {
	cm := &scriptedModel{responses: []scriptedResponse{
		{err: errors.New("upstream timeout")},
		{err: errors.New("upstream timeout")},
		{content: `{"value": 7}`},
	}}
	c, delays := newTestClient(cm)

	var out struct {
		Value int `json:"value"`
	}
	if err := c.ExtractJSON(context.Background(), Request{Prompt: "extract"}, &out); err != nil {
		t.Fatalf("ExtractJSON() error = %v", err)
	}
	if out.Value != 7 {
		t.Errorf("out.Value = %d, want 7", out.Value)
	}
	// 普通失败按 attempt*baseDelay 退避
	want := []time.Duration{1 * time.Second, 2 * time.Second}
	if len(*delays) != len(want) || (*delays)[0] != want[0] || (*delays)[1] != want[1] {
		t.Errorf("backoff delays = %v, want %v", *delays, want)
	}
}

func TestExtractJSONThrottledBackoffDoubles(t *testing.T) {
	cm := &scriptedModel{responses: []scriptedResponse{
		{err: errors.New("429 Too Many Requests")},
		{content: `{}`},
	}}
	c, delays := newTestClient(cm)

	var out map[string]any
	if err := c.ExtractJSON(context.Background(), Request{Prompt: "extract"}, &out); err != nil {
		t.Fatalf("ExtractJSON() error = %v", err)
	}
	if len(*delays) != 1 || (*delays)[0] != 2*time.Second {
		t.Errorf("throttled backoff = %v, want [2s]", *delays)
	}
}

func TestExtractJSONExhaustsRetries(t *testing.T) {
	lastErr := errors.New("persistent failure")
	cm := &scriptedModel{responses: []scriptedResponse{
		{err: errors.New("first failure")},
		{err: errors.New("second failure")},
		{err: lastErr},
	}}
	c, _ := newTestClient(cm)

	var out map[string]any
	err := c.ExtractJSON(context.Background(), Request{Prompt: "extract"}, &out)
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if !errors.Is(err, lastErr) {
		t.Errorf("error = %v, want last attempt error", err)
	}
	if cm.calls != 3 {
		t.Errorf("calls = %d, want 3", cm.calls)
	}
}

func TestExtractJSONStripsMarkdownFences(t *testing.T) {
	cm := &scriptedModel{responses: []scriptedResponse{
		{content: "```json\n{\"value\": 3}\n```"},
	}}
	c, _ := newTestClient(cm)

	var out struct {
		Value int `json:"value"`
	}
	if err := c.ExtractJSON(context.Background(), Request{Prompt: "extract"}, &out); err != nil {
		t.Fatalf("ExtractJSON() error = %v", err)
	}
	if out.Value != 3 {
		t.Errorf("out.Value = %d, want 3", out.Value)
	}
}

func TestExtractJSONEmptyResponse(t *testing.T) {
	cm := &scriptedModel{responses: []scriptedResponse{
		{content: "   "},
		{content: ""},
		{content: "```json```"},
	}}
	c, _ := newTestClient(cm)

	var out map[string]any
	err := c.ExtractJSON(context.Background(), Request{Prompt: "extract"}, &out)
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("error = %v, want ErrEmptyResponse", err)
	}
	if cm.calls != 3 {
		t.Errorf("calls = %d, want 3 (empty responses are retried)", cm.calls)
	}
}

func TestExtractJSONMalformedResponse(t *testing.T) {
	cm := &scriptedModel{responses: []scriptedResponse{
		{content: "not json at all"},
		{content: "still not json"},
		{content: "{broken"},
	}}
	c, _ := newTestClient(cm)

	var out map[string]any
	err := c.ExtractJSON(context.Background(), Request{Prompt: "extract"}, &out)
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("error = %v, want ErrMalformed", err)
	}
}

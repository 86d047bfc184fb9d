package evaluator

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncate(t *testing.T) {
	cases := []struct {
		name  string
		in    string
		limit int
		want  string
	}{
		{"短文本原样返回", "hello", 10, "hello"},
		{"恰好等于上限", "hello", 5, "hello"},
		{"超长截断", "hello world", 5, "hello..."},
		{"多字节边界回退", "ab世界", 3, "ab..."},
		{"多字节完整保留", "ab世界", 5, "ab世..."},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := truncate(c.in, c.limit)
			if got != c.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", c.in, c.limit, got, c.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncate(%q, %d) 产生非法 UTF-8 序列: %q", c.in, c.limit, got)
			}
		})
	}
}

func TestTruncateLongEvidenceStaysValid(t *testing.T) {
	long := strings.Repeat("金融科技", 500)
	got := truncate(long, 1000)
	if !utf8.ValidString(got) {
		t.Fatalf("截断结果非法 UTF-8: 前缀 %q", got[:12])
	}
	if len(got) > 1000+len("...") {
		t.Errorf("截断结果超出上限: %d 字节", len(got))
	}
}

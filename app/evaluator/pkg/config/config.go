package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config 项目配置结构体
type Config struct {
	LLM         LLMConfig         `yaml:"llm"`
	Search      SearchConfig      `yaml:"search"`
	Scoring     ScoringConfig     `yaml:"scoring"`
	Log         LogConfig         `yaml:"log"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	DB          DBConfig          `yaml:"db"`
}

// LLMConfig LLM 相关配置
type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

// SearchConfig 搜索相关配置
type SearchConfig struct {
	Provider string       `yaml:"provider"`
	Exa      ExaConfig    `yaml:"exa"`
	Tavily   TavilyConfig `yaml:"tavily"`
}

// ExaConfig Exa 配置
type ExaConfig struct {
	APIKey string `yaml:"api_key"`
}

// TavilyConfig Tavily 配置
type TavilyConfig struct {
	APIKey string `yaml:"api_key"`
}

// ScoringConfig 评分流水线配置
type ScoringConfig struct {
	// DDThreshold 快速评分达到该值才触发综合尽调，默认 60
	DDThreshold int `yaml:"dd_threshold"`
}

// LogConfig 日志相关配置
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ConcurrencyConfig 并发控制配置
type ConcurrencyConfig struct {
	QPS int `yaml:"qps"`
	RPM int `yaml:"rpm"`
}

// DBConfig 数据库相关配置
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// LoadConfig 从指定路径加载配置，空缺的密钥回退到环境变量
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.Normalize()
	return &cfg, nil
}

// Normalize 补齐环境变量密钥与缺省值，可对手工构造的配置重复调用
func (c *Config) Normalize() {
	c.applyEnv()
	c.applyDefaults()
}

// applyEnv 用环境变量补齐未在文件中给出的密钥
func (c *Config) applyEnv() {
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Search.Exa.APIKey == "" {
		c.Search.Exa.APIKey = os.Getenv("EXA_API_KEY")
	}
	if c.Search.Tavily.APIKey == "" {
		c.Search.Tavily.APIKey = os.Getenv("TAVILY_API_KEY")
	}
}

func (c *Config) applyDefaults() {
	if c.Scoring.DDThreshold == 0 {
		c.Scoring.DDThreshold = 60
	}
	if c.Concurrency.RPM == 0 {
		c.Concurrency.RPM = 60
	}
	if c.Concurrency.QPS == 0 {
		c.Concurrency.QPS = 1
	}
}

// Validate 校验必填的凭据，缺失视为致命的配置错误
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("configuration error: llm api_key is required (or set OPENAI_API_KEY)")
	}
	if c.Search.Provider == "exa" && c.Search.Exa.APIKey == "" {
		return fmt.Errorf("configuration error: exa api_key is required (or set EXA_API_KEY)")
	}
	if c.Search.Provider == "tavily" && c.Search.Tavily.APIKey == "" {
		return fmt.Errorf("configuration error: tavily api_key is required (or set TAVILY_API_KEY)")
	}
	return nil
}

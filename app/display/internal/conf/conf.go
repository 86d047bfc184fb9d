package conf

// Bootstrap 展示服务的启动配置
type Bootstrap struct {
	Server *Server
	Data   *Data
	Agent  *Agent
}

type Server struct {
	Http *HTTP
}

type HTTP struct {
	Addr    string
	Timeout string
}

type Data struct {
	Database *Database
}

type Database struct {
	Host     string `json:"host"`
	Port     int32  `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Agent 评估引擎配置，与 evaluator 侧的 config.yaml 字段对应
type Agent struct {
	Llm         *LLM         `json:"llm"`
	Search      *Search      `json:"search"`
	Scoring     *Scoring     `json:"scoring"`
	Concurrency *Concurrency `json:"concurrency"`
}

type LLM struct {
	BaseUrl string `json:"base_url"`
	ApiKey  string `json:"api_key"`
	Model   string `json:"model"`
}

type Search struct {
	Provider string  `json:"provider"`
	Exa      *Exa    `json:"exa"`
	Tavily   *Tavily `json:"tavily"`
}

type Exa struct {
	ApiKey string `json:"api_key"`
}

type Tavily struct {
	ApiKey string `json:"api_key"`
}

type Scoring struct {
	DdThreshold int32 `json:"dd_threshold"`
}

type Concurrency struct {
	Qps int32 `json:"qps"`
	Rpm int32 `json:"rpm"`
}

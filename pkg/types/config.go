package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "usecase-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// Provider identifies the Generative AI API.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// AIConfig holds shared settings for components that call a Generative AI API.
type AIConfig struct {
	// Provider selects the API: openai (default) or anthropic.
	Provider Provider `json:"provider" yaml:"provider" mapstructure:"provider"`

	// Model is the AI model identifier (e.g. "gpt-4-turbo").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// BaseURL overrides the API endpoint (proxies, compatible servers).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// MaxTokens bounds each completion (default 4096).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// AgentConfig holds settings shared by the three ReAct agents.
type AgentConfig struct {
	// MaxIterations bounds the reason/act loop (default 15).
	MaxIterations int `json:"max_iterations" yaml:"max_iterations" mapstructure:"max_iterations"`

	// ObservationTokens bounds each tool observation fed back to the model (default 1500).
	ObservationTokens int `json:"observation_tokens" yaml:"observation_tokens" mapstructure:"observation_tokens"`

	// HandoffTokens bounds the previous stage's output embedded in the next
	// stage's prompt (default 6000).
	HandoffTokens int `json:"handoff_tokens" yaml:"handoff_tokens" mapstructure:"handoff_tokens"`

	// EnablePageReader gives agents a tool that reads full web pages.
	EnablePageReader bool `json:"enable_page_reader" yaml:"enable_page_reader" mapstructure:"enable_page_reader"`
}

// SearchConfig holds settings for the web search backends.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// MaxResults is the maximum number of results per query (default 8).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// EnableDuckDuckGo controls whether the DuckDuckGo HTML backend is used.
	EnableDuckDuckGo bool `json:"enable_duckduckgo" yaml:"enable_duckduckgo" mapstructure:"enable_duckduckgo"`

	// SearxngURL enables the SearxNG backend when set.
	SearxngURL string `json:"searxng_url,omitempty" yaml:"searxng_url,omitempty" mapstructure:"searxng_url"`

	// GoogleAPIKey and GoogleEngineID enable the Google Custom Search backend.
	GoogleAPIKey   string `json:"google_api_key,omitempty" yaml:"google_api_key,omitempty" mapstructure:"google_api_key"`
	GoogleEngineID string `json:"google_engine_id,omitempty" yaml:"google_engine_id,omitempty" mapstructure:"google_engine_id"`

	// RedisAddr enables the search result cache when set.
	RedisAddr string `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty" mapstructure:"redis_addr"`

	// CacheTTL is how long cached results stay valid (default 24h).
	CacheTTL time.Duration `json:"cache_ttl" yaml:"cache_ttl" mapstructure:"cache_ttl"`
}

// ScrapeConfig holds settings for the page reader.
type ScrapeConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// MaxContentLength bounds the bytes read from a page (default 1 MB).
	MaxContentLength int64 `json:"max_content_length" yaml:"max_content_length" mapstructure:"max_content_length"`
}

// LinkCheckConfig holds settings for validating resource links.
type LinkCheckConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Enabled turns link checking on.
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// Concurrency bounds parallel checks (default 8).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`
}

// OutputConfig holds settings for writing proposal files.
type OutputConfig struct {
	// Dir is the directory proposal files are written to (default ".").
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`
}

// StoreConfig holds settings for the run history database.
type StoreConfig struct {
	// DataDir contains runs.db. Empty disables history.
	DataDir string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`

	// MaxResults is the default listing size (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// PublishConfig holds settings for uploading proposals to S3.
type PublishConfig struct {
	// Bucket enables publishing when set.
	Bucket string `json:"bucket,omitempty" yaml:"bucket,omitempty" mapstructure:"bucket"`

	// Prefix is prepended to object keys.
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty" mapstructure:"prefix"`

	// Region overrides the AWS region from the environment.
	Region string `json:"region,omitempty" yaml:"region,omitempty" mapstructure:"region"`
}

// ServerConfig holds settings for the HTTP API.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// RunTimeout bounds one pipeline run started over HTTP (default 15m).
	RunTimeout time.Duration `json:"run_timeout" yaml:"run_timeout" mapstructure:"run_timeout"`
}

// LogConfig selects the logger level and encoding.
type LogConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level"`
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// PipelineConfig groups all component configurations.
type PipelineConfig struct {
	AI        AIConfig        `json:"ai" yaml:"ai" mapstructure:"ai"`
	Agent     AgentConfig     `json:"agent" yaml:"agent" mapstructure:"agent"`
	Search    SearchConfig    `json:"search" yaml:"search" mapstructure:"search"`
	Scrape    ScrapeConfig    `json:"scrape" yaml:"scrape" mapstructure:"scrape"`
	LinkCheck LinkCheckConfig `json:"link_check" yaml:"link_check" mapstructure:"link_check"`
	Output    OutputConfig    `json:"output" yaml:"output" mapstructure:"output"`
	Store     StoreConfig     `json:"store" yaml:"store" mapstructure:"store"`
	Publish   PublishConfig   `json:"publish" yaml:"publish" mapstructure:"publish"`
	Server    ServerConfig    `json:"server" yaml:"server" mapstructure:"server"`
	Log       LogConfig       `json:"log" yaml:"log" mapstructure:"log"`
}

// DefaultPipelineConfig returns the configuration used when no file or flag
// overrides a value.
func DefaultPipelineConfig() PipelineConfig {
	httpCfg := HTTPConfig{Timeout: 30 * time.Second, UserAgent: "usecase-engine/0.1"}
	return PipelineConfig{
		AI: AIConfig{
			Provider:   ProviderOpenAI,
			Model:      "gpt-4-turbo",
			MaxTokens:  4096,
			MaxRetries: 3,
		},
		Agent: AgentConfig{
			MaxIterations:     15,
			ObservationTokens: 1500,
			HandoffTokens:     6000,
		},
		Search: SearchConfig{
			HTTPConfig:       httpCfg,
			MaxResults:       8,
			EnableDuckDuckGo: true,
			CacheTTL:         24 * time.Hour,
		},
		Scrape: ScrapeConfig{
			HTTPConfig:       httpCfg,
			MaxContentLength: 1_000_000,
		},
		LinkCheck: LinkCheckConfig{
			HTTPConfig:  HTTPConfig{Timeout: 10 * time.Second, UserAgent: httpCfg.UserAgent},
			Concurrency: 8,
		},
		Output: OutputConfig{Dir: "."},
		Store:  StoreConfig{DataDir: "data", MaxResults: 20},
		Server: ServerConfig{Addr: ":8080", RunTimeout: 15 * time.Minute},
		Log:    LogConfig{Level: "info", Format: "console"},
	}
}

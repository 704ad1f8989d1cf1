// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Server() ServerConfig
	Session() SessionConfig
	Browser() BrowserConfig
	Network() NetworkConfig
	Submit() SubmitConfig
	Oracle() OracleConfig
	Transcriber() TranscriberConfig
	Answer() AnswerConfig

	// Setters used by CLI flag overrides.
	SetServerSecret(string)
	SetSessionTimeBudget(time.Duration)
	SetBrowserHeadless(bool)
}

// Config holds the entire application configuration.
// Sections are exported for viper's mapstructure decoding and read through the Interface getters.
type Config struct {
	LoggerCfg      LoggerConfig      `mapstructure:"logger" yaml:"logger"`
	ServerCfg      ServerConfig      `mapstructure:"server" yaml:"server"`
	SessionCfg     SessionConfig     `mapstructure:"session" yaml:"session"`
	BrowserCfg     BrowserConfig     `mapstructure:"browser" yaml:"browser"`
	NetworkCfg     NetworkConfig     `mapstructure:"network" yaml:"network"`
	SubmitCfg      SubmitConfig      `mapstructure:"submit" yaml:"submit"`
	OracleCfg      OracleConfig      `mapstructure:"oracle" yaml:"oracle"`
	TranscriberCfg TranscriberConfig `mapstructure:"transcriber" yaml:"transcriber"`
	AnswerCfg      AnswerConfig      `mapstructure:"answer" yaml:"answer"`
}

var _ Interface = (*Config)(nil)

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig           { return c.LoggerCfg }
func (c *Config) Server() ServerConfig           { return c.ServerCfg }
func (c *Config) Session() SessionConfig         { return c.SessionCfg }
func (c *Config) Browser() BrowserConfig         { return c.BrowserCfg }
func (c *Config) Network() NetworkConfig         { return c.NetworkCfg }
func (c *Config) Submit() SubmitConfig           { return c.SubmitCfg }
func (c *Config) Oracle() OracleConfig           { return c.OracleCfg }
func (c *Config) Transcriber() TranscriberConfig { return c.TranscriberCfg }
func (c *Config) Answer() AnswerConfig           { return c.AnswerCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetServerSecret(s string)                { c.ServerCfg.Secret = s }
func (c *Config) SetSessionTimeBudget(d time.Duration)    { c.SessionCfg.TimeBudget = d }
func (c *Config) SetBrowserHeadless(b bool)               { c.BrowserCfg.Headless = b }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug string `mapstructure:"debug" yaml:"debug"`
	Info  string `mapstructure:"info" yaml:"info"`
	Warn  string `mapstructure:"warn" yaml:"warn"`
	Error string `mapstructure:"error" yaml:"error"`
	Fatal string `mapstructure:"fatal" yaml:"fatal"`
}

// ServerConfig configures the HTTP front end that accepts quiz requests.
type ServerConfig struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	Secret            string        `mapstructure:"secret" yaml:"-"`
	MaxSessions       int           `mapstructure:"max_sessions" yaml:"max_sessions"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	OutcomeBuffer     int           `mapstructure:"outcome_buffer" yaml:"outcome_buffer"`
}

// SessionConfig holds the time budget and the floors checked by the navigation loop.
type SessionConfig struct {
	TimeBudget     time.Duration `mapstructure:"time_budget" yaml:"time_budget"`
	StartFloor     time.Duration `mapstructure:"start_floor" yaml:"start_floor"`
	IterationFloor time.Duration `mapstructure:"iteration_floor" yaml:"iteration_floor"`
	SettleWait     time.Duration `mapstructure:"settle_wait" yaml:"settle_wait"`
}

// BrowserConfig holds settings for the headless browser and navigation timeouts.
type BrowserConfig struct {
	Headless           bool          `mapstructure:"headless" yaml:"headless"`
	DisableGPU         bool          `mapstructure:"disable_gpu" yaml:"disable_gpu"`
	ExecPath           string        `mapstructure:"exec_path" yaml:"exec_path"`
	Args               []string      `mapstructure:"args" yaml:"args"`
	UserAgent          string        `mapstructure:"user_agent" yaml:"user_agent"`
	IdleTimeout        time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	LoadTimeout        time.Duration `mapstructure:"load_timeout" yaml:"load_timeout"`
	ScrapeIdleTimeout  time.Duration `mapstructure:"scrape_idle_timeout" yaml:"scrape_idle_timeout"`
	ScrapeLoadTimeout  time.Duration `mapstructure:"scrape_load_timeout" yaml:"scrape_load_timeout"`
	ScrapeSettleWait   time.Duration `mapstructure:"scrape_settle_wait" yaml:"scrape_settle_wait"`
	NetworkQuietPeriod time.Duration `mapstructure:"network_quiet_period" yaml:"network_quiet_period"`
}

// NetworkConfig tunes the outbound HTTP client used for artifact downloads.
type NetworkConfig struct {
	DownloadTimeout  time.Duration `mapstructure:"download_timeout" yaml:"download_timeout"`
	AudioTimeout     time.Duration `mapstructure:"audio_timeout" yaml:"audio_timeout"`
	MaxDownloadBytes int64         `mapstructure:"max_download_bytes" yaml:"max_download_bytes"`
	IgnoreTLSErrors  bool          `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	UserAgent        string        `mapstructure:"user_agent" yaml:"user_agent"`
}

// SubmitConfig configures answer submission.
type SubmitConfig struct {
	Timeout         time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxPayloadBytes int           `mapstructure:"max_payload_bytes" yaml:"max_payload_bytes"`
	TruncateChars   int           `mapstructure:"truncate_chars" yaml:"truncate_chars"`
}

// LLMProvider defines the supported oracle providers.
type LLMProvider string

const (
	ProviderGemini LLMProvider = "gemini"
)

// OracleConfig configures the LLM used when the heuristics cannot classify a page.
type OracleConfig struct {
	Enabled     bool          `mapstructure:"enabled" yaml:"enabled"`
	Provider    LLMProvider   `mapstructure:"provider" yaml:"provider"`
	Model       string        `mapstructure:"model" yaml:"model"`
	APIKey      string        `mapstructure:"api_key" yaml:"-"`
	Endpoint    string        `mapstructure:"endpoint" yaml:"endpoint"`
	APITimeout  time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
	Temperature float32       `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	RateLimit   float64       `mapstructure:"rate_limit" yaml:"rate_limit"`
	MaxPrompt   int           `mapstructure:"max_prompt_chars" yaml:"max_prompt_chars"`

	// PowerfulModel serves requests for the powerful tier. Empty means Model.
	PowerfulModel string `mapstructure:"powerful_model" yaml:"powerful_model"`
	// Tier is the tier the oracle asks for: "fast" or "powerful".
	Tier          string `mapstructure:"tier" yaml:"tier"`
}

// TranscriberConfig configures speech-to-text for audio artifacts.
type TranscriberConfig struct {
	Enabled bool          `mapstructure:"enabled" yaml:"enabled"`
	APIKey  string        `mapstructure:"api_key" yaml:"-"`
	BaseURL string        `mapstructure:"base_url" yaml:"base_url"`
	Model   string        `mapstructure:"model" yaml:"model"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// AnswerConfig holds the knobs of the answer computer.
type AnswerConfig struct {
	// FallbackColumns are tried, in order, when the requested column cannot be resolved.
	FallbackColumns  []string `mapstructure:"fallback_columns" yaml:"fallback_columns"`
	TextSnippet      int      `mapstructure:"text_snippet" yaml:"text_snippet"`
	ErrorSnippet     int      `mapstructure:"error_snippet" yaml:"error_snippet"`
	PDFTextLimit     int      `mapstructure:"pdf_text_limit" yaml:"pdf_text_limit"`
	JSONTextLimit    int      `mapstructure:"json_text_limit" yaml:"json_text_limit"`
	ScrapeTextLimit  int      `mapstructure:"scrape_text_limit" yaml:"scrape_text_limit"`
	TablePreviewRows int      `mapstructure:"table_preview_rows" yaml:"table_preview_rows"`
	ChartWidth       int      `mapstructure:"chart_width" yaml:"chart_width"`
	ChartHeight      int      `mapstructure:"chart_height" yaml:"chart_height"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "quizwalk")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Server --
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.max_sessions", 0)
	v.SetDefault("server.read_header_timeout", "10s")
	v.SetDefault("server.shutdown_timeout", "20s")
	v.SetDefault("server.outcome_buffer", 64)

	// -- Session --
	v.SetDefault("session.time_budget", "170s")
	v.SetDefault("session.start_floor", "3s")
	v.SetDefault("session.iteration_floor", "6s")
	v.SetDefault("session.settle_wait", "300ms")

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.disable_gpu", true)
	v.SetDefault("browser.idle_timeout", "45s")
	v.SetDefault("browser.load_timeout", "75s")
	v.SetDefault("browser.scrape_idle_timeout", "30s")
	v.SetDefault("browser.scrape_load_timeout", "45s")
	v.SetDefault("browser.scrape_settle_wait", "200ms")
	v.SetDefault("browser.network_quiet_period", "500ms")

	// -- Network --
	v.SetDefault("network.download_timeout", "25s")
	v.SetDefault("network.audio_timeout", "30s")
	v.SetDefault("network.max_download_bytes", 50<<20)
	v.SetDefault("network.ignore_tls_errors", false)
	v.SetDefault("network.user_agent", "quizwalk/1.0")

	// -- Submit --
	v.SetDefault("submit.timeout", "25s")
	v.SetDefault("submit.max_payload_bytes", 900_000)
	v.SetDefault("submit.truncate_chars", 200_000)

	// -- Oracle --
	v.SetDefault("oracle.enabled", true)
	v.SetDefault("oracle.provider", string(ProviderGemini))
	v.SetDefault("oracle.model", "gemini-2.5-flash")
	v.SetDefault("oracle.powerful_model", "gemini-2.5-pro")
	v.SetDefault("oracle.tier", "fast")
	v.SetDefault("oracle.api_timeout", "15s")
	v.SetDefault("oracle.temperature", 0.0)
	v.SetDefault("oracle.max_tokens", 512)
	v.SetDefault("oracle.rate_limit", 2.0)
	v.SetDefault("oracle.max_prompt_chars", 12000)

	// -- Transcriber --
	v.SetDefault("transcriber.enabled", true)
	v.SetDefault("transcriber.model", "whisper-1")
	v.SetDefault("transcriber.timeout", "60s")

	// -- Answer --
	v.SetDefault("answer.fallback_columns", []string{"tickets_booked", "tickets_sold", "tickets"})
	v.SetDefault("answer.text_snippet", 800)
	v.SetDefault("answer.error_snippet", 600)
	v.SetDefault("answer.pdf_text_limit", 2000)
	v.SetDefault("answer.json_text_limit", 1000)
	v.SetDefault("answer.scrape_text_limit", 300)
	v.SetDefault("answer.table_preview_rows", 10)
	v.SetDefault("answer.chart_width", 600)
	v.SetDefault("answer.chart_height", 300)
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Secrets come from the environment, never from the config file.
	_ = v.BindEnv("server.secret", "QUIZWALK_SECRET")
	_ = v.BindEnv("oracle.api_key", "GEMINI_API_KEY")
	_ = v.BindEnv("transcriber.api_key", "OPENAI_API_KEY")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Unmarshal skips keys that only exist as bound env vars with no default.
	if cfg.ServerCfg.Secret == "" {
		cfg.ServerCfg.Secret = os.Getenv("QUIZWALK_SECRET")
	}
	if cfg.OracleCfg.APIKey == "" {
		cfg.OracleCfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.TranscriberCfg.APIKey == "" {
		cfg.TranscriberCfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.SessionCfg.Validate(); err != nil {
		return fmt.Errorf("session configuration invalid: %w", err)
	}
	if c.BrowserCfg.IdleTimeout <= 0 || c.BrowserCfg.LoadTimeout <= 0 {
		return fmt.Errorf("browser.idle_timeout and browser.load_timeout must be positive durations")
	}
	if c.SubmitCfg.Timeout <= 0 {
		return fmt.Errorf("submit.timeout must be a positive duration")
	}
	if c.SubmitCfg.MaxPayloadBytes <= 0 || c.SubmitCfg.TruncateChars <= 0 {
		return fmt.Errorf("submit.max_payload_bytes and submit.truncate_chars must be positive")
	}
	if c.ServerCfg.MaxSessions < 0 {
		return fmt.Errorf("server.max_sessions must not be negative")
	}
	if c.NetworkCfg.MaxDownloadBytes <= 0 {
		return fmt.Errorf("network.max_download_bytes must be positive")
	}
	if err := c.OracleCfg.Validate(); err != nil {
		return fmt.Errorf("oracle configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the session timing settings.
func (s *SessionConfig) Validate() error {
	if s.TimeBudget <= 0 {
		return fmt.Errorf("time_budget must be a positive duration")
	}
	if s.StartFloor < 0 || s.IterationFloor < 0 {
		return fmt.Errorf("start_floor and iteration_floor must not be negative")
	}
	return nil
}

// Validate checks the oracle settings. A disabled oracle is always valid.
func (o *OracleConfig) Validate() error {
	if !o.Enabled {
		return nil
	}
	if o.Provider != ProviderGemini {
		return fmt.Errorf("unsupported provider '%s'. Supported: [%s]", o.Provider, ProviderGemini)
	}
	if o.RateLimit <= 0 {
		return fmt.Errorf("rate_limit must be positive")
	}
	switch o.Tier {
	case "", "fast", "powerful":
	default:
		return fmt.Errorf("tier must be 'fast' or 'powerful', got '%s'", o.Tier)
	}
	return nil
}

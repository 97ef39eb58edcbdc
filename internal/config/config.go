// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
	"github.com/xkilldash9x/formpilot-cli/api/schemas"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Browser() BrowserConfig
	LLM() LLMConfig
	Filler() FillerConfig
	Analyzer() AnalyzerConfig
	Orchestrator() OrchestratorConfig
	Control() ControlConfig
	Credentials() CredentialsConfig
	Preferences() schemas.Preferences

	// Setters used by CLI flag overrides.
	SetPreferences(schemas.Preferences)
	SetBrowserHeadless(bool)
	SetBrowserRemoteURL(string)
	SetFillerMaxRetries(int)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg       LoggerConfig        `mapstructure:"logger" yaml:"logger"`
	BrowserCfg      BrowserConfig       `mapstructure:"browser" yaml:"browser"`
	LLMCfg          LLMConfig           `mapstructure:"llm" yaml:"llm"`
	FillerCfg       FillerConfig        `mapstructure:"filler" yaml:"filler"`
	AnalyzerCfg     AnalyzerConfig      `mapstructure:"analyzer" yaml:"analyzer"`
	OrchestratorCfg OrchestratorConfig  `mapstructure:"orchestrator" yaml:"orchestrator"`
	ControlCfg      ControlConfig       `mapstructure:"control" yaml:"control"`
	CredentialsCfg  CredentialsConfig   `mapstructure:"credentials" yaml:"credentials"`
	PreferencesCfg  schemas.Preferences `mapstructure:"preferences" yaml:"preferences"`
}

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig               { return c.LoggerCfg }
func (c *Config) Browser() BrowserConfig             { return c.BrowserCfg }
func (c *Config) LLM() LLMConfig                     { return c.LLMCfg }
func (c *Config) Filler() FillerConfig               { return c.FillerCfg }
func (c *Config) Analyzer() AnalyzerConfig           { return c.AnalyzerCfg }
func (c *Config) Orchestrator() OrchestratorConfig   { return c.OrchestratorCfg }
func (c *Config) Control() ControlConfig             { return c.ControlCfg }
func (c *Config) Credentials() CredentialsConfig     { return c.CredentialsCfg }
func (c *Config) Preferences() schemas.Preferences   { return c.PreferencesCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetPreferences(p schemas.Preferences) { c.PreferencesCfg = p.Normalize() }
func (c *Config) SetBrowserHeadless(b bool)            { c.BrowserCfg.Headless = b }
func (c *Config) SetBrowserRemoteURL(u string)         { c.BrowserCfg.RemoteURL = u }
func (c *Config) SetFillerMaxRetries(n int)            { c.FillerCfg.MaxRetries = n }

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
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig controls how the Chromium instance is launched or attached to.
type BrowserConfig struct {
	Headless bool `mapstructure:"headless" yaml:"headless"`
	// RemoteURL attaches to an already running browser (ws://...) instead of launching one.
	RemoteURL         string         `mapstructure:"remote_url" yaml:"remote_url"`
	Args              []string       `mapstructure:"args" yaml:"args"`
	NavigationTimeout time.Duration  `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	PostLoadWait      time.Duration  `mapstructure:"post_load_wait" yaml:"post_load_wait"`
	Humanoid          HumanoidConfig `mapstructure:"humanoid" yaml:"humanoid"`
}

// LLMConfig configures the remote answer service.
type LLMConfig struct {
	Model                     string            `mapstructure:"model" yaml:"model"`
	Endpoint                  string            `mapstructure:"endpoint" yaml:"endpoint"`
	APITimeout                time.Duration     `mapstructure:"api_timeout" yaml:"api_timeout"`
	TopP                      float32           `mapstructure:"top_p" yaml:"top_p"`
	TopK                      int               `mapstructure:"top_k" yaml:"top_k"`
	MaxTokens                 int               `mapstructure:"max_tokens" yaml:"max_tokens"`
	ClassificationTemperature float32           `mapstructure:"classification_temperature" yaml:"classification_temperature"`
	FreeTextTemperature       float32           `mapstructure:"free_text_temperature" yaml:"free_text_temperature"`
	SafetyFilters             map[string]string `mapstructure:"safety_filters" yaml:"safety_filters"`
	RequestsPerMinute         int               `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
	MaxAttempts               int               `mapstructure:"max_attempts" yaml:"max_attempts"`
	RotationDelay             time.Duration     `mapstructure:"rotation_delay" yaml:"rotation_delay"`
}

// FillerConfig tunes the retry and settle behaviour of the field filler.
type FillerConfig struct {
	MaxRetries        int           `mapstructure:"max_retries" yaml:"max_retries"`
	SettleDelay       time.Duration `mapstructure:"settle_delay" yaml:"settle_delay"`
	RetryDelay        time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
	QuestionDelay     time.Duration `mapstructure:"question_delay" yaml:"question_delay"`
	DropdownOpenDelay time.Duration `mapstructure:"dropdown_open_delay" yaml:"dropdown_open_delay"`
}

// AnalyzerConfig tunes the form analyzer. Selector lists, when set, replace
// the built-in waterfall for that step.
type AnalyzerConfig struct {
	MinLabelLength int               `mapstructure:"min_label_length" yaml:"min_label_length"`
	Selectors      SelectorOverrides `mapstructure:"selectors" yaml:"selectors"`
}

// SelectorOverrides are XPath lists keyed by analysis step.
type SelectorOverrides struct {
	Title       []string `mapstructure:"title" yaml:"title"`
	Description []string `mapstructure:"description" yaml:"description"`
	Containers  []string `mapstructure:"containers" yaml:"containers"`
	Fallback    []string `mapstructure:"fallback" yaml:"fallback"`
	Label       []string `mapstructure:"label" yaml:"label"`
	Required    []string `mapstructure:"required" yaml:"required"`
	Options     []string `mapstructure:"options" yaml:"options"`
}

// OrchestratorConfig configures the run loop.
type OrchestratorConfig struct {
	ReanalyzeDebounce time.Duration `mapstructure:"reanalyze_debounce" yaml:"reanalyze_debounce"`
}

// ControlConfig configures the local HTTP control API.
type ControlConfig struct {
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr"`
}

// CredentialsConfig locates the persisted key store.
type CredentialsConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
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
	v.SetDefault("logger.service_name", "formpilot")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 20)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")

	// -- Browser --
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.remote_url", "")
	v.SetDefault("browser.navigation_timeout", "60s")
	v.SetDefault("browser.post_load_wait", "1500ms")
	v.SetDefault("browser.humanoid.enabled", true)
	v.SetDefault("browser.humanoid.click_hold_min_ms", 50)
	v.SetDefault("browser.humanoid.click_hold_max_ms", 120)
	v.SetDefault("browser.humanoid.key_hold_mean_ms", 45.0)

	// -- LLM --
	v.SetDefault("llm.model", "gemini-2.0-flash")
	v.SetDefault("llm.endpoint", "")
	v.SetDefault("llm.api_timeout", "10s")
	v.SetDefault("llm.top_p", 0.95)
	v.SetDefault("llm.top_k", 40)
	v.SetDefault("llm.max_tokens", 1000)
	v.SetDefault("llm.classification_temperature", 0.2)
	v.SetDefault("llm.free_text_temperature", 0.7)
	v.SetDefault("llm.safety_filters", map[string]string{
		"HARM_CATEGORY_HARASSMENT":  "BLOCK_MEDIUM_AND_ABOVE",
		"HARM_CATEGORY_HATE_SPEECH": "BLOCK_MEDIUM_AND_ABOVE",
	})
	v.SetDefault("llm.requests_per_minute", 15)
	v.SetDefault("llm.max_attempts", 3)
	v.SetDefault("llm.rotation_delay", "1s")

	// -- Filler --
	v.SetDefault("filler.max_retries", 3)
	v.SetDefault("filler.settle_delay", "300ms")
	v.SetDefault("filler.retry_delay", "500ms")
	v.SetDefault("filler.question_delay", "500ms")
	v.SetDefault("filler.dropdown_open_delay", "500ms")

	// -- Analyzer --
	v.SetDefault("analyzer.min_label_length", 5)

	// -- Orchestrator --
	v.SetDefault("orchestrator.reanalyze_debounce", "1s")

	// -- Control API --
	v.SetDefault("control.listen_addr", "127.0.0.1:8765")

	// -- Credentials --
	v.SetDefault("credentials.path", "~/.formpilot/credentials.json")

	// -- Preferences --
	def := schemas.DefaultPreferences()
	v.SetDefault("preferences.style", string(def.Style))
	v.SetDefault("preferences.locale", string(def.Locale))
	v.SetDefault("preferences.speed", string(def.Speed))
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.PreferencesCfg = cfg.PreferencesCfg.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.FillerCfg.MaxRetries <= 0 {
		return fmt.Errorf("filler.max_retries must be a positive integer")
	}
	if c.FillerCfg.SettleDelay < 0 || c.FillerCfg.RetryDelay < 0 || c.FillerCfg.QuestionDelay < 0 {
		return fmt.Errorf("filler delays must not be negative")
	}
	if c.AnalyzerCfg.MinLabelLength < 0 {
		return fmt.Errorf("analyzer.min_label_length must not be negative")
	}
	if err := c.LLMCfg.Validate(); err != nil {
		return fmt.Errorf("llm configuration invalid: %w", err)
	}
	if c.OrchestratorCfg.ReanalyzeDebounce < 0 {
		return fmt.Errorf("orchestrator.reanalyze_debounce must not be negative")
	}
	return nil
}

// Validate checks the LLM configuration.
func (l *LLMConfig) Validate() error {
	if l.Model == "" {
		return fmt.Errorf("model is required")
	}
	if l.APITimeout <= 0 {
		return fmt.Errorf("api_timeout must be a positive duration")
	}
	if l.MaxAttempts <= 0 {
		return fmt.Errorf("max_attempts must be greater than 0")
	}
	if l.ClassificationTemperature < 0 || l.FreeTextTemperature < 0 {
		return fmt.Errorf("temperatures must not be negative")
	}
	if l.RequestsPerMinute < 0 {
		return fmt.Errorf("requests_per_minute must not be negative")
	}
	return nil
}

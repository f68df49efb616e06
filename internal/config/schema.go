package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackzampolin/timetable/internal/timetable"
)

// ErrInvalidConfig is returned when a loaded configuration cannot be used.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds timetable configuration.
// Stored at: {home}/config.yaml
type Config struct {
	LLMProviders map[string]LLMProviderCfg `mapstructure:"llm_providers" yaml:"llm_providers"`
	Defaults     DefaultsCfg               `mapstructure:"defaults" yaml:"defaults"`
	Import       ImportCfg                 `mapstructure:"import" yaml:"import"`
	Parser       ParserCfg                 `mapstructure:"parser" yaml:"parser"`
	Server       ServerCfg                 `mapstructure:"server" yaml:"server"`
	Logging      LoggingCfg                `mapstructure:"logging" yaml:"logging"`
	// Prompts overrides embedded prompt text by key. Keys contain dots, so they are
	// read by flattenPrompts rather than decoded by viper.
	Prompts map[string]string `mapstructure:"-" yaml:"prompts,omitempty"`
}

// LLMProviderCfg configures an LLM provider.
type LLMProviderCfg struct {
	Type      string  `mapstructure:"type" yaml:"type"`                   // "openrouter", "openai"
	Model     string  `mapstructure:"model" yaml:"model"`                 // Model name
	APIKey    string  `mapstructure:"api_key" yaml:"api_key"`             // API key (supports ${ENV_VAR} syntax)
	BaseURL   string  `mapstructure:"base_url" yaml:"base_url,omitempty"` // Optional endpoint override
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"`       // Requests per minute
	Enabled   bool    `mapstructure:"enabled" yaml:"enabled"`
}

// DefaultsCfg specifies default provider selections.
type DefaultsCfg struct {
	LLMProvider string `mapstructure:"llm_provider" yaml:"llm_provider"` // Provider used for remote parsing
}

// ImportCfg controls the import flow around the parser.
type ImportCfg struct {
	// RemoteEnabled turns on model-assisted parsing ahead of the local parser.
	RemoteEnabled bool `mapstructure:"remote_enabled" yaml:"remote_enabled"`
	// RemoteTimeout bounds a single remote parse attempt.
	RemoteTimeout time.Duration `mapstructure:"remote_timeout" yaml:"remote_timeout"`
	// MaxUploadBytes caps uploaded documents.
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes"`
}

// ParserCfg tunes the local parser.
type ParserCfg struct {
	Redistribution timetable.Redistribution `mapstructure:"redistribution" yaml:"redistribution"`
}

// ServerCfg is the HTTP listen address.
type ServerCfg struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port string `mapstructure:"port" yaml:"port"`
}

// LoggingCfg selects the slog handler.
type LoggingCfg struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // text or json
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LLMProviders: map[string]LLMProviderCfg{
			"openrouter": {
				Type:      "openrouter",
				Model:     "anthropic/claude-sonnet-4",
				APIKey:    "${OPENROUTER_API_KEY}",
				RateLimit: 60,
				Enabled:   true,
			},
			"openai": {
				Type:      "openai",
				Model:     "gpt-4.1-mini",
				APIKey:    "${OPENAI_API_KEY}",
				RateLimit: 60,
				Enabled:   false,
			},
		},
		Defaults: DefaultsCfg{
			LLMProvider: "openrouter",
		},
		Import: ImportCfg{
			RemoteEnabled:  false,
			RemoteTimeout:  90 * time.Second,
			MaxUploadBytes: 10 << 20,
		},
		Parser: ParserCfg{
			Redistribution: timetable.DefaultRedistribution(),
		},
		Server: ServerCfg{
			Host: "127.0.0.1",
			Port: "8080",
		},
		Logging: LoggingCfg{
			Level:  "info",
			Format: "text",
		},
		Prompts: map[string]string{},
	}
}

// Validate checks the fields that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	if c.Import.RemoteTimeout < 0 {
		return fmt.Errorf("%w: import.remote_timeout must not be negative", ErrInvalidConfig)
	}
	if c.Import.MaxUploadBytes < 0 {
		return fmt.Errorf("%w: import.max_upload_bytes must not be negative", ErrInvalidConfig)
	}
	if c.Parser.Redistribution.MinTextLength < 0 || c.Parser.Redistribution.MinCharsPerClass < 0 {
		return fmt.Errorf("%w: parser.redistribution thresholds must not be negative", ErrInvalidConfig)
	}
	if c.Server.Port != "" {
		if p, err := strconv.Atoi(c.Server.Port); err != nil || p < 0 || p > 65535 {
			return fmt.Errorf("%w: server.port %q is not a port number", ErrInvalidConfig, c.Server.Port)
		}
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: logging.format must be text or json, got %q", ErrInvalidConfig, c.Logging.Format)
	}
	if c.Import.RemoteEnabled && c.Defaults.LLMProvider != "" {
		if _, ok := c.LLMProviders[c.Defaults.LLMProvider]; !ok {
			return fmt.Errorf("%w: defaults.llm_provider %q is not configured", ErrInvalidConfig, c.Defaults.LLMProvider)
		}
	}
	return nil
}

// GetLLMProvider returns an LLM provider config by name.
func (c *Config) GetLLMProvider(name string) (LLMProviderCfg, bool) {
	cfg, ok := c.LLMProviders[name]
	return cfg, ok
}

// EnabledLLMProviders returns all enabled LLM providers.
func (c *Config) EnabledLLMProviders() map[string]LLMProviderCfg {
	result := make(map[string]LLMProviderCfg)
	for name, cfg := range c.LLMProviders {
		if cfg.Enabled {
			result[name] = cfg
		}
	}
	return result
}

// ListenAddr returns host:port for the HTTP server.
func (c *Config) ListenAddr() string {
	return c.Server.Host + ":" + c.Server.Port
}

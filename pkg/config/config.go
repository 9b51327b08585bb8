package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variable names read by the CLI.
const (
	EnvAPIKey  = "API_KEY"
	EnvBaseURL = "API_BASE_URL"
	EnvModel   = "API_MODEL"
)

const (
	DefaultMessagesFile   = "messages.txt"
	DefaultSystemPrompt   = "You are a helpful assistant."
	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxAttempts    = 3
	DefaultBaseBackoff    = 5 * time.Second
	DefaultRequestDelay   = 5 * time.Second
	DefaultCycleDelay     = 10 * time.Second

	// MaxAttemptsLimit caps MaxAttempts; the last backoff is BaseBackoff*2^(limit-1).
	MaxAttemptsLimit = 10
)

var (
	ErrMissingAPIKey  = errors.New(EnvAPIKey + " is not set")
	ErrMissingBaseURL = errors.New(EnvBaseURL + " is not set")
)

// Config holds all runtime configuration for the bot.
type Config struct {
	MessagesFile string
	Verbose      bool
	LogFormat    string

	APIKey       string
	BaseURL      string
	Model        string
	SystemPrompt string

	RequestTimeout time.Duration
	MaxAttempts    int
	BaseBackoff    time.Duration
	RequestDelay   time.Duration
	CycleDelay     time.Duration
}

// DefaultConfig returns a baseline configuration without side effects.
func DefaultConfig() Config {
	return Config{
		MessagesFile:   DefaultMessagesFile,
		LogFormat:      "text",
		SystemPrompt:   DefaultSystemPrompt,
		RequestTimeout: DefaultRequestTimeout,
		MaxAttempts:    DefaultMaxAttempts,
		BaseBackoff:    DefaultBaseBackoff,
		RequestDelay:   DefaultRequestDelay,
		CycleDelay:     DefaultCycleDelay,
	}
}

// Normalize sanitizes configuration values and applies defaults.
func Normalize(cfg Config) Config {
	cfg.MessagesFile = strings.TrimSpace(cfg.MessagesFile)
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Model = strings.TrimSpace(cfg.Model)
	cfg.SystemPrompt = strings.TrimSpace(cfg.SystemPrompt)

	if cfg.MessagesFile == "" {
		cfg.MessagesFile = DefaultMessagesFile
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.MaxAttempts > MaxAttemptsLimit {
		cfg.MaxAttempts = MaxAttemptsLimit
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = DefaultBaseBackoff
	}
	if cfg.RequestDelay < 0 {
		cfg.RequestDelay = DefaultRequestDelay
	}
	if cfg.CycleDelay < 0 {
		cfg.CycleDelay = DefaultCycleDelay
	}
	return cfg
}

// Validate reports missing credentials and malformed endpoints.
func Validate(cfg Config) error {
	if cfg.APIKey == "" {
		return ErrMissingAPIKey
	}
	if cfg.BaseURL == "" {
		return ErrMissingBaseURL
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("parse %s: %w", EnvBaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) URL, got %q", EnvBaseURL, cfg.BaseURL)
	}
	return nil
}

// fileConfig mirrors the optional YAML config file. Unset keys leave the
// existing value untouched.
type fileConfig struct {
	MessagesFile   *string `yaml:"messages_file"`
	Verbose        *bool   `yaml:"verbose"`
	LogFormat      *string `yaml:"log_format"`
	BaseURL        *string `yaml:"api_base_url"`
	Model          *string `yaml:"model"`
	SystemPrompt   *string `yaml:"system_prompt"`
	RequestTimeout *string `yaml:"request_timeout"`
	MaxAttempts    *int    `yaml:"max_attempts"`
	BaseBackoff    *string `yaml:"base_backoff"`
	RequestDelay   *string `yaml:"request_delay"`
	CycleDelay     *string `yaml:"cycle_delay"`
}

// LoadFile overlays the YAML document at path onto cfg. The API key is never
// read from the file.
func LoadFile(path string, cfg Config) (Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	var fc fileConfig
	if err := yaml.Unmarshal(content, &fc); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	setString(&cfg.MessagesFile, fc.MessagesFile)
	setString(&cfg.LogFormat, fc.LogFormat)
	setString(&cfg.BaseURL, fc.BaseURL)
	setString(&cfg.Model, fc.Model)
	setString(&cfg.SystemPrompt, fc.SystemPrompt)
	if fc.Verbose != nil {
		cfg.Verbose = *fc.Verbose
	}
	if fc.MaxAttempts != nil {
		cfg.MaxAttempts = *fc.MaxAttempts
	}

	durations := []struct {
		key string
		src *string
		dst *time.Duration
	}{
		{"request_timeout", fc.RequestTimeout, &cfg.RequestTimeout},
		{"base_backoff", fc.BaseBackoff, &cfg.BaseBackoff},
		{"request_delay", fc.RequestDelay, &cfg.RequestDelay},
		{"cycle_delay", fc.CycleDelay, &cfg.CycleDelay},
	}
	for _, d := range durations {
		if d.src == nil {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(*d.src))
		if err != nil {
			return cfg, fmt.Errorf("parse %s: %s: %w", path, d.key, err)
		}
		*d.dst = v
	}
	return cfg, nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

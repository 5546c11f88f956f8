// Package config loads and validates orchestrator configuration from a YAML
// file with environment variable overrides, and manages the encrypted
// secrets file used for provider API keys.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Generative provider identifiers accepted in config.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGoogle    = "google"
	ProviderOllama    = "ollama"
	ProviderMock      = "mock"
)

// Config is the root configuration for an analysis run.
type Config struct {
	Generative  GenerativeConfig  `yaml:"generative"`
	Timeouts    TimeoutConfig     `yaml:"timeouts"`
	Retry       RetryConfig       `yaml:"retry"`
	Limiter     LimiterConfig     `yaml:"limiter"`
	Storage     StorageConfig     `yaml:"storage"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	EventLogDir string            `yaml:"event_log_dir"`
}

// GenerativeConfig selects and tunes the narrative model provider.
type GenerativeConfig struct {
	Provider       string  `yaml:"provider"`
	Model          string  `yaml:"model"`
	MaxTokens      int     `yaml:"max_tokens"`
	Temperature    float64 `yaml:"temperature"`
	PromptBudget   int     `yaml:"prompt_budget"`    // max prompt tokens before truncation
	OllamaHost     string  `yaml:"ollama_host"`      // only for provider: ollama
	APIKeyEnvVar   string  `yaml:"api_key_env_var"`  // overrides the provider default
}

// TimeoutConfig holds per-agent timeouts and the request deadline.
type TimeoutConfig struct {
	Valuation   time.Duration `yaml:"valuation"`
	MarketIntel time.Duration `yaml:"market_intelligence"`
	Risk        time.Duration `yaml:"risk"`
	Narrative   time.Duration `yaml:"narrative"` // per attempt
	Request     time.Duration `yaml:"request"`
}

// RetryConfig tunes the narrative retry policy.
type RetryConfig struct {
	MaxAttempts   int           `yaml:"max_attempts"`
	InitialDelay  time.Duration `yaml:"initial_delay"`
	MaxDelay      time.Duration `yaml:"max_delay"`
	BackoffFactor float64       `yaml:"backoff_factor"`
	Jitter        bool          `yaml:"jitter"`
}

// LimiterConfig tunes the generative-call rate limiter.
type LimiterConfig struct {
	TokensPerMinute int `yaml:"tokens_per_minute"`
	MaxConcurrent   int `yaml:"max_concurrent"`
}

// StorageConfig locates the SQLite stores and the document corpus.
type StorageConfig struct {
	DocStorePath    string `yaml:"docstore_path"`
	ReportStorePath string `yaml:"reportstore_path"`
	CorpusDir       string `yaml:"corpus_dir"`
}

// MetricsConfig controls the Prometheus endpoint and query service.
type MetricsConfig struct {
	Addr          string `yaml:"addr"`           // e.g. ":9090"; empty disables the endpoint
	PrometheusURL string `yaml:"prometheus_url"` // remote server for the query service
}

// DefaultConfig returns the configuration used when no file is provided.
func DefaultConfig() *Config {
	return &Config{
		Generative: GenerativeConfig{
			Provider:     ProviderOpenAI,
			Model:        "gpt-4o-mini",
			MaxTokens:    1500,
			Temperature:  0.3,
			PromptBudget: 6000,
			OllamaHost:   "http://localhost:11434",
		},
		Timeouts: TimeoutConfig{
			Valuation:   5 * time.Second,
			MarketIntel: 10 * time.Second,
			Risk:        10 * time.Second,
			Narrative:   30 * time.Second,
			Request:     90 * time.Second,
		},
		Retry: RetryConfig{
			MaxAttempts:   3,
			InitialDelay:  500 * time.Millisecond,
			MaxDelay:      10 * time.Second,
			BackoffFactor: 2.0,
			Jitter:        true,
		},
		Limiter: LimiterConfig{
			TokensPerMinute: 50000,
			MaxConcurrent:   4,
		},
		Storage: StorageConfig{
			DocStorePath:    "data/docs.db",
			ReportStorePath: "data/reports.db",
			CorpusDir:       "corpus",
		},
		EventLogDir: "logs",
	}
}

// Load reads the YAML config at path, applies environment overrides, and
// validates the result. An empty path yields the defaults plus overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("REIA_PROVIDER"); v != "" {
		cfg.Generative.Provider = v
	}
	if v := os.Getenv("REIA_MODEL"); v != "" {
		cfg.Generative.Model = v
	}
	if v := os.Getenv("REIA_OLLAMA_HOST"); v != "" {
		cfg.Generative.OllamaHost = v
	}
	if v := os.Getenv("REIA_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	if v := os.Getenv("REIA_PROMETHEUS_URL"); v != "" {
		cfg.Metrics.PrometheusURL = v
	}
	if v := os.Getenv("REIA_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Generative.MaxTokens = n
		}
	}
}

func (c *Config) Validate() error {
	switch c.Generative.Provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderGoogle, ProviderOllama, ProviderMock:
	default:
		return fmt.Errorf("unknown generative provider: %s", c.Generative.Provider)
	}
	if c.Generative.Model == "" {
		return fmt.Errorf("generative model is required")
	}
	if c.Generative.MaxTokens <= 0 {
		return fmt.Errorf("generative max_tokens must be positive")
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry max_attempts must be at least 1")
	}
	if c.Retry.BackoffFactor < 1.0 {
		return fmt.Errorf("retry backoff_factor must be >= 1.0")
	}
	for name, d := range map[string]time.Duration{
		"valuation":           c.Timeouts.Valuation,
		"market_intelligence": c.Timeouts.MarketIntel,
		"risk":                c.Timeouts.Risk,
		"narrative":           c.Timeouts.Narrative,
		"request":             c.Timeouts.Request,
	} {
		if d <= 0 {
			return fmt.Errorf("timeout %s must be positive", name)
		}
	}
	if c.Limiter.TokensPerMinute <= 0 {
		return fmt.Errorf("limiter tokens_per_minute must be positive")
	}
	if c.Limiter.MaxConcurrent <= 0 {
		return fmt.Errorf("limiter max_concurrent must be positive")
	}
	return nil
}

// APIKeyName returns the secret name used for the configured provider.
func (c *Config) APIKeyName() string {
	if c.Generative.APIKeyEnvVar != "" {
		return c.Generative.APIKeyEnvVar
	}
	switch c.Generative.Provider {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderGoogle:
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}

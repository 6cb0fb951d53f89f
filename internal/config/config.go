package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// LLM providers.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
	ProviderMock      = "mock"
)

var defaultModels = map[string]string{
	ProviderAnthropic: "claude-3-5-haiku-latest",
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderOllama:    "llama3.1",
	ProviderMock:      "mock",
}

type Config struct {
	Port         string     `env:"PORT" envDefault:"8080"`
	Environment  string     `env:"ENVIRONMENT" envDefault:"development"`
	LogLevelName string     `env:"LOG_LEVEL" envDefault:"info"`
	LogLevel     slog.Level

	RedisURL string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	GameTTL  time.Duration `env:"GAME_TTL" envDefault:"24h"`

	LLMProvider     string `env:"LLM_PROVIDER" envDefault:"mock"`
	ModelName       string `env:"MODEL_NAME"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	OllamaURL       string `env:"OLLAMA_URL" envDefault:"http://localhost:11434"`

	CatalogPath    string        `env:"CATALOG_PATH"`
	IncomeInterval time.Duration `env:"INCOME_INTERVAL" envDefault:"2s"`
	WorkerID       string        `env:"WORKER_ID"`

	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`
	APIBaseURL  string   `env:"API_BASE_URL" envDefault:"http://localhost:8080"`
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.LogLevel = parseLogLevel(cfg.LogLevelName)
	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(cfg.LLMProvider))
	if cfg.ModelName == "" {
		cfg.ModelName = defaultModels[cfg.LLMProvider]
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that env parsing cannot.
func (c *Config) Validate() error {
	var errs []error

	switch c.LLMProvider {
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			errs = append(errs, errors.New("ANTHROPIC_API_KEY is required for the anthropic provider"))
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for the openai provider"))
		}
	case ProviderOllama:
		if c.OllamaURL == "" {
			errs = append(errs, errors.New("OLLAMA_URL is required for the ollama provider"))
		}
	case ProviderMock:
	default:
		errs = append(errs, fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider))
	}

	if c.IncomeInterval <= 0 {
		errs = append(errs, fmt.Errorf("INCOME_INTERVAL must be positive, got %s", c.IncomeInterval))
	}
	if c.GameTTL <= 0 {
		errs = append(errs, fmt.Errorf("GAME_TTL must be positive, got %s", c.GameTTL))
	}

	return errors.Join(errs...)
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

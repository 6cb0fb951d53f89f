package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, ProviderMock, cfg.LLMProvider)
	assert.Equal(t, "mock", cfg.ModelName)
	assert.Equal(t, 2*time.Second, cfg.IncomeInterval)
	assert.Equal(t, 24*time.Hour, cfg.GameTTL)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("LOG_LEVEL", "WARN")
	t.Setenv("LLM_PROVIDER", "Anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("INCOME_INTERVAL", "500ms")
	t.Setenv("CORS_ORIGINS", "http://a.test,http://b.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
	assert.Equal(t, ProviderAnthropic, cfg.LLMProvider)
	assert.Equal(t, defaultModels[ProviderAnthropic], cfg.ModelName)
	assert.Equal(t, 500*time.Millisecond, cfg.IncomeInterval)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown provider", env: map[string]string{"LLM_PROVIDER": "parrot"}},
		{name: "anthropic without key", env: map[string]string{"LLM_PROVIDER": "anthropic"}},
		{name: "openai without key", env: map[string]string{"LLM_PROVIDER": "openai"}},
		{name: "zero interval", env: map[string]string{"INCOME_INTERVAL": "0s"}},
		{name: "bad duration", env: map[string]string{"GAME_TTL": "forever"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLogLevel("ERROR"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("nonsense"))
}

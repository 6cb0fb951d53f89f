package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jwebster45206/route-tycoon/internal/config"
	"github.com/jwebster45206/route-tycoon/pkg/chat"
)

// LLMService defines the interface for interacting with the LLM API
type LLMService interface {
	// InitModel prepares the model on startup
	InitModel(ctx context.Context, modelName string) error

	// Chat sends a conversation and returns the model's reply
	Chat(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error)

	// ModelName is the model requests are sent to
	ModelName() string
}

// NewLLMService builds the provider selected in the config.
func NewLLMService(cfg *config.Config, logger *slog.Logger) (LLMService, error) {
	switch cfg.LLMProvider {
	case config.ProviderAnthropic:
		return NewAnthropicService(cfg.AnthropicAPIKey, cfg.ModelName, logger), nil
	case config.ProviderOpenAI:
		return NewOpenAIService(cfg.OpenAIAPIKey, cfg.ModelName, logger), nil
	case config.ProviderOllama:
		return NewOllamaService(cfg.OllamaURL, cfg.ModelName, logger), nil
	case config.ProviderMock:
		return NewMockLLMAPI(), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}
}

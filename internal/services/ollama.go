package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jwebster45206/route-tycoon/pkg/chat"
)

// suggestionTemperature keeps advice stable between identical snapshots.
const suggestionTemperature = 0.2

var errOllamaUnavailable = errors.New("ollama unavailable")

// OllamaService implements LLMService for a local Ollama server. Replies are
// requested in JSON mode since every prompt we send expects a JSON object.
type OllamaService struct {
	baseURL    string
	modelName  string
	httpClient *http.Client
	logger     *slog.Logger

	readyRetries int
	retryDelay   time.Duration
}

// NewOllamaService creates a new Ollama service instance
func NewOllamaService(baseURL string, modelName string, logger *slog.Logger) *OllamaService {
	return &OllamaService{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		modelName:    modelName,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		logger:       logger,
		readyRetries: 5,
		retryDelay:   2 * time.Second,
	}
}

func (s *OllamaService) ModelName() string {
	return s.modelName
}

// InitModel waits for the server to answer, then pulls the model if it is not installed.
func (s *OllamaService) InitModel(ctx context.Context, modelName string) error {
	s.logger.Info("Initializing LLM model", "model", modelName, "provider", "ollama")

	installed, err := s.waitForModels(ctx)
	if err != nil {
		return fmt.Errorf("ollama service is not ready: %w", err)
	}
	if hasModel(installed, modelName) {
		s.logger.Info("Model already available", "model", modelName)
		return nil
	}

	s.logger.Info("Model not found, pulling it", "model", modelName)
	// Pulling can take minutes.
	pull := &http.Client{Timeout: 10 * time.Minute}
	if err := s.post(ctx, pull, "/api/pull", map[string]interface{}{"name": modelName, "stream": false}, nil); err != nil {
		return fmt.Errorf("failed to pull model: %w", err)
	}
	s.logger.Info("Model pulled successfully", "model", modelName)
	return nil
}

type ollamaChatRequest struct {
	Model    string             `json:"model"`
	Messages []chat.ChatMessage `json:"messages"`
	Stream   bool               `json:"stream"`
	Format   string             `json:"format"`
	Options  map[string]float64 `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Model   string `json:"model"`
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

// Chat sends a non-streaming JSON-mode chat request.
func (s *OllamaService) Chat(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
	s.logger.Debug("Making Ollama chat request", "model", s.modelName, "message_count", len(messages))

	var out ollamaChatResponse
	err := s.post(ctx, s.httpClient, "/api/chat", ollamaChatRequest{
		Model:    s.modelName,
		Messages: messages,
		Stream:   false,
		Format:   "json",
		Options:  map[string]float64{"temperature": suggestionTemperature},
	}, &out)
	if err != nil {
		return nil, err
	}

	model := out.Model
	if model == "" {
		model = s.modelName
	}
	return &chat.ChatResponse{Message: out.Message.Content, Model: model}, nil
}

// waitForModels polls /api/tags until the server answers and returns the installed model names.
func (s *OllamaService) waitForModels(ctx context.Context) ([]string, error) {
	var lastErr error
	for i := 0; i < s.readyRetries; i++ {
		models, err := s.listModels(ctx)
		if err == nil {
			return models, nil
		}
		lastErr = err
		s.logger.Debug("Ollama not ready yet", "error", err, "attempt", i+1)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.retryDelay):
		}
	}
	return nil, fmt.Errorf("no answer after %d attempts: %w", s.readyRetries, lastErr)
}

func (s *OllamaService) listModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errOllamaUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", errOllamaUnavailable, resp.StatusCode)
	}

	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// post sends body as JSON and decodes the reply into out when out is non-nil.
func (s *OllamaService) post(ctx context.Context, client *http.Client, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		s.logger.Error("Ollama API returned error", "path", path, "status_code", resp.StatusCode, "response_body", string(data))
		return fmt.Errorf("API request failed with status: %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// hasModel matches names with or without the implicit ":latest" tag.
func hasModel(installed []string, name string) bool {
	want := strings.TrimSuffix(name, ":latest")
	for _, m := range installed {
		if strings.TrimSuffix(m, ":latest") == want {
			return true
		}
	}
	return false
}

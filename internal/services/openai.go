package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jwebster45206/route-tycoon/pkg/chat"
)

const (
	openAIBaseURL = "https://api.openai.com/v1"
)

// OpenAIService implements LLMService for OpenAI chat completions
type OpenAIService struct {
	apiKey     string
	modelName  string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

type OpenAIChatRequest struct {
	Model          string             `json:"model"`
	Messages       []chat.ChatMessage `json:"messages"`
	Temperature    float64            `json:"temperature,omitempty"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format,omitempty"`
}

type OpenAIChatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
			Refusal string `json:"refusal,omitempty"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// NewOpenAIService creates a new OpenAI chat completions client
func NewOpenAIService(apiKey string, modelName string, logger *slog.Logger) *OpenAIService {
	return &OpenAIService{
		apiKey:    apiKey,
		modelName: modelName,
		baseURL:   openAIBaseURL,
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
		logger: logger,
	}
}

// InitModel is a no-op; hosted models need no preparation.
func (c *OpenAIService) InitModel(ctx context.Context, modelName string) error {
	return nil
}

func (c *OpenAIService) ModelName() string {
	return c.modelName
}

// Chat requests a JSON-object completion.
func (c *OpenAIService) Chat(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
	openAIReq := OpenAIChatRequest{
		Model:       c.modelName,
		Messages:    messages,
		Temperature: 0.4,
		ResponseFormat: &struct {
			Type string `json:"type"`
		}{Type: "json_object"},
	}

	reqBody, err := json.Marshal(openAIReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("OpenAI API returned error", "status_code", resp.StatusCode, "response_body", string(body))
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var openAIResp OpenAIChatResponse
	if err := json.Unmarshal(body, &openAIResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if openAIResp.Error != nil {
		return nil, fmt.Errorf("API error: %s", openAIResp.Error.Message)
	}
	if len(openAIResp.Choices) == 0 {
		return nil, fmt.Errorf("API returned no choices")
	}

	msg := openAIResp.Choices[0].Message
	if msg.Refusal != "" {
		return nil, fmt.Errorf("model refused: %s", msg.Refusal)
	}

	return &chat.ChatResponse{Message: msg.Content, Model: openAIResp.Model}, nil
}

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/jwebster45206/route-tycoon/pkg/chat"
	"github.com/jwebster45206/route-tycoon/pkg/state"
	"github.com/jwebster45206/route-tycoon/pkg/suggest"
)

// MockLLMAPI is a mock implementation of LLMService for testing and for
// running without a provider. By default it answers suggestion prompts with a
// capacity upgrade for the busiest unlocked route.
type MockLLMAPI struct {
	InitModelFunc func(ctx context.Context, modelName string) error
	ChatFunc      func(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error)

	// Track calls for testing
	InitModelCalls []string
	ChatCalls      []ChatCall

	mu sync.Mutex // protects all fields above
}

type ChatCall struct {
	Messages []chat.ChatMessage
}

// NewMockLLMAPI creates a new mock LLM service
func NewMockLLMAPI() *MockLLMAPI {
	return &MockLLMAPI{
		InitModelCalls: make([]string, 0),
		ChatCalls:      make([]ChatCall, 0),
	}
}

func (m *MockLLMAPI) ModelName() string {
	return "mock"
}

// InitModel mocks model initialization
func (m *MockLLMAPI) InitModel(ctx context.Context, modelName string) error {
	m.mu.Lock()
	m.InitModelCalls = append(m.InitModelCalls, modelName)
	fn := m.InitModelFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, modelName)
	}
	return nil
}

// Chat mocks response generation. The lock is not held while ChatFunc runs
// so tests can block inside it.
func (m *MockLLMAPI) Chat(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
	m.mu.Lock()
	m.ChatCalls = append(m.ChatCalls, ChatCall{Messages: messages})
	fn := m.ChatFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, messages)
	}
	return &chat.ChatResponse{Message: defaultSuggestionReply(messages), Model: "mock"}, nil
}

// GetCallCount returns the number of Chat calls
func (m *MockLLMAPI) GetCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ChatCalls)
}

// Reset clears all recorded calls
func (m *MockLLMAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InitModelCalls = m.InitModelCalls[:0]
	m.ChatCalls = m.ChatCalls[:0]
}

func defaultSuggestionReply(messages []chat.ChatMessage) string {
	var network state.NetworkData
	for _, msg := range messages {
		line, _, _ := strings.Cut(msg.Content, "\n")
		raw, ok := strings.CutPrefix(line, "Network Data: ")
		if !ok {
			continue
		}
		if err := json.Unmarshal([]byte(raw), &network); err == nil {
			break
		}
	}

	demand := make(map[string]int, len(network.Cities))
	for _, c := range network.Cities {
		demand[c.ID] = c.Demand
	}

	var best *state.Route
	bestScore := -1
	for i, r := range network.Routes {
		if !r.IsUnlocked {
			continue
		}
		score := (demand[r.From] + demand[r.To]) * 100 / r.Level
		if score > bestScore {
			best, bestScore = &network.Routes[i], score
		}
	}

	suggestions := []suggest.Suggestion{}
	reasoning := "The network has no unlocked routes yet. Save up and unlock a zone."
	if best != nil {
		suggestions = append(suggestions, suggest.Suggestion{
			RouteID:     best.ID,
			UpgradeType: suggest.UpgradeCapacity,
			Cost:        best.UpgradeCost(),
			Reason:      fmt.Sprintf("Route %s serves the most demand per level.", best.ID),
		})
		reasoning = fmt.Sprintf("Route %s links %s and %s, the busiest unlocked pair for its level. Raising its capacity increases income the most per unit spent.", best.ID, best.From, best.To)
	}

	list, _ := json.Marshal(suggestions)
	reply, _ := json.Marshal(suggest.Response{
		SuggestedUpgrades: string(list),
		Reasoning:         reasoning,
	})
	return string(reply)
}

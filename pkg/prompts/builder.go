package prompts

import (
	"fmt"

	"github.com/jwebster45206/route-tycoon/pkg/chat"
	"github.com/jwebster45206/route-tycoon/pkg/state"
	"github.com/jwebster45206/route-tycoon/pkg/suggest"
)

// Builder constructs the chat messages for a suggestion request.
type Builder struct {
	req      *suggest.Request
	rules    state.Rules
	focus    string
	messages []chat.ChatMessage
}

// New creates a builder using the default game rules.
func New() *Builder {
	return &Builder{
		rules:    state.DefaultRules(),
		messages: make([]chat.ChatMessage, 0),
	}
}

// WithRequest sets the serialized network and player snapshots.
func (b *Builder) WithRequest(req suggest.Request) *Builder {
	b.req = &req
	return b
}

// WithRules overrides the rules described to the model.
func (b *Builder) WithRules(r state.Rules) *Builder {
	b.rules = r
	return b
}

// WithFocus adds a free-form note from the player, e.g. "I want to expand east".
func (b *Builder) WithFocus(focus string) *Builder {
	b.focus = focus
	return b
}

// Build returns the message array for LLM consumption.
func (b *Builder) Build() ([]chat.ChatMessage, error) {
	if b.req == nil {
		return nil, fmt.Errorf("suggestion request is required")
	}
	if b.req.NetworkData == "" || b.req.PlayerResources == "" {
		return nil, fmt.Errorf("suggestion request is missing network or player data")
	}

	b.messages = make([]chat.ChatMessage, 0, 4)

	b.messages = append(b.messages, chat.ChatMessage{
		Role:    chat.ChatRoleSystem,
		Content: fmt.Sprintf(SuggestionSystemPrompt, RulesPrompt(b.rules)),
	})
	b.messages = append(b.messages, chat.ChatMessage{
		Role:    chat.ChatRoleUser,
		Content: fmt.Sprintf(SuggestionUserPrompt, b.req.NetworkData, b.req.PlayerResources),
	})
	if b.focus != "" {
		b.messages = append(b.messages, chat.ChatMessage{
			Role:    chat.ChatRoleUser,
			Content: "Player note: " + b.focus,
		})
	}
	b.messages = append(b.messages, chat.ChatMessage{
		Role:    chat.ChatRoleSystem,
		Content: SuggestionFormatPrompt,
	})

	return b.messages, nil
}

// BuildSuggestionMessages is a convenience function for the common case.
func BuildSuggestionMessages(req suggest.Request, focus string) ([]chat.ChatMessage, error) {
	return New().
		WithRequest(req).
		WithFocus(focus).
		Build()
}

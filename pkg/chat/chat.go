package chat

import (
	"errors"
	"fmt"
)

const (
	ChatRoleUser   = "user"
	ChatRoleAgent  = "assistant"
	ChatRoleSystem = "system"
)

// ChatMessage is a single message in an LLM conversation. The shape matches
// what every supported provider accepts, so it is sent as-is.
type ChatMessage struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// ChatResponse is the text a provider returned for a conversation.
type ChatResponse struct {
	Message string `json:"message,omitempty"`
	Model   string `json:"model,omitempty"`
}

var ErrEmptyConversation = errors.New("conversation has no messages")

// Validate checks a conversation before it is sent to a provider.
func Validate(messages []ChatMessage) error {
	if len(messages) == 0 {
		return ErrEmptyConversation
	}
	for i, m := range messages {
		switch m.Role {
		case ChatRoleUser, ChatRoleAgent, ChatRoleSystem:
		default:
			return fmt.Errorf("message %d: unknown role %q", i, m.Role)
		}
		if m.Content == "" {
			return fmt.Errorf("message %d: content cannot be empty", i)
		}
	}
	return nil
}

// SplitSystem joins all system messages into one prompt and returns the rest.
// Some providers take the system prompt as a separate field.
func SplitSystem(messages []ChatMessage) (string, []ChatMessage) {
	var system string
	var rest []ChatMessage
	for _, m := range messages {
		if m.Role != ChatRoleSystem {
			rest = append(rest, m)
			continue
		}
		if system != "" {
			system += "\n\n"
		}
		system += m.Content
	}
	return system, rest
}

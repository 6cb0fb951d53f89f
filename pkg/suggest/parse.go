package suggest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON returns the first balanced JSON object in a model reply.
// Markdown fences and prose around the object are ignored.
func ExtractJSON(reply string) (string, error) {
	start := strings.IndexByte(reply, '{')
	if start < 0 {
		return "", ErrNoJSON
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(reply); i++ {
		ch := reply[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return reply[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("%w: unterminated object", ErrNoJSON)
}

// Parse turns a model reply into a validated Result. suggestedUpgrades is
// accepted either as a JSON string holding an array or as the array itself.
func Parse(reply string) (*Result, error) {
	obj, err := ExtractJSON(reply)
	if err != nil {
		return nil, err
	}

	var raw struct {
		SuggestedUpgrades json.RawMessage `json:"suggestedUpgrades"`
		Reasoning         string          `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(obj), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	if len(raw.SuggestedUpgrades) == 0 {
		return nil, fmt.Errorf("%w: missing suggestedUpgrades", ErrMalformedReply)
	}

	list := bytes.TrimSpace(raw.SuggestedUpgrades)
	if len(list) > 0 && list[0] == '"' {
		var s string
		if err := json.Unmarshal(list, &s); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedReply, err)
		}
		list = []byte(strings.TrimSpace(s))
	}

	var suggestions []Suggestion
	if err := json.Unmarshal(list, &suggestions); err != nil {
		return nil, fmt.Errorf("%w: suggestedUpgrades is not an array of suggestions: %v", ErrMalformedReply, err)
	}
	for i, s := range suggestions {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("suggestion %d: %w", i, err)
		}
	}
	if suggestions == nil {
		suggestions = []Suggestion{}
	}

	return &Result{
		Suggestions: suggestions,
		Reasoning:   strings.TrimSpace(raw.Reasoning),
	}, nil
}

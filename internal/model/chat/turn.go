package chat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Role tags who produced a turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleHuman     Role = "human"
	RoleAssistant Role = "assistant"
)

// ParseRole normalises a wire role. "user" and "ai" are accepted as aliases.
func ParseRole(raw string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "human", "user":
		return RoleHuman, true
	case "assistant", "ai":
		return RoleAssistant, true
	case "system":
		return RoleSystem, true
	default:
		return "", false
	}
}

// Turn is one role-tagged message. On the wire it is a ["role", "text"] pair.
type Turn struct {
	Role Role
	Text string
}

// MarshalJSON encodes the turn as a two element array.
func (t Turn) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{string(t.Role), t.Text})
}

// UnmarshalJSON accepts ["role", "text"] pairs and {"role", "content"} objects.
func (t *Turn) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("empty turn")
	}

	var role, text string
	switch trimmed[0] {
	case '[':
		var pair []string
		if err := json.Unmarshal(trimmed, &pair); err != nil {
			return fmt.Errorf("decode turn pair: %w", err)
		}
		if len(pair) != 2 {
			return fmt.Errorf("turn must have exactly 2 elements, got %d", len(pair))
		}
		role, text = pair[0], pair[1]
	case '{':
		var obj struct {
			Role    string `json:"role"`
			Content string `json:"content"`
			Text    string `json:"text"`
		}
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return fmt.Errorf("decode turn object: %w", err)
		}
		role, text = obj.Role, obj.Content
		if text == "" {
			text = obj.Text
		}
	default:
		return fmt.Errorf("turn must be an array or object")
	}

	parsed, ok := ParseRole(role)
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	t.Role = parsed
	t.Text = text
	return nil
}

// History is the ordered turn log echoed between client and server.
type History []Turn

// MarshalJSON keeps an empty history as [] instead of null.
func (h History) MarshalJSON() ([]byte, error) {
	if h == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Turn(h))
}

// Append returns a new history with the turns added; the receiver is left untouched.
func (h History) Append(turns ...Turn) History {
	out := make(History, 0, len(h)+len(turns))
	out = append(out, h...)
	return append(out, turns...)
}

// Transcript renders the history as "User: ..." / "AI: ..." lines.
func (h History) Transcript() string {
	var builder strings.Builder
	for i, turn := range h {
		if i > 0 {
			builder.WriteString("\n")
		}
		if turn.Role == RoleHuman {
			builder.WriteString("User: ")
		} else {
			builder.WriteString("AI: ")
		}
		builder.WriteString(turn.Text)
	}
	return builder.String()
}

// HumanText joins the text of every human turn.
func (h History) HumanText() string {
	parts := make([]string, 0, len(h))
	for _, turn := range h {
		if turn.Role == RoleHuman {
			parts = append(parts, turn.Text)
		}
	}
	return strings.Join(parts, "\n")
}

package chat

import (
	"errors"
	"fmt"
	"strings"
)

// Action selects what POST /chat does.
type Action string

const (
	ActionChat       Action = "chat"
	ActionEndSession Action = "end_session"
)

var (
	ErrInvalidRequest  = errors.New("invalid request")
	ErrMessageRequired = fmt.Errorf("%w: message is required", ErrInvalidRequest)
	ErrUserRequired    = fmt.Errorf("%w: user_id is required", ErrInvalidRequest)
	ErrUnknownAction   = fmt.Errorf("%w: unknown action", ErrInvalidRequest)
	ErrInvalidRole     = fmt.Errorf("%w: invalid turn role", ErrInvalidRequest)
)

// Request is the raw POST /chat payload.
type Request struct {
	Action   Action   `json:"action"`
	Message  string   `json:"message"`
	History  History  `json:"history"`
	UserID   string   `json:"user_id"`
	Emotions []string `json:"emotions,omitempty"`
	Topics   []string `json:"topics,omitempty"`
}

// TurnRequest is a validated chat turn.
type TurnRequest struct {
	Message string
	History History
	UserID  string
}

// EndSessionRequest is a validated session-end request. Nil Emotions/Topics
// mean the caller left tagging to the server.
type EndSessionRequest struct {
	History  History
	UserID   string
	Emotions []string
	Topics   []string
}

// Normalize fills the default action.
func (r Request) Normalize() Request {
	r.Action = Action(strings.ToLower(strings.TrimSpace(string(r.Action))))
	if r.Action == "" {
		r.Action = ActionChat
	}
	r.UserID = strings.TrimSpace(r.UserID)
	return r
}

// TurnRequest validates the payload as a chat turn.
func (r Request) TurnRequest() (TurnRequest, error) {
	r = r.Normalize()
	if r.Action != ActionChat {
		return TurnRequest{}, fmt.Errorf("%w: %q", ErrUnknownAction, r.Action)
	}
	if strings.TrimSpace(r.Message) == "" {
		return TurnRequest{}, ErrMessageRequired
	}
	if err := validateHistory(r.History); err != nil {
		return TurnRequest{}, err
	}
	return TurnRequest{Message: r.Message, History: r.History, UserID: r.UserID}, nil
}

// EndSessionRequest validates the payload as a session end.
func (r Request) EndSessionRequest() (EndSessionRequest, error) {
	r = r.Normalize()
	if r.Action != ActionEndSession {
		return EndSessionRequest{}, fmt.Errorf("%w: %q", ErrUnknownAction, r.Action)
	}
	if r.UserID == "" {
		return EndSessionRequest{}, ErrUserRequired
	}
	if err := validateHistory(r.History); err != nil {
		return EndSessionRequest{}, err
	}
	return EndSessionRequest{
		History:  r.History,
		UserID:   r.UserID,
		Emotions: cleanLabels(r.Emotions),
		Topics:   cleanLabels(r.Topics),
	}, nil
}

func validateHistory(h History) error {
	for i, turn := range h {
		if _, ok := ParseRole(string(turn.Role)); !ok {
			return fmt.Errorf("%w: history[%d] has role %q", ErrInvalidRole, i, turn.Role)
		}
	}
	return nil
}

// cleanLabels trims labels and drops blanks, preserving nil.
func cleanLabels(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, label := range in {
		if label = strings.TrimSpace(label); label != "" {
			out = append(out, label)
		}
	}
	return out
}

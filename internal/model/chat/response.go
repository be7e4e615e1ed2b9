package chat

// TurnReply is returned for a successful chat turn.
type TurnReply struct {
	Reply   string  `json:"reply"`
	History History `json:"history"`
}

// SessionSummary is returned when a session ends.
type SessionSummary struct {
	Summary   string   `json:"summary"`
	Emotions  []string `json:"emotions"`
	Topics    []string `json:"topics"`
	SessionID string   `json:"session_id"`
}

// GenericErrorMessage is the error text of every failed request.
const GenericErrorMessage = "An error occurred while processing your message."

// ErrorBody is the JSON body of every failed request.
type ErrorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

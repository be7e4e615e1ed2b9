package chat

import "time"

// Session is the persisted record of one completed conversation.
type Session struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	StartTime    time.Time  `json:"start_time"`
	EndTime      *time.Time `json:"end_time"`
	Conversation History    `json:"conversation"`
	Summary      *string    `json:"summary"`
	Emotions     []string   `json:"emotions"`
	Topics       []string   `json:"topics"`
}

// Record carries the fields a caller supplies when a session is created.
// The store assigns ID and StartTime.
type Record struct {
	UserID       string
	Conversation History
	Summary      *string
	Emotions     []string
	Topics       []string
	EndTime      *time.Time
}

// NewSession materialises a record with store-assigned identity and start time.
// StartTime is clamped so it never falls after EndTime.
func NewSession(id string, rec Record, now time.Time) Session {
	start := now.UTC()
	if rec.EndTime != nil && rec.EndTime.Before(start) {
		start = rec.EndTime.UTC()
	}

	return Session{
		ID:           id,
		UserID:       rec.UserID,
		StartTime:    start,
		EndTime:      rec.EndTime,
		Conversation: rec.Conversation.Append(),
		Summary:      rec.Summary,
		Emotions:     Labels(rec.Emotions),
		Topics:       Labels(rec.Topics),
	}
}

// Labels returns a copy of the slice that is never nil.
func Labels(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

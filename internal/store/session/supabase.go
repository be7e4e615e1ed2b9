package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"

	"github.com/zhouzirui/core-companion/backend/internal/model/chat"
)

const defaultSupabaseTable = "chat_sessions"

// SupabaseConfig holds Supabase connection configuration.
type SupabaseConfig struct {
	URL    string
	APIKey string
	Table  string
}

// SupabaseStore writes sessions to a PostgREST table whose conversation,
// emotions and topics columns are jsonb.
type SupabaseStore struct {
	client *supabase.Client
	table  string
	now    func() time.Time
}

// NewSupabaseStore creates a Supabase-backed session store.
func NewSupabaseStore(cfg SupabaseConfig, now func() time.Time) (*SupabaseStore, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("supabase URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("supabase API key is required")
	}
	if cfg.Table == "" {
		cfg.Table = defaultSupabaseTable
	}
	if now == nil {
		now = time.Now
	}

	client, err := supabase.NewClient(cfg.URL, cfg.APIKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}

	return &SupabaseStore{client: client, table: cfg.Table, now: now}, nil
}

// Create implements Store.
func (s *SupabaseStore) Create(_ context.Context, rec chat.Record) (chat.Session, error) {
	session := chat.NewSession(uuid.NewString(), rec, s.now())

	var inserted []chat.Session
	_, err := s.client.From(s.table).
		Insert(session, false, "", "representation", "").
		ExecuteTo(&inserted)
	if err != nil {
		return chat.Session{}, fmt.Errorf("failed to insert chat session: %w", err)
	}
	if len(inserted) == 1 {
		session = inserted[0]
	}
	return session, nil
}

// ListByUser implements Store.
func (s *SupabaseStore) ListByUser(_ context.Context, userID string) ([]chat.Session, error) {
	sessions := make([]chat.Session, 0)
	_, err := s.client.From(s.table).
		Select("*", "", false).
		Eq("user_id", userID).
		Order("start_time", &postgrest.OrderOpts{Ascending: false}).
		ExecuteTo(&sessions)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat sessions: %w", err)
	}

	for i := range sessions {
		sessions[i].Emotions = chat.Labels(sessions[i].Emotions)
		sessions[i].Topics = chat.Labels(sessions[i].Topics)
	}
	return sessions, nil
}

// Close implements Store. The supabase client holds no long-lived connection.
func (s *SupabaseStore) Close() error {
	return nil
}

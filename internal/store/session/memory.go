package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/core-companion/backend/internal/model/chat"
)

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	now    func() time.Time
	byUser map[string][]chat.Session
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		now:    now,
		byUser: make(map[string][]chat.Session),
	}
}

// Create implements Store.
func (s *MemoryStore) Create(_ context.Context, rec chat.Record) (chat.Session, error) {
	session := chat.NewSession(uuid.NewString(), rec, s.now())

	s.mu.Lock()
	s.byUser[rec.UserID] = append(s.byUser[rec.UserID], session)
	s.mu.Unlock()

	return session, nil
}

// ListByUser implements Store.
func (s *MemoryStore) ListByUser(_ context.Context, userID string) ([]chat.Session, error) {
	s.mu.RLock()
	stored := s.byUser[userID]
	out := make([]chat.Session, len(stored))
	copy(out, stored)
	s.mu.RUnlock()

	// stored is in insertion order; reverse it first so equal start times list newest first.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime.After(out[j].StartTime)
	})
	return out, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byUser = make(map[string][]chat.Session)
	return nil
}

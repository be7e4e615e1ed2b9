package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/zhouzirui/core-companion/backend/internal/model/chat"
)

const (
	sessionKeyPrefix   = "chat_session:"
	userIndexKeyPrefix = "chat_sessions:user:"
	sequenceKey        = "chat_sessions:seq"
)

// RedisStore keeps each session as a JSON value and indexes it per user in a
// sorted set scored by start time. Index members are "<seq>:<id>" with a
// zero-padded global sequence, so equal start times list newest first.
// Keys carry no TTL.
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client *redis.Client, now func() time.Time) *RedisStore {
	if now == nil {
		now = time.Now
	}
	return &RedisStore{client: client, now: now}
}

// Create implements Store. The value and the index entry are written in one MULTI/EXEC.
func (s *RedisStore) Create(ctx context.Context, rec chat.Record) (chat.Session, error) {
	session := chat.NewSession(uuid.NewString(), rec, s.now())

	val, err := json.Marshal(session)
	if err != nil {
		return chat.Session{}, fmt.Errorf("encode chat session: %w", err)
	}

	seq, err := s.client.Incr(ctx, sequenceKey).Result()
	if err != nil {
		return chat.Session{}, fmt.Errorf("allocate session sequence: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKey(session.ID), val, 0)
		pipe.ZAdd(ctx, userIndexKey(session.UserID), redis.Z{
			Score:  float64(session.StartTime.UnixMicro()),
			Member: indexMember(seq, session.ID),
		})
		return nil
	})
	if err != nil {
		return chat.Session{}, fmt.Errorf("write chat session: %w", err)
	}
	return session, nil
}

// ListByUser implements Store.
func (s *RedisStore) ListByUser(ctx context.Context, userID string) ([]chat.Session, error) {
	members, err := s.client.ZRevRange(ctx, userIndexKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read user index: %w", err)
	}

	sessions := make([]chat.Session, 0, len(members))
	if len(members) == 0 {
		return sessions, nil
	}

	ids := make([]string, len(members))
	keys := make([]string, len(members))
	for i, member := range members {
		ids[i] = memberID(member)
		keys[i] = sessionKey(ids[i])
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("read chat sessions: %w", err)
	}

	for i, raw := range values {
		str, ok := raw.(string)
		if !ok {
			// Index entry without a value; skip rather than fail the whole listing.
			continue
		}
		var session chat.Session
		if err := json.Unmarshal([]byte(str), &session); err != nil {
			return nil, fmt.Errorf("decode chat session %s: %w", ids[i], err)
		}
		session.Emotions = chat.Labels(session.Emotions)
		session.Topics = chat.Labels(session.Topics)
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

func userIndexKey(userID string) string {
	return userIndexKeyPrefix + userID
}

func indexMember(seq int64, id string) string {
	return fmt.Sprintf("%020d:%s", seq, id)
}

func memberID(member string) string {
	if _, id, ok := strings.Cut(member, ":"); ok {
		return id
	}
	return member
}

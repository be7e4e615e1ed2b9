package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/zhouzirui/core-companion/backend/internal/model/chat"
)

// Times are stored as unix microseconds so ORDER BY compares numbers, not strings.
const createSessionsTable = `
CREATE TABLE IF NOT EXISTS chat_sessions (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL,
	start_time   INTEGER NOT NULL,
	end_time     INTEGER,
	conversation TEXT NOT NULL,
	summary      TEXT,
	emotions     TEXT NOT NULL DEFAULT '[]',
	topics       TEXT NOT NULL DEFAULT '[]'
);`

const createUserIndex = `
CREATE INDEX IF NOT EXISTS idx_chat_sessions_user_start
	ON chat_sessions (user_id, start_time DESC);`

// SQLiteStore keeps sessions in a single relational table.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLiteStore opens (or creates) the database at path and ensures the schema.
// ":memory:" is supported and pinned to one connection so every query sees the same database.
func OpenSQLiteStore(ctx context.Context, path string, now func() time.Time) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.ExecContext(ctx, createSessionsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create chat_sessions table: %w", err)
	}
	if _, err := db.ExecContext(ctx, createUserIndex); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create chat_sessions index: %w", err)
	}

	if now == nil {
		now = time.Now
	}
	return &SQLiteStore{db: db, now: now}, nil
}

// Create implements Store.
func (s *SQLiteStore) Create(ctx context.Context, rec chat.Record) (chat.Session, error) {
	session := chat.NewSession(uuid.NewString(), rec, s.now())

	conversation, err := json.Marshal(session.Conversation)
	if err != nil {
		return chat.Session{}, fmt.Errorf("encode conversation: %w", err)
	}
	emotions, err := json.Marshal(session.Emotions)
	if err != nil {
		return chat.Session{}, fmt.Errorf("encode emotions: %w", err)
	}
	topics, err := json.Marshal(session.Topics)
	if err != nil {
		return chat.Session{}, fmt.Errorf("encode topics: %w", err)
	}

	var endTime sql.NullInt64
	if session.EndTime != nil {
		endTime = sql.NullInt64{Int64: session.EndTime.UnixMicro(), Valid: true}
	}
	var summary sql.NullString
	if session.Summary != nil {
		summary = sql.NullString{String: *session.Summary, Valid: true}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO chat_sessions (id, user_id, start_time, end_time, conversation, summary, emotions, topics)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID, session.UserID, session.StartTime.UnixMicro(), endTime,
		string(conversation), summary, string(emotions), string(topics),
	)
	if err != nil {
		return chat.Session{}, fmt.Errorf("insert chat session: %w", err)
	}

	// Round-trip precision matches what ListByUser will return.
	session.StartTime = time.UnixMicro(session.StartTime.UnixMicro()).UTC()
	if session.EndTime != nil {
		end := time.UnixMicro(session.EndTime.UnixMicro()).UTC()
		session.EndTime = &end
	}
	return session, nil
}

// ListByUser implements Store.
func (s *SQLiteStore) ListByUser(ctx context.Context, userID string) ([]chat.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, start_time, end_time, conversation, summary, emotions, topics
		 FROM chat_sessions
		 WHERE user_id = ?
		 ORDER BY start_time DESC, rowid DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query chat sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]chat.Session, 0)
	for rows.Next() {
		var (
			session      chat.Session
			startMicro   int64
			endMicro     sql.NullInt64
			conversation string
			summary      sql.NullString
			emotions     string
			topics       string
		)
		if err := rows.Scan(&session.ID, &session.UserID, &startMicro, &endMicro,
			&conversation, &summary, &emotions, &topics); err != nil {
			return nil, fmt.Errorf("scan chat session: %w", err)
		}

		session.StartTime = time.UnixMicro(startMicro).UTC()
		if endMicro.Valid {
			end := time.UnixMicro(endMicro.Int64).UTC()
			session.EndTime = &end
		}
		if summary.Valid {
			text := summary.String
			session.Summary = &text
		}
		if err := json.Unmarshal([]byte(conversation), &session.Conversation); err != nil {
			return nil, fmt.Errorf("decode conversation of %s: %w", session.ID, err)
		}
		if err := json.Unmarshal([]byte(emotions), &session.Emotions); err != nil {
			return nil, fmt.Errorf("decode emotions of %s: %w", session.ID, err)
		}
		if err := json.Unmarshal([]byte(topics), &session.Topics); err != nil {
			return nil, fmt.Errorf("decode topics of %s: %w", session.ID, err)
		}
		session.Emotions = chat.Labels(session.Emotions)
		session.Topics = chat.Labels(session.Topics)
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat sessions: %w", err)
	}
	return sessions, nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

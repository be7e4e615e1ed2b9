package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zhouzirui/core-companion/backend/internal/model/chat"
)

var (
	ErrInvalidConfig    = errors.New("invalid session store configuration")
	ErrInvalidStoreType = errors.New("invalid session store type")
)

// Store persists completed conversations. Records are never updated or deleted.
type Store interface {
	// Create assigns ID and StartTime and writes the record.
	Create(ctx context.Context, rec chat.Record) (chat.Session, error)
	// ListByUser returns the user's sessions, most recent first. Unknown users yield an empty slice.
	ListByUser(ctx context.Context, userID string) ([]chat.Session, error)
	Close() error
}

// StoreType names a driver.
type StoreType string

const (
	StoreTypeMemory   StoreType = "memory"
	StoreTypeSQLite   StoreType = "sqlite"
	StoreTypeRedis    StoreType = "redis"
	StoreTypeSupabase StoreType = "supabase"
)

type storeConfig struct {
	sqlitePath  string
	redisClient *redis.Client
	supabaseURL string
	supabaseKey string
	supabaseTbl string
	now         func() time.Time
}

// StoreOption configures NewStore.
type StoreOption func(*storeConfig)

// WithSQLitePath sets the database file for the sqlite driver.
func WithSQLitePath(path string) StoreOption {
	return func(c *storeConfig) { c.sqlitePath = path }
}

// WithRedisClient sets the client for the redis driver.
func WithRedisClient(client *redis.Client) StoreOption {
	return func(c *storeConfig) { c.redisClient = client }
}

// WithSupabase sets the project URL and API key for the supabase driver.
func WithSupabase(url, apiKey string) StoreOption {
	return func(c *storeConfig) {
		c.supabaseURL = url
		c.supabaseKey = apiKey
	}
}

// WithSupabaseTable overrides the supabase table name.
func WithSupabaseTable(table string) StoreOption {
	return func(c *storeConfig) { c.supabaseTbl = table }
}

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) StoreOption {
	return func(c *storeConfig) { c.now = now }
}

// NewStore builds the driver named by storeType.
func NewStore(ctx context.Context, storeType StoreType, opts ...StoreOption) (Store, error) {
	cfg := &storeConfig{now: time.Now}
	for _, opt := range opts {
		opt(cfg)
	}

	switch storeType {
	case StoreTypeMemory:
		return NewMemoryStore(cfg.now), nil

	case StoreTypeSQLite:
		if cfg.sqlitePath == "" {
			return nil, ErrInvalidConfig
		}
		return OpenSQLiteStore(ctx, cfg.sqlitePath, cfg.now)

	case StoreTypeRedis:
		if cfg.redisClient == nil {
			return nil, ErrInvalidConfig
		}
		if err := cfg.redisClient.Ping(ctx).Err(); err != nil {
			return nil, err
		}
		return NewRedisStore(cfg.redisClient, cfg.now), nil

	case StoreTypeSupabase:
		if cfg.supabaseURL == "" || cfg.supabaseKey == "" {
			return nil, ErrInvalidConfig
		}
		return NewSupabaseStore(SupabaseConfig{
			URL:    cfg.supabaseURL,
			APIKey: cfg.supabaseKey,
			Table:  cfg.supabaseTbl,
		}, cfg.now)

	default:
		return nil, ErrInvalidStoreType
	}
}

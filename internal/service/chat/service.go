package chat

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zhouzirui/core-companion/backend/internal/model/chat"
	"github.com/zhouzirui/core-companion/backend/internal/observability"
	sessionstore "github.com/zhouzirui/core-companion/backend/internal/store/session"
)

// Gateway completes an ordered, role-tagged prompt.
type Gateway interface {
	Complete(ctx context.Context, prompt []chat.Turn) (string, error)
}

// Tagger labels a finished conversation. It does not fail.
type Tagger interface {
	Tags(ctx context.Context, history chat.History, summary string) (emotions, topics []string)
}

// Service runs chat turns and session ends. It holds no per-conversation state:
// the history lives with the caller until the session is persisted.
type Service struct {
	gateway Gateway
	store   sessionstore.Store
	tagger  Tagger
	metrics *observability.Metrics
	tracer  trace.Tracer
	now     func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithMetrics records turn and session counters.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService wires the gateway, store and tagger together.
func NewService(gateway Gateway, store sessionstore.Store, tagger Tagger, opts ...Option) *Service {
	svc := &Service{
		gateway: gateway,
		store:   store,
		tagger:  tagger,
		tracer:  otel.Tracer("core-companion/chat"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Chat sends one human turn and returns the reply with the extended history.
func (s *Service) Chat(ctx context.Context, req chat.TurnRequest) (chat.TurnReply, error) {
	ctx, span := s.tracer.Start(ctx, "chat.turn", trace.WithAttributes(
		attribute.Int("history.turns", len(req.History)),
	))
	defer span.End()

	reply, err := s.gateway.Complete(ctx, chatPrompt(req.History, req.Message))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		return chat.TurnReply{}, fmt.Errorf("chat completion: %w", err)
	}

	history := req.History.Append(
		chat.Turn{Role: chat.RoleHuman, Text: req.Message},
		chat.Turn{Role: chat.RoleAssistant, Text: reply},
	)

	s.metrics.RecordTurn(ctx)
	return chat.TurnReply{Reply: reply, History: history}, nil
}

// EndSession summarises the conversation, labels it and persists exactly one session.
// Nothing is written when the summary cannot be produced.
func (s *Service) EndSession(ctx context.Context, req chat.EndSessionRequest) (chat.SessionSummary, error) {
	ctx, span := s.tracer.Start(ctx, "chat.end_session", trace.WithAttributes(
		attribute.Int("history.turns", len(req.History)),
	))
	defer span.End()

	summary, err := s.gateway.Complete(ctx, summaryPrompt(req.History))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "summary failed")
		return chat.SessionSummary{}, fmt.Errorf("session summary: %w", err)
	}

	emotions, topics := req.Emotions, req.Topics
	if emotions == nil || topics == nil {
		derivedEmotions, derivedTopics := s.tagger.Tags(ctx, req.History, summary)
		if emotions == nil {
			emotions = derivedEmotions
		}
		if topics == nil {
			topics = derivedTopics
		}
	}

	endTime := s.now().UTC()
	session, err := s.store.Create(ctx, chat.Record{
		UserID:       req.UserID,
		Conversation: req.History,
		Summary:      &summary,
		Emotions:     emotions,
		Topics:       topics,
		EndTime:      &endTime,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store write failed")
		return chat.SessionSummary{}, fmt.Errorf("persist session: %w", err)
	}

	span.SetAttributes(attribute.String("session.id", session.ID))
	s.metrics.RecordSessionEnded(ctx)
	observability.LoggerFromContext(ctx).Info("session ended",
		"session_id", session.ID,
		"user_id", session.UserID,
		"turns", len(session.Conversation),
	)

	return chat.SessionSummary{
		Summary:   summary,
		Emotions:  session.Emotions,
		Topics:    session.Topics,
		SessionID: session.ID,
	}, nil
}

// ListSessions returns a user's sessions, most recent first.
func (s *Service) ListSessions(ctx context.Context, userID string) ([]chat.Session, error) {
	ctx, span := s.tracer.Start(ctx, "chat.list_sessions")
	defer span.End()

	sessions, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store read failed")
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	span.SetAttributes(attribute.Int("sessions", len(sessions)))
	return sessions, nil
}

// RecordFailure counts a failed request by kind.
func (s *Service) RecordFailure(ctx context.Context, kind string) {
	s.metrics.RecordFailure(ctx, kind)
}

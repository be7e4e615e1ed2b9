package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zhouzirui/core-companion/backend/internal/model/chat"
	"github.com/zhouzirui/core-companion/backend/internal/observability"
)

// Service is the completion gateway: one synchronous model call per Complete.
type Service struct {
	chatModel model.BaseChatModel
	chain     compose.Runnable[[]*schema.Message, *schema.Message]
	tracer    trace.Tracer
}

// NewService compiles the completion chain around chatModel.
func NewService(ctx context.Context, chatModel model.BaseChatModel) (*Service, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is required")
	}

	chain := compose.NewChain[[]*schema.Message, *schema.Message]()
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile completion chain: %w", err)
	}

	return &Service{
		chatModel: chatModel,
		chain:     runnable,
		tracer:    otel.Tracer("core-companion/ai"),
	}, nil
}

// Complete sends the ordered prompt to the model and returns the reply text.
// Errors are always *Failure.
func (s *Service) Complete(ctx context.Context, prompt []chat.Turn) (string, error) {
	if s == nil || s.chain == nil {
		return "", newFailure(FailureUnavailable, "completion gateway is not configured", nil)
	}
	if len(prompt) == 0 {
		return "", newFailure(FailureInvalidInput, "prompt is empty", nil)
	}

	ctx, span := s.tracer.Start(ctx, "ai.complete", trace.WithAttributes(
		attribute.Int("prompt.turns", len(prompt)),
	))
	defer span.End()

	response, err := s.chain.Invoke(ctx, toSchemaMessages(prompt))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "provider failure")
		return "", newFailure(FailureProvider, "model call failed", err)
	}
	if response == nil || strings.TrimSpace(response.Content) == "" {
		span.SetStatus(codes.Error, "empty response")
		return "", newFailure(FailureEmptyResponse, "model returned no content", nil)
	}

	span.SetAttributes(attribute.Int("reply.length", len(response.Content)))
	observability.LoggerFromContext(ctx).Debug("completion finished",
		"turns", len(prompt),
		"reply_length", len(response.Content),
	)
	return response.Content, nil
}

// ChatModel returns the underlying model so other chains can reuse it.
func (s *Service) ChatModel() model.BaseChatModel {
	if s == nil {
		return nil
	}
	return s.chatModel
}

func toSchemaMessages(turns []chat.Turn) []*schema.Message {
	messages := make([]*schema.Message, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case chat.RoleSystem:
			messages = append(messages, schema.SystemMessage(turn.Text))
		case chat.RoleAssistant:
			messages = append(messages, schema.AssistantMessage(turn.Text, nil))
		default:
			messages = append(messages, schema.UserMessage(turn.Text))
		}
	}
	return messages
}

package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// MockChatModel answers locally without calling a provider. Useful for development.
type MockChatModel struct{}

// NewMockChatModel returns a MockChatModel.
func NewMockChatModel() *MockChatModel {
	return &MockChatModel{}
}

// Generate reflects the latest user message back.
func (m *MockChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	last := ""
	for i := len(input) - 1; i >= 0; i-- {
		if input[i].Role == schema.User {
			last = strings.TrimSpace(input[i].Content)
			break
		}
	}
	if last == "" {
		return schema.AssistantMessage("I'm here and listening whenever you're ready.", nil), nil
	}
	if runes := []rune(last); len(runes) > 120 {
		last = string(runes[:120]) + "..."
	}
	return schema.AssistantMessage(fmt.Sprintf("I hear you. You said %q. How does that sit with you right now?", last), nil), nil
}

// Stream wraps Generate in a single-chunk stream.
func (m *MockChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

// BindTools is a no-op; the mock never calls tools.
func (m *MockChatModel) BindTools(_ []*schema.ToolInfo) error {
	return nil
}

package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/core-companion/backend/internal/model/chat"
)

type fakeModel struct {
	reply string
	err   error
	got   []*schema.Message
}

func (f *fakeModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.got = input
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := f.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (f *fakeModel) BindTools(_ []*schema.ToolInfo) error { return nil }

func TestCompleteMapsRolesInOrder(t *testing.T) {
	fake := &fakeModel{reply: "That sounds hard."}
	svc, err := NewService(context.Background(), fake)
	if err != nil {
		t.Fatalf("NewService err: %v", err)
	}

	reply, err := svc.Complete(context.Background(), []chat.Turn{
		{Role: chat.RoleSystem, Text: "be kind"},
		{Role: chat.RoleHuman, Text: "hi"},
		{Role: chat.RoleAssistant, Text: "hello"},
		{Role: chat.RoleHuman, Text: "I feel anxious"},
	})
	if err != nil {
		t.Fatalf("Complete err: %v", err)
	}
	if reply != "That sounds hard." {
		t.Fatalf("unexpected reply %q", reply)
	}

	wantRoles := []schema.RoleType{schema.System, schema.User, schema.Assistant, schema.User}
	if len(fake.got) != len(wantRoles) {
		t.Fatalf("expected %d messages, got %d", len(wantRoles), len(fake.got))
	}
	for i, role := range wantRoles {
		if fake.got[i].Role != role {
			t.Fatalf("message %d: role %s want %s", i, fake.got[i].Role, role)
		}
	}
	if fake.got[3].Content != "I feel anxious" {
		t.Fatalf("unexpected last content %q", fake.got[3].Content)
	}
}

func TestCompleteProviderFailure(t *testing.T) {
	svc, err := NewService(context.Background(), &fakeModel{err: errors.New("quota exceeded")})
	if err != nil {
		t.Fatalf("NewService err: %v", err)
	}

	_, err = svc.Complete(context.Background(), []chat.Turn{{Role: chat.RoleHuman, Text: "hi"}})
	if KindOf(err) != FailureProvider {
		t.Fatalf("expected provider failure, got %v", err)
	}
	if !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("expected cause in error, got %v", err)
	}
}

func TestCompleteEmptyResponse(t *testing.T) {
	svc, _ := NewService(context.Background(), &fakeModel{reply: "   "})

	_, err := svc.Complete(context.Background(), []chat.Turn{{Role: chat.RoleHuman, Text: "hi"}})
	if KindOf(err) != FailureEmptyResponse {
		t.Fatalf("expected empty_response failure, got %v", err)
	}
}

func TestCompleteRejectsEmptyPrompt(t *testing.T) {
	svc, _ := NewService(context.Background(), &fakeModel{reply: "x"})

	if _, err := svc.Complete(context.Background(), nil); KindOf(err) != FailureInvalidInput {
		t.Fatalf("expected invalid_input failure, got %v", err)
	}
}

func TestCompleteOnNilServiceIsUnavailable(t *testing.T) {
	var svc *Service
	if _, err := svc.Complete(context.Background(), []chat.Turn{{Role: chat.RoleHuman, Text: "hi"}}); KindOf(err) != FailureUnavailable {
		t.Fatalf("expected unavailable failure, got %v", err)
	}
}

func TestChatModelIsSharedWithOtherChains(t *testing.T) {
	mock := NewMockChatModel()
	svc, err := NewService(context.Background(), mock)
	if err != nil {
		t.Fatalf("NewService err: %v", err)
	}
	if svc.ChatModel() != mock {
		t.Fatal("expected the wrapped chat model")
	}

	var nilSvc *Service
	if nilSvc.ChatModel() != nil {
		t.Fatal("expected nil model from nil service")
	}
}

func TestMockChatModelEchoesLatestUserMessage(t *testing.T) {
	msg, err := NewMockChatModel().Generate(context.Background(), []*schema.Message{
		schema.SystemMessage("sys"),
		schema.UserMessage("first"),
		schema.AssistantMessage("ok", nil),
		schema.UserMessage("second"),
	})
	if err != nil {
		t.Fatalf("Generate err: %v", err)
	}
	if !strings.Contains(msg.Content, `"second"`) {
		t.Fatalf("expected latest user message in reply, got %q", msg.Content)
	}
}

package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/core-companion/backend/internal/analysis/tags"
	"github.com/zhouzirui/core-companion/backend/internal/model/chat"
	"github.com/zhouzirui/core-companion/backend/internal/service/ai"
	chatservice "github.com/zhouzirui/core-companion/backend/internal/service/chat"
	sessionstore "github.com/zhouzirui/core-companion/backend/internal/store/session"
)

type stubGateway struct {
	reply string
	err   error
}

func (g *stubGateway) Complete(context.Context, []chat.Turn) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

type placeholderTagger struct{}

func (placeholderTagger) Tags(context.Context, chat.History, string) ([]string, []string) {
	return tags.PlaceholderEmotions(), tags.PlaceholderTopics()
}

func setupRouter(gateway *stubGateway) (*chi.Mux, sessionstore.Store) {
	store := sessionstore.NewMemoryStore(nil)
	chatSvc := chatservice.NewService(gateway, store, placeholderTagger{})
	handler := New(chatSvc)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, store
}

func postChat(t *testing.T, r http.Handler, body string) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(resp.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("response is not a JSON object: %v (%s)", err, resp.Body.String())
	}
	return resp, decoded
}

func TestChatReturnsReplyAndHistory(t *testing.T) {
	r, _ := setupRouter(&stubGateway{reply: "That sounds hard."})

	resp, body := postChat(t, r, `{"message":"I feel anxious","history":[],"user_id":"u-1"}`)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if string(body["reply"]) != `"That sounds hard."` {
		t.Fatalf("unexpected reply %s", body["reply"])
	}
	if string(body["history"]) != `[["human","I feel anxious"],["assistant","That sounds hard."]]` {
		t.Fatalf("unexpected history %s", body["history"])
	}
}

func TestChatMissingMessageIsGenericError(t *testing.T) {
	r, _ := setupRouter(&stubGateway{reply: "unused"})

	resp, body := postChat(t, r, `{"history":[]}`)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	if _, ok := body["reply"]; ok {
		t.Fatal("error response must not carry reply")
	}
	if string(body["error"]) != `"`+chat.GenericErrorMessage+`"` {
		t.Fatalf("unexpected error %s", body["error"])
	}
	if len(body["details"]) == 0 {
		t.Fatal("expected details")
	}
}

func TestChatMalformedJSON(t *testing.T) {
	r, _ := setupRouter(&stubGateway{reply: "unused"})

	resp, body := postChat(t, r, `{"message":`)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	if _, ok := body["error"]; !ok {
		t.Fatal("expected error field")
	}
}

func TestChatGatewayFailureCreatesNoSession(t *testing.T) {
	r, store := setupRouter(&stubGateway{err: &ai.Failure{Kind: ai.FailureProvider, Message: "model call failed"}})

	resp, body := postChat(t, r, `{"message":"hello","user_id":"u-1"}`)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	if _, ok := body["reply"]; ok {
		t.Fatal("error response must not carry reply")
	}
	sessions, _ := store.ListByUser(context.Background(), "u-1")
	if len(sessions) != 0 {
		t.Fatalf("expected no sessions, got %d", len(sessions))
	}
}

func TestEndSessionThenListSessions(t *testing.T) {
	r, _ := setupRouter(&stubGateway{reply: "A gentle summary."})

	resp, body := postChat(t, r, `{"action":"end_session","user_id":"u-1","history":[["human","work is heavy"],["assistant","tell me more"]]}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", resp.Code, resp.Body.String())
	}
	if string(body["summary"]) != `"A gentle summary."` {
		t.Fatalf("unexpected summary %s", body["summary"])
	}
	var sessionID string
	if err := json.Unmarshal(body["session_id"], &sessionID); err != nil || sessionID == "" {
		t.Fatalf("expected session_id, got %s", body["session_id"])
	}
	var emotions []string
	_ = json.Unmarshal(body["emotions"], &emotions)
	if len(emotions) != len(tags.PlaceholderEmotions()) {
		t.Fatalf("unexpected emotions %v", emotions)
	}

	req := httptest.NewRequest(http.MethodGet, "/sessions?user_id=u-1", nil)
	listResp := httptest.NewRecorder()
	r.ServeHTTP(listResp, req)

	if listResp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", listResp.Code)
	}
	var sessions []chat.Session
	if err := json.Unmarshal(listResp.Body.Bytes(), &sessions); err != nil {
		t.Fatalf("decode sessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != sessionID {
		t.Fatalf("unexpected sessions %+v", sessions)
	}
	if sessions[0].EndTime == nil || len(sessions[0].Conversation) != 2 {
		t.Fatalf("unexpected session contents %+v", sessions[0])
	}
}

func TestEndSessionRequiresUser(t *testing.T) {
	r, _ := setupRouter(&stubGateway{reply: "summary"})

	resp, _ := postChat(t, r, `{"action":"end_session","history":[]}`)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
}

func TestListSessionsUnknownUserIsEmptyArray(t *testing.T) {
	r, _ := setupRouter(&stubGateway{reply: "unused"})

	for _, target := range []string{"/sessions?user_id=ghost", "/sessions"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)

		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", target, resp.Code)
		}
		if got := bytes.TrimSpace(resp.Body.Bytes()); string(got) != "[]" {
			t.Fatalf("%s: expected [], got %s", target, got)
		}
	}
}

func TestFailureKind(t *testing.T) {
	if got := failureKind(chat.ErrMessageRequired); got != "validation" {
		t.Fatalf("unexpected kind %s", got)
	}
	if got := failureKind(&ai.Failure{Kind: ai.FailureEmptyResponse}); got != "gateway_empty_response" {
		t.Fatalf("unexpected kind %s", got)
	}
}

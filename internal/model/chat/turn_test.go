package chat

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestTurnDecodesPairsAndObjects(t *testing.T) {
	var history History
	payload := `[["human","hi"],{"role":"user","content":"again"},["assistant","hello"]]`
	if err := json.Unmarshal([]byte(payload), &history); err != nil {
		t.Fatalf("unmarshal err: %v", err)
	}

	want := History{
		{Role: RoleHuman, Text: "hi"},
		{Role: RoleHuman, Text: "again"},
		{Role: RoleAssistant, Text: "hello"},
	}
	if len(history) != len(want) {
		t.Fatalf("expected %d turns, got %d", len(want), len(history))
	}
	for i := range want {
		if history[i] != want[i] {
			t.Fatalf("turn %d: got %+v want %+v", i, history[i], want[i])
		}
	}
}

func TestTurnRejectsUnknownRole(t *testing.T) {
	var history History
	err := json.Unmarshal([]byte(`[["narrator","once upon a time"]]`), &history)
	if !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestTurnRejectsShortPair(t *testing.T) {
	var turn Turn
	if err := json.Unmarshal([]byte(`["human"]`), &turn); err == nil {
		t.Fatal("expected error for single element turn")
	}
}

func TestHistoryMarshalsAsPairs(t *testing.T) {
	data, err := json.Marshal(History{{Role: RoleHuman, Text: "I feel anxious"}})
	if err != nil {
		t.Fatalf("marshal err: %v", err)
	}
	if string(data) != `[["human","I feel anxious"]]` {
		t.Fatalf("unexpected encoding: %s", data)
	}

	var empty History
	data, _ = json.Marshal(empty)
	if string(data) != "[]" {
		t.Fatalf("expected [] for nil history, got %s", data)
	}
}

func TestHistoryAppendDoesNotAlias(t *testing.T) {
	base := make(History, 1, 4)
	base[0] = Turn{Role: RoleHuman, Text: "a"}

	first := base.Append(Turn{Role: RoleAssistant, Text: "b"})
	second := base.Append(Turn{Role: RoleAssistant, Text: "c"})

	if first[1].Text != "b" || second[1].Text != "c" {
		t.Fatalf("appends share backing array: %v %v", first, second)
	}
	if len(base) != 1 {
		t.Fatalf("receiver modified: %v", base)
	}
}

func TestHistoryTranscript(t *testing.T) {
	h := History{
		{Role: RoleHuman, Text: "work is a lot"},
		{Role: RoleAssistant, Text: "tell me more"},
	}
	if got := h.Transcript(); got != "User: work is a lot\nAI: tell me more" {
		t.Fatalf("unexpected transcript: %q", got)
	}
}

package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRespondErrorOmitsEmptyDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, http.StatusInternalServerError, "boom", "")

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if body["error"] != "boom" {
		t.Fatalf("unexpected error %q", body["error"])
	}
	if _, ok := body["details"]; ok {
		t.Fatal("expected details to be omitted")
	}
}

func TestRespondErrorIncludesDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, http.StatusInternalServerError, "boom", "why")

	var body map[string]string
	_ = json.NewDecoder(rec.Body).Decode(&body)
	if body["details"] != "why" {
		t.Fatalf("unexpected details %q", body["details"])
	}
}

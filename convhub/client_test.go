package convhub

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGetConversation(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/conversations/abc" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(Conversation{
			ID:    "abc",
			Title: "Linkerd install",
			Model: "llama3.1:8b",
			Messages: []Message{
				{Role: "user", Content: "install linkerd"},
				{Role: "assistant", Content: "done"},
			},
		})
	}))
	defer ts.Close()

	conv, err := New(ts.URL).Get(context.Background(), "abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conv.ID != "abc" || len(conv.Messages) != 2 {
		t.Errorf("unexpected conversation: %+v", conv)
	}
}

func TestGetNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer ts.Close()

	_, err := New(ts.URL).Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMessagesNotFoundYieldsEmptyHistory(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer ts.Close()

	messages, err := New(ts.URL).Messages(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unknown conversation must yield empty history, got %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("expected no messages, got %v", messages)
	}
}

func TestEnsureSendsIDAndModel(t *testing.T) {
	var body map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/conversations/ensure" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(Conversation{ID: "abc"})
	}))
	defer ts.Close()

	if _, err := New(ts.URL).Ensure(context.Background(), "abc", "llama3.1:8b", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body["id"] != "abc" || body["model"] != "llama3.1:8b" {
		t.Errorf("unexpected body: %v", body)
	}
	if _, hasTitle := body["title"]; hasTitle {
		t.Error("empty title must be omitted")
	}
}

func TestAppendMessage(t *testing.T) {
	var body map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/conversations/abc/messages" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	if err := New(ts.URL).AppendMessage(context.Background(), "abc", "user", "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body["role"] != "user" || body["content"] != "hello" {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestServerErrorIncludesBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "storage exploded", http.StatusInternalServerError)
	}))
	defer ts.Close()

	_, err := New(ts.URL).List(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if got := err.Error(); !strings.Contains(got, "500") || !strings.Contains(got, "storage exploded") {
		t.Errorf("expected status and body in error, got %q", got)
	}
}

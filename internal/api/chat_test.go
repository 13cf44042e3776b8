package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/solarch-labs/advisor/internal/agent"
	"github.com/solarch-labs/advisor/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		LLMTimeout: 5 * time.Second,
		RateLimit: config.RateLimitConfig{
			RequestsPerWindow: 100,
			WindowDuration:    time.Minute,
		},
	}
}

func newChatServer(t *testing.T, model *fakeLLM, repo *memRepo, cfg *config.Config) http.Handler {
	t.Helper()
	svc := agent.NewService(model, "test knowledge")
	h := NewChatHandler(svc, repo, agent.NoopConversationLogger(), cfg)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func postJSON(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestHandleChatRequiresUserMessage(t *testing.T) {
	handler := newChatServer(t, &fakeLLM{reply: "unreached"}, newMemRepo(), testConfig())

	w := postJSON(t, handler, "/api/chat", `{"messages": [{"role": "assistant", "content": "hi"}]}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "No user message found") {
		t.Errorf("Expected validation message, got %s", w.Body.String())
	}
}

func TestHandleChatPersistsTranscript(t *testing.T) {
	repo := newMemRepo()
	handler := newChatServer(t, &fakeLLM{reply: "Use managed identity for service-to-service auth."}, repo, testConfig())

	w := postJSON(t, handler, "/api/chat", `{"messages": [{"role": "user", "content": "How should my services authenticate?"}]}`)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp["message"] != "Use managed identity for service-to-service auth." {
		t.Errorf("Unexpected message: %q", resp["message"])
	}
	if resp["conversation_id"] == "" {
		t.Fatal("Expected a conversation_id")
	}

	msgs, err := repo.GetMessages(context.Background(), resp["conversation_id"])
	if err != nil {
		t.Fatalf("GetMessages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("Expected 2 persisted messages, got %d", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[1].Role != "assistant" {
		t.Errorf("Unexpected roles: %s, %s", msgs[0].Role, msgs[1].Role)
	}
}

func TestHandleChatReusesConversation(t *testing.T) {
	repo := newMemRepo()
	handler := newChatServer(t, &fakeLLM{reply: "ok"}, repo, testConfig())

	w := postJSON(t, handler, "/api/chat", `{"messages": [{"role": "user", "content": "first"}]}`)
	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	id := resp["conversation_id"]

	w = postJSON(t, handler, "/api/chat",
		`{"conversation_id": "`+id+`", "messages": [{"role": "user", "content": "first"}, {"role": "assistant", "content": "ok"}, {"role": "user", "content": "second"}]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	msgs, _ := repo.GetMessages(context.Background(), id)
	if len(msgs) != 4 {
		t.Fatalf("Expected 4 persisted messages after two turns, got %d", len(msgs))
	}
}

func TestHandleChatUpstreamFailure(t *testing.T) {
	handler := newChatServer(t, &fakeLLM{completeErr: errors.New("upstream down")}, newMemRepo(), testConfig())

	w := postJSON(t, handler, "/api/chat", `{"messages": [{"role": "user", "content": "hello"}]}`)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("Expected status 502, got %d", w.Code)
	}
}

func TestHandleChatStreamEmitsChunksAndDone(t *testing.T) {
	repo := newMemRepo()
	handler := newChatServer(t, &fakeLLM{chunks: []string{"Hel", "lo"}}, repo, testConfig())

	w := postJSON(t, handler, "/api/chat/stream", `{"messages": [{"role": "user", "content": "hi"}]}`)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Expected text/event-stream, got %s", ct)
	}

	body := w.Body.String()
	if !strings.Contains(body, `data: {"chunk":"Hel"}`) {
		t.Errorf("Missing first chunk event in %q", body)
	}
	if !strings.Contains(body, `data: {"chunk":"lo"}`) {
		t.Errorf("Missing second chunk event in %q", body)
	}
	if !strings.Contains(body, "data: [DONE]") {
		t.Errorf("Missing [DONE] terminator in %q", body)
	}

	id := w.Header().Get("X-Conversation-ID")
	msgs, _ := repo.GetMessages(context.Background(), id)
	if len(msgs) != 2 {
		t.Fatalf("Expected 2 persisted messages, got %d", len(msgs))
	}
	if msgs[1].Content != "Hello" {
		t.Errorf("Expected assembled assistant content %q, got %q", "Hello", msgs[1].Content)
	}
}

func TestHandleChatStreamErrorReportedInBand(t *testing.T) {
	handler := newChatServer(t, &fakeLLM{chunks: []string{"par"}, streamErr: errors.New("cut off")}, newMemRepo(), testConfig())

	w := postJSON(t, handler, "/api/chat/stream", `{"messages": [{"role": "user", "content": "hi"}]}`)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 once streaming begins, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `"error"`) {
		t.Errorf("Expected in-band error event in %q", body)
	}
	if !strings.Contains(body, "data: [DONE]") {
		t.Errorf("Expected [DONE] terminator after error in %q", body)
	}
}

func TestHandleChatRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.RequestsPerWindow = 1
	handler := newChatServer(t, &fakeLLM{reply: "ok"}, newMemRepo(), cfg)

	body := `{"messages": [{"role": "user", "content": "hi"}]}`
	if w := postJSON(t, handler, "/api/chat", body); w.Code != http.StatusOK {
		t.Fatalf("First request should pass, got %d", w.Code)
	}
	if w := postJSON(t, handler, "/api/chat", body); w.Code != http.StatusTooManyRequests {
		t.Fatalf("Second request should be throttled, got %d", w.Code)
	}
}

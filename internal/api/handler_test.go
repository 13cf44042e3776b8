package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]string{"foo": "bar"}

	JSON(w, http.StatusOK, data)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	var got map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if got["foo"] != "bar" {
		t.Errorf("Expected foo=bar, got %v", got["foo"])
	}
}

func TestErrorWritesJSONBody(t *testing.T) {
	w := httptest.NewRecorder()

	Error(w, http.StatusTeapot, "nope")

	if w.Code != http.StatusTeapot {
		t.Errorf("Expected status 418, got %d", w.Code)
	}

	var got map[string]string
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if got["error"] != "nope" {
		t.Errorf("Expected error=nope, got %v", got["error"])
	}
}

func TestClientKeyStripsPort(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:54321"

	if key := clientKey(req); key != "10.0.0.7" {
		t.Errorf("Expected 10.0.0.7, got %s", key)
	}

	req.RemoteAddr = "bare-host"
	if key := clientKey(req); key != "bare-host" {
		t.Errorf("Expected bare-host passthrough, got %s", key)
	}
}

func TestRateLimiterEnforcesWindow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("First two requests should be allowed")
	}
	if rl.Allow("a") {
		t.Error("Third request within the window should be denied")
	}
	if !rl.Allow("b") {
		t.Error("Different key should have its own budget")
	}
}

func TestHealthReportsDatabaseState(t *testing.T) {
	repo := newMemRepo()
	h := NewHealthHandler(repo)
	r := chi.NewRouter()
	h.RegisterHealth(r)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	repo.pingErr = errors.New("db gone")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected status 503 when database is down, got %d", w.Code)
	}
}

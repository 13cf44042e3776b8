package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/solarch-labs/advisor/internal/review"
)

// ReviewHandler exposes the production readiness interview over HTTP.
type ReviewHandler struct {
	sessions   *review.Manager
	llmTimeout time.Duration
}

// NewReviewHandler creates a review handler. llmTimeout bounds every model
// call made during a turn; on expiry the engine's classifier fallbacks kick
// in rather than an error surfacing to the client.
func NewReviewHandler(sessions *review.Manager, llmTimeout time.Duration) *ReviewHandler {
	return &ReviewHandler{sessions: sessions, llmTimeout: llmTimeout}
}

// RegisterRoutes registers review routes.
func (h *ReviewHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/review", func(r chi.Router) {
		r.Post("/start", h.Start)
		r.Post("/{id}/message", h.Message)
		r.Get("/{id}/summary", h.Summary)
		r.Delete("/{id}", h.Delete)
	})
}

// StartReviewRequest is the body for POST /api/review/start.
type StartReviewRequest struct {
	Service string `json:"service"`
}

// Start opens a new review session seeded with one service.
func (h *ReviewHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req StartReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, greeting, err := h.sessions.Start(req.Service)
	if err != nil {
		if errors.Is(err, review.ErrEmptyService) {
			Error(w, http.StatusBadRequest, "service is required")
			return
		}
		slog.Error("Failed to start review session", "error", err)
		Error(w, http.StatusInternalServerError, "failed to start review")
		return
	}

	JSON(w, http.StatusCreated, map[string]any{
		"session_id": session.ID,
		"phase":      session.Phase,
		"message":    greeting,
	})
}

// ReviewMessageRequest is the body for POST /api/review/{id}/message.
type ReviewMessageRequest struct {
	Message string `json:"message"`
}

// Message runs one interview turn.
func (h *ReviewHandler) Message(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	var req ReviewMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.llmTimeout)
	defer cancel()

	reply, phase, err := h.sessions.HandleTurn(ctx, sessionID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, review.ErrSessionNotFound):
			Error(w, http.StatusNotFound, "review session not found")
		case errors.Is(err, review.ErrEmptyMessage):
			Error(w, http.StatusBadRequest, "message is required")
		default:
			slog.Error("Review turn failed", "error", err, "session_id", sessionID)
			Error(w, http.StatusInternalServerError, "review turn failed")
		}
		return
	}

	JSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"message":    reply,
		"phase":      phase,
	})
}

// Summary returns the current readiness report for a session.
func (h *ReviewHandler) Summary(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	report := h.sessions.Summary(sessionID)
	JSON(w, http.StatusOK, report)
}

// Delete discards a session.
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	h.sessions.Delete(sessionID)
	JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

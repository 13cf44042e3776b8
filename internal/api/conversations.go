package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/solarch-labs/advisor/internal/store"
)

// ConversationsHandler exposes stored chat transcripts.
type ConversationsHandler struct {
	repo store.Repository
}

// NewConversationsHandler creates a conversations handler.
func NewConversationsHandler(repo store.Repository) *ConversationsHandler {
	return &ConversationsHandler{repo: repo}
}

// RegisterRoutes registers conversation routes.
func (h *ConversationsHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/conversations", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Delete("/{id}", h.Delete)
	})
}

// List returns all conversations, most recently updated first.
func (h *ConversationsHandler) List(w http.ResponseWriter, r *http.Request) {
	convs, err := h.repo.ListConversations(r.Context())
	if err != nil {
		slog.Error("Failed to list conversations", "error", err)
		Error(w, http.StatusInternalServerError, "failed to list conversations")
		return
	}
	JSON(w, http.StatusOK, map[string]any{"conversations": convs})
}

// Get returns one conversation with its messages.
func (h *ConversationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	conv, err := h.repo.GetConversation(r.Context(), id)
	if err != nil {
		slog.Error("Failed to load conversation", "error", err, "conversation_id", id)
		Error(w, http.StatusInternalServerError, "failed to load conversation")
		return
	}
	if conv == nil {
		Error(w, http.StatusNotFound, "conversation not found")
		return
	}

	messages, err := h.repo.GetMessages(r.Context(), id)
	if err != nil {
		slog.Error("Failed to load messages", "error", err, "conversation_id", id)
		Error(w, http.StatusInternalServerError, "failed to load messages")
		return
	}

	JSON(w, http.StatusOK, map[string]any{
		"id":         conv.ID,
		"title":      conv.Title,
		"created_at": conv.CreatedAt,
		"updated_at": conv.UpdatedAt,
		"messages":   messages,
	})
}

// Delete removes a conversation and its messages.
func (h *ConversationsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	conv, err := h.repo.GetConversation(r.Context(), id)
	if err != nil {
		slog.Error("Failed to load conversation", "error", err, "conversation_id", id)
		Error(w, http.StatusInternalServerError, "failed to load conversation")
		return
	}
	if conv == nil {
		Error(w, http.StatusNotFound, "conversation not found")
		return
	}

	if err := h.repo.DeleteConversation(r.Context(), id); err != nil {
		slog.Error("Failed to delete conversation", "error", err, "conversation_id", id)
		Error(w, http.StatusInternalServerError, "failed to delete conversation")
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

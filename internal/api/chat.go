package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/solarch-labs/advisor/internal/agent"
	"github.com/solarch-labs/advisor/internal/config"
	"github.com/solarch-labs/advisor/internal/domain"
	"github.com/solarch-labs/advisor/internal/llm"
	"github.com/solarch-labs/advisor/internal/store"
)

const (
	defaultMaxRequestBodySize = 1 << 20 // 1 MiB
	maxTitleLength            = 80
)

// ChatMessage is a single message in a chat request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body for POST /api/chat and /api/chat/stream.
type ChatRequest struct {
	ConversationID string        `json:"conversation_id,omitempty"`
	Messages       []ChatMessage `json:"messages"`
}

// ChatHandler handles the free-form architect chat endpoints.
type ChatHandler struct {
	svc         *agent.Service
	repo        store.Repository
	rateLimiter *RateLimiter
	log         agent.ConversationLogger
	cfg         *config.Config
}

// NewChatHandler creates a chat handler.
func NewChatHandler(svc *agent.Service, repo store.Repository, convLog agent.ConversationLogger, cfg *config.Config) *ChatHandler {
	return &ChatHandler{
		svc:         svc,
		repo:        repo,
		rateLimiter: NewRateLimiter(cfg.RateLimit.RequestsPerWindow, cfg.RateLimit.WindowDuration),
		log:         convLog,
		cfg:         cfg,
	}
}

// RegisterRoutes registers chat routes.
func (h *ChatHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/chat", func(r chi.Router) {
		r.Post("/", h.HandleChat)
		r.Post("/stream", h.HandleChatStream)
	})
}

// HandleChat handles POST /api/chat requests.
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	req, history, ok := h.decodeChat(w, r)
	if !ok {
		return
	}

	conversationID, err := h.ensureConversation(r, req, history)
	if err != nil {
		slog.Error("Failed to persist conversation", "error", err)
		Error(w, http.StatusInternalServerError, "failed to persist conversation")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.LLMTimeout)
	defer cancel()

	reply, err := h.svc.Chat(ctx, history)
	if err != nil {
		slog.Error("Chat completion failed", "error", err, "conversation_id", conversationID)
		Error(w, http.StatusBadGateway, "model request failed")
		return
	}

	h.persistAssistantMessage(r, conversationID, reply, 0, false, "")
	JSON(w, http.StatusOK, map[string]string{
		"message":         reply,
		"conversation_id": conversationID,
	})
}

// HandleChatStream handles POST /api/chat/stream requests, streaming the
// assistant reply as SSE data lines and terminating with [DONE]. Errors that
// occur mid-stream are reported in-band because headers are already sent.
func (h *ChatHandler) HandleChatStream(w http.ResponseWriter, r *http.Request) {
	req, history, ok := h.decodeChat(w, r)
	if !ok {
		return
	}

	conversationID, err := h.ensureConversation(r, req, history)
	if err != nil {
		slog.Error("Failed to persist conversation", "error", err)
		Error(w, http.StatusInternalServerError, "failed to persist conversation")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Conversation-ID", conversationID)

	flusher, ok := w.(http.Flusher)
	if !ok {
		Error(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.LLMTimeout)
	defer cancel()

	var assistantContent strings.Builder
	streamChunks := 0
	partial := false
	streamErrMsg := ""

	for chunk, streamErr := range h.svc.ChatStream(ctx, history) {
		if streamErr != nil {
			partial = true
			streamErrMsg = streamErr.Error()
			slog.Error("Chat stream failed", "error", streamErr, "conversation_id", conversationID)
			if writeErr := writeSSEData(w, `{"error": "model request failed"}`); writeErr != nil {
				slog.Warn("failed to write SSE error event", "error", writeErr)
			}
			flusher.Flush()
			break
		}
		if chunk == "" {
			continue
		}
		streamChunks++
		assistantContent.WriteString(chunk)

		payload, marshalErr := json.Marshal(map[string]string{"chunk": chunk})
		if marshalErr != nil {
			slog.Warn("failed to marshal chat chunk", "error", marshalErr)
			continue
		}
		if writeErr := writeSSEData(w, string(payload)); writeErr != nil {
			slog.Warn("client disconnected mid-stream", "error", writeErr, "conversation_id", conversationID)
			partial = true
			streamErrMsg = writeErr.Error()
			break
		}
		flusher.Flush()
	}

	if writeErr := writeSSEData(w, "[DONE]"); writeErr == nil {
		flusher.Flush()
	}

	h.persistAssistantMessage(r, conversationID, assistantContent.String(), streamChunks, partial, streamErrMsg)
}

// decodeChat validates the request body and converts it into model history.
// It writes the error response itself when validation fails.
func (h *ChatHandler) decodeChat(w http.ResponseWriter, r *http.Request) (*ChatRequest, []llm.Message, bool) {
	if !h.rateLimiter.Allow(clientKey(r)) {
		Error(w, http.StatusTooManyRequests, "rate limit exceeded")
		return nil, nil, false
	}

	r.Body = http.MaxBytesReader(w, r.Body, defaultMaxRequestBodySize)

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return nil, nil, false
		}
		Error(w, http.StatusBadRequest, "invalid request body")
		return nil, nil, false
	}

	history := make([]llm.Message, 0, len(req.Messages))
	hasUser := false
	for _, m := range req.Messages {
		switch m.Role {
		case llm.RoleUser, llm.RoleAssistant:
		default:
			continue
		}
		if m.Role == llm.RoleUser && strings.TrimSpace(m.Content) != "" {
			hasUser = true
		}
		history = append(history, llm.Message{Role: m.Role, Content: m.Content})
	}
	if !hasUser {
		Error(w, http.StatusBadRequest, "No user message found")
		return nil, nil, false
	}
	return &req, history, true
}

// ensureConversation creates the transcript header on first contact and
// persists the latest user message.
func (h *ChatHandler) ensureConversation(r *http.Request, req *ChatRequest, history []llm.Message) (string, error) {
	ctx := r.Context()
	userMessage := lastUserMessage(history)

	conversationID := req.ConversationID
	switch {
	case conversationID == "":
		conversationID = uuid.NewString()
		if err := h.repo.CreateConversation(ctx, newConversation(conversationID, userMessage)); err != nil {
			return "", err
		}
	default:
		conv, err := h.repo.GetConversation(ctx, conversationID)
		if err != nil {
			return "", err
		}
		if conv == nil {
			if err := h.repo.CreateConversation(ctx, newConversation(conversationID, userMessage)); err != nil {
				return "", err
			}
		}
	}

	msg := &domain.StoredMessage{Role: llm.RoleUser, Content: userMessage, CreatedAt: time.Now().UTC()}
	if err := h.repo.AppendMessage(ctx, conversationID, msg); err != nil {
		return "", err
	}

	h.log.Log(agent.ConversationLogEvent{
		Timestamp:      time.Now().UTC().Format(time.RFC3339Nano),
		ConversationID: conversationID,
		Channel:        "chat_http",
		Direction:      "inbound",
		EventType:      "user_message",
		ContentRaw:     userMessage,
		Meta: map[string]any{
			"request_id": chiMiddleware.GetReqID(ctx),
		},
	})
	return conversationID, nil
}

func (h *ChatHandler) persistAssistantMessage(r *http.Request, conversationID, content string, streamChunks int, partial bool, streamErrMsg string) {
	if content != "" {
		msg := &domain.StoredMessage{Role: llm.RoleAssistant, Content: content, CreatedAt: time.Now().UTC()}
		if err := h.repo.AppendMessage(r.Context(), conversationID, msg); err != nil {
			slog.Error("Failed to persist assistant message", "error", err, "conversation_id", conversationID)
		}
	}
	h.log.Log(agent.ConversationLogEvent{
		Timestamp:      time.Now().UTC().Format(time.RFC3339Nano),
		ConversationID: conversationID,
		Channel:        "chat_http",
		Direction:      "outbound",
		EventType:      "assistant_message",
		ContentRaw:     content,
		Meta: map[string]any{
			"stream_chunks": streamChunks,
			"partial":       partial,
			"stream_error":  streamErrMsg,
			"request_id":    chiMiddleware.GetReqID(r.Context()),
		},
	})
}

// newConversation builds a transcript header titled after the opening message.
func newConversation(id, firstMessage string) *domain.Conversation {
	title := strings.TrimSpace(firstMessage)
	if title == "" {
		title = "New conversation"
	}
	if len(title) > maxTitleLength {
		title = title[:maxTitleLength]
	}
	now := time.Now().UTC()
	return &domain.Conversation{ID: id, Title: title, CreatedAt: now, UpdatedAt: now}
}

func lastUserMessage(history []llm.Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == llm.RoleUser {
			return history[i].Content
		}
	}
	return ""
}

func writeSSEData(w io.Writer, data string) error {
	_, err := fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}

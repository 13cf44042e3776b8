// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"

	"github.com/solarch-labs/advisor/internal/domain"
)

// Repository defines the interface for persisting chat transcripts. Review
// sessions are deliberately not persisted; they live in memory for the
// duration of the interview.
type Repository interface {
	// CreateConversation registers a new transcript header.
	CreateConversation(ctx context.Context, conv *domain.Conversation) error

	// GetConversation retrieves a conversation by ID, or nil when absent.
	GetConversation(ctx context.Context, id string) (*domain.Conversation, error)

	// ListConversations returns all conversations, most recently updated first.
	ListConversations(ctx context.Context) ([]*domain.Conversation, error)

	// DeleteConversation removes a conversation and its messages.
	DeleteConversation(ctx context.Context, id string) error

	// AppendMessage adds a message to a conversation and bumps its
	// updated_at timestamp.
	AppendMessage(ctx context.Context, conversationID string, msg *domain.StoredMessage) error

	// GetMessages returns a conversation's messages in insertion order.
	GetMessages(ctx context.Context, conversationID string) ([]*domain.StoredMessage, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}

// Package llm provides the model capability consumed by the chat service and
// the readiness-review engine.
package llm

import (
	"context"
	"iter"
)

// Message is a single chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Client defines the two capabilities the application needs from the hosted
// model: free-text completion and schema-constrained classification.
// Implementations must be safe for concurrent use.
type Client interface {
	// Complete returns one assistant reply for the given system prompt and
	// conversation history.
	Complete(ctx context.Context, systemPrompt string, messages []Message) (string, error)

	// CompleteStream yields the assistant reply chunk by chunk.
	CompleteStream(ctx context.Context, systemPrompt string, messages []Message) iter.Seq2[string, error]

	// Classify sends userText with an instruction prompt and unmarshals the
	// model's schema-constrained output into result. result must be a pointer
	// to a struct describing the expected shape.
	Classify(ctx context.Context, systemPrompt, userText, schemaName string, result any) error
}

// Package agent implements the solution-architect chat service.
package agent

import (
	"context"
	"iter"

	"github.com/solarch-labs/advisor/internal/llm"
	"github.com/solarch-labs/advisor/internal/prompts"
)

// Service answers free-form architect questions, seeding every completion
// with the core-knowledge system prompt.
type Service struct {
	client       llm.Client
	systemPrompt string
}

// NewService creates a chat service over the given model client.
func NewService(client llm.Client, knowledge string) *Service {
	return &Service{
		client:       client,
		systemPrompt: prompts.SolutionArchitect(knowledge),
	}
}

// Chat returns one assistant reply for the conversation history.
func (s *Service) Chat(ctx context.Context, history []llm.Message) (string, error) {
	return s.client.Complete(ctx, s.systemPrompt, history)
}

// ChatStream yields the assistant reply chunk by chunk.
func (s *Service) ChatStream(ctx context.Context, history []llm.Message) iter.Seq2[string, error] {
	return s.client.CompleteStream(ctx, s.systemPrompt, history)
}

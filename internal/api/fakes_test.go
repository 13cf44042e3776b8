package api

import (
	"context"
	"errors"
	"iter"
	"sort"
	"sync"

	"github.com/solarch-labs/advisor/internal/domain"
	"github.com/solarch-labs/advisor/internal/llm"
)

// fakeLLM returns canned completions without touching the network. With
// classifyBlock set, Classify hangs until the caller's context expires, for
// exercising timeout handling.
type fakeLLM struct {
	reply         string
	chunks        []string
	completeErr   error
	streamErr     error
	classifyFunc  func(schemaName string, result any) error
	classifyBlock bool
}

func (f *fakeLLM) Complete(_ context.Context, _ string, _ []llm.Message) (string, error) {
	if f.completeErr != nil {
		return "", f.completeErr
	}
	return f.reply, nil
}

func (f *fakeLLM) CompleteStream(_ context.Context, _ string, _ []llm.Message) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, c := range f.chunks {
			if !yield(c, nil) {
				return
			}
		}
		if f.streamErr != nil {
			yield("", f.streamErr)
		}
	}
}

func (f *fakeLLM) Classify(ctx context.Context, _, _, schemaName string, result any) error {
	if f.classifyBlock {
		<-ctx.Done()
		return ctx.Err()
	}
	if f.classifyFunc != nil {
		return f.classifyFunc(schemaName, result)
	}
	return errors.New("no classification configured")
}

// memRepo is an in-memory store.Repository for handler tests.
type memRepo struct {
	mu       sync.Mutex
	convs    map[string]*domain.Conversation
	messages map[string][]*domain.StoredMessage
	pingErr  error
}

func newMemRepo() *memRepo {
	return &memRepo{
		convs:    make(map[string]*domain.Conversation),
		messages: make(map[string][]*domain.StoredMessage),
	}
}

func (r *memRepo) CreateConversation(_ context.Context, conv *domain.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *conv
	r.convs[conv.ID] = &cp
	return nil
}

func (r *memRepo) GetConversation(_ context.Context, id string) (*domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.convs[id]
	if !ok {
		return nil, nil
	}
	cp := *conv
	return &cp, nil
}

func (r *memRepo) ListConversations(_ context.Context) ([]*domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Conversation, 0, len(r.convs))
	for _, conv := range r.convs {
		cp := *conv
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r *memRepo) DeleteConversation(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.convs, id)
	delete(r.messages, id)
	return nil
}

func (r *memRepo) AppendMessage(_ context.Context, conversationID string, msg *domain.StoredMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.convs[conversationID]; !ok {
		return errors.New("conversation does not exist")
	}
	cp := *msg
	r.messages[conversationID] = append(r.messages[conversationID], &cp)
	return nil
}

func (r *memRepo) GetMessages(_ context.Context, conversationID string) ([]*domain.StoredMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*domain.StoredMessage(nil), r.messages[conversationID]...), nil
}

func (r *memRepo) Ping(_ context.Context) error { return r.pingErr }

func (r *memRepo) Close() error { return nil }

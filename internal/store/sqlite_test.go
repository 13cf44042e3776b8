package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solarch-labs/advisor/internal/domain"
)

func newTestStore(t *testing.T) Repository {
	t.Helper()
	repo, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestConversationRoundTrip(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	conv := &domain.Conversation{ID: "conv-1", Title: "Getting Started", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.CreateConversation(ctx, conv))

	got, err := repo.GetConversation(ctx, "conv-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Getting Started", got.Title)

	missing, err := repo.GetConversation(ctx, "conv-404")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAppendAndListMessages(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, repo.CreateConversation(ctx, &domain.Conversation{ID: "conv-1", Title: "t", CreatedAt: now, UpdatedAt: now}))

	require.NoError(t, repo.AppendMessage(ctx, "conv-1", &domain.StoredMessage{Role: "user", Content: "hello"}))
	require.NoError(t, repo.AppendMessage(ctx, "conv-1", &domain.StoredMessage{Role: "assistant", Content: "hi there"}))

	msgs, err := repo.GetMessages(ctx, "conv-1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", msgs[0].Role)
	assert.Equal(t, "hello", msgs[0].Content)
	assert.Equal(t, "assistant", msgs[1].Role)
}

func TestAppendMessageUnknownConversation(t *testing.T) {
	repo := newTestStore(t)

	err := repo.AppendMessage(context.Background(), "conv-404", &domain.StoredMessage{Role: "user", Content: "hi"})
	require.Error(t, err)
}

func TestDeleteConversationRemovesMessages(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, repo.CreateConversation(ctx, &domain.Conversation{ID: "conv-1", Title: "t", CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, repo.AppendMessage(ctx, "conv-1", &domain.StoredMessage{Role: "user", Content: "hello"}))

	require.NoError(t, repo.DeleteConversation(ctx, "conv-1"))

	conv, err := repo.GetConversation(ctx, "conv-1")
	require.NoError(t, err)
	assert.Nil(t, conv)

	msgs, err := repo.GetMessages(ctx, "conv-1")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestListConversationsOrdersByRecency(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	old := time.Now().UTC().Add(-time.Hour)
	require.NoError(t, repo.CreateConversation(ctx, &domain.Conversation{ID: "old", Title: "old", CreatedAt: old, UpdatedAt: old}))
	now := time.Now().UTC()
	require.NoError(t, repo.CreateConversation(ctx, &domain.Conversation{ID: "new", Title: "new", CreatedAt: now, UpdatedAt: now}))

	convs, err := repo.ListConversations(ctx)
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, "new", convs[0].ID)
	assert.Equal(t, "old", convs[1].ID)
}

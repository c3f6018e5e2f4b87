package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/shelfgraph/internal/model"
)

func TestNotificationRepository_MarkReadScopedToRecipient(t *testing.T) {
	db := newTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	n := &model.Notification{RecipientID: "bob", ActorID: "alice", Type: model.NotifyFollow, Message: "alice started following you"}
	require.NoError(t, repo.Append(ctx, n))

	ok, err := repo.MarkRead(ctx, n.ID, "mallory")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.MarkRead(ctx, n.ID, "bob")
	require.NoError(t, err)
	assert.True(t, ok)

	unread, err := repo.Count(ctx, "bob", true)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestNotificationRepository_AppendBatchAndMarkAll(t *testing.T) {
	db := newTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	batch := make([]model.Notification, 5)
	for i := range batch {
		batch[i] = model.Notification{RecipientID: "bob", ActorID: "alice", Type: model.NotifyContentPublished, Message: "m"}
	}
	require.NoError(t, repo.AppendBatch(ctx, batch, 2))

	list, err := repo.List(ctx, "bob", true, 0, 3)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	n, err := repo.MarkAllRead(ctx, "bob")
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)
	total, err := repo.Count(ctx, "bob", false)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
}

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/shelfgraph/internal/model"
	"github.com/d60-Lab/shelfgraph/internal/repository"
)

func TestInboxService(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := repository.NewNotificationRepository(db)
	svc := NewInboxService(repo)

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Append(ctx, &model.Notification{RecipientID: "me", ActorID: "other", Type: model.NotifyFollow, Message: "hi"}))
	}
	require.NoError(t, repo.Append(ctx, &model.Notification{RecipientID: "other", ActorID: "me", Type: model.NotifyFollow, Message: "hi"}))

	n, err := svc.UnreadCount(ctx, "me")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	page, err := svc.List(ctx, "me", false, 0, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	require.Len(t, page.Items, 2)

	target := page.Items[0].ID
	assert.ErrorIs(t, svc.MarkRead(ctx, target, "other"), ErrNotFound, "cannot mark someone else's notification")
	require.NoError(t, svc.MarkRead(ctx, target, "me"))

	unread, err := svc.List(ctx, "me", true, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, unread.Total)

	updated, err := svc.MarkAllRead(ctx, "me")
	require.NoError(t, err)
	assert.EqualValues(t, 2, updated)

	n, err = svc.UnreadCount(ctx, "me")
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = svc.UnreadCount(ctx, "other")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = svc.List(ctx, "me", false, 0, 101)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

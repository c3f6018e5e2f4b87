package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/shelfgraph/internal/model"
)

func TestEngagementRepository_LikeOncePerUser(t *testing.T) {
	db := newTestDB(t)
	repo := NewEngagementRepository(db)
	ctx := context.Background()

	added, err := repo.AddLike(ctx, "c1", "u1")
	require.NoError(t, err)
	assert.True(t, added)
	added, err = repo.AddLike(ctx, "c1", "u1")
	require.NoError(t, err)
	assert.False(t, added)

	removed, err := repo.RemoveLike(ctx, "c1", "u1")
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = repo.RemoveLike(ctx, "c1", "u1")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestEngagementRepository_DeleteCommentRemovesReplies(t *testing.T) {
	db := newTestDB(t)
	repo := NewEngagementRepository(db)
	ctx := context.Background()

	top := &model.Comment{ContentID: "c1", AuthorID: "u1", Body: "top"}
	require.NoError(t, repo.CreateComment(ctx, top))
	for i := 0; i < 2; i++ {
		require.NoError(t, repo.CreateComment(ctx, &model.Comment{ContentID: "c1", AuthorID: "u2", ParentID: &top.ID, Body: "reply"}))
	}
	other := &model.Comment{ContentID: "c1", AuthorID: "u3", Body: "other"}
	require.NoError(t, repo.CreateComment(ctx, other))

	n, err := repo.CountTopLevel(ctx, "c1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	replies, err := repo.ListReplies(ctx, []string{top.ID, other.ID})
	require.NoError(t, err)
	assert.Len(t, replies, 2)

	deleted, err := repo.DeleteComment(ctx, top.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, deleted)

	left, err := repo.ListTopLevel(ctx, "c1", 0, 10)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, other.ID, left[0].ID)
}

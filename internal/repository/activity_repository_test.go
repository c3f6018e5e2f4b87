package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/shelfgraph/internal/model"
)

var activityBase = time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

func seedActivity(t *testing.T, db *gorm.DB, id, userID string, typ model.ActivityType, followersOnly bool, minute int) {
	t.Helper()
	require.NoError(t, NewActivityRepository(db).Append(context.Background(), &model.Activity{
		ID:            id,
		UserID:        userID,
		Type:          typ,
		FollowersOnly: followersOnly,
		CreatedAt:     activityBase.Add(time.Duration(minute) * time.Minute),
	}))
}

func activityIDs(list []*model.Activity) []string {
	out := make([]string, len(list))
	for i, a := range list {
		out[i] = a.ID
	}
	return out
}

func TestActivityRepository_ByUser(t *testing.T) {
	db := newTestDB(t)
	repo := NewActivityRepository(db)
	ctx := context.Background()
	seedUser(t, db, "alice", true)
	seedActivity(t, db, "a1", "alice", model.ActivityFinishedBook, false, 1)
	seedActivity(t, db, "a2", "alice", model.ActivityWroteReflection, true, 2)
	seedActivity(t, db, "a3", "alice", model.ActivityFollowedUser, false, 3)

	all, err := repo.ListByUser(ctx, "alice", true, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"a3", "a2", "a1"}, activityIDs(all))

	public, err := repo.ListByUser(ctx, "alice", false, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"a3", "a1"}, activityIDs(public))

	n, err := repo.CountByUser(ctx, "alice", false)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	page, err := repo.ListByUser(ctx, "alice", true, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a2"}, activityIDs(page))
}

func TestActivityRepository_Feed(t *testing.T) {
	db := newTestDB(t)
	repo := NewActivityRepository(db)
	ctx := context.Background()
	seedUser(t, db, "friend", true)
	seedUser(t, db, "secret", false)
	seedUser(t, db, "stranger", true)
	seedUser(t, db, "hidden", false)

	seedActivity(t, db, "f-book", "friend", model.ActivityFinishedBook, false, 1)
	seedActivity(t, db, "f-follow", "friend", model.ActivityFollowedUser, false, 2)
	seedActivity(t, db, "s-fo", "secret", model.ActivityWroteReflection, true, 3)
	seedActivity(t, db, "x-review", "stranger", model.ActivityWroteReview, false, 4)
	seedActivity(t, db, "x-fo", "stranger", model.ActivityWroteReview, true, 5)
	seedActivity(t, db, "x-follow", "stranger", model.ActivityFollowedUser, false, 6)
	seedActivity(t, db, "h-book", "hidden", model.ActivityFinishedBook, false, 7)

	// 关注 friend 与私密的 secret：关注对象的仅粉丝可见动态可见，陌生人只出公开读书动态
	feed, err := repo.ListFeed(ctx, []string{"friend", "secret"}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"x-review", "s-fo", "f-book"}, activityIDs(feed))
	n, err := repo.CountFeed(ctx, []string{"friend", "secret"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	// 未关注任何人：只有公开账号的公开读书动态
	feed, err = repo.ListFeed(ctx, nil, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"x-review", "f-book"}, activityIDs(feed))
	n, err = repo.CountFeed(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	feed, err = repo.ListFeed(ctx, nil, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"f-book"}, activityIDs(feed))
}

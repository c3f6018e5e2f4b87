package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/shelfgraph/internal/model"
	"github.com/d60-Lab/shelfgraph/internal/repository"
)

func TestCountReconciler_FixesDrift(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	users := repository.NewUserRepository(db)
	follows := repository.NewFollowRepository(db)
	for _, id := range []string{"a", "b", "c", "d"} {
		seedUser(t, db, id, true)
	}
	follow(t, db, "a", "b")
	follow(t, db, "c", "b")

	// 人为制造漂移：一条边没有计数，一条计数没有边
	_, err := follows.Create(ctx, "d", "b")
	require.NoError(t, err)
	require.NoError(t, db.Model(&model.User{}).Where("id = ?", "a").UpdateColumn("follower_count", 7).Error)

	// batchSize 1 覆盖分页
	r := NewCountReconciler(users, 1, 0)
	fixed, err := r.ReconcileOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, fixed)

	for id, want := range map[string][2]int64{"a": {0, 1}, "b": {3, 0}, "c": {0, 1}, "d": {0, 1}} {
		u, err := users.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want[0], u.FollowerCount, id)
		assert.Equal(t, want[1], u.FollowingCount, id)
	}

	fixed, err = r.ReconcileOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, fixed)
}

// followDuringScan 在列出一批用户之后、写回之前插入一条关注，模拟并发的 FollowUser
type followDuringScan struct {
	repository.UserRepository
	db   *gorm.DB
	done bool
}

func (f *followDuringScan) ListIDs(ctx context.Context, afterID string, limit int) ([]string, error) {
	ids, err := f.UserRepository.ListIDs(ctx, afterID, limit)
	if err == nil && !f.done {
		f.done = true
		err = f.db.Transaction(func(tx *gorm.DB) error {
			if _, err := repository.NewFollowRepository(tx).Create(ctx, "late", "star"); err != nil {
				return err
			}
			return repository.NewUserRepository(tx).AdjustFollowCounts(ctx, "late", "star", 1)
		})
	}
	return ids, err
}

func TestCountReconciler_KeepsFollowsCommittedDuringPass(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	users := repository.NewUserRepository(db)
	for _, id := range []string{"early", "late", "star"} {
		seedUser(t, db, id, true)
	}
	follow(t, db, "early", "star")

	r := NewCountReconciler(&followDuringScan{UserRepository: users, db: db}, 10, 0)
	fixed, err := r.ReconcileOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, fixed)

	star, err := users.Get(ctx, "star")
	require.NoError(t, err)
	edges, err := repository.NewFollowRepository(db).CountFollowers(ctx, "star")
	require.NoError(t, err)
	assert.EqualValues(t, 2, edges)
	assert.Equal(t, edges, star.FollowerCount)
}

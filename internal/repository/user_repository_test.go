package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/shelfgraph/internal/model"
)

func TestUserRepository_PrivateFlagIsStored(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	seedUser(t, db, "private", false)
	seedUser(t, db, "public", true)

	pub, err := repo.IsPublic(ctx, "private")
	require.NoError(t, err)
	assert.False(t, pub)
	pub, err = repo.IsPublic(ctx, "public")
	require.NoError(t, err)
	assert.True(t, pub)
}

func TestUserRepository_AdjustFollowCountsFloorsAtZero(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	seedUsers(t, db, 2)

	require.NoError(t, repo.AdjustFollowCounts(ctx, "u0000", "u0001", 1))
	require.NoError(t, repo.AdjustFollowCounts(ctx, "u0000", "u0001", -1))
	require.NoError(t, repo.AdjustFollowCounts(ctx, "u0000", "u0001", -1))

	a, err := repo.Get(ctx, "u0000")
	require.NoError(t, err)
	b, err := repo.Get(ctx, "u0001")
	require.NoError(t, err)
	assert.Zero(t, a.FollowingCount)
	assert.Zero(t, b.FollowerCount)
}

func TestUserRepository_IDsByUsernamesIgnoresUnknown(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	seedUsers(t, db, 2)

	got, err := repo.IDsByUsernames(context.Background(), []string{"u0001", "nobody"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"u0001": "u0001"}, got)
}

func TestUserRepository_ListIDsKeyset(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	ids := seedUsers(t, db, 5)

	first, err := repo.ListIDs(ctx, "", 3)
	require.NoError(t, err)
	assert.Equal(t, ids[:3], first)
	rest, err := repo.ListIDs(ctx, first[2], 3)
	require.NoError(t, err)
	assert.Equal(t, ids[3:], rest)
}

func TestUserRepository_IsPublicDefaultsToTrue(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Exec("INSERT INTO users (id, username) VALUES (?, ?)", "raw", "raw").Error)
	pub, err := repo.IsPublic(ctx, "raw")
	require.NoError(t, err)
	assert.True(t, pub, "column default")

	u := &model.User{ID: "closed", Username: "closed", IsPublic: false}
	require.NoError(t, repo.Create(ctx, u))
	assert.False(t, u.IsPublic)
	pub, err = repo.IsPublic(ctx, "closed")
	require.NoError(t, err)
	assert.False(t, pub, "explicit false survives the default")
}

func TestUserRepository_RecomputeCounts(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	follows := NewFollowRepository(db)
	ctx := context.Background()
	ids := seedUsers(t, db, 3)

	for _, f := range ids[1:] {
		_, err := follows.Create(ctx, f, ids[0])
		require.NoError(t, err)
	}
	require.NoError(t, db.Model(&model.User{}).Where("id = ?", ids[1]).UpdateColumn("follower_count", 9).Error)

	fixed, err := repo.RecomputeCounts(ctx, ids)
	require.NoError(t, err)
	assert.EqualValues(t, 3, fixed, "u0000 followers, u0001 both, u0002 following")

	for id, want := range map[string][2]int64{ids[0]: {2, 0}, ids[1]: {0, 1}, ids[2]: {0, 1}} {
		u, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want[0], u.FollowerCount, id)
		assert.Equal(t, want[1], u.FollowingCount, id)
	}

	fixed, err = repo.RecomputeCounts(ctx, ids)
	require.NoError(t, err)
	assert.Zero(t, fixed, "consistent rows are left alone")

	fixed, err = repo.RecomputeCounts(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, fixed)
}

package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/d60-Lab/shelfgraph/internal/model"
	"github.com/d60-Lab/shelfgraph/internal/repository"
)

func newTestDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// 内存库按连接隔离，只保留一个连接
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(model.All()...))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func seedUser(t testing.TB, db *gorm.DB, id string, public bool) *model.User {
	t.Helper()
	u := &model.User{ID: id, Username: id, IsPublic: public}
	require.NoError(t, repository.NewUserRepository(db).Create(context.Background(), u))
	return u
}

func seedContent(t testing.TB, db *gorm.DB, c model.Content) *model.Content {
	t.Helper()
	if c.Kind == "" {
		c.Kind = model.KindReview
	}
	if c.Body == "" {
		c.Body = "body"
	}
	require.NoError(t, repository.NewContentRepository(db).Create(context.Background(), &c))
	return &c
}

func follow(t testing.TB, db *gorm.DB, follower, followee string) {
	t.Helper()
	ctx := context.Background()
	inserted, err := repository.NewFollowRepository(db).Create(ctx, follower, followee)
	require.NoError(t, err)
	if inserted {
		require.NoError(t, repository.NewUserRepository(db).AdjustFollowCounts(ctx, follower, followee, 1))
	}
}

func notificationsFor(t testing.TB, db *gorm.DB, recipient string) []*model.Notification {
	t.Helper()
	list, err := repository.NewNotificationRepository(db).List(context.Background(), recipient, false, 0, 100)
	require.NoError(t, err)
	return list
}

func fixedClock(at time.Time) func() time.Time { return func() time.Time { return at } }

// recordingInvalidator 记录被失效的用户
type recordingInvalidator struct {
	mu  sync.Mutex
	ids []string
}

func (r *recordingInvalidator) Invalidate(_ context.Context, userIDs ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, userIDs...)
	return nil
}

func (r *recordingInvalidator) Invalidated() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids...)
}

// recordingSender 代替 Kafka producer
type recordingSender struct {
	mu     sync.Mutex
	keys   []string
	values [][]byte
}

func (s *recordingSender) Send(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = append(s.keys, key)
	s.values = append(s.values, value)
	return nil
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.values)
}

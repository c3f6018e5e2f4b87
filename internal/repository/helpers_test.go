package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/d60-Lab/shelfgraph/internal/model"
)

// newTestDB 每个测试独立的内存库；单连接保证所有语句看到同一个库
func newTestDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(model.All()...))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func seedUser(t testing.TB, db *gorm.DB, id string, public bool) *model.User {
	t.Helper()
	u := &model.User{ID: id, Username: id, IsPublic: public}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), u))
	return u
}

func seedUsers(t testing.TB, db *gorm.DB, n int) []string {
	t.Helper()
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("u%04d", i)
		seedUser(t, db, ids[i], true)
	}
	return ids
}

package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/shelfgraph/internal/model"
)

// UserRepository 用户目录：可见性、存在性与冗余计数
type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	Get(ctx context.Context, id string) (*model.User, error)
	Exists(ctx context.Context, id string) (bool, error)
	IsPublic(ctx context.Context, id string) (bool, error)
	// IDsByUsernames 返回 username -> id，不存在的用户名被忽略
	IDsByUsernames(ctx context.Context, usernames []string) (map[string]string, error)
	// AdjustFollowCounts 原子地调整 follower 的 following_count 与 followee 的 follower_count，下限为 0
	AdjustFollowCounts(ctx context.Context, followerID, followeeID string, delta int64) error
	// ListIDs 按 id 升序的 keyset 分页
	ListIDs(ctx context.Context, afterID string, limit int) ([]string, error)
	// RecomputeCounts 在单条 UPDATE 内用 follows 表重算计数，只改动不一致的行，返回修正行数
	RecomputeCounts(ctx context.Context, ids []string) (int64, error)
}

type userRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &userRepository{db: db} }

// Create gorm 会把零值 false 替换成列默认值 true，私密账号需要在同一事务里改回
func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	public := u.IsPublic
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(u).Error; err != nil {
			return err
		}
		if public {
			return nil
		}
		u.IsPublic = false
		return tx.Model(&model.User{}).Where("id = ?", u.ID).UpdateColumn("is_public", false).Error
	})
}

func (r *userRepository) Get(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) Exists(ctx context.Context, id string) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Count(&cnt).Error
	return cnt > 0, err
}

func (r *userRepository) IsPublic(ctx context.Context, id string) (bool, error) {
	u, err := r.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return u.IsPublic, nil
}

func (r *userRepository) IDsByUsernames(ctx context.Context, usernames []string) (map[string]string, error) {
	out := make(map[string]string, len(usernames))
	if len(usernames) == 0 {
		return out, nil
	}
	var rows []model.User
	if err := r.db.WithContext(ctx).Select("id", "username").
		Where("username IN ?", usernames).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, u := range rows {
		out[u.Username] = u.ID
	}
	return out, nil
}

func (r *userRepository) AdjustFollowCounts(ctx context.Context, followerID, followeeID string, delta int64) error {
	db := r.db.WithContext(ctx)
	if err := db.Model(&model.User{}).Where("id = ?", followerID).
		UpdateColumn("following_count", clampedAdd("following_count", delta)).Error; err != nil {
		return err
	}
	return db.Model(&model.User{}).Where("id = ?", followeeID).
		UpdateColumn("follower_count", clampedAdd("follower_count", delta)).Error
}

func (r *userRepository) ListIDs(ctx context.Context, afterID string, limit int) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id > ?", afterID).
		Order("id ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

const (
	actualFollowers = "(SELECT COUNT(*) FROM follows WHERE follows.followee_id = users.id)"
	actualFollowing = "(SELECT COUNT(*) FROM follows WHERE follows.follower_id = users.id)"
)

func (r *userRepository) RecomputeCounts(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id IN ?", ids).
		Where("(follower_count <> " + actualFollowers + " OR following_count <> " + actualFollowing + ")").
		UpdateColumns(map[string]any{
			"follower_count":  gorm.Expr(actualFollowers),
			"following_count": gorm.Expr(actualFollowing),
		})
	return res.RowsAffected, res.Error
}

// clampedAdd 生成 col + delta 的原子表达式，结果不小于 0（postgres 与 sqlite 通用）
func clampedAdd(col string, delta int64) clause.Expr {
	return gorm.Expr("CASE WHEN "+col+" + ? < 0 THEN 0 ELSE "+col+" + ? END", delta, delta)
}

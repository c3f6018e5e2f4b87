package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/shelfgraph/internal/model"
)

// feedActivityTypes 进入动态流的类型；关注行为只出现在个人主页
var feedActivityTypes = []string{
	string(model.ActivityFinishedBook),
	string(model.ActivityWroteReview),
	string(model.ActivityWroteReflection),
}

// ActivityRepository 用户动态
type ActivityRepository interface {
	Append(ctx context.Context, a *model.Activity) error
	// ListByUser withFollowersOnly 为 false 时排除仅粉丝可见的动态
	ListByUser(ctx context.Context, userID string, withFollowersOnly bool, offset, limit int) ([]*model.Activity, error)
	CountByUser(ctx context.Context, userID string, withFollowersOnly bool) (int64, error)
	// ListFeed 关注对象的读书动态，加上其他公开账号的公开读书动态
	ListFeed(ctx context.Context, followingIDs []string, offset, limit int) ([]*model.Activity, error)
	CountFeed(ctx context.Context, followingIDs []string) (int64, error)
}

type activityRepository struct{ db *gorm.DB }

func NewActivityRepository(db *gorm.DB) ActivityRepository { return &activityRepository{db: db} }

func (r *activityRepository) Append(ctx context.Context, a *model.Activity) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *activityRepository) byUser(ctx context.Context, userID string, withFollowersOnly bool) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.Activity{}).Where("user_id = ?", userID)
	if !withFollowersOnly {
		q = q.Where("followers_only = ?", false)
	}
	return q
}

func (r *activityRepository) ListByUser(ctx context.Context, userID string, withFollowersOnly bool, offset, limit int) ([]*model.Activity, error) {
	var res []*model.Activity
	err := r.byUser(ctx, userID, withFollowersOnly).
		Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&res).Error
	return res, err
}

func (r *activityRepository) CountByUser(ctx context.Context, userID string, withFollowersOnly bool) (int64, error) {
	var n int64
	err := r.byUser(ctx, userID, withFollowersOnly).Count(&n).Error
	return n, err
}

// feed 空关注集合时 NOT IN () 会被渲染成 NOT IN (NULL)，只能单独走公开分支
func (r *activityRepository) feed(ctx context.Context, followingIDs []string) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.Activity{}).
		Joins("JOIN users ON users.id = activities.user_id")
	public := "(users.is_public = ? AND activities.followers_only = ? AND activities.type IN ?)"
	if len(followingIDs) == 0 {
		return q.Where(public, true, false, feedActivityTypes)
	}
	return q.Where("((activities.user_id IN ? AND activities.type IN ?) OR (activities.user_id NOT IN ? AND "+public+"))",
		followingIDs, feedActivityTypes, followingIDs, true, false, feedActivityTypes)
}

func (r *activityRepository) ListFeed(ctx context.Context, followingIDs []string, offset, limit int) ([]*model.Activity, error) {
	var res []*model.Activity
	err := r.feed(ctx, followingIDs).
		Order("activities.created_at DESC, activities.id DESC").Offset(offset).Limit(limit).Find(&res).Error
	return res, err
}

func (r *activityRepository) CountFeed(ctx context.Context, followingIDs []string) (int64, error) {
	var n int64
	err := r.feed(ctx, followingIDs).Count(&n).Error
	return n, err
}

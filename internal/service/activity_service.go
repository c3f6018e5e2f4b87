package service

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/shelfgraph/internal/model"
	"github.com/d60-Lab/shelfgraph/internal/repository"
)

// ActivityRecorder 写入用户动态，关注与发布在提交后调用
type ActivityRecorder interface {
	Record(ctx context.Context, a *model.Activity) error
}

// ActivityService 用户动态：记录、动态流、个人主页
type ActivityService struct {
	activities repository.ActivityRepository
	users      repository.UserRepository
	follows    repository.FollowRepository
	following  FollowingSource
	now        func() time.Time
}

// NewActivityService following 为 nil 时直接查 follows 表
func NewActivityService(db *gorm.DB, following FollowingSource) *ActivityService {
	follows := repository.NewFollowRepository(db)
	if following == nil {
		following = follows
	}
	return &ActivityService{
		activities: repository.NewActivityRepository(db),
		users:      repository.NewUserRepository(db),
		follows:    follows,
		following:  following,
		now:        time.Now,
	}
}

// Record s 为 nil 时忽略
func (s *ActivityService) Record(ctx context.Context, a *model.Activity) error {
	if s == nil {
		return nil
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}
	return s.activities.Append(ctx, a)
}

// Feed 关注对象的读书动态加公开账号的发现内容，最新在前；没有关注时只看公开动态
func (s *ActivityService) Feed(ctx context.Context, viewerID string, page, size int) (Page[*model.Activity], error) {
	if err := checkPage(page, size, maxListSize); err != nil {
		return Page[*model.Activity]{}, err
	}
	ids, err := s.following.FollowingIDs(ctx, viewerID)
	if err != nil {
		return Page[*model.Activity]{}, err
	}
	total, err := s.activities.CountFeed(ctx, ids)
	if err != nil {
		return Page[*model.Activity]{}, err
	}
	items, err := s.activities.ListFeed(ctx, ids, page*size, size)
	if err != nil {
		return Page[*model.Activity]{}, err
	}
	return Page[*model.Activity]{Items: items, Page: page, Size: size, Total: total}, nil
}

// UserActivities 个人主页动态。私密账号只对本人和粉丝可见，
// 仅粉丝可见的动态对非粉丝隐藏。
func (s *ActivityService) UserActivities(ctx context.Context, viewerID, ownerID string, page, size int) (Page[*model.Activity], error) {
	if err := checkPage(page, size, maxListSize); err != nil {
		return Page[*model.Activity]{}, err
	}
	trusted, err := profileAccess(ctx, s.users, s.follows, viewerID, ownerID)
	if err != nil {
		return Page[*model.Activity]{}, err
	}
	total, err := s.activities.CountByUser(ctx, ownerID, trusted)
	if err != nil {
		return Page[*model.Activity]{}, err
	}
	items, err := s.activities.ListByUser(ctx, ownerID, trusted, page*size, size)
	if err != nil {
		return Page[*model.Activity]{}, err
	}
	return Page[*model.Activity]{Items: items, Page: page, Size: size, Total: total}, nil
}

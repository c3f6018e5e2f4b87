package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/shelfgraph/internal/model"
	"github.com/d60-Lab/shelfgraph/internal/repository"
	"github.com/d60-Lab/shelfgraph/pkg/metrics"
	"github.com/d60-Lab/shelfgraph/pkg/monitor"
)

// FollowOutcome 关注操作的软结果，重复请求不是错误
type FollowOutcome string

const (
	Followed         FollowOutcome = "followed"
	RequestSent      FollowOutcome = "requested"
	AlreadyFollowing FollowOutcome = "already_following"
	AlreadyRequested FollowOutcome = "already_requested"
)

// RelationStatus viewer 与 target 的关系
type RelationStatus string

const (
	StatusFollowing RelationStatus = "following"
	StatusRequested RelationStatus = "requested"
	StatusNone      RelationStatus = "none"
)

// RelationshipService 关系链服务：关注 / 取关 / 申请 / 审批的状态机
type RelationshipService interface {
	FollowUser(ctx context.Context, followerID, targetID string) (FollowOutcome, error)
	UnfollowUser(ctx context.Context, followerID, targetID string) error
	CancelFollowRequest(ctx context.Context, requesterID, targetID string) error
	ApproveFollowRequest(ctx context.Context, requestID, approverID string) error
	RejectFollowRequest(ctx context.Context, requestID, approverID string) error
	ListPendingRequests(ctx context.Context, userID string, page, size int) (Page[*model.FollowRequest], error)
	CountPendingRequests(ctx context.Context, userID string) (int64, error)
	// ListFollowing/ListFollowers 私密账号只对本人和粉丝可见
	ListFollowing(ctx context.Context, viewerID, userID string, page, size int) (Page[string], error)
	ListFollowers(ctx context.Context, viewerID, userID string, page, size int) (Page[string], error)
	RelationStatus(ctx context.Context, viewerID, targetID string) (RelationStatus, error)
}

// Invalidator 图变更后失效 viewer 的关注集合缓存
type Invalidator interface {
	Invalidate(ctx context.Context, userIDs ...string) error
}

const maxListSize = 100

type relationshipService struct {
	db         *gorm.DB
	users      repository.UserRepository
	follows    repository.FollowRepository
	requests   repository.FollowRequestRepository
	dispatcher *Dispatcher
	cache      Invalidator
	relay      *EventRelay
	activities ActivityRecorder
	now        func() time.Time
}

// NewRelationshipService cache、relay、activities 都可以为 nil
func NewRelationshipService(db *gorm.DB, dispatcher *Dispatcher, cache Invalidator, relay *EventRelay, activities ActivityRecorder) RelationshipService {
	return &relationshipService{
		db:         db,
		users:      repository.NewUserRepository(db),
		follows:    repository.NewFollowRepository(db),
		requests:   repository.NewFollowRequestRepository(db),
		dispatcher: dispatcher,
		cache:      cache,
		relay:      relay,
		activities: activities,
		now:        time.Now,
	}
}

func (s *relationshipService) FollowUser(ctx context.Context, followerID, targetID string) (FollowOutcome, error) {
	if followerID == targetID {
		return "", ErrSelfFollow
	}
	follower, err := s.users.Get(ctx, followerID)
	if err != nil {
		return "", notFound(err, "user")
	}
	target, err := s.users.Get(ctx, targetID)
	if err != nil {
		return "", notFound(err, "user to follow")
	}

	following, err := s.follows.Exists(ctx, followerID, targetID)
	if err != nil {
		return "", err
	}
	if following {
		return s.outcome("follow", AlreadyFollowing), nil
	}
	pending, err := s.requests.ExistsPending(ctx, followerID, targetID)
	if err != nil {
		return "", err
	}
	if pending {
		return s.outcome("follow", AlreadyRequested), nil
	}

	if target.IsPublic {
		inserted, err := s.createEdge(ctx, followerID, targetID)
		if err != nil {
			return "", err
		}
		if !inserted {
			return s.outcome("follow", AlreadyFollowing), nil
		}
		s.graphChanged(ctx, GraphEvent{Type: EventFollow, ActorID: followerID, TargetID: targetID}, followerID)
		s.sideEffect(ctx, "notify_follow", s.dispatcher.Follow(ctx, follower, targetID))
		s.recordFollow(ctx, followerID, targetID)
		return s.outcome("follow", Followed), nil
	}

	req, created, err := s.requests.CreatePending(ctx, followerID, targetID)
	if err != nil {
		return "", err
	}
	if !created {
		if req.IsPending() {
			return s.outcome("follow", AlreadyRequested), nil
		}
		// 终态行（已通过 / 已拒绝）重新申请时复用并重置为 pending
		reset, err := s.requests.ResetToPending(ctx, req.ID, s.now())
		if err != nil {
			return "", err
		}
		if !reset {
			return s.outcome("follow", AlreadyRequested), nil
		}
	}
	s.graphChanged(ctx, GraphEvent{Type: EventFollowRequested, ActorID: followerID, TargetID: targetID, RequestID: req.ID})
	s.sideEffect(ctx, "notify_follow_request", s.dispatcher.FollowRequest(ctx, follower, targetID, req.ID))
	return s.outcome("follow", RequestSent), nil
}

func (s *relationshipService) UnfollowUser(ctx context.Context, followerID, targetID string) error {
	for _, id := range []string{followerID, targetID} {
		ok, err := s.users.Exists(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("user %s: %w", id, ErrNotFound)
		}
	}

	var removed bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		removed, err = repository.NewFollowRepository(tx).Delete(ctx, followerID, targetID)
		if err != nil {
			return err
		}
		if removed {
			if err := repository.NewUserRepository(tx).AdjustFollowCounts(ctx, followerID, targetID, -1); err != nil {
				return err
			}
		}
		// 同时清理该 pair 上残留的申请行
		_, err = repository.NewFollowRequestRepository(tx).DeleteByPair(ctx, followerID, targetID)
		return err
	})
	if err != nil {
		return err
	}
	if removed {
		s.graphChanged(ctx, GraphEvent{Type: EventUnfollow, ActorID: followerID, TargetID: targetID}, followerID)
		metrics.GraphMutations.WithLabelValues("unfollow", "removed").Inc()
	}
	return nil
}

func (s *relationshipService) CancelFollowRequest(ctx context.Context, requesterID, targetID string) error {
	n, err := s.requests.DeletePendingByPair(ctx, requesterID, targetID)
	if err != nil {
		return err
	}
	if n > 0 {
		s.graphChanged(ctx, GraphEvent{Type: EventRequestCanceled, ActorID: requesterID, TargetID: targetID})
	}
	return nil
}

func (s *relationshipService) ApproveFollowRequest(ctx context.Context, requestID, approverID string) error {
	req, err := s.loadForResponse(ctx, requestID, approverID)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := repository.NewFollowRequestRepository(tx).Resolve(ctx, req.ID, model.RequestApproved, s.now())
		if err != nil {
			return err
		}
		if !ok {
			return ErrRequestNotPending
		}
		inserted, err := repository.NewFollowRepository(tx).Create(ctx, req.RequesterID, req.TargetID)
		if err != nil {
			return err
		}
		if inserted {
			return repository.NewUserRepository(tx).AdjustFollowCounts(ctx, req.RequesterID, req.TargetID, 1)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.graphChanged(ctx, GraphEvent{Type: EventFollowApproved, ActorID: approverID, TargetID: req.RequesterID, RequestID: req.ID}, req.RequesterID)
	metrics.GraphMutations.WithLabelValues("approve", "approved").Inc()
	s.recordFollow(ctx, req.RequesterID, req.TargetID)
	approver, err := s.users.Get(ctx, approverID)
	if err != nil {
		s.sideEffect(ctx, "notify_follow_accepted", err)
		return nil
	}
	s.sideEffect(ctx, "notify_follow_accepted", s.dispatcher.FollowAccepted(ctx, approver, req.RequesterID))
	return nil
}

func (s *relationshipService) RejectFollowRequest(ctx context.Context, requestID, approverID string) error {
	req, err := s.loadForResponse(ctx, requestID, approverID)
	if err != nil {
		return err
	}
	ok, err := s.requests.Resolve(ctx, req.ID, model.RequestRejected, s.now())
	if err != nil {
		return err
	}
	if !ok {
		return ErrRequestNotPending
	}
	s.graphChanged(ctx, GraphEvent{Type: EventFollowRejected, ActorID: approverID, TargetID: req.RequesterID, RequestID: req.ID})
	metrics.GraphMutations.WithLabelValues("reject", "rejected").Inc()
	return nil
}

// loadForResponse 审批前的公共校验：存在、归属、仍为 pending
func (s *relationshipService) loadForResponse(ctx context.Context, requestID, approverID string) (*model.FollowRequest, error) {
	req, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, notFound(err, "follow request")
	}
	if req.TargetID != approverID {
		return nil, ErrNotAuthorized
	}
	if !req.IsPending() {
		return nil, ErrRequestNotPending
	}
	return req, nil
}

func (s *relationshipService) ListPendingRequests(ctx context.Context, userID string, page, size int) (Page[*model.FollowRequest], error) {
	if err := checkPage(page, size, maxListSize); err != nil {
		return Page[*model.FollowRequest]{}, err
	}
	total, err := s.requests.CountPendingForTarget(ctx, userID)
	if err != nil {
		return Page[*model.FollowRequest]{}, err
	}
	items, err := s.requests.ListPendingForTarget(ctx, userID, page*size, size)
	if err != nil {
		return Page[*model.FollowRequest]{}, err
	}
	return Page[*model.FollowRequest]{Items: items, Page: page, Size: size, Total: total}, nil
}

func (s *relationshipService) CountPendingRequests(ctx context.Context, userID string) (int64, error) {
	return s.requests.CountPendingForTarget(ctx, userID)
}

func (s *relationshipService) ListFollowing(ctx context.Context, viewerID, userID string, page, size int) (Page[string], error) {
	if err := checkPage(page, size, maxListSize); err != nil {
		return Page[string]{}, err
	}
	if _, err := profileAccess(ctx, s.users, s.follows, viewerID, userID); err != nil {
		return Page[string]{}, err
	}
	total, err := s.follows.CountFollowing(ctx, userID)
	if err != nil {
		return Page[string]{}, err
	}
	items, err := s.follows.ListFollowings(ctx, userID, page*size, size)
	if err != nil {
		return Page[string]{}, err
	}
	res := make([]string, len(items))
	for i, it := range items {
		res[i] = it.FolloweeID
	}
	return Page[string]{Items: res, Page: page, Size: size, Total: total}, nil
}

func (s *relationshipService) ListFollowers(ctx context.Context, viewerID, userID string, page, size int) (Page[string], error) {
	if err := checkPage(page, size, maxListSize); err != nil {
		return Page[string]{}, err
	}
	if _, err := profileAccess(ctx, s.users, s.follows, viewerID, userID); err != nil {
		return Page[string]{}, err
	}
	total, err := s.follows.CountFollowers(ctx, userID)
	if err != nil {
		return Page[string]{}, err
	}
	items, err := s.follows.ListFollowers(ctx, userID, page*size, size)
	if err != nil {
		return Page[string]{}, err
	}
	res := make([]string, len(items))
	for i, it := range items {
		res[i] = it.FollowerID
	}
	return Page[string]{Items: res, Page: page, Size: size, Total: total}, nil
}

func (s *relationshipService) RelationStatus(ctx context.Context, viewerID, targetID string) (RelationStatus, error) {
	following, err := s.follows.Exists(ctx, viewerID, targetID)
	if err != nil {
		return "", err
	}
	if following {
		return StatusFollowing, nil
	}
	pending, err := s.requests.ExistsPending(ctx, viewerID, targetID)
	if err != nil {
		return "", err
	}
	if pending {
		return StatusRequested, nil
	}
	return StatusNone, nil
}

// createEdge 事务内建边、清理 pending 申请、原子调整计数；返回是否真正插入
func (s *relationshipService) createEdge(ctx context.Context, followerID, targetID string) (bool, error) {
	var inserted bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		inserted, err = repository.NewFollowRepository(tx).Create(ctx, followerID, targetID)
		if err != nil || !inserted {
			return err
		}
		if _, err := repository.NewFollowRequestRepository(tx).DeletePendingByPair(ctx, followerID, targetID); err != nil {
			return err
		}
		return repository.NewUserRepository(tx).AdjustFollowCounts(ctx, followerID, targetID, 1)
	})
	return inserted, err
}

// graphChanged 提交后的副作用：失效缓存、外发事件；失败只记录
func (s *relationshipService) graphChanged(ctx context.Context, ev GraphEvent, invalidate ...string) {
	if s.cache != nil && len(invalidate) > 0 {
		s.sideEffect(ctx, "cache_invalidate", s.cache.Invalidate(ctx, invalidate...))
	}
	s.relay.Enqueue(ev)
}

func (s *relationshipService) recordFollow(ctx context.Context, followerID, targetID string) {
	if s.activities == nil {
		return
	}
	s.sideEffect(ctx, "record_activity", s.activities.Record(ctx, &model.Activity{
		UserID:       followerID,
		Type:         model.ActivityFollowedUser,
		TargetUserID: &targetID,
	}))
}

func (s *relationshipService) sideEffect(ctx context.Context, kind string, err error) {
	monitor.SideEffectFailed(ctx, kind, err, zap.String("component", "relationship"))
}

func (s *relationshipService) outcome(op string, o FollowOutcome) FollowOutcome {
	metrics.GraphMutations.WithLabelValues(op, string(o)).Inc()
	return o
}

package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/shelfgraph/internal/model"
)

// FollowRequestRepository 关注申请存储
type FollowRequestRepository interface {
	// CreatePending 插入 pending 申请；若该 pair 已有行则返回已有行且 created=false
	CreatePending(ctx context.Context, requesterID, targetID string) (req *model.FollowRequest, created bool, err error)
	FindByID(ctx context.Context, id string) (*model.FollowRequest, error)
	FindByPair(ctx context.Context, requesterID, targetID string) (*model.FollowRequest, error)
	ExistsPending(ctx context.Context, requesterID, targetID string) (bool, error)
	// ResetToPending 把终态行重置为 pending，返回是否更新成功
	ResetToPending(ctx context.Context, id string, at time.Time) (bool, error)
	// Resolve 条件更新 pending -> to，返回是否更新成功
	Resolve(ctx context.Context, id string, to model.FollowRequestStatus, at time.Time) (bool, error)
	DeleteByPair(ctx context.Context, requesterID, targetID string) (int64, error)
	DeletePendingByPair(ctx context.Context, requesterID, targetID string) (int64, error)
	ListPendingForTarget(ctx context.Context, targetID string, offset, limit int) ([]*model.FollowRequest, error)
	CountPendingForTarget(ctx context.Context, targetID string) (int64, error)
}

type followRequestRepository struct{ db *gorm.DB }

func NewFollowRequestRepository(db *gorm.DB) FollowRequestRepository {
	return &followRequestRepository{db: db}
}

func (r *followRequestRepository) CreatePending(ctx context.Context, requesterID, targetID string) (*model.FollowRequest, bool, error) {
	req := &model.FollowRequest{
		ID:          uuid.New().String(),
		RequesterID: requesterID,
		TargetID:    targetID,
		Status:      model.RequestPending,
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(req)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected > 0 {
		return req, true, nil
	}
	existing, err := r.FindByPair(ctx, requesterID, targetID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *followRequestRepository) FindByID(ctx context.Context, id string) (*model.FollowRequest, error) {
	var req model.FollowRequest
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *followRequestRepository) FindByPair(ctx context.Context, requesterID, targetID string) (*model.FollowRequest, error) {
	var req model.FollowRequest
	if err := r.db.WithContext(ctx).
		Where("requester_id = ? AND target_id = ?", requesterID, targetID).
		First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *followRequestRepository) ExistsPending(ctx context.Context, requesterID, targetID string) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).Model(&model.FollowRequest{}).
		Where("requester_id = ? AND target_id = ? AND status = ?", requesterID, targetID, model.RequestPending).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *followRequestRepository) ResetToPending(ctx context.Context, id string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.FollowRequest{}).
		Where("id = ? AND status <> ?", id, model.RequestPending).
		Updates(map[string]any{"status": model.RequestPending, "created_at": at, "responded_at": nil})
	return res.RowsAffected > 0, res.Error
}

func (r *followRequestRepository) Resolve(ctx context.Context, id string, to model.FollowRequestStatus, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.FollowRequest{}).
		Where("id = ? AND status = ?", id, model.RequestPending).
		Updates(map[string]any{"status": to, "responded_at": at})
	return res.RowsAffected > 0, res.Error
}

func (r *followRequestRepository) DeleteByPair(ctx context.Context, requesterID, targetID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("requester_id = ? AND target_id = ?", requesterID, targetID).
		Delete(&model.FollowRequest{})
	return res.RowsAffected, res.Error
}

func (r *followRequestRepository) DeletePendingByPair(ctx context.Context, requesterID, targetID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("requester_id = ? AND target_id = ? AND status = ?", requesterID, targetID, model.RequestPending).
		Delete(&model.FollowRequest{})
	return res.RowsAffected, res.Error
}

func (r *followRequestRepository) ListPendingForTarget(ctx context.Context, targetID string, offset, limit int) ([]*model.FollowRequest, error) {
	var res []*model.FollowRequest
	err := r.db.WithContext(ctx).
		Where("target_id = ? AND status = ?", targetID, model.RequestPending).
		Order("created_at DESC, id").Offset(offset).Limit(limit).Find(&res).Error
	return res, err
}

func (r *followRequestRepository) CountPendingForTarget(ctx context.Context, targetID string) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.FollowRequest{}).
		Where("target_id = ? AND status = ?", targetID, model.RequestPending).
		Count(&cnt).Error
	return cnt, err
}

package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/shelfgraph/internal/model"
)

// NotificationRepository 通知落库（NotificationSink）与收件箱查询
type NotificationRepository interface {
	Append(ctx context.Context, n *model.Notification) error
	AppendBatch(ctx context.Context, ns []model.Notification, batchSize int) error
	List(ctx context.Context, recipientID string, unreadOnly bool, offset, limit int) ([]*model.Notification, error)
	Count(ctx context.Context, recipientID string, unreadOnly bool) (int64, error)
	MarkRead(ctx context.Context, id, recipientID string) (bool, error)
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)
}

type notificationRepository struct{ db *gorm.DB }

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Append(ctx context.Context, n *model.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificationRepository) AppendBatch(ctx context.Context, ns []model.Notification, batchSize int) error {
	if len(ns) == 0 {
		return nil
	}
	for i := range ns {
		if ns[i].ID == "" {
			ns[i].ID = uuid.New().String()
		}
	}
	return r.db.WithContext(ctx).CreateInBatches(&ns, batchSize).Error
}

func (r *notificationRepository) List(ctx context.Context, recipientID string, unreadOnly bool, offset, limit int) ([]*model.Notification, error) {
	var res []*model.Notification
	err := r.scope(ctx, recipientID, unreadOnly).
		Order("created_at DESC, id").Offset(offset).Limit(limit).Find(&res).Error
	return res, err
}

func (r *notificationRepository) Count(ctx context.Context, recipientID string, unreadOnly bool) (int64, error) {
	var cnt int64
	err := r.scope(ctx, recipientID, unreadOnly).Count(&cnt).Error
	return cnt, err
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, recipientID string) (bool, error) {
	var n model.Notification
	if err := r.db.WithContext(ctx).Where("id = ? AND recipient_id = ?", id, recipientID).First(&n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	if n.IsRead {
		return true, nil
	}
	err := r.db.WithContext(ctx).Model(&model.Notification{}).Where("id = ?", id).Update("is_read", true).Error
	return err == nil, err
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

func (r *notificationRepository) scope(ctx context.Context, recipientID string, unreadOnly bool) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.Notification{}).Where("recipient_id = ?", recipientID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	return q
}

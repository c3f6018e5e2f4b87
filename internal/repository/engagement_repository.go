package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/shelfgraph/internal/model"
)

// EngagementRepository 点赞 / 收藏 / 评论行
type EngagementRepository interface {
	AddLike(ctx context.Context, contentID, userID string) (bool, error)
	RemoveLike(ctx context.Context, contentID, userID string) (bool, error)
	AddSave(ctx context.Context, contentID, userID string) (bool, error)
	RemoveSave(ctx context.Context, contentID, userID string) (bool, error)
	CreateComment(ctx context.Context, c *model.Comment) error
	FindComment(ctx context.Context, id string) (*model.Comment, error)
	// DeleteComment 删除评论及其回复，返回删除行数
	DeleteComment(ctx context.Context, id string) (int64, error)
	ListTopLevel(ctx context.Context, contentID string, offset, limit int) ([]*model.Comment, error)
	CountTopLevel(ctx context.Context, contentID string) (int64, error)
	ListReplies(ctx context.Context, parentIDs []string) ([]*model.Comment, error)
}

type engagementRepository struct{ db *gorm.DB }

func NewEngagementRepository(db *gorm.DB) EngagementRepository {
	return &engagementRepository{db: db}
}

func (r *engagementRepository) AddLike(ctx context.Context, contentID, userID string) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.Like{ID: uuid.New().String(), ContentID: contentID, UserID: userID})
	return res.RowsAffected > 0, res.Error
}

func (r *engagementRepository) RemoveLike(ctx context.Context, contentID, userID string) (bool, error) {
	res := r.db.WithContext(ctx).Where("content_id = ? AND user_id = ?", contentID, userID).Delete(&model.Like{})
	return res.RowsAffected > 0, res.Error
}

func (r *engagementRepository) AddSave(ctx context.Context, contentID, userID string) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.Save{ID: uuid.New().String(), ContentID: contentID, UserID: userID})
	return res.RowsAffected > 0, res.Error
}

func (r *engagementRepository) RemoveSave(ctx context.Context, contentID, userID string) (bool, error) {
	res := r.db.WithContext(ctx).Where("content_id = ? AND user_id = ?", contentID, userID).Delete(&model.Save{})
	return res.RowsAffected > 0, res.Error
}

func (r *engagementRepository) CreateComment(ctx context.Context, c *model.Comment) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *engagementRepository) FindComment(ctx context.Context, id string) (*model.Comment, error) {
	var c model.Comment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *engagementRepository) DeleteComment(ctx context.Context, id string) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ? OR parent_id = ?", id, id).Delete(&model.Comment{})
	return res.RowsAffected, res.Error
}

func (r *engagementRepository) ListTopLevel(ctx context.Context, contentID string, offset, limit int) ([]*model.Comment, error) {
	var res []*model.Comment
	err := r.db.WithContext(ctx).
		Where("content_id = ? AND parent_id IS NULL", contentID).
		Order("created_at ASC, id").Offset(offset).Limit(limit).Find(&res).Error
	return res, err
}

func (r *engagementRepository) CountTopLevel(ctx context.Context, contentID string) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.Comment{}).
		Where("content_id = ? AND parent_id IS NULL", contentID).Count(&cnt).Error
	return cnt, err
}

func (r *engagementRepository) ListReplies(ctx context.Context, parentIDs []string) ([]*model.Comment, error) {
	var res []*model.Comment
	if len(parentIDs) == 0 {
		return res, nil
	}
	err := r.db.WithContext(ctx).Where("parent_id IN ?", parentIDs).
		Order("created_at ASC, id").Find(&res).Error
	return res, err
}

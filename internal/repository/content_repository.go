package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/shelfgraph/internal/model"
)

// Visibility 候选内容的可见性谓词
type Visibility int

const (
	// ByAuthors 仅限 AuthorIDs 中的作者
	ByAuthors Visibility = iota + 1
	// PublicOnly 公开作者且非仅粉丝可见
	PublicOnly
	// PublicOrAuthors PublicOnly ∪ ByAuthors
	PublicOrAuthors
)

// ContentOrder 候选排序
type ContentOrder int

const (
	OrderRecent ContentOrder = iota + 1
	OrderPopular
)

// ContentFilter 候选检索条件
type ContentFilter struct {
	Kind       model.ContentKind
	Visibility Visibility
	AuthorIDs  []string
}

// Counter 可原子增减的互动计数列
type Counter string

const (
	CounterLikes    Counter = "like_count"
	CounterComments Counter = "comment_count"
	CounterSaves    Counter = "save_count"
)

// ContentRepository 可互动内容存储；计数对排序只读
type ContentRepository interface {
	Create(ctx context.Context, c *model.Content) error
	FindByID(ctx context.Context, id string) (*model.Content, error)
	List(ctx context.Context, f ContentFilter, order ContentOrder, offset, limit int) ([]*model.Content, error)
	Count(ctx context.Context, f ContentFilter) (int64, error)
	AdjustCounter(ctx context.Context, id string, col Counter, delta int64) error
}

type contentRepository struct{ db *gorm.DB }

func NewContentRepository(db *gorm.DB) ContentRepository { return &contentRepository{db: db} }

func (r *contentRepository) Create(ctx context.Context, c *model.Content) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *contentRepository) FindByID(ctx context.Context, id string) (*model.Content, error) {
	var c model.Content
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *contentRepository) List(ctx context.Context, f ContentFilter, order ContentOrder, offset, limit int) ([]*model.Content, error) {
	var res []*model.Content
	if f.Visibility == ByAuthors && len(f.AuthorIDs) == 0 {
		return res, nil
	}
	q := r.filtered(ctx, f)
	switch order {
	case OrderPopular:
		q = q.Order("contents.like_count DESC").Order("contents.created_at DESC").Order("contents.id")
	default:
		q = q.Order("contents.created_at DESC").Order("contents.id")
	}
	err := q.Offset(offset).Limit(limit).Find(&res).Error
	return res, err
}

func (r *contentRepository) Count(ctx context.Context, f ContentFilter) (int64, error) {
	var cnt int64
	if f.Visibility == ByAuthors && len(f.AuthorIDs) == 0 {
		return 0, nil
	}
	err := r.filtered(ctx, f).Count(&cnt).Error
	return cnt, err
}

func (r *contentRepository) AdjustCounter(ctx context.Context, id string, col Counter, delta int64) error {
	return r.db.WithContext(ctx).Model(&model.Content{}).Where("id = ?", id).
		UpdateColumn(string(col), clampedAdd(string(col), delta)).Error
}

func (r *contentRepository) filtered(ctx context.Context, f ContentFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.Content{}).
		Where("contents.kind = ?", f.Kind)
	public := "users.is_public = ? AND contents.followers_only = ?"
	switch f.Visibility {
	case ByAuthors:
		q = q.Where("contents.author_id IN ?", f.AuthorIDs)
	case PublicOnly:
		q = q.Joins("JOIN users ON users.id = contents.author_id").Where(public, true, false)
	case PublicOrAuthors:
		q = q.Joins("JOIN users ON users.id = contents.author_id")
		if len(f.AuthorIDs) == 0 {
			q = q.Where(public, true, false)
		} else {
			q = q.Where("(("+public+") OR contents.author_id IN ?)", true, false, f.AuthorIDs)
		}
	}
	return q
}

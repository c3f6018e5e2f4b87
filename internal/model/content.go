package model

import "time"

// ContentKind 可互动内容的种类
type ContentKind string

const (
	KindReview     ContentKind = "review"
	KindReflection ContentKind = "reflection"
)

func (k ContentKind) Valid() bool { return k == KindReview || k == KindReflection }

// SupportsSaves 只有 reflection 支持收藏
func (k ContentKind) SupportsSaves() bool { return k == KindReflection }

// Content 书评 / 读书感想（仅排序与可见性所需字段）
type Content struct {
	ID            string      `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Kind          ContentKind `gorm:"type:varchar(16);not null;index:idx_content_kind_created" json:"kind"`
	AuthorID      string      `gorm:"type:varchar(36);not null;index:idx_content_author" json:"author_id"`
	BookID        string      `gorm:"type:varchar(36)" json:"book_id"`
	BookTitle     string      `gorm:"type:varchar(255)" json:"book_title"`
	Body          string      `gorm:"type:text" json:"body"`
	FollowersOnly bool        `gorm:"not null;default:false" json:"followers_only"`
	LikeCount     int64       `gorm:"not null;default:0" json:"like_count"`
	CommentCount  int64       `gorm:"not null;default:0" json:"comment_count"`
	SaveCount     int64       `gorm:"not null;default:0" json:"save_count"`
	CreatedAt     time.Time   `gorm:"index:idx_content_kind_created" json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

func (Content) TableName() string { return "contents" }

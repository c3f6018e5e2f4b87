package model

import "time"

// Like 点赞，(content_id, user_id) 唯一
type Like struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ContentID string    `gorm:"type:varchar(36);not null;uniqueIndex:ux_like_content_user" json:"content_id"`
	UserID    string    `gorm:"type:varchar(36);not null;uniqueIndex:ux_like_content_user" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (Like) TableName() string { return "likes" }

// Save 收藏
type Save struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ContentID string    `gorm:"type:varchar(36);not null;uniqueIndex:ux_save_content_user" json:"content_id"`
	UserID    string    `gorm:"type:varchar(36);not null;uniqueIndex:ux_save_content_user;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (Save) TableName() string { return "saves" }

// Comment 评论，ParentID 非空表示一级回复
type Comment struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ContentID string    `gorm:"type:varchar(36);not null;index:idx_comment_content" json:"content_id"`
	AuthorID  string    `gorm:"type:varchar(36);not null" json:"author_id"`
	ParentID  *string   `gorm:"type:varchar(36);index:idx_comment_parent" json:"parent_id,omitempty"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

func (Comment) TableName() string { return "comments" }

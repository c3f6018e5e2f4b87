package model

import "time"

type NotificationType string

const (
	NotifyFollow           NotificationType = "follow"
	NotifyFollowRequest    NotificationType = "follow_request"
	NotifyFollowAccepted   NotificationType = "follow_accepted"
	NotifyComment          NotificationType = "comment"
	NotifyCommentReply     NotificationType = "comment_reply"
	NotifyMention          NotificationType = "mention"
	NotifyContentPublished NotificationType = "content_published"
	NotifyBookFinished     NotificationType = "book_finished"
)

// Notification 站内通知，只由 Dispatcher / FanoutWorker 创建
type Notification struct {
	ID          string           `gorm:"primaryKey;type:varchar(36)" json:"id"`
	RecipientID string           `gorm:"type:varchar(36);not null;index:idx_notification_recipient;index:idx_notification_read" json:"recipient_id"`
	ActorID     string           `gorm:"type:varchar(36);not null" json:"actor_id"`
	Type        NotificationType `gorm:"type:varchar(32);not null" json:"type"`
	ContentID   *string          `gorm:"type:varchar(36)" json:"content_id,omitempty"`
	CommentID   *string          `gorm:"type:varchar(36)" json:"comment_id,omitempty"`
	RequestID   *string          `gorm:"type:varchar(36)" json:"request_id,omitempty"`
	BookID      *string          `gorm:"type:varchar(36)" json:"book_id,omitempty"`
	Message     string           `gorm:"type:varchar(500);not null" json:"message"`
	IsRead      bool             `gorm:"not null;default:false;index:idx_notification_read" json:"is_read"`
	CreatedAt   time.Time        `gorm:"index:idx_notification_recipient" json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }

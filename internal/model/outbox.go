package model

import "time"

type OutboxStatus string

const (
	OutboxPending    OutboxStatus = "pending"
	OutboxProcessing OutboxStatus = "processing"
	OutboxDone       OutboxStatus = "done"
)

// Outbox 需要扇出给全部粉丝的事件（发布内容、读完一本书）
type Outbox struct {
	ID          string           `gorm:"primaryKey;type:varchar(36)"`
	EventType   NotificationType `gorm:"type:varchar(32);not null"`
	AuthorID    string           `gorm:"type:varchar(36);index:idx_outbox_author"`
	ContentID   *string          `gorm:"type:varchar(36)"`
	BookID      *string          `gorm:"type:varchar(36)"`
	Message     string           `gorm:"type:varchar(500)"`
	Status      OutboxStatus     `gorm:"type:varchar(16);index"` // pending, processing, done
	CreatedAt   time.Time        `gorm:"index"`
	ProcessedAt *time.Time
	FanoutCount int64
}

func (Outbox) TableName() string { return "outbox" }

package model

import "time"

// ActivityType 动态类型
type ActivityType string

const (
	ActivityFollowedUser    ActivityType = "followed_user"
	ActivityFinishedBook    ActivityType = "finished_book"
	ActivityWroteReview     ActivityType = "wrote_review"
	ActivityWroteReflection ActivityType = "wrote_reflection"
)

// ActivityForKind 发布内容对应的动态类型
func ActivityForKind(k ContentKind) ActivityType {
	if k == KindReflection {
		return ActivityWroteReflection
	}
	return ActivityWroteReview
}

// Activity 用户动态（个人主页与动态流）
type Activity struct {
	ID            string       `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID        string       `gorm:"type:varchar(36);not null;index:idx_activity_user_created" json:"user_id"`
	Type          ActivityType `gorm:"type:varchar(32);not null" json:"type"`
	TargetUserID  *string      `gorm:"type:varchar(36)" json:"target_user_id,omitempty"`
	BookID        *string      `gorm:"type:varchar(36)" json:"book_id,omitempty"`
	BookTitle     string       `gorm:"type:varchar(255)" json:"book_title,omitempty"`
	ContentID     *string      `gorm:"type:varchar(36)" json:"content_id,omitempty"`
	FollowersOnly bool         `gorm:"not null;default:false" json:"followers_only"`
	CreatedAt     time.Time    `gorm:"index:idx_activity_user_created;index:idx_activity_created" json:"created_at"`
}

func (Activity) TableName() string { return "activities" }

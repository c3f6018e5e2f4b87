package model

import "time"

type FollowRequestStatus string

const (
	RequestPending  FollowRequestStatus = "pending"
	RequestApproved FollowRequestStatus = "approved"
	RequestRejected FollowRequestStatus = "rejected"
)

// FollowRequest 私密账号的关注申请；唯一键只包含 (requester, target)，
// 终态行在重新申请时被重置为 pending
type FollowRequest struct {
	ID          string              `gorm:"primaryKey;type:varchar(36)" json:"id"`
	RequesterID string              `gorm:"type:varchar(36);not null;index:idx_request_pair,unique" json:"requester_id"`
	TargetID    string              `gorm:"type:varchar(36);not null;index:idx_request_pair,unique;index:idx_request_target_status" json:"target_id"`
	Status      FollowRequestStatus `gorm:"type:varchar(16);not null;default:pending;index:idx_request_target_status" json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	RespondedAt *time.Time          `json:"responded_at,omitempty"`
}

func (FollowRequest) TableName() string { return "follow_requests" }

func (r *FollowRequest) IsPending() bool { return r.Status == RequestPending }

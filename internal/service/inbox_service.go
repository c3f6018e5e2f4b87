package service

import (
	"context"
	"fmt"

	"github.com/d60-Lab/shelfgraph/internal/model"
	"github.com/d60-Lab/shelfgraph/internal/repository"
)

// InboxService 通知收件箱：最新在前
type InboxService struct {
	notifications repository.NotificationRepository
}

func NewInboxService(notifications repository.NotificationRepository) *InboxService {
	return &InboxService{notifications: notifications}
}

func (s *InboxService) List(ctx context.Context, userID string, unreadOnly bool, page, size int) (Page[*model.Notification], error) {
	if err := checkPage(page, size, maxListSize); err != nil {
		return Page[*model.Notification]{}, err
	}
	total, err := s.notifications.Count(ctx, userID, unreadOnly)
	if err != nil {
		return Page[*model.Notification]{}, err
	}
	items, err := s.notifications.List(ctx, userID, unreadOnly, page*size, size)
	if err != nil {
		return Page[*model.Notification]{}, err
	}
	return Page[*model.Notification]{Items: items, Page: page, Size: size, Total: total}, nil
}

func (s *InboxService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.notifications.Count(ctx, userID, true)
}

// MarkRead 只能标记自己的通知，否则按未找到处理
func (s *InboxService) MarkRead(ctx context.Context, notificationID, userID string) error {
	ok, err := s.notifications.MarkRead(ctx, notificationID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("notification %s: %w", notificationID, ErrNotFound)
	}
	return nil
}

func (s *InboxService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.notifications.MarkAllRead(ctx, userID)
}

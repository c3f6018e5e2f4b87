package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/shelfgraph/internal/model"
	"github.com/d60-Lab/shelfgraph/internal/repository"
	"github.com/d60-Lab/shelfgraph/pkg/monitor"
)

// PublishInput 发布内容的参数
type PublishInput struct {
	AuthorID      string
	Kind          model.ContentKind
	BookID        string
	BookTitle     string
	Body          string
	FollowersOnly bool
}

// Publisher 负责事务内写 contents + outbox，粉丝扇出交给 FanoutWorker；
// 提交后记录作者动态
type Publisher struct {
	db         *gorm.DB
	activities ActivityRecorder
}

// NewPublisher activities 可以为 nil
func NewPublisher(db *gorm.DB, activities ActivityRecorder) *Publisher {
	return &Publisher{db: db, activities: activities}
}

// Publish 在一个事务内落地 Content 与 Outbox 事件
func (p *Publisher) Publish(ctx context.Context, in PublishInput) (*model.Content, error) {
	if !in.Kind.Valid() {
		return nil, fmt.Errorf("unknown kind %q: %w", in.Kind, ErrInvalidArgument)
	}
	if strings.TrimSpace(in.Body) == "" {
		return nil, fmt.Errorf("body required: %w", ErrInvalidArgument)
	}
	now := time.Now()
	content := &model.Content{
		ID:            uuid.New().String(),
		Kind:          in.Kind,
		AuthorID:      in.AuthorID,
		BookID:        in.BookID,
		BookTitle:     in.BookTitle,
		Body:          in.Body,
		FollowersOnly: in.FollowersOnly,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		author, err := repository.NewUserRepository(tx).Get(ctx, in.AuthorID)
		if err != nil {
			return notFound(err, "author")
		}
		if err := repository.NewContentRepository(tx).Create(ctx, content); err != nil {
			return err
		}
		verb := "posted a " + string(in.Kind)
		if in.BookTitle != "" {
			verb += fmt.Sprintf(" of %q", in.BookTitle)
		}
		return tx.Create(&model.Outbox{
			ID:        uuid.New().String(),
			EventType: model.NotifyContentPublished,
			AuthorID:  in.AuthorID,
			ContentID: &content.ID,
			BookID:    optional(in.BookID),
			Message:   author.Name() + " " + verb,
			Status:    model.OutboxPending,
			CreatedAt: now,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	p.record(ctx, &model.Activity{
		UserID:        in.AuthorID,
		Type:          model.ActivityForKind(in.Kind),
		BookID:        optional(in.BookID),
		BookTitle:     in.BookTitle,
		ContentID:     &content.ID,
		FollowersOnly: in.FollowersOnly,
	})
	return content, nil
}

// AnnounceBookFinished 只写 outbox：读完一本书时通知全部粉丝
func (p *Publisher) AnnounceBookFinished(ctx context.Context, authorID, bookID, bookTitle string) error {
	author, err := repository.NewUserRepository(p.db).Get(ctx, authorID)
	if err != nil {
		return notFound(err, "author")
	}
	err = p.db.WithContext(ctx).Create(&model.Outbox{
		ID:        uuid.New().String(),
		EventType: model.NotifyBookFinished,
		AuthorID:  authorID,
		BookID:    optional(bookID),
		Message:   fmt.Sprintf("%s finished reading %q", author.Name(), bookTitle),
		Status:    model.OutboxPending,
		CreatedAt: time.Now(),
	}).Error
	if err != nil {
		return err
	}
	p.record(ctx, &model.Activity{
		UserID:    authorID,
		Type:      model.ActivityFinishedBook,
		BookID:    optional(bookID),
		BookTitle: bookTitle,
	})
	return nil
}

// record 动态写入失败不影响已提交的发布
func (p *Publisher) record(ctx context.Context, a *model.Activity) {
	if p.activities == nil {
		return
	}
	monitor.SideEffectFailed(ctx, "record_activity", p.activities.Record(ctx, a), zap.String("component", "publisher"))
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

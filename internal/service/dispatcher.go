package service

import (
	"context"
	"fmt"
	"regexp"

	"github.com/d60-Lab/shelfgraph/internal/model"
	"github.com/d60-Lab/shelfgraph/internal/repository"
	"github.com/d60-Lab/shelfgraph/pkg/metrics"
)

var mentionPattern = regexp.MustCompile(`@(\w+)`)

// Dispatcher 把图 / 内容变更转成单条通知。调用方负责吞掉返回的错误：
// 通知是尽力而为、至多一次的副作用。
type Dispatcher struct {
	sink  repository.NotificationRepository
	users repository.UserRepository
}

func NewDispatcher(sink repository.NotificationRepository, users repository.UserRepository) *Dispatcher {
	return &Dispatcher{sink: sink, users: users}
}

func (d *Dispatcher) Follow(ctx context.Context, actor *model.User, recipientID string) error {
	return d.send(ctx, &model.Notification{
		RecipientID: recipientID,
		ActorID:     actor.ID,
		Type:        model.NotifyFollow,
		Message:     actor.Name() + " started following you",
	})
}

func (d *Dispatcher) FollowRequest(ctx context.Context, actor *model.User, recipientID, requestID string) error {
	return d.send(ctx, &model.Notification{
		RecipientID: recipientID,
		ActorID:     actor.ID,
		Type:        model.NotifyFollowRequest,
		RequestID:   &requestID,
		Message:     actor.Name() + " requested to follow you",
	})
}

func (d *Dispatcher) FollowAccepted(ctx context.Context, actor *model.User, recipientID string) error {
	return d.send(ctx, &model.Notification{
		RecipientID: recipientID,
		ActorID:     actor.ID,
		Type:        model.NotifyFollowAccepted,
		Message:     actor.Name() + " accepted your follow request",
	})
}

// Comment 通知内容作者有新评论
func (d *Dispatcher) Comment(ctx context.Context, actor *model.User, c *model.Content, commentID string) error {
	return d.send(ctx, &model.Notification{
		RecipientID: c.AuthorID,
		ActorID:     actor.ID,
		Type:        model.NotifyComment,
		ContentID:   &c.ID,
		CommentID:   &commentID,
		Message:     fmt.Sprintf("%s commented on your %s%s", actor.Name(), c.Kind, about(c)),
	})
}

// CommentReply 通知父评论作者
func (d *Dispatcher) CommentReply(ctx context.Context, actor *model.User, parent *model.Comment, c *model.Content, commentID string) error {
	return d.send(ctx, &model.Notification{
		RecipientID: parent.AuthorID,
		ActorID:     actor.ID,
		Type:        model.NotifyCommentReply,
		ContentID:   &c.ID,
		CommentID:   &commentID,
		Message:     fmt.Sprintf("%s replied to your comment on a %s%s", actor.Name(), c.Kind, about(c)),
	})
}

// Mentions 解析 @username 并逐个通知，返回去重后的用户名（按出现顺序）
func (d *Dispatcher) Mentions(ctx context.Context, actor *model.User, body string, c *model.Content, commentID string) ([]string, error) {
	names := ParseMentions(body)
	if len(names) == 0 {
		return names, nil
	}
	ids, err := d.users.IDsByUsernames(ctx, names)
	if err != nil {
		return names, err
	}
	var firstErr error
	for _, name := range names {
		id, ok := ids[name]
		if !ok {
			continue
		}
		err := d.send(ctx, &model.Notification{
			RecipientID: id,
			ActorID:     actor.ID,
			Type:        model.NotifyMention,
			ContentID:   &c.ID,
			CommentID:   &commentID,
			Message:     fmt.Sprintf("%s mentioned you in a comment on a %s%s", actor.Name(), c.Kind, about(c)),
		})
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return names, firstErr
}

// ParseMentions 提取 @username，去重并保持出现顺序
func ParseMentions(body string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, m := range mentionPattern.FindAllStringSubmatch(body, -1) {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		out = append(out, m[1])
	}
	return out
}

// send 统一抑制给自己的通知
func (d *Dispatcher) send(ctx context.Context, n *model.Notification) error {
	if n.RecipientID == n.ActorID {
		return nil
	}
	if err := d.sink.Append(ctx, n); err != nil {
		return err
	}
	metrics.NotificationsCreated.WithLabelValues(string(n.Type)).Inc()
	return nil
}

func about(c *model.Content) string {
	if c.BookTitle == "" {
		return ""
	}
	return fmt.Sprintf(" about %q", c.BookTitle)
}

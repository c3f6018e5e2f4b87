package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/shelfgraph/internal/model"
	"github.com/d60-Lab/shelfgraph/internal/repository"
	"github.com/d60-Lab/shelfgraph/pkg/monitor"
)

// CommentThread 一级评论及其回复
type CommentThread struct {
	Comment *model.Comment   `json:"comment"`
	Replies []*model.Comment `json:"replies"`
}

// EngagementService 点赞 / 收藏 / 评论。行变更和计数调整在同一事务内。
type EngagementService struct {
	db         *gorm.DB
	contents   repository.ContentRepository
	engage     repository.EngagementRepository
	users      repository.UserRepository
	dispatcher *Dispatcher
}

func NewEngagementService(db *gorm.DB, dispatcher *Dispatcher) *EngagementService {
	return &EngagementService{
		db:         db,
		contents:   repository.NewContentRepository(db),
		engage:     repository.NewEngagementRepository(db),
		users:      repository.NewUserRepository(db),
		dispatcher: dispatcher,
	}
}

// ToggleLike 返回操作后的点赞状态
func (s *EngagementService) ToggleLike(ctx context.Context, contentID, userID string) (bool, error) {
	if _, err := s.loadContent(ctx, contentID); err != nil {
		return false, err
	}
	return s.toggle(ctx, contentID, userID, repository.CounterLikes,
		repository.EngagementRepository.AddLike, repository.EngagementRepository.RemoveLike)
}

// ToggleSave 仅 reflection 支持收藏
func (s *EngagementService) ToggleSave(ctx context.Context, contentID, userID string) (bool, error) {
	c, err := s.loadContent(ctx, contentID)
	if err != nil {
		return false, err
	}
	if !c.Kind.SupportsSaves() {
		return false, fmt.Errorf("%s does not support saves: %w", c.Kind, ErrInvalidArgument)
	}
	return s.toggle(ctx, contentID, userID, repository.CounterSaves,
		repository.EngagementRepository.AddSave, repository.EngagementRepository.RemoveSave)
}

type rowOp func(r repository.EngagementRepository, ctx context.Context, contentID, userID string) (bool, error)

func (s *EngagementService) toggle(ctx context.Context, contentID, userID string, col repository.Counter, add, remove rowOp) (bool, error) {
	if ok, err := s.users.Exists(ctx, userID); err != nil {
		return false, err
	} else if !ok {
		return false, fmt.Errorf("user: %w", ErrNotFound)
	}
	var on bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		engage := repository.NewEngagementRepository(tx)
		contents := repository.NewContentRepository(tx)
		added, err := add(engage, ctx, contentID, userID)
		if err != nil {
			return err
		}
		if added {
			on = true
			return contents.AdjustCounter(ctx, contentID, col, 1)
		}
		removed, err := remove(engage, ctx, contentID, userID)
		if err != nil || !removed {
			return err
		}
		return contents.AdjustCounter(ctx, contentID, col, -1)
	})
	return on, err
}

// AddComment 评论或回复（只允许一级回复，父评论必须属于同一内容）
func (s *EngagementService) AddComment(ctx context.Context, contentID, userID, body string, parentID *string) (*model.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("empty comment: %w", ErrInvalidArgument)
	}
	c, err := s.loadContent(ctx, contentID)
	if err != nil {
		return nil, err
	}
	actor, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user")
	}

	var parent *model.Comment
	if parentID != nil && *parentID != "" {
		parent, err = s.engage.FindComment(ctx, *parentID)
		if err != nil {
			return nil, notFound(err, "parent comment")
		}
		if parent.ContentID != contentID || parent.ParentID != nil {
			return nil, fmt.Errorf("parent must be a top-level comment on the same content: %w", ErrInvalidArgument)
		}
	}

	comment := &model.Comment{ContentID: contentID, AuthorID: userID, Body: body}
	if parent != nil {
		comment.ParentID = &parent.ID
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewEngagementRepository(tx).CreateComment(ctx, comment); err != nil {
			return err
		}
		return repository.NewContentRepository(tx).AdjustCounter(ctx, contentID, repository.CounterComments, 1)
	})
	if err != nil {
		return nil, err
	}

	if parent == nil {
		s.sideEffect(ctx, "notify_comment", s.dispatcher.Comment(ctx, actor, c, comment.ID))
	} else {
		s.sideEffect(ctx, "notify_comment_reply", s.dispatcher.CommentReply(ctx, actor, parent, c, comment.ID))
	}
	_, err = s.dispatcher.Mentions(ctx, actor, body, c, comment.ID)
	s.sideEffect(ctx, "notify_mention", err)
	return comment, nil
}

// DeleteComment 评论作者或内容作者可删；回复随一级评论一起删除
func (s *EngagementService) DeleteComment(ctx context.Context, commentID, userID string) error {
	comment, err := s.engage.FindComment(ctx, commentID)
	if err != nil {
		return notFound(err, "comment")
	}
	if comment.AuthorID != userID {
		c, err := s.loadContent(ctx, comment.ContentID)
		if err != nil {
			return err
		}
		if c.AuthorID != userID {
			return ErrNotAuthorized
		}
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := repository.NewEngagementRepository(tx).DeleteComment(ctx, commentID)
		if err != nil || n == 0 {
			return err
		}
		return repository.NewContentRepository(tx).AdjustCounter(ctx, comment.ContentID, repository.CounterComments, -n)
	})
}

// ListComments 一级评论按时间升序分页，回复整体挂载
func (s *EngagementService) ListComments(ctx context.Context, contentID string, page, size int) (Page[CommentThread], error) {
	if err := checkPage(page, size, maxListSize); err != nil {
		return Page[CommentThread]{}, err
	}
	if _, err := s.loadContent(ctx, contentID); err != nil {
		return Page[CommentThread]{}, err
	}
	total, err := s.engage.CountTopLevel(ctx, contentID)
	if err != nil {
		return Page[CommentThread]{}, err
	}
	top, err := s.engage.ListTopLevel(ctx, contentID, page*size, size)
	if err != nil {
		return Page[CommentThread]{}, err
	}
	ids := make([]string, len(top))
	for i, c := range top {
		ids[i] = c.ID
	}
	replies, err := s.engage.ListReplies(ctx, ids)
	if err != nil {
		return Page[CommentThread]{}, err
	}
	byParent := make(map[string][]*model.Comment, len(top))
	for _, r := range replies {
		byParent[*r.ParentID] = append(byParent[*r.ParentID], r)
	}
	items := make([]CommentThread, len(top))
	for i, c := range top {
		rs := byParent[c.ID]
		if rs == nil {
			rs = []*model.Comment{}
		}
		items[i] = CommentThread{Comment: c, Replies: rs}
	}
	return Page[CommentThread]{Items: items, Page: page, Size: size, Total: total}, nil
}

func (s *EngagementService) loadContent(ctx context.Context, id string) (*model.Content, error) {
	c, err := s.contents.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "content")
	}
	return c, nil
}

func (s *EngagementService) sideEffect(ctx context.Context, kind string, err error) {
	monitor.SideEffectFailed(ctx, kind, err, zap.String("component", "engagement"))
}

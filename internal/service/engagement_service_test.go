package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/shelfgraph/internal/model"
	"github.com/d60-Lab/shelfgraph/internal/repository"
)

func newEngagementService(t *testing.T) (*EngagementService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	d := NewDispatcher(repository.NewNotificationRepository(db), repository.NewUserRepository(db))
	return NewEngagementService(db, d), db
}

func reload(t *testing.T, db *gorm.DB, id string) *model.Content {
	t.Helper()
	c, err := repository.NewContentRepository(db).FindByID(context.Background(), id)
	require.NoError(t, err)
	return c
}

func TestToggleLike(t *testing.T) {
	svc, db := newEngagementService(t)
	ctx := context.Background()
	seedUser(t, db, "author", true)
	seedUser(t, db, "reader", true)
	seedContent(t, db, model.Content{ID: "c1", AuthorID: "author"})

	liked, err := svc.ToggleLike(ctx, "c1", "reader")
	require.NoError(t, err)
	assert.True(t, liked)
	assert.EqualValues(t, 1, reload(t, db, "c1").LikeCount)

	liked, err = svc.ToggleLike(ctx, "c1", "reader")
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Zero(t, reload(t, db, "c1").LikeCount)

	_, err = svc.ToggleLike(ctx, "missing", "reader")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.ToggleLike(ctx, "c1", "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestToggleSave(t *testing.T) {
	svc, db := newEngagementService(t)
	ctx := context.Background()
	seedUser(t, db, "author", true)
	seedUser(t, db, "reader", true)
	seedContent(t, db, model.Content{ID: "review", AuthorID: "author"})
	seedContent(t, db, model.Content{ID: "reflection", Kind: model.KindReflection, AuthorID: "author"})

	_, err := svc.ToggleSave(ctx, "review", "reader")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	saved, err := svc.ToggleSave(ctx, "reflection", "reader")
	require.NoError(t, err)
	assert.True(t, saved)
	assert.EqualValues(t, 1, reload(t, db, "reflection").SaveCount)

	saved, err = svc.ToggleSave(ctx, "reflection", "reader")
	require.NoError(t, err)
	assert.False(t, saved)
	assert.Zero(t, reload(t, db, "reflection").SaveCount)
}

func TestAddComment_NotifiesAuthorParentAndMentions(t *testing.T) {
	svc, db := newEngagementService(t)
	ctx := context.Background()
	seedUser(t, db, "author", true)
	seedUser(t, db, "alice", true)
	seedUser(t, db, "bob", true)
	seedUser(t, db, "carol", true)
	seedContent(t, db, model.Content{ID: "c1", AuthorID: "author", BookTitle: "Dune"})

	top, err := svc.AddComment(ctx, "c1", "alice", "  loved it @carol  ", nil)
	require.NoError(t, err)
	assert.Equal(t, "loved it @carol", top.Body)

	reply, err := svc.AddComment(ctx, "c1", "bob", "agreed", &top.ID)
	require.NoError(t, err)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, top.ID, *reply.ParentID)

	assert.EqualValues(t, 2, reload(t, db, "c1").CommentCount)

	authorInbox := notificationsFor(t, db, "author")
	require.Len(t, authorInbox, 1, "replies do not notify the content author")
	assert.Equal(t, model.NotifyComment, authorInbox[0].Type)

	aliceInbox := notificationsFor(t, db, "alice")
	require.Len(t, aliceInbox, 1)
	assert.Equal(t, model.NotifyCommentReply, aliceInbox[0].Type)
	assert.Equal(t, "bob", aliceInbox[0].ActorID)

	carolInbox := notificationsFor(t, db, "carol")
	require.Len(t, carolInbox, 1)
	assert.Equal(t, model.NotifyMention, carolInbox[0].Type)
}

func TestAddComment_Validation(t *testing.T) {
	svc, db := newEngagementService(t)
	ctx := context.Background()
	seedUser(t, db, "author", true)
	seedContent(t, db, model.Content{ID: "c1", AuthorID: "author"})
	seedContent(t, db, model.Content{ID: "c2", AuthorID: "author"})

	_, err := svc.AddComment(ctx, "c1", "author", "   ", nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	top, err := svc.AddComment(ctx, "c1", "author", "first", nil)
	require.NoError(t, err)
	reply, err := svc.AddComment(ctx, "c1", "author", "second", &top.ID)
	require.NoError(t, err)

	_, err = svc.AddComment(ctx, "c1", "author", "nested", &reply.ID)
	assert.ErrorIs(t, err, ErrInvalidArgument, "only one level of replies")
	_, err = svc.AddComment(ctx, "c2", "author", "wrong content", &top.ID)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	missing := "missing"
	_, err = svc.AddComment(ctx, "c1", "author", "orphan", &missing)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Empty(t, notificationsFor(t, db, "author"), "own comments never notify")
}

func TestDeleteComment(t *testing.T) {
	svc, db := newEngagementService(t)
	ctx := context.Background()
	seedUser(t, db, "author", true)
	seedUser(t, db, "alice", true)
	seedUser(t, db, "mallory", true)
	seedContent(t, db, model.Content{ID: "c1", AuthorID: "author"})

	top, err := svc.AddComment(ctx, "c1", "alice", "top", nil)
	require.NoError(t, err)
	_, err = svc.AddComment(ctx, "c1", "mallory", "reply", &top.ID)
	require.NoError(t, err)
	own, err := svc.AddComment(ctx, "c1", "alice", "another", nil)
	require.NoError(t, err)
	assert.EqualValues(t, 3, reload(t, db, "c1").CommentCount)

	assert.ErrorIs(t, svc.DeleteComment(ctx, top.ID, "mallory"), ErrNotAuthorized)
	assert.ErrorIs(t, svc.DeleteComment(ctx, "missing", "alice"), ErrNotFound)

	// 内容作者可以删除别人的评论，回复一并删除
	require.NoError(t, svc.DeleteComment(ctx, top.ID, "author"))
	assert.EqualValues(t, 1, reload(t, db, "c1").CommentCount)

	require.NoError(t, svc.DeleteComment(ctx, own.ID, "alice"))
	assert.Zero(t, reload(t, db, "c1").CommentCount)
}

func TestListComments(t *testing.T) {
	svc, db := newEngagementService(t)
	ctx := context.Background()
	seedUser(t, db, "author", true)
	seedContent(t, db, model.Content{ID: "c1", AuthorID: "author"})

	first, err := svc.AddComment(ctx, "c1", "author", "one", nil)
	require.NoError(t, err)
	_, err = svc.AddComment(ctx, "c1", "author", "two", nil)
	require.NoError(t, err)
	_, err = svc.AddComment(ctx, "c1", "author", "reply", &first.ID)
	require.NoError(t, err)

	page, err := svc.ListComments(ctx, "c1", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total, "only top-level comments are counted")
	require.Len(t, page.Items, 2)

	var withReply, without *CommentThread
	for i := range page.Items {
		if page.Items[i].Comment.ID == first.ID {
			withReply = &page.Items[i]
		} else {
			without = &page.Items[i]
		}
	}
	require.NotNil(t, withReply)
	require.NotNil(t, without)
	require.Len(t, withReply.Replies, 1)
	assert.Equal(t, "reply", withReply.Replies[0].Body)
	assert.NotNil(t, without.Replies)
	assert.Empty(t, without.Replies)

	_, err = svc.ListComments(ctx, "missing", 0, 10)
	assert.ErrorIs(t, err, ErrNotFound)
}

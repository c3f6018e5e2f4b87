package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/shelfgraph/internal/model"
	"github.com/d60-Lab/shelfgraph/internal/repository"
)

func newFanoutWorker(db *gorm.DB, batchSize int) *FanoutWorker {
	return NewFanoutWorker(db, repository.NewFollowRepository(db), repository.NewNotificationRepository(db), 1, batchSize, 10, 10*time.Millisecond)
}

func seedFollowers(t *testing.T, db *gorm.DB, author string, n int) []string {
	t.Helper()
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("fan%02d", i)
		seedUser(t, db, ids[i], true)
		follow(t, db, ids[i], author)
	}
	return ids
}

func TestPublish_FansOutToEveryFollower(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedUser(t, db, "author", true)
	seedUser(t, db, "outsider", true)
	fans := seedFollowers(t, db, "author", 7)

	content, err := NewPublisher(db, nil).Publish(ctx, PublishInput{
		AuthorID: "author", Kind: model.KindReview, BookTitle: "Dune", Body: "great",
	})
	require.NoError(t, err)

	// batchSize 3 强制多页扇出
	n, err := newFanoutWorker(db, 3).ProcessOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	for _, id := range fans {
		ns := notificationsFor(t, db, id)
		require.Len(t, ns, 1, id)
		assert.Equal(t, model.NotifyContentPublished, ns[0].Type)
		require.NotNil(t, ns[0].ContentID)
		assert.Equal(t, content.ID, *ns[0].ContentID)
		assert.Equal(t, `author posted a review of "Dune"`, ns[0].Message)
	}
	assert.Empty(t, notificationsFor(t, db, "outsider"))
	assert.Empty(t, notificationsFor(t, db, "author"))

	var ob model.Outbox
	require.NoError(t, db.First(&ob).Error)
	assert.Equal(t, model.OutboxDone, ob.Status)
	assert.EqualValues(t, 7, ob.FanoutCount)
	assert.NotNil(t, ob.ProcessedAt)

	n, err = newFanoutWorker(db, 3).ProcessOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "done events are not claimed again")
}

func TestPublish_Validation(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedUser(t, db, "author", true)
	p := NewPublisher(db, nil)

	_, err := p.Publish(ctx, PublishInput{AuthorID: "author", Kind: "poem", Body: "x"})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = p.Publish(ctx, PublishInput{AuthorID: "author", Kind: model.KindReview, Body: "  "})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = p.Publish(ctx, PublishInput{AuthorID: "ghost", Kind: model.KindReview, Body: "x"})
	assert.ErrorIs(t, err, ErrNotFound)

	var cnt int64
	require.NoError(t, db.Model(&model.Content{}).Count(&cnt).Error)
	assert.Zero(t, cnt, "failed publish leaves nothing behind")
}

func TestAnnounceBookFinished(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedUser(t, db, "reader", true)
	fans := seedFollowers(t, db, "reader", 2)

	require.NoError(t, NewPublisher(db, nil).AnnounceBookFinished(ctx, "reader", "book-1", "Middlemarch"))

	w := newFanoutWorker(db, 100)
	stop := w.Start()
	select {
	case <-w.Metrics():
	case <-time.After(2 * time.Second):
		t.Fatal("fanout did not finish")
	}
	require.NoError(t, stop(ctx))

	for _, id := range fans {
		ns := notificationsFor(t, db, id)
		require.Len(t, ns, 1)
		assert.Equal(t, model.NotifyBookFinished, ns[0].Type)
		require.NotNil(t, ns[0].BookID)
		assert.Equal(t, "book-1", *ns[0].BookID)
		assert.Equal(t, `reader finished reading "Middlemarch"`, ns[0].Message)
	}
}

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/shelfgraph/internal/model"
	"github.com/d60-Lab/shelfgraph/internal/repository"
)

func TestParseMentions(t *testing.T) {
	assert.Equal(t, []string{"alice", "bob"}, ParseMentions("hi @alice and @bob, @alice again"))
	assert.Empty(t, ParseMentions("no mentions here"))
	assert.Equal(t, []string{"carol_1"}, ParseMentions("(@carol_1)"))
}

func TestDispatcher_Mentions(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	d := NewDispatcher(repository.NewNotificationRepository(db), repository.NewUserRepository(db))
	actor := seedUser(t, db, "actor", true)
	seedUser(t, db, "alice", true)
	seedUser(t, db, "bob", true)
	c := seedContent(t, db, model.Content{ID: "c1", AuthorID: "bob", BookTitle: "Dune"})

	names, err := d.Mentions(ctx, actor, "@alice @alice @ghost @actor", c, "cm1")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "ghost", "actor"}, names)

	ns := notificationsFor(t, db, "alice")
	require.Len(t, ns, 1, "duplicate mentions notify once")
	assert.Equal(t, model.NotifyMention, ns[0].Type)
	require.NotNil(t, ns[0].CommentID)
	assert.Equal(t, "cm1", *ns[0].CommentID)
	assert.Contains(t, ns[0].Message, `"Dune"`)

	assert.Empty(t, notificationsFor(t, db, "actor"), "self mention suppressed")
}

func TestDispatcher_SuppressesSelfNotifications(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	d := NewDispatcher(repository.NewNotificationRepository(db), repository.NewUserRepository(db))
	author := seedUser(t, db, "author", true)
	c := seedContent(t, db, model.Content{ID: "c1", AuthorID: "author"})

	require.NoError(t, d.Comment(ctx, author, c, "cm1"))
	require.NoError(t, d.Follow(ctx, author, "author"))
	assert.Empty(t, notificationsFor(t, db, "author"))
}

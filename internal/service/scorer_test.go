package service

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/d60-Lab/shelfgraph/internal/model"
)

var scoreNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestEngagement(t *testing.T) {
	review := &model.Content{Kind: model.KindReview, LikeCount: 2, CommentCount: 1, SaveCount: 3}
	reflection := &model.Content{Kind: model.KindReflection, LikeCount: 2, CommentCount: 1, SaveCount: 3}

	assert.Equal(t, 1.0, Engagement(&model.Content{Kind: model.KindReview}))
	assert.Equal(t, 12.0, Engagement(review), "saves do not count for reviews")
	assert.Equal(t, 24.0, Engagement(reflection))
}

func TestRecency(t *testing.T) {
	assert.InDelta(t, 1.0, Recency(scoreNow, scoreNow), 1e-9)
	assert.InDelta(t, 0.8869, Recency(scoreNow.Add(-2*time.Hour), scoreNow), 1e-4)
	assert.InDelta(t, 0.1925, Recency(scoreNow.Add(-48*time.Hour), scoreNow), 1e-4)
	assert.Equal(t, 0.1, Recency(time.Time{}, scoreNow))
	// 时钟偏差导致的未来时间按 0 小时处理
	assert.InDelta(t, 1.0, Recency(scoreNow.Add(time.Hour), scoreNow), 1e-9)

	prev := 2.0
	for h := 0; h <= 240; h += 6 {
		r := Recency(scoreNow.Add(-time.Duration(h)*time.Hour), scoreNow)
		assert.Less(t, r, prev, "recency must strictly decrease, h=%d", h)
		prev = r
	}
}

func TestScore_FollowedAuthorBoost(t *testing.T) {
	s := NewScorer(fixedClock(scoreNow))
	c := &model.Content{ID: "c1", Kind: model.KindReview, AuthorID: "author", LikeCount: 4, CreatedAt: scoreNow.Add(-5 * time.Hour)}

	plain := s.Score(c, nil)
	boosted := s.Score(c, map[string]struct{}{"author": {}})
	assert.InDelta(t, 2*plain, boosted, 1e-9)
	assert.Equal(t, boosted, s.Score(c, map[string]struct{}{"author": {}}), "deterministic")
}

func TestScore_EngagedFollowedBeatsFreshStranger(t *testing.T) {
	s := NewScorer(fixedClock(scoreNow))
	following := map[string]struct{}{"friend": {}}
	a := &model.Content{ID: "a", Kind: model.KindReview, AuthorID: "friend", LikeCount: 10, CommentCount: 2, CreatedAt: scoreNow.Add(-2 * time.Hour)}
	b := &model.Content{ID: "b", Kind: model.KindReview, AuthorID: "stranger", CreatedAt: scoreNow.Add(-time.Hour)}

	sa := s.Score(a, following)
	sb := s.Score(b, following)
	assert.InDelta(t, 72.7228, sa, 1e-3)
	assert.InDelta(t, 0.9406, sb, 1e-3)
	assert.Greater(t, sa, sb)
}

func TestScoreAt_UsesGivenInstant(t *testing.T) {
	s := NewScorer(nil)
	c := &model.Content{ID: "c", Kind: model.KindReview, CreatedAt: scoreNow}
	assert.InDelta(t, 1.0, s.ScoreAt(c, nil, scoreNow), 1e-9)
	assert.InDelta(t, 0.1925, s.ScoreAt(c, nil, scoreNow.Add(48*time.Hour)), 1e-4)
}

func TestCandidatePoolAndDiscoverySize(t *testing.T) {
	assert.Equal(t, 100, CandidatePoolSize(20))
	assert.Equal(t, 200, CandidatePoolSize(40))
	assert.Equal(t, 200, CandidatePoolSize(50))
	assert.Equal(t, 5, CandidatePoolSize(1))

	assert.Equal(t, 10, DiscoverySize(5))
	assert.Equal(t, 20, DiscoverySize(100))
	assert.Equal(t, 40, DiscoverySize(200))
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	p := paginate(items, 1, 2)
	assert.Equal(t, []int{3, 4}, p.Items)
	assert.EqualValues(t, 5, p.Total)

	p = paginate(items, 2, 2)
	assert.Equal(t, []int{5}, p.Items)

	p = paginate(items, 3, 2)
	assert.Empty(t, p.Items)
	assert.NotNil(t, p.Items)
	assert.EqualValues(t, 5, p.Total)
}

func TestCheckPage(t *testing.T) {
	assert.NoError(t, checkPage(0, 1, 50))
	assert.NoError(t, checkPage(3, 50, 50))
	assert.ErrorIs(t, checkPage(-1, 10, 50), ErrInvalidArgument)
	assert.ErrorIs(t, checkPage(0, 0, 50), ErrInvalidArgument)
	assert.ErrorIs(t, checkPage(0, 51, 50), ErrInvalidArgument)

	// page*size 与 page*size+size 都必须落在 int 范围内
	assert.NoError(t, checkPage((math.MaxInt-50)/50, 50, 50))
	assert.ErrorIs(t, checkPage((math.MaxInt-50)/50+1, 50, 50), ErrInvalidArgument)
	assert.ErrorIs(t, checkPage(math.MaxInt, 1, 0), ErrInvalidArgument)
}

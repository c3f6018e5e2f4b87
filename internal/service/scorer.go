package service

import (
	"math"
	"time"

	"github.com/d60-Lab/shelfgraph/internal/model"
)

const (
	likeWeight     = 3.0
	commentWeight  = 5.0
	saveWeight     = 4.0
	baseScore      = 1.0
	halfLifeHours  = 24.0
	decayPower     = 1.5
	followingBoost = 2.0
	// missingCreatedAtRecency 没有创建时间的内容使用固定衰减
	missingCreatedAtRecency = 0.1
)

// Scorer 相关度打分，纯函数：结果只取决于计数、时间与关注关系
type Scorer struct {
	now func() time.Time
}

func NewScorer(now func() time.Time) *Scorer {
	if now == nil {
		now = time.Now
	}
	return &Scorer{now: now}
}

// Engagement = 1 + likes×3 + comments×5 (+ saves×4)
func Engagement(c *model.Content) float64 {
	e := baseScore + float64(c.LikeCount)*likeWeight + float64(c.CommentCount)*commentWeight
	if c.Kind.SupportsSaves() {
		e += float64(c.SaveCount) * saveWeight
	}
	return e
}

// Recency = 1 / (1 + ageHours/24)^1.5
func Recency(createdAt, now time.Time) float64 {
	if createdAt.IsZero() {
		return missingCreatedAtRecency
	}
	hours := now.Sub(createdAt).Hours()
	if hours < 0 {
		hours = 0
	}
	return 1.0 / math.Pow(1.0+hours/halfLifeHours, decayPower)
}

func Relationship(authorID string, following map[string]struct{}) float64 {
	if _, ok := following[authorID]; ok {
		return followingBoost
	}
	return 1.0
}

// Score 计算单条内容得分
func (s *Scorer) Score(c *model.Content, following map[string]struct{}) float64 {
	return Engagement(c) * Recency(c.CreatedAt, s.now()) * Relationship(c.AuthorID, following)
}

// ScoreAt 使用固定时刻打分，同一次排序内保证所有条目共用一个 now
func (s *Scorer) ScoreAt(c *model.Content, following map[string]struct{}, now time.Time) float64 {
	return Engagement(c) * Recency(c.CreatedAt, now) * Relationship(c.AuthorID, following)
}

func (s *Scorer) Now() time.Time { return s.now() }

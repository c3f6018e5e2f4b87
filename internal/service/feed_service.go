package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/d60-Lab/shelfgraph/internal/model"
	"github.com/d60-Lab/shelfgraph/internal/repository"
	"github.com/d60-Lab/shelfgraph/pkg/metrics"
)

// Sort feed 排序方式
type Sort string

const (
	SortRelevant Sort = "relevant"
	SortRecent   Sort = "recent"
)

// FeedQuery 一次 feed 请求
type FeedQuery struct {
	ViewerID string
	Tab      Tab
	Kind     model.ContentKind
	Page     int
	Size     int
	Sort     Sort
}

// ScoredContent 带得分的内容；时间序模式下 Score 为 0
type ScoredContent struct {
	Content *model.Content `json:"content"`
	Score   float64        `json:"score"`
}

// FeedService 组装 feed：检索 → 打分 → 确定性排序 → 内存分页
type FeedService struct {
	retriever   *Retriever
	contents    repository.ContentRepository
	scorer      *Scorer
	maxPageSize int
}

func NewFeedService(retriever *Retriever, contents repository.ContentRepository, scorer *Scorer, maxPageSize int) *FeedService {
	if maxPageSize <= 0 {
		maxPageSize = 50
	}
	return &FeedService{retriever: retriever, contents: contents, scorer: scorer, maxPageSize: maxPageSize}
}

// Feed relevant 模式返回的 Total 是候选池大小，只是全局数量的近似值（候选池有界）；
// recent 模式的 Total 是精确值。
func (s *FeedService) Feed(ctx context.Context, q FeedQuery) (Page[ScoredContent], error) {
	if err := s.validate(&q); err != nil {
		return Page[ScoredContent]{}, err
	}
	defer metrics.ObserveFeed(string(q.Tab), string(q.Kind), string(q.Sort), time.Now())

	if q.Sort == SortRecent {
		return s.recent(ctx, q)
	}

	cands, err := s.retriever.Retrieve(ctx, q.ViewerID, q.Tab, q.Kind, q.Size)
	if err != nil {
		return Page[ScoredContent]{}, err
	}
	metrics.FeedCandidatePool.WithLabelValues(string(q.Tab), string(q.Kind)).Observe(float64(len(cands.Items)))

	ranked := s.Rank(cands.Items, cands.FollowingSet())
	page := paginate(ranked, q.Page, q.Size)
	page.Approximate = true
	return page, nil
}

// Rank 打分后按得分降序排序，得分相同按内容 ID 升序
func (s *FeedService) Rank(items []*model.Content, following map[string]struct{}) []ScoredContent {
	now := s.scorer.Now()
	ranked := make([]ScoredContent, len(items))
	for i, c := range items {
		ranked[i] = ScoredContent{Content: c, Score: s.scorer.ScoreAt(c, following, now)}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Content.ID < ranked[j].Content.ID
	})
	return ranked
}

func (s *FeedService) recent(ctx context.Context, q FeedQuery) (Page[ScoredContent], error) {
	followingIDs, err := s.retriever.following.FollowingIDs(ctx, q.ViewerID)
	if err != nil {
		return Page[ScoredContent]{}, err
	}
	f := RecentFilter(q.Tab, q.Kind, followingIDs)
	total, err := s.contents.Count(ctx, f)
	if err != nil {
		return Page[ScoredContent]{}, err
	}
	items, err := s.contents.List(ctx, f, repository.OrderRecent, q.Page*q.Size, q.Size)
	if err != nil {
		return Page[ScoredContent]{}, err
	}
	out := make([]ScoredContent, len(items))
	for i, c := range items {
		out[i] = ScoredContent{Content: c}
	}
	return Page[ScoredContent]{Items: out, Page: q.Page, Size: q.Size, Total: total}, nil
}

func (s *FeedService) validate(q *FeedQuery) error {
	if q.ViewerID == "" {
		return fmt.Errorf("viewer required: %w", ErrInvalidArgument)
	}
	if q.Tab != TabFollowing && q.Tab != TabEveryone {
		return fmt.Errorf("unknown tab %q: %w", q.Tab, ErrInvalidArgument)
	}
	if !q.Kind.Valid() {
		return fmt.Errorf("unknown kind %q: %w", q.Kind, ErrInvalidArgument)
	}
	switch q.Sort {
	case "":
		q.Sort = SortRelevant
	case SortRelevant, SortRecent:
	default:
		return fmt.Errorf("unknown sort %q: %w", q.Sort, ErrInvalidArgument)
	}
	if err := checkPage(q.Page, q.Size, s.maxPageSize); err != nil {
		return err
	}
	return nil
}


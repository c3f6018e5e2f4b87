package service

import (
	"context"

	"github.com/d60-Lab/shelfgraph/internal/model"
	"github.com/d60-Lab/shelfgraph/internal/repository"
)

// Tab feed 标签页
type Tab string

const (
	TabFollowing Tab = "following"
	TabEveryone  Tab = "everyone"
)

const (
	candidateMultiplier = 5
	maxCandidatePool    = 200
	minDiscovery        = 10
)

// FollowingSource 提供 viewer 关注的 ID 集合（通常是带缓存的实现）
type FollowingSource interface {
	FollowingIDs(ctx context.Context, userID string) ([]string, error)
}

// CandidatePoolSize = min(size×5, 200)
func CandidatePoolSize(size int) int {
	if n := size * candidateMultiplier; n < maxCandidatePool {
		return n
	}
	return maxCandidatePool
}

// DiscoverySize = max(pool/5, 10)
func DiscoverySize(pool int) int {
	if n := pool / 5; n > minDiscovery {
		return n
	}
	return minDiscovery
}

// Candidates 一次检索的结果
type Candidates struct {
	Items        []*model.Content
	FollowingIDs []string
}

// FollowingSet 转成 set 供打分使用
func (c *Candidates) FollowingSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.FollowingIDs))
	for _, id := range c.FollowingIDs {
		set[id] = struct{}{}
	}
	return set
}

// Retriever 按标签页与可见性规则拉取有界、按时间排序的候选池
type Retriever struct {
	contents  repository.ContentRepository
	following FollowingSource
	discovery map[model.ContentKind]bool
}

// NewRetriever discoveryKinds 指定哪些内容种类在 Following 页混入热门内容
func NewRetriever(contents repository.ContentRepository, following FollowingSource, discoveryKinds []model.ContentKind) *Retriever {
	d := make(map[model.ContentKind]bool, len(discoveryKinds))
	for _, k := range discoveryKinds {
		d[k] = true
	}
	return &Retriever{contents: contents, following: following, discovery: d}
}

// Retrieve 拉取候选池。Following 页在 viewer 未关注任何人时，所有种类统一退回公开热门内容。
func (r *Retriever) Retrieve(ctx context.Context, viewerID string, tab Tab, kind model.ContentKind, size int) (*Candidates, error) {
	followingIDs, err := r.following.FollowingIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	pool := CandidatePoolSize(size)
	out := &Candidates{FollowingIDs: followingIDs}

	switch tab {
	case TabFollowing:
		if len(followingIDs) == 0 {
			out.Items, err = r.contents.List(ctx, repository.ContentFilter{Kind: kind, Visibility: repository.PublicOnly},
				repository.OrderPopular, 0, pool)
			return out, err
		}
		items, err := r.contents.List(ctx, repository.ContentFilter{Kind: kind, Visibility: repository.ByAuthors, AuthorIDs: followingIDs},
			repository.OrderRecent, 0, pool)
		if err != nil {
			return nil, err
		}
		if r.discovery[kind] {
			popular, err := r.contents.List(ctx, repository.ContentFilter{Kind: kind, Visibility: repository.PublicOnly},
				repository.OrderPopular, 0, DiscoverySize(pool))
			if err != nil {
				return nil, err
			}
			items = mergeByID(items, popular)
		}
		out.Items = items
	case TabEveryone:
		out.Items, err = r.contents.List(ctx, repository.ContentFilter{Kind: kind, Visibility: repository.PublicOrAuthors, AuthorIDs: followingIDs},
			repository.OrderRecent, 0, pool)
		if err != nil {
			return nil, err
		}
	default:
		return nil, ErrInvalidArgument
	}
	return out, nil
}

// RecentFilter 时间序模式使用与候选池相同的可见性规则
func RecentFilter(tab Tab, kind model.ContentKind, followingIDs []string) repository.ContentFilter {
	if tab == TabFollowing {
		if len(followingIDs) == 0 {
			return repository.ContentFilter{Kind: kind, Visibility: repository.PublicOnly}
		}
		return repository.ContentFilter{Kind: kind, Visibility: repository.ByAuthors, AuthorIDs: followingIDs}
	}
	return repository.ContentFilter{Kind: kind, Visibility: repository.PublicOrAuthors, AuthorIDs: followingIDs}
}

// mergeByID 合并并按 ID 去重，先出现者保留
func mergeByID(lists ...[]*model.Content) []*model.Content {
	seen := make(map[string]struct{})
	var out []*model.Content
	for _, l := range lists {
		for _, c := range l {
			if _, ok := seen[c.ID]; ok {
				continue
			}
			seen[c.ID] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}

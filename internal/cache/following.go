package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/shelfgraph/pkg/logger"
	"github.com/d60-Lab/shelfgraph/pkg/metrics"
)

// emptyMarker 标记“关注列表为空”，Redis list 不能存空集合
const emptyMarker = "\x00"

// Loader 缓存未命中时从主存储加载
type Loader func(ctx context.Context, userID string) ([]string, error)

// FollowingCache 以 Redis list 缓存用户关注的 ID 集合，图变更时同步删除 key。
// 每个用户有一个代数 key，Invalidate 递增它；回填前代数变了就放弃写入，
// 避免回源期间发生的失效被旧集合覆盖。client 为 nil 时直接回源。
type FollowingCache struct {
	client *redis.Client
	load   Loader
	ttl    time.Duration
}

func NewFollowingCache(client *redis.Client, load Loader, ttl time.Duration) *FollowingCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &FollowingCache{client: client, load: load, ttl: ttl}
}

func key(userID string) string { return fmt.Sprintf("following:ids:%s", userID) }

func genKey(userID string) string { return fmt.Sprintf("following:gen:%s", userID) }

// FollowingIDs 读缓存，失败或未命中时回源并回填；Redis 故障不影响结果
func (c *FollowingCache) FollowingIDs(ctx context.Context, userID string) ([]string, error) {
	if c.client == nil {
		return c.load(ctx, userID)
	}
	vals, err := c.client.LRange(ctx, key(userID), 0, -1).Result()
	if err == nil && len(vals) > 0 {
		metrics.FollowingCacheLookups.WithLabelValues("hit").Inc()
		if len(vals) == 1 && vals[0] == emptyMarker {
			return []string{}, nil
		}
		return vals, nil
	}
	if err != nil && !errors.Is(err, redis.Nil) {
		logger.Warn("following cache read failed", zap.String("user", userID), zap.Error(err))
	}
	metrics.FollowingCacheLookups.WithLabelValues("miss").Inc()

	// 先记下代数再回源
	gen, genErr := c.client.Get(ctx, genKey(userID)).Result()
	if errors.Is(genErr, redis.Nil) {
		gen, genErr = "", nil
	}

	ids, err := c.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if genErr == nil {
		c.store(ctx, userID, gen, ids)
	}
	return ids, nil
}

// store 在 WATCH 代数 key 的事务里回填；代数与 gen 不一致说明期间被失效过
func (c *FollowingCache) store(ctx context.Context, userID, gen string, ids []string) {
	k, gk := key(userID), genKey(userID)
	members := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		members = append(members, id)
	}
	if len(members) == 0 {
		members = append(members, emptyMarker)
	}
	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, gk).Result()
		if errors.Is(err, redis.Nil) {
			cur, err = "", nil
		}
		if err != nil {
			return err
		}
		if cur != gen {
			return redis.TxFailedErr
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, k)
			pipe.RPush(ctx, k, members...)
			pipe.Expire(ctx, k, c.ttl)
			return nil
		})
		return err
	}, gk)
	switch {
	case err == nil:
	case errors.Is(err, redis.TxFailedErr):
		logger.Debug("following cache invalidated during load, skip write", zap.String("user", userID))
	default:
		logger.Warn("following cache write failed", zap.String("user", userID), zap.Error(err))
	}
}

// Invalidate 删除用户的缓存项并递增代数
func (c *FollowingCache) Invalidate(ctx context.Context, userIDs ...string) error {
	if c.client == nil || len(userIDs) == 0 {
		return nil
	}
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = key(id)
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		for _, id := range userIDs {
			pipe.Incr(ctx, genKey(id))
			pipe.Expire(ctx, genKey(id), c.ttl)
		}
		return nil
	})
	return err
}

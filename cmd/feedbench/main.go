package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/d60-Lab/shelfgraph/internal/cache"
	"github.com/d60-Lab/shelfgraph/internal/model"
	"github.com/d60-Lab/shelfgraph/internal/repository"
	"github.com/d60-Lab/shelfgraph/internal/service"
)

type request struct {
	viewer string
	tab    service.Tab
	sort   service.Sort
	page   int
	size   int
}

// 对比 feed 在无缓存 / Redis 关注集合缓存下的延迟
func main() {
	ctx := context.Background()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "host=localhost user=postgres password=postgres dbname=postgres port=5434 sslmode=disable"
	}
	db := must(gorm.Open(postgres.Open(dsn), &gorm.Config{}))
	for _, t := range []string{"likes", "saves", "comments", "contents", "follows", "follow_requests", "activities", "users"} {
		mustDo(db.Exec("DROP TABLE IF EXISTS " + t + " CASCADE").Error)
	}
	mustDo(db.AutoMigrate(model.All()...))

	const (
		authorCount  = 2000
		viewerCount  = 50
		perViewer    = 300 // 每个 viewer 关注的作者数
		perAuthor    = 10  // 每个作者的内容数
		requestCount = 5000
	)

	fmt.Println("Setting up test data...")
	rnd := rand.New(rand.NewSource(42))
	base := time.Now()
	authors := make([]model.User, authorCount)
	for i := range authors {
		authors[i] = model.User{ID: uuid.NewString(), Username: fmt.Sprintf("author_%d", i), IsPublic: i%4 != 0}
	}
	mustDo(db.CreateInBatches(&authors, 1000).Error)
	// is_public 默认 true，批量插入时 false 会被列默认值吞掉
	private := make([]string, 0, authorCount/4)
	for _, a := range authors {
		if !a.IsPublic {
			private = append(private, a.ID)
		}
	}
	mustDo(db.Model(&model.User{}).Where("id IN ?", private).UpdateColumn("is_public", false).Error)

	contents := make([]model.Content, 0, authorCount*perAuthor)
	for _, a := range authors {
		for j := 0; j < perAuthor; j++ {
			kind := model.KindReview
			if j%2 == 1 {
				kind = model.KindReflection
			}
			contents = append(contents, model.Content{
				ID:            uuid.NewString(),
				Kind:          kind,
				AuthorID:      a.ID,
				Body:          "bench",
				FollowersOnly: rnd.Float64() < 0.1,
				LikeCount:     int64(rnd.Intn(200)),
				CommentCount:  int64(rnd.Intn(40)),
				SaveCount:     int64(rnd.Intn(30)),
				CreatedAt:     base.Add(-time.Duration(rnd.Intn(30*24)) * time.Hour),
			})
		}
	}
	mustDo(db.CreateInBatches(&contents, 1000).Error)

	viewers := make([]model.User, viewerCount)
	edges := make([]model.Follow, 0, viewerCount*perViewer)
	for i := range viewers {
		viewers[i] = model.User{ID: uuid.NewString(), Username: fmt.Sprintf("viewer_%d", i), IsPublic: true}
		for _, k := range rnd.Perm(authorCount)[:perViewer] {
			edges = append(edges, model.Follow{ID: uuid.NewString(), FollowerID: viewers[i].ID, FolloweeID: authors[k].ID})
		}
	}
	mustDo(db.CreateInBatches(&viewers, 1000).Error)
	mustDo(db.CreateInBatches(&edges, 1000).Error)
	fmt.Printf("Test data ready: %d authors, %d contents, %d viewers x %d follows\n", authorCount, len(contents), viewerCount, perViewer)

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6380"
	}
	client := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer client.Close()
	if err := client.Ping(ctx).Err(); err != nil {
		panic(fmt.Sprintf("Failed to connect to Redis at %s: %v", redisAddr, err))
	}

	reqs := makeRequests(rnd, viewers, requestCount)
	noCache := runScenario(ctx, db, nil, reqs)
	cached := runScenario(ctx, db, client, reqs)

	fmt.Printf("\nFeed latency (%d req, %d viewers, PostgreSQL + Redis)\n", len(reqs), viewerCount)
	for _, r := range []struct {
		name string
		res  scenarioResult
	}{{"No cache", noCache}, {"Following cache", cached}} {
		fmt.Printf("%-16s avg=%v p95=%v p99=%v cache_keys=%d mem=%s\n",
			r.name, avg(r.res.durations), pct(r.res.durations, 0.95), pct(r.res.durations, 0.99),
			r.res.cacheKeys, formatBytes(r.res.memoryBytes))
	}
}

type scenarioResult struct {
	durations   []time.Duration
	cacheKeys   int
	memoryBytes int64
}

func runScenario(ctx context.Context, db *gorm.DB, client *redis.Client, reqs []request) scenarioResult {
	if client != nil {
		client.FlushAll(ctx)
	}
	follows := repository.NewFollowRepository(db)
	contents := repository.NewContentRepository(db)
	fc := cache.NewFollowingCache(client, follows.FollowingIDs, 10*time.Minute)
	retriever := service.NewRetriever(contents, fc, []model.ContentKind{model.KindReview})
	feed := service.NewFeedService(retriever, contents, service.NewScorer(nil), 50)

	fmt.Print("  Running benchmark...")
	out := make([]time.Duration, 0, len(reqs))
	for _, r := range reqs {
		start := time.Now()
		_, err := feed.Feed(ctx, service.FeedQuery{
			ViewerID: r.viewer, Tab: r.tab, Kind: model.KindReview, Page: r.page, Size: r.size, Sort: r.sort,
		})
		if err != nil {
			panic(err)
		}
		out = append(out, time.Since(start))
	}
	fmt.Println(" done")

	res := scenarioResult{durations: out}
	if client != nil {
		keys, _ := client.Keys(ctx, "following:*").Result()
		res.cacheKeys = len(keys)
		if info, err := client.Info(ctx, "memory").Result(); err == nil {
			res.memoryBytes = parseRedisMemory(info)
		}
	}
	return res
}

// parseRedisMemory 从 INFO memory 中取 used_memory
func parseRedisMemory(info string) int64 {
	for _, line := range strings.Split(info, "\n") {
		if v, ok := strings.CutPrefix(strings.TrimSpace(line), "used_memory:"); ok {
			n, _ := strconv.ParseInt(v, 10, 64)
			return n
		}
	}
	return 0
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func makeRequests(rnd *rand.Rand, viewers []model.User, n int) []request {
	sizes := []int{10, 20, 50}
	out := make([]request, n)
	for i := range out {
		r := request{
			viewer: viewers[rnd.Intn(len(viewers))].ID,
			tab:    service.TabFollowing,
			sort:   service.SortRelevant,
			size:   sizes[rnd.Intn(len(sizes))],
		}
		if rnd.Float64() > 0.7 {
			r.tab = service.TabEveryone
		}
		if rnd.Float64() > 0.8 {
			r.sort = service.SortRecent
			r.page = rnd.Intn(10)
		}
		out[i] = r
	}
	return out
}

func avg(vs []time.Duration) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range vs {
		sum += v
	}
	return sum / time.Duration(len(vs))
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), vs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := int(math.Ceil(p*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func mustDo(err error) {
	if err != nil {
		panic(err)
	}
}

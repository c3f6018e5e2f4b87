package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/d60-Lab/shelfgraph/config"
	"github.com/d60-Lab/shelfgraph/internal/model"
	"github.com/d60-Lab/shelfgraph/internal/repository"
	"github.com/d60-Lab/shelfgraph/internal/service"
	"github.com/d60-Lab/shelfgraph/pkg/database"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	if k < 0 {
		k = 0
	}
	if k >= len(xs) {
		k = len(xs) - 1
	}
	return xs[k]
}

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			return v
		}
	}
	return def
}

// 发布 → outbox → 扇出落地到粉丝收件箱 的端到端延迟
func main() {
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	if err := database.Migrate(db); err != nil {
		panic(err)
	}
	ctx := context.Background()

	N := envInt("N", 20000)         // 作者粉丝数
	POSTS := envInt("POSTS", 100)   // 发布条数
	WORKERS := envInt("WORKERS", 8) // 扇出 worker
	BATCH := envInt("BATCH", 1000)  // 通知批量写入
	CLAIM := envInt("CLAIM", 64)    // 每次 claim 的 outbox 数

	// 本地压测，清表保证可复现
	_ = db.Exec("TRUNCATE TABLE notifications, outbox, contents, follows, users RESTART IDENTITY CASCADE").Error

	users := repository.NewUserRepository(db)
	follows := repository.NewFollowRepository(db)
	notifications := repository.NewNotificationRepository(db)

	author := model.User{ID: uuid.NewString(), Username: "author0", IsPublic: true}
	if err := users.Create(ctx, &author); err != nil {
		panic(err)
	}
	fans := make([]model.User, N)
	for i := range fans {
		id := uuid.NewString()
		fans[i] = model.User{ID: id, Username: "u" + id[:12], IsPublic: true}
	}
	if err := db.CreateInBatches(&fans, 1000).Error; err != nil {
		panic(err)
	}
	edges := make([]model.Follow, N)
	for i := range fans {
		edges[i] = model.Follow{ID: uuid.NewString(), FollowerID: fans[i].ID, FolloweeID: author.ID}
	}
	if err := db.CreateInBatches(&edges, 1000).Error; err != nil {
		panic(err)
	}
	// 批量写入的边不经过计数维护，直接用对账语句补齐
	if _, err := users.RecomputeCounts(ctx, []string{author.ID}); err != nil {
		panic(err)
	}

	worker := service.NewFanoutWorker(db, follows, notifications, WORKERS, BATCH, CLAIM, 20*time.Millisecond)
	stop := worker.Start()
	defer func() { _ = stop(context.Background()) }()

	publisher := service.NewPublisher(db, nil)
	pubDurations := make([]time.Duration, 0, POSTS)
	for i := 0; i < POSTS; i++ {
		st := time.Now()
		_, err := publisher.Publish(ctx, service.PublishInput{
			AuthorID:  author.ID,
			Kind:      model.KindReview,
			BookID:    fmt.Sprintf("book-%d", i),
			BookTitle: fmt.Sprintf("Book %d", i),
			Body:      fmt.Sprintf("review %d", i),
		})
		if err != nil {
			panic(err)
		}
		pubDurations = append(pubDurations, time.Since(st))
	}

	land := make([]time.Duration, 0, POSTS)
	timeout := time.After(2 * time.Minute)
collect:
	for len(land) < POSTS {
		select {
		case d := <-worker.Metrics():
			land = append(land, d)
		case <-timeout:
			fmt.Printf("timeout while waiting for fanout metrics: got=%d want=%d\n", len(land), POSTS)
			break collect
		}
	}

	var pubSum time.Duration
	for _, d := range pubDurations {
		pubSum += d
	}
	fmt.Printf("N=%d POSTS=%d WORKERS=%d BATCH=%d CLAIM=%d\n", N, POSTS, WORKERS, BATCH, CLAIM)
	fmt.Printf("Publish tx latency: avg=%v p95=%v p99=%v\n", pubSum/time.Duration(len(pubDurations)), pct(pubDurations, 0.95), pct(pubDurations, 0.99))
	if len(land) > 0 {
		var landSum time.Duration
		for _, d := range land {
			landSum += d
		}
		fmt.Printf("Fanout landing (outbox->done): samples=%d avg=%v p95=%v p99=%v\n", len(land), landSum/time.Duration(len(land)), pct(land, 0.95), pct(land, 0.99))
	}

	inbox := service.NewInboxService(notifications)
	st := time.Now()
	page, err := inbox.List(ctx, fans[0].ID, false, 0, 50)
	if err != nil {
		panic(err)
	}
	fmt.Printf("Inbox read (fan0, size=50): %v, rows=%d total=%d\n", time.Since(st), len(page.Items), page.Total)
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/shelfgraph/config"
	"github.com/d60-Lab/shelfgraph/internal/api"
	"github.com/d60-Lab/shelfgraph/internal/api/handler"
	"github.com/d60-Lab/shelfgraph/internal/cache"
	"github.com/d60-Lab/shelfgraph/internal/middleware"
	"github.com/d60-Lab/shelfgraph/internal/model"
	"github.com/d60-Lab/shelfgraph/internal/repository"
	"github.com/d60-Lab/shelfgraph/internal/service"
	"github.com/d60-Lab/shelfgraph/pkg/auth"
	pkgcache "github.com/d60-Lab/shelfgraph/pkg/cache"
	"github.com/d60-Lab/shelfgraph/pkg/database"
	"github.com/d60-Lab/shelfgraph/pkg/kafka"
	"github.com/d60-Lab/shelfgraph/pkg/logger"
	"github.com/d60-Lab/shelfgraph/pkg/monitor"
	"github.com/d60-Lab/shelfgraph/pkg/tracing"
)

// @title shelfgraph API
// @version 1.0
// @description 关注关系、Feed 排序与通知服务
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		panic(err)
	}
	defer logger.Sync()
	gin.SetMode(cfg.Server.Mode)

	if err := monitor.Init(cfg.Sentry); err != nil {
		logger.Warn("sentry init failed", zap.Error(err))
	}
	defer monitor.Flush()

	ctx := context.Background()
	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		logger.Fatal("tracing init failed", zap.Error(err))
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Fatal("database init failed", zap.Error(err))
	}

	// Redis 不可用时关注集合缓存直接回源
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		if rdb, err = pkgcache.NewRedis(cfg.Redis); err != nil {
			logger.Warn("redis unavailable, following cache disabled", zap.Error(err))
			rdb = nil
		}
	}

	users := repository.NewUserRepository(db)
	follows := repository.NewFollowRepository(db)
	contents := repository.NewContentRepository(db)
	notifications := repository.NewNotificationRepository(db)

	followingCache := cache.NewFollowingCache(rdb, follows.FollowingIDs, cfg.Redis.FollowingTTL)

	var relay *service.EventRelay
	var producer *kafka.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		relay = service.NewEventRelay(producer, cfg.Kafka.QueueSize)
	}

	dispatcher := service.NewDispatcher(notifications, users)
	activities := service.NewActivityService(db, followingCache)
	relService := service.NewRelationshipService(db, dispatcher, followingCache, relay, activities)

	kinds := make([]model.ContentKind, 0, len(cfg.Feed.DiscoveryKinds))
	for _, k := range cfg.Feed.DiscoveryKinds {
		kinds = append(kinds, model.ContentKind(k))
	}
	retriever := service.NewRetriever(contents, followingCache, kinds)
	feedService := service.NewFeedService(retriever, contents, service.NewScorer(nil), cfg.Feed.MaxPageSize)

	h := handler.NewHandler(handler.Deps{
		DB:         db,
		Redis:      rdb,
		Relations:  relService,
		Feed:       feedService,
		Publisher:  service.NewPublisher(db, activities),
		Activities: activities,
		Engagement: service.NewEngagementService(db, dispatcher),
		Inbox:      service.NewInboxService(notifications),
	})

	serviceName := ""
	if cfg.Tracing.Enabled {
		serviceName = cfg.Tracing.ServiceName
	}
	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	router := api.SetupRouter(h, api.RouterOptions{
		ServiceName: serviceName,
		Signer:      auth.NewSigner(cfg.JWT.Secret, cfg.JWT.Issuer),
		Limiter:     limiter,
		Swagger:     cfg.Server.Mode != gin.ReleaseMode,
	})

	// 后台任务：扇出 worker、事件外发、计数对账
	nc := cfg.Notification
	worker := service.NewFanoutWorker(db, follows, notifications, nc.FanoutWorkers, nc.BatchSize, nc.ClaimLimit, nc.PollInterval)
	stopWorker := worker.Start()
	var stopRelay func(context.Context) error
	if relay != nil {
		stopRelay = relay.Start(cfg.Kafka.Workers)
	}
	bgCtx, cancelBg := context.WithCancel(ctx)
	go service.NewCountReconciler(users, 500, nc.ReconcileEvery).Run(bgCtx)
	go func() {
		t := time.NewTicker(10 * time.Minute)
		defer t.Stop()
		for {
			select {
			case <-bgCtx.Done():
				return
			case <-t.C:
				if n := limiter.Cleanup(); n > 0 {
					logger.Debug("rate limiters evicted", zap.Int("count", n))
				}
			}
		}
	}()

	srv := &http.Server{Addr: ":" + cfg.Server.Port, Handler: router}
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	cancelBg()
	if err := stopWorker(shutdownCtx); err != nil {
		logger.Warn("fanout worker stop", zap.Error(err))
	}
	if stopRelay != nil {
		if err := stopRelay(shutdownCtx); err != nil {
			logger.Warn("event relay stop", zap.Error(err))
		}
	}
	if producer != nil {
		_ = producer.Close()
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracing shutdown", zap.Error(err))
	}
}

package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/shelfgraph/internal/model"
	"github.com/d60-Lab/shelfgraph/internal/repository"
	"github.com/d60-Lab/shelfgraph/pkg/logger"
	"github.com/d60-Lab/shelfgraph/pkg/metrics"
	"github.com/d60-Lab/shelfgraph/pkg/monitor"
)

// FanoutWorker 从 outbox 拉取事件，按批分页粉丝并为每个粉丝写一条通知。
// 部分扇出不回滚（至多一次、尽力而为）。
type FanoutWorker struct {
	db           *gorm.DB
	follows      repository.FollowRepository
	sink         repository.NotificationRepository
	batchSize    int
	claimLimit   int
	pollInterval time.Duration
	workers      int
	metricsCh    chan time.Duration // outbox->done latency
}

func NewFanoutWorker(db *gorm.DB, follows repository.FollowRepository, sink repository.NotificationRepository, workers, batchSize, claimLimit int, pollInterval time.Duration) *FanoutWorker {
	if workers <= 0 {
		workers = 4
	}
	if batchSize <= 0 {
		batchSize = 500
	}
	if claimLimit <= 0 {
		claimLimit = 64
	}
	if pollInterval <= 0 {
		pollInterval = 200 * time.Millisecond
	}
	return &FanoutWorker{
		db: db, follows: follows, sink: sink,
		workers: workers, batchSize: batchSize, claimLimit: claimLimit, pollInterval: pollInterval,
		metricsCh: make(chan time.Duration, 4096),
	}
}

// Metrics 每完成一条 outbox 发送一次落地耗时；通道满时丢弃
func (w *FanoutWorker) Metrics() <-chan time.Duration { return w.metricsCh }

// Start 启动若干 worker 轮询 outbox；返回停止函数，等待 worker 退出或 ctx 超时
func (w *FanoutWorker) Start() func(context.Context) error {
	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < w.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.loop(stop)
		}()
	}
	return func(ctx context.Context) error {
		close(stop)
		done := make(chan struct{})
		go func() { wg.Wait(); close(done) }()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (w *FanoutWorker) loop(stop <-chan struct{}) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if _, err := w.ProcessOnce(context.Background()); err != nil {
				logger.Warn("fanout claim failed", zap.Error(err))
			}
		}
	}
}

// ProcessOnce claim 一批 pending outbox 并扇出，返回处理的事件数
func (w *FanoutWorker) ProcessOnce(ctx context.Context) (int, error) {
	batch, err := w.claim(ctx)
	if err != nil || len(batch) == 0 {
		return 0, err
	}
	for i := range batch {
		w.fanout(ctx, &batch[i])
	}
	return len(batch), nil
}

// claim postgres 上使用 FOR UPDATE SKIP LOCKED，多 worker 互不阻塞
func (w *FanoutWorker) claim(ctx context.Context) ([]model.Outbox, error) {
	var batch []model.Outbox
	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Where("status = ?", model.OutboxPending).Order("created_at").Limit(w.claimLimit)
		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}
		if err := q.Find(&batch).Error; err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		ids := make([]string, len(batch))
		for i, b := range batch {
			ids[i] = b.ID
		}
		return tx.Model(&model.Outbox{}).
			Where("id IN ? AND status = ?", ids, model.OutboxPending).
			Update("status", model.OutboxProcessing).Error
	})
	return batch, err
}

func (w *FanoutWorker) fanout(ctx context.Context, ob *model.Outbox) {
	var written int64
	after := ""
	for {
		ids, err := w.follows.FollowerIDsAfter(ctx, ob.AuthorID, after, w.batchSize)
		if err != nil {
			monitor.SideEffectFailed(ctx, "fanout_list_followers", err, zap.String("outbox", ob.ID))
			break
		}
		if len(ids) == 0 {
			break
		}
		records := make([]model.Notification, 0, len(ids))
		now := time.Now()
		for _, id := range ids {
			if id == ob.AuthorID {
				continue
			}
			records = append(records, model.Notification{
				RecipientID: id,
				ActorID:     ob.AuthorID,
				Type:        ob.EventType,
				ContentID:   ob.ContentID,
				BookID:      ob.BookID,
				Message:     ob.Message,
				CreatedAt:   now,
			})
		}
		if err := w.sink.AppendBatch(ctx, records, w.batchSize); err != nil {
			monitor.SideEffectFailed(ctx, "fanout_write", err, zap.String("outbox", ob.ID))
			break
		}
		written += int64(len(records))
		metrics.NotificationsCreated.WithLabelValues(string(ob.EventType)).Add(float64(len(records)))
		if len(ids) < w.batchSize {
			break
		}
		after = ids[len(ids)-1]
	}

	now := time.Now()
	if err := w.db.WithContext(ctx).Model(&model.Outbox{}).
		Where("id = ?", ob.ID).
		Updates(map[string]any{"status": model.OutboxDone, "processed_at": now, "fanout_count": written}).Error; err != nil {
		logger.Warn("fanout mark done failed", zap.String("outbox", ob.ID), zap.Error(err))
	}
	if !ob.CreatedAt.IsZero() {
		d := time.Since(ob.CreatedAt)
		metrics.FanoutLatency.Observe(d.Seconds())
		select {
		case w.metricsCh <- d:
		default:
		}
	}
}

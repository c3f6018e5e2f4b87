package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/shelfgraph/internal/repository"
	"github.com/d60-Lab/shelfgraph/pkg/logger"
)

// CountReconciler 定期用 follows 表的真实值校正 users 上的冗余计数。
// 重算与写回在同一条 UPDATE 里完成，不会覆盖对账期间提交的关注。
type CountReconciler struct {
	users     repository.UserRepository
	batchSize int
	interval  time.Duration
}

func NewCountReconciler(users repository.UserRepository, batchSize int, interval time.Duration) *CountReconciler {
	if batchSize <= 0 {
		batchSize = 500
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &CountReconciler{users: users, batchSize: batchSize, interval: interval}
}

// Run 阻塞直到 ctx 取消
func (r *CountReconciler) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n, err := r.ReconcileOnce(ctx); err != nil {
				logger.Error("reconcile follow counts failed", zap.Error(err))
			} else if n > 0 {
				logger.Info("follow counts reconciled", zap.Int("fixed", n))
			}
		}
	}
}

// ReconcileOnce 按 id 顺序遍历全部用户，返回修正的用户数
func (r *CountReconciler) ReconcileOnce(ctx context.Context) (int, error) {
	fixed := 0
	after := ""
	for {
		ids, err := r.users.ListIDs(ctx, after, r.batchSize)
		if err != nil {
			return fixed, err
		}
		if len(ids) == 0 {
			return fixed, nil
		}
		n, err := r.users.RecomputeCounts(ctx, ids)
		if err != nil {
			return fixed, err
		}
		if n > 0 {
			logger.Debug("fix follow counts", zap.String("from", ids[0]), zap.Int64("rows", n))
		}
		fixed += int(n)
		if len(ids) < r.batchSize {
			return fixed, nil
		}
		after = ids[len(ids)-1]
	}
}

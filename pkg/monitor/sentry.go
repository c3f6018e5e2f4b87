package monitor

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"github.com/d60-Lab/shelfgraph/config"
	"github.com/d60-Lab/shelfgraph/pkg/logger"
	"github.com/d60-Lab/shelfgraph/pkg/metrics"
)

var enabled bool

// Init 未配置 DSN 时 Sentry 保持关闭
func Init(cfg config.SentryConfig) error {
	if cfg.DSN == "" {
		return nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		AttachStacktrace: true,
	}); err != nil {
		return err
	}
	enabled = true
	return nil
}

// Flush 退出前等待事件发送
func Flush() {
	if enabled {
		sentry.Flush(2 * time.Second)
	}
}

// SideEffectFailed 记录被吞掉的副作用错误：日志 + 计数 + Sentry
func SideEffectFailed(ctx context.Context, kind string, err error, fields ...zap.Field) {
	if err == nil {
		return
	}
	metrics.SideEffectFailures.WithLabelValues(kind).Inc()
	logger.Warn("side effect failed", append(fields, zap.String("kind", kind), zap.Error(err))...)
	if !enabled {
		return
	}
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("side_effect", kind)
		hub.CaptureException(err)
	})
}

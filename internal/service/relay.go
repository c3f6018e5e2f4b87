package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/shelfgraph/pkg/logger"
	"github.com/d60-Lab/shelfgraph/pkg/metrics"
)

// GraphEventType 图变更事件
type GraphEventType string

const (
	EventFollow          GraphEventType = "follow"
	EventUnfollow        GraphEventType = "unfollow"
	EventFollowRequested GraphEventType = "follow_requested"
	EventFollowApproved  GraphEventType = "follow_approved"
	EventFollowRejected  GraphEventType = "follow_rejected"
	EventRequestCanceled GraphEventType = "follow_request_canceled"
)

// GraphEvent 外发到消息队列的图变更
type GraphEvent struct {
	Type      GraphEventType `json:"type"`
	ActorID   string         `json:"actor_id"`
	TargetID  string         `json:"target_id"`
	RequestID string         `json:"request_id,omitempty"`
	At        time.Time      `json:"at"`
}

// Sender 消息发送端（Kafka producer）
type Sender interface {
	Send(ctx context.Context, key string, value []byte) error
}

// EventRelay 本地异步外发器：有界队列 + 若干 worker，队列满时丢弃并告警
type EventRelay struct {
	sender Sender
	ch     chan GraphEvent
}

func NewEventRelay(sender Sender, queueSize int) *EventRelay {
	if queueSize <= 0 {
		queueSize = 10000
	}
	return &EventRelay{sender: sender, ch: make(chan GraphEvent, queueSize)}
}

// Start 启动 worker；返回的 stop 先等进行中的发送结束，再把剩余事件发完
func (r *EventRelay) Start(workers int) func(context.Context) error {
	if workers <= 0 {
		workers = 2
	}
	stopCh := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stopCh:
					return
				default:
				}
				select {
				case ev := <-r.ch:
					r.send(ev)
				case <-stopCh:
					return
				}
			}
		}()
	}
	return func(ctx context.Context) error {
		close(stopCh)
		done := make(chan struct{})
		go func() { wg.Wait(); close(done) }()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
		for {
			select {
			case ev := <-r.ch:
				r.send(ev)
			case <-ctx.Done():
				return ctx.Err()
			default:
				return nil
			}
		}
	}
}

func (r *EventRelay) send(ev GraphEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		logger.Error("marshal graph event", zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.sender.Send(ctx, ev.ActorID, payload); err != nil {
		logger.Warn("relay graph event failed", zap.String("type", string(ev.Type)), zap.Error(err))
	}
}

// Enqueue 非阻塞入队；r 为 nil 时忽略
func (r *EventRelay) Enqueue(ev GraphEvent) {
	if r == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	select {
	case r.ch <- ev:
	default:
		metrics.RelayDropped.Inc()
		logger.Warn("relay queue full, drop event", zap.String("type", string(ev.Type)), zap.String("actor", ev.ActorID))
	}
}

// QueueLen 返回当前队列长度（采样值）
func (r *EventRelay) QueueLen() int { return len(r.ch) }

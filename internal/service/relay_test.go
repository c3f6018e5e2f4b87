package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/shelfgraph/pkg/metrics"
)

type failingSender struct{}

func (failingSender) Send(context.Context, string, []byte) error {
	return errors.New("broker down")
}

func TestEventRelay_DropsWhenFull(t *testing.T) {
	sender := &recordingSender{}
	r := NewEventRelay(sender, 2)
	dropped := testutil.ToFloat64(metrics.RelayDropped)
	for i := 0; i < 5; i++ {
		r.Enqueue(GraphEvent{Type: EventFollow, ActorID: "a", TargetID: "b"})
	}
	assert.Equal(t, 2, r.QueueLen())
	assert.Equal(t, dropped+3, testutil.ToFloat64(metrics.RelayDropped))

	require.NoError(t, r.Start(1)(context.Background()))
	require.Eventually(t, func() bool { return sender.count() == 2 }, time.Second, 5*time.Millisecond)
	assert.Zero(t, r.QueueLen())
}

func TestEventRelay_NilIsNoop(t *testing.T) {
	var r *EventRelay
	assert.NotPanics(t, func() { r.Enqueue(GraphEvent{Type: EventFollow}) })
}

func TestEventRelay_SendFailureIsSwallowed(t *testing.T) {
	r := NewEventRelay(failingSender{}, 4)
	r.Enqueue(GraphEvent{Type: EventUnfollow, ActorID: "a", TargetID: "b"})
	stop := r.Start(1)
	require.NoError(t, stop(context.Background()))
	assert.Zero(t, r.QueueLen())
}

// blockingSender 阻塞在 Send 里直到 release 被关闭
type blockingSender struct {
	entered chan struct{}
	release chan struct{}
	sent    atomic.Int32
}

func (s *blockingSender) Send(context.Context, string, []byte) error {
	s.entered <- struct{}{}
	<-s.release
	s.sent.Add(1)
	return nil
}

func TestEventRelay_StopWaitsForInflightSend(t *testing.T) {
	sender := &blockingSender{entered: make(chan struct{}, 1), release: make(chan struct{})}
	r := NewEventRelay(sender, 4)
	stop := r.Start(1)
	r.Enqueue(GraphEvent{Type: EventFollow, ActorID: "a", TargetID: "b"})
	<-sender.entered

	stopped := make(chan error, 1)
	go func() { stopped <- stop(context.Background()) }()

	select {
	case <-stopped:
		t.Fatal("stop returned while a send was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(sender.release)
	require.NoError(t, <-stopped)
	assert.EqualValues(t, 1, sender.sent.Load())
}

func TestEventRelay_StopHonoursContextWhileSendBlocks(t *testing.T) {
	sender := &blockingSender{entered: make(chan struct{}, 1), release: make(chan struct{})}
	defer close(sender.release)
	r := NewEventRelay(sender, 4)
	stop := r.Start(1)
	r.Enqueue(GraphEvent{Type: EventFollow, ActorID: "a", TargetID: "b"})
	<-sender.entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, stop(ctx), context.DeadlineExceeded)
}

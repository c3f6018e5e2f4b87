package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FeedBuildDuration 单次 feed 组装耗时
	FeedBuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shelfgraph_feed_build_duration_seconds",
			Help:    "Duration of feed assembly (retrieval + scoring + pagination)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"tab", "kind", "sort"},
	)

	FeedCandidatePool = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shelfgraph_feed_candidate_pool_size",
			Help:    "Number of candidates scored per ranked feed request",
			Buckets: []float64{0, 10, 25, 50, 100, 150, 200, 250},
		},
		[]string{"tab", "kind"},
	)

	GraphMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfgraph_graph_mutations_total",
			Help: "Follow graph mutations by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfgraph_notifications_created_total",
			Help: "Notification rows written, by type",
		},
		[]string{"type"},
	)

	SideEffectFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfgraph_side_effect_failures_total",
			Help: "Swallowed failures of best-effort side effects",
		},
		[]string{"kind"},
	)

	FanoutLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shelfgraph_fanout_landing_seconds",
			Help:    "Delay between outbox insert and fan-out completion",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		},
	)

	FollowingCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfgraph_following_cache_lookups_total",
			Help: "Following-id cache lookups by result",
		},
		[]string{"result"},
	)

	RelayDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shelfgraph_event_relay_dropped_total",
			Help: "Graph events dropped because the relay queue was full",
		},
	)
)

// ObserveFeed 记录 feed 耗时
func ObserveFeed(tab, kind, sort string, start time.Time) {
	FeedBuildDuration.WithLabelValues(tab, kind, sort).Observe(time.Since(start).Seconds())
}

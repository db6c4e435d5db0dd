package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics of the dashboard service.
type Metrics struct {
	APIRequests           *prometheus.CounterVec
	ConversationsBuilt    prometheus.Counter
	ConversationsSkipped  prometheus.Counter
	ConversationsMatched  prometheus.Counter
	SummaryPoints         prometheus.Counter
	CacheHits             prometheus.Counter
	CacheMisses           prometheus.Counter
	UpstreamErrors        *prometheus.CounterVec
	InvalidationsReceived prometheus.Counter
}

// New registers the metrics with the default registry. It must be called once per process.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the metrics with reg. Tests pass a fresh prometheus.NewRegistry().
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		APIRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voicewatch",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of dashboard API requests by route and status.",
		}, []string{"route", "status"}),
		ConversationsBuilt: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "voicewatch",
			Name:      "conversations_built_total",
			Help:      "Total number of conversations rebuilt from logs.",
		}),
		ConversationsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "voicewatch",
			Name:      "conversations_skipped_total",
			Help:      "Total number of transactions dropped for lacking a response.",
		}),
		ConversationsMatched: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "voicewatch",
			Name:      "conversations_matched_total",
			Help:      "Total number of conversations that passed the active filters.",
		}),
		SummaryPoints: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "voicewatch",
			Name:      "summary_points_total",
			Help:      "Total number of merged time summary points served.",
		}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "voicewatch",
			Name:      "cache_hits_total",
			Help:      "Total number of query cache hits.",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "voicewatch",
			Name:      "cache_misses_total",
			Help:      "Total number of query cache misses.",
		}),
		UpstreamErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voicewatch",
			Name:      "upstream_errors_total",
			Help:      "Total number of failed log backend calls by operation.",
		}, []string{"operation"}),
		InvalidationsReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "voicewatch",
			Subsystem: "invalidator",
			Name:      "events_total",
			Help:      "Total number of cache invalidation events received.",
		}),
	}
}

// Package metrics defines and registers all custom Prometheus metrics of the
// marketplace API. It is the single source of truth for metric names, labels
// and help strings. Collectors are registered with the default registry on
// package init through promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "marketplace"

// ── Lifecycle metrics ─────────────────────────────────────────────────────────

// LifecycleEventsTotal counts committed lifecycle changes handed to the dispatcher.
// Label:
//   - type: the event type (e.g. "request.accepted")
var LifecycleEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lifecycle_events_total",
		Help:      "Total number of committed request lifecycle events.",
	},
	[]string{"type"},
)

// IdempotentReplaysTotal counts request creations answered from a stored Idempotency-Key.
var IdempotentReplaysTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "idempotent_replays_total",
		Help:      "Total number of request creations replayed from an idempotency key.",
	},
)

// DomainErrorsTotal counts requests that ended in a domain error.
// Label:
//   - kind: "not_found", "validation", "illegal_transition", "illegal_state",
//     "conflict", "concurrent_modification", "forbidden", "unauthenticated"
var DomainErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "domain_errors_total",
		Help:      "Total number of requests rejected with a domain error, by kind.",
	},
	[]string{"kind"},
)

// ── Event delivery metrics ────────────────────────────────────────────────────

// EventsDeliveredTotal counts sink deliveries.
// Labels:
//   - type: the event type
//   - result: "ok" or "error"
var EventsDeliveredTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_delivered_total",
		Help:      "Total number of lifecycle events delivered to the sink, by result.",
	},
	[]string{"type", "result"},
)

// EventsDroppedTotal counts events discarded because their worker queue was full.
var EventsDroppedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_dropped_total",
		Help:      "Total number of lifecycle events dropped on a full dispatcher queue.",
	},
	[]string{"type"},
)

// EventsQueueDepth tracks the current number of events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var EventsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "events_queue_depth",
		Help:      "Current number of events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// EventDeliveryDuration measures a single sink delivery.
var EventDeliveryDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "event_delivery_duration_seconds",
		Help:      "Duration of a single lifecycle event delivery to the sink.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"result"},
)

// ── Edge metrics ──────────────────────────────────────────────────────────────

// RateLimitedTotal counts requests refused by the token bucket.
// Label:
//   - route: method and route pattern (e.g. "POST /auth/login")
var RateLimitedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Total number of requests refused by the rate limiter.",
	},
	[]string{"route"},
)

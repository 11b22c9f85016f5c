package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "collegeconnect_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// VotesTotal counts vote mutations by entity, direction and outcome.
	VotesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "collegeconnect_votes_total",
		Help: "Total vote mutations on posts and comments",
	}, []string{"entity", "direction", "outcome"})

	// JoinRequestsTotal counts membership workflow transitions.
	JoinRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "collegeconnect_join_requests_total",
		Help: "Join requests sent and answered, by entity kind and decision",
	}, []string{"kind", "decision"})

	// NotificationsCreated counts persisted notifications by type.
	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "collegeconnect_notifications_created_total",
		Help: "Total notifications persisted",
	}, []string{"type"})

	// WebSocketEventsTotal counts realtime events pushed to clients by type.
	WebSocketEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "collegeconnect_websocket_events_total",
		Help: "Total WebSocket events by type",
	}, []string{"event_type"})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "collegeconnect_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)

// Vote outcomes.
const (
	VoteApplied  = "applied"
	VoteRejected = "rejected"
	VoteRemoved  = "removed"
)

// RecordVote increments the vote counter.
func RecordVote(entity, direction, outcome string) {
	VotesTotal.WithLabelValues(entity, direction, outcome).Inc()
}

// RecordJoinRequest increments the join request counter. decision is
// "sent", "accepted", "rejected" or "added".
func RecordJoinRequest(kind, decision string) {
	JoinRequestsTotal.WithLabelValues(kind, decision).Inc()
}

// RecordNotification increments the notifications counter.
func RecordNotification(notificationType string) {
	NotificationsCreated.WithLabelValues(notificationType).Inc()
}

// DatabaseMetrics records query latency for one table.
type DatabaseMetrics struct {
	table string
}

// NewDatabaseMetrics returns a DatabaseMetrics for table.
func NewDatabaseMetrics(table string) *DatabaseMetrics {
	return &DatabaseMetrics{table: table}
}

// ObserveQuery records the latency of a database query.
func (m *DatabaseMetrics) ObserveQuery(operation string, start time.Time) {
	DatabaseQueryLatency.WithLabelValues(operation, m.table).Observe(time.Since(start).Seconds())
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func (m *DatabaseMetrics) TrackQuery(operation string) func() {
	start := time.Now()
	return func() {
		m.ObserveQuery(operation, start)
	}
}

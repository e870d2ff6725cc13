package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ObservationsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attend",
		Name:      "observations_processed_total",
		Help:      "Total number of face observations evaluated, by result",
	}, []string{"result"})

	MatchDistance = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "attend",
		Name:      "match_distance",
		Help:      "Euclidean distance of the best candidate per matched observation",
		Buckets:   prometheus.LinearBuckets(0, 0.1, 12),
	})

	AttendanceTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attend",
		Name:      "attendance_transitions_total",
		Help:      "Attendance state machine outcomes",
	}, []string{"outcome"})

	CooldownSuppressed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "attend",
		Name:      "cooldown_suppressed_total",
		Help:      "Matched observations dropped by the per-employee cooldown",
	})

	UnknownFaceEvents = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "attend",
		Name:      "unknown_face_events_total",
		Help:      "Unknown-face events persisted",
	})

	AlertsThrottled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "attend",
		Name:      "alerts_throttled_total",
		Help:      "Unmatched observations dropped by the alert throttle",
	})

	RegistrySize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "attend",
		Name:      "registry_size",
		Help:      "Number of active reference descriptors in memory",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "attend",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "attend",
		Name:      "ws_connections",
		Help:      "Number of active WebSocket connections",
	})
)

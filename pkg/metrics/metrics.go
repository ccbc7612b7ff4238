package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "barbersched"

var (
	once sync.Once

	slotConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slot_conflicts_total",
			Help:      "Count of conditional slot bookings that lost the race.",
		},
	)

	slotSync = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slot_sync_total",
			Help:      "Count of booking to schedule synchronisations by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	absenceDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "absence_decisions_total",
			Help:      "Count of absence decisions.",
		},
		[]string{"decision"},
	)

	autoAssignments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auto_assignments_total",
			Help:      "Count of auto-assignment attempts by outcome.",
		},
		[]string{"outcome"},
	)

	maintenanceRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "maintenance_runs_total",
			Help:      "Count of maintenance sweeps by outcome.",
		},
		[]string{"outcome"},
	)

	kafkaMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_messages_total",
			Help:      "Count of kafka messages by direction, topic and outcome.",
		},
		[]string{"direction", "topic", "outcome"},
	)

	kafkaDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_message_duration_seconds",
			Help:      "Time spent publishing or handling a kafka message.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"direction", "topic"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Count of HTTP requests by method and status.",
		},
		[]string{"method", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			slotConflicts,
			slotSync,
			absenceDecisions,
			autoAssignments,
			maintenanceRuns,
			kafkaMessages,
			kafkaDuration,
			httpRequests,
			httpDuration,
		)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func IncSlotConflict() {
	slotConflicts.Inc()
}

func IncSlotSync(operation, outcome string) {
	slotSync.WithLabelValues(operation, outcome).Inc()
}

func IncAbsenceDecision(decision string) {
	absenceDecisions.WithLabelValues(decision).Inc()
}

func IncAutoAssignment(outcome string) {
	autoAssignments.WithLabelValues(outcome).Inc()
}

func IncMaintenanceRun(outcome string) {
	maintenanceRuns.WithLabelValues(outcome).Inc()
}

func ObserveKafka(direction, topic string, err error, elapsed time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	kafkaMessages.WithLabelValues(direction, topic, outcome).Inc()
	kafkaDuration.WithLabelValues(direction, topic).Observe(elapsed.Seconds())
}

func ObserveHTTP(method string, status int, elapsed time.Duration) {
	httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

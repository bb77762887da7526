package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder exports operation outcomes and state-engine counters
// through a Prometheus registry.
type PrometheusRecorder struct {
	operations     *prometheus.CounterVec
	durations      *prometheus.HistogramVec
	migrationSteps prometheus.Counter
	backups        prometheus.Counter
	snapshots      prometheus.Counter
}

// NewPrometheusRecorder constructs a recorder and registers its collectors
// with reg. Collectors already present in the registry are reused as-is.
func NewPrometheusRecorder(reg prometheus.Registerer) (*PrometheusRecorder, error) {
	rec := &PrometheusRecorder{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "spectracore",
				Name:      "operations_total",
				Help:      "Total project store operations, partitioned by operation and outcome.",
			},
			[]string{"operation", "outcome"},
		),
		durations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "spectracore",
				Name:      "operation_seconds",
				Help:      "Project store operation latency in seconds.",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"operation"},
		),
		migrationSteps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "spectracore",
			Name:      "migration_steps_total",
			Help:      "Total schema migration steps applied during project loads.",
		}),
		backups: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "spectracore",
			Name:      "backups_total",
			Help:      "Total pre-migration backup files written.",
		}),
		snapshots: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "spectracore",
			Name:      "snapshots_total",
			Help:      "Total undo history snapshots taken.",
		}),
	}

	collectors := []prometheus.Collector{
		rec.operations,
		rec.durations,
		rec.migrationSteps,
		rec.backups,
		rec.snapshots,
	}
	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return nil, err
		}
	}
	return rec, nil
}

// Observe implements Recorder.
func (r *PrometheusRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	outcome := "error"
	if success {
		outcome = "success"
	}
	r.operations.WithLabelValues(operation, outcome).Inc()
	if duration < 0 {
		duration = 0
	}
	r.durations.WithLabelValues(operation).Observe(duration.Seconds())
}

// AddMigrationSteps implements Recorder.
func (r *PrometheusRecorder) AddMigrationSteps(n int) {
	if n <= 0 {
		return
	}
	r.migrationSteps.Add(float64(n))
}

// IncBackups implements Recorder.
func (r *PrometheusRecorder) IncBackups() {
	r.backups.Inc()
}

// IncSnapshots implements Recorder.
func (r *PrometheusRecorder) IncSnapshots() {
	r.snapshots.Inc()
}

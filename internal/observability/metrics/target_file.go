// Package metrics exposes Prometheus collectors for the target-file export cycle.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	obserrors "github.com/target/obd-dialer/internal/observability/errors"
)

// Result constants for metric labels.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// Record pass labels.
const (
	PassFresh = "fresh"
	PassRetry = "retry"
)

// TargetFileMetrics groups the collectors for one process. A nil receiver is a no-op
// so callers never need to guard metric calls.
type TargetFileMetrics struct {
	cycles        *prometheus.CounterVec
	cycleDuration *prometheus.HistogramVec
	cycleSkips    *prometheus.CounterVec
	records       *prometheus.CounterVec
	notifications *prometheus.CounterVec
	callbacks     *prometheus.CounterVec
	alerts        *prometheus.CounterVec
	lastSuccess   prometheus.Gauge
}

// NewTargetFileMetrics registers the collectors on reg. A nil reg falls back to the
// default registerer.
func NewTargetFileMetrics(reg prometheus.Registerer, namespace string) *TargetFileMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &TargetFileMetrics{
		cycles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "target_file",
			Name:      "cycles_total",
			Help:      "Completed target file cycles by outcome",
		}, []string{"result", "error_class"}),
		cycleDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "target_file",
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of a target file cycle",
			Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 300, 900, 1800},
		}, []string{"result"}),
		cycleSkips: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "target_file",
			Name:      "cycle_skips_total",
			Help:      "Scheduled cycles that did not run",
		}, []string{"reason"}),
		records: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "target_file",
			Name:      "records_total",
			Help:      "Rows written to target files by pass",
		}, []string{"pass"}),
		notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "target_file",
			Name:      "notifications_total",
			Help:      "Dialer notification attempts by result",
		}, []string{"result"}),
		callbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "target_file",
			Name:      "callbacks_total",
			Help:      "Processing outcome callbacks received by status",
		}, []string{"status"}),
		alerts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_deliveries_total",
			Help:      "Alert sink deliveries by sink and result",
		}, []string{"sink", "result"}),
		lastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "target_file",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last cycle that delivered a notification",
		}),
	}
}

// ObserveCycle records a finished cycle.
func (m *TargetFileMetrics) ObserveCycle(err error, d time.Duration) {
	if m == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	m.cycles.WithLabelValues(result, obserrors.Classify(err)).Inc()
	if d > 0 {
		m.cycleDuration.WithLabelValues(result).Observe(d.Seconds())
	}
}

// CycleSkipped counts a cycle the scheduler declined to start.
func (m *TargetFileMetrics) CycleSkipped(reason string) {
	if m == nil {
		return
	}
	m.cycleSkips.WithLabelValues(reason).Inc()
}

// AddRecords counts rows written during pass.
func (m *TargetFileMetrics) AddRecords(pass string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.records.WithLabelValues(pass).Add(float64(n))
}

// ObserveNotification records the result of a dialer notification.
func (m *TargetFileMetrics) ObserveNotification(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.notifications.WithLabelValues(ResultError).Inc()
		return
	}
	m.notifications.WithLabelValues(ResultSuccess).Inc()
}

// ObserveCallback counts a processing outcome callback.
func (m *TargetFileMetrics) ObserveCallback(status string) {
	if m == nil {
		return
	}
	m.callbacks.WithLabelValues(status).Inc()
}

// AlertDelivered counts a delivery attempt to an alert sink.
func (m *TargetFileMetrics) AlertDelivered(sink string, err error) {
	if m == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	m.alerts.WithLabelValues(sink, result).Inc()
}

// SetLastSuccess stamps the last-success gauge.
func (m *TargetFileMetrics) SetLastSuccess(t time.Time) {
	if m == nil {
		return
	}
	m.lastSuccess.Set(float64(t.Unix()))
}

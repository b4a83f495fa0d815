package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTargetFileMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewTargetFileMetrics(reg, "obd")

	m.ObserveCycle(nil, 2*time.Second)
	m.ObserveCycle(errors.New("boom"), time.Second)
	m.CycleSkipped("overrun")
	m.AddRecords(PassFresh, 3)
	m.AddRecords(PassRetry, 0)
	m.ObserveNotification(nil)
	m.ObserveCallback("FAILURE")
	m.AlertDelivered("slack", errors.New("down"))
	m.SetLastSuccess(time.Unix(1_700_000_000, 0))

	assert.InDelta(t, 1, testutil.ToFloat64(m.cycles.WithLabelValues(ResultSuccess, "")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.cycles.WithLabelValues(ResultError, "errors_errorstring")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.cycleSkips.WithLabelValues("overrun")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(m.records.WithLabelValues(PassFresh)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.notifications.WithLabelValues(ResultSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.callbacks.WithLabelValues("FAILURE")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.alerts.WithLabelValues("slack", ResultError)), 0)
	assert.InDelta(t, 1_700_000_000, testutil.ToFloat64(m.lastSuccess), 0)

	count, err := testutil.GatherAndCount(reg, "obd_target_file_records_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestTargetFileMetrics_NilSafe(t *testing.T) {
	var m *TargetFileMetrics
	assert.NotPanics(t, func() {
		m.ObserveCycle(nil, time.Second)
		m.CycleSkipped("lock_held")
		m.AddRecords(PassFresh, 1)
		m.ObserveNotification(errors.New("x"))
		m.ObserveCallback("SUCCESS")
		m.AlertDelivered("pagerduty", nil)
		m.SetLastSuccess(time.Now())
	})
}

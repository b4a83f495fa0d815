// Package failurenotifier fans operational alerts out to the configured external sinks.
package failurenotifier

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/target/obd-dialer/internal/observability/notify"
)

// SinkRegistration pairs a sink implementation with a human-readable name for logging.
type SinkRegistration struct {
	Name string
	Sink notify.Sink
}

// DeliveryRecorder observes per-sink delivery results.
type DeliveryRecorder interface {
	AlertDelivered(sink string, err error)
}

// Options configures the failure notifier service.
type Options struct {
	Logger   *slog.Logger
	Sinks    []SinkRegistration
	Recorder DeliveryRecorder
}

// Service dispatches alerts to all registered sinks.
type Service struct {
	logger   *slog.Logger
	sinks    []SinkRegistration
	recorder DeliveryRecorder
}

// NewService constructs a failure notifier.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var sinks []SinkRegistration
	for _, entry := range opts.Sinks {
		if entry.Sink == nil {
			continue
		}
		name := entry.Name
		if name == "" {
			name = "sink"
		}
		sinks = append(sinks, SinkRegistration{Name: name, Sink: entry.Sink})
	}

	return &Service{
		logger:   logger.With("component", "failure_notifier"),
		sinks:    sinks,
		recorder: opts.Recorder,
	}
}

// Notify delivers the alert to every sink concurrently and waits for all of them.
// Sink errors are logged and counted; one failing sink never blocks the others.
func (s *Service) Notify(ctx context.Context, alert notify.Alert) {
	if len(s.sinks) == 0 {
		return
	}
	if alert.Severity == "" {
		alert.Severity = notify.SeverityCritical
	}

	var g errgroup.Group
	for _, entry := range s.sinks {
		g.Go(func() error {
			err := entry.Sink.SendAlert(ctx, alert)
			if s.recorder != nil {
				s.recorder.AlertDelivered(entry.Name, err)
			}
			if err != nil {
				s.logger.ErrorContext(ctx, "alert delivery failed",
					"sink", entry.Name,
					"alert_id", alert.ID,
					"category", alert.Category,
					"error", err,
				)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// Enabled reports whether the notifier has any active sinks.
func (s *Service) Enabled() bool {
	return len(s.sinks) > 0
}

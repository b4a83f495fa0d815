// Package notify defines the alert payload shared by outbound alert sinks.
package notify

import (
	"context"
	"time"
)

// Severity constants recognised by downstream sinks.
const (
	SeverityCritical = "critical"
)

// Alert is the canonical payload delivered to Slack, PagerDuty and similar sinks.
type Alert struct {
	ID         string
	Subject    string
	Category   string
	Message    string
	Severity   string
	OccurredAt time.Time
	Metadata   map[string]string
}

// Sink describes a destination capable of consuming alerts.
type Sink interface {
	SendAlert(ctx context.Context, alert Alert) error
}

// SinkFunc adapts a function to the Sink interface (useful for tests).
type SinkFunc func(ctx context.Context, alert Alert) error

// SendAlert implements the Sink interface.
func (f SinkFunc) SendAlert(ctx context.Context, alert Alert) error {
	if f == nil {
		return nil
	}
	return f(ctx, alert)
}

package core

import (
	"context"

	"github.com/target/obd-dialer/internal/domain/model"
)

// Alerter raises operational alerts. Implementations persist the alert and fan it out to
// configured sinks; a returned error means the alert could not be recorded anywhere durable.
type Alerter interface {
	Raise(ctx context.Context, req model.CreateAlertRequest) error
}

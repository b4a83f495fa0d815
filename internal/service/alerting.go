package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/obd-dialer/internal/core"
	"github.com/target/obd-dialer/internal/domain/model"
	apperrors "github.com/target/obd-dialer/internal/errors"
	"github.com/target/obd-dialer/internal/observability/notify"
)

// AlertNotifier fans a persisted alert out to external sinks.
type AlertNotifier interface {
	Notify(ctx context.Context, alert notify.Alert)
}

// AlertServiceOptions groups dependencies for AlertService.
type AlertServiceOptions struct {
	Repo     core.AlertRepository // Required
	Notifier AlertNotifier        // Optional: Slack/PagerDuty fan-out
	Logger   *slog.Logger         // Optional
}

// AlertService records operational alerts and forwards them to sinks. It implements core.Alerter.
type AlertService struct {
	repo     core.AlertRepository
	notifier AlertNotifier
	logger   *slog.Logger
}

var _ core.Alerter = (*AlertService)(nil)

// NewAlertService creates a new AlertService.
func NewAlertService(opts AlertServiceOptions) (*AlertService, error) {
	if opts.Repo == nil {
		return nil, errors.New("alert repository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AlertService{
		repo:     opts.Repo,
		notifier: opts.Notifier,
		logger:   logger.With("component", "alert_service"),
	}, nil
}

// Raise persists the alert, logs it and fans it out. Sinks are notified even when the
// insert fails so an unreachable database does not silence the alarm.
func (s *AlertService) Raise(ctx context.Context, req model.CreateAlertRequest) error {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeValidation, err.Error())
	}

	s.logger.ErrorContext(ctx, "operational alert",
		"category", req.Category,
		"subject", req.Subject,
		"message", req.Message,
		"severity", req.Severity,
	)

	alert, createErr := s.repo.Create(ctx, &req)
	if createErr != nil {
		s.logger.ErrorContext(ctx, "failed to persist alert", "category", req.Category, "error", createErr)
		alert = &model.Alert{
			Subject:  req.Subject,
			Category: req.Category,
			Message:  req.Message,
			Severity: req.Severity,
		}
	}

	if s.notifier != nil {
		s.notifier.Notify(context.WithoutCancel(ctx), toNotifyAlert(alert))
	}

	if createErr != nil {
		return fmt.Errorf("persist alert: %w", createErr)
	}
	return nil
}

func toNotifyAlert(a *model.Alert) notify.Alert {
	return notify.Alert{
		ID:         a.ID,
		Subject:    a.Subject,
		Category:   string(a.Category),
		Message:    a.Message,
		Severity:   string(a.Severity),
		OccurredAt: a.CreatedAt,
	}
}

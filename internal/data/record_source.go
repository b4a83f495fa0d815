package data

import (
	"context"
	"errors"

	"github.com/target/obd-dialer/internal/domain/model"
)

// RecordSource combines the subscription and retry repositories into the export's read side.
type RecordSource struct {
	subscriptions *SubscriptionRepo
	retries       *CallRetryRepo
}

// NewRecordSource wires the two repositories the export traverses.
func NewRecordSource(subscriptions *SubscriptionRepo, retries *CallRetryRepo) (*RecordSource, error) {
	if subscriptions == nil {
		return nil, errors.New("subscription repository is required")
	}
	if retries == nil {
		return nil, errors.New("call retry repository is required")
	}
	return &RecordSource{subscriptions: subscriptions, retries: retries}, nil
}

// ListActive returns one page of active enrollments.
func (s *RecordSource) ListActive(ctx context.Context, page, pageSize int) ([]model.Enrollment, error) {
	return s.subscriptions.ListActive(ctx, page, pageSize)
}

// ListRetriesForDay returns one page of retries scheduled for day.
func (s *RecordSource) ListRetriesForDay(
	ctx context.Context,
	day model.DayOfTheWeek,
	page, pageSize int,
) ([]model.CallRetry, error) {
	return s.retries.ListForDay(ctx, day, page, pageSize)
}

package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/target/obd-dialer/internal/data/pgxutil"
	"github.com/target/obd-dialer/internal/domain/model"
	apperrors "github.com/target/obd-dialer/internal/errors"
)

// CallRetryRepo stores calls scheduled to re-enter the export.
type CallRetryRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewCallRetryRepo creates a new CallRetryRepo.
func NewCallRetryRepo(db *sql.DB) *CallRetryRepo {
	return &CallRetryRepo{DB: db, timeProvider: RealTimeProvider{}}
}

// NewCallRetryRepoWithTimeProvider creates a CallRetryRepo with a custom clock, for tests.
func NewCallRetryRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *CallRetryRepo {
	return &CallRetryRepo{DB: db, timeProvider: tp}
}

const callRetryColumns = `id::text AS id, subscription_id, msisdn, day_of_the_week, language_location_code, circle,
	subscription_mode, content_file_name, week_id, created_at`

// Create records a retry. ID and CreatedAt on the input are ignored.
func (r *CallRetryRepo) Create(ctx context.Context, retry *model.CallRetry) (*model.CallRetry, error) {
	if retry == nil {
		return nil, ErrRequestRequired
	}
	if !retry.DayOfTheWeek.Valid() {
		return nil, apperrors.ValidationField("day_of_the_week", "invalid day of the week")
	}
	if !retry.SubscriptionMode.Valid() {
		return nil, apperrors.ValidationField("subscription_mode", "invalid subscription mode")
	}
	if retry.WeekID < 1 {
		return nil, apperrors.ValidationField("week_id", "week_id must be >= 1")
	}

	out, err := pgxutil.QueryOne[model.CallRetry](ctx, r.DB, `
		INSERT INTO call_retries (
			subscription_id, msisdn, day_of_the_week, language_location_code, circle,
			subscription_mode, content_file_name, week_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+callRetryColumns,
		retry.SubscriptionID, retry.MSISDN, retry.DayOfTheWeek, retry.LanguageLocationCode, retry.Circle,
		retry.SubscriptionMode, retry.ContentFileName, retry.WeekID, r.timeProvider.Now(),
	)
	if err != nil {
		return nil, fmt.Errorf("create call retry: %w", apperrors.MapDBError(err))
	}
	return out, nil
}

// ListForDay returns one 1-based page of retries scheduled for day.
func (r *CallRetryRepo) ListForDay(
	ctx context.Context,
	day model.DayOfTheWeek,
	page, pageSize int,
) ([]model.CallRetry, error) {
	offset, err := pageOffset(page, pageSize)
	if err != nil {
		return nil, err
	}

	out, err := pgxutil.QueryAll[model.CallRetry](ctx, r.DB, `
		SELECT `+callRetryColumns+`
		FROM call_retries
		WHERE day_of_the_week = $1
		ORDER BY created_at, id
		LIMIT $2 OFFSET $3`,
		day, pageSize, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list call retries for %s page %d: %w", day, page, apperrors.MapDBError(err))
	}
	return out, nil
}

// Delete removes a retry by id.
func (r *CallRetryRepo) Delete(ctx context.Context, id string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}

	var deleted bool
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, err := conn.Exec(ctx, `DELETE FROM call_retries WHERE id = $1`, id)
		if err != nil {
			return err
		}
		deleted = tag.RowsAffected() > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("delete call retry: %w", apperrors.MapDBError(err))
	}
	return deleted, nil
}

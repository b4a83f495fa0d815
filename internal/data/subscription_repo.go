package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/target/obd-dialer/internal/data/pgxutil"
	"github.com/target/obd-dialer/internal/domain/model"
	apperrors "github.com/target/obd-dialer/internal/errors"
)

// SubscriptionRepo reads active subscriptions for the export.
type SubscriptionRepo struct {
	DB *sql.DB
}

// NewSubscriptionRepo creates a new SubscriptionRepo.
func NewSubscriptionRepo(db *sql.DB) *SubscriptionRepo {
	return &SubscriptionRepo{DB: db}
}

// listActiveQuery resolves the language in SQL: the subscriber's own code, else the circle default.
// Ordering by (created_at, id) keeps pages stable while the export walks them.
const listActiveQuery = `
	SELECT
		s.id::text AS subscription_id,
		sb.msisdn,
		s.pack_name,
		s.start_date,
		COALESCE(
			NULLIF(sb.language_code, ''),
			(SELECT cl.language_code FROM circle_languages cl WHERE cl.circle = sb.circle AND cl.is_default LIMIT 1),
			''
		) AS language_location_code,
		sb.circle,
		s.mode
	FROM subscriptions s
	JOIN subscribers sb ON sb.id = s.subscriber_id
	WHERE s.status = $1
	ORDER BY s.created_at, s.id
	LIMIT $2 OFFSET $3`

// ListActive returns one 1-based page of active enrollments.
func (r *SubscriptionRepo) ListActive(ctx context.Context, page, pageSize int) ([]model.Enrollment, error) {
	offset, err := pageOffset(page, pageSize)
	if err != nil {
		return nil, err
	}

	out, err := pgxutil.QueryAll[model.Enrollment](ctx, r.DB, listActiveQuery,
		model.SubscriptionStatusActive, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list active subscriptions page %d: %w", page, apperrors.MapDBError(err))
	}
	return out, nil
}

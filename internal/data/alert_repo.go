package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/target/obd-dialer/internal/data/pgxutil"
	"github.com/target/obd-dialer/internal/domain/model"
	apperrors "github.com/target/obd-dialer/internal/errors"
)

// ErrAlertNotFound is returned when an alert is not found.
var ErrAlertNotFound = errors.New("alert not found")

// AlertRepo provides database operations for alert management.
type AlertRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewAlertRepo creates a new AlertRepo instance with the given database connection.
func NewAlertRepo(db *sql.DB) *AlertRepo {
	return &AlertRepo{DB: db, timeProvider: RealTimeProvider{}}
}

// NewAlertRepoWithTimeProvider creates an AlertRepo with a custom clock, for tests.
func NewAlertRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *AlertRepo {
	return &AlertRepo{DB: db, timeProvider: tp}
}

// alertColumns defines the column list for Alert SELECT queries to ensure consistent field mapping.
const alertColumns = `id::text AS id, subject, category, message, severity, status, created_at`

// Create creates a new alert with the given request parameters.
func (r *AlertRepo) Create(ctx context.Context, req *model.CreateAlertRequest) (*model.Alert, error) {
	if req == nil {
		return nil, errors.New("create alert request is required")
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, err.Error())
	}

	alert, err := pgxutil.QueryOne[model.Alert](ctx, r.DB, `
		INSERT INTO alerts (subject, category, message, severity, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+alertColumns,
		req.Subject, req.Category, req.Message, req.Severity, model.AlertStatusNew, r.timeProvider.Now(),
	)
	if err != nil {
		return nil, fmt.Errorf("create alert: %w", apperrors.MapDBError(err))
	}
	return alert, nil
}

// GetByID retrieves an alert by its ID.
func (r *AlertRepo) GetByID(ctx context.Context, id string) (*model.Alert, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrAlertNotFound
	}

	alert, err := pgxutil.QueryOne[model.Alert](ctx, r.DB,
		`SELECT `+alertColumns+` FROM alerts WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAlertNotFound
		}
		return nil, fmt.Errorf("get alert by id: %w", apperrors.MapDBError(err))
	}
	return alert, nil
}

// List returns alerts newest first, optionally filtered by category.
func (r *AlertRepo) List(ctx context.Context, opts *model.AlertListOptions) ([]*model.Alert, error) {
	if opts == nil {
		opts = &model.AlertListOptions{}
	}
	limit, offset := normalizePagination(opts.Limit, opts.Offset)

	query := `SELECT ` + alertColumns + ` FROM alerts`
	args := []any{}
	if opts.Category != nil {
		args = append(args, *opts.Category)
		query += ` WHERE category = $1`
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	out, err := pgxutil.QueryAllAddr[model.Alert](ctx, r.DB, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", apperrors.MapDBError(err))
	}
	return out, nil
}

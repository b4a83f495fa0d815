package data

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/target/obd-dialer/internal/data/pgxutil"
	"github.com/target/obd-dialer/internal/domain/model"
	apperrors "github.com/target/obd-dialer/internal/errors"
)

// FileAuditRepo appends to and reads the file audit ledger. Rows are never updated.
type FileAuditRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewFileAuditRepo creates a new FileAuditRepo.
func NewFileAuditRepo(db *sql.DB) *FileAuditRepo {
	return &FileAuditRepo{DB: db, timeProvider: RealTimeProvider{}}
}

// NewFileAuditRepoWithTimeProvider creates a FileAuditRepo with a custom clock, for tests.
func NewFileAuditRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *FileAuditRepo {
	return &FileAuditRepo{DB: db, timeProvider: tp}
}

const auditColumns = `id::text AS id, export_id, file_type, file_name, status, record_count, checksum, created_at`

// Create appends one audit row.
func (r *FileAuditRepo) Create(ctx context.Context, req *model.CreateAuditRecordRequest) (*model.AuditRecord, error) {
	if req == nil {
		return nil, ErrRequestRequired
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, err.Error())
	}

	rec, err := pgxutil.QueryOne[model.AuditRecord](ctx, r.DB, `
		INSERT INTO file_audit_records (export_id, file_type, file_name, status, record_count, checksum, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+auditColumns,
		req.ExportID, req.FileType, req.FileName, req.Status, req.RecordCount, req.Checksum, r.timeProvider.Now(),
	)
	if err != nil {
		return nil, fmt.Errorf("create audit record: %w", apperrors.MapDBError(err))
	}
	return rec, nil
}

// List returns audit rows newest first.
func (r *FileAuditRepo) List(ctx context.Context, opts *model.AuditListOptions) ([]*model.AuditRecord, error) {
	if opts == nil {
		opts = &model.AuditListOptions{}
	}
	limit, offset := normalizePagination(opts.Limit, opts.Offset)

	var conditions []string
	var args []any
	if opts.FileType != nil {
		args = append(args, *opts.FileType)
		conditions = append(conditions, "file_type = $"+strconv.Itoa(len(args)))
	}
	if opts.FileName != nil {
		args = append(args, *opts.FileName)
		conditions = append(conditions, "file_name = $"+strconv.Itoa(len(args)))
	}

	query := `SELECT ` + auditColumns + ` FROM file_audit_records`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	out, err := pgxutil.QueryAllAddr[model.AuditRecord](ctx, r.DB, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit records: %w", apperrors.MapDBError(err))
	}
	return out, nil
}

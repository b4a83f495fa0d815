package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/target/obd-dialer/internal/core"
	"github.com/target/obd-dialer/internal/domain/model"
	apperrors "github.com/target/obd-dialer/internal/errors"
)

const (
	// processingErrorMessage is the alert text for a file the provider could not process.
	processingErrorMessage = "Target File Processing Error"
	// invalidCallbackMessage is the alert text for a callback that could not be accepted.
	invalidCallbackMessage = "Invalid Target File Status Callback"
	// invalidCallbackSubject stands in for the file name when a callback carries none.
	invalidCallbackSubject = "targetFile status callback"
	// invalidCallbackStatus labels rejected callbacks in the ledger and in metrics.
	invalidCallbackStatus = "INVALID"

	maxRejectedFileName = 255
	maxRejectedReason   = 512
)

// CallbackRecorder counts inbound processing outcomes.
type CallbackRecorder interface {
	ObserveCallback(status string)
}

// FileAuditServiceOptions groups dependencies for FileAuditService.
type FileAuditServiceOptions struct {
	Repo    core.AuditRepository // Required
	Alerter core.Alerter         // Required
	Logger  *slog.Logger         // Optional
	Metrics CallbackRecorder     // Optional
}

// FileAuditService appends export attempts and provider outcomes to the audit ledger.
type FileAuditService struct {
	repo     core.AuditRepository
	alerter  core.Alerter
	logger   *slog.Logger
	metrics  CallbackRecorder
	validate *validator.Validate
}

// NewFileAuditService creates a new FileAuditService.
func NewFileAuditService(opts FileAuditServiceOptions) (*FileAuditService, error) {
	if opts.Repo == nil {
		return nil, errors.New("audit repository is required")
	}
	if opts.Alerter == nil {
		return nil, errors.New("alerter is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &FileAuditService{
		repo:     opts.Repo,
		alerter:  opts.Alerter,
		logger:   logger.With("component", "file_audit"),
		metrics:  opts.Metrics,
		validate: v,
	}, nil
}

// RecordExportAttempt appends one TARGET_FILE row. exportID is nil for attempts that never
// produced a usable file.
func (s *FileAuditService) RecordExportAttempt(
	ctx context.Context,
	exportID *string,
	fileName, status string,
	recordCount *int,
	checksum *string,
) error {
	rec, err := s.repo.Create(ctx, &model.CreateAuditRecordRequest{
		ExportID:    exportID,
		FileType:    model.FileTypeTargetFile,
		FileName:    fileName,
		Status:      status,
		RecordCount: recordCount,
		Checksum:    checksum,
	})
	if err != nil {
		return fmt.Errorf("record export attempt: %w", err)
	}
	s.logger.InfoContext(ctx, "export attempt audited",
		"audit_id", rec.ID,
		"file_name", fileName,
		"status", status,
	)
	return nil
}

// RecordProcessingOutcome audits the provider's verdict on a delivered file. Anything other
// than SUCCESS raises exactly one critical alert. Export state is never touched.
func (s *FileAuditService) RecordProcessingOutcome(ctx context.Context, req model.FileProcessedStatusRequest) error {
	req.FileName = strings.TrimSpace(req.FileName)
	req.ProcessedStatus = model.FileProcessedStatus(strings.ToUpper(strings.TrimSpace(string(req.ProcessedStatus))))
	if err := s.validateOutcome(req); err != nil {
		s.RecordRejectedCallback(ctx, req.FileName, errors.Unwrap(err).Error())
		return err
	}

	if s.metrics != nil {
		s.metrics.ObserveCallback(string(req.ProcessedStatus))
	}

	_, auditErr := s.repo.Create(ctx, &model.CreateAuditRecordRequest{
		FileType: model.FileTypeTargetFileStatus,
		FileName: req.FileName,
		Status:   string(req.ProcessedStatus),
	})
	if auditErr != nil {
		s.logger.ErrorContext(ctx, "failed to audit processing outcome", "file_name", req.FileName, "error", auditErr)
		auditErr = fmt.Errorf("record processing outcome: %w", auditErr)
	}

	if req.ProcessedStatus.IsSuccess() {
		s.logger.InfoContext(ctx, "target file processed", "file_name", req.FileName)
		return auditErr
	}

	s.logger.WarnContext(ctx, "target file processing failed", "request", req.String())
	alertErr := s.alerter.Raise(ctx, model.CreateAlertRequest{
		Subject:  req.FileName,
		Category: model.AlertCategoryTargetFileName,
		Message:  processingErrorMessage,
		Severity: model.AlertSeverityCritical,
	})
	if alertErr != nil {
		alertErr = fmt.Errorf("raise processing alert: %w", alertErr)
	}
	return errors.Join(auditErr, alertErr)
}

// RecordRejectedCallback appends a TARGET_FILE_STATUS row for a callback that was malformed
// or failed validation and raises one critical alert. The caller still rejects the request.
// Ledger and alert failures are logged only.
func (s *FileAuditService) RecordRejectedCallback(ctx context.Context, fileName, reason string) {
	fileName = truncateRunes(strings.TrimSpace(fileName), maxRejectedFileName)
	reason = truncateRunes(strings.TrimSpace(reason), maxRejectedReason)
	s.logger.WarnContext(ctx, "rejected target file status callback", "file_name", fileName, "reason", reason)

	if s.metrics != nil {
		s.metrics.ObserveCallback(invalidCallbackStatus)
	}

	status := invalidCallbackStatus
	if reason != "" {
		status += ": " + reason
	}
	if _, err := s.repo.Create(ctx, &model.CreateAuditRecordRequest{
		FileType: model.FileTypeTargetFileStatus,
		FileName: fileName,
		Status:   status,
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to audit rejected callback", "file_name", fileName, "error", err)
	}

	subject := fileName
	if subject == "" {
		subject = invalidCallbackSubject
	}
	if err := s.alerter.Raise(ctx, model.CreateAlertRequest{
		Subject:  subject,
		Category: model.AlertCategoryTargetFileName,
		Message:  invalidCallbackMessage,
		Severity: model.AlertSeverityCritical,
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to raise rejected callback alert", "file_name", fileName, "error", err)
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func (s *FileAuditService) validateOutcome(req model.FileProcessedStatusRequest) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &CycleError{
			Kind: KindInvalidInboundOutcome,
			Err:  apperrors.ValidationField(fe.Field(), fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag())),
		}
	}
	return &CycleError{Kind: KindInvalidInboundOutcome, Err: apperrors.Validation(err.Error())}
}

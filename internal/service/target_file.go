package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/target/obd-dialer/internal/core"
	"github.com/target/obd-dialer/internal/domain/model"
	"github.com/target/obd-dialer/internal/domain/targetfile"
)

const (
	defaultPageSize = 1000
	dirPerm         = 0o750
	filePerm        = 0o640
	// mkdirsFailed mirrors the operator-facing text used for directory failures.
	mkdirsFailed = "mkdirs() failed"

	passFresh = "fresh"
	passRetry = "retry"
)

// Clock supplies the cycle's notion of now.
type Clock interface {
	Now() time.Time
}

type utcClock struct{}

func (utcClock) Now() time.Time { return time.Now().UTC() }

// Notifier delivers the finalized-file notification.
type Notifier interface {
	Dispatch(ctx context.Context, tfn model.TargetFileNotification) error
}

// ExportAuditor appends export attempts to the ledger.
type ExportAuditor interface {
	RecordExportAttempt(
		ctx context.Context,
		exportID *string,
		fileName, status string,
		recordCount *int,
		checksum *string,
	) error
}

// LastExportStore keeps the latest export summary for operators.
type LastExportStore interface {
	Save(ctx context.Context, last model.LastExport) error
}

// CycleMetrics observes cycle outcomes. *metrics.TargetFileMetrics satisfies it.
type CycleMetrics interface {
	ObserveCycle(err error, d time.Duration)
	AddRecords(pass string, n int)
	ObserveNotification(err error)
	SetLastSuccess(t time.Time)
}

// TargetFileSettings carries the export's static configuration.
type TargetFileSettings struct {
	// Directory holds generated files; it is created when missing.
	Directory   string
	PageSize    int
	ServiceID   string
	CallFlowURL string
	Digest      targetfile.DigestAlgorithm
}

// TargetFileServiceOptions groups dependencies for TargetFileService.
type TargetFileServiceOptions struct {
	Source   core.RecordSource      // Required
	Catalog  core.ContentCatalog    // Required
	Auditor  ExportAuditor          // Required
	Alerter  core.Alerter           // Required
	Notifier Notifier               // Optional: nil leaves files un-announced
	Mirror   core.ArtifactPublisher // Optional
	Last     LastExportStore        // Optional
	Metrics  CycleMetrics           // Optional
	Clock    Clock                  // Optional: defaults to UTC wall clock
	Settings TargetFileSettings
	Logger   *slog.Logger
}

// TargetFileService builds target files and drives one export cycle at a time.
type TargetFileService struct {
	source   core.RecordSource
	catalog  core.ContentCatalog
	auditor  ExportAuditor
	alerter  core.Alerter
	notifier Notifier
	mirror   core.ArtifactPublisher
	last     LastExportStore
	metrics  CycleMetrics
	clock    Clock
	settings TargetFileSettings
	logger   *slog.Logger

	mu    sync.Mutex
	state model.CycleState
}

// NewTargetFileService creates a new TargetFileService.
func NewTargetFileService(opts TargetFileServiceOptions) (*TargetFileService, error) {
	switch {
	case opts.Source == nil:
		return nil, errors.New("record source is required")
	case opts.Catalog == nil:
		return nil, errors.New("content catalog is required")
	case opts.Auditor == nil:
		return nil, errors.New("export auditor is required")
	case opts.Alerter == nil:
		return nil, errors.New("alerter is required")
	case opts.Settings.Directory == "":
		return nil, errors.New("target file directory is required")
	}

	settings := opts.Settings
	if settings.PageSize <= 0 {
		settings.PageSize = defaultPageSize
	}
	if settings.Digest == "" {
		settings.Digest = targetfile.DigestMD5
	}
	clock := opts.Clock
	if clock == nil {
		clock = utcClock{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &TargetFileService{
		source:   opts.Source,
		catalog:  opts.Catalog,
		auditor:  opts.Auditor,
		alerter:  opts.Alerter,
		notifier: opts.Notifier,
		mirror:   opts.Mirror,
		last:     opts.Last,
		metrics:  opts.Metrics,
		clock:    clock,
		settings: settings,
		logger:   logger.With("component", "target_file"),
		state:    model.CycleStateIdle,
	}, nil
}

// Now reads the clock that stamps the file name and picks the retry day.
func (s *TargetFileService) Now() time.Time {
	return s.clock.Now()
}

// State returns the current position in the cycle state machine.
func (s *TargetFileService) State() model.CycleState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *TargetFileService) transition(ctx context.Context, next model.CycleState) {
	s.mu.Lock()
	prev := s.state
	if !prev.CanTransitionTo(next) {
		s.mu.Unlock()
		s.logger.WarnContext(ctx, "illegal cycle transition", "from", prev, "to", next)
		return
	}
	s.state = next
	s.mu.Unlock()
	s.logger.DebugContext(ctx, "cycle transition", "from", prev, "to", next)
}

// resetIfTerminal brings a finished cycle back to idle before a new one starts.
func (s *TargetFileService) resetIfTerminal(ctx context.Context) {
	if st := s.State(); st.IsTerminal() || st == model.CycleStateFinalized {
		s.transition(ctx, model.CycleStateIdle)
	}
}

// RunCycle generates a target file and, on success, notifies the provider. Failures are
// alerted and audited along the way and never escape, so the scheduler keeps firing.
func (s *TargetFileService) RunCycle(ctx context.Context) {
	start := s.clock.Now()
	res, err := s.generate(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "target file cycle failed", "kind", KindOf(err), "error", err)
		s.observeCycle(err, start)
		return
	}

	summary := model.LastExport{
		ExportID:     res.ExportID,
		FileName:     res.Notification.FileName,
		Checksum:     res.Notification.Checksum,
		RecordCount:  res.Notification.RecordCount,
		CompletedAt:  res.CompletedAt,
		ArtifactURI:  res.artifactURI,
		DigestMethod: string(s.settings.Digest),
	}

	var notifyErr error
	if s.notifier == nil {
		s.logger.WarnContext(ctx, "notification url not configured; target file left for pickup",
			"file_name", res.Notification.FileName)
		s.transition(ctx, model.CycleStateIdle)
	} else {
		notifyErr = s.notifier.Dispatch(ctx, res.Notification)
		if s.metrics != nil {
			s.metrics.ObserveNotification(notifyErr)
		}
		if notifyErr != nil {
			summary.NotifyError = notifyErr.Error()
			s.transition(ctx, model.CycleStateNotifyFailed)
		} else {
			summary.Notified = true
			s.transition(ctx, model.CycleStateNotifySent)
		}
	}

	if s.last != nil {
		if err := s.last.Save(context.WithoutCancel(ctx), summary); err != nil {
			s.logger.WarnContext(ctx, "failed to cache last export", "error", err)
		}
	}

	if notifyErr == nil && s.metrics != nil {
		s.metrics.SetLastSuccess(res.CompletedAt)
	}
	s.observeCycle(notifyErr, start)
	s.logger.InfoContext(ctx, "target file cycle finished",
		"export_id", res.ExportID,
		"file_name", res.Notification.FileName,
		"records", res.Notification.RecordCount,
		"fresh", res.FreshCount,
		"retries", res.RetryCount,
		"notified", summary.Notified,
	)
}

func (s *TargetFileService) observeCycle(err error, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveCycle(err, s.clock.Now().Sub(start))
	}
}

// GenerateTargetFile builds one target file and audits the attempt. It does not notify.
func (s *TargetFileService) GenerateTargetFile(ctx context.Context) (*model.TargetFileNotification, error) {
	res, err := s.generate(ctx)
	if err != nil {
		return nil, err
	}
	tfn := res.Notification
	return &tfn, nil
}

type exportOutcome struct {
	model.ExportResult
	artifactURI string
}

func (s *TargetFileService) generate(ctx context.Context) (*exportOutcome, error) {
	s.resetIfTerminal(ctx)

	now := s.clock.Now()
	fileName := targetfile.FileName(now)
	dir := s.settings.Directory

	if err := os.MkdirAll(dir, dirPerm); err != nil {
		s.transition(ctx, model.CycleStateFailed)
		s.raise(ctx, dir, model.AlertCategoryTargetFileDirectory, mkdirsFailed)
		s.audit(ctx, nil, fileName, fmt.Sprintf("Unable to create targetFileDirectory %s: %s", dir, mkdirsFailed), nil, nil)
		return nil, &CycleError{Kind: KindDirectoryUnavailable, Path: dir, Err: err}
	}
	s.transition(ctx, model.CycleStateDirectoryReady)

	exportID := uuid.NewString()
	path := filepath.Join(dir, fileName)
	logger := s.logger.With("export_id", exportID, "file_name", fileName)

	// An existing file with this name belongs to an earlier export and is never overwritten.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, filePerm)
	if err != nil {
		return nil, s.ioFailure(ctx, fileName, path, err)
	}
	s.transition(ctx, model.CycleStateWriting)
	logger.InfoContext(ctx, "writing target file", "path", path)

	dw := targetfile.NewDigestWriter(f, s.settings.Digest)
	w := &exportWriter{
		buf:      bufio.NewWriter(dw),
		exportID: exportID,
		seen:     make(map[string]struct{}),
	}

	fresh, retries, err := s.writeAll(ctx, w, now)
	if closeErr := dw.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, s.ioFailure(ctx, fileName, path, err)
	}

	return s.finalize(ctx, dw, exportOutcome{ExportResult: model.ExportResult{
		ExportID:   exportID,
		Path:       path,
		FreshCount: fresh,
		RetryCount: retries,
	}}, fileName, w.count)
}

// writeAll streams the fresh pass, then the retry pass for today, then flushes.
func (s *TargetFileService) writeAll(ctx context.Context, w *exportWriter, now time.Time) (int, int, error) {
	fresh, err := s.writeFresh(ctx, w, now)
	s.addRecords(passFresh, fresh)
	if err != nil {
		return fresh, 0, err
	}
	retries, err := s.writeRetries(ctx, w, model.DayOfTheWeekFor(now))
	s.addRecords(passRetry, retries)
	if err != nil {
		return fresh, retries, err
	}
	return fresh, retries, w.buf.Flush()
}

func (s *TargetFileService) addRecords(pass string, n int) {
	if s.metrics != nil {
		s.metrics.AddRecords(pass, n)
	}
}

func (s *TargetFileService) finalize(
	ctx context.Context,
	dw *targetfile.DigestWriter,
	out exportOutcome,
	fileName string,
	count int,
) (*exportOutcome, error) {
	checksum, err := dw.Finalize()
	if err != nil {
		return nil, s.ioFailure(ctx, fileName, out.Path, err)
	}
	s.transition(ctx, model.CycleStateFinalized)

	exportID := out.ExportID
	s.audit(ctx, &exportID, fileName, model.AuditStatusSuccess, &count, &checksum)

	out.Notification = model.TargetFileNotification{
		FileName:    fileName,
		Checksum:    checksum,
		RecordCount: count,
	}
	out.CompletedAt = s.clock.Now()
	out.artifactURI = s.publish(ctx, out.Path, fileName)

	s.logger.InfoContext(ctx, "target file finalized",
		"export_id", exportID,
		"file_name", fileName,
		"records", count,
		"checksum", checksum,
		"bytes", dw.BytesWritten(),
	)
	return &out, nil
}

// exportWriter accumulates rows for one file and drops repeated request ids.
type exportWriter struct {
	buf      *bufio.Writer
	exportID string
	seen     map[string]struct{}
	count    int
}

func (w *exportWriter) write(rec model.CallJobRecord) (bool, error) {
	if _, dup := w.seen[rec.RequestID]; dup {
		return false, nil
	}
	line, err := targetfile.EncodeRow(rec)
	if err != nil {
		return false, err
	}
	if _, err := w.buf.WriteString(line); err != nil {
		return false, err
	}
	w.seen[rec.RequestID] = struct{}{}
	w.count++
	return true, nil
}

func (s *TargetFileService) writeFresh(ctx context.Context, w *exportWriter, now time.Time) (int, error) {
	written := 0
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		rows, err := s.source.ListActive(ctx, page, s.settings.PageSize)
		if err != nil {
			return written, fmt.Errorf("list active subscriptions page %d: %w", page, err)
		}
		if len(rows) == 0 {
			return written, nil
		}
		for _, e := range rows {
			week := e.WeekNumber(now)
			content, err := s.catalog.MessageFile(e.PackName, week)
			if err != nil {
				return written, fmt.Errorf("subscription %s: %w", e.SubscriptionID, err)
			}
			ok, err := w.write(model.CallJobRecord{
				RequestID:            model.RequestID(w.exportID, e.SubscriptionID),
				ServiceID:            s.settings.ServiceID,
				MSISDN:               e.MSISDN,
				Priority:             model.DefaultPriority,
				CallFlowURL:          s.settings.CallFlowURL,
				ContentFileName:      content,
				WeekID:               week,
				LanguageLocationCode: e.LanguageLocationCode,
				Circle:               e.Circle,
				SubscriptionMode:     e.Mode,
			})
			if err != nil {
				return written, fmt.Errorf("subscription %s: %w", e.SubscriptionID, err)
			}
			if ok {
				written++
			}
		}
	}
}

func (s *TargetFileService) writeRetries(ctx context.Context, w *exportWriter, day model.DayOfTheWeek) (int, error) {
	written := 0
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		rows, err := s.source.ListRetriesForDay(ctx, day, page, s.settings.PageSize)
		if err != nil {
			return written, fmt.Errorf("list call retries page %d: %w", page, err)
		}
		if len(rows) == 0 {
			return written, nil
		}
		for _, r := range rows {
			ok, err := w.write(model.CallJobRecord{
				RequestID:            model.RequestID(w.exportID, r.SubscriptionID),
				ServiceID:            s.settings.ServiceID,
				MSISDN:               r.MSISDN,
				Priority:             model.DefaultPriority,
				CallFlowURL:          s.settings.CallFlowURL,
				ContentFileName:      r.ContentFileName,
				WeekID:               r.WeekID,
				LanguageLocationCode: r.LanguageLocationCode,
				Circle:               r.Circle,
				SubscriptionMode:     r.SubscriptionMode,
			})
			if err != nil {
				return written, fmt.Errorf("call retry %s: %w", r.ID, err)
			}
			if ok {
				written++
			} else {
				s.logger.DebugContext(ctx, "retry already written as fresh row",
					"subscription_id", r.SubscriptionID, "retry_id", r.ID)
			}
		}
	}
}

// ioFailure handles any write, encoding or digest error: the partial file stays on disk,
// a critical alert is raised and the attempt is audited without an export id.
func (s *TargetFileService) ioFailure(ctx context.Context, fileName, path string, err error) error {
	s.transition(ctx, model.CycleStateFailed)
	s.raise(ctx, path, model.AlertCategoryTargetFile, err.Error())
	s.audit(ctx, nil, fileName, err.Error(), nil, nil)
	return &CycleError{Kind: KindDigestOrIOFailure, Path: path, Err: err}
}

func (s *TargetFileService) publish(ctx context.Context, path, fileName string) string {
	if s.mirror == nil {
		return ""
	}
	f, err := os.Open(path)
	if err != nil {
		s.raise(ctx, fileName, model.AlertCategoryArtifactMirror, err.Error())
		return ""
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		s.raise(ctx, fileName, model.AlertCategoryArtifactMirror, err.Error())
		return ""
	}
	uri, err := s.mirror.Publish(ctx, fileName, f, info.Size())
	if err != nil {
		s.raise(ctx, fileName, model.AlertCategoryArtifactMirror, err.Error())
		return ""
	}
	s.logger.InfoContext(ctx, "target file mirrored", "file_name", fileName, "uri", uri)
	return uri
}

func (s *TargetFileService) raise(ctx context.Context, subject string, category model.AlertCategory, message string) {
	if err := s.alerter.Raise(context.WithoutCancel(ctx), model.CreateAlertRequest{
		Subject:  subject,
		Category: category,
		Message:  message,
		Severity: model.AlertSeverityCritical,
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to raise alert", "category", category, "error", err)
	}
}

func (s *TargetFileService) audit(
	ctx context.Context,
	exportID *string,
	fileName, status string,
	count *int,
	checksum *string,
) {
	if err := s.auditor.RecordExportAttempt(context.WithoutCancel(ctx), exportID, fileName, status, count, checksum); err != nil {
		s.logger.ErrorContext(ctx, "failed to audit export attempt", "file_name", fileName, "error", err)
	}
}

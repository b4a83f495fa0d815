package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/target/obd-dialer/internal/domain/model"
	apperrors "github.com/target/obd-dialer/internal/errors"
)

// OutcomeRecorder audits the provider's processing outcome for a target file.
type OutcomeRecorder interface {
	RecordProcessingOutcome(ctx context.Context, req model.FileProcessedStatusRequest) error
	// RecordRejectedCallback audits and alerts a callback body that could not be decoded.
	RecordRejectedCallback(ctx context.Context, fileName, reason string)
}

// LastExportReader returns the cached summary of the latest export, or nil.
type LastExportReader interface {
	Get(ctx context.Context) (*model.LastExport, error)
}

// TargetFileHandlers serves the provider callback and the last-export summary.
type TargetFileHandlers struct {
	Outcomes OutcomeRecorder
	Last     LastExportReader
	Logger   *slog.Logger
}

func (h *TargetFileHandlers) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// ProcessedStatus handles POST /api/obd/target-file/status.
func (h *TargetFileHandlers) ProcessedStatus(w http.ResponseWriter, r *http.Request) {
	var req model.FileProcessedStatusRequest
	if err := ReadJSON(w, r, &req); err != nil {
		h.Outcomes.RecordRejectedCallback(r.Context(), req.FileName, "malformed body: "+err.Error())
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_json", Err: err})
		return
	}

	attrs := []any{"request", req.String()}
	if caller, ok := CallerFromContext(r.Context()); ok {
		attrs = append(attrs, "caller", caller.Subject)
	}
	h.logger().InfoContext(r.Context(), "target file status callback", attrs...)

	if err := h.Outcomes.RecordProcessingOutcome(r.Context(), req); err != nil {
		if !apperrors.IsValidation(err) {
			h.logger().ErrorContext(r.Context(), "failed to record processing outcome", "error", err)
		}
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// LastExport handles GET /api/obd/target-file/last.
func (h *TargetFileHandlers) LastExport(w http.ResponseWriter, r *http.Request) {
	if h.Last == nil {
		WriteAppError(w, apperrors.NotFound("last export tracking is disabled"))
		return
	}
	last, err := h.Last.Get(r.Context())
	if err != nil {
		h.logger().ErrorContext(r.Context(), "failed to read last export", "error", err)
		WriteAppError(w, err)
		return
	}
	if last == nil {
		WriteAppError(w, apperrors.NotFound("no target file has been exported yet"))
		return
	}
	WriteJSON(w, http.StatusOK, last)
}

var errNoOutcomeRecorder = errors.New("target file handlers require an outcome recorder")

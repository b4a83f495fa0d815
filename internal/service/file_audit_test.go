package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/obd-dialer/internal/domain/model"
	apperrors "github.com/target/obd-dialer/internal/errors"
	"github.com/target/obd-dialer/internal/mocks"
)

type callbackCounter struct{ statuses []string }

func (c *callbackCounter) ObserveCallback(status string) { c.statuses = append(c.statuses, status) }

func newFileAuditFixture(t *testing.T) (*FileAuditService, *mocks.MockAuditRepository, *mocks.MockAlerter, *callbackCounter) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockAuditRepository(ctrl)
	alerter := mocks.NewMockAlerter(ctrl)
	counter := &callbackCounter{}
	svc, err := NewFileAuditService(FileAuditServiceOptions{Repo: repo, Alerter: alerter, Metrics: counter})
	require.NoError(t, err)
	return svc, repo, alerter, counter
}

func statusAudit(fileName, status string) *model.CreateAuditRecordRequest {
	return &model.CreateAuditRecordRequest{
		FileType: model.FileTypeTargetFileStatus,
		FileName: fileName,
		Status:   status,
	}
}

func TestNewFileAuditService_RequiresDependencies(t *testing.T) {
	_, err := NewFileAuditService(FileAuditServiceOptions{})
	require.Error(t, err)
}

func TestRecordExportAttempt(t *testing.T) {
	svc, repo, _, _ := newFileAuditFixture(t)
	id := "8d1f2c9e-5b7a-4c1e-9f0a-3b6d2e4c8a10"
	count := 7
	sum := "abc123"

	repo.EXPECT().Create(gomock.Any(), &model.CreateAuditRecordRequest{
		ExportID:    &id,
		FileType:    model.FileTypeTargetFile,
		FileName:    "OBD_20240101120000.csv",
		Status:      model.AuditStatusSuccess,
		RecordCount: &count,
		Checksum:    &sum,
	}).Return(&model.AuditRecord{ID: "audit-1"}, nil)

	require.NoError(t, svc.RecordExportAttempt(context.Background(), &id, "OBD_20240101120000.csv",
		model.AuditStatusSuccess, &count, &sum))
}

func TestRecordProcessingOutcome_SuccessAuditsWithoutAlert(t *testing.T) {
	svc, repo, _, counter := newFileAuditFixture(t)
	repo.EXPECT().Create(gomock.Any(), statusAudit("OBD_20240101120000.csv", "SUCCESS")).
		Return(&model.AuditRecord{ID: "a"}, nil)

	err := svc.RecordProcessingOutcome(context.Background(), model.FileProcessedStatusRequest{
		FileName:        " OBD_20240101120000.csv ",
		ProcessedStatus: "success",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"SUCCESS"}, counter.statuses)
}

func TestRecordProcessingOutcome_FailureRaisesOneAlert(t *testing.T) {
	svc, repo, alerter, _ := newFileAuditFixture(t)
	repo.EXPECT().Create(gomock.Any(), statusAudit("OBD_20240101120000.csv", "FAILURE")).
		Return(&model.AuditRecord{ID: "a"}, nil).Times(1)
	alerter.EXPECT().Raise(gomock.Any(), model.CreateAlertRequest{
		Subject:  "OBD_20240101120000.csv",
		Category: model.AlertCategoryTargetFileName,
		Message:  "Target File Processing Error",
		Severity: model.AlertSeverityCritical,
	}).Return(nil).Times(1)

	require.NoError(t, svc.RecordProcessingOutcome(context.Background(), model.FileProcessedStatusRequest{
		FileName:        "OBD_20240101120000.csv",
		ProcessedStatus: model.FileProcessedFailure,
	}))
}

func TestRecordProcessingOutcome_UnknownStatusIsTreatedAsFailure(t *testing.T) {
	svc, repo, alerter, _ := newFileAuditFixture(t)
	repo.EXPECT().Create(gomock.Any(), statusAudit("OBD_20240101120000.csv", "PARTIAL")).
		Return(&model.AuditRecord{ID: "a"}, nil)
	alerter.EXPECT().Raise(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	require.NoError(t, svc.RecordProcessingOutcome(context.Background(), model.FileProcessedStatusRequest{
		FileName:        "OBD_20240101120000.csv",
		ProcessedStatus: "partial",
	}))
}

func TestRecordProcessingOutcome_InvalidRequestIsAuditedAndAlerted(t *testing.T) {
	svc, repo, alerter, counter := newFileAuditFixture(t)
	repo.EXPECT().Create(gomock.Any(), statusAudit("", "INVALID: fileName failed on required")).
		Return(&model.AuditRecord{ID: "a"}, nil).Times(1)
	alerter.EXPECT().Raise(gomock.Any(), model.CreateAlertRequest{
		Subject:  "targetFile status callback",
		Category: model.AlertCategoryTargetFileName,
		Message:  "Invalid Target File Status Callback",
		Severity: model.AlertSeverityCritical,
	}).Return(nil).Times(1)

	err := svc.RecordProcessingOutcome(context.Background(), model.FileProcessedStatusRequest{
		ProcessedStatus: model.FileProcessedFailure,
	})
	require.ErrorIs(t, err, ErrInvalidInboundOutcome)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "fileName", apperrors.GetField(err))
	assert.Equal(t, []string{"INVALID"}, counter.statuses)
}

func TestRecordProcessingOutcome_MissingStatusNamesFileInAlert(t *testing.T) {
	svc, repo, alerter, _ := newFileAuditFixture(t)
	repo.EXPECT().Create(gomock.Any(), statusAudit("OBD_20240101120000.csv", "INVALID: processedStatus failed on required")).
		Return(&model.AuditRecord{ID: "a"}, nil)
	alerter.EXPECT().Raise(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req model.CreateAlertRequest) error {
			assert.Equal(t, "OBD_20240101120000.csv", req.Subject)
			return nil
		}).Times(1)

	err := svc.RecordProcessingOutcome(context.Background(), model.FileProcessedStatusRequest{
		FileName: "OBD_20240101120000.csv",
	})
	require.ErrorIs(t, err, ErrInvalidInboundOutcome)
	assert.Equal(t, "processedStatus", apperrors.GetField(err))
}

func TestRecordRejectedCallback_LedgerFailureStillAlerts(t *testing.T) {
	svc, repo, alerter, _ := newFileAuditFixture(t)
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))
	alerter.EXPECT().Raise(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	svc.RecordRejectedCallback(context.Background(), "", "malformed body: unexpected EOF")
}

func TestRecordProcessingOutcome_AuditFailureStillAlerts(t *testing.T) {
	svc, repo, alerter, _ := newFileAuditFixture(t)
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))
	alerter.EXPECT().Raise(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	err := svc.RecordProcessingOutcome(context.Background(), model.FileProcessedStatusRequest{
		FileName:        "OBD_20240101120000.csv",
		ProcessedStatus: model.FileProcessedFailure,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/obd-dialer/internal/domain/model"
	apperrors "github.com/target/obd-dialer/internal/errors"
	"github.com/target/obd-dialer/internal/mocks"
	"github.com/target/obd-dialer/internal/observability/notify"
)

type captureNotifier struct{ alerts []notify.Alert }

func (c *captureNotifier) Notify(_ context.Context, alert notify.Alert) {
	c.alerts = append(c.alerts, alert)
}

func TestNewAlertService_RequiresRepo(t *testing.T) {
	_, err := NewAlertService(AlertServiceOptions{})
	require.Error(t, err)
}

func TestAlertService_RaisePersistsAndNotifies(t *testing.T) {
	repo := mocks.NewMockAlertRepository(gomock.NewController(t))
	sink := &captureNotifier{}
	svc, err := NewAlertService(AlertServiceOptions{Repo: repo, Notifier: sink})
	require.NoError(t, err)

	created := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	repo.EXPECT().Create(gomock.Any(), &model.CreateAlertRequest{
		Subject:  "/var/obd",
		Category: model.AlertCategoryTargetFileDirectory,
		Message:  "mkdirs() failed",
		Severity: model.AlertSeverityCritical,
	}).Return(&model.Alert{
		ID:        "alert-1",
		Subject:   "/var/obd",
		Category:  model.AlertCategoryTargetFileDirectory,
		Message:   "mkdirs() failed",
		Severity:  model.AlertSeverityCritical,
		CreatedAt: created,
	}, nil)

	require.NoError(t, svc.Raise(context.Background(), model.CreateAlertRequest{
		Subject:  " /var/obd ",
		Category: model.AlertCategoryTargetFileDirectory,
		Message:  "mkdirs() failed",
	}))

	require.Len(t, sink.alerts, 1)
	assert.Equal(t, notify.Alert{
		ID:         "alert-1",
		Subject:    "/var/obd",
		Category:   "targetFileDirectory",
		Message:    "mkdirs() failed",
		Severity:   "critical",
		OccurredAt: created,
	}, sink.alerts[0])
}

func TestAlertService_RaiseRejectsInvalidRequest(t *testing.T) {
	repo := mocks.NewMockAlertRepository(gomock.NewController(t))
	svc, err := NewAlertService(AlertServiceOptions{Repo: repo})
	require.NoError(t, err)

	err = svc.Raise(context.Background(), model.CreateAlertRequest{Category: model.AlertCategoryTargetFile})
	assert.True(t, apperrors.IsValidation(err))
}

func TestAlertService_RaiseNotifiesWhenPersistFails(t *testing.T) {
	repo := mocks.NewMockAlertRepository(gomock.NewController(t))
	sink := &captureNotifier{}
	svc, err := NewAlertService(AlertServiceOptions{Repo: repo, Notifier: sink})
	require.NoError(t, err)

	repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))

	err = svc.Raise(context.Background(), model.CreateAlertRequest{
		Subject:  "OBD_20240101120000.csv",
		Category: model.AlertCategoryTargetFileName,
		Message:  "Target File Processing Error",
	})
	require.Error(t, err)
	require.Len(t, sink.alerts, 1)
	assert.Empty(t, sink.alerts[0].ID)
	assert.Equal(t, "OBD_20240101120000.csv", sink.alerts[0].Subject)
}

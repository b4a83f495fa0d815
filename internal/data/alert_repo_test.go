package data

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/obd-dialer/internal/domain/model"
	apperrors "github.com/target/obd-dialer/internal/errors"
	"github.com/target/obd-dialer/internal/testutil"
)

func TestAlertRepo_CreateGetList(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	db := testutil.SetupTestDB(t)
	clock := NewFixedTimeProvider(testutil.TestTime())
	repo := NewAlertRepoWithTimeProvider(db, clock)
	ctx := context.Background()

	dirAlert, err := repo.Create(ctx, &model.CreateAlertRequest{
		Subject:  "/srv/obd/target",
		Category: model.AlertCategoryTargetFileDirectory,
		Message:  "mkdirs() failed",
	})
	require.NoError(t, err)
	assert.Equal(t, model.AlertSeverityCritical, dirAlert.Severity)
	assert.Equal(t, model.AlertStatusNew, dirAlert.Status)

	clock.AddTime(time.Minute)
	_, err = repo.Create(ctx, &model.CreateAlertRequest{
		Subject:  "OBD_20240101120000.csv",
		Category: model.AlertCategoryTargetFileName,
		Message:  "Target File Processing Error",
		Severity: model.AlertSeverityHigh,
	})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, dirAlert.ID)
	require.NoError(t, err)
	assert.Equal(t, dirAlert.Subject, got.Subject)

	_, err = repo.GetByID(ctx, "not-a-uuid")
	require.ErrorIs(t, err, ErrAlertNotFound)
	_, err = repo.GetByID(ctx, "550e8400-e29b-41d4-a716-446655440000")
	require.ErrorIs(t, err, ErrAlertNotFound)

	all, err := repo.List(ctx, &model.AlertListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, model.AlertCategoryTargetFileName, all[0].Category)

	cat := model.AlertCategoryTargetFileDirectory
	filtered, err := repo.List(ctx, &model.AlertListOptions{Category: &cat, Limit: 5})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, dirAlert.ID, filtered[0].ID)
}

func TestAlertRepo_CreateValidation(t *testing.T) {
	repo := NewAlertRepo(nil)

	_, err := repo.Create(context.Background(), &model.CreateAlertRequest{Category: "targetFile", Message: "x"})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	_, err = repo.Create(context.Background(), nil)
	require.Error(t, err)
}

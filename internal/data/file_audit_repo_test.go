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

func TestFileAuditRepo_AppendAndList(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	db := testutil.SetupTestDB(t)
	clock := NewFixedTimeProvider(testutil.TestTime())
	repo := NewFileAuditRepoWithTimeProvider(db, clock)
	ctx := context.Background()

	exportRec, err := repo.Create(ctx, &model.CreateAuditRecordRequest{
		ExportID:    testutil.StringPtr("7b1e0a52-5d9c-4d1e-9f34-8b0c6f1a2d33"),
		FileType:    model.FileTypeTargetFile,
		FileName:    "OBD_20240101120000.csv",
		Status:      model.AuditStatusSuccess,
		RecordCount: testutil.IntPtr(3),
		Checksum:    testutil.StringPtr(" D41D8CD98F00B204E9800998ECF8427E "),
	})
	require.NoError(t, err)
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", *exportRec.Checksum)

	clock.AddTime(time.Minute)
	failed, err := repo.Create(ctx, &model.CreateAuditRecordRequest{
		ExportID: testutil.StringPtr("  "),
		FileType: model.FileTypeTargetFile,
		FileName: "OBD_20240101120100.csv",
		Status:   "Unable to create targetFileDirectory /tmp/x: mkdirs() failed",
	})
	require.NoError(t, err)
	assert.Nil(t, failed.ExportID)
	assert.Nil(t, failed.RecordCount)

	clock.AddTime(time.Minute)
	_, err = repo.Create(ctx, &model.CreateAuditRecordRequest{
		FileType: model.FileTypeTargetFileStatus,
		FileName: "OBD_20240101120000.csv",
		Status:   "SUCCESS",
	})
	require.NoError(t, err)

	all, err := repo.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, model.FileTypeTargetFileStatus, all[0].FileType)

	ft := model.FileTypeTargetFile
	name := "OBD_20240101120000.csv"
	filtered, err := repo.List(ctx, &model.AuditListOptions{FileType: &ft, FileName: &name})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, exportRec.ID, filtered[0].ID)

	_, err = db.ExecContext(ctx, `UPDATE file_audit_records SET status = 'x' WHERE id = $1`, exportRec.ID)
	require.Error(t, err, "ledger rows must be immutable")
}

func TestFileAuditRepo_CreateValidation(t *testing.T) {
	repo := NewFileAuditRepo(nil)

	_, err := repo.Create(context.Background(), &model.CreateAuditRecordRequest{
		FileType: "BOGUS",
		Status:   "x",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

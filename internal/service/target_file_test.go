package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/obd-dialer/internal/domain/model"
	"github.com/target/obd-dialer/internal/domain/targetfile"
	"github.com/target/obd-dialer/internal/mocks"
)

// 2024-01-01 is a Monday.
var cycleTime = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type auditCall struct {
	ExportID    *string
	FileName    string
	Status      string
	RecordCount *int
	Checksum    *string
}

type fakeAuditor struct {
	mu    sync.Mutex
	calls []auditCall
}

func (f *fakeAuditor) RecordExportAttempt(
	_ context.Context,
	exportID *string,
	fileName, status string,
	recordCount *int,
	checksum *string,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, auditCall{exportID, fileName, status, recordCount, checksum})
	return nil
}

type fakeNotifier struct {
	err  error
	sent []model.TargetFileNotification
}

func (f *fakeNotifier) Dispatch(_ context.Context, tfn model.TargetFileNotification) error {
	f.sent = append(f.sent, tfn)
	return f.err
}

type fakeLastStore struct {
	saved []model.LastExport
}

func (f *fakeLastStore) Save(_ context.Context, last model.LastExport) error {
	f.saved = append(f.saved, last)
	return nil
}

type targetFileFixture struct {
	svc      *TargetFileService
	source   *mocks.MockRecordSource
	catalog  *mocks.MockContentCatalog
	alerter  *mocks.MockAlerter
	auditor  *fakeAuditor
	notifier *fakeNotifier
	last     *fakeLastStore
	clock    *stepClock
	dir      string
}

func newTargetFileFixture(t *testing.T, pageSize int, withNotifier bool) *targetFileFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	fx := &targetFileFixture{
		source:  mocks.NewMockRecordSource(ctrl),
		catalog: mocks.NewMockContentCatalog(ctrl),
		alerter: mocks.NewMockAlerter(ctrl),
		auditor: &fakeAuditor{},
		last:    &fakeLastStore{},
		clock:   &stepClock{now: cycleTime},
		dir:     filepath.Join(t.TempDir(), "obd-target-files"),
	}
	opts := TargetFileServiceOptions{
		Source:  fx.source,
		Catalog: fx.catalog,
		Auditor: fx.auditor,
		Alerter: fx.alerter,
		Last:    fx.last,
		Clock:   fx.clock,
		Settings: TargetFileSettings{
			Directory:   fx.dir,
			PageSize:    pageSize,
			ServiceID:   "svc-42",
			CallFlowURL: "",
		},
	}
	if withNotifier {
		fx.notifier = &fakeNotifier{}
		opts.Notifier = fx.notifier
	}
	svc, err := NewTargetFileService(opts)
	require.NoError(t, err)
	fx.svc = svc
	return fx
}

func enrollment(id, msisdn string) model.Enrollment {
	return model.Enrollment{
		SubscriptionID:       id,
		MSISDN:               msisdn,
		PackName:             "pack-72",
		StartDate:            cycleTime.AddDate(0, 0, -14),
		LanguageLocationCode: "HI",
		Circle:               "DL",
		Mode:                 model.SubscriptionModeIVR,
	}
}

func retry(id, subscriptionID, msisdn string) model.CallRetry {
	return model.CallRetry{
		ID:                   id,
		SubscriptionID:       subscriptionID,
		MSISDN:               msisdn,
		DayOfTheWeek:         model.Monday,
		LanguageLocationCode: "TA",
		Circle:               "TN",
		SubscriptionMode:     model.SubscriptionModeMCTS,
		ContentFileName:      "w5_2.wav",
		WeekID:               5,
	}
}

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var rows [][]string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields, err := targetfile.SplitRow(sc.Text())
		require.NoError(t, err)
		rows = append(rows, fields)
	}
	require.NoError(t, sc.Err())
	return rows
}

func TestNewTargetFileService_RequiresDependencies(t *testing.T) {
	_, err := NewTargetFileService(TargetFileServiceOptions{})
	require.Error(t, err)
}

func TestGenerateTargetFile_PagesUntilEmptyThenRetries(t *testing.T) {
	fx := newTargetFileFixture(t, 2, false)
	ctx := context.Background()

	gomock.InOrder(
		fx.source.EXPECT().ListActive(gomock.Any(), 1, 2).
			Return([]model.Enrollment{enrollment("s1", "9000000001"), enrollment("s2", "9000000002")}, nil),
		fx.source.EXPECT().ListActive(gomock.Any(), 2, 2).
			Return([]model.Enrollment{enrollment("s3", "9000000003")}, nil),
		fx.source.EXPECT().ListActive(gomock.Any(), 3, 2).Return(nil, nil),
		fx.source.EXPECT().ListRetriesForDay(gomock.Any(), model.Monday, 1, 2).
			Return([]model.CallRetry{retry("r1", "s9", "9000000009")}, nil),
		fx.source.EXPECT().ListRetriesForDay(gomock.Any(), model.Monday, 2, 2).Return(nil, nil),
	)
	fx.catalog.EXPECT().MessageFile("pack-72", 3).Return("w3_1.wav", nil).Times(3)

	tfn, err := fx.svc.GenerateTargetFile(ctx)
	require.NoError(t, err)

	assert.Equal(t, "OBD_20240101120000.csv", tfn.FileName)
	assert.Equal(t, 4, tfn.RecordCount)

	path := filepath.Join(fx.dir, tfn.FileName)
	rows := readRows(t, path)
	require.Len(t, rows, 4)

	want, err := targetfile.FileDigest(path, targetfile.DigestMD5)
	require.NoError(t, err)
	assert.Equal(t, want, tfn.Checksum)

	exportID := strings.TrimSuffix(rows[0][0], "-s1")
	assert.Equal(t, []string{exportID + "-s1", "svc-42", "9000000001", "", "0", "", "w3_1.wav", "3", "HI", "DL", "I"}, rows[0])
	assert.Equal(t, exportID+"-s3", rows[2][0])
	assert.Equal(t, []string{exportID + "-s9", "svc-42", "9000000009", "", "0", "", "w5_2.wav", "5", "TA", "TN", "M"}, rows[3])

	require.Len(t, fx.auditor.calls, 1)
	call := fx.auditor.calls[0]
	require.NotNil(t, call.ExportID)
	assert.Equal(t, exportID, *call.ExportID)
	assert.Equal(t, model.AuditStatusSuccess, call.Status)
	assert.Equal(t, 4, *call.RecordCount)
	assert.Equal(t, tfn.Checksum, *call.Checksum)
	assert.Equal(t, model.CycleStateFinalized, fx.svc.State())
}

func TestGenerateTargetFile_RetryOnly(t *testing.T) {
	fx := newTargetFileFixture(t, 10, false)

	fx.source.EXPECT().ListActive(gomock.Any(), 1, 10).Return([]model.Enrollment{}, nil)
	gomock.InOrder(
		fx.source.EXPECT().ListRetriesForDay(gomock.Any(), model.Monday, 1, 10).
			Return([]model.CallRetry{retry("r1", "s1", "9000000001"), retry("r2", "s2", "9000000002")}, nil),
		fx.source.EXPECT().ListRetriesForDay(gomock.Any(), model.Monday, 2, 10).Return(nil, nil),
	)

	tfn, err := fx.svc.GenerateTargetFile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, tfn.RecordCount)
	assert.Len(t, readRows(t, filepath.Join(fx.dir, tfn.FileName)), 2)
}

func TestGenerateTargetFile_EmptySourcesProduceEmptyFile(t *testing.T) {
	fx := newTargetFileFixture(t, 10, false)
	fx.source.EXPECT().ListActive(gomock.Any(), 1, 10).Return(nil, nil)
	fx.source.EXPECT().ListRetriesForDay(gomock.Any(), model.Monday, 1, 10).Return(nil, nil)

	tfn, err := fx.svc.GenerateTargetFile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, tfn.RecordCount)
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", tfn.Checksum)
}

func TestGenerateTargetFile_UniqueRequestIDsAcrossPageBoundaries(t *testing.T) {
	const pageSize = 4
	fx := newTargetFileFixture(t, pageSize, false)

	// Ten enrollments (2.5 pages); the third page repeats one row from the second,
	// as happens when the table shifts under OFFSET paging.
	var all []model.Enrollment
	for i := range 10 {
		all = append(all, enrollment(fmt.Sprintf("s%02d", i), fmt.Sprintf("90000000%02d", i)))
	}
	third := append([]model.Enrollment{all[7]}, all[8:]...)
	gomock.InOrder(
		fx.source.EXPECT().ListActive(gomock.Any(), 1, pageSize).Return(all[0:4], nil),
		fx.source.EXPECT().ListActive(gomock.Any(), 2, pageSize).Return(all[4:8], nil),
		fx.source.EXPECT().ListActive(gomock.Any(), 3, pageSize).Return(third, nil),
		fx.source.EXPECT().ListActive(gomock.Any(), 4, pageSize).Return(nil, nil),
	)
	gomock.InOrder(
		fx.source.EXPECT().ListRetriesForDay(gomock.Any(), model.Monday, 1, pageSize).
			Return([]model.CallRetry{retry("r1", "s03", "9000000003"), retry("r2", "s77", "9000000077")}, nil),
		fx.source.EXPECT().ListRetriesForDay(gomock.Any(), model.Monday, 2, pageSize).Return(nil, nil),
	)
	fx.catalog.EXPECT().MessageFile(gomock.Any(), gomock.Any()).Return("w3_1.wav", nil).AnyTimes()

	tfn, err := fx.svc.GenerateTargetFile(context.Background())
	require.NoError(t, err)

	rows := readRows(t, filepath.Join(fx.dir, tfn.FileName))
	seen := map[string]bool{}
	for _, r := range rows {
		assert.False(t, seen[r[0]], "duplicate request id %s", r[0])
		seen[r[0]] = true
	}
	// 10 fresh rows plus the one retry whose subscription was not already written.
	assert.Len(t, rows, 11)
	assert.Equal(t, 11, tfn.RecordCount)
	assert.True(t, strings.HasSuffix(rows[10][0], "-s77"))
}

func TestGenerateTargetFile_ExportIDsNeverRepeat(t *testing.T) {
	fx := newTargetFileFixture(t, 10, false)
	fx.source.EXPECT().ListActive(gomock.Any(), 1, 10).Return(nil, nil).Times(2)
	fx.source.EXPECT().ListRetriesForDay(gomock.Any(), model.Monday, 1, 10).Return(nil, nil).Times(2)

	_, err := fx.svc.GenerateTargetFile(context.Background())
	require.NoError(t, err)
	fx.clock.advance(time.Second)
	_, err = fx.svc.GenerateTargetFile(context.Background())
	require.NoError(t, err)

	require.Len(t, fx.auditor.calls, 2)
	assert.NotEqual(t, *fx.auditor.calls[0].ExportID, *fx.auditor.calls[1].ExportID)
	assert.NotEqual(t, fx.auditor.calls[0].FileName, fx.auditor.calls[1].FileName)
}

func TestGenerateTargetFile_DirectoryUnavailable(t *testing.T) {
	fx := newTargetFileFixture(t, 10, true)

	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))
	fx.svc.settings.Directory = filepath.Join(blocker, "target")

	fx.alerter.EXPECT().Raise(gomock.Any(), model.CreateAlertRequest{
		Subject:  fx.svc.settings.Directory,
		Category: model.AlertCategoryTargetFileDirectory,
		Message:  "mkdirs() failed",
		Severity: model.AlertSeverityCritical,
	}).Return(nil).Times(2)

	fx.svc.RunCycle(context.Background())

	assert.Equal(t, model.CycleStateFailed, fx.svc.State())
	assert.Empty(t, fx.notifier.sent)
	assert.Empty(t, fx.last.saved)
	require.Len(t, fx.auditor.calls, 1)
	assert.Nil(t, fx.auditor.calls[0].ExportID)
	assert.Equal(t,
		fmt.Sprintf("Unable to create targetFileDirectory %s: mkdirs() failed", fx.svc.settings.Directory),
		fx.auditor.calls[0].Status)

	_, statErr := os.Stat(fx.svc.settings.Directory)
	assert.Error(t, statErr)

	_, err := fx.svc.GenerateTargetFile(context.Background())
	assert.ErrorIs(t, err, ErrDirectoryUnavailable)
}

func TestGenerateTargetFile_EncodingFailureKeepsPartialFile(t *testing.T) {
	fx := newTargetFileFixture(t, 10, false)

	bad := enrollment("s2", "98,76")
	fx.source.EXPECT().ListActive(gomock.Any(), 1, 10).
		Return([]model.Enrollment{enrollment("s1", "9000000001"), bad}, nil)
	fx.catalog.EXPECT().MessageFile("pack-72", 3).Return("w3_1.wav", nil).Times(2)

	path := filepath.Join(fx.dir, "OBD_20240101120000.csv")
	fx.alerter.EXPECT().Raise(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req model.CreateAlertRequest) error {
			assert.Equal(t, path, req.Subject)
			assert.Equal(t, model.AlertCategoryTargetFile, req.Category)
			assert.Contains(t, req.Message, "msisdn")
			return nil
		}).Times(1)

	_, err := fx.svc.GenerateTargetFile(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDigestOrIOFailure)
	assert.ErrorIs(t, err, targetfile.ErrInvalidField)

	_, statErr := os.Stat(path)
	require.NoError(t, statErr)
	require.Len(t, fx.auditor.calls, 1)
	assert.Nil(t, fx.auditor.calls[0].ExportID)
	assert.Equal(t, model.CycleStateFailed, fx.svc.State())
}

func TestGenerateTargetFile_ExistingFileIsNotOverwritten(t *testing.T) {
	fx := newTargetFileFixture(t, 10, true)

	require.NoError(t, os.MkdirAll(fx.dir, 0o755))
	path := filepath.Join(fx.dir, "OBD_20240101120000.csv")
	earlier := []byte("earlier export\n")
	require.NoError(t, os.WriteFile(path, earlier, 0o600))

	fx.alerter.EXPECT().Raise(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req model.CreateAlertRequest) error {
			assert.Equal(t, path, req.Subject)
			assert.Equal(t, model.AlertCategoryTargetFile, req.Category)
			assert.Equal(t, model.AlertSeverityCritical, req.Severity)
			return nil
		}).Times(1)

	_, err := fx.svc.GenerateTargetFile(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDigestOrIOFailure)
	assert.ErrorIs(t, err, os.ErrExist)

	got, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, earlier, got)

	require.Len(t, fx.auditor.calls, 1)
	assert.Nil(t, fx.auditor.calls[0].ExportID)
	assert.Equal(t, "OBD_20240101120000.csv", fx.auditor.calls[0].FileName)
	assert.Equal(t, model.CycleStateFailed, fx.svc.State())
	assert.Empty(t, fx.notifier.sent)
	assert.Empty(t, fx.last.saved)
}

func TestGenerateTargetFile_CatalogMissAborts(t *testing.T) {
	fx := newTargetFileFixture(t, 10, false)
	fx.source.EXPECT().ListActive(gomock.Any(), 1, 10).
		Return([]model.Enrollment{enrollment("s1", "9000000001")}, nil)
	fx.catalog.EXPECT().MessageFile("pack-72", 3).Return("", errors.New("message file not found"))
	fx.alerter.EXPECT().Raise(gomock.Any(), gomock.Any()).Return(nil)

	_, err := fx.svc.GenerateTargetFile(context.Background())
	assert.Equal(t, KindDigestOrIOFailure, KindOf(err))
}

func TestGenerateTargetFile_SourceErrorAborts(t *testing.T) {
	fx := newTargetFileFixture(t, 10, false)
	fx.source.EXPECT().ListActive(gomock.Any(), 1, 10).Return(nil, nil)
	fx.source.EXPECT().ListRetriesForDay(gomock.Any(), model.Monday, 1, 10).Return(nil, errors.New("conn reset"))
	fx.alerter.EXPECT().Raise(gomock.Any(), gomock.Any()).Return(nil)

	_, err := fx.svc.GenerateTargetFile(context.Background())
	assert.ErrorIs(t, err, ErrDigestOrIOFailure)
	assert.Contains(t, err.Error(), "conn reset")
}

func TestRunCycle_NotifiesOnSuccess(t *testing.T) {
	fx := newTargetFileFixture(t, 10, true)
	fx.source.EXPECT().ListActive(gomock.Any(), 1, 10).Return(nil, nil)
	fx.source.EXPECT().ListRetriesForDay(gomock.Any(), model.Monday, 1, 10).
		Return([]model.CallRetry{retry("r1", "s1", "9000000001")}, nil)
	fx.source.EXPECT().ListRetriesForDay(gomock.Any(), model.Monday, 2, 10).Return(nil, nil)

	fx.svc.RunCycle(context.Background())

	require.Len(t, fx.notifier.sent, 1)
	sent := fx.notifier.sent[0]
	assert.Equal(t, "OBD_20240101120000.csv", sent.FileName)
	assert.Equal(t, 1, sent.RecordCount)
	assert.Equal(t, model.CycleStateNotifySent, fx.svc.State())

	require.Len(t, fx.last.saved, 1)
	assert.True(t, fx.last.saved[0].Notified)
	assert.Equal(t, sent.Checksum, fx.last.saved[0].Checksum)
	assert.Equal(t, "md5", fx.last.saved[0].DigestMethod)
}

func TestRunCycle_NotificationFailureKeepsFileAndAudit(t *testing.T) {
	fx := newTargetFileFixture(t, 10, true)
	fx.notifier.err = &CycleError{Kind: KindNotificationRejected, Err: errors.New("HTTP 500")}
	fx.source.EXPECT().ListActive(gomock.Any(), 1, 10).Return(nil, nil)
	fx.source.EXPECT().ListRetriesForDay(gomock.Any(), model.Monday, 1, 10).Return(nil, nil)

	fx.svc.RunCycle(context.Background())

	assert.Equal(t, model.CycleStateNotifyFailed, fx.svc.State())
	_, err := os.Stat(filepath.Join(fx.dir, "OBD_20240101120000.csv"))
	require.NoError(t, err)
	require.Len(t, fx.auditor.calls, 1)
	assert.Equal(t, model.AuditStatusSuccess, fx.auditor.calls[0].Status)
	require.Len(t, fx.last.saved, 1)
	assert.False(t, fx.last.saved[0].Notified)
	assert.NotEmpty(t, fx.last.saved[0].NotifyError)

	// The next cycle starts from idle again.
	fx.clock.advance(24 * time.Hour)
	fx.notifier.err = nil
	fx.source.EXPECT().ListActive(gomock.Any(), 1, 10).Return(nil, nil)
	fx.source.EXPECT().ListRetriesForDay(gomock.Any(), model.Tuesday, 1, 10).Return(nil, nil)
	fx.svc.RunCycle(context.Background())
	assert.Equal(t, model.CycleStateNotifySent, fx.svc.State())
}

func TestRunCycle_WithoutNotifierReturnsToIdle(t *testing.T) {
	fx := newTargetFileFixture(t, 10, false)
	fx.source.EXPECT().ListActive(gomock.Any(), 1, 10).Return(nil, nil)
	fx.source.EXPECT().ListRetriesForDay(gomock.Any(), model.Monday, 1, 10).Return(nil, nil)

	fx.svc.RunCycle(context.Background())
	assert.Equal(t, model.CycleStateIdle, fx.svc.State())
}

func TestRunCycle_MirrorFailureStillNotifies(t *testing.T) {
	fx := newTargetFileFixture(t, 10, true)
	mirror := mocks.NewMockArtifactPublisher(gomock.NewController(t))
	fx.svc.mirror = mirror

	fx.source.EXPECT().ListActive(gomock.Any(), 1, 10).Return(nil, nil)
	fx.source.EXPECT().ListRetriesForDay(gomock.Any(), model.Monday, 1, 10).Return(nil, nil)
	mirror.EXPECT().Publish(gomock.Any(), "OBD_20240101120000.csv", gomock.Any(), int64(0)).
		Return("", errors.New("bucket missing"))
	fx.alerter.EXPECT().Raise(gomock.Any(), model.CreateAlertRequest{
		Subject:  "OBD_20240101120000.csv",
		Category: model.AlertCategoryArtifactMirror,
		Message:  "bucket missing",
		Severity: model.AlertSeverityCritical,
	}).Return(nil)

	fx.svc.RunCycle(context.Background())

	assert.Len(t, fx.notifier.sent, 1)
	assert.Equal(t, model.CycleStateNotifySent, fx.svc.State())
}

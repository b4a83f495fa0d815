package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/obd-dialer/internal/domain/model"
	"github.com/target/obd-dialer/internal/mocks"
)

func TestParsePurgeRetriesFlags(t *testing.T) {
	opts, err := parsePurgeRetriesFlags([]string{"-day", "tuesday", "-dry-run"})
	require.NoError(t, err)
	assert.Equal(t, model.Tuesday, opts.Day)
	assert.True(t, opts.DryRun)

	_, err = parsePurgeRetriesFlags(nil)
	require.Error(t, err)
	_, err = parsePurgeRetriesFlags([]string{"-day", "someday"})
	require.Error(t, err)
}

func TestPurgeRetriesReadsAllPagesBeforeDeleting(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockCallRetryRepository(ctrl)

	gomock.InOrder(
		repo.EXPECT().ListForDay(gomock.Any(), model.Monday, 1, 2).
			Return([]model.CallRetry{{ID: "r1"}, {ID: "r2"}}, nil),
		repo.EXPECT().ListForDay(gomock.Any(), model.Monday, 2, 2).
			Return([]model.CallRetry{{ID: "r3"}}, nil),
		repo.EXPECT().ListForDay(gomock.Any(), model.Monday, 3, 2).Return(nil, nil),
		repo.EXPECT().Delete(gomock.Any(), "r1").Return(true, nil),
		repo.EXPECT().Delete(gomock.Any(), "r2").Return(false, nil),
		repo.EXPECT().Delete(gomock.Any(), "r3").Return(true, nil),
	)

	n, err := purgeRetries(context.Background(), repo, purgeRetriesOptions{Day: model.Monday}, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestPurgeRetriesDryRunDeletesNothing(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockCallRetryRepository(ctrl)
	repo.EXPECT().ListForDay(gomock.Any(), model.Sunday, 1, 10).
		Return([]model.CallRetry{{ID: "r1"}}, nil)
	repo.EXPECT().ListForDay(gomock.Any(), model.Sunday, 2, 10).Return(nil, nil)

	n, err := purgeRetries(context.Background(), repo, purgeRetriesOptions{Day: model.Sunday, DryRun: true}, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPurgeRetriesStopsOnDeleteError(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockCallRetryRepository(ctrl)
	repo.EXPECT().ListForDay(gomock.Any(), model.Friday, 1, 10).
		Return([]model.CallRetry{{ID: "r1"}, {ID: "r2"}}, nil)
	repo.EXPECT().ListForDay(gomock.Any(), model.Friday, 2, 10).Return(nil, nil)
	repo.EXPECT().Delete(gomock.Any(), "r1").Return(false, errors.New("db down"))

	n, err := purgeRetries(context.Background(), repo, purgeRetriesOptions{Day: model.Friday}, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "r1")
	assert.Zero(t, n)
}

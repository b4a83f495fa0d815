package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/obd-dialer/internal/data"
	"github.com/target/obd-dialer/internal/domain"
	"github.com/target/obd-dialer/internal/mocks"
	"go.uber.org/mock/gomock"
)

type countingRunner struct {
	calls atomic.Int32
	block chan struct{}
}

func (r *countingRunner) RunCycle(context.Context) {
	r.calls.Add(1)
	if r.block != nil {
		<-r.block
	}
}

type skipLog struct {
	mu      sync.Mutex
	reasons []string
}

func (s *skipLog) CycleSkipped(reason string) {
	s.mu.Lock()
	s.reasons = append(s.reasons, reason)
	s.mu.Unlock()
}

func (s *skipLog) all() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.reasons...)
}

func TestDailySchedule_Next(t *testing.T) {
	loc := time.UTC
	now := time.Date(2024, 3, 10, 1, 30, 0, 0, loc)
	day := 24 * time.Hour

	s, err := NewDailySchedule(2, 15, day, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 10, 2, 15, 0, 0, loc), s.Anchor())

	tests := []struct {
		name string
		at   time.Time
		want time.Time
	}{
		{"before anchor fires at anchor", now, time.Date(2024, 3, 10, 2, 15, 0, 0, loc)},
		{"exactly at anchor moves to next", time.Date(2024, 3, 10, 2, 15, 0, 0, loc), time.Date(2024, 3, 11, 2, 15, 0, 0, loc)},
		{"missed fires are not replayed", time.Date(2024, 3, 14, 9, 0, 0, 0, loc), time.Date(2024, 3, 15, 2, 15, 0, 0, loc)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Next(tt.at))
		})
	}

	hourly, err := NewDailySchedule(0, 0, time.Hour, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 10, 2, 0, 0, 0, loc), hourly.Next(now))
}

func TestNewDailySchedule_Validation(t *testing.T) {
	now := time.Now()
	_, err := NewDailySchedule(24, 0, time.Hour, now)
	require.Error(t, err)
	_, err = NewDailySchedule(0, 60, time.Hour, now)
	require.Error(t, err)
	_, err = NewDailySchedule(0, 0, 0, now)
	require.Error(t, err)
}

func TestNewCycleScheduler_Validation(t *testing.T) {
	_, err := NewCycleScheduler(Options{Interval: time.Hour})
	require.Error(t, err)

	_, err = NewCycleScheduler(Options{Runner: &countingRunner{}, Interval: time.Hour, Policy: "reschedule"})
	require.Error(t, err)

	s, err := NewCycleScheduler(Options{Runner: &countingRunner{}, Interval: time.Hour})
	require.NoError(t, err)
	assert.Equal(t, domain.OverrunPolicySkip, s.policy)
}

func TestCycleScheduler_NextRunUsesClock(t *testing.T) {
	clock := data.NewFixedTimeProvider(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s, err := NewCycleScheduler(Options{
		Runner: &countingRunner{}, Hour: 18, Minute: 30, Interval: 24 * time.Hour, Clock: clock,
	})
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 1, 1, 18, 30, 0, 0, time.UTC), s.NextRun())
	clock.AddTime(7 * time.Hour)
	assert.Equal(t, time.Date(2024, 1, 2, 18, 30, 0, 0, time.UTC), s.NextRun())
}

func TestCycleScheduler_RunNowGuardsOverlap(t *testing.T) {
	runner := &countingRunner{block: make(chan struct{})}
	skips := &skipLog{}
	s, err := NewCycleScheduler(Options{Runner: runner, Interval: time.Hour, Skips: skips})
	require.NoError(t, err)

	first := make(chan error, 1)
	go func() { first <- s.RunNow(context.Background()) }()
	require.Eventually(t, s.CycleInFlight, time.Second, 5*time.Millisecond)

	require.ErrorIs(t, s.RunNow(context.Background()), ErrCycleInProgress)

	close(runner.block)
	require.NoError(t, <-first)
	assert.Equal(t, int32(1), runner.calls.Load())
	assert.Equal(t, []string{"in_progress"}, skips.all())
	assert.False(t, s.CycleInFlight())
}

func TestCycleScheduler_DistributedLock(t *testing.T) {
	ctrl := gomock.NewController(t)
	lock := mocks.NewMockCycleLock(ctrl)
	runner := &countingRunner{}
	skips := &skipLog{}

	s, err := NewCycleScheduler(Options{Runner: runner, Interval: time.Hour, Lock: lock, Skips: skips})
	require.NoError(t, err)
	ctx := context.Background()

	released := false
	lock.EXPECT().TryAcquire(gomock.Any()).Return(func(context.Context) error {
		released = true
		return nil
	}, true, nil)
	require.NoError(t, s.RunNow(ctx))
	assert.True(t, released)
	assert.Equal(t, int32(1), runner.calls.Load())

	lock.EXPECT().TryAcquire(gomock.Any()).Return(nil, false, nil)
	require.ErrorIs(t, s.RunNow(ctx), ErrCycleLockHeld)

	lock.EXPECT().TryAcquire(gomock.Any()).Return(nil, false, errors.New("redis down"))
	require.Error(t, s.RunNow(ctx))

	assert.Equal(t, int32(1), runner.calls.Load())
	assert.Equal(t, []string{"lock_held", "lock_error"}, skips.all())
}

func TestCycleScheduler_StartFiresAndStops(t *testing.T) {
	runner := &countingRunner{}
	s, err := NewCycleScheduler(Options{
		Runner:   runner,
		Hour:     0,
		Minute:   0,
		Interval: 50 * time.Millisecond,
		Policy:   domain.OverrunPolicyQueue,
	})
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	require.Error(t, s.Start(context.Background()))

	require.Eventually(t, func() bool { return runner.calls.Load() >= 2 }, 3*time.Second, 10*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(stopCtx))
	assert.False(t, s.IsRunning())
	require.NoError(t, s.Stop(stopCtx))
}

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/target/obd-dialer/internal/core"
	"github.com/target/obd-dialer/internal/data"
	"github.com/target/obd-dialer/internal/domain"
)

var (
	// ErrCycleInProgress is returned by RunNow when a cycle is already running in this process.
	ErrCycleInProgress = errors.New("export cycle already in progress")
	// ErrCycleLockHeld is returned when another replica holds the distributed cycle lock.
	ErrCycleLockHeld = errors.New("export cycle lock held by another replica")
)

// CycleRunner runs one export cycle. Implementations handle their own errors.
type CycleRunner interface {
	RunCycle(ctx context.Context)
}

// SkipRecorder is notified when a fire is dropped.
type SkipRecorder interface {
	CycleSkipped(reason string)
}

// Options configures a CycleScheduler.
type Options struct {
	Runner   CycleRunner
	Hour     int
	Minute   int
	Interval time.Duration
	Policy   domain.OverrunPolicy
	Lock     core.CycleLock // optional
	Clock    data.TimeProvider
	Logger   *slog.Logger
	Skips    SkipRecorder // optional
}

// CycleScheduler owns the cron instance that drives export cycles.
type CycleScheduler struct {
	runner   CycleRunner
	schedule *DailySchedule
	policy   domain.OverrunPolicy
	lock     core.CycleLock
	clock    data.TimeProvider
	logger   *slog.Logger
	skips    SkipRecorder

	inFlight atomic.Bool

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// NewCycleScheduler validates options and builds the schedule from the injected clock.
func NewCycleScheduler(opts Options) (*CycleScheduler, error) {
	if opts.Runner == nil {
		return nil, errors.New("cycle runner is required")
	}
	if opts.Clock == nil {
		opts.Clock = data.RealTimeProvider{}
	}
	if opts.Policy == "" {
		opts.Policy = domain.OverrunPolicySkip
	}
	if !opts.Policy.Valid() {
		return nil, fmt.Errorf("invalid overrun policy %q", opts.Policy)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sched, err := NewDailySchedule(opts.Hour, opts.Minute, opts.Interval, opts.Clock.Now())
	if err != nil {
		return nil, err
	}

	return &CycleScheduler{
		runner:   opts.Runner,
		schedule: sched,
		policy:   opts.Policy,
		lock:     opts.Lock,
		clock:    opts.Clock,
		logger:   logger.With("component", "cycle_scheduler"),
		skips:    opts.Skips,
	}, nil
}

// Start registers the export job and starts cron. The cycle context derives from ctx.
func (s *CycleScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("cycle scheduler already running")
	}

	cronLogger := slogCronLogger{logger: s.logger, skips: s.skips}
	wrapper := cron.SkipIfStillRunning(cronLogger)
	if s.policy == domain.OverrunPolicyQueue {
		wrapper = cron.DelayIfStillRunning(cronLogger)
	}

	c := cron.New(
		cron.WithLocation(s.schedule.Anchor().Location()),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), wrapper),
	)
	c.Schedule(s.schedule, cron.FuncJob(func() {
		if err := s.runGuarded(ctx); err != nil {
			s.logger.WarnContext(ctx, "export cycle not started", "reason", err)
		}
	}))
	c.Start()

	s.cron = c
	s.running = true
	s.logger.InfoContext(ctx, "cycle scheduler started",
		"anchor", s.schedule.Anchor(),
		"interval", s.schedule.Interval(),
		"overrun_policy", s.policy,
		"next_run", s.NextRun(),
	)
	return nil
}

// Stop stops cron and waits for an in-flight cycle to finish or ctx to expire.
func (s *CycleScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	done := s.cron.Stop()
	s.running = false
	s.mu.Unlock()

	select {
	case <-done.Done():
		s.logger.InfoContext(ctx, "cycle scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for export cycle: %w", ctx.Err())
	}
}

// IsRunning reports whether the scheduler is started.
func (s *CycleScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next fire time after the current clock reading.
func (s *CycleScheduler) NextRun() time.Time {
	return s.schedule.Next(s.clock.Now())
}

// RunNow runs one cycle synchronously, honoring the same guards as scheduled fires.
func (s *CycleScheduler) RunNow(ctx context.Context) error {
	return s.runGuarded(ctx)
}

// CycleInFlight reports whether a cycle is currently running in this process.
func (s *CycleScheduler) CycleInFlight() bool {
	return s.inFlight.Load()
}

func (s *CycleScheduler) runGuarded(ctx context.Context) error {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.recordSkip("in_progress")
		return ErrCycleInProgress
	}
	defer s.inFlight.Store(false)

	if s.lock != nil {
		release, acquired, err := s.lock.TryAcquire(ctx)
		if err != nil {
			s.recordSkip("lock_error")
			return err
		}
		if !acquired {
			s.recordSkip("lock_held")
			return ErrCycleLockHeld
		}
		defer func() {
			if relErr := release(context.WithoutCancel(ctx)); relErr != nil {
				s.logger.WarnContext(ctx, "release cycle lock", "error", relErr)
			}
		}()
	}

	s.runner.RunCycle(ctx)
	return nil
}

func (s *CycleScheduler) recordSkip(reason string) {
	if s.skips != nil {
		s.skips.CycleSkipped(reason)
	}
}

// slogCronLogger routes cron's internal logging through slog.
// cron.SkipIfStillRunning reports dropped fires as Info("skip").
type slogCronLogger struct {
	logger *slog.Logger
	skips  SkipRecorder
}

func (l slogCronLogger) Info(msg string, keysAndValues ...any) {
	if msg == "skip" {
		l.logger.Warn("export cycle still running; skipping scheduled fire")
		if l.skips != nil {
			l.skips.CycleSkipped("overrun")
		}
		return
	}
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l slogCronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}

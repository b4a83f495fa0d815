package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/target/obd-dialer/config"
	"github.com/target/obd-dialer/internal/adapters/catalog"
	"github.com/target/obd-dialer/internal/adapters/objectstore"
	redisadapter "github.com/target/obd-dialer/internal/adapters/redis"
	"github.com/target/obd-dialer/internal/adapters/scheduler"
	"github.com/target/obd-dialer/internal/core"
	"github.com/target/obd-dialer/internal/data"
	"github.com/target/obd-dialer/internal/service"
)

// BuildCycleLock returns the distributed cycle lock, or nil when locking is off
// or Redis is unavailable.
//
//nolint:ireturn // nil interface keeps the scheduler's optional-lock check simple.
func BuildCycleLock(client redis.UniversalClient, cfg config.RedisConfig, logger *slog.Logger) (core.CycleLock, error) {
	if !cfg.LockEnabled || client == nil {
		return nil, nil
	}
	lock, err := redisadapter.NewCycleLock(redisadapter.CycleLockOptions{
		Client: client,
		Key:    cfg.LockKey,
		Expiry: cfg.LockExpiry,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create cycle lock: %w", err)
	}
	return lock, nil
}

// BuildArtifactMirror returns the S3 mirror, or nil when it is not configured.
//
//nolint:ireturn // nil interface marks the mirror as disabled.
func BuildArtifactMirror(cfg config.ArtifactStoreConfig) (core.ArtifactPublisher, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	pub, err := objectstore.NewPublisher(objectstore.Config{
		Endpoint:  cfg.Endpoint,
		Bucket:    cfg.Bucket,
		Prefix:    cfg.Prefix,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		Region:    cfg.Region,
		UseSSL:    cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create artifact mirror: %w", err)
	}
	return pub, nil
}

// NotificationDeps contains configuration for the outbound notification dispatcher.
type NotificationDeps struct {
	TargetFile config.TargetFileConfig
	Auth       config.NotificationAuthConfig
	Alerter    core.Alerter
	Logger     *slog.Logger
}

// BuildNotificationDispatcher returns the dispatcher, or nil when no notification URL
// is configured. Without a dispatcher, finalized files are left for provider pickup.
//
//nolint:ireturn // nil interface lets the export service skip notification.
func BuildNotificationDispatcher(deps NotificationDeps) (service.Notifier, error) {
	opts := service.NotificationDispatcherOptions{
		URL:      deps.TargetFile.NotificationURL,
		Timeout:  deps.TargetFile.NotificationTimeout,
		BodyExpr: deps.TargetFile.NotifyBodyExpr,
		Alerter:  deps.Alerter,
		Logger:   deps.Logger,
	}
	if deps.Auth.Enabled {
		opts.Credentials = &clientcredentials.Config{
			ClientID:     deps.Auth.ClientID,
			ClientSecret: deps.Auth.ClientSecret,
			TokenURL:     deps.Auth.TokenURL,
			Scopes:       deps.Auth.Scopes,
		}
	}

	d, err := service.NewNotificationDispatcher(opts)
	if service.IsNotificationNotConfigured(err) {
		if deps.Logger != nil {
			deps.Logger.Warn("target file notification URL not set; files are left for provider pickup")
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create notification dispatcher: %w", err)
	}
	return d, nil
}

// CycleSchedulerConfig contains configuration for the export scheduler.
type CycleSchedulerConfig struct {
	Runner     scheduler.CycleRunner
	TargetFile config.TargetFileConfig
	Lock       core.CycleLock
	Skips      scheduler.SkipRecorder
	Clock      data.TimeProvider // defaults to local wall-clock time
	Logger     *slog.Logger
}

// BuildCycleScheduler builds the cron-driven scheduler from the target file settings.
func BuildCycleScheduler(cfg CycleSchedulerConfig) (*scheduler.CycleScheduler, error) {
	hour, minute, err := cfg.TargetFile.ParseTime()
	if err != nil {
		return nil, err
	}
	clock := cfg.Clock
	if clock == nil {
		clock = data.LocalTimeProvider{}
	}
	sched, err := scheduler.NewCycleScheduler(scheduler.Options{
		Runner:   cfg.Runner,
		Hour:     hour,
		Minute:   minute,
		Interval: cfg.TargetFile.Interval(),
		Policy:   cfg.TargetFile.OverrunPolicy,
		Lock:     cfg.Lock,
		Skips:    cfg.Skips,
		Clock:    clock,
		Logger:   cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create cycle scheduler: %w", err)
	}
	return sched, nil
}

// RunCycleScheduler starts the scheduler and blocks until ctx is cancelled, then waits
// up to shutdownWaitTimeout for an in-flight cycle.
func RunCycleScheduler(ctx context.Context, sched *scheduler.CycleScheduler) error {
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start cycle scheduler: %w", err)
	}
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownWaitTimeout)
	defer cancel()
	return sched.Stop(stopCtx)
}

// RunCatalogWatcher hot-reloads the content catalog until ctx is cancelled.
func RunCatalogWatcher(ctx context.Context, cat *catalog.Catalog, debounce time.Duration) error {
	if err := cat.Watch(ctx, debounce); err != nil && ctx.Err() == nil {
		return fmt.Errorf("watch content catalog: %w", err)
	}
	return nil
}

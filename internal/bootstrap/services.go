package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/target/obd-dialer/config"
	"github.com/target/obd-dialer/internal/adapters/catalog"
	"github.com/target/obd-dialer/internal/adapters/scheduler"
	"github.com/target/obd-dialer/internal/core"
	"github.com/target/obd-dialer/internal/data"
	"github.com/target/obd-dialer/internal/observability/metrics"
	"github.com/target/obd-dialer/internal/observability/notify/pagerduty"
	"github.com/target/obd-dialer/internal/observability/notify/slack"
	"github.com/target/obd-dialer/internal/service"
	"github.com/target/obd-dialer/internal/service/failurenotifier"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	TargetFile    *service.TargetFileService
	FileAudit     *service.FileAuditService
	Alerts        *service.AlertService
	LastExport    *core.LastExportService // nil without Redis
	Catalog       *catalog.Catalog
	Scheduler     *scheduler.CycleScheduler
	Audits        core.AuditRepository
	Observability ObservabilityContainer
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	Registry        *prometheus.Registry
	Metrics         *metrics.TargetFileMetrics // nil when metrics are disabled
	MetricsConfig   config.ObservabilityMetricsConfig
	FailureNotifier *failurenotifier.Service
	NotifierConfig  config.ObservabilityNotificationsConfig
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient // Optional
	// Clock is shared by the scheduler and the export. Defaults to local wall-clock time,
	// so the fire time, the retry day and the file name agree.
	Clock  data.TimeProvider
	Logger *slog.Logger
}

// serviceRepositories groups data adapters backing service ports.
type serviceRepositories struct {
	Source *data.RecordSource
	Audits *data.FileAuditRepo
	Alerts *data.AlertRepo
	Cache  *data.RedisCacheRepo // nil without Redis
}

// buildObservability configures metrics and notification adapters.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	obsLogger := logger
	if obsLogger == nil {
		obsLogger = slog.Default()
	}

	registry := prometheus.NewRegistry()
	var m *metrics.TargetFileMetrics
	if cfg.Metrics.Enabled {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m = metrics.NewTargetFileMetrics(registry, cfg.Metrics.Namespace)
	}

	return ObservabilityContainer{
		Registry:        registry,
		Metrics:         m,
		MetricsConfig:   cfg.Metrics,
		FailureNotifier: buildFailureNotifier(obsLogger, cfg.Notifications, m),
		NotifierConfig:  cfg.Notifications,
	}
}

func buildFailureNotifier(
	logger *slog.Logger,
	cfg config.ObservabilityNotificationsConfig,
	recorder *metrics.TargetFileMetrics,
) *failurenotifier.Service {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = slog.Default()
	}

	var rec failurenotifier.DeliveryRecorder
	if recorder != nil {
		rec = recorder
	}

	if !cfg.Enabled {
		return failurenotifier.NewService(failurenotifier.Options{Logger: baseLogger})
	}

	sinks := make([]failurenotifier.SinkRegistration, 0, 2)

	if cfg.Slack.Enabled {
		client, err := slack.NewClient(slack.Config{
			WebhookURL: cfg.Slack.WebhookURL,
			Channel:    cfg.Slack.Channel,
			Username:   cfg.Slack.Username,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			baseLogger.Error("failed to initialise slack notifier", "error", err)
		} else {
			sinks = append(sinks, failurenotifier.SinkRegistration{Name: "slack", Sink: client})
		}
	}

	if cfg.PagerDuty.Enabled {
		client, err := pagerduty.NewClient(pagerduty.Config{
			RoutingKey: cfg.PagerDuty.RoutingKey,
			Source:     cfg.PagerDuty.Source,
			Component:  cfg.PagerDuty.Component,
			Endpoint:   cfg.PagerDuty.Endpoint,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			baseLogger.Error("failed to initialise pagerduty notifier", "error", err)
		} else {
			sinks = append(sinks, failurenotifier.SinkRegistration{Name: "pagerduty", Sink: client})
		}
	}

	return failurenotifier.NewService(failurenotifier.Options{
		Logger:   baseLogger,
		Sinks:    sinks,
		Recorder: rec,
	})
}

// buildRepositories builds repositories backing service ports; no business rules here.
func buildRepositories(db *sql.DB, redisClient redis.UniversalClient) (*serviceRepositories, error) {
	source, err := data.NewRecordSource(data.NewSubscriptionRepo(db), data.NewCallRetryRepo(db))
	if err != nil {
		return nil, err
	}
	repos := &serviceRepositories{
		Source: source,
		Audits: data.NewFileAuditRepo(db),
		Alerts: data.NewAlertRepo(db),
	}
	if redisClient != nil {
		repos.Cache = data.NewRedisCacheRepo(redisClient)
	}
	return repos, nil
}

func newAlertService(repo core.AlertRepository, obs ObservabilityContainer, logger *slog.Logger) (*service.AlertService, error) {
	alerts, err := service.NewAlertService(service.AlertServiceOptions{
		Repo:     repo,
		Notifier: obs.FailureNotifier,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create alert service: %w", err)
	}
	return alerts, nil
}

// BuildAlertService wires the alert service and its configured sinks without the rest
// of the runtime. Admin tooling uses it to exercise the alert path.
func BuildAlertService(cfg *config.AppConfig, db *sql.DB, logger *slog.Logger) (*service.AlertService, error) {
	if cfg == nil || db == nil {
		return nil, errors.New("config and database are required")
	}
	obs := buildObservability(logger, cfg.Observability)
	return newAlertService(data.NewAlertRepo(db), obs, logger)
}

// NewServices wires repositories, adapters and services. Nothing is started here.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps with config are required")
	}
	if deps.DB == nil {
		return ServiceContainer{}, errors.New("database is required")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := deps.Clock
	if clock == nil {
		clock = data.LocalTimeProvider{}
	}

	observability := buildObservability(logger, cfg.Observability)

	repos, err := buildRepositories(deps.DB, deps.RedisClient)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build repositories: %w", err)
	}

	alerts, err := newAlertService(repos.Alerts, observability, logger)
	if err != nil {
		return ServiceContainer{}, err
	}

	auditOpts := service.FileAuditServiceOptions{
		Repo:    repos.Audits,
		Alerter: alerts,
		Logger:  logger,
	}
	if observability.Metrics != nil {
		auditOpts.Metrics = observability.Metrics
	}
	audits, err := service.NewFileAuditService(auditOpts)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create file audit service: %w", err)
	}

	cat, err := catalog.Load(cfg.Catalog.Path, logger)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("load content catalog: %w", err)
	}

	dir, err := cfg.TargetFile.ResolveDirectory()
	if err != nil {
		return ServiceContainer{}, err
	}

	notifier, err := BuildNotificationDispatcher(NotificationDeps{
		TargetFile: cfg.TargetFile,
		Auth:       cfg.NotificationAuth,
		Alerter:    alerts,
		Logger:     logger,
	})
	if err != nil {
		return ServiceContainer{}, err
	}

	mirror, err := BuildArtifactMirror(cfg.ArtifactStore)
	if err != nil {
		return ServiceContainer{}, err
	}

	var lastExport *core.LastExportService
	if repos.Cache != nil {
		lastExport, err = core.NewLastExportService(core.LastExportServiceOptions{
			Cache: repos.Cache,
			TTL:   cfg.Redis.LastExportTTL,
		})
		if err != nil {
			return ServiceContainer{}, fmt.Errorf("create last export service: %w", err)
		}
	}

	tfOpts := service.TargetFileServiceOptions{
		Source:   repos.Source,
		Catalog:  cat,
		Auditor:  audits,
		Alerter:  alerts,
		Notifier: notifier,
		Mirror:   mirror,
		Clock:    clock,
		Settings: service.TargetFileSettings{
			Directory:   dir,
			PageSize:    cfg.TargetFile.MaxQueryBlock,
			ServiceID:   cfg.TargetFile.IMIServiceID,
			CallFlowURL: cfg.TargetFile.CallFlowURL,
			Digest:      cfg.TargetFile.DigestAlgorithm,
		},
		Logger: logger,
	}
	// Optional collaborators stay nil interfaces when absent.
	if lastExport != nil {
		tfOpts.Last = lastExport
	}
	if observability.Metrics != nil {
		tfOpts.Metrics = observability.Metrics
	}
	targetFile, err := service.NewTargetFileService(tfOpts)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create target file service: %w", err)
	}

	lock, err := BuildCycleLock(deps.RedisClient, cfg.Redis, logger)
	if err != nil {
		return ServiceContainer{}, err
	}
	schedCfg := CycleSchedulerConfig{
		Runner:     targetFile,
		TargetFile: cfg.TargetFile,
		Lock:       lock,
		Clock:      clock,
		Logger:     logger,
	}
	if observability.Metrics != nil {
		schedCfg.Skips = observability.Metrics
	}
	sched, err := BuildCycleScheduler(schedCfg)
	if err != nil {
		return ServiceContainer{}, err
	}

	logger.Info("services wired",
		"directory", dir,
		"notification", notifier != nil,
		"mirror", mirror != nil,
		"cycle_lock", lock != nil,
		"last_export_cache", lastExport != nil,
		"alert_sinks", observability.FailureNotifier.Enabled(),
	)

	return ServiceContainer{
		TargetFile:    targetFile,
		FileAudit:     audits,
		Alerts:        alerts,
		LastExport:    lastExport,
		Catalog:       cat,
		Scheduler:     sched,
		Audits:        repos.Audits,
		Observability: observability,
	}, nil
}

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config      *config.AppConfig
	Services    ServiceContainer
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

const (
	// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
	shutdownWaitTimeout = 15 * time.Second
)

// serviceStartupDeps groups dependencies for service startup.
type serviceStartupDeps struct {
	ctx             context.Context
	cfg             *ServiceOrchestrationConfig
	logger          *slog.Logger
	enabledServices map[config.ServiceMode]bool
	errCh           chan error
}

// backgroundService describes a startable background component.
type backgroundService struct {
	mode  config.ServiceMode
	name  string
	start func(context.Context) error
}

// backgroundServiceHandle tracks a running background service.
type backgroundServiceHandle struct {
	mode config.ServiceMode
	name string
	done <-chan struct{}
}

// startHTTPServerIfEnabled starts the HTTP server if enabled.
func startHTTPServerIfEnabled(deps *serviceStartupDeps) (*http.Server, error) {
	if deps == nil || deps.cfg == nil || !deps.enabledServices[config.ServiceModeHTTP] {
		return nil, nil
	}
	appCfg := deps.cfg.Config
	auth, err := BuildCallbackAuth(deps.ctx, CallbackAuthDeps{
		Auth:   appCfg.CallbackAuth,
		Logger: deps.logger,
	})
	if err != nil {
		return nil, err
	}
	return StartHTTPServer(&HTTPServerConfig{
		Config:       appCfg,
		Services:     deps.cfg.Services,
		DB:           deps.cfg.DB,
		RedisClient:  deps.cfg.RedisClient,
		CallbackAuth: auth,
		Logger:       deps.logger,
		ErrCh:        deps.errCh,
	})
}

func launchBackground(ctx context.Context, deps *serviceStartupDeps, descriptor backgroundService) <-chan struct{} {
	if deps == nil || !deps.enabledServices[descriptor.mode] {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := descriptor.start(ctx); err != nil {
			errMsg := fmt.Errorf("%s failed: %w", descriptor.name, err)
			select {
			case deps.errCh <- errMsg:
			case <-ctx.Done():
			default:
				deps.logger.WarnContext(ctx, "dropping background service error", "service", descriptor.name, "error", errMsg)
			}
		}
	}()

	deps.logger.InfoContext(ctx, "background service started", "service", descriptor.name, "mode", descriptor.mode)
	return done
}

func startBackgroundServices(deps *serviceStartupDeps, services []backgroundService) []backgroundServiceHandle {
	if deps == nil {
		return nil
	}
	handles := make([]backgroundServiceHandle, 0, len(services))

	for _, svc := range services {
		done := launchBackground(deps.ctx, deps, svc)
		if done == nil {
			continue
		}
		handles = append(handles, backgroundServiceHandle{mode: svc.mode, name: svc.name, done: done})
	}

	return handles
}

func newSchedulerBackgroundService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeScheduler,
		name: "target file scheduler",
		start: func(ctx context.Context) error {
			sched := deps.cfg.Services.Scheduler
			if sched == nil {
				return errors.New("cycle scheduler not configured")
			}
			return RunCycleScheduler(ctx, sched)
		},
	}
}

// newCatalogWatcherBackgroundService reloads the catalog alongside the scheduler, the
// only consumer of catalog lookups.
func newCatalogWatcherBackgroundService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeScheduler,
		name: "content catalog watcher",
		start: func(ctx context.Context) error {
			cat := deps.cfg.Services.Catalog
			if cat == nil {
				return nil
			}
			return RunCatalogWatcher(ctx, cat, deps.cfg.Config.Catalog.Debounce)
		},
	}
}

func buildBackgroundServices(deps *serviceStartupDeps) []backgroundService {
	if deps == nil || deps.cfg == nil {
		return nil
	}
	services := []backgroundService{newSchedulerBackgroundService(deps)}
	if deps.cfg.Config.Catalog.Watch {
		services = append(services, newCatalogWatcherBackgroundService(deps))
	}
	return services
}

// ServiceStartupResult holds the results of starting all services.
type ServiceStartupResult struct {
	HTTPServer *http.Server
	Background []backgroundServiceHandle
}

// startServices starts all enabled services and returns their completion channels.
func startServices(deps *serviceStartupDeps) (ServiceStartupResult, error) {
	server, err := startHTTPServerIfEnabled(deps)
	if err != nil {
		return ServiceStartupResult{}, fmt.Errorf("start http server: %w", err)
	}
	return ServiceStartupResult{
		HTTPServer: server,
		Background: startBackgroundServices(deps, buildBackgroundServices(deps)),
	}, nil
}

// RunServicesWithShutdown starts all enabled services and manages their lifecycle.
// This function blocks until a shutdown signal is received or a service fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}
	serviceCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	enabledServices, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}
	errCh := make(chan error, errorChannelBufferSize(enabledServices))

	result, err := startServices(&serviceStartupDeps{
		ctx:             serviceCtx,
		cfg:             cfg,
		logger:          logger,
		enabledServices: enabledServices,
		errCh:           errCh,
	})
	if err != nil {
		return err
	}

	return waitForShutdown(shutdownConfig{
		ctx:         serviceCtx,
		cancel:      cancel,
		errCh:       errCh,
		httpServer:  result.HTTPServer,
		logger:      logger,
		backgrounds: result.Background,
	})
}

// errorChannelCapacity counts enabled modes; each may report one fatal error.
// The scheduler mode can run two goroutines (scheduler and catalog watcher).
func errorChannelCapacity(enabled map[config.ServiceMode]bool) int {
	count := 0
	for _, mode := range config.ValidServiceModes() {
		if !enabled[mode] {
			continue
		}
		count++
		if mode == config.ServiceModeScheduler {
			count++
		}
	}
	return count
}

func errorChannelBufferSize(enabled map[config.ServiceMode]bool) int {
	return errorChannelCapacity(enabled) + 1
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	ctx         context.Context
	cancel      context.CancelFunc
	errCh       <-chan error
	httpServer  *http.Server
	logger      *slog.Logger
	backgrounds []backgroundServiceHandle
	// signals overrides the OS signal channel in tests.
	signals <-chan os.Signal
}

// waitForShutdown waits for shutdown signal or service error.
func waitForShutdown(cfg shutdownConfig) error {
	quit := cfg.signals
	if quit == nil {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(ch)
		quit = ch
	}

	select {
	case <-quit:
		cfg.logger.Info("shutting down services...")
		cfg.cancel()
		return gracefulStop(cfg)
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		cfg.cancel()
		if stopErr := gracefulStop(cfg); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

// gracefulStop attempts to gracefully stop all services.
func gracefulStop(cfg shutdownConfig) error {
	if cfg.httpServer != nil {
		// The service context is already cancelled; shutdown gets its own budget.
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(cfg.ctx), shutdownWaitTimeout)
		defer cancel()

		if err := ShutdownHTTPServer(ShutdownConfig{
			Context: shutdownCtx,
			Server:  cfg.httpServer,
			Logger:  cfg.logger,
		}); err != nil {
			return err
		}
	}

	for _, svc := range cfg.backgrounds {
		waitForService(svc.done, svc.name, cfg.logger)
	}

	return nil
}

// waitForService waits for a service to finish with timeout.
func waitForService(done <-chan struct{}, name string, logger *slog.Logger) {
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info(name + " stopped")
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for " + name + " to stop")
	}
}

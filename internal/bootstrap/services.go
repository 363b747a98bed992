package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/openpostbud/postbud/config"
	"github.com/openpostbud/postbud/internal/adapters/checkrunner"
	"github.com/openpostbud/postbud/internal/adapters/dispatchrunner"
	"github.com/openpostbud/postbud/internal/adapters/reaper"
	"github.com/openpostbud/postbud/internal/convert"
	"github.com/openpostbud/postbud/internal/core"
	"github.com/openpostbud/postbud/internal/data"
	"github.com/openpostbud/postbud/internal/data/cryptoutil"
	"github.com/openpostbud/postbud/internal/observability/statsd"
	"github.com/openpostbud/postbud/internal/service"
	"github.com/openpostbud/postbud/internal/serviceplatform"
)

// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
const shutdownWaitTimeout = 15 * time.Second

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Registrations *service.RegistrationService
	Shipments     *service.ShipmentService
	Templates     *service.TemplateService
	Observability ObservabilityContainer
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	MetricsSink   *statsd.Client
	MetricsConfig config.ObservabilityMetricsConfig
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// serviceRepositories groups data adapters backing service ports.
type serviceRepositories struct {
	Jobs      *data.RegistrationJobRepo
	Tasks     *data.RegistrationTaskRepo
	Shipments *data.ShipmentRepo
	Letters   *data.LetterRepo
	Templates *data.TemplateRepo
	Cache     core.TemplateCache
}

// buildObservability configures the metrics sink.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	obsLogger := logger
	if obsLogger == nil {
		obsLogger = slog.Default()
	}

	var metricsSink *statsd.Client
	if cfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Enabled: true,
			Address: cfg.Metrics.StatsdAddress,
			Prefix:  "postbud",
			Logger:  obsLogger,
		})
		if err != nil {
			obsLogger.Error("failed to initialise statsd client", "error", err)
		} else {
			metricsSink = client
		}
	}

	return ObservabilityContainer{
		MetricsSink:   metricsSink,
		MetricsConfig: cfg.Metrics,
	}
}

// buildRepositories builds repositories backing service ports; no business rules here.
func buildRepositories(
	deps *ServiceDeps,
	enc cryptoutil.Encryptor,
	logger *slog.Logger,
) *serviceRepositories {
	repoCfg := data.RepoConfig{Logger: logger}

	var cache core.TemplateCache
	if deps.RedisClient != nil {
		ttl := time.Duration(0)
		if deps.Config != nil {
			ttl = deps.Config.Cache.TemplateTTL
		}
		cache = data.NewRedisTemplateCache(deps.RedisClient, ttl)
	}

	return &serviceRepositories{
		Jobs:      data.NewRegistrationJobRepo(deps.DB, repoCfg),
		Tasks:     data.NewRegistrationTaskRepo(deps.DB, enc, repoCfg),
		Shipments: data.NewShipmentRepo(deps.DB, repoCfg),
		Letters:   data.NewLetterRepo(deps.DB, enc, repoCfg),
		Templates: data.NewTemplateRepo(deps.DB),
		Cache:     cache,
	}
}

// NewServices wires business services from shared infrastructure.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service dependencies are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	enc, err := CreateEncryptor(deps.Config.StorageEncryptionKey, deps.Config.IsDev, logger)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create encryptor: %w", err)
	}

	observability := buildObservability(logger, deps.Config.Observability)
	repos := buildRepositories(deps, enc, logger)

	registrations, err := service.NewRegistrationService(service.RegistrationServiceOptions{
		DB:     deps.DB,
		Jobs:   repos.Jobs,
		Tasks:  repos.Tasks,
		Logger: logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build registration service: %w", err)
	}

	shipments, err := service.NewShipmentService(service.ShipmentServiceOptions{
		DB:        deps.DB,
		Shipments: repos.Shipments,
		Letters:   repos.Letters,
		Logger:    logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build shipment service: %w", err)
	}

	templates, err := service.NewTemplateService(service.TemplateServiceOptions{
		Repo:   repos.Templates,
		Cache:  repos.Cache,
		Logger: logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build template service: %w", err)
	}

	return ServiceContainer{
		Registrations: registrations,
		Shipments:     shipments,
		Templates:     templates,
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

// serviceStartupDeps groups dependencies for service startup.
type serviceStartupDeps struct {
	ctx             context.Context
	cfg             *ServiceOrchestrationConfig
	logger          *slog.Logger
	encryptor       cryptoutil.Encryptor
	platform        *serviceplatform.Client
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
	name string
	done <-chan struct{}
}

func launchBackground(deps *serviceStartupDeps, descriptor backgroundService) <-chan struct{} {
	if !deps.enabledServices[descriptor.mode] {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := descriptor.start(deps.ctx); err != nil && !errors.Is(err, context.Canceled) {
			errMsg := fmt.Errorf("%s failed: %w", descriptor.name, err)
			select {
			case deps.errCh <- errMsg:
			case <-deps.ctx.Done():
			default:
				deps.logger.WarnContext(deps.ctx, "dropping background service error",
					"service", descriptor.name, "error", errMsg)
			}
		}
	}()

	deps.logger.InfoContext(deps.ctx, "background service started", "service", descriptor.name)
	return done
}

func newCheckWorkerService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeCheckWorker,
		name: "check worker",
		start: func(ctx context.Context) error {
			runner, err := checkrunner.NewRunner(checkrunner.RunnerOptions{
				DB:           deps.cfg.DB,
				Logger:       deps.logger,
				Lookup:       deps.platform,
				Encryptor:    deps.encryptor,
				Concurrency:  deps.cfg.Config.CheckWorker.Concurrency,
				PollInterval: deps.cfg.Config.CheckWorker.PollInterval,
				Metrics:      deps.cfg.Services.Observability.MetricsSink,
			})
			if err != nil {
				return fmt.Errorf("create check runner: %w", err)
			}
			return runner.Run(ctx)
		},
	}
}

func newDispatchWorkerService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeDispatchWorker,
		name: "dispatch worker",
		start: func(ctx context.Context) error {
			converter, err := convert.NewConverter(convert.Options{
				BinaryPath: deps.cfg.Config.Converter.BinaryPath,
				Timeout:    deps.cfg.Config.Converter.Timeout,
			})
			if err != nil {
				return fmt.Errorf("create converter: %w", err)
			}
			runner, err := dispatchrunner.NewRunner(dispatchrunner.RunnerOptions{
				DB:           deps.cfg.DB,
				RedisClient:  deps.cfg.RedisClient,
				Logger:       deps.logger,
				Sender:       deps.platform,
				Converter:    converter,
				Encryptor:    deps.encryptor,
				TargetFormat: deps.cfg.Config.Converter.TargetFormat,
				TemplateTTL:  deps.cfg.Config.Cache.TemplateTTL,
				Concurrency:  deps.cfg.Config.DispatchWorker.Concurrency,
				PollInterval: deps.cfg.Config.DispatchWorker.PollInterval,
				Metrics:      deps.cfg.Services.Observability.MetricsSink,
			})
			if err != nil {
				return fmt.Errorf("create dispatch runner: %w", err)
			}
			return runner.Run(ctx)
		},
	}
}

func newReaperService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeReaper,
		name: "reaper",
		start: func(ctx context.Context) error {
			runner, err := reaper.NewRunner(reaper.RunnerOptions{
				DB:        deps.cfg.DB,
				Config:    deps.cfg.Config.Reaper,
				Logger:    deps.logger,
				Encryptor: deps.encryptor,
				Metrics:   deps.cfg.Services.Observability.MetricsSink,
			})
			if err != nil {
				return fmt.Errorf("create reaper runner: %w", err)
			}
			return runner.Run(ctx)
		},
	}
}

func startBackgroundServices(deps *serviceStartupDeps) []backgroundServiceHandle {
	services := []backgroundService{
		newCheckWorkerService(deps),
		newDispatchWorkerService(deps),
		newReaperService(deps),
	}

	handles := make([]backgroundServiceHandle, 0, len(services))
	for _, svc := range services {
		done := launchBackground(deps, svc)
		if done == nil {
			continue
		}
		handles = append(handles, backgroundServiceHandle{name: svc.name, done: done})
	}
	return handles
}

// needsPlatformClient reports whether any enabled service talks to the
// external APIs.
func needsPlatformClient(enabled map[config.ServiceMode]bool) bool {
	return enabled[config.ServiceModeCheckWorker] || enabled[config.ServiceModeDispatchWorker]
}

func buildPlatformClient(
	ctx context.Context,
	cfg config.ServicePlatformConfig,
	logger *slog.Logger,
) (*serviceplatform.Client, error) {
	return serviceplatform.NewClient(ctx, serviceplatform.Config{
		BaseURL:      cfg.BaseURL,
		TokenURL:     cfg.TokenURL,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		SenderCVR:    cfg.SenderCVR,
		SenderLabel:  cfg.SenderLabel,
		Timeout:      cfg.Timeout,
	}, logger)
}

// RunServicesWithShutdown starts all enabled services and manages their lifecycle.
// This function blocks until a shutdown signal is received or a service fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil || cfg.Config == nil {
		return errors.New("service orchestration config is required")
	}

	serviceCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	encryptor, err := CreateEncryptor(cfg.Config.StorageEncryptionKey, cfg.Config.IsDev, logger)
	if err != nil {
		return fmt.Errorf("create encryptor: %w", err)
	}

	enabledServices, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}

	var platform *serviceplatform.Client
	if needsPlatformClient(enabledServices) {
		platform, err = buildPlatformClient(serviceCtx, cfg.Config.ServicePlatform, logger)
		if err != nil {
			return fmt.Errorf("build service platform client: %w", err)
		}
	}

	errCh := make(chan error, len(enabledServices)+1)
	handles := startBackgroundServices(&serviceStartupDeps{
		ctx:             serviceCtx,
		cfg:             cfg,
		logger:          logger,
		encryptor:       encryptor,
		platform:        platform,
		enabledServices: enabledServices,
		errCh:           errCh,
	})

	return waitForShutdown(shutdownConfig{
		cancel:      cancel,
		errCh:       errCh,
		logger:      logger,
		backgrounds: handles,
		metricsSink: cfg.Services.Observability.MetricsSink,
	})
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	cancel      context.CancelFunc
	errCh       <-chan error
	logger      *slog.Logger
	backgrounds []backgroundServiceHandle
	metricsSink *statsd.Client
}

// waitForShutdown waits for a shutdown signal or service error.
func waitForShutdown(cfg shutdownConfig) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var runErr error
	select {
	case <-quit:
		cfg.logger.Info("shutting down services...")
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		runErr = err
	}

	cfg.cancel()
	for _, svc := range cfg.backgrounds {
		waitForService(svc.done, svc.name, cfg.logger)
	}

	if cfg.metricsSink != nil {
		if err := cfg.metricsSink.Close(); err != nil {
			cfg.logger.Warn("close metrics sink failed", "error", err)
		}
	}

	return runErr
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

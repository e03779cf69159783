package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/wire"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	// Outbound adapters
	"github.com/promptreel/server/internal/adapter/outbound/localfs"
	redisadapter "github.com/promptreel/server/internal/adapter/outbound/redis"
	s3adapter "github.com/promptreel/server/internal/adapter/outbound/s3"
	"github.com/promptreel/server/internal/port/outbound"

	// Modules
	"github.com/promptreel/server/internal/module/ai/handler"
	"github.com/promptreel/server/internal/module/ai/llm"
	"github.com/promptreel/server/internal/module/ai/provider"
	"github.com/promptreel/server/internal/module/ai/task"
	"github.com/promptreel/server/internal/module/ai/veo"
	"github.com/promptreel/server/internal/module/catalog"

	// Infrastructure
	"github.com/promptreel/server/internal/infra/httpclient"
	"github.com/promptreel/server/internal/shared/cache"
	"github.com/promptreel/server/internal/shared/config"
	"github.com/promptreel/server/internal/shared/database"
	"github.com/promptreel/server/internal/shared/logger"
	"github.com/promptreel/server/internal/utils/metrics"
	"github.com/promptreel/server/pkg/resilient"
)

// ===== Infrastructure Providers =====

// InfraSet provides infrastructure dependencies.
var InfraSet = wire.NewSet(
	ProvideLogger,
	ProvideZapLogger,
	ProvideMetrics,
	ProvideDatabase,
	ProvideRedisClient,
	ProvideHTTPClient,
)

// ProvideLogger creates a logger instance.
func ProvideLogger(cfg *config.Config) *logger.Logger {
	return logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
}

// ProvideZapLogger creates a zap logger instance.
func ProvideZapLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	zapLog, err := logger.NewZapLogger(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return nil, nil, err
	}
	return zapLog, func() { _ = zapLog.Sync() }, nil
}

// ProvideMetrics creates a metrics instance registered with the default registry.
func ProvideMetrics() *metrics.Metrics {
	return metrics.New("promptreel")
}

// ProvideDatabase opens the database and migrates the task and prompt tables.
func ProvideDatabase(ctx context.Context, cfg *config.Config, log *logger.Logger) (*gorm.DB, func(), error) {
	db, err := database.New(ctx, &cfg.Database, log.Named("database").Logger, &task.Task{}, &catalog.Prompt{})
	if err != nil {
		return nil, nil, err
	}
	return db, func() { _ = database.Close(db) }, nil
}

// ProvideRedisClient creates a Redis client. Redis is optional; nil is returned
// when it is not configured or unreachable.
func ProvideRedisClient(ctx context.Context, cfg *config.Config, log *logger.Logger) (goredis.UniversalClient, func()) {
	if cfg.Redis.Address == "" {
		return nil, func() {}
	}
	client, err := cache.NewRedisClient(ctx, &cfg.Redis)
	if err != nil {
		log.Warn("Redis connection failed, continuing without status cache", logger.Err(err))
		return nil, func() {}
	}
	return client, func() { _ = cache.Close(client) }
}

// ProvideHTTPClient creates the pooled HTTP client used for provider calls.
// Redirects to other hosts drop provider credentials.
func ProvideHTTPClient(cfg *config.Config) *http.Client {
	return httpclient.New(cfg.HTTPClient, veo.CheckRedirect)
}

// ===== Video Provider Providers =====

// VeoSet provides the video provider pipeline.
var VeoSet = wire.NewSet(
	ProvideVeoAuthenticator,
	ProvideVeoClients,
	ProvideSubmitter,
	ProvidePoller,
	ProvideFetcher,
	ProvideOrchestrator,
	ProvideHealthMonitor,
)

// VeoClients are the resilient clients for provider calls. Download uses a
// longer per-attempt timeout.
type VeoClients struct {
	API      *resilient.Client
	Download *resilient.Client
}

// ProvideVeoAuthenticator selects API key or application default credentials.
func ProvideVeoAuthenticator(ctx context.Context, cfg *config.Config) (resilient.Authenticator, error) {
	return veo.NewAuthenticator(ctx, cfg.Veo.APIKey, cfg.Veo.UseADC)
}

// ProvideVeoClients creates the provider clients.
func ProvideVeoClients(cfg *config.Config, auth resilient.Authenticator, httpClient *http.Client, log *logger.Logger, m *metrics.Metrics) VeoClients {
	policy := resilient.RetryPolicy{
		MaxAttempts: cfg.Veo.MaxAttempts,
		BaseDelay:   cfg.Veo.BaseDelay,
	}
	clientLog := log.Named("veo-client").Logger

	return VeoClients{
		API: resilient.New(&resilient.Config{
			BaseURL:    cfg.Veo.BaseURL,
			Timeout:    cfg.Veo.Timeout,
			Retry:      policy,
			Auth:       auth,
			HTTPClient: httpClient,
			Logger:     clientLog,
			Observer:   m,
		}),
		Download: resilient.New(&resilient.Config{
			BaseURL:    cfg.Veo.BaseURL,
			Timeout:    cfg.Veo.DownloadTimeout,
			Retry:      policy,
			Auth:       auth,
			HTTPClient: httpClient,
			Logger:     clientLog,
			Observer:   m,
		}),
	}
}

// ProvideSubmitter creates the job submitter.
func ProvideSubmitter(cfg *config.Config, clients VeoClients, log *logger.Logger) *veo.Submitter {
	return veo.NewSubmitter(clients.API, cfg.Veo.Model, log.Named("veo-submitter").Logger)
}

// ProvidePoller creates the status poller.
func ProvidePoller(cfg *config.Config, clients VeoClients, log *logger.Logger, m *metrics.Metrics) *veo.Poller {
	return veo.NewPoller(clients.API, log.Named("veo-poller").Logger,
		veo.WithPollInterval(cfg.Veo.PollInterval),
		veo.WithPollRecorder(m),
	)
}

// ProvideFetcher creates the result fetcher.
func ProvideFetcher(cfg *config.Config, clients VeoClients, log *logger.Logger) *veo.Fetcher {
	return veo.NewFetcher(clients.Download, cfg.Veo.BaseURL, log.Named("veo-fetcher").Logger)
}

// ProvideOrchestrator creates the generation orchestrator.
func ProvideOrchestrator(submitter *veo.Submitter, poller *veo.Poller, fetcher *veo.Fetcher, log *logger.Logger) *veo.Orchestrator {
	return veo.NewOrchestrator(submitter, poller, fetcher, log.Named("veo").Logger)
}

// ProvideHealthMonitor creates the provider health monitor.
func ProvideHealthMonitor(cfg *config.Config, clients VeoClients, log *logger.Logger, m *metrics.Metrics) (*provider.HealthMonitor, func()) {
	checker := provider.NewModelChecker(clients.API, cfg.Veo.Model)
	monitor := provider.NewHealthMonitor("veo", checker, m, log.Named("provider-health").Logger, &provider.HealthMonitorConfig{
		CheckInterval:       cfg.Veo.HealthCheckInterval,
		CheckTimeout:        cfg.Veo.Timeout,
		FailureThreshold:    cfg.Veo.FailureThreshold,
		Timeout:             cfg.Veo.CircuitTimeout,
		MaxHalfOpenRequests: 1,
	})
	return monitor, monitor.Stop
}

// ===== Task Providers =====

// TaskSet provides the video task service.
var TaskSet = wire.NewSet(
	ProvideArtifactStore,
	ProvideStatusCache,
	ProvideTaskRepository,
	ProvideTaskManager,
)

// ProvideArtifactStore selects the storage backend.
func ProvideArtifactStore(ctx context.Context, cfg *config.Config) (outbound.StoragePort, error) {
	switch strings.ToLower(cfg.Storage.Backend) {
	case "s3", "r2":
		client, err := s3adapter.NewClient(ctx, &cfg.Storage)
		if err != nil {
			return nil, err
		}
		return s3adapter.NewArtifactStore(client, cfg.Storage.Bucket, cfg.Storage.Prefix), nil
	case "", "local":
		store, err := localfs.NewArtifactStore(cfg.Storage.LocalDir)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// ProvideStatusCache creates the task status cache, or nil without Redis.
func ProvideStatusCache(cfg *config.Config, redis goredis.UniversalClient, m *metrics.Metrics) task.StatusCache {
	if redis == nil {
		return nil
	}
	return redisadapter.NewTaskStatusCacheAdapter(redis, cfg.Redis.StatusTTL, m)
}

// ProvideTaskRepository creates the task repository.
func ProvideTaskRepository(db *gorm.DB) task.Repository {
	return task.NewRepository(db)
}

// ProvideTaskManager creates the task manager.
func ProvideTaskManager(
	cfg *config.Config,
	repo task.Repository,
	orchestrator *veo.Orchestrator,
	store outbound.StoragePort,
	statusCache task.StatusCache,
	monitor *provider.HealthMonitor,
	m *metrics.Metrics,
	zapLog *zap.Logger,
) (*task.Manager, func()) {
	taskCfg := task.DefaultConfig()
	if cfg.Jobs.MaxConcurrent > 0 {
		taskCfg.MaxConcurrent = cfg.Jobs.MaxConcurrent
	}
	if cfg.Jobs.MaxDeadline > 0 {
		taskCfg.MaxDeadline = cfg.Jobs.MaxDeadline
	}
	if cfg.Veo.Deadline > 0 {
		taskCfg.DefaultDeadline = cfg.Veo.Deadline
	}

	opts := []task.Option{
		task.WithGuard(monitor),
		task.WithRecorder(m),
	}
	if statusCache != nil {
		opts = append(opts, task.WithStatusCache(statusCache))
	}

	manager := task.NewManager(repo, orchestrator, store, zapLog, taskCfg, opts...)
	return manager, manager.Stop
}

// ===== Catalog Providers =====

// CatalogSet provides the prompt catalog.
var CatalogSet = wire.NewSet(
	ProvideLLMInvoker,
	ProvideCatalogRepository,
	ProvideCatalogService,
	catalog.NewHandler,
)

// ProvideLLMInvoker creates the Gemini invoker, or an unconfigured one when no
// API key is set.
func ProvideLLMInvoker(ctx context.Context, cfg *config.Config, log *logger.Logger, m *metrics.Metrics) (llm.Invoker, error) {
	if cfg.LLM.APIKey == "" {
		log.Warn("llm.api_key not set, prompt variations are disabled")
		return llm.Unconfigured{}, nil
	}
	invoker, err := llm.NewGeminiInvoker(ctx, &cfg.LLM, m)
	if err != nil {
		return nil, err
	}
	return invoker, nil
}

// ProvideCatalogRepository creates the prompt repository.
func ProvideCatalogRepository(db *gorm.DB) catalog.Repository {
	return catalog.NewRepository(db)
}

// ProvideCatalogService creates the catalog service.
func ProvideCatalogService(repo catalog.Repository, invoker llm.Invoker, log *logger.Logger) *catalog.Service {
	return catalog.NewService(repo, invoker, log)
}

// ===== HTTP Handler Providers =====

// HandlerSet provides HTTP handlers.
var HandlerSet = wire.NewSet(
	ProvideHandlers,
	CatalogSet,
)

// ProvideHandlers creates the video API handlers.
func ProvideHandlers(
	cfg *config.Config,
	manager *task.Manager,
	catalogService *catalog.Service,
	store outbound.StoragePort,
	monitor *provider.HealthMonitor,
) *handler.Handlers {
	return handler.NewHandlers(manager, catalogService, store, monitor, cfg.Storage.PresignExpiry)
}

// AppSet is the complete provider set.
var AppSet = wire.NewSet(
	InfraSet,
	VeoSet,
	TaskSet,
	HandlerSet,
)

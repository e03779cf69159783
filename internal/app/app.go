package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/promptreel/server/cmd/server/docs" // swagger docs
	"github.com/promptreel/server/internal/module/ai/provider"
	"github.com/promptreel/server/internal/shared/config"
	"github.com/promptreel/server/internal/shared/logger"
	"github.com/promptreel/server/internal/utils/middleware"
)

// App represents the application.
type App struct {
	config  *config.Config
	deps    *Dependencies
	router  *gin.Engine
	logger  *logger.Logger
	cleanup func()
}

// New creates a new application instance.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	deps, cleanup, err := InitializeDependencies(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init dependencies: %w", err)
	}

	app := &App{
		config:  cfg,
		deps:    deps,
		logger:  deps.Logger,
		cleanup: cleanup,
	}
	app.router = app.setupRouter()
	app.registerRoutes()

	return app, nil
}

// Start starts background work: provider health checks and recovery of
// tasks left unfinished by a previous run.
func (a *App) Start(ctx context.Context) error {
	if err := a.deps.Monitor.Start(ctx); err != nil {
		return fmt.Errorf("start health monitor: %w", err)
	}
	if err := a.deps.TaskManager.Start(ctx); err != nil {
		return fmt.Errorf("start task manager: %w", err)
	}
	return nil
}

// setupRouter creates and configures the Gin router.
func (a *App) setupRouter() *gin.Engine {
	// Set Gin mode based on environment
	if a.config.Server.Mode == gin.DebugMode || a.config.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	corsConfig := middleware.DefaultCORSConfig()
	if len(a.config.Server.AllowOrigins) > 0 {
		corsConfig.AllowOrigins = a.config.Server.AllowOrigins
	}

	// Apply global middleware
	r.Use(middleware.Recovery(a.logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(a.logger, "/health", a.config.Metrics.Path))
	r.Use(middleware.Metrics(a.deps.Metrics))
	r.Use(middleware.CORS(corsConfig))

	// Health check endpoint
	r.GET("/health", a.health)

	if a.config.Metrics.Enabled {
		r.GET(a.config.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	// Swagger documentation endpoint
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))

	return r
}

// registerRoutes registers the API routes.
func (a *App) registerRoutes() {
	v1 := a.router.Group("/api/v1")
	a.deps.Handlers.RegisterRoutes(v1, v1.Group("/admin"))

	a.deps.CatalogHandler.RegisterRoutes(a.router.Group("/api/trpc"))
}

// HealthResponse is the body of the health endpoint.
type HealthResponse struct {
	Status   string            `json:"status"`
	Provider provider.Snapshot `json:"provider"`
}

func (a *App) health(c *gin.Context) {
	snapshot := a.deps.Monitor.Snapshot()
	status := "ok"
	if snapshot.Status != provider.HealthStatusHealthy {
		status = string(snapshot.Status)
	}
	c.JSON(http.StatusOK, HealthResponse{Status: status, Provider: snapshot})
}

// Router returns the HTTP handler.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Stop stops the application and releases resources.
func (a *App) Stop() {
	a.logger.Info("stopping application")
	if a.cleanup != nil {
		a.cleanup()
	}
}

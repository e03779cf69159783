package app

import (
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/promptreel/server/internal/module/ai/handler"
	"github.com/promptreel/server/internal/module/ai/provider"
	"github.com/promptreel/server/internal/module/ai/task"
	"github.com/promptreel/server/internal/module/catalog"
	"github.com/promptreel/server/internal/shared/config"
	"github.com/promptreel/server/internal/shared/logger"
	"github.com/promptreel/server/internal/utils/metrics"
)

// Dependencies holds all injected dependencies.
type Dependencies struct {
	Config    *config.Config
	DB        *gorm.DB
	Redis     goredis.UniversalClient
	Logger    *logger.Logger
	ZapLogger *zap.Logger
	Metrics   *metrics.Metrics

	// Services
	Monitor     *provider.HealthMonitor
	TaskManager *task.Manager

	// HTTP Handlers
	Handlers       *handler.Handlers
	CatalogHandler *catalog.Handler
}

package app

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/promptreel/server/internal/module/ai/veo"
	"github.com/promptreel/server/internal/shared/config"
	"github.com/promptreel/server/internal/shared/logger"
	"github.com/promptreel/server/internal/utils/metrics"
)

// NewPipeline builds a standalone generation pipeline with no database, cache
// or task queue. Metrics go to a private registry.
func NewPipeline(ctx context.Context, cfg *config.Config, log *logger.Logger) (*veo.Orchestrator, error) {
	auth, err := ProvideVeoAuthenticator(ctx, cfg)
	if err != nil {
		return nil, err
	}

	m := metrics.NewWithRegistry("promptreel", prometheus.NewRegistry())
	clients := ProvideVeoClients(cfg, auth, ProvideHTTPClient(cfg), log, m)

	return ProvideOrchestrator(
		ProvideSubmitter(cfg, clients, log),
		ProvidePoller(cfg, clients, log, m),
		ProvideFetcher(cfg, clients, log),
		log,
	), nil
}

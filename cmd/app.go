package cmd

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/rider-enricher/internal/cache"
	"github.com/JakeFAU/rider-enricher/internal/config"
	"github.com/JakeFAU/rider-enricher/internal/logging"
	"github.com/JakeFAU/rider-enricher/internal/metrics"
)

type application struct {
	cfg     config.Config
	logger  *zap.Logger
	cache   cache.Store
	metrics *metrics.Recorder
}

// newApp loads config, builds the run-scoped logger and opens the cache.
func newApp(ctx context.Context, configPath string) (App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}
	runID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate run id: %w", err)
	}
	logger = logger.With(zap.String("run_id", runID.String()))

	store, err := cache.Open(ctx, cfg.Cache)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	logger.Debug("cache opened", zap.String("backend", cfg.Cache.Backend))

	return &application{
		cfg:     cfg,
		logger:  logger,
		cache:   store,
		metrics: metrics.New(),
	}, nil
}

func (a *application) Config() config.Config      { return a.cfg }
func (a *application) Logger() *zap.Logger        { return a.logger }
func (a *application) Cache() cache.Store         { return a.cache }
func (a *application) Metrics() *metrics.Recorder { return a.metrics }

// Close releases the cache and flushes the logger.
func (a *application) Close() {
	if err := a.cache.Close(); err != nil {
		a.logger.Warn("failed to close cache", zap.Error(err))
	}
	_ = a.logger.Sync()
}

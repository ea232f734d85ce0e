package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/rider-enricher/internal/config"
	"github.com/JakeFAU/rider-enricher/internal/enricher"
	"github.com/JakeFAU/rider-enricher/internal/extract"
	collyfetcher "github.com/JakeFAU/rider-enricher/internal/fetcher/colly"
	csvout "github.com/JakeFAU/rider-enricher/internal/output/csv"
	"github.com/JakeFAU/rider-enricher/internal/scorito"
	"github.com/JakeFAU/rider-enricher/internal/slug"
)

// competitionFlags are the per-command overrides of a CompetitionConfig.
type competitionFlags struct {
	raceID int
	output string
}

func (f *competitionFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.raceID, "race-id", 0, "game race id (overrides config)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "CSV output path (overrides config)")
}

func (f *competitionFlags) apply(cmd *cobra.Command, cfg config.CompetitionConfig) config.CompetitionConfig {
	if cmd.Flags().Changed("race-id") {
		cfg.RaceID = f.raceID
	}
	if cmd.Flags().Changed("output") {
		cfg.Output = f.output
	}
	return cfg
}

func newScoritoClient(appInstance App) *scorito.Client {
	return scorito.New(appInstance.Config().Scorito, nil, appInstance.Logger().Named("scorito"))
}

// buildEngine wires the pipeline from config.
func buildEngine(appInstance App) (*enricher.Engine, error) {
	cfg := appInstance.Config()
	logger := appInstance.Logger()
	observer := appInstance.Metrics()

	fetcher, err := collyfetcher.New(collyfetcher.Config{
		UserAgent:   cfg.PCS.UserAgent,
		Timeout:     cfg.PCS.RequestTimeout,
		Parallelism: cfg.PCS.WindowSize,
	})
	if err != nil {
		return nil, fmt.Errorf("init fetcher: %w", err)
	}
	extractor := extract.New(extract.Config{
		NotFoundMarker: cfg.PCS.NotFoundMarker,
		ITTMarker:      cfg.PCS.ITTMarker,
	})
	resolver := enricher.NewResolver(
		enricher.ResolverConfig{SearchURL: cfg.PCS.SearchURL, ProfileBaseURL: cfg.PCS.ProfileBaseURL},
		fetcher, extractor, observer, logger.Named("fallback"),
	)
	return enricher.NewEngine(
		enricher.Config{
			ProfileBaseURL: cfg.PCS.ProfileBaseURL,
			WindowSize:     cfg.PCS.WindowSize,
			CoolDown:       cfg.PCS.CoolDown,
			TTL:            cfg.Cache.TTL,
		},
		fetcher,
		extractor,
		appInstance.Cache(),
		slug.New(cfg.PCS.SlugOverrides),
		resolver,
		enricher.NewTimerPauser(),
		observer,
		logger.Named("enricher"),
	), nil
}

// enrichAndWrite runs the pipeline over riders and writes the CSV. The
// metrics endpoint, when configured, is served for the duration of the run.
func enrichAndWrite(ctx context.Context, appInstance App, riders []enricher.Rider, opts enricher.Options, output string) error {
	cfg := appInstance.Config()
	logger := appInstance.Logger()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if cfg.Metrics.Addr != "" {
		go func() {
			if err := appInstance.Metrics().Serve(runCtx, cfg.Metrics.Addr, logger); err != nil {
				logger.Warn("metrics server stopped", zap.Error(err))
			}
		}()
	}

	engine, err := buildEngine(appInstance)
	if err != nil {
		return err
	}
	logger.Info("enrichment started", zap.Int("riders", len(riders)), zap.String("output", output))
	enriched, err := engine.Run(runCtx, riders, opts)
	if err != nil {
		var statusErr *enricher.StatusError
		if errors.As(err, &statusErr) {
			logger.Error("run aborted by upstream status",
				zap.String("url", statusErr.URL), zap.Int("status_code", statusErr.StatusCode))
		}
		return fmt.Errorf("enrich riders: %w", err)
	}
	if err := csvout.WriteFile(output, enriched); err != nil {
		return err
	}
	logger.Info("enrichment finished", zap.Int("riders", len(enriched)), zap.String("output", output))

	if cfg.Metrics.PushURL != "" {
		if err := appInstance.Metrics().Push(ctx, cfg.Metrics.PushURL, cfg.Metrics.Job); err != nil {
			logger.Warn("failed to push metrics", zap.Error(err))
		}
	}
	return nil
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/rider-enricher/internal/cache"
	"github.com/JakeFAU/rider-enricher/internal/config"
	"github.com/JakeFAU/rider-enricher/internal/metrics"
)

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// App defines the services commands use. Tests inject their own.
type App interface {
	Close()
	Config() config.Config
	Logger() *zap.Logger
	Cache() cache.Store
	Metrics() *metrics.Recorder
}

// appFactory builds the App for a config path.
type appFactory func(ctx context.Context, configPath string) (App, error)

// newRootCmd creates and configures the root command.
func newRootCmd(factory appFactory) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "rider-enricher",
		Short: "Enriches fantasy cycling rider lists with ProCyclingStats data.",
		Long: `rider-enricher reads a rider list from the Scorito game API, adds
upcoming participations, specialty scores and result counters scraped from
ProCyclingStats profiles, and writes the enriched list as CSV. Profiles are
cached locally and fetched in paced concurrent windows.`,
		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := factory(cmd.Context(), configPath)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(App); ok && appInstance != nil {
				appInstance.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (YAML); ENRICHER_* env vars override it")

	cmd.AddCommand(newClassicsCmd())
	cmd.AddCommand(newGrandTourCmd())
	cmd.AddCommand(newCacheCmd())

	return cmd
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// Execute is the main entry point.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(newApp).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "rider-enricher: %v\n", err)
		stop()
		os.Exit(1)
	}
}

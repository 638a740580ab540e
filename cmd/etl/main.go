package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/wildfire-hotspot-etl/internal/config"
	"github.com/couchcryptid/wildfire-hotspot-etl/internal/domain"
	"github.com/couchcryptid/wildfire-hotspot-etl/internal/observability"
	"github.com/spf13/cobra"
)

var (
	cfg    *config.Config
	logger *slog.Logger

	flagRegion string
	flagNoWind bool
	flagOutput string
)

var rootCmd = &cobra.Command{
	Use:   "etl",
	Short: "Wildfire hotspot ingestion and spread prediction",
	Long: "Fetches the NASA FIRMS MODIS and VIIRS 24h active-fire feeds, filters them to a region, " +
		"removes cross-sensor duplicates, enriches hotspots with Open-Meteo wind and writes a GeoJSON " +
		"feature collection with a 6-hour spread radius per hotspot.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		applyFlags(cmd, c)
		cfg = c
		logger = observability.NewLogger(cfg)
		return nil
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		done := make(chan struct{})
		defer close(done)
		go enforceShutdownGrace(ctx, done, cfg.ShutdownTimeout)

		return run(ctx, cfg, logger)
	},
}

var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "List known region keys and their bounding boxes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		registry := domain.NewRegistry(nil)
		for _, key := range registry.Keys() {
			b := registry.Lookup(key).Bounds
			fmt.Fprintf(cmd.OutOrStdout(), "%-12s lat %7.2f..%6.2f  lon %8.2f..%7.2f\n",
				key, b.LatMin, b.LatMax, b.LonMin, b.LonMax)
		}
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVar(&flagRegion, "region", "", "region key: california, australia or global (overrides REGION)")
	rootCmd.Flags().BoolVar(&flagNoWind, "no-wind", false, "skip wind enrichment and use the default wind for spread radii")
	rootCmd.Flags().StringVar(&flagOutput, "output", "", "output GeoJSON path (overrides OUTPUT_PATH)")
	rootCmd.AddCommand(regionsCmd)
}

// enforceShutdownGrace exits the process if a signalled run has not
// returned within grace.
func enforceShutdownGrace(ctx context.Context, done <-chan struct{}, grace time.Duration) {
	select {
	case <-done:
		return
	case <-ctx.Done():
	}
	logger.Info("shutting down", "grace", grace)

	select {
	case <-done:
	case <-time.After(grace):
		logger.Error("shutdown grace period exceeded")
		os.Exit(1)
	}
}

// applyFlags lets explicitly set flags win over environment configuration.
func applyFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("region") {
		c.Region = flagRegion
	}
	if flags.Changed("no-wind") && flagNoWind {
		c.IncludeWind = false
	}
	if flags.Changed("output") && flagOutput != "" {
		c.OutputPath = flagOutput
	}
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		slog.Error("etl failed", "error", err)
		os.Exit(1)
	}
}

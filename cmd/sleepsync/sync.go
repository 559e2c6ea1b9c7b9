package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/goodtune/sleepsync/internal/metrics"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	Aliases: []string{"run"},
	Short:   "Run one synchronization",
	Long: `Authenticate with both providers, compute tonight's bedtime and wake time,
replace the mattress bedtime schedule and replace all alarms with a single
wake alarm. Exits non-zero on the first failure.`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	logger.Info().
		Str("version", version).
		Str("recovery_tier", cfg.Sync.RecoveryTier).
		Msg("Starting sleepsync")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, runErr := newSyncer(cfg, logger).Run(ctx)

	if cfg.Metrics.PushgatewayURL != "" {
		if err := metrics.Push(cfg.Metrics.PushgatewayURL, cfg.Metrics.Job); err != nil {
			logger.Warn().Err(err).Str("url", cfg.Metrics.PushgatewayURL).Msg("Failed to push metrics")
		} else {
			logger.Debug().Str("url", cfg.Metrics.PushgatewayURL).Msg("Pushed metrics")
		}
	}

	return runErr
}

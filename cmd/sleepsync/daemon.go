package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goodtune/sleepsync/internal/clock"
	"github.com/goodtune/sleepsync/internal/metrics"
	"github.com/goodtune/sleepsync/internal/scheduler"
	"github.com/goodtune/sleepsync/internal/systemd"
	"github.com/spf13/cobra"
)

var daemonRunNow bool

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Sync every night at the configured time",
	Long: `Run as a long-lived service: sync once a day at daemon.run_time (local time),
serve Prometheus metrics and integrate with systemd notify and socket
activation. Send SIGHUP to trigger an immediate sync.`,
	RunE: runDaemon,
}

func init() {
	daemonCmd.Flags().BoolVar(&daemonRunNow, "run-now", false, "Run one sync immediately on startup")
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	logger.Info().
		Str("version", version).
		Str("run_time", cfg.Daemon.RunTime).
		Msg("Starting sleepsync daemon")

	// Check for systemd socket activation
	sdListeners, err := systemd.GetListeners()
	if err != nil {
		return fmt.Errorf("failed to get systemd listeners: %w", err)
	}
	if sdListeners.Activated {
		logger.Info().Msg("Running with systemd socket activation")
	}

	// Each run builds its own clients so no session outlives a run.
	job := func(ctx context.Context) error {
		_ = systemd.NotifyStatus("syncing")
		result, err := newSyncer(cfg, logger).Run(ctx)
		if err != nil {
			_ = systemd.NotifyStatus(fmt.Sprintf("last sync failed at %s", time.Now().Format(time.RFC3339)))
			return err
		}
		_ = systemd.NotifyStatus(fmt.Sprintf("bedtime %s, wake %s (%s)", result.Bedtime, result.Wake, result.TimeZone))
		return nil
	}

	nightly, err := scheduler.New(job, cfg.Daemon.RunTime, time.Local, clock.RealClock{}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize scheduler: %w", err)
	}

	// Initialize Metrics Server
	metricsAddr := fmt.Sprintf("%s:%d", cfg.Daemon.BindAddress, cfg.Daemon.MetricsPort)
	metricsServer := metrics.NewServer(metricsAddr, logger)

	// Use systemd socket-activated listener if available
	if sdListeners.Activated && sdListeners.Metrics != nil {
		metricsServer.SetListener(sdListeners.Metrics)
	}

	if err := metricsServer.Start(); err != nil {
		return fmt.Errorf("failed to start Metrics Server: %w", err)
	}

	nightly.Start()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// On-demand runs share the scheduler's lock; Stop waits for them.
	onDemand := func(reason string) {
		err := nightly.RunNow(ctx)
		switch {
		case errors.Is(err, scheduler.ErrRunInProgress):
			logger.Warn().Str("reason", reason).Msg("Sync already running, request skipped")
		case errors.Is(err, scheduler.ErrStopped):
		case err != nil:
			logger.Error().Err(err).Str("reason", reason).Msg("On-demand sync failed")
		}
	}

	if daemonRunNow {
		go onDemand("startup")
	}

	logger.Info().Msgf("Metrics: http://%s/metrics", metricsAddr)

	// Notify systemd that we're ready
	if err := systemd.NotifyReady(); err != nil {
		logger.Warn().Err(err).Msg("Failed to send systemd ready notification")
	} else {
		logger.Debug().Msg("Sent systemd ready notification")
	}

	// Wait for signals (shutdown or immediate sync)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	for sig := range sigChan {
		if sig == syscall.SIGHUP {
			logger.Info().Msg("SIGHUP received, running sync now")
			go onDemand("sighup")
			continue
		}

		logger.Info().Msg("Shutdown signal received, gracefully stopping...")
		break
	}

	// Notify systemd that we're stopping
	if err := systemd.NotifyStopping(); err != nil {
		logger.Warn().Err(err).Msg("Failed to send systemd stopping notification")
	}

	cancel()
	nightly.Stop()

	if err := metricsServer.Stop(); err != nil {
		logger.Error().Err(err).Msg("Error stopping Metrics Server")
	}

	logger.Info().Msg("sleepsync daemon stopped")
	return nil
}

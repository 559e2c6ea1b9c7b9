package main

import (
	"fmt"

	"github.com/goodtune/sleepsync/internal/clock"
	"github.com/goodtune/sleepsync/internal/config"
	"github.com/goodtune/sleepsync/internal/eightsleep"
	"github.com/goodtune/sleepsync/internal/syncer"
	"github.com/goodtune/sleepsync/internal/whoop"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// loadConfig loads configuration and installs the global logger.
func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	log.Logger = logger
	return cfg, logger, nil
}

// newSyncer builds fresh provider clients, and so fresh sessions, for one
// run.
func newSyncer(cfg *config.Config, logger zerolog.Logger) *syncer.Syncer {
	clk := clock.RealClock{}
	timeout := cfg.RequestTimeout()

	coach := whoop.NewClient(whoop.Config{
		BaseURL:  cfg.Whoop.BaseURL,
		Username: cfg.Whoop.Username,
		Password: cfg.Whoop.Password,
		Timeout:  timeout,
		Clock:    clk,
	}, logger)

	device := eightsleep.NewClient(eightsleep.Config{
		AuthURL:      cfg.EightSleep.AuthURL,
		ClientURL:    cfg.EightSleep.ClientURL,
		AppURL:       cfg.EightSleep.AppURL,
		ClientID:     cfg.EightSleep.ClientID,
		ClientSecret: cfg.EightSleep.ClientSecret,
		Username:     cfg.EightSleep.Username,
		Password:     cfg.EightSleep.Password,
		Timeout:      timeout,
		Clock:        clk,
	}, logger)

	return syncer.New(coach, device, syncer.Config{
		RecoveryTier: cfg.Sync.RecoveryTier,
		Clock:        clk,
	}, logger)
}

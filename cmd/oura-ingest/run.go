// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MaximeMichaud/oura-dashboard/internal/api"
	"github.com/MaximeMichaud/oura-dashboard/internal/catalog"
	"github.com/MaximeMichaud/oura-dashboard/internal/config"
	"github.com/MaximeMichaud/oura-dashboard/internal/database"
	"github.com/MaximeMichaud/oura-dashboard/internal/logging"
	"github.com/MaximeMichaud/oura-dashboard/internal/metrics"
	"github.com/MaximeMichaud/oura-dashboard/internal/oura"
	"github.com/MaximeMichaud/oura-dashboard/internal/supervisor"
	"github.com/MaximeMichaud/oura-dashboard/internal/supervisor/services"
	ingest "github.com/MaximeMichaud/oura-dashboard/internal/sync"
)

// runIngest runs the periodic scheduler, or one pass with --once.
func runIngest(ctx context.Context, opts *rootOptions) error {
	cat := catalog.Default()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	endpoints, err := selectEndpoints(cat, cfg.Sync.Endpoints, opts.Endpoint)
	if err != nil {
		return wrapExit(ExitUnknownEndpoint, "invalid endpoint selection", err)
	}
	if err := cfg.ValidateForSync(); err != nil {
		return wrapExit(ExitFailure, "configuration", err)
	}

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	client, err := oura.NewClient(ouraConfig(&cfg.Oura))
	if err != nil {
		return wrapExit(ExitFailure, "oura client", err)
	}

	historyStart, err := cfg.Sync.HistoryStart()
	if err != nil {
		return wrapExit(ExitFailure, "configuration", err)
	}

	orch := ingest.NewOrchestrator(cat, client, db, ingest.Options{
		HistoryStart:      historyStart,
		OverlapDays:       cfg.Sync.OverlapDays,
		StalenessWarnDays: cfg.Sync.StalenessWarnDays,
		SentinelPath:      cfg.Sync.SentinelPath,
		BatchSize:         cfg.Sync.BatchSize,
	})
	manager := ingest.NewManager(orch, cfg.Sync.Interval(), endpoints)

	logging.Info().
		Int("overlap_days", cfg.Sync.OverlapDays).
		Str("history_start", cfg.Sync.HistoryStartDate).
		Msg("Upstream revisions older than the overlap window are not re-fetched")

	if opts.Once {
		return runOnce(ctx, manager)
	}
	return runPeriodic(ctx, cfg, cat, db, client, manager)
}

// selectEndpoints resolves --endpoint or SYNC_ENDPOINTS against the catalog.
// An empty result means every endpoint.
func selectEndpoints(cat *catalog.Catalog, configured []string, flag string) ([]string, error) {
	names := configured
	if flag != "" {
		names = []string{flag}
	}
	for _, name := range names {
		if _, err := cat.Describe(name); err != nil {
			return nil, err
		}
	}
	return names, nil
}

func runOnce(ctx context.Context, manager *ingest.Manager) error {
	report, err := manager.RunOnce(ctx, "")
	if err != nil {
		return err
	}
	if failed := report.Failed(); len(failed) > 0 {
		names := make([]string, len(failed))
		for i, r := range failed {
			names[i] = r.Endpoint
		}
		return wrapExit(ExitFailure, "sync failed", fmt.Errorf("%d endpoint(s) failed: %v", len(failed), names))
	}
	if len(report.NotAttempted) > 0 {
		return wrapExit(ExitFailure, "sync interrupted", fmt.Errorf("not attempted: %v", report.NotAttempted))
	}
	return nil
}

func runPeriodic(ctx context.Context, cfg *config.Config, cat *catalog.Catalog, db *database.DB, client *oura.Client, manager *ingest.Manager) error {
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		return wrapExit(ExitFailure, "supervisor", err)
	}
	tree.AddSyncService(services.NewSyncService(manager))

	if cfg.Server.Enabled {
		handler := api.NewHandler(cat, db, manager, client.BreakerState)
		server := &http.Server{
			Addr: cfg.Server.Addr(),
			Handler: api.NewRouter(handler, api.MiddlewareConfig{
				CORSAllowedOrigins: cfg.Server.CORSOrigins,
				CORSMaxAge:         86400,
				RateLimitRequests:  cfg.Server.RateLimitReqs,
				RateLimitWindow:    cfg.Server.RateLimitWindow,
			}),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       cfg.Server.ReadTimeout,
			WriteTimeout:      cfg.Server.WriteTimeout,
		}
		tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
		logging.Info().Str("addr", server.Addr).Msg("Status API enabled")
	}

	logging.Info().Dur("interval", cfg.Sync.Interval()).Msg("Starting supervisor tree")
	err = tree.Serve(ctx)
	if errors.Is(err, context.Canceled) {
		logging.Info().Msg("Shutdown complete")
		return nil
	}
	if err != nil {
		return wrapExit(ExitFailure, "supervisor stopped", err)
	}
	return nil
}

// loadConfig loads configuration and configures the global logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, wrapExit(ExitFailure, "configuration", err)
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Format = cfg.Logging.Format
	logCfg.Caller = cfg.Logging.Caller
	logging.Init(logCfg)

	metrics.SetAppInfo(version)
	return cfg, nil
}

// openDatabase connects, waiting for PostgreSQL, and migrates when
// DB_AUTO_MIGRATE is set.
func openDatabase(ctx context.Context, cfg *config.Config) (*database.DB, error) {
	logging.Info().Str("dsn", cfg.Database.RedactedDSN()).Msg("Connecting to PostgreSQL")

	db, err := database.Open(ctx, &cfg.Database)
	if err != nil {
		return nil, wrapExit(ExitFailure, "database", err)
	}
	db.SetBatchSize(cfg.Sync.BatchSize)

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, wrapExit(ExitFailure, "migrate", err)
		}
	}
	return db, nil
}

// ouraConfig maps configuration onto the client.
func ouraConfig(c *config.OuraConfig) oura.Config {
	retry := oura.DefaultRetryPolicy()
	retry.MaxAttempts = c.MaxAttempts
	retry.BaseDelay = c.RetryBaseDelay
	retry.MaxDelay = c.RetryMaxDelay
	retry.RetryAfterCap = c.RetryAfterCap
	retry.RateLimitDelay = c.RateLimitDelay

	return oura.Config{
		BaseURL:           c.BaseURL,
		Token:             c.Token,
		Timeout:           c.Timeout,
		RequestsPerSecond: c.RequestsPerSecond,
		Burst:             c.Burst,
		Retry:             retry,
		Breaker:           oura.DefaultBreakerSettings(),
		SkipNotFound:      c.SkipNotFound,
	}
}

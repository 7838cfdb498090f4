// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order
// of priority. The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/oura-ingest/config.yaml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with every default applied. Defaults are
// loaded first and then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Oura: OuraConfig{
			Token:             "",
			BaseURL:           "https://api.ouraring.com/v2/usercollection",
			Timeout:           30 * time.Second,
			RequestsPerSecond: 5,
			Burst:             5,
			MaxAttempts:       6,
			RetryBaseDelay:    2 * time.Second,
			RetryMaxDelay:     120 * time.Second,
			RetryAfterCap:     300 * time.Second,
			RateLimitDelay:    60 * time.Second,
			SkipNotFound:      false,
		},
		Database: DatabaseConfig{
			Host:              "localhost",
			Port:              5432,
			Name:              "oura",
			User:              "oura",
			Password:          "oura",
			SSLMode:           "disable",
			MaxOpenConns:      5,
			MaxIdleConns:      2,
			ConnMaxLifetime:   30 * time.Minute,
			ConnectRetries:    30,
			ConnectRetryDelay: 2 * time.Second,
			AutoMigrate:       false,
		},
		Sync: SyncConfig{
			HistoryStartDate:  "2020-01-01",
			IntervalMinutes:   30,
			OverlapDays:       2,
			BatchSize:         500,
			SentinelPath:      "/tmp/oura-last-sync",
			StalenessWarnDays: 3,
			Endpoints:         []string{}, // empty = every catalog endpoint
		},
		Server: ServerConfig{
			Enabled:         true,
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   60,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in values from defaultConfig
//  2. Config File: optional YAML file
//  3. Environment Variables: override any setting
//
// The result is validated; the Oura token is checked separately by
// ValidateForSync so that offline commands work without credentials.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// OURA_TOKEN -> oura.token, SYNC_INTERVAL_MINUTES -> sync.interval_minutes
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated env values.
var sliceConfigPaths = []string{
	"server.cors_origins",
	"sync.endpoints",
}

// processSliceFields converts comma-separated string values to slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok {
			continue // unset, or already a slice from YAML
		}

		trimmed := make([]string, 0)
		for _, p := range strings.Split(strVal, ",") {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
var envMappings = map[string]string{
	"oura_token":               "oura.token",
	"oura_api_base_url":        "oura.base_url",
	"oura_http_timeout":        "oura.timeout",
	"oura_requests_per_second": "oura.requests_per_second",
	"oura_request_burst":       "oura.burst",
	"oura_max_attempts":        "oura.max_attempts",
	"oura_retry_base_delay":    "oura.retry_base_delay",
	"oura_retry_max_delay":     "oura.retry_max_delay",
	"oura_retry_after_cap":     "oura.retry_after_cap",
	"oura_rate_limit_delay":    "oura.rate_limit_delay",
	"oura_skip_not_found":      "oura.skip_not_found",

	"postgres_host":          "database.host",
	"postgres_port":          "database.port",
	"postgres_db":            "database.name",
	"postgres_user":          "database.user",
	"postgres_password":      "database.password",
	"postgres_sslmode":       "database.ssl_mode",
	"db_max_open_conns":      "database.max_open_conns",
	"db_max_idle_conns":      "database.max_idle_conns",
	"db_conn_max_lifetime":   "database.conn_max_lifetime",
	"db_connect_retries":     "database.connect_retries",
	"db_connect_retry_delay": "database.connect_retry_delay",
	"db_auto_migrate":        "database.auto_migrate",

	"history_start_date":       "sync.history_start_date",
	"sync_interval_minutes":    "sync.interval_minutes",
	"overlap_days":             "sync.overlap_days",
	"sync_batch_size":          "sync.batch_size",
	"sync_sentinel_path":       "sync.sentinel_path",
	"sync_staleness_warn_days": "sync.staleness_warn_days",
	"sync_endpoints":           "sync.endpoints",

	"http_enabled":          "server.enabled",
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"cors_origins":          "server.cors_origins",
	"rate_limit_requests":   "server.rate_limit_reqs",
	"rate_limit_window":     "server.rate_limit_window",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps an environment variable name to its koanf path.
// Unmapped variables return "" and are skipped, so unrelated environment
// does not leak into the configuration.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

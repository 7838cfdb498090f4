// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"
)

// Config holds all runtime configuration.
type Config struct {
	Oura     OuraConfig     `koanf:"oura"`
	Database DatabaseConfig `koanf:"database"`
	Sync     SyncConfig     `koanf:"sync"`
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// OuraConfig configures the upstream API client.
type OuraConfig struct {
	Token             string        `koanf:"token"`
	BaseURL           string        `koanf:"base_url" validate:"required,url"`
	Timeout           time.Duration `koanf:"timeout" validate:"gt=0"`
	RequestsPerSecond float64       `koanf:"requests_per_second" validate:"gte=0"`
	Burst             int           `koanf:"burst" validate:"gte=0"`
	MaxAttempts       int           `koanf:"max_attempts" validate:"min=1,max=20"`
	RetryBaseDelay    time.Duration `koanf:"retry_base_delay" validate:"gt=0"`
	RetryMaxDelay     time.Duration `koanf:"retry_max_delay" validate:"gt=0"`
	RetryAfterCap     time.Duration `koanf:"retry_after_cap" validate:"gt=0"`
	RateLimitDelay    time.Duration `koanf:"rate_limit_delay" validate:"gte=0"`
	SkipNotFound      bool          `koanf:"skip_not_found"`
}

// DatabaseConfig configures the PostgreSQL connection.
type DatabaseConfig struct {
	Host              string        `koanf:"host" validate:"required"`
	Port              int           `koanf:"port" validate:"min=1,max=65535"`
	Name              string        `koanf:"name" validate:"required"`
	User              string        `koanf:"user" validate:"required"`
	Password          string        `koanf:"password"`
	SSLMode           string        `koanf:"ssl_mode" validate:"oneof=disable allow prefer require verify-ca verify-full"`
	MaxOpenConns      int           `koanf:"max_open_conns" validate:"min=1"`
	MaxIdleConns      int           `koanf:"max_idle_conns" validate:"min=0"`
	ConnMaxLifetime   time.Duration `koanf:"conn_max_lifetime"`
	ConnectRetries    int           `koanf:"connect_retries" validate:"min=1"`
	ConnectRetryDelay time.Duration `koanf:"connect_retry_delay" validate:"gte=0"`
	AutoMigrate       bool          `koanf:"auto_migrate"`
}

// SyncConfig configures the sync engine and scheduler.
type SyncConfig struct {
	HistoryStartDate  string   `koanf:"history_start_date" validate:"required,isodate"`
	IntervalMinutes   int      `koanf:"interval_minutes" validate:"min=1"`
	OverlapDays       int      `koanf:"overlap_days" validate:"min=0"`
	BatchSize         int      `koanf:"batch_size" validate:"min=1,max=5000"`
	SentinelPath      string   `koanf:"sentinel_path"`
	StalenessWarnDays int      `koanf:"staleness_warn_days" validate:"min=0"`
	Endpoints         []string `koanf:"endpoints" validate:"dive,identifier"`
}

// ServerConfig configures the status HTTP surface.
type ServerConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs" validate:"min=0"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration from, in increasing priority:
//  1. Built-in defaults
//  2. Config file (CONFIG_PATH, config.yaml, config.yml, /etc/oura-ingest/config.yaml)
//  3. Environment variables
//
// See LoadWithKoanf for details.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// HistoryStart returns the configured backfill start as a local calendar date.
func (s *SyncConfig) HistoryStart() (time.Time, error) {
	t, err := time.ParseInLocation(time.DateOnly, s.HistoryStartDate, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("HISTORY_START_DATE %q: %w", s.HistoryStartDate, err)
	}
	return t, nil
}

// Interval returns the scheduler period.
func (s *SyncConfig) Interval() time.Duration {
	return time.Duration(s.IntervalMinutes) * time.Minute
}

// DSN returns the PostgreSQL connection URL.
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:   "/" + d.Name,
	}
	q := url.Values{}
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// RedactedDSN returns DSN with the password masked, for logs.
func (d *DatabaseConfig) RedactedDSN() string {
	u, err := url.Parse(d.DSN())
	if err != nil {
		return ""
	}
	return u.Redacted()
}

// Addr returns the status server listen address.
func (s *ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

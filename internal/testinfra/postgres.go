// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/MaximeMichaud/oura-dashboard/internal/config"
)

const (
	// postgresImage matches the image used by the compose stack.
	postgresImage = "postgres:16-alpine"
	postgresPort  = "5432/tcp"

	postgresUser     = "oura"
	postgresPassword = "oura"
	postgresDB       = "oura_test"
)

// Postgres is a throwaway PostgreSQL server holding one empty oura_test database.
type Postgres struct {
	container testcontainers.Container
	Host      string
	Port      int
}

// StartPostgres starts a container for the test and terminates it on cleanup.
// The test is skipped when no Docker daemon answers.
func StartPostgres(t *testing.T) *Postgres {
	t.Helper()
	if !dockerReachable() {
		t.Skip("docker daemon not reachable, skipping storage integration test")
	}

	ctx := context.Background()
	pg, err := startPostgres(ctx)
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() {
		if err := pg.container.Terminate(context.Background()); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})
	return pg
}

// DatabaseConfig returns connection settings pointing at the container.
// Retries are short since the wait strategy already saw the server accept
// connections.
func (p *Postgres) DatabaseConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		Host:              p.Host,
		Port:              p.Port,
		Name:              postgresDB,
		User:              postgresUser,
		Password:          postgresPassword,
		SSLMode:           "disable",
		MaxOpenConns:      4,
		MaxIdleConns:      2,
		ConnMaxLifetime:   time.Minute,
		ConnectRetries:    10,
		ConnectRetryDelay: 500 * time.Millisecond,
	}
}

func startPostgres(ctx context.Context) (*Postgres, error) {
	req := testcontainers.ContainerRequest{
		Image:        postgresImage,
		ExposedPorts: []string{postgresPort},
		Env: map[string]string{
			"POSTGRES_USER":     postgresUser,
			"POSTGRES_PASSWORD": postgresPassword,
			"POSTGRES_DB":       postgresDB,
			"TZ":                "UTC",
		},
		// The entrypoint restarts the server once after initdb.
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort(postgresPort),
		).WithStartupTimeout(time.Minute),
	}

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("create postgres container: %w", err)
	}

	pg, err := describe(ctx, c)
	if err != nil {
		c.Terminate(ctx) //nolint:errcheck
		return nil, err
	}
	return pg, nil
}

func describe(ctx context.Context, c testcontainers.Container) (*Postgres, error) {
	host, err := c.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("container host: %w", err)
	}
	mapped, err := c.MappedPort(ctx, postgresPort)
	if err != nil {
		return nil, fmt.Errorf("mapped port: %w", err)
	}
	port, err := strconv.Atoi(mapped.Port())
	if err != nil {
		return nil, fmt.Errorf("parse mapped port %q: %w", mapped.Port(), err)
	}
	return &Postgres{container: c, Host: host, Port: port}, nil
}

// dockerReachable runs `docker info` with a short deadline.
func dockerReachable() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return exec.CommandContext(ctx, "docker", "info").Run() == nil
}

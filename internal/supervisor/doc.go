// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

/*
Package supervisor runs the periodic ingest service under suture v4.

# Overview

	RootSupervisor ("oura-ingest")
	├── SyncSupervisor ("sync-layer")
	│   └── SyncService (sync.Manager)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService (status API, if HTTP_ENABLED)

A crashed service is restarted with suture's decaying failure counter. The
status server can fail and restart without touching a pass in flight.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddSyncService(services.NewSyncService(manager))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return tree.Serve(ctx)

# Configuration

TreeConfig defaults:
  - FailureThreshold: 5 failures
  - FailureDecay: 30 seconds
  - FailureBackoff: 15 seconds
  - ShutdownTimeout: 20 seconds

ShutdownTimeout has to cover the failure bookkeeping of an interrupted pass,
which runs for up to sync.DefaultRecordTimeout after cancellation.

# What Is NOT Supervised

PostgreSQL is reached through a connection pool owned by the database
package. One-shot mode (--once) runs a single pass without the tree.

# See Also

  - internal/supervisor/services: service wrappers
  - github.com/thejerf/suture/v4
*/
package supervisor

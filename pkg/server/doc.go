/*
Package server provisions and controls per-subscription game server
deployments.

Each subscription gets its own compose file, rendered from a per-game
template, and its own environment file holding the game configuration.
The manager drives the deployment through the docker and docker compose
CLIs and records the last known state in the subscription registry.

# Architecture

	┌──────────────────── GAME SERVER MANAGER ─────────────────┐
	│                                                           │
	│  ┌────────────────────────────────────────────┐           │
	│  │            Template Rendering               │          │
	│  │  <game>-template.yml + .<game>_env          │          │
	│  │  → envsubst (SUBSCRIPTION_ID, PORTS, ...)   │          │
	│  │  → docker-compose-<game>-<id>.yml           │          │
	│  └──────────────────┬─────────────────────────┘           │
	│                     │                                     │
	│  ┌──────────────────▼─────────────────────────┐           │
	│  │            Lifecycle Operations             │          │
	│  │  Start / Stop / Restart / Status / Backup   │          │
	│  │  via docker compose + docker inspect/stats  │          │
	│  └──────────────────┬─────────────────────────┘           │
	│                     │                                     │
	│  ┌──────────────────▼─────────────────────────┐           │
	│  │          Subscription Registry              │          │
	│  │  container id/ip, ports, status (bbolt)     │          │
	│  └────────────────────────────────────────────┘           │
	└───────────────────────────────────────────────────────────┘

# Core Components

Paths:
  - Directory layout under the management base (~/servermgmnt)
  - Game templates, rendered compose files, env files, logs

Manager:
  - CreateComposeFile: render a subscription's compose file
  - Start/Stop/Restart: drive the deployment through compose
  - Status: container state plus cpu/memory usage when running
  - UpdateConfig: rewrite the env file through the game's handler
  - Backup: archive server data, staged so partial archives never land

# Usage

	paths, err := server.DefaultPaths()
	if err != nil {
		return err
	}
	mgr, err := server.NewManager(server.Config{
		Paths: paths,
		Store: st,
	})
	if err != nil {
		return err
	}

	composeFile, err := mgr.CreateComposeFile("sub-1", []int{2456, 2457}, "2g", 2.0, "valheim")
	if err != nil {
		return err
	}
	result := mgr.Start(ctx, composeFile, "sub-1", []int{2456, 2457})

# Integration Points

This package integrates with:

  - pkg/game: configuration parsing and env generation per game type
  - pkg/execx: shell command execution for docker and compose
  - pkg/store: subscription state tracking
  - pkg/metrics: operation counters by action and status
*/
package server

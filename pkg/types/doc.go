/*
Package types defines the core data structures used throughout Garrison.

This package contains the fundamental types that represent Garrison's domain
model: operation results as reported to the collector, subscription records
tracked in the registry, and per-game configuration structures decoded from
the control plane's payloads.

# Core Types

Operation Results:
  - Result: Standardized outcome of every management operation
  - Action: What was attempted (start, stop, backup, sftp_update, ...)
  - Status: How it ended (completed, already_exists, not_found, failed, ...)

Subscriptions:
  - Subscription: One provisioned game-server deployment with its ports,
    resource limits, container identity, and lifecycle timestamps

Game Configuration:
  - GameConfig: Settings common to every game server
  - ValheimConfig: Valheim world, backup, and difficulty-modifier settings

All types serialize to JSON. Result uses omitempty so that the payload posted
to the collector only carries the fields the operation produced, matching the
collector's contract.
*/
package types

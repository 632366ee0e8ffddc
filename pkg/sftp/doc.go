/*
Package sftp implements the transactional configuration engine for the
shared multi-tenant SFTP gateway.

The gateway's live state is described by two coupled files: a compose
service descriptor (image, ports, one volume mapping per subscription)
and a credential table (one login record per subscription). This package
keeps the pair mutually consistent while the gateway process is
reconfigured, and rolls both files back when a reconfiguration fails.

# Architecture

	┌───────────────────── TRANSACTION ──────────────────────┐
	│                                                         │
	│  AddTenant / RemoveTenant                               │
	│        │                                                │
	│        ▼                                                │
	│  acquire lock ──► snapshot both artifacts               │
	│        │                                                │
	│        ▼                                                │
	│  mutate + persist descriptor (volumes list)             │
	│        │                                                │
	│        ▼                                                │
	│  mutate + persist credential table (users.conf)         │
	│        │                                                │
	│        ▼                                                │
	│  reload gateway (rm -f, compose down, compose up,       │
	│  one status check)                                      │
	│        │                                                │
	│   success ──► prune snapshots, return result            │
	│   failure ──► restore both artifacts, return result     │
	│                                                         │
	└─────────────────────────────────────────────────────────┘

# Guarantees

  - One mutex serializes every transaction process-wide. The two
    artifacts are shared files; interleaved mutations would corrupt
    them.
  - Each file write is rename-atomic (staged sibling temp file). The
    two-file update as a whole is not atomic; crash consistency across
    the pair comes from the snapshot/restore protocol.
  - Adding an existing subscription and removing an unknown one are
    successful no-ops, checked under the lock.
  - UID/GID pairs are allocated by rescanning the table (floor
    1001/101); a freed high id can be reassigned after a removal.
  - Snapshot restore is best effort. A failed restore is logged and the
    original failure is surfaced, never the rollback's.

Operations return a types.Result; no error escapes to the caller.

The gateway process itself (the SFTP protocol) is out of scope: this
package only maintains the gateway's declarative configuration and
restarts it through the lifecycle controller.
*/
package sftp

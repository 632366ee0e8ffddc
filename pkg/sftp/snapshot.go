package sftp

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/garrison-sh/garrison/pkg/atomicfile"
)

// snapshotTimeFormat is the timestamp suffix of snapshot files; the
// resulting names (<original>.backup.YYYYMMDD_HHMMSS) are part of the
// stable on-disk layout.
const snapshotTimeFormat = "20060102_150405"

// Snapshot holds the paths of one point-in-time copy of both artifacts
type Snapshot struct {
	ComposeBackup string
	UsersBackup   string
}

// snapshotter creates, restores, and prunes timestamped copies of the
// descriptor and credential files
type snapshotter struct {
	composePath string
	usersPath   string
	keep        int
	logger      zerolog.Logger
}

// Take copies both artifacts to timestamp-suffixed sibling paths
func (s *snapshotter) Take() (Snapshot, error) {
	ts := time.Now().Format(snapshotTimeFormat)
	snap := Snapshot{
		ComposeBackup: s.composePath + ".backup." + ts,
		UsersBackup:   s.usersPath + ".backup." + ts,
	}

	if err := copyFile(s.composePath, snap.ComposeBackup); err != nil {
		return Snapshot{}, fmt.Errorf("failed to snapshot descriptor: %w", err)
	}
	if err := copyFile(s.usersPath, snap.UsersBackup); err != nil {
		return Snapshot{}, fmt.Errorf("failed to snapshot credential table: %w", err)
	}
	return snap, nil
}

// Restore copies both snapshot files back over the live paths. Best
// effort: a failed restore is logged, never raised, so it cannot mask
// the failure that triggered the rollback.
func (s *snapshotter) Restore(snap Snapshot) {
	restored := true
	if err := copyFile(snap.ComposeBackup, s.composePath); err != nil {
		s.logger.Error().Err(err).Msg("Failed to restore descriptor from snapshot")
		restored = false
	}
	if err := copyFile(snap.UsersBackup, s.usersPath); err != nil {
		s.logger.Error().Err(err).Msg("Failed to restore credential table from snapshot")
		restored = false
	}
	if restored {
		s.logger.Info().Msg("Configuration files restored from snapshot")
	}
}

// Prune deletes all but the most recent keep snapshots per artifact.
// Only called after a transaction completes, so the snapshot belonging
// to the running transaction is never removed from under it.
func (s *snapshotter) Prune() {
	for _, base := range []string{s.composePath, s.usersPath} {
		if err := s.pruneFor(base); err != nil {
			s.logger.Warn().Err(err).Str("artifact", base).Msg("Failed to prune old snapshots")
		}
	}
}

func (s *snapshotter) pruneFor(base string) error {
	matches, err := filepath.Glob(base + ".backup.*")
	if err != nil {
		return err
	}
	if len(matches) <= s.keep {
		return nil
	}

	// Oldest first by modification time
	sort.Slice(matches, func(i, j int) bool {
		return mtime(matches[i]).Before(mtime(matches[j]))
	})

	for _, path := range matches[:len(matches)-s.keep] {
		if err := os.Remove(path); err != nil {
			return err
		}
		s.logger.Debug().Str("snapshot", path).Msg("Removed old snapshot")
	}
	return nil
}

func mtime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

// copyFile replaces dst with src's content through the atomic writer
func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return atomicfile.WriteFile(dst, data, 0644)
}

package sftp

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSnapshotter(t *testing.T, keep int) *snapshotter {
	t.Helper()
	dir := t.TempDir()
	s := &snapshotter{
		composePath: filepath.Join(dir, ComposeFileName),
		usersPath:   filepath.Join(dir, UsersFileName),
		keep:        keep,
	}
	require.NoError(t, os.WriteFile(s.composePath, []byte("services: {}\n"), 0644))
	require.NoError(t, os.WriteFile(s.usersPath, []byte("sub-1:pw:1001:101:::sub-1\n"), 0644))
	return s
}

func TestSnapshotter_TakeCreatesSiblingCopies(t *testing.T) {
	s := newTestSnapshotter(t, 5)

	snap, err := s.Take()
	require.NoError(t, err)

	assert.Contains(t, snap.ComposeBackup, ComposeFileName+".backup.")
	assert.Contains(t, snap.UsersBackup, UsersFileName+".backup.")

	compose, err := os.ReadFile(snap.ComposeBackup)
	require.NoError(t, err)
	assert.Equal(t, "services: {}\n", string(compose))

	users, err := os.ReadFile(snap.UsersBackup)
	require.NoError(t, err)
	assert.Equal(t, "sub-1:pw:1001:101:::sub-1\n", string(users))
}

func TestSnapshotter_RestoreRevertsBothArtifacts(t *testing.T) {
	s := newTestSnapshotter(t, 5)

	snap, err := s.Take()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(s.composePath, []byte("mutated\n"), 0644))
	require.NoError(t, os.WriteFile(s.usersPath, []byte("mutated\n"), 0644))

	s.Restore(snap)

	compose, err := os.ReadFile(s.composePath)
	require.NoError(t, err)
	assert.Equal(t, "services: {}\n", string(compose))

	users, err := os.ReadFile(s.usersPath)
	require.NoError(t, err)
	assert.Equal(t, "sub-1:pw:1001:101:::sub-1\n", string(users))
}

func TestSnapshotter_RestoreMissingBackupDoesNotPanic(t *testing.T) {
	s := newTestSnapshotter(t, 5)

	// Restore failures are logged, not raised
	s.Restore(Snapshot{
		ComposeBackup: s.composePath + ".backup.missing",
		UsersBackup:   s.usersPath + ".backup.missing",
	})
}

func TestSnapshotter_PruneKeepsNewest(t *testing.T) {
	s := newTestSnapshotter(t, 5)

	// Seven snapshots per artifact with strictly increasing mtimes
	base := time.Now().Add(-time.Hour)
	var composeBackups, usersBackups []string
	for i := 0; i < 7; i++ {
		ts := fmt.Sprintf("2024010%d_000000", i+1)
		cb := s.composePath + ".backup." + ts
		ub := s.usersPath + ".backup." + ts
		require.NoError(t, os.WriteFile(cb, []byte("c"), 0644))
		require.NoError(t, os.WriteFile(ub, []byte("u"), 0644))
		mt := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, os.Chtimes(cb, mt, mt))
		require.NoError(t, os.Chtimes(ub, mt, mt))
		composeBackups = append(composeBackups, cb)
		usersBackups = append(usersBackups, ub)
	}

	s.Prune()

	for _, backups := range [][]string{composeBackups, usersBackups} {
		var remaining []string
		for _, path := range backups {
			if _, err := os.Stat(path); err == nil {
				remaining = append(remaining, path)
			}
		}
		// Exactly the five most recent survive
		assert.Equal(t, backups[2:], remaining)
	}
}

func TestSnapshotter_PruneBelowRetentionIsNoop(t *testing.T) {
	s := newTestSnapshotter(t, 5)

	snap, err := s.Take()
	require.NoError(t, err)

	s.Prune()

	_, err = os.Stat(snap.ComposeBackup)
	assert.NoError(t, err)
	_, err = os.Stat(snap.UsersBackup)
	assert.NoError(t, err)
}

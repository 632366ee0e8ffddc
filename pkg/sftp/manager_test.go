package sftp

import (
	"context"
	"errors"
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garrison-sh/garrison/pkg/lifecycle"
	"github.com/garrison-sh/garrison/pkg/types"
)

// fakeController stands in for the external gateway process
type fakeController struct {
	failUp      bool
	statusAfter lifecycle.ServiceStatus
	reloads     int
}

func (f *fakeController) RemoveContainer(context.Context) error { return nil }
func (f *fakeController) Down(context.Context) error            { return nil }

func (f *fakeController) Up(context.Context) error {
	if f.failUp {
		return errors.New("compose up exited with code 1")
	}
	f.reloads++
	return nil
}

func (f *fakeController) Status(context.Context) (lifecycle.ServiceStatus, error) {
	if f.statusAfter == "" {
		return lifecycle.StatusRunning, nil
	}
	return f.statusAfter, nil
}

func newTestManager(t *testing.T, ctrl lifecycle.Controller) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		BasePath:   t.TempDir(),
		Controller: ctrl,
	})
	require.NoError(t, err)
	return m
}

func TestNewManager_CreatesDefaultFiles(t *testing.T) {
	m := newTestManager(t, &fakeController{})

	compose, err := os.ReadFile(m.ComposePath())
	require.NoError(t, err)
	assert.Contains(t, string(compose), "atmoz/sftp")
	assert.Contains(t, string(compose), "container_name: sftpserver")

	users, err := os.ReadFile(m.UsersPath())
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestAddTenant_FirstProvisioning(t *testing.T) {
	ctrl := &fakeController{}
	m := newTestManager(t, ctrl)

	res := m.AddTenant(context.Background(), "valheim", "sub-42")

	assert.True(t, res.Success)
	assert.Equal(t, types.StatusCompleted, res.Status)
	assert.Equal(t, "sub-42", res.SubscriptionID)
	assert.Equal(t, "sub-42", res.Metrics["username"])
	assert.Len(t, res.Metrics["password"], SecretLength)
	assert.Equal(t, "/home/sub-42/valheim", res.Metrics["mount_path"])
	assert.Equal(t, "/srv/allservers/sub-42", res.Metrics["server_path"])
	assert.Equal(t, 1, ctrl.reloads)

	// The credential table holds exactly one record for the tenant
	users, err := os.ReadFile(m.UsersPath())
	require.NoError(t, err)
	line := regexp.MustCompile(`^sub-42:[A-Za-z0-9]{12}:1001:101:::sub-42\n$`)
	assert.Regexp(t, line, string(users))

	// The descriptor carries the tenant's volume mapping
	desc, err := m.descriptor.Load()
	require.NoError(t, err)
	volumes := m.descriptor.Volumes(desc)
	assert.Contains(t, volumes, "/srv/allservers/sub-42:/home/sub-42/valheim:rw")
}

func TestAddTenant_SecondCallIsIdempotent(t *testing.T) {
	m := newTestManager(t, &fakeController{})

	first := m.AddTenant(context.Background(), "valheim", "sub-42")
	require.Equal(t, types.StatusCompleted, first.Status)

	before, err := os.ReadFile(m.UsersPath())
	require.NoError(t, err)

	second := m.AddTenant(context.Background(), "valheim", "sub-42")
	assert.True(t, second.Success)
	assert.Equal(t, types.StatusAlreadyExists, second.Status)

	after, err := os.ReadFile(m.UsersPath())
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, 1, strings.Count(string(after), "sub-42:"))
}

func TestAddTenant_Validation(t *testing.T) {
	m := newTestManager(t, &fakeController{})

	tests := []struct {
		name     string
		gameType string
		subID    string
	}{
		{name: "empty subscription id", gameType: "valheim", subID: ""},
		{name: "empty game type", gameType: "", subID: "sub-1"},
		{name: "both empty", gameType: "", subID: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := m.AddTenant(context.Background(), tt.gameType, tt.subID)
			assert.False(t, res.Success)
			assert.Equal(t, types.StatusFailed, res.Status)
			assert.NotEmpty(t, res.Error)
		})
	}
}

func TestAddTenant_UniqueIdentities(t *testing.T) {
	m := newTestManager(t, &fakeController{})

	for _, id := range []string{"sub-a", "sub-b", "sub-c"} {
		res := m.AddTenant(context.Background(), "valheim", id)
		require.Equal(t, types.StatusCompleted, res.Status)
	}

	creds, err := m.users.Load()
	require.NoError(t, err)
	require.Len(t, creds, 3)

	seenUID := map[int]bool{}
	seenGID := map[int]bool{}
	for _, c := range creds {
		assert.GreaterOrEqual(t, c.UID, 1001)
		assert.GreaterOrEqual(t, c.GID, 101)
		assert.False(t, seenUID[c.UID], "duplicate uid %d", c.UID)
		assert.False(t, seenGID[c.GID], "duplicate gid %d", c.GID)
		seenUID[c.UID] = true
		seenGID[c.GID] = true
	}
}

func TestAddTenant_ReloadFailureRollsBack(t *testing.T) {
	ctrl := &fakeController{failUp: true}
	m := newTestManager(t, ctrl)

	composeBefore, err := os.ReadFile(m.ComposePath())
	require.NoError(t, err)
	usersBefore, err := os.ReadFile(m.UsersPath())
	require.NoError(t, err)

	res := m.AddTenant(context.Background(), "valheim", "sub-42")

	assert.False(t, res.Success)
	assert.Equal(t, types.StatusFailed, res.Status)
	assert.NotEmpty(t, res.Error)

	// Both artifacts byte-identical to their pre-transaction state
	composeAfter, err := os.ReadFile(m.ComposePath())
	require.NoError(t, err)
	usersAfter, err := os.ReadFile(m.UsersPath())
	require.NoError(t, err)
	assert.Equal(t, composeBefore, composeAfter)
	assert.Equal(t, usersBefore, usersAfter)
}

func TestAddTenant_NotRunningAfterReloadRollsBack(t *testing.T) {
	ctrl := &fakeController{statusAfter: lifecycle.StatusStopped}
	m := newTestManager(t, ctrl)

	res := m.AddTenant(context.Background(), "valheim", "sub-42")

	assert.Equal(t, types.StatusFailed, res.Status)
	assert.False(t, m.users.Exists("sub-42"))
}

func TestRemoveTenant_UnknownIsNoop(t *testing.T) {
	m := newTestManager(t, &fakeController{})

	res := m.RemoveTenant(context.Background(), "sub-missing")
	assert.True(t, res.Success)
	assert.Equal(t, types.StatusNotFound, res.Status)
}

func TestRemoveTenant_Symmetry(t *testing.T) {
	m := newTestManager(t, &fakeController{})

	usersBefore, err := os.ReadFile(m.UsersPath())
	require.NoError(t, err)
	descBefore, err := m.descriptor.Load()
	require.NoError(t, err)
	volumesBefore := m.descriptor.Volumes(descBefore)

	add := m.AddTenant(context.Background(), "valheim", "sub-42")
	require.Equal(t, types.StatusCompleted, add.Status)

	res := m.RemoveTenant(context.Background(), "sub-42")
	assert.True(t, res.Success)
	assert.Equal(t, types.StatusRemoved, res.Status)

	usersAfter, err := os.ReadFile(m.UsersPath())
	require.NoError(t, err)
	assert.Equal(t, usersBefore, usersAfter)

	descAfter, err := m.descriptor.Load()
	require.NoError(t, err)
	assert.Equal(t, volumesBefore, m.descriptor.Volumes(descAfter))
}

func TestRemoveTenant_ReloadFailureRollsBack(t *testing.T) {
	ctrl := &fakeController{}
	m := newTestManager(t, ctrl)

	add := m.AddTenant(context.Background(), "valheim", "sub-42")
	require.Equal(t, types.StatusCompleted, add.Status)

	usersBefore, err := os.ReadFile(m.UsersPath())
	require.NoError(t, err)

	ctrl.failUp = true
	res := m.RemoveTenant(context.Background(), "sub-42")

	assert.False(t, res.Success)
	assert.Equal(t, types.StatusFailed, res.Status)

	usersAfter, err := os.ReadFile(m.UsersPath())
	require.NoError(t, err)
	assert.Equal(t, usersBefore, usersAfter)
	assert.True(t, m.users.Exists("sub-42"))
}

func TestRemoveTenant_Validation(t *testing.T) {
	m := newTestManager(t, &fakeController{})

	res := m.RemoveTenant(context.Background(), "")
	assert.False(t, res.Success)
	assert.Equal(t, types.StatusFailed, res.Status)
}

func TestAddRemove_ConcurrentCallsSerialize(t *testing.T) {
	m := newTestManager(t, &fakeController{})

	done := make(chan types.Result, 4)
	for _, id := range []string{"sub-1", "sub-2", "sub-3", "sub-4"} {
		go func(id string) {
			done <- m.AddTenant(context.Background(), "valheim", id)
		}(id)
	}
	for i := 0; i < 4; i++ {
		res := <-done
		assert.Equal(t, types.StatusCompleted, res.Status)
	}

	creds, err := m.users.Load()
	require.NoError(t, err)
	assert.Len(t, creds, 4)

	seen := map[int]bool{}
	for _, c := range creds {
		assert.False(t, seen[c.UID], "duplicate uid %d", c.UID)
		seen[c.UID] = true
	}
}

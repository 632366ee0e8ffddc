package sftp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/garrison-sh/garrison/pkg/atomicfile"
	"github.com/garrison-sh/garrison/pkg/execx"
	"github.com/garrison-sh/garrison/pkg/lifecycle"
	"github.com/garrison-sh/garrison/pkg/log"
	"github.com/garrison-sh/garrison/pkg/metrics"
	"github.com/garrison-sh/garrison/pkg/types"
)

const (
	// DefaultBasePath is the directory holding both gateway artifacts
	DefaultBasePath = "sftp"

	// ComposeFileName is the gateway's service descriptor file
	ComposeFileName = "docker-sftp.yml"

	// UsersFileName is the gateway's credential table file
	UsersFileName = "users.conf"

	// DefaultContainerName is the gateway container declared in the
	// default descriptor
	DefaultContainerName = "sftpserver"

	// ServersBasePath is where per-subscription server data lives on
	// the host
	ServersBasePath = "/srv/allservers"

	// DefaultKeepSnapshots is the snapshot retention count per artifact
	DefaultKeepSnapshots = 5

	serviceName = "sftp"
)

// Config configures the gateway configuration engine
type Config struct {
	// BasePath is the directory holding the descriptor and credential
	// files. Defaults to DefaultBasePath.
	BasePath string

	// ContainerName is the gateway container to verify after reloads.
	// Defaults to DefaultContainerName.
	ContainerName string

	// KeepSnapshots is the retention count per artifact. Defaults to
	// DefaultKeepSnapshots.
	KeepSnapshots int

	// Runner executes gateway lifecycle commands. Defaults to a shell
	// runner. Ignored when Controller is set.
	Runner execx.Runner

	// Controller overrides the compose-backed lifecycle controller
	Controller lifecycle.Controller
}

// Manager is the transactional configuration engine for the shared SFTP
// gateway. It owns the two persisted artifacts (service descriptor and
// credential table) and is the only component allowed to mutate them.
// One mutex serializes every transaction: the artifacts are shared
// files, and a reload is in flight while they are being rewritten.
type Manager struct {
	basePath   string
	descriptor descriptorStore
	users      credentialStore
	snapshots  snapshotter
	controller lifecycle.Controller

	mu     sync.Mutex
	logger zerolog.Logger
}

// NewManager creates the engine, ensuring the base directory and both
// artifact files exist with sane defaults
func NewManager(cfg Config) (*Manager, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = DefaultBasePath
	}
	containerName := cfg.ContainerName
	if containerName == "" {
		containerName = DefaultContainerName
	}
	keep := cfg.KeepSnapshots
	if keep <= 0 {
		keep = DefaultKeepSnapshots
	}

	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sftp directory: %w", err)
	}

	logger := log.WithComponent("sftp")
	composePath := filepath.Join(basePath, ComposeFileName)
	usersPath := filepath.Join(basePath, UsersFileName)

	controller := cfg.Controller
	if controller == nil {
		runner := cfg.Runner
		if runner == nil {
			runner = execx.NewShellRunner()
		}
		controller = lifecycle.NewComposeController(runner, composePath, containerName)
	}

	m := &Manager{
		basePath:   basePath,
		descriptor: descriptorStore{path: composePath, serviceName: serviceName},
		users:      credentialStore{path: usersPath, logger: logger},
		snapshots: snapshotter{
			composePath: composePath,
			usersPath:   usersPath,
			keep:        keep,
			logger:      logger,
		},
		controller: controller,
		logger:     logger,
	}

	if err := m.ensureDefaults(containerName); err != nil {
		return nil, err
	}
	return m, nil
}

// ensureDefaults writes the default descriptor and an empty credential
// table if either file is missing
func (m *Manager) ensureDefaults(containerName string) error {
	if _, err := os.Stat(m.descriptor.path); os.IsNotExist(err) {
		content := defaultCompose(containerName, m.users.path)
		if err := atomicfile.WriteFile(m.descriptor.path, []byte(content), 0644); err != nil {
			return fmt.Errorf("failed to create default descriptor: %w", err)
		}
	}
	if _, err := os.Stat(m.users.path); os.IsNotExist(err) {
		if err := atomicfile.WriteFile(m.users.path, nil, 0644); err != nil {
			return fmt.Errorf("failed to create credential table: %w", err)
		}
	}
	return nil
}

func defaultCompose(containerName, usersPath string) string {
	return fmt.Sprintf(`version: "3.8"
services:
  sftp:
    image: atmoz/sftp:latest
    container_name: %s
    ports:
      - "2222:22"
    volumes:
      - %s:/etc/sftp/users.conf:ro
    restart: unless-stopped
    networks:
      - gameserver-net
networks:
  gameserver-net:
    external: true
`, containerName, usersPath)
}

// AddTenant provisions SFTP access for a subscription: one volume
// mapping in the descriptor and one credential record, applied as a
// single all-or-nothing transaction with the gateway reloaded at the
// end. Re-adding an existing subscription is a successful no-op.
func (m *Manager) AddTenant(ctx context.Context, gameType, subscriptionID string) types.Result {
	res := m.addTenant(ctx, gameType, subscriptionID)
	metrics.SFTPTransactions.WithLabelValues(string(res.Action), string(res.Status)).Inc()
	return res
}

func (m *Manager) addTenant(ctx context.Context, gameType, subscriptionID string) types.Result {
	if subscriptionID == "" || gameType == "" {
		return types.Failure(types.ActionSFTPUpdate, subscriptionID, ErrValidation)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Idempotency check happens under the lock: a concurrent add of the
	// same subscription must observe the first one's record.
	if m.users.Exists(subscriptionID) {
		m.logger.Info().Str("subscription_id", subscriptionID).
			Msg("SFTP user already exists, skipping")
		return types.Result{
			Action:         types.ActionSFTPUpdate,
			SubscriptionID: subscriptionID,
			Status:         types.StatusAlreadyExists,
			Success:        true,
		}
	}

	snap, err := m.snapshots.Take()
	if err != nil {
		// Nothing was mutated yet, no rollback needed
		m.logger.Error().Err(err).Msg("Failed to snapshot configuration")
		return types.Failure(types.ActionSFTPUpdate, subscriptionID, err)
	}

	secret, err := m.applyAdd(gameType, subscriptionID)
	if err == nil {
		err = m.reload(ctx)
	}
	if err != nil {
		m.rollback(snap)
		m.logger.Error().Err(err).Str("subscription_id", subscriptionID).
			Msg("Failed to update SFTP server")
		return types.Failure(types.ActionSFTPUpdate, subscriptionID, err)
	}

	m.snapshots.Prune()

	return types.Result{
		Action:         types.ActionSFTPUpdate,
		SubscriptionID: subscriptionID,
		Status:         types.StatusCompleted,
		Success:        true,
		Metrics: map[string]string{
			"username":    subscriptionID,
			"password":    secret,
			"mount_path":  fmt.Sprintf("/home/%s/%s", subscriptionID, gameType),
			"server_path": fmt.Sprintf("%s/%s", ServersBasePath, subscriptionID),
		},
	}
}

// RemoveTenant tears down a subscription's SFTP access. Removing an
// unknown subscription is a successful no-op.
func (m *Manager) RemoveTenant(ctx context.Context, subscriptionID string) types.Result {
	res := m.removeTenant(ctx, subscriptionID)
	metrics.SFTPTransactions.WithLabelValues(string(res.Action), string(res.Status)).Inc()
	return res
}

func (m *Manager) removeTenant(ctx context.Context, subscriptionID string) types.Result {
	if subscriptionID == "" {
		return types.Failure(types.ActionSFTPRemove, subscriptionID, ErrValidation)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.users.Exists(subscriptionID) {
		return types.Result{
			Action:         types.ActionSFTPRemove,
			SubscriptionID: subscriptionID,
			Status:         types.StatusNotFound,
			Success:        true,
		}
	}

	snap, err := m.snapshots.Take()
	if err != nil {
		m.logger.Error().Err(err).Msg("Failed to snapshot configuration")
		return types.Failure(types.ActionSFTPRemove, subscriptionID, err)
	}

	err = m.applyRemove(subscriptionID)
	if err == nil {
		err = m.reload(ctx)
	}
	if err != nil {
		m.rollback(snap)
		m.logger.Error().Err(err).Str("subscription_id", subscriptionID).
			Msg("Failed to remove SFTP user")
		return types.Failure(types.ActionSFTPRemove, subscriptionID, err)
	}

	m.snapshots.Prune()

	return types.Result{
		Action:         types.ActionSFTPRemove,
		SubscriptionID: subscriptionID,
		Status:         types.StatusRemoved,
		Success:        true,
	}
}

// applyAdd mutates and persists first the descriptor, then the
// credential table. Returns the generated secret.
func (m *Manager) applyAdd(gameType, subscriptionID string) (string, error) {
	desc, err := m.descriptor.Load()
	if err != nil {
		return "", err
	}
	if m.descriptor.AddVolume(desc, subscriptionID, gameType) {
		if err := m.descriptor.Persist(desc); err != nil {
			return "", err
		}
		m.logger.Info().Str("subscription_id", subscriptionID).
			Msg("Updated descriptor with volume mapping")
	}

	secret, err := generateSecret(SecretLength)
	if err != nil {
		return "", err
	}

	uid, gid := m.users.NextIdentity()
	cred := Credential{
		Name:   subscriptionID,
		Secret: secret,
		UID:    uid,
		GID:    gid,
		Home:   subscriptionID,
	}
	if err := m.users.Append(cred); err != nil {
		return "", err
	}
	m.logger.Info().Str("subscription_id", subscriptionID).Int("uid", uid).
		Msg("Added SFTP user")

	return secret, nil
}

// applyRemove mutates and persists both artifacts, descriptor first
func (m *Manager) applyRemove(subscriptionID string) error {
	desc, err := m.descriptor.Load()
	if err != nil {
		return err
	}
	if m.descriptor.RemoveVolume(desc, subscriptionID) > 0 {
		if err := m.descriptor.Persist(desc); err != nil {
			return err
		}
	}
	return m.users.Remove(subscriptionID)
}

// reload restarts the gateway and verifies it came back. One
// verification pass, no retry loop: a gateway that is not running after
// compose up is a failed transaction.
func (m *Manager) reload(ctx context.Context) error {
	// Clear any stale container first; "not found" is fine.
	if err := m.controller.RemoveContainer(ctx); err != nil {
		m.logger.Warn().Err(err).Msg("Failed to remove previous gateway container")
	}

	if err := m.controller.Down(ctx); err != nil {
		m.logger.Warn().Err(err).Msg("Compose down had non-zero exit")
	}

	if err := m.controller.Up(ctx); err != nil {
		metrics.SFTPReloadFailures.Inc()
		return fmt.Errorf("%w: %v", ErrReload, err)
	}

	status, err := m.controller.Status(ctx)
	if err != nil {
		metrics.SFTPReloadFailures.Inc()
		return fmt.Errorf("%w: %v", ErrReload, err)
	}
	if status != lifecycle.StatusRunning {
		metrics.SFTPReloadFailures.Inc()
		return ErrReload
	}

	m.logger.Info().Msg("SFTP server restarted successfully")
	return nil
}

func (m *Manager) rollback(snap Snapshot) {
	metrics.SFTPRollbacks.Inc()
	m.snapshots.Restore(snap)
}

// ComposePath returns the path of the gateway's service descriptor
func (m *Manager) ComposePath() string {
	return m.descriptor.path
}

// UsersPath returns the path of the gateway's credential table
func (m *Manager) UsersPath() string {
	return m.users.path
}

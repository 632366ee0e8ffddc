package server

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/a8m/envsubst"
	"github.com/rs/zerolog"

	"github.com/garrison-sh/garrison/pkg/atomicfile"
	"github.com/garrison-sh/garrison/pkg/execx"
	"github.com/garrison-sh/garrison/pkg/game"
	"github.com/garrison-sh/garrison/pkg/log"
	"github.com/garrison-sh/garrison/pkg/metrics"
	"github.com/garrison-sh/garrison/pkg/store"
	"github.com/garrison-sh/garrison/pkg/types"
)

const (
	// NetworkName is the shared docker network game servers join
	NetworkName = "gameserver-net"
)

// Config configures the game server manager
type Config struct {
	Paths    Paths
	Runner   execx.Runner
	Registry *game.Registry

	// Store tracks provisioned subscriptions; optional
	Store store.Store
}

// Manager provisions, controls, and inspects per-subscription game
// server deployments
type Manager struct {
	paths    Paths
	runner   execx.Runner
	registry *game.Registry
	store    store.Store
	logger   zerolog.Logger
}

// NewManager creates a game server manager
func NewManager(cfg Config) (*Manager, error) {
	if err := cfg.Paths.Ensure(); err != nil {
		return nil, err
	}
	runner := cfg.Runner
	if runner == nil {
		runner = execx.NewShellRunner()
	}
	registry := cfg.Registry
	if registry == nil {
		registry = game.NewRegistry()
	}
	return &Manager{
		paths:    cfg.Paths,
		runner:   runner,
		registry: registry,
		store:    cfg.Store,
		logger:   log.WithComponent("server"),
	}, nil
}

// Registry returns the game handler registry
func (m *Manager) Registry() *game.Registry {
	return m.registry
}

// CreateComposeFile renders the per-subscription compose file from the
// game's template, substituting subscription-specific environment
// variables. Returns the rendered file's path.
func (m *Manager) CreateComposeFile(subscriptionID string, ports []int, memoryLimit string, cpuLimit float64, gameType string) (string, error) {
	templatePath := m.paths.TemplateFile(gameType)
	if _, err := os.Stat(templatePath); err != nil {
		return "", fmt.Errorf("template not found for game %s at %s: %w", gameType, templatePath, err)
	}
	envTemplatePath := m.paths.TemplateEnvFile(gameType)
	if _, err := os.Stat(envTemplatePath); err != nil {
		return "", fmt.Errorf("environment template not found for game %s at %s: %w", gameType, envTemplatePath, err)
	}

	// envsubst reads substitutions from the process environment
	env := map[string]string{
		"SUBSCRIPTION_ID": subscriptionID,
		"MEMORY_LIMIT":    memoryLimit,
		"CPU_LIMIT":       strconv.FormatFloat(cpuLimit, 'f', -1, 64),
		"GAME_TYPE":       gameType,
		"NETWORK_NAME":    NetworkName,
	}
	for i, port := range ports {
		env[fmt.Sprintf("SUBSCRIPTION_PORT_%d", i)] = strconv.Itoa(port)
	}
	for key, value := range env {
		if err := os.Setenv(key, value); err != nil {
			return "", fmt.Errorf("failed to set %s: %w", key, err)
		}
	}

	// Seed the subscription env file from the game's template
	envTemplate, err := os.ReadFile(envTemplatePath)
	if err != nil {
		return "", fmt.Errorf("failed to read env template: %w", err)
	}
	if err := atomicfile.WriteFile(m.paths.EnvFile(gameType, subscriptionID), envTemplate, 0644); err != nil {
		return "", fmt.Errorf("failed to copy env template: %w", err)
	}

	rendered, err := envsubst.ReadFile(templatePath)
	if err != nil {
		return "", fmt.Errorf("failed to render compose template: %w", err)
	}

	composeFile := m.paths.ComposeFile(gameType, subscriptionID)
	if err := atomicfile.WriteFile(composeFile, rendered, 0644); err != nil {
		return "", fmt.Errorf("failed to write compose file: %w", err)
	}

	m.logger.Info().
		Str("subscription_id", subscriptionID).
		Str("compose_file", composeFile).
		Msg("Rendered compose file")
	return composeFile, nil
}

// Start brings up the game server defined by composeFile
func (m *Manager) Start(ctx context.Context, composeFile, subscriptionID string, ports []int) types.Result {
	res := m.start(ctx, composeFile, subscriptionID, ports)
	metrics.ServerOperations.WithLabelValues(string(res.Action), string(res.Status)).Inc()
	return res
}

func (m *Manager) start(ctx context.Context, composeFile, subscriptionID string, ports []int) types.Result {
	m.logger.Info().Str("subscription_id", subscriptionID).Msg("Starting server")

	// Shared network may already exist; ignore the outcome
	_, _ = m.runner.Run(ctx, fmt.Sprintf("docker network create %s", NetworkName))

	result, err := m.runner.Run(ctx, fmt.Sprintf("docker compose -f %s up -d", composeFile))
	if err != nil || result.ExitCode != 0 {
		return types.Failure(types.ActionStart, subscriptionID,
			fmt.Errorf("failed to start server: %s", runError(result, err)))
	}

	result, err = m.runner.Run(ctx, fmt.Sprintf("docker compose -f %s ps -q", composeFile))
	if err != nil || result.ExitCode != 0 {
		return types.Failure(types.ActionStart, subscriptionID,
			fmt.Errorf("failed to get container id: %s", runError(result, err)))
	}
	containerID := strings.TrimSpace(result.Stdout)

	ipCmd := fmt.Sprintf("docker inspect -f '{{range.NetworkSettings.Networks}}{{.IPAddress}}{{end}}' %s", containerID)
	result, err = m.runner.Run(ctx, ipCmd)
	if err != nil || result.ExitCode != 0 {
		return types.Failure(types.ActionStart, subscriptionID,
			fmt.Errorf("failed to get container ip: %s", runError(result, err)))
	}
	containerIP := strings.TrimSpace(result.Stdout)

	m.trackSubscription(subscriptionID, containerID, containerIP, ports, types.StatusRunning)

	return types.Result{
		Action:         types.ActionStart,
		SubscriptionID: subscriptionID,
		Status:         types.StatusRunning,
		Success:        true,
		ContainerID:    containerID,
		ContainerIP:    containerIP,
		Ports:          ports,
	}
}

// Stop brings down the game server for a subscription
func (m *Manager) Stop(ctx context.Context, subscriptionID, gameType string) types.Result {
	res := m.stop(ctx, subscriptionID, gameType)
	metrics.ServerOperations.WithLabelValues(string(res.Action), string(res.Status)).Inc()
	return res
}

func (m *Manager) stop(ctx context.Context, subscriptionID, gameType string) types.Result {
	composeFile := m.paths.ComposeFile(gameType, subscriptionID)
	if _, err := os.Stat(composeFile); os.IsNotExist(err) {
		return types.Result{
			Action:         types.ActionStop,
			SubscriptionID: subscriptionID,
			Status:         types.StatusNotFound,
			Error:          "server doesn't exist",
		}
	}

	result, err := m.runner.Run(ctx, fmt.Sprintf("docker compose -f %s down", composeFile))
	if err != nil || result.ExitCode != 0 {
		return types.Failure(types.ActionStop, subscriptionID,
			fmt.Errorf("failed to stop server: %s", runError(result, err)))
	}

	m.trackSubscription(subscriptionID, "", "", nil, types.StatusStopped)

	return types.Result{
		Action:         types.ActionStop,
		SubscriptionID: subscriptionID,
		Status:         types.StatusStopped,
		Success:        true,
	}
}

// Restart stops and starts the game server for a subscription
func (m *Manager) Restart(ctx context.Context, subscriptionID, gameType string) types.Result {
	stopRes := m.Stop(ctx, subscriptionID, gameType)
	if !stopRes.Success {
		stopRes.Action = types.ActionRestart
		return stopRes
	}

	composeFile := m.paths.ComposeFile(gameType, subscriptionID)
	if _, err := os.Stat(composeFile); os.IsNotExist(err) {
		return types.Result{
			Action:         types.ActionRestart,
			SubscriptionID: subscriptionID,
			Status:         types.StatusNotFound,
			Error:          "server configuration not found",
		}
	}

	res := m.Start(ctx, composeFile, subscriptionID, nil)
	res.Action = types.ActionRestart
	return res
}

// Status reports the server's container state and, when running, its
// resource usage
func (m *Manager) Status(ctx context.Context, subscriptionID, gameType string) types.Result {
	composeFile := m.paths.ComposeFile(gameType, subscriptionID)
	if _, err := os.Stat(composeFile); os.IsNotExist(err) {
		return types.Result{
			Action:         types.ActionStatus,
			SubscriptionID: subscriptionID,
			Status:         types.StatusNotFound,
			Error:          "server not found",
		}
	}

	result, _ := m.runner.Run(ctx, fmt.Sprintf("docker compose -f %s ps -q", composeFile))
	containerID := strings.TrimSpace(result.Stdout)
	if containerID == "" {
		return types.Result{
			Action:         types.ActionStatus,
			SubscriptionID: subscriptionID,
			Status:         types.StatusStopped,
			Success:        true,
		}
	}

	result, _ = m.runner.Run(ctx, fmt.Sprintf("docker inspect -f '{{.State.Status}}' %s", containerID))
	state := strings.TrimSpace(result.Stdout)

	res := types.Result{
		Action:         types.ActionStatus,
		SubscriptionID: subscriptionID,
		Status:         types.Status(state),
		Success:        true,
		ContainerID:    containerID,
	}

	if state == string(types.StatusRunning) {
		res.Metrics = m.collectUsage(ctx, containerID)
	}
	return res
}

// collectUsage samples cpu, memory, and start time for a running container
func (m *Manager) collectUsage(ctx context.Context, containerID string) map[string]string {
	usage := make(map[string]string)

	result, _ := m.runner.Run(ctx, fmt.Sprintf("docker stats %s --no-stream --format '{{.CPUPerc}}'", containerID))
	usage["cpu_usage"] = strings.TrimSpace(result.Stdout)

	result, _ = m.runner.Run(ctx, fmt.Sprintf("docker stats %s --no-stream --format '{{.MemUsage}}'", containerID))
	usage["memory_usage"] = strings.TrimSpace(result.Stdout)

	result, _ = m.runner.Run(ctx, fmt.Sprintf("docker inspect --format='{{.State.StartedAt}}' %s", containerID))
	usage["started_at"] = strings.TrimSpace(result.Stdout)

	return usage
}

// UpdateConfig parses the encoded configuration through the game's
// handler and rewrites the subscription's env file
func (m *Manager) UpdateConfig(subscriptionID, gameType, encodedConfig string) types.Result {
	res := m.updateConfig(subscriptionID, gameType, encodedConfig)
	metrics.ServerOperations.WithLabelValues(string(res.Action), string(res.Status)).Inc()
	return res
}

func (m *Manager) updateConfig(subscriptionID, gameType, encodedConfig string) types.Result {
	handler, err := m.registry.Get(gameType)
	if err != nil {
		return types.Failure(types.ActionConfigure, subscriptionID, err)
	}

	cfg, err := handler.ParseConfig(encodedConfig)
	if err != nil {
		return types.Failure(types.ActionConfigure, subscriptionID, err)
	}
	if err := handler.Validate(cfg); err != nil {
		return types.Failure(types.ActionConfigure, subscriptionID,
			fmt.Errorf("invalid configuration: %w", err))
	}

	envVars, err := handler.GenerateEnv(cfg, subscriptionID)
	if err != nil {
		return types.Failure(types.ActionConfigure, subscriptionID, err)
	}

	// Deterministic file content regardless of map iteration order
	keys := make([]string, 0, len(envVars))
	for key := range envVars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		fmt.Fprintf(&b, "%s=%s\n", key, envVars[key])
	}

	envFile := m.paths.EnvFile(gameType, subscriptionID)
	if err := atomicfile.WriteFile(envFile, []byte(b.String()), 0644); err != nil {
		return types.Failure(types.ActionConfigure, subscriptionID, err)
	}

	return types.Result{
		Action:         types.ActionConfigure,
		SubscriptionID: subscriptionID,
		Status:         types.StatusConfigured,
		Success:        true,
	}
}

// trackSubscription records the latest known state in the registry
func (m *Manager) trackSubscription(subscriptionID, containerID, containerIP string, ports []int, status types.Status) {
	if m.store == nil {
		return
	}

	sub, err := m.store.GetSubscription(subscriptionID)
	if err != nil {
		sub = &types.Subscription{ID: subscriptionID}
	}
	if containerID != "" {
		sub.ContainerID = containerID
	}
	if containerIP != "" {
		sub.ContainerIP = containerIP
	}
	if len(ports) > 0 {
		sub.Ports = ports
	}
	sub.Status = status

	if err := m.store.SaveSubscription(sub); err != nil {
		m.logger.Warn().Err(err).Str("subscription_id", subscriptionID).
			Msg("Failed to update subscription registry")
	}
}

// runError renders the most useful error text from a command outcome
func runError(result execx.Result, err error) string {
	if err != nil {
		return err.Error()
	}
	if strings.TrimSpace(result.Stderr) != "" {
		return strings.TrimSpace(result.Stderr)
	}
	return fmt.Sprintf("exit code %d", result.ExitCode)
}

// backupTimeFormat names backup archives
const backupTimeFormat = "2006-01-02-15:04"

// Backup archives a subscription's server directory into a tar.gz next
// to the data, staging in a temp directory so a partial archive is never
// left at the destination
func (m *Manager) Backup(ctx context.Context, subscriptionID string) types.Result {
	res := m.backup(ctx, subscriptionID)
	metrics.ServerOperations.WithLabelValues(string(res.Action), string(res.Status)).Inc()
	return res
}

func (m *Manager) backup(ctx context.Context, subscriptionID string) types.Result {
	source := fmt.Sprintf("/srv/allservers/%s", subscriptionID)
	target := fmt.Sprintf("%s/backup-%s.tar.gz", source, time.Now().UTC().Format(backupTimeFormat))

	staging, err := os.MkdirTemp("", "garrison-backup-*")
	if err != nil {
		return types.Failure(types.ActionBackup, subscriptionID, err)
	}
	defer os.RemoveAll(staging)
	archive := staging + "/backup.tar.gz"

	result, err := m.runner.Run(ctx, fmt.Sprintf("tar -czf %s %s", archive, source))
	if err != nil || result.ExitCode != 0 {
		return types.Failure(types.ActionBackup, subscriptionID,
			fmt.Errorf("failed to archive %s: %s", source, runError(result, err)))
	}

	data, err := os.ReadFile(archive)
	if err != nil {
		return types.Failure(types.ActionBackup, subscriptionID, err)
	}
	if err := atomicfile.WriteFile(target, data, 0644); err != nil {
		return types.Failure(types.ActionBackup, subscriptionID, err)
	}

	return types.Result{
		Action:         types.ActionBackup,
		SubscriptionID: subscriptionID,
		Status:         types.StatusCompleted,
		Success:        true,
		Metrics: map[string]string{
			"backup_file": target,
			"size":        strconv.Itoa(len(data)),
		},
	}
}

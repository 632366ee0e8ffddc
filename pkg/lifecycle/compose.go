package lifecycle

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/garrison-sh/garrison/pkg/execx"
	"github.com/garrison-sh/garrison/pkg/log"
)

// ServiceStatus is the observed state of a managed service
type ServiceStatus string

const (
	StatusRunning ServiceStatus = "running"
	StatusStopped ServiceStatus = "stopped"
	StatusUnknown ServiceStatus = "unknown"
)

// Controller manages the lifecycle of a long-running compose-defined
// service: bring it down, bring it up, and report whether it is running.
type Controller interface {
	// RemoveContainer force-removes the service container. "Not found"
	// is not an error; callers use this to clear stale instances.
	RemoveContainer(ctx context.Context) error

	// Down stops the compose stack
	Down(ctx context.Context) error

	// Up starts the compose stack detached
	Up(ctx context.Context) error

	// Status reports whether the service container is running
	Status(ctx context.Context) (ServiceStatus, error)
}

// ComposeController drives a docker compose stack through the shell.
// Compose has no stable library API, so every operation shells out to
// the docker CLI via the injected Runner.
type ComposeController struct {
	runner        execx.Runner
	composeFile   string
	containerName string
	logger        zerolog.Logger
}

// NewComposeController creates a controller for the compose file and the
// container name its service declares
func NewComposeController(runner execx.Runner, composeFile, containerName string) *ComposeController {
	return &ComposeController{
		runner:        runner,
		composeFile:   composeFile,
		containerName: containerName,
		logger:        log.WithComponent("lifecycle"),
	}
}

// RemoveContainer force-removes the container if present
func (c *ComposeController) RemoveContainer(ctx context.Context) error {
	// docker rm -f exits non-zero when the container does not exist;
	// that is the expected steady state before a fresh bring-up.
	result, err := c.runner.Run(ctx, fmt.Sprintf("docker rm -f %s", c.containerName))
	if err != nil {
		return fmt.Errorf("failed to remove container %s: %w", c.containerName, err)
	}
	if result.ExitCode != 0 {
		c.logger.Debug().
			Str("container", c.containerName).
			Str("stderr", result.Stderr).
			Msg("Container removal exited non-zero")
	}
	return nil
}

// Down stops the compose stack
func (c *ComposeController) Down(ctx context.Context) error {
	result, err := c.runner.Run(ctx, fmt.Sprintf("docker compose -f %s down", c.composeFile))
	if err != nil {
		return fmt.Errorf("failed to run compose down: %w", err)
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("compose down exited with code %d: %s", result.ExitCode, result.Stderr)
	}
	return nil
}

// Up starts the compose stack detached
func (c *ComposeController) Up(ctx context.Context) error {
	result, err := c.runner.Run(ctx, fmt.Sprintf("docker compose -f %s up -d", c.composeFile))
	if err != nil {
		return fmt.Errorf("failed to run compose up: %w", err)
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("compose up exited with code %d: %s", result.ExitCode, result.Stderr)
	}
	return nil
}

// Status checks whether the service container is currently running
func (c *ComposeController) Status(ctx context.Context) (ServiceStatus, error) {
	cmd := fmt.Sprintf("docker ps --filter name=%s --format '{{.Status}}'", c.containerName)
	result, err := c.runner.Run(ctx, cmd)
	if err != nil {
		return StatusUnknown, fmt.Errorf("failed to query container status: %w", err)
	}
	if result.ExitCode != 0 {
		return StatusUnknown, nil
	}
	if strings.TrimSpace(result.Stdout) == "" {
		return StatusStopped, nil
	}
	return StatusRunning, nil
}

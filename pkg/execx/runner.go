package execx

import (
	"bytes"
	"context"
	"errors"
	"os/exec"

	"github.com/rs/zerolog"

	"github.com/garrison-sh/garrison/pkg/log"
)

// Result captures the outcome of one command execution
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner executes a shell command and captures its exit code and output.
// Implementations are synchronous; Run blocks until the command exits or
// the context is cancelled.
type Runner interface {
	Run(ctx context.Context, command string) (Result, error)
}

// ShellRunner runs commands through /bin/sh -c
type ShellRunner struct {
	logger zerolog.Logger
}

// NewShellRunner creates a runner that executes commands via the shell
func NewShellRunner() *ShellRunner {
	return &ShellRunner{
		logger: log.WithComponent("execx"),
	}
}

// Run executes command and returns its exit code, stdout, and stderr.
// A non-zero exit is reported through Result, not as an error; the error
// return is reserved for failures to start the process at all.
func (r *ShellRunner) Run(ctx context.Context, command string) (Result, error) {
	r.logger.Debug().Str("command", command).Msg("Executing command")

	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", command)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			r.logger.Warn().
				Str("command", command).
				Int("exit_code", result.ExitCode).
				Str("stderr", result.Stderr).
				Msg("Command exited non-zero")
			return result, nil
		}
		// The process never started (shell missing, context cancelled, ...)
		result.ExitCode = 1
		return result, err
	}

	return result, nil
}

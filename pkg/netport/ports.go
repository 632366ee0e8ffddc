// Package netport finds free host ports for new game server deployments
// by inspecting the listening sockets reported by ss.
package netport

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/garrison-sh/garrison/pkg/execx"
)

const (
	// DefaultStart is the first port considered for allocation
	DefaultStart = 2300
	// DefaultEnd bounds the scan range (exclusive)
	DefaultEnd = 8000
)

var listenPortPattern = regexp.MustCompile(`:(\d+)\s`)

// Scanner discovers free ports on the local host
type Scanner struct {
	runner execx.Runner
	start  int
	end    int
}

// NewScanner creates a scanner over the default port range
func NewScanner(runner execx.Runner) *Scanner {
	return &Scanner{runner: runner, start: DefaultStart, end: DefaultEnd}
}

// NewScannerRange creates a scanner over [start, end)
func NewScannerRange(runner execx.Runner, start, end int) *Scanner {
	return &Scanner{runner: runner, start: start, end: end}
}

// Available returns the first n free ports in the scanner's range
func (s *Scanner) Available(ctx context.Context, n int) ([]int, error) {
	result, err := s.runner.Run(ctx, "ss -tuln")
	if err != nil {
		return nil, fmt.Errorf("failed to list sockets: %w", err)
	}
	if result.ExitCode != 0 {
		return nil, fmt.Errorf("ss exited with code %d: %s", result.ExitCode, strings.TrimSpace(result.Stderr))
	}

	used := usedPorts(result.Stdout)

	available := make([]int, 0, n)
	for port := s.start; port < s.end && len(available) < n; port++ {
		if !used[port] {
			available = append(available, port)
		}
	}
	return available, nil
}

// usedPorts extracts listening port numbers from ss output
func usedPorts(output string) map[int]bool {
	used := make(map[int]bool)
	for _, line := range strings.Split(output, "\n") {
		match := listenPortPattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		port, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		used[port] = true
	}
	return used
}

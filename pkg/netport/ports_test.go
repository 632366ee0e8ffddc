package netport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garrison-sh/garrison/pkg/execx"
)

type staticRunner struct {
	result execx.Result
	err    error
}

func (r *staticRunner) Run(context.Context, string) (execx.Result, error) {
	return r.result, r.err
}

const sampleOutput = `Netid State  Recv-Q Send-Q Local Address:Port  Peer Address:Port
udp   UNCONN 0      0            0.0.0.0:2300       0.0.0.0:*
tcp   LISTEN 0      128          0.0.0.0:2301       0.0.0.0:*
tcp   LISTEN 0      128             [::]:2303          [::]:*
tcp   LISTEN 0      4096       127.0.0.1:8080       0.0.0.0:*
`

func TestAvailable_SkipsListeningPorts(t *testing.T) {
	scanner := NewScanner(&staticRunner{result: execx.Result{Stdout: sampleOutput}})

	ports, err := scanner.Available(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, []int{2302, 2304, 2305}, ports)
}

func TestAvailable_CustomRange(t *testing.T) {
	scanner := NewScannerRange(&staticRunner{result: execx.Result{Stdout: sampleOutput}}, 2300, 2302)

	ports, err := scanner.Available(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, ports)
}

func TestAvailable_CommandFails(t *testing.T) {
	scanner := NewScanner(&staticRunner{result: execx.Result{ExitCode: 1, Stderr: "ss: not found"}})

	_, err := scanner.Available(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ss: not found")
}

func TestUsedPorts(t *testing.T) {
	used := usedPorts(sampleOutput)
	assert.True(t, used[2300])
	assert.True(t, used[2301])
	assert.True(t, used[2303])
	assert.True(t, used[8080])
	assert.False(t, used[2302])
}

package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type invocation struct {
	name string
	args []string
}

func captureExec(t *testing.T) *[]invocation {
	t.Helper()
	var calls []invocation
	prev := execute
	execute = func(_ context.Context, name string, args ...string) error {
		calls = append(calls, invocation{name: name, args: args})
		return nil
	}
	t.Cleanup(func() { execute = prev })
	return &calls
}

func runRoot(t *testing.T, args ...string) error {
	t.Helper()
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return cmd.ExecuteContext(context.Background())
}

func TestStackCommandsRequireComposeFile(t *testing.T) {
	calls := captureExec(t)
	missing := filepath.Join(t.TempDir(), "docker-compose.yml")

	for _, sub := range []string{"up", "down", "logs"} {
		err := runRoot(t, sub, "-f", missing)
		require.Error(t, err, sub)
		assert.Contains(t, err.Error(), "not found")
	}
	assert.Empty(t, *calls)
}

func TestUpUsesComposeFile(t *testing.T) {
	calls := captureExec(t)
	file := filepath.Join(t.TempDir(), "stack.yml")
	require.NoError(t, os.WriteFile(file, []byte("services: {}\n"), 0o644))

	require.NoError(t, runRoot(t, "up", "-f", file, "--skip-build", "server"))
	require.Len(t, *calls, 1)
	got := (*calls)[0]
	assert.Equal(t, "docker", got.name)
	assert.Equal(t, []string{"compose", "-f", file, "up", "-d", "server"}, got.args)
}

func TestRepositoryShipsComposeFile(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("..", "..", "docker-compose.yml"))
	require.NoError(t, err)
	for _, service := range []string{"postgres:", "redis:", "minio:", "server:", "worker:"} {
		assert.Contains(t, string(data), service)
	}
}

func TestRunServiceRunners(t *testing.T) {
	calls := captureExec(t)
	require.NoError(t, runRoot(t, "run", "worker"))
	require.Len(t, *calls, 1)
	assert.Equal(t, "go", (*calls)[0].name)
	assert.Equal(t, []string{"run", "./cmd/worker"}, (*calls)[0].args)
}

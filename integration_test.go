//go:build integration
// +build integration

package harnessup

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Integration tests against the real uv binary.
// Run with: go test -tags=integration -v ./...

const minimalPyproject = `[project]
name = "zep-eval-harness"
version = "0.1.0"
requires-python = ">=3.9"
dependencies = []
`

func requireUV(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("uv"); err != nil {
		t.Skip("uv not available, skipping integration tests")
	}
}

func TestIntegration_SetupWithUV(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	requireUV(t)

	ws, config := newTestWorkspace(t, true)
	writeFile(t, filepath.Join(ws.HarnessPath(), "pyproject.toml"), minimalPyproject)
	writeFile(t, filepath.Join(ws.Root, ".env.example"), "ZEP_API_KEY=\nOPENAI_API_KEY=\n")

	console, out := plainConsole()
	var childOut bytes.Buffer
	result, err := Setup(context.Background(), SetupOptions{
		Workspace: ws,
		Config:    config,
		Console:   console,
		Stdout:    &childOut,
		Stderr:    &childOut,
	})
	require.NoError(t, err, "uv output:\n%s", childOut.String())

	assert.Equal(t, EnvCreated, result.Env)
	assert.DirExists(t, filepath.Join(ws.HarnessPath(), ".venv"))
	assert.FileExists(t, filepath.Join(ws.HarnessPath(), "uv.lock"))
	assert.Contains(t, out.String(), "Setup Complete!")
}

func TestIntegration_SetupWithBrokenProject(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	requireUV(t)

	ws, config := newTestWorkspace(t, true)
	writeFile(t, filepath.Join(ws.HarnessPath(), "pyproject.toml"), "[project\nthis is not toml")
	writeFile(t, filepath.Join(ws.Root, ".env.example"), "ZEP_API_KEY=\n")

	console, _ := plainConsole()
	_, err := Setup(context.Background(), SetupOptions{
		Workspace: ws,
		Config:    config,
		Console:   console,
		Stdout:    &bytes.Buffer{},
		Stderr:    &bytes.Buffer{},
	})
	require.Error(t, err)
	assert.NotEqual(t, 0, ExitCode(err))

	_, statErr := os.Stat(filepath.Join(ws.Root, ".env"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestIntegration_DoctorWithUV(t *testing.T) {
	requireUV(t)

	ws, config := newTestWorkspace(t, true)
	checks := Doctor(context.Background(), ws, config, DoctorOptions{})

	byName := checksByName(checks)
	assert.Equal(t, CheckOK, byName["uv installed"].Status, byName["uv installed"].Detail)
}

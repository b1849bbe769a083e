package harnessup

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

// newTestWorkspace creates a workspace root in a temp dir. With harness set,
// the harness directory is created too.
func newTestWorkspace(t *testing.T, harness bool) (*Workspace, *Config) {
	t.Helper()

	config := DefaultConfig()
	root := t.TempDir()
	if harness {
		require.NoError(t, os.MkdirAll(filepath.Join(root, config.HarnessDir), 0755))
	}

	ws, err := OpenWorkspace(root, config)
	require.NoError(t, err)
	return ws, config
}

func plainConsole() (*Console, *bytes.Buffer) {
	var buf bytes.Buffer
	return &Console{Out: &buf}, &buf
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

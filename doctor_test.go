package harnessup

import (
	"context"
	"errors"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeDoctorOptions(version string, host map[string]string) DoctorOptions {
	return DoctorOptions{
		LookPath: func(name string) (string, error) {
			if version == "" {
				return "", errors.New("not found")
			}
			return "/usr/local/bin/" + name, nil
		},
		ToolVersion: func(ctx context.Context, tool string) (string, error) {
			return version, nil
		},
		LookupEnv: func(key string) (string, bool) {
			value, found := host[key]
			return value, found
		},
	}
}

func checksByName(checks []Check) map[string]Check {
	out := make(map[string]Check)
	for _, c := range checks {
		out[c.Name] = c
	}
	return out
}

func TestDoctor_ReadyWorkspace(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("zep-eval-harness", 0755))
	require.NoError(t, util.WriteFile(fs, ".env.example", []byte("ZEP_API_KEY=\nOPENAI_API_KEY=\n"), 0644))
	require.NoError(t, util.WriteFile(fs, ".env", []byte("ZEP_API_KEY=z\n"), 0644))

	ws := NewWorkspace("/work", DefaultHarnessDir, fs)
	checks := Doctor(context.Background(), ws, DefaultConfig(), fakeDoctorOptions("uv 0.5.1 (abc 2024-10-01)", map[string]string{"OPENAI_API_KEY": "o"}))

	assert.False(t, Failed(checks), "checks: %+v", checks)
	byName := checksByName(checks)
	assert.Equal(t, CheckOK, byName["uv installed"].Status)
	assert.Equal(t, "uv 0.5.1", byName["uv installed"].Detail)
	assert.Equal(t, CheckOK, byName["harness directory"].Status)
	assert.Equal(t, CheckOK, byName[".env"].Status)
	assert.Equal(t, CheckOK, byName["credentials"].Status)
}

func TestDoctor_EmptyWorkspace(t *testing.T) {
	ws := NewWorkspace("/work", DefaultHarnessDir, memfs.New())
	checks := Doctor(context.Background(), ws, DefaultConfig(), fakeDoctorOptions("", nil))

	assert.True(t, Failed(checks))
	byName := checksByName(checks)
	assert.Equal(t, CheckFail, byName["uv installed"].Status)
	assert.Equal(t, CheckFail, byName["harness directory"].Status)
	assert.Equal(t, CheckWarn, byName[".env.example"].Status)
	assert.Equal(t, CheckWarn, byName[".env"].Status)
	assert.Equal(t, CheckFail, byName["credentials"].Status)
	assert.Equal(t, "not set: ZEP_API_KEY, OPENAI_API_KEY", byName["credentials"].Detail)
}

func TestDoctor_OldTool(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("zep-eval-harness", 0755))

	ws := NewWorkspace("/work", DefaultHarnessDir, fs)
	host := map[string]string{"ZEP_API_KEY": "z", "OPENAI_API_KEY": "o"}
	checks := Doctor(context.Background(), ws, DefaultConfig(), fakeDoctorOptions("uv 0.3.9", host))

	byName := checksByName(checks)
	assert.Equal(t, CheckFail, byName["uv installed"].Status)
	assert.Contains(t, byName["uv installed"].Detail, "older than required 0.4.0")
}

func TestDoctor_UnparsableVersionWarns(t *testing.T) {
	ws := NewWorkspace("/work", DefaultHarnessDir, memfs.New())
	checks := Doctor(context.Background(), ws, DefaultConfig(), fakeDoctorOptions("uv development build", nil))

	assert.Equal(t, CheckWarn, checksByName(checks)["uv installed"].Status)
}

func TestParseToolVersion(t *testing.T) {
	tests := []struct {
		output  string
		want    string
		wantErr bool
	}{
		{output: "uv 0.4.18 (f2e4ee4 2024-09-29)", want: "0.4.18"},
		{output: "uv 0.5.0\n", want: "0.5.0"},
		{output: "pip 24.2 from /usr/lib/python3/site-packages/pip (python 3.12)", want: "24.2.0"},
		{output: "no version here", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.output, func(t *testing.T) {
			got, err := ParseToolVersion(tt.output)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

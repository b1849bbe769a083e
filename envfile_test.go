package harnessup

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaterializeEnv(t *testing.T) {
	tests := []struct {
		name        string
		env         *string
		example     *string
		wantOutcome EnvOutcome
		wantEnv     *string
	}{
		{
			name:        "copies example when env is absent",
			example:     ptr("ZEP_API_KEY=\nOPENAI_API_KEY=\n"),
			wantOutcome: EnvCreated,
			wantEnv:     ptr("ZEP_API_KEY=\nOPENAI_API_KEY=\n"),
		},
		{
			name:        "copies empty example",
			example:     ptr(""),
			wantOutcome: EnvCreated,
			wantEnv:     ptr(""),
		},
		{
			name:        "keeps existing env",
			env:         ptr("ZEP_API_KEY=mine\n"),
			example:     ptr("ZEP_API_KEY=\n"),
			wantOutcome: EnvExists,
			wantEnv:     ptr("ZEP_API_KEY=mine\n"),
		},
		{
			name:        "keeps existing env without example",
			env:         ptr("anything"),
			wantOutcome: EnvExists,
			wantEnv:     ptr("anything"),
		},
		{
			name:        "does nothing when both are absent",
			wantOutcome: EnvMissing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := memfs.New()
			if tt.env != nil {
				require.NoError(t, util.WriteFile(fs, ".env", []byte(*tt.env), 0644))
			}
			if tt.example != nil {
				require.NoError(t, util.WriteFile(fs, ".env.example", []byte(*tt.example), 0644))
			}

			outcome, err := MaterializeEnv(fs, ".env", ".env.example")
			require.NoError(t, err)
			assert.Equal(t, tt.wantOutcome, outcome)

			data, err := util.ReadFile(fs, ".env")
			if tt.wantEnv == nil {
				assert.True(t, os.IsNotExist(err), "expected no .env, got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, *tt.wantEnv, string(data))
		})
	}
}

func TestMaterializeEnv_Idempotent(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, ".env.example", []byte("A=1\n"), 0644))

	outcome, err := MaterializeEnv(fs, ".env", ".env.example")
	require.NoError(t, err)
	assert.Equal(t, EnvCreated, outcome)

	// user edits, template changes
	require.NoError(t, util.WriteFile(fs, ".env", []byte("A=edited\n"), 0644))
	require.NoError(t, util.WriteFile(fs, ".env.example", []byte("A=2\nB=3\n"), 0644))

	outcome, err = MaterializeEnv(fs, ".env", ".env.example")
	require.NoError(t, err)
	assert.Equal(t, EnvExists, outcome)

	data, err := util.ReadFile(fs, ".env")
	require.NoError(t, err)
	assert.Equal(t, "A=edited\n", string(data))
}

func TestMaterializeEnv_KeepsTemplatePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env.example"), []byte("A=1\n"), 0600))

	outcome, err := MaterializeEnv(osfs.New(root), ".env", ".env.example")
	require.NoError(t, err)
	assert.Equal(t, EnvCreated, outcome)

	info, err := os.Stat(filepath.Join(root, ".env"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestEnvOutcomeString(t *testing.T) {
	assert.Equal(t, "created", EnvCreated.String())
	assert.Equal(t, "exists", EnvExists.String())
	assert.Equal(t, "missing", EnvMissing.String())
	assert.Equal(t, "EnvOutcome(9)", EnvOutcome(9).String())
}

func TestReadEnvFile(t *testing.T) {
	fs := memfs.New()
	content := "# credentials\nZEP_API_KEY=z_123\nexport OPENAI_API_KEY=\"sk-abc\"\nEMPTY=\n"
	require.NoError(t, util.WriteFile(fs, ".env", []byte(content), 0644))

	env, err := ReadEnvFile(fs, ".env")
	require.NoError(t, err)
	assert.Equal(t, "z_123", env["ZEP_API_KEY"])
	assert.Equal(t, "sk-abc", env["OPENAI_API_KEY"])
	assert.Equal(t, "", env["EMPTY"])

	_, err = ReadEnvFile(fs, "missing.env")
	assert.True(t, os.IsNotExist(err))
}

func TestMissingKeys(t *testing.T) {
	required := []string{"ZEP_API_KEY", "OPENAI_API_KEY"}
	host := map[string]string{"OPENAI_API_KEY": "from-host"}
	lookup := func(key string) (string, bool) {
		value, found := host[key]
		return value, found
	}

	tests := []struct {
		name   string
		env    map[string]string
		lookup func(string) (string, bool)
		want   []string
	}{
		{
			name: "all in env file",
			env:  map[string]string{"ZEP_API_KEY": "z", "OPENAI_API_KEY": "o"},
		},
		{
			name:   "host fills the gap",
			env:    map[string]string{"ZEP_API_KEY": "z", "OPENAI_API_KEY": ""},
			lookup: lookup,
		},
		{
			name:   "empty values are missing",
			env:    map[string]string{"ZEP_API_KEY": ""},
			lookup: lookup,
			want:   []string{"ZEP_API_KEY"},
		},
		{
			name: "no env file and no lookup",
			want: []string{"ZEP_API_KEY", "OPENAI_API_KEY"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MissingKeys(tt.env, required, tt.lookup))
		})
	}
}

func ptr(s string) *string {
	return &s
}

package harnessup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderInstructions_Plain(t *testing.T) {
	data := InstructionsData{
		HarnessDir:     "zep-eval-harness",
		EnvFile:        "/work/.env",
		EnvExampleFile: ".env.example",
		EvaluateScript: "zep_evaluate.py",
	}

	out, err := RenderInstructions(data, false)
	require.NoError(t, err)

	assert.Contains(t, out, "`/work/.env`")
	assert.Contains(t, out, "ZEP_API_KEY")
	assert.Contains(t, out, "OPENAI_API_KEY")
	assert.Contains(t, out, "https://app.getzep.com")
	assert.Contains(t, out, "https://platform.openai.com/api-keys")
	assert.Contains(t, out, "cd zep-eval-harness")
	assert.Contains(t, out, "uv run zep_evaluate.py")
	assert.NotContains(t, out, "was created")

	data.EnvMissing = true
	out, err = RenderInstructions(data, false)
	require.NoError(t, err)
	assert.Contains(t, out, "No `/work/.env` was created because `.env.example` is missing")
}

func TestRenderInstructions_Styled(t *testing.T) {
	out, err := RenderInstructions(InstructionsData{HarnessDir: "zep-eval-harness", EvaluateScript: "zep_evaluate.py"}, true)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestNewInstructionsData(t *testing.T) {
	ws, config := newTestWorkspace(t, true)

	data := NewInstructionsData(ws, config, EnvMissing)
	assert.Equal(t, "zep-eval-harness", data.HarnessDir)
	assert.Equal(t, ws.Root+"/.env", data.EnvFile)
	assert.True(t, data.EnvMissing)
	assert.False(t, NewInstructionsData(ws, config, EnvCreated).EnvMissing)
}

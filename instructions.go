package harnessup

import (
	"bytes"
	_ "embed"
	"fmt"
	"path/filepath"
	"text/template"

	"charm.land/glamour/v2"
)

// InstructionsMD is the onboarding text printed at the end of the setup.
//
//go:embed embedded/instructions.md
var InstructionsMD string

var instructionsTemplate = template.Must(template.New("instructions").Parse(InstructionsMD))

// InstructionsData fills the onboarding template
type InstructionsData struct {
	HarnessDir     string
	EnvFile        string
	EnvExampleFile string
	EvaluateScript string
	EnvMissing     bool
}

// NewInstructionsData derives the template data from a workspace
func NewInstructionsData(workspace *Workspace, config *Config, env EnvOutcome) InstructionsData {
	return InstructionsData{
		HarnessDir:     workspace.HarnessDir,
		EnvFile:        filepath.Join(workspace.Root, config.EnvFile),
		EnvExampleFile: config.EnvExampleFile,
		EvaluateScript: config.EvaluateScript,
		EnvMissing:     env == EnvMissing,
	}
}

// RenderInstructions returns the onboarding text. With styled set, the
// markdown is rendered for a terminal.
func RenderInstructions(data InstructionsData, styled bool) (string, error) {
	var buf bytes.Buffer
	if err := instructionsTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render instructions: %w", err)
	}

	if !styled {
		return buf.String(), nil
	}

	out, err := glamour.Render(buf.String(), "dark")
	if err != nil {
		return "", fmt.Errorf("failed to render instructions markdown: %w", err)
	}
	return out, nil
}

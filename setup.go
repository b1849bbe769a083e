package harnessup

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"
)

// SetupOptions configures Setup
type SetupOptions struct {
	Workspace *Workspace
	Config    *Config
	Console   *Console

	// Stdin, Stdout and Stderr are inherited by the sync command
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// SetupResult describes a completed setup
type SetupResult struct {
	// WorkDir is the harness directory, where the user continues from
	WorkDir string

	// Env tells what happened to the env file
	Env EnvOutcome
}

// Setup bootstraps the workspace: it syncs the harness dependencies, creates
// the env file from its template when absent and prints the onboarding text.
//
// Steps run in order and the first failure aborts the run: a missing harness
// directory returns ErrHarnessDirNotFound before anything else happens, a
// failing sync command returns a *CommandError carrying its exit status and
// nothing after it runs. Nothing done before a failure is rolled back.
func Setup(ctx context.Context, opts SetupOptions) (*SetupResult, error) {
	ws, config, console := opts.Workspace, opts.Config, opts.Console

	console.Banner("Zep Eval Harness - Development Setup")

	if err := ws.CheckHarnessDir(); err != nil {
		return nil, err
	}

	console.Step("Installing %s dependencies...", ws.HarnessDir)
	zlog.Info("syncing harness dependencies",
		zap.String("dir", ws.HarnessPath()),
		zap.Strings("command", config.SyncCommand))

	err := RunCommand(ctx, config.SyncCommand, CommandOptions{
		Dir:    ws.HarnessPath(),
		Stdin:  opts.Stdin,
		Stdout: opts.Stdout,
		Stderr: opts.Stderr,
	})
	if err != nil {
		return nil, err
	}
	console.Success("Dependencies installed")

	outcome, err := MaterializeEnv(ws.FS, config.EnvFile, config.EnvExampleFile)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare %s: %w", config.EnvFile, err)
	}

	switch outcome {
	case EnvCreated:
		console.Success("Created %s from %s", config.EnvFile, config.EnvExampleFile)
	case EnvExists:
		console.Note("%s already exists, leaving it untouched", config.EnvFile)
	case EnvMissing:
		console.Warn("Neither %s nor %s found, create %s before running the evaluation", config.EnvFile, config.EnvExampleFile, config.EnvFile)
	}

	instructions, err := RenderInstructions(NewInstructionsData(ws, config, outcome), console.Styled)
	if err != nil {
		return nil, err
	}

	console.Step("")
	console.Banner("Setup Complete!")
	console.Print(instructions)

	return &SetupResult{
		WorkDir: ws.HarnessPath(),
		Env:     outcome,
	}, nil
}

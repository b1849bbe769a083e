package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	. "github.com/streamingfast/cli"
	"github.com/streamingfast/harnessup"
	"go.uber.org/zap"
)

var setupFlags = func(flags *pflag.FlagSet) {
	workspaceFlags(flags)
}

var SetupCommand = Command(setupE,
	"setup",
	"Install the harness dependencies and prepare the .env file",
	Description(`
		Prepares the workspace for the evaluation harness:
		- Runs the dependency sync (uv sync) inside zep-eval-harness/
		- Copies .env.example to .env at the workspace root when .env does not exist
		- Prints the next steps

		An existing .env is never modified. The first failing step stops the
		setup and its exit status becomes harnessup's exit status.

		This is also what running 'harnessup' without a command does.
	`),
	Flags(setupFlags),
)

// setupE bootstraps the workspace
func setupE(cmd *cobra.Command, args []string) error {
	wctx, err := LoadWorkspaceContext(cmd)
	if err != nil {
		return err
	}

	ctx, stop := commandContext(cmd)
	defer stop()

	result, err := harnessup.Setup(ctx, harnessup.SetupOptions{
		Workspace: wctx.Workspace,
		Config:    wctx.Config,
		Console:   wctx.Console,
		Stdin:     os.Stdin,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
	})
	if err != nil {
		return err
	}

	zlog.Debug("setup completed",
		zap.String("work_dir", result.WorkDir),
		zap.Stringer("env", result.Env))
	return nil
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	. "github.com/streamingfast/cli"
	"github.com/streamingfast/harnessup"
)

var DoctorCommand = Command(doctorE,
	"doctor",
	"Check that the workspace is ready to run the evaluation",
	Description(`
		Reports, without changing anything:
		- Whether the sync tool (uv) is installed and recent enough
		- Whether the zep-eval-harness/ directory exists
		- Whether .env.example and .env are present
		- Whether ZEP_API_KEY and OPENAI_API_KEY are set, in .env or in the environment

		Exits with status 1 when a check fails. Warnings do not fail.
	`),
	Flags(func(flags *pflag.FlagSet) {
		workspaceFlags(flags)
	}),
)

// doctorE prints the workspace checks
func doctorE(cmd *cobra.Command, args []string) error {
	wctx, err := LoadWorkspaceContext(cmd)
	if err != nil {
		return err
	}

	ctx, stop := commandContext(cmd)
	defer stop()

	console := wctx.Console
	console.Banner("Workspace: " + wctx.Workspace.Root)
	if wctx.ConfigFile != nil {
		console.Note("config: %s", wctx.ConfigFile.Path)
	}

	checks := harnessup.Doctor(ctx, wctx.Workspace, wctx.Config, harnessup.DoctorOptions{})
	for _, check := range checks {
		switch check.Status {
		case harnessup.CheckOK:
			console.Success("%s: %s", check.Name, check.Detail)
		case harnessup.CheckWarn:
			console.Warn("%s: %s", check.Name, check.Detail)
		case harnessup.CheckFail:
			console.Fail("%s: %s", check.Name, check.Detail)
		}
	}

	if harnessup.Failed(checks) {
		return fmt.Errorf("workspace is not ready")
	}
	return nil
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	. "github.com/streamingfast/cli"
	"github.com/streamingfast/harnessup"
)

var EnvGroup = Group("env", "Manage the .env file read by the evaluation",
	Command(envInitE,
		"init",
		"Create .env from .env.example when .env does not exist",
		Flags(func(flags *pflag.FlagSet) {
			workspaceFlags(flags)
		}),
	),
	Command(envCheckE,
		"check",
		"Show where each required variable comes from",
		Flags(func(flags *pflag.FlagSet) {
			workspaceFlags(flags)
		}),
	),
)

// envInitE materializes the env file without running the dependency sync
func envInitE(cmd *cobra.Command, args []string) error {
	wctx, err := LoadWorkspaceContext(cmd)
	if err != nil {
		return err
	}

	config := wctx.Config
	outcome, err := harnessup.MaterializeEnv(wctx.Workspace.FS, config.EnvFile, config.EnvExampleFile)
	if err != nil {
		return fmt.Errorf("failed to prepare %s: %w", config.EnvFile, err)
	}

	switch outcome {
	case harnessup.EnvCreated:
		wctx.Console.Success("Created %s from %s", config.EnvFile, config.EnvExampleFile)
	case harnessup.EnvExists:
		wctx.Console.Note("%s already exists, leaving it untouched", config.EnvFile)
	case harnessup.EnvMissing:
		wctx.Console.Warn("%s not found, nothing to copy", config.EnvExampleFile)
	}
	return nil
}

// envCheckE lists the required variables with their source
func envCheckE(cmd *cobra.Command, args []string) error {
	wctx, err := LoadWorkspaceContext(cmd)
	if err != nil {
		return err
	}

	config := wctx.Config
	env, err := harnessup.ReadEnvFile(wctx.Workspace.FS, config.EnvFile)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	cmd.Println("Required variables:")
	cmd.Println()
	for _, name := range config.RequiredEnv {
		switch {
		case env[name] != "":
			cmd.Printf("  %s  [%s]\n", name, config.EnvFile)
		case os.Getenv(name) != "":
			cmd.Printf("  %s  (from host)\n", name)
		default:
			cmd.Printf("  %s  (not set)\n", name)
		}
	}

	if missing := harnessup.MissingKeys(env, config.RequiredEnv, os.LookupEnv); len(missing) > 0 {
		cmd.Println()
		cmd.Printf("Hint: set missing variables in %s before running the evaluation.\n", config.EnvFile)
		return fmt.Errorf("%d required variable(s) not set", len(missing))
	}
	return nil
}

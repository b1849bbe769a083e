package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/streamingfast/harnessup"
)

// WorkspaceContext contains the resolved configuration for a workspace.
// Every command starts from it.
type WorkspaceContext struct {
	Config     *harnessup.Config
	ConfigFile *harnessup.ConfigFile
	Workspace  *harnessup.Workspace
	Console    *harnessup.Console
}

// LoadWorkspaceContext loads the configuration and opens the workspace
// selected by the --workspace flag.
func LoadWorkspaceContext(cmd *cobra.Command) (*WorkspaceContext, error) {
	workspaceDir, err := getWorkspaceDir(cmd)
	if err != nil {
		return nil, err
	}

	config, configFile, err := harnessup.LoadConfig(workspaceDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	workspace, err := harnessup.OpenWorkspace(workspaceDir, config)
	if err != nil {
		return nil, fmt.Errorf("failed to open workspace: %w", err)
	}

	noColor, _ := cmd.Flags().GetBool("no-color")

	return &WorkspaceContext{
		Config:     config,
		ConfigFile: configFile,
		Workspace:  workspace,
		Console:    harnessup.NewConsole(cmd.OutOrStdout(), noColor),
	}, nil
}

// workspaceFlags registers the flags shared by the commands operating on a workspace
func workspaceFlags(flags *pflag.FlagSet) {
	flags.StringP("workspace", "w", "", "Workspace directory (default: current directory)")
	flags.Bool("no-color", false, "Disable styled output")
}

// getWorkspaceDir extracts the workspace directory from the --workspace flag
// or defaults to the current working directory.
func getWorkspaceDir(cmd *cobra.Command) (string, error) {
	workspaceDir, err := cmd.Flags().GetString("workspace")
	if err != nil {
		return "", fmt.Errorf("failed to get workspace flag: %w", err)
	}
	if workspaceDir == "" {
		workspaceDir, err = os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current directory: %w", err)
		}
	}
	return workspaceDir, nil
}

// commandContext is cancelled on SIGINT and SIGTERM
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

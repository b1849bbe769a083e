package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	. "github.com/streamingfast/cli"
	"github.com/streamingfast/harnessup"
)

var ConfigCommand = Command(configE,
	"config [key] [value]",
	"View or edit configuration settings",
	Description(`
		Without arguments, displays the effective configuration.
		With a key, displays that setting's value.
		With key and value, sets the option in harnessup.yaml (the nearest one
		found from the workspace upwards, or a new one at the workspace root).
	`),
	Flags(func(flags *pflag.FlagSet) {
		workspaceFlags(flags)
	}),
)

// configE views or edits configuration
func configE(cmd *cobra.Command, args []string) error {
	wctx, err := LoadWorkspaceContext(cmd)
	if err != nil {
		return err
	}
	config := wctx.Config

	values := map[string]string{
		"harness_dir":      config.HarnessDir,
		"sync_command":     strings.Join(config.SyncCommand, " "),
		"run_command":      strings.Join(config.RunCommand, " "),
		"env_file":         config.EnvFile,
		"env_example_file": config.EnvExampleFile,
		"required_env":     strings.Join(config.RequiredEnv, ","),
		"min_tool_version": config.MinToolVersion,
		"evaluate_script":  config.EvaluateScript,
		"evaluate_timeout": config.EvaluateTimeout.String(),
		"grid":             formatGrid(config.ParamGrid()),
	}
	keys := []string{"harness_dir", "sync_command", "run_command", "env_file", "env_example_file", "required_env", "min_tool_version", "evaluate_script", "evaluate_timeout", "grid"}

	if len(args) == 0 {
		if wctx.ConfigFile != nil {
			cmd.Printf("Configuration (%s):\n", wctx.ConfigFile.Path)
		} else {
			cmd.Println("Configuration (defaults):")
		}
		for _, key := range keys {
			cmd.Printf("  %s: %s\n", key, values[key])
		}
		return nil
	}

	key := args[0]

	if len(args) == 1 {
		value, found := values[key]
		if !found {
			return fmt.Errorf("unknown config key: %s", key)
		}
		cmd.Println(value)
		return nil
	}

	if len(args) > 2 {
		return fmt.Errorf("expected at most 2 arguments, got %d", len(args))
	}

	value := args[1]
	switch key {
	case "harness_dir":
		if value == "" || filepath.IsAbs(value) {
			return fmt.Errorf("harness_dir must be a relative path")
		}
		config.HarnessDir = value
	case "sync_command":
		if config.SyncCommand = strings.Fields(value); len(config.SyncCommand) == 0 {
			return fmt.Errorf("sync_command cannot be empty")
		}
	case "run_command":
		if config.RunCommand = strings.Fields(value); len(config.RunCommand) == 0 {
			return fmt.Errorf("run_command cannot be empty")
		}
	case "env_file":
		config.EnvFile = value
	case "env_example_file":
		config.EnvExampleFile = value
	case "required_env":
		config.RequiredEnv = splitList(value)
	case "min_tool_version":
		config.MinToolVersion = value
	case "evaluate_script":
		config.EvaluateScript = value
	case "evaluate_timeout":
		timeout, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid evaluate_timeout: %w", err)
		}
		config.EvaluateTimeout = timeout
	case "grid":
		grid, err := harnessup.ParseGrid(splitList(value))
		if err != nil {
			return err
		}
		config.Grid = grid
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}

	path := filepath.Join(wctx.Workspace.Root, harnessup.ConfigFileName)
	if wctx.ConfigFile != nil {
		path = wctx.ConfigFile.Path
	}

	if err := harnessup.SaveConfig(path, config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	cmd.Printf("Set %s = %s (%s)\n", key, value, path)
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func formatGrid(grid []harnessup.GridPoint) string {
	points := make([]string, 0, len(grid))
	for _, point := range grid {
		points = append(points, point.String())
	}
	return strings.Join(points, ",")
}

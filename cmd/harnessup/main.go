package main

import (
	"fmt"
	"os"

	. "github.com/streamingfast/cli"
	"github.com/streamingfast/harnessup"
	"github.com/streamingfast/logging"
	"go.uber.org/zap"
)

// Version is set via ldflags at build time
var version = "dev"

var zlog, _ = logging.PackageLogger("harnessup", "github.com/streamingfast/harnessup/cmd/harnessup")

func init() {
	logging.InstantiateLoggers(logging.WithDefaultLevel(zap.DPanicLevel))
}

func main() {
	Run(
		"harnessup <command>",
		"Bootstrap and tune the Zep evaluation harness workspace",

		ConfigureVersion(version),
		ConfigureViper("HARNESSUP"),

		// Default command (no subcommand = setup)
		Execute(setupE),
		Flags(setupFlags),

		SetupCommand,
		DoctorCommand,
		OptimizeCommand,
		OntologyGroup,
		EnvGroup,
		ConfigCommand,

		OnCommandError(func(err error) {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			zlog.Debug("command error", zap.Error(err))
			os.Exit(harnessup.ExitCode(err))
		}),
	)
}

package harnessup

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"
)

// CheckStatus is the outcome of a single doctor check
type CheckStatus string

const (
	CheckOK   CheckStatus = "ok"
	CheckWarn CheckStatus = "warn"
	CheckFail CheckStatus = "fail"
)

// Check is one line of the doctor report
type Check struct {
	Name   string
	Status CheckStatus
	Detail string
}

// DoctorOptions lets callers substitute the host lookups
type DoctorOptions struct {
	// LookPath resolves a binary on PATH, defaults to exec.LookPath
	LookPath func(string) (string, error)

	// ToolVersion returns the raw `<tool> --version` output
	ToolVersion func(ctx context.Context, tool string) (string, error)

	// LookupEnv reads the process environment, defaults to os.LookupEnv
	LookupEnv func(string) (string, bool)
}

func (o *DoctorOptions) setDefaults() {
	if o.LookPath == nil {
		o.LookPath = exec.LookPath
	}
	if o.ToolVersion == nil {
		o.ToolVersion = func(ctx context.Context, tool string) (string, error) {
			return RunCommandOutput(ctx, []string{tool, "--version"}, CommandOptions{})
		}
	}
	if o.LookupEnv == nil {
		o.LookupEnv = os.LookupEnv
	}
}

// Doctor reports whether the workspace is ready to run the evaluation. It
// never modifies the workspace.
func Doctor(ctx context.Context, ws *Workspace, config *Config, opts DoctorOptions) []Check {
	opts.setDefaults()

	checks := []Check{checkTool(ctx, config, opts)}

	if err := ws.CheckHarnessDir(); err != nil {
		checks = append(checks, Check{Name: "harness directory", Status: CheckFail, Detail: err.Error()})
	} else {
		checks = append(checks, Check{Name: "harness directory", Status: CheckOK, Detail: ws.HarnessPath()})
	}

	checks = append(checks, checkEnvFiles(ws, config, opts)...)

	for _, c := range checks {
		zlog.Debug("doctor check", zap.String("name", c.Name), zap.String("status", string(c.Status)), zap.String("detail", c.Detail))
	}
	return checks
}

// Failed reports whether any check failed
func Failed(checks []Check) bool {
	for _, c := range checks {
		if c.Status == CheckFail {
			return true
		}
	}
	return false
}

func checkTool(ctx context.Context, config *Config, opts DoctorOptions) Check {
	tool := config.SyncCommand[0]
	name := fmt.Sprintf("%s installed", tool)

	path, err := opts.LookPath(tool)
	if err != nil {
		return Check{Name: name, Status: CheckFail, Detail: fmt.Sprintf("%s not found on PATH", tool)}
	}

	if config.MinToolVersion == "" {
		return Check{Name: name, Status: CheckOK, Detail: path}
	}

	constraint, err := semver.NewConstraint(">= " + config.MinToolVersion)
	if err != nil {
		return Check{Name: name, Status: CheckWarn, Detail: fmt.Sprintf("invalid min_tool_version %q: %s", config.MinToolVersion, err)}
	}

	output, err := opts.ToolVersion(ctx, path)
	if err != nil {
		return Check{Name: name, Status: CheckWarn, Detail: fmt.Sprintf("unable to get %s version: %s", tool, err)}
	}

	version, err := ParseToolVersion(output)
	if err != nil {
		return Check{Name: name, Status: CheckWarn, Detail: err.Error()}
	}

	if !constraint.Check(version) {
		return Check{Name: name, Status: CheckFail, Detail: fmt.Sprintf("%s %s is older than required %s", tool, version, config.MinToolVersion)}
	}
	return Check{Name: name, Status: CheckOK, Detail: fmt.Sprintf("%s %s", tool, version)}
}

// ParseToolVersion extracts the first semantic version of a `--version` output
// such as "uv 0.4.18 (f2e4ee4 2024-09-29)".
func ParseToolVersion(output string) (*semver.Version, error) {
	for _, field := range strings.Fields(output) {
		if version, err := semver.NewVersion(field); err == nil {
			return version, nil
		}
	}
	return nil, fmt.Errorf("no version found in %q", strings.TrimSpace(output))
}

func checkEnvFiles(ws *Workspace, config *Config, opts DoctorOptions) []Check {
	var checks []Check

	hasExample, err := exists(ws.FS, config.EnvExampleFile)
	switch {
	case err != nil:
		checks = append(checks, Check{Name: config.EnvExampleFile, Status: CheckWarn, Detail: err.Error()})
	case hasExample:
		checks = append(checks, Check{Name: config.EnvExampleFile, Status: CheckOK, Detail: "present"})
	default:
		checks = append(checks, Check{Name: config.EnvExampleFile, Status: CheckWarn, Detail: "missing, setup cannot create " + config.EnvFile})
	}

	env, err := ReadEnvFile(ws.FS, config.EnvFile)
	switch {
	case os.IsNotExist(err):
		checks = append(checks, Check{Name: config.EnvFile, Status: CheckWarn, Detail: "missing, run 'harnessup' or 'harnessup env init'"})
		env = nil
	case err != nil:
		checks = append(checks, Check{Name: config.EnvFile, Status: CheckFail, Detail: err.Error()})
		env = nil
	default:
		checks = append(checks, Check{Name: config.EnvFile, Status: CheckOK, Detail: fmt.Sprintf("%d variables", len(env))})
	}

	if missing := MissingKeys(env, config.RequiredEnv, opts.LookupEnv); len(missing) > 0 {
		checks = append(checks, Check{Name: "credentials", Status: CheckFail, Detail: "not set: " + strings.Join(missing, ", ")})
	} else {
		checks = append(checks, Check{Name: "credentials", Status: CheckOK, Detail: strings.Join(config.RequiredEnv, ", ")})
	}

	return checks
}

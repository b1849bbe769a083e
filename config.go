package harnessup

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the name of the optional configuration file looked up from
// the workspace directory upwards.
const ConfigFileName = "harnessup.yaml"

// DefaultHarnessDir is the sub-project directory holding the evaluation harness.
const DefaultHarnessDir = "zep-eval-harness"

// Config holds the harnessup settings
type Config struct {
	// HarnessDir is the sub-project directory, relative to the workspace root
	HarnessDir string `yaml:"harness_dir"`

	// SyncCommand is the dependency-sync command run inside HarnessDir
	SyncCommand []string `yaml:"sync_command"`

	// RunCommand prefixes the evaluation script when the optimizer runs it
	RunCommand []string `yaml:"run_command"`

	// EnvFile and EnvExampleFile live at the workspace root
	EnvFile        string `yaml:"env_file"`
	EnvExampleFile string `yaml:"env_example_file"`

	// RequiredEnv lists the keys the evaluation script needs
	RequiredEnv []string `yaml:"required_env"`

	// MinToolVersion is the minimum accepted version of the sync tool (semver constraint ">= MinToolVersion")
	MinToolVersion string `yaml:"min_tool_version"`

	// EvaluateScript is the evaluation entry point inside HarnessDir
	EvaluateScript string `yaml:"evaluate_script"`

	// EvaluateTimeout bounds a single optimizer trial
	EvaluateTimeout time.Duration `yaml:"evaluate_timeout"`

	// Grid overrides the default optimizer parameter grid
	Grid []GridPoint `yaml:"grid,omitempty"`
}

// ConfigFile contains info about a loaded harnessup.yaml file
type ConfigFile struct {
	// Path is the absolute path to the file
	Path string

	// Dir is the directory containing the file
	Dir string
}

// DefaultConfig returns the settings used when no configuration file exists.
func DefaultConfig() *Config {
	return &Config{
		HarnessDir:      DefaultHarnessDir,
		SyncCommand:     []string{"uv", "sync"},
		RunCommand:      []string{"uv", "run"},
		EnvFile:         ".env",
		EnvExampleFile:  ".env.example",
		RequiredEnv:     []string{"ZEP_API_KEY", "OPENAI_API_KEY"},
		MinToolVersion:  "0.4.0",
		EvaluateScript:  "zep_evaluate.py",
		EvaluateTimeout: 10 * time.Minute,
	}
}

// FindConfigFile searches for a harnessup.yaml file starting from the given
// directory and walking up the directory tree. Returns nil if none is found.
func FindConfigFile(startDir string) (*ConfigFile, error) {
	absPath, err := filepath.Abs(startDir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	currentDir := absPath
	for {
		candidate := filepath.Join(currentDir, ConfigFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			zlog.Debug("found config file", zap.String("path", candidate))
			return &ConfigFile{Path: candidate, Dir: currentDir}, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir || parentDir == "." {
			break
		}
		currentDir = parentDir
	}

	zlog.Debug("no config file found", zap.String("start_dir", absPath))
	return nil, nil
}

// LoadConfig loads the configuration that applies to workspaceDir. Values absent
// from the file keep their defaults. Returns the defaults and a nil ConfigFile
// when no file is found.
func LoadConfig(workspaceDir string) (*Config, *ConfigFile, error) {
	config := DefaultConfig()

	file, err := FindConfigFile(workspaceDir)
	if err != nil {
		return nil, nil, err
	}
	if file == nil {
		return config, nil, nil
	}

	data, err := os.ReadFile(file.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, nil, fmt.Errorf("failed to parse config file %s: %w", file.Path, err)
	}

	if err := config.validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config file %s: %w", file.Path, err)
	}

	zlog.Debug("loaded config",
		zap.String("config_path", file.Path),
		zap.String("harness_dir", config.HarnessDir),
		zap.Strings("sync_command", config.SyncCommand),
		zap.Duration("evaluate_timeout", config.EvaluateTimeout))

	return config, file, nil
}

// SaveConfig writes config to path as YAML
func SaveConfig(path string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	zlog.Debug("saved config", zap.String("config_path", path))
	return nil
}

// ParamGrid returns the configured grid, or DefaultGrid when none is set.
func (c *Config) ParamGrid() []GridPoint {
	if len(c.Grid) > 0 {
		return c.Grid
	}
	return DefaultGrid()
}

func (c *Config) validate() error {
	if c.HarnessDir == "" {
		return fmt.Errorf("harness_dir cannot be empty")
	}
	if filepath.IsAbs(c.HarnessDir) {
		return fmt.Errorf("harness_dir must be relative to the workspace, got %q", c.HarnessDir)
	}
	if len(c.SyncCommand) == 0 {
		return fmt.Errorf("sync_command cannot be empty")
	}
	if len(c.RunCommand) == 0 {
		return fmt.Errorf("run_command cannot be empty")
	}
	if c.EvaluateTimeout < 0 {
		return fmt.Errorf("evaluate_timeout cannot be negative")
	}
	for _, point := range c.Grid {
		if err := point.Validate(); err != nil {
			return fmt.Errorf("invalid grid point: %w", err)
		}
	}
	return nil
}

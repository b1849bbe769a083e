package harnessup

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"
)

// EnvOutcome tells what MaterializeEnv did
type EnvOutcome int

const (
	// EnvCreated means the env file was copied from its template
	EnvCreated EnvOutcome = iota
	// EnvExists means the env file was already present and left untouched
	EnvExists
	// EnvMissing means neither the env file nor its template exist
	EnvMissing
)

func (o EnvOutcome) String() string {
	switch o {
	case EnvCreated:
		return "created"
	case EnvExists:
		return "exists"
	case EnvMissing:
		return "missing"
	default:
		return fmt.Sprintf("EnvOutcome(%d)", int(o))
	}
}

// MaterializeEnv copies exampleName to envName when envName does not exist.
// An existing envName is never modified. When both files are absent nothing
// happens and EnvMissing is returned without error.
func MaterializeEnv(fs billy.Filesystem, envName, exampleName string) (EnvOutcome, error) {
	present, err := exists(fs, envName)
	if err != nil {
		return 0, err
	}
	if present {
		zlog.Debug("env file already exists, leaving it untouched", zap.String("env_file", envName))
		return EnvExists, nil
	}

	info, err := fs.Stat(exampleName)
	if err != nil {
		if os.IsNotExist(err) {
			zlog.Debug("no env file and no template", zap.String("env_file", envName), zap.String("template", exampleName))
			return EnvMissing, nil
		}
		return 0, fmt.Errorf("failed to stat %q: %w", exampleName, err)
	}

	data, err := util.ReadFile(fs, exampleName)
	if err != nil {
		return 0, fmt.Errorf("failed to read %q: %w", exampleName, err)
	}

	// O_EXCL keeps a file created between the check above and here intact
	f, err := fs.OpenFile(envName, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return EnvExists, nil
		}
		return 0, fmt.Errorf("failed to create %q: %w", envName, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return 0, fmt.Errorf("failed to write %q: %w", envName, err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("failed to close %q: %w", envName, err)
	}

	zlog.Info("created env file from template",
		zap.String("env_file", envName),
		zap.String("template", exampleName),
		zap.Int("bytes", len(data)))

	return EnvCreated, nil
}

// ReadEnvFile parses a dotenv file
func ReadEnvFile(fs billy.Basic, name string) (map[string]string, error) {
	f, err := fs.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	env, err := gotenv.StrictParse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %q: %w", name, err)
	}
	return env, nil
}

// MissingKeys returns the required keys that have no value, neither in env nor
// through lookup (typically os.LookupEnv).
func MissingKeys(env map[string]string, required []string, lookup func(string) (string, bool)) []string {
	var missing []string
	for _, key := range required {
		if env[key] != "" {
			continue
		}
		if lookup != nil {
			if value, found := lookup(key); found && value != "" {
				continue
			}
		}
		missing = append(missing, key)
	}
	return missing
}

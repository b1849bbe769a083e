package harnessup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"go.uber.org/zap"
)

// ErrHarnessDirNotFound is returned when the harness sub-project directory is
// missing from the workspace.
var ErrHarnessDirNotFound = errors.New("harness directory not found")

// Workspace is the contest workspace root. All file operations go through FS,
// rooted at Root, so no step depends on the process working directory.
type Workspace struct {
	// Root is the absolute path of the workspace root
	Root string

	// HarnessDir is the sub-project directory, relative to Root
	HarnessDir string

	// FS is rooted at Root
	FS billy.Filesystem
}

// OpenWorkspace returns the workspace rooted at dir, backed by the OS filesystem.
func OpenWorkspace(dir string, config *Config) (*Workspace, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	return NewWorkspace(absPath, config.HarnessDir, osfs.New(absPath)), nil
}

// NewWorkspace returns a workspace over an arbitrary filesystem; root is only
// used for display and for spawning processes.
func NewWorkspace(root, harnessDir string, fs billy.Filesystem) *Workspace {
	return &Workspace{
		Root:       root,
		HarnessDir: harnessDir,
		FS:         fs,
	}
}

// HarnessPath returns the absolute path of the harness directory
func (w *Workspace) HarnessPath() string {
	return filepath.Join(w.Root, w.HarnessDir)
}

// CheckHarnessDir returns ErrHarnessDirNotFound (wrapped) unless the harness
// directory exists and is a directory.
func (w *Workspace) CheckHarnessDir() error {
	info, err := w.FS.Stat(w.HarnessDir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrHarnessDirNotFound, w.HarnessPath())
		}
		return fmt.Errorf("failed to stat harness directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrHarnessDirNotFound, w.HarnessPath())
	}
	return nil
}

// HarnessFS returns a filesystem rooted at the harness directory
func (w *Workspace) HarnessFS() (billy.Filesystem, error) {
	if err := w.CheckHarnessDir(); err != nil {
		return nil, err
	}

	fs, err := w.FS.Chroot(w.HarnessDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open harness directory: %w", err)
	}

	zlog.Debug("opened harness filesystem", zap.String("path", w.HarnessPath()))
	return fs, nil
}

func exists(fs billy.Basic, name string) (bool, error) {
	_, err := fs.Stat(name)
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, fmt.Errorf("failed to stat %q: %w", name, err)
	}
}

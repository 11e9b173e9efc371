package platform

import (
	"errors"
	"os"
	"path/filepath"
)

// ErrRootNotFound is returned by FindRoot when no marker exists above the
// start directory.
var ErrRootNotFound = errors.New("root not found")

// FindRoot looks upwards from startDir for a directory holding a
// .sparklet directory or a sparklet.yaml file.
func FindRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if hasFile(dir, ".sparklet") || hasFile(dir, ConfigFileName) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrRootNotFound
		}
		dir = parent
	}
}

func hasFile(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}

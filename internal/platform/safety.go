package platform

import (
	"os"
	"path/filepath"
	"strings"
)

// IsDevRun checks if the current process is running via `go run` or `go test`.
// It relies on the fact that these commands build binaries in temporary directories.
func IsDevRun() bool {
	exe, err := os.Executable()
	if err != nil {
		return false
	}

	if strings.HasPrefix(strings.ToLower(exe), strings.ToLower(os.TempDir())) {
		return true
	}
	return strings.HasSuffix(exe, ".test") || strings.HasSuffix(exe, ".test.exe")
}

// ResolveDataPath returns where local data should live. With forceTemp the
// path is re-rooted under <tmp>/sparklet-dev, unless it already lies inside
// the temp directory.
func ResolveDataPath(userPath string, forceTemp bool) string {
	if !forceTemp {
		if userPath == "" {
			return "."
		}
		return userPath
	}

	cleanUserPath := filepath.Clean(userPath)
	rel, err := filepath.Rel(os.TempDir(), cleanUserPath)
	if err == nil && filepath.IsAbs(cleanUserPath) && !strings.HasPrefix(rel, "..") {
		return cleanUserPath
	}

	subName := filepath.Base(userPath)
	if userPath == "" || subName == "." || subName == string(os.PathSeparator) {
		subName = "default"
	}
	return filepath.Join(os.TempDir(), "sparklet-dev", subName)
}

package platform_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/sparklet/internal/platform"
)

func TestResolveDataPath(t *testing.T) {
	t.Parallel()

	tempRoot := os.TempDir()
	devBase := filepath.Join(tempRoot, "sparklet-dev")

	tests := []struct {
		name      string
		userPath  string
		forceTemp bool
		expected  string
	}{
		{name: "Normal Mode - Current Dir", userPath: ".", expected: "."},
		{name: "Normal Mode - Empty", userPath: "", expected: "."},
		{name: "Normal Mode - Specific Path", userPath: "/some/path", expected: "/some/path"},
		{name: "Dev Mode - Empty Path", userPath: "", forceTemp: true, expected: filepath.Join(devBase, "default")},
		{name: "Dev Mode - Current Dir", userPath: ".", forceTemp: true, expected: filepath.Join(devBase, "default")},
		{name: "Dev Mode - Relative Name", userPath: "my-notes", forceTemp: true, expected: filepath.Join(devBase, "my-notes")},
		{name: "Dev Mode - Clean Name", userPath: "../bad/path", forceTemp: true, expected: filepath.Join(devBase, "path")},
		{
			name:      "Dev Mode - Exception for Temp Dir",
			userPath:  filepath.Join(tempRoot, "my-test"),
			forceTemp: true,
			expected:  filepath.Join(tempRoot, "my-test"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := platform.ResolveDataPath(tt.userPath, tt.forceTemp)
			if got != tt.expected {
				t.Errorf("ResolveDataPath(%q, %v) = %q; want %q", tt.userPath, tt.forceTemp, got, tt.expected)
			}
		})
	}
}

func TestIsDevRun(t *testing.T) {
	// Running under "go test" always counts as a dev run.
	if !platform.IsDevRun() {
		t.Errorf("IsDevRun() = false; want true inside go test")
	}
}

package chromecamera

import (
	"os"
	"runtime"
	"testing"
)

func TestResolveChromePath_ExplicitPath(t *testing.T) {
	if got := ResolveChromePath("/custom/path/to/chrome"); got != "/custom/path/to/chrome" {
		t.Errorf("expected explicit path to be returned, got %s", got)
	}
}

func TestResolveChromePath_EnvVar(t *testing.T) {
	t.Setenv("CHROME_PATH", "/env/chrome")

	if got := ResolveChromePath(""); got != "/env/chrome" {
		t.Errorf("expected CHROME_PATH to be used, got %s", got)
	}
	if got := ResolveChromePath("/explicit/chrome"); got != "/explicit/chrome" {
		t.Errorf("expected explicit path to take precedence, got %s", got)
	}
}

func TestResolveExecutable(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantPath bool
	}{
		{"existing command", "go", true},
		{"non-existing command", "definitely-not-a-real-command-xyz123", false},
		{"non-existing full path", "/definitely/not/a/real/path/chrome", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolveExecutable(tt.input)
			if tt.wantPath && got == "" {
				t.Errorf("expected path for %s, got empty", tt.input)
			}
			if !tt.wantPath && got != "" {
				t.Errorf("expected empty for %s, got %s", tt.input, got)
			}
		})
	}
}

func TestResolveExecutable_FullPath(t *testing.T) {
	testPath := "/bin/sh"
	if runtime.GOOS == "windows" {
		testPath = os.Getenv("COMSPEC")
	}
	if testPath == "" {
		t.Skip("No known executable path for this platform")
	}
	if got := resolveExecutable(testPath); got != testPath {
		t.Errorf("expected %s, got %s", testPath, got)
	}
}

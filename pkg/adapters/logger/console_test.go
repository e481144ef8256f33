package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/user/certscan/pkg/ports"
)

func TestConsoleLogger_Levels(t *testing.T) {
	var out, errOut bytes.Buffer
	log := NewWriter(ports.LevelInfo, &out, &errOut)

	log.Debug("hidden %d", 1)
	log.Info("shown %d", 2)
	log.Warn("warned %d", 3)
	log.Error("failed %d", 4)

	if strings.Contains(out.String(), "hidden") {
		t.Errorf("debug line written at info level: %q", out.String())
	}
	if !strings.Contains(out.String(), "shown 2") {
		t.Errorf("stdout = %q, want info line", out.String())
	}
	if !strings.Contains(errOut.String(), "warned 3") || !strings.Contains(errOut.String(), "failed 4") {
		t.Errorf("stderr = %q, want warn and error lines", errOut.String())
	}
}

func TestConsoleLogger_Quiet(t *testing.T) {
	var out, errOut bytes.Buffer
	log := NewWriter(ports.LevelQuiet, &out, &errOut)
	log.Error("nothing")
	if out.Len()+errOut.Len() != 0 {
		t.Errorf("quiet logger wrote %q %q", out.String(), errOut.String())
	}
}

func TestConsoleLogger_WithComponent(t *testing.T) {
	var out bytes.Buffer
	log := NewWriter(ports.LevelDebug, &out, &out)

	log.WithComponent("scan").WithComponent("capture").Info("Camera released")

	if got := strings.TrimSpace(out.String()); got != "[scan.capture] Camera released" {
		t.Errorf("line = %q", got)
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/user/certscan/pkg/ports"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Device.Kind != DeviceChrome {
		t.Errorf("Device.Kind = %q, want chrome", cfg.Device.Kind)
	}
	if cfg.Constraints.Width != 1280 || cfg.Constraints.Height != 720 {
		t.Errorf("constraints = %dx%d, want 1280x720", cfg.Constraints.Width, cfg.Constraints.Height)
	}
	if cfg.Constraints.Facing != "environment" {
		t.Errorf("Facing = %q", cfg.Constraints.Facing)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFromFile_YAML(t *testing.T) {
	path := writeConfig(t, "certscan.yaml", `
device:
  kind: ffmpeg
  input: qr.mp4
  loop: true
scanning:
  refresh_hz: 30
verification:
  verify_url: https://api.example.com
  token: secret
log_level: debug
`)

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cfg.Device.Kind != DeviceFFmpeg || cfg.Device.Input != "qr.mp4" || !cfg.Device.Loop {
		t.Errorf("Device = %+v", cfg.Device)
	}
	if cfg.Scanning.RefreshHz != 30 {
		t.Errorf("RefreshHz = %v, want 30", cfg.Scanning.RefreshHz)
	}
	if cfg.Verification.VerifyURL != "https://api.example.com" || cfg.Verification.Token != "secret" {
		t.Errorf("Verification = %+v", cfg.Verification)
	}
	// Untouched values keep their defaults.
	if cfg.Verification.VerifyPath != "/certificate/verify" {
		t.Errorf("VerifyPath = %q", cfg.Verification.VerifyPath)
	}
	if cfg.Constraints.Width != 1280 {
		t.Errorf("Width = %d", cfg.Constraints.Width)
	}
}

func TestLoadFromFile_TOML(t *testing.T) {
	path := writeConfig(t, "certscan.toml", `
log_level = "warn"

[device]
kind = "images"
images = ["a.png", "frames/*.jpg"]

[constraints]
facing = "user"

[debug]
enabled = true
every = 10
`)

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cfg.Device.Kind != DeviceImages || len(cfg.Device.Images) != 2 {
		t.Errorf("Device = %+v", cfg.Device)
	}
	if cfg.Constraints.Facing != "user" {
		t.Errorf("Facing = %q", cfg.Constraints.Facing)
	}
	if !cfg.Debug.Enabled || cfg.Debug.Every != 10 || cfg.Debug.Dir != "./debug" {
		t.Errorf("Debug = %+v", cfg.Debug)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
}

func TestLoadFromFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"bad yaml", "c.yaml", "device: [unclosed"},
		{"bad toml", "c.toml", "device = "},
		{"unknown device", "c.yaml", "device:\n  kind: webcam\n"},
		{"unknown facing", "c.yaml", "constraints:\n  facing: left\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadFromFile(writeConfig(t, tt.file, tt.content)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "none.yaml")); err == nil {
		t.Error("expected error for a missing file")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"CERTSCAN_TOKEN":      "env-token",
		"CERTSCAN_VERIFY_URL": "https://env.example.com",
		"CHROME_PATH":         "/opt/chrome",
		"FFMPEG_PATH":         "/opt/ffmpeg",
	}
	cfg := Defaults()
	cfg.Device.FFmpegPath = "/usr/local/bin/ffmpeg"
	cfg.ApplyEnv(func(k string) string { return env[k] })

	if cfg.Verification.Token != "env-token" {
		t.Errorf("Token = %q", cfg.Verification.Token)
	}
	if cfg.Verification.VerifyURL != "https://env.example.com" {
		t.Errorf("VerifyURL = %q", cfg.Verification.VerifyURL)
	}
	if cfg.Device.ChromePath != "/opt/chrome" {
		t.Errorf("ChromePath = %q", cfg.Device.ChromePath)
	}
	if cfg.Device.FFmpegPath != "/usr/local/bin/ffmpeg" {
		t.Errorf("configured FFmpegPath should win, got %q", cfg.Device.FFmpegPath)
	}
}

func TestActivateBaseURL(t *testing.T) {
	cfg := Defaults()
	cfg.Verification.VerifyURL = "https://verify.example.com"
	if got := cfg.ActivateBaseURL(); got != "https://verify.example.com" {
		t.Errorf("ActivateBaseURL = %q, want verify URL fallback", got)
	}
	cfg.Verification.ActivateURL = "https://admin.example.com"
	if got := cfg.ActivateBaseURL(); got != "https://admin.example.com" {
		t.Errorf("ActivateBaseURL = %q", got)
	}
}

func TestToOrchestratorConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Constraints.Facing = "user"
	cfg.Scanning.TimeoutMs = 5000
	cfg.Debug.Every = 3

	oc := cfg.ToOrchestratorConfig()
	if oc.Constraints.Facing != ports.FacingUser || oc.Constraints.IdealWidth != 1280 {
		t.Errorf("Constraints = %+v", oc.Constraints)
	}
	if oc.TimeoutMs != 5000 || oc.DebugEvery != 3 || oc.RefreshHz != 60 {
		t.Errorf("orchestrator config = %+v", oc)
	}
	if oc.Origin != "http://localhost" {
		t.Errorf("Origin = %q", oc.Origin)
	}
}

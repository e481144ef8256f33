// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/user/certscan/pkg/orchestrator"
	"github.com/user/certscan/pkg/ports"
)

// Device kinds.
const (
	DeviceChrome = "chrome"
	DeviceFFmpeg = "ffmpeg"
	DeviceImages = "images"
	DeviceGoCV   = "gocv"
)

// Config represents the full configuration for certscan.
type Config struct {
	Device       DeviceConfig       `yaml:"device" toml:"device"`
	Constraints  ConstraintsConfig  `yaml:"constraints" toml:"constraints"`
	Scanning     ScanningConfig     `yaml:"scanning" toml:"scanning"`
	Verification VerificationConfig `yaml:"verification" toml:"verification"`
	Debug        DebugConfig        `yaml:"debug" toml:"debug"`

	LogLevel string `yaml:"log_level" toml:"log_level"`
}

// DeviceConfig selects and configures the capture device.
type DeviceConfig struct {
	Kind string `yaml:"kind" toml:"kind"`

	// ffmpeg / gocv
	Input      string  `yaml:"input" toml:"input"`
	Format     string  `yaml:"format" toml:"format"`
	FFmpegPath string  `yaml:"ffmpeg_path" toml:"ffmpeg_path"`
	FrameRate  float64 `yaml:"frame_rate" toml:"frame_rate"`
	Loop       bool    `yaml:"loop" toml:"loop"`

	// chrome
	ChromePath     string `yaml:"chrome_path" toml:"chrome_path"`
	InstallBrowser bool   `yaml:"install_browser" toml:"install_browser"`
	Headless       bool   `yaml:"headless" toml:"headless"`
	FakeVideo      string `yaml:"fake_video" toml:"fake_video"`
	RequireGesture bool   `yaml:"require_gesture" toml:"require_gesture"`

	// images
	Images []string `yaml:"images" toml:"images"`
	Hold   int      `yaml:"hold" toml:"hold"`
}

// ConstraintsConfig is the requested stream.
type ConstraintsConfig struct {
	Facing string `yaml:"facing" toml:"facing"`
	Width  int    `yaml:"width" toml:"width"`
	Height int    `yaml:"height" toml:"height"`
}

// ScanningConfig tunes the sampling loop.
type ScanningConfig struct {
	RefreshHz float64 `yaml:"refresh_hz" toml:"refresh_hz"`
	TryHarder bool    `yaml:"try_harder" toml:"try_harder"`
	TimeoutMs int     `yaml:"timeout_ms" toml:"timeout_ms"`
}

// VerificationConfig points at the certificate service.
type VerificationConfig struct {
	VerifyURL    string `yaml:"verify_url" toml:"verify_url"`
	ActivateURL  string `yaml:"activate_url" toml:"activate_url"`
	VerifyPath   string `yaml:"verify_path" toml:"verify_path"`
	ActivatePath string `yaml:"activate_path" toml:"activate_path"`
	Token        string `yaml:"token" toml:"token"`
	TimeoutMs    int    `yaml:"timeout_ms" toml:"timeout_ms"`

	// Origin is the origin capture is requested from.
	Origin string `yaml:"origin" toml:"origin"`
}

// DebugConfig enables debug frames and reports.
type DebugConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Dir     string `yaml:"dir" toml:"dir"`
	// Every also saves every n-th missed frame (0 = decoded frames only).
	Every int `yaml:"every" toml:"every"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	c := ports.DefaultConstraints()
	return Config{
		Device: DeviceConfig{
			Kind:     DeviceChrome,
			Headless: true,
			Hold:     1,
		},
		Constraints: ConstraintsConfig{
			Facing: string(c.Facing),
			Width:  c.IdealWidth,
			Height: c.IdealHeight,
		},
		Scanning: ScanningConfig{
			RefreshHz: 60,
		},
		Verification: VerificationConfig{
			VerifyPath:   "/certificate/verify",
			ActivatePath: "/qr/activate",
			TimeoutMs:    10000,
			Origin:       "http://localhost",
		},
		Debug: DebugConfig{
			Dir: "./debug",
		},
		LogLevel: "info",
	}
}

// LoadFromFile loads configuration from a YAML file, or a TOML file when the
// name ends in .toml. Values missing from the file keep their defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, cfg.Validate()
}

// ApplyEnv overrides secrets and tool paths from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("CERTSCAN_TOKEN"); v != "" {
		c.Verification.Token = v
	}
	if v := getenv("CERTSCAN_VERIFY_URL"); v != "" {
		c.Verification.VerifyURL = v
	}
	if v := getenv("CERTSCAN_ACTIVATE_URL"); v != "" {
		c.Verification.ActivateURL = v
	}
	if v := getenv("CHROME_PATH"); v != "" && c.Device.ChromePath == "" {
		c.Device.ChromePath = v
	}
	if v := getenv("FFMPEG_PATH"); v != "" && c.Device.FFmpegPath == "" {
		c.Device.FFmpegPath = v
	}
}

// Validate checks values that would otherwise fail deep inside a run.
func (c Config) Validate() error {
	switch c.Device.Kind {
	case DeviceChrome, DeviceFFmpeg, DeviceImages, DeviceGoCV:
	default:
		return fmt.Errorf("unknown device kind %q", c.Device.Kind)
	}
	switch ports.FacingMode(c.Constraints.Facing) {
	case ports.FacingEnvironment, ports.FacingUser:
	default:
		return fmt.Errorf("unknown facing mode %q", c.Constraints.Facing)
	}
	if c.Scanning.RefreshHz < 0 {
		return fmt.Errorf("refresh_hz must not be negative")
	}
	return nil
}

// ActivateBaseURL returns the activation base URL, which defaults to the verify URL.
func (c Config) ActivateBaseURL() string {
	if c.Verification.ActivateURL != "" {
		return c.Verification.ActivateURL
	}
	return c.Verification.VerifyURL
}

// VerifyTimeout returns the per-request timeout.
func (c Config) VerifyTimeout() time.Duration {
	return time.Duration(c.Verification.TimeoutMs) * time.Millisecond
}

// ToOrchestratorConfig converts Config to orchestrator.Config.
func (c Config) ToOrchestratorConfig() orchestrator.Config {
	return orchestrator.Config{
		Origin: c.Verification.Origin,
		Constraints: ports.Constraints{
			Facing:      ports.FacingMode(c.Constraints.Facing),
			IdealWidth:  c.Constraints.Width,
			IdealHeight: c.Constraints.Height,
		},
		RefreshHz:  c.Scanning.RefreshHz,
		TimeoutMs:  c.Scanning.TimeoutMs,
		DebugEvery: c.Debug.Every,
	}
}

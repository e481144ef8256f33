// Package main provides the CLI entry point for certscan.
package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/user/certscan/pkg/adapters/chromecamera"
	"github.com/user/certscan/pkg/adapters/ffmpegcamera"
	"github.com/user/certscan/pkg/adapters/filesink"
	"github.com/user/certscan/pkg/adapters/ggrenderer"
	"github.com/user/certscan/pkg/adapters/gocvcamera"
	"github.com/user/certscan/pkg/adapters/httpverifier"
	"github.com/user/certscan/pkg/adapters/imagecamera"
	"github.com/user/certscan/pkg/adapters/logger"
	"github.com/user/certscan/pkg/adapters/nullsink"
	"github.com/user/certscan/pkg/adapters/osfilesystem"
	"github.com/user/certscan/pkg/adapters/qrdecoder"
	"github.com/user/certscan/pkg/adapters/termview"
	"github.com/user/certscan/pkg/config"
	"github.com/user/certscan/pkg/orchestrator"
	"github.com/user/certscan/pkg/ports"
	"github.com/user/certscan/pkg/scan"
)

var version = "dev"

// Flag categories.
const (
	catDevice       = "Device"
	catScanning     = "Scanning"
	catVerification = "Verification"
	catDebug        = "Debug"
	catOutput       = "Output"
	catLogging      = "Logging"
)

func main() {
	app := &cli.App{
		Name:           "certscan",
		Usage:          l10n.T("Scan certificate QR codes with a camera and verify them"),
		Version:        version,
		DefaultCommand: "scan",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: l10n.T("Configuration file (YAML or TOML)"), EnvVars: []string{"CERTSCAN_CONFIG"}},
			&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Usage: l10n.T("Log level (debug, info, warn, error)"), Category: l10n.T(catLogging)},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"Q"}, Usage: l10n.T("Suppress all log output"), Category: l10n.T(catLogging)},
		},
		Commands: []*cli.Command{
			scanCommand(),
			decodeCommand(),
			activateCommand(),
			{
				Name:  "version",
				Usage: l10n.T("Show version information"),
				Action: func(c *cli.Context) error {
					fmt.Println(l10n.F("certscan version %s", version))
					return nil
				},
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func scanCommand() *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: l10n.T("Scan a certificate QR code and verify it"),
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "device", Aliases: []string{"d"}, Usage: l10n.T("Capture device (chrome, ffmpeg, images, gocv)"), Category: l10n.T(catDevice)},
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: l10n.T("Camera name, device path or video file"), Category: l10n.T(catDevice)},
			&cli.StringFlag{Name: "format", Usage: l10n.T("ffmpeg capture format (v4l2, avfoundation, dshow)"), Category: l10n.T(catDevice)},
			&cli.StringSliceFlag{Name: "image", Usage: l10n.T("Image file or glob to replay as camera frames"), Category: l10n.T(catDevice)},
			&cli.BoolFlag{Name: "loop", Usage: l10n.T("Replay the video or images forever"), Category: l10n.T(catDevice)},
			&cli.StringFlag{Name: "chrome-path", Usage: l10n.T("Path to Chrome executable"), Category: l10n.T(catDevice)},
			&cli.BoolFlag{Name: "install-browser", Usage: l10n.T("Install Chromium when no browser is found"), Category: l10n.T(catDevice)},
			&cli.BoolFlag{Name: "no-headless", Usage: l10n.T("Show the browser window"), Category: l10n.T(catDevice)},
			&cli.StringFlag{Name: "fake-video", Usage: l10n.T("Feed a .y4m or .mjpeg file to the browser as the camera"), Category: l10n.T(catDevice)},
			&cli.BoolFlag{Name: "require-gesture", Usage: l10n.T("Wait for a user gesture before playback starts"), Category: l10n.T(catDevice)},
			&cli.StringFlag{Name: "facing", Usage: l10n.T("Preferred camera (environment, user)"), Category: l10n.T(catDevice)},
			&cli.IntFlag{Name: "width", Usage: l10n.T("Ideal frame width"), Category: l10n.T(catDevice)},
			&cli.IntFlag{Name: "height", Usage: l10n.T("Ideal frame height"), Category: l10n.T(catDevice)},

			&cli.Float64Flag{Name: "refresh-hz", Usage: l10n.T("Sampling rate in frames per second"), Category: l10n.T(catScanning)},
			&cli.BoolFlag{Name: "try-harder", Usage: l10n.T("Spend more time per frame looking for a code"), Category: l10n.T(catScanning)},
			&cli.IntFlag{Name: "timeout", Usage: l10n.T("Give up after this many milliseconds (0 = never)"), Category: l10n.T(catScanning)},

			&cli.StringFlag{Name: "verify-url", Usage: l10n.T("Base URL of the verification API"), Category: l10n.T(catVerification)},
			&cli.StringFlag{Name: "activate-url", Usage: l10n.T("Base URL of the activation API"), Category: l10n.T(catVerification)},
			&cli.StringFlag{Name: "token", Usage: l10n.T("Bearer token for the API"), Category: l10n.T(catVerification)},
			&cli.StringFlag{Name: "origin", Usage: l10n.T("Origin the camera is requested from"), Category: l10n.T(catVerification)},

			&cli.BoolFlag{Name: "debug", Usage: l10n.T("Save decoded frames and a JSON report"), Category: l10n.T(catDebug)},
			&cli.StringFlag{Name: "debug-dir", Usage: l10n.T("Directory for debug output"), Category: l10n.T(catDebug)},
			&cli.IntFlag{Name: "debug-every", Usage: l10n.T("Also save every n-th missed frame"), Category: l10n.T(catDebug)},

			&cli.StringFlag{Name: "summary", Usage: l10n.T("Write a report of the run (Markdown, or JSON for .json files)"), Category: l10n.T(catOutput)},
			&cli.BoolFlag{Name: "tui", Usage: l10n.T("Run the interactive terminal view"), Category: l10n.T(catOutput)},
		},
		Action: runScan,
	}
}

func decodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "decode",
		Usage:     l10n.T("Decode a QR code from an image file"),
		ArgsUsage: "<image>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "try-harder", Usage: l10n.T("Spend more time looking for a code")},
			&cli.StringFlag{Name: "annotate", Usage: l10n.T("Write the image with the detection drawn on it")},
		},
		Action: runDecode,
	}
}

func activateCommand() *cli.Command {
	return &cli.Command{
		Name:      "activate",
		Usage:     l10n.T("Mark a verified certificate as used"),
		ArgsUsage: "<code>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "activate-url", Usage: l10n.T("Base URL of the activation API")},
			&cli.StringFlag{Name: "token", Usage: l10n.T("Bearer token for the API")},
		},
		Action: runActivate,
	}
}

// loadConfig builds the effective configuration: defaults, file, environment, flags.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.LoadFromFile(path); err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
	}
	cfg.ApplyEnv(os.Getenv)

	setString := func(name string, dst *string) {
		if c.IsSet(name) {
			*dst = c.String(name)
		}
	}
	setInt := func(name string, dst *int) {
		if c.IsSet(name) {
			*dst = c.Int(name)
		}
	}
	setBool := func(name string, dst *bool) {
		if c.IsSet(name) {
			*dst = c.Bool(name)
		}
	}

	setString("log-level", &cfg.LogLevel)
	setString("device", &cfg.Device.Kind)
	setString("input", &cfg.Device.Input)
	setString("format", &cfg.Device.Format)
	setBool("loop", &cfg.Device.Loop)
	setString("chrome-path", &cfg.Device.ChromePath)
	setBool("install-browser", &cfg.Device.InstallBrowser)
	setString("fake-video", &cfg.Device.FakeVideo)
	setBool("require-gesture", &cfg.Device.RequireGesture)
	setString("facing", &cfg.Constraints.Facing)
	setInt("width", &cfg.Constraints.Width)
	setInt("height", &cfg.Constraints.Height)
	setBool("try-harder", &cfg.Scanning.TryHarder)
	setInt("timeout", &cfg.Scanning.TimeoutMs)
	setString("verify-url", &cfg.Verification.VerifyURL)
	setString("activate-url", &cfg.Verification.ActivateURL)
	setString("token", &cfg.Verification.Token)
	setString("origin", &cfg.Verification.Origin)
	setBool("debug", &cfg.Debug.Enabled)
	setString("debug-dir", &cfg.Debug.Dir)
	setInt("debug-every", &cfg.Debug.Every)
	if c.IsSet("no-headless") {
		cfg.Device.Headless = !c.Bool("no-headless")
	}
	if c.IsSet("image") {
		cfg.Device.Images = c.StringSlice("image")
	}
	if c.IsSet("refresh-hz") {
		cfg.Scanning.RefreshHz = c.Float64("refresh-hz")
	}

	return cfg, cfg.Validate()
}

func newLogger(c *cli.Context, cfg config.Config, out io.Writer) ports.Logger {
	if c.Bool("quiet") || out == nil {
		return logger.NewNoop()
	}
	return logger.NewWriter(ports.ParseLogLevel(cfg.LogLevel), out, out)
}

func newDevice(cfg config.Config, fs ports.FileSystem, log ports.Logger) ports.CaptureDevice {
	d := cfg.Device
	switch d.Kind {
	case config.DeviceFFmpeg:
		return ffmpegcamera.New(ffmpegcamera.Options{
			FFmpegPath: d.FFmpegPath,
			Input:      d.Input,
			Format:     d.Format,
			FrameRate:  d.FrameRate,
			Loop:       d.Loop,
		}, log)
	case config.DeviceImages:
		return imagecamera.New(imagecamera.Options{
			Patterns:       d.Images,
			Hold:           d.Hold,
			Loop:           d.Loop,
			RequireGesture: d.RequireGesture,
		}, fs, log)
	case config.DeviceGoCV:
		return gocvcamera.New(gocvcamera.Options{DeviceID: d.Input}, log)
	default:
		return chromecamera.New(chromecamera.Options{
			ChromePath:     d.ChromePath,
			InstallBrowser: d.InstallBrowser,
			Headless:       d.Headless,
			FakeDevice:     d.FakeVideo != "",
			FakeVideoFile:  d.FakeVideo,
			RequireGesture: d.RequireGesture,
		}, log)
	}
}

func newClient(cfg config.Config, log ports.Logger) *httpverifier.Client {
	return httpverifier.New(httpverifier.Options{
		VerifyURL:    cfg.Verification.VerifyURL,
		ActivateURL:  cfg.ActivateBaseURL(),
		VerifyPath:   cfg.Verification.VerifyPath,
		ActivatePath: cfg.Verification.ActivatePath,
		Token:        cfg.Verification.Token,
		Timeout:      cfg.VerifyTimeout(),
	}, log)
}

func newSink(cfg config.Config, fs ports.FileSystem) (ports.DebugSink, error) {
	if !cfg.Debug.Enabled {
		return nullsink.New(), nil
	}
	if err := fs.MkdirAll(cfg.Debug.Dir); err != nil {
		return nil, fmt.Errorf("create debug directory: %w", err)
	}
	return filesink.New(cfg.Debug.Dir, fs, ggrenderer.New()), nil
}

func runScan(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.Bool("tui") {
		return runTUI(c, cfg)
	}

	log := newLogger(c, cfg, os.Stderr)
	fs := osfilesystem.New()
	sink, err := newSink(cfg, fs)
	if err != nil {
		return err
	}

	device := newDevice(cfg, fs, log)
	decoder := qrdecoder.New(qrdecoder.Options{TryHarder: cfg.Scanning.TryHarder})
	orch := orchestrator.New(device, decoder, newClient(cfg, log), sink, log)
	orch.Prompt = stdinPrompt(os.Stdin, os.Stderr)

	result, runErr := orch.Run(c.Context, cfg.ToOrchestratorConfig())

	if path := c.String("summary"); path != "" {
		if err := writeSummary(path, fs, cfg, result, runErr); err != nil {
			log.Error("Failed to write output: %s", err)
		} else {
			log.Info("Summary saved to %s", path)
		}
	}

	if runErr != nil {
		switch {
		case errors.Is(runErr, context.Canceled):
			log.Warn("Interrupted, shutting down...")
			return nil
		case errors.Is(runErr, orchestrator.ErrTimeout):
			return cli.Exit(l10n.F("No code found within %d ms", cfg.Scanning.TimeoutMs), 1)
		}
		return cli.Exit(scan.Classify(runErr).Message(), 1)
	}

	printCertificate(os.Stdout, result.Code, result.Summary)
	return nil
}

// stdinPrompt waits for Enter on in; it gives up when ctx is done.
func stdinPrompt(in io.Reader, out io.Writer) orchestrator.GesturePrompt {
	reader := bufio.NewReader(in)
	return func(ctx context.Context) error {
		fmt.Fprintln(out, l10n.T("Press Enter to allow camera access"))
		line := make(chan error, 1)
		go func() {
			_, err := reader.ReadString('\n')
			line <- err
		}()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-line:
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("no input: %w", err)
			}
			return err
		}
	}
}

func runTUI(c *cli.Context, cfg config.Config) error {
	fs := osfilesystem.New()
	sink, err := newSink(cfg, fs)
	if err != nil {
		return err
	}

	// The view owns the terminal, so logs only go to the debug directory.
	var logOut io.Writer
	if cfg.Debug.Enabled {
		f, err := os.Create(filepath.Join(cfg.Debug.Dir, "certscan.log"))
		if err != nil {
			return fmt.Errorf("create log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	log := newLogger(c, cfg, logOut)

	client := newClient(cfg, log)
	bridge := &termview.Bridge{}
	oc := cfg.ToOrchestratorConfig()
	ctrl := scan.NewController(
		newDevice(cfg, fs, log),
		qrdecoder.New(qrdecoder.Options{TryHarder: cfg.Scanning.TryHarder}),
		client,
		bridge,
		scan.NewFrameClock(oc.RefreshHz),
		log,
		scan.Options{
			Constraints: oc.Constraints,
			Origin:      oc.Origin,
			Sink:        sink,
			DebugEvery:  oc.DebugEvery,
			Observer:    bridge.Observe,
		},
	)

	p := tea.NewProgram(termview.NewModel(ctrl, termview.WithActivator(client)),
		tea.WithAltScreen(),
		tea.WithContext(c.Context),
	)
	bridge.Attach(p)

	ctx, cancel := context.WithCancel(c.Context)
	done := make(chan error, 1)
	go func() { done <- ctrl.Run(ctx) }()

	_, err = p.Run()
	cancel()
	if runErr := <-done; runErr != nil && err == nil {
		err = runErr
	}
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

func runDecode(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return cli.Exit(l10n.T("An image file is required"), 2)
	}

	fs := osfilesystem.New()
	data, err := fs.ReadFile(path)
	if err != nil {
		return err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	decoder := qrdecoder.New(qrdecoder.Options{TryHarder: c.Bool("try-harder")})
	det, found := decoder.Decode(img)
	if !found {
		return cli.Exit(l10n.T("No QR code found"), 1)
	}
	fmt.Println(det.Text)

	if out := c.String("annotate"); out != "" {
		renderer := ggrenderer.New()
		overlay := ports.DefaultOverlay()
		overlay.Points = det.Points
		overlay.Caption = det.Text
		png, err := renderer.EncodePNG(renderer.Annotate(img, overlay))
		if err != nil {
			return err
		}
		if err := fs.WriteFile(out, png); err != nil {
			return err
		}
	}
	return nil
}

func runActivate(c *cli.Context) error {
	code := c.Args().First()
	if code == "" {
		return cli.Exit(l10n.T("A certificate code is required"), 2)
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := newLogger(c, cfg, os.Stderr)

	if err := newClient(cfg, log).Activate(c.Context, code); err != nil {
		return cli.Exit(l10n.F("Activation failed: %s", err), 1)
	}
	log.Info("Certificate %s activated", code)
	return nil
}

// Package orchestrator runs one scan from camera acquisition to the certificate handoff.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/user/certscan/pkg/ports"
	"github.com/user/certscan/pkg/scan"
)

// ErrTimeout is returned when no code was handed off within Config.TimeoutMs.
var ErrTimeout = errors.New("orchestrator: scan timed out")

// Config contains all configuration for a scan run.
type Config struct {
	// Origin is the origin the capture is requested from.
	Origin string

	Constraints ports.Constraints

	// RefreshHz is the sampling cadence when no scheduler is injected.
	RefreshHz float64

	// TimeoutMs bounds the whole run (0 = wait until cancelled).
	TimeoutMs int

	// DebugEvery also saves every n-th missed frame to the debug sink.
	DebugEvery int
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Origin:      "http://localhost",
		Constraints: ports.DefaultConstraints(),
		RefreshHz:   scan.DefaultRefreshRate,
		TimeoutMs:   0,
	}
}

// GesturePrompt blocks until the user performed the gesture that allows playback.
type GesturePrompt func(ctx context.Context) error

// Orchestrator wires a scan.Controller to its collaborators for a single run.
type Orchestrator struct {
	device   ports.CaptureDevice
	decoder  ports.CodeDecoder
	verifier ports.Verifier
	sink     ports.DebugSink
	logger   ports.Logger

	// Scheduler overrides the refresh-rate clock. Tests inject a manual one.
	Scheduler ports.Scheduler

	// Prompt is called when playback is blocked on a user gesture. Without it the
	// run fails with ErrGestureRequired.
	Prompt GesturePrompt

	// Observer receives every state change on the controller goroutine.
	Observer func(scan.State)
}

// New creates a new Orchestrator.
func New(
	device ports.CaptureDevice,
	decoder ports.CodeDecoder,
	verifier ports.Verifier,
	sink ports.DebugSink,
	logger ports.Logger,
) *Orchestrator {
	return &Orchestrator{
		device:   device,
		decoder:  decoder,
		verifier: verifier,
		sink:     sink,
		logger:   logger,
	}
}

// Run scans until a code was verified and handed off, the activation failed, or
// ctx is done. The capture is released before Run returns on every path.
func (o *Orchestrator) Run(ctx context.Context, config Config) (RunResult, error) {
	o.logger.Info("Scanning with %s camera", o.device.Name())

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	if config.TimeoutMs > 0 {
		var stop context.CancelFunc
		runCtx, stop = context.WithTimeoutCause(runCtx, time.Duration(config.TimeoutMs)*time.Millisecond, ErrTimeout)
		defer stop()
	}

	nav := &handoff{done: cancel}
	var ctrl *scan.Controller

	opts := scan.Options{
		Constraints: config.Constraints,
		Origin:      config.Origin,
		Sink:        o.sink,
		DebugEvery:  config.DebugEvery,
		Observer: func(s scan.State) {
			if o.Observer != nil {
				o.Observer(s)
			}
			switch {
			case s.Status == scan.StatusError:
				cancel(s.Err)
			case s.PermissionGatePending:
				go o.awaitGesture(runCtx, ctrl, cancel)
			}
		},
	}

	scheduler := o.Scheduler
	if scheduler == nil {
		scheduler = scan.NewFrameClock(config.RefreshHz)
	}
	ctrl = scan.NewController(o.device, o.decoder, o.verifier, nav, scheduler, o.logger, opts)
	if err := ctrl.Run(runCtx); err != nil {
		return RunResult{}, err
	}

	code, summary := nav.summary()
	result := newRunResult(o.device.Name(), ctrl.Stats(), code, summary)
	if result.Code != "" && result.Summary != nil {
		o.logger.Info("Scan completed successfully")
		return result, nil
	}

	result.Status = ctrl.State().Status
	err := context.Cause(runCtx)
	if errors.Is(err, ErrTimeout) {
		o.logger.Error("No code found within %d ms", config.TimeoutMs)
	}
	return result, fmt.Errorf("scan: %w", err)
}

func (o *Orchestrator) awaitGesture(ctx context.Context, ctrl *scan.Controller, cancel context.CancelCauseFunc) {
	if o.Prompt == nil {
		cancel(ports.ErrGestureRequired)
		return
	}
	if err := o.Prompt(ctx); err != nil {
		if ctx.Err() == nil {
			cancel(fmt.Errorf("%w: %w", ports.ErrGestureRequired, err))
		}
		return
	}
	ctrl.Start()
}

// handoff is the navigator of a single run: it keeps the certificate and ends the run.
type handoff struct {
	mu   sync.Mutex
	code string
	cert *ports.CertificateSummary
	done context.CancelCauseFunc
}

func (h *handoff) ShowCertificate(code string, summary *ports.CertificateSummary) {
	h.mu.Lock()
	h.code = code
	h.cert = summary
	h.mu.Unlock()
	h.done(nil)
}

func (h *handoff) summary() (string, *ports.CertificateSummary) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.code, h.cert
}

// RunResult contains the results of a scan run for summary generation.
type RunResult struct {
	Device string

	// Code and Summary are set when the handoff completed.
	Code    string
	Summary *ports.CertificateSummary

	// Status is the final controller status of a run that did not complete.
	Status scan.Status

	Ticks    int
	NotReady int
	Misses   int

	StartedAt time.Time
	// Durations in ms; zero when the phase was not reached.
	ReadyMs  int64
	DecodeMs int64
	VerifyMs int64
}

func newRunResult(device string, stats scan.Stats, code string, summary *ports.CertificateSummary) RunResult {
	r := RunResult{
		Device:    device,
		Code:      code,
		Summary:   summary,
		Status:    scan.StatusProcessing,
		Ticks:     stats.Ticks,
		NotReady:  stats.NotReady,
		Misses:    stats.Misses,
		StartedAt: stats.StartedAt,
		ReadyMs:   elapsedMs(stats.StartedAt, stats.ReadyAt),
		DecodeMs:  elapsedMs(stats.ReadyAt, stats.DecodedAt),
		VerifyMs:  elapsedMs(stats.DecodedAt, stats.ResolvedAt),
	}
	if code == "" {
		r.Code = stats.Code
	}
	return r
}

func elapsedMs(from, to time.Time) int64 {
	if from.IsZero() || to.IsZero() {
		return 0
	}
	return to.Sub(from).Milliseconds()
}

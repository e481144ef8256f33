package scan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/ideamans/go-l10n"

	"github.com/user/certscan/pkg/ports"
)

// Options configures a Controller.
type Options struct {
	Constraints ports.Constraints

	// Origin is the origin capture is requested from; it must be trusted.
	Origin string

	// Sink receives the decoded frame and the activation report. Defaults to no output.
	Sink ports.DebugSink

	// DebugEvery also saves every n-th missed frame to an enabled sink (0 = hits only).
	DebugEvery int

	// Observer is called on the controller goroutine after every state change.
	Observer func(State)
}

// DefaultOptions returns options for a local, rear-camera activation.
func DefaultOptions() Options {
	return Options{
		Constraints: ports.DefaultConstraints(),
		Origin:      "http://localhost",
	}
}

// Stats describes the progress of the current activation.
type Stats struct {
	Ticks      int
	NotReady   int
	Misses     int
	StartedAt  time.Time
	ReadyAt    time.Time
	DecodedAt  time.Time
	ResolvedAt time.Time
	Code       string
}

type command int

const (
	cmdStart command = iota
	cmdRestart
)

func (c command) String() string {
	if c == cmdStart {
		return "start"
	}
	return "restart"
}

// Controller runs activations: it drives the capture resource, the sampling loop
// and the handoff, and owns the only copy of the State.
//
// All work happens on the goroutine calling Run. Start and Restart only post
// commands to it; State and Stats may be read from any goroutine.
type Controller struct {
	resource  *CaptureResource
	sampler   *FrameSampler
	decoder   ports.CodeDecoder
	verifier  ports.Verifier
	navigator ports.Navigator
	scheduler ports.Scheduler
	logger    ports.Logger
	opts      Options

	commands chan command
	tick     ports.Tick

	mu    sync.RWMutex
	state State
	stats Stats
}

// NewController wires a controller. The navigator may be nil when the caller only
// observes states.
func NewController(
	device ports.CaptureDevice,
	decoder ports.CodeDecoder,
	verifier ports.Verifier,
	navigator ports.Navigator,
	scheduler ports.Scheduler,
	logger ports.Logger,
	opts Options,
) *Controller {
	if opts.Sink == nil {
		opts.Sink = disabledSink{}
	}
	log := logger.WithComponent("controller")
	return &Controller{
		resource:  NewCaptureResource(device, opts.Origin, logger),
		sampler:   NewFrameSampler(),
		decoder:   decoder,
		verifier:  verifier,
		navigator: navigator,
		scheduler: scheduler,
		logger:    log,
		opts:      opts,
		commands:  make(chan command, 8),
	}
}

// Run starts an activation and processes ticks and commands until ctx is done.
// The capture is released and the pending tick cancelled before Run returns.
func (c *Controller) Run(ctx context.Context) error {
	defer c.teardown()

	c.reset()
	c.activate(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd := <-c.commands:
			c.handle(ctx, cmd)
		case <-c.pendingTick():
			c.tick = nil
			c.onTick(ctx)
		}
	}
}

// Start is the user gesture that re-enters Loading from the permission gate.
func (c *Controller) Start() {
	c.post(cmdStart)
}

// Restart begins a fresh activation after an error or a completed handoff.
func (c *Controller) Restart() {
	c.post(cmdRestart)
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Stats returns a snapshot of the current activation's counters.
func (c *Controller) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

func (c *Controller) post(cmd command) {
	select {
	case c.commands <- cmd:
	default:
		c.logger.Warn("Ignoring %s in state %s", cmd, c.State().Status)
	}
}

func (c *Controller) handle(ctx context.Context, cmd command) {
	state := c.State()
	switch {
	case cmd == cmdStart && state.Status == StatusInit:
		c.activate(ctx)
	case cmd == cmdRestart && state.Terminal():
		c.reset()
		c.activate(ctx)
	default:
		c.logger.Debug("Ignoring %s in state %s", cmd, state.Status)
	}
}

// activate is the Loading entry action.
func (c *Controller) activate(ctx context.Context) {
	if !c.transition(State{Status: StatusLoading, Message: l10n.T(msgLoading)}) {
		return
	}

	// A gesture may be required by the camera request itself or only by playback.
	// Start re-runs whichever step was blocked: Acquire is a no-op on a held stream.
	err := c.resource.Acquire(ctx, c.opts.Constraints)
	if err == nil {
		err = c.resource.BindAndPlay(ctx)
	}
	if err != nil {
		if errors.Is(err, ports.ErrGestureRequired) && ctx.Err() == nil {
			c.logger.Info("Camera blocked, waiting for user gesture")
			c.transition(State{
				Status:                StatusInit,
				PermissionGatePending: true,
				Message:               KindGestureRequired.Message(),
			})
			return
		}
		c.fail(ctx, err)
		return
	}

	c.sampler.Reset()
	c.update(func(s *Stats) { s.ReadyAt = time.Now() })
	c.transition(State{Status: StatusReady, Message: l10n.T(msgReady)})
	c.schedule()
}

// onTick does one capture and at most one decode.
func (c *Controller) onTick(ctx context.Context) {
	if c.State().Status != StatusReady {
		return
	}

	frame, ok, err := c.sampler.Sample(ctx, c.resource.Stream())
	c.update(func(s *Stats) { s.Ticks++ })
	if err != nil {
		if errors.Is(err, ports.ErrStreamEnded) {
			c.fail(ctx, fmt.Errorf("%w: %w", ports.ErrDevice, err))
			return
		}
		c.logger.Warn("Snapshot failed: %s", err)
		c.schedule()
		return
	}
	if !ok {
		c.update(func(s *Stats) { s.NotReady++ })
		c.schedule()
		return
	}

	detection, found := c.decoder.Decode(frame.Image)
	if !found {
		c.update(func(s *Stats) { s.Misses++ })
		if c.opts.DebugEvery > 0 && frame.Tick%c.opts.DebugEvery == 0 {
			c.saveFrame(frame, nil)
		}
		c.schedule()
		return
	}

	c.saveFrame(frame, &detection)
	c.handoff(ctx, detection.Text)
}

// handoff is the Processing entry action. No tick may fire once Processing is entered.
func (c *Controller) handoff(ctx context.Context, code string) {
	c.cancelTick()
	c.update(func(s *Stats) {
		s.DecodedAt = time.Now()
		s.Code = code
	})
	c.logger.Info("Found QR code after %d ticks: %s", c.sampler.Ticks(), code)
	c.transition(State{Status: StatusProcessing, Message: l10n.T(msgProcessing)})

	summary, err := c.verifier.Verify(ctx, code)
	if err != nil {
		c.fail(ctx, fmt.Errorf("%w: %w", ports.ErrVerify, err))
		return
	}

	c.resource.Release()
	c.update(func(s *Stats) { s.ResolvedAt = time.Now() })
	c.transition(State{Status: StatusProcessing, Done: true, Message: l10n.T(msgDone)})
	c.logger.Info("Certificate %s verified", code)
	c.saveReport(summary)

	if c.navigator != nil {
		c.navigator.ShowCertificate(code, summary)
	}
}

// fail is the Error entry action. A cancelled context means teardown is under way,
// which releases the capture itself and discards the state.
func (c *Controller) fail(ctx context.Context, err error) {
	c.cancelTick()
	c.resource.Release()
	if ctx.Err() != nil {
		return
	}

	kind := Classify(err)
	c.logger.Error("Activation failed (%s): %s", kind, err)
	c.transition(State{Status: StatusError, Message: kind.Message(), Err: err})
}

func (c *Controller) schedule() {
	c.cancelTick()
	c.tick = c.scheduler.Schedule()
}

func (c *Controller) cancelTick() {
	if c.tick != nil {
		c.tick.Cancel()
		c.tick = nil
	}
}

// pendingTick returns nil when no tick is scheduled, which blocks forever in select.
func (c *Controller) pendingTick() <-chan time.Time {
	if c.tick == nil {
		return nil
	}
	return c.tick.C()
}

func (c *Controller) teardown() {
	c.cancelTick()
	c.resource.Release()
}

// reset discards the previous activation and starts over at Init.
func (c *Controller) reset() {
	c.cancelTick()
	c.resource.Release()
	c.mu.Lock()
	c.state = State{Status: StatusInit, Message: l10n.T(msgInitializing)}
	c.stats = Stats{StartedAt: time.Now()}
	c.mu.Unlock()
	c.notify(c.State())
}

func (c *Controller) transition(next State) bool {
	c.mu.Lock()
	prev := c.state
	if !CanTransition(prev, next) {
		c.mu.Unlock()
		c.logger.Error("Rejected transition %s -> %s", prev.Status, next.Status)
		return false
	}
	c.state = next
	c.mu.Unlock()

	c.logger.Debug("State %s -> %s", prev.Status, next.Status)
	c.notify(next)
	return true
}

func (c *Controller) notify(s State) {
	if c.opts.Observer != nil {
		c.opts.Observer(s)
	}
}

func (c *Controller) update(fn func(*Stats)) {
	c.mu.Lock()
	fn(&c.stats)
	c.mu.Unlock()
}

func (c *Controller) saveFrame(frame FrameBuffer, detection *ports.Detection) {
	if !c.opts.Sink.Enabled() {
		return
	}
	if err := c.opts.Sink.SaveFrame(frame.Tick, frame.Image, detection); err != nil {
		c.logger.Warn("Failed to save debug frame: %s", err)
	}
}

func (c *Controller) saveReport(summary *ports.CertificateSummary) {
	if !c.opts.Sink.Enabled() {
		return
	}
	report := struct {
		Stats       Stats                     `json:"stats"`
		Certificate *ports.CertificateSummary `json:"certificate"`
	}{c.Stats(), summary}
	data, err := json.MarshalIndent(report, "", "  ")
	if err == nil {
		err = c.opts.Sink.SaveReport(data)
	}
	if err != nil {
		c.logger.Warn("Failed to save report: %s", err)
	}
}

type disabledSink struct{}

func (disabledSink) Enabled() bool { return false }

func (disabledSink) SaveFrame(int, image.Image, *ports.Detection) error { return nil }

func (disabledSink) SaveReport([]byte) error { return nil }

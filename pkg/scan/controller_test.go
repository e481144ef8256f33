package scan

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/ideamans/go-l10n"

	"github.com/user/certscan/pkg/adapters/logger"
	"github.com/user/certscan/pkg/mocks"
	"github.com/user/certscan/pkg/ports"
)

const waitTimeout = 2 * time.Second

// harness runs a controller against mocks on its own goroutine.
type harness struct {
	device    *mocks.CaptureDevice
	decoder   *mocks.Decoder
	verifier  *mocks.Verifier
	navigator *mocks.Navigator
	scheduler *mocks.Scheduler
	ctrl      *Controller

	mu     sync.Mutex
	states []State

	cancel context.CancelFunc
	done   chan error
}

func newHarness(decoder *mocks.Decoder) *harness {
	return &harness{
		device:    mocks.NewCaptureDevice(),
		decoder:   decoder,
		verifier:  mocks.NewVerifier(),
		navigator: mocks.NewNavigator(),
		scheduler: mocks.NewScheduler(),
	}
}

func (h *harness) start(t *testing.T, opts Options) {
	t.Helper()
	opts.Observer = func(s State) {
		h.mu.Lock()
		h.states = append(h.states, s)
		h.mu.Unlock()
	}
	h.ctrl = NewController(h.device, h.decoder, h.verifier, h.navigator, h.scheduler, logger.NewNoop(), opts)

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	h.done = make(chan error, 1)
	go func() { h.done <- h.ctrl.Run(ctx) }()
	t.Cleanup(h.stop)
}

func (h *harness) stop() {
	if h.cancel == nil {
		return
	}
	h.cancel()
	h.cancel = nil
	<-h.done
}

func (h *harness) statuses() []Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Status, len(h.states))
	for i, s := range h.states {
		out[i] = s.Status
	}
	return out
}

func (h *harness) waitFor(t *testing.T, what string, cond func(State) bool) State {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for time.Now().Before(deadline) {
		if s := h.ctrl.State(); cond(s) {
			return s
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s; state = %+v, history = %v", what, h.ctrl.State(), h.statuses())
	return State{}
}

func (h *harness) waitStatus(t *testing.T, status Status) State {
	t.Helper()
	return h.waitFor(t, status.String(), func(s State) bool { return s.Status == status })
}

func assertStatuses(t *testing.T, got []Status, want ...Status) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("statuses = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("statuses = %v, want %v", got, want)
		}
	}
}

func TestController_DecodesOnFourthTick(t *testing.T) {
	h := newHarness(mocks.NewSequenceDecoder("", "", "", "ABC123"))
	h.start(t, DefaultOptions())

	h.waitStatus(t, StatusReady)
	for i := 0; i < 4; i++ {
		if !h.scheduler.Fire(waitTimeout) {
			t.Fatalf("tick %d was not scheduled", i+1)
		}
	}

	select {
	case <-h.navigator.Done():
	case <-time.After(waitTimeout):
		t.Fatal("navigator was not called")
	}

	state := h.ctrl.State()
	if state.Status != StatusProcessing || !state.Done {
		t.Errorf("state = %+v, want resolved processing", state)
	}
	if codes := h.verifier.Codes(); len(codes) != 1 || codes[0] != "ABC123" {
		t.Errorf("verify codes = %v, want [ABC123]", codes)
	}
	if shown := h.navigator.Shown(); len(shown) != 1 || shown[0] != "ABC123" {
		t.Errorf("navigated to %v", shown)
	}
	if h.decoder.Calls() != 4 {
		t.Errorf("decode calls = %d, want 4", h.decoder.Calls())
	}
	if h.device.Stream.Stops() != 1 {
		t.Errorf("stream stopped %d times before navigation, want 1", h.device.Stream.Stops())
	}
	if h.scheduler.Pending() {
		t.Error("no tick may be pending after the handoff")
	}
	if h.scheduler.Fire(20 * time.Millisecond) {
		t.Error("a tick fired after the handoff")
	}

	stats := h.ctrl.Stats()
	if stats.Ticks != 4 || stats.Misses != 3 || stats.Code != "ABC123" {
		t.Errorf("stats = %+v", stats)
	}
	assertStatuses(t, h.statuses(), StatusInit, StatusLoading, StatusReady, StatusProcessing, StatusProcessing)

	h.stop()
	if h.device.Stream.Stops() != 1 {
		t.Errorf("teardown released again: stops = %d", h.device.Stream.Stops())
	}
}

func TestController_NotReadyFramesAreNotDecoded(t *testing.T) {
	h := newHarness(mocks.NewSequenceDecoder("XYZ"))
	ready := 0
	h.device.Stream.ReadyFunc = func() bool {
		ready++
		return ready > 2
	}
	h.start(t, DefaultOptions())

	h.waitStatus(t, StatusReady)
	for i := 0; i < 3; i++ {
		if !h.scheduler.Fire(waitTimeout) {
			t.Fatalf("tick %d was not scheduled", i+1)
		}
	}
	h.waitFor(t, "resolution", func(s State) bool { return s.Done })

	if h.decoder.Calls() != 1 {
		t.Errorf("decode calls = %d, want 1", h.decoder.Calls())
	}
	if stats := h.ctrl.Stats(); stats.NotReady != 2 {
		t.Errorf("NotReady = %d, want 2", stats.NotReady)
	}
}

func TestController_Unsupported(t *testing.T) {
	h := newHarness(mocks.NewSequenceDecoder())
	h.device.AvailableFunc = func() bool { return false }
	h.start(t, DefaultOptions())

	state := h.waitStatus(t, StatusError)
	if Classify(state.Err) != KindUnsupported {
		t.Errorf("kind = %s, want unsupported", Classify(state.Err))
	}
	if state.Message != KindUnsupported.Message() {
		t.Errorf("message = %q", state.Message)
	}
	if len(h.device.Constraints()) != 0 {
		t.Error("acquisition must not be attempted")
	}
	if h.scheduler.Scheduled() != 0 {
		t.Error("no tick may be scheduled")
	}
	assertStatuses(t, h.statuses(), StatusInit, StatusLoading, StatusError)
}

func TestController_InsecureOrigin(t *testing.T) {
	h := newHarness(mocks.NewSequenceDecoder())
	opts := DefaultOptions()
	opts.Origin = "http://certs.example.com"
	h.start(t, opts)

	state := h.waitStatus(t, StatusError)
	if Classify(state.Err) != KindInsecureContext {
		t.Errorf("kind = %s, want insecure_context", Classify(state.Err))
	}
	if len(h.device.Constraints()) != 0 {
		t.Error("acquisition must not be attempted")
	}
}

func TestController_PermissionDenied(t *testing.T) {
	h := newHarness(mocks.NewSequenceDecoder())
	h.device.AcquireFunc = func(ctx context.Context, c ports.Constraints) (ports.CaptureStream, error) {
		return nil, ports.ErrPermissionDenied
	}
	h.start(t, DefaultOptions())

	state := h.waitStatus(t, StatusError)
	if Classify(state.Err) != KindPermissionDenied {
		t.Errorf("kind = %s, want permission_denied", Classify(state.Err))
	}
	if h.scheduler.Scheduled() != 0 {
		t.Error("no tick may be scheduled")
	}
}

func TestController_VerifyFailure(t *testing.T) {
	h := newHarness(mocks.NewSequenceDecoder("ABC123"))
	h.verifier.VerifyFunc = func(ctx context.Context, code string) (*ports.CertificateSummary, error) {
		return nil, errors.New("connection refused")
	}
	h.start(t, DefaultOptions())

	h.waitStatus(t, StatusReady)
	h.scheduler.Fire(waitTimeout)
	state := h.waitStatus(t, StatusError)

	if Classify(state.Err) != KindVerify {
		t.Errorf("kind = %s, want verify_error", Classify(state.Err))
	}
	if state.Message != l10n.T(msgVerifyFailed) {
		t.Errorf("message = %q", state.Message)
	}
	if h.device.Stream.Stops() != 1 {
		t.Errorf("stops = %d, want 1", h.device.Stream.Stops())
	}
	if h.scheduler.Pending() {
		t.Error("no tick may be pending in Error")
	}
	if len(h.navigator.Shown()) != 0 {
		t.Error("navigation must not happen on verify failure")
	}
	assertStatuses(t, h.statuses(), StatusInit, StatusLoading, StatusReady, StatusProcessing, StatusError)
}

func TestController_HandoffHappensOnce(t *testing.T) {
	h := newHarness(&mocks.Decoder{DecodeFunc: func(image.Image) (ports.Detection, bool) {
		return ports.Detection{Text: "ABC123"}, true
	}})
	release := make(chan struct{})
	h.verifier.VerifyFunc = func(ctx context.Context, code string) (*ports.CertificateSummary, error) {
		<-release
		return &ports.CertificateSummary{ID: code}, nil
	}
	h.start(t, DefaultOptions())

	h.waitStatus(t, StatusReady)
	h.scheduler.Fire(waitTimeout)
	<-h.verifier.Called()

	if h.scheduler.Fire(20 * time.Millisecond) {
		t.Error("a tick fired while the handoff was running")
	}
	h.ctrl.Start()
	close(release)

	h.waitFor(t, "resolution", func(s State) bool { return s.Done })
	if len(h.verifier.Codes()) != 1 {
		t.Errorf("verify calls = %d, want 1", len(h.verifier.Codes()))
	}
	if h.decoder.Calls() != 1 {
		t.Errorf("decode calls = %d, want 1", h.decoder.Calls())
	}
}

func TestController_GestureGate(t *testing.T) {
	h := newHarness(mocks.NewSequenceDecoder())
	var plays int
	h.device.Stream.PlayFunc = func(ctx context.Context) error {
		plays++
		if plays == 1 {
			return ports.ErrGestureRequired
		}
		return nil
	}
	h.start(t, DefaultOptions())

	gate := h.waitFor(t, "gesture gate", func(s State) bool { return s.PermissionGatePending })
	if gate.Status != StatusInit {
		t.Errorf("gate status = %s, want init", gate.Status)
	}
	if gate.Message != KindGestureRequired.Message() {
		t.Errorf("gate message = %q", gate.Message)
	}
	if h.scheduler.Scheduled() != 0 {
		t.Error("no tick may be scheduled behind the gate")
	}

	h.ctrl.Start()
	h.waitStatus(t, StatusReady)

	if h.device.Acquires() != 1 {
		t.Errorf("acquires = %d, want 1", h.device.Acquires())
	}
	if h.device.Stream.Plays() != 2 {
		t.Errorf("plays = %d, want 2", h.device.Stream.Plays())
	}
	assertStatuses(t, h.statuses(), StatusInit, StatusLoading, StatusInit, StatusLoading, StatusReady)

	h.stop()
	if h.device.Stream.Stops() != 1 {
		t.Errorf("stops = %d, want 1", h.device.Stream.Stops())
	}
}

func TestController_GestureGateOnAcquire(t *testing.T) {
	h := newHarness(mocks.NewSequenceDecoder())
	var attempts int
	h.device.AcquireFunc = func(ctx context.Context, c ports.Constraints) (ports.CaptureStream, error) {
		attempts++
		if attempts == 1 {
			return nil, fmt.Errorf("getUserMedia: %w", ports.ErrGestureRequired)
		}
		return h.device.Stream, nil
	}
	h.start(t, DefaultOptions())

	gate := h.waitFor(t, "gesture gate", func(s State) bool { return s.PermissionGatePending })
	if gate.Status != StatusInit || gate.Err != nil {
		t.Errorf("gate = %+v, want init without error", gate)
	}
	if h.device.Stream.Stops() != 0 {
		t.Error("nothing was acquired, nothing may be stopped")
	}

	h.ctrl.Start()
	h.waitStatus(t, StatusReady)

	if h.device.Acquires() != 1 {
		t.Errorf("acquires = %d, want 1", h.device.Acquires())
	}
	if h.device.Stream.Plays() != 1 {
		t.Errorf("plays = %d, want 1", h.device.Stream.Plays())
	}
	assertStatuses(t, h.statuses(), StatusInit, StatusLoading, StatusInit, StatusLoading, StatusReady)
	for _, st := range h.statuses() {
		if st == StatusError {
			t.Fatal("a gesture requirement must never reach error")
		}
	}
}

func TestController_StartIgnoredOutsideInit(t *testing.T) {
	h := newHarness(mocks.NewSequenceDecoder())
	h.start(t, DefaultOptions())

	h.waitStatus(t, StatusReady)
	h.ctrl.Start()
	h.ctrl.Restart()
	h.scheduler.Fire(waitTimeout)
	h.waitFor(t, "second tick", func(State) bool { return h.ctrl.Stats().Ticks == 1 && h.scheduler.Pending() })

	if h.device.Acquires() != 1 {
		t.Errorf("acquires = %d, want 1", h.device.Acquires())
	}
	if h.ctrl.State().Status != StatusReady {
		t.Errorf("status = %s, want ready", h.ctrl.State().Status)
	}
}

func TestController_TeardownReleasesOnce(t *testing.T) {
	h := newHarness(mocks.NewSequenceDecoder())
	h.start(t, DefaultOptions())

	h.waitStatus(t, StatusReady)
	h.scheduler.Fire(waitTimeout)
	h.waitFor(t, "rescheduled tick", func(State) bool { return h.scheduler.Pending() })

	h.stop()
	if h.device.Stream.Stops() != 1 {
		t.Errorf("stops = %d, want 1", h.device.Stream.Stops())
	}
	if h.scheduler.Pending() {
		t.Error("pending tick was not cancelled")
	}
	if h.scheduler.Cancelled() != 1 {
		t.Errorf("cancelled = %d, want 1", h.scheduler.Cancelled())
	}
}

func TestController_TeardownDuringAcquire(t *testing.T) {
	h := newHarness(mocks.NewSequenceDecoder())
	entered := make(chan struct{})
	h.device.AcquireFunc = func(ctx context.Context, c ports.Constraints) (ports.CaptureStream, error) {
		close(entered)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	h.start(t, DefaultOptions())

	<-entered
	h.stop()

	if s := h.ctrl.State(); s.Status != StatusLoading {
		t.Errorf("status = %s, want loading (no error after teardown)", s.Status)
	}
	if h.scheduler.Scheduled() != 0 {
		t.Error("no tick may be scheduled after teardown")
	}
}

func TestController_StreamEnded(t *testing.T) {
	h := newHarness(mocks.NewSequenceDecoder())
	h.device.Stream.SnapshotFunc = func(*image.Gray) error { return ports.ErrStreamEnded }
	h.start(t, DefaultOptions())

	h.waitStatus(t, StatusReady)
	h.scheduler.Fire(waitTimeout)
	state := h.waitStatus(t, StatusError)

	if Classify(state.Err) != KindDevice {
		t.Errorf("kind = %s, want device_error", Classify(state.Err))
	}
	if h.device.Stream.Stops() != 1 {
		t.Errorf("stops = %d, want 1", h.device.Stream.Stops())
	}
}

func TestController_RestartAfterError(t *testing.T) {
	h := newHarness(mocks.NewSequenceDecoder("ABC123", "ABC123"))
	var attempts int
	h.verifier.VerifyFunc = func(ctx context.Context, code string) (*ports.CertificateSummary, error) {
		attempts++
		if attempts == 1 {
			return nil, errors.New("503 Service Unavailable")
		}
		return &ports.CertificateSummary{ID: code}, nil
	}
	h.start(t, DefaultOptions())

	h.waitStatus(t, StatusReady)
	h.scheduler.Fire(waitTimeout)
	h.waitStatus(t, StatusError)

	h.ctrl.Restart()
	h.waitStatus(t, StatusReady)
	h.scheduler.Fire(waitTimeout)

	select {
	case <-h.navigator.Done():
	case <-time.After(waitTimeout):
		t.Fatal("navigator was not called after restart")
	}
	if h.device.Acquires() != 2 {
		t.Errorf("acquires = %d, want 2", h.device.Acquires())
	}
	if h.device.Stream.Stops() != 2 {
		t.Errorf("stops = %d, want 2", h.device.Stream.Stops())
	}
	if stats := h.ctrl.Stats(); stats.Ticks != 1 {
		t.Errorf("stats were not reset: ticks = %d", stats.Ticks)
	}
}

func TestController_DebugSink(t *testing.T) {
	h := newHarness(mocks.NewSequenceDecoder("", "", "", "ABC123"))
	sink := mocks.NewDebugSink(true)
	opts := DefaultOptions()
	opts.Sink = sink
	opts.DebugEvery = 2
	h.start(t, opts)

	h.waitStatus(t, StatusReady)
	for i := 0; i < 4; i++ {
		h.scheduler.Fire(waitTimeout)
	}
	h.waitFor(t, "resolution", func(s State) bool { return s.Done })

	// Misses on tick 2 and the hit on tick 4.
	if sink.FrameCount() != 2 {
		t.Errorf("frames = %d, want 2", sink.FrameCount())
	}
	if d := sink.Detections[4]; d == nil || d.Text != "ABC123" {
		t.Errorf("detection on tick 4 = %+v", d)
	}
	if len(sink.Report) == 0 {
		t.Error("report was not saved")
	}
}

package chromecamera

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/user/certscan/pkg/adapters/logger"
	"github.com/user/certscan/pkg/mocks"
	"github.com/user/certscan/pkg/ports"
	"github.com/user/certscan/pkg/scan"
)

func chromeOrSkip(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("browser test skipped in short mode")
	}
	if ResolveChromePath("") == "" {
		t.Skip("Chrome not installed")
	}
}

func TestDevice_FakeCamera(t *testing.T) {
	chromeOrSkip(t)
	d := New(Options{Headless: true, FakeDevice: true}, logger.NewNoop())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	stream, err := d.Acquire(ctx, ports.Constraints{Facing: ports.FacingEnvironment, IdealWidth: 640, IdealHeight: 480})
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer stream.Stop()

	if err := stream.Play(ctx); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	deadline := time.Now().Add(10 * time.Second)
	for !stream.Ready(ctx) {
		if time.Now().After(deadline) {
			t.Fatal("video never became ready")
		}
		time.Sleep(50 * time.Millisecond)
	}

	w, h := stream.Size()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	if err := stream.Snapshot(ctx, dst); err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	stream.Stop()
	if err := stream.Snapshot(ctx, dst); !errors.Is(err, ports.ErrStreamEnded) {
		t.Errorf("Snapshot after Stop = %v, want ErrStreamEnded", err)
	}
}

func TestDevice_Unavailable(t *testing.T) {
	t.Setenv("CHROME_PATH", "")
	t.Setenv("PATH", "")
	d := New(Options{}, logger.NewNoop())
	if d.Available() && findSystemChrome() == "" {
		t.Error("device without a browser should be unavailable")
	}
	if !New(Options{InstallBrowser: true}, logger.NewNoop()).Available() {
		t.Error("device that may install a browser should be available")
	}
}

// detachedStream is a stream whose context carries no browser, so every page call fails.
func detachedStream(t *testing.T, ctx context.Context) *Stream {
	t.Helper()
	server, err := startPageServer()
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Stream{
		ctx:         ctx,
		cancel:      cancel,
		allocCancel: func() {},
		server:      server,
		timeout:     time.Second,
		logger:      logger.NewNoop(),
		ideal:       image.Pt(64, 48),
	}
}

func TestStream_ClosedBrowserEndsStream(t *testing.T) {
	ctx := context.Background()
	browserCtx, cancel := context.WithCancel(ctx)
	cancel()
	s := detachedStream(t, browserCtx)
	defer s.Stop()

	if !s.Ready(ctx) {
		t.Fatal("closed stream should report ready so the end is observed")
	}
	if w, h := s.Size(); w != 64 || h != 48 {
		t.Errorf("Size() = %dx%d, want the requested 64x48", w, h)
	}
	if err := s.Snapshot(ctx, image.NewGray(image.Rect(0, 0, 64, 48))); !errors.Is(err, ports.ErrStreamEnded) {
		t.Errorf("Snapshot() = %v, want ErrStreamEnded", err)
	}
}

func TestStream_UnresponsivePageEndsStream(t *testing.T) {
	ctx := context.Background()
	s := detachedStream(t, ctx)
	defer s.Stop()

	for i := 1; i < MaxCallFailures; i++ {
		if s.Ready(ctx) {
			t.Fatalf("Ready() after %d failed calls = true", i)
		}
	}
	if !s.Ready(ctx) {
		t.Fatalf("Ready() after %d failed calls = false, want true", MaxCallFailures)
	}
	if err := s.Snapshot(ctx, image.NewGray(image.Rect(0, 0, 64, 48))); !errors.Is(err, ports.ErrStreamEnded) {
		t.Errorf("Snapshot() = %v, want ErrStreamEnded", err)
	}
}

func TestStream_CancelledCallsDoNotCount(t *testing.T) {
	s := detachedStream(t, context.Background())
	defer s.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 2*MaxCallFailures; i++ {
		if s.Ready(ctx) {
			t.Fatal("cancelled calls should not mark the browser as gone")
		}
	}
}

// playingStream skips Play, which needs a live page.
type playingStream struct{ *Stream }

func (playingStream) Play(context.Context) error { return nil }

func TestStream_LostBrowserFailsController(t *testing.T) {
	browserCtx, cancel := context.WithCancel(context.Background())
	cancel()
	s := detachedStream(t, browserCtx)

	device := mocks.NewCaptureDevice()
	device.AcquireFunc = func(context.Context, ports.Constraints) (ports.CaptureStream, error) {
		return playingStream{s}, nil
	}

	scheduler := mocks.NewScheduler()
	ctrl := scan.NewController(device, mocks.NewSequenceDecoder(), mocks.NewVerifier(), nil, scheduler, logger.NewNoop(), scan.DefaultOptions())

	runCtx, stop := context.WithCancel(context.Background())
	defer stop()
	done := make(chan error, 1)
	go func() { done <- ctrl.Run(runCtx) }()
	deadline := time.After(5 * time.Second)
	for {
		if ctrl.State().Status == scan.StatusError {
			break
		}
		scheduler.Fire(10 * time.Millisecond)
		select {
		case <-deadline:
			t.Fatalf("controller never failed; state = %+v", ctrl.State())
		default:
		}
	}

	st := ctrl.State()
	if !errors.Is(st.Err, ports.ErrStreamEnded) || scan.Classify(st.Err) != scan.KindDevice {
		t.Errorf("Err = %v (kind %s), want a device error wrapping ErrStreamEnded", st.Err, scan.Classify(st.Err))
	}
	stop()
	<-done
}

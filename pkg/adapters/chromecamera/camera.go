// Package chromecamera captures from a camera through a Chrome page using
// getUserMedia, driven over the DevTools protocol.
package chromecamera

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"sync"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	xdraw "golang.org/x/image/draw"

	"github.com/user/certscan/pkg/ports"
)

// DefaultCallTimeout bounds a single page call.
const DefaultCallTimeout = 5 * time.Second

// MaxCallFailures is the number of consecutive failed page calls after which the
// browser is considered gone.
const MaxCallFailures = 5

// Options configures the browser camera.
type Options struct {
	// ChromePath overrides the browser lookup.
	ChromePath string

	// InstallBrowser downloads Chromium with Playwright when none is found.
	InstallBrowser bool

	Headless bool

	// FakeDevice replaces the camera with Chrome's synthetic test pattern.
	FakeDevice bool

	// FakeVideoFile feeds a .y4m or .mjpeg file as the camera (implies FakeDevice).
	FakeVideoFile string

	// RequireGesture enforces the user-gesture autoplay policy, so playback only
	// starts after Play is retried as a click.
	RequireGesture bool

	// DenyPermission makes the browser refuse camera access.
	DenyPermission bool

	CallTimeout time.Duration
}

// Device implements ports.CaptureDevice with a Chrome instance per stream.
type Device struct {
	opts   Options
	logger ports.Logger
}

// New creates a Chrome capture device.
func New(opts Options, logger ports.Logger) *Device {
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = DefaultCallTimeout
	}
	if opts.FakeVideoFile != "" {
		opts.FakeDevice = true
	}
	return &Device{opts: opts, logger: logger.WithComponent("chrome")}
}

func (d *Device) Name() string {
	return "chrome"
}

// Available reports whether a browser exists or can be installed.
func (d *Device) Available() bool {
	return d.opts.InstallBrowser || ResolveChromePath(d.opts.ChromePath) != ""
}

func (d *Device) execPath() (string, error) {
	if path := ResolveChromePath(d.opts.ChromePath); path != "" {
		return path, nil
	}
	if !d.opts.InstallBrowser {
		return "", fmt.Errorf("%w: chrome not found: install Chrome/Chromium, set CHROME_PATH or pass --chrome-path", ports.ErrUnsupported)
	}
	d.logger.Info("Installing Chromium with Playwright")
	path, err := InstallChromium()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ports.ErrUnsupported, err)
	}
	return path, nil
}

func (d *Device) allocatorOptions(execPath string) []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.ExecPath(execPath),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.WindowSize(800, 600),
	}
	if d.opts.Headless {
		opts = append(opts, chromedp.Flag("headless", "new"))
	}
	if !d.opts.DenyPermission {
		opts = append(opts, chromedp.Flag("use-fake-ui-for-media-stream", true))
	}
	if d.opts.FakeDevice {
		opts = append(opts, chromedp.Flag("use-fake-device-for-media-stream", true))
	}
	if d.opts.FakeVideoFile != "" {
		opts = append(opts, chromedp.Flag("use-file-for-fake-video-capture", d.opts.FakeVideoFile))
	}
	if d.opts.RequireGesture {
		opts = append(opts, chromedp.Flag("autoplay-policy", "user-gesture-required"))
	} else {
		opts = append(opts, chromedp.Flag("autoplay-policy", "no-user-gesture-required"))
	}
	return opts
}

// Acquire launches Chrome, opens the capture page and requests the camera. The
// browser belongs to the returned stream and is closed by Stop.
func (d *Device) Acquire(ctx context.Context, c ports.Constraints) (ports.CaptureStream, error) {
	execPath, err := d.execPath()
	if err != nil {
		return nil, err
	}

	server, err := startPageServer()
	if err != nil {
		return nil, fmt.Errorf("%w: serve capture page: %w", ports.ErrDevice, err)
	}
	d.logger.Debug("Serving capture page on %s", server.URL())

	if d.opts.Headless {
		d.logger.Info("Launching browser in headless mode")
	} else {
		d.logger.Info("Launching browser")
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), d.allocatorOptions(execPath)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	s := &Stream{
		ctx:         browserCtx,
		cancel:      browserCancel,
		allocCancel: allocCancel,
		server:      server,
		timeout:     d.opts.CallTimeout,
		logger:      d.logger,
		ideal:       idealSize(c),
	}

	// Abort the launch if the caller gives up while the browser starts.
	stopWatch := context.AfterFunc(ctx, browserCancel)
	defer stopWatch()

	actions := []chromedp.Action{chromedp.Navigate(server.URL())}
	if d.opts.DenyPermission {
		actions = append(actions, browser.ResetPermissions())
	} else {
		actions = append(actions, browser.GrantPermissions([]browser.PermissionType{browser.PermissionTypeVideoCapture}).
			WithOrigin(server.URL()))
	}
	actions = append(actions, chromedp.WaitReady("#start", chromedp.ByID))
	if err := chromedp.Run(browserCtx, actions...); err != nil {
		s.Stop()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: launch browser: %w", ports.ErrDevice, err)
	}

	expr := fmt.Sprintf("window.certscan.acquire(%q, %d, %d, %t)",
		string(c.Facing), c.IdealWidth, c.IdealHeight, !d.opts.RequireGesture)
	var res pageResult
	if err := chromedp.Run(browserCtx, chromedp.Evaluate(expr, &res, awaitPromise)); err != nil {
		s.Stop()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: getUserMedia: %w", ports.ErrDevice, err)
	}
	if err := res.err(); err != nil {
		s.Stop()
		return nil, err
	}
	s.width, s.height = res.Width, res.Height
	return s, nil
}

// idealSize is the requested frame size, never empty.
func idealSize(c ports.Constraints) image.Point {
	if c.IdealWidth <= 0 || c.IdealHeight <= 0 {
		d := ports.DefaultConstraints()
		return image.Pt(d.IdealWidth, d.IdealHeight)
	}
	return image.Pt(c.IdealWidth, c.IdealHeight)
}

func awaitPromise(p *runtime.EvaluateParams) *runtime.EvaluateParams {
	return p.WithAwaitPromise(true)
}

// Stream is a camera stream playing in a Chrome page.
type Stream struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	server      *pageServer
	timeout     time.Duration
	logger      ports.Logger

	mu       sync.Mutex
	width    int
	height   int
	plays    int
	failures int
	ideal    image.Point

	stopOnce sync.Once
}

// Play starts the video element. The first attempt calls play() directly; later
// attempts click the start button, which Chrome counts as a user gesture.
func (s *Stream) Play(ctx context.Context) error {
	s.mu.Lock()
	s.plays++
	attempt := s.plays
	s.mu.Unlock()

	callCtx, cancel := s.call(ctx)
	defer cancel()

	var res pageResult
	var err error
	if attempt == 1 {
		err = chromedp.Run(callCtx, chromedp.Evaluate("window.certscan.play()", &res, awaitPromise))
	} else {
		err = chromedp.Run(callCtx,
			chromedp.Evaluate("window.certscan.lastPlay = null", nil),
			chromedp.Click("#start", chromedp.ByID),
			chromedp.Poll("window.certscan.lastPlay", &res, chromedp.WithPollingInterval(20*time.Millisecond)),
		)
	}
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: play: %w", ports.ErrDevice, err)
	}
	return res.err()
}

// Ready asks the page whether the video has enough data, and records its size.
// Once the browser is gone it reports true so that Snapshot can report the end.
func (s *Stream) Ready(ctx context.Context) bool {
	if s.gone() {
		return true
	}
	callCtx, cancel := s.call(ctx)
	defer cancel()

	var res *pageResult
	if err := chromedp.Run(callCtx, chromedp.Evaluate("window.certscan.ready()", &res)); err != nil || res == nil {
		s.failed(ctx)
		return s.gone()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = 0
	s.width, s.height = res.Width, res.Height
	return res.Width > 0 && res.Height > 0
}

// Size returns the video size last reported by the page, or the requested size
// before the page reported one.
func (s *Stream) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width <= 0 || s.height <= 0 {
		return s.ideal.X, s.ideal.Y
	}
	return s.width, s.height
}

// Snapshot draws the current video frame and copies it into dst as gray.
func (s *Stream) Snapshot(ctx context.Context, dst *image.Gray) error {
	if s.gone() {
		return fmt.Errorf("%w: browser closed", ports.ErrStreamEnded)
	}
	callCtx, cancel := s.call(ctx)
	defer cancel()

	var res pageResult
	if err := chromedp.Run(callCtx, chromedp.Evaluate("window.certscan.snapshot()", &res)); err != nil {
		s.failed(ctx)
		if s.gone() {
			return fmt.Errorf("%w: browser not responding: %w", ports.ErrStreamEnded, err)
		}
		return fmt.Errorf("snapshot: %w", err)
	}
	s.mu.Lock()
	s.failures = 0
	s.mu.Unlock()
	if err := res.err(); err != nil {
		return err
	}
	img, err := decodeDataURL(res.Data)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	copyGray(dst, img)
	return nil
}

// copyGray converts img into dst, scaling when the video size changed since dst
// was allocated.
func copyGray(dst *image.Gray, img image.Image) {
	if img.Bounds().Size() == dst.Rect.Size() {
		draw.Draw(dst, dst.Rect, img, img.Bounds().Min, draw.Src)
		return
	}
	xdraw.ApproxBiLinear.Scale(dst, dst.Rect, img, img.Bounds(), xdraw.Src, nil)
}

// gone reports whether the browser was closed or stopped answering page calls.
func (s *Stream) gone() bool {
	if s.ctx.Err() != nil {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures >= MaxCallFailures
}

// failed counts a failed page call. Calls interrupted by the caller do not count.
func (s *Stream) failed(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	s.mu.Lock()
	s.failures++
	s.mu.Unlock()
}

// Stop stops the tracks and closes the browser and the page server.
func (s *Stream) Stop() error {
	s.stopOnce.Do(func() {
		if !s.gone() {
			callCtx, cancel := s.call(context.Background())
			chromedp.Run(callCtx, chromedp.Evaluate("window.certscan && window.certscan.release()", nil))
			cancel()
		}
		s.cancel()
		s.allocCancel()
		s.server.Close()
		s.logger.Debug("Browser closed")
	})
	return nil
}

// call derives a bounded context for one page call. The chromedp target travels
// in s.ctx, so the caller's ctx only contributes cancellation.
func (s *Stream) call(ctx context.Context) (context.Context, context.CancelFunc) {
	callCtx, cancel := context.WithTimeout(s.ctx, s.timeout)
	stop := context.AfterFunc(ctx, cancel)
	return callCtx, func() {
		stop()
		cancel()
	}
}

var (
	_ ports.CaptureDevice = (*Device)(nil)
	_ ports.CaptureStream = (*Stream)(nil)
)

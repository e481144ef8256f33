package ffmpegcamera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/user/certscan/pkg/ports"
)

// DefaultStartTimeout bounds how long Play waits for the first frame.
const DefaultStartTimeout = 10 * time.Second

// Options configures the ffmpeg capture.
type Options struct {
	// FFmpegPath overrides the ffmpeg lookup.
	FFmpegPath string

	// Input is a camera name for Format, or a video file. Empty selects the
	// platform's first camera.
	Input string

	// Format is the capture demuxer (v4l2, avfoundation, dshow). Empty selects
	// the platform default for cameras; files never use one.
	Format string

	// FrameRate requested from a camera (0 leaves the device default).
	FrameRate float64

	// Loop replays a video file forever instead of ending the stream.
	Loop bool

	// StartTimeout bounds the wait for the first frame.
	StartTimeout time.Duration
}

// source is the resolved input of one capture.
type source struct {
	input  string
	format string
	file   bool
	loop   bool
	rate   float64
}

// Device implements ports.CaptureDevice with an ffmpeg subprocess.
type Device struct {
	opts   Options
	logger ports.Logger
}

// New creates an ffmpeg capture device.
func New(opts Options, logger ports.Logger) *Device {
	if opts.StartTimeout <= 0 {
		opts.StartTimeout = DefaultStartTimeout
	}
	return &Device{opts: opts, logger: logger.WithComponent("ffmpeg")}
}

func (d *Device) Name() string {
	return "ffmpeg"
}

// Available reports whether an ffmpeg executable can be found.
func (d *Device) Available() bool {
	_, err := FindFFmpeg(d.opts.FFmpegPath)
	return err == nil
}

// Acquire starts ffmpeg on the configured input. Video files are emitted at their
// native size when it fits the constraints; cameras are scaled to the ideal size.
func (d *Device) Acquire(ctx context.Context, c ports.Constraints) (ports.CaptureStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ffmpeg, err := FindFFmpeg(d.opts.FFmpegPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrUnsupported, err)
	}

	src := d.source()
	width, height := c.IdealWidth, c.IdealHeight
	if src.file {
		if isMP4(src.input) {
			if info, err := ProbeMP4File(src.input); err == nil {
				d.logger.Debug("Probed %s: %dx%d", src.input, info.Width, info.Height)
				width, height = fit(info.Width, info.Height, c.IdealWidth, c.IdealHeight)
			}
		}
	} else {
		if err := checkDeviceNode(src); err != nil {
			return nil, err
		}
		d.logger.Debug("Capture from %s via %s, facing %s is not selectable", src.input, src.format, c.Facing)
	}
	// Most scalers and encoders want even dimensions.
	width, height = max(2, width&^1), max(2, height&^1)

	args := buildArgs(src, width, height)
	d.logger.Debug("Starting ffmpeg: %s", strings.Join(args, " "))
	cmd := exec.Command(ffmpeg, args...)
	stderr := &tailBuffer{limit: 4096}
	cmd.Stderr = stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdout pipe: %w", ports.ErrDevice, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start ffmpeg: %w", ports.ErrDevice, err)
	}

	s := newStream(cmd, stdout, stderr, width, height, d.opts.StartTimeout, d.logger)
	go s.readLoop()
	return s, nil
}

func (d *Device) source() source {
	input := d.opts.Input
	if input == "" {
		input = DefaultInput()
	}
	if info, err := os.Stat(input); err == nil && info.Mode().IsRegular() {
		return source{input: input, file: true, loop: d.opts.Loop}
	}
	format := d.opts.Format
	if format == "" {
		format = DefaultInputFormat()
	}
	return source{input: input, format: format, rate: d.opts.FrameRate}
}

// buildArgs returns the ffmpeg command line emitting width x height 8-bit gray
// frames on stdout. The picture is letterboxed to keep its aspect ratio.
func buildArgs(src source, width, height int) []string {
	args := []string{"-hide_banner", "-loglevel", "error", "-nostdin"}
	if src.file {
		if src.loop {
			args = append(args, "-stream_loop", "-1")
		}
		args = append(args, "-re", "-i", src.input)
	} else {
		args = append(args, "-f", src.format)
		if src.rate > 0 {
			args = append(args, "-framerate", fmt.Sprintf("%g", src.rate))
		}
		args = append(args, "-i", src.input)
	}
	filter := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2:color=white",
		width, height, width, height)
	return append(args,
		"-an",
		"-vf", filter,
		"-pix_fmt", "gray",
		"-f", "rawvideo",
		"pipe:1",
	)
}

// checkDeviceNode opens a v4l2 node up front so permission problems are reported
// as such rather than as a generic ffmpeg failure.
func checkDeviceNode(src source) error {
	if src.format != "v4l2" || !strings.HasPrefix(src.input, "/dev/") {
		return nil
	}
	f, err := os.OpenFile(src.input, os.O_RDONLY, 0)
	switch {
	case err == nil:
		return f.Close()
	case errors.Is(err, os.ErrPermission):
		return fmt.Errorf("%w: %w", ports.ErrPermissionDenied, err)
	case errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("%w: no camera at %s", ports.ErrDevice, src.input)
	default:
		return fmt.Errorf("%w: %w", ports.ErrDevice, err)
	}
}

func isMP4(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp4", ".m4v", ".mov":
		return true
	}
	return false
}

func fit(w, h, maxW, maxH int) (int, int) {
	if maxW <= 0 || maxH <= 0 || (w <= maxW && h <= maxH) {
		return w, h
	}
	scale := min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	return int(math.Round(float64(w) * scale)), int(math.Round(float64(h) * scale))
}

// Stream is a running ffmpeg capture. A reader goroutine keeps the most recent
// frame; Snapshot copies it.
type Stream struct {
	cmd     *exec.Cmd
	stdout  io.ReadCloser
	stderr  *tailBuffer
	width   int
	height  int
	timeout time.Duration
	logger  ports.Logger

	first chan struct{}
	done  chan struct{}

	mu      sync.Mutex
	latest  []byte
	frames  int
	playing bool
	err     error

	stopOnce sync.Once
}

func newStream(cmd *exec.Cmd, stdout io.ReadCloser, stderr *tailBuffer, width, height int, timeout time.Duration, logger ports.Logger) *Stream {
	return &Stream{
		cmd:     cmd,
		stdout:  stdout,
		stderr:  stderr,
		width:   width,
		height:  height,
		timeout: timeout,
		logger:  logger,
		first:   make(chan struct{}),
		done:    make(chan struct{}),
		latest:  make([]byte, width*height),
	}
}

func (s *Stream) readLoop() {
	defer close(s.done)
	buf := make([]byte, s.width*s.height)
	for {
		if _, err := io.ReadFull(s.stdout, buf); err != nil {
			waitErr := s.cmd.Wait()
			s.mu.Lock()
			s.err = s.exitError(waitErr)
			s.mu.Unlock()
			s.logger.Debug("ffmpeg exited: %s", s.err)
			return
		}
		s.mu.Lock()
		s.latest, buf = buf, s.latest
		s.frames++
		if s.frames == 1 {
			close(s.first)
		}
		s.mu.Unlock()
	}
}

// exitError classifies why ffmpeg stopped producing frames.
func (s *Stream) exitError(waitErr error) error {
	msg := s.stderr.String()
	switch {
	case strings.Contains(msg, "Permission denied"):
		return fmt.Errorf("%w: %w: %s", ports.ErrStreamEnded, ports.ErrPermissionDenied, lastLine(msg))
	case waitErr == nil:
		return fmt.Errorf("%w: end of input", ports.ErrStreamEnded)
	case msg != "":
		return fmt.Errorf("%w: %w: %s", ports.ErrStreamEnded, ports.ErrDevice, lastLine(msg))
	default:
		return fmt.Errorf("%w: %w: %w", ports.ErrStreamEnded, ports.ErrDevice, waitErr)
	}
}

// Play waits for the first frame. ffmpeg has no autoplay policy, so a gesture is
// never required.
func (s *Stream) Play(ctx context.Context) error {
	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case <-s.first:
		s.mu.Lock()
		s.playing = true
		s.mu.Unlock()
		return nil
	case <-s.done:
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.frames > 0 {
			s.playing = true
			return nil
		}
		return startError(s.err)
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("%w: no frame within %s", ports.ErrDevice, s.timeout)
	}
}

// startError strips ErrStreamEnded from an exit before the first frame, which is
// an acquisition failure rather than the end of a running stream.
func startError(err error) error {
	if errors.Is(err, ports.ErrPermissionDenied) {
		return fmt.Errorf("%w: %s", ports.ErrPermissionDenied, err)
	}
	return fmt.Errorf("%w: %s", ports.ErrDevice, err)
}

// Ready reports whether a frame was received. An ended stream stays ready so the
// next Snapshot reports the end.
func (s *Stream) Ready(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing && (s.frames > 0 || s.err != nil)
}

func (s *Stream) Size() (int, int) {
	return s.width, s.height
}

func (s *Stream) Snapshot(ctx context.Context, dst *image.Gray) error {
	if dst.Rect.Dx() != s.width || dst.Rect.Dy() != s.height {
		return fmt.Errorf("snapshot buffer is %v, stream is %dx%d", dst.Rect.Size(), s.width, s.height)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	for y := 0; y < s.height; y++ {
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+s.width], s.latest[y*s.width:(y+1)*s.width])
	}
	return nil
}

// Stop kills ffmpeg and waits for the reader to finish.
func (s *Stream) Stop() error {
	s.stopOnce.Do(func() {
		if s.cmd.Process != nil {
			s.cmd.Process.Kill()
		}
		select {
		case <-s.done:
		case <-time.After(2 * time.Second):
			s.logger.Warn("ffmpeg did not exit after kill")
		}
		s.mu.Lock()
		s.playing = false
		if s.err == nil {
			s.err = fmt.Errorf("%w: stopped", ports.ErrStreamEnded)
		}
		s.mu.Unlock()
	})
	return nil
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.limit; over > 0 {
		b.buf = b.buf[over:]
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.TrimSpace(string(b.buf))
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

var (
	_ ports.CaptureDevice = (*Device)(nil)
	_ ports.CaptureStream = (*Stream)(nil)
)

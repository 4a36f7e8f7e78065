// Package encoder pipes rendered frames into an ffmpeg process.
package encoder

import (
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/richinsley/postfx/imaging"
)

// Frame is one RGBA8 frame, top row first, ready for encoding.
type Frame struct {
	Pixels []byte
	Index  int64
}

// Options configures the output video.
type Options struct {
	Output     string
	Width      int
	Height     int
	FPS        int
	Codec      string // libx264 when empty
	PixFmt     string // yuv420p when empty
	FFmpegPath string // ffmpeg from PATH when empty
}

// FFmpegEncoder feeds raw frames to ffmpeg's stdin from a background
// goroutine. Frames are queued on a small buffered channel so the render
// loop only blocks when ffmpeg falls behind.
type FFmpegEncoder struct {
	opts   Options
	log    zerolog.Logger
	frames chan *Frame
	done   chan error
	cmd    *exec.Cmd
	next   int64

	closeOnce sync.Once
	closeErr  error
}

// NewFFmpegEncoder validates opts. Call Start before sending frames.
func NewFFmpegEncoder(opts Options, log zerolog.Logger) (*FFmpegEncoder, error) {
	if opts.Output == "" {
		return nil, fmt.Errorf("no output file specified")
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", opts.Width, opts.Height)
	}
	if opts.FPS <= 0 {
		return nil, fmt.Errorf("invalid frame rate %d", opts.FPS)
	}
	if opts.Codec == "" {
		opts.Codec = "libx264"
	}
	if opts.PixFmt == "" {
		opts.PixFmt = "yuv420p"
	}
	return &FFmpegEncoder{
		opts:   opts,
		log:    log,
		frames: make(chan *Frame, 5),
		done:   make(chan error, 1),
	}, nil
}

func (e *FFmpegEncoder) stream() *ffmpeg.Stream {
	s := ffmpeg.Input("pipe:", ffmpeg.KwArgs{
		"f":         "rawvideo",
		"pix_fmt":   "rgba",
		"s":         fmt.Sprintf("%dx%d", e.opts.Width, e.opts.Height),
		"framerate": strconv.Itoa(e.opts.FPS),
	}).Output(e.opts.Output, ffmpeg.KwArgs{
		"c:v":     e.opts.Codec,
		"pix_fmt": e.opts.PixFmt,
	}).OverWriteOutput().ErrorToStdOut()
	if e.opts.FFmpegPath != "" {
		s = s.SetFfmpegPath(e.opts.FFmpegPath)
	}
	return s
}

// Args returns the ffmpeg command line arguments.
func (e *FFmpegEncoder) Args() []string {
	return e.stream().GetArgs()
}

// Start launches ffmpeg and the writer goroutine.
func (e *FFmpegEncoder) Start() error {
	if e.cmd != nil {
		return fmt.Errorf("encoder already started")
	}
	cmd := e.stream().Compile()
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to open ffmpeg stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}
	e.cmd = cmd
	e.log.Info().Strs("args", cmd.Args).Msg("ffmpeg started")

	go e.run(stdin)
	return nil
}

func (e *FFmpegEncoder) run(stdin io.WriteCloser) {
	var writeErr error
	for f := range e.frames {
		if writeErr != nil {
			continue
		}
		if _, err := stdin.Write(f.Pixels); err != nil {
			writeErr = fmt.Errorf("failed to write frame %d: %w", f.Index, err)
			e.log.Error().Err(err).Int64("frame", f.Index).Msg("ffmpeg write failed")
		}
	}
	stdin.Close()
	err := e.cmd.Wait()
	if err == nil {
		err = writeErr
	}
	e.done <- err
}

// SendImage converts img to RGBA8 and queues it. It blocks while the queue
// is full.
func (e *FFmpegEncoder) SendImage(img *imaging.Image) error {
	if img.Width != e.opts.Width || img.Height != e.opts.Height {
		return fmt.Errorf("frame is %dx%d, encoder expects %dx%d", img.Width, img.Height, e.opts.Width, e.opts.Height)
	}
	return e.Send(&Frame{Pixels: img.RGBA8(nil)})
}

// Send queues a frame. Frame indices are assigned in order.
func (e *FFmpegEncoder) Send(f *Frame) error {
	if e.cmd == nil {
		return fmt.Errorf("encoder not started")
	}
	if want := e.opts.Width * e.opts.Height * 4; len(f.Pixels) != want {
		return fmt.Errorf("frame has %d bytes, want %d", len(f.Pixels), want)
	}
	f.Index = e.next
	e.next++
	e.frames <- f
	return nil
}

// Frames returns the number of frames queued so far.
func (e *FFmpegEncoder) Frames() int64 { return e.next }

// Close flushes the queue and waits for ffmpeg to exit. It is safe to call
// more than once.
func (e *FFmpegEncoder) Close() error {
	e.closeOnce.Do(func() {
		close(e.frames)
		if e.cmd == nil {
			return
		}
		e.closeErr = <-e.done
		e.log.Info().Int64("frames", e.next).Str("output", e.opts.Output).Msg("ffmpeg finished")
	})
	return e.closeErr
}

package encoder

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinsley/postfx/imaging"
)

func TestArgs(t *testing.T) {
	e, err := NewFFmpegEncoder(Options{Output: "out.mp4", Width: 64, Height: 32, FPS: 30}, zerolog.Nop())
	require.NoError(t, err)

	args := strings.Join(e.Args(), " ")
	assert.Contains(t, args, "-i pipe:")
	assert.Contains(t, args, "-pix_fmt rgba")
	assert.Contains(t, args, "-s 64x32")
	assert.Contains(t, args, "-framerate 30")
	assert.Contains(t, args, "-c:v libx264")
	assert.Contains(t, args, "-pix_fmt yuv420p")
	assert.Contains(t, args, "out.mp4")
	assert.Contains(t, args, "-y")
}

func TestOptionsValidation(t *testing.T) {
	for _, o := range []Options{
		{Width: 4, Height: 4, FPS: 30},
		{Output: "a.mp4", Width: 0, Height: 4, FPS: 30},
		{Output: "a.mp4", Width: 4, Height: 4},
	} {
		_, err := NewFFmpegEncoder(o, zerolog.Nop())
		assert.Error(t, err, "%+v", o)
	}
}

func TestSendRequiresStart(t *testing.T) {
	e, err := NewFFmpegEncoder(Options{Output: "out.mp4", Width: 2, Height: 2, FPS: 30}, zerolog.Nop())
	require.NoError(t, err)

	assert.ErrorContains(t, e.SendImage(imaging.NewImage(2, 2)), "not started")
	assert.ErrorContains(t, e.SendImage(imaging.NewImage(3, 2)), "encoder expects 2x2")
	assert.NoError(t, e.Close())
	assert.NoError(t, e.Close())
}

func TestStartMissingBinary(t *testing.T) {
	e, err := NewFFmpegEncoder(Options{
		Output:     "out.mp4",
		Width:      2,
		Height:     2,
		FPS:        30,
		FFmpegPath: filepath.Join(t.TempDir(), "no-ffmpeg"),
	}, zerolog.Nop())
	require.NoError(t, err)
	assert.Error(t, e.Start())
}

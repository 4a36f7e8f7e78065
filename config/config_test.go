package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinsley/postfx/effects"
	"github.com/richinsley/postfx/graphics"
	"github.com/richinsley/postfx/renderer"
	"github.com/richinsley/postfx/software"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "spheres", cfg.Scene.Kind)
	assert.Equal(t, 1280, cfg.Window.Width)
}

func TestLoadLayers(t *testing.T) {
	path := writeFile(t, t.TempDir(), "postfx.yaml", `
window:
  width: 640
  height: 480
scene:
  kind: image
  image: photo.png
record:
  codec: libx265
`)
	t.Setenv("POSTFX_WINDOW_HEIGHT", "360")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("width", 0, "")
	flags.Int("fps", 0, "")
	flags.Bool("log-json", false, "")
	require.NoError(t, flags.Parse([]string{"--width=320", "--log-json"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, 320, cfg.Window.Width, "flag beats file")
	assert.Equal(t, 360, cfg.Window.Height, "env beats file")
	assert.Equal(t, "image", cfg.Scene.Kind)
	assert.Equal(t, "photo.png", cfg.Scene.Image)
	assert.Equal(t, "libx265", cfg.Record.Codec)
	assert.Equal(t, 60, cfg.Record.FPS, "unset flag keeps default")
	assert.Equal(t, "postfx", cfg.Window.Title)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)

	path := writeFile(t, t.TempDir(), "bad.yaml", "scene:\n  kind: teapot\n")
	_, err = Load(path, nil)
	assert.ErrorContains(t, err, `unknown scene kind "teapot"`)

	path = writeFile(t, t.TempDir(), "img.yaml", "scene:\n  kind: image\n")
	_, err = Load(path, nil)
	assert.ErrorContains(t, err, "scene.image")
}

const bloomYAML = `
effects:
  - type: bright_filter
    params:
      threshold: 1.5
  - type: blur_2d
    params: {blurRadius: 4}
  - type: vignette
    params:
      dimColor: [0.1, 0.2, 0.3]
  - type: additive_blend
    inputs:
      mainScene: scene
`

func TestParseChain(t *testing.T) {
	c, err := ParseChain(strings.NewReader(bloomYAML))
	require.NoError(t, err)
	require.Len(t, c.Effects, 4)
	assert.Equal(t, "blur_2d", c.Effects[1].Type)
	assert.Equal(t, map[string]string{"mainScene": "scene"}, c.Effects[3].Inputs)

	built, err := c.Build(42)
	require.NoError(t, err)
	require.Len(t, built, 4)
	v, _ := built[0].Get("threshold")
	assert.Equal(t, float32(1.5), v)
	v, _ = built[1].Get("blurRadius")
	assert.Equal(t, float32(4), v, "integers coerce to float")
	v, _ = built[2].Get("dimColor")
	assert.Equal(t, mgl32.Vec3{0.1, 0.2, 0.3}, v)
	assert.NoError(t, built[3].Validate())
}

func TestParseChainErrors(t *testing.T) {
	_, err := ParseChain(strings.NewReader("effects:\n  - type: tint\n    colour: [1, 0, 0]\n"))
	assert.Error(t, err, "unknown keys are rejected")

	_, err = ParseChain(strings.NewReader("effects:\n  - params: {a: 1}\n"))
	var cfg *graphics.ConfigurationError
	require.ErrorAs(t, err, &cfg)
	assert.Equal(t, 0, cfg.Index)

	c, err := ParseChain(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, c.Effects)

	c = &Chain{Effects: []EffectSpec{{Type: "invert"}, {Type: "sepia"}}}
	_, err = c.Build(1)
	require.ErrorAs(t, err, &cfg)
	assert.Equal(t, 1, cfg.Index)
	assert.Equal(t, "sepia", cfg.Effect)

	c = &Chain{Effects: []EffectSpec{{Type: "additive_blend", Inputs: map[string]string{"mainScene": "bloom"}}}}
	_, err = c.Build(1)
	require.ErrorAs(t, err, &cfg)
	assert.Equal(t, "mainScene", cfg.Slot)
}

func TestChainRejectsOutOfRangeParams(t *testing.T) {
	c, err := ParseChain(strings.NewReader(`
effects:
  - type: invert
  - type: color_reduce
    params: {levels: 0}
`))
	require.NoError(t, err, "ranges are checked when effects are built")

	_, err = c.Build(1)
	var cfg *graphics.ConfigurationError
	require.ErrorAs(t, err, &cfg)
	assert.Equal(t, 1, cfg.Index)
	assert.Equal(t, "color_reduce", cfg.Effect)
	assert.Equal(t, "levels", cfg.Slot)

	c.Effects[1] = EffectSpec{Type: "horizontal_blur", Params: map[string]any{"blurRadius": 5000}}
	_, err = c.Build(1)
	require.ErrorAs(t, err, &cfg)
	assert.Equal(t, "blurRadius", cfg.Slot)
}

func TestChainEncodeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, DefaultChain().Encode(&buf))
	c, err := ParseChain(&buf)
	require.NoError(t, err)
	assert.Equal(t, DefaultChain(), c)
}

func TestInstall(t *testing.T) {
	dev := software.New(8, 8)
	pp, err := renderer.NewPostprocessor(dev, 8, 8)
	require.NoError(t, err)

	require.NoError(t, DefaultChain().Install(pp))
	assert.Len(t, pp.Effects(), 4)
	assert.Len(t, pp.RenderTargets(), 5)

	bad := &Chain{Effects: []EffectSpec{{Type: "nope"}}}
	assert.Error(t, bad.Install(pp))
	assert.Len(t, pp.Effects(), 4, "chain kept on build failure")

	require.NoError(t, (&Chain{Effects: []EffectSpec{{Type: effects.KindInvert}}}).Install(pp))
	assert.Len(t, pp.RenderTargets(), 2)
}

func TestChainWatcher(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "chain.yaml", "effects:\n  - type: invert\n")

	cw, err := NewChainWatcher(path, zerolog.Nop())
	require.NoError(t, err)
	defer cw.Close()

	writeFile(t, dir, "other.yaml", "ignored: true\n")
	writeFile(t, dir, "chain.yaml", "effects:\n  - type: invert\n  - type: copy\n")

	deadline := time.After(5 * time.Second)
	for {
		select {
		case u := <-cw.Updates():
			if u.Err == nil && len(u.Chain.Effects) == 2 {
				assert.Equal(t, "copy", u.Chain.Effects[1].Type)
				assert.NoError(t, cw.Close())
				assert.NoError(t, cw.Close())
				return
			}
		case <-deadline:
			t.Fatal("no chain update")
		}
	}
}

package effects

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinsley/postfx/graphics"
	"github.com/richinsley/postfx/imaging"
	"github.com/richinsley/postfx/software"
)

type quad graphics.GeometryID

func (q quad) Geometry() graphics.GeometryID { return graphics.GeometryID(q) }

func newQuad(t *testing.T, dev graphics.Device) quad {
	t.Helper()
	geo, err := dev.CreateGeometry(graphics.QuadVertices)
	require.NoError(t, err)
	return quad(geo)
}

// ramp rises along both axes; its bright corner has luminance above the
// default bright_filter threshold.
func ramp(w, h int) *imaging.Image {
	img := imaging.NewImage(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			fx, fy := float32(x)/float32(w-1), float32(y)/float32(h-1)
			img.Set(x, y, mgl32.Vec4{4 * fx, 4 * fy, fx + fy, 1})
		}
	}
	return img
}

func solid(w, h int, c mgl32.Vec4) *imaging.Image {
	img := imaging.NewImage(w, h)
	img.Fill(c)
	return img
}

// apply runs e once over src and returns the screen.
func apply(t *testing.T, e *Effect, src *imaging.Image) *imaging.Image {
	t.Helper()
	dev := software.New(src.Width, src.Height)
	tex, err := dev.CreateTexture(src)
	require.NoError(t, err)
	require.NoError(t, e.Apply(dev, newQuad(t, dev), []graphics.TextureID{tex}, graphics.Screen))
	out, err := dev.ReadPixels(graphics.Screen)
	require.NoError(t, err)
	return out
}

func TestBrightFilter(t *testing.T) {
	out := apply(t, NewBrightFilter(2.4), solid(2, 2, mgl32.Vec4{3, 3, 3, 1}))
	assert.Equal(t, mgl32.Vec4{3, 3, 3, 1}, out.At(1, 1))

	out = apply(t, NewBrightFilter(2.4), solid(2, 2, mgl32.Vec4{1, 1, 1, 1}))
	assert.Equal(t, mgl32.Vec4{0, 0, 0, 1}, out.At(0, 0))
}

func TestAdditiveBlend(t *testing.T) {
	dev := software.New(3, 3)
	scene, err := dev.CreateTexture(solid(3, 3, mgl32.Vec4{1.0, 0.8, 0.6, 1}))
	require.NoError(t, err)
	bloom, err := dev.CreateTexture(solid(3, 3, mgl32.Vec4{0.5, 0.4, 0.3, 1}))
	require.NoError(t, err)

	e := NewAdditiveBlend(scene, 2, 1)
	require.NoError(t, e.Validate())
	require.NoError(t, e.Apply(dev, newQuad(t, dev), []graphics.TextureID{bloom}, graphics.Screen))

	out, err := dev.ReadPixels(graphics.Screen)
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec3{2.5, 2.0, 1.5}, out.At(1, 1).Vec3())
}

func TestAdditiveBlendNeedsMainScene(t *testing.T) {
	e := NewAdditiveBlend(0, 1, 1)
	err := e.Validate()
	var cfg *graphics.ConfigurationError
	require.True(t, errors.As(err, &cfg))
	assert.Equal(t, MainSceneSlot, cfg.Slot)
	assert.Equal(t, KindAdditiveBlend, cfg.Effect)

	dev := software.New(2, 2)
	tex, err := dev.CreateTexture(solid(2, 2, mgl32.Vec4{}))
	require.NoError(t, err)
	err = e.Apply(dev, newQuad(t, dev), []graphics.TextureID{tex}, graphics.Screen)
	require.ErrorAs(t, err, &cfg)
	assert.Equal(t, MainSceneSlot, cfg.Slot)

	require.NoError(t, e.BindInput(MainSceneSlot, tex))
	assert.NoError(t, e.Validate())
}

func TestGaussianWeights(t *testing.T) {
	for _, r := range []float32{0, 1, 2.5, 6, 20} {
		w := GaussianWeights(r)
		assert.Len(t, w, 2*int(r)+1)
		var sum float64
		for i, v := range w {
			sum += v
			assert.InDelta(t, v, w[len(w)-1-i], 1e-12, "symmetric")
		}
		assert.InDelta(t, 1.0, sum, 1e-9, "radius %v", r)
	}
	assert.Equal(t, []float64{1}, GaussianWeights(0))

	k := GaussianKernel2D(3)
	var sum float64
	for _, row := range k {
		for _, v := range row {
			sum += v
		}
	}
	assert.InDelta(t, 1.0, sum, 1e-9)

	sep, direct := SampleCounts(20)
	assert.Equal(t, 82, sep)
	assert.Equal(t, 1681, direct)
}

func TestBlurKeepsConstantImage(t *testing.T) {
	c := mgl32.Vec4{0.2, 0.4, 0.8, 1}
	for _, e := range []*Effect{NewHorizontalBlur(4), NewVerticalBlur(4), NewBlur2D(3)} {
		out := apply(t, e, solid(9, 7, c))
		for i := 0; i < 4; i++ {
			assert.InDelta(t, c[i], out.At(4, 3)[i], 1e-5, e.Kind())
			assert.InDelta(t, c[i], out.At(0, 0)[i], 1e-5, e.Kind())
		}
	}
}

func TestBlurRadiusZeroIsCopy(t *testing.T) {
	src := imaging.NewImage(5, 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 5; x++ {
			src.Set(x, y, mgl32.Vec4{float32(x), float32(y), 0, 1})
		}
	}
	assert.Zero(t, imaging.MaxDiff(src, apply(t, NewHorizontalBlur(0), src)))
	assert.Zero(t, imaging.MaxDiff(src, apply(t, NewCopy(), src)))
}

func TestPixelateSamplesBlockCorner(t *testing.T) {
	src := imaging.NewImage(8, 8)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			src.Set(x, y, mgl32.Vec4{float32(x), float32(y), 0, 1})
		}
	}
	out := apply(t, NewPixelate(4), src)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			assert.Equal(t, src.At(x/4*4, y/4*4), out.At(x, y), "pixel %d,%d", x, y)
		}
	}
}

func TestColorEffects(t *testing.T) {
	out := apply(t, NewInvert(), solid(1, 1, mgl32.Vec4{0.25, 0.5, 1, 0.7}))
	assert.Equal(t, mgl32.Vec4{0.75, 0.5, 0, 0.7}, out.At(0, 0))

	out = apply(t, NewColorReduce(4), solid(1, 1, mgl32.Vec4{0.3, 0.6, 0.9, 1}))
	assert.Equal(t, mgl32.Vec4{0.25, 0.5, 1, 1}, out.At(0, 0))

	out = apply(t, NewTint(mgl32.Vec3{1, 0, 0}), solid(1, 1, mgl32.Vec4{0.3, 0.6, 0.9, 0.5}))
	got := out.At(0, 0)
	assert.InDelta(t, 0.6, got[0], 1e-6)
	assert.Zero(t, got[1])
	assert.Zero(t, got[2])
	assert.Equal(t, float32(0.5), got[3])
}

func TestVignette(t *testing.T) {
	src := solid(5, 5, mgl32.Vec4{1, 1, 1, 1})
	out := apply(t, NewVignette(0.4, 1, mgl32.Vec3{0, 0, 1}), src)
	assert.Equal(t, mgl32.Vec4{1, 1, 1, 1}, out.At(2, 2), "center is untouched")
	assert.Equal(t, mgl32.Vec4{0, 0, 1, 1}, out.At(0, 0), "corner is fully dimmed")
}

func TestSetRejectsBadParameters(t *testing.T) {
	e := NewBrightFilter(1)
	var cfg *graphics.ConfigurationError

	require.ErrorAs(t, e.Set("nope", 1), &cfg)
	assert.Equal(t, "nope", cfg.Slot)
	assert.Equal(t, "unknown parameter", cfg.Reason)

	assert.Error(t, e.Set("threshold", "high"))
	require.NoError(t, e.Set("threshold", 3.5))
	v, ok := e.Get("threshold")
	require.True(t, ok)
	assert.Equal(t, float32(3.5), v)

	require.ErrorAs(t, e.BindInput("sourceTexture", 1), &cfg)
	assert.Equal(t, "slot is fed by the chain", cfg.Reason)
	assert.Error(t, e.BindInput("other", 1))
}

func TestFromSpec(t *testing.T) {
	e, err := FromSpec(KindVignette, map[string]any{"dimStart": 0.1, "dimColor": []any{0.5, 0.5, 0.5}}, nil)
	require.NoError(t, err)
	p := e.Params()
	assert.Equal(t, float32(0.1), p.Float("dimStart"))
	assert.Equal(t, float32(1.0), p.Float("dimEnd"), "default kept")
	assert.Equal(t, mgl32.Vec3{0.5, 0.5, 0.5}, p.Vec3("dimColor"))

	_, err = FromSpec("sepia", nil, nil)
	var cfg *graphics.ConfigurationError
	require.ErrorAs(t, err, &cfg)
	assert.Equal(t, "sepia", cfg.Effect)

	assert.Len(t, Kinds(), 11)
	for _, k := range Kinds() {
		src, ok := Source(k)
		require.True(t, ok, k)
		assert.Equal(t, "sourceTexture", src.Samplers[0], k)
		assert.Contains(t, src.Fragment, "uniform sampler2D sourceTexture;", k)
		assert.NotNil(t, src.Kernel, k)
	}
}

func TestBlurUniformAvoidsBuiltinName(t *testing.T) {
	src, _ := Source(KindHorizontalBlur)
	assert.Contains(t, src.Fragment, "uniform vec2 texSize;")
	assert.NotContains(t, src.Fragment, "uniform vec2 textureSize;")
}

func TestApplyRejectsSameTarget(t *testing.T) {
	dev := software.New(4, 4)
	target, tex, err := dev.CreateTarget(4, 4, false)
	require.NoError(t, err)

	err = NewInvert().Apply(dev, newQuad(t, dev), []graphics.TextureID{tex}, graphics.Binding{Target: target})
	var cfg *graphics.ConfigurationError
	require.ErrorAs(t, err, &cfg)
	assert.Equal(t, "sourceTexture", cfg.Slot)
	assert.Equal(t, graphics.Screen, dev.Binding(), "binding untouched")
}

func TestApplyRestoresBinding(t *testing.T) {
	dev := software.New(4, 4)
	a, _, err := dev.CreateTarget(4, 4, false)
	require.NoError(t, err)
	b, _, err := dev.CreateTarget(4, 4, false)
	require.NoError(t, err)
	src, err := dev.CreateTexture(solid(4, 4, mgl32.Vec4{1, 0, 0, 1}))
	require.NoError(t, err)

	require.NoError(t, dev.Bind(graphics.Binding{Target: a}))
	require.NoError(t, NewInvert().Apply(dev, newQuad(t, dev), []graphics.TextureID{src}, graphics.Binding{Target: b}))
	assert.Equal(t, graphics.Binding{Target: a}, dev.Binding())

	out, err := dev.ReadPixels(graphics.Binding{Target: b})
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec4{0, 1, 1, 1}, out.At(2, 2))
}

func TestCompileOncePerDevice(t *testing.T) {
	dev := software.New(2, 2)
	e := NewCopy()
	require.NoError(t, e.Compile(dev))
	require.NoError(t, e.Compile(dev))
	assert.Equal(t, 1, dev.Live().Programs)

	e.Release()
	e.Release()
	assert.Zero(t, dev.Live().Programs)
}

func TestZeroConfigEffectsUseDefaults(t *testing.T) {
	src := ramp(16, 16)
	for _, kind := range Kinds() {
		t.Run(kind, func(t *testing.T) {
			dev := software.New(src.Width, src.Height)
			in, err := dev.CreateTexture(src)
			require.NoError(t, err)
			mainTex, err := dev.CreateTexture(solid(src.Width, src.Height, mgl32.Vec4{0.1, 0.2, 0.3, 1}))
			require.NoError(t, err)

			e, err := FromSpec(kind, nil, nil)
			require.NoError(t, err)
			if kind == KindAdditiveBlend {
				require.NoError(t, e.BindInput(MainSceneSlot, mainTex))
			}
			defaults, _ := Defaults(kind)
			assert.Equal(t, defaults, e.Params())
			require.NoError(t, e.Validate())

			require.NoError(t, e.Apply(dev, newQuad(t, dev), []graphics.TextureID{in}, graphics.Screen))
			out, err := dev.ReadPixels(graphics.Screen)
			require.NoError(t, err)

			lo, hi := out.At(0, 0), out.At(0, 0)
			for y := 0; y < out.Height; y++ {
				for x := 0; x < out.Width; x++ {
					p := out.At(x, y)
					for i, c := range p {
						require.False(t, math.IsNaN(float64(c)) || math.IsInf(float64(c), 0), "pixel %d,%d = %v", x, y, p)
						lo[i], hi[i] = min(lo[i], c), max(hi[i], c)
					}
				}
			}
			if kind == KindCopy {
				assert.Zero(t, imaging.MaxDiff(src, out))
				return
			}
			var spread float32
			for i := 0; i < 3; i++ {
				spread = max(spread, hi[i]-lo[i])
			}
			assert.Greater(t, spread, float32(0.05), "output is not a flat image")
		})
	}
}

func TestParameterRanges(t *testing.T) {
	rejected := []struct {
		kind  string
		param string
		value any
	}{
		{KindColorReduce, "levels", 0},
		{KindColorReduce, "levels", -2.5},
		{KindPixelate, "pixelSize", 0},
		{KindPixelate, "pixelSize", -4},
		{KindHorizontalBlur, "blurRadius", -1},
		{KindVerticalBlur, "blurRadius", MaxBlurRadius + 1},
		{KindBlur2D, "blurRadius", 1e6},
		{KindBrightFilter, "threshold", math.NaN()},
		{KindTint, "tintColor", []any{1.0, math.Inf(1), 0.0}},
	}
	for _, tt := range rejected {
		_, err := FromSpec(tt.kind, map[string]any{tt.param: tt.value}, nil)
		var cfg *graphics.ConfigurationError
		require.ErrorAs(t, err, &cfg, "%s %s=%v", tt.kind, tt.param, tt.value)
		assert.Equal(t, tt.kind, cfg.Effect)
		assert.Equal(t, tt.param, cfg.Slot)
	}

	accepted := []struct {
		kind  string
		param string
		value any
	}{
		{KindColorReduce, "levels", 1},
		{KindPixelate, "pixelSize", 1},
		{KindHorizontalBlur, "blurRadius", 0},
		{KindBlur2D, "blurRadius", MaxBlurRadius},
		{KindBrightFilter, "threshold", -1},
	}
	for _, tt := range accepted {
		_, err := FromSpec(tt.kind, map[string]any{tt.param: tt.value}, nil)
		assert.NoError(t, err, "%s %s=%v", tt.kind, tt.param, tt.value)
	}

	e := NewBrightFilter(2)
	assert.Error(t, e.Set("threshold", math.Inf(-1)))
	assert.Equal(t, float32(2), e.Params().Float("threshold"), "rejected value not stored")
}

func TestConstructorValuesCheckedOnValidate(t *testing.T) {
	tests := []struct {
		effect *Effect
		slot   string
	}{
		{NewColorReduce(0), "levels"},
		{NewPixelate(0), "pixelSize"},
		{NewHorizontalBlur(MaxBlurRadius + 50), "blurRadius"},
	}
	for _, tt := range tests {
		var cfg *graphics.ConfigurationError
		require.ErrorAs(t, tt.effect.Validate(), &cfg, tt.slot)
		assert.Equal(t, tt.slot, cfg.Slot)

		dev := software.New(4, 4)
		tex, err := dev.CreateTexture(solid(4, 4, mgl32.Vec4{0.5, 0.5, 0.5, 1}))
		require.NoError(t, err)
		err = tt.effect.Apply(dev, newQuad(t, dev), []graphics.TextureID{tex}, graphics.Screen)
		require.ErrorAs(t, err, &cfg, tt.slot)
		assert.Equal(t, tt.slot, cfg.Slot)
		assert.Zero(t, dev.Draws(), "nothing drawn")
	}
}

package effects

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/richinsley/postfx/graphics"
)

// luminance weights (Rec. 709)
var luma = mgl32.Vec3{0.2126, 0.7152, 0.0722}

// GaussianWeights returns the normalized weights of a 1-D Gaussian for
// offsets -r..r, r = floor(radius), with sigma = radius/3.
func GaussianWeights(radius float32) []float64 {
	r := int(radius)
	if r < 0 {
		r = 0
	}
	sigma := math.Max(float64(radius)/3, 0.0001)
	w := make([]float64, 2*r+1)
	var total float64
	for k := -r; k <= r; k++ {
		w[k+r] = math.Exp(-float64(k*k) / (2 * sigma * sigma))
		total += w[k+r]
	}
	for i := range w {
		w[i] /= total
	}
	return w
}

// GaussianKernel2D returns the (2r+1)² kernel equivalent to running the
// horizontal and vertical passes one after the other.
func GaussianKernel2D(radius float32) [][]float64 {
	w := GaussianWeights(radius)
	k := make([][]float64, len(w))
	for y := range k {
		k[y] = make([]float64, len(w))
		for x := range k[y] {
			k[y][x] = w[y] * w[x]
		}
	}
	return k
}

// SampleCounts returns the texture reads per pixel of the separable passes
// combined and of the direct 2-D pass for a radius.
func SampleCounts(radius float32) (separable, direct int) {
	n := 2*int(radius) + 1
	return 2 * n, n * n
}

func copyKernel(s graphics.Sampler, f graphics.Fragment, _ graphics.Uniforms) mgl32.Vec4 {
	return s.Sample(0, f.UV)
}

func brightFilterKernel(s graphics.Sampler, f graphics.Fragment, u graphics.Uniforms) mgl32.Vec4 {
	c := s.Sample(0, f.UV)
	if c.Vec3().Dot(luma) > u.Float("threshold") {
		return c
	}
	return mgl32.Vec4{0, 0, 0, 1}
}

// blurKernel returns a separable pass along axis (0 = x, 1 = y). Weights are
// cached per radius.
func blurKernel(axis int) graphics.Kernel {
	var (
		cachedRadius float32 = -1
		weights      []float64
	)
	return func(s graphics.Sampler, f graphics.Fragment, u graphics.Uniforms) mgl32.Vec4 {
		radius := u.Float("blurRadius")
		if radius != cachedRadius {
			cachedRadius, weights = radius, GaussianWeights(radius)
		}
		step := 1 / u.Vec2("textureSize")[axis]
		r := len(weights) / 2
		var sum mgl32.Vec4
		for k := -r; k <= r; k++ {
			uv := f.UV
			uv[axis] += float32(k) * step
			sum = sum.Add(s.Sample(0, uv).Mul(float32(weights[k+r])))
		}
		return sum
	}
}

func blur2DKernel() graphics.Kernel {
	var (
		cachedRadius float32 = -1
		kernel       [][]float64
	)
	return func(s graphics.Sampler, f graphics.Fragment, u graphics.Uniforms) mgl32.Vec4 {
		radius := u.Float("blurRadius")
		if radius != cachedRadius {
			cachedRadius, kernel = radius, GaussianKernel2D(radius)
		}
		size := u.Vec2("textureSize")
		r := len(kernel) / 2
		var sum mgl32.Vec4
		for j := -r; j <= r; j++ {
			for i := -r; i <= r; i++ {
				uv := mgl32.Vec2{f.UV[0] + float32(i)/size[0], f.UV[1] + float32(j)/size[1]}
				sum = sum.Add(s.Sample(0, uv).Mul(float32(kernel[j+r][i+r])))
			}
		}
		return sum
	}
}

func additiveBlendKernel(s graphics.Sampler, f graphics.Fragment, u graphics.Uniforms) mgl32.Vec4 {
	bloom := s.Sample(0, f.UV)
	original := s.Sample(1, f.UV)
	return original.Mul(u.Float("originalStrength")).Add(bloom.Mul(u.Float("blendStrength")))
}

func tintKernel(s graphics.Sampler, f graphics.Fragment, u graphics.Uniforms) mgl32.Vec4 {
	c := s.Sample(0, f.UV)
	gray := (c[0] + c[1] + c[2]) / 3
	return u.Vec3("tintColor").Mul(gray).Vec4(c[3])
}

func vignetteKernel(s graphics.Sampler, f graphics.Fragment, u graphics.Uniforms) mgl32.Vec4 {
	c := s.Sample(0, f.UV)
	d := f.UV.Mul(2).Sub(mgl32.Vec2{1, 1}).Len()
	start, end := u.Float("dimStart"), u.Float("dimEnd")
	t := mgl32.Clamp((d-start)/max(end-start, 0.0001), 0, 1)
	rgb := c.Vec3().Mul(1 - t).Add(u.Vec3("dimColor").Mul(t))
	return rgb.Vec4(c[3])
}

func pixelateKernel(s graphics.Sampler, f graphics.Fragment, u graphics.Uniforms) mgl32.Vec4 {
	res := u.Vec2("resolution")
	size := u.Float("pixelSize")
	var uv mgl32.Vec2
	for i := 0; i < 2; i++ {
		blocks := res[i] / size
		uv[i] = float32(math.Floor(float64(f.UV[i]*blocks)))/blocks + 0.5/res[i]
	}
	return s.Sample(0, uv)
}

func invertKernel(s graphics.Sampler, f graphics.Fragment, _ graphics.Uniforms) mgl32.Vec4 {
	c := s.Sample(0, f.UV)
	return mgl32.Vec4{1 - c[0], 1 - c[1], 1 - c[2], c[3]}
}

func colorReduceKernel(s graphics.Sampler, f graphics.Fragment, u graphics.Uniforms) mgl32.Vec4 {
	c := s.Sample(0, f.UV)
	levels := u.Float("levels")
	for i := 0; i < 3; i++ {
		c[i] = float32(math.Round(float64(c[i]*levels))) / levels
	}
	return c
}

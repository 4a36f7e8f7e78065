package effects

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/richinsley/postfx/graphics"
	"github.com/richinsley/postfx/shader"
)

// Built-in effect kinds.
const (
	KindCopy           = "copy"
	KindBrightFilter   = "bright_filter"
	KindHorizontalBlur = "horizontal_blur"
	KindVerticalBlur   = "vertical_blur"
	KindBlur2D         = "blur_2d"
	KindAdditiveBlend  = "additive_blend"
	KindTint           = "tint"
	KindVignette       = "vignette"
	KindPixelate       = "pixelate"
	KindInvert         = "invert"
	KindColorReduce    = "color_reduce"
)

// MainSceneSlot is the side-channel slot of additive_blend holding the
// unprocessed scene.
const MainSceneSlot = "mainScene"

type definition struct {
	samplers []string
	uniforms []graphics.UniformDecl
	defaults graphics.Uniforms
	body     string
	kernel   func() graphics.Kernel
}

func static(k graphics.Kernel) func() graphics.Kernel {
	return func() graphics.Kernel { return k }
}

// MaxBlurRadius caps blurRadius. blur_2d reads (2r+1)² texels per pixel,
// 40401 at the cap.
const MaxBlurRadius = 100

var blurUniforms = []graphics.UniformDecl{
	{Name: "textureSize", Type: graphics.Vec2, Resolution: true, Ident: "texSize"},
	{Name: "blurRadius", Type: graphics.Float, Range: &graphics.Range{Min: 0, Max: MaxBlurRadius}},
}

var builtins = map[string]definition{
	KindCopy: {
		body:   shader.CopyBody,
		kernel: static(copyKernel),
	},
	KindBrightFilter: {
		uniforms: []graphics.UniformDecl{{Name: "threshold", Type: graphics.Float}},
		defaults: graphics.Uniforms{"threshold": float32(2.4)},
		body:     shader.BrightFilterBody,
		kernel:   static(brightFilterKernel),
	},
	KindHorizontalBlur: {
		uniforms: blurUniforms,
		defaults: graphics.Uniforms{"blurRadius": float32(20)},
		body:     shader.HorizontalBlurBody,
		kernel:   func() graphics.Kernel { return blurKernel(0) },
	},
	KindVerticalBlur: {
		uniforms: blurUniforms,
		defaults: graphics.Uniforms{"blurRadius": float32(20)},
		body:     shader.VerticalBlurBody,
		kernel:   func() graphics.Kernel { return blurKernel(1) },
	},
	KindBlur2D: {
		uniforms: blurUniforms,
		defaults: graphics.Uniforms{"blurRadius": float32(20)},
		body:     shader.Blur2DBody,
		kernel:   blur2DKernel,
	},
	KindAdditiveBlend: {
		samplers: []string{MainSceneSlot},
		uniforms: []graphics.UniformDecl{
			{Name: "originalStrength", Type: graphics.Float},
			{Name: "blendStrength", Type: graphics.Float},
		},
		defaults: graphics.Uniforms{"originalStrength": float32(1), "blendStrength": float32(1)},
		body:     shader.AdditiveBlendBody,
		kernel:   static(additiveBlendKernel),
	},
	KindTint: {
		uniforms: []graphics.UniformDecl{{Name: "tintColor", Type: graphics.Vec3}},
		defaults: graphics.Uniforms{"tintColor": mgl32.Vec3{1, 0, 0}},
		body:     shader.TintBody,
		kernel:   static(tintKernel),
	},
	KindVignette: {
		uniforms: []graphics.UniformDecl{
			{Name: "dimStart", Type: graphics.Float},
			{Name: "dimEnd", Type: graphics.Float},
			{Name: "dimColor", Type: graphics.Vec3},
		},
		defaults: graphics.Uniforms{"dimStart": float32(0.4), "dimEnd": float32(1.0), "dimColor": mgl32.Vec3{}},
		body:     shader.VignetteBody,
		kernel:   static(vignetteKernel),
	},
	KindPixelate: {
		uniforms: []graphics.UniformDecl{
			{Name: "pixelSize", Type: graphics.Float, Range: graphics.AtLeast(1)},
			{Name: "resolution", Type: graphics.Vec2, Resolution: true},
		},
		defaults: graphics.Uniforms{"pixelSize": float32(8)},
		body:     shader.PixelateBody,
		kernel:   static(pixelateKernel),
	},
	KindInvert: {
		body:   shader.InvertBody,
		kernel: static(invertKernel),
	},
	KindColorReduce: {
		uniforms: []graphics.UniformDecl{{Name: "levels", Type: graphics.Float, Range: graphics.AtLeast(1)}},
		defaults: graphics.Uniforms{"levels": float32(4)},
		body:     shader.ColorReduceBody,
		kernel:   static(colorReduceKernel),
	},
}

// Kinds lists the built-in effect kinds in alphabetical order.
func Kinds() []string {
	kinds := make([]string, 0, len(builtins))
	for k := range builtins {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Defaults returns the default parameters of a built-in kind.
func Defaults(kind string) (graphics.Uniforms, bool) {
	def, ok := builtins[kind]
	if !ok {
		return nil, false
	}
	return def.defaults.Clone(), true
}

// Source returns the program source of a built-in kind.
func Source(kind string) (graphics.ProgramSource, bool) {
	def, ok := builtins[kind]
	if !ok {
		return graphics.ProgramSource{}, false
	}
	samplers := append([]string{shader.SourceTexture}, def.samplers...)
	decls := make([]string, len(def.uniforms))
	for i, u := range def.uniforms {
		decls[i] = u.Type.String() + " " + u.GLSLName()
	}
	return graphics.ProgramSource{
		Name:     kind,
		Fragment: shader.Fragment(samplers, decls, def.body),
		Samplers: samplers,
		Uniforms: def.uniforms,
		Kernel:   def.kernel(),
	}, true
}

// FromSpec builds a built-in effect with its defaults overridden by params
// and side-channel slots bound from side.
func FromSpec(kind string, params map[string]any, side map[string]graphics.TextureID) (*Effect, error) {
	src, ok := Source(kind)
	if !ok {
		return nil, &graphics.ConfigurationError{Index: -1, Effect: kind, Reason: "unknown effect type"}
	}
	e, err := New(kind, src, builtins[kind].defaults, side)
	if err != nil {
		return nil, err
	}
	for name, v := range params {
		if err := e.Set(name, v); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// mustBuild backs the typed constructors. Parameter values are stored
// without range checks; out-of-range values surface from Validate when the
// effect is added to a chain.
func mustBuild(kind string, params map[string]any, side map[string]graphics.TextureID) *Effect {
	e, err := FromSpec(kind, nil, side)
	if err != nil {
		panic(fmt.Sprintf("effects: built-in %s: %v", kind, err))
	}
	for name, v := range params {
		if err := e.assign(name, v, false); err != nil {
			panic(fmt.Sprintf("effects: built-in %s: %v", kind, err))
		}
	}
	return e
}

// NewCopy passes its input through unchanged.
func NewCopy() *Effect { return mustBuild(KindCopy, nil, nil) }

// NewBrightFilter keeps pixels whose luminance exceeds threshold and
// replaces the rest with opaque black.
func NewBrightFilter(threshold float32) *Effect {
	return mustBuild(KindBrightFilter, map[string]any{"threshold": threshold}, nil)
}

// NewHorizontalBlur is the horizontal half of a separable Gaussian blur.
func NewHorizontalBlur(radius float32) *Effect {
	return mustBuild(KindHorizontalBlur, map[string]any{"blurRadius": radius}, nil)
}

// NewVerticalBlur is the vertical half of a separable Gaussian blur.
func NewVerticalBlur(radius float32) *Effect {
	return mustBuild(KindVerticalBlur, map[string]any{"blurRadius": radius}, nil)
}

// NewBlur2D is a direct (2r+1)² Gaussian blur.
func NewBlur2D(radius float32) *Effect {
	return mustBuild(KindBlur2D, map[string]any{"blurRadius": radius}, nil)
}

// NewAdditiveBlend adds the chain input (the bloom) to the texture bound
// to mainScene. mainScene may be zero and bound later with BindInput.
func NewAdditiveBlend(mainScene graphics.TextureID, originalStrength, blendStrength float32) *Effect {
	var side map[string]graphics.TextureID
	if mainScene != 0 {
		side = map[string]graphics.TextureID{MainSceneSlot: mainScene}
	}
	return mustBuild(KindAdditiveBlend, map[string]any{
		"originalStrength": originalStrength,
		"blendStrength":    blendStrength,
	}, side)
}

// NewTint converts to gray and multiplies by color.
func NewTint(color mgl32.Vec3) *Effect {
	return mustBuild(KindTint, map[string]any{"tintColor": color}, nil)
}

// NewVignette darkens toward dimColor between dimStart and dimEnd, measured
// as distance from the center in [-1,1] screen space.
func NewVignette(dimStart, dimEnd float32, dimColor mgl32.Vec3) *Effect {
	return mustBuild(KindVignette, map[string]any{
		"dimStart": dimStart,
		"dimEnd":   dimEnd,
		"dimColor": dimColor,
	}, nil)
}

func NewPixelate(pixelSize float32) *Effect {
	return mustBuild(KindPixelate, map[string]any{"pixelSize": pixelSize}, nil)
}

func NewInvert() *Effect { return mustBuild(KindInvert, nil, nil) }

func NewColorReduce(levels float32) *Effect {
	return mustBuild(KindColorReduce, map[string]any{"levels": levels}, nil)
}

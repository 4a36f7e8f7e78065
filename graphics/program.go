package graphics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// UniformType is the GLSL type of a uniform.
type UniformType int

const (
	Float UniformType = iota
	Int
	Vec2
	Vec3
	Vec4
	Mat4
)

func (t UniformType) String() string {
	switch t {
	case Float:
		return "float"
	case Int:
		return "int"
	case Vec2:
		return "vec2"
	case Vec3:
		return "vec3"
	case Vec4:
		return "vec4"
	case Mat4:
		return "mat4"
	}
	return fmt.Sprintf("UniformType(%d)", int(t))
}

// UniformDecl declares a uniform of a program.
type UniformDecl struct {
	Name string
	Type UniformType
	// Resolution marks a vec2 that, when left at zero, is filled with the
	// size of the first input texture at draw time.
	Resolution bool
	// Ident is the GLSL identifier when it differs from Name, for
	// parameters whose name collides with a GLSL built-in.
	Ident string
	// Range bounds a float or int uniform. Nil means any finite value.
	Range *Range
}

// Range is an inclusive interval.
type Range struct {
	Min, Max float64
}

// AtLeast is the range [lo, +Inf).
func AtLeast(lo float64) *Range { return &Range{Min: lo, Max: math.Inf(1)} }

func (r Range) String() string {
	if math.IsInf(r.Max, 1) {
		return fmt.Sprintf(">= %g", r.Min)
	}
	return fmt.Sprintf("in [%g, %g]", r.Min, r.Max)
}

// Check reports whether v, already coerced to the uniform's type, is finite
// and inside the declared range.
func (u UniformDecl) Check(v any) error {
	var fs []float32
	switch x := v.(type) {
	case float32:
		fs = []float32{x}
	case int32:
		fs = []float32{float32(x)}
	case mgl32.Vec2:
		fs = x[:]
	case mgl32.Vec3:
		fs = x[:]
	case mgl32.Vec4:
		fs = x[:]
	case mgl32.Mat4:
		fs = x[:]
	default:
		return fmt.Errorf("unsupported value %T", v)
	}
	for _, f := range fs {
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return fmt.Errorf("value %v is not finite", v)
		}
	}
	if u.Range != nil && len(fs) == 1 {
		if f := float64(fs[0]); f < u.Range.Min || f > u.Range.Max {
			return fmt.Errorf("value %g must be %s", f, u.Range)
		}
	}
	return nil
}

// GLSLName returns the identifier the uniform has in shader source.
func (u UniformDecl) GLSLName() string {
	if u.Ident != "" {
		return u.Ident
	}
	return u.Name
}

// Fragment describes the pixel a Kernel is shading.
type Fragment struct {
	UV mgl32.Vec2
	// Coord is the window coordinate of the pixel center, like gl_FragCoord.
	Coord mgl32.Vec2
	// Resolution is the size of the destination.
	Resolution mgl32.Vec2
}

// Sampler gives a Kernel access to the textures bound to its slots.
type Sampler interface {
	Sample(slot int, uv mgl32.Vec2) mgl32.Vec4
	Size(slot int) (width, height int)
}

// Kernel is the CPU rendition of a fragment shader, used by devices that
// do not run GLSL.
type Kernel func(s Sampler, f Fragment, u Uniforms) mgl32.Vec4

// ProgramSource is everything a device needs to build a program.
type ProgramSource struct {
	Name string
	// Fragment is a GLSL ES 3.00 fragment shader. The vertex stage is
	// always the full-screen quad pass-through.
	Fragment string
	Samplers []string
	Uniforms []UniformDecl
	Kernel   Kernel
}

// Uniform looks up a declared uniform by name.
func (p ProgramSource) Uniform(name string) (UniformDecl, bool) {
	for _, u := range p.Uniforms {
		if u.Name == name {
			return u, true
		}
	}
	return UniformDecl{}, false
}

// SamplerIndex returns the slot index of a named sampler, or -1.
func (p ProgramSource) SamplerIndex(name string) int {
	for i, s := range p.Samplers {
		if s == name {
			return i
		}
	}
	return -1
}

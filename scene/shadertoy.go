package scene

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/richinsley/postfx/graphics"
	"github.com/richinsley/postfx/renderer"
	"github.com/richinsley/postfx/shader"
)

// ShaderScene runs a single-pass Shadertoy image shader as the scene. It has
// GLSL only, so it needs the OpenGL device.
type ShaderScene struct {
	dev     graphics.Device
	quad    *renderer.FullscreenQuad
	program graphics.ProgramID
	width   int
	height  int

	clock func() float64
	last  float64
	frame int32
}

var shadertoyUniforms = []graphics.UniformDecl{
	{Name: "iResolution", Type: graphics.Vec3},
	{Name: "iTime", Type: graphics.Float},
	{Name: "iTimeDelta", Type: graphics.Float},
	{Name: "iFrame", Type: graphics.Int},
	{Name: "iMouse", Type: graphics.Vec4},
	{Name: "iDate", Type: graphics.Vec4},
}

// NewShaderScene compiles the image pass code (with optional common code)
// for a width x height destination. clock returns seconds since start; nil
// uses wall time.
func NewShaderScene(dev graphics.Device, quad *renderer.FullscreenQuad, image, common string, width, height int, clock func() float64) (*ShaderScene, error) {
	if clock == nil {
		start := time.Now()
		clock = func() float64 { return time.Since(start).Seconds() }
	}
	program, err := dev.CompileProgram(graphics.ProgramSource{
		Name:     "shadertoy",
		Fragment: shader.GetShadertoyFragment(0, common, image),
		Uniforms: shadertoyUniforms,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compile shadertoy program: %w", err)
	}
	return &ShaderScene{dev: dev, quad: quad, program: program, width: width, height: height, clock: clock}, nil
}

func (s *ShaderScene) Draw(_ renderer.Camera) error {
	if s.program == 0 {
		return &graphics.NotInitializedError{What: "shadertoy program"}
	}
	now := s.clock()
	u := frameUniforms(s.width, s.height, now, now-s.last, s.frame, time.Now())
	s.last = now
	s.frame++
	return s.quad.Draw(s.program, nil, u)
}

func (s *ShaderScene) Destroy() {
	if s.program != 0 {
		s.dev.DeleteProgram(s.program)
		s.program = 0
	}
}

func frameUniforms(width, height int, t, dt float64, frame int32, date time.Time) graphics.Uniforms {
	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return graphics.Uniforms{
		"iResolution": mgl32.Vec3{float32(width), float32(height), 1},
		"iTime":       float32(t),
		"iTimeDelta":  float32(dt),
		"iFrame":      frame,
		"iMouse":      mgl32.Vec4{},
		"iDate": mgl32.Vec4{
			float32(date.Year()),
			float32(date.Month() - 1),
			float32(date.Day()),
			float32(date.Sub(midnight).Seconds()),
		},
	}
}

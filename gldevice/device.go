// Package gldevice implements graphics.Device on OpenGL 4.1 core (or OpenGL
// ES 3 through EGL). Fragment shaders are translated from WebGL2 GLSL with
// goshadertranslator before compilation.
package gldevice

import (
	"fmt"
	"strings"
	"sync"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/rs/zerolog"

	"github.com/richinsley/postfx/graphics"
)

var glInitOnce sync.Once

var _ graphics.Device = (*Device)(nil)

type texture struct {
	width, height int
}

type framebuffer struct {
	color  graphics.TextureID
	depth  uint32
	width  int
	height int
}

type geometry struct {
	vbo   uint32
	count int32
}

// Device is a graphics.Device backed by the current OpenGL context.
type Device struct {
	context        graphics.Context
	log            zerolog.Logger
	isGLES         bool
	maxTextureSize int

	textures   map[graphics.TextureID]*texture
	targets    map[graphics.TargetID]*framebuffer
	programs   map[graphics.ProgramID]*program
	geometries map[graphics.GeometryID]*geometry
	bound      graphics.Binding
}

// Option configures a Device.
type Option func(*Device)

// WithLogger sets the device logger.
func WithLogger(l zerolog.Logger) Option {
	return func(d *Device) { d.log = l }
}

// New makes ctx current on the calling thread, loads the GL entry points
// and returns a device drawing into ctx.
func New(ctx graphics.Context, opts ...Option) (*Device, error) {
	d := &Device{
		context:    ctx,
		log:        zerolog.Nop(),
		textures:   make(map[graphics.TextureID]*texture),
		targets:    make(map[graphics.TargetID]*framebuffer),
		programs:   make(map[graphics.ProgramID]*program),
		geometries: make(map[graphics.GeometryID]*geometry),
	}
	for _, o := range opts {
		o(d)
	}

	ctx.MakeCurrent()

	var initErr error
	glInitOnce.Do(func() {
		initErr = gl.Init()
	})
	if initErr != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", initErr)
	}

	version := gl.GoStr(gl.GetString(gl.VERSION))
	d.isGLES = strings.Contains(version, "OpenGL ES")
	var maxSize int32
	gl.GetIntegerv(gl.MAX_TEXTURE_SIZE, &maxSize)
	d.maxTextureSize = int(maxSize)

	d.log.Info().
		Str("version", version).
		Str("renderer", gl.GoStr(gl.GetString(gl.RENDERER))).
		Int("max_texture_size", d.maxTextureSize).
		Msg("OpenGL device ready")
	return d, nil
}

// IsGLES reports whether the context is OpenGL ES.
func (d *Device) IsGLES() bool { return d.isGLES }

func (d *Device) Bind(b graphics.Binding) error {
	width, height := d.ScreenSize()
	if !b.IsScreen() {
		fb, ok := d.targets[b.Target]
		if !ok {
			return fmt.Errorf("unknown render target %d", b.Target)
		}
		width, height = fb.width, fb.height
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(b.Target))
	gl.Viewport(0, 0, int32(width), int32(height))
	d.bound = b
	return nil
}

func (d *Device) BindScreen() error { return d.Bind(graphics.Screen) }

func (d *Device) Binding() graphics.Binding { return d.bound }

func (d *Device) ScreenSize() (int, int) {
	return d.context.GetFramebufferSize()
}

func (d *Device) Clear(c mgl32.Vec4) {
	gl.ClearColor(c[0], c[1], c[2], c[3])
	gl.ClearDepth(1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

func (d *Device) CreateGeometry(vertices []float32) (graphics.GeometryID, error) {
	if len(vertices) == 0 || len(vertices)%(3*graphics.VertexStride) != 0 {
		return 0, fmt.Errorf("vertex data must hold whole triangles, got %d floats", len(vertices))
	}
	var vao, vbo uint32
	gl.GenVertexArrays(1, &vao)
	gl.GenBuffers(1, &vbo)
	gl.BindVertexArray(vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)
	if err := glError("vertex buffer"); err != nil {
		gl.BindVertexArray(0)
		gl.DeleteBuffers(1, &vbo)
		gl.DeleteVertexArrays(1, &vao)
		return 0, err
	}
	stride := int32(graphics.VertexStride * 4)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, stride, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 2, gl.FLOAT, false, stride, gl.PtrOffset(2*4))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)

	id := graphics.GeometryID(vao)
	d.geometries[id] = &geometry{vbo: vbo, count: int32(len(vertices) / graphics.VertexStride)}
	return id, nil
}

func (d *Device) DeleteGeometry(id graphics.GeometryID) {
	g, ok := d.geometries[id]
	if !ok {
		return
	}
	vao := uint32(id)
	gl.DeleteBuffers(1, &g.vbo)
	gl.DeleteVertexArrays(1, &vao)
	delete(d.geometries, id)
}

// Destroy releases every object the device still tracks.
func (d *Device) Destroy() {
	for id := range d.programs {
		d.DeleteProgram(id)
	}
	for id := range d.targets {
		d.DeleteTarget(id)
	}
	for id := range d.textures {
		d.DeleteTexture(id)
	}
	for id := range d.geometries {
		d.DeleteGeometry(id)
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	d.bound = graphics.Screen
}

// glError drains the GL error queue and reports out-of-memory as an
// allocation failure.
func glError(what string) error {
	var first uint32
	for e := gl.GetError(); e != gl.NO_ERROR; e = gl.GetError() {
		if first == 0 {
			first = e
		}
	}
	switch first {
	case gl.NO_ERROR:
		return nil
	case gl.OUT_OF_MEMORY:
		return &graphics.AllocationError{What: what, Err: fmt.Errorf("GL_OUT_OF_MEMORY")}
	default:
		return fmt.Errorf("%s: GL error 0x%04x", what, first)
	}
}

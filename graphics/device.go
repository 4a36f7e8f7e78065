package graphics

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/richinsley/postfx/imaging"
)

// TextureID, TargetID, ProgramID and GeometryID are opaque device handles.
// Zero is never a valid handle.
type (
	TextureID  uint32
	TargetID   uint32
	ProgramID  uint32
	GeometryID uint32
)

// Binding names the destination of draw calls. The zero value is the
// screen.
type Binding struct {
	Target TargetID
}

// Screen is the binding of the display surface.
var Screen = Binding{}

// IsScreen reports whether b targets the display surface.
func (b Binding) IsScreen() bool { return b.Target == 0 }

// DrawCall is one draw of a geometry with a program.
type DrawCall struct {
	Program  ProgramID
	Geometry GeometryID
	// Textures are bound to the program's samplers in declaration order.
	Textures  []TextureID
	Uniforms  Uniforms
	DepthTest bool
}

// Device is the GPU (or emulated GPU) a pipeline draws with. All methods
// must be called from the goroutine that owns the device.
type Device interface {
	// CreateTexture uploads img as an RGBA float texture.
	CreateTexture(img *imaging.Image) (TextureID, error)
	UpdateTexture(id TextureID, img *imaging.Image) error
	DeleteTexture(id TextureID)
	TextureSize(id TextureID) (width, height int, ok bool)

	// CreateTarget allocates an off-screen framebuffer with a color texture
	// of exactly width x height and, optionally, a depth buffer.
	CreateTarget(width, height int, depth bool) (TargetID, TextureID, error)
	DeleteTarget(id TargetID)
	// TargetTexture returns the color texture attached to a target.
	TargetTexture(id TargetID) (TextureID, bool)

	Bind(b Binding) error
	BindScreen() error
	Binding() Binding
	ScreenSize() (width, height int)
	// Clear clears the bound destination's color (and depth, if any).
	Clear(c mgl32.Vec4)

	CompileProgram(src ProgramSource) (ProgramID, error)
	DeleteProgram(id ProgramID)

	// CreateGeometry uploads interleaved x, y, u, v vertices drawn as a
	// triangle list.
	CreateGeometry(vertices []float32) (GeometryID, error)
	DeleteGeometry(id GeometryID)

	Draw(call DrawCall) error
	// ReadPixels returns the color contents of b, bottom row first.
	ReadPixels(b Binding) (*imaging.Image, error)

	Destroy()
}

// QuadVertices covers normalized device coordinates [-1,1]² with texture
// coordinates [0,1]², as two triangles of x, y, u, v.
var QuadVertices = []float32{
	-1, -1, 0, 0,
	1, -1, 1, 0,
	1, 1, 1, 1,

	-1, -1, 0, 0,
	1, 1, 1, 1,
	-1, 1, 0, 1,
}

// VertexStride is the number of floats per vertex in geometry data.
const VertexStride = 4

// WithBinding binds dest for the duration of fn and restores the binding
// that was active before, also when fn fails.
func WithBinding(dev Device, dest Binding, fn func() error) error {
	prev := dev.Binding()
	if err := dev.Bind(dest); err != nil {
		return err
	}
	err := fn()
	if rerr := dev.Bind(prev); rerr != nil && err == nil {
		err = rerr
	}
	return err
}

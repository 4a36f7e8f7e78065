// Package software implements graphics.Device on the CPU. Programs run their
// Go Kernel instead of GLSL. Textures are sampled with nearest filtering and
// clamp-to-edge wrapping, the same state the OpenGL device configures, so
// both backends produce the same pixels for the same chain.
package software

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/richinsley/postfx/graphics"
	"github.com/richinsley/postfx/imaging"
)

// DefaultMaxTextureSize matches the minimum GL_MAX_TEXTURE_SIZE most desktop
// drivers report.
const DefaultMaxTextureSize = 8192

type target struct {
	color  graphics.TextureID
	depth  []float32
	width  int
	height int
}

var _ graphics.Device = (*Device)(nil)

// Device is a CPU graphics.Device.
type Device struct {
	maxTextureSize int
	targetLimit    int

	nextID     uint32
	textures   map[graphics.TextureID]*imaging.Image
	targets    map[graphics.TargetID]*target
	programs   map[graphics.ProgramID]graphics.ProgramSource
	geometries map[graphics.GeometryID][]float32

	screen      *imaging.Image
	screenDepth []float32
	bound       graphics.Binding
	draws       int
}

// Option configures a Device.
type Option func(*Device)

// WithMaxTextureSize sets the largest accepted texture dimension.
func WithMaxTextureSize(n int) Option {
	return func(d *Device) { d.maxTextureSize = n }
}

// WithTargetLimit caps the number of live render targets; further
// allocations fail as if the device ran out of memory. Zero means no limit.
func WithTargetLimit(n int) Option {
	return func(d *Device) { d.targetLimit = n }
}

// New creates a device whose screen is width x height.
func New(width, height int, opts ...Option) *Device {
	d := &Device{
		maxTextureSize: DefaultMaxTextureSize,
		textures:       make(map[graphics.TextureID]*imaging.Image),
		targets:        make(map[graphics.TargetID]*target),
		programs:       make(map[graphics.ProgramID]graphics.ProgramSource),
		geometries:     make(map[graphics.GeometryID][]float32),
		screen:         imaging.NewImage(width, height),
		screenDepth:    newDepth(width, height),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func newDepth(w, h int) []float32 {
	depth := make([]float32, w*h)
	for i := range depth {
		depth[i] = 1
	}
	return depth
}

func (d *Device) id() uint32 {
	d.nextID++
	return d.nextID
}

func (d *Device) checkSize(what string, w, h int) error {
	if w <= 0 || h <= 0 {
		return &graphics.AllocationError{What: what, Width: w, Height: h, Err: fmt.Errorf("dimensions must be positive")}
	}
	if w > d.maxTextureSize || h > d.maxTextureSize {
		return &graphics.AllocationError{What: what, Width: w, Height: h,
			Err: fmt.Errorf("exceeds maximum texture size %d", d.maxTextureSize)}
	}
	return nil
}

func (d *Device) CreateTexture(img *imaging.Image) (graphics.TextureID, error) {
	if err := d.checkSize("texture", img.Width, img.Height); err != nil {
		return 0, err
	}
	id := graphics.TextureID(d.id())
	d.textures[id] = img.Clone()
	return id, nil
}

func (d *Device) UpdateTexture(id graphics.TextureID, img *imaging.Image) error {
	tex, ok := d.textures[id]
	if !ok {
		return fmt.Errorf("unknown texture %d", id)
	}
	return tex.CopyFrom(img)
}

func (d *Device) DeleteTexture(id graphics.TextureID) {
	delete(d.textures, id)
}

func (d *Device) TextureSize(id graphics.TextureID) (int, int, bool) {
	tex, ok := d.textures[id]
	if !ok {
		return 0, 0, false
	}
	return tex.Width, tex.Height, true
}

func (d *Device) CreateTarget(width, height int, depth bool) (graphics.TargetID, graphics.TextureID, error) {
	if err := d.checkSize("render target", width, height); err != nil {
		return 0, 0, err
	}
	if d.targetLimit > 0 && len(d.targets) >= d.targetLimit {
		return 0, 0, &graphics.AllocationError{What: "render target", Width: width, Height: height,
			Err: fmt.Errorf("out of framebuffer memory")}
	}
	tex := graphics.TextureID(d.id())
	d.textures[tex] = imaging.NewImage(width, height)
	t := &target{color: tex, width: width, height: height}
	if depth {
		t.depth = newDepth(width, height)
	}
	id := graphics.TargetID(d.id())
	d.targets[id] = t
	return id, tex, nil
}

func (d *Device) DeleteTarget(id graphics.TargetID) {
	t, ok := d.targets[id]
	if !ok {
		return
	}
	delete(d.textures, t.color)
	delete(d.targets, id)
	if d.bound.Target == id {
		d.bound = graphics.Screen
	}
}

func (d *Device) TargetTexture(id graphics.TargetID) (graphics.TextureID, bool) {
	t, ok := d.targets[id]
	if !ok {
		return 0, false
	}
	return t.color, true
}

func (d *Device) Bind(b graphics.Binding) error {
	if !b.IsScreen() {
		if _, ok := d.targets[b.Target]; !ok {
			return fmt.Errorf("unknown render target %d", b.Target)
		}
	}
	d.bound = b
	return nil
}

func (d *Device) BindScreen() error { return d.Bind(graphics.Screen) }

func (d *Device) Binding() graphics.Binding { return d.bound }

func (d *Device) ScreenSize() (int, int) { return d.screen.Width, d.screen.Height }

// surface returns the color image and depth buffer of b.
func (d *Device) surface(b graphics.Binding) (*imaging.Image, []float32, error) {
	if b.IsScreen() {
		return d.screen, d.screenDepth, nil
	}
	t, ok := d.targets[b.Target]
	if !ok {
		return nil, nil, fmt.Errorf("unknown render target %d", b.Target)
	}
	return d.textures[t.color], t.depth, nil
}

func (d *Device) Clear(c mgl32.Vec4) {
	img, depth, err := d.surface(d.bound)
	if err != nil {
		return
	}
	img.Fill(c)
	for i := range depth {
		depth[i] = 1
	}
}

func (d *Device) CompileProgram(src graphics.ProgramSource) (graphics.ProgramID, error) {
	if src.Kernel == nil {
		return 0, fmt.Errorf("program %q has no kernel", src.Name)
	}
	id := graphics.ProgramID(d.id())
	d.programs[id] = src
	return id, nil
}

func (d *Device) DeleteProgram(id graphics.ProgramID) {
	delete(d.programs, id)
}

func (d *Device) CreateGeometry(vertices []float32) (graphics.GeometryID, error) {
	if len(vertices) == 0 || len(vertices)%(3*graphics.VertexStride) != 0 {
		return 0, fmt.Errorf("vertex data must hold whole triangles, got %d floats", len(vertices))
	}
	id := graphics.GeometryID(d.id())
	d.geometries[id] = append([]float32(nil), vertices...)
	return id, nil
}

func (d *Device) DeleteGeometry(id graphics.GeometryID) {
	delete(d.geometries, id)
}

func (d *Device) ReadPixels(b graphics.Binding) (*imaging.Image, error) {
	img, _, err := d.surface(b)
	if err != nil {
		return nil, err
	}
	return img.Clone(), nil
}

// Destroy releases every resource.
func (d *Device) Destroy() {
	clear(d.textures)
	clear(d.targets)
	clear(d.programs)
	clear(d.geometries)
	d.bound = graphics.Screen
}

// Draws returns the number of draw calls executed so far.
func (d *Device) Draws() int { return d.draws }

// Resources counts live device objects.
type Resources struct {
	Textures   int
	Targets    int
	Programs   int
	Geometries int
}

// Live returns the number of live objects of each kind.
func (d *Device) Live() Resources {
	return Resources{
		Textures:   len(d.textures),
		Targets:    len(d.targets),
		Programs:   len(d.programs),
		Geometries: len(d.geometries),
	}
}

package renderer

import (
	"github.com/richinsley/postfx/graphics"
)

// RenderTarget is an off-screen framebuffer with a color texture of fixed
// size and an optional depth buffer. There is no resize; destroy and
// recreate instead.
type RenderTarget struct {
	dev     graphics.Device
	id      graphics.TargetID
	texture graphics.TextureID
	width   int
	height  int
	depth   bool
}

// NewRenderTarget allocates a width x height target. Failures are reported
// as *graphics.AllocationError.
func NewRenderTarget(dev graphics.Device, width, height int, withDepth bool) (*RenderTarget, error) {
	id, tex, err := dev.CreateTarget(width, height, withDepth)
	if err != nil {
		if _, ok := err.(*graphics.AllocationError); ok {
			return nil, err
		}
		return nil, &graphics.AllocationError{What: "render target", Width: width, Height: height, Err: err}
	}
	return &RenderTarget{
		dev:     dev,
		id:      id,
		texture: tex,
		width:   width,
		height:  height,
		depth:   withDepth,
	}, nil
}

// Bind redirects subsequent draws into the target.
func (t *RenderTarget) Bind() error {
	return t.dev.Bind(t.Binding())
}

// Unbind makes the screen the draw destination again.
func (t *RenderTarget) Unbind() error {
	return t.dev.BindScreen()
}

// Binding returns the draw binding of the target.
func (t *RenderTarget) Binding() graphics.Binding {
	return graphics.Binding{Target: t.id}
}

// Texture returns the color texture.
func (t *RenderTarget) Texture() graphics.TextureID { return t.texture }

// Size returns the target's dimensions.
func (t *RenderTarget) Size() (int, int) { return t.width, t.height }

// HasDepth reports whether the target carries a depth buffer.
func (t *RenderTarget) HasDepth() bool { return t.depth }

// Destroy releases the target's storage. It is safe to call more than once.
func (t *RenderTarget) Destroy() {
	if t.id == 0 {
		return
	}
	t.dev.DeleteTarget(t.id)
	t.id, t.texture = 0, 0
}

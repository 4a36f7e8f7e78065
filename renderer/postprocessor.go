// Package renderer runs a scene through an ordered chain of image-space
// effects. Target 0 receives the raw scene; effect i reads target i and
// writes target i+1, except the last effect, which writes the screen.
package renderer

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/rs/zerolog"

	"github.com/richinsley/postfx/effects"
	"github.com/richinsley/postfx/graphics"
)

// route is where one effect reads from and writes to. dest < 0 is the
// screen.
type route struct {
	source int
	dest   int
}

// Postprocessor owns the render targets and effect programs of a chain.
// Scene and camera are borrowed.
type Postprocessor struct {
	dev        graphics.Device
	log        zerolog.Logger
	width      int
	height     int
	clearColor mgl32.Vec4
	sceneDepth bool

	quad    *FullscreenQuad
	targets []*RenderTarget
	effects []*effects.Effect
	routes  []route

	scene  Scene
	camera Camera
}

// Option configures a Postprocessor.
type Option func(*Postprocessor)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Postprocessor) { p.log = l }
}

// WithClearColor sets the color the scene target is cleared to each frame.
func WithClearColor(c mgl32.Vec4) Option {
	return func(p *Postprocessor) { p.clearColor = c }
}

// WithSceneDepth gives the scene target a depth buffer, cleared with the
// color every frame, for scenes that draw with DrawCall.DepthTest. The
// default is false: the built-in scenes shade a single full-screen quad.
func WithSceneDepth(depth bool) Option {
	return func(p *Postprocessor) { p.sceneDepth = depth }
}

// NewPostprocessor allocates the scene target and the shared quad at
// width x height.
func NewPostprocessor(dev graphics.Device, width, height int, opts ...Option) (*Postprocessor, error) {
	p := &Postprocessor{
		dev:        dev,
		log:        zerolog.Nop(),
		width:      width,
		height:     height,
		clearColor: mgl32.Vec4{0, 0, 0, 1},
	}
	for _, o := range opts {
		o(p)
	}

	quad, err := NewFullscreenQuad(dev)
	if err != nil {
		return nil, err
	}
	p.quad = quad

	main, err := NewRenderTarget(dev, width, height, p.sceneDepth)
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("failed to create scene target: %w", err)
	}
	p.targets = append(p.targets, main)

	p.log.Debug().Int("width", width).Int("height", height).Msg("postprocessor created")
	return p, nil
}

// SetScene sets the scene and camera rendered each frame.
func (p *Postprocessor) SetScene(scene Scene, camera Camera) {
	p.scene = scene
	p.camera = camera
}

// AddEffect appends e to the chain. The effect is validated and compiled
// and one render target is allocated for it. On failure the chain is left
// unchanged.
func (p *Postprocessor) AddEffect(e *effects.Effect) error {
	index := len(p.effects)
	if e == nil {
		return &graphics.ConfigurationError{Index: index, Reason: "nil effect"}
	}
	if err := e.Validate(); err != nil {
		return withIndex(err, index)
	}
	for _, have := range p.effects {
		if have == e {
			return &graphics.ConfigurationError{Index: index, Effect: e.Kind(), Reason: "effect already in chain"}
		}
	}
	if err := e.Compile(p.dev); err != nil {
		return fmt.Errorf("effect %d (%s): %w", index, e.Kind(), err)
	}

	target, err := NewRenderTarget(p.dev, p.width, p.height, false)
	if err != nil {
		e.Release()
		return fmt.Errorf("effect %d (%s): %w", index, e.Kind(), err)
	}

	p.effects = append(p.effects, e)
	p.targets = append(p.targets, target)
	p.resolveRoutes()

	p.log.Debug().Int("index", index).Str("effect", e.Kind()).Int("targets", len(p.targets)).Msg("effect added")
	return nil
}

// resolveRoutes recomputes the source and destination of every effect.
func (p *Postprocessor) resolveRoutes() {
	p.routes = p.routes[:0]
	for i := range p.effects {
		r := route{source: i, dest: i + 1}
		if i == len(p.effects)-1 {
			r.dest = -1
		}
		p.routes = append(p.routes, r)
	}
}

// ClearEffects removes every effect, releasing their programs and targets.
// The scene target is kept.
func (p *Postprocessor) ClearEffects() {
	for _, e := range p.effects {
		e.Release()
	}
	for _, t := range p.targets[1:] {
		t.Destroy()
	}
	p.effects = nil
	p.targets = p.targets[:1]
	p.routes = nil
}

func (p *Postprocessor) binding(index int) graphics.Binding {
	if index < 0 {
		return graphics.Screen
	}
	return p.targets[index].Binding()
}

// Render draws one frame: the scene into target 0, then every effect along
// its route. Without effects the scene is drawn straight to the screen. The
// binding active before the call is restored.
func (p *Postprocessor) Render() error {
	if p.scene == nil {
		return &graphics.NotInitializedError{What: "scene"}
	}
	if p.camera == nil {
		return &graphics.NotInitializedError{What: "camera"}
	}
	if len(p.targets) == 0 {
		return &graphics.NotInitializedError{What: "render targets"}
	}

	sceneDest := graphics.Screen
	if len(p.effects) > 0 {
		sceneDest = p.targets[0].Binding()
	}
	err := graphics.WithBinding(p.dev, sceneDest, func() error {
		p.dev.Clear(p.clearColor)
		return p.scene.Draw(p.camera)
	})
	if err != nil {
		return fmt.Errorf("failed to draw scene: %w", err)
	}

	for i, r := range p.routes {
		e := p.effects[i]
		input := []graphics.TextureID{p.targets[r.source].Texture()}
		if err := e.Apply(p.dev, p.quad, input, p.binding(r.dest)); err != nil {
			return fmt.Errorf("effect %d (%s): %w", i, e.Kind(), withIndex(err, i))
		}
	}
	return nil
}

// withIndex stamps a chain position into a ConfigurationError.
func withIndex(err error, index int) error {
	var cfg *graphics.ConfigurationError
	if errors.As(err, &cfg) {
		cfg.Index = index
	}
	return err
}

// RenderTargets returns the targets in chain order; index 0 holds the scene.
func (p *Postprocessor) RenderTargets() []*RenderTarget {
	return append([]*RenderTarget(nil), p.targets...)
}

// Effects returns the effects in chain order.
func (p *Postprocessor) Effects() []*effects.Effect {
	return append([]*effects.Effect(nil), p.effects...)
}

// MainTexture returns the texture the scene is rendered into, for binding
// to side-channel slots such as mainScene.
func (p *Postprocessor) MainTexture() graphics.TextureID {
	if len(p.targets) == 0 {
		return 0
	}
	return p.targets[0].Texture()
}

// Quad returns the shared full-screen quad.
func (p *Postprocessor) Quad() *FullscreenQuad { return p.quad }

// Size returns the size of every render target.
func (p *Postprocessor) Size() (int, int) { return p.width, p.height }

// Destroy releases every target and effect program. It is safe to call more
// than once.
func (p *Postprocessor) Destroy() {
	for _, e := range p.effects {
		e.Release()
	}
	for _, t := range p.targets {
		t.Destroy()
	}
	if p.quad != nil {
		p.quad.Destroy()
	}
	p.effects, p.targets, p.routes, p.quad = nil, nil, nil, nil
}

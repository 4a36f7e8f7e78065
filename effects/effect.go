// Package effects defines the image-space filters a post-processing chain
// is built from. An Effect is data: a program source, its uniform values and
// its texture slots. Slot 0 always receives the previous pass's output; any
// further slots are side channels bound by name (for example mainScene).
package effects

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/richinsley/postfx/graphics"
)

// Quad is the shared full-screen geometry effects draw.
type Quad interface {
	Geometry() graphics.GeometryID
}

// Effect is one pass of a post-processing chain.
type Effect struct {
	kind   string
	source graphics.ProgramSource
	params graphics.Uniforms
	side   map[string]graphics.TextureID

	dev     graphics.Device
	program graphics.ProgramID
}

// New builds an effect from a program source. params are coerced to the
// declared uniform types; side binds side-channel slots by sampler name.
func New(kind string, src graphics.ProgramSource, params map[string]any, side map[string]graphics.TextureID) (*Effect, error) {
	if len(src.Samplers) == 0 {
		return nil, &graphics.ConfigurationError{Index: -1, Effect: kind, Reason: "program declares no input texture"}
	}
	e := &Effect{
		kind:   kind,
		source: src,
		params: graphics.Uniforms{},
		side:   map[string]graphics.TextureID{},
	}
	for name, v := range params {
		if err := e.Set(name, v); err != nil {
			return nil, err
		}
	}
	for slot, tex := range side {
		if err := e.BindInput(slot, tex); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Kind returns the effect's type name.
func (e *Effect) Kind() string { return e.kind }

// Source returns the program source.
func (e *Effect) Source() graphics.ProgramSource { return e.source }

// Slots returns the texture slot names in binding order.
func (e *Effect) Slots() []string { return append([]string(nil), e.source.Samplers...) }

// Params returns a copy of the current uniform values.
func (e *Effect) Params() graphics.Uniforms { return e.params.Clone() }

// Get returns the value of a uniform.
func (e *Effect) Get(name string) (any, bool) {
	v, ok := e.params[name]
	return v, ok
}

// Set changes a uniform value. The name must be declared by the program,
// the value convertible to its type and inside its declared range.
func (e *Effect) Set(name string, v any) error {
	return e.assign(name, v, true)
}

func (e *Effect) assign(name string, v any, check bool) error {
	decl, ok := e.source.Uniform(name)
	if !ok {
		return &graphics.ConfigurationError{Index: -1, Effect: e.kind, Slot: name, Reason: "unknown parameter"}
	}
	cv, err := graphics.Coerce(decl.Type, v)
	if err != nil {
		return &graphics.ConfigurationError{Index: -1, Effect: e.kind, Slot: name, Reason: err.Error()}
	}
	if check {
		if err := decl.Check(cv); err != nil {
			return &graphics.ConfigurationError{Index: -1, Effect: e.kind, Slot: name, Reason: err.Error()}
		}
	}
	e.params[name] = cv
	return nil
}

// SetFloat is Set for float parameters.
func (e *Effect) SetFloat(name string, f float32) error { return e.Set(name, f) }

// BindInput binds a texture to a side-channel slot.
func (e *Effect) BindInput(slot string, tex graphics.TextureID) error {
	i := e.source.SamplerIndex(slot)
	if i < 0 {
		return &graphics.ConfigurationError{Index: -1, Effect: e.kind, Slot: slot, Reason: "unknown input slot"}
	}
	if i == 0 {
		return &graphics.ConfigurationError{Index: -1, Effect: e.kind, Slot: slot, Reason: "slot is fed by the chain"}
	}
	e.side[slot] = tex
	return nil
}

// Validate checks that every uniform has an in-range value and every
// side-channel slot is bound. Resolution uniforms may be left unset or zero.
func (e *Effect) Validate() error {
	for _, u := range e.source.Uniforms {
		v, ok := e.params[u.Name]
		if !ok || (u.Resolution && v == (mgl32.Vec2{})) {
			if u.Resolution {
				continue
			}
			return &graphics.ConfigurationError{Index: -1, Effect: e.kind, Slot: u.Name, Reason: "parameter has no value"}
		}
		if err := u.Check(v); err != nil {
			return &graphics.ConfigurationError{Index: -1, Effect: e.kind, Slot: u.Name, Reason: err.Error()}
		}
	}
	for _, slot := range e.source.Samplers[1:] {
		if e.side[slot] == 0 {
			return &graphics.ConfigurationError{Index: -1, Effect: e.kind, Slot: slot, Reason: "no texture bound"}
		}
	}
	return nil
}

// Compile builds the effect's program on dev. It is a no-op when the
// program already exists on dev.
func (e *Effect) Compile(dev graphics.Device) error {
	if e.program != 0 && e.dev == dev {
		return nil
	}
	e.Release()
	id, err := dev.CompileProgram(e.source)
	if err != nil {
		return fmt.Errorf("failed to compile %s: %w", e.kind, err)
	}
	e.dev, e.program = dev, id
	return nil
}

// Release deletes the compiled program.
func (e *Effect) Release() {
	if e.program != 0 && e.dev != nil {
		e.dev.DeleteProgram(e.program)
	}
	e.dev, e.program = nil, 0
}

// Apply draws the effect once into dest. inputs fill the texture slots in
// order; zero or missing entries fall back to side-channel bindings. The
// binding active before the call is restored afterwards.
func (e *Effect) Apply(dev graphics.Device, quad Quad, inputs []graphics.TextureID, dest graphics.Binding) error {
	textures := make([]graphics.TextureID, len(e.source.Samplers))
	for i, slot := range e.source.Samplers {
		if i < len(inputs) && inputs[i] != 0 {
			textures[i] = inputs[i]
		} else {
			textures[i] = e.side[slot]
		}
		if textures[i] == 0 {
			return &graphics.ConfigurationError{Index: -1, Effect: e.kind, Slot: slot, Reason: "no texture bound"}
		}
	}
	if !dest.IsScreen() {
		out, ok := dev.TargetTexture(dest.Target)
		if !ok {
			return fmt.Errorf("%s: unknown destination target %d", e.kind, dest.Target)
		}
		for i, tex := range textures {
			if tex == out {
				return &graphics.ConfigurationError{Index: -1, Effect: e.kind, Slot: e.source.Samplers[i],
					Reason: "reads and writes the same render target"}
			}
		}
	}

	uniforms, err := e.resolveUniforms(dev, textures[0])
	if err != nil {
		return err
	}
	if err := e.Compile(dev); err != nil {
		return err
	}

	return graphics.WithBinding(dev, dest, func() error {
		return dev.Draw(graphics.DrawCall{
			Program:  e.program,
			Geometry: quad.Geometry(),
			Textures: textures,
			Uniforms: uniforms,
		})
	})
}

func (e *Effect) resolveUniforms(dev graphics.Device, input graphics.TextureID) (graphics.Uniforms, error) {
	uniforms := e.params.Clone()
	for _, u := range e.source.Uniforms {
		v, ok := uniforms[u.Name]
		if u.Resolution && (!ok || v == (mgl32.Vec2{})) {
			w, h, ok := dev.TextureSize(input)
			if !ok {
				return nil, fmt.Errorf("%s: unknown input texture %d", e.kind, input)
			}
			uniforms[u.Name] = mgl32.Vec2{float32(w), float32(h)}
			continue
		}
		if !ok {
			return nil, &graphics.ConfigurationError{Index: -1, Effect: e.kind, Slot: u.Name, Reason: "parameter has no value"}
		}
		if err := u.Check(v); err != nil {
			return nil, &graphics.ConfigurationError{Index: -1, Effect: e.kind, Slot: u.Name, Reason: err.Error()}
		}
	}
	return uniforms, nil
}

package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/richinsley/postfx/effects"
	"github.com/richinsley/postfx/graphics"
	"github.com/richinsley/postfx/renderer"
)

// SceneInput names the unprocessed scene texture in a chain file's inputs.
const SceneInput = "scene"

// Chain is an effect chain file:
//
//	effects:
//	  - type: bright_filter
//	    params: {threshold: 2.4}
//	  - type: additive_blend
//	    inputs: {mainScene: scene}
type Chain struct {
	Effects []EffectSpec `yaml:"effects"`
}

// EffectSpec is one entry of a chain file.
type EffectSpec struct {
	Type   string            `yaml:"type"`
	Params map[string]any    `yaml:"params,omitempty"`
	Inputs map[string]string `yaml:"inputs,omitempty"`
}

// DefaultChain is the bloom chain: bright pass, separable blur, and an
// additive blend with the scene.
func DefaultChain() *Chain {
	return &Chain{Effects: []EffectSpec{
		{Type: effects.KindBrightFilter},
		{Type: effects.KindHorizontalBlur},
		{Type: effects.KindVerticalBlur},
		{Type: effects.KindAdditiveBlend, Inputs: map[string]string{effects.MainSceneSlot: SceneInput}},
	}}
}

// ParseChain decodes a chain file. Unknown keys are errors. An empty
// document is an empty chain.
func ParseChain(r io.Reader) (*Chain, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var c Chain
	if err := dec.Decode(&c); err != nil {
		if errors.Is(err, io.EOF) {
			return &Chain{}, nil
		}
		return nil, fmt.Errorf("failed to parse chain: %w", err)
	}
	for i, spec := range c.Effects {
		if spec.Type == "" {
			return nil, &graphics.ConfigurationError{Index: i, Reason: "missing type"}
		}
	}
	return &c, nil
}

// LoadChain reads a chain file from disk.
func LoadChain(path string) (*Chain, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open chain: %w", err)
	}
	defer f.Close()
	return ParseChain(f)
}

// Encode writes the chain as YAML.
func (c *Chain) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return err
	}
	return enc.Close()
}

// Build creates the effects of the chain. Inputs naming SceneInput are bound
// to mainScene.
func (c *Chain) Build(mainScene graphics.TextureID) ([]*effects.Effect, error) {
	out := make([]*effects.Effect, 0, len(c.Effects))
	for i, spec := range c.Effects {
		side := make(map[string]graphics.TextureID, len(spec.Inputs))
		for slot, src := range spec.Inputs {
			if src != SceneInput {
				return nil, &graphics.ConfigurationError{Index: i, Effect: spec.Type, Slot: slot,
					Reason: fmt.Sprintf("unknown input source %q", src)}
			}
			side[slot] = mainScene
		}
		e, err := effects.FromSpec(spec.Type, spec.Params, side)
		if err != nil {
			var cfg *graphics.ConfigurationError
			if errors.As(err, &cfg) {
				cfg.Index = i
			}
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Install replaces the effects of pp with the chain. When the chain does not
// build, pp is left as it was; when an effect fails to install, pp ends up
// with no effects.
func (c *Chain) Install(pp *renderer.Postprocessor) error {
	built, err := c.Build(pp.MainTexture())
	if err != nil {
		return err
	}
	pp.ClearEffects()
	for _, e := range built {
		if err := pp.AddEffect(e); err != nil {
			pp.ClearEffects()
			return err
		}
	}
	return nil
}

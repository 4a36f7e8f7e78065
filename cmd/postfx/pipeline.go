package main

import (
	"context"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/rs/zerolog"

	"github.com/richinsley/postfx/api"
	"github.com/richinsley/postfx/config"
	"github.com/richinsley/postfx/graphics"
	"github.com/richinsley/postfx/imaging"
	"github.com/richinsley/postfx/logging"
	"github.com/richinsley/postfx/renderer"
	"github.com/richinsley/postfx/scene"
)

type ownedScene interface {
	renderer.Scene
	Destroy()
}

// pipeline is a scene, its camera and the postprocessor it renders through.
type pipeline struct {
	dev    graphics.Device
	pp     *renderer.Postprocessor
	scene  ownedScene
	camera *scene.Camera
	orbit  float32
	log    zerolog.Logger
}

func newPipeline(ctx context.Context, dev graphics.Device, cfg *config.Config, clock func() float64, log zerolog.Logger) (*pipeline, error) {
	w, h := cfg.Window.Width, cfg.Window.Height
	cc := cfg.Scene.ClearColor
	pp, err := renderer.NewPostprocessor(dev, w, h,
		renderer.WithLogger(logging.Component(log, "renderer")),
		renderer.WithClearColor(mgl32.Vec4{float32(cc[0]), float32(cc[1]), float32(cc[2]), float32(cc[3])}),
	)
	if err != nil {
		return nil, err
	}

	sc, err := buildScene(ctx, dev, pp, cfg, clock)
	if err != nil {
		pp.Destroy()
		return nil, err
	}
	p := &pipeline{
		dev:    dev,
		pp:     pp,
		scene:  sc,
		camera: scene.NewDemoCamera(float32(w) / float32(h)),
		orbit:  float32(cfg.Scene.OrbitSpeed),
		log:    log,
	}
	pp.SetScene(sc, p.camera)

	chain := config.DefaultChain()
	if cfg.Chain != "" {
		if chain, err = config.LoadChain(cfg.Chain); err != nil {
			p.Destroy()
			return nil, err
		}
	}
	if err := p.install(chain); err != nil {
		p.Destroy()
		return nil, err
	}
	return p, nil
}

func buildScene(ctx context.Context, dev graphics.Device, pp *renderer.Postprocessor, cfg *config.Config, clock func() float64) (ownedScene, error) {
	w, h := pp.Size()
	switch cfg.Scene.Kind {
	case "spheres":
		return scene.NewSpheres(dev, pp.Quad(), scene.DefaultSpheres)
	case "image":
		return scene.LoadImageScene(dev, pp.Quad(), cfg.Scene.Image, w, h, imaging.Filter(cfg.Scene.Filter))
	case "shadertoy":
		key := cfg.Shadertoy.Key
		if key == "" {
			var err error
			if key, err = api.KeyFromEnv(); err != nil {
				return nil, err
			}
		}
		client := api.NewClient(key)
		client.BaseURL = cfg.Shadertoy.BaseURL
		sh, err := client.FetchShader(ctx, cfg.Scene.ShaderID)
		if err != nil {
			return nil, err
		}
		image, common, err := api.ImageCode(sh)
		if err != nil {
			return nil, err
		}
		return scene.NewShaderScene(dev, pp.Quad(), image, common, w, h, clock)
	}
	return nil, fmt.Errorf("unknown scene kind %q", cfg.Scene.Kind)
}

func (p *pipeline) install(chain *config.Chain) error {
	if err := chain.Install(p.pp); err != nil {
		return fmt.Errorf("failed to install chain: %w", err)
	}
	kinds := make([]string, 0, len(chain.Effects))
	for _, e := range chain.Effects {
		kinds = append(kinds, e.Type)
	}
	p.log.Info().Strs("effects", kinds).Int("targets", len(p.pp.RenderTargets())).Msg("chain installed")
	return nil
}

// frame advances the camera by dt seconds and renders.
func (p *pipeline) frame(dt float64) error {
	if p.orbit != 0 {
		p.camera.Orbit(p.orbit * float32(dt))
	}
	return p.pp.Render()
}

func (p *pipeline) Destroy() {
	p.scene.Destroy()
	p.pp.Destroy()
}

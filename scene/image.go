package scene

import (
	"fmt"

	"github.com/richinsley/postfx/effects"
	"github.com/richinsley/postfx/graphics"
	"github.com/richinsley/postfx/imaging"
	"github.com/richinsley/postfx/renderer"
)

// ImageScene draws a still image over the whole destination, ignoring the
// camera. It is the scene used for snapshots of files and for tests.
type ImageScene struct {
	dev     graphics.Device
	quad    *renderer.FullscreenQuad
	texture graphics.TextureID
	program graphics.ProgramID
	width   int
	height  int
}

// NewImageScene uploads img and compiles a copy program. The quad is borrowed.
func NewImageScene(dev graphics.Device, quad *renderer.FullscreenQuad, img *imaging.Image) (*ImageScene, error) {
	src, _ := effects.Source(effects.KindCopy)
	program, err := dev.CompileProgram(src)
	if err != nil {
		return nil, fmt.Errorf("failed to compile image program: %w", err)
	}
	tex, err := dev.CreateTexture(img)
	if err != nil {
		dev.DeleteProgram(program)
		return nil, fmt.Errorf("failed to upload scene image: %w", err)
	}
	return &ImageScene{
		dev:     dev,
		quad:    quad,
		texture: tex,
		program: program,
		width:   img.Width,
		height:  img.Height,
	}, nil
}

// LoadImageScene reads an image file, resampled to width x height.
func LoadImageScene(dev graphics.Device, quad *renderer.FullscreenQuad, path string, width, height int, filter imaging.Filter) (*ImageScene, error) {
	img, err := imaging.Load(path, width, height, filter)
	if err != nil {
		return nil, err
	}
	return NewImageScene(dev, quad, img)
}

func (s *ImageScene) Draw(_ renderer.Camera) error {
	if s.program == 0 {
		return &graphics.NotInitializedError{What: "image scene"}
	}
	return s.quad.Draw(s.program, []graphics.TextureID{s.texture}, nil)
}

// Update replaces the image. The size must not change.
func (s *ImageScene) Update(img *imaging.Image) error {
	if img.Width != s.width || img.Height != s.height {
		return fmt.Errorf("image scene is %dx%d, got %dx%d", s.width, s.height, img.Width, img.Height)
	}
	return s.dev.UpdateTexture(s.texture, img)
}

// Texture returns the uploaded image texture.
func (s *ImageScene) Texture() graphics.TextureID { return s.texture }

func (s *ImageScene) Destroy() {
	if s.texture != 0 {
		s.dev.DeleteTexture(s.texture)
		s.texture = 0
	}
	if s.program != 0 {
		s.dev.DeleteProgram(s.program)
		s.program = 0
	}
}

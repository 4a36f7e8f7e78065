package gldevice

import (
	"fmt"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"github.com/richinsley/postfx/graphics"
	"github.com/richinsley/postfx/imaging"
)

func (d *Device) checkSize(what string, width, height int) error {
	if width <= 0 || height <= 0 {
		return &graphics.AllocationError{What: what, Width: width, Height: height, Err: fmt.Errorf("dimensions must be positive")}
	}
	if width > d.maxTextureSize || height > d.maxTextureSize {
		return &graphics.AllocationError{What: what, Width: width, Height: height,
			Err: fmt.Errorf("exceeds GL_MAX_TEXTURE_SIZE %d", d.maxTextureSize)}
	}
	return nil
}

// newTexture allocates an RGBA32F texture sampled with nearest filtering and
// clamp-to-edge wrapping. pix may be nil.
func (d *Device) newTexture(width, height int, pix []float32) (graphics.TextureID, error) {
	if err := d.checkSize("texture", width, height); err != nil {
		return 0, err
	}
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)

	var ptr unsafe.Pointer
	if pix != nil {
		ptr = gl.Ptr(pix)
	}
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA32F, int32(width), int32(height), 0, gl.RGBA, gl.FLOAT, ptr)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if err := glError("texture"); err != nil {
		gl.DeleteTextures(1, &tex)
		if alloc, ok := err.(*graphics.AllocationError); ok {
			alloc.Width, alloc.Height = width, height
		}
		return 0, err
	}
	id := graphics.TextureID(tex)
	d.textures[id] = &texture{width: width, height: height}
	return id, nil
}

func (d *Device) CreateTexture(img *imaging.Image) (graphics.TextureID, error) {
	return d.newTexture(img.Width, img.Height, img.Pix)
}

func (d *Device) UpdateTexture(id graphics.TextureID, img *imaging.Image) error {
	t, ok := d.textures[id]
	if !ok {
		return fmt.Errorf("unknown texture %d", id)
	}
	if t.width != img.Width || t.height != img.Height {
		return fmt.Errorf("size mismatch: %dx%d vs %dx%d", img.Width, img.Height, t.width, t.height)
	}
	gl.BindTexture(gl.TEXTURE_2D, uint32(id))
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, int32(img.Width), int32(img.Height), gl.RGBA, gl.FLOAT, gl.Ptr(img.Pix))
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return glError("texture upload")
}

func (d *Device) DeleteTexture(id graphics.TextureID) {
	if _, ok := d.textures[id]; !ok {
		return
	}
	tex := uint32(id)
	gl.DeleteTextures(1, &tex)
	delete(d.textures, id)
}

func (d *Device) TextureSize(id graphics.TextureID) (int, int, bool) {
	t, ok := d.textures[id]
	if !ok {
		return 0, 0, false
	}
	return t.width, t.height, true
}

// CreateTarget allocates a framebuffer with a float color attachment and an
// optional 24-bit depth renderbuffer.
func (d *Device) CreateTarget(width, height int, depth bool) (graphics.TargetID, graphics.TextureID, error) {
	color, err := d.newTexture(width, height, nil)
	if err != nil {
		return 0, 0, &graphics.AllocationError{What: "render target", Width: width, Height: height, Err: err}
	}

	var fbo uint32
	gl.GenFramebuffers(1, &fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, uint32(color), 0)

	fb := &framebuffer{color: color, width: width, height: height}
	if depth {
		gl.GenRenderbuffers(1, &fb.depth)
		gl.BindRenderbuffer(gl.RENDERBUFFER, fb.depth)
		gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, int32(width), int32(height))
		gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, fb.depth)
		gl.BindRenderbuffer(gl.RENDERBUFFER, 0)
	}

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(d.bound.Target))
	if err := glError("render target"); err != nil || status != gl.FRAMEBUFFER_COMPLETE {
		if err == nil {
			err = fmt.Errorf("framebuffer incomplete: 0x%04x", status)
		}
		if fb.depth != 0 {
			gl.DeleteRenderbuffers(1, &fb.depth)
		}
		gl.DeleteFramebuffers(1, &fbo)
		d.DeleteTexture(color)
		return 0, 0, &graphics.AllocationError{What: "render target", Width: width, Height: height, Err: err}
	}

	id := graphics.TargetID(fbo)
	d.targets[id] = fb
	d.log.Debug().Uint32("fbo", fbo).Int("width", width).Int("height", height).Bool("depth", depth).Msg("render target created")
	return id, color, nil
}

func (d *Device) DeleteTarget(id graphics.TargetID) {
	fb, ok := d.targets[id]
	if !ok {
		return
	}
	if d.bound.Target == id {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		d.bound = graphics.Screen
	}
	fbo := uint32(id)
	gl.DeleteFramebuffers(1, &fbo)
	if fb.depth != 0 {
		gl.DeleteRenderbuffers(1, &fb.depth)
	}
	d.DeleteTexture(fb.color)
	delete(d.targets, id)
}

func (d *Device) TargetTexture(id graphics.TargetID) (graphics.TextureID, bool) {
	fb, ok := d.targets[id]
	if !ok {
		return 0, false
	}
	return fb.color, true
}

// ReadPixels reads the color buffer of b as floats, bottom row first.
func (d *Device) ReadPixels(b graphics.Binding) (*imaging.Image, error) {
	width, height := d.ScreenSize()
	if !b.IsScreen() {
		fb, ok := d.targets[b.Target]
		if !ok {
			return nil, fmt.Errorf("unknown render target %d", b.Target)
		}
		width, height = fb.width, fb.height
	}
	img := imaging.NewImage(width, height)
	if width == 0 || height == 0 {
		return img, nil
	}

	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, uint32(b.Target))
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.FLOAT, gl.Ptr(img.Pix))
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, uint32(d.bound.Target))
	if err := glError("read pixels"); err != nil {
		return nil, err
	}
	return img, nil
}

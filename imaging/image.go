// Package imaging holds the CPU side image type shared by the devices, the
// scenes and the tests.
package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Image is an RGBA image with unclamped float32 channels.
// Row 0 is the bottom row, matching the texture coordinate convention
// (v = 0 at the bottom) used by OpenGL.
type Image struct {
	Width  int
	Height int
	Pix    []float32 // 4 floats per pixel, row-major
}

// NewImage allocates a black, fully transparent image.
func NewImage(width, height int) *Image {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Image{
		Width:  width,
		Height: height,
		Pix:    make([]float32, width*height*4),
	}
}

// Offset returns the index of the first channel of pixel (x, y).
func (im *Image) Offset(x, y int) int {
	return (y*im.Width + x) * 4
}

// At returns the color of pixel (x, y). Out of range coordinates return zero.
func (im *Image) At(x, y int) mgl32.Vec4 {
	if x < 0 || y < 0 || x >= im.Width || y >= im.Height {
		return mgl32.Vec4{}
	}
	i := im.Offset(x, y)
	return mgl32.Vec4{im.Pix[i], im.Pix[i+1], im.Pix[i+2], im.Pix[i+3]}
}

// AtClamped returns the color of pixel (x, y) with coordinates clamped to
// the image edge, the same behaviour as CLAMP_TO_EDGE sampling.
func (im *Image) AtClamped(x, y int) mgl32.Vec4 {
	if im.Width == 0 || im.Height == 0 {
		return mgl32.Vec4{}
	}
	return im.At(clampInt(x, 0, im.Width-1), clampInt(y, 0, im.Height-1))
}

// Set writes the color of pixel (x, y). Out of range writes are ignored.
func (im *Image) Set(x, y int, c mgl32.Vec4) {
	if x < 0 || y < 0 || x >= im.Width || y >= im.Height {
		return
	}
	i := im.Offset(x, y)
	im.Pix[i], im.Pix[i+1], im.Pix[i+2], im.Pix[i+3] = c[0], c[1], c[2], c[3]
}

// Fill sets every pixel to c.
func (im *Image) Fill(c mgl32.Vec4) {
	for i := 0; i < len(im.Pix); i += 4 {
		im.Pix[i], im.Pix[i+1], im.Pix[i+2], im.Pix[i+3] = c[0], c[1], c[2], c[3]
	}
}

// Clone returns a deep copy.
func (im *Image) Clone() *Image {
	out := &Image{Width: im.Width, Height: im.Height, Pix: make([]float32, len(im.Pix))}
	copy(out.Pix, im.Pix)
	return out
}

// CopyFrom overwrites im with the pixels of src. Sizes must match.
func (im *Image) CopyFrom(src *Image) error {
	if src.Width != im.Width || src.Height != im.Height {
		return fmt.Errorf("size mismatch: %dx%d vs %dx%d", src.Width, src.Height, im.Width, im.Height)
	}
	copy(im.Pix, src.Pix)
	return nil
}

// MaxDiff returns the largest absolute per-channel difference between two
// images of equal size, or +Inf if the sizes differ.
func MaxDiff(a, b *Image) float64 {
	if a.Width != b.Width || a.Height != b.Height {
		return math.Inf(1)
	}
	var m float64
	for i := range a.Pix {
		d := math.Abs(float64(a.Pix[i]) - float64(b.Pix[i]))
		if d > m {
			m = d
		}
	}
	return m
}

// MaxChannel returns the largest RGB value in the image.
func (im *Image) MaxChannel() float32 {
	var m float32
	for i := 0; i < len(im.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			if im.Pix[i+c] > m {
				m = im.Pix[i+c]
			}
		}
	}
	return m
}

// FromImage converts a decoded image into an Image. Channel values are the
// straight (non premultiplied) color components scaled to [0,1]; no transfer
// function is applied. The result is flipped so row 0 is the bottom row.
func FromImage(src image.Image) *Image {
	b := src.Bounds()
	out := NewImage(b.Dx(), b.Dy())
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			c := color.NRGBA64Model.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA64)
			out.Set(x, out.Height-1-y, mgl32.Vec4{
				float32(c.R) / 0xffff,
				float32(c.G) / 0xffff,
				float32(c.B) / 0xffff,
				float32(c.A) / 0xffff,
			})
		}
	}
	return out
}

// ToNRGBA clamps the image to [0,1] and converts it to an 8-bit image with
// the top row first.
func (im *Image) ToNRGBA() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, im.Width, im.Height))
	for y := 0; y < im.Height; y++ {
		src := im.Pix[im.Offset(0, im.Height-1-y):]
		dst := out.Pix[y*out.Stride:]
		for x := 0; x < im.Width*4; x++ {
			dst[x] = to8(src[x])
		}
	}
	return out
}

// RGBA8 writes the clamped 8-bit RGBA bytes of im into dst, top row first,
// and returns the filled slice. dst is reallocated when too small.
func (im *Image) RGBA8(dst []byte) []byte {
	n := im.Width * im.Height * 4
	if cap(dst) < n {
		dst = make([]byte, n)
	}
	dst = dst[:n]
	row := im.Width * 4
	for y := 0; y < im.Height; y++ {
		src := im.Pix[im.Offset(0, im.Height-1-y):]
		out := dst[y*row:]
		for x := 0; x < row; x++ {
			out[x] = to8(src[x])
		}
	}
	return dst
}

func to8(v float32) uint8 {
	if v <= 0 || v != v {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package imaging

import (
	"fmt"

	"github.com/mjibson/go-dsp/fft"
)

// Convolve2D convolves every channel of im with kernel using an FFT and
// returns a new image of the same size. Pixels outside the image are treated
// as zero. kernel must have odd dimensions; its center element is aligned
// with the output pixel.
//
// This is the direct two-dimensional reference the separable blur passes
// are measured against, not a real-time path.
func Convolve2D(im *Image, kernel [][]float64) (*Image, error) {
	kh := len(kernel)
	if kh == 0 || kh%2 == 0 {
		return nil, fmt.Errorf("kernel height must be odd, got %d", kh)
	}
	kw := len(kernel[0])
	if kw == 0 || kw%2 == 0 {
		return nil, fmt.Errorf("kernel width must be odd, got %d", kw)
	}
	for i, row := range kernel {
		if len(row) != kw {
			return nil, fmt.Errorf("kernel row %d has %d entries, want %d", i, len(row), kw)
		}
	}
	if im.Width == 0 || im.Height == 0 {
		return NewImage(im.Width, im.Height), nil
	}

	ph, pw := im.Height+kh-1, im.Width+kw-1

	padded := make([][]float64, ph)
	for y := range padded {
		padded[y] = make([]float64, pw)
	}
	for y := 0; y < kh; y++ {
		copy(padded[y], kernel[y])
	}
	kspec := fft.FFT2Real(padded)

	out := NewImage(im.Width, im.Height)
	cy, cx := kh/2, kw/2
	for c := 0; c < 4; c++ {
		for y := range padded {
			for x := range padded[y] {
				padded[y][x] = 0
			}
		}
		for y := 0; y < im.Height; y++ {
			for x := 0; x < im.Width; x++ {
				padded[y][x] = float64(im.Pix[im.Offset(x, y)+c])
			}
		}
		spec := fft.FFT2Real(padded)
		for y := range spec {
			for x := range spec[y] {
				spec[y][x] *= kspec[y][x]
			}
		}
		res := fft.IFFT2(spec)
		for y := 0; y < im.Height; y++ {
			for x := 0; x < im.Width; x++ {
				out.Pix[out.Offset(x, y)+c] = float32(real(res[y+cy][x+cx]))
			}
		}
	}
	return out, nil
}

package imaging

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"

	xdraw "golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// Filter selects the interpolator used by Resample.
type Filter string

const (
	FilterNearest    Filter = "nearest"
	FilterBilinear   Filter = "linear"
	FilterCatmullRom Filter = "catmullrom"
)

func (f Filter) scaler() xdraw.Scaler {
	switch f {
	case FilterNearest:
		return xdraw.NearestNeighbor
	case FilterBilinear:
		return xdraw.BiLinear
	default:
		return xdraw.CatmullRom
	}
}

// Decode reads a png, jpeg, gif, bmp or tiff stream.
func Decode(r io.Reader) (*Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return FromImage(img), format, nil
}

// Load decodes the image file at path. When width and height are positive
// the image is resampled to that size first.
func Load(path string, width, height int, filter Filter) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	if width > 0 && height > 0 {
		img = Resample(img, width, height, filter)
	}
	return FromImage(img), nil
}

// Resample scales src to width x height.
func Resample(src image.Image, width, height int, filter Filter) image.Image {
	dst := image.NewNRGBA64(image.Rect(0, 0, width, height))
	filter.scaler().Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

// EncodePNG writes im, clamped to [0,1], as an 8-bit PNG.
func EncodePNG(w io.Writer, im *Image) error {
	return png.Encode(w, im.ToNRGBA())
}

// SavePNG writes im to path as a PNG file.
func SavePNG(path string, im *Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := EncodePNG(f, im); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}

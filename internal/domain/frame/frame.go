package frame

import (
	"image"
	"image/color"
)

// Frame is a fully decoded, immutable image owned by one analysis pass.
type Frame interface {
	Width() int
	Height() int
	// RGB returns the 8-bit color components of the pixel at (x, y).
	// Coordinates outside the frame are a caller bug.
	RGB(x, y int) (r, g, b uint8)
}

// Releaser is implemented by frames that hold resources beyond Go memory
// (native matrices, pooled buffers).
type Releaser interface {
	Release()
}

// Release frees f if it holds resources. Frames without a Release method are left to the GC.
func Release(f Frame) {
	if r, ok := f.(Releaser); ok {
		r.Release()
	}
}

// Image adapts an image.Image to Frame. Coordinates are relative to the image bounds.
type Image struct {
	// img is the decoded picture.
	img image.Image
	// origin is the top-left corner of img's bounds.
	origin image.Point
	// size is the width and height of img's bounds.
	size image.Point
}

// FromImage wraps img. The caller must not mutate img afterwards.
func FromImage(img image.Image) *Image {
	b := img.Bounds()

	return &Image{
		img:    img,
		origin: b.Min,
		size:   b.Size(),
	}
}

// Width returns the frame width in pixels.
func (f *Image) Width() int { return f.size.X }

// Height returns the frame height in pixels.
func (f *Image) Height() int { return f.size.Y }

// RGB returns the 8-bit color of the pixel, fast-pathing the common concrete image types.
func (f *Image) RGB(x, y int) (r, g, b uint8) {
	px, py := f.origin.X+x, f.origin.Y+y

	switch img := f.img.(type) {
	case *image.RGBA:
		c := img.RGBAAt(px, py)
		return c.R, c.G, c.B
	case *image.NRGBA:
		c := img.NRGBAAt(px, py)
		return c.R, c.G, c.B
	case *image.YCbCr:
		c := img.YCbCrAt(px, py)
		return color.YCbCrToRGB(c.Y, c.Cb, c.Cr)
	default:
		c := color.NRGBAModel.Convert(img.At(px, py)).(color.NRGBA) //nolint:forcetypeassert // NRGBAModel always yields NRGBA.
		return c.R, c.G, c.B
	}
}

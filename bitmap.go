package frameseq

import (
	"image"
	"image/color"
)

// Bitmap represents a rectangular RGBA pixel buffer, 4 bytes per pixel.
//
// Bitmaps are the unit of ownership in the frame pipeline: at any instant
// a bitmap is either the front buffer (read by the renderer), the back
// buffer (written by the decode worker), or parked in a BitmapProvider.
// Ownership transfers are explicit; a Bitmap is never shared mutable.
type Bitmap struct {
	width  int
	height int
	pix    []uint8
}

// NewBitmap creates a new bitmap with the given dimensions.
// Non-positive dimensions yield a nil bitmap.
func NewBitmap(width, height int) *Bitmap {
	if width <= 0 || height <= 0 {
		return nil
	}
	return &Bitmap{
		width:  width,
		height: height,
		pix:    make([]uint8, width*height*4),
	}
}

// Width returns the width of the bitmap.
func (b *Bitmap) Width() int {
	return b.width
}

// Height returns the height of the bitmap.
func (b *Bitmap) Height() int {
	return b.height
}

// Pix returns the raw pixel data (RGBA format, row-major).
func (b *Bitmap) Pix() []uint8 {
	return b.pix
}

// RGBA returns an *image.RGBA view sharing the bitmap's pixel storage.
// Writes through the view are writes to the bitmap; decoders use this to
// fill a bitmap without copying.
func (b *Bitmap) RGBA() *image.RGBA {
	return &image.RGBA{
		Pix:    b.pix,
		Stride: b.width * 4,
		Rect:   image.Rect(0, 0, b.width, b.height),
	}
}

// Clear zeroes all pixels.
func (b *Bitmap) Clear() {
	clear(b.pix)
}

// At implements the image.Image interface.
func (b *Bitmap) At(x, y int) color.Color {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return color.RGBA{}
	}
	i := (y*b.width + x) * 4
	return color.RGBA{R: b.pix[i+0], G: b.pix[i+1], B: b.pix[i+2], A: b.pix[i+3]}
}

// Bounds implements the image.Image interface.
func (b *Bitmap) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.width, b.height)
}

// ColorModel implements the image.Image interface.
func (b *Bitmap) ColorModel() color.Model {
	return color.RGBAModel
}

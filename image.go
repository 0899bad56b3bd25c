package quartz

import (
	"image"
	"sync/atomic"

	xdraw "golang.org/x/image/draw"
)

// resourceCounter backs the opaque identifiers handed to paths and images.
// IDs are process-unique and never reused, so caches can key on them
// without relying on pointer identity.
var resourceCounter atomic.Uint64

func nextResourceID() uint64 {
	return resourceCounter.Add(1)
}

// Image is a bitmap in RGBA8 layout, top-left origin, ready for GPU upload.
// Each Image carries an opaque identifier assigned at creation; the texture
// cache keys on it.
type Image struct {
	id     uint64
	width  int
	height int
	pix    []byte // RGBA8, width*height*4 bytes, rows top to bottom
}

// NewImage wraps raw RGBA8 pixel data. The pixel slice is retained, not
// copied. Returns nil if the dimensions are not positive or the data length
// does not match width*height*4.
func NewImage(width, height int, pix []byte) *Image {
	if width <= 0 || height <= 0 || len(pix) != width*height*4 {
		return nil
	}
	return &Image{
		id:     nextResourceID(),
		width:  width,
		height: height,
		pix:    pix,
	}
}

// ImageFromImage converts any image.Image into an Image, normalizing the
// pixel layout to RGBA8. Returns nil for empty bounds.
func ImageFromImage(src image.Image) *Image {
	b := src.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(dst, dst.Bounds(), src, b.Min, xdraw.Src)
	return &Image{
		id:     nextResourceID(),
		width:  b.Dx(),
		height: b.Dy(),
		pix:    dst.Pix,
	}
}

// ID returns the image's opaque resource identifier.
func (im *Image) ID() uint64 { return im.id }

// Width returns the image width in pixels.
func (im *Image) Width() int { return im.width }

// Height returns the image height in pixels.
func (im *Image) Height() int { return im.height }

// Pix returns the raw RGBA8 pixel data.
func (im *Image) Pix() []byte { return im.pix }

// ToImage copies the pixel data into a standard image.RGBA.
func (im *Image) ToImage() *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, im.width, im.height))
	copy(out.Pix, im.pix)
	return out
}

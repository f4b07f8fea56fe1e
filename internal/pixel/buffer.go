package pixel

import (
	"image"
	"image/color"

	"github.com/ironsheep/canvas-tools-mcp/internal/geom"
)

// Buffer is a contiguous width×height grid of pixels of a single format.
//
// Buffer implements draw.Image, so it can be handed directly to image
// libraries; their results are brought back with FromImage or Mutate.
// A Buffer is not safe for concurrent mutation, except that distinct rows
// returned by Row may be written by different goroutines.
type Buffer[P Pixel] struct {
	pix      []P
	width    int
	height   int
	disposed bool
}

// New allocates a zero-initialized buffer. The zero pixel is the format
// default: opaque black for RGB, transparent for alpha formats and zero
// luminance otherwise. Non-positive sizes yield an empty 0×0 buffer.
func New[P Pixel](width, height int) *Buffer[P] {
	if width <= 0 || height <= 0 {
		return &Buffer[P]{}
	}
	return &Buffer[P]{
		pix:    make([]P, width*height),
		width:  width,
		height: height,
	}
}

// NewFilled allocates a buffer with every pixel set to p.
func NewFilled[P Pixel](width, height int, p P) *Buffer[P] {
	b := New[P](width, height)
	b.Fill(p)
	return b
}

// Width returns the buffer width in pixels.
func (b *Buffer[P]) Width() int { return b.width }

// Height returns the buffer height in pixels.
func (b *Buffer[P]) Height() int { return b.height }

// Size returns the buffer dimensions.
func (b *Buffer[P]) Size() image.Point { return image.Pt(b.width, b.height) }

// Format returns the pixel format stored in the buffer.
func (b *Buffer[P]) Format() Format { return FormatOf[P]() }

// Pix returns the backing slice, row-major with no padding.
func (b *Buffer[P]) Pix() []P { return b.pix }

// Row returns row y as a slice aliasing the buffer storage.
func (b *Buffer[P]) Row(y int) []P {
	start := y * b.width
	return b.pix[start : start+b.width : start+b.width]
}

// PixelAt returns the pixel at (x, y). Out of range coordinates return the
// zero pixel.
func (b *Buffer[P]) PixelAt(x, y int) P {
	if x < 0 || y < 0 || x >= b.width || y >= b.height {
		var zero P
		return zero
	}
	return b.pix[y*b.width+x]
}

// SetPixel stores p at (x, y). Out of range coordinates are ignored.
func (b *Buffer[P]) SetPixel(x, y int, p P) {
	if x < 0 || y < 0 || x >= b.width || y >= b.height {
		return
	}
	b.pix[y*b.width+x] = p
}

// Fill sets every pixel to p.
func (b *Buffer[P]) Fill(p P) {
	for i := range b.pix {
		b.pix[i] = p
	}
}

// Clone returns a deep copy of the buffer.
func (b *Buffer[P]) Clone() *Buffer[P] {
	c := &Buffer[P]{width: b.width, height: b.height}
	if b.pix != nil {
		c.pix = make([]P, len(b.pix))
		copy(c.pix, b.pix)
	}
	return c
}

// Mutate applies an arbitrary whole-image transform. The transform may
// return an image of any type and size; its content replaces the buffer's,
// converted into P. A nil result leaves the buffer untouched.
func (b *Buffer[P]) Mutate(transform func(image.Image) image.Image) {
	out := transform(b)
	if out == nil {
		return
	}
	if same, ok := out.(*Buffer[P]); ok && same == b {
		return
	}
	nb := FromImage[P](out)
	b.pix, b.width, b.height = nb.pix, nb.width, nb.height
}

// Dispose releases the pixel storage. It is safe to call more than once.
func (b *Buffer[P]) Dispose() {
	b.pix = nil
	b.width, b.height = 0, 0
	b.disposed = true
}

// Disposed reports whether Dispose has been called.
func (b *Buffer[P]) Disposed() bool { return b.disposed }

// ColorModel implements image.Image.
func (b *Buffer[P]) ColorModel() color.Model { return ModelOf[P]() }

// Bounds implements image.Image. Buffers are always anchored at the origin;
// positioning is the job of canvas.Canvas.
func (b *Buffer[P]) Bounds() image.Rectangle { return image.Rect(0, 0, b.width, b.height) }

// At implements image.Image.
func (b *Buffer[P]) At(x, y int) color.Color { return b.PixelAt(x, y) }

// Set implements draw.Image.
func (b *Buffer[P]) Set(x, y int, c color.Color) {
	b.SetPixel(x, y, ModelOf[P]().Convert(c).(P))
}

// Subimage extracts a size.X×size.Y region whose top-left corner sits at off
// in buffer coordinates. Parts of the region outside the buffer are left at
// the zero pixel. A degenerate size yields a 1×1 placeholder.
func (b *Buffer[P]) Subimage(off, size image.Point) *Buffer[P] {
	if size.X <= 0 || size.Y <= 0 {
		return New[P](1, 1)
	}
	sub := New[P](size.X, size.Y)

	srcOff, dstOff, overlap := geom.ComputeOverlap(image.Point{}, b.Size(), off, size)
	if overlap.X <= 0 || overlap.Y <= 0 {
		return sub
	}

	for y := 0; y < overlap.Y; y++ {
		src := b.Row(srcOff.Y + y)[srcOff.X : srcOff.X+overlap.X]
		dst := sub.Row(dstOff.Y + y)[dstOff.X : dstOff.X+overlap.X]
		copy(dst, src)
	}
	return sub
}

// CropInPlace shrinks the buffer to the region at off with the given size,
// replacing its storage.
func (b *Buffer[P]) CropInPlace(off, size image.Point) {
	sub := b.Subimage(off, size)
	b.pix, b.width, b.height = sub.pix, sub.width, sub.height
}

// Package canvas provides Canvas, a pixel buffer anchored at an arbitrary
// position in an unbounded integer plane.
//
// A Canvas may be empty (no buffer). While empty its reported position is
// always the origin, whatever position was last stored; once a buffer is
// present the stored anchor applies again. Growth, cropping and subimage
// extraction keep existing content fixed in the plane.
//
// Two canvases only interact through coordinate-relative operations
// (DrawOver, DrawReplace, DrawMask, Crop). Results are always copied or
// blended into the destination's own buffer; buffers are never shared.
package canvas

import (
	"image"

	"github.com/ironsheep/canvas-tools-mcp/internal/geom"
	"github.com/ironsheep/canvas-tools-mcp/internal/pixel"
)

// Canvas is a positioned pixel buffer of format P.
type Canvas[P pixel.Pixel] struct {
	buf *pixel.Buffer[P]
	pos image.Point

	// OnCreate is called when SetSize allocates the first buffer.
	OnCreate func()

	// OnExpand is called after every actual expansion with the amount the
	// anchor moved back. The first allocation through ExpandToContain
	// reports a zero delta.
	OnExpand func(delta image.Point)
}

// New returns an empty canvas.
func New[P pixel.Pixel]() *Canvas[P] {
	return &Canvas[P]{}
}

// NewAt returns an empty canvas with a stored anchor of pos.
func NewAt[P pixel.Pixel](pos image.Point) *Canvas[P] {
	return &Canvas[P]{pos: pos}
}

// NewSized returns a canvas at pos with a zeroed buffer of the given size.
// A degenerate size yields an empty canvas.
func NewSized[P pixel.Pixel](pos, size image.Point) *Canvas[P] {
	c := NewAt[P](pos)
	c.SetSize(size)
	return c
}

// FromBuffer wraps buf in a canvas anchored at pos. The canvas takes
// ownership of buf.
func FromBuffer[P pixel.Pixel](pos image.Point, buf *pixel.Buffer[P]) *Canvas[P] {
	return &Canvas[P]{buf: buf, pos: pos}
}

// Buffer returns the owned buffer, or nil when the canvas is empty.
func (c *Canvas[P]) Buffer() *pixel.Buffer[P] { return c.buf }

// HasBuffer reports whether the canvas holds a buffer.
func (c *Canvas[P]) HasBuffer() bool { return c.buf != nil }

// Format returns the canvas pixel format.
func (c *Canvas[P]) Format() pixel.Format { return pixel.FormatOf[P]() }

// Pos returns the anchor, or the origin when the canvas is empty.
func (c *Canvas[P]) Pos() image.Point {
	if c.buf == nil {
		return image.Point{}
	}
	return c.pos
}

// SetPos moves the anchor without touching content.
func (c *Canvas[P]) SetPos(pos image.Point) { c.pos = pos }

// X returns the horizontal component of Pos.
func (c *Canvas[P]) X() int { return c.Pos().X }

// Y returns the vertical component of Pos.
func (c *Canvas[P]) Y() int { return c.Pos().Y }

// Width returns the buffer width, or 0 when empty.
func (c *Canvas[P]) Width() int { return c.Size().X }

// Height returns the buffer height, or 0 when empty.
func (c *Canvas[P]) Height() int { return c.Size().Y }

// Size returns the buffer dimensions, or (0,0) when empty.
func (c *Canvas[P]) Size() image.Point {
	if c.buf == nil {
		return image.Point{}
	}
	return c.buf.Size()
}

// Bounds returns the rectangle the canvas covers in the plane.
func (c *Canvas[P]) Bounds() geom.Rect {
	return geom.Rect{Pos: c.Pos(), Size: c.Size()}
}

// SetSize resizes the canvas keeping its top-left content in place. On an
// empty canvas it allocates a zeroed buffer and calls OnCreate; a degenerate
// size leaves an empty canvas empty. Growing pads with zero pixels;
// shrinking drops the right and bottom edges.
func (c *Canvas[P]) SetSize(size image.Point) {
	if c.buf == nil {
		if size.X <= 0 || size.Y <= 0 {
			return
		}
		c.buf = pixel.New[P](size.X, size.Y)
		if c.OnCreate != nil {
			c.OnCreate()
		}
		return
	}
	if size == c.buf.Size() {
		return
	}
	c.replace(c.buf.Subimage(image.Point{}, size))
}

// replace swaps in a new buffer and disposes the old one.
func (c *Canvas[P]) replace(buf *pixel.Buffer[P]) {
	old := c.buf
	c.buf = buf
	if old != nil && old != buf {
		old.Dispose()
	}
}

// ExpandToContain grows the canvas to the smallest rectangle covering both
// its current bounds and the rectangle at pos with size. It reports whether
// the canvas changed and how far the anchor moved back (up/left) to make
// room; existing content keeps its plane position.
//
// On an empty canvas this adopts pos and size directly with a zero delta.
// A degenerate size is a no-op.
func (c *Canvas[P]) ExpandToContain(pos, size image.Point) (bool, image.Point) {
	if size.X <= 0 || size.Y <= 0 {
		return false, image.Point{}
	}
	if c.buf == nil {
		c.pos = pos
		c.SetSize(size)
		c.notifyExpand(image.Point{})
		return true, image.Point{}
	}

	cur := c.buf.Size()
	if geom.Contains(c.pos, cur, pos, size) {
		return false, image.Point{}
	}

	_, newSize := geom.Union(c.pos, cur, pos, size)
	delta := image.Pt(max(c.pos.X-pos.X, 0), max(c.pos.Y-pos.Y, 0))
	c.replace(c.buf.Subimage(delta.Mul(-1), newSize))
	c.pos = c.pos.Sub(delta)

	c.notifyExpand(delta)
	return true, delta
}

// ExpandToContainRect is ExpandToContain for a geom.Rect.
func (c *Canvas[P]) ExpandToContainRect(r geom.Rect) (bool, image.Point) {
	return c.ExpandToContain(r.Pos, r.Size)
}

func (c *Canvas[P]) notifyExpand(delta image.Point) {
	if c.OnExpand != nil {
		c.OnExpand(delta)
	}
}

// Crop restricts the canvas to the rectangle at pos with size.
//
// With expand set the canvas first grows to cover the rectangle, so the
// result is exactly that rectangle. Without it the rectangle is clipped to
// the current bounds. A rectangle that misses the canvas entirely either
// replaces it with a fresh zeroed buffer (expand) or empties it.
func (c *Canvas[P]) Crop(pos, size image.Point, expand bool) {
	if c.buf == nil {
		if expand {
			c.ExpandToContain(pos, size)
		}
		return
	}

	if !geom.Overlaps(c.pos, c.buf.Size(), pos, size) {
		if expand && size.X > 0 && size.Y > 0 {
			c.replace(pixel.New[P](size.X, size.Y))
			c.pos = pos
			return
		}
		c.Dispose()
		c.pos = pos
		return
	}

	if expand {
		c.ExpandToContain(pos, size)
	}

	clipped := geom.Clip(geom.Rect{Pos: pos, Size: size}, geom.Rect{Pos: c.pos, Size: c.buf.Size()})
	c.buf.CropInPlace(clipped.Pos.Sub(c.pos), clipped.Size)
	c.pos = clipped.Pos
}

// CropRect is Crop for a geom.Rect.
func (c *Canvas[P]) CropRect(r geom.Rect, expand bool) {
	c.Crop(r.Pos, r.Size, expand)
}

// Subimage returns a new canvas anchored at pos holding a copy of the region
// at pos with size. Areas outside the current bounds are zero. The receiver
// is not modified. An empty receiver yields an empty canvas anchored at pos.
func (c *Canvas[P]) Subimage(pos, size image.Point) *Canvas[P] {
	if c.buf == nil {
		return NewAt[P](pos)
	}
	return FromBuffer(pos, c.buf.Subimage(pos.Sub(c.pos), size))
}

// Clone returns a deep copy with the same stored anchor. Callbacks are not
// copied.
func (c *Canvas[P]) Clone() *Canvas[P] {
	out := NewAt[P](c.pos)
	if c.buf != nil {
		out.buf = c.buf.Clone()
	}
	return out
}

// Convert returns a deep copy of c in format Q with the same stored anchor.
func Convert[Q, P pixel.Pixel](c *Canvas[P]) *Canvas[Q] {
	out := NewAt[Q](c.pos)
	if c.buf != nil {
		out.buf = pixel.Convert[Q](c.buf)
	}
	return out
}

// Mutate applies an arbitrary whole-image transform to the buffer. It is a
// no-op on an empty canvas. The anchor does not move.
func (c *Canvas[P]) Mutate(transform func(image.Image) image.Image) {
	if c.buf != nil {
		c.buf.Mutate(transform)
	}
}

// ProcessRows calls fn for every row of the buffer, in order. Rows alias the
// buffer storage.
func (c *Canvas[P]) ProcessRows(fn func(y int, row []P)) {
	if c.buf == nil {
		return
	}
	for y := 0; y < c.buf.Height(); y++ {
		fn(y, c.buf.Row(y))
	}
}

// Dispose releases the buffer and forgets the anchor.
func (c *Canvas[P]) Dispose() {
	if c.buf != nil {
		c.buf.Dispose()
	}
	c.buf = nil
	c.pos = image.Point{}
}

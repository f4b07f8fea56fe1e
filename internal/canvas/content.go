package canvas

import (
	"image"

	"github.com/ironsheep/canvas-tools-mcp/internal/geom"
	"github.com/ironsheep/canvas-tools-mcp/internal/pixel"
)

// ContentBounds returns the smallest plane rectangle holding every visible
// pixel: non-transparent pixels for alpha formats, non-zero pixels for the
// rest. ok is false when the canvas is empty or holds no visible pixel.
func (c *Canvas[P]) ContentBounds() (r geom.Rect, ok bool) {
	if c.buf == nil {
		return geom.Rect{}, false
	}

	alpha := c.Format().HasAlpha()
	minX, minY := c.buf.Width(), c.buf.Height()
	maxX, maxY := -1, -1
	for y := 0; y < c.buf.Height(); y++ {
		for x, p := range c.buf.Row(y) {
			if alpha && pixel.Transparent(p) || !alpha && pixel.IsZero(p) {
				continue
			}
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
		}
	}
	if maxX < 0 {
		return geom.Rect{}, false
	}

	return geom.Rect{
		Pos:  c.pos.Add(image.Pt(minX, minY)),
		Size: image.Pt(maxX-minX+1, maxY-minY+1),
	}, true
}

// Trim crops the canvas to its content bounds. A canvas with no visible
// pixel is disposed. It reports whether the bounds changed.
func (c *Canvas[P]) Trim() bool {
	if c.buf == nil {
		return false
	}
	r, ok := c.ContentBounds()
	if !ok {
		c.Dispose()
		return true
	}
	if r == c.Bounds() {
		return false
	}
	c.CropRect(r, false)
	return true
}

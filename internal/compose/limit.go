package compose

import (
	"fmt"
	"image"
	"strings"

	"github.com/ironsheep/canvas-tools-mcp/internal/geom"
)

// SizeCheck vets the size a layer is about to take and returns an error to
// refuse it. A nil SizeCheck accepts every size.
type SizeCheck func(size image.Point) error

func (check SizeCheck) vet(size image.Point) error {
	if check == nil {
		return nil
	}
	return check(size)
}

// GrowthSize returns the size l would have after ExpandToContain(r).
func GrowthSize(l Layer, r geom.Rect) image.Point {
	if r.Empty() {
		return l.Bounds().Size
	}
	if !l.HasBuffer() {
		return r.Size
	}
	b := l.Bounds()
	_, size := geom.Union(b.Pos, b.Size, r.Pos, r.Size)
	return size
}

// CropGrowthSize returns the largest size l passes through during
// Crop(r, true). An overlapping crop grows to the union before it clips;
// a disjoint one is replaced by a buffer of r's size.
func CropGrowthSize(l Layer, r geom.Rect) image.Point {
	b := l.Bounds()
	if l.HasBuffer() && geom.Overlaps(b.Pos, b.Size, r.Pos, r.Size) {
		return GrowthSize(l, r)
	}
	return r.Size
}

// ResizeTarget predicts the size of a resize where a zero dimension keeps
// the aspect ratio.
func ResizeTarget(cur image.Point, w, h int) image.Point {
	switch {
	case w == 0 && cur.Y > 0:
		w = cur.X * h / cur.Y
	case h == 0 && cur.X > 0:
		h = cur.Y * w / cur.X
	}
	return image.Pt(w, h)
}

// CheckOps walks ops from a layer of the given size and vets every size a
// resize would produce. Nothing is allocated.
func CheckOps(size image.Point, ops []Op, check SizeCheck) error {
	for i, op := range ops {
		switch strings.ToLower(op.Name) {
		case "resize":
			size = ResizeTarget(size, op.Width, op.Height)
			if err := check.vet(size); err != nil {
				return fmt.Errorf("op %d: %w", i, err)
			}
		case "rotate90", "rotate270":
			size = image.Pt(size.Y, size.X)
		}
	}
	return nil
}

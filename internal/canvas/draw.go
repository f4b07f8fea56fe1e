package canvas

import (
	"fmt"

	"github.com/ironsheep/canvas-tools-mcp/internal/composite"
	"github.com/ironsheep/canvas-tools-mcp/internal/geom"
	"github.com/ironsheep/canvas-tools-mcp/internal/pixel"
)

// prepare runs the shared pre-draw steps and reports whether the operator
// has anything to do. An empty overlay is always a no-op. With expand set
// the destination grows to cover the overlay, after checking the pair is
// drawable so an unsupported call leaves dst untouched.
func prepare[D, O pixel.Pixel](dst *Canvas[D], overlay *Canvas[O], expand, supported bool, op string) (bool, error) {
	if dst == nil || overlay == nil || !overlay.HasBuffer() {
		return false, nil
	}
	if expand {
		if !supported {
			return false, fmt.Errorf("%s %s onto %s: %w", op, overlay.Format(), dst.Format(), composite.ErrUnsupported)
		}
		dst.ExpandToContainRect(overlay.Bounds())
	}
	if !dst.HasBuffer() {
		return false, nil
	}
	return geom.Overlaps(dst.Pos(), dst.Size(), overlay.Pos(), overlay.Size()), nil
}

// DrawOver alpha-blends overlay onto dst at the overlay's plane position.
// With expand set dst first grows to contain the overlay.
func DrawOver[D, O pixel.Pixel](dst *Canvas[D], overlay *Canvas[O], expand bool) error {
	ok, err := prepare(dst, overlay, expand, composite.SupportsOver[D, O](), "over")
	if !ok || err != nil {
		return err
	}
	return composite.DrawOver(dst.buf, overlay.buf, overlay.Pos().Sub(dst.Pos()))
}

// DrawReplace copies overlay into dst at the overlay's plane position.
// With expand set dst first grows to contain the overlay.
func DrawReplace[D, O pixel.Pixel](dst *Canvas[D], overlay *Canvas[O], expand bool) error {
	ok, err := prepare(dst, overlay, expand, composite.SupportsReplace[D, O](), "replace")
	if !ok || err != nil {
		return err
	}
	return composite.DrawReplace(dst.buf, overlay.buf, overlay.Pos().Sub(dst.Pos()))
}

// DrawMask scales dst by mask where they overlap. It never expands dst.
func DrawMask[D, M pixel.Pixel](dst *Canvas[D], mask *Canvas[M]) error {
	ok, err := prepare(dst, mask, false, true, "mask")
	if !ok || err != nil {
		return err
	}
	return composite.DrawMask(dst.buf, mask.buf, mask.Pos().Sub(dst.Pos()))
}

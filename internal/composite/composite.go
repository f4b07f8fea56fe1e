// Package composite implements the per-pixel compositing operators: over
// blending, hard replacement and alpha/luminance masking.
//
// Every operator takes a destination buffer, an overlay (or mask) buffer and
// the overlay's position relative to the destination's top-left pixel. The
// overlap of the two rectangles is computed first; when it is empty the call
// returns immediately without touching either buffer. Work is then done row
// by row, in parallel where the operator does arithmetic per pixel, and the
// call returns only after every row has been written.
//
// Format pairs are dispatched through small tables keyed by the two pixel
// formats. A pair with no defined rule yields ErrUnsupported.
//
// All blending uses truncating integer division. Intermediates are held in
// uint64 and narrowed back to the channel width with a plain conversion.
package composite

import (
	"errors"
	"fmt"
	"image"

	"github.com/ironsheep/canvas-tools-mcp/internal/geom"
	"github.com/ironsheep/canvas-tools-mcp/internal/parallel"
	"github.com/ironsheep/canvas-tools-mcp/internal/pixel"
)

// ErrUnsupported is returned when an operator has no rule for a format pair.
var ErrUnsupported = errors.New("unsupported format pair")

// rowKernel processes one row of an overlap region. dst and src are slices
// of the destination and source pixel types with equal length.
type rowKernel func(dst, src any)

type pair struct {
	dst, src pixel.Format
}

func pairOf[D, O pixel.Pixel]() pair {
	return pair{dst: pixel.FormatOf[D](), src: pixel.FormatOf[O]()}
}

func unsupported(op string, p pair) error {
	return fmt.Errorf("%s %s onto %s: %w", op, p.src, p.dst, ErrUnsupported)
}

// region is an overlap between a destination and a source buffer, in each
// buffer's own coordinates.
type region struct {
	dst, src, size image.Point
}

// overlap clips a source anchored at pos against a destination anchored at
// the origin.
func overlap[D, O pixel.Pixel](dst *pixel.Buffer[D], src *pixel.Buffer[O], pos image.Point) (region, bool) {
	srcOff, dstOff, size := geom.ComputeOverlap(pos, src.Size(), image.Point{}, dst.Size())
	return region{dst: dstOff, src: srcOff, size: size}, size.X > 0 && size.Y > 0
}

// apply runs k over every row of r, in parallel when par is set.
func apply[D, O pixel.Pixel](dst *pixel.Buffer[D], src *pixel.Buffer[O], r region, k rowKernel, par bool) {
	row := func(y int) {
		d := dst.Row(r.dst.Y + y)[r.dst.X : r.dst.X+r.size.X]
		s := src.Row(r.src.Y + y)[r.src.X : r.src.X+r.size.X]
		k(d, s)
	}
	if par {
		parallel.Rows(r.size.Y, row)
		return
	}
	for y := 0; y < r.size.Y; y++ {
		row(y)
	}
}

// copyRows block-copies r from src into dst. D and O must be the same type.
func copyRows[D, O pixel.Pixel](dst *pixel.Buffer[D], src *pixel.Buffer[O], r region) {
	s := any(src).(*pixel.Buffer[D])
	for y := 0; y < r.size.Y; y++ {
		copy(
			dst.Row(r.dst.Y + y)[r.dst.X:r.dst.X+r.size.X],
			s.Row(r.src.Y + y)[r.src.X:r.src.X+r.size.X],
		)
	}
}

// DrawOver composites overlay on top of dst using straight-alpha "over".
// pos is the overlay's top-left corner in dst coordinates.
//
// Overlays without alpha replace the destination outright (forcing the
// destination alpha to opaque). Fully transparent overlay pixels are
// skipped. Alpha overlays on alpha destinations use
//
//	outA = oA + dA*(max-oA)/max
//	outC = (oC*oA + dC*dA*(max-oA)/max) / outA
//
// and on destinations without alpha
//
//	outC = (oC*oA + dC*(max-oA)) / max
func DrawOver[D, O pixel.Pixel](dst *pixel.Buffer[D], overlay *pixel.Buffer[O], pos image.Point) error {
	if dst == nil || overlay == nil {
		return nil
	}
	r, ok := overlap(dst, overlay, pos)
	if !ok {
		return nil
	}

	p := pairOf[D, O]()
	if p.dst == p.src && !p.src.HasAlpha() {
		copyRows(dst, overlay, r)
		return nil
	}
	k, ok := overKernels[p]
	if !ok {
		return unsupported("over", p)
	}
	apply(dst, overlay, r, k, true)
	return nil
}

// SupportsOver reports whether DrawOver has a rule for the pair.
func SupportsOver[D, O pixel.Pixel]() bool {
	p := pairOf[D, O]()
	if p.dst == p.src && !p.src.HasAlpha() {
		return true
	}
	_, ok := overKernels[p]
	return ok
}

// DrawReplace copies overlay channels into dst without blending. Channels
// the overlay lacks are left alone, except that alpha is forced opaque when
// an alpha-less overlay lands on an alpha destination; an overlay's alpha is
// dropped when the destination has none.
func DrawReplace[D, O pixel.Pixel](dst *pixel.Buffer[D], overlay *pixel.Buffer[O], pos image.Point) error {
	if dst == nil || overlay == nil {
		return nil
	}
	r, ok := overlap(dst, overlay, pos)
	if !ok {
		return nil
	}

	p := pairOf[D, O]()
	if p.dst == p.src {
		copyRows(dst, overlay, r)
		return nil
	}
	k, ok := replaceKernels[p]
	if !ok {
		return unsupported("replace", p)
	}
	apply(dst, overlay, r, k, true)
	return nil
}

// SupportsReplace reports whether DrawReplace has a rule for the pair.
func SupportsReplace[D, O pixel.Pixel]() bool {
	p := pairOf[D, O]()
	if p.dst == p.src {
		return true
	}
	_, ok := replaceKernels[p]
	return ok
}

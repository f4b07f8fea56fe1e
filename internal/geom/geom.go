// Package geom implements the rectangle math shared by every compositing
// operation: overlap tests, containment, clipping and the source/destination
// offsets of an overlap region.
//
// # Coordinate System
//
// Rectangles live in an unbounded integer plane. A rectangle at Pos with Size
// covers the half-open ranges [Pos.X, Pos.X+Size.X) and [Pos.Y, Pos.Y+Size.Y),
// so boundary pixels belong to exactly one of two adjacent rectangles.
// A rectangle whose width or height is zero or negative is empty.
package geom

import "image"

// Rect is a rectangle described by its top-left position and its size.
type Rect struct {
	Pos  image.Point `json:"pos"`
	Size image.Point `json:"size"`
}

// R is shorthand for Rect{image.Pt(x, y), image.Pt(w, h)}.
func R(x, y, w, h int) Rect {
	return Rect{Pos: image.Pt(x, y), Size: image.Pt(w, h)}
}

// Empty reports whether the rectangle covers no cells.
func (r Rect) Empty() bool {
	return r.Size.X <= 0 || r.Size.Y <= 0
}

// Max returns the exclusive bottom-right corner.
func (r Rect) Max() image.Point {
	return r.Pos.Add(r.Size)
}

// Rectangle converts r to an image.Rectangle.
func (r Rect) Rectangle() image.Rectangle {
	return image.Rectangle{Min: r.Pos, Max: r.Max()}
}

// FromRectangle converts an image.Rectangle to a Rect.
func FromRectangle(r image.Rectangle) Rect {
	return Rect{Pos: r.Min, Size: r.Size()}
}

// Overlaps reports whether rectangles A and B share at least one cell.
// Empty rectangles never overlap anything.
func Overlaps(posA, sizeA, posB, sizeB image.Point) bool {
	if sizeA.X <= 0 || sizeA.Y <= 0 || sizeB.X <= 0 || sizeB.Y <= 0 {
		return false
	}
	return posA.X < posB.X+sizeB.X && posB.X < posA.X+sizeA.X &&
		posA.Y < posB.Y+sizeB.Y && posB.Y < posA.Y+sizeA.Y
}

// Contains reports whether rectangle B lies entirely inside rectangle A.
// The far edge of B may touch the far edge of A but not cross it; touching
// counts as contained, so every rectangle contains itself.
func Contains(posA, sizeA, posB, sizeB image.Point) bool {
	return posB.X >= posA.X && posB.Y >= posA.Y &&
		posB.X+sizeB.X <= posA.X+sizeA.X &&
		posB.Y+sizeB.Y <= posA.Y+sizeA.Y
}

// Clip returns the intersection of rect and bounds. When the two do not
// intersect the result has a non-positive width or height.
func Clip(rect, bounds Rect) Rect {
	x := max(rect.Pos.X, bounds.Pos.X)
	y := max(rect.Pos.Y, bounds.Pos.Y)
	return Rect{
		Pos: image.Pt(x, y),
		Size: image.Pt(
			min(rect.Pos.X+rect.Size.X, bounds.Pos.X+bounds.Size.X)-x,
			min(rect.Pos.Y+rect.Size.Y, bounds.Pos.Y+bounds.Size.Y)-y,
		),
	}
}

// Union returns the smallest rectangle containing both A and B.
func Union(posA, sizeA, posB, sizeB image.Point) (image.Point, image.Point) {
	lo := image.Pt(min(posA.X, posB.X), min(posA.Y, posB.Y))
	hi := image.Pt(max(posA.X+sizeA.X, posB.X+sizeB.X), max(posA.Y+sizeA.Y, posB.Y+sizeB.Y))
	return lo, hi.Sub(lo)
}

// ComputeOverlap reconciles a source rectangle and a destination rectangle
// expressed in the same plane. It returns where copying starts inside the
// source, where writing starts inside the destination, and the size of the
// shared region. A size with a non-positive component means there is nothing
// to do.
func ComputeOverlap(srcPos, srcSize, dstPos, dstSize image.Point) (srcOff, dstOff, size image.Point) {
	shared := Clip(Rect{Pos: srcPos, Size: srcSize}, Rect{Pos: dstPos, Size: dstSize})
	return shared.Pos.Sub(srcPos), shared.Pos.Sub(dstPos), shared.Size
}

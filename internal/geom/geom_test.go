package geom

import (
	"image"
	"testing"
)

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Rect
		want bool
	}{
		{"identical", R(0, 0, 4, 4), R(0, 0, 4, 4), true},
		{"partial", R(0, 0, 4, 4), R(2, 2, 4, 4), true},
		{"inside", R(0, 0, 10, 10), R(3, 3, 2, 2), true},
		{"touching right edge", R(0, 0, 4, 4), R(4, 0, 4, 4), false},
		{"touching bottom edge", R(0, 0, 4, 4), R(0, 4, 4, 4), false},
		{"disjoint", R(0, 0, 4, 4), R(10, 10, 2, 2), false},
		{"negative coordinates", R(-5, -5, 6, 6), R(0, 0, 3, 3), true},
		{"empty width", R(0, 0, 0, 4), R(-1, 0, 3, 3), false},
		{"negative height", R(0, 0, 4, -2), R(0, -1, 2, 2), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Overlaps(tt.a.Pos, tt.a.Size, tt.b.Pos, tt.b.Size)
			if got != tt.want {
				t.Errorf("Overlaps(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if rev := Overlaps(tt.b.Pos, tt.b.Size, tt.a.Pos, tt.a.Size); rev != got {
				t.Errorf("Overlaps is not symmetric: %v vs %v", got, rev)
			}
		})
	}
}

func TestOverlaps_AgreesWithClip(t *testing.T) {
	rects := []Rect{
		R(0, 0, 4, 4), R(3, 3, 4, 4), R(4, 0, 1, 1), R(-2, -2, 3, 3),
		R(1, 1, 0, 5), R(10, -3, 2, 8), R(-1, 2, 6, 1),
	}
	for _, a := range rects {
		for _, b := range rects {
			clipped := Clip(a, b)
			if clipped.Empty() && Overlaps(a.Pos, a.Size, b.Pos, b.Size) {
				t.Errorf("Overlaps(%v, %v) true but Clip is empty: %v", a, b, clipped)
			}
			if !clipped.Empty() && !Overlaps(a.Pos, a.Size, b.Pos, b.Size) {
				t.Errorf("Overlaps(%v, %v) false but Clip is %v", a, b, clipped)
			}
		}
	}
}

func TestContains(t *testing.T) {
	tests := []struct {
		name string
		a, b Rect
		want bool
	}{
		{"identical", R(0, 0, 4, 4), R(0, 0, 4, 4), true},
		{"inside", R(0, 0, 10, 10), R(2, 2, 3, 3), true},
		{"flush with far edge", R(0, 0, 10, 10), R(5, 5, 5, 5), true},
		{"crosses far edge", R(0, 0, 10, 10), R(5, 5, 6, 5), false},
		{"starts before", R(0, 0, 10, 10), R(-1, 0, 2, 2), false},
		{"outside", R(0, 0, 4, 4), R(8, 8, 1, 1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Contains(tt.a.Pos, tt.a.Size, tt.b.Pos, tt.b.Size); got != tt.want {
				t.Errorf("Contains(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestClip(t *testing.T) {
	got := Clip(R(-2, 1, 6, 6), R(0, 0, 3, 4))
	want := R(0, 1, 2, 3)
	if got != want {
		t.Errorf("Clip: got %v, want %v", got, want)
	}

	disjoint := Clip(R(0, 0, 2, 2), R(5, 5, 2, 2))
	if !disjoint.Empty() {
		t.Errorf("Clip of disjoint rects should be empty, got %v", disjoint)
	}
}

func TestUnion(t *testing.T) {
	pos, size := Union(image.Pt(0, 0), image.Pt(4, 4), image.Pt(-2, 3), image.Pt(3, 3))
	if pos != image.Pt(-2, 0) || size != image.Pt(6, 6) {
		t.Errorf("Union: got pos %v size %v, want (-2,0) (6,6)", pos, size)
	}
}

func TestComputeOverlap(t *testing.T) {
	tests := []struct {
		name                 string
		src, dst             Rect
		srcOff, dstOff, size image.Point
	}{
		{
			"overlay inside destination",
			R(1, 1, 2, 2), R(0, 0, 4, 4),
			image.Pt(0, 0), image.Pt(1, 1), image.Pt(2, 2),
		},
		{
			"overlay hangs off top-left",
			R(-1, -2, 4, 4), R(0, 0, 4, 4),
			image.Pt(1, 2), image.Pt(0, 0), image.Pt(3, 2),
		},
		{
			"overlay hangs off bottom-right",
			R(3, 2, 4, 4), R(0, 0, 4, 4),
			image.Pt(0, 0), image.Pt(3, 2), image.Pt(1, 2),
		},
		{
			"anchored away from origin",
			R(12, 7, 2, 2), R(10, 5, 4, 4),
			image.Pt(0, 0), image.Pt(2, 2), image.Pt(2, 2),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srcOff, dstOff, size := ComputeOverlap(tt.src.Pos, tt.src.Size, tt.dst.Pos, tt.dst.Size)
			if srcOff != tt.srcOff || dstOff != tt.dstOff || size != tt.size {
				t.Errorf("got (%v, %v, %v), want (%v, %v, %v)", srcOff, dstOff, size, tt.srcOff, tt.dstOff, tt.size)
			}
		})
	}
}

func TestComputeOverlap_Disjoint(t *testing.T) {
	_, _, size := ComputeOverlap(image.Pt(10, 10), image.Pt(2, 2), image.Pt(0, 0), image.Pt(4, 4))
	if size.X > 0 && size.Y > 0 {
		t.Errorf("disjoint rectangles should produce a degenerate size, got %v", size)
	}
}

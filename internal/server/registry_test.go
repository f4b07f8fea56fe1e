package server

import (
	"errors"
	"image"
	"testing"

	"github.com/ironsheep/canvas-tools-mcp/internal/compose"
	"github.com/ironsheep/canvas-tools-mcp/internal/geom"
	"github.com/ironsheep/canvas-tools-mcp/internal/pixel"
)

func newLayer(t *testing.T, f pixel.Format, pos, size image.Point) compose.Layer {
	t.Helper()
	l, err := compose.NewLayer(f, pos, size)
	if err != nil {
		t.Fatalf("NewLayer: %v", err)
	}
	return l
}

func TestRegistry_AddGetRemove(t *testing.T) {
	r := NewRegistry()
	l := newLayer(t, pixel.FormatRGBA, image.Pt(1, 2), image.Pt(3, 4))

	e := r.Add("first", l)
	if e.ID == "" || e.Name != "first" || e.Created.IsZero() {
		t.Fatalf("entry = %+v", e)
	}

	got, err := r.Get(e.ID)
	if err != nil || got != e {
		t.Fatalf("Get = %v, %v", got, err)
	}

	if err := r.Remove(e.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if l.HasBuffer() {
		t.Error("Remove should dispose the layer")
	}
	if _, err := r.Get(e.ID); !errors.Is(err, ErrCanvasNotFound) {
		t.Errorf("Get after Remove = %v, want ErrCanvasNotFound", err)
	}
	if err := r.Remove(e.ID); !errors.Is(err, ErrCanvasNotFound) {
		t.Errorf("second Remove = %v, want ErrCanvasNotFound", err)
	}
}

func TestRegistry_ListOrder(t *testing.T) {
	r := NewRegistry()
	var ids []string
	for i := 0; i < 5; i++ {
		ids = append(ids, r.Add("", newLayer(t, pixel.FormatL8, image.Point{}, image.Point{})).ID)
	}
	if err := r.Remove(ids[2]); err != nil {
		t.Fatal(err)
	}
	want := []string{ids[0], ids[1], ids[3], ids[4]}

	list := r.List()
	if len(list) != len(want) || r.Len() != len(want) {
		t.Fatalf("List has %d entries, Len %d, want %d", len(list), r.Len(), len(want))
	}
	for i, e := range list {
		if e.ID != want[i] {
			t.Errorf("List[%d] = %s, want %s", i, e.ID, want[i])
		}
	}
}

func TestRegistry_Stats(t *testing.T) {
	r := NewRegistry()
	l := newLayer(t, pixel.FormatLA16, image.Pt(5, 5), image.Point{})
	e := r.Add("grow", l)

	// First growth of an empty layer allocates at the target.
	l.ExpandToContain(geom.R(5, 5, 2, 2))
	l.ExpandToContain(geom.R(2, 3, 1, 1))
	l.ExpandToContain(geom.R(5, 5, 1, 1)) // contained, no notification

	st := e.Stats()
	if st.Allocations != 1 {
		t.Errorf("Allocations = %d, want 1", st.Allocations)
	}
	if st.Expansions != 2 {
		t.Errorf("Expansions = %d, want 2", st.Expansions)
	}
	if st.Shift != image.Pt(3, 2) {
		t.Errorf("Shift = %v, want (3,2)", st.Shift)
	}
}

func TestRegistry_StatsAllocatedBeforeAdd(t *testing.T) {
	r := NewRegistry()
	sized := r.Add("sized", newLayer(t, pixel.FormatRGBA, image.Point{}, image.Pt(2, 2)))
	empty := r.Add("empty", newLayer(t, pixel.FormatRGBA, image.Point{}, image.Point{}))

	if got := sized.Stats().Allocations; got != 1 {
		t.Errorf("sized Allocations = %d, want 1", got)
	}
	if got := empty.Stats().Allocations; got != 0 {
		t.Errorf("empty Allocations = %d, want 0", got)
	}

	// Disposing and regrowing allocates again.
	sized.Layer.Dispose()
	sized.Layer.ExpandToContain(geom.R(0, 0, 1, 1))
	if got := sized.Stats().Allocations; got != 2 {
		t.Errorf("regrown Allocations = %d, want 2", got)
	}
}

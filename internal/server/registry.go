package server

import (
	"errors"
	"fmt"
	"image"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/canvas-tools-mcp/internal/compose"
)

// ErrCanvasNotFound is returned for an id the registry does not hold.
var ErrCanvasNotFound = errors.New("canvas not found")

// CanvasStats counts what happened to a canvas since it was registered.
type CanvasStats struct {
	Allocations int         `json:"allocations"`
	Expansions  int         `json:"expansions"`
	Shift       image.Point `json:"shift"` // total anchor movement from growth
}

// CanvasEntry is one registered canvas.
type CanvasEntry struct {
	ID      string
	Name    string
	Created time.Time
	Layer   compose.Layer

	seq   uint64
	mu    sync.Mutex
	stats CanvasStats
}

// Stats returns a snapshot of the entry's counters.
func (e *CanvasEntry) Stats() CanvasStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// Registry holds the canvases a session creates, keyed by generated id.
//
// Registry is safe for concurrent use. The layers themselves are not; the
// server runs one tool call at a time.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*CanvasEntry
	next    uint64
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*CanvasEntry)}
}

// Add registers l under a fresh id and starts tracking its growth. A layer
// that already holds pixels counts as one allocation.
func (r *Registry) Add(name string, l compose.Layer) *CanvasEntry {
	e := &CanvasEntry{
		ID:      uuid.NewString(),
		Name:    name,
		Created: time.Now(),
		Layer:   l,
	}
	if l.HasBuffer() {
		e.stats.Allocations = 1
	}
	l.Observe(
		func() {
			e.mu.Lock()
			e.stats.Allocations++
			e.mu.Unlock()
		},
		func(delta image.Point) {
			e.mu.Lock()
			e.stats.Expansions++
			e.stats.Shift = e.stats.Shift.Add(delta)
			e.mu.Unlock()
		},
	)

	r.mu.Lock()
	r.next++
	e.seq = r.next
	r.entries[e.ID] = e
	r.mu.Unlock()
	return e
}

// Get returns the entry for id.
func (r *Registry) Get(id string) (*CanvasEntry, error) {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCanvasNotFound, id)
	}
	return e, nil
}

// Remove disposes the canvas and forgets id.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	e, ok := r.entries[id]
	delete(r.entries, id)
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrCanvasNotFound, id)
	}
	e.Layer.Dispose()
	return nil
}

// List returns every entry, oldest first.
func (r *Registry) List() []*CanvasEntry {
	r.mu.RLock()
	out := make([]*CanvasEntry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// Len returns the number of registered canvases.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

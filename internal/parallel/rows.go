// Package parallel runs per-row work across goroutines and waits for all of
// it before returning.
//
// Rows are split into contiguous bands, one band per worker. Callers must
// only touch memory belonging to the row they are given; under that rule the
// result is identical to running the rows in order.
package parallel

import (
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// DefaultMinRows is the row count below which Rows runs sequentially.
const DefaultMinRows = 16

var (
	workers atomic.Int64
	minRows atomic.Int64
)

func init() {
	minRows.Store(DefaultMinRows)
}

// Configure sets the worker count and the sequential threshold. A worker
// count of zero or less means GOMAXPROCS; a threshold below one is treated
// as one.
func Configure(n, threshold int) {
	workers.Store(int64(n))
	minRows.Store(int64(max(threshold, 1)))
}

// Workers returns the effective number of workers.
func Workers() int {
	if n := int(workers.Load()); n > 0 {
		return n
	}
	return runtime.GOMAXPROCS(0)
}

// Rows calls fn once for every row index in [0, n) and returns after every
// call has finished.
func Rows(n int, fn func(y int)) {
	if n <= 0 {
		return
	}

	w := Workers()
	if w <= 1 || int64(n) < minRows.Load() {
		for y := 0; y < n; y++ {
			fn(y)
		}
		return
	}

	w = min(w, n)
	band := (n + w - 1) / w

	var g errgroup.Group
	for start := 0; start < n; start += band {
		end := min(start+band, n)
		g.Go(func() error {
			for y := start; y < end; y++ {
				fn(y)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// Package median implements a block-decomposed 2-D sliding-window median
// filter. Given an image and a rectangular window radius, it produces an
// output image of the same shape where each cell holds the median of the
// input cells inside the window centered at that cell, clipped at the
// image boundary.
//
// The image is tiled into overlapping blocks; each block is processed
// independently (rank build, then a snake traversal that keeps a
// bit-packed window of in-window ranks), so blocks can run on separate
// goroutines with no synchronization between them — every output cell is
// written exactly once, by exactly one worker.
package median

import (
	"fmt"
	"runtime"
	"sync"
)

// Engine holds the geometry for one (X, Y, hx, hy, b) configuration plus a
// pool of per-worker BlockMedian scratch. It is safe to reuse across
// multiple Run/RunNaive calls against buffers of the same shape — doing so
// avoids re-deriving the tile grid and, via scratchPool, avoids
// re-allocating each worker's rank/bitset buffers call after call.
//
// Safe for concurrent use by multiple goroutines, including overlapping
// Run/RunNaive calls on one Engine: scratchPool is a sync.Pool and the tile
// grid fields are read-only after construction.
type Engine[T Float] struct {
	x, y int
	b    int
	dimX dim
	dimY dim

	scratchPool sync.Pool
}

// NewEngine validates (X, Y, hx, hy, bHint) and resolves a default block
// size when bHint is 0: b = 4*(max(hx,hy)+2), chosen to balance the
// O(b^2) rank-build cost against the O(b*h) per-cell update cost.
func NewEngine[T Float](X, Y, hx, hy, bHint int) (*Engine[T], error) {
	if X <= 0 || Y <= 0 {
		return nil, ErrInvalidDim
	}
	if hx < 0 || hy < 0 {
		return nil, fmt.Errorf("median: negative window radius")
	}

	b := bHint
	if b == 0 {
		h := hx
		if hy > h {
			h = hy
		}
		b = 4 * (h + 2)
	}
	if 2*hx+1 >= b || 2*hy+1 >= b {
		return nil, ErrInvalidWindow
	}

	e := &Engine[T]{
		x:    X,
		y:    Y,
		b:    b,
		dimX: newDim(X, hx, b),
		dimY: newDim(Y, hy, b),
	}
	e.scratchPool.New = func() any { return newBlockMedian[T](e.b) }
	return e, nil
}

// Run fills out with the median-filtered image, using the snake
// traversal. in and out must each have length X*Y and must not overlap.
func (e *Engine[T]) Run(in, out []T) error {
	return e.run(in, out, false)
}

// RunNaive is the reference traversal: it clears and fully reinserts the
// window at every interior cell instead of tracking it incrementally.
// Exposed for testing the snake traversal against a slower but obviously
// correct sibling; not recommended for production use.
func (e *Engine[T]) RunNaive(in, out []T) error {
	return e.run(in, out, true)
}

type blockTask struct{ bx, by int }

func (e *Engine[T]) run(in, out []T, naive bool) (retErr error) {
	n := e.x * e.y
	if len(in) != n || len(out) != n {
		return fmt.Errorf("median: buffer length %d/%d does not match image size %dx%d", len(in), len(out), e.x, e.y)
	}

	tasks := make([]blockTask, 0, e.dimX.count*e.dimY.count)
	for by := 0; by < e.dimY.count; by++ {
		for bx := 0; bx < e.dimX.count; bx++ {
			tasks = append(tasks, blockTask{bx, by})
		}
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > len(tasks) {
		workers = len(tasks)
	}
	if workers < 1 {
		workers = 1
	}

	errs := make([]error, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			errs[w] = e.runWorker(w, workers, tasks, in, out, naive)
		}(w)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// runWorker borrows one BlockMedian from the engine's scratch pool and
// processes every task assigned to worker index w out of workers, via
// round-robin striping over the static task list. The BlockMedian is
// returned to the pool when this worker's share is done, so a later call
// against this Engine can reuse it instead of allocating fresh rank/bitset
// buffers. A panic inside the worker (such as a failed scratch allocation)
// is recovered and returned wrapped in ErrAllocationFailed rather than
// crashing the process; a fatal runtime out-of-memory error is not a panic
// and is not recovered.
func (e *Engine[T]) runWorker(w, workers int, tasks []blockTask, in, out []T, naive bool) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrAllocationFailed, r)
		}
	}()

	bm := e.scratchPool.Get().(*blockMedian[T])
	defer e.scratchPool.Put(bm)

	for i := w; i < len(tasks); i += workers {
		t := tasks[i]
		bdx := e.dimX.block(t.bx)
		bdy := e.dimY.block(t.by)
		bm.run(bdx, bdy, in, out, e.x, naive)
	}
	return nil
}

// Filter2D runs a one-shot median filter over in, writing the result into
// out. in and out must each have length X*Y and must not overlap.
//
// hx, hy are the window half-widths; bHint overrides the default block
// size (0 picks a default). Returns ErrInvalidDim for an empty image or
// ErrInvalidWindow if the resolved block size cannot hold the window.
func Filter2D[T Float](X, Y, hx, hy, bHint int, in, out []T) error {
	e, err := NewEngine[T](X, Y, hx, hy, bHint)
	if err != nil {
		return err
	}
	return e.Run(in, out)
}

// FilterPlanes applies Filter2D independently to each of several
// same-shaped planes (e.g. the channels of a color image). All planes
// share one Engine, so the tile grid is only derived once.
func FilterPlanes[T Float](X, Y, hx, hy, bHint int, in, out [][]T) error {
	if len(in) != len(out) {
		return fmt.Errorf("median: %d input planes but %d output planes", len(in), len(out))
	}
	e, err := NewEngine[T](X, Y, hx, hy, bHint)
	if err != nil {
		return err
	}
	for i := range in {
		if err := e.Run(in[i], out[i]); err != nil {
			return fmt.Errorf("median: plane %d: %w", i, err)
		}
	}
	return nil
}

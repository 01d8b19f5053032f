// Package parallel provides the strided for-with-reduction abstraction
// every SIDESPLITTER kernel is built on: a fixed number of workers each
// walk every W-th voxel, accumulate a partial result, and those partials
// are reduced on join. The partition is deterministic for a fixed worker
// count, so two runs with the same worker count (Config.Workers or
// OMP_NUM_THREADS) see bit-identical reductions.
package parallel

import (
	"context"
	"os"
	"runtime"
	"strconv"

	"golang.org/x/sync/errgroup"
)

// NumWorkers resolves the worker count the way the reference pipeline
// does: OMP_NUM_THREADS if set and valid, else the number of online
// processors, else 1.
func NumWorkers() int {
	if v := os.Getenv("OMP_NUM_THREADS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	if n := runtime.NumCPU(); n > 0 {
		return n
	}
	return 1
}

// For runs body(i) for every i in [0,size) across workers goroutines,
// each worker t handling indices t, t+workers, t+2*workers, .... It
// blocks until all workers finish and returns the first error
// encountered, if any, after all workers have exited.
func For(ctx context.Context, workers, size int, body func(worker, i int) error) error {
	if workers <= 0 {
		workers = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	for t := 0; t < workers; t++ {
		t := t
		g.Go(func() error {
			for i := t; i < size; i += workers {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := body(t, i); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// Reduce runs a strided for-with-reduction: each worker accumulates into
// its own partial value (via accum), and the partials are combined with
// combine once every worker has finished. zero must return a fresh
// accumulator for each worker call.
func Reduce[T any](ctx context.Context, workers, size int, zero func() T, accum func(acc T, worker, i int) T, combine func(a, b T) T) (T, error) {
	if workers <= 0 {
		workers = 1
	}
	partials := make([]T, workers)
	for t := range partials {
		partials[t] = zero()
	}
	g, ctx := errgroup.WithContext(ctx)
	for t := 0; t < workers; t++ {
		t := t
		g.Go(func() error {
			acc := partials[t]
			for i := t; i < size; i += workers {
				if err := ctx.Err(); err != nil {
					return err
				}
				acc = accum(acc, t, i)
			}
			partials[t] = acc
			return nil
		})
	}
	var zeroVal T
	if err := g.Wait(); err != nil {
		return zeroVal, err
	}
	result := partials[0]
	for _, p := range partials[1:] {
		result = combine(result, p)
	}
	return result, nil
}

// KahanSum is an extended-precision running sum used by the reduction
// kernels in place of the original's long double accumulators: plain
// float64 summation of millions of squared voxel differences loses too
// much precision to reproduce the reference noise estimate reliably.
type KahanSum struct {
	sum float64
	c   float64
}

// Add folds v into the running sum.
func (k *KahanSum) Add(v float64) {
	y := v - k.c
	t := k.sum + y
	k.c = (t - k.sum) - y
	k.sum = t
}

// Value returns the accumulated sum.
func (k KahanSum) Value() float64 {
	return k.sum
}

// Combine merges another KahanSum accumulated on a different worker
// into k. other's own compensation term still holds low-order bits
// that never made it into other.sum, so it is folded in alongside
// other.sum rather than discarded.
func (k *KahanSum) Combine(other KahanSum) {
	k.Add(other.sum)
	k.Add(-other.c)
}

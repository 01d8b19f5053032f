// Package pass2 implements the backward resolution walk: starting from
// the finest shell reached by Pass 1 and working back to the head, it
// lowpass-filters each half-map to the shell's cumulative cutoff,
// estimates a local noise ceiling from the masked voxels, and admits
// into the denoised output any voxel whose signal exceeds that
// ceiling. Admission is monotone: a voxel already admitted by a finer
// shell is never revisited by a coarser one.
package pass2

import (
	"context"
	"fmt"
	"math"

	"github.com/aylett-lab/sidesplitter/internal/kernels"
	"github.com/aylett-lab/sidesplitter/internal/parallel"
	"github.com/aylett-lab/sidesplitter/internal/shell"
	"github.com/aylett-lab/sidesplitter/volume"
)

// Result is the outcome of a complete Pass 2 walk.
type Result struct {
	Out1, Out2 *volume.Real
	// Recovery is the final shell's admitted-voxel fraction, reported
	// for progress logging.
	Recovery float64
}

type noiseStats struct {
	max   float64
	sigma parallel.KahanSum
	count parallel.KahanSum
}

// Run walks shells from its tail back to its head, admitting voxels
// above the locally estimated noise ceiling into fresh output volumes.
func Run(ctx context.Context, workers int, engine interface {
	Inverse(*volume.Complex) (*volume.Real, error)
}, f1, f2 *volume.Complex, mask *volume.Real, shells *shell.List) (*Result, error) {
	n := f1.N
	out1 := volume.NewReal(n)
	out2 := volume.NewReal(n)
	var recovery float64

	for node := shells.Tail(); node != nil; node = node.Prev() {
		cutoff := node.Res + node.Stp
		band1, err := kernels.Lowpass(ctx, workers, f1, cutoff)
		if err != nil {
			return nil, fmt.Errorf("pass2: lowpass half 1: %w", err)
		}
		band2, err := kernels.Lowpass(ctx, workers, f2, cutoff)
		if err != nil {
			return nil, fmt.Errorf("pass2: lowpass half 2: %w", err)
		}

		b1, err := engine.Inverse(band1)
		if err != nil {
			return nil, fmt.Errorf("pass2: inverse fft half 1: %w", err)
		}
		b2, err := engine.Inverse(band2)
		if err != nil {
			return nil, fmt.Errorf("pass2: inverse fft half 2: %w", err)
		}

		stats, err := parallel.Reduce(ctx, workers, len(b1.Data),
			func() noiseStats { return noiseStats{} },
			func(acc noiseStats, _ int, idx int) noiseStats {
				if mask.Data[idx] < 0.99 {
					return acc
				}
				half := 0.5 * (b1.Data[idx] - b2.Data[idx])
				sq := half * half
				if sq > acc.max {
					acc.max = sq
				}
				acc.sigma.Add(sq)
				acc.count.Add(1)
				return acc
			},
			func(x, y noiseStats) noiseStats {
				if y.max > x.max {
					x.max = y.max
				}
				x.sigma.Combine(y.sigma)
				x.count.Combine(y.count)
				return x
			},
		)
		if err != nil {
			return nil, fmt.Errorf("pass2: noise statistics: %w", err)
		}

		count := stats.count.Value()
		if count == 0 {
			return nil, fmt.Errorf("pass2: mask excludes every voxel")
		}
		sigma := math.Sqrt(stats.sigma.Value() / count)
		sigmaEV := shell.ExtremeValueNoise(sigma, count)
		noise := stats.max
		if sigmaEV*sigmaEV > noise {
			noise = sigmaEV * sigmaEV
		}

		rcv, err := parallel.Reduce(ctx, workers, len(out1.Data),
			func() parallel.KahanSum { return parallel.KahanSum{} },
			func(acc parallel.KahanSum, _ int, idx int) parallel.KahanSum {
				if out1.Data[idx] != 0 {
					acc.Add(0.5)
				} else if b1.Data[idx]*b1.Data[idx] > noise {
					out1.Data[idx] = b1.Data[idx]
					acc.Add(0.5)
				}
				if out2.Data[idx] != 0 {
					acc.Add(0.5)
				} else if b2.Data[idx]*b2.Data[idx] > noise {
					out2.Data[idx] = b2.Data[idx]
					acc.Add(0.5)
				}
				return acc
			},
			func(x, y parallel.KahanSum) parallel.KahanSum {
				x.Combine(y)
				return x
			},
		)
		if err != nil {
			return nil, fmt.Errorf("pass2: voxel admission: %w", err)
		}
		recovery = rcv.Value() / count
	}

	return &Result{Out1: out1, Out2: out2, Recovery: recovery}, nil
}

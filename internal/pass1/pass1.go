// Package pass1 implements the forward resolution walk: for each shell
// it isolates the corresponding Fourier band of both half-maps,
// measures their agreement (FSC) and their noise/signal balance inside
// the mask, then folds a probability-weighted contribution of that
// band into the two real-space accumulators. The walk extends the
// shell list itself, stopping once the spectral cutoff is reached or
// the estimated probability of further signal drops too low.
package pass1

import (
	"context"
	"fmt"
	"math"

	"github.com/aylett-lab/sidesplitter/internal/kernels"
	"github.com/aylett-lab/sidesplitter/internal/parallel"
	"github.com/aylett-lab/sidesplitter/internal/shell"
	"github.com/aylett-lab/sidesplitter/volume"
)

// Result is the outcome of a complete Pass 1 walk.
type Result struct {
	Shells *shell.List
	Out1   *volume.Real
	Out2   *volume.Real
}

// maskedStats is the per-worker accumulator for the masked noise/power
// reduction.
type maskedStats struct {
	noise, power, count parallel.KahanSum
}

// Run walks shell.List starting at its head, extending it until
// maxres or a probability collapse stops the walk. f1, f2 are the
// forward-FFT'd half-maps (unmasked amplitudes); mask gates which
// voxels contribute noise/power statistics. engine performs the
// per-shell inverse FFTs; workers sets the concurrency for every
// kernel call.
func Run(ctx context.Context, workers int, engine interface {
	Inverse(*volume.Complex) (*volume.Real, error)
}, f1, f2 *volume.Complex, mask *volume.Real, maxres float64) (*Result, error) {
	if f1.N != f2.N {
		return nil, fmt.Errorf("pass1: half-map size mismatch: %d vs %d", f1.N, f2.N)
	}
	n := f1.N
	out1 := volume.NewReal(n)
	out2 := volume.NewReal(n)
	shells := shell.NewList()

	for node := shells.Head(); ; {
		band1, err := kernels.Band(ctx, workers, f1, node.Res, node.Stp)
		if err != nil {
			return nil, fmt.Errorf("pass1: band isolate half 1: %w", err)
		}
		band2, err := kernels.Band(ctx, workers, f2, node.Res, node.Stp)
		if err != nil {
			return nil, fmt.Errorf("pass1: band isolate half 2: %w", err)
		}

		fsc, err := kernels.FSC(ctx, workers, band1, band2)
		if err != nil {
			return nil, fmt.Errorf("pass1: fsc: %w", err)
		}
		node.FSC = fsc
		node.CRF = shell.CRFFromFSC(fsc)

		b1, err := engine.Inverse(band1)
		if err != nil {
			return nil, fmt.Errorf("pass1: inverse fft half 1: %w", err)
		}
		b2, err := engine.Inverse(band2)
		if err != nil {
			return nil, fmt.Errorf("pass1: inverse fft half 2: %w", err)
		}

		stats, err := parallel.Reduce(ctx, workers, len(b1.Data),
			func() maskedStats { return maskedStats{} },
			func(acc maskedStats, _ int, idx int) maskedStats {
				if mask.Data[idx] < 0.99 {
					return acc
				}
				diff := b1.Data[idx] - b2.Data[idx]
				sum := b1.Data[idx] + b2.Data[idx]
				acc.noise.Add(diff * diff)
				acc.power.Add(sum * sum)
				acc.count.Add(1)
				return acc
			},
			func(x, y maskedStats) maskedStats {
				x.noise.Combine(y.noise)
				x.power.Combine(y.power)
				x.count.Combine(y.count)
				return x
			},
		)
		if err != nil {
			return nil, fmt.Errorf("pass1: masked statistics: %w", err)
		}

		count := stats.count.Value()
		if count == 0 {
			return nil, fmt.Errorf("pass1: mask excludes every voxel")
		}
		noiseMean := stats.noise.Value() / count
		powerMean := stats.power.Value() / count
		var psnr float64
		if powerMean != 0 {
			psnr = math.Abs(1 - noiseMean/powerMean)
		}
		node.Pwr = math.Sqrt(powerMean)
		node.Max = psnr

		if node.Pwr == 0 {
			return nil, fmt.Errorf("pass1: shell at res=%.4f has zero power, cannot weight accumulation", node.Res)
		}
		weight := node.Stp / node.Pwr
		if err := parallel.For(ctx, workers, len(out1.Data), func(_ int, idx int) error {
			out1.Data[idx] += b1.Data[idx] * weight
			out2.Data[idx] += b2.Data[idx] * weight
			return nil
		}); err != nil {
			return nil, fmt.Errorf("pass1: weighted accumulation: %w", err)
		}

		if node.Res+node.Stp >= maxres || psnr <= 0.05 {
			break
		}
		node = shells.Extend(psnr)
	}

	return &Result{Shells: shells, Out1: out1, Out2: out2}, nil
}

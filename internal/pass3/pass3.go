// Package pass3 implements the re-normalisation walk: it
// revisits every shell Pass 1 built, in the same forward order, and
// folds the matching band of Pass 2's denoised Fourier data back into
// a pair of real-space accumulators weighted by each shell's stored
// Pass 1 power (stp/pwr). This inverts the scale-aware weighting Pass 1
// applied, so the final output is back on the original map's scale
// rather than Pass 1's probability-weighted one.
package pass3

import (
	"context"
	"fmt"

	"github.com/aylett-lab/sidesplitter/internal/kernels"
	"github.com/aylett-lab/sidesplitter/internal/parallel"
	"github.com/aylett-lab/sidesplitter/internal/shell"
	"github.com/aylett-lab/sidesplitter/volume"
)

// Result is the outcome of a complete Pass 3 walk.
type Result struct {
	Out1, Out2 *volume.Real
}

// Run walks shells from its head forward, band-isolating f1/f2 (the
// Fourier transform of Pass 2's output) per shell and re-accumulating
// weighted by each shell's Pass-1-recorded Stp/Pwr.
func Run(ctx context.Context, workers int, engine interface {
	Inverse(*volume.Complex) (*volume.Real, error)
}, f1, f2 *volume.Complex, shells *shell.List) (*Result, error) {
	n := f1.N
	out1 := volume.NewReal(n)
	out2 := volume.NewReal(n)

	for node := shells.Head(); node != nil; node = node.Next() {
		if node.Pwr == 0 {
			continue
		}
		band1, err := kernels.Band(ctx, workers, f1, node.Res, node.Stp)
		if err != nil {
			return nil, fmt.Errorf("pass3: band isolate half 1: %w", err)
		}
		band2, err := kernels.Band(ctx, workers, f2, node.Res, node.Stp)
		if err != nil {
			return nil, fmt.Errorf("pass3: band isolate half 2: %w", err)
		}
		b1, err := engine.Inverse(band1)
		if err != nil {
			return nil, fmt.Errorf("pass3: inverse fft half 1: %w", err)
		}
		b2, err := engine.Inverse(band2)
		if err != nil {
			return nil, fmt.Errorf("pass3: inverse fft half 2: %w", err)
		}
		weight := node.Stp / node.Pwr
		if err := parallel.For(ctx, workers, len(out1.Data), func(_ int, idx int) error {
			out1.Data[idx] += b1.Data[idx] * weight
			out2.Data[idx] += b2.Data[idx] * weight
			return nil
		}); err != nil {
			return nil, fmt.Errorf("pass3: weighted accumulation: %w", err)
		}
	}

	return &Result{Out1: out1, Out2: out2}, nil
}

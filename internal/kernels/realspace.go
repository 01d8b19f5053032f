package kernels

import (
	"context"
	"math"

	"github.com/aylett-lab/sidesplitter/internal/parallel"
	"github.com/aylett-lab/sidesplitter/volume"
)

// BuildMask synthesises a soft radial mask of side n and cutoff radius
// r (voxels), centred on the cube: mask(x,y,z) = 1/sqrt(1+(d2/r2)^8),
// d2 the squared distance from the cube centre n/2.
func BuildMask(ctx context.Context, workers, n int, r float64) (*volume.Real, error) {
	out := volume.NewReal(n)
	centre := float64(n) / 2.0
	rSq := r * r
	size := n * n * n
	err := parallel.For(ctx, workers, size, func(_ int, idx int) error {
		k := idx / (n * n)
		rem := idx % (n * n)
		j := rem / n
		i := rem % n
		dk := float64(k) - centre
		dj := float64(j) - centre
		di := float64(i) - centre
		d2 := dk*dk + dj*dj + di*di
		var m float64
		if rSq <= 0 {
			m = 0
		} else {
			m = 1.0 / math.Sqrt(1.0+math.Pow(d2/rSq, 8))
		}
		out.Data[idx] = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AddVolume adds in into out in place: out[v] += in[v].
func AddVolume(ctx context.Context, workers int, out, in *volume.Real) error {
	return parallel.For(ctx, workers, len(out.Data), func(_ int, idx int) error {
		out.Data[idx] += in.Data[idx]
		return nil
	})
}

// ApplyMask multiplies out by mask in place: out[v] *= mask[v].
func ApplyMask(ctx context.Context, workers int, out, mask *volume.Real) error {
	return parallel.For(ctx, workers, len(out.Data), func(_ int, idx int) error {
		out.Data[idx] *= mask.Data[idx]
		return nil
	})
}

// ZeroDC zeros the DC (zero-frequency) coefficient of c.
func ZeroDC(c *volume.Complex) {
	c.Data[c.Index(0, 0, 0)] = 0
}

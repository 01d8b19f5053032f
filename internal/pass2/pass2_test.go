package pass2

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aylett-lab/sidesplitter/internal/fft"
	"github.com/aylett-lab/sidesplitter/internal/shell"
	"github.com/aylett-lab/sidesplitter/volume"
)

func buildShells(n int, steps int) *shell.List {
	l := shell.NewList()
	for i := 0; i < steps; i++ {
		l.Extend(0.5)
	}
	return l
}

func TestRunAdmitsSignalAboveNoise(t *testing.T) {
	n := 8
	engine := fft.NewEngine()
	r := volume.NewReal(n)
	for i := range r.Data {
		r.Data[i] = math.Sin(float64(i)*0.3) + 2
	}
	c, err := engine.Forward(r)
	require.NoError(t, err)
	f1, f2 := c.Clone(), c.Clone()

	mask := volume.NewReal(n)
	for i := range mask.Data {
		mask.Data[i] = 1
	}

	shells := buildShells(n, 10)
	res, err := Run(context.Background(), 2, engine, f1, f2, mask, shells)
	require.NoError(t, err)
	assert.Equal(t, n*n*n, len(res.Out1.Data))
	assert.Equal(t, n*n*n, len(res.Out2.Data))
	assert.Greater(t, res.Recovery, 0.0)
	assert.LessOrEqual(t, res.Recovery, 1.0)
}

// TestRunIsMonotoneAdmission exercises the invariant that a voxel
// admitted at a coarser shell stays admitted once finer shells are
// added to the walk. buildShells(n, k) and buildShells(n, k+1) share an
// identical k-shell prefix (Extend is deterministic given the same
// parameter sequence), so the k+1 run processes exactly one extra,
// finer step (its tail) before replaying the same sequence of bands the
// k run sees; every voxel the shorter run admits must therefore still be
// admitted in the longer run.
func TestRunIsMonotoneAdmission(t *testing.T) {
	n := 8
	engine := fft.NewEngine()
	r := volume.NewReal(n)
	for i := range r.Data {
		r.Data[i] = math.Cos(float64(i) * 0.2)
	}
	c, err := engine.Forward(r)
	require.NoError(t, err)

	mask := volume.NewReal(n)
	for i := range mask.Data {
		mask.Data[i] = 1
	}

	shorter := buildShells(n, 6)
	longer := buildShells(n, 7)

	f1a, f2a := c.Clone(), c.Clone()
	shortRes, err := Run(context.Background(), 1, engine, f1a, f2a, mask, shorter)
	require.NoError(t, err)

	f1b, f2b := c.Clone(), c.Clone()
	longRes, err := Run(context.Background(), 1, engine, f1b, f2b, mask, longer)
	require.NoError(t, err)

	shortCount, longCount := 0, 0
	for i := range shortRes.Out1.Data {
		if shortRes.Out1.Data[i] != 0 {
			shortCount++
			assert.NotEqualf(t, 0.0, longRes.Out1.Data[i], "voxel %d admitted by shorter walk was dropped by longer walk", i)
		}
		if shortRes.Out2.Data[i] != 0 {
			assert.NotEqualf(t, 0.0, longRes.Out2.Data[i], "voxel %d admitted by shorter walk was dropped by longer walk", i)
		}
	}
	for i := range longRes.Out1.Data {
		if longRes.Out1.Data[i] != 0 {
			longCount++
		}
	}
	assert.GreaterOrEqual(t, longCount, shortCount)
}

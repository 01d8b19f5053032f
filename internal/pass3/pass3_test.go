package pass3

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

func TestRunSkipsShellsWithZeroPower(t *testing.T) {
	n := 8
	engine := fft.NewEngine()
	r := volume.NewReal(n)
	for i := range r.Data {
		r.Data[i] = math.Sin(float64(i) * 0.4)
	}
	c, err := engine.Forward(r)
	require.NoError(t, err)

	shells := shell.NewList()
	shells.Head().Pwr = 0
	for i := 0; i < 3; i++ {
		s := shells.Extend(0.5)
		s.Pwr = 1.0
	}

	res, err := Run(context.Background(), 2, engine, c.Clone(), c.Clone(), shells)
	require.NoError(t, err)
	assert.Equal(t, n*n*n, len(res.Out1.Data))
	// A zero-power head weighted by Stp/Pwr would put Inf or NaN into
	// the output; skipping it keeps every voxel finite.
	for _, v := range res.Out1.Data {
		assert.False(t, math.IsInf(v, 0) || math.IsNaN(v))
	}
}

func TestRunAccumulatesAcrossShells(t *testing.T) {
	n := 8
	engine := fft.NewEngine()
	r := volume.NewReal(n)
	for i := range r.Data {
		r.Data[i] = 1.0
	}
	c, err := engine.Forward(r)
	require.NoError(t, err)

	shells := shell.NewList()
	shells.Head().Pwr = 1.0
	s1 := shells.Extend(0.5)
	s1.Pwr = 1.0

	res, err := Run(context.Background(), 1, engine, c.Clone(), c.Clone(), shells)
	require.NoError(t, err)

	var sum float64
	for _, v := range res.Out1.Data {
		sum += v
	}
	assert.NotEqual(t, 0.0, sum)
}

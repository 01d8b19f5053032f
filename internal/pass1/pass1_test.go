package pass1

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aylett-lab/sidesplitter/internal/fft"
	"github.com/aylett-lab/sidesplitter/volume"
)

func identicalHalfMaps(t *testing.T, n int) (f1, f2 *volume.Complex, engine *fft.Engine) {
	t.Helper()
	engine = fft.NewEngine()
	r := volume.NewReal(n)
	for i := range r.Data {
		r.Data[i] = math.Sin(float64(i)*0.3) + 2
	}
	c, err := engine.Forward(r)
	require.NoError(t, err)
	return c.Clone(), c.Clone(), engine
}

func allOnesMask(n int) *volume.Real {
	m := volume.NewReal(n)
	for i := range m.Data {
		m.Data[i] = 1
	}
	return m
}

func TestRunIdenticalHalfMapsHaveHighFSC(t *testing.T) {
	n := 8
	f1, f2, engine := identicalHalfMaps(t, n)
	mask := allOnesMask(n)

	res, err := Run(context.Background(), 2, engine, f1, f2, mask, 0.45)
	require.NoError(t, err)
	require.NotNil(t, res.Out1)
	require.NotNil(t, res.Out2)
	assert.Equal(t, n*n*n, len(res.Out1.Data))
	assert.True(t, res.Shells.WellFormed())

	head := res.Shells.Head()
	assert.InDelta(t, 1.0, head.FSC, 1e-3)
	assert.InDelta(t, 1.0, head.CRF, 1e-3)
}

func TestRunStopsAtMaxres(t *testing.T) {
	n := 8
	f1, f2, engine := identicalHalfMaps(t, n)
	mask := allOnesMask(n)

	res, err := Run(context.Background(), 2, engine, f1, f2, mask, 0.05)
	require.NoError(t, err)
	last := res.Shells.Tail()
	assert.GreaterOrEqual(t, last.Res+last.Stp, 0.05)
}

func TestRunRejectsSizeMismatch(t *testing.T) {
	engine := fft.NewEngine()
	f1 := volume.NewComplex(8)
	f2 := volume.NewComplex(4)
	mask := allOnesMask(8)
	_, err := Run(context.Background(), 1, engine, f1, f2, mask, 0.45)
	require.Error(t, err)
}

package fft

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aylett-lab/sidesplitter/volume"
)

func TestForwardInverseRoundTrip(t *testing.T) {
	e := NewEngine()
	n := 8
	r := volume.NewReal(n)
	for i := range r.Data {
		r.Data[i] = math.Sin(float64(i))
	}
	c, err := e.Forward(r)
	require.NoError(t, err)
	assert.Equal(t, n, c.N)
	assert.Equal(t, n/2+1, c.K)

	back, err := e.Inverse(c)
	require.NoError(t, err)
	require.Equal(t, n, back.N)
	for i := range r.Data {
		assert.InDeltaf(t, r.Data[i], back.Data[i], 1e-6, "index %d", i)
	}
}

func TestForwardOfConstantVolumeIsAllDC(t *testing.T) {
	e := NewEngine()
	n := 4
	r := volume.NewReal(n)
	for i := range r.Data {
		r.Data[i] = 3.0
	}
	c, err := e.Forward(r)
	require.NoError(t, err)
	dc := c.Data[c.Index(0, 0, 0)]
	assert.InDelta(t, 3.0*float64(n*n*n), real(dc), 1e-6)
	assert.InDelta(t, 0, imag(dc), 1e-6)
	for k := 0; k < n; k++ {
		for j := 0; j < n; j++ {
			for i := 0; i < c.K; i++ {
				if k == 0 && j == 0 && i == 0 {
					continue
				}
				assert.InDeltaf(t, 0, real(c.Data[c.Index(k, j, i)]), 1e-6, "(%d,%d,%d)", k, j, i)
			}
		}
	}
}

func TestEngineCachesPlanPerSize(t *testing.T) {
	e := NewEngine()
	_, err := e.Forward(volume.NewReal(4))
	require.NoError(t, err)
	_, err = e.Forward(volume.NewReal(8))
	require.NoError(t, err)
	assert.Len(t, e.plans, 2)
}

func TestInverseRejectsMismatchedHalfWidth(t *testing.T) {
	e := NewEngine()
	c := volume.NewComplex(8)
	c.K = 3 // wrong, should be 5
	_, err := e.Inverse(c)
	require.Error(t, err)
}

func TestForwardRejectsNonPositiveSize(t *testing.T) {
	e := NewEngine()
	_, err := e.Forward(&volume.Real{N: 0, Data: nil})
	require.Error(t, err)
}

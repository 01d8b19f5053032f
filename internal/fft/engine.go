// Package fft builds the separable 3D real<->half-Hermitian-complex
// transform SIDESPLITTER needs out of gonum's 1D real and complex FFT
// primitives, the same way a separable rfftn is built from rfft+fft:
// a real-to-half-complex pass along the fastest axis, followed by two
// full complex-to-complex passes along the remaining axes.
package fft

import (
	"fmt"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/aylett-lab/sidesplitter/volume"
)

// plan holds the two 1D transform objects needed for one cube side,
// one real FFT for the fastest axis and one complex FFT reused for the
// other two axes (gonum's CmplxFFT is symmetric in length so a single
// instance serves both).
type plan struct {
	rfft *fourier.FFT
	cfft *fourier.CmplxFFT
}

// Engine caches one plan per cube side it has been asked to transform,
// the same way an MDCT implementation caches twiddle factors per frame
// size rather than recomputing them on every call.
type Engine struct {
	mu    sync.Mutex
	plans map[int]*plan
}

// NewEngine returns a ready-to-use Engine.
func NewEngine() *Engine {
	return &Engine{plans: make(map[int]*plan)}
}

func (e *Engine) planFor(n int) *plan {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p, ok := e.plans[n]; ok {
		return p
	}
	p := &plan{
		rfft: fourier.NewFFT(n),
		cfft: fourier.NewCmplxFFT(n),
	}
	e.plans[n] = p
	return p
}

// Forward computes the real-to-complex 3D DFT of r, returning a volume
// of shape N x N x (N/2+1). It does not modify r.
func (e *Engine) Forward(r *volume.Real) (*volume.Complex, error) {
	if err := volume.CheckCube(r.N); err != nil {
		return nil, fmt.Errorf("fft: forward: %w", err)
	}
	n := r.N
	p := e.planFor(n)
	out := volume.NewComplex(n)
	k := out.K

	// Pass 1: real FFT along the fastest (i) axis, row by row.
	row := make([]float64, n)
	crow := make([]complex128, k)
	for a := 0; a < n; a++ {
		for b := 0; b < n; b++ {
			base := a*n*n + b*n
			copy(row, r.Data[base:base+n])
			p.rfft.Coefficients(crow, row)
			obase := a*n*k + b*k
			copy(out.Data[obase:obase+k], crow)
		}
	}

	// Pass 2: complex FFT along the j axis, for every (k-axis a, i col c).
	col := make([]complex128, n)
	for a := 0; a < n; a++ {
		for c := 0; c < k; c++ {
			for b := 0; b < n; b++ {
				col[b] = out.Data[a*n*k+b*k+c]
			}
			p.cfft.Coefficients(col, col)
			for b := 0; b < n; b++ {
				out.Data[a*n*k+b*k+c] = col[b]
			}
		}
	}

	// Pass 3: complex FFT along the k (slowest) axis.
	plane := make([]complex128, n)
	for b := 0; b < n; b++ {
		for c := 0; c < k; c++ {
			for a := 0; a < n; a++ {
				plane[a] = out.Data[a*n*k+b*k+c]
			}
			p.cfft.Coefficients(plane, plane)
			for a := 0; a < n; a++ {
				out.Data[a*n*k+b*k+c] = plane[a]
			}
		}
	}
	return out, nil
}

// Inverse computes the complex-to-real inverse 3D DFT of c, a cube of
// side n (the real output side, c.K must equal n/2+1). Normalisation by
// the voxel count n^3 happens exactly once, here, so every caller
// upstream of Inverse works with un-normalised Fourier coefficients.
func (e *Engine) Inverse(c *volume.Complex) (*volume.Real, error) {
	n := c.N
	if err := volume.CheckCube(n); err != nil {
		return nil, fmt.Errorf("fft: inverse: %w", err)
	}
	if c.K != n/2+1 {
		return nil, fmt.Errorf("fft: inverse: half-spectrum width %d does not match cube side %d", c.K, n)
	}
	p := e.planFor(n)
	k := c.K
	work := c.Clone()

	// Inverse pass along the slowest (k) axis.
	plane := make([]complex128, n)
	for b := 0; b < n; b++ {
		for col := 0; col < k; col++ {
			for a := 0; a < n; a++ {
				plane[a] = work.Data[a*n*k+b*k+col]
			}
			p.cfft.Sequence(plane, plane)
			for a := 0; a < n; a++ {
				work.Data[a*n*k+b*k+col] = plane[a]
			}
		}
	}

	// Inverse pass along the j axis.
	colv := make([]complex128, n)
	for a := 0; a < n; a++ {
		for col := 0; col < k; col++ {
			for b := 0; b < n; b++ {
				colv[b] = work.Data[a*n*k+b*k+col]
			}
			p.cfft.Sequence(colv, colv)
			for b := 0; b < n; b++ {
				work.Data[a*n*k+b*k+col] = colv[b]
			}
		}
	}

	// Inverse real FFT along the fastest (i) axis, and normalise.
	out := volume.NewReal(n)
	row := make([]float64, n)
	crow := make([]complex128, k)
	norm := 1.0 / float64(n*n*n)
	for a := 0; a < n; a++ {
		for b := 0; b < n; b++ {
			base := a*n*k + b*k
			copy(crow, work.Data[base:base+k])
			p.rfft.Sequence(row, crow)
			obase := a*n*n + b*n
			for i := 0; i < n; i++ {
				out.Data[obase+i] = row[i] * norm
			}
		}
	}
	return out, nil
}

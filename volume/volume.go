// Package volume defines the two cube layouts SIDESPLITTER operates on:
// a real-valued voxel grid and the half-Hermitian complex lattice a
// real-to-complex 3D Fourier transform produces from it.
//
// Both are flat, contiguous buffers rather than [][][]float64 nestings,
// matching the layout a real MRC file (and a real FFT library) expects:
// allocate once, hand out borrowed slices, never reshape.
package volume

import "fmt"

// Real is a cubic real-valued volume of side N, laid out so that
// index (k,j,i) = k*N*N + j*N + i.
type Real struct {
	N    int
	Data []float64
}

// NewReal allocates a zero-filled cubic real volume of side n.
func NewReal(n int) *Real {
	return &Real{N: n, Data: make([]float64, n*n*n)}
}

// Index returns the flat offset of voxel (k,j,i).
func (r *Real) Index(k, j, i int) int {
	return k*r.N*r.N + j*r.N + i
}

// Clone returns an independent copy of r.
func (r *Real) Clone() *Real {
	out := &Real{N: r.N, Data: make([]float64, len(r.Data))}
	copy(out.Data, r.Data)
	return out
}

// Zero clears the volume in place.
func (r *Real) Zero() {
	for i := range r.Data {
		r.Data[i] = 0
	}
}

// Complex is the half-Hermitian result of a real-to-complex 3D DFT of a
// Real volume of side N: shape N x N x K, K = N/2+1. Index
// (k,j,i) = k*N*K + j*K + i.
type Complex struct {
	N    int
	K    int
	Data []complex128
}

// NewComplex allocates a zero-filled half-Hermitian complex volume for
// a real cube of side n.
func NewComplex(n int) *Complex {
	k := n/2 + 1
	return &Complex{N: n, K: k, Data: make([]complex128, n*n*k)}
}

// Index returns the flat offset of lattice point (k,j,i).
func (c *Complex) Index(k, j, i int) int {
	return k*c.N*c.K + j*c.K + i
}

// Clone returns an independent copy of c.
func (c *Complex) Clone() *Complex {
	out := &Complex{N: c.N, K: c.K, Data: make([]complex128, len(c.Data))}
	copy(out.Data, c.Data)
	return out
}

// Zero clears the volume in place.
func (c *Complex) Zero() {
	for i := range c.Data {
		c.Data[i] = 0
	}
}

// SameSize reports whether a and b are cubes of identical side.
func SameSize(a, b *Real) bool {
	return a.N == b.N
}

// FreqIndex applies the centred-wrap convention used throughout the
// Fourier kernels: index q in [0,n) maps to frequency q if q < n/2+1,
// else q-n.
func FreqIndex(q, n int) int {
	if q < n/2+1 {
		return q
	}
	return q - n
}

// CheckCube returns an error if n is not a positive cube side.
func CheckCube(n int) error {
	if n <= 0 {
		return fmt.Errorf("volume: invalid cube side %d", n)
	}
	return nil
}

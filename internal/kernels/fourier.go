// Package kernels implements the per-voxel and per-lattice-point
// numeric primitives both passes are built from: spherical Butterworth
// filtering, Fourier Shell Correlation, radial power-spectrum
// accumulation/re-application, and the matching real-space helpers
// (mask synthesis, accumulation, masking). Every kernel here runs its
// data-parallel loop through internal/parallel so the reduction order
// stays deterministic for a fixed worker count.
package kernels

import (
	"context"
	"math"
	"math/cmplx"

	"github.com/aylett-lab/sidesplitter/internal/parallel"
	"github.com/aylett-lab/sidesplitter/volume"
)

// radialFreqSquared returns the centred-wrap squared radial frequency
// (cycles/voxel)^2 at half-Hermitian lattice point (k,j,i) of a cube of
// side n.
func radialFreqSquared(n, k, j, i int) float64 {
	kf := float64(volume.FreqIndex(k, n))
	jf := float64(volume.FreqIndex(j, n))
	ifr := float64(i) // fastest axis index already runs 0..N/2, no wrap
	return (kf*kf + jf*jf + ifr*ifr) / float64(n*n)
}

// Lowpass returns a new complex volume equal to c with every
// coefficient scaled by sqrt(1/(1+(q2/h2)^8)), an order-8 Butterworth
// lowpass with cutoff h (cycles/voxel).
func Lowpass(ctx context.Context, workers int, c *volume.Complex, h float64) (*volume.Complex, error) {
	out := volume.NewComplex(c.N)
	hSq := h * h
	n, k := c.N, c.K
	size := n * n * k
	err := parallel.For(ctx, workers, size, func(_ int, idx int) error {
		ki := idx / (n * k)
		rem := idx % (n * k)
		ji := rem / k
		ii := rem % k
		q2 := radialFreqSquared(n, ki, ji, ii)
		var scale float64
		if hSq <= 0 {
			scale = 0
		} else {
			scale = math.Sqrt(1.0 / (1.0 + math.Pow(q2/hSq, 8)))
		}
		out.Data[idx] = c.Data[idx] * complex(scale, 0)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Bandpass returns lowpass(h) - lowpass(l) pointwise, an order-8
// Butterworth bandpass with low cutoff l and high cutoff h.
func Bandpass(ctx context.Context, workers int, c *volume.Complex, l, h float64) (*volume.Complex, error) {
	hi, err := Lowpass(ctx, workers, c, h)
	if err != nil {
		return nil, err
	}
	lo, err := Lowpass(ctx, workers, c, l)
	if err != nil {
		return nil, err
	}
	out := volume.NewComplex(c.N)
	err = parallel.For(ctx, workers, len(out.Data), func(_ int, i int) error {
		out.Data[i] = hi.Data[i] - lo.Data[i]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Band isolates a Fourier volume to the shell given by (res, stp): the
// lowpass filter when res==0 (the innermost shell has no lower
// boundary), else the bandpass filter from res to res+stp.
func Band(ctx context.Context, workers int, c *volume.Complex, res, stp float64) (*volume.Complex, error) {
	if res == 0 {
		return Lowpass(ctx, workers, c, res+stp)
	}
	return Bandpass(ctx, workers, c, res, res+stp)
}

// fscAccum is the per-worker partial FSC reduction: numerator and the
// two denominators, each an extended-precision running sum.
type fscAccum struct {
	num, den1, den2 parallel.KahanSum
}

// FSC computes the Fourier Shell Correlation between two half-Hermitian
// volumes of identical shape: num = sum(Re(a*conj(b))), den1 =
// sum(|a|^2), den2 = sum(|b|^2); returns num / sqrt(|den1*den2|).
func FSC(ctx context.Context, workers int, a, b *volume.Complex) (float64, error) {
	acc, err := parallel.Reduce(ctx, workers, len(a.Data),
		func() fscAccum { return fscAccum{} },
		func(acc fscAccum, _ int, idx int) fscAccum {
			av, bv := a.Data[idx], b.Data[idx]
			acc.num.Add(real(av * cmplx.Conj(bv)))
			acc.den1.Add(real(av)*real(av) + imag(av)*imag(av))
			acc.den2.Add(real(bv)*real(bv) + imag(bv)*imag(bv))
			return acc
		},
		func(x, y fscAccum) fscAccum {
			x.num.Combine(y.num)
			x.den1.Combine(y.den1)
			x.den2.Combine(y.den2)
			return x
		},
	)
	if err != nil {
		return 0, err
	}
	d := acc.den1.Value() * acc.den2.Value()
	denom := math.Sqrt(math.Abs(d))
	if denom == 0 {
		return 0, nil
	}
	return acc.num.Value() / denom, nil
}

// Spectrum holds the radial mean-amplitude profile of a pair of
// half-Hermitian volumes and the detected spectral cutoff.
type Spectrum struct {
	Spec1, Spec2 []float64 // mean radial amplitude, indexed by shell s
	MaxRes       float64   // cycles/voxel
	Cutoff       int       // shell index c
}

// RadialSpectrum bins lattice points of a and b by radius in
// Fourier-voxel units (two bins per voxel-radius, s = floor(2*r)),
// accumulates mean amplitude profiles, and detects the spectral cutoff
// shell per the two-condition rule (low joint amplitude, or collapsing
// sum/difference SNR).
func RadialSpectrum(ctx context.Context, workers int, a, b *volume.Complex) (*Spectrum, error) {
	n, k := a.N, a.K
	nbins := n

	type bins struct {
		amp1, amp2, sum, sub []float64
		count                []float64
	}
	zero := func() bins {
		return bins{
			amp1:  make([]float64, nbins),
			amp2:  make([]float64, nbins),
			sum:   make([]float64, nbins),
			sub:   make([]float64, nbins),
			count: make([]float64, nbins),
		}
	}
	size := n * n * k
	acc, err := parallel.Reduce(ctx, workers, size, zero,
		func(acc bins, _ int, idx int) bins {
			ki := idx / (n * k)
			rem := idx % (n * k)
			ji := rem / k
			ii := rem % k
			kf := float64(volume.FreqIndex(ki, n))
			jf := float64(volume.FreqIndex(ji, n))
			ifr := float64(ii)
			r := math.Sqrt(kf*kf + jf*jf + ifr*ifr)
			s := int(2.0 * r)
			if s >= nbins {
				return acc
			}
			av, bv := a.Data[idx], b.Data[idx]
			mag1 := cmplx.Abs(av)
			mag2 := cmplx.Abs(bv)
			sumC := av + bv
			subC := av - bv
			acc.amp1[s] += mag1
			acc.amp2[s] += mag2
			acc.count[s]++
			acc.sum[s] += real(sumC)*real(sumC) + imag(sumC)*imag(sumC)
			acc.sub[s] += real(subC)*real(subC) + imag(subC)*imag(subC)
			return acc
		},
		func(x, y bins) bins {
			for i := range x.amp1 {
				x.amp1[i] += y.amp1[i]
				x.amp2[i] += y.amp2[i]
				x.sum[i] += y.sum[i]
				x.sub[i] += y.sub[i]
				x.count[i] += y.count[i]
			}
			return x
		},
	)
	if err != nil {
		return nil, err
	}

	spec1 := make([]float64, nbins)
	spec2 := make([]float64, nbins)
	for s := 0; s < nbins; s++ {
		if acc.count[s] > 0 {
			spec1[s] = acc.amp1[s] / acc.count[s]
			spec2[s] = acc.amp2[s] / acc.count[s]
		}
	}

	cutoff := -1
	for s := 0; s < nbins; s++ {
		cond1 := spec1[s] > 0 && spec2[s] > 0 && spec1[s] < 0.1 && spec2[s] < 0.1
		cond2 := acc.sub[s] > 0 && math.Log2(acc.sum[s]/acc.sub[s]) < 0.25
		if cond1 || cond2 {
			cutoff = s
			break
		}
	}

	maxres := 0.45
	if cutoff >= 0 {
		maxres = float64(cutoff) / (2.0 * float64(n))
		for s := cutoff; s < nbins; s++ {
			spec1[s] = 0
			spec2[s] = 0
		}
	}

	return &Spectrum{Spec1: spec1, Spec2: spec2, MaxRes: maxres, Cutoff: cutoff}, nil
}

// currentRadialAmplitude computes the mean radial amplitude profile of
// c alone, using the same binning as RadialSpectrum.
func currentRadialAmplitude(ctx context.Context, workers int, c *volume.Complex) ([]float64, error) {
	n, k := c.N, c.K
	nbins := n
	type bins struct {
		amp   []float64
		count []float64
	}
	zero := func() bins { return bins{amp: make([]float64, nbins), count: make([]float64, nbins)} }
	size := n * n * k
	acc, err := parallel.Reduce(ctx, workers, size, zero,
		func(acc bins, _ int, idx int) bins {
			ki := idx / (n * k)
			rem := idx % (n * k)
			ji := rem / k
			ii := rem % k
			kf := float64(volume.FreqIndex(ki, n))
			jf := float64(volume.FreqIndex(ji, n))
			ifr := float64(ii)
			r := math.Sqrt(kf*kf + jf*jf + ifr*ifr)
			s := int(2.0 * r)
			if s >= nbins {
				return acc
			}
			v := c.Data[idx]
			acc.amp[s] += cmplx.Abs(v)
			acc.count[s]++
			return acc
		},
		func(x, y bins) bins {
			for i := range x.amp {
				x.amp[i] += y.amp[i]
				x.count[i] += y.count[i]
			}
			return x
		},
	)
	if err != nil {
		return nil, err
	}
	out := make([]float64, nbins)
	for s := 0; s < nbins; s++ {
		if acc.count[s] > 0 {
			out[s] = acc.amp[s] / acc.count[s]
		}
	}
	return out, nil
}

// ApplySpectrum rescales every lattice point of c so its shell's mean
// amplitude matches target, for shells below maxres; shells at or
// beyond maxres (and s>=N) are zeroed.
func ApplySpectrum(ctx context.Context, workers int, c *volume.Complex, target []float64, maxres float64) (*volume.Complex, error) {
	current, err := currentRadialAmplitude(ctx, workers, c)
	if err != nil {
		return nil, err
	}
	n, k := c.N, c.K
	nbins := n
	cutBin := int(maxres * 2.0 * float64(n))
	cor := make([]float64, nbins)
	for s := 0; s < nbins; s++ {
		if s < cutBin && current[s] != 0 {
			cor[s] = target[s] / current[s]
		}
	}
	out := volume.NewComplex(n)
	size := n * n * k
	err = parallel.For(ctx, workers, size, func(_ int, idx int) error {
		ki := idx / (n * k)
		rem := idx % (n * k)
		ji := rem / k
		ii := rem % k
		kf := float64(volume.FreqIndex(ki, n))
		jf := float64(volume.FreqIndex(ji, n))
		ifr := float64(ii)
		r := math.Sqrt(kf*kf + jf*jf + ifr*ifr)
		s := int(2.0 * r)
		if s >= n || s >= nbins {
			out.Data[idx] = 0
			return nil
		}
		out.Data[idx] = c.Data[idx] * complex(cor[s], 0)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Package shell implements the resolution shell list both passes walk:
// a doubly-linked chain of Fourier shells, each carrying the FSC,
// CRF, and recovered-power statistics computed for it, plus the step
// size used to reach the next one.
package shell

import "math"

// Shell is one resolution shell in the walk, linked to its neighbours.
type Shell struct {
	Res float64 // resolution-frequency index reached by this shell
	Stp float64 // step size from this shell to the next
	FSC float64 // Fourier shell correlation at Res
	CRF float64 // sqrt(|2*fsc/(1+fsc)|)
	Pwr float64 // sqrt of the band's masked mean power, set by pass 1
	Max float64 // psnr, set by pass 1

	prv *Shell
	nxt *Shell
}

// List is a doubly-linked resolution shell list, always starting with
// a sentinel head shell at Res=0.
type List struct {
	head *Shell
	tail *Shell
	n    int
}

// NewList returns a list containing only its head shell, Res=0,
// Stp=0.025 (the canonical starting step).
func NewList() *List {
	head := &Shell{Res: 0, Stp: 0.025}
	return &List{head: head, tail: head, n: 1}
}

// Head returns the sentinel first shell.
func (l *List) Head() *Shell { return l.head }

// Tail returns the most recently appended shell.
func (l *List) Tail() *Shell { return l.tail }

// Len reports the number of shells in the list, including the head.
func (l *List) Len() int { return l.n }

// Extend appends a new shell after the current tail, with
// Res = tail.Res + tail.Stp and Stp = p * Res / 64, clamped to be
// non-negative. p is the step-scaling parameter; Pass 1 supplies the
// tail shell's psnr.
func (l *List) Extend(p float64) *Shell {
	res := l.tail.Res + l.tail.Stp
	stp := p * res / 64.0
	if stp < 0 {
		stp = 0
	}
	s := &Shell{Res: res, Stp: stp, prv: l.tail}
	l.tail.nxt = s
	l.tail = s
	l.n++
	return s
}

// ExtendOverfit appends a shell using the alternative, tighter step
// formula the reference tool exposes for an overfitting-resistant
// finishing pass: Stp = 0.475 - (tail.Res + tail.Stp), floored at
// 0.0625. It is not used by the canonical two-pass pipeline, which
// always calls Extend, but remains available for callers that want to
// taper the walk's final shells more aggressively.
func (l *List) ExtendOverfit() *Shell {
	res := l.tail.Res + l.tail.Stp
	stp := 0.475 - res
	if stp < 0.0625 {
		stp = 0.0625
	}
	s := &Shell{Res: res, Stp: stp, prv: l.tail}
	l.tail.nxt = s
	l.tail = s
	l.n++
	return s
}

// Prev returns the shell preceding s, or nil if s is the head.
func (s *Shell) Prev() *Shell { return s.prv }

// Next returns the shell following s, or nil if s is the tail.
func (s *Shell) Next() *Shell { return s.nxt }

// CRFFromFSC computes sqrt(|2*fsc/(1+fsc)|), the value this package
// stores in Shell.CRF.
func CRFFromFSC(fsc float64) float64 {
	return math.Sqrt(math.Abs(2 * fsc / (1 + fsc)))
}

// ExtremeValueNoise returns the extreme-value estimate of the noise
// ceiling for n independent samples of standard deviation sigma:
// sigma * sqrt(2*ln(n)).
func ExtremeValueNoise(sigma, n float64) float64 {
	if n <= 1 {
		return sigma
	}
	return sigma * math.Sqrt(2*math.Log(n))
}

// WellFormed reports whether the list satisfies the walk's structural
// invariants: monotonically non-decreasing resolution, non-negative
// steps, and a correctly doubly-linked chain.
func (l *List) WellFormed() bool {
	prev := l.head
	if prev.Stp < 0 || prev.prv != nil {
		return false
	}
	count := 1
	for s := l.head.nxt; s != nil; s = s.nxt {
		if s.prv != prev {
			return false
		}
		if s.Res < prev.Res {
			return false
		}
		if s.Stp < 0 {
			return false
		}
		prev = s
		count++
	}
	return prev == l.tail && count == l.n
}

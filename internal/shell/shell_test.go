package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestNewListHeadDefaults(t *testing.T) {
	l := NewList()
	assert.Equal(t, 0.0, l.Head().Res)
	assert.Equal(t, 0.025, l.Head().Stp)
	assert.Equal(t, 1, l.Len())
	assert.True(t, l.WellFormed())
}

func TestExtendIsMonotoneAndWellFormed(t *testing.T) {
	l := NewList()
	for i := 0; i < 20; i++ {
		l.Extend(0.5)
	}
	assert.True(t, l.WellFormed())
	prev := l.Head()
	for s := l.Head().Next(); s != nil; s = s.Next() {
		assert.GreaterOrEqual(t, s.Res, prev.Res)
		assert.GreaterOrEqual(t, s.Stp, 0.0)
		assert.Same(t, prev, s.Prev())
		prev = s
	}
	assert.Same(t, prev, l.Tail())
}

func TestExtendClampsNegativeStep(t *testing.T) {
	l := NewList()
	s := l.Extend(-10)
	assert.GreaterOrEqual(t, s.Stp, 0.0)
}

func TestExtendOverfitFloorsStep(t *testing.T) {
	l := NewList()
	for i := 0; i < 5; i++ {
		l.Extend(0.5)
	}
	s := l.ExtendOverfit()
	assert.GreaterOrEqual(t, s.Stp, 0.0625)
}

func TestCRFFromFSC(t *testing.T) {
	assert.InDelta(t, 1.0, CRFFromFSC(1.0), 1e-9)
	assert.InDelta(t, 0.0, CRFFromFSC(0.0), 1e-9)
}

func TestExtremeValueNoiseMonotoneInN(t *testing.T) {
	small := ExtremeValueNoise(1.0, 10)
	large := ExtremeValueNoise(1.0, 10000)
	assert.Greater(t, large, small)
}

// For any sequence of step-scaling factors p (even adversarial ones
// like 0 or very large), the list built by repeated Extend calls stays
// well-formed: non-decreasing resolution, non-negative steps, correct
// links.
func TestListStaysWellFormedUnderArbitraryExtends(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		l := NewList()
		steps := rapid.IntRange(0, 50).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			p := rapid.Float64Range(-10, 10).Draw(rt, "p")
			l.Extend(p)
		}
		assert.True(t, l.WellFormed())
	})
}

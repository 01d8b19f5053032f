package parallel

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForVisitsEveryIndexExactlyOnce(t *testing.T) {
	size := 1000
	seen := make([]int, size)
	var mu sync.Mutex
	err := For(context.Background(), 7, size, func(_ int, i int) error {
		mu.Lock()
		seen[i]++
		mu.Unlock()
		return nil
	})
	require.NoError(t, err)
	for i, c := range seen {
		assert.Equalf(t, 1, c, "index %d visited %d times", i, c)
	}
}

func TestForPropagatesError(t *testing.T) {
	wantErr := errors.New("boom")
	err := For(context.Background(), 4, 100, func(_ int, i int) error {
		if i == 50 {
			return wantErr
		}
		return nil
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, wantErr))
}

func TestReduceSumIsDeterministicAcrossWorkerCounts(t *testing.T) {
	size := 2000
	sum := func(workers int) float64 {
		v, err := Reduce(context.Background(), workers, size,
			func() float64 { return 0 },
			func(acc float64, _ int, i int) float64 { return acc + float64(i) },
			func(a, b float64) float64 { return a + b },
		)
		require.NoError(t, err)
		return v
	}
	want := float64(size*(size-1)) / 2
	assert.Equal(t, want, sum(1))
	assert.Equal(t, want, sum(8))
}

func TestKahanSumAccumulatesAndCombines(t *testing.T) {
	var a, b KahanSum
	for i := 0; i < 1000; i++ {
		a.Add(0.1)
	}
	for i := 0; i < 500; i++ {
		b.Add(0.1)
	}
	a.Combine(b)
	assert.InDelta(t, 150.0, a.Value(), 1e-6)
}

func TestNumWorkersFallsBackToAtLeastOne(t *testing.T) {
	assert.GreaterOrEqual(t, NumWorkers(), 1)
}

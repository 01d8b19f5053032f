package sidesplitter

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aylett-lab/sidesplitter/mrc"
	"github.com/aylett-lab/sidesplitter/volume"
)

func writeSyntheticVolume(t *testing.T, dir, name string, n int, seed float64) string {
	t.Helper()
	data := volume.NewReal(n)
	for i := range data.Data {
		data.Data[i] = math.Sin(float64(i)*0.37+seed) + 2
	}
	h := &mrc.Header{
		NX: int32(n), NY: int32(n), NZ: int32(n),
		Mode: mrc.ModeFloat32,
		MX:   int32(n), MY: int32(n), MZ: int32(n),
		CellX: float32(n), CellY: float32(n), CellZ: float32(n),
		AlphaA: 90, BetaA: 90, GammaA: 90,
	}
	copy(h.MapString[:], "MAP ")
	path := filepath.Join(dir, name)
	require.NoError(t, mrc.Write(path, h, data))
	return path
}

func TestPipelineRunProducesDenoisedOutputs(t *testing.T) {
	dir := t.TempDir()
	v1 := writeSyntheticVolume(t, dir, "half1.mrc", 8, 0.0)
	v2 := writeSyntheticVolume(t, dir, "half2.mrc", 8, 0.01)

	cfg := Config{V1: v1, V2: v2, Spectrum: true}
	p, err := NewPipeline(cfg, nil)
	require.NoError(t, err)

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8*8*8, len(result.Half1.Data))
	assert.Equal(t, 8*8*8, len(result.Half2.Data))

	for _, v := range result.Half1.Data {
		assert.False(t, math.IsNaN(v))
	}
}

func TestPipelineRunRejectsMismatchedSizes(t *testing.T) {
	dir := t.TempDir()
	v1 := writeSyntheticVolume(t, dir, "half1.mrc", 8, 0.0)
	v2 := writeSyntheticVolume(t, dir, "half2.mrc", 4, 0.0)

	cfg := Config{V1: v1, V2: v2, Spectrum: true}
	p, err := NewPipeline(cfg, nil)
	require.NoError(t, err)

	_, err = p.Run(context.Background())
	require.Error(t, err)
}

func TestPipelineRunRejectsMissingHalfMap(t *testing.T) {
	_, err := NewPipeline(Config{V1: "only-one.mrc"}, nil)
	require.Error(t, err)
}

func TestConfigOutputPaths(t *testing.T) {
	c := Config{Out: "run1"}
	o1, o2 := c.OutputPaths()
	assert.Equal(t, "run1_halfmap1.mrc", o1)
	assert.Equal(t, "run1_halfmap2.mrc", o2)

	c2 := Config{}
	o1, o2 = c2.OutputPaths()
	assert.Equal(t, "halfmap1.mrc", o1)
	assert.Equal(t, "halfmap2.mrc", o2)
}

package mrc

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/aylett-lab/sidesplitter/volume"
)

// Volume is a decoded MRC file: its header (preserved for round-trip
// writing) and its cubic voxel data.
type Volume struct {
	Header *Header
	Data   *volume.Real
}

// Read decodes a cubic float32 MRC volume from path.
func Read(path string) (*Volume, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mrc: open %s: %w", path, err)
	}
	defer f.Close()
	return ReadFrom(bufio.NewReader(f))
}

// ReadFrom decodes a cubic float32 MRC volume from r.
func ReadFrom(r io.Reader) (*Volume, error) {
	h, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	n := h.N()
	data := volume.NewReal(n)
	raw := make([]byte, 4*len(data.Data))
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("mrc: read voxel data: %w", err)
	}
	for i := range data.Data {
		bits := binary.LittleEndian.Uint32(raw[4*i : 4*i+4])
		data.Data[i] = float64(math.Float32frombits(bits))
	}
	return &Volume{Header: h, Data: data}, nil
}

// Write recomputes NX/NY/NZ/MX/MY/MZ and the DMIN/DMAX/DMEAN/RMS
// statistics from data, preserves every other header field from
// template, and writes the result to path.
func Write(path string, template *Header, data *volume.Real) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("mrc: create %s: %w", path, err)
	}
	defer f.Close()
	bw := bufio.NewWriter(f)
	if err := WriteTo(bw, template, data); err != nil {
		return err
	}
	return bw.Flush()
}

// WriteTo writes a cubic float32 MRC volume to w, recomputing the
// derived header fields from data and preserving the rest of template.
func WriteTo(w io.Writer, template *Header, data *volume.Real) error {
	h := *template
	n := int32(data.N)
	h.NX, h.NY, h.NZ = n, n, n
	h.MX, h.MY, h.MZ = n, n, n

	dmin, dmax := math.Inf(1), math.Inf(-1)
	var sum, sumSq float64
	for _, v := range data.Data {
		if v < dmin {
			dmin = v
		}
		if v > dmax {
			dmax = v
		}
		sum += v
		sumSq += v * v
	}
	count := float64(len(data.Data))
	mean := sum / count
	rms := math.Sqrt(sumSq/count - mean*mean)
	if rms < 0 || math.IsNaN(rms) {
		rms = 0
	}
	h.DMin = float32(dmin)
	h.DMax = float32(dmax)
	h.DMean = float32(mean)
	h.RMS = float32(rms)

	if err := writeHeader(w, &h); err != nil {
		return err
	}
	raw := make([]byte, 4*len(data.Data))
	for i, v := range data.Data {
		binary.LittleEndian.PutUint32(raw[4*i:4*i+4], math.Float32bits(float32(v)))
	}
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("mrc: write voxel data: %w", err)
	}
	return nil
}

// CheckSameSize returns ErrSizeMismatch wrapped with context if a and
// b are not the same cube side.
func CheckSameSize(a, b *Volume) error {
	if a.Data.N != b.Data.N {
		return fmt.Errorf("%w: %d vs %d", ErrSizeMismatch, a.Data.N, b.Data.N)
	}
	return nil
}

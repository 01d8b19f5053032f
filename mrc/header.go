// Package mrc reads and writes the volumetric MRC file format: a fixed
// 1024-byte little-endian header followed by a dense voxel grid. The
// header codec here follows a fixed-layout, field-by-field
// encoding/binary approach, the same technique a binary container
// header written in Go typically uses.
package mrc

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

const (
	// HeaderSize is the fixed size, in bytes, of an MRC header.
	HeaderSize = 1024

	// ModeFloat32 is the only MODE value this package accepts.
	ModeFloat32 = 2

	labelBytes = 800
)

// Header is the full 1024-byte MRC header, decoded field by field.
// Fields this package does not interpret (extra, machine stamp,
// labels) are preserved verbatim across a read/write round trip.
type Header struct {
	NX, NY, NZ          int32
	Mode                int32
	NXStart, NYStart, NZStart int32
	MX, MY, MZ          int32
	CellX, CellY, CellZ float32
	AlphaA, BetaA, GammaA float32
	MapC, MapR, MapS    int32
	DMin, DMax, DMean   float32
	ISpg                int32
	NSymBt               int32
	Extra                [25]int32
	OriginX, OriginY, OriginZ int32
	MapString           [4]byte
	MachineStamp        [4]byte
	RMS                 float32
	NLabl               int32
	Labels              [labelBytes]byte
}

// N returns the cube side (NX), assuming a cube (callers must check
// Cube() first).
func (h *Header) N() int {
	return int(h.NX)
}

// Cube reports whether the header describes a cubic volume.
func (h *Header) Cube() bool {
	return h.NX == h.NY && h.NY == h.NZ && h.NX > 0
}

// Apix returns the pixel spacing in angstroms per voxel along X.
func (h *Header) Apix() float64 {
	if h.NX == 0 {
		return 0
	}
	return float64(h.CellX) / float64(h.NX)
}

func readHeader(r io.Reader) (*Header, error) {
	buf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("mrc: read header: %w", err)
	}
	h := &Header{}
	br := newByteReader(buf)
	h.NX = br.int32()
	h.NY = br.int32()
	h.NZ = br.int32()
	h.Mode = br.int32()
	h.NXStart = br.int32()
	h.NYStart = br.int32()
	h.NZStart = br.int32()
	h.MX = br.int32()
	h.MY = br.int32()
	h.MZ = br.int32()
	h.CellX = br.float32()
	h.CellY = br.float32()
	h.CellZ = br.float32()
	h.AlphaA = br.float32()
	h.BetaA = br.float32()
	h.GammaA = br.float32()
	h.MapC = br.int32()
	h.MapR = br.int32()
	h.MapS = br.int32()
	h.DMin = br.float32()
	h.DMax = br.float32()
	h.DMean = br.float32()
	h.ISpg = br.int32()
	h.NSymBt = br.int32()
	for i := range h.Extra {
		h.Extra[i] = br.int32()
	}
	h.OriginX = br.int32()
	h.OriginY = br.int32()
	h.OriginZ = br.int32()
	copy(h.MapString[:], br.bytes(4))
	copy(h.MachineStamp[:], br.bytes(4))
	h.RMS = br.float32()
	h.NLabl = br.int32()
	copy(h.Labels[:], br.bytes(labelBytes))
	if err := br.err; err != nil {
		return nil, fmt.Errorf("mrc: decode header: %w", err)
	}
	if h.Mode != ModeFloat32 {
		return nil, fmt.Errorf("%w: mode %d", ErrUnsupportedMode, h.Mode)
	}
	if !h.Cube() {
		return nil, fmt.Errorf("%w: %dx%dx%d", ErrNotCube, h.NX, h.NY, h.NZ)
	}
	return h, nil
}

func writeHeader(w io.Writer, h *Header) error {
	buf := make([]byte, HeaderSize)
	bw := newByteWriter(buf)
	bw.int32(h.NX)
	bw.int32(h.NY)
	bw.int32(h.NZ)
	bw.int32(h.Mode)
	bw.int32(h.NXStart)
	bw.int32(h.NYStart)
	bw.int32(h.NZStart)
	bw.int32(h.MX)
	bw.int32(h.MY)
	bw.int32(h.MZ)
	bw.float32(h.CellX)
	bw.float32(h.CellY)
	bw.float32(h.CellZ)
	bw.float32(h.AlphaA)
	bw.float32(h.BetaA)
	bw.float32(h.GammaA)
	bw.int32(h.MapC)
	bw.int32(h.MapR)
	bw.int32(h.MapS)
	bw.float32(h.DMin)
	bw.float32(h.DMax)
	bw.float32(h.DMean)
	bw.int32(h.ISpg)
	bw.int32(h.NSymBt)
	for _, e := range h.Extra {
		bw.int32(e)
	}
	bw.int32(h.OriginX)
	bw.int32(h.OriginY)
	bw.int32(h.OriginZ)
	bw.bytes(h.MapString[:])
	bw.bytes(h.MachineStamp[:])
	bw.float32(h.RMS)
	bw.int32(h.NLabl)
	bw.bytes(h.Labels[:])
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("mrc: write header: %w", err)
	}
	return nil
}

// byteReader sequentially decodes little-endian fields from a fixed
// buffer, latching the first error so callers can check once at the end
// instead of after every field.
type byteReader struct {
	buf []byte
	off int
	err error
}

func newByteReader(buf []byte) *byteReader { return &byteReader{buf: buf} }

func (r *byteReader) bytes(n int) []byte {
	if r.err != nil || r.off+n > len(r.buf) {
		if r.err == nil {
			r.err = fmt.Errorf("%w", ErrShortHeader)
		}
		return make([]byte, n)
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *byteReader) int32() int32 {
	return int32(binary.LittleEndian.Uint32(r.bytes(4)))
}

func (r *byteReader) float32() float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(r.bytes(4)))
}

type byteWriter struct {
	buf []byte
	off int
}

func newByteWriter(buf []byte) *byteWriter { return &byteWriter{buf: buf} }

func (w *byteWriter) bytes(b []byte) {
	copy(w.buf[w.off:], b)
	w.off += len(b)
}

func (w *byteWriter) int32(v int32) {
	binary.LittleEndian.PutUint32(w.buf[w.off:], uint32(v))
	w.off += 4
}

func (w *byteWriter) float32(v float32) {
	binary.LittleEndian.PutUint32(w.buf[w.off:], math.Float32bits(v))
	w.off += 4
}

package imaging

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/maax3v3/retile/internal/color"
	"github.com/maax3v3/retile/internal/raster"
)

// maxRawPixels caps the frame size a raw header may declare.
const maxRawPixels = 1 << 28

// rawChunkPixels bounds how many pixels are read per step.
const rawChunkPixels = 1 << 16

var (
	errRawHeader    = errors.New("invalid raw frame header")
	errRawTruncated = errors.New("raw frame shorter than its header")
)

// ReadRaw decodes a raw frame: little-endian uint32 width and height
// followed by width*height uint32 pixels (0x00RRGGBB), row-major.
func ReadRaw(r io.Reader) (*raster.Grid, error) {
	avail, known := remaining(r)
	br := bufio.NewReader(r)

	var hdr [2]uint32
	if err := binary.Read(br, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("reading raw header: %w", err)
	}
	w, h := int(hdr[0]), int(hdr[1])
	if w == 0 || h == 0 || uint64(hdr[0])*uint64(hdr[1]) > maxRawPixels {
		return nil, fmt.Errorf("%w: %dx%d", errRawHeader, w, h)
	}
	n := w * h
	if known && avail-8 < int64(n)*4 {
		return nil, fmt.Errorf("%w: %dx%d needs %d bytes, %d left", errRawTruncated, w, h, int64(n)*4, avail-8)
	}

	g := &raster.Grid{Width: w, Height: h, Pix: make([]color.RGB, 0, min(n, rawChunkPixels))}
	buf := make([]uint32, min(n, rawChunkPixels))
	for len(g.Pix) < n {
		chunk := buf[:min(n-len(g.Pix), len(buf))]
		if err := binary.Read(br, binary.LittleEndian, chunk); err != nil {
			return nil, fmt.Errorf("reading raw pixels: %w", err)
		}
		for _, p := range chunk {
			g.Pix = append(g.Pix, color.RGB(p&0xFFFFFF))
		}
	}
	return g, nil
}

// remaining reports how many bytes r still holds, when that is cheap to know.
func remaining(r io.Reader) (int64, bool) {
	switch r := r.(type) {
	case interface{ Len() int }:
		return int64(r.Len()), true
	case *os.File:
		st, err := r.Stat()
		if err != nil || !st.Mode().IsRegular() {
			return 0, false
		}
		off, err := r.Seek(0, io.SeekCurrent)
		if err != nil {
			return 0, false
		}
		return st.Size() - off, true
	}
	return 0, false
}

// WriteRaw encodes g in the raw frame layout read by ReadRaw.
func WriteRaw(w io.Writer, g *raster.Grid) error {
	bw := bufio.NewWriter(w)

	hdr := [2]uint32{uint32(g.Width), uint32(g.Height)}
	if err := binary.Write(bw, binary.LittleEndian, hdr); err != nil {
		return fmt.Errorf("writing raw header: %w", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, g.Pix); err != nil {
		return fmt.Errorf("writing raw pixels: %w", err)
	}
	return bw.Flush()
}

// ReadRawZstd decodes a zstd-compressed raw frame.
func ReadRawZstd(r io.Reader) (*raster.Grid, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening zstd stream: %w", err)
	}
	defer dec.Close()
	return ReadRaw(dec)
}

// WriteRawZstd encodes g as a zstd-compressed raw frame.
func WriteRawZstd(w io.Writer, g *raster.Grid) error {
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("opening zstd stream: %w", err)
	}
	if err := WriteRaw(enc, g); err != nil {
		enc.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("closing zstd stream: %w", err)
	}
	return nil
}

// Package block samples rectangular pixel blocks under one of six fixed
// geometric orientations and flattens them into feature descriptors.
package block

import (
	"fmt"

	"github.com/maax3v3/retile/internal/color"
	"github.com/maax3v3/retile/internal/raster"
)

// Orientation is a geometric remapping applied while sampling a block.
type Orientation int

// The six supported orientations.
const (
	Identity      Orientation = iota // (x+i, y+j)
	Rotate180                        // (x+w-i-1, y+h-j-1)
	Transpose                        // (x+j, y+i)
	AntiTranspose                    // (x+h-j-1, y+w-i-1)
	FlipVertical                     // (x+i, y+h-j-1)
	FlipHorizontal                   // (x+h-i-1, y+j)
)

// MaxOrientations is the number of distinct orientations.
const MaxOrientations = 6

var orientationNames = [MaxOrientations]string{
	"identity", "rotate180", "transpose", "antitranspose", "flipv", "fliph",
}

func (o Orientation) String() string {
	if o < 0 || o >= MaxOrientations {
		return fmt.Sprintf("Orientation(%d)", int(o))
	}
	return orientationNames[o]
}

// Offset maps the local offset (i, j) of a w×h block to the offset it is
// read from under o.
func (o Orientation) Offset(i, j, w, h int) (dx, dy int) {
	switch o {
	case Rotate180:
		return w - i - 1, h - j - 1
	case Transpose:
		return j, i
	case AntiTranspose:
		return h - j - 1, w - i - 1
	case FlipVertical:
		return i, h - j - 1
	case FlipHorizontal:
		return h - i - 1, j
	}
	return i, j
}

// Sample is the outcome of reading one block.
type Sample struct {
	Features []float64
	Bucket   []color.RGB // nil unless requested
}

// Read samples the w×h block at (x, y) under o, translating each pixel with
// scheme. Local offsets are visited row-major (j outer, i inner) so equal
// orientation and scheme always yield the same layout. When withBucket is
// set the raw colors are recorded in the same order.
//
// The second result is false when any sampled coordinate falls outside g;
// the partial sample must then be discarded.
func Read(g *raster.Grid, x, y, w, h int, o Orientation, scheme color.Scheme, withBucket bool) (Sample, bool) {
	s := Sample{Features: make([]float64, 0, w*h*scheme.Channels())}
	if withBucket {
		s.Bucket = make([]color.RGB, 0, w*h)
	}

	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			dx, dy := o.Offset(i, j, w, h)
			c, ok := g.At(x+dx, y+dy)
			if !ok {
				return Sample{}, false
			}
			if withBucket {
				s.Bucket = append(s.Bucket, c)
			}
			s.Features = scheme.Translate(s.Features, c)
		}
	}
	return s, true
}

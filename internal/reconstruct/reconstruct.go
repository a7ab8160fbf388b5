package reconstruct

import (
	"fmt"

	"github.com/maax3v3/retile/internal/color"
	"github.com/maax3v3/retile/internal/dictionary"
	"github.com/maax3v3/retile/internal/raster"
)

// Assemble produces a w×h grid where each block is filled with the bucket
// of its winning prototype. results[i] is the prototype index for
// blocks[i]. Bucket entry n lands at local offset (n % edge, n / edge).
func Assemble(w, h int, blocks []raster.Block, results []int, d *dictionary.Dictionary) (*raster.Grid, error) {
	if len(results) != len(blocks) {
		return nil, fmt.Errorf("got %d results for %d blocks", len(results), len(blocks))
	}

	out := raster.New(w, h)
	for i, b := range blocks {
		idx := results[i]
		if idx < 0 || idx >= d.Len() {
			return nil, fmt.Errorf("block (%d,%d): prototype %d out of range [0,%d)", b.X, b.Y, idx, d.Len())
		}
		if b.X+b.Edge > w || b.Y+b.Edge > h {
			return nil, fmt.Errorf("block (%d,%d) does not fit %dx%d", b.X, b.Y, w, h)
		}
		bucket := d.Prototypes[idx].Bucket
		if len(bucket) != b.Edge*b.Edge {
			return nil, fmt.Errorf("block (%d,%d): bucket holds %d pixels, want %d", b.X, b.Y, len(bucket), b.Edge*b.Edge)
		}
		for j := 0; j < b.Edge; j++ {
			row := bucket[j*b.Edge : (j+1)*b.Edge]
			copy(out.Pix[(b.Y+j)*w+b.X:], row)
		}
	}
	return out, nil
}

// Blend substitutes the luma of every reconstructed pixel onto the
// tone-remapped color of the original pixel at the same position. out is
// modified in place; original must be at least as large as out.
func Blend(out, original *raster.Grid) error {
	if original.Width < out.Width || original.Height < out.Height {
		return fmt.Errorf("original %dx%d is smaller than output %dx%d",
			original.Width, original.Height, out.Width, out.Height)
	}

	raster.ParallelRows(out.Height, func(sy, ey int) {
		for y := sy; y < ey; y++ {
			for x := 0; x < out.Width; x++ {
				o := original.Pix[y*original.Width+x].Remap()
				i := y*out.Width + x
				out.Pix[i] = color.MixLuma(out.Pix[i], o)
			}
		}
	})
	return nil
}

package match

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/maax3v3/retile/internal/block"
	"github.com/maax3v3/retile/internal/dictionary"
	"github.com/maax3v3/retile/internal/raster"
)

// ErrOutOfRange is returned when a target block does not fit the image.
var ErrOutOfRange = errors.New("block out of range")

// Cosine returns dot(a,b) / sqrt(dot(a,a)·dot(b,b)). The result is NaN
// when either vector has zero magnitude. a and b must have equal length.
func Cosine(a, b []float64) float64 {
	ab := floats.Dot(a, b)
	aa := floats.Dot(a, a)
	bb := floats.Dot(b, b)
	return ab / math.Sqrt(aa*bb)
}

// Result is the outcome of one dictionary search.
type Result struct {
	Index      int     // winning prototype, 0 when nothing compared
	Similarity float64 // NaN when every comparison was NaN
}

// Found reports whether any prototype produced a finite similarity.
func (r Result) Found() bool {
	return !math.IsNaN(r.Similarity)
}

// Best scans the dictionary for the prototype most similar to query.
// A later prototype replaces the current best only when strictly more
// similar, so ties keep the earliest index. NaN similarities are skipped.
func Best(query []float64, d *dictionary.Dictionary) Result {
	res := Result{Similarity: math.NaN()}
	best := -2.0
	for i, p := range d.Prototypes {
		sim := Cosine(query, p.Features)
		if math.IsNaN(sim) {
			continue
		}
		if !res.Found() || sim > best {
			best = sim
			res = Result{Index: i, Similarity: sim}
		}
	}
	return res
}

// Match finds the best prototype for the target block b, read under the
// identity orientation, and records a hit on the winner when its
// similarity is above -1.
func Match(target *raster.Grid, b raster.Block, d *dictionary.Dictionary) (Result, error) {
	s, ok := block.Read(target, b.X, b.Y, b.Edge, b.Edge, block.Identity, d.Config.Scheme, false)
	if !ok {
		return Result{}, fmt.Errorf("%w: %dx%d at (%d,%d) in %dx%d",
			ErrOutOfRange, b.Edge, b.Edge, b.X, b.Y, target.Width, target.Height)
	}

	res := Best(s.Features, d)
	if res.Found() && res.Similarity > -1 {
		d.Hit(res.Index)
	}
	return res, nil
}

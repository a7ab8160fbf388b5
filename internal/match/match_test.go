package match

import (
	"errors"
	"math"
	"testing"

	"github.com/maax3v3/retile/internal/color"
	"github.com/maax3v3/retile/internal/dictionary"
	"github.com/maax3v3/retile/internal/raster"
)

func solid(w, h int, c color.RGB) *raster.Grid {
	g := raster.New(w, h)
	for i := range g.Pix {
		g.Pix[i] = c
	}
	return g
}

func handBuilt(scheme color.Scheme, features ...[]float64) *dictionary.Dictionary {
	d := &dictionary.Dictionary{Config: dictionary.Config{Edge: 1, Orientations: 1, Scheme: scheme}}
	for _, f := range features {
		d.Prototypes = append(d.Prototypes, &dictionary.Prototype{Features: f})
	}
	return d
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 1},
		{"scaled", []float64{1, 2, 3}, []float64{2, 4, 6}, 1},
		{"opposite", []float64{1, 1}, []float64{-1, -1}, -1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Cosine(tt.a, tt.b); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCosine_ZeroVectorIsNaN(t *testing.T) {
	if got := Cosine([]float64{0, 0}, []float64{1, 2}); !math.IsNaN(got) {
		t.Errorf("got %v, want NaN", got)
	}
	if got := Cosine([]float64{0, 0}, []float64{0, 0}); !math.IsNaN(got) {
		t.Errorf("got %v, want NaN", got)
	}
}

func TestCosine_Symmetric(t *testing.T) {
	vectors := [][]float64{
		{1, 2, 3, 4},
		{-3, 0.5, 2, 9},
		{0.1, 0.1, 0.1, 0.2},
		{100, -50, 25, 0},
	}
	for i, a := range vectors {
		for j, b := range vectors {
			if Cosine(a, b) != Cosine(b, a) {
				t.Errorf("sim(%d,%d) != sim(%d,%d)", i, j, j, i)
			}
		}
	}
}

func TestBest_TieKeepsEarliest(t *testing.T) {
	d := handBuilt(color.RGB3, []float64{0, 1, 0}, []float64{1, 1, 1}, []float64{2, 2, 2})
	res := Best([]float64{3, 3, 3}, d)
	if res.Index != 1 {
		t.Errorf("Index = %d, want 1", res.Index)
	}
}

func TestBest_SkipsNaN(t *testing.T) {
	d := handBuilt(color.RGB3, []float64{0, 0, 0}, []float64{-1, -1, -1}, []float64{1, 0, 0})
	res := Best([]float64{1, 1, 1}, d)
	if res.Index != 2 {
		t.Errorf("Index = %d, want 2", res.Index)
	}
	if !res.Found() {
		t.Error("expected a finite similarity")
	}
}

func TestBest_NegativeFirstStillSelected(t *testing.T) {
	d := handBuilt(color.RGB3, []float64{0, 0, 0}, []float64{-1, -1, -1})
	res := Best([]float64{1, 1, 1}, d)
	if res.Index != 1 || math.Abs(res.Similarity+1) > 1e-12 {
		t.Errorf("got %+v, want index 1 with similarity -1", res)
	}
}

func TestBest_AllNaN(t *testing.T) {
	d := handBuilt(color.RGB3, []float64{1, 2, 3}, []float64{4, 5, 6})
	res := Best([]float64{0, 0, 0}, d)
	if res.Index != 0 || res.Found() {
		t.Errorf("got %+v, want index 0 without a finite similarity", res)
	}
}

func TestMatch_PerfectRed(t *testing.T) {
	palette := solid(32, 32, 0xFF0000)
	d, err := dictionary.Build(palette, dictionary.Config{Edge: 32, Orientations: 1, Scheme: color.RGB3})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	target := solid(32, 32, 0xFF0000)
	res, err := Match(target, raster.Block{X: 0, Y: 0, Edge: 32}, d)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if res.Index != 0 || math.Abs(res.Similarity-1) > 1e-12 {
		t.Errorf("got %+v, want index 0 with similarity 1", res)
	}
	if hits := d.Prototypes[0].Hits(); hits != 1 {
		t.Errorf("hits = %d, want 1", hits)
	}
}

func TestMatch_ZeroTargetFallsBack(t *testing.T) {
	d, err := dictionary.Build(solid(32, 32, 0x336699), dictionary.Config{Edge: 32, Orientations: 1, Scheme: color.RGB3})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	res, err := Match(solid(32, 32, 0x000000), raster.Block{X: 0, Y: 0, Edge: 32}, d)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if res.Index != 0 {
		t.Errorf("Index = %d, want fallback 0", res.Index)
	}
	if res.Found() {
		t.Errorf("Similarity = %v, want NaN", res.Similarity)
	}
	if hits := d.Prototypes[0].Hits(); hits != 0 {
		t.Errorf("hits = %d, want 0", hits)
	}
}

func TestMatch_NoHitAtMinusOne(t *testing.T) {
	d := handBuilt(color.RGB3, []float64{-1, -1, -1})
	res, err := Match(solid(1, 1, 0x010101), raster.Block{Edge: 1}, d)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if res.Index != 0 || res.Similarity != -1 {
		t.Fatalf("got %+v, want index 0 at -1", res)
	}
	if hits := d.Prototypes[0].Hits(); hits != 0 {
		t.Errorf("hits = %d, want 0", hits)
	}

	d = handBuilt(color.RGB3, []float64{-1, -1, -2})
	if _, err := Match(solid(1, 1, 0x010101), raster.Block{Edge: 1}, d); err != nil {
		t.Fatalf("Match: %v", err)
	}
	if hits := d.Prototypes[0].Hits(); hits != 1 {
		t.Errorf("hits = %d, want 1", hits)
	}
}

func TestMatch_Idempotent(t *testing.T) {
	palette := raster.New(16, 16)
	for i := range palette.Pix {
		palette.Pix[i] = color.RGB(uint32(i) * 0x030507 & 0xFFFFFF)
	}
	d, err := dictionary.Build(palette, dictionary.Config{Edge: 4, Orientations: 6, Scheme: color.RGB6})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	target := raster.New(4, 4)
	for i := range target.Pix {
		target.Pix[i] = color.RGB(uint32(i) * 0x0a0b0c & 0xFFFFFF)
	}
	first, err := Match(target, raster.Block{Edge: 4}, d)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := Match(target, raster.Block{Edge: 4}, d)
		if err != nil {
			t.Fatalf("Match: %v", err)
		}
		if again.Index != first.Index {
			t.Fatalf("call %d: index %d, want %d", i, again.Index, first.Index)
		}
	}
	if hits := d.Prototypes[first.Index].Hits(); hits != 6 {
		t.Errorf("hits = %d, want 6", hits)
	}
}

func TestMatch_OutOfRange(t *testing.T) {
	d := handBuilt(color.RGB3, []float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1})
	_, err := Match(solid(1, 1, 0x010101), raster.Block{Edge: 2}, d)
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

package reconstruct

import (
	"testing"

	"github.com/maax3v3/retile/internal/block"
	"github.com/maax3v3/retile/internal/color"
	"github.com/maax3v3/retile/internal/dictionary"
	"github.com/maax3v3/retile/internal/raster"
)

func buildDict(t *testing.T, palette *raster.Grid, edge, orientations int) *dictionary.Dictionary {
	t.Helper()
	d, err := dictionary.Build(palette, dictionary.Config{Edge: edge, Orientations: orientations, Scheme: color.RGB3})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return d
}

func numbered(w, h int) *raster.Grid {
	g := raster.New(w, h)
	for i := range g.Pix {
		g.Pix[i] = color.RGB(i + 1)
	}
	return g
}

func TestAssemble_CopiesBuckets(t *testing.T) {
	palette := numbered(4, 2) // two 2x2 blocks
	d := buildDict(t, palette, 2, 1)

	target := raster.New(4, 2)
	blocks := target.Blocks(2)
	out, err := Assemble(4, 2, blocks, []int{1, 0}, d)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	// swapped halves of the palette
	want := []color.RGB{3, 4, 1, 2, 7, 8, 5, 6}
	for i := range want {
		if out.Pix[i] != want[i] {
			t.Errorf("pix[%d] = %d, want %d", i, out.Pix[i], want[i])
		}
	}
}

func TestAssemble_TransformedWinner(t *testing.T) {
	palette := numbered(2, 2)
	d := buildDict(t, palette, 2, 2)
	if d.Prototypes[1].Orientation != block.Rotate180 {
		t.Fatalf("prototype 1 orientation = %v", d.Prototypes[1].Orientation)
	}

	out, err := Assemble(2, 2, raster.New(2, 2).Blocks(2), []int{1}, d)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	want := []color.RGB{4, 3, 2, 1}
	for i := range want {
		if out.Pix[i] != want[i] {
			t.Errorf("pix[%d] = %d, want %d", i, out.Pix[i], want[i])
		}
	}
}

func TestAssemble_Errors(t *testing.T) {
	d := buildDict(t, numbered(2, 2), 2, 1)
	blocks := raster.New(2, 2).Blocks(2)

	if _, err := Assemble(2, 2, blocks, nil, d); err == nil {
		t.Error("expected error for missing results")
	}
	if _, err := Assemble(2, 2, blocks, []int{3}, d); err == nil {
		t.Error("expected error for out of range prototype")
	}
	if _, err := Assemble(1, 1, blocks, []int{0}, d); err == nil {
		t.Error("expected error for block outside the output")
	}
}

func TestBlend_Golden(t *testing.T) {
	tests := []struct {
		name     string
		recon    color.RGB
		original color.RGB
		want     color.RGB
	}{
		// red stays red after the tone curve; R overflows and clamps
		{"gray over red", color.Pack(128, 128, 128), color.Pack(255, 0, 0), color.Pack(255, 68, 51)},
		{"gray over blue", color.Pack(128, 128, 128), color.Pack(0, 0, 255), color.Pack(98, 98, 255)},
		// original remaps to (6,127,189)
		{"orange over teal", color.Pack(200, 100, 50), color.Pack(40, 180, 220), color.Pack(32, 153, 215)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := raster.New(2, 1)
			out.Pix[0], out.Pix[1] = tt.recon, tt.recon
			original := raster.New(2, 1)
			original.Pix[0], original.Pix[1] = tt.original, tt.original

			if err := Blend(out, original); err != nil {
				t.Fatalf("Blend: %v", err)
			}
			for i, c := range out.Pix {
				if c != tt.want {
					t.Errorf("pixel %d = %#06x, want %#06x", i, uint32(c), uint32(tt.want))
				}
			}
		})
	}
}

func TestBlend_StaysWithin24Bits(t *testing.T) {
	original := raster.New(16, 16)
	out := raster.New(16, 16)
	for i := range original.Pix {
		original.Pix[i] = color.RGB(uint32(i) * 0x0F1E2D & 0xFFFFFF)
		out.Pix[i] = color.RGB(uint32(i) * 0x2D1E0F & 0xFFFFFF)
	}

	if err := Blend(out, original); err != nil {
		t.Fatalf("Blend: %v", err)
	}
	for i, c := range out.Pix {
		if c > 0xFFFFFF {
			t.Fatalf("pixel %d = %#x overflows 24 bits", i, uint32(c))
		}
	}
}

func TestBlend_GrayOnGray(t *testing.T) {
	original := raster.New(1, 1)
	original.Pix[0] = color.Pack(255, 255, 255) // remaps to white
	out := raster.New(1, 1)
	out.Pix[0] = color.Pack(0, 0, 0)

	if err := Blend(out, original); err != nil {
		t.Fatalf("Blend: %v", err)
	}
	if out.Pix[0] != 0 {
		t.Errorf("got %#06x, want black (luma of the reconstruction)", uint32(out.Pix[0]))
	}
}

func TestBlend_LargerOriginal(t *testing.T) {
	original := raster.New(5, 5)
	out := raster.New(4, 4)
	if err := Blend(out, original); err != nil {
		t.Fatalf("Blend: %v", err)
	}
	if err := Blend(raster.New(6, 6), original); err == nil {
		t.Error("expected error when original is smaller than output")
	}
}

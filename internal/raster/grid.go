package raster

import (
	"image"
	"runtime"
	"sync"

	"github.com/maax3v3/retile/internal/color"
)

// Grid is a width×height image of packed 24-bit colors.
type Grid struct {
	Width, Height int
	Pix           []color.RGB // row-major: index = y*Width + x
}

// New allocates a black grid.
func New(w, h int) *Grid {
	return &Grid{Width: w, Height: h, Pix: make([]color.RGB, w*h)}
}

// FromImage copies img into a Grid, keeping the straight color of every
// pixel and dropping alpha. The result is anchored at (0,0) whatever img's
// bounds are.
func FromImage(img image.Image) *Grid {
	bounds := img.Bounds()
	g := New(bounds.Dx(), bounds.Dy())

	// Fast paths for the layouts the decoders and Grid.Image produce.
	switch src := img.(type) {
	case *image.RGBA:
		ParallelRows(g.Height, func(sy, ey int) {
			for y := sy; y < ey; y++ {
				off := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
				for x := 0; x < g.Width; x++ {
					i := off + x*4
					if src.Pix[i+3] == 0xFF {
						g.Pix[y*g.Width+x] = color.Pack(src.Pix[i], src.Pix[i+1], src.Pix[i+2])
						continue
					}
					// premultiplied, undo it
					g.Pix[y*g.Width+x] = color.FromStdColor(src.RGBAAt(bounds.Min.X+x, bounds.Min.Y+y))
				}
			}
		})
		return g
	case *image.NRGBA:
		ParallelRows(g.Height, func(sy, ey int) {
			for y := sy; y < ey; y++ {
				off := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
				for x := 0; x < g.Width; x++ {
					i := off + x*4
					g.Pix[y*g.Width+x] = color.Pack(src.Pix[i], src.Pix[i+1], src.Pix[i+2])
				}
			}
		})
		return g
	}

	ParallelRows(g.Height, func(sy, ey int) {
		for y := sy; y < ey; y++ {
			for x := 0; x < g.Width; x++ {
				g.Pix[y*g.Width+x] = color.FromStdColor(img.At(bounds.Min.X+x, bounds.Min.Y+y))
			}
		}
	})
	return g
}

// At returns the color at (x, y) and whether the point lies inside the grid.
func (g *Grid) At(x, y int) (color.RGB, bool) {
	if x < 0 || y < 0 || x >= g.Width || y >= g.Height {
		return 0, false
	}
	return g.Pix[y*g.Width+x], true
}

// Set writes c at (x, y). Points outside the grid are ignored.
func (g *Grid) Set(x, y int, c color.RGB) {
	if x < 0 || y < 0 || x >= g.Width || y >= g.Height {
		return
	}
	g.Pix[y*g.Width+x] = c
}

// Image converts the grid into an opaque *image.RGBA.
func (g *Grid) Image() *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, g.Width, g.Height))
	ParallelRows(g.Height, func(sy, ey int) {
		for y := sy; y < ey; y++ {
			for x := 0; x < g.Width; x++ {
				c := g.Pix[y*g.Width+x]
				i := out.PixOffset(x, y)
				out.Pix[i+0] = c.R()
				out.Pix[i+1] = c.G()
				out.Pix[i+2] = c.B()
				out.Pix[i+3] = 255
			}
		}
	})
	return out
}

// ParallelRows runs fn across row bands using one goroutine per CPU.
func ParallelRows(h int, fn func(startY, endY int)) {
	numWorkers := runtime.GOMAXPROCS(0)
	rowsPerWorker := (h + numWorkers - 1) / numWorkers
	var wg sync.WaitGroup
	for worker := 0; worker < numWorkers; worker++ {
		startY := worker * rowsPerWorker
		endY := startY + rowsPerWorker
		if endY > h {
			endY = h
		}
		if startY >= h {
			break
		}
		wg.Add(1)
		go func(sy, ey int) {
			defer wg.Done()
			fn(sy, ey)
		}(startY, endY)
	}
	wg.Wait()
}

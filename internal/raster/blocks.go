package raster

// Block identifies one non-overlapping square tile of a grid.
type Block struct {
	X, Y int
	Edge int
}

// Truncate rounds a dimension down to a multiple of edge.
func Truncate(n, edge int) int {
	if edge <= 0 {
		return 0
	}
	return n / edge * edge
}

// Blocks partitions the grid into edge×edge tiles in raster order
// (row-major, top to bottom, left to right). Trailing rows and columns
// narrower than one tile are left out.
func (g *Grid) Blocks(edge int) []Block {
	w := Truncate(g.Width, edge)
	h := Truncate(g.Height, edge)
	if w == 0 || h == 0 {
		return nil
	}

	blocks := make([]Block, 0, (w/edge)*(h/edge))
	for y := 0; y < h; y += edge {
		for x := 0; x < w; x += edge {
			blocks = append(blocks, Block{X: x, Y: y, Edge: edge})
		}
	}
	return blocks
}

package qrcode

import "fmt"

// Grid is an immutable square matrix of QR modules. A true cell is a dark
// module.
type Grid struct {
	size  int
	cells []bool
}

// NewGrid builds a Grid from a row-major cell slice. The slice is copied.
func NewGrid(size int, cells []bool) (Grid, error) {
	if size <= 0 {
		return Grid{}, fmt.Errorf("qrcode: invalid grid size %d", size)
	}
	if len(cells) != size*size {
		return Grid{}, fmt.Errorf("qrcode: grid of size %d needs %d cells, got %d", size, size*size, len(cells))
	}
	c := make([]bool, len(cells))
	copy(c, cells)
	return Grid{size: size, cells: c}, nil
}

// Size is the side length in modules.
func (g Grid) Size() int { return g.size }

// Dark reports whether the module at column x, row y is dark.
// Coordinates outside the grid are light.
func (g Grid) Dark(x, y int) bool {
	if x < 0 || y < 0 || x >= g.size || y >= g.size {
		return false
	}
	return g.cells[y*g.size+x]
}

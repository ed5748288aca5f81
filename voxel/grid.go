package voxel

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/voxbrick/brick"
)

var (
	// ErrEmptyGrid indicates a grid with a zero or negative dimension.
	ErrEmptyGrid = errors.New("voxel: grid must have at least one cell on every axis")
	// ErrNonRectangular indicates nested slices of differing lengths.
	ErrNonRectangular = errors.New("voxel: all rows and columns must have the same length")
	// ErrOutOfBounds indicates a coordinate outside the grid.
	ErrOutOfBounds = errors.New("voxel: coordinate out of bounds")
)

// neighbors are the six face offsets.
var neighbors = [6][3]int{
	{1, 0, 0}, {-1, 0, 0},
	{0, 1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
}

// Grid is a dense occupancy grid. The zero value is unusable; build one with
// New or FromSlices.
type Grid struct {
	dims  brick.Dims
	cells []bool
}

// New returns an empty grid of the given size.
func New(d brick.Dims) (*Grid, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrEmptyGrid, d)
	}
	return &Grid{dims: d, cells: make([]bool, d.Volume())}, nil
}

// FromSlices copies a [x][y][z] nested slice.
// Complexity: O(X·Y·Z).
func FromSlices(v [][][]bool) (*Grid, error) {
	if len(v) == 0 || len(v[0]) == 0 || len(v[0][0]) == 0 {
		return nil, ErrEmptyGrid
	}
	d := brick.Dims{X: len(v), Y: len(v[0]), Z: len(v[0][0])}
	g := &Grid{dims: d, cells: make([]bool, d.Volume())}
	for x, plane := range v {
		if len(plane) != d.Y {
			return nil, fmt.Errorf("%w: x=%d has %d rows, want %d", ErrNonRectangular, x, len(plane), d.Y)
		}
		for y, col := range plane {
			if len(col) != d.Z {
				return nil, fmt.Errorf("%w: (x=%d, y=%d) has %d cells, want %d", ErrNonRectangular, x, y, len(col), d.Z)
			}
			for z, on := range col {
				g.cells[g.index(x, y, z)] = on
			}
		}
	}
	return g, nil
}

// Dims returns the grid size.
func (g *Grid) Dims() brick.Dims { return g.dims }

// InBounds reports whether (x,y,z) lies inside the grid.
func (g *Grid) InBounds(x, y, z int) bool {
	return x >= 0 && x < g.dims.X && y >= 0 && y < g.dims.Y && z >= 0 && z < g.dims.Z
}

// At reports whether (x,y,z) is set. Out-of-bounds cells read as unset.
func (g *Grid) At(x, y, z int) bool {
	if !g.InBounds(x, y, z) {
		return false
	}
	return g.cells[g.index(x, y, z)]
}

// Set writes cell (x,y,z).
func (g *Grid) Set(x, y, z int, on bool) error {
	if !g.InBounds(x, y, z) {
		return fmt.Errorf("%w: (%d,%d,%d) outside %v", ErrOutOfBounds, x, y, z, g.dims)
	}
	g.cells[g.index(x, y, z)] = on
	return nil
}

// Fill sets every cell of box, clipped to the grid.
func (g *Grid) Fill(box brick.Box) {
	for z := max(box.Min[brick.AxisZ], 0); z < min(box.Max[brick.AxisZ], g.dims.Z); z++ {
		for y := max(box.Min[brick.AxisY], 0); y < min(box.Max[brick.AxisY], g.dims.Y); y++ {
			for x := max(box.Min[brick.AxisX], 0); x < min(box.Max[brick.AxisX], g.dims.X); x++ {
				g.cells[g.index(x, y, z)] = true
			}
		}
	}
}

// Count returns the number of set cells.
func (g *Grid) Count() int {
	n := 0
	for _, on := range g.cells {
		if on {
			n++
		}
	}
	return n
}

// index maps (x,y,z) to x + y·X + z·X·Y, so one Z layer is contiguous.
func (g *Grid) index(x, y, z int) int {
	return x + y*g.dims.X + z*g.dims.X*g.dims.Y
}

// Coordinate converts an index back to (x,y,z).
func (g *Grid) Coordinate(idx int) (x, y, z int) {
	layer := g.dims.X * g.dims.Y
	z = idx / layer
	rem := idx % layer
	return rem % g.dims.X, rem / g.dims.X, z
}

// Components returns the 6-connected regions of set cells. Each component
// lists cell indices in BFS order; components are ordered by their lowest
// index. Use Coordinate to decode.
func (g *Grid) Components() [][]int {
	seen := make([]bool, len(g.cells))
	var comps [][]int

	for i0, on := range g.cells {
		if !on || seen[i0] {
			continue
		}
		queue := []int{i0}
		seen[i0] = true
		for qi := 0; qi < len(queue); qi++ {
			ux, uy, uz := g.Coordinate(queue[qi])
			for _, d := range neighbors {
				vx, vy, vz := ux+d[0], uy+d[1], uz+d[2]
				if !g.At(vx, vy, vz) {
					continue
				}
				vi := g.index(vx, vy, vz)
				if !seen[vi] {
					seen[vi] = true
					queue = append(queue, vi)
				}
			}
		}
		comps = append(comps, queue)
	}
	return comps
}

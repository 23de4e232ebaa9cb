// Package systems holds the flocking core: the spatial grid, steering
// behaviors, the integrator and boundary resolution. Everything here is a
// plain function or value type over snapshot data; the game package owns
// the agent arena and decides when each phase runs.
package systems

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// ErrInvalidCellSize is returned when a grid is built with a non-positive or
// non-finite cell size.
var ErrInvalidCellSize = errors.New("cell size must be positive and finite")

// Entry is a per-tick snapshot of one agent as stored in the grid.
type Entry struct {
	ID  uint32
	Pos r2.Vec
	Vel r2.Vec
}

// Cell is an integer grid coordinate.
type Cell struct {
	X, Y int
}

// SpatialGrid buckets agent snapshots into square cells so neighbor lookups
// only touch the 3x3 block around a position.
type SpatialGrid struct {
	cellSize float64

	// Wrap addressing, per axis. A zero count means that axis uses absolute
	// cells; counts stay zero until Resize is called with wrap enabled and
	// a positive extent on that axis.
	cols, rows    int
	spanX, spanY  float64
	width, height float64

	cells map[Cell][]Entry
}

// NewSpatialGrid creates an empty grid with the given cell size.
func NewSpatialGrid(cellSize float64) (*SpatialGrid, error) {
	if cellSize <= 0 || math.IsNaN(cellSize) || math.IsInf(cellSize, 0) {
		return nil, fmt.Errorf("spatial grid: %w (got %v)", ErrInvalidCellSize, cellSize)
	}
	return &SpatialGrid{
		cellSize: cellSize,
		cells:    make(map[Cell][]Entry),
	}, nil
}

// CellSize returns the configured cell edge length.
func (g *SpatialGrid) CellSize() float64 { return g.cellSize }

// Dims returns the wrap-addressing grid dimensions; an axis without wrap
// addressing reports zero.
func (g *SpatialGrid) Dims() (cols, rows int) { return g.cols, g.rows }

// Resize sets the world extent used for wrap addressing. The column count is
// floor(width/cellSize) with a minimum of one, and the seam-spanning cells are
// stretched to width/cols, so a 3x3 block still covers a full cell size in
// every direction across the seam. Rows follow the same rule. Without wrap
// both axes use absolute cells; a non-positive extent does so for its axis
// only, matching Topology.Delta.
func (g *SpatialGrid) Resize(width, height float64, wrap bool) {
	g.width, g.height = width, height
	g.cols, g.spanX = wrapAxis(width, g.cellSize, wrap)
	g.rows, g.spanY = wrapAxis(height, g.cellSize, wrap)
}

func wrapAxis(extent, cellSize float64, wrap bool) (n int, span float64) {
	if !wrap || !(extent > 0) {
		return 0, 0
	}
	n = max(1, int(math.Floor(extent/cellSize)))
	return n, extent / float64(n)
}

// Rebuild discards the previous contents and inserts every entry in order.
// Cell slices are reused; cells that receive nothing are dropped.
func (g *SpatialGrid) Rebuild(entries []Entry) {
	for c, list := range g.cells {
		g.cells[c] = list[:0]
	}
	for _, e := range entries {
		c := g.CellOf(e.Pos)
		g.cells[c] = append(g.cells[c], e)
	}
	for c, list := range g.cells {
		if len(list) == 0 {
			delete(g.cells, c)
		}
	}
}

// Len returns the number of entries currently stored.
func (g *SpatialGrid) Len() int {
	n := 0
	for _, list := range g.cells {
		n += len(list)
	}
	return n
}

// CellOf returns the cell containing pos.
func (g *SpatialGrid) CellOf(pos r2.Vec) Cell {
	return Cell{
		X: g.axisCell(pos.X, g.width, g.spanX, g.cols),
		Y: g.axisCell(pos.Y, g.height, g.spanY, g.rows),
	}
}

func (g *SpatialGrid) axisCell(v, extent, span float64, n int) int {
	if n == 0 {
		return int(math.Floor(v / g.cellSize))
	}
	// The world is centered on the origin; shift so the seam sits at a cell
	// boundary.
	return mod(int(math.Floor((v+extent/2)/span)), n)
}

// QueryNeighborhood returns every entry in the 3x3 block around pos,
// including the agent at pos itself.
func (g *SpatialGrid) QueryNeighborhood(pos r2.Vec) []Entry {
	return g.QueryNeighborhoodInto(nil, pos)
}

// QueryNeighborhoodInto appends the 3x3 neighborhood of pos to dst and
// returns the extended slice. Cells are visited row by row, entries in
// insertion order. Reuse dst across calls to avoid allocations. Safe for
// concurrent use between rebuilds.
func (g *SpatialGrid) QueryNeighborhoodInto(dst []Entry, pos r2.Vec) []Entry {
	center := g.CellOf(pos)
	dedupe := (g.cols > 0 && g.cols < 3) || (g.rows > 0 && g.rows < 3)
	var visited [9]Cell
	nVisited := 0

	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			c := Cell{X: center.X + dx, Y: center.Y + dy}
			if g.cols > 0 {
				c.X = mod(c.X, g.cols)
			}
			if g.rows > 0 {
				c.Y = mod(c.Y, g.rows)
			}
			if dedupe {
				if seen(visited[:nVisited], c) {
					continue
				}
				visited[nVisited] = c
				nVisited++
			}
			dst = append(dst, g.cells[c]...)
		}
	}
	return dst
}

func seen(cells []Cell, c Cell) bool {
	for _, v := range cells {
		if v == c {
			return true
		}
	}
	return false
}

// mod is the non-negative remainder of a divided by n. n must be positive.
func mod(a, n int) int {
	r := a % n
	if r < 0 {
		r += n
	}
	return r
}

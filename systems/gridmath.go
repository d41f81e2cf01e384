// Package systems provides the simulation systems: tile streaming, flow field
// navigation, agent population and steering, player control and effects.
package systems

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Coord is an integer cell on the horizontal grid.
type Coord struct {
	X, Z int
}

// String implements fmt.Stringer.
func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Z)
}

// Add returns c offset by d.
func (c Coord) Add(d Coord) Coord {
	return Coord{X: c.X + d.X, Z: c.Z + d.Z}
}

// Chebyshev returns max(|dx|, |dz|) between two cells.
func Chebyshev(a, b Coord) int {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dz := a.Z - b.Z
	if dz < 0 {
		dz = -dz
	}
	if dx > dz {
		return dx
	}
	return dz
}

// Grid maps world positions to cells. Streaming and pathfinding share one Grid
// so a tile and its flow cell always cover the same ground.
type Grid struct {
	CellSize float64
}

// NewGrid creates a grid with the given cell edge length.
func NewGrid(cellSize float64) Grid {
	return Grid{CellSize: cellSize}
}

// ToCell returns the cell whose centre is nearest to p on the XZ plane.
func (g Grid) ToCell(p r3.Vec) Coord {
	return Coord{
		X: int(math.Round(p.X / g.CellSize)),
		Z: int(math.Round(p.Z / g.CellSize)),
	}
}

// ToWorld returns the centre of cell c at height y.
func (g Grid) ToWorld(c Coord, y float64) r3.Vec {
	return r3.Vec{X: float64(c.X) * g.CellSize, Y: y, Z: float64(c.Z) * g.CellSize}
}

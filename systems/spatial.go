package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// SpatialHash buckets point indices by planar cell on an unbounded grid.
// Callers own the point slice; the hash stores indices into it.
type SpatialHash struct {
	cellSize float64
	cells    map[Coord][]int
	used     []Coord
}

// NewSpatialHash creates a hash with the given bucket edge length.
func NewSpatialHash(cellSize float64) *SpatialHash {
	if cellSize <= 0 {
		cellSize = 1
	}
	return &SpatialHash{
		cellSize: cellSize,
		cells:    make(map[Coord][]int),
	}
}

// CellSize returns the bucket edge length.
func (h *SpatialHash) CellSize() float64 {
	return h.cellSize
}

// Reset empties every bucket and switches to a new edge length. Bucket
// storage is reused.
func (h *SpatialHash) Reset(cellSize float64) {
	if cellSize > 0 && cellSize != h.cellSize {
		h.cellSize = cellSize
		clear(h.cells)
		h.used = h.used[:0]
		return
	}
	for _, c := range h.used {
		h.cells[c] = h.cells[c][:0]
	}
	h.used = h.used[:0]
}

func (h *SpatialHash) bucket(p r3.Vec) Coord {
	return Coord{
		X: int(math.Floor(p.X / h.cellSize)),
		Z: int(math.Floor(p.Z / h.cellSize)),
	}
}

// Insert records index i at position p.
func (h *SpatialHash) Insert(i int, p r3.Vec) {
	c := h.bucket(p)
	list := h.cells[c]
	if len(list) == 0 {
		h.used = append(h.used, c)
	}
	h.cells[c] = append(list, i)
}

// QueryInto appends every index stored in the 3x3 block of buckets around p.
// Any point within one cell size of p is included; callers filter by exact
// distance. Indices come out in insertion order within each bucket.
func (h *SpatialHash) QueryInto(dst []int, p r3.Vec) []int {
	center := h.bucket(p)
	for dx := -1; dx <= 1; dx++ {
		for dz := -1; dz <= 1; dz++ {
			dst = append(dst, h.cells[Coord{X: center.X + dx, Z: center.Z + dz}]...)
		}
	}
	return dst
}

package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// Unreached is the BestCost of a cell the wave has not reached.
	Unreached = math.MaxInt
	// OpenCost is the traversal weight of ordinary ground.
	OpenCost = 1

	orthogonalStep = 10
	diagonalStep   = 14
)

// neighborOffsets lists the 8-connected neighbourhood, orthogonal first.
var neighborOffsets = [8]Coord{
	{0, 1}, {0, -1}, {1, 0}, {-1, 0},
	{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
}

// neighborUnit holds the unit vector toward each neighbour offset.
var neighborUnit = func() [8]r3.Vec {
	var out [8]r3.Vec
	for i, o := range neighborOffsets {
		out[i] = r3.Unit(r3.Vec{X: float64(o.X), Z: float64(o.Z)})
	}
	return out
}()

// FlowCell is one cell of the navigation field.
type FlowCell struct {
	Cost      int    // Traversal weight; >= the impassable threshold blocks the cell
	BestCost  int    // Relaxed distance to the target, Unreached if not reached
	Direction r3.Vec // Unit direction toward the target, or zero
}

// CostSource supplies the traversal weight of a cell when the field first
// discovers it. Cells discovered without a source are open.
type CostSource interface {
	CostAt(c Coord) int
}

// FlowSampler is the read side of a flow field.
type FlowSampler interface {
	// Direction returns the cell's direction and whether the cell is known.
	// It never grows the field.
	Direction(c Coord) (r3.Vec, bool)
}

// FlowFieldParams controls relaxation.
type FlowFieldParams struct {
	Horizon       int // Cells beyond this Chebyshev distance from the target are not expanded
	Impassable    int // Cost at or above which a cell is blocked
	PruneDistance int // Unpinned cells beyond this distance from the target are dropped; 0 keeps all
}

// DefaultFlowFieldParams returns the standard solver settings.
func DefaultFlowFieldParams() FlowFieldParams {
	return FlowFieldParams{
		Horizon:       40,
		Impassable:    255,
		PruneDistance: 80,
	}
}

// FlowField is a sparse cost/direction field relaxed outward from a target
// cell. Cells are created lazily as the wave or a lookup discovers them.
type FlowField struct {
	params FlowFieldParams
	grid   Grid
	costs  CostSource

	cells  map[Coord]*FlowCell
	pinned map[Coord]struct{} // Costs set through SetCost survive pruning

	queue  []Coord // Reused FIFO worklist
	target Coord

	recomputes int
	lastPops   int
}

// NewFlowField creates an empty field over grid.
func NewFlowField(grid Grid, params FlowFieldParams) *FlowField {
	return &FlowField{
		params: params,
		grid:   grid,
		cells:  make(map[Coord]*FlowCell),
		pinned: make(map[Coord]struct{}),
		queue:  make([]Coord, 0, 1024),
	}
}

// SetCostSource installs the source consulted for newly discovered cells.
func (f *FlowField) SetCostSource(src CostSource) {
	f.costs = src
}

// Grid returns the grid the field is laid out on.
func (f *FlowField) Grid() Grid {
	return f.grid
}

// Params returns the solver settings.
func (f *FlowField) Params() FlowFieldParams {
	return f.params
}

// discover returns the cell at c, creating it if unseen.
func (f *FlowField) discover(c Coord) *FlowCell {
	if cell, ok := f.cells[c]; ok {
		return cell
	}
	cost := OpenCost
	if f.costs != nil {
		cost = max(f.costs.CostAt(c), OpenCost)
	}
	cell := &FlowCell{Cost: cost, BestCost: Unreached}
	f.cells[c] = cell
	return cell
}

// Cell returns the cell at c, initialising an unseen coordinate to an open,
// unreached cell.
func (f *FlowField) Cell(c Coord) *FlowCell {
	return f.discover(c)
}

// Lookup returns a copy of the cell at c without growing the field.
func (f *FlowField) Lookup(c Coord) (FlowCell, bool) {
	cell, ok := f.cells[c]
	if !ok {
		return FlowCell{}, false
	}
	return *cell, true
}

// Direction implements FlowSampler.
func (f *FlowField) Direction(c Coord) (r3.Vec, bool) {
	cell, ok := f.cells[c]
	if !ok {
		return r3.Vec{}, false
	}
	return cell.Direction, true
}

// SetCost pre-sets the traversal weight of a cell. The weight takes effect at
// the next Recompute and is never pruned. Weights below OpenCost are raised to it.
func (f *FlowField) SetCost(c Coord, cost int) {
	f.discover(c).Cost = max(cost, OpenCost)
	f.pinned[c] = struct{}{}
}

// Len returns the number of known cells.
func (f *FlowField) Len() int {
	return len(f.cells)
}

// Target returns the cell of the last Recompute.
func (f *FlowField) Target() Coord {
	return f.target
}

// Recomputes returns how many times Recompute has run.
func (f *FlowField) Recomputes() int {
	return f.recomputes
}

// LastWork returns the number of worklist pops in the last Recompute.
func (f *FlowField) LastWork() int {
	return f.lastPops
}

// Recompute rebuilds the field toward targetPosition.
func (f *FlowField) Recompute(targetPosition r3.Vec) {
	target := f.grid.ToCell(targetPosition)
	f.target = target
	f.recomputes++

	f.prune(target)

	// Reset, keeping costs
	for _, cell := range f.cells {
		cell.BestCost = Unreached
		cell.Direction = r3.Vec{}
	}

	t := f.discover(target)
	t.BestCost = 0
	t.Cost = OpenCost

	f.relax(target)
	f.synthesize()
}

// relax runs FIFO wave relaxation from target. Cells may be enqueued more
// than once; each improvement re-enqueues.
func (f *FlowField) relax(target Coord) {
	f.queue = append(f.queue[:0], target)
	head := 0
	pops := 0
	for head < len(f.queue) {
		current := f.queue[head]
		head++
		pops++

		if Chebyshev(current, target) > f.params.Horizon {
			continue
		}

		currCost := f.cells[current].BestCost
		for i, off := range neighborOffsets {
			nc := current.Add(off)
			n := f.discover(nc)
			if n.Cost >= f.params.Impassable {
				continue
			}

			step := orthogonalStep
			if i >= 4 {
				step = diagonalStep
			}
			candidate := currCost + step*n.Cost
			if candidate < n.BestCost {
				n.BestCost = candidate
				f.queue = append(f.queue, nc)
			}
		}

		// Compact once the consumed prefix dominates
		if head > 4096 && head*2 > len(f.queue) {
			n := copy(f.queue, f.queue[head:])
			f.queue = f.queue[:n]
			head = 0
		}
	}
	f.lastPops = pops
}

// synthesize points each reached cell down the cost gradient: the sum of unit
// offsets toward every strictly cheaper neighbour, weighted by the improvement.
func (f *FlowField) synthesize() {
	for c, cell := range f.cells {
		if cell.Cost >= f.params.Impassable || cell.BestCost == Unreached {
			continue
		}

		var sum r3.Vec
		for i, off := range neighborOffsets {
			n, ok := f.cells[c.Add(off)]
			if !ok || n.BestCost >= cell.BestCost {
				continue
			}
			pull := float64(cell.BestCost - n.BestCost)
			sum = r3.Add(sum, r3.Scale(pull, neighborUnit[i]))
		}

		if r3.Norm(sum) > 0.01 {
			cell.Direction = r3.Unit(sum)
		}
	}
}

// prune drops unpinned cells far beyond the reach of a wave from target.
// A dropped cell is rediscovered with the same cost it had.
func (f *FlowField) prune(target Coord) {
	limit := f.params.PruneDistance
	if limit <= 0 {
		return
	}
	if limit < f.params.Horizon+2 {
		limit = f.params.Horizon + 2
	}
	for c := range f.cells {
		if Chebyshev(c, target) <= limit {
			continue
		}
		if _, ok := f.pinned[c]; ok {
			continue
		}
		delete(f.cells, c)
	}
}

// Snapshot returns an immutable copy of the field.
func (f *FlowField) Snapshot() *FlowSnapshot {
	cells := make(map[Coord]FlowCell, len(f.cells))
	for c, cell := range f.cells {
		cells[c] = *cell
	}
	return &FlowSnapshot{target: f.target, cells: cells, generation: f.recomputes}
}

// FlowSnapshot is a read-only, fully relaxed copy of a flow field.
type FlowSnapshot struct {
	target     Coord
	cells      map[Coord]FlowCell
	generation int
}

// Direction implements FlowSampler.
func (s *FlowSnapshot) Direction(c Coord) (r3.Vec, bool) {
	cell, ok := s.cells[c]
	if !ok {
		return r3.Vec{}, false
	}
	return cell.Direction, true
}

// Lookup returns the cell at c.
func (s *FlowSnapshot) Lookup(c Coord) (FlowCell, bool) {
	cell, ok := s.cells[c]
	return cell, ok
}

// Target returns the cell the snapshot was relaxed toward.
func (s *FlowSnapshot) Target() Coord {
	return s.target
}

// Generation returns the recompute count that produced the snapshot.
func (s *FlowSnapshot) Generation() int {
	return s.generation
}

// Len returns the number of cells in the snapshot.
func (s *FlowSnapshot) Len() int {
	return len(s.cells)
}

// FlowScheduler throttles recomputes to at most one per Interval seconds.
type FlowScheduler struct {
	Interval float64
	timer    float64
}

// Tick accumulates dt and reports whether a recompute is due.
func (s *FlowScheduler) Tick(dt float64) bool {
	s.timer += dt
	if s.timer >= s.Interval {
		s.timer = 0
		return true
	}
	return false
}

package systems

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func newTestField() *FlowField {
	return NewFlowField(NewGrid(2.0), DefaultFlowFieldParams())
}

func mustLookup(t *testing.T, f *FlowField, c Coord) FlowCell {
	t.Helper()
	cell, ok := f.Lookup(c)
	if !ok {
		t.Fatalf("cell %v unknown", c)
	}
	return cell
}

// TestFlowFieldUniformCosts checks the fixed-point distances on open ground.
func TestFlowFieldUniformCosts(t *testing.T) {
	f := newTestField()
	f.Recompute(r3.Vec{})

	tests := []struct {
		cell Coord
		want int
	}{
		{Coord{0, 0}, 0},
		{Coord{1, 0}, 10},
		{Coord{0, -1}, 10},
		{Coord{1, 1}, 14},
		{Coord{-1, 1}, 14},
		{Coord{2, 0}, 20},
		{Coord{2, 1}, 24},
		{Coord{3, 3}, 42},
		{Coord{-5, 2}, 58},
		{Coord{40, 0}, 400},
		{Coord{41, 0}, 410}, // discovered by the horizon row but never expanded
	}

	for _, tc := range tests {
		t.Run(tc.cell.String(), func(t *testing.T) {
			if got := mustLookup(t, f, tc.cell).BestCost; got != tc.want {
				t.Errorf("BestCost = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestFlowFieldTargetFromWorldPosition(t *testing.T) {
	f := newTestField()
	f.Recompute(r3.Vec{X: 7.1, Y: 3, Z: -4.2}) // cell (4, -2)

	if f.Target() != (Coord{4, -2}) {
		t.Fatalf("Target = %v, want (4,-2)", f.Target())
	}
	if got := mustLookup(t, f, Coord{4, -2}).BestCost; got != 0 {
		t.Errorf("target BestCost = %d, want 0", got)
	}
	if got := mustLookup(t, f, Coord{5, -2}).BestCost; got != 10 {
		t.Errorf("neighbour BestCost = %d, want 10", got)
	}
}

func TestFlowFieldHorizon(t *testing.T) {
	f := newTestField()
	f.Recompute(r3.Vec{})

	if _, ok := f.Lookup(Coord{42, 0}); ok {
		t.Error("cell two beyond the horizon should never be discovered")
	}
	if _, ok := f.Lookup(Coord{0, -42}); ok {
		t.Error("cell two beyond the horizon should never be discovered")
	}
	// 83x83 square: horizon 40 plus the discovered ring
	if f.Len() != 83*83 {
		t.Errorf("Len = %d, want %d", f.Len(), 83*83)
	}
}

// TestFlowFieldDescent follows the cheapest neighbour from every reached
// cell and checks the cost never rises and the walk ends at the target.
func TestFlowFieldDescent(t *testing.T) {
	f := newTestField()
	// A wall with a gap forces detours
	for z := -10; z <= 10; z++ {
		if z != 6 {
			f.SetCost(Coord{3, z}, 255)
		}
	}
	f.SetCost(Coord{-2, -2}, 5)
	f.Recompute(r3.Vec{})

	for x := -12; x <= 12; x++ {
		for z := -12; z <= 12; z++ {
			start := Coord{x, z}
			cell := mustLookup(t, f, start)
			if cell.BestCost == Unreached {
				continue
			}

			cur := start
			cost := cell.BestCost
			for steps := 0; cost > 0; steps++ {
				if steps > 200 {
					t.Fatalf("descent from %v did not reach target", start)
				}
				best := cur
				bestCost := cost
				for _, off := range neighborOffsets {
					n, ok := f.Lookup(cur.Add(off))
					if ok && n.BestCost < bestCost {
						best = cur.Add(off)
						bestCost = n.BestCost
					}
				}
				if best == cur {
					t.Fatalf("descent from %v stuck at %v (cost %d)", start, cur, cost)
				}
				if bestCost > cost {
					t.Fatalf("cost rose from %d to %d at %v", cost, bestCost, best)
				}
				cur, cost = best, bestCost
			}
			if cur != (Coord{}) {
				t.Errorf("descent from %v ended at %v", start, cur)
			}
		}
	}
}

func TestFlowFieldDirections(t *testing.T) {
	f := newTestField()
	f.Recompute(r3.Vec{})

	tests := []struct {
		cell Coord
		want r3.Vec
	}{
		{Coord{5, 0}, r3.Vec{X: -1}},
		{Coord{0, 5}, r3.Vec{Z: -1}},
		{Coord{-3, 0}, r3.Vec{X: 1}},
		{Coord{4, 4}, r3.Unit(r3.Vec{X: -1, Z: -1})},
	}

	for _, tc := range tests {
		t.Run(tc.cell.String(), func(t *testing.T) {
			d, ok := f.Direction(tc.cell)
			if !ok {
				t.Fatal("cell unknown")
			}
			if r3.Norm(r3.Sub(d, tc.want)) > 1e-9 {
				t.Errorf("Direction = %v, want %v", d, tc.want)
			}
		})
	}

	if d, _ := f.Direction(Coord{}); d != (r3.Vec{}) {
		t.Errorf("target direction = %v, want zero", d)
	}
}

func TestFlowFieldDirectionsUnitOrZero(t *testing.T) {
	f := newTestField()
	f.SetCost(Coord{1, 1}, 255)
	f.SetCost(Coord{-4, 2}, 9)
	f.Recompute(r3.Vec{X: 0.4, Z: -0.6})

	for x := -41; x <= 41; x++ {
		for z := -41; z <= 41; z++ {
			d, ok := f.Direction(Coord{x, z})
			if !ok {
				continue
			}
			n := r3.Norm(d)
			if n != 0 && math.Abs(n-1) > 1e-9 {
				t.Fatalf("direction at (%d,%d) has length %v", x, z, n)
			}
			if math.IsNaN(n) {
				t.Fatalf("direction at (%d,%d) is NaN", x, z)
			}
		}
	}
}

func TestFlowFieldImpassable(t *testing.T) {
	f := newTestField()
	// Wall at x=2 for z in [-45, 45] blocks the whole horizon
	for z := -45; z <= 45; z++ {
		f.SetCost(Coord{2, z}, 255)
	}
	// Enclosed pocket
	f.SetCost(Coord{-10, -10}, OpenCost)
	for _, off := range neighborOffsets {
		f.SetCost(Coord{-10, -10}.Add(off), 300)
	}
	f.Recompute(r3.Vec{})

	wall := mustLookup(t, f, Coord{2, 0})
	if wall.BestCost != Unreached || wall.Direction != (r3.Vec{}) {
		t.Errorf("wall cell relaxed: %+v", wall)
	}
	if c, ok := f.Lookup(Coord{3, 0}); ok && c.BestCost != Unreached {
		t.Errorf("cell behind a full wall should be unreached, got %d", c.BestCost)
	}
	pocket := mustLookup(t, f, Coord{-10, -10})
	if pocket.BestCost != Unreached || pocket.Direction != (r3.Vec{}) {
		t.Errorf("enclosed cell relaxed: %+v", pocket)
	}
	if c := mustLookup(t, f, Coord{1, 0}); c.BestCost != 10 {
		t.Errorf("cell before the wall BestCost = %d, want 10", c.BestCost)
	}
}

func TestFlowFieldWeightedCost(t *testing.T) {
	f := newTestField()
	f.SetCost(Coord{1, 0}, 3)
	f.Recompute(r3.Vec{})

	if got := mustLookup(t, f, Coord{1, 0}).BestCost; got != 30 {
		t.Errorf("weighted cell BestCost = %d, want 30", got)
	}
	// Cheaper to go around through a diagonal than through the weighted cell
	if got := mustLookup(t, f, Coord{2, 0}).BestCost; got != 28 {
		t.Errorf("BestCost(2,0) = %d, want 28", got)
	}
}

func TestFlowFieldTargetForcedOpen(t *testing.T) {
	f := newTestField()
	f.SetCost(Coord{}, 255)
	f.Recompute(r3.Vec{})

	c := mustLookup(t, f, Coord{})
	if c.Cost != OpenCost || c.BestCost != 0 {
		t.Errorf("target = %+v, want open with BestCost 0", c)
	}
}

func TestFlowFieldIdempotent(t *testing.T) {
	f := newTestField()
	f.SetCost(Coord{2, 2}, 255)
	f.SetCost(Coord{-3, 1}, 4)
	target := r3.Vec{X: 1.2, Z: 3.3}

	f.Recompute(target)
	first := f.Snapshot()
	f.Recompute(target)
	second := f.Snapshot()

	if first.Len() != second.Len() {
		t.Fatalf("cell count changed: %d -> %d", first.Len(), second.Len())
	}
	for c, a := range first.cells {
		b, ok := second.Lookup(c)
		if !ok {
			t.Fatalf("cell %v vanished", c)
		}
		if a.Direction != b.Direction || a.BestCost != b.BestCost {
			t.Fatalf("cell %v changed: %+v -> %+v", c, a, b)
		}
	}
}

func TestFlowFieldLookupsDoNotGrow(t *testing.T) {
	f := newTestField()
	if _, ok := f.Direction(Coord{9, 9}); ok {
		t.Error("unknown cell reported as known")
	}
	if _, ok := f.Lookup(Coord{9, 9}); ok {
		t.Error("unknown cell reported as known")
	}
	if f.Len() != 0 {
		t.Errorf("read-only lookups grew the field to %d", f.Len())
	}

	c := f.Cell(Coord{9, 9})
	if c.Cost != OpenCost || c.BestCost != Unreached || c.Direction != (r3.Vec{}) {
		t.Errorf("auto-initialised cell = %+v", c)
	}
	if f.Len() != 1 {
		t.Errorf("Len = %d, want 1", f.Len())
	}
}

func TestFlowFieldCostsPreservedAcrossRecompute(t *testing.T) {
	f := newTestField()
	f.SetCost(Coord{5, 5}, 7)
	f.Recompute(r3.Vec{})
	f.Recompute(r3.Vec{X: 2})

	if got := mustLookup(t, f, Coord{5, 5}).Cost; got != 7 {
		t.Errorf("Cost = %d, want 7", got)
	}
}

func TestFlowFieldPrune(t *testing.T) {
	f := newTestField()
	f.SetCost(Coord{1, 0}, 9)
	f.Recompute(r3.Vec{})

	// Move the target 300 cells away
	f.Recompute(r3.Vec{X: 600})

	if _, ok := f.Lookup(Coord{-5, 0}); ok {
		t.Error("far unpinned cell should have been pruned")
	}
	if c, ok := f.Lookup(Coord{1, 0}); !ok || c.Cost != 9 {
		t.Errorf("pinned cell lost: %+v %v", c, ok)
	}
	if f.Len() > 83*83+1 {
		t.Errorf("Len = %d, want at most %d", f.Len(), 83*83+1)
	}
}

type stripeCosts struct{}

func (stripeCosts) CostAt(c Coord) int {
	if c.X == -2 {
		return 255
	}
	return OpenCost
}

func TestFlowFieldCostSource(t *testing.T) {
	f := newTestField()
	f.SetCostSource(stripeCosts{})
	f.Recompute(r3.Vec{})

	if c := mustLookup(t, f, Coord{-2, 0}); c.Cost != 255 || c.BestCost != Unreached {
		t.Errorf("stripe cell = %+v, want impassable", c)
	}
	if c, ok := f.Lookup(Coord{-3, 0}); ok && c.BestCost != Unreached {
		t.Errorf("cell behind the stripe should be unreached, got %d", c.BestCost)
	}
	if c := mustLookup(t, f, Coord{-1, 0}); c.BestCost != 10 {
		t.Errorf("BestCost(-1,0) = %d, want 10", c.BestCost)
	}
}

func TestFlowScheduler(t *testing.T) {
	s := FlowScheduler{Interval: 0.25}
	var fired []int
	for i := 1; i <= 6; i++ {
		if s.Tick(0.125) {
			fired = append(fired, i)
		}
	}
	want := []int{2, 4, 6}
	if len(fired) != len(want) {
		t.Fatalf("fired on ticks %v, want %v", fired, want)
	}
	for i := range want {
		if fired[i] != want[i] {
			t.Errorf("fired on ticks %v, want %v", fired, want)
		}
	}
}

// TestFlowFieldLongWeightedRoute routes the wave through a serpentine of
// heavy cells so the true distance runs into the millions.
func TestFlowFieldLongWeightedRoute(t *testing.T) {
	f := newTestField()
	for x := 1; x <= 40; x++ {
		for z := -40; z <= 40; z++ {
			f.SetCost(Coord{x, z}, 254)
		}
	}
	// Walls on even columns, gaps alternating between the far ends
	for x := 2; x <= 38; x += 2 {
		gap := 40
		if (x/2)%2 == 0 {
			gap = -40
		}
		for z := -41; z <= 41; z++ {
			if z != gap {
				f.SetCost(Coord{x, z}, 255)
			}
		}
	}
	f.Recompute(r3.Vec{})

	end := mustLookup(t, f, Coord{39, 0})
	if end.BestCost == Unreached {
		t.Fatal("end of the corridor is unreached")
	}
	if end.BestCost <= 1_000_000 {
		t.Errorf("BestCost = %d, want the full corridor length", end.BestCost)
	}
	if end.Direction == (r3.Vec{}) {
		t.Error("end of the corridor has no direction")
	}
	if start := mustLookup(t, f, Coord{1, 0}); start.BestCost != 10*254 {
		t.Errorf("corridor entry BestCost = %d, want %d", start.BestCost, 10*254)
	}
}

package systems

import (
	"sync"
	"sync/atomic"

	"gonum.org/v1/gonum/spatial/r3"
)

// AsyncFlowField relaxes a private FlowField on a worker goroutine and
// publishes each finished field as an immutable snapshot. At most one
// recompute is in flight. Readers only ever see the last complete snapshot.
type AsyncFlowField struct {
	field *FlowField // Owned by the worker while busy

	current atomic.Pointer[FlowSnapshot]
	busy    atomic.Bool

	mu      sync.Mutex
	pending map[Coord]int // SetCost edits applied before the next recompute
	stopped bool          // Guarded by mu, as is every send on requests

	requests chan r3.Vec
	inflight sync.WaitGroup
	worker   sync.WaitGroup

	dropped atomic.Int64
}

// NewAsyncFlowField starts the worker. Call Stop to release it.
func NewAsyncFlowField(grid Grid, params FlowFieldParams) *AsyncFlowField {
	a := &AsyncFlowField{
		field:    NewFlowField(grid, params),
		pending:  make(map[Coord]int),
		requests: make(chan r3.Vec, 1),
	}
	a.current.Store(a.field.Snapshot())
	a.worker.Add(1)
	go a.run()
	return a
}

// SetCostSource installs the cost source. Call before the first Request.
func (a *AsyncFlowField) SetCostSource(src CostSource) {
	a.Wait()
	a.field.SetCostSource(src)
}

func (a *AsyncFlowField) run() {
	defer a.worker.Done()
	for target := range a.requests {
		a.mu.Lock()
		for c, cost := range a.pending {
			a.field.SetCost(c, cost)
		}
		clear(a.pending)
		a.mu.Unlock()

		a.field.Recompute(target)
		a.current.Store(a.field.Snapshot())
		a.busy.Store(false)
		a.inflight.Done()
	}
}

// Request starts a recompute toward target. It returns false, doing nothing,
// if a recompute is already running or the worker is stopped.
func (a *AsyncFlowField) Request(target r3.Vec) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped || !a.busy.CompareAndSwap(false, true) {
		a.dropped.Add(1)
		return false
	}
	a.inflight.Add(1)
	a.requests <- target
	return true
}

// Recompute implements the synchronous solver call shape: it requests a
// recompute and returns immediately.
func (a *AsyncFlowField) Recompute(target r3.Vec) {
	a.Request(target)
}

// SetCost queues a traversal weight for the next recompute.
func (a *AsyncFlowField) SetCost(c Coord, cost int) {
	a.mu.Lock()
	a.pending[c] = cost
	a.mu.Unlock()
}

// Busy reports whether a recompute is in flight.
func (a *AsyncFlowField) Busy() bool {
	return a.busy.Load()
}

// Dropped returns how many requests were refused while busy.
func (a *AsyncFlowField) Dropped() int64 {
	return a.dropped.Load()
}

// Snapshot returns the last complete field.
func (a *AsyncFlowField) Snapshot() *FlowSnapshot {
	return a.current.Load()
}

// Direction implements FlowSampler against the last complete field.
func (a *AsyncFlowField) Direction(c Coord) (r3.Vec, bool) {
	return a.current.Load().Direction(c)
}

// Wait blocks until no recompute is in flight.
func (a *AsyncFlowField) Wait() {
	a.inflight.Wait()
}

// Stop waits for any in-flight recompute and shuts the worker down.
func (a *AsyncFlowField) Stop() {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	a.stopped = true
	a.mu.Unlock()

	a.Wait()
	close(a.requests)
	a.worker.Wait()
}

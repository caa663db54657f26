package filters

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ttpr0/go-vrp/arith"
	. "github.com/ttpr0/go-vrp/util"
)

type stubOptimizer struct {
	status DimensionSchedulingStatus
	cost   int64
	calls  int
	probe  func(next_accessor func(node int32) int32)
}

func (self *stubOptimizer) ComputeCumuls(next_accessor func(node int32) int32) DimensionSchedulingStatus {
	self.calls++
	if self.probe != nil {
		self.probe(next_accessor)
	}
	return self.status
}

func (self *stubOptimizer) ComputeCumulCostWithoutFixedTransits(next_accessor func(node int32) int32) (int64, DimensionSchedulingStatus) {
	self.calls++
	if self.probe != nil {
		self.probe(next_accessor)
	}
	return self.cost, self.status
}

// Customers 0/1, starts 2/3, ends 4/5.
func newLPFilter(lp *stubOptimizer, mp *stubOptimizer, filter_objective_cost bool) *LPCumulFilter {
	return NewLPCumulFilter(4, 6,
		Array[int32]{2, 3}, Array[int32]{4, 5},
		lp, mp, filter_objective_cost, "time")
}

func TestLPCumulFilterFeasibility(t *testing.T) {
	lp := &stubOptimizer{status: SchedulingOptimal}
	mp := &stubOptimizer{status: SchedulingOptimal}
	filter := newLPFilter(lp, mp, false)
	delta := NewAssignment().Add(2, 0).Add(0, 4)

	// An optimal fast solve needs no confirmation.
	require.True(t, filter.Accept(delta, arith.INT64_MIN, arith.INT64_MAX))
	require.Equal(t, 0, mp.calls)

	// A relaxed-only result is confirmed by the exact solver.
	lp.status = SchedulingRelaxedOptimalOnly
	require.True(t, filter.Accept(delta, arith.INT64_MIN, arith.INT64_MAX))
	require.Equal(t, 1, mp.calls)

	mp.status = SchedulingRelaxedOptimalOnly
	require.False(t, filter.Accept(delta, arith.INT64_MIN, arith.INT64_MAX))

	lp.status = SchedulingInfeasible
	mp.calls = 0
	require.False(t, filter.Accept(delta, arith.INT64_MIN, arith.INT64_MAX))
	require.Equal(t, 0, mp.calls)
}

func TestLPCumulFilterObjective(t *testing.T) {
	lp := &stubOptimizer{status: SchedulingOptimal, cost: 50}
	mp := &stubOptimizer{status: SchedulingOptimal, cost: 60}
	filter := newLPFilter(lp, mp, true)
	delta := NewAssignment().Add(2, 0).Add(0, 4)

	require.True(t, filter.Accept(delta, arith.INT64_MIN, int64(50)))
	require.Equal(t, int64(50), filter.GetAcceptedObjectiveValue())
	require.False(t, filter.Accept(delta, arith.INT64_MIN, int64(49)))

	// The exact cost replaces the relaxed lower bound.
	lp.status = SchedulingRelaxedOptimalOnly
	require.True(t, filter.Accept(delta, arith.INT64_MIN, int64(60)))
	require.Equal(t, int64(60), filter.GetAcceptedObjectiveValue())
	require.False(t, filter.Accept(delta, arith.INT64_MIN, int64(59)))

	// A relaxed lower bound above the cap rejects without the exact solver.
	mp.calls = 0
	require.False(t, filter.Accept(delta, arith.INT64_MIN, int64(40)))
	require.Equal(t, 0, mp.calls)

	mp.status = SchedulingRelaxedOptimalOnly
	require.False(t, filter.Accept(delta, arith.INT64_MIN, int64(100)))
	require.Equal(t, arith.INT64_MAX, filter.GetAcceptedObjectiveValue())

	lp.status = SchedulingInfeasible
	require.False(t, filter.Accept(delta, arith.INT64_MIN, int64(100)))
	require.Equal(t, arith.INT64_MAX, filter.GetAcceptedObjectiveValue())
}

func TestLPCumulFilterLns(t *testing.T) {
	lp := &stubOptimizer{status: SchedulingInfeasible}
	filter := newLPFilter(lp, lp, false)
	delta := NewAssignment().AddUnbound(0)
	require.True(t, filter.Accept(delta, arith.INT64_MIN, arith.INT64_MAX))
	require.Equal(t, 0, lp.calls)
}

func TestLPCumulFilterSynchronizeAccessor(t *testing.T) {
	var seen []int32
	lp := &stubOptimizer{status: SchedulingOptimal, cost: 42}
	lp.probe = func(next_accessor func(node int32) int32) {
		seen = []int32{next_accessor(2), next_accessor(0), next_accessor(3), next_accessor(1), next_accessor(4)}
	}
	filter := newLPFilter(lp, lp, true)

	// Only path 0 is synchronized: starts of unsynced paths map to their end,
	// other unsynced nodes to themselves, ends have no next-variable.
	assignment := NewAssignment().Add(2, 0).Add(0, 4)
	filter.Synchronize(assignment, nil)
	require.Equal(t, []int32{0, 4, 5, 1, 4}, seen)
	require.Equal(t, int64(42), filter.GetSynchronizedObjectiveValue())
}

func TestLPCumulFilterSynchronizeFallbacks(t *testing.T) {
	lp := &stubOptimizer{status: SchedulingInfeasible, cost: 42}
	mp := &stubOptimizer{status: SchedulingRelaxedOptimalOnly, cost: 7}
	filter := newLPFilter(lp, mp, true)
	assignment := NewAssignment().Add(2, 0).Add(0, 4)

	// A solver timeout on the synchronized solution falls back to cost 0.
	filter.Synchronize(assignment, nil)
	require.Equal(t, int64(0), filter.GetSynchronizedObjectiveValue())

	// Relaxed-only falls through to the exact solver, which also fails.
	lp.status = SchedulingRelaxedOptimalOnly
	filter.Synchronize(assignment, nil)
	require.Equal(t, int64(0), filter.GetSynchronizedObjectiveValue())

	// The exact solver confirms the relaxed cost.
	mp.status = SchedulingOptimal
	filter.Synchronize(assignment, nil)
	require.Equal(t, int64(7), filter.GetSynchronizedObjectiveValue())
}

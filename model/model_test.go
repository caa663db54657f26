package model

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ttpr0/go-vrp/arith"
	"github.com/ttpr0/go-vrp/filters"
	. "github.com/ttpr0/go-vrp/util"
)

func TestEmptySolution(t *testing.T) {
	model := NewModel(3, 2)
	solution := model.EmptySolution()
	require.Equal(t, int32(5), solution.NumNexts())
	for c := int32(0); c < 3; c++ {
		require.Equal(t, c, solution.Next(c))
	}
	require.Equal(t, model.End(0), solution.Next(model.Start(0)))
	require.Equal(t, model.End(1), solution.Next(model.Start(1)))

	delta := filters.NewAssignment().Add(model.Start(0), 0).Add(0, int64(model.End(0)))
	solution.Apply(delta)
	require.Equal(t, int32(0), solution.Next(model.Start(0)))
	require.Len(t, solution.ToAssignment().Elements(), 5)
}

func TestModelNodeLayout(t *testing.T) {
	model := NewModel(5, 3)
	require.Equal(t, int32(11), model.NumNodes())
	require.Equal(t, int32(8), model.NumNexts())
	require.False(t, model.IsStart(4))
	require.True(t, model.IsStart(5))
	require.True(t, model.IsEnd(8))
	require.Equal(t, int32(5), model.Start(0))
	require.Equal(t, int32(8), model.End(0))
}

// A load dimension and a threshold-free energy cost with unit distances: the
// energy cost of a path is the sum of carried loads over its transitions,
// which makes the expected objective easy to follow by hand.
func newTestBattery() (*Model, *filters.FilterManager, *Solution) {
	model := NewModel(4, 2)
	demands := []int64{2, 3, 1, 2}
	num_nodes := int(model.NumNodes())

	path_capacity := make([]arith.Interval, 2)
	node_capacity := make([]arith.Interval, num_nodes)
	for v := range path_capacity {
		path_capacity[v] = arith.Interval{Min: 0, Max: 4}
	}
	for n := range node_capacity {
		node_capacity[n] = arith.Interval{Min: 0, Max: 4}
	}
	demand := func(node int32, next int32) arith.Interval {
		if int(next) < len(demands) {
			return arith.Interval{Min: demands[next], Max: demands[next]}
		}
		return arith.Interval{}
	}
	model.AddDimension("load", path_capacity, NewArray[int32](2), []filters.DemandFunc{demand}, node_capacity)

	force := func(node int32) int64 {
		if int(node) < len(demands) {
			return demands[node]
		}
		return 0
	}
	unit := func(node int32, next int32) int64 { return 1 }
	costs := make([]filters.EnergyCost, 2)
	for v := range costs {
		costs[v] = filters.EnergyCost{Threshold: arith.INT64_MAX, CostPerUnitBelowThreshold: 1}
	}
	model.AddEnergyCost("energy", make([]int64, 2), make([]int64, 2),
		NewArray[int32](2), []filters.ForceFunc{force},
		NewArray[int32](2), []filters.DistanceFunc{unit},
		costs, make([]bool, 2))

	path_state := model.BuildPathState()
	manager := model.BuildFilters(path_state, filters.OptimalMinRangeSizeForRIQ)
	solution := model.EmptySolution()
	manager.Synchronize(solution.ToAssignment(), nil)
	return model, manager, solution
}

func TestModelFilterBattery(t *testing.T) {
	model, manager, solution := newTestBattery()
	require.Equal(t, int64(0), manager.GetSynchronizedObjectiveValue())

	commit := func(delta *filters.Assignment) {
		solution.Apply(delta)
		manager.Synchronize(solution.ToAssignment(), delta)
	}

	// Vehicle 0 serves customer 0 (demand 2): one transition carries 2.
	delta := filters.NewAssignment().Add(model.Start(0), 0).Add(0, int64(model.End(0)))
	require.True(t, manager.Accept(delta, arith.INT64_MIN, arith.INT64_MAX))
	commit(delta)
	require.Equal(t, int64(2), manager.GetSynchronizedObjectiveValue())

	// Appending customer 2 (demand 1) carries 2 then 3.
	delta = filters.NewAssignment().Add(0, 2).Add(2, int64(model.End(0)))
	require.True(t, manager.Accept(delta, arith.INT64_MIN, arith.INT64_MAX))
	commit(delta)
	require.Equal(t, int64(5), manager.GetSynchronizedObjectiveValue())

	// Customer 1 (demand 3) does not fit vehicle 0 anymore.
	delta = filters.NewAssignment().Add(2, 1).Add(1, int64(model.End(0)))
	require.False(t, manager.Accept(delta, arith.INT64_MIN, arith.INT64_MAX))

	// It fits vehicle 1, total cost 8; the objective cap can still reject.
	delta = filters.NewAssignment().Add(model.Start(1), 1).Add(1, int64(model.End(1)))
	require.False(t, manager.Accept(delta, arith.INT64_MIN, int64(7)))
	require.True(t, manager.Accept(delta, arith.INT64_MIN, int64(8)))
	commit(delta)
	require.Equal(t, int64(8), manager.GetSynchronizedObjectiveValue())

	// Dropping customer 2 takes its transitions off the bill.
	delta = filters.NewAssignment().Add(0, int64(model.End(0))).Add(2, 2)
	require.True(t, manager.Accept(delta, arith.INT64_MIN, arith.INT64_MAX))
	commit(delta)
	require.Equal(t, int64(5), manager.GetSynchronizedObjectiveValue())
}

func TestCumulScheduler(t *testing.T) {
	model := NewModel(2, 1)
	transit := func(node int32, next int32) int64 { return 1 }
	cumul_min := NewArray[int64](4)
	cumul_min[1] = 5
	cumul_max := NewArray[int64](4)
	cumul_max.Fill(100)
	scheduler := NewCumulScheduler(model, transit, cumul_min, cumul_max)

	solution := model.EmptySolution()
	solution.SetNext(2, 0)
	solution.SetNext(0, 1)
	solution.SetNext(1, 3)

	// Customer 1 opens at 5, the vehicle arrives at 2 and waits 3.
	cost, status := scheduler.ComputeCumulCostWithoutFixedTransits(solution.Next)
	require.Equal(t, filters.SchedulingOptimal, status)
	require.Equal(t, int64(3), cost)

	// The wait pushes the end past a tight deadline.
	cumul_max[3] = 5
	require.Equal(t, filters.SchedulingInfeasible, scheduler.ComputeCumuls(solution.Next))

	// A self-loop next would never reach the end.
	cumul_max[3] = 100
	solution.SetNext(0, 0)
	require.Equal(t, filters.SchedulingInfeasible, scheduler.ComputeCumuls(solution.Next))
}

func TestCumulSchedulerBehindLPFilter(t *testing.T) {
	model := NewModel(2, 1)
	transit := func(node int32, next int32) int64 { return 1 }
	cumul_min := NewArray[int64](4)
	cumul_max := NewArray[int64](4)
	cumul_max.Fill(2)
	scheduler := NewCumulScheduler(model, transit, cumul_min, cumul_max)
	filter := filters.NewLPCumulFilter(model.NumNexts(), model.NumNodes(),
		model.PathStarts(), model.PathEnds(), scheduler, scheduler, false, "time")

	solution := model.EmptySolution()
	filter.Synchronize(solution.ToAssignment(), nil)

	// One visit ends at cumul 2, two would end at 3.
	delta := filters.NewAssignment().Add(2, 0).Add(0, 3)
	require.True(t, filter.Accept(delta, arith.INT64_MIN, arith.INT64_MAX))
	delta = filters.NewAssignment().Add(2, 0).Add(0, 1).Add(1, 3)
	require.False(t, filter.Accept(delta, arith.INT64_MIN, arith.INT64_MAX))
}

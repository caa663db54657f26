package model

import (
	"github.com/ttpr0/go-vrp/arith"
	"github.com/ttpr0/go-vrp/filters"
	. "github.com/ttpr0/go-vrp/util"
)

//*******************************************
// cumul scheduler
//*******************************************

// Solves the cumul scheduling subproblem of a dimension with time windows
// by forward propagation: along every route the cumul is the earliest value
// inside the node's window reachable with the fixed transits. For a single
// dimension without shared resources this greedy schedule is optimal, so
// the result is never relaxation-only.
//
// Used as the oracle behind an LPCumulFilter.
type CumulScheduler struct {
	model     *Model
	transit   filters.TransitFunc
	cumul_min Array[int64]
	cumul_max Array[int64]
}

func NewCumulScheduler(model *Model, transit filters.TransitFunc, cumul_min Array[int64], cumul_max Array[int64]) *CumulScheduler {
	if cumul_min.Length() != int(model.NumNodes()) || cumul_max.Length() != int(model.NumNodes()) {
		panic("cumul bounds must have one entry per node")
	}
	return &CumulScheduler{
		model:     model,
		transit:   transit,
		cumul_min: cumul_min,
		cumul_max: cumul_max,
	}
}

func (self *CumulScheduler) ComputeCumuls(next_accessor func(node int32) int32) filters.DimensionSchedulingStatus {
	_, status := self.schedule(next_accessor)
	return status
}

// The cost beyond the fixed transits is the total waiting time, i.e. the
// sum of cumul increases forced by window minimums.
func (self *CumulScheduler) ComputeCumulCostWithoutFixedTransits(next_accessor func(node int32) int32) (int64, filters.DimensionSchedulingStatus) {
	return self.schedule(next_accessor)
}

func (self *CumulScheduler) schedule(next_accessor func(node int32) int32) (int64, filters.DimensionSchedulingStatus) {
	num_nexts := self.model.NumNexts()
	waiting := int64(0)
	for v := int32(0); v < self.model.NumVehicles(); v++ {
		node := self.model.Start(v)
		cumul := self.cumul_min[node]
		for node < num_nexts {
			next := next_accessor(node)
			if next == node {
				// Malformed route, the walk would not terminate.
				return 0, filters.SchedulingInfeasible
			}
			cumul = arith.CapAdd(cumul, self.transit(node, next))
			if self.cumul_min[next] > cumul {
				waiting += self.cumul_min[next] - cumul
				cumul = self.cumul_min[next]
			}
			if cumul > self.cumul_max[next] {
				return 0, filters.SchedulingInfeasible
			}
			node = next
		}
	}
	return waiting, filters.SchedulingOptimal
}

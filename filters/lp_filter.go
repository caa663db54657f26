package filters

import (
	"github.com/ttpr0/go-vrp/arith"
	. "github.com/ttpr0/go-vrp/util"
)

//*******************************************
// lp cumul filter
//*******************************************

type DimensionSchedulingStatus int32

const (
	// The problem was solved to optimality on the full model.
	SchedulingOptimal DimensionSchedulingStatus = iota
	// Only a relaxation could be solved to optimality, the result is a
	// lower bound and must be confirmed by a stricter solver.
	SchedulingRelaxedOptimalOnly
	SchedulingInfeasible
)

// Solves the cumul scheduling subproblem of one dimension for fixed routes.
// next_accessor returns the candidate successor of a node.
type IDimensionCumulOptimizer interface {
	// Feasibility only.
	ComputeCumuls(next_accessor func(node int32) int32) DimensionSchedulingStatus
	// Minimal dimension cost beyond the fixed transits, e.g. from soft
	// bounds and span costs.
	ComputeCumulCostWithoutFixedTransits(next_accessor func(node int32) int32) (int64, DimensionSchedulingStatus)
}

// Checks a cumul dimension by solving its scheduling subproblem per
// candidate. A relaxation-only result from the fast optimizer is retried on
// the exact one before rejecting. Expensive, meant to run last in a filter
// battery.
type LPCumulFilter struct {
	lp_optimizer          IDimensionCumulOptimizer
	mp_optimizer          IDimensionCumulOptimizer
	filter_objective_cost bool
	name                  string

	num_nexts    int32
	path_starts  Array[int32]
	start_to_end Array[int32]
	synced_value Array[int32]
	is_synced    Array[bool]

	synchronized_cost_without_transit int64
	delta_cost_without_transit        int64
	delta_touched                     sparseSet
	delta_nexts                       Array[int32]
}

func NewLPCumulFilter(num_nexts int32, num_nodes int32, path_starts Array[int32], path_ends Array[int32], lp_optimizer IDimensionCumulOptimizer, mp_optimizer IDimensionCumulOptimizer, filter_objective_cost bool, dimension_name string) *LPCumulFilter {
	self := &LPCumulFilter{
		lp_optimizer:                      lp_optimizer,
		mp_optimizer:                      mp_optimizer,
		filter_objective_cost:             filter_objective_cost,
		name:                              dimension_name,
		num_nexts:                         num_nexts,
		path_starts:                       path_starts,
		start_to_end:                      NewArray[int32](int(num_nodes)),
		synced_value:                      NewArray[int32](int(num_nexts)),
		is_synced:                         NewArray[bool](int(num_nexts)),
		synchronized_cost_without_transit: -1,
		delta_cost_without_transit:        -1,
		delta_touched:                     newSparseSet(num_nexts),
		delta_nexts:                       NewArray[int32](int(num_nexts)),
	}
	self.start_to_end.Fill(-1)
	for p := 0; p < path_starts.Length(); p++ {
		self.start_to_end[path_starts[p]] = path_ends[p]
	}
	return self
}

func (self *LPCumulFilter) String() string {
	return "LPCumulFilter(" + self.name + ")"
}

func (self *LPCumulFilter) Relax(delta *Assignment) {}

func (self *LPCumulFilter) Revert() {}

func (self *LPCumulFilter) Accept(delta *Assignment, objective_min int64, objective_max int64) bool {
	self.delta_touched.SparseClearAll()
	for _, element := range delta.Elements() {
		index := element.Var
		if index < 0 || index >= self.num_nexts {
			continue
		}
		if !element.Bound {
			// LNS detected.
			return true
		}
		self.delta_touched.Set(index)
		self.delta_nexts[index] = int32(element.Value)
	}
	next_accessor := func(node int32) int32 {
		if self.delta_touched.Contains(node) {
			return self.delta_nexts[node]
		}
		return self.synced_value[node]
	}

	if !self.filter_objective_cost {
		// Only feasibility matters.
		self.delta_cost_without_transit = 0
		status := self.lp_optimizer.ComputeCumuls(next_accessor)
		if status == SchedulingOptimal {
			return true
		}
		if status == SchedulingRelaxedOptimalOnly &&
			self.mp_optimizer.ComputeCumuls(next_accessor) == SchedulingOptimal {
			return true
		}
		return false
	}

	cost, status := self.lp_optimizer.ComputeCumulCostWithoutFixedTransits(next_accessor)
	self.delta_cost_without_transit = cost
	if status == SchedulingInfeasible {
		self.delta_cost_without_transit = arith.INT64_MAX
		return false
	}
	if self.delta_cost_without_transit > objective_max {
		return false
	}

	if status == SchedulingRelaxedOptimalOnly {
		cost, status = self.mp_optimizer.ComputeCumulCostWithoutFixedTransits(next_accessor)
		self.delta_cost_without_transit = cost
		if status != SchedulingOptimal {
			self.delta_cost_without_transit = arith.INT64_MAX
			return false
		}
	}
	return self.delta_cost_without_transit <= objective_max
}

func (self *LPCumulFilter) Synchronize(assignment *Assignment, delta *Assignment) {
	if !delta.Empty() {
		self.synchronizeValues(delta)
	} else {
		self.synchronizeValues(assignment)
	}

	next_accessor := func(node int32) int32 {
		if node < self.num_nexts && self.is_synced[node] {
			return self.synced_value[node]
		}
		if end := self.start_to_end[node]; end != -1 {
			// Unsynced start, treat the path as empty.
			return end
		}
		return node
	}

	var status DimensionSchedulingStatus
	if self.filter_objective_cost {
		self.synchronized_cost_without_transit, status =
			self.lp_optimizer.ComputeCumulCostWithoutFixedTransits(next_accessor)
	} else {
		self.synchronized_cost_without_transit = 0
		status = self.lp_optimizer.ComputeCumuls(next_accessor)
	}
	if status == SchedulingInfeasible {
		// Happens on solver timeouts only, the synchronized solution itself
		// is feasible.
		self.synchronized_cost_without_transit = 0
	}
	if status == SchedulingRelaxedOptimalOnly {
		if self.filter_objective_cost {
			self.synchronized_cost_without_transit, status =
				self.mp_optimizer.ComputeCumulCostWithoutFixedTransits(next_accessor)
		} else {
			status = self.mp_optimizer.ComputeCumuls(next_accessor)
		}
		if status != SchedulingOptimal {
			self.synchronized_cost_without_transit = 0
		}
	}
}

func (self *LPCumulFilter) synchronizeValues(assignment *Assignment) {
	for _, element := range assignment.Elements() {
		index := element.Var
		if index < 0 || index >= self.num_nexts {
			continue
		}
		if element.Bound {
			self.synced_value[index] = int32(element.Value)
			self.is_synced[index] = true
		} else {
			self.is_synced[index] = false
		}
	}
}

func (self *LPCumulFilter) GetAcceptedObjectiveValue() int64 {
	return self.delta_cost_without_transit
}

func (self *LPCumulFilter) GetSynchronizedObjectiveValue() int64 {
	return self.synchronized_cost_without_transit
}

package filters

import (
	. "github.com/ttpr0/go-vrp/util"
)

//*******************************************
// filter interface
//*******************************************

// A local-search filter. The search loop calls, per candidate move:
//
//	Relax(delta) on every filter, then Accept(delta, ...) on every filter.
//
// If all filters accept, the move is applied and Synchronize(...) is called
// on every filter, otherwise Revert() is. Filters keep their committed state
// between calls, so infeasibility checks stay incremental.
type IFilter interface {
	// Prepares the filter for the given candidate delta.
	Relax(delta *Assignment)
	// Whether the candidate delta keeps the solution feasible and inside
	// [objective_min, objective_max]. Returning false rejects the move.
	Accept(delta *Assignment, objective_min int64, objective_max int64) bool
	// Folds an accepted move into the committed state. assignment carries
	// the full solution, delta the accepted change.
	Synchronize(assignment *Assignment, delta *Assignment)
	// Drops the pending candidate state.
	Revert()

	GetSynchronizedObjectiveValue() int64
	GetAcceptedObjectiveValue() int64
}

// Embeddable default for filters that do not contribute to the objective.
type NoObjective struct{}

func (self NoObjective) GetSynchronizedObjectiveValue() int64 {
	return 0
}

func (self NoObjective) GetAcceptedObjectiveValue() int64 {
	return 0
}

//*******************************************
// filter manager
//*******************************************

// Runs a battery of filters. Order matters: the PathStateFilter must come
// before any filter reading its PathState, so its Relax runs first and its
// Synchronize (which commits the PathState and clears the changed sets)
// runs last.
type FilterManager struct {
	filters List[IFilter]
}

func NewFilterManager(filters ...IFilter) *FilterManager {
	manager := &FilterManager{
		filters: NewList[IFilter](len(filters)),
	}
	for _, filter := range filters {
		manager.filters.Add(filter)
	}
	return manager
}

// Appends a filter behind the existing battery.
func (self *FilterManager) Add(filter IFilter) {
	self.filters.Add(filter)
}

// Checks a candidate delta against all filters. On rejection all filters
// are reverted, the caller only has to pick another move.
func (self *FilterManager) Accept(delta *Assignment, objective_min int64, objective_max int64) bool {
	for _, filter := range self.filters {
		filter.Relax(delta)
	}
	for _, filter := range self.filters {
		if !filter.Accept(delta, objective_min, objective_max) {
			self.Revert()
			return false
		}
	}
	return true
}

// Folds an accepted change into all filters. Filters are relaxed in order
// first so the change is visible again, then synchronized in reverse order:
// checkers fold the pending PathState change into their committed structures
// before the PathStateFilter commits the PathState itself.
func (self *FilterManager) Synchronize(assignment *Assignment, delta *Assignment) {
	if delta.Empty() {
		for _, filter := range self.filters {
			filter.Relax(assignment)
		}
	} else {
		for _, filter := range self.filters {
			filter.Relax(delta)
		}
	}
	for i := self.filters.Length() - 1; i >= 0; i-- {
		self.filters.Get(i).Synchronize(assignment, delta)
	}
}

func (self *FilterManager) Revert() {
	for i := self.filters.Length() - 1; i >= 0; i-- {
		self.filters.Get(i).Revert()
	}
}

func (self *FilterManager) GetSynchronizedObjectiveValue() int64 {
	value := int64(0)
	for _, filter := range self.filters {
		value += filter.GetSynchronizedObjectiveValue()
	}
	return value
}

func (self *FilterManager) GetAcceptedObjectiveValue() int64 {
	value := int64(0)
	for _, filter := range self.filters {
		value += filter.GetAcceptedObjectiveValue()
	}
	return value
}

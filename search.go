package main

import (
	"fmt"
	"math/rand"

	"github.com/ttpr0/go-vrp/arith"
	"github.com/ttpr0/go-vrp/filters"
	"github.com/ttpr0/go-vrp/model"
	. "github.com/ttpr0/go-vrp/util"
	"golang.org/x/exp/slog"
)

//**********************************************************
// local search
//**********************************************************

// Runs a randomized relocate search over the filter battery: per iteration
// one customer is moved to a random position (or unrouted), the candidate
// delta is checked by the filters and synchronized if it improves the
// objective.
type LocalSearch struct {
	model    *model.Model
	manager  *filters.FilterManager
	solution *model.Solution
	// Predecessor of every routed node, -1 for loops. Kept in sync with
	// solution so relocate deltas can be built in O(1).
	prevs Array[int32]
	rng   *rand.Rand
	cost  int64
}

func NewLocalSearch(m *model.Model, manager *filters.FilterManager, seed int64) *LocalSearch {
	self := &LocalSearch{
		model:    m,
		manager:  manager,
		solution: m.EmptySolution(),
		prevs:    NewArray[int32](int(m.NumNodes())),
		rng:      rand.New(rand.NewSource(seed)),
	}
	self.rebuildPrevs()
	manager.Synchronize(self.solution.ToAssignment(), nil)
	self.cost = manager.GetSynchronizedObjectiveValue()
	return self
}

func (self *LocalSearch) Cost() int64 {
	return self.cost
}

func (self *LocalSearch) Solution() *model.Solution {
	return self.solution
}

func (self *LocalSearch) rebuildPrevs() {
	self.prevs.Fill(-1)
	num_nexts := self.model.NumNexts()
	for v := int32(0); v < self.model.NumVehicles(); v++ {
		node := self.model.Start(v)
		for node < num_nexts {
			next := self.solution.Next(node)
			if next == node {
				break
			}
			self.prevs[next] = node
			node = next
		}
	}
}

func (self *LocalSearch) Run(iterations int) {
	accepted := 0
	for i := 0; i < iterations; i++ {
		delta := self.randomRelocate()
		if delta == nil {
			continue
		}
		// Only strictly improving candidates are accepted, the search is a
		// plain descent.
		if !self.manager.Accept(delta, arith.INT64_MIN, self.cost-1) {
			continue
		}
		accepted++
		self.applyMove(delta)
		self.manager.Synchronize(self.solution.ToAssignment(), delta)
		self.cost = self.manager.GetSynchronizedObjectiveValue()
	}
	slog.Info(fmt.Sprintf("search done: %v/%v moves accepted, cost %v", accepted, iterations, self.cost))
}

// Builds a relocate delta: a random customer is cut out of its path (or
// taken from the unrouted pool) and inserted after a random routed node,
// or dropped entirely.
func (self *LocalSearch) randomRelocate() *filters.Assignment {
	num_customers := self.model.NumCustomers()
	if num_customers == 0 {
		return nil
	}
	customer := self.rng.Int31n(num_customers)
	prev := self.prevs[customer]

	// Dropping a routed customer.
	if prev != -1 && self.rng.Intn(10) == 0 {
		return filters.NewAssignment().
			Add(prev, int64(self.solution.Next(customer))).
			Add(customer, int64(customer))
	}

	// Insertion position: after a random routed node, path starts included.
	target := self.randomRoutedNode()
	if target == -1 || target == customer || target == prev {
		return nil
	}
	delta := filters.NewAssignment()
	if prev != -1 {
		delta.Add(prev, int64(self.solution.Next(customer)))
	}
	delta.Add(customer, int64(self.solution.Next(target)))
	delta.Add(target, int64(customer))
	return delta
}

func (self *LocalSearch) randomRoutedNode() int32 {
	num_nexts := self.model.NumNexts()
	for attempt := 0; attempt < 8; attempt++ {
		node := self.rng.Int31n(num_nexts)
		if self.model.IsStart(node) {
			return node
		}
		if self.prevs[node] != -1 {
			return node
		}
	}
	return -1
}

func (self *LocalSearch) applyMove(delta *filters.Assignment) {
	self.solution.Apply(delta)
	for _, element := range delta.Elements() {
		node := element.Var
		next := int32(element.Value)
		if next == node {
			self.prevs[node] = -1
		} else {
			self.prevs[next] = node
		}
	}
}

//**********************************************************
// route output
//**********************************************************

func (self *LocalSearch) LogRoutes() {
	num_nexts := self.model.NumNexts()
	for v := int32(0); v < self.model.NumVehicles(); v++ {
		route := NewList[int32](8)
		node := self.model.Start(v)
		for node < num_nexts {
			route.Add(node)
			node = self.solution.Next(node)
		}
		route.Add(node)
		slog.Info(fmt.Sprintf("vehicle %v: %v", v, route))
	}
}

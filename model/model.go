package model

import (
	"github.com/ttpr0/go-vrp/arith"
	"github.com/ttpr0/go-vrp/filters"
	"github.com/ttpr0/go-vrp/state"
	. "github.com/ttpr0/go-vrp/util"
)

//*******************************************
// routing model
//*******************************************

// Topology of a routing problem: customers and one start/end node pair per
// vehicle, plus the dimensions and energy costs defined on them.
//
// Node layout: customers occupy [0, num_customers), vehicle starts
// [num_customers, num_customers+num_vehicles) and vehicle ends the ids
// behind that. Every node except the ends has a next-variable, so the
// filters' "node < num_nexts" walk terminates at path ends.
type Model struct {
	num_customers int32
	num_vehicles  int32
	path_starts   Array[int32]
	path_ends     Array[int32]

	dimensions List[*Dimension]
	energies   List[*Energy]
}

// One capacity dimension: per-path and per-node cumul bounds with a demand
// evaluator per path class.
type Dimension struct {
	name             string
	path_capacity    []arith.Interval
	path_class       Array[int32]
	demand_per_class []filters.DemandFunc
	node_capacity    []arith.Interval
}

func (self *Dimension) Name() string {
	return self.name
}

// One energy cost: force and distance evaluators per path class, start/end
// force bounds and the piecewise cost per path.
type Energy struct {
	name                string
	force_start_min     []int64
	force_end_min       []int64
	force_class         Array[int32]
	force_per_class     []filters.ForceFunc
	distance_class      Array[int32]
	distance_per_class  []filters.DistanceFunc
	cost                []filters.EnergyCost
	has_cost_when_empty []bool
}

func (self *Energy) Name() string {
	return self.name
}

func NewModel(num_customers int32, num_vehicles int32) *Model {
	self := &Model{
		num_customers: num_customers,
		num_vehicles:  num_vehicles,
		path_starts:   NewArray[int32](int(num_vehicles)),
		path_ends:     NewArray[int32](int(num_vehicles)),
		dimensions:    NewList[*Dimension](2),
		energies:      NewList[*Energy](1),
	}
	for v := int32(0); v < num_vehicles; v++ {
		self.path_starts[v] = num_customers + v
		self.path_ends[v] = num_customers + num_vehicles + v
	}
	return self
}

func (self *Model) NumCustomers() int32 {
	return self.num_customers
}

func (self *Model) NumVehicles() int32 {
	return self.num_vehicles
}

func (self *Model) NumNodes() int32 {
	return self.num_customers + 2*self.num_vehicles
}

// Number of next-variables, path ends have none.
func (self *Model) NumNexts() int32 {
	return self.num_customers + self.num_vehicles
}

func (self *Model) Start(vehicle int32) int32 {
	return self.path_starts[vehicle]
}

func (self *Model) End(vehicle int32) int32 {
	return self.path_ends[vehicle]
}

func (self *Model) PathStarts() Array[int32] {
	return self.path_starts
}

func (self *Model) PathEnds() Array[int32] {
	return self.path_ends
}

func (self *Model) IsStart(node int32) bool {
	return node >= self.num_customers && node < self.num_customers+self.num_vehicles
}

func (self *Model) IsEnd(node int32) bool {
	return node >= self.num_customers+self.num_vehicles
}

// Adds a capacity dimension with one demand evaluator per path class.
// path_capacity and path_class have one entry per vehicle, node_capacity one
// per node.
func (self *Model) AddDimension(name string, path_capacity []arith.Interval, path_class Array[int32], demand_per_class []filters.DemandFunc, node_capacity []arith.Interval) *Dimension {
	if len(path_capacity) != int(self.num_vehicles) || path_class.Length() != int(self.num_vehicles) {
		panic("dimension must have one capacity and class per vehicle")
	}
	if len(node_capacity) != int(self.NumNodes()) {
		panic("dimension must have one node capacity per node")
	}
	dimension := &Dimension{
		name:             name,
		path_capacity:    path_capacity,
		path_class:       path_class,
		demand_per_class: demand_per_class,
		node_capacity:    node_capacity,
	}
	self.dimensions.Add(dimension)
	return dimension
}

// Adds an energy cost term with force/distance evaluators per path class.
func (self *Model) AddEnergyCost(name string, force_start_min []int64, force_end_min []int64, force_class Array[int32], force_per_class []filters.ForceFunc, distance_class Array[int32], distance_per_class []filters.DistanceFunc, cost []filters.EnergyCost, has_cost_when_empty []bool) *Energy {
	if len(cost) != int(self.num_vehicles) {
		panic("energy cost must have one entry per vehicle")
	}
	energy := &Energy{
		name:                name,
		force_start_min:     force_start_min,
		force_end_min:       force_end_min,
		force_class:         force_class,
		force_per_class:     force_per_class,
		distance_class:      distance_class,
		distance_per_class:  distance_per_class,
		cost:                cost,
		has_cost_when_empty: has_cost_when_empty,
	}
	self.energies.Add(energy)
	return energy
}

func (self *Model) Dimensions() []*Dimension {
	return self.dimensions
}

func (self *Model) Energies() []*Energy {
	return self.energies
}

//*******************************************
// building the filter battery
//*******************************************

func (self *Model) BuildPathState() *state.PathState {
	return state.NewPathState(self.NumNodes(), self.path_starts, self.path_ends)
}

// Builds the filter battery over a PathState: the PathStateFilter first,
// then one DimensionFilter per dimension and one PathEnergyCostFilter per
// energy term. Cheap filters run before expensive ones.
func (self *Model) BuildFilters(path_state *state.PathState, min_range_size_for_riq int32) *filters.FilterManager {
	battery := NewList[filters.IFilter](1 + self.dimensions.Length() + self.energies.Length())
	battery.Add(filters.NewPathStateFilter(path_state))
	for _, dimension := range self.dimensions {
		checker := filters.NewDimensionChecker(path_state,
			dimension.path_capacity, dimension.path_class,
			dimension.demand_per_class, dimension.node_capacity,
			min_range_size_for_riq)
		battery.Add(filters.NewDimensionFilter(checker, dimension.name))
	}
	for _, energy := range self.energies {
		checker := filters.NewPathEnergyCostChecker(path_state,
			energy.force_start_min, energy.force_end_min,
			energy.force_class, energy.force_per_class,
			energy.distance_class, energy.distance_per_class,
			energy.cost, energy.has_cost_when_empty)
		battery.Add(filters.NewPathEnergyCostFilter(checker, energy.name))
	}
	return filters.NewFilterManager(battery...)
}

//*******************************************
// solutions
//*******************************************

// A solution as plain next-values, indexed by node. Unrouted customers are
// loops (next(node) == node).
type Solution struct {
	nexts Array[int32]
}

// The empty solution: every vehicle goes from start to end directly, all
// customers are loops.
func (self *Model) EmptySolution() *Solution {
	nexts := NewArray[int32](int(self.NumNexts()))
	for node := int32(0); node < self.num_customers; node++ {
		nexts[node] = node
	}
	for v := int32(0); v < self.num_vehicles; v++ {
		nexts[self.Start(v)] = self.End(v)
	}
	return &Solution{nexts: nexts}
}

func (self *Solution) Next(node int32) int32 {
	return self.nexts[node]
}

func (self *Solution) SetNext(node int32, next int32) {
	self.nexts[node] = next
}

func (self *Solution) NumNexts() int32 {
	return int32(self.nexts.Length())
}

// The full solution as an assignment, used on synchronization.
func (self *Solution) ToAssignment() *filters.Assignment {
	assignment := filters.NewAssignment()
	for node := 0; node < self.nexts.Length(); node++ {
		assignment.Add(int32(node), int64(self.nexts[node]))
	}
	return assignment
}

// Applies an accepted delta to the stored next-values.
func (self *Solution) Apply(delta *filters.Assignment) {
	for _, element := range delta.Elements() {
		if !element.Bound {
			continue
		}
		self.nexts[element.Var] = int32(element.Value)
	}
}

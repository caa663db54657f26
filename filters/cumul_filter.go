package filters

import (
	"github.com/ttpr0/go-vrp/arith"
	. "github.com/ttpr0/go-vrp/util"
)

//*******************************************
// chain cumul filter
//*******************************************

// Transit of the arc node -> next for one vehicle.
type TransitFunc func(node int32, next int32) int64

// Checks one cumul dimension in O(delta) instead of O(touched path length).
// Only supports dimensions whose cumuls are unconstrained except for the
// vehicle capacity and the bounds of path ends.
type ChainCumulFilter struct {
	*BasePathFilter
	BasePathFilterHooks

	cumul_min Array[int64]
	cumul_max Array[int64]

	start_to_vehicle   Array[int32]
	start_to_end       Array[int32]
	evaluators         []TransitFunc
	vehicle_capacities []int64

	// Propagated cumul mins of the synchronized paths, and per node the
	// maximum of the cumul mins from the node to its path end.
	current_path_cumul_mins            Array[int64]
	current_max_of_path_end_cumul_mins Array[int64]
	old_nexts                          Array[int32]
	old_vehicles                       Array[int32]
	current_transits                   Array[int64]
	name                               string
}

func NewChainCumulFilter(num_nexts int32, num_nodes int32, path_starts Array[int32], path_ends Array[int32], cumul_min Array[int64], cumul_max Array[int64], evaluators []TransitFunc, vehicle_capacities []int64, dimension_name string) *ChainCumulFilter {
	self := &ChainCumulFilter{
		cumul_min:                          cumul_min,
		cumul_max:                          cumul_max,
		start_to_vehicle:                   NewArray[int32](int(num_nodes)),
		start_to_end:                       NewArray[int32](int(num_nodes)),
		evaluators:                         evaluators,
		vehicle_capacities:                 vehicle_capacities,
		current_path_cumul_mins:            NewArray[int64](int(num_nodes)),
		current_max_of_path_end_cumul_mins: NewArray[int64](int(num_nodes)),
		old_nexts:                          NewArray[int32](int(num_nexts)),
		old_vehicles:                       NewArray[int32](int(num_nexts)),
		current_transits:                   NewArray[int64](int(num_nexts)),
		name:                               dimension_name,
	}
	self.start_to_vehicle.Fill(-1)
	self.start_to_end.Fill(-1)
	self.old_nexts.Fill(unassigned)
	self.old_vehicles.Fill(unassigned)
	for v := 0; v < path_starts.Length(); v++ {
		self.start_to_vehicle[path_starts[v]] = int32(v)
		self.start_to_end[path_starts[v]] = path_ends[v]
	}
	self.BasePathFilter = NewBasePathFilter(num_nexts, num_nodes, path_starts, path_ends, self)
	return self
}

func (self *ChainCumulFilter) String() string {
	return "ChainCumulFilter(" + self.name + ")"
}

// Propagates cumul mins along the synchronized path and caches per node the
// running maximum towards the path end, used by AcceptPath.
func (self *ChainCumulFilter) OnSynchronizePathFromStart(start int32) {
	vehicle := self.start_to_vehicle[start]
	path_nodes := NewList[int32](8)
	node := start
	cumul := self.cumul_min[node]
	for node < self.Size() {
		path_nodes.Add(node)
		self.current_path_cumul_mins[node] = cumul
		next := self.Value(node)
		if next != self.old_nexts[node] || vehicle != self.old_vehicles[node] {
			self.old_nexts[node] = next
			self.old_vehicles[node] = vehicle
			self.current_transits[node] = self.evaluators[vehicle](node, next)
		}
		cumul = arith.CapAdd(cumul, self.current_transits[node])
		if self.cumul_min[next] > cumul {
			cumul = self.cumul_min[next]
		}
		node = next
	}
	path_nodes.Add(node)
	self.current_path_cumul_mins[node] = cumul
	max_cumuls := cumul
	for i := path_nodes.Length() - 1; i >= 0; i-- {
		node := path_nodes[i]
		if self.current_path_cumul_mins[node] > max_cumuls {
			max_cumuls = self.current_path_cumul_mins[node]
		}
		self.current_max_of_path_end_cumul_mins[node] = max_cumuls
	}
}

// O(chain size): walks the touched chain with candidate nexts, then bounds
// the rest of the path with the cached values.
func (self *ChainCumulFilter) AcceptPath(path_start int32, chain_start int32, chain_end int32) bool {
	vehicle := self.start_to_vehicle[path_start]
	capacity := self.vehicle_capacities[vehicle]
	node := chain_start
	cumul := self.current_path_cumul_mins[node]
	for node != chain_end {
		next := self.GetNext(node)
		if self.IsVarSynced(node) && next == self.Value(node) && vehicle == self.old_vehicles[node] {
			cumul = arith.CapAdd(cumul, self.current_transits[node])
		} else {
			cumul = arith.CapAdd(cumul, self.evaluators[vehicle](node, next))
		}
		if self.cumul_min[next] > cumul {
			cumul = self.cumul_min[next]
		}
		if cumul > capacity {
			return false
		}
		node = next
	}
	end := self.start_to_end[path_start]
	end_cumul_delta := arith.CapSub(self.current_path_cumul_mins[end], self.current_path_cumul_mins[node])
	after_chain_cumul_delta := arith.CapSub(self.current_max_of_path_end_cumul_mins[node], self.current_path_cumul_mins[node])
	return arith.CapAdd(cumul, after_chain_cumul_delta) <= capacity &&
		arith.CapAdd(cumul, end_cumul_delta) <= self.cumul_max[end]
}

//*******************************************
// vehicle amortized cost filter
//*******************************************

// Objective filter for amortized vehicle costs: a used vehicle costs its
// linear factor minus its quadratic factor times the squared route length
// (number of visits). Tracked incrementally per touched path.
type VehicleAmortizedCostFilter struct {
	*BasePathFilter
	BasePathFilterHooks

	current_vehicle_cost int64
	delta_vehicle_cost   int64
	// Route length per start node, -1 before the first synchronization.
	current_route_lengths Array[int32]
	start_to_end          Array[int32]
	start_to_vehicle      Array[int32]
	vehicle_to_start      Array[int32]
	linear_cost_factor    []int64
	quadratic_cost_factor []int64
}

func NewVehicleAmortizedCostFilter(num_nexts int32, num_nodes int32, path_starts Array[int32], path_ends Array[int32], linear_cost_factor []int64, quadratic_cost_factor []int64) *VehicleAmortizedCostFilter {
	num_vehicles := path_starts.Length()
	self := &VehicleAmortizedCostFilter{
		current_route_lengths: NewArray[int32](int(num_nodes)),
		start_to_end:          NewArray[int32](int(num_nodes)),
		start_to_vehicle:      NewArray[int32](int(num_nodes)),
		vehicle_to_start:      NewArray[int32](num_vehicles),
		linear_cost_factor:    linear_cost_factor,
		quadratic_cost_factor: quadratic_cost_factor,
	}
	self.current_route_lengths.Fill(-1)
	self.start_to_end.Fill(-1)
	self.start_to_vehicle.Fill(-1)
	for v := 0; v < num_vehicles; v++ {
		start := path_starts[v]
		self.start_to_vehicle[start] = int32(v)
		self.start_to_end[start] = path_ends[v]
		self.vehicle_to_start[v] = start
	}
	self.BasePathFilter = NewBasePathFilter(num_nexts, num_nodes, path_starts, path_ends, self)
	return self
}

func (self *VehicleAmortizedCostFilter) String() string {
	return "VehicleAmortizedCostFilter"
}

func (self *VehicleAmortizedCostFilter) GetSynchronizedObjectiveValue() int64 {
	return self.current_vehicle_cost
}

func (self *VehicleAmortizedCostFilter) GetAcceptedObjectiveValue() int64 {
	if self.LnsDetected() {
		return 0
	}
	return self.delta_vehicle_cost
}

func (self *VehicleAmortizedCostFilter) OnSynchronizePathFromStart(start int32) {
	end := self.start_to_end[start]
	route_length := self.Rank(end) - 1
	self.current_route_lengths[start] = route_length
}

func (self *VehicleAmortizedCostFilter) OnAfterSynchronizePaths() {
	self.current_vehicle_cost = 0
	for vehicle := 0; vehicle < self.vehicle_to_start.Length(); vehicle++ {
		start := self.vehicle_to_start[vehicle]
		if !self.IsVarSynced(start) {
			return
		}
		route_length := self.current_route_lengths[start]
		if route_length == 0 {
			// The path is empty.
			continue
		}
		linear_cost_factor := self.linear_cost_factor[vehicle]
		route_length_cost := arith.CapProd(self.quadratic_cost_factor[vehicle], int64(route_length)*int64(route_length))
		self.current_vehicle_cost = arith.CapAdd(self.current_vehicle_cost, arith.CapSub(linear_cost_factor, route_length_cost))
	}
}

func (self *VehicleAmortizedCostFilter) InitializeAcceptPath() bool {
	self.delta_vehicle_cost = self.current_vehicle_cost
	return true
}

func (self *VehicleAmortizedCostFilter) AcceptPath(path_start int32, chain_start int32, chain_end int32) bool {
	// Nodes previously between chain_start and chain_end.
	previous_chain_nodes := self.Rank(chain_end) - 1 - self.Rank(chain_start)
	new_chain_nodes := int32(0)
	node := self.GetNext(chain_start)
	for node != chain_end {
		new_chain_nodes++
		node = self.GetNext(node)
	}

	previous_route_length := self.current_route_lengths[path_start]
	new_route_length := previous_route_length - previous_chain_nodes + new_chain_nodes

	vehicle := self.start_to_vehicle[path_start]

	if previous_route_length == 0 {
		// The route was empty and is used now.
		self.delta_vehicle_cost = arith.CapAdd(self.delta_vehicle_cost, self.linear_cost_factor[vehicle])
	} else if new_route_length == 0 {
		// The route becomes empty.
		self.delta_vehicle_cost = arith.CapSub(self.delta_vehicle_cost, self.linear_cost_factor[vehicle])
	}

	quadratic_cost_factor := self.quadratic_cost_factor[vehicle]
	self.delta_vehicle_cost = arith.CapAdd(self.delta_vehicle_cost,
		arith.CapProd(quadratic_cost_factor, int64(previous_route_length)*int64(previous_route_length)))
	self.delta_vehicle_cost = arith.CapSub(self.delta_vehicle_cost,
		arith.CapProd(quadratic_cost_factor, int64(new_route_length)*int64(new_route_length)))

	return true
}

func (self *VehicleAmortizedCostFilter) FinalizeAcceptPath(objective_min int64, objective_max int64) bool {
	return self.delta_vehicle_cost <= objective_max
}

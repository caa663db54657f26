package filters

import (
	"github.com/ttpr0/go-vrp/arith"
	"github.com/ttpr0/go-vrp/rangequery"
	"github.com/ttpr0/go-vrp/state"
	. "github.com/ttpr0/go-vrp/util"
)

//*******************************************
// path energy cost checker
//*******************************************

// Force carried by a path after visiting a node, e.g. remaining load.
type ForceFunc func(node int32) int64

// Distance of the arc node -> next for one path class.
type DistanceFunc func(node int32, next int32) int64

// Piecewise linear cost of the energy spent by a path. Energy of an arc is
// force * distance, the part of the force below Threshold is billed at
// CostPerUnitBelowThreshold, the part above at CostPerUnitAboveThreshold.
type EnergyCost struct {
	Threshold                 int64
	CostPerUnitBelowThreshold int64
	CostPerUnitAboveThreshold int64
}

func (self EnergyCost) IsNull() bool {
	return (self.CostPerUnitBelowThreshold == 0 || self.Threshold == 0) &&
		(self.CostPerUnitAboveThreshold == 0 || self.Threshold == arith.INT64_MAX)
}

// Incrementally computes the total energy cost of all paths of a PathState.
// Committed paths are preprocessed into a range-minimum table over force
// prefix sums and two weighted wavelet trees (energy and distance per
// transition, keyed by force prefix sum), so the cost contribution of an
// unchanged chain is computed in O(log(chain size)).
type PathEnergyCostChecker struct {
	path_state *state.PathState

	force_start_min    []int64
	force_end_min      []int64
	force_class        Array[int32]
	force_per_class    []ForceFunc
	distance_class     Array[int32]
	distance_per_class []DistanceFunc
	path_energy_cost   []EnergyCost
	// An empty path has two nodes. Paths with no cost when empty get cost 0
	// regardless of start/end force bounds.
	path_has_cost_when_empty []bool

	committed_total_cost int64
	accepted_total_cost  int64
	committed_path_cost  []int64

	cached_force    Array[int64]
	cached_distance Array[int64]

	// force_rmq holds, per committed node, the force prefix sum from the
	// path start with a zero start offset. The wavelet trees hold one
	// element per committed transition: its height is the force prefix sum
	// at the transition's tail, its weight the transition's energy (resp.
	// distance).
	force_rmq                     rangequery.RangeMinimumQuery
	energy_query                  rangequery.WeightedWaveletTree
	distance_query                rangequery.WeightedWaveletTree
	force_rmq_index_of_node       Array[int32]
	threshold_query_index_of_node Array[int32]
	maximum_range_query_size      int
}

func NewPathEnergyCostChecker(path_state *state.PathState, force_start_min []int64, force_end_min []int64, force_class Array[int32], force_per_class []ForceFunc, distance_class Array[int32], distance_per_class []DistanceFunc, path_energy_cost []EnergyCost, path_has_cost_when_empty []bool) *PathEnergyCostChecker {
	num_nodes := int(path_state.NumNodes())
	num_paths := int(path_state.NumPaths())
	self := &PathEnergyCostChecker{
		path_state:                    path_state,
		force_start_min:               force_start_min,
		force_end_min:                 force_end_min,
		force_class:                   force_class,
		force_per_class:               force_per_class,
		distance_class:                distance_class,
		distance_per_class:            distance_per_class,
		path_energy_cost:              path_energy_cost,
		path_has_cost_when_empty:      path_has_cost_when_empty,
		committed_path_cost:           make([]int64, num_paths),
		cached_force:                  NewArray[int64](num_nodes),
		cached_distance:               NewArray[int64](num_nodes),
		force_rmq_index_of_node:       NewArray[int32](num_nodes),
		threshold_query_index_of_node: NewArray[int32](num_nodes),
		maximum_range_query_size:      4 * num_nodes,
	}
	self.fullCacheAndPrecompute()
	self.committed_total_cost = 0
	for path := 0; path < num_paths; path++ {
		self.committed_path_cost[path] = self.computePathCost(int32(path))
		self.committed_total_cost = arith.CapAdd(self.committed_total_cost, self.committed_path_cost[path])
	}
	self.accepted_total_cost = self.committed_total_cost
	return self
}

// Whether the pending change keeps the total cost finite. Updates the
// accepted cost as committed cost plus the changed paths' cost deltas.
func (self *PathEnergyCostChecker) Check() bool {
	if self.path_state.IsInvalid() {
		return true
	}
	self.accepted_total_cost = self.committed_total_cost
	for _, path := range self.path_state.ChangedPaths() {
		self.accepted_total_cost = arith.CapSub(self.accepted_total_cost, self.committed_path_cost[path])
		self.accepted_total_cost = arith.CapAdd(self.accepted_total_cost, self.computePathCost(path))
		if self.accepted_total_cost == arith.INT64_MAX {
			return false
		}
	}
	return true
}

func (self *PathEnergyCostChecker) AcceptedCost() int64 {
	return self.accepted_total_cost
}

func (self *PathEnergyCostChecker) CommittedCost() int64 {
	return self.committed_total_cost
}

// Folds the pending PathState change into the committed costs and range
// query structures. Must run before PathState.Commit() clears the changed
// paths.
func (self *PathEnergyCostChecker) Commit() {
	change_size := len(self.path_state.ChangedPaths())
	for _, path := range self.path_state.ChangedPaths() {
		chains := self.path_state.Chains(path)
		for c := 0; c < chains.Length(); c++ {
			change_size += chains.Get(c).NumNodes()
		}
		self.committed_total_cost = arith.CapSub(self.committed_total_cost, self.committed_path_cost[path])
		self.committed_path_cost[path] = self.computePathCost(path)
		self.committed_total_cost = arith.CapAdd(self.committed_total_cost, self.committed_path_cost[path])
	}

	current_layer_size := self.force_rmq.TableSize()
	if current_layer_size+change_size <= self.maximum_range_query_size {
		self.incrementalCacheAndPrecompute()
	} else {
		self.fullCacheAndPrecompute()
	}
}

// Caches force and distance evaluations of a path and appends its force
// prefix sums to the RMQ and its transitions to both wavelet trees.
func (self *PathEnergyCostChecker) cacheAndPrecomputeRangeQueriesOfPath(path int32) {
	force_evaluator := self.force_per_class[self.force_class[path]]
	distance_evaluator := self.distance_per_class[self.distance_class[path]]
	force_index := int32(self.force_rmq.TableSize())
	threshold_index := int32(self.energy_query.TreeSize())
	total_force := int64(0)

	prev_node := self.path_state.Start(path)
	it := self.path_state.Nodes(path)
	for it.Next() {
		node := it.Node()
		if prev_node != node {
			distance := distance_evaluator(prev_node, node)
			self.cached_distance[prev_node] = distance
			self.energy_query.PushBack(total_force, total_force*distance)
			self.distance_query.PushBack(total_force, distance)
			prev_node = node
		}
		// A path of n nodes gets n threshold indices but only n-1 wavelet
		// elements, the element at index(node) is the transition leaving it.
		self.threshold_query_index_of_node[node] = threshold_index
		threshold_index++
		self.force_rmq.PushBack(total_force)
		self.force_rmq_index_of_node[node] = force_index
		force_index++
		force := force_evaluator(node)
		self.cached_force[node] = force
		total_force += force
	}
	self.force_rmq.MakeTableFromNewElements()
	self.energy_query.MakeTreeFromNewElements()
	self.distance_query.MakeTreeFromNewElements()
}

func (self *PathEnergyCostChecker) incrementalCacheAndPrecompute() {
	for _, path := range self.path_state.ChangedPaths() {
		self.cacheAndPrecomputeRangeQueriesOfPath(path)
	}
}

func (self *PathEnergyCostChecker) fullCacheAndPrecompute() {
	self.force_rmq.Clear()
	self.energy_query.Clear()
	self.distance_query.Clear()
	num_paths := self.path_state.NumPaths()
	for path := int32(0); path < num_paths; path++ {
		self.cacheAndPrecomputeRangeQueriesOfPath(path)
	}
}

func (self *PathEnergyCostChecker) computePathCost(path int32) int64 {
	path_force_class := self.force_class[path]
	force_evaluator := self.force_per_class[path_force_class]

	// First pass: find the force offset. The force must stay >= 0 at all
	// nodes, >= force_start_min at the start and >= force_end_min at the
	// end, total_force becomes the minimal start force that allows this.
	total_force := self.force_start_min[path]
	min_force := total_force
	num_path_nodes := 0
	prev_node := self.path_state.Start(path)
	chains := self.path_state.Chains(path)
	for c := 0; c < chains.Length(); c++ {
		chain := chains.Get(c)
		num_path_nodes += chain.NumNodes()
		if chain.First() != prev_node {
			force_to_node := force_evaluator(prev_node)
			total_force = arith.CapAdd(total_force, force_to_node)
			if total_force < min_force {
				min_force = total_force
			}
			prev_node = chain.First()
		}

		chain_path := self.path_state.Path(chain.First())
		chain_force_class := int32(-1)
		if chain_path != -1 {
			chain_force_class = self.force_class[chain_path]
		}
		force_is_cached := chain_force_class == path_force_class
		if force_is_cached && chain.NumNodes() >= 2 {
			first_index := self.force_rmq_index_of_node[chain.First()]
			last_index := self.force_rmq_index_of_node[chain.Last()]
			first_total_force := self.force_rmq.Array()[first_index]
			last_total_force := self.force_rmq.Array()[last_index]
			min_total_force := self.force_rmq.RangeMinimum(int(first_index), int(last_index))
			if f := total_force - first_total_force + min_total_force; f < min_force {
				min_force = f
			}
			total_force = arith.CapAdd(total_force, last_total_force-first_total_force)
			prev_node = chain.Last()
		} else {
			for _, node := range chain.WithoutFirstNode() {
				var force int64
				if force_is_cached {
					force = self.cached_force[prev_node]
				} else {
					force = force_evaluator(prev_node)
				}
				total_force = arith.CapAdd(total_force, force)
				if total_force < min_force {
					min_force = total_force
				}
				prev_node = node
			}
		}
	}
	if num_path_nodes == 2 && !self.path_has_cost_when_empty[path] {
		return 0
	}
	offset := int64(0)
	if f := arith.CapOpp(min_force); f > offset {
		offset = f
	}
	if f := arith.CapSub(self.force_end_min[path], total_force); f > offset {
		offset = f
	}
	total_force = arith.CapAdd(self.force_start_min[path], offset)

	// Second pass: energy below and above the threshold.
	path_distance_class := self.distance_class[path]
	distance_evaluator := self.distance_per_class[path_distance_class]
	cost := self.path_energy_cost[path]
	energy_below := int64(0)
	energy_above := int64(0)
	prev_node = self.path_state.Start(path)
	for c := 0; c < chains.Length(); c++ {
		chain := chains.Get(c)
		// Transition over the new arc into the chain.
		if chain.First() != prev_node {
			distance := distance_evaluator(prev_node, chain.First())
			total_force = arith.CapAdd(total_force, force_evaluator(prev_node))
			below := total_force
			if cost.Threshold < below {
				below = cost.Threshold
			}
			energy_below = arith.CapAdd(energy_below, arith.CapProd(below, distance))
			force_above := arith.CapSub(total_force, cost.Threshold)
			if force_above < 0 {
				force_above = 0
			}
			energy_above = arith.CapAdd(energy_above, arith.CapProd(force_above, distance))
			prev_node = chain.First()
		}

		chain_path := self.path_state.Path(chain.First())
		chain_force_class := int32(-1)
		chain_distance_class := int32(-1)
		if chain_path != -1 {
			chain_force_class = self.force_class[chain_path]
			chain_distance_class = self.distance_class[chain_path]
		}
		force_is_cached := chain_force_class == path_force_class
		distance_is_cached := chain_distance_class == path_distance_class

		if force_is_cached && distance_is_cached && chain.NumNodes() >= 2 {
			first_index := int(self.threshold_query_index_of_node[chain.First()])
			last_index := int(self.threshold_query_index_of_node[chain.Last()])

			zero_total_energy := self.energy_query.RangeSumWithThreshold(arith.INT64_MIN, first_index, last_index)
			total_distance := self.distance_query.RangeSumWithThreshold(arith.INT64_MIN, first_index, last_index)

			// zero_ values assume a force of zero at the path start. The
			// actual total_force at chain.First() differs from the cached
			// prefix sum, so the threshold is shifted to zero_threshold
			// before querying, which keeps "energy above threshold" exact.
			zero_total_force_first := self.force_rmq.Array()[self.force_rmq_index_of_node[chain.First()]]
			zero_threshold := arith.CapSub(cost.Threshold, arith.CapSub(total_force, zero_total_force_first))
			// High transitions run with a force at or above the threshold.
			zero_high_energy := self.energy_query.RangeSumWithThreshold(zero_threshold, first_index, last_index)
			zero_high_distance := self.distance_query.RangeSumWithThreshold(zero_threshold, first_index, last_index)
			// Above-threshold energy is incurred during high transitions
			// only, so it follows from high energy, high distance and the
			// threshold.
			zero_energy_above := arith.CapSub(zero_high_energy, arith.CapProd(zero_high_distance, zero_threshold))
			// Shifting the force dimension back to the candidate's offset
			// only changes the below-threshold part.
			energy_above = arith.CapAdd(energy_above, zero_energy_above)
			energy_below = arith.CapAdd(energy_below,
				arith.CapAdd(arith.CapSub(zero_total_energy, zero_energy_above),
					arith.CapProd(total_distance, arith.CapSub(cost.Threshold, zero_threshold))))

			zero_total_force_last := self.force_rmq.Array()[self.force_rmq_index_of_node[chain.Last()]]
			total_force = arith.CapAdd(total_force, arith.CapSub(zero_total_force_last, zero_total_force_first))
			prev_node = chain.Last()
		} else {
			for _, node := range chain.WithoutFirstNode() {
				var force int64
				if force_is_cached {
					force = self.cached_force[prev_node]
				} else {
					force = force_evaluator(prev_node)
				}
				var distance int64
				if distance_is_cached {
					distance = self.cached_distance[prev_node]
				} else {
					distance = distance_evaluator(prev_node, node)
				}
				total_force = arith.CapAdd(total_force, force)
				below := total_force
				if cost.Threshold < below {
					below = cost.Threshold
				}
				energy_below = arith.CapAdd(energy_below, arith.CapProd(below, distance))
				force_above := arith.CapSub(total_force, cost.Threshold)
				if force_above < 0 {
					force_above = 0
				}
				energy_above = arith.CapAdd(energy_above, arith.CapProd(force_above, distance))
				prev_node = node
			}
		}
	}

	return arith.CapAdd(
		arith.CapProd(energy_below, cost.CostPerUnitBelowThreshold),
		arith.CapProd(energy_above, cost.CostPerUnitAboveThreshold))
}

//*******************************************
// path energy cost filter
//*******************************************

// Wraps a PathEnergyCostChecker as a filter contributing the energy cost to
// the objective. Objective bounds beyond half the int64 range are treated
// as unbounded so the saturating cost sum cannot reject spuriously.
type PathEnergyCostFilter struct {
	checker *PathEnergyCostChecker
	name    string
}

func NewPathEnergyCostFilter(checker *PathEnergyCostChecker, energy_name string) *PathEnergyCostFilter {
	return &PathEnergyCostFilter{
		checker: checker,
		name:    "PathEnergyCostFilter(" + energy_name + ")",
	}
}

func (self *PathEnergyCostFilter) String() string {
	return self.name
}

func (self *PathEnergyCostFilter) Relax(delta *Assignment) {}

func (self *PathEnergyCostFilter) Accept(delta *Assignment, objective_min int64, objective_max int64) bool {
	if objective_max > arith.INT64_MAX/2 {
		return true
	}
	if !self.checker.Check() {
		return false
	}
	cost := self.checker.AcceptedCost()
	return objective_min <= cost && cost <= objective_max
}

func (self *PathEnergyCostFilter) Synchronize(assignment *Assignment, delta *Assignment) {
	self.checker.Commit()
}

func (self *PathEnergyCostFilter) Revert() {}

func (self *PathEnergyCostFilter) GetSynchronizedObjectiveValue() int64 {
	return self.checker.CommittedCost()
}

func (self *PathEnergyCostFilter) GetAcceptedObjectiveValue() int64 {
	return self.checker.AcceptedCost()
}

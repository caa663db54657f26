package filters

import (
	"github.com/ttpr0/go-vrp/arith"
	"github.com/ttpr0/go-vrp/state"
	. "github.com/ttpr0/go-vrp/util"
)

//*******************************************
// dimension checker
//*******************************************

// Transit demand of the arc node -> next for one path class, as an interval
// of possible values.
type DemandFunc func(node int32, next int32) arith.Interval

// Chains of at least this many arcs are checked through the range
// intersection query structure instead of node by node.
const OptimalMinRangeSizeForRIQ = 4

// Incrementally checks one capacity dimension over a PathState: along every
// path the cumul (running demand sum) must stay inside the path's capacity
// and every node's capacity. Committed paths are preprocessed into a sparse
// table of range intersection query (RIQ) nodes so an unchanged chain of any
// length is checked in O(1).
type DimensionChecker struct {
	path_state *state.PathState

	path_capacity         []arith.ExtendedInterval
	path_class            Array[int32]
	demand_per_path_class []DemandFunc
	node_capacity         []arith.ExtendedInterval
	cached_demand         Array[arith.ExtendedInterval]

	// Position of each committed node in riq[0].
	index Array[int32]
	// riq[layer][i] covers the window of 2^layer positions ending at i.
	riq                    []List[riqNode]
	maximum_riq_layer_size int
	min_range_size_for_riq int32
}

// Summary of a window of committed positions. tsum_at_fst/tsum_at_lst are
// the demand prefix sums at the window's first and last node, cumuls_to_fst
// (resp. cumuls_to_lst) is the set of cumul values at the first node from
// which the whole window stays feasible (resp. reachable at the last node),
// and tightest_tsum is the intersection of all prefix sums in the window,
// used to bound the cumul against the path capacity inside the window.
type riqNode struct {
	cumuls_to_fst arith.ExtendedInterval
	tightest_tsum arith.ExtendedInterval
	cumuls_to_lst arith.ExtendedInterval
	tsum_at_fst   arith.ExtendedInterval
	tsum_at_lst   arith.ExtendedInterval
}

func NewDimensionChecker(path_state *state.PathState, path_capacity []arith.Interval, path_class Array[int32], demand_per_path_class []DemandFunc, node_capacity []arith.Interval, min_range_size_for_riq int32) *DimensionChecker {
	num_nodes := int(path_state.NumNodes())
	num_paths := int(path_state.NumPaths())
	if len(path_capacity) != num_paths || path_class.Length() != num_paths {
		panic("path_capacity and path_class must have one entry per path")
	}
	if len(node_capacity) != num_nodes {
		panic("node_capacity must have one entry per node")
	}
	maximum_layer_size := 4 * num_nodes
	if maximum_layer_size < 16 {
		maximum_layer_size = 16
	}
	self := &DimensionChecker{
		path_state:             path_state,
		path_capacity:          arith.ToExtendedAll(path_capacity),
		path_class:             path_class,
		demand_per_path_class:  demand_per_path_class,
		node_capacity:          arith.ToExtendedAll(node_capacity),
		cached_demand:          NewArray[arith.ExtendedInterval](num_nodes),
		index:                  NewArray[int32](num_nodes),
		riq:                    make([]List[riqNode], arith.MSBPosition32(int32(num_nodes))+1),
		maximum_riq_layer_size: maximum_layer_size,
		min_range_size_for_riq: min_range_size_for_riq,
	}
	self.fullCommit()
	return self
}

// Whether the pending change of the PathState keeps the dimension feasible.
// Only changed paths are checked, unchanged chains through the RIQ.
func (self *DimensionChecker) Check() bool {
	if self.path_state.IsInvalid() {
		return true
	}
	for _, path := range self.path_state.ChangedPaths() {
		path_capacity := self.path_capacity[path]
		path_class := self.path_class[path]
		// Except before the first chain, cumul is the nonempty cumul state
		// at the last node of the previous chain.
		prev_node := self.path_state.Start(path)
		cumul := arith.Intersect(self.node_capacity[prev_node], path_capacity)
		if cumul.IsEmpty() {
			return false
		}

		chains := self.path_state.Chains(path)
		for c := 0; c < chains.Length(); c++ {
			chain := chains.Get(c)
			first_node := chain.First()
			last_node := chain.Last()

			if prev_node != first_node {
				// Transition over the new arc into the chain.
				demand := arith.ToExtended(self.demand_per_path_class[path_class](prev_node, first_node))
				cumul = arith.Add(cumul, demand)
				cumul = arith.Intersect(cumul, path_capacity)
				cumul = arith.Intersect(cumul, self.node_capacity[first_node])
				if cumul.IsEmpty() {
					return false
				}
				prev_node = first_node
			}

			// Walk the chain from first to last node.
			first_index := self.index[first_node]
			last_index := self.index[last_node]
			chain_path := self.path_state.Path(first_node)
			chain_path_class := int32(-1)
			if chain_path != -1 {
				chain_path_class = self.path_class[chain_path]
			}
			chain_is_cached := chain_path_class == path_class
			if last_index-first_index > self.min_range_size_for_riq && chain_is_cached {
				cumul = self.updateCumulUsingChainRIQ(first_index, last_index, path_capacity, cumul)
				if cumul.IsEmpty() {
					return false
				}
				prev_node = last_node
			} else {
				for _, node := range chain.WithoutFirstNode() {
					var demand arith.ExtendedInterval
					if chain_is_cached {
						demand = self.cached_demand[prev_node]
					} else {
						demand = arith.ToExtended(self.demand_per_path_class[path_class](prev_node, node))
					}
					cumul = arith.Add(cumul, demand)
					cumul = arith.Intersect(cumul, self.node_capacity[node])
					cumul = arith.Intersect(cumul, path_capacity)
					if cumul.IsEmpty() {
						return false
					}
					prev_node = node
				}
			}
		}
	}
	return true
}

// Folds the pending PathState change into the RIQ structure. Must run
// before PathState.Commit() clears the changed paths.
func (self *DimensionChecker) Commit() {
	current_layer_size := self.riq[0].Length()
	change_size := len(self.path_state.ChangedPaths())
	for _, path := range self.path_state.ChangedPaths() {
		chains := self.path_state.Chains(path)
		for c := 0; c < chains.Length(); c++ {
			change_size += chains.Get(c).NumNodes()
		}
	}
	if current_layer_size+change_size <= self.maximum_riq_layer_size {
		self.incrementalCommit()
	} else {
		self.fullCommit()
	}
}

func (self *DimensionChecker) incrementalCommit() {
	for _, path := range self.path_state.ChangedPaths() {
		begin_index := self.riq[0].Length()
		self.appendPathDemandsToSums(path)
		self.updateRIQStructure(begin_index, self.riq[0].Length())
	}
}

func (self *DimensionChecker) fullCommit() {
	for l := range self.riq {
		self.riq[l].Clear()
	}
	num_paths := self.path_state.NumPaths()
	for path := int32(0); path < num_paths; path++ {
		begin_index := self.riq[0].Length()
		self.appendPathDemandsToSums(path)
		self.updateRIQStructure(begin_index, self.riq[0].Length())
	}
}

// Appends the layer-0 records of a path: for every node its capacity and
// the demand prefix sum from the path start, and refreshes cached_demand.
func (self *DimensionChecker) appendPathDemandsToSums(path int32) {
	path_class := self.path_class[path]
	demand_sum := arith.ExtendedInterval{}
	prev := self.path_state.Start(path)
	index := int32(self.riq[0].Length())
	it := self.path_state.Nodes(path)
	for it.Next() {
		node := it.Node()
		var demand arith.ExtendedInterval
		if prev != node {
			demand = arith.ToExtended(self.demand_per_path_class[path_class](prev, node))
		}
		demand_sum = arith.Add(demand_sum, demand)
		self.cached_demand[prev] = demand
		prev = node

		self.index[node] = index
		index++
		self.riq[0].Add(riqNode{
			cumuls_to_fst: self.node_capacity[node],
			tightest_tsum: demand_sum,
			cumuls_to_lst: self.node_capacity[node],
			tsum_at_fst:   demand_sum,
			tsum_at_lst:   demand_sum,
		})
	}
	self.cached_demand[self.path_state.End(path)] = arith.ExtendedInterval{}
}

// Builds the upper layers over the freshly appended [begin_index, end_index)
// records. Each window merges two half-windows of the layer below, the
// F-window ending at i - half_window and the L-window ending at i.
func (self *DimensionChecker) updateRIQStructure(begin_index int, end_index int) {
	max_layer := arith.MSBPosition32(int32(end_index - begin_index - 1))
	half_window := 1
	for layer := 1; layer <= max_layer; layer++ {
		self.riq[layer].Resize(end_index)
		for i := begin_index + 2*half_window - 1; i < end_index; i++ {
			fw := self.riq[layer-1][i-half_window]
			lw := self.riq[layer-1][i]
			lst_to_lst := arith.Delta(fw.tsum_at_lst, lw.tsum_at_lst)
			fst_to_fst := arith.Delta(fw.tsum_at_fst, lw.tsum_at_fst)

			self.riq[layer][i] = riqNode{
				cumuls_to_fst: arith.Intersect(fw.cumuls_to_fst, arith.Sub(lw.cumuls_to_fst, fst_to_fst)),
				tightest_tsum: arith.Intersect(fw.tightest_tsum, lw.tightest_tsum),
				cumuls_to_lst: arith.Intersect(arith.Add(fw.cumuls_to_lst, lst_to_lst), lw.cumuls_to_lst),
				tsum_at_fst:   fw.tsum_at_fst,
				tsum_at_lst:   lw.tsum_at_lst,
			}
		}
		half_window *= 2
	}
}

// Propagates the cumul from the node at first_index to the one at
// last_index, using two overlapping windows of size 2^layer: the F-window
// starting at first_index and the L-window ending at last_index.
func (self *DimensionChecker) updateCumulUsingChainRIQ(first_index int32, last_index int32, path_capacity arith.ExtendedInterval, cumul arith.ExtendedInterval) arith.ExtendedInterval {
	layer := arith.MSBPosition32(last_index - first_index)
	window := int32(1) << layer
	fw := self.riq[layer][first_index+window-1]
	lw := self.riq[layer][last_index]

	// Cumul values at the first node that can reach the last node.
	cumul = arith.Intersect(cumul, fw.cumuls_to_fst)
	cumul = arith.Intersect(cumul, arith.Sub(lw.cumuls_to_fst, arith.Delta(fw.tsum_at_fst, lw.tsum_at_fst)))
	cumul = arith.Intersect(cumul, arith.Sub(path_capacity, arith.Delta(fw.tsum_at_fst, arith.Intersect(fw.tightest_tsum, lw.tightest_tsum))))

	// Emptiness must be checked before the transit widens the interval.
	if cumul.IsEmpty() {
		return cumul
	}

	// Transit to the last node.
	cumul = arith.Add(cumul, arith.Delta(fw.tsum_at_fst, lw.tsum_at_lst))

	// Cumul values at the last node that are reached from the first node.
	cumul = arith.Intersect(cumul, arith.Add(fw.cumuls_to_lst, arith.Delta(fw.tsum_at_lst, lw.tsum_at_lst)))
	cumul = arith.Intersect(cumul, lw.cumuls_to_lst)
	return cumul
}

//*******************************************
// dimension filter
//*******************************************

// Wraps a DimensionChecker as a filter. The checker reads the PathState
// directly, so Relax has nothing to do.
type DimensionFilter struct {
	NoObjective
	checker *DimensionChecker
	name    string
}

func NewDimensionFilter(checker *DimensionChecker, dimension_name string) *DimensionFilter {
	return &DimensionFilter{
		checker: checker,
		name:    "DimensionFilter(" + dimension_name + ")",
	}
}

func (self *DimensionFilter) String() string {
	return self.name
}

func (self *DimensionFilter) Relax(delta *Assignment) {}

func (self *DimensionFilter) Accept(delta *Assignment, objective_min int64, objective_max int64) bool {
	return self.checker.Check()
}

func (self *DimensionFilter) Synchronize(assignment *Assignment, delta *Assignment) {
	self.checker.Commit()
}

func (self *DimensionFilter) Revert() {}

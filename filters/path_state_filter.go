package filters

import (
	"math"

	"golang.org/x/exp/slices"

	"github.com/ttpr0/go-vrp/state"
	. "github.com/ttpr0/go-vrp/util"
)

//*******************************************
// path state filter
//*******************************************

// Keeps a PathState synchronized with the search. Relax translates a sparse
// delta of changed next-variables into per-path chain lists (CutChains),
// Synchronize replays the accepted change and commits the PathState.
// Always accepts, checking is left to the filters reading the PathState.
type PathStateFilter struct {
	NoObjective
	path_state *state.PathState

	changed_arcs List[Tuple[int32, int32]]

	// CutChains working state, kept to avoid reallocations.
	changed_paths     List[int32]
	path_has_changed  Array[bool]
	changed_loops     List[int32]
	tail_head_indices List[tailHeadIndices]
	arcs_by_tail      List[indexArc]
	arcs_by_head      List[indexArc]
	next_arc          List[int32]
	path_chains       List[state.ChainBounds]
}

type tailHeadIndices struct {
	tail_index int32
	head_index int32
}

type indexArc struct {
	index int32
	arc   int32
}

func NewPathStateFilter(path_state *state.PathState) *PathStateFilter {
	return &PathStateFilter{
		path_state:        path_state,
		changed_arcs:      NewList[Tuple[int32, int32]](8),
		changed_paths:     NewList[int32](8),
		path_has_changed:  NewArray[bool](int(path_state.NumPaths())),
		changed_loops:     NewList[int32](8),
		tail_head_indices: NewList[tailHeadIndices](8),
		arcs_by_tail:      NewList[indexArc](8),
		arcs_by_head:      NewList[indexArc](8),
		next_arc:          NewList[int32](8),
		path_chains:       NewList[state.ChainBounds](8),
	}
}

func (self *PathStateFilter) PathState() *state.PathState {
	return self.path_state
}

func (self *PathStateFilter) Relax(delta *Assignment) {
	self.path_state.Revert()
	self.changed_arcs.Clear()
	for _, element := range delta.Elements() {
		node := element.Var
		if node < 0 || node >= self.path_state.NumNodes() {
			continue
		}
		if !element.Bound {
			// LNS placeholder, the candidate is not fully specified.
			self.path_state.Revert()
			self.path_state.SetInvalid()
			return
		}
		self.changed_arcs.Add(MakeTuple(node, int32(element.Value)))
	}
	self.cutChains()
}

func (self *PathStateFilter) Accept(delta *Assignment, objective_min int64, objective_max int64) bool {
	return true
}

// The search does not guarantee that a Synchronize matches the last Relax,
// so the whole change call sequence is replayed before committing.
func (self *PathStateFilter) Synchronize(assignment *Assignment, delta *Assignment) {
	self.path_state.Revert()
	if delta.Empty() {
		self.Relax(assignment)
	} else {
		self.Relax(delta)
	}
	self.path_state.Commit()
}

func (self *PathStateFilter) Revert() {
	self.path_state.Revert()
}

//*******************************************
// chain cutting
//*******************************************

// Filters no-op arcs out of changed_arcs, translates the rest to committed
// buffer positions and cuts every changed path into chains.
func (self *PathStateFilter) cutChains() {
	for _, path := range self.changed_paths {
		self.path_has_changed[path] = false
	}
	self.changed_paths.Clear()
	self.tail_head_indices.Clear()
	self.changed_loops.Clear()
	num_changed_arcs := 0
	for _, arc := range self.changed_arcs {
		node, next := arc.A, arc.B
		node_index := self.path_state.CommittedIndex(node)
		next_index := self.path_state.CommittedIndex(next)
		node_path := self.path_state.Path(node)
		if next != node && (next_index != node_index+1 || node_path == -1) {
			// New arc.
			self.tail_head_indices.Add(tailHeadIndices{node_index, next_index})
			self.changed_arcs[num_changed_arcs] = MakeTuple(node, next)
			num_changed_arcs++
			if node_path != -1 && !self.path_has_changed[node_path] {
				self.path_has_changed[node_path] = true
				self.changed_paths.Add(node_path)
			}
		} else if node == next && node_path != -1 {
			// New loop.
			self.changed_loops.Add(node)
		}
	}
	self.changed_arcs.Resize(num_changed_arcs)

	self.path_state.ChangeLoops(self.changed_loops)
	if self.tail_head_indices.Length()+self.changed_paths.Length() <= 8 {
		self.makeChainsWithSelectionAlgorithm()
	} else {
		self.makeChainsWithGenericAlgorithm()
	}
}

// O(n^2) selection algorithm for small change sets: for every path, scan
// forward from the path start and repeatedly pick the smallest unvisited
// arc tail at or after the current position.
func (self *PathStateFilter) makeChainsWithSelectionAlgorithm() {
	num_visited_changed_arcs := 0
	num_changed_arcs := self.tail_head_indices.Length()
	for _, path := range self.changed_paths {
		self.path_chains.Clear()
		start_index, end_index := self.path_state.CommittedPathRange(path)
		current_index := start_index
		for {
			selected_arc := -1
			selected_tail_index := int32(math.MaxInt32)
			for i := num_visited_changed_arcs; i < num_changed_arcs; i++ {
				tail_index := self.tail_head_indices[i].tail_index
				if current_index <= tail_index && tail_index < selected_tail_index {
					selected_arc = i
					selected_tail_index = tail_index
				}
			}
			// No usable arc tail before the path end: the last chain runs to
			// the end of the path.
			if start_index <= current_index && current_index < end_index &&
				end_index <= selected_tail_index {
				self.path_chains.Add(state.ChainBounds{Begin: current_index, End: end_index})
				break
			} else {
				self.path_chains.Add(state.ChainBounds{Begin: current_index, End: selected_tail_index + 1})
				current_index = self.tail_head_indices[selected_arc].head_index
				self.tail_head_indices[num_visited_changed_arcs], self.tail_head_indices[selected_arc] =
					self.tail_head_indices[selected_arc], self.tail_head_indices[num_visited_changed_arcs]
				num_visited_changed_arcs++
			}
		}
		self.path_state.ChangePath(path, self.path_chains)
	}
}

// O(sort(n)) algorithm for large change sets. With a fake end->start arc
// per changed path, every chain runs from the head of one arc to the tail
// of another. Sorting all heads and all tails by committed position pairs
// them up rank by rank: the tail at the same rank as a head is the end of
// the chain starting at that head, and its arc is the next arc to visit.
// Walking the arcs of each path's cycle emits its chains in order.
func (self *PathStateFilter) makeChainsWithGenericAlgorithm() {
	for _, path := range self.changed_paths {
		start_index, end_index := self.path_state.CommittedPathRange(path)
		self.tail_head_indices.Add(tailHeadIndices{end_index - 1, start_index})
	}

	num_arc_indices := self.tail_head_indices.Length()
	self.arcs_by_tail.Resize(num_arc_indices)
	self.arcs_by_head.Resize(num_arc_indices)
	for i := 0; i < num_arc_indices; i++ {
		self.arcs_by_tail[i] = indexArc{self.tail_head_indices[i].tail_index, int32(i)}
		self.arcs_by_head[i] = indexArc{self.tail_head_indices[i].head_index, int32(i)}
	}
	compare := func(a indexArc, b indexArc) int {
		if a.index < b.index {
			return -1
		} else if a.index > b.index {
			return 1
		}
		return 0
	}
	slices.SortFunc(self.arcs_by_tail, compare)
	slices.SortFunc(self.arcs_by_head, compare)
	self.next_arc.Resize(num_arc_indices)
	for i := 0; i < num_arc_indices; i++ {
		self.next_arc[self.arcs_by_head[i].arc] = self.arcs_by_tail[i].arc
	}

	first_fake_arc := num_arc_indices - self.changed_paths.Length()
	for fake_arc := first_fake_arc; fake_arc < num_arc_indices; fake_arc++ {
		self.path_chains.Clear()
		arc := int32(fake_arc)
		for {
			chain_begin := self.tail_head_indices[arc].head_index
			arc = self.next_arc[arc]
			chain_end := self.tail_head_indices[arc].tail_index + 1
			self.path_chains.Add(state.ChainBounds{Begin: chain_begin, End: chain_end})
			if arc == int32(fake_arc) {
				break
			}
		}
		path := self.changed_paths[fake_arc-first_fake_arc]
		self.path_state.ChangePath(path, self.path_chains)
	}
}

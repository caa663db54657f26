package filters

import (
	. "github.com/ttpr0/go-vrp/util"
)

//*******************************************
// base path filter
//*******************************************

const unassigned int32 = -1

// Per-path callbacks of a BasePathFilter. Concrete filters embed a
// *BasePathFilter together with BasePathFilterHooks and override the hooks
// they need.
type IPathFilterHooks interface {
	// Whether the filter can never reject anything, checked once on the
	// first synchronization. A disabled filter stays disabled.
	DisableFiltering() bool
	// Called once per Accept before any AcceptPath, returning false rejects
	// the candidate outright.
	InitializeAcceptPath() bool
	// Feasibility of the subchain [chain_start, chain_end] of the path
	// starting at path_start, with the candidate nexts from GetNext.
	AcceptPath(path_start int32, chain_start int32, chain_end int32) bool
	// Called after all touched paths were accepted.
	FinalizeAcceptPath(objective_min int64, objective_max int64) bool
	OnBeforeSynchronizePaths()
	OnAfterSynchronizePaths()
	OnSynchronizePathFromStart(start int32)
}

// No-op defaults for all hooks.
type BasePathFilterHooks struct{}

func (self BasePathFilterHooks) DisableFiltering() bool {
	return false
}

func (self BasePathFilterHooks) InitializeAcceptPath() bool {
	return true
}

func (self BasePathFilterHooks) AcceptPath(path_start int32, chain_start int32, chain_end int32) bool {
	return true
}

func (self BasePathFilterHooks) FinalizeAcceptPath(objective_min int64, objective_max int64) bool {
	return true
}

func (self BasePathFilterHooks) OnBeforeSynchronizePaths() {}

func (self BasePathFilterHooks) OnAfterSynchronizePaths() {}

func (self BasePathFilterHooks) OnSynchronizePathFromStart(start int32) {}

// Common machinery of filters that check paths chain by chain. It tracks
// synchronized next-values and node ranks, derives from a delta the touched
// paths and per path the smallest subchain covering all touched nodes, and
// hands those to the hooks.
//
// Next-variables exist for nodes [0, num_nexts), path ends have ids in
// [num_nexts, num_nodes) and no next-variable.
type BasePathFilter struct {
	NoObjective
	hooks IPathFilterHooks

	num_nexts int32
	num_nodes int32

	path_starts Array[int32]
	path_ends   Array[int32]
	is_start    Array[bool]
	is_end      Array[bool]

	synced_value Array[int32]
	is_synced    Array[bool]

	// Path start of every node in the synchronized solution, unassigned for
	// unperformed nodes.
	node_path_starts                   Array[int32]
	new_synchronized_unperformed_nodes sparseSet

	new_nexts     Array[int32]
	delta_touched List[int32]
	// Touched paths are identified by their start node. The chain bounds of
	// a touched path are the touched nodes of minimal and maximal rank.
	touched_paths                 sparseSet
	touched_path_chain_start_ends Array[Tuple[int32, int32]]
	ranks                         Array[int32]

	status       int32
	lns_detected bool
}

const (
	filterStatusUnknown int32 = iota
	filterStatusEnabled
	filterStatusDisabled
)

func NewBasePathFilter(num_nexts int32, num_nodes int32, path_starts Array[int32], path_ends Array[int32], hooks IPathFilterHooks) *BasePathFilter {
	self := &BasePathFilter{
		hooks:                              hooks,
		num_nexts:                          num_nexts,
		num_nodes:                          num_nodes,
		path_starts:                        path_starts,
		path_ends:                          path_ends,
		is_start:                           NewArray[bool](int(num_nodes)),
		is_end:                             NewArray[bool](int(num_nodes)),
		synced_value:                       NewArray[int32](int(num_nexts)),
		is_synced:                          NewArray[bool](int(num_nexts)),
		node_path_starts:                   NewArray[int32](int(num_nodes)),
		new_synchronized_unperformed_nodes: newSparseSet(num_nexts),
		new_nexts:                          NewArray[int32](int(num_nexts)),
		delta_touched:                      NewList[int32](8),
		touched_paths:                      newSparseSet(num_nodes),
		touched_path_chain_start_ends:      NewArray[Tuple[int32, int32]](int(num_nodes)),
		ranks:                              NewArray[int32](int(num_nodes)),
		status:                             filterStatusUnknown,
	}
	for p := 0; p < path_starts.Length(); p++ {
		self.is_start[path_starts[p]] = true
		self.is_end[path_ends[p]] = true
	}
	self.node_path_starts.Fill(unassigned)
	self.new_nexts.Fill(unassigned)
	self.ranks.Fill(unassigned)
	for i := range self.touched_path_chain_start_ends {
		self.touched_path_chain_start_ends[i] = MakeTuple(unassigned, unassigned)
	}
	return self
}

func (self *BasePathFilter) NumPaths() int {
	return self.path_starts.Length()
}

func (self *BasePathFilter) Start(path int) int32 {
	return self.path_starts[path]
}

func (self *BasePathFilter) End(path int) int32 {
	return self.path_ends[path]
}

func (self *BasePathFilter) Size() int32 {
	return self.num_nexts
}

func (self *BasePathFilter) IsVarSynced(node int32) bool {
	return self.is_synced[node]
}

// Synchronized next of a node.
func (self *BasePathFilter) Value(node int32) int32 {
	return self.synced_value[node]
}

// Candidate next of a node: the delta value if the node is touched, the
// synchronized value otherwise.
func (self *BasePathFilter) GetNext(node int32) int32 {
	if self.new_nexts[node] != unassigned {
		return self.new_nexts[node]
	}
	return self.Value(node)
}

// Rank of a node on its synchronized path, starts have rank 0.
func (self *BasePathFilter) Rank(node int32) int32 {
	return self.ranks[node]
}

func (self *BasePathFilter) IsDisabled() bool {
	return self.status == filterStatusDisabled
}

func (self *BasePathFilter) LnsDetected() bool {
	return self.lns_detected
}

// Nodes that became unperformed with the last synchronization.
func (self *BasePathFilter) NewSynchronizedUnperformedNodes() []int32 {
	return self.new_synchronized_unperformed_nodes.PositionsSetAtLeastOnce()
}

func (self *BasePathFilter) Relax(delta *Assignment) {}

func (self *BasePathFilter) Revert() {}

func (self *BasePathFilter) Accept(delta *Assignment, objective_min int64, objective_max int64) bool {
	if self.IsDisabled() {
		return true
	}
	self.lns_detected = false
	for _, touched := range self.delta_touched {
		self.new_nexts[touched] = unassigned
	}
	self.delta_touched.Clear()
	// A node is touched if its next changes or another node's next points to
	// it. The touched subchain of a path is delimited by the touched nodes
	// of minimal and maximal rank, both of which stay on the path.
	for _, touched_path := range self.touched_paths.PositionsSetAtLeastOnce() {
		self.touched_path_chain_start_ends[touched_path] = MakeTuple(unassigned, unassigned)
	}
	self.touched_paths.SparseClearAll()

	for _, element := range delta.Elements() {
		index := element.Var
		if index < 0 || index >= self.num_nexts {
			continue
		}
		if !element.Bound {
			self.lns_detected = true
			return true
		}
		self.new_nexts[index] = int32(element.Value)
		self.delta_touched.Add(index)
		self.updateTouchedPathChainStartEnd(index)
		self.updateTouchedPathChainStartEnd(self.new_nexts[index])
	}
	if !self.hooks.InitializeAcceptPath() {
		return false
	}
	for _, touched_start := range self.touched_paths.PositionsSetAtLeastOnce() {
		start_end := self.touched_path_chain_start_ends[touched_start]
		if !self.hooks.AcceptPath(touched_start, start_end.A, start_end.B) {
			return false
		}
	}
	return self.hooks.FinalizeAcceptPath(objective_min, objective_max)
}

func (self *BasePathFilter) updateTouchedPathChainStartEnd(index int32) {
	start := self.node_path_starts[index]
	if start == unassigned {
		return
	}
	self.touched_paths.Set(start)

	bounds := self.touched_path_chain_start_ends[start]
	if bounds.A == unassigned || self.is_start[index] || self.ranks[index] < self.ranks[bounds.A] {
		bounds.A = index
	}
	if bounds.B == unassigned || self.is_end[index] || self.ranks[index] > self.ranks[bounds.B] {
		bounds.B = index
	}
	self.touched_path_chain_start_ends[start] = bounds
}

func (self *BasePathFilter) Synchronize(assignment *Assignment, delta *Assignment) {
	if !delta.Empty() {
		self.synchronizeValues(delta)
	} else {
		self.synchronizeValues(assignment)
	}
	self.onSynchronize(delta)
}

func (self *BasePathFilter) synchronizeValues(assignment *Assignment) {
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

func (self *BasePathFilter) onSynchronize(delta *Assignment) {
	if self.status == filterStatusUnknown {
		if self.hooks.DisableFiltering() {
			self.status = filterStatusDisabled
		} else {
			self.status = filterStatusEnabled
		}
	}
	if self.IsDisabled() {
		return
	}
	self.new_synchronized_unperformed_nodes.SparseClearAll()
	if delta.Empty() || self.allRanksUnassigned() {
		self.synchronizeFullAssignment()
		return
	}
	self.touched_paths.SparseClearAll()
	for _, element := range delta.Elements() {
		index := element.Var
		if index < 0 || index >= self.num_nexts {
			continue
		}
		start := self.node_path_starts[index]
		if start != unassigned {
			self.touched_paths.Set(start)
			if self.Value(index) == index {
				// The node was performed before and is a loop now.
				self.new_synchronized_unperformed_nodes.Set(index)
				self.node_path_starts[index] = unassigned
			}
		}
	}
	for _, touched := range self.delta_touched {
		self.new_nexts[touched] = unassigned
	}
	self.delta_touched.Clear()
	self.hooks.OnBeforeSynchronizePaths()
	for _, touched_start := range self.touched_paths.PositionsSetAtLeastOnce() {
		node := touched_start
		for node < self.num_nexts {
			self.node_path_starts[node] = touched_start
			node = self.Value(node)
		}
		self.node_path_starts[node] = touched_start
		self.updatePathRanksFromStart(touched_start)
		self.hooks.OnSynchronizePathFromStart(touched_start)
	}
	self.hooks.OnAfterSynchronizePaths()
}

func (self *BasePathFilter) allRanksUnassigned() bool {
	for _, rank := range self.ranks {
		if rank != unassigned {
			return false
		}
	}
	return true
}

func (self *BasePathFilter) synchronizeFullAssignment() {
	for index := int32(0); index < self.num_nexts; index++ {
		if self.IsVarSynced(index) && self.Value(index) == index &&
			self.node_path_starts[index] != unassigned {
			// The node was performed before and is a loop now.
			self.new_synchronized_unperformed_nodes.Set(index)
		}
	}
	self.node_path_starts.Fill(unassigned)
	for path := 0; path < self.NumPaths(); path++ {
		start := self.Start(path)
		self.node_path_starts[start] = start
		if self.IsVarSynced(start) {
			next := self.Value(start)
			for next < self.num_nexts {
				node := next
				self.node_path_starts[node] = start
				next = self.Value(node)
			}
			self.node_path_starts[next] = start
		}
		self.node_path_starts[self.End(path)] = start
	}
	for _, touched := range self.delta_touched {
		self.new_nexts[touched] = unassigned
	}
	self.delta_touched.Clear()
	self.hooks.OnBeforeSynchronizePaths()
	self.updateAllRanks()
	self.hooks.OnAfterSynchronizePaths()
}

func (self *BasePathFilter) updateAllRanks() {
	self.ranks.Fill(unassigned)
	for path := 0; path < self.NumPaths(); path++ {
		start := self.Start(path)
		if !self.IsVarSynced(start) {
			continue
		}
		self.updatePathRanksFromStart(start)
		self.hooks.OnSynchronizePathFromStart(start)
	}
}

func (self *BasePathFilter) updatePathRanksFromStart(start int32) {
	rank := int32(0)
	node := start
	for node < self.num_nexts {
		self.ranks[node] = rank
		rank++
		node = self.Value(node)
	}
	self.ranks[node] = rank
}

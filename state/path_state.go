package state

import (
	. "github.com/ttpr0/go-vrp/util"
)

//*******************************************
// path state
//*******************************************

// Incremental representation of a set of paths with fixed start/end nodes
// over a node universe [0, num_nodes). Nodes not on any path are loops
// (next(node) == node).
//
// The committed state is stored as a flat node buffer ordered path by path,
// a candidate change is expressed per path as a list of chains, i.e. ranges
// into that buffer whose successor structure the change keeps intact.
// Commit() folds the pending chains into the committed buffer, Revert()
// drops them.
//
// Not safe for concurrent use, the owning search drives it strictly
// call-by-call.
type PathState struct {
	num_nodes int32
	num_paths int32
	// Commits append changed paths to the committed buffer until it grows
	// past this, then a full commit rewrites and compacts it.
	num_nodes_threshold int

	path_start_end  Array[Tuple[int32, int32]]
	committed_index Array[int32]
	committed_paths Array[int32]
	committed_nodes List[int32]

	// chains[0:num_paths] hold the committed chain of every path, pending
	// chains from ChangePath are appended behind them.
	chains List[ChainBounds]
	paths  Array[pathBounds]

	changed_paths List[int32]
	changed_loops List[int32]
	is_invalid    bool
}

// Half-open range [Begin, End) of positions in the committed node buffer.
type ChainBounds struct {
	Begin int32
	End   int32
}

type pathBounds struct {
	begin int32
	end   int32
}

func NewPathState(num_nodes int32, path_start Array[int32], path_end Array[int32]) *PathState {
	if path_start.Length() != path_end.Length() {
		panic("path_start and path_end must have the same length")
	}
	num_paths := int32(path_start.Length())
	threshold := 4 * int(num_nodes)
	if threshold < 16 {
		threshold = 16
	}
	self := &PathState{
		num_nodes:           num_nodes,
		num_paths:           num_paths,
		num_nodes_threshold: threshold,
		path_start_end:      NewArray[Tuple[int32, int32]](int(num_paths)),
		committed_index:     NewArray[int32](int(num_nodes)),
		committed_paths:     NewArray[int32](int(num_nodes)),
		committed_nodes:     NewList[int32](int(num_nodes)),
		chains:              NewList[ChainBounds](int(num_paths) + 1),
		paths:               NewArray[pathBounds](int(num_paths)),
		changed_paths:       NewList[int32](8),
		changed_loops:       NewList[int32](8),
	}
	self.committed_index.Fill(-1)
	self.committed_paths.Fill(-1)
	// Initial state is all unperformed, every path goes from start to end
	// directly.
	for path := int32(0); path < num_paths; path++ {
		start := path_start[path]
		end := path_end[path]
		self.path_start_end[path] = MakeTuple(start, end)
		index := 2 * path

		self.committed_index[start] = index
		self.committed_index[end] = index + 1
		self.committed_nodes.Add(start)
		self.committed_nodes.Add(end)
		self.committed_paths[start] = path
		self.committed_paths[end] = path

		self.chains.Add(ChainBounds{index, index + 2})
		self.paths[path] = pathBounds{path, path + 1}
	}
	// Nodes that are not starts or ends are loops.
	for node := int32(0); node < num_nodes; node++ {
		if self.committed_index[node] != -1 {
			continue
		}
		self.committed_index[node] = int32(self.committed_nodes.Length())
		self.committed_nodes.Add(node)
	}
	return self
}

func (self *PathState) NumNodes() int32 {
	return self.num_nodes
}

func (self *PathState) NumPaths() int32 {
	return self.num_paths
}

func (self *PathState) Start(path int32) int32 {
	return self.path_start_end[path].A
}

func (self *PathState) End(path int32) int32 {
	return self.path_start_end[path].B
}

// The committed path of a node, -1 if the node is a loop.
func (self *PathState) Path(node int32) int32 {
	return self.committed_paths[node]
}

// Position of a node in the committed buffer. Positions encode adjacency:
// unless i is a path boundary, the nodes at positions i and i+1 are
// committed path successors.
func (self *PathState) CommittedIndex(node int32) int32 {
	return self.committed_index[node]
}

// Committed buffer range of a path.
func (self *PathState) CommittedPathRange(path int32) (int32, int32) {
	bounds := self.chains[path]
	return bounds.Begin, bounds.End
}

func (self *PathState) ChangedPaths() []int32 {
	return self.changed_paths
}

func (self *PathState) ChangedLoops() []int32 {
	return self.changed_loops
}

func (self *PathState) IsInvalid() bool {
	return self.is_invalid
}

// Marks the pending change malformed, e.g. an unbound successor was seen.
// Checkers treat an invalid state as vacuously feasible.
func (self *PathState) SetInvalid() {
	self.is_invalid = true
}

//*******************************************
// change / commit / revert
//*******************************************

// Declares the new content of a path as a concatenation of chains. A later
// call for the same path inside one change cycle overwrites the earlier one.
func (self *PathState) ChangePath(path int32, chains []ChainBounds) {
	self.changed_paths.Add(path)
	path_begin_index := int32(self.chains.Length())
	self.chains.AddAll(chains)
	path_end_index := int32(self.chains.Length())
	self.paths[path] = pathBounds{path_begin_index, path_end_index}
}

// Declares nodes that become loops with the pending change. Nodes that are
// loops already are filtered out.
func (self *PathState) ChangeLoops(new_loops []int32) {
	for _, loop := range new_loops {
		if self.Path(loop) == -1 {
			continue
		}
		self.changed_loops.Add(loop)
	}
}

func (self *PathState) Commit() {
	if self.IsInvalid() {
		panic("cannot commit an invalid path state")
	}
	if self.committed_nodes.Length() < self.num_nodes_threshold {
		self.incrementalCommit()
	} else {
		self.fullCommit()
	}
}

func (self *PathState) Revert() {
	self.is_invalid = false
	self.chains.Resize(int(self.num_paths))
	for _, path := range self.changed_paths {
		self.paths[path] = pathBounds{path, path + 1}
	}
	self.changed_paths.Clear()
	self.changed_loops.Clear()
}

// Appends the pending content of a path to the committed buffer and updates
// the nodes' path membership.
func (self *PathState) copyNewPathAtEndOfNodes(path int32) {
	bounds := self.paths[path]
	for i := bounds.begin; i < bounds.end; i++ {
		chain := self.chains[i]
		self.committed_nodes.AddAll(self.committed_nodes[chain.Begin:chain.End])
		if self.committed_paths[self.committed_nodes[self.committed_nodes.Length()-1]] == path {
			continue
		}
		for j := chain.Begin; j < chain.End; j++ {
			node := self.committed_nodes[j]
			self.committed_paths[node] = path
		}
	}
}

func (self *PathState) incrementalCommit() {
	new_nodes_begin := self.committed_nodes.Length()
	for _, path := range self.changed_paths {
		chain_begin := int32(self.committed_nodes.Length())
		self.copyNewPathAtEndOfNodes(path)
		chain_end := int32(self.committed_nodes.Length())
		self.chains[path] = ChainBounds{chain_begin, chain_end}
	}
	// Re-index all copied nodes.
	new_nodes_end := self.committed_nodes.Length()
	for i := new_nodes_begin; i < new_nodes_end; i++ {
		node := self.committed_nodes[i]
		self.committed_index[node] = int32(i)
	}
	// New loops stay in place, only their path membership changes.
	for _, loop := range self.changed_loops {
		self.committed_paths[loop] = -1
	}
	self.Revert()
}

func (self *PathState) fullCommit() {
	// Rewrite the whole buffer path by path, this compacts it back to
	// num_nodes entries.
	new_nodes := NewList[int32](int(self.num_nodes))
	for path := int32(0); path < self.num_paths; path++ {
		path_begin := int32(new_nodes.Length())
		bounds := self.paths[path]
		for i := bounds.begin; i < bounds.end; i++ {
			chain := self.chains[i]
			new_nodes.AddAll(self.committed_nodes[chain.Begin:chain.End])
			if self.committed_paths[new_nodes[new_nodes.Length()-1]] == path {
				continue
			}
			for j := chain.Begin; j < chain.End; j++ {
				self.committed_paths[self.committed_nodes[j]] = path
			}
		}
		self.chains[path] = ChainBounds{path_begin, int32(new_nodes.Length())}
	}
	self.committed_nodes = new_nodes

	// Re-index path nodes, then loop nodes.
	self.committed_index.Fill(-1)
	index := int32(0)
	for _, node := range self.committed_nodes {
		self.committed_index[node] = index
		index++
	}
	for node := int32(0); node < self.num_nodes; node++ {
		if self.committed_index[node] != -1 {
			continue
		}
		self.committed_index[node] = index
		index++
		self.committed_nodes.Add(node)
		self.committed_paths[node] = -1
	}
	self.Revert()
}

//*******************************************
// iteration
//*******************************************

// A chain: a maximal run of nodes whose successor links the pending change
// keeps intact, exposed as a slice of the committed buffer.
type Chain struct {
	nodes []int32
}

func (self Chain) First() int32 {
	return self.nodes[0]
}

func (self Chain) Last() int32 {
	return self.nodes[len(self.nodes)-1]
}

func (self Chain) NumNodes() int {
	return len(self.nodes)
}

func (self Chain) Nodes() []int32 {
	return self.nodes
}

func (self Chain) WithoutFirstNode() []int32 {
	return self.nodes[1:]
}

// The chains of a path in order, valid until the next Commit or Revert.
type ChainRange struct {
	chains []ChainBounds
	nodes  []int32
}

func (self ChainRange) Length() int {
	return len(self.chains)
}

func (self ChainRange) Get(i int) Chain {
	bounds := self.chains[i]
	return Chain{nodes: self.nodes[bounds.Begin:bounds.End]}
}

func (self *PathState) Chains(path int32) ChainRange {
	bounds := self.paths[path]
	return ChainRange{
		chains: self.chains[bounds.begin:bounds.end],
		nodes:  self.committed_nodes,
	}
}

// Forward iterator over the nodes of a path, valid until the next Commit or
// Revert.
type NodeIterator struct {
	chains []ChainBounds
	nodes  []int32
	chain  int
	index  int32
}

func (self *NodeIterator) Next() bool {
	self.index++
	for self.chain < len(self.chains) && self.index >= self.chains[self.chain].End {
		self.chain++
		if self.chain < len(self.chains) {
			self.index = self.chains[self.chain].Begin
		}
	}
	return self.chain < len(self.chains)
}

func (self *NodeIterator) Node() int32 {
	return self.nodes[self.index]
}

func (self *PathState) Nodes(path int32) NodeIterator {
	bounds := self.paths[path]
	chains := self.chains[bounds.begin:bounds.end]
	it := NodeIterator{
		chains: chains,
		nodes:  self.committed_nodes,
		chain:  0,
	}
	if len(chains) > 0 {
		it.index = chains[0].Begin - 1
	}
	return it
}

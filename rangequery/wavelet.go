package rangequery

import (
	"golang.org/x/exp/slices"

	"github.com/ttpr0/go-vrp/arith"
)

//*******************************************
// weighted wavelet tree
//*******************************************

// Append-only sequence of (height, weight) pairs, supporting queries
// "sum of weights of elements with height >= threshold inside an index
// range" in O(log(number of distinct heights)).
//
// Elements are pushed in runs (one run per path). MakeTreeFromNewElements()
// builds a balanced binary partition over the distinct heights of the run,
// every tree level stores a stable partition of the run's elements into
// height < pivot / height >= pivot together with prefix sums of weights.
// Queries must stay inside a single run.
type WeightedWaveletTree struct {
	elements      []waveletElement
	tree_location []treeLocation
	nodes         []waveletNode
	tree_layers   [][]elementInfo
	scratch       []waveletElement
}

type waveletElement struct {
	height int64
	weight int64
}

// One node of the value-balanced tree, ordered by pivot height.
// pivot_index is the element position where the node's right child starts.
type waveletNode struct {
	pivot_height int64
	pivot_index  int32
}

// Tree metadata of the run an element belongs to.
type treeLocation struct {
	node_begin     int32
	node_end       int32
	sequence_first int32
}

// Per-layer element bookkeeping: prefix sum of weights inside the
// enclosing node's range, and the mapping into the next layer.
type elementInfo struct {
	prefix_sum int64
	left_index int32
	is_left    bool
}

func NewWeightedWaveletTree() *WeightedWaveletTree {
	return &WeightedWaveletTree{}
}

func (self *WeightedWaveletTree) PushBack(height int64, weight int64) {
	self.elements = append(self.elements, waveletElement{height, weight})
}

// Number of elements already built into the tree.
func (self *WeightedWaveletTree) TreeSize() int {
	return len(self.tree_location)
}

func (self *WeightedWaveletTree) Clear() {
	self.elements = self.elements[:0]
	self.tree_location = self.tree_location[:0]
	self.nodes = self.nodes[:0]
	for l := range self.tree_layers {
		self.tree_layers[l] = self.tree_layers[l][:0]
	}
}

// Builds the tree for the elements pushed since the last build.
func (self *WeightedWaveletTree) MakeTreeFromNewElements() {
	begin_index := len(self.tree_location)
	end_index := len(self.elements)
	if begin_index >= end_index {
		return
	}
	// The sorted distinct heights of the run are the pivot heights of the
	// tree, read by inorder traversal.
	old_node_size := len(self.nodes)
	for i := begin_index; i < end_index; i++ {
		self.nodes = append(self.nodes, waveletNode{pivot_height: self.elements[i].height, pivot_index: -1})
	}
	new_nodes := self.nodes[old_node_size:]
	slices.SortFunc(new_nodes, func(a, b waveletNode) int {
		if a.pivot_height < b.pivot_height {
			return -1
		} else if a.pivot_height > b.pivot_height {
			return 1
		}
		return 0
	})
	unique := old_node_size
	for i := old_node_size; i < len(self.nodes); i++ {
		if unique > old_node_size && self.nodes[unique-1].pivot_height == self.nodes[i].pivot_height {
			continue
		}
		self.nodes[unique] = self.nodes[i]
		unique++
	}
	self.nodes = self.nodes[:unique]
	new_node_size := len(self.nodes)

	for len(self.tree_location) < end_index {
		self.tree_location = append(self.tree_location, treeLocation{
			node_begin:     int32(old_node_size),
			node_end:       int32(new_node_size),
			sequence_first: int32(begin_index),
		})
	}

	// 1 + ceil(log2(number of distinct heights)) layers are touched.
	num_layers := 2 + arith.MSBPosition32(int32(new_node_size-old_node_size-1))
	if num_layers < 1 {
		num_layers = 1
	}
	for len(self.tree_layers) < num_layers {
		self.tree_layers = append(self.tree_layers, nil)
	}
	for l := 0; l < num_layers; l++ {
		for len(self.tree_layers[l]) < end_index {
			self.tree_layers[l] = append(self.tree_layers[l], elementInfo{prefix_sum: 0, left_index: -1, is_left: false})
		}
	}

	self.fillSubtree(0, old_node_size, new_node_size, begin_index, end_index)
}

func (self *WeightedWaveletTree) fillSubtree(layer int, node_begin int, node_end int, range_begin int, range_end int) {
	// Prefix sums of the node's range at this layer.
	sum := int64(0)
	for i := range_begin; i < range_end; i++ {
		sum += self.elements[i].weight
		self.tree_layers[layer][i].prefix_sum = sum
	}
	if node_begin+1 == node_end {
		return
	}
	// More than one height in the node, partition its range.
	// left_index records, for elements with height < pivot, their position
	// in the next layer, and for the others, the position the next smaller
	// element will take.
	node_mid := node_begin + (node_end-node_begin)/2
	pivot_height := self.nodes[node_mid].pivot_height
	pivot_index := range_begin
	for i := range_begin; i < range_end; i++ {
		self.tree_layers[layer][i].left_index = int32(pivot_index)
		is_left := self.elements[i].height < pivot_height
		self.tree_layers[layer][i].is_left = is_left
		if is_left {
			pivot_index++
		}
	}
	self.nodes[node_mid].pivot_index = int32(pivot_index)

	// Stable partition of the elements by height < pivot.
	self.scratch = self.scratch[:0]
	left := range_begin
	for i := range_begin; i < range_end; i++ {
		if self.elements[i].height < pivot_height {
			self.elements[left] = self.elements[i]
			left++
		} else {
			self.scratch = append(self.scratch, self.elements[i])
		}
	}
	copy(self.elements[left:range_end], self.scratch)

	self.fillSubtree(layer+1, node_begin, node_mid, range_begin, pivot_index)
	self.fillSubtree(layer+1, node_mid, node_end, pivot_index, range_end)
}

//*******************************************
// queries
//*******************************************

// Query range of a tree node, indices are positions at the node's layer.
type elementRange struct {
	first_index int32
	last_index  int32 // inclusive
	// Whether first_index is the first element of the node's range, in which
	// case the prefix sum left of it is zero.
	first_is_node_first bool
}

func (self elementRange) Empty() bool {
	return self.first_index > self.last_index
}

func (self elementRange) Sum(elements []elementInfo) int64 {
	sum := elements[self.last_index].prefix_sum
	if !self.first_is_node_first {
		sum -= elements[self.first_index-1].prefix_sum
	}
	return sum
}

func (self elementRange) LeftSubRange(elements []elementInfo, node_first int32) elementRange {
	first := elements[self.first_index].left_index
	last := elements[self.last_index].left_index
	if !elements[self.last_index].is_left {
		last--
	}
	return elementRange{
		first_index:         first,
		last_index:          last,
		first_is_node_first: first == node_first,
	}
}

func (self elementRange) RightSubRange(elements []elementInfo, pivot_index int32) elementRange {
	first := pivot_index + (self.first_index - elements[self.first_index].left_index)
	last := pivot_index + (self.last_index - elements[self.last_index].left_index)
	if elements[self.last_index].is_left {
		last--
	}
	return elementRange{
		first_index:         first,
		last_index:          last,
		first_is_node_first: first == pivot_index,
	}
}

// Sum of weights of elements with height >= threshold_height over the
// half-open index range [begin_index, end_index). The range must lie inside
// a single run, and all pushed elements must have been built into the tree.
func (self *WeightedWaveletTree) RangeSumWithThreshold(threshold_height int64, begin_index int, end_index int) int64 {
	if begin_index > end_index || end_index > len(self.tree_location) {
		panic("invalid wavelet tree query range")
	}
	if begin_index >= end_index {
		return 0
	}
	location := self.tree_location[begin_index]
	node_begin := int(location.node_begin)
	node_end := int(location.node_end)
	rng := elementRange{
		first_index:         int32(begin_index),
		last_index:          int32(end_index - 1),
		first_is_node_first: int32(begin_index) == location.sequence_first,
	}
	// O(1) when all heights are below the threshold.
	if self.nodes[node_end-1].pivot_height < threshold_height {
		return 0
	}

	sum := int64(0)
	node_elem_begin := location.sequence_first
	min_height_of_current_node := self.nodes[node_begin].pivot_height
	for l := 0; !rng.Empty(); l++ {
		elements := self.tree_layers[l]
		if threshold_height <= min_height_of_current_node {
			// The threshold covers every element of this node, O(1) resolve.
			sum += rng.Sum(elements)
			return sum
		} else if node_begin+1 == node_end {
			// Leaf with height < threshold, stop the descent.
			return sum
		}

		node_mid := node_begin + (node_end-node_begin)/2
		pivot_height := self.nodes[node_mid].pivot_height
		pivot_index := self.nodes[node_mid].pivot_index
		right := rng.RightSubRange(elements, pivot_index)
		if threshold_height < pivot_height {
			// The whole right child is above the threshold, add its subrange
			// and descend into the left child.
			if !right.Empty() {
				sum += right.Sum(self.tree_layers[l+1])
			}
			rng = rng.LeftSubRange(elements, node_elem_begin)
			node_end = node_mid
		} else {
			rng = right
			node_begin = node_mid
			node_elem_begin = pivot_index
			min_height_of_current_node = pivot_height
		}
	}
	return sum
}

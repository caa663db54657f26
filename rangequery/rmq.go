package rangequery

import (
	"github.com/ttpr0/go-vrp/arith"
)

//*******************************************
// range minimum query
//*******************************************

// Sparse table over an append-only sequence of values, answering minimum
// queries over index ranges in O(1).
//
// Values are pushed in runs (one run per path), MakeTableFromNewElements()
// builds the table layers for the values pushed since the last build.
// Queries must not span two different runs, windows are never computed
// across a run boundary.
type RangeMinimumQuery struct {
	values     []int64
	layers     [][]int64
	built_size int
}

func NewRangeMinimumQuery() *RangeMinimumQuery {
	return &RangeMinimumQuery{}
}

func (self *RangeMinimumQuery) PushBack(value int64) {
	self.values = append(self.values, value)
}

// Number of values pushed so far.
func (self *RangeMinimumQuery) TableSize() int {
	return len(self.values)
}

// The raw value sequence, indexed by the positions handed out at PushBack
// time.
func (self *RangeMinimumQuery) Array() []int64 {
	return self.values
}

func (self *RangeMinimumQuery) Clear() {
	self.values = self.values[:0]
	self.built_size = 0
	for l := range self.layers {
		self.layers[l] = self.layers[l][:0]
	}
}

// Builds table layers for the values pushed since the last build.
func (self *RangeMinimumQuery) MakeTableFromNewElements() {
	begin_index := self.built_size
	end_index := len(self.values)
	if begin_index >= end_index {
		return
	}
	run_size := end_index - begin_index
	max_layer := arith.MSBPosition32(int32(run_size))
	for len(self.layers) <= max_layer {
		self.layers = append(self.layers, nil)
	}
	// Layer 0 is the value sequence itself.
	if len(self.layers) > 0 {
		self.layers[0] = append(self.layers[0], self.values[begin_index:end_index]...)
	}
	for layer, window := 1, 1; layer <= max_layer; layer, window = layer+1, window*2 {
		for len(self.layers[layer]) < begin_index {
			self.layers[layer] = append(self.layers[layer], 0)
		}
		for i := begin_index; i+2*window <= end_index; i++ {
			left := self.layers[layer-1][i]
			right := self.layers[layer-1][i+window]
			if right < left {
				left = right
			}
			self.layers[layer] = append(self.layers[layer], left)
		}
		for len(self.layers[layer]) < end_index {
			self.layers[layer] = append(self.layers[layer], 0)
		}
	}
	self.built_size = end_index
}

// Minimum of values[first..last], both inclusive. The range must lie inside
// a single run.
func (self *RangeMinimumQuery) RangeMinimum(first int, last int) int64 {
	if first > last {
		panic("invalid range minimum query")
	}
	layer := arith.MSBPosition32(int32(last - first + 1))
	window := 1 << layer
	left := self.layers[layer][first]
	right := self.layers[layer][last-window+1]
	if right < left {
		return right
	}
	return left
}

package filters

import (
	. "github.com/ttpr0/go-vrp/util"
)

//*******************************************
// assignment / delta
//*******************************************

// One changed next-variable: the variable index equals the node whose
// successor changes. An unbound element is a large-neighborhood-search
// placeholder whose value is not decided yet.
type AssignmentElement struct {
	Var   int32
	Value int64
	Bound bool
}

// Sparse set of next-variable values. Used both as a candidate delta (only
// the changed variables) and as a full assignment on synchronization.
type Assignment struct {
	elements List[AssignmentElement]
}

func NewAssignment() *Assignment {
	return &Assignment{
		elements: NewList[AssignmentElement](8),
	}
}

func (self *Assignment) Add(variable int32, value int64) *Assignment {
	self.elements.Add(AssignmentElement{Var: variable, Value: value, Bound: true})
	return self
}

func (self *Assignment) AddUnbound(variable int32) *Assignment {
	self.elements.Add(AssignmentElement{Var: variable, Bound: false})
	return self
}

func (self *Assignment) Elements() []AssignmentElement {
	if self == nil {
		return nil
	}
	return self.elements
}

func (self *Assignment) Empty() bool {
	return self == nil || self.elements.Length() == 0
}

func (self *Assignment) Clear() {
	self.elements.Clear()
}

//*******************************************
// sparse set
//*******************************************

// Set over a dense int32 universe with O(changed) clearing.
type sparseSet struct {
	is_set    Array[bool]
	positions List[int32]
}

func newSparseSet(size int32) sparseSet {
	return sparseSet{
		is_set:    NewArray[bool](int(size)),
		positions: NewList[int32](8),
	}
}

func (self *sparseSet) Set(position int32) {
	if self.is_set[position] {
		return
	}
	self.is_set[position] = true
	self.positions.Add(position)
}

func (self *sparseSet) Contains(position int32) bool {
	return self.is_set[position]
}

func (self *sparseSet) PositionsSetAtLeastOnce() []int32 {
	return self.positions
}

func (self *sparseSet) SparseClearAll() {
	for _, position := range self.positions {
		self.is_set[position] = false
	}
	self.positions.Clear()
}

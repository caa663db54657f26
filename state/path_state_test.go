package state

import (
	"testing"

	. "github.com/ttpr0/go-vrp/util"
)

// Reads the nodes of a path through the Nodes iterator.
func pathNodes(state *PathState, path int32) []int32 {
	nodes := []int32{}
	it := state.Nodes(path)
	for it.Next() {
		nodes = append(nodes, it.Node())
	}
	return nodes
}

func equalNodes(a []int32, b []int32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Single-node chain at the committed position of the node.
func chainOf(state *PathState, node int32) ChainBounds {
	index := state.CommittedIndex(node)
	return ChainBounds{index, index + 1}
}

func TestInitialState(t *testing.T) {
	// Paths 0: 4->5, 1: 6->7, nodes 0..3 are loops.
	state := NewPathState(8, Array[int32]{4, 6}, Array[int32]{5, 7})

	if state.NumNodes() != 8 || state.NumPaths() != 2 {
		t.Errorf("wrong node or path count")
	}
	if state.Start(1) != 6 || state.End(1) != 7 {
		t.Errorf("wrong path bounds")
	}
}

func newTestState() *PathState {
	// 10 nodes, 3 paths: 4->7, 5->8, 6->9, customers 0..3.
	starts := Array[int32]{4, 5, 6}
	ends := Array[int32]{7, 8, 9}
	return NewPathState(10, starts, ends)
}

func TestEmptyPaths(t *testing.T) {
	state := newTestState()
	for path := int32(0); path < 3; path++ {
		nodes := pathNodes(state, path)
		if !equalNodes(nodes, []int32{state.Start(path), state.End(path)}) {
			t.Errorf("path %v: expected start/end, got %v", path, nodes)
		}
	}
	for node := int32(0); node < 4; node++ {
		if state.Path(node) != -1 {
			t.Errorf("node %v should be a loop", node)
		}
	}
	if state.Path(4) != 0 || state.Path(9) != 2 {
		t.Errorf("wrong path membership")
	}
}

func TestChangePathCommit(t *testing.T) {
	state := newTestState()
	// Insert nodes 0 and 1 into path 0: 4 -> 0 -> 1 -> 7.
	state.ChangePath(0, []ChainBounds{
		chainOf(state, 4),
		chainOf(state, 0),
		chainOf(state, 1),
		chainOf(state, 7),
	})
	state.ChangeLoops([]int32{})

	expected := []int32{4, 0, 1, 7}
	if !equalNodes(pathNodes(state, 0), expected) {
		t.Errorf("expected %v, got %v", expected, pathNodes(state, 0))
	}

	state.Commit()
	// After the commit the path reads the same and membership is updated.
	if !equalNodes(pathNodes(state, 0), expected) {
		t.Errorf("after commit: expected %v, got %v", expected, pathNodes(state, 0))
	}
	if state.Path(0) != 0 || state.Path(1) != 0 {
		t.Errorf("inserted nodes should be on path 0")
	}
	// Adjacency of committed positions.
	if state.CommittedIndex(0) != state.CommittedIndex(4)+1 {
		t.Errorf("committed positions should be adjacent")
	}
	if len(state.ChangedPaths()) != 0 {
		t.Errorf("commit should clear the changed paths")
	}
}

func TestRevert(t *testing.T) {
	state := newTestState()
	state.ChangePath(0, []ChainBounds{chainOf(state, 4), chainOf(state, 2), chainOf(state, 7)})
	state.Revert()

	if !equalNodes(pathNodes(state, 0), []int32{4, 7}) {
		t.Errorf("revert should restore the committed path")
	}
	if len(state.ChangedPaths()) != 0 {
		t.Errorf("revert should clear the changed paths")
	}
}

func TestMoveBetweenPaths(t *testing.T) {
	state := newTestState()
	state.ChangePath(0, []ChainBounds{chainOf(state, 4), chainOf(state, 0), chainOf(state, 7)})
	state.Commit()

	// Move node 0 from path 0 to path 1.
	state.ChangePath(0, []ChainBounds{chainOf(state, 4), chainOf(state, 7)})
	state.ChangePath(1, []ChainBounds{chainOf(state, 5), chainOf(state, 0), chainOf(state, 8)})
	state.Commit()

	if !equalNodes(pathNodes(state, 0), []int32{4, 7}) {
		t.Errorf("path 0 should be empty again, got %v", pathNodes(state, 0))
	}
	if !equalNodes(pathNodes(state, 1), []int32{5, 0, 8}) {
		t.Errorf("path 1 should contain node 0, got %v", pathNodes(state, 1))
	}
	if state.Path(0) != 1 {
		t.Errorf("node 0 should be on path 1")
	}
}

func TestChangeLoops(t *testing.T) {
	state := newTestState()
	state.ChangePath(0, []ChainBounds{chainOf(state, 4), chainOf(state, 3), chainOf(state, 7)})
	state.Commit()

	// Remove node 3 again.
	state.ChangePath(0, []ChainBounds{chainOf(state, 4), chainOf(state, 7)})
	state.ChangeLoops([]int32{3, 2})
	// Node 2 is a loop already and must be filtered.
	if len(state.ChangedLoops()) != 1 || state.ChangedLoops()[0] != 3 {
		t.Errorf("expected changed loops [3], got %v", state.ChangedLoops())
	}
	state.Commit()

	if state.Path(3) != -1 {
		t.Errorf("node 3 should be a loop again")
	}
}

// Every incremental commit appends the changed paths to the committed
// buffer, the full commit compacts it again. Moving a node around long
// enough crosses the threshold several times and must never corrupt the
// paths.
func TestFullCommitCompacts(t *testing.T) {
	state := newTestState()
	state.ChangePath(0, []ChainBounds{chainOf(state, 4), chainOf(state, 0), chainOf(state, 7)})
	state.Commit()

	for i := 0; i < 20; i++ {
		from := state.Path(0)
		to := (from + 1) % 3
		state.ChangePath(from, []ChainBounds{
			chainOf(state, state.Start(from)),
			chainOf(state, state.End(from)),
		})
		state.ChangePath(to, []ChainBounds{
			chainOf(state, state.Start(to)),
			chainOf(state, 0),
			chainOf(state, state.End(to)),
		})
		state.Commit()

		if state.Path(0) != to {
			t.Fatalf("move %v: node 0 should be on path %v", i, to)
		}
		for path := int32(0); path < 3; path++ {
			expected := []int32{state.Start(path), state.End(path)}
			if path == to {
				expected = []int32{state.Start(path), 0, state.End(path)}
			}
			if !equalNodes(pathNodes(state, path), expected) {
				t.Fatalf("move %v: path %v is %v, expected %v", i, path, pathNodes(state, path), expected)
			}
		}
	}
	// Twenty moves append about a hundred nodes, without compaction the
	// buffer would hold them all.
	if state.committed_nodes.Length() > 45 {
		t.Errorf("expected a compacted buffer, got %v entries", state.committed_nodes.Length())
	}
}

func TestInvalidCommitPanics(t *testing.T) {
	state := newTestState()
	state.SetInvalid()
	defer func() {
		if recover() == nil {
			t.Errorf("commit on an invalid state should panic")
		}
	}()
	state.Commit()
}

func TestSetInvalidRevert(t *testing.T) {
	state := newTestState()
	state.SetInvalid()
	if !state.IsInvalid() {
		t.Errorf("state should be invalid")
	}
	state.Revert()
	if state.IsInvalid() {
		t.Errorf("revert should clear the invalid flag")
	}
}

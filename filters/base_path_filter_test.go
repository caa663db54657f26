package filters

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ttpr0/go-vrp/arith"
	. "github.com/ttpr0/go-vrp/util"
)

type acceptedChain struct {
	path_start  int32
	chain_start int32
	chain_end   int32
}

// Hooks that record every callback.
type recordingHooks struct {
	BasePathFilterHooks
	disable             bool
	accepted_chains     []acceptedChain
	finalize_calls      int
	initialize_calls    int
	synchronized_starts []int32
}

func (self *recordingHooks) DisableFiltering() bool {
	return self.disable
}

func (self *recordingHooks) InitializeAcceptPath() bool {
	self.initialize_calls++
	return true
}

func (self *recordingHooks) AcceptPath(path_start int32, chain_start int32, chain_end int32) bool {
	self.accepted_chains = append(self.accepted_chains, acceptedChain{path_start, chain_start, chain_end})
	return true
}

func (self *recordingHooks) FinalizeAcceptPath(objective_min int64, objective_max int64) bool {
	self.finalize_calls++
	return true
}

func (self *recordingHooks) OnSynchronizePathFromStart(start int32) {
	self.synchronized_starts = append(self.synchronized_starts, start)
}

func (self *recordingHooks) reset() {
	self.accepted_chains = nil
	self.finalize_calls = 0
	self.initialize_calls = 0
	self.synchronized_starts = nil
}

// Customers 0..5, starts 6/7, ends 8/9. Path 0 is 6->0->1->2->8, path 1 is
// 7->3->9, customers 4 and 5 are loops.
func newBaseFilter() (*BasePathFilter, *recordingHooks, *Assignment) {
	hooks := &recordingHooks{}
	base := NewBasePathFilter(8, 10, Array[int32]{6, 7}, Array[int32]{8, 9}, hooks)
	assignment := NewAssignment().
		Add(6, 0).Add(0, 1).Add(1, 2).Add(2, 8).
		Add(7, 3).Add(3, 9).
		Add(4, 4).Add(5, 5)
	return base, hooks, assignment
}

func TestBasePathFilterRanks(t *testing.T) {
	base, hooks, assignment := newBaseFilter()
	base.Synchronize(assignment, nil)

	require.ElementsMatch(t, []int32{6, 7}, hooks.synchronized_starts)
	require.Equal(t, int32(0), base.Rank(6))
	require.Equal(t, int32(1), base.Rank(0))
	require.Equal(t, int32(3), base.Rank(2))
	require.Equal(t, int32(4), base.Rank(8))
	require.Equal(t, int32(1), base.Rank(3))
	require.True(t, base.IsVarSynced(0))
	require.Equal(t, int32(2), base.Value(1))
}

func TestBasePathFilterTouchedChain(t *testing.T) {
	base, hooks, assignment := newBaseFilter()
	base.Synchronize(assignment, nil)
	hooks.reset()

	// Dropping customer 1 touches nodes 0, 2 and 1, so the touched chain of
	// path 0 runs from rank 1 to rank 3.
	delta := NewAssignment().Add(0, 2).Add(1, 1)
	require.True(t, base.Accept(delta, arith.INT64_MIN, arith.INT64_MAX))
	require.Equal(t, 1, hooks.initialize_calls)
	require.Equal(t, 1, hooks.finalize_calls)
	require.Equal(t, []acceptedChain{{6, 0, 2}}, hooks.accepted_chains)
	require.Equal(t, int32(2), base.GetNext(0))
	require.False(t, base.LnsDetected())

	// Incremental synchronization of the accepted move.
	hooks.reset()
	base.Synchronize(nil, delta)
	require.Equal(t, []int32{6}, hooks.synchronized_starts)
	require.Equal(t, []int32{1}, base.NewSynchronizedUnperformedNodes())
	require.Equal(t, int32(2), base.Rank(2))
	require.Equal(t, int32(3), base.Rank(8))

	// A touched start delimits the chain itself.
	hooks.reset()
	delta = NewAssignment().Add(6, 2).Add(0, 0)
	require.True(t, base.Accept(delta, arith.INT64_MIN, arith.INT64_MAX))
	require.Equal(t, []acceptedChain{{6, 6, 2}}, hooks.accepted_chains)
}

func TestBasePathFilterMultiplePaths(t *testing.T) {
	base, hooks, assignment := newBaseFilter()
	base.Synchronize(assignment, nil)
	hooks.reset()

	// Moving customer 3 from path 1 behind customer 0 touches both paths.
	delta := NewAssignment().Add(7, 9).Add(0, 3).Add(3, 1)
	require.True(t, base.Accept(delta, arith.INT64_MIN, arith.INT64_MAX))
	require.Len(t, hooks.accepted_chains, 2)
	require.ElementsMatch(t,
		[]acceptedChain{{6, 0, 1}, {7, 7, 9}},
		hooks.accepted_chains)
}

func TestBasePathFilterLns(t *testing.T) {
	base, hooks, assignment := newBaseFilter()
	base.Synchronize(assignment, nil)
	hooks.reset()

	delta := NewAssignment().Add(0, 2).AddUnbound(1)
	require.True(t, base.Accept(delta, arith.INT64_MIN, arith.INT64_MAX))
	require.True(t, base.LnsDetected())
	// The unbound variable short-circuits the path checks.
	require.Empty(t, hooks.accepted_chains)
	require.Equal(t, 0, hooks.initialize_calls)
}

func TestBasePathFilterDisabledStaysDisabled(t *testing.T) {
	base, hooks, assignment := newBaseFilter()
	hooks.disable = true
	base.Synchronize(assignment, nil)
	require.True(t, base.IsDisabled())

	// The check happens once, flipping the hook back has no effect.
	hooks.disable = false
	base.Synchronize(assignment, nil)
	require.True(t, base.IsDisabled())

	hooks.reset()
	delta := NewAssignment().Add(0, 2).Add(1, 1)
	require.True(t, base.Accept(delta, arith.INT64_MIN, arith.INT64_MAX))
	require.Empty(t, hooks.accepted_chains)
	require.Equal(t, 0, hooks.initialize_calls)
}

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chainFixture holds an in-memory task graph the resolvers walk.
type chainFixture struct {
	parents map[uint]*uint // task id -> parent id
	scopes  map[uint]uint  // task id -> control id
}

func (f *chainFixture) parentOf(id uint) (*uint, error) { return f.parents[id], nil }
func (f *chainFixture) scopeOf(id uint) (uint, error)   { return f.scopes[id], nil }

// buildChain creates tasks A=1, B=2, C=3 with C -> B -> A (C depends on B,
// B depends on A), all on control 100.
func buildChain() *chainFixture {
	a, b := uint(1), uint(2)
	return &chainFixture{
		parents: map[uint]*uint{1: nil, 2: &a, 3: &b},
		scopes:  map[uint]uint{1: 100, 2: 100, 3: 100},
	}
}

func todoWithID(id, controlID uint) *ToDo {
	t := &ToDo{ControlID: controlID}
	t.ID = id
	return t
}

func TestSetDependency_SelfRejected(t *testing.T) {
	f := buildChain()
	task := todoWithID(1, 100)

	err := task.SetDependency(uintPtr(1), f.parentOf, f.scopeOf, true, 0)
	require.Error(t, err)
	assert.True(t, IsInvariant(err))
	assert.Nil(t, task.DependsOnID)
}

func TestSetDependency_CycleRejected(t *testing.T) {
	f := buildChain()
	// A -> C would close the cycle A -> C -> B -> A
	taskA := todoWithID(1, 100)

	err := taskA.SetDependency(uintPtr(3), f.parentOf, f.scopeOf, true, 0)
	require.Error(t, err)
	assert.True(t, IsInvariant(err))
	assert.Contains(t, err.Error(), "cycle")
	assert.Nil(t, taskA.DependsOnID, "failed edit must leave the dependency unchanged")
}

func TestSetDependency_ValidChainAccepted(t *testing.T) {
	f := buildChain()
	taskD := todoWithID(4, 100)
	f.scopes[4] = 100

	// D -> C extends the chain without closing anything
	err := taskD.SetDependency(uintPtr(3), f.parentOf, f.scopeOf, true, 0)
	require.NoError(t, err)
	require.NotNil(t, taskD.DependsOnID)
	assert.Equal(t, uint(3), *taskD.DependsOnID)
}

func TestSetDependency_NilClears(t *testing.T) {
	f := buildChain()
	taskC := todoWithID(3, 100)
	taskC.DependsOnID = uintPtr(2)

	err := taskC.SetDependency(nil, f.parentOf, f.scopeOf, true, 0)
	require.NoError(t, err)
	assert.Nil(t, taskC.DependsOnID)
}

func TestSetDependency_CrossControlRejected(t *testing.T) {
	f := buildChain()
	f.scopes[5] = 200
	f.parents[5] = nil
	task := todoWithID(4, 100)

	err := task.SetDependency(uintPtr(5), f.parentOf, f.scopeOf, true, 0)
	require.Error(t, err)
	assert.True(t, IsInvariant(err))

	// same edge passes once scope enforcement is off
	err = task.SetDependency(uintPtr(5), f.parentOf, nil, false, 0)
	assert.NoError(t, err)
}

func TestSetDependency_HopCap(t *testing.T) {
	// long linear chain 1 <- 2 <- ... <- 50
	f := &chainFixture{parents: map[uint]*uint{1: nil}, scopes: map[uint]uint{}}
	for i := uint(2); i <= 50; i++ {
		parent := i - 1
		f.parents[i] = &parent
	}
	for i := uint(1); i <= 50; i++ {
		f.scopes[i] = 100
	}

	task := todoWithID(60, 100)
	err := task.SetDependency(uintPtr(50), f.parentOf, f.scopeOf, true, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hops")

	err = task.SetDependency(uintPtr(50), f.parentOf, f.scopeOf, true, 100)
	assert.NoError(t, err, "cap above chain length must not reject a legitimate chain")
}

func TestSetDependencyUnchecked(t *testing.T) {
	task := todoWithID(7, 100)

	require.Error(t, task.SetDependencyUnchecked(uintPtr(7)), "self-dependency stays rejected")

	require.NoError(t, task.SetDependencyUnchecked(uintPtr(3)))
	require.NotNil(t, task.DependsOnID)
	assert.Equal(t, uint(3), *task.DependsOnID)

	require.NoError(t, task.SetDependencyUnchecked(nil))
	assert.Nil(t, task.DependsOnID)
}

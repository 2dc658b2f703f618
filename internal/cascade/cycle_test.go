package cascade_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydrosched/hydrosched/internal/cascade"
	"github.com/hydrosched/hydrosched/internal/plant"
)

func requireCycle(t *testing.T, err error) *cascade.CycleError {
	t.Helper()
	require.Error(t, err)
	var cerr *cascade.CycleError
	require.True(t, errors.As(err, &cerr), "want *CycleError, got %T: %v", err, err)
	return cerr
}

func TestBuild_DirectCycleFails(t *testing.T) {
	_, _, err := cascade.Build([]plant.Plant{
		res("A", "B", 1.0),
		res("B", "A", 1.0),
	})
	cerr := requireCycle(t, err)
	assert.Equal(t, []string{"A", "B", "A"}, cerr.Path)
	assert.Equal(t, "circular cascade dependency: A -> B -> A", cerr.Error())
}

func TestBuild_SelfLoopFails(t *testing.T) {
	_, _, err := cascade.Build([]plant.Plant{
		res("A", "A", 1.0),
	})
	cerr := requireCycle(t, err)
	assert.Equal(t, []string{"A", "A"}, cerr.Path)
	assert.Equal(t, "circular cascade dependency: A -> A", cerr.Error())
}

// The reported path is the loop only: a tail leading into the cycle is not
// part of the circular dependency and must not appear.
func TestBuild_CycleWithTailReportsLoopOnly(t *testing.T) {
	_, _, err := cascade.Build([]plant.Plant{
		res("TAIL", "A", 1.0),
		res("A", "B", 1.0),
		res("B", "C", 1.0),
		res("C", "A", 1.0),
	})
	cerr := requireCycle(t, err)
	assert.Equal(t, []string{"A", "B", "C", "A"}, cerr.Path)
}

// A cyclic component with no headwater feeding it is unreachable from any
// headwater; it must still be detected because every plant is a DFS root.
func TestBuild_HeadwaterlessComponentCycleDetected(t *testing.T) {
	_, _, err := cascade.Build([]plant.Plant{
		res("H", "T", 1.0),
		res("T", "", 0),
		res("X", "Y", 2.0),
		res("Y", "X", 2.0),
	})
	cerr := requireCycle(t, err)
	assert.ElementsMatch(t, []string{"X", "Y"}, cerr.Path[:len(cerr.Path)-1])
	assert.Equal(t, cerr.Path[0], cerr.Path[len(cerr.Path)-1])
}

// Every plant in the cycle appears exactly once before the closing repeat.
func TestBuild_CyclePathHasNoDuplicates(t *testing.T) {
	_, _, err := cascade.Build([]plant.Plant{
		res("A", "B", 1.0),
		res("B", "C", 1.0),
		res("C", "D", 1.0),
		res("D", "B", 1.0),
	})
	cerr := requireCycle(t, err)
	require.GreaterOrEqual(t, len(cerr.Path), 3)
	body := cerr.Path[:len(cerr.Path)-1]
	seen := make(map[string]bool, len(body))
	for _, id := range body {
		assert.False(t, seen[id], "duplicate %s in cycle path %v", id, cerr.Path)
		seen[id] = true
	}
	assert.Equal(t, cerr.Path[0], cerr.Path[len(cerr.Path)-1])
	assert.ElementsMatch(t, []string{"B", "C", "D"}, body)
}

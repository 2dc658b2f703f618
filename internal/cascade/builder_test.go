package cascade_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydrosched/hydrosched/internal/cascade"
	"github.com/hydrosched/hydrosched/internal/plant"
)

// res builds a reservoir test plant; empty downstream means no outflow.
func res(id, downstream string, delay float64) plant.Plant {
	if downstream == "" {
		return plant.NewReservoir(id, nil, 500)
	}
	return plant.NewReservoir(id, &plant.Outflow{DownstreamID: downstream, DelayHours: delay}, 500)
}

func TestBuild_LinearChain(t *testing.T) {
	topo, diags, err := cascade.Build([]plant.Plant{
		res("A", "B", 2.0),
		res("B", "C", 2.0),
		res("C", "", 0),
	})
	require.NoError(t, err)
	assert.Zero(t, diags.Total())

	assert.Equal(t, []string{"A"}, topo.Headwaters())
	assert.Equal(t, []string{"C"}, topo.Terminals())
	assert.Equal(t, []string{"A", "B", "C"}, topo.Order())
	for id, want := range map[string]int{"A": 0, "B": 1, "C": 2} {
		d, ok := topo.Depth(id)
		require.True(t, ok, id)
		assert.Equal(t, want, d, id)
	}
	assert.Equal(t, []cascade.Contribution{{UpstreamID: "A", DelayHours: 2.0}}, topo.Upstream("B"))
	assert.Empty(t, topo.Upstream("A"))
}

func TestBuild_DiamondConfluence(t *testing.T) {
	topo, _, err := cascade.Build([]plant.Plant{
		res("A", "C", 1.0),
		res("B", "C", 1.0),
		res("C", "", 0),
	})
	require.NoError(t, err)

	d, _ := topo.Depth("C")
	assert.Equal(t, 1, d)
	assert.ElementsMatch(t, []cascade.Contribution{
		{UpstreamID: "A", DelayHours: 1.0},
		{UpstreamID: "B", DelayHours: 1.0},
	}, topo.Upstream("C"))

	order := topo.Order()
	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	assert.Less(t, pos["A"], pos["C"])
	assert.Less(t, pos["B"], pos["C"])
}

func TestBuild_DanglingReferenceToleratedAsTerminal(t *testing.T) {
	topo, diags, err := cascade.Build([]plant.Plant{
		res("A", "B", 1.0),
		res("B", "GHOST", 3.0),
	})
	require.NoError(t, err)

	assert.Contains(t, topo.Terminals(), "B")
	assert.NotContains(t, topo.Terminals(), "A")
	assert.Equal(t, 1, diags.Total())
	require.Len(t, diags.Dangling(), 1)
	assert.Equal(t, cascade.Dangling{PlantID: "B", DownstreamID: "GHOST"}, diags.Dangling()[0])
	assert.False(t, diags.Truncated())
}

func TestBuild_DiagnosticsTruncateBeyondCap(t *testing.T) {
	var plants []plant.Plant
	for i := 0; i < 20; i++ {
		id := fmt.Sprintf("P%02d", i)
		plants = append(plants, res(id, "MISSING-"+id, 1.0))
	}
	_, diags, err := cascade.Build(plants)
	require.NoError(t, err)

	assert.Equal(t, 20, diags.Total())
	assert.Len(t, diags.Dangling(), 16)
	assert.True(t, diags.Truncated())
}

func TestBuild_IsolatedPlantIsHeadwaterAndTerminal(t *testing.T) {
	topo, _, err := cascade.Build([]plant.Plant{
		res("A", "B", 1.0),
		res("B", "", 0),
		res("LONER", "", 0),
	})
	require.NoError(t, err)

	assert.Contains(t, topo.Headwaters(), "LONER")
	assert.Contains(t, topo.Terminals(), "LONER")
	d, ok := topo.Depth("LONER")
	require.True(t, ok)
	assert.Equal(t, 0, d)
}

func TestBuild_PumpedStorageAlwaysTerminal(t *testing.T) {
	topo, diags, err := cascade.Build([]plant.Plant{
		res("A", "B", 1.0),
		res("B", "", 0),
		plant.NewPumpedStorage("PS", 200),
	})
	require.NoError(t, err)

	assert.Contains(t, topo.Terminals(), "PS")
	assert.Contains(t, topo.Headwaters(), "PS")
	assert.Zero(t, diags.Total())
}

func TestBuild_EmptySet(t *testing.T) {
	topo, diags, err := cascade.Build(nil)
	require.NoError(t, err)
	assert.Zero(t, topo.PlantCount())
	assert.Zero(t, topo.MaxDepth())
	assert.Zero(t, diags.Total())
}

// Totality: order, depths, and upstream entries cover exactly the input IDs.
func TestBuild_TotalOverInput(t *testing.T) {
	plants := []plant.Plant{
		res("R1", "R3", 4.0),
		res("R2", "R3", 6.5),
		res("R3", "R5", 2.0),
		res("R4", "R5", 1.0),
		res("R5", "SEA", 0.5), // dangling
		plant.NewPumpedStorage("PS1", 300),
		res("SOLO", "", 0),
	}
	topo, _, err := cascade.Build(plants)
	require.NoError(t, err)

	want := make(map[string]bool, len(plants))
	for _, p := range plants {
		want[p.ID()] = true
	}

	order := topo.Order()
	assert.Len(t, order, len(plants))
	seen := make(map[string]bool, len(order))
	for _, id := range order {
		assert.True(t, want[id], "unexpected id %s in order", id)
		assert.False(t, seen[id], "duplicate id %s in order", id)
		seen[id] = true
	}
	for id := range want {
		_, ok := topo.Depth(id)
		assert.True(t, ok, "missing depth for %s", id)
	}
	// Unknown IDs are answered with an empty set, not an error.
	assert.Empty(t, topo.Upstream("NOT-A-PLANT"))
}

// A headwater is exactly a plant with no upstream contributor, and its depth
// is exactly 0.
func TestBuild_HeadwaterClassification(t *testing.T) {
	topo, _, err := cascade.Build([]plant.Plant{
		res("A", "B", 1.0),
		res("B", "C", 1.0),
		res("C", "", 0),
		res("D", "B", 2.0),
	})
	require.NoError(t, err)

	heads := make(map[string]bool)
	for _, id := range topo.Headwaters() {
		heads[id] = true
	}
	for _, id := range topo.Order() {
		d, _ := topo.Depth(id)
		if heads[id] {
			assert.Empty(t, topo.Upstream(id), id)
			assert.Zero(t, d, id)
		} else {
			assert.NotEmpty(t, topo.Upstream(id), id)
			assert.Positive(t, d, id)
		}
	}
}

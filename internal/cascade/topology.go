package cascade

// Contribution is one upstream plant feeding a given plant, with the
// water-transit delay of that river reach.
type Contribution struct {
	UpstreamID string  `json:"upstream_id"`
	DelayHours float64 `json:"delay_hours"`
}

// Topology is the validated cascade graph for one plant set.
// It is immutable once built; a registry change produces a new Topology that
// consumers swap in atomically.
type Topology struct {
	upstream   map[string][]Contribution // plant id → upstream contributors
	depths     map[string]int            // plant id → hops from the farthest headwater
	order      []string                  // upstream-first total order
	headwaters []string
	terminals  []string
}

// Upstream returns the plants whose releases flow into id, with their transit
// delays. Unknown IDs and headwaters both yield an empty slice.
func (t *Topology) Upstream(id string) []Contribution {
	src := t.upstream[id]
	if len(src) == 0 {
		return nil
	}
	out := make([]Contribution, len(src))
	copy(out, src)
	return out
}

// Depth returns a plant's depth (0 for headwaters). The second return is
// false for IDs not in the plant set.
func (t *Topology) Depth(id string) (int, bool) {
	d, ok := t.depths[id]
	return d, ok
}

// Order returns every plant ID exactly once, each plant after all of its
// upstream contributors.
func (t *Topology) Order() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Headwaters returns the plants with no upstream contributor.
func (t *Topology) Headwaters() []string {
	out := make([]string, len(t.headwaters))
	copy(out, t.headwaters)
	return out
}

// Terminals returns the plants whose release leaves the modeled system,
// either naturally or because their declared downstream is unknown.
func (t *Topology) Terminals() []string {
	out := make([]string, len(t.terminals))
	copy(out, t.terminals)
	return out
}

// PlantCount returns the number of plants in the topology.
func (t *Topology) PlantCount() int {
	return len(t.order)
}

// MaxDepth returns the largest depth in the cascade, 0 for an empty set.
func (t *Topology) MaxDepth() int {
	max := 0
	for _, d := range t.depths {
		if d > max {
			max = d
		}
	}
	return max
}

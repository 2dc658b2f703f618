package cascade

import (
	"fmt"

	"github.com/hydrosched/hydrosched/internal/plant"
)

// maxRecordedDiagnostics caps how many individual dangling references a
// Diagnostics keeps; beyond that only the total is counted, so a badly broken
// registry cannot flood logs.
const maxRecordedDiagnostics = 16

// Dangling describes one downstream reference that did not resolve within the
// plant set. The referencing plant is treated as a terminal.
type Dangling struct {
	PlantID      string
	DownstreamID string
}

func (d Dangling) String() string {
	return fmt.Sprintf("plant %s references unknown downstream %s", d.PlantID, d.DownstreamID)
}

// Diagnostics collects the inconsistencies Build tolerated. Callers decide
// whether and how to log them.
type Diagnostics struct {
	dangling []Dangling
	total    int
}

func (d *Diagnostics) addDangling(plantID, downstreamID string) {
	d.total++
	if len(d.dangling) < maxRecordedDiagnostics {
		d.dangling = append(d.dangling, Dangling{PlantID: plantID, DownstreamID: downstreamID})
	}
}

// Dangling returns the recorded dangling references, at most
// maxRecordedDiagnostics of them.
func (d *Diagnostics) Dangling() []Dangling {
	out := make([]Dangling, len(d.dangling))
	copy(out, d.dangling)
	return out
}

// Total returns how many dangling references were seen, including any beyond
// the recording cap.
func (d *Diagnostics) Total() int { return d.total }

// Truncated reports whether some dangling references were counted but not
// recorded individually.
func (d *Diagnostics) Truncated() bool { return d.total > len(d.dangling) }

// Build constructs the cascade topology for a plant set.
//
// Dangling downstream references never fail the build: the plant is treated
// as a terminal and the reference is noted in the returned Diagnostics. A
// circular chain of downstream references is fatal; the error is a
// *CycleError carrying the full offending path.
func Build(plants []plant.Plant) (*Topology, *Diagnostics, error) {
	ids := make([]string, 0, len(plants))
	lookup := make(map[string]plant.Plant, len(plants))
	for _, p := range plants {
		ids = append(ids, p.ID())
		lookup[p.ID()] = p
	}

	diags := &Diagnostics{}
	upstream := make(map[string][]Contribution, len(ids))
	for _, id := range ids {
		upstream[id] = nil
	}
	for _, id := range ids {
		p := lookup[id]
		out, ok := p.Outflow()
		if !ok {
			continue
		}
		if _, known := lookup[out.DownstreamID]; !known {
			diags.addDangling(id, out.DownstreamID)
			continue
		}
		upstream[out.DownstreamID] = append(upstream[out.DownstreamID], Contribution{
			UpstreamID: id,
			DelayHours: out.DelayHours,
		})
	}

	if cerr := validateAcyclic(ids, lookup); cerr != nil {
		return nil, diags, cerr
	}

	depths, order := computeDepthsAndOrder(ids, lookup, upstream)

	var headwaters, terminals []string
	for _, id := range ids {
		if len(upstream[id]) == 0 {
			headwaters = append(headwaters, id)
		}
		out, ok := lookup[id].Outflow()
		if !ok {
			terminals = append(terminals, id)
		} else if _, known := lookup[out.DownstreamID]; !known {
			terminals = append(terminals, id)
		}
	}

	return &Topology{
		upstream:   upstream,
		depths:     depths,
		order:      order,
		headwaters: headwaters,
		terminals:  terminals,
	}, diags, nil
}

package cascade

import "github.com/hydrosched/hydrosched/internal/plant"

// computeDepthsAndOrder assigns every plant its depth (hops from the farthest
// headwater feeding it) and produces one upstream-first total order.
//
// Breadth-first wave expansion seeded from all headwaters at depth 0. A plant
// is dequeued only once its remaining-upstream count reaches zero, at which
// point every contributor has already propagated its depth, so the recorded
// depth is the maximum over all incoming paths — a confluence cannot be
// scheduled before its latest-arriving upstream dependency, however deep the
// diamond.
//
// The input is already validated acyclic, so the queue normally drains the
// whole plant set. Any leftover (an isolated component the validator had no
// reason to reject) is defensively assigned depth 0 and appended, keeping
// depths and order total over the full set.
func computeDepthsAndOrder(ids []string, lookup map[string]plant.Plant, upstream map[string][]Contribution) (map[string]int, []string) {
	depths := make(map[string]int, len(ids))
	remaining := make(map[string]int, len(ids))
	order := make([]string, 0, len(ids))

	var queue []string
	for _, id := range ids {
		remaining[id] = len(upstream[id])
		if remaining[id] == 0 {
			depths[id] = 0
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		order = append(order, cur)

		out, ok := lookup[cur].Outflow()
		if !ok {
			continue
		}
		next, known := lookup[out.DownstreamID]
		if !known {
			continue
		}
		nid := next.ID()
		if d := depths[cur] + 1; d > depths[nid] {
			depths[nid] = d
		}
		remaining[nid]--
		if remaining[nid] == 0 {
			queue = append(queue, nid)
		}
	}

	if len(order) < len(ids) {
		placed := make(map[string]bool, len(order))
		for _, id := range order {
			placed[id] = true
		}
		for _, id := range ids {
			if !placed[id] {
				depths[id] = 0
				order = append(order, id)
			}
		}
	}

	return depths, order
}

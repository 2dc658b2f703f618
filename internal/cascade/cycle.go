package cascade

import (
	"strings"

	"github.com/hydrosched/hydrosched/internal/plant"
)

// CycleError reports a circular chain of downstream references. Path holds
// every plant in the cycle once, in traversal order, with the first plant
// repeated at the end to close the loop.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return "circular cascade dependency: " + strings.Join(e.Path, " -> ")
}

// validateAcyclic follows every plant's downstream reference and confirms no
// chain loops back on itself. Every plant is used as a traversal root, so a
// cycle with no reachable headwater is still caught.
//
// Standard three-structure DFS: done marks chains proven acyclic, onPath
// marks the active chain, path keeps its order for error reporting. Each
// plant has at most one downstream, so the traversal is a chain walk rather
// than a branching recursion.
func validateAcyclic(ids []string, lookup map[string]plant.Plant) *CycleError {
	done := make(map[string]bool, len(ids))
	onPath := make(map[string]bool, len(ids))

	for _, root := range ids {
		if done[root] {
			continue
		}
		var path []string
		cur := root
		for {
			if done[cur] {
				break
			}
			if onPath[cur] {
				// Report the loop only: the suffix of the active chain
				// starting at cur's first occurrence, closed by cur itself.
				start := 0
				for i, id := range path {
					if id == cur {
						start = i
						break
					}
				}
				return &CycleError{Path: append(path[start:], cur)}
			}
			onPath[cur] = true
			path = append(path, cur)

			out, ok := lookup[cur].Outflow()
			if !ok {
				break
			}
			next, known := lookup[out.DownstreamID]
			if !known {
				break // dangling reference, chain ends here
			}
			cur = next.ID()
		}
		for _, id := range path {
			onPath[id] = false
			done[id] = true
		}
	}
	return nil
}

package registry

import (
	"fmt"
	"strings"

	"github.com/hydrosched/hydrosched/internal/plant"
)

var knownKinds = map[plant.Kind]bool{
	plant.KindReservoir:     true,
	plant.KindRunOfRiver:    true,
	plant.KindPumpedStorage: true,
}

// Validate checks a registry file for:
//   - Duplicate or missing plant IDs
//   - Unknown plant kinds
//   - Negative transit delays or release limits
//   - Pumped-storage plants declaring a downstream (structurally impossible)
//
// It does not resolve downstream references; the cascade builder tolerates
// dangling ones by design.
func Validate(f *File) error {
	if f.Version == "" {
		return fmt.Errorf("registry: version is required")
	}
	seen := make(map[string]int) // id → first index
	var errs []string

	for i, def := range f.Plants {
		if def.ID == "" {
			errs = append(errs, fmt.Sprintf("plants[%d]: id is required", i))
			continue
		}
		if first, dup := seen[def.ID]; dup {
			errs = append(errs, fmt.Sprintf("duplicate id %q (first seen at plants[%d], again at plants[%d])", def.ID, first, i))
		} else {
			seen[def.ID] = i
		}
		kind := plant.Kind(def.Kind)
		if def.Kind == "" {
			kind = plant.KindReservoir // default kind
		} else if !knownKinds[kind] {
			errs = append(errs, fmt.Sprintf("plant %s: unknown kind %q", def.ID, def.Kind))
			continue
		}
		if kind == plant.KindPumpedStorage && def.Downstream != "" {
			errs = append(errs, fmt.Sprintf("plant %s: pumped-storage plants cannot declare a downstream", def.ID))
		}
		if def.TransitDelayHours < 0 {
			errs = append(errs, fmt.Sprintf("plant %s: transit_delay_hours must not be negative", def.ID))
		}
		if def.MaxReleaseM3s < 0 {
			errs = append(errs, fmt.Sprintf("plant %s: max_release_m3s must not be negative", def.ID))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

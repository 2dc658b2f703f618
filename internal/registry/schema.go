package registry

import "github.com/hydrosched/hydrosched/internal/plant"

// File is the top-level YAML structure of a plant registry.
type File struct {
	Version string      `yaml:"version"`
	Routing RoutingConf `yaml:"routing"`
	Plants  []PlantDef  `yaml:"plants"`
}

// RoutingConf holds tunable settings for the routing engine.
type RoutingConf struct {
	Workers      int `yaml:"workers"`
	QueueDepth   int `yaml:"queue_depth"`
	RunTimeoutMs int `yaml:"run_timeout_ms"`
}

// PlantDef is one plant record as written by operators. Downstream and
// transit_delay_hours are only meaningful together; pumped-storage plants
// must not declare either.
type PlantDef struct {
	ID                string  `yaml:"id"`
	Name              string  `yaml:"name"`
	Kind              string  `yaml:"kind"`
	Downstream        string  `yaml:"downstream,omitempty"`
	TransitDelayHours float64 `yaml:"transit_delay_hours,omitempty"`
	MaxReleaseM3s     float64 `yaml:"max_release_m3s"`
}

// ToPlants converts validated plant definitions into domain records.
func (f *File) ToPlants() []plant.Plant {
	out := make([]plant.Plant, 0, len(f.Plants))
	for _, def := range f.Plants {
		var flow *plant.Outflow
		if def.Downstream != "" {
			flow = &plant.Outflow{DownstreamID: def.Downstream, DelayHours: def.TransitDelayHours}
		}
		switch plant.Kind(def.Kind) {
		case plant.KindRunOfRiver:
			out = append(out, plant.NewRunOfRiver(def.ID, flow, def.MaxReleaseM3s))
		case plant.KindPumpedStorage:
			out = append(out, plant.NewPumpedStorage(def.ID, def.MaxReleaseM3s))
		default:
			out = append(out, plant.NewReservoir(def.ID, flow, def.MaxReleaseM3s))
		}
	}
	return out
}

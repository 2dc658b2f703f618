package plant

// Kind discriminates the supported plant variants.
type Kind string

const (
	KindReservoir     Kind = "reservoir"
	KindRunOfRiver    Kind = "run_of_river"
	KindPumpedStorage Kind = "pumped_storage"
)

// Outflow describes where a plant discharges and how long released water
// takes to arrive there.
type Outflow struct {
	DownstreamID string
	DelayHours   float64
}

// Plant is the common interface for all plant records.
// Outflow reports the downstream link; variants that cannot participate in a
// cascade return false unconditionally, so callers never need a kind switch.
type Plant interface {
	ID() string
	Kind() Kind
	Outflow() (Outflow, bool)
	MaxReleaseM3s() float64
}

// -----------------------------------------------------------------------
// Reservoir
// -----------------------------------------------------------------------

// Reservoir is a storage plant; it may discharge into a downstream plant.
type Reservoir struct {
	id         string
	out        *Outflow
	maxRelease float64
}

func NewReservoir(id string, out *Outflow, maxReleaseM3s float64) *Reservoir {
	return &Reservoir{id: id, out: out, maxRelease: maxReleaseM3s}
}

func (p *Reservoir) ID() string             { return p.id }
func (p *Reservoir) Kind() Kind             { return KindReservoir }
func (p *Reservoir) MaxReleaseM3s() float64 { return p.maxRelease }

func (p *Reservoir) Outflow() (Outflow, bool) {
	if p.out == nil {
		return Outflow{}, false
	}
	return *p.out, true
}

// -----------------------------------------------------------------------
// RunOfRiver
// -----------------------------------------------------------------------

// RunOfRiver is a plant with no usable storage; inflow passes straight
// through. It may discharge into a downstream plant.
type RunOfRiver struct {
	id         string
	out        *Outflow
	maxRelease float64
}

func NewRunOfRiver(id string, out *Outflow, maxReleaseM3s float64) *RunOfRiver {
	return &RunOfRiver{id: id, out: out, maxRelease: maxReleaseM3s}
}

func (p *RunOfRiver) ID() string             { return p.id }
func (p *RunOfRiver) Kind() Kind             { return KindRunOfRiver }
func (p *RunOfRiver) MaxReleaseM3s() float64 { return p.maxRelease }

func (p *RunOfRiver) Outflow() (Outflow, bool) {
	if p.out == nil {
		return Outflow{}, false
	}
	return *p.out, true
}

// -----------------------------------------------------------------------
// PumpedStorage
// -----------------------------------------------------------------------

// PumpedStorage cycles water between its own upper and lower basins and has
// no downstream field at all; it is always a cascade terminal.
type PumpedStorage struct {
	id         string
	maxRelease float64
}

func NewPumpedStorage(id string, maxReleaseM3s float64) *PumpedStorage {
	return &PumpedStorage{id: id, maxRelease: maxReleaseM3s}
}

func (p *PumpedStorage) ID() string               { return p.id }
func (p *PumpedStorage) Kind() Kind               { return KindPumpedStorage }
func (p *PumpedStorage) MaxReleaseM3s() float64   { return p.maxRelease }
func (p *PumpedStorage) Outflow() (Outflow, bool) { return Outflow{}, false }

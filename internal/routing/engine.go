package routing

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/hydrosched/hydrosched/internal/cascade"
	"github.com/hydrosched/hydrosched/internal/metrics"
	"github.com/hydrosched/hydrosched/internal/plant"
	"github.com/hydrosched/hydrosched/internal/registry"
)

// Request asks for one routing run: natural inflows (m³/s, one value per
// hourly period) for any subset of plants. Plants without a series receive
// only what their upstream contributors deliver.
type Request struct {
	Periods int                  `json:"periods"`
	Inflows map[string][]float64 `json:"inflows"`
}

// PlantFlows holds one plant's per-period flow series after routing.
// Outflow = Turbined + Spilled; the full outflow travels downstream.
type PlantFlows struct {
	Outflow  []float64 `json:"outflow_m3s"`
	Turbined []float64 `json:"turbined_m3s"`
	Spilled  []float64 `json:"spilled_m3s"`
}

// Result is the outcome of a routing run.
type Result struct {
	RunID      string                 `json:"run_id"`
	Periods    int                    `json:"periods"`
	DurationMs int64                  `json:"duration_ms"`
	Plants     map[string]*PlantFlows `json:"plants"`
}

// snapshot pairs a topology with the plant records it was built from, so a
// hot swap replaces both atomically.
type snapshot struct {
	topo   *cascade.Topology
	plants map[string]plant.Plant
}

// Engine propagates water releases through the cascade. Plants are processed
// in depth waves over the topology's order: every upstream contributor sits
// at a strictly smaller depth, so all plants within one wave can run
// concurrently and read completed upstream series without locking.
type Engine struct {
	snap atomic.Pointer[snapshot]
	pool *workerPool[*plantWork]
	conf registry.RoutingConf
}

type plantWork struct {
	run *runState
	id  string
	wg  *sync.WaitGroup
}

type runState struct {
	periods int
	inflows map[string][]float64
	snap    *snapshot
	flows   map[string]*PlantFlows // one slot per plant, written only by its own worker
}

// New creates an Engine over the given topology and starts its worker pool.
func New(ctx context.Context, topo *cascade.Topology, plants []plant.Plant, conf registry.RoutingConf) *Engine {
	e := &Engine{conf: conf}
	e.snap.Store(newSnapshot(topo, plants))
	e.pool = newWorkerPool[*plantWork](ctx, conf.Workers, conf.QueueDepth, func(_ context.Context, w *plantWork) {
		routePlant(w.run, w.id)
		w.wg.Done()
	})
	return e
}

func newSnapshot(topo *cascade.Topology, plants []plant.Plant) *snapshot {
	byID := make(map[string]plant.Plant, len(plants))
	for _, p := range plants {
		byID[p.ID()] = p
	}
	return &snapshot{topo: topo, plants: byID}
}

// Swap atomically replaces the topology and plant set (used on hot-reload).
// Runs already in flight keep their snapshot.
func (e *Engine) Swap(topo *cascade.Topology, plants []plant.Plant) {
	e.snap.Store(newSnapshot(topo, plants))
}

// Topology returns the currently active topology.
func (e *Engine) Topology() *cascade.Topology {
	return e.snap.Load().topo
}

// QueueUtilization returns queue used / capacity (0–1).
func (e *Engine) QueueUtilization() float64 {
	if e.pool.QueueCap() == 0 {
		return 0
	}
	return float64(e.pool.QueueLen()) / float64(e.pool.QueueCap())
}

// Run executes one routing run synchronously.
func (e *Engine) Run(ctx context.Context, req *Request) (*Result, error) {
	start := time.Now()
	res, err := e.run(ctx, req)
	if err != nil {
		metrics.RoutingRuns.WithLabelValues("error").Inc()
		return nil, err
	}
	res.DurationMs = time.Since(start).Milliseconds()
	metrics.RoutingRuns.WithLabelValues("ok").Inc()
	metrics.RoutingRunDuration.Observe(float64(res.DurationMs))
	return res, nil
}

func (e *Engine) run(ctx context.Context, req *Request) (*Result, error) {
	snap := e.snap.Load()
	if req.Periods < 1 {
		return nil, fmt.Errorf("routing: periods must be at least 1, got %d", req.Periods)
	}
	for id, series := range req.Inflows {
		if _, ok := snap.plants[id]; !ok {
			return nil, fmt.Errorf("routing: inflow series for unknown plant %q", id)
		}
		if len(series) != req.Periods {
			return nil, fmt.Errorf("routing: inflow series for %s has %d values, want %d", id, len(series), req.Periods)
		}
	}

	order := snap.topo.Order()
	run := &runState{
		periods: req.Periods,
		inflows: req.Inflows,
		snap:    snap,
		flows:   make(map[string]*PlantFlows, len(order)),
	}
	for _, id := range order {
		run.flows[id] = &PlantFlows{
			Outflow:  make([]float64, req.Periods),
			Turbined: make([]float64, req.Periods),
			Spilled:  make([]float64, req.Periods),
		}
	}

	timeout := time.Duration(e.conf.RunTimeoutMs) * time.Millisecond
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for _, wave := range depthWaves(snap.topo, order) {
		var wg sync.WaitGroup
		wg.Add(len(wave))
		for _, id := range wave {
			w := &plantWork{run: run, id: id, wg: &wg}
			if !e.pool.Submit(w) {
				// Queue full: route inline rather than failing the run.
				routePlant(run, id)
				wg.Done()
			}
		}
		if err := waitWave(ctx, &wg); err != nil {
			return nil, fmt.Errorf("routing run aborted: %w", err)
		}
	}

	return &Result{
		RunID:   uuid.New().String(),
		Periods: req.Periods,
		Plants:  run.flows,
	}, nil
}

// depthWaves groups the topological order into slices of equal depth.
func depthWaves(topo *cascade.Topology, order []string) [][]string {
	waves := make([][]string, topo.MaxDepth()+1)
	for _, id := range order {
		d, _ := topo.Depth(id)
		waves[d] = append(waves[d], id)
	}
	return waves
}

func waitWave(ctx context.Context, wg *sync.WaitGroup) error {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// routePlant computes one plant's flow series: natural inflow plus upstream
// arrivals lagged by each reach's transit delay (rounded to whole hours),
// split into turbined flow and spill at the plant's release limit. All
// upstream series are complete because their plants ran in earlier waves.
func routePlant(s *runState, id string) {
	f := s.flows[id]
	natural := s.inflows[id]

	for t := 0; t < s.periods; t++ {
		total := 0.0
		if natural != nil {
			total = natural[t]
		}
		f.Outflow[t] = total
	}
	for _, c := range s.snap.topo.Upstream(id) {
		lag := int(math.Round(c.DelayHours))
		up := s.flows[c.UpstreamID]
		for t := lag; t < s.periods; t++ {
			f.Outflow[t] += up.Outflow[t-lag]
		}
	}

	maxRelease := 0.0
	if p, ok := s.snap.plants[id]; ok {
		maxRelease = p.MaxReleaseM3s()
	}
	for t := 0; t < s.periods; t++ {
		if maxRelease > 0 && f.Outflow[t] > maxRelease {
			f.Turbined[t] = maxRelease
			f.Spilled[t] = f.Outflow[t] - maxRelease
		} else {
			f.Turbined[t] = f.Outflow[t]
		}
	}
}

// Shutdown drains the worker pool gracefully.
func (e *Engine) Shutdown() {
	e.pool.Drain()
}

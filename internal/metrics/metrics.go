package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TopologyBuilds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hydrosched_topology_builds_total",
		Help: "Total number of cascade topology builds attempted.",
	})

	TopologyBuildFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hydrosched_topology_build_failures_total",
		Help: "Total number of topology builds rejected (circular cascade).",
	})

	PlantsLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hydrosched_plants_loaded",
		Help: "Number of plants in the active topology.",
	})

	CascadeMaxDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hydrosched_cascade_max_depth",
		Help: "Largest headwater distance in the active topology.",
	})

	DanglingReferences = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hydrosched_dangling_references",
		Help: "Downstream references in the active registry that resolve outside the plant set.",
	})

	RoutingRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hydrosched_routing_runs_total",
		Help: "Total number of routing runs, labelled by status.",
	}, []string{"status"})

	RoutingRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hydrosched_routing_run_duration_ms",
		Help:    "End-to-end routing run latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	})

	RoutingQueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hydrosched_routing_queue_utilization_ratio",
		Help: "Current routing work queue utilization (0–1).",
	})
)

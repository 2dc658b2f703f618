package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hydrosched/hydrosched/internal/cascade"
	"github.com/hydrosched/hydrosched/internal/metrics"
	"github.com/hydrosched/hydrosched/internal/registry"
	"github.com/hydrosched/hydrosched/internal/routing"
)

// Handler holds all HTTP handler dependencies.
type Handler struct {
	eng    *routing.Engine
	loader *registry.Loader
	mux    *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
func New(eng *routing.Engine, loader *registry.Loader) http.Handler {
	h := &Handler{eng: eng, loader: loader, mux: http.NewServeMux()}

	h.mux.HandleFunc("GET /v1/topology", h.getTopology)
	h.mux.HandleFunc("GET /v1/plants/{id}/upstream", h.getUpstream)
	h.mux.HandleFunc("POST /v1/registry/reload", h.reloadRegistry)
	h.mux.HandleFunc("POST /v1/routing/run", h.runRouting)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(h.mux)
}

// GET /v1/topology — summary of the active cascade.
func (h *Handler) getTopology(w http.ResponseWriter, r *http.Request) {
	topo := h.eng.Topology()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"plants":     topo.PlantCount(),
		"max_depth":  topo.MaxDepth(),
		"headwaters": topo.Headwaters(),
		"terminals":  topo.Terminals(),
		"order":      topo.Order(),
	})
}

// GET /v1/plants/{id}/upstream — upstream contributors with transit delays.
// Unknown IDs answer with an empty list, mirroring the topology API.
func (h *Handler) getUpstream(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	topo := h.eng.Topology()
	up := topo.Upstream(id)
	if up == nil {
		up = []cascade.Contribution{}
	}
	depth, known := topo.Depth(id)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"plant_id": id,
		"known":    known,
		"depth":    depth,
		"upstream": up,
	})
}

// POST /v1/registry/reload — re-read the registry, rebuild the topology, and
// swap it in. A circular cascade leaves the previous topology active.
func (h *Handler) reloadRegistry(w http.ResponseWriter, r *http.Request) {
	f, err := h.loader.Reload()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := registry.Validate(f); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	plants := f.ToPlants()
	metrics.TopologyBuilds.Inc()
	topo, diags, err := cascade.Build(plants)
	if err != nil {
		metrics.TopologyBuildFailures.Inc()
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	for _, d := range diags.Dangling() {
		slog.Warn("dangling downstream reference", "plant", d.PlantID, "downstream", d.DownstreamID)
	}
	metrics.PlantsLoaded.Set(float64(topo.PlantCount()))
	metrics.CascadeMaxDepth.Set(float64(topo.MaxDepth()))
	metrics.DanglingReferences.Set(float64(diags.Total()))
	h.eng.Swap(topo, plants)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reloaded":            true,
		"plants":              topo.PlantCount(),
		"dangling_references": diags.Total(),
	})
}

// POST /v1/routing/run — synchronous routing run over posted inflows.
func (h *Handler) runRouting(w http.ResponseWriter, r *http.Request) {
	var req routing.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	res, err := h.eng.Run(r.Context(), &req)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GET /healthz — always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz — 503 if the routing queue is >80% full.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	util := h.eng.QueueUtilization()
	metrics.RoutingQueueUtilization.Set(util)
	if util > 0.8 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":            "overloaded",
			"queue_utilization": util,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "ready",
		"queue_utilization": util,
	})
}

// loggingMiddleware tags each request with an ID and logs method, path, and
// duration.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r)
		slog.Debug("http request",
			"request_id", reqID,
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hydrosched/hydrosched/internal/api"
	"github.com/hydrosched/hydrosched/internal/cascade"
	"github.com/hydrosched/hydrosched/internal/metrics"
	"github.com/hydrosched/hydrosched/internal/registry"
	"github.com/hydrosched/hydrosched/internal/routing"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	regPath := flag.String("registry", "configs/plants.yaml", "Path to plant registry YAML")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// ── Load registry ─────────────────────────────────────────────────────────
	loader, err := registry.NewLoader(*regPath)
	if err != nil {
		slog.Error("failed to load plant registry", "err", err)
		os.Exit(1)
	}
	file := loader.File()
	if err := registry.Validate(file); err != nil {
		slog.Error("registry validation failed", "err", err)
		os.Exit(1)
	}

	// ── Build cascade topology ────────────────────────────────────────────────
	// A circular cascade is a fatal configuration error: nothing downstream of
	// it can be scheduled, so the whole system refuses to start.
	plants := file.ToPlants()
	metrics.TopologyBuilds.Inc()
	topo, diags, err := cascade.Build(plants)
	if err != nil {
		metrics.TopologyBuildFailures.Inc()
		slog.Error("failed to build cascade topology", "err", err)
		os.Exit(1)
	}
	for _, d := range diags.Dangling() {
		slog.Warn("dangling downstream reference", "plant", d.PlantID, "downstream", d.DownstreamID)
	}
	if diags.Truncated() {
		slog.Warn("further dangling references suppressed", "total", diags.Total())
	}
	metrics.PlantsLoaded.Set(float64(topo.PlantCount()))
	metrics.CascadeMaxDepth.Set(float64(topo.MaxDepth()))
	metrics.DanglingReferences.Set(float64(diags.Total()))
	slog.Info("cascade topology built",
		"plants", topo.PlantCount(),
		"headwaters", len(topo.Headwaters()),
		"terminals", len(topo.Terminals()),
		"max_depth", topo.MaxDepth(),
	)

	// ── Routing engine ────────────────────────────────────────────────────────
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng := routing.New(ctx, topo, plants, file.Routing)

	// ── Hot-reload watcher ────────────────────────────────────────────────────
	// Unlike startup, a bad registry during reload keeps the old topology.
	loader.OnChange(func(f *registry.File) {
		if err := registry.Validate(f); err != nil {
			slog.Warn("hot-reload skipped: registry invalid", "err", err)
			return
		}
		newPlants := f.ToPlants()
		metrics.TopologyBuilds.Inc()
		newTopo, newDiags, err := cascade.Build(newPlants)
		if err != nil {
			metrics.TopologyBuildFailures.Inc()
			slog.Warn("hot-reload skipped: topology build failed", "err", err)
			return
		}
		metrics.PlantsLoaded.Set(float64(newTopo.PlantCount()))
		metrics.CascadeMaxDepth.Set(float64(newTopo.MaxDepth()))
		metrics.DanglingReferences.Set(float64(newDiags.Total()))
		eng.Swap(newTopo, newPlants)
		slog.Info("cascade topology hot-reloaded", "plants", newTopo.PlantCount())
	})
	stopWatch, err := loader.Watch()
	if err != nil {
		slog.Warn("registry watcher unavailable (hot-reload disabled)", "err", err)
	} else {
		defer stopWatch()
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	handler := api.New(eng, loader)
	srv := &http.Server{
		Addr:         *addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	cancel() // stop worker pool
	eng.Shutdown()
	slog.Info("goodbye")
}

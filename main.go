package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/pthm-cable/sparks/assets"
	"github.com/pthm-cable/sparks/config"
	"github.com/pthm-cable/sparks/particles"
	"github.com/pthm-cable/sparks/runner"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	effectPath := flag.String("effect", "", "Path to an effect definition (empty = use config, then the built-in effect)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	verbose := flag.Bool("verbose", false, "Log particle controller lifecycle at debug level")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, config and summary")
	seed := flag.Int64("seed", 0, "RNG seed (0 = config, then time-based)")
	frames := flag.Int("frames", 0, "Stop after N frames (0 = use config)")
	instances := flag.Int("instances", 0, "Effect instances (0 = use config)")
	workers := flag.Int("workers", 0, "Worker goroutines (0 = use config)")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	if *instances > 0 {
		cfg.Simulation.Instances = *instances
	}
	if *workers > 0 {
		cfg.Derived.Workers = *workers
	}
	if *frames > 0 {
		cfg.Simulation.Frames = *frames
	}
	if *effectPath != "" {
		cfg.Effect.Path = *effectPath
	}

	// Set up slog (JSON to stdout for structured logging)
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	if *verbose {
		particles.SetLogger(logger)
	}

	provider := assets.HeadlessProvider{TextureSize: cfg.Assets.TextureSize, Grid: cfg.Assets.Grid}
	effect, err := config.LoadEffect(cfg.Effect.Path, config.NewRegistry(), provider)
	if err != nil {
		slog.Error("failed to load effect", "path", cfg.Effect.Path, "error", err)
		os.Exit(1)
	}

	r, err := runner.New(cfg, effect, runner.Options{
		Seed:      *seed,
		LogStats:  *logStats,
		OutputDir: *outputDir,
	})
	if err != nil {
		slog.Error("failed to start run", "error", err)
		os.Exit(1)
	}

	slog.Info("starting headless run",
		"effect", effect.Name,
		"seed", r.Seed(),
		"instances", cfg.Simulation.Instances,
		"workers", cfg.Derived.Workers,
		"frames", cfg.Simulation.Frames,
	)

	for !r.Done() {
		if err := r.Step(); err != nil {
			r.Close()
			slog.Error("run failed", "frame", r.Frame(), "error", err)
			os.Exit(1)
		}
	}

	if err := r.Close(); err != nil {
		slog.Error("failed to write output", "error", err)
		os.Exit(1)
	}
	s := r.Summary()
	slog.Info("run finished",
		"frame", r.Frame(),
		"activated", s.Activated,
		"completed", s.Completed,
		"peak_live", s.PeakLive,
		"wall_time", s.WallTime,
	)
}

// Package runner drives a headless particle run: it places effect
// instances, steps them frame by frame and feeds the telemetry pipeline.
package runner

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/sparks/config"
	"github.com/pthm-cable/sparks/effects"
	"github.com/pthm-cable/sparks/telemetry"
)

// Options holds runner options set from the command line.
type Options struct {
	Seed          int64 // 0 = time-based
	Frames        int   // 0 = use config
	LogStats      bool
	OutputDir     string
	StatsCallback func(telemetry.WindowStats)
}

// Runner owns the effect manager and telemetry for one run.
type Runner struct {
	cfg      *config.Config
	template *effects.Effect
	manager  *effects.Manager

	// Telemetry
	collector        *telemetry.Collector
	perfCollector    *telemetry.PerfCollector
	bookmarkDetector *telemetry.BookmarkDetector
	outputManager    *telemetry.OutputManager
	summary          *telemetry.Summary
	statsCallback    func(telemetry.WindowStats)
	logStats         bool

	seed    int64
	frames  int
	frame   int32
	spawned bool
	started time.Time
}

// New prepares a run of template under cfg. Instances are placed on the
// first Step.
func New(cfg *config.Config, template *effects.Effect, opts Options) (*Runner, error) {
	seed := opts.Seed
	if seed == 0 {
		seed = cfg.Simulation.Seed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	frames := cfg.Simulation.Frames
	if opts.Frames > 0 {
		frames = opts.Frames
	}
	if frames == 0 && cfg.Simulation.Respawn {
		return nil, fmt.Errorf("frame limit required when respawn is enabled")
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := om.WriteConfig(cfg); err != nil {
		om.Close()
		return nil, err
	}
	if err := om.WriteManifest(template); err != nil {
		om.Close()
		return nil, err
	}

	r := &Runner{
		cfg:      cfg,
		template: template,
		manager: effects.NewManager(effects.Options{
			Workers:           cfg.Derived.Workers,
			ParallelThreshold: cfg.Workers.ParallelThreshold,
			Respawn:           cfg.Simulation.Respawn,
		}),
		collector:        telemetry.NewCollector(cfg.Telemetry.WindowFrames, cfg.Derived.DT32),
		perfCollector:    telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		bookmarkDetector: telemetry.NewBookmarkDetector(10),
		outputManager:    om,
		summary:          telemetry.NewSummary(template.Name, seed, cfg.Simulation.Instances),
		statsCallback:    opts.StatsCallback,
		logStats:         opts.LogStats,
		seed:             seed,
		frames:           frames,
		started:          time.Now(),
	}
	return r, nil
}

// Seed returns the seed the run uses.
func (r *Runner) Seed() int64 { return r.seed }

// Frame returns the number of frames stepped.
func (r *Runner) Frame() int32 { return r.frame }

// Summary returns the run summary so far.
func (r *Runner) Summary() *telemetry.Summary { return r.summary }

// Done reports whether the frame limit is reached, or every instance has
// completed when no limit is set.
func (r *Runner) Done() bool {
	if r.frames > 0 && int(r.frame) >= r.frames {
		return true
	}
	return r.spawned && r.manager.Len() == 0
}

// Step runs a single frame.
func (r *Runner) Step() error {
	r.perfCollector.StartFrame()

	r.perfCollector.StartPhase(telemetry.PhaseSpawn)
	if !r.spawned {
		if err := r.spawnInstances(); err != nil {
			return err
		}
		r.spawned = true
	}

	r.perfCollector.StartPhase(telemetry.PhaseUpdate)
	stats := r.manager.Update(r.cfg.Derived.DT32)
	r.frame++

	r.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	r.collector.Record(stats)
	r.flushTelemetry(false)

	r.perfCollector.EndFrame()
	return nil
}

// spawnInstances places copies of the template along the X axis, each
// seeded from the run seed.
func (r *Runner) spawnInstances() error {
	spacing := float32(r.cfg.Simulation.Spacing)
	for i := 0; i < r.cfg.Simulation.Instances; i++ {
		e := r.template.Copy()
		e.SetSeed(r.seed + int64(i))
		pos := mgl32.Vec3{float32(i) * spacing, 0, 0}
		if _, err := r.manager.Spawn(e, pos); err != nil {
			return fmt.Errorf("spawning instance %d: %w", i, err)
		}
	}
	slog.Debug("instances spawned", "count", r.manager.Len(), "effect", r.template.Name)
	return nil
}

// flushTelemetry closes the stats window when it is full, or when force
// is set and frames are pending.
func (r *Runner) flushTelemetry(force bool) {
	if !r.collector.ShouldFlush(r.frame) && !(force && r.collector.Pending()) {
		return
	}

	stats := r.collector.Flush(r.frame)
	perfStats := r.perfCollector.Stats()
	r.summary.Add(stats)

	if r.statsCallback != nil {
		r.statsCallback(stats)
	}

	// Log stats if enabled (console output)
	if r.logStats {
		slog.Info("stats", "window", stats)
		perfStats.LogStats()
	}

	if err := r.outputManager.WriteWindow(stats); err != nil {
		slog.Error("failed to write window stats", "error", err)
	}
	if err := r.outputManager.WritePerf(perfStats, stats.WindowEndFrame); err != nil {
		slog.Error("failed to write perf", "error", err)
	}

	for _, bm := range r.bookmarkDetector.Check(stats) {
		if r.logStats {
			bm.LogBookmark()
		}
		r.summary.Bookmarks = append(r.summary.Bookmarks, bm)
		if err := r.outputManager.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
	}
}

// Close flushes the last partial window, writes the summary and releases
// every instance.
func (r *Runner) Close() error {
	r.flushTelemetry(true)
	r.summary.WallTime = time.Since(r.started)
	r.manager.Close()

	var firstErr error
	if path, err := r.outputManager.WriteSummary(r.summary); err != nil {
		firstErr = err
	} else if path != "" {
		slog.Info("summary saved", "path", path)
	}
	if err := r.outputManager.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

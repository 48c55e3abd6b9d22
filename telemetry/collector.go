package telemetry

import "github.com/pthm-cable/sparks/effects"

// Collector accumulates frame stats within windows and produces WindowStats.
type Collector struct {
	windowFrames int32
	dt           float32

	// Current window tracking
	windowStartFrame int32
	startActivated   int
	startKilled      int

	// Accumulated for current window
	completed int
	live      []float64
	last      effects.FrameStats
}

// NewCollector creates a new stats collector.
// windowFrames: frames per stats window
// dt: seconds per frame (used for frame-to-time conversion)
func NewCollector(windowFrames int, dt float32) *Collector {
	if windowFrames < 1 {
		windowFrames = 1
	}
	return &Collector{
		windowFrames: int32(windowFrames),
		dt:           dt,
		live:         make([]float64, 0, windowFrames),
	}
}

// Record adds one frame's stats to the current window.
func (c *Collector) Record(s effects.FrameStats) {
	c.completed += s.Completed
	c.live = append(c.live, float64(s.Live+s.Nested))
	c.last = s
}

// ShouldFlush returns true if enough frames have passed to flush the window.
func (c *Collector) ShouldFlush(currentFrame int32) bool {
	return currentFrame-c.windowStartFrame >= c.windowFrames
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentFrame int32) WindowStats {
	activated := c.last.Activated - c.startActivated
	killed := c.last.Killed - c.startKilled

	var spawnRate, deathRate float64
	if elapsed := float64(currentFrame-c.windowStartFrame) * float64(c.dt); elapsed > 0 {
		spawnRate = float64(activated) / elapsed
		deathRate = float64(killed) / elapsed
	}

	mean, std, p10, p50, p90 := ComputeStats(c.live)

	stats := WindowStats{
		WindowStartFrame: c.windowStartFrame,
		WindowEndFrame:   currentFrame,
		SimTimeSec:       float64(currentFrame) * float64(c.dt),

		Instances: c.last.Instances,
		Live:      c.last.Live,
		Nested:    c.last.Nested,

		Activated: activated,
		Killed:    killed,
		Completed: c.completed,

		SpawnRate: spawnRate,
		DeathRate: deathRate,

		LiveMean: mean,
		LiveStd:  std,
		LiveP10:  p10,
		LiveP50:  p50,
		LiveP90:  p90,
	}

	// Reset for next window
	c.windowStartFrame = currentFrame
	c.startActivated = c.last.Activated
	c.startKilled = c.last.Killed
	c.completed = 0
	c.live = c.live[:0]

	return stats
}

// Pending reports whether frames were recorded since the last flush.
func (c *Collector) Pending() bool {
	return len(c.live) > 0
}

// WindowFrames returns the number of frames per window.
func (c *Collector) WindowFrames() int32 {
	return c.windowFrames
}

package telemetry

import (
	"log/slog"
	"time"
)

// Phase is one stage of a runner frame.
type Phase int

const (
	PhaseSpawn Phase = iota
	PhaseUpdate
	PhaseTelemetry
	numPhases
)

var phaseNames = [numPhases]string{"spawn", "update", "telemetry"}

func (p Phase) String() string {
	if p < 0 || p >= numPhases {
		return "unknown"
	}
	return phaseNames[p]
}

// frameSample is the timing of one frame.
type frameSample struct {
	total  time.Duration
	phases [numPhases]time.Duration
}

// PerfCollector times frames and their phases over a rolling window.
type PerfCollector struct {
	samples []frameSample
	next    int
	count   int

	current    frameSample
	frameStart time.Time
	phaseStart time.Time
	phase      Phase
	inPhase    bool
}

// NewPerfCollector averages over the last window frames.
func NewPerfCollector(window int) *PerfCollector {
	if window < 1 {
		window = 60
	}
	return &PerfCollector{samples: make([]frameSample, window)}
}

// StartFrame begins timing a frame.
func (p *PerfCollector) StartFrame() {
	p.frameStart = time.Now()
	p.current = frameSample{}
	p.inPhase = false
}

// StartPhase ends the running phase, if any, and starts phase.
func (p *PerfCollector) StartPhase(phase Phase) {
	now := time.Now()
	p.closePhase(now)
	p.phase, p.phaseStart, p.inPhase = phase, now, true
}

// EndFrame closes the running phase and records the frame.
func (p *PerfCollector) EndFrame() {
	now := time.Now()
	p.closePhase(now)
	p.current.total = now.Sub(p.frameStart)

	p.samples[p.next] = p.current
	p.next = (p.next + 1) % len(p.samples)
	if p.count < len(p.samples) {
		p.count++
	}
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.inPhase {
		p.current.phases[p.phase] += now.Sub(p.phaseStart)
		p.inPhase = false
	}
}

// PerfStats summarises the frames in the window.
type PerfStats struct {
	AvgFrame     time.Duration
	MinFrame     time.Duration
	MaxFrame     time.Duration
	FramesPerSec float64

	// Share of the average frame spent in each phase, in percent
	PhasePct [numPhases]float64
}

// Stats aggregates the current window. An empty window yields zeros.
func (p *PerfCollector) Stats() PerfStats {
	var s PerfStats
	if p.count == 0 {
		return s
	}

	var total time.Duration
	var phases [numPhases]time.Duration
	for i, sample := range p.samples[:p.count] {
		total += sample.total
		if i == 0 || sample.total < s.MinFrame {
			s.MinFrame = sample.total
		}
		s.MaxFrame = max(s.MaxFrame, sample.total)
		for ph, d := range sample.phases {
			phases[ph] += d
		}
	}

	s.AvgFrame = total / time.Duration(p.count)
	if total > 0 {
		s.FramesPerSec = float64(p.count) * float64(time.Second) / float64(total)
		for ph, d := range phases {
			s.PhasePct[ph] = float64(d) / float64(total) * 100
		}
	}
	return s
}

// LogStats logs the window, skipping phases under 0.1% of a frame.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_frame_us", s.AvgFrame.Microseconds(),
		"min_frame_us", s.MinFrame.Microseconds(),
		"max_frame_us", s.MaxFrame.Microseconds(),
		"frames_per_sec", int(s.FramesPerSec),
	}
	for ph, pct := range s.PhasePct {
		if pct > 0.1 {
			attrs = append(attrs, Phase(ph).String()+"_pct", int(pct*10)/10.0)
		}
	}
	slog.Info("perf", attrs...)
}

// PerfStatsCSV is one perf.csv row.
type PerfStatsCSV struct {
	WindowEnd    int32   `csv:"window_end"`
	AvgFrameUS   int64   `csv:"avg_frame_us"`
	MinFrameUS   int64   `csv:"min_frame_us"`
	MaxFrameUS   int64   `csv:"max_frame_us"`
	FramesPerSec float64 `csv:"frames_per_sec"`
	SpawnPct     float64 `csv:"spawn_pct"`
	UpdatePct    float64 `csv:"update_pct"`
	TelemetryPct float64 `csv:"telemetry_pct"`
}

// ToCSV flattens s into a row for the window ending at windowEnd.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:    windowEnd,
		AvgFrameUS:   s.AvgFrame.Microseconds(),
		MinFrameUS:   s.MinFrame.Microseconds(),
		MaxFrameUS:   s.MaxFrame.Microseconds(),
		FramesPerSec: s.FramesPerSec,
		SpawnPct:     s.PhasePct[PhaseSpawn],
		UpdatePct:    s.PhasePct[PhaseUpdate],
		TelemetryPct: s.PhasePct[PhaseTelemetry],
	}
}

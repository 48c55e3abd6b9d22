package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// SummaryVersion is incremented when the format changes.
const SummaryVersion = 1

// Summary describes a finished run.
type Summary struct {
	Version int       `json:"version"`
	RunID   uuid.UUID `json:"run_id"`
	Seed    int64     `json:"seed"`
	Effect  string    `json:"effect"`

	Frames    int     `json:"frames"`
	SimTime   float64 `json:"sim_time_sec"`
	Instances int     `json:"instances"`

	// Totals over the whole run
	Activated int `json:"activated"`
	Killed    int `json:"killed"`
	Completed int `json:"completed"`
	PeakLive  int `json:"peak_live"`

	Bookmarks []Bookmark    `json:"bookmarks,omitempty"`
	WallTime  time.Duration `json:"wall_time_ns"`
}

// NewSummary starts a summary with a fresh run id.
func NewSummary(effect string, seed int64, instances int) *Summary {
	return &Summary{
		Version:   SummaryVersion,
		RunID:     uuid.New(),
		Seed:      seed,
		Effect:    effect,
		Instances: instances,
	}
}

// Add folds a flushed window into the totals.
func (s *Summary) Add(w WindowStats) {
	s.Frames = int(w.WindowEndFrame)
	s.SimTime = w.SimTimeSec
	s.Activated += w.Activated
	s.Killed += w.Killed
	s.Completed += w.Completed
	if live := w.Live + w.Nested; live > s.PeakLive {
		s.PeakLive = live
	}
}

// SaveSummary writes s to dir as summary_<run id>.json.
// Returns the filepath where it was saved.
func SaveSummary(s *Summary, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create summary dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("summary_%s.json", s.RunID))

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal summary: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write summary: %w", err)
	}

	return path, nil
}

// LoadSummary reads a summary from disk.
func LoadSummary(path string) (*Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read summary: %w", err)
	}

	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal summary: %w", err)
	}
	if s.Version != SummaryVersion {
		return nil, fmt.Errorf("summary version %d, want %d", s.Version, SummaryVersion)
	}

	return &s, nil
}

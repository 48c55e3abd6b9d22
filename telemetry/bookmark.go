package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkSpawnSurge  BookmarkType = "spawn_surge"
	BookmarkCollapse    BookmarkType = "collapse"
	BookmarkSteadyState BookmarkType = "steady_state"
	BookmarkDrained     BookmarkType = "drained"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Frame       int32        `csv:"frame"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"frame", b.Frame,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in a run.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	recentLivePeak     int  // peak live count in recent history
	stableWindowsCount int  // consecutive windows with a stable live count
	drained            bool // every instance has completed
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for steady state detection
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if bd.historyFull || bd.historyIdx > 0 {
		// Spawn surge: spawn rate > 2x rolling average
		if b := bd.checkSpawnSurge(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Collapse: live count dropped >30% from recent peak
		if b := bd.checkCollapse(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Steady state: live count with low variance over 5+ windows
		if b := bd.checkSteadyState(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	// Drained: no instances left
	if b := bd.checkDrained(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	// Update history
	bd.addToHistory(stats)

	if stats.Live > bd.recentLivePeak {
		bd.recentLivePeak = stats.Live
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkSpawnSurge(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	// Calculate rolling average spawn rate
	var total float64
	for _, h := range history {
		total += h.SpawnRate
	}
	avgRate := total / float64(len(history))
	if avgRate == 0 {
		return nil
	}

	if stats.SpawnRate > avgRate*2.0 && stats.Activated >= 10 {
		return &Bookmark{
			Type:        BookmarkSpawnSurge,
			Frame:       stats.WindowEndFrame,
			Description: fmt.Sprintf("Spawn rate %.1f/s is %.1fx average (%.1f/s)", stats.SpawnRate, stats.SpawnRate/avgRate, avgRate),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkCollapse(stats WindowStats) *Bookmark {
	if bd.recentLivePeak == 0 {
		return nil
	}

	dropPercent := 1.0 - float64(stats.Live)/float64(bd.recentLivePeak)
	if dropPercent > 0.30 && stats.Live < bd.recentLivePeak-10 {
		// Reset peak after collapse
		oldPeak := bd.recentLivePeak
		bd.recentLivePeak = stats.Live

		return &Bookmark{
			Type:        BookmarkCollapse,
			Frame:       stats.WindowEndFrame,
			Description: fmt.Sprintf("Live particles fell %.0f%% from peak %d to %d", dropPercent*100, oldPeak, stats.Live),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkSteadyState(stats WindowStats) *Bookmark {
	if stats.Live < 10 {
		bd.stableWindowsCount = 0
		return nil
	}

	if len(bd.getHistory()) < 4 {
		return nil
	}

	// Last 4 windows, walking back from the write position
	recent := make([]float64, 0, 4)
	for i := 1; i <= 4; i++ {
		idx := (bd.historyIdx - i + bd.historySize) % bd.historySize
		recent = append(recent, float64(bd.history[idx].Live))
	}
	mean, std, _, _, _ := ComputeStats(recent)

	// Low variance: coefficient of variation < 10%
	if mean > 0 && std/mean < 0.1 {
		bd.stableWindowsCount++
	} else {
		bd.stableWindowsCount = 0
	}

	if bd.stableWindowsCount == 5 { // trigger exactly once at 5 windows
		return &Bookmark{
			Type:        BookmarkSteadyState,
			Frame:       stats.WindowEndFrame,
			Description: fmt.Sprintf("Steady at about %d live particles over 5+ windows", stats.Live),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkDrained(stats WindowStats) *Bookmark {
	if bd.drained || stats.Instances > 0 {
		return nil
	}
	bd.drained = true
	return &Bookmark{
		Type:        BookmarkDrained,
		Frame:       stats.WindowEndFrame,
		Description: fmt.Sprintf("All instances completed by %.1fs", stats.SimTimeSec),
	}
}

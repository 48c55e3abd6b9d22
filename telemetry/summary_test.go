package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestSummaryAdd(t *testing.T) {
	s := NewSummary("fountain", 42, 4)
	if s.RunID == uuid.Nil {
		t.Fatal("run id not set")
	}

	s.Add(WindowStats{WindowEndFrame: 60, SimTimeSec: 1, Activated: 30, Killed: 10, Live: 15, Nested: 5})
	s.Add(WindowStats{WindowEndFrame: 120, SimTimeSec: 2, Activated: 10, Killed: 25, Completed: 2, Live: 8})

	if s.Frames != 120 || s.SimTime != 2 {
		t.Errorf("frames %d sim %v, want 120 and 2", s.Frames, s.SimTime)
	}
	if s.Activated != 40 || s.Killed != 35 || s.Completed != 2 {
		t.Errorf("totals = %d/%d/%d, want 40/35/2", s.Activated, s.Killed, s.Completed)
	}
	if s.PeakLive != 20 {
		t.Errorf("peak live = %d, want 20", s.PeakLive)
	}
}

func TestSummarySaveLoad(t *testing.T) {
	tmpDir := t.TempDir()

	s := NewSummary("fountain", 7, 2)
	s.Add(WindowStats{WindowEndFrame: 60, SimTimeSec: 1, Activated: 12, Live: 9})
	s.Bookmarks = []Bookmark{{Type: BookmarkDrained, Frame: 60, Description: "done"}}

	path, err := SaveSummary(s, tmpDir)
	if err != nil {
		t.Fatalf("SaveSummary failed: %v", err)
	}
	if !strings.Contains(filepath.Base(path), s.RunID.String()) {
		t.Errorf("path %s does not contain run id", path)
	}

	loaded, err := LoadSummary(path)
	if err != nil {
		t.Fatalf("LoadSummary failed: %v", err)
	}
	if loaded.RunID != s.RunID || loaded.Seed != 7 || loaded.Effect != "fountain" {
		t.Errorf("loaded = %+v", loaded)
	}
	if loaded.Activated != 12 || loaded.PeakLive != 9 {
		t.Errorf("totals not preserved: %+v", loaded)
	}
	if len(loaded.Bookmarks) != 1 || loaded.Bookmarks[0].Type != BookmarkDrained {
		t.Errorf("bookmarks = %+v", loaded.Bookmarks)
	}
}

func TestLoadSummaryErrors(t *testing.T) {
	tmpDir := t.TempDir()

	if _, err := LoadSummary(filepath.Join(tmpDir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(tmpDir, "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSummary(bad); err == nil {
		t.Error("expected error for invalid JSON")
	}

	old := filepath.Join(tmpDir, "old.json")
	if err := os.WriteFile(old, []byte(`{"version": 0}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSummary(old); err == nil {
		t.Error("expected error for version mismatch")
	}
}

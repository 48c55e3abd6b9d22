package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/sparks/config"
	"github.com/pthm-cable/sparks/effects"
)

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("NewOutputManager(\"\") = %v, %v, want nil, nil", om, err)
	}
	if err := om.WriteWindow(WindowStats{}); err != nil {
		t.Errorf("WriteWindow on nil manager: %v", err)
	}
	if err := om.WriteBookmark(Bookmark{}); err != nil {
		t.Errorf("WriteBookmark on nil manager: %v", err)
	}
	if om.Dir() != "" {
		t.Errorf("Dir() = %q, want empty", om.Dir())
	}
	if err := om.Close(); err != nil {
		t.Errorf("Close on nil manager: %v", err)
	}
}

func TestOutputManagerWritesCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	for i := 1; i <= 2; i++ {
		if err := om.WriteWindow(WindowStats{WindowEndFrame: int32(i * 60), Live: i}); err != nil {
			t.Fatalf("WriteWindow: %v", err)
		}
	}
	if err := om.WritePerf(PerfStats{FramesPerSec: 100}, 60); err != nil {
		t.Fatalf("WritePerf: %v", err)
	}
	if err := om.WriteBookmark(Bookmark{Type: BookmarkDrained, Frame: 120, Description: "done"}); err != nil {
		t.Fatalf("WriteBookmark: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	tests := []struct {
		file   string
		header string
		lines  int
	}{
		{"frames.csv", "window_end", 3},
		{"perf.csv", "frames_per_sec", 2},
		{"bookmarks.csv", "description", 2},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			data, err := os.ReadFile(filepath.Join(dir, tt.file))
			if err != nil {
				t.Fatal(err)
			}
			lines := strings.Split(strings.TrimSpace(string(data)), "\n")
			if len(lines) != tt.lines {
				t.Fatalf("%d lines, want %d:\n%s", len(lines), tt.lines, data)
			}
			if !strings.Contains(lines[0], tt.header) {
				t.Errorf("header %q missing %q", lines[0], tt.header)
			}
		})
	}
}

func TestOutputManagerConfigAndManifest(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer om.Close()

	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if err := om.WriteConfig(cfg); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}
	if _, err := config.Load(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("written config does not reload: %v", err)
	}

	if err := om.WriteManifest(effects.New("empty")); err != nil {
		t.Fatalf("WriteManifest: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "assets.yaml")); err != nil {
		t.Errorf("manifest not written: %v", err)
	}

	path, err := om.WriteSummary(NewSummary("empty", 1, 1))
	if err != nil {
		t.Fatalf("WriteSummary: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("summary written to %s, want %s", path, dir)
	}
}

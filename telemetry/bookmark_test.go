package telemetry

import "testing"

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, bm := range bookmarks {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_SpawnSurge(t *testing.T) {
	bd := NewBookmarkDetector(10)

	// Add some history with a modest spawn rate
	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{
			WindowEndFrame: int32(i * 60),
			Instances:      1,
			Activated:      10,
			SpawnRate:      10,
		})
	}

	// Now add a window with a spawn rate >2x the average
	bookmarks := bd.Check(WindowStats{
		WindowEndFrame: 300,
		Instances:      1,
		Activated:      30,
		SpawnRate:      30,
	})
	if !hasBookmark(bookmarks, BookmarkSpawnSurge) {
		t.Error("expected spawn_surge bookmark")
	}
}

func TestBookmarkDetector_Collapse(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndFrame: int32(i * 60), Instances: 2, Live: 100})
	}

	bookmarks := bd.Check(WindowStats{WindowEndFrame: 300, Instances: 2, Live: 50})
	if !hasBookmark(bookmarks, BookmarkCollapse) {
		t.Error("expected collapse bookmark")
	}

	// The peak resets, so a further small dip does not trigger again
	bookmarks = bd.Check(WindowStats{WindowEndFrame: 360, Instances: 2, Live: 45})
	if hasBookmark(bookmarks, BookmarkCollapse) {
		t.Error("unexpected second collapse bookmark")
	}
}

func TestBookmarkDetector_SteadyState(t *testing.T) {
	bd := NewBookmarkDetector(10)

	count := 0
	for i := 0; i < 10; i++ {
		bookmarks := bd.Check(WindowStats{
			WindowEndFrame: int32(i * 60),
			Instances:      1,
			Live:           100 + i%2,
		})
		if hasBookmark(bookmarks, BookmarkSteadyState) {
			count++
		}
	}
	if count != 1 {
		t.Errorf("steady_state triggered %d times, want 1", count)
	}
}

func TestBookmarkDetector_SteadyStateNeedsParticles(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 10; i++ {
		bookmarks := bd.Check(WindowStats{WindowEndFrame: int32(i * 60), Instances: 1, Live: 3})
		if hasBookmark(bookmarks, BookmarkSteadyState) {
			t.Fatal("steady_state should not trigger below 10 live particles")
		}
	}
}

func TestBookmarkDetector_Drained(t *testing.T) {
	bd := NewBookmarkDetector(5)

	if hasBookmark(bd.Check(WindowStats{WindowEndFrame: 60, Instances: 3, Live: 20}), BookmarkDrained) {
		t.Fatal("drained with live instances")
	}
	if !hasBookmark(bd.Check(WindowStats{WindowEndFrame: 120}), BookmarkDrained) {
		t.Error("expected drained bookmark")
	}
	if hasBookmark(bd.Check(WindowStats{WindowEndFrame: 180}), BookmarkDrained) {
		t.Error("drained should trigger only once")
	}
}

func TestNewBookmarkDetector_MinimumHistory(t *testing.T) {
	bd := NewBookmarkDetector(1)
	if bd.historySize != 5 {
		t.Errorf("historySize = %d, want 5", bd.historySize)
	}
}

package telemetry

import (
	"testing"
)

func bookmarksOfType(bookmarks []Bookmark, typ BookmarkType) int {
	n := 0
	for _, bm := range bookmarks {
		if bm.Type == typ {
			n++
		}
	}
	return n
}

func TestBookmarkDetector_FlockFormed(t *testing.T) {
	bd := NewBookmarkDetector(10)

	// Disordered start
	for i, p := range []float64{0.2, 0.3, 0.25} {
		bd.Check(WindowStats{WindowEndTick: int64(i * 300), Polarization: p})
	}

	bookmarks := bd.Check(WindowStats{WindowEndTick: 900, Polarization: 0.85})
	if bookmarksOfType(bookmarks, BookmarkFlockFormed) != 1 {
		t.Fatalf("expected flock_formed bookmark, got %+v", bookmarks)
	}

	// Staying aligned must not trigger again
	bookmarks = bd.Check(WindowStats{WindowEndTick: 1200, Polarization: 0.9})
	if bookmarksOfType(bookmarks, BookmarkFlockFormed) != 0 {
		t.Errorf("flock_formed repeated without a disordered phase: %+v", bookmarks)
	}
}

func TestBookmarkDetector_FlockScattered(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 3; i++ {
		bd.Check(WindowStats{WindowEndTick: int64(i * 300), Polarization: 0.95})
	}

	bookmarks := bd.Check(WindowStats{WindowEndTick: 900, Polarization: 0.5})
	if bookmarksOfType(bookmarks, BookmarkFlockScattered) != 1 {
		t.Fatalf("expected flock_scattered bookmark, got %+v", bookmarks)
	}

	bookmarks = bd.Check(WindowStats{WindowEndTick: 1200, Polarization: 0.45})
	if bookmarksOfType(bookmarks, BookmarkFlockScattered) != 0 {
		t.Errorf("flock_scattered should reset its peak: %+v", bookmarks)
	}
}

func TestBookmarkDetector_Compaction(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 3; i++ {
		bd.Check(WindowStats{WindowEndTick: int64(i * 300), Agents: 50, NNP50: 30})
	}

	bookmarks := bd.Check(WindowStats{WindowEndTick: 900, Agents: 50, NNP50: 10})
	if bookmarksOfType(bookmarks, BookmarkCompaction) != 1 {
		t.Errorf("expected compaction bookmark, got %+v", bookmarks)
	}
}

func TestBookmarkDetector_StableFlock(t *testing.T) {
	bd := NewBookmarkDetector(10)

	var triggered []Bookmark
	for i := 0; i < 10; i++ {
		stats := WindowStats{
			WindowEndTick: int64(i * 300),
			Agents:        100,
			Polarization:  0.95,
		}
		for _, bm := range bd.Check(stats) {
			if bm.Type == BookmarkStableFlock {
				triggered = append(triggered, bm)
			}
		}
	}

	if len(triggered) != 1 {
		t.Fatalf("stable_flock triggered %d times, want once", len(triggered))
	}
	// Four windows of history are needed before counting starts, then five
	// consecutive stable windows.
	if triggered[0].Tick != 8*300 {
		t.Errorf("stable_flock at tick %d, want %d", triggered[0].Tick, 8*300)
	}
}

func TestBookmarkDetector_HistoryOrder(t *testing.T) {
	bd := NewBookmarkDetector(5)
	for i := 0; i < 7; i++ {
		bd.Check(WindowStats{WindowEndTick: int64(i)})
	}

	history := bd.history
	if len(history) != 5 {
		t.Fatalf("history length = %d, want 5", len(history))
	}
	for i, h := range history {
		if h.WindowEndTick != int64(i+2) {
			t.Errorf("history[%d] = tick %d, want %d", i, h.WindowEndTick, i+2)
		}
	}
}

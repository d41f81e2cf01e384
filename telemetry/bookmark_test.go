package telemetry

import "testing"

func hasBookmark(bms []Bookmark, typ BookmarkType) bool {
	for _, bm := range bms {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_CapReached(t *testing.T) {
	bd := NewBookmarkDetector(10, 50)

	if bms := bd.Check(WindowStats{Agents: 49}); hasBookmark(bms, BookmarkCapReached) {
		t.Error("below cap should not trigger")
	}
	if bms := bd.Check(WindowStats{Agents: 50}); !hasBookmark(bms, BookmarkCapReached) {
		t.Error("expected cap_reached bookmark")
	}
	if bms := bd.Check(WindowStats{Agents: 50}); hasBookmark(bms, BookmarkCapReached) {
		t.Error("staying at cap should not trigger again")
	}
	bd.Check(WindowStats{Agents: 40})
	if bms := bd.Check(WindowStats{Agents: 50}); !hasBookmark(bms, BookmarkCapReached) {
		t.Error("returning to cap should trigger again")
	}
}

func TestBookmarkDetector_KillStreak(t *testing.T) {
	bd := NewBookmarkDetector(10, 50)

	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndTick: int32(i * 300), Eliminations: 1})
	}

	bms := bd.Check(WindowStats{WindowEndTick: 1500, Eliminations: 4})
	if !hasBookmark(bms, BookmarkKillStreak) {
		t.Error("expected kill_streak bookmark")
	}
}

func TestBookmarkDetector_HordeClosing(t *testing.T) {
	bd := NewBookmarkDetector(10, 50)

	for i := 0; i < 4; i++ {
		bd.Check(WindowStats{Agents: 20, DistanceMean: 40})
	}

	if bms := bd.Check(WindowStats{Agents: 20, DistanceMean: 30}); hasBookmark(bms, BookmarkHordeClosing) {
		t.Error("modest approach should not trigger")
	}
	if bms := bd.Check(WindowStats{Agents: 20, DistanceMean: 10}); !hasBookmark(bms, BookmarkHordeClosing) {
		t.Error("expected horde_closing bookmark")
	}
}

func TestBookmarkDetector_HordeCleared(t *testing.T) {
	bd := NewBookmarkDetector(10, 50)

	for i := 0; i < 3; i++ {
		bd.Check(WindowStats{Agents: 30})
	}

	bms := bd.Check(WindowStats{Agents: 10})
	if !hasBookmark(bms, BookmarkHordeCleared) {
		t.Fatal("expected horde_cleared bookmark")
	}

	// Peak was reset to 10, so a further small drop does not retrigger
	if bms := bd.Check(WindowStats{Agents: 8}); hasBookmark(bms, BookmarkHordeCleared) {
		t.Error("should not retrigger right after a clear")
	}
}

func TestBookmarkDetector_SteadyPressure(t *testing.T) {
	bd := NewBookmarkDetector(10, 50)

	triggered := 0
	for i := 0; i < 12; i++ {
		bms := bd.Check(WindowStats{WindowEndTick: int32(i * 300), Agents: 40 + i%2})
		if hasBookmark(bms, BookmarkSteadyPressure) {
			triggered++
		}
	}

	if triggered != 1 {
		t.Errorf("steady_pressure triggered %d times, want exactly once", triggered)
	}
}

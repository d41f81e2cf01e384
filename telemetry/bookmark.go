package telemetry

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/stat"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkCapReached     BookmarkType = "cap_reached"
	BookmarkKillStreak     BookmarkType = "kill_streak"
	BookmarkHordeClosing   BookmarkType = "horde_closing"
	BookmarkHordeCleared   BookmarkType = "horde_cleared"
	BookmarkSteadyPressure BookmarkType = "steady_pressure"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Tick        int32        `csv:"tick"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in the simulation.
type BookmarkDetector struct {
	cap int

	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	atCap              bool
	recentPeak         int // peak agent count since the last clear
	steadyWindowsCount int // consecutive windows with a stable agent count
}

// NewBookmarkDetector creates a detector with the given history size for a
// population capped at cap.
func NewBookmarkDetector(historySize, cap int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for steady pressure detection
	}
	return &BookmarkDetector{
		cap:         cap,
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if b := bd.checkCapReached(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	if bd.historyFull || bd.historyIdx > 0 {
		if b := bd.checkKillStreak(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkHordeClosing(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkHordeCleared(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkSteadyPressure(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	bd.addToHistory(stats)
	if stats.Agents > bd.recentPeak {
		bd.recentPeak = stats.Agents
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

func (bd *BookmarkDetector) checkCapReached(stats WindowStats) *Bookmark {
	if bd.cap <= 0 {
		return nil
	}
	if stats.Agents < bd.cap {
		bd.atCap = false
		return nil
	}
	if bd.atCap {
		return nil
	}
	bd.atCap = true
	return &Bookmark{
		Type:        BookmarkCapReached,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Population reached its cap of %d", bd.cap),
	}
}

func (bd *BookmarkDetector) checkKillStreak(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total int
	for _, h := range history {
		total += h.Eliminations
	}
	avg := float64(total) / float64(len(history))
	if avg == 0 {
		return nil
	}

	if float64(stats.Eliminations) > avg*2.0 && stats.Eliminations >= 3 {
		return &Bookmark{
			Type:        BookmarkKillStreak,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("%d eliminations is %.1fx average (%.2f)", stats.Eliminations, float64(stats.Eliminations)/avg, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkHordeClosing(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 || stats.Agents < 10 {
		return nil
	}

	var sum float64
	var n int
	for _, h := range history {
		if h.Agents > 0 {
			sum += h.DistanceMean
			n++
		}
	}
	if n == 0 || sum == 0 {
		return nil
	}
	avg := sum / float64(n)

	if stats.DistanceMean < avg*0.5 {
		return &Bookmark{
			Type:        BookmarkHordeClosing,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Mean agent distance %.1f is under half the average %.1f", stats.DistanceMean, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkHordeCleared(stats WindowStats) *Bookmark {
	if bd.recentPeak < 10 {
		return nil
	}

	drop := 1.0 - float64(stats.Agents)/float64(bd.recentPeak)
	if drop > 0.5 {
		oldPeak := bd.recentPeak
		bd.recentPeak = stats.Agents

		return &Bookmark{
			Type:        BookmarkHordeCleared,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Agents fell %.0f%% from peak %d to %d", drop*100, oldPeak, stats.Agents),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkSteadyPressure(stats WindowStats) *Bookmark {
	if stats.Agents < 10 {
		bd.steadyWindowsCount = 0
		return nil
	}

	history := bd.getHistory()
	if len(history) < 4 {
		return nil
	}

	counts := make([]float64, 4)
	for i, h := range history[len(history)-4:] {
		counts[i] = float64(h.Agents)
	}
	mean, variance := stat.MeanVariance(counts, nil)

	// CV^2 < 0.04 means CV < 0.2
	if mean > 0 && variance/(mean*mean) < 0.04 {
		bd.steadyWindowsCount++
	} else {
		bd.steadyWindowsCount = 0
	}

	if bd.steadyWindowsCount == 5 {
		return &Bookmark{
			Type:        BookmarkSteadyPressure,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Steady horde of about %d agents over 5+ windows", stats.Agents),
		}
	}
	return nil
}

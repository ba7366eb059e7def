package telemetry

import (
	"fmt"
	"log/slog"
	"math"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkPopulationComplete BookmarkType = "population_complete"
	BookmarkCoherenceSpike     BookmarkType = "coherence_spike"
	BookmarkCongestion         BookmarkType = "congestion"
	BookmarkTrailPlateau       BookmarkType = "trail_plateau"
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

// BookmarkDetector detects notable moments in a run from window stats.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	populationDone bool
	congested      bool
	plateauWindows int
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for plateau detection
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if b := bd.checkPopulationComplete(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkCongestion(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if bd.historyFull || bd.historyIdx > 0 {
		if b := bd.checkCoherenceSpike(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkTrailPlateau(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	bd.addToHistory(stats)
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

// latest returns the n most recent windows, oldest first.
func (bd *BookmarkDetector) latest(n int) []WindowStats {
	h := bd.getHistory()
	if len(h) < n {
		return nil
	}
	out := make([]WindowStats, 0, n)
	for i := n; i > 0; i-- {
		idx := (bd.historyIdx - i + bd.historySize) % bd.historySize
		out = append(out, bd.history[idx])
	}
	return out
}

// checkPopulationComplete fires once, the first window the population
// reaches its target.
func (bd *BookmarkDetector) checkPopulationComplete(stats WindowStats) *Bookmark {
	if bd.populationDone || stats.TargetAgents == 0 || stats.Agents < stats.TargetAgents {
		return nil
	}
	bd.populationDone = true
	return &Bookmark{
		Type:        BookmarkPopulationComplete,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Population reached target of %d agents", stats.TargetAgents),
	}
}

// checkCongestion fires when more than half of all moves are rejected,
// and again only after the rate has dropped below a quarter.
func (bd *BookmarkDetector) checkCongestion(stats WindowStats) *Bookmark {
	if bd.congested {
		if stats.BlockedRate < 0.25 {
			bd.congested = false
		}
		return nil
	}
	if stats.BlockedRate <= 0.5 {
		return nil
	}
	bd.congested = true
	return &Bookmark{
		Type:        BookmarkCongestion,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("%.0f%% of moves blocked", stats.BlockedRate*100),
	}
}

// checkCoherenceSpike fires when heading coherence is more than twice the
// rolling average and agents are meaningfully aligned.
func (bd *BookmarkDetector) checkCoherenceSpike(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.HeadingCoherence
	}
	avg := total / float64(len(history))
	if avg == 0 {
		return nil
	}

	if stats.HeadingCoherence > avg*2 && stats.HeadingCoherence > 0.2 {
		return &Bookmark{
			Type:        BookmarkCoherenceSpike,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Heading coherence %.2f is %.1fx average (%.2f)", stats.HeadingCoherence, stats.HeadingCoherence/avg, avg),
		}
	}
	return nil
}

// checkTrailPlateau fires once when total deposition has stayed within 2%
// of its recent mean for five consecutive windows.
func (bd *BookmarkDetector) checkTrailPlateau(stats WindowStats) *Bookmark {
	recent := bd.latest(4)
	if recent == nil || stats.TotalDeposition <= 0 {
		bd.plateauWindows = 0
		return nil
	}

	mean := stats.TotalDeposition
	for _, h := range recent {
		mean += h.TotalDeposition
	}
	mean /= float64(len(recent) + 1)

	stable := math.Abs(stats.TotalDeposition-mean) <= 0.02*mean
	for _, h := range recent {
		if math.Abs(h.TotalDeposition-mean) > 0.02*mean {
			stable = false
		}
	}

	if !stable {
		bd.plateauWindows = 0
		return nil
	}
	bd.plateauWindows++
	if bd.plateauWindows == 5 {
		return &Bookmark{
			Type:        BookmarkTrailPlateau,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Total deposition steady near %.1f over 5+ windows", mean),
		}
	}
	return nil
}

package telemetry

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/stat"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkFlockFormed    BookmarkType = "flock_formed"
	BookmarkFlockScattered BookmarkType = "flock_scattered"
	BookmarkCompaction     BookmarkType = "compaction"
	BookmarkStableFlock    BookmarkType = "stable_flock"
)

const (
	formedPolarization     = 0.8 // formation completes at or above this
	disorderedPolarization = 0.5 // and must start below this
	scatterDrop            = 0.3 // fall from the recent peak that counts as scattering

	compactionRatio = 0.5 // spacing vs rolling average

	stablePolarization = 0.9
	stableMaxStdDev    = 0.05 // over the last stableLookback windows
	stableLookback     = 4
	stableRun          = 5 // consecutive steady windows before firing
)

// Bookmark marks a notable moment in a run.
type Bookmark struct {
	Type        BookmarkType `csv:"type" json:"type"`
	Tick        int64        `csv:"tick" json:"tick"`
	Description string       `csv:"description" json:"description"`
}

// LogBookmark logs the bookmark at info level.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark", "type", string(b.Type), "tick", b.Tick, "description", b.Description)
}

// BookmarkDetector watches consecutive stats windows for flock formation,
// scattering, compaction and long stable stretches.
type BookmarkDetector struct {
	size    int
	history []WindowStats // oldest first, at most size entries

	polarMin   float64 // lowest polarization since the last formation
	polarPeak  float64 // highest polarization since the last scatter
	steady     int
	hasHistory bool
}

// NewBookmarkDetector keeps historySize windows for the rolling checks.
// Sizes below 5 are raised to 5.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	size := max(historySize, stableRun)
	return &BookmarkDetector{size: size, history: make([]WindowStats, 0, size)}
}

// Check compares stats against the windows seen so far and returns the
// bookmarks it triggers, then records it.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var out []Bookmark
	if bd.hasHistory {
		for _, rule := range [...]func(WindowStats) *Bookmark{
			bd.flockFormed, bd.flockScattered, bd.compaction, bd.stableFlock,
		} {
			if b := rule(stats); b != nil {
				out = append(out, *b)
			}
		}
	}

	if len(bd.history) == bd.size {
		copy(bd.history, bd.history[1:])
		bd.history = bd.history[:bd.size-1]
	}
	bd.history = append(bd.history, stats)

	if !bd.hasHistory || stats.Polarization < bd.polarMin {
		bd.polarMin = stats.Polarization
	}
	bd.polarPeak = max(bd.polarPeak, stats.Polarization)
	bd.hasHistory = true
	return out
}

// flockFormed fires when polarization climbs into formation from
// disorder. Another formation needs a new disordered phase first.
func (bd *BookmarkDetector) flockFormed(stats WindowStats) *Bookmark {
	if bd.polarMin >= disorderedPolarization || stats.Polarization < formedPolarization {
		return nil
	}
	from := bd.polarMin
	bd.polarMin = stats.Polarization
	return &Bookmark{
		Type:        BookmarkFlockFormed,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Polarization rose from %.2f to %.2f", from, stats.Polarization),
	}
}

func (bd *BookmarkDetector) flockScattered(stats WindowStats) *Bookmark {
	if bd.polarPeak-stats.Polarization <= scatterDrop {
		return nil
	}
	peak := bd.polarPeak
	bd.polarPeak = stats.Polarization
	return &Bookmark{
		Type:        BookmarkFlockScattered,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Polarization fell from peak %.2f to %.2f", peak, stats.Polarization),
	}
}

func (bd *BookmarkDetector) compaction(stats WindowStats) *Bookmark {
	if len(bd.history) < 3 || stats.Agents < 2 {
		return nil
	}
	spacing := make([]float64, len(bd.history))
	for i, h := range bd.history {
		spacing[i] = h.NNP50
	}
	avg := stat.Mean(spacing, nil)
	if avg == 0 || stats.NNP50 >= avg*compactionRatio {
		return nil
	}
	return &Bookmark{
		Type: BookmarkCompaction,
		Tick: stats.WindowEndTick,
		Description: fmt.Sprintf("Median spacing %.1f is %.0f%% of average (%.1f)",
			stats.NNP50, stats.NNP50/avg*100, avg),
	}
}

// stableFlock fires once per stretch, on the stableRun-th consecutive
// window that is highly polarized and steady over the recent history.
func (bd *BookmarkDetector) stableFlock(stats WindowStats) *Bookmark {
	if stats.Polarization < stablePolarization || stats.Agents < 2 {
		bd.steady = 0
		return nil
	}
	if len(bd.history) < stableLookback {
		return nil
	}

	recent := make([]float64, stableLookback)
	for i, h := range bd.history[len(bd.history)-stableLookback:] {
		recent[i] = h.Polarization
	}
	if _, std := stat.PopMeanStdDev(recent, nil); std < stableMaxStdDev {
		bd.steady++
	} else {
		bd.steady = 0
	}

	if bd.steady != stableRun {
		return nil
	}
	return &Bookmark{
		Type: BookmarkStableFlock,
		Tick: stats.WindowEndTick,
		Description: fmt.Sprintf("Stable flock of %d agents at polarization %.2f over %d windows",
			stats.Agents, stats.Polarization, stableRun),
	}
}

package telemetry

import (
	"fmt"
	"log/slog"
	"math"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkGrowthSpurt BookmarkType = "growth_spurt"
	BookmarkAtrophy     BookmarkType = "atrophy"
	BookmarkPlateau     BookmarkType = "plateau"
	BookmarkSaturation  BookmarkType = "saturation"
)

// Detection thresholds.
const (
	spurtMultiplier   = 2.0  // window gain vs rolling average gain
	spurtMinGain      = 0.05 // absolute mass gain per window
	atrophyDrop       = 0.10 // fraction below recent peak
	plateauTolerance  = 1e-3 // |delta|/mass per window
	plateauWindows    = 5
	saturationCapFrac = 0.9
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type" json:"type"`
	Tic         int          `csv:"tic" json:"tic"`
	Description string       `csv:"description" json:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tic", b.Tic,
		"description", b.Description,
	)
}

// BookmarkDetector detects notable moments in a run from its window stats.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	recentPeakMass      float64
	plateauWindowsCount int
	saturated           bool
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 3 {
		historySize = 3
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if b := bd.checkGrowthSpurt(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkAtrophy(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkPlateau(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkSaturation(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)
	if stats.MuscleMass > bd.recentPeakMass {
		bd.recentPeakMass = stats.MuscleMass
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

func (bd *BookmarkDetector) checkGrowthSpurt(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.MassDelta
	}
	avg := total / float64(len(history))

	if stats.MassDelta >= spurtMinGain && stats.MassDelta > avg*spurtMultiplier {
		return &Bookmark{
			Type:        BookmarkGrowthSpurt,
			Tic:         stats.WindowEndTic,
			Description: fmt.Sprintf("Mass gained %.3f in one window vs %.3f average", stats.MassDelta, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkAtrophy(stats WindowStats) *Bookmark {
	if bd.recentPeakMass == 0 {
		return nil
	}

	drop := 1 - stats.MuscleMass/bd.recentPeakMass
	if drop > atrophyDrop {
		// Reset peak after triggering
		oldPeak := bd.recentPeakMass
		bd.recentPeakMass = stats.MuscleMass

		return &Bookmark{
			Type:        BookmarkAtrophy,
			Tic:         stats.WindowEndTic,
			Description: fmt.Sprintf("Mass fell %.0f%% from peak %.3f to %.3f", drop*100, oldPeak, stats.MuscleMass),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkPlateau(stats WindowStats) *Bookmark {
	if stats.MuscleMass <= 0 {
		bd.plateauWindowsCount = 0
		return nil
	}

	if math.Abs(stats.MassDelta)/stats.MuscleMass < plateauTolerance {
		bd.plateauWindowsCount++
	} else {
		bd.plateauWindowsCount = 0
	}

	if bd.plateauWindowsCount == plateauWindows { // trigger exactly once per plateau
		return &Bookmark{
			Type:        BookmarkPlateau,
			Tic:         stats.WindowEndTic,
			Description: fmt.Sprintf("Mass steady at %.3f over %d windows", stats.MuscleMass, plateauWindows),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkSaturation(stats WindowStats) *Bookmark {
	if bd.saturated || stats.CapFraction() < saturationCapFrac {
		return nil
	}
	bd.saturated = true

	return &Bookmark{
		Type:        BookmarkSaturation,
		Tic:         stats.WindowEndTic,
		Description: fmt.Sprintf("%d of %d fibers at maximum size", stats.AtCap, stats.Fibers),
	}
}

package monitor

import (
	"time"

	"github.com/sdelkov4-collab/bot/internal/models"
)

// Window tier names exposed on Baseline.Window.
const (
	WindowPrimary = "7d"
	WindowReduced = "3d"
	WindowAll     = "all"
)

const (
	primaryWindow = 7 * 24 * time.Hour
	reducedWindow = 3 * 24 * time.Hour
)

// ComputeBaseline derives the long-window baseline from history with
// graduated fallback: the 7-day window when both series have at least
// minPoints entries, else the 3-day window against a reduced minimum of
// max(6, minPoints/2), else all retained history with no minimum at all.
// History is only read, never mutated.
func ComputeBaseline(history []models.Observation, now time.Time, minPoints int) models.Baseline {
	m7 := medianInWindow(history, now, primaryWindow)
	s7 := salesInWindow(history, now, primaryWindow)
	if len(m7) >= minPoints && len(s7) >= minPoints {
		return models.Baseline{
			Median:        robustMedian(m7),
			Sales:         robustMean(s7),
			Window:        WindowPrimary,
			MedianSamples: len(m7),
			SalesSamples:  len(s7),
			HistoryLen:    len(history),
		}
	}

	reducedMin := max(6, minPoints/2)
	m3 := medianInWindow(history, now, reducedWindow)
	s3 := salesInWindow(history, now, reducedWindow)
	if len(m3) >= reducedMin && len(s3) >= reducedMin {
		return models.Baseline{
			Median:        robustMedian(m3),
			Sales:         robustMean(s3),
			Window:        WindowReduced,
			MedianSamples: len(m3),
			SalesSamples:  len(s3),
			HistoryLen:    len(history),
		}
	}

	// Final tier: everything retained, any age, no minimum. Empty series
	// yields an absent baseline rather than zero.
	var allM, allS []float64
	for _, p := range history {
		if p.Median != nil {
			allM = append(allM, *p.Median)
		}
		allS = append(allS, float64(p.Sales24h))
	}
	return models.Baseline{
		Median:        robustMedian(allM),
		Sales:         robustMean(allS),
		Window:        WindowAll,
		MedianSamples: len(allM),
		SalesSamples:  len(allS),
		HistoryLen:    len(history),
	}
}

// ShortStats is the raw short-window material consumed by pump detectors:
// the median and sales series inside the window, oldest first, plus the
// median timestamps. No fallback tiering applies to the short window.
type ShortStats struct {
	Medians     []float64
	MedianTimes []time.Time
	Sales       []float64
}

// Median is the robust median of the short median series, nil when empty.
func (s ShortStats) Median() *float64 {
	return robustMedian(s.Medians)
}

// ShortWindowStats collects the short-window series from history.
func ShortWindowStats(history []models.Observation, now time.Time, span time.Duration) ShortStats {
	cutoff := now.Add(-span)
	var stats ShortStats
	for _, p := range history {
		if p.Timestamp.Before(cutoff) {
			continue
		}
		if p.Median != nil {
			stats.Medians = append(stats.Medians, *p.Median)
			stats.MedianTimes = append(stats.MedianTimes, p.Timestamp)
		}
		stats.Sales = append(stats.Sales, float64(p.Sales24h))
	}
	return stats
}

package monitor

import (
	"time"

	"github.com/sdelkov4-collab/bot/internal/models"
)

// AppendObservation appends obs to the item's history and prunes entries
// older than the retention horizon. Records with a zero timestamp (malformed
// stored values) fall before any cutoff and are dropped with the rest.
func AppendObservation(state *models.ItemState, obs models.Observation, now time.Time, retentionDays int) {
	state.History = append(state.History, obs)

	cutoff := now.AddDate(0, 0, -retentionDays)
	kept := state.History[:0]
	for _, p := range state.History {
		if !p.Timestamp.Before(cutoff) {
			kept = append(kept, p)
		}
	}
	state.History = kept
}

// medianInWindow returns the median prices of history entries whose timestamp
// falls within [now-span, now]; the lower bound is inclusive. Entries without
// a parsed median are skipped. Order follows history order, which is append
// order.
func medianInWindow(history []models.Observation, now time.Time, span time.Duration) []float64 {
	cutoff := now.Add(-span)
	var vals []float64
	for _, p := range history {
		if p.Timestamp.Before(cutoff) {
			continue
		}
		if p.Median != nil {
			vals = append(vals, *p.Median)
		}
	}
	return vals
}

// salesInWindow returns the 24h sales counts within [now-span, now],
// inclusive lower bound.
func salesInWindow(history []models.Observation, now time.Time, span time.Duration) []float64 {
	cutoff := now.Add(-span)
	var vals []float64
	for _, p := range history {
		if p.Timestamp.Before(cutoff) {
			continue
		}
		vals = append(vals, float64(p.Sales24h))
	}
	return vals
}

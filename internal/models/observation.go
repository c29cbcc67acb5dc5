// Package models defines the core domain records: observations, per-item
// state, baselines, and detected signals.
package models

import (
	"encoding/json"
	"time"
)

// Observation is a single sample of one tracked item. Median is nil when the
// source price string could not be parsed. Sales24h is the rolling 24-hour
// sales count as reported by the marketplace, not an exact per-interval count.
type Observation struct {
	Timestamp time.Time `json:"ts"`
	Median    *float64  `json:"median,omitempty"`
	Sales24h  int       `json:"sales24h"`
}

// observationJSON is the wire form of an Observation. The timestamp is kept
// as a string so that a malformed value degrades to a zero time instead of
// failing the whole history decode.
type observationJSON struct {
	TS       string   `json:"ts"`
	Median   *float64 `json:"median,omitempty"`
	Sales24h int      `json:"sales24h"`
}

func (o Observation) MarshalJSON() ([]byte, error) {
	return json.Marshal(observationJSON{
		TS:       o.Timestamp.UTC().Format(time.RFC3339),
		Median:   o.Median,
		Sales24h: o.Sales24h,
	})
}

func (o *Observation) UnmarshalJSON(data []byte) error {
	var raw observationJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ts, ok := ParseTimestamp(raw.TS)
	if !ok {
		// Zero timestamp falls outside every window and is pruned on the
		// next append.
		ts = time.Time{}
	}
	o.Timestamp = ts
	o.Median = raw.Median
	o.Sales24h = raw.Sales24h
	return nil
}

// Snapshot is the most recent observed values for an item, including the
// lowest ask which is not carried in history points.
type Snapshot struct {
	Timestamp time.Time `json:"ts"`
	Median    *float64  `json:"median,omitempty"`
	Ask       *float64  `json:"ask,omitempty"`
	Sales24h  int       `json:"sales24h"`
}

// ItemState holds everything persisted for one tracked catalog key.
type ItemState struct {
	Last       *Snapshot
	History    []Observation
	LastAlerts map[string]time.Time
}

// NewItemState returns an empty state for a never-seen item.
func NewItemState() *ItemState {
	return &ItemState{
		LastAlerts: make(map[string]time.Time),
	}
}

// Baseline is a statistical reference level derived from an item's history.
// Median or Sales is nil when no usable values existed in any window tier.
type Baseline struct {
	// Median is the robust central tendency of historical median prices.
	Median *float64
	// Sales is the mean of historical 24h sales counts.
	Sales *float64
	// Window names the tier that supplied the baseline: "7d", "3d", or "all".
	Window string
	// MedianSamples and SalesSamples count the historical points that entered
	// each series. Detectors refuse to fire below their configured minimum.
	MedianSamples int
	SalesSamples  int
	// HistoryLen is the total retained history length, all windows ignored.
	HistoryLen int
}

// HourlySalesRate converts the sales baseline into an average per-hour rate.
// Returns nil when the sales baseline is absent or zero.
func (b Baseline) HourlySalesRate() *float64 {
	if b.Sales == nil || *b.Sales == 0 {
		return nil
	}
	rate := *b.Sales / 24.0
	return &rate
}

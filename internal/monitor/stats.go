package monitor

import (
	"slices"

	"gonum.org/v1/gonum/stat"
)

// robustMedian computes the standard median: the middle value, or the average
// of the two middle values for an even-length series. Returns nil for an
// empty series. Non-numeric inputs cannot occur here; the parse layer already
// dropped them.
func robustMedian(vals []float64) *float64 {
	if len(vals) == 0 {
		return nil
	}
	sorted := slices.Clone(vals)
	slices.Sort(sorted)
	var m float64
	if n := len(sorted); n%2 == 1 {
		m = sorted[n/2]
	} else {
		m = (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return &m
}

// robustMean is the arithmetic mean, nil for an empty series.
func robustMean(vals []float64) *float64 {
	if len(vals) == 0 {
		return nil
	}
	m := stat.Mean(vals, nil)
	return &m
}

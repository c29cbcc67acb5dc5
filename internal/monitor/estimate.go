package monitor

import "math"

// EstimateNewSales approximates how many sales happened since the previous
// observation given only rolling 24h counters. The previous counter is
// linearly decayed by the elapsed fraction of a day before subtracting, which
// models entries rolling off the window. Returns nil when any input is
// unavailable; the result is never negative.
func EstimateNewSales(prevSales, currSales *int, elapsedMinutes *float64) *int {
	if prevSales == nil || currSales == nil || elapsedMinutes == nil {
		return nil
	}
	factor := math.Min(1, math.Max(0, *elapsedMinutes/1440.0))
	est := float64(*currSales) - float64(*prevSales)*(1-factor)
	n := int(math.Round(est))
	if n < 0 {
		n = 0
	}
	return &n
}

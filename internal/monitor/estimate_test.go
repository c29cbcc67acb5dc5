package monitor

import "testing"

func iptr(v int) *int { return &v }

func TestEstimateNewSales_NilInputs(t *testing.T) {
	mins := 60.0
	if EstimateNewSales(nil, iptr(10), &mins) != nil {
		t.Error("expected nil for missing previous sales")
	}
	if EstimateNewSales(iptr(10), nil, &mins) != nil {
		t.Error("expected nil for missing current sales")
	}
	if EstimateNewSales(iptr(10), iptr(10), nil) != nil {
		t.Error("expected nil for missing elapsed time")
	}
}

func TestEstimateNewSales_LinearDecay(t *testing.T) {
	// Half a day elapsed: half of the previous rolling counter is assumed to
	// have rolled off, so 100 -> 100 means ~50 new sales.
	mins := 720.0
	got := EstimateNewSales(iptr(100), iptr(100), &mins)
	if got == nil || *got != 50 {
		t.Fatalf("expected 50, got %v", got)
	}
}

func TestEstimateNewSales_FullDayClamp(t *testing.T) {
	// Beyond 24h the previous counter contributes nothing.
	mins := 3000.0
	got := EstimateNewSales(iptr(1000), iptr(30), &mins)
	if got == nil || *got != 30 {
		t.Fatalf("expected 30, got %v", got)
	}
}

func TestEstimateNewSales_NeverNegative(t *testing.T) {
	mins := 10.0
	got := EstimateNewSales(iptr(100), iptr(10), &mins)
	if got == nil || *got != 0 {
		t.Fatalf("expected clamp to 0, got %v", got)
	}
}

package models

import "fmt"

// Signal kind names. Combo and change are the only cooldown-gated kinds; the
// name doubles as the LastAlerts key.
const (
	KindPriceDiscount = "price_discount"
	KindVolumeSpike   = "volume_spike"
	KindCombo         = "combo"
	KindPump          = "pump"
	KindChange        = "change"
)

// Severity grades a price discount.
type Severity string

const (
	SeveritySoft Severity = "soft"
	SeverityDeep Severity = "deep"
)

// PumpTrigger names the short-window pattern that fired a pump signal.
type PumpTrigger string

const (
	TriggerPriceJump PumpTrigger = "price_jump"
	TriggerAskJump   PumpTrigger = "ask_jump"
	TriggerBreakout  PumpTrigger = "breakout"
	TriggerMomentum  PumpTrigger = "momentum"
)

// Signal is one detected deviation for one item. Signals are ephemeral: they
// are computed per run and only logged, never read back into detection.
type Signal interface {
	Kind() string
	Item() string
	Describe() string
}

// PriceDiscount fires when the current median sits below the long-window
// baseline by the soft or deep fraction.
type PriceDiscount struct {
	ItemName    string
	Severity    Severity
	Current     float64
	Baseline    float64
	DiscountPct float64
	Window      string
}

func (s PriceDiscount) Kind() string { return KindPriceDiscount }
func (s PriceDiscount) Item() string { return s.ItemName }
func (s PriceDiscount) Describe() string {
	return fmt.Sprintf("%s: %.2f vs %s median %.2f (-%.1f%%)",
		s.Severity, s.Current, s.Window, s.Baseline, s.DiscountPct)
}

// VolumeSpike fires when current 24h sales exceed the baseline by the
// configured multiplier.
type VolumeSpike struct {
	ItemName string
	Current  int
	Baseline float64
	Ratio    float64
}

func (s VolumeSpike) Kind() string { return KindVolumeSpike }
func (s VolumeSpike) Item() string { return s.ItemName }
func (s VolumeSpike) Describe() string {
	return fmt.Sprintf("sales 24h %d vs baseline %.1f (x%.2f)", s.Current, s.Baseline, s.Ratio)
}

// Combo fires when a price discount and a volume spike hold simultaneously
// and the combo cooldown for the item has elapsed.
type Combo struct {
	ItemName    string
	Severity    Severity
	DiscountPct float64
	Ratio       float64
}

func (s Combo) Kind() string { return KindCombo }
func (s Combo) Item() string { return s.ItemName }
func (s Combo) Describe() string {
	return fmt.Sprintf("price %s (-%.1f%%) + volume x%.2f", s.Severity, s.DiscountPct, s.Ratio)
}

// Pump is a short-window runup signal. Reference is the value the trigger
// compared against: the short-window median for jumps, the local maximum for
// breakouts, and the baseline hourly sales rate for momentum.
type Pump struct {
	ItemName  string
	Trigger   PumpTrigger
	Current   float64
	Reference float64
	Detail    string
}

func (s Pump) Kind() string { return KindPump }
func (s Pump) Item() string { return s.ItemName }
func (s Pump) Describe() string {
	if s.Detail != "" {
		return fmt.Sprintf("%s: %s", s.Trigger, s.Detail)
	}
	return fmt.Sprintf("%s: %.2f vs %.2f", s.Trigger, s.Current, s.Reference)
}

// ChangeAlert is the legacy simple threshold detector: the median moved by at
// least the configured percentage since the previous observation.
type ChangeAlert struct {
	ItemName  string
	Previous  float64
	Current   float64
	ChangePct float64
}

func (s ChangeAlert) Kind() string { return KindChange }
func (s ChangeAlert) Item() string { return s.ItemName }
func (s ChangeAlert) Describe() string {
	return fmt.Sprintf("median %.2f -> %.2f (%+.1f%%)", s.Previous, s.Current, s.ChangePct)
}

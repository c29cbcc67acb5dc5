package monitor

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/sdelkov4-collab/bot/internal/models"
)

// Config holds all detection thresholds. Values are per-run-global, never
// per-item.
type Config struct {
	RetentionDays int
	MinDailySales int

	SoftPct        float64
	DeepPct        float64
	PriceMinPoints int

	SpikeMultiplier float64
	VolumeMinPoints int

	ComboCooldown time.Duration

	ShortWindow      time.Duration
	PumpMinPoints    int
	PriceJumpPct     float64
	AskJumpPct       float64
	BreakoutPoints   int
	BreakoutExtraPct float64
	MomentumMult     float64
	ConfirmPricePct  float64

	ChangeAlertsEnabled bool
	ChangeThresholdPct  float64
	ChangeCooldown      time.Duration

	Shuffle bool
}

// DefaultConfig returns the documented default thresholds.
func DefaultConfig() Config {
	return Config{
		RetentionDays:       60,
		MinDailySales:       1,
		SoftPct:             0.90,
		DeepPct:             0.85,
		PriceMinPoints:      12,
		SpikeMultiplier:     1.5,
		VolumeMinPoints:     12,
		ComboCooldown:       6 * time.Hour,
		ShortWindow:         120 * time.Minute,
		PumpMinPoints:       4,
		PriceJumpPct:        0.08,
		AskJumpPct:          0.10,
		BreakoutPoints:      6,
		BreakoutExtraPct:    0.03,
		MomentumMult:        1.8,
		ConfirmPricePct:     0.04,
		ChangeAlertsEnabled: false,
		ChangeThresholdPct:  10,
		ChangeCooldown:      6 * time.Hour,
		Shuffle:             true,
	}
}

// Detector evaluates one observation against baselines and history.
type Detector struct {
	cfg Config
}

// NewDetector creates a detector with the given thresholds.
func NewDetector(cfg Config) *Detector {
	return &Detector{cfg: cfg}
}

// priceDiscount fires when the current median sits at or below the deep or
// soft fraction of the baseline median. Deep takes precedence; severities are
// mutually exclusive. Refuses to fire below the configured sample minimum.
func (d *Detector) priceDiscount(name string, median *float64, base models.Baseline) *models.PriceDiscount {
	if median == nil || base.Median == nil || *base.Median <= 0 {
		return nil
	}
	if base.MedianSamples < d.cfg.PriceMinPoints {
		return nil
	}

	var severity models.Severity
	switch {
	case *median <= *base.Median*d.cfg.DeepPct:
		severity = models.SeverityDeep
	case *median <= *base.Median*d.cfg.SoftPct:
		severity = models.SeveritySoft
	default:
		return nil
	}

	return &models.PriceDiscount{
		ItemName:    name,
		Severity:    severity,
		Current:     *median,
		Baseline:    *base.Median,
		DiscountPct: (1 - *median / *base.Median) * 100,
		Window:      base.Window,
	}
}

// volumeSpike fires when current 24h sales reach the baseline times the spike
// multiplier. Requires a positive sales baseline and the sample minimum.
func (d *Detector) volumeSpike(name string, sales24h int, base models.Baseline) *models.VolumeSpike {
	if base.Sales == nil || *base.Sales <= 0 {
		return nil
	}
	if base.SalesSamples < d.cfg.VolumeMinPoints {
		return nil
	}
	ratio := float64(sales24h) / *base.Sales
	if ratio < d.cfg.SpikeMultiplier {
		return nil
	}
	return &models.VolumeSpike{
		ItemName: name,
		Current:  sales24h,
		Baseline: *base.Sales,
		Ratio:    ratio,
	}
}

// combo fires when a price discount and a volume spike hold for the same
// observation, total history covers both detector minimums, and the combo
// cooldown has elapsed. Firing records the timestamp for cooldown gating.
func (d *Detector) combo(state *models.ItemState, pd *models.PriceDiscount, vs *models.VolumeSpike, base models.Baseline, now time.Time) *models.Combo {
	if pd == nil || vs == nil {
		return nil
	}
	if base.HistoryLen < max(d.cfg.PriceMinPoints, d.cfg.VolumeMinPoints) {
		return nil
	}
	if InCooldown(state, models.KindCombo, now, d.cfg.ComboCooldown) {
		return nil
	}
	MarkFired(state, models.KindCombo, now)
	return &models.Combo{
		ItemName:    pd.ItemName,
		Severity:    pd.Severity,
		DiscountPct: math.Abs(pd.DiscountPct),
		Ratio:       vs.Ratio,
	}
}

// pumpInputs carries the per-observation values the pump family needs beyond
// the short-window series.
type pumpInputs struct {
	Median         *float64
	Ask            *float64
	PrevMedian     *float64
	SoldSince      *int
	ElapsedMinutes *float64
}

// pumpSignals evaluates the short-window pump family. The sub-signals are
// independent: any subset may fire in the same run.
func (d *Detector) pumpSignals(name string, in pumpInputs, short ShortStats, base models.Baseline) []models.Signal {
	var signals []models.Signal

	shortMed := short.Median()

	// Price jump: current median over the short baseline.
	if in.Median != nil && shortMed != nil && len(short.Medians) >= d.cfg.PumpMinPoints {
		if *in.Median >= *shortMed*(1+d.cfg.PriceJumpPct) {
			signals = append(signals, models.Pump{
				ItemName:  name,
				Trigger:   models.TriggerPriceJump,
				Current:   *in.Median,
				Reference: *shortMed,
				Detail:    fmt.Sprintf("median %.2f >= short %.2f +%.0f%%", *in.Median, *shortMed, d.cfg.PriceJumpPct*100),
			})
		}
	}

	// Ask jump: lowest ask over the short baseline.
	if in.Ask != nil && shortMed != nil && len(short.Medians) >= d.cfg.PumpMinPoints {
		if *in.Ask >= *shortMed*(1+d.cfg.AskJumpPct) {
			signals = append(signals, models.Pump{
				ItemName:  name,
				Trigger:   models.TriggerAskJump,
				Current:   *in.Ask,
				Reference: *shortMed,
				Detail:    fmt.Sprintf("ask %.2f >= short %.2f +%.0f%%", *in.Ask, *shortMed, d.cfg.AskJumpPct*100),
			})
		}
	}

	// Breakout: current median over the local maximum of the last N short
	// samples; with fewer than N samples, all available are used.
	if in.Median != nil && len(short.Medians) > 0 {
		tail := short.Medians
		if len(tail) > d.cfg.BreakoutPoints {
			tail = tail[len(tail)-d.cfg.BreakoutPoints:]
		}
		localMax := floats.Max(tail)
		if *in.Median >= localMax*(1+d.cfg.BreakoutExtraPct) {
			signals = append(signals, models.Pump{
				ItemName:  name,
				Trigger:   models.TriggerBreakout,
				Current:   *in.Median,
				Reference: localMax,
				Detail:    fmt.Sprintf("median %.2f breaks %d-point max %.2f +%.0f%%", *in.Median, len(tail), localMax, d.cfg.BreakoutExtraPct*100),
			})
		}
	}

	// Momentum: sales rate since the previous observation versus the baseline
	// hourly rate, confirmed by a minimum price rise.
	baseHourly := base.HourlySalesRate()
	if in.SoldSince != nil && in.ElapsedMinutes != nil && *in.ElapsedMinutes > 0 &&
		in.Median != nil && in.PrevMedian != nil && baseHourly != nil {
		currRate := float64(*in.SoldSince) / (*in.ElapsedMinutes / 60.0)
		if currRate >= *baseHourly*d.cfg.MomentumMult &&
			*in.Median >= *in.PrevMedian*(1+d.cfg.ConfirmPricePct) {
			signals = append(signals, models.Pump{
				ItemName:  name,
				Trigger:   models.TriggerMomentum,
				Current:   currRate,
				Reference: *baseHourly,
				Detail:    fmt.Sprintf("%.1f sales/h vs baseline %.1f/h, price +%.1f%%", currRate, *baseHourly, (*in.Median / *in.PrevMedian - 1) * 100),
			})
		}
	}

	return signals
}

// changeAlert is the legacy detector: median moved by at least the threshold
// percentage since the previous observation, gated by its own cooldown.
func (d *Detector) changeAlert(state *models.ItemState, name string, median, prevMedian *float64, now time.Time) *models.ChangeAlert {
	if !d.cfg.ChangeAlertsEnabled {
		return nil
	}
	if median == nil || prevMedian == nil || *prevMedian <= 0 {
		return nil
	}
	changePct := (*median - *prevMedian) / *prevMedian * 100
	if math.Abs(changePct) < d.cfg.ChangeThresholdPct {
		return nil
	}
	if InCooldown(state, models.KindChange, now, d.cfg.ChangeCooldown) {
		return nil
	}
	MarkFired(state, models.KindChange, now)
	return &models.ChangeAlert{
		ItemName:  name,
		Previous:  *prevMedian,
		Current:   *median,
		ChangePct: changePct,
	}
}

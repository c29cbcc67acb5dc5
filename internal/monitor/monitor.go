// Package monitor implements the baseline and signal detection engine: time
// windowed statistics over per-item history, deviation detectors, and
// cooldown suppression.
package monitor

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/sdelkov4-collab/bot/internal/catalog"
	"github.com/sdelkov4-collab/bot/internal/logger"
	"github.com/sdelkov4-collab/bot/internal/models"
	"github.com/sdelkov4-collab/bot/internal/steam"
)

// Fetcher is the price source collaborator.
type Fetcher interface {
	FetchPriceOverview(ctx context.Context, name string) (*steam.PriceOverview, error)
}

// StateStore is the persistence collaborator: full-snapshot read-modify-write
// per run, plus an append-only log of fired signals.
type StateStore interface {
	LoadStates() (map[string]*models.ItemState, error)
	SaveStates(states map[string]*models.ItemState) error
	LogSignals(now time.Time, signals []models.Signal) error
}

// ItemResult is everything observed and detected for one item in one run.
type ItemResult struct {
	Name        string
	Median      *float64
	Ask         *float64
	Sales24h    int
	SoldSince   *int
	Base        models.Baseline
	ShortMedian *float64
	ShortWindow time.Duration
	Signals     []models.Signal
}

// RunResult aggregates one monitoring run for the report assembler.
type RunResult struct {
	StartedAt time.Time
	ItemCount int
	Checked   int
	Skipped   int
	Items     []ItemResult
	Notes     []string
}

// Signals flattens the per-item signals in iteration order.
func (r *RunResult) Signals() []models.Signal {
	var all []models.Signal
	for _, item := range r.Items {
		all = append(all, item.Signals...)
	}
	return all
}

// Monitor drives a full sampling run over the catalog.
type Monitor struct {
	cfg   Config
	det   *Detector
	fetch Fetcher
	store StateStore
	rng   *rand.Rand
}

// New creates a monitor wired to its collaborators.
func New(cfg Config, fetch Fetcher, store StateStore) *Monitor {
	return &Monitor{
		cfg:   cfg,
		det:   NewDetector(cfg),
		fetch: fetch,
		store: store,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run samples every catalog item once, detects signals, and persists the
// updated states in a single snapshot at the end. Per-item failures become
// notes; only a failed state load aborts the run, since it would otherwise
// wipe all history on save.
func (m *Monitor) Run(ctx context.Context, items []catalog.Item) (*RunResult, error) {
	states, err := m.store.LoadStates()
	if err != nil {
		return nil, fmt.Errorf("failed to load item states: %w", err)
	}

	if m.cfg.Shuffle {
		items = append([]catalog.Item(nil), items...)
		catalog.Shuffle(items, m.rng)
	}

	now := time.Now().UTC().Truncate(time.Second)
	result := &RunResult{StartedAt: now, ItemCount: len(items)}

	for _, it := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		overview, err := m.fetch.FetchPriceOverview(ctx, it.Name)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn("Fetch failed for %s: %v", it.Name, err)
			result.Notes = append(result.Notes, fmt.Sprintf("%s: fetch failed: %v", it.Name, err))
			continue
		}
		if !overview.Success {
			result.Notes = append(result.Notes, fmt.Sprintf("%s: success=false", it.Name))
			continue
		}

		median := models.ParsePrice(overview.MedianPrice)
		ask := models.ParsePrice(overview.LowestPrice)
		sales24h := models.ParseVolume(overview.Volume)

		if sales24h < m.cfg.MinDailySales {
			result.Skipped++
			continue
		}

		state, ok := states[it.Key]
		if !ok {
			state = models.NewItemState()
			states[it.Key] = state
		}

		item := m.ProcessItem(state, it.Name, median, ask, sales24h, now)
		result.Items = append(result.Items, item)
		result.Checked++

		if len(item.Signals) > 0 {
			logger.Info("%s: %d signal(s)", it.Name, len(item.Signals))
		}
	}

	if err := m.store.SaveStates(states); err != nil {
		// Results already computed in memory stay deliverable; the next run
		// re-samples from the previous snapshot.
		logger.Error("Failed to persist item states: %v", err)
		result.Notes = append(result.Notes, fmt.Sprintf("state persistence failed: %v", err))
	}
	if signals := result.Signals(); len(signals) > 0 {
		if err := m.store.LogSignals(now, signals); err != nil {
			logger.Warn("Failed to log signals: %v", err)
		}
	}

	return result, nil
}

// ProcessItem evaluates one observation against the item's state: baselines
// are computed from history BEFORE the new record is appended, detectors run
// against them, then the record is appended and old entries pruned.
func (m *Monitor) ProcessItem(state *models.ItemState, name string, median, ask *float64, sales24h int, now time.Time) ItemResult {
	var prevMedian *float64
	var prevSales *int
	var elapsedMinutes *float64
	if state.Last != nil {
		prevMedian = state.Last.Median
		s := state.Last.Sales24h
		prevSales = &s
		if !state.Last.Timestamp.IsZero() {
			mins := now.Sub(state.Last.Timestamp).Minutes()
			elapsedMinutes = &mins
		}
	}

	soldSince := EstimateNewSales(prevSales, &sales24h, elapsedMinutes)

	base := ComputeBaseline(state.History, now, min(m.cfg.PriceMinPoints, m.cfg.VolumeMinPoints))
	short := ShortWindowStats(state.History, now, m.cfg.ShortWindow)

	var signals []models.Signal
	pd := m.det.priceDiscount(name, median, base)
	if pd != nil {
		signals = append(signals, *pd)
	}
	vs := m.det.volumeSpike(name, sales24h, base)
	if vs != nil {
		signals = append(signals, *vs)
	}
	if combo := m.det.combo(state, pd, vs, base, now); combo != nil {
		signals = append(signals, *combo)
	}
	signals = append(signals, m.det.pumpSignals(name, pumpInputs{
		Median:         median,
		Ask:            ask,
		PrevMedian:     prevMedian,
		SoldSince:      soldSince,
		ElapsedMinutes: elapsedMinutes,
	}, short, base)...)
	if change := m.det.changeAlert(state, name, median, prevMedian, now); change != nil {
		signals = append(signals, *change)
	}

	AppendObservation(state, models.Observation{
		Timestamp: now,
		Median:    median,
		Sales24h:  sales24h,
	}, now, m.cfg.RetentionDays)
	state.Last = &models.Snapshot{
		Timestamp: now,
		Median:    median,
		Ask:       ask,
		Sales24h:  sales24h,
	}

	return ItemResult{
		Name:        name,
		Median:      median,
		Ask:         ask,
		Sales24h:    sales24h,
		SoldSince:   soldSince,
		Base:        base,
		ShortMedian: short.Median(),
		ShortWindow: m.cfg.ShortWindow,
		Signals:     signals,
	}
}

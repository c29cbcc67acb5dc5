package monitor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sdelkov4-collab/bot/internal/catalog"
	"github.com/sdelkov4-collab/bot/internal/models"
	"github.com/sdelkov4-collab/bot/internal/steam"
)

type fakeFetcher struct {
	overviews map[string]*steam.PriceOverview
	errs      map[string]error
}

func (f *fakeFetcher) FetchPriceOverview(_ context.Context, name string) (*steam.PriceOverview, error) {
	if err, ok := f.errs[name]; ok {
		return nil, err
	}
	if o, ok := f.overviews[name]; ok {
		return o, nil
	}
	return &steam.PriceOverview{Success: false}, nil
}

type fakeStore struct {
	states     map[string]*models.ItemState
	saved      bool
	saveErr    error
	loggedSigs []models.Signal
}

func newFakeStore() *fakeStore {
	return &fakeStore{states: make(map[string]*models.ItemState)}
}

func (s *fakeStore) LoadStates() (map[string]*models.ItemState, error) {
	return s.states, nil
}

func (s *fakeStore) SaveStates(states map[string]*models.ItemState) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.states = states
	s.saved = true
	return nil
}

func (s *fakeStore) LogSignals(_ time.Time, signals []models.Signal) error {
	s.loggedSigs = append(s.loggedSigs, signals...)
	return nil
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Shuffle = false
	return cfg
}

func TestRun_PerItemFailureIsNonFatal(t *testing.T) {
	fetch := &fakeFetcher{
		overviews: map[string]*steam.PriceOverview{
			"ok":   {Success: true, MedianPrice: "100 ₽", LowestPrice: "95 ₽", Volume: "5"},
			"noes": {Success: false},
		},
		errs: map[string]error{"down": errors.New("exhausted retries")},
	}
	store := newFakeStore()
	m := New(testConfig(), fetch, store)

	items := []catalog.Item{
		{Name: "down", Key: "down"},
		{Name: "noes", Key: "noes"},
		{Name: "ok", Key: "ok"},
	}
	result, err := m.Run(context.Background(), items)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Checked != 1 {
		t.Errorf("expected 1 checked item, got %d", result.Checked)
	}
	if len(result.Notes) != 2 {
		t.Fatalf("expected 2 notes, got %d: %v", len(result.Notes), result.Notes)
	}
	if !strings.Contains(result.Notes[0], "fetch failed") {
		t.Errorf("missing fetch failure note: %q", result.Notes[0])
	}
	if !strings.Contains(result.Notes[1], "success=false") {
		t.Errorf("missing success=false note: %q", result.Notes[1])
	}

	// Failed items must not gain state; the successful one must.
	if _, ok := store.states["down"]; ok {
		t.Error("failed item gained state")
	}
	if _, ok := store.states["noes"]; ok {
		t.Error("success=false item gained state")
	}
	st, ok := store.states["ok"]
	if !ok {
		t.Fatal("successful item missing state")
	}
	if len(st.History) != 1 {
		t.Errorf("expected 1 history entry, got %d", len(st.History))
	}
	if st.Last == nil || st.Last.Median == nil || *st.Last.Median != 100 {
		t.Errorf("unexpected last snapshot: %+v", st.Last)
	}
	if !store.saved {
		t.Error("states were not persisted")
	}
}

func TestRun_MinSalesFilter(t *testing.T) {
	cfg := testConfig()
	cfg.MinDailySales = 10
	fetch := &fakeFetcher{
		overviews: map[string]*steam.PriceOverview{
			"quiet": {Success: true, MedianPrice: "100 ₽", Volume: "3"},
		},
	}
	store := newFakeStore()
	m := New(cfg, fetch, store)

	result, err := m.Run(context.Background(), []catalog.Item{{Name: "quiet", Key: "quiet"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Skipped != 1 || result.Checked != 0 {
		t.Errorf("expected the item skipped, got checked=%d skipped=%d", result.Checked, result.Skipped)
	}
	if _, ok := store.states["quiet"]; ok {
		t.Error("below-threshold item must not gain state")
	}
}

func TestRun_SaveFailureStillReturnsResults(t *testing.T) {
	fetch := &fakeFetcher{
		overviews: map[string]*steam.PriceOverview{
			"ok": {Success: true, MedianPrice: "100 ₽", Volume: "5"},
		},
	}
	store := newFakeStore()
	store.saveErr = errors.New("disk full")
	m := New(testConfig(), fetch, store)

	result, err := m.Run(context.Background(), []catalog.Item{{Name: "ok", Key: "ok"}})
	if err != nil {
		t.Fatalf("Run must not fail on persistence errors: %v", err)
	}
	if result.Checked != 1 {
		t.Errorf("expected results despite save failure, got %d checked", result.Checked)
	}
	found := false
	for _, n := range result.Notes {
		if strings.Contains(n, "persistence failed") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a persistence failure note, got %v", result.Notes)
	}
}

func TestRun_LogsFiredSignals(t *testing.T) {
	store := newFakeStore()
	st := models.NewItemState()
	st.History = dailyHistory(15, 7*24*time.Hour, 100, 10)
	store.states["hot"] = st

	fetch := &fakeFetcher{
		overviews: map[string]*steam.PriceOverview{
			"hot": {Success: true, MedianPrice: "84 ₽", Volume: "20"},
		},
	}
	m := New(testConfig(), fetch, store)

	result, err := m.Run(context.Background(), []catalog.Item{{Name: "hot", Key: "hot"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Items) != 1 {
		t.Fatalf("expected 1 item result, got %d", len(result.Items))
	}
	if len(store.loggedSigs) == 0 {
		t.Error("fired signals were not logged")
	}
	kinds := map[string]bool{}
	for _, s := range store.loggedSigs {
		kinds[s.Kind()] = true
	}
	if !kinds[models.KindPriceDiscount] || !kinds[models.KindVolumeSpike] || !kinds[models.KindCombo] {
		t.Errorf("expected discount+spike+combo, got %v", kinds)
	}
}

func TestRun_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := New(testConfig(), &fakeFetcher{}, newFakeStore())
	if _, err := m.Run(ctx, []catalog.Item{{Name: "x", Key: "x"}}); err == nil {
		t.Error("expected error from cancelled context")
	}
}

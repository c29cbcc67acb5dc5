package storage

import (
	"testing"
	"time"

	"github.com/sdelkov4-collab/bot/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func fptr(v float64) *float64 { return &v }

func testState(now time.Time) *models.ItemState {
	state := models.NewItemState()
	state.Last = &models.Snapshot{
		Timestamp: now,
		Median:    fptr(12.34),
		Ask:       fptr(13.00),
		Sales24h:  42,
	}
	state.History = []models.Observation{
		{Timestamp: now.Add(-2 * time.Hour), Median: fptr(12.00), Sales24h: 40},
		{Timestamp: now, Median: fptr(12.34), Sales24h: 42},
	}
	state.LastAlerts[models.KindCombo] = now.Add(-time.Hour)
	return state
}

func TestStore_SaveAndLoadStates(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().UTC().Truncate(time.Second)

	states := map[string]*models.ItemState{
		"Sticker | Vitality | Austin 2025": testState(now),
	}
	if err := s.SaveStates(states); err != nil {
		t.Fatalf("SaveStates: %v", err)
	}

	loaded, err := s.LoadStates()
	if err != nil {
		t.Fatalf("LoadStates: %v", err)
	}
	got, ok := loaded["Sticker | Vitality | Austin 2025"]
	if !ok {
		t.Fatal("expected item state after round trip")
	}
	if got.Last == nil || got.Last.Median == nil || *got.Last.Median != 12.34 {
		t.Errorf("last snapshot not preserved: %+v", got.Last)
	}
	if got.Last.Sales24h != 42 {
		t.Errorf("got last sales %d, want 42", got.Last.Sales24h)
	}
	if len(got.History) != 2 {
		t.Fatalf("got %d history points, want 2", len(got.History))
	}
	if !got.History[1].Timestamp.Equal(now) {
		t.Errorf("got history timestamp %v, want %v", got.History[1].Timestamp, now)
	}
	fired, ok := got.LastAlerts[models.KindCombo]
	if !ok {
		t.Fatal("expected combo cooldown entry after round trip")
	}
	if !fired.Equal(now.Add(-time.Hour)) {
		t.Errorf("got cooldown time %v, want %v", fired, now.Add(-time.Hour))
	}
}

func TestStore_SaveStates_ReplacesSnapshot(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().UTC().Truncate(time.Second)

	first := testState(now)
	if err := s.SaveStates(map[string]*models.ItemState{"item": first}); err != nil {
		t.Fatalf("SaveStates: %v", err)
	}

	second := testState(now.Add(2 * time.Hour))
	second.History = append(second.History, models.Observation{
		Timestamp: now.Add(2 * time.Hour), Median: fptr(13.00), Sales24h: 50,
	})
	if err := s.SaveStates(map[string]*models.ItemState{"item": second}); err != nil {
		t.Fatalf("SaveStates (second): %v", err)
	}

	loaded, err := s.LoadStates()
	if err != nil {
		t.Fatalf("LoadStates: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("got %d items, want 1", len(loaded))
	}
	if got := len(loaded["item"].History); got != 3 {
		t.Errorf("got %d history points, want 3", got)
	}
}

func TestStore_LoadStates_Empty(t *testing.T) {
	s := newTestStore(t)
	loaded, err := s.LoadStates()
	if err != nil {
		t.Fatalf("LoadStates: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("got %d states from empty store, want 0", len(loaded))
	}
}

func TestStore_LoadStates_CorruptColumnsDegrade(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.db.Exec(`
		INSERT INTO items (key, last_json, history_json, alerts_json, updated_at)
		VALUES ('broken', 'not json', 'not json', 'not json', 0)`,
	); err != nil {
		t.Fatalf("seed corrupt row: %v", err)
	}

	loaded, err := s.LoadStates()
	if err != nil {
		t.Fatalf("LoadStates: %v", err)
	}
	got, ok := loaded["broken"]
	if !ok {
		t.Fatal("corrupt row should still load")
	}
	if got.Last != nil {
		t.Error("corrupt last_json should decode to nil snapshot")
	}
	if len(got.History) != 0 {
		t.Errorf("corrupt history should decode empty, got %d points", len(got.History))
	}
	if got.LastAlerts == nil {
		t.Error("corrupt alerts should decode to empty map, not nil")
	}
}

func TestStore_LogSignals(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().UTC()

	sigs := []models.Signal{
		models.PriceDiscount{ItemName: "item-a", Severity: models.SeverityDeep, Current: 84, Baseline: 100, DiscountPct: 16, Window: "7d"},
		models.VolumeSpike{ItemName: "item-b", Current: 60, Baseline: 30, Ratio: 2},
	}
	if err := s.LogSignals(now, sigs); err != nil {
		t.Fatalf("LogSignals: %v", err)
	}

	records, err := s.RecentSignals(10)
	if err != nil {
		t.Fatalf("RecentSignals: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d signal rows, want 2", len(records))
	}
	kinds := map[string]bool{}
	for _, r := range records {
		kinds[r.Kind] = true
		if r.Detail == "" {
			t.Errorf("signal %s has empty detail", r.ID)
		}
	}
	if !kinds[models.KindPriceDiscount] || !kinds[models.KindVolumeSpike] {
		t.Errorf("unexpected kinds logged: %v", kinds)
	}
}

func TestStore_LogSignals_EmptyIsNoop(t *testing.T) {
	s := newTestStore(t)
	if err := s.LogSignals(time.Now(), nil); err != nil {
		t.Fatalf("LogSignals(nil): %v", err)
	}
}

func TestStore_PruneSignals(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().UTC()

	old := []models.Signal{models.VolumeSpike{ItemName: "old", Current: 10, Baseline: 5, Ratio: 2}}
	fresh := []models.Signal{models.VolumeSpike{ItemName: "fresh", Current: 10, Baseline: 5, Ratio: 2}}
	if err := s.LogSignals(now.Add(-72*time.Hour), old); err != nil {
		t.Fatalf("LogSignals (old): %v", err)
	}
	if err := s.LogSignals(now, fresh); err != nil {
		t.Fatalf("LogSignals (fresh): %v", err)
	}

	if err := s.PruneSignals(now.Add(-24 * time.Hour)); err != nil {
		t.Fatalf("PruneSignals: %v", err)
	}
	records, err := s.RecentSignals(10)
	if err != nil {
		t.Fatalf("RecentSignals: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d signal rows after prune, want 1", len(records))
	}
	if records[0].ItemKey != "fresh" {
		t.Errorf("got surviving item %q, want %q", records[0].ItemKey, "fresh")
	}
}

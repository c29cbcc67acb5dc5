// Package storage provides SQLite-backed persistence for item states and
// fired signals.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/sdelkov4-collab/bot/internal/models"
)

// Store wraps a SQLite database for all persistence operations. Item states
// are read and written as a full snapshot once per run.
type Store struct {
	db *sql.DB
}

// New opens or creates the SQLite database at dbPath.
// An empty dbPath defaults to $TMPDIR/sticker-monitor/state.db.
func New(dbPath string) (*Store, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "sticker-monitor", "state.db")
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS items (
			key          TEXT PRIMARY KEY,
			last_json    TEXT,
			history_json TEXT NOT NULL DEFAULT '[]',
			alerts_json  TEXT NOT NULL DEFAULT '{}',
			updated_at   INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS signals (
			id       TEXT PRIMARY KEY,
			item_key TEXT NOT NULL,
			kind     TEXT NOT NULL,
			detail   TEXT NOT NULL,
			fired_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_fired_at ON signals(fired_at)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_kind ON signals(kind)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// LoadStates reads all persisted item states. Rows with an undecodable
// history or alert column degrade to an empty field instead of failing the
// load: a lost history window is recoverable by re-sampling, a failed run
// is not.
func (s *Store) LoadStates() (map[string]*models.ItemState, error) {
	rows, err := s.db.Query(`SELECT key, last_json, history_json, alerts_json FROM items`)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	states := make(map[string]*models.ItemState)
	for rows.Next() {
		var key string
		var lastJSON sql.NullString
		var historyJSON, alertsJSON string
		if err := rows.Scan(&key, &lastJSON, &historyJSON, &alertsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}

		state := models.NewItemState()
		if lastJSON.Valid && lastJSON.String != "" {
			var snap models.Snapshot
			if err := json.Unmarshal([]byte(lastJSON.String), &snap); err == nil {
				state.Last = &snap
			}
		}
		// Observation decoding is itself lenient: malformed timestamps inside
		// the array become zero times, dropped on the next append.
		if err := json.Unmarshal([]byte(historyJSON), &state.History); err != nil {
			state.History = nil
		}
		if err := json.Unmarshal([]byte(alertsJSON), &state.LastAlerts); err != nil || state.LastAlerts == nil {
			state.LastAlerts = make(map[string]time.Time)
		}
		states[key] = state
	}
	return states, rows.Err()
}

// SaveStates writes the full snapshot of all item states in one transaction.
func (s *Store) SaveStates(states map[string]*models.ItemState) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now()
	for key, state := range states {
		var lastJSON []byte
		if state.Last != nil {
			if lastJSON, err = json.Marshal(state.Last); err != nil {
				return fmt.Errorf("failed to marshal snapshot for %s: %w", key, err)
			}
		}
		historyJSON, err := json.Marshal(state.History)
		if err != nil {
			return fmt.Errorf("failed to marshal history for %s: %w", key, err)
		}
		alertsJSON, err := json.Marshal(state.LastAlerts)
		if err != nil {
			return fmt.Errorf("failed to marshal alerts for %s: %w", key, err)
		}

		if _, err := tx.Exec(`
			INSERT OR REPLACE INTO items (key, last_json, history_json, alerts_json, updated_at)
			VALUES (?,?,?,?,?)`,
			key, nullableString(lastJSON), string(historyJSON), string(alertsJSON), now.UnixNano(),
		); err != nil {
			return fmt.Errorf("failed to save state for %s: %w", key, err)
		}
	}

	return tx.Commit()
}

// LogSignals appends fired signals to the signal log.
func (s *Store) LogSignals(now time.Time, signals []models.Signal) error {
	if len(signals) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, sig := range signals {
		if _, err := tx.Exec(`
			INSERT INTO signals (id, item_key, kind, detail, fired_at)
			VALUES (?,?,?,?,?)`,
			uuid.New().String(), sig.Item(), sig.Kind(), sig.Describe(), now.UnixNano(),
		); err != nil {
			return fmt.Errorf("failed to insert signal: %w", err)
		}
	}
	return tx.Commit()
}

// SignalRecord is one row of the signal log.
type SignalRecord struct {
	ID      string
	ItemKey string
	Kind    string
	Detail  string
	FiredAt time.Time
}

// RecentSignals returns the newest signal rows, newest first.
func (s *Store) RecentSignals(limit int) ([]SignalRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, item_key, kind, detail, fired_at
		FROM signals ORDER BY fired_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query signals: %w", err)
	}
	defer rows.Close()

	var records []SignalRecord
	for rows.Next() {
		var r SignalRecord
		var firedAtNano int64
		if err := rows.Scan(&r.ID, &r.ItemKey, &r.Kind, &r.Detail, &firedAtNano); err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		r.FiredAt = time.Unix(0, firedAtNano)
		records = append(records, r)
	}
	return records, rows.Err()
}

// PruneSignals deletes signal rows older than the cutoff.
func (s *Store) PruneSignals(cutoff time.Time) error {
	if _, err := s.db.Exec(`DELETE FROM signals WHERE fired_at < ?`, cutoff.UnixNano()); err != nil {
		return fmt.Errorf("failed to prune signals: %w", err)
	}
	return nil
}

func nullableString(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides rate snapshot, outcome log and sequence ledger persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/caribefreight/regina-gateway/internal/rates"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist.
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS rate_records (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			pol            TEXT NOT NULL,
			pod            TEXT NOT NULL,
			cost           TEXT NOT NULL,
			free_days_pol  TEXT,
			free_days_pod  TEXT,
			shipping_line  TEXT,
			validity       TEXT,
			container_type TEXT NOT NULL,
			empty_pickup   TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_rates_pol ON rate_records(pol);

		CREATE TABLE IF NOT EXISTS outcome_log (
			id             TEXT PRIMARY KEY,
			request_id     TEXT NOT NULL,
			correspondent  TEXT NOT NULL,
			kind           TEXT NOT NULL,
			recorded_at    TEXT NOT NULL,
			pol            TEXT,
			pod            TEXT,
			cost           TEXT,
			free_days_pol  TEXT,
			free_days_pod  TEXT,
			shipping_line  TEXT,
			validity       TEXT,
			container_type TEXT,
			empty_pickup   TEXT,
			commodity      TEXT,

			CHECK (kind IN ('CompleteRequest', 'PendingRequest'))
		);

		CREATE INDEX IF NOT EXISTS idx_outcomes_recorded ON outcome_log(recorded_at DESC);
		CREATE INDEX IF NOT EXISTS idx_outcomes_correspondent ON outcome_log(correspondent);

		CREATE TABLE IF NOT EXISTS sequence_ledger (
			request_id  TEXT PRIMARY KEY,
			kind        TEXT NOT NULL,
			recorded_at TEXT NOT NULL
		);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// ReadRates returns the full rate dataset snapshot.
func (s *SQLiteStore) ReadRates(ctx context.Context) ([]rates.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT pol, pod, cost, free_days_pol, free_days_pod,
		       shipping_line, validity, container_type, empty_pickup
		FROM rate_records ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("reading rates: %w", err)
	}
	defer rows.Close()

	var out []rates.Record
	for rows.Next() {
		var r rates.Record
		var fdo, fdd, line, validity, pickup sql.NullString
		if err := rows.Scan(&r.POL, &r.POD, &r.Cost, &fdo, &fdd, &line, &validity, &r.ContainerType, &pickup); err != nil {
			return nil, fmt.Errorf("scanning rate record: %w", err)
		}
		r.FreeDaysPOL = fdo.String
		r.FreeDaysPOD = fdd.String
		r.ShippingLine = line.String
		r.Validity = validity.String
		r.EmptyPickup = pickup.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// ReplaceRates swaps the dataset snapshot wholesale inside a transaction.
func (s *SQLiteStore) ReplaceRates(ctx context.Context, records []rates.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM rate_records`); err != nil {
		return fmt.Errorf("clearing rates: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO rate_records (pol, pod, cost, free_days_pol, free_days_pod,
			shipping_line, validity, container_type, empty_pickup)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.POL, r.POD, r.Cost, r.FreeDaysPOL,
			r.FreeDaysPOD, r.ShippingLine, r.Validity, r.ContainerType, r.EmptyPickup); err != nil {
			return fmt.Errorf("inserting rate record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing rates: %w", err)
	}
	s.logger.Info("rate snapshot replaced", "records", len(records))
	return nil
}

// AppendOutcome appends one row to the outcome log, assigning a row id when
// the caller did not.
func (s *SQLiteStore) AppendOutcome(ctx context.Context, o *Outcome) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO outcome_log (id, request_id, correspondent, kind, recorded_at,
			pol, pod, cost, free_days_pol, free_days_pod, shipping_line,
			validity, container_type, empty_pickup, commodity)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.RequestID, o.Correspondent, o.Kind, o.RecordedAt.Format(time.RFC3339),
		o.POL, o.POD, o.Cost, o.FreeDaysPOL, o.FreeDaysPOD, o.ShippingLine,
		o.Validity, o.ContainerType, o.EmptyPickup, o.Commodity)
	if err != nil {
		return fmt.Errorf("appending outcome: %w", err)
	}
	return nil
}

// ListOutcomes returns the most recent outcome rows, newest first.
func (s *SQLiteStore) ListOutcomes(ctx context.Context, limit int) ([]*Outcome, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, request_id, correspondent, kind, recorded_at,
		       pol, pod, cost, free_days_pol, free_days_pod, shipping_line,
		       validity, container_type, empty_pickup, commodity
		FROM outcome_log ORDER BY recorded_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing outcomes: %w", err)
	}
	defer rows.Close()

	var out []*Outcome
	for rows.Next() {
		var o Outcome
		var recordedAt string
		var fields [10]sql.NullString
		if err := rows.Scan(&o.ID, &o.RequestID, &o.Correspondent, &o.Kind, &recordedAt,
			&fields[0], &fields[1], &fields[2], &fields[3], &fields[4],
			&fields[5], &fields[6], &fields[7], &fields[8], &fields[9]); err != nil {
			return nil, fmt.Errorf("scanning outcome: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, recordedAt); err == nil {
			o.RecordedAt = t
		}
		o.POL = fields[0].String
		o.POD = fields[1].String
		o.Cost = fields[2].String
		o.FreeDaysPOL = fields[3].String
		o.FreeDaysPOD = fields[4].String
		o.ShippingLine = fields[5].String
		o.Validity = fields[6].String
		o.ContainerType = fields[7].String
		o.EmptyPickup = fields[8].String
		o.Commodity = fields[9].String
		out = append(out, &o)
	}
	return out, rows.Err()
}

// AppendSequenceToken reserves a request id in the sequence ledger.
func (s *SQLiteStore) AppendSequenceToken(ctx context.Context, e *SequenceEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sequence_ledger (request_id, kind, recorded_at)
		VALUES (?, ?, ?)`,
		e.RequestID, e.Kind, e.RecordedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("appending sequence token: %w", err)
	}
	return nil
}

// ReadSequenceTokens returns every request id ever reserved, oldest first.
func (s *SQLiteStore) ReadSequenceTokens(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT request_id FROM sequence_ledger ORDER BY recorded_at`)
	if err != nil {
		return nil, fmt.Errorf("reading sequence tokens: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning sequence token: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

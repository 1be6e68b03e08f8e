package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/levenlabs/go-lflag"
	"github.com/powerroof/powerroof/pkg/types"

	_ "modernc.org/sqlite"
)

// SQLiteProvider implements Database on an embedded SQLite file. It is the
// single-node alternative to the hosted Firestore table.
type SQLiteProvider struct {
	path string
	db   *sql.DB
}

func configuredSQLite() *SQLiteProvider {
	path := lflag.String("sqlite-path", "data/powerroof.db", "Path of the SQLite database holding the price history")

	s := &SQLiteProvider{}

	lflag.Do(func() {
		s.path = *path
	})

	return s
}

// NewSQLiteProvider opens (and migrates) the database at path. Use
// ":memory:" for an ephemeral database.
func NewSQLiteProvider(ctx context.Context, path string) (*SQLiteProvider, error) {
	s := &SQLiteProvider{path: path}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if err := s.Init(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks if the provider is properly configured.
func (s *SQLiteProvider) Validate() error {
	if s.path == "" {
		return errors.New("sqlite-path is required")
	}
	return nil
}

// Init opens the database and creates the price table.
func (s *SQLiteProvider) Init(ctx context.Context) error {
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite (path=%s): %w", s.path, err)
	}
	// a single connection keeps :memory: databases shared and serializes writes
	db.SetMaxOpenConns(1)

	_, err = db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS smp_history (
		month TEXT PRIMARY KEY,
		price REAL NOT NULL,
		source TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT,
		version INTEGER NOT NULL
	);`)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to migrate sqlite: %w", err)
	}
	s.db = db
	return nil
}

// Close closes the database handle.
func (s *SQLiteProvider) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanObservation(row rowScanner) (types.PriceObservation, error) {
	var (
		o         types.PriceObservation
		source    string
		createdAt string
		updatedAt sql.NullString
	)
	if err := row.Scan(&o.Month, &o.Price, &source, &createdAt, &updatedAt); err != nil {
		return types.PriceObservation{}, err
	}
	o.Source = types.PriceSource(source)
	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return types.PriceObservation{}, fmt.Errorf("%w: bad created_at for %s: %w", ErrCorruptLog, o.Month, err)
	}
	o.CreatedAt = ts
	if updatedAt.Valid && updatedAt.String != "" {
		ts, err := time.Parse(time.RFC3339Nano, updatedAt.String)
		if err != nil {
			return types.PriceObservation{}, fmt.Errorf("%w: bad updated_at for %s: %w", ErrCorruptLog, o.Month, err)
		}
		o.UpdatedAt = ts
	}
	return o, nil
}

// GetPrice retrieves a single month.
func (s *SQLiteProvider) GetPrice(ctx context.Context, month string) (types.PriceObservation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT month, price, source, created_at, updated_at FROM smp_history WHERE month = ?`, month)
	o, err := scanObservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.PriceObservation{}, ErrPriceNotFound
	} else if err != nil {
		return types.PriceObservation{}, fmt.Errorf("failed to query price: %w", err)
	}
	return o, nil
}

// GetPriceHistory retrieves the full log, newest first.
func (s *SQLiteProvider) GetPriceHistory(ctx context.Context) ([]types.PriceObservation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT month, price, source, created_at, updated_at FROM smp_history ORDER BY month DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query price history: %w", err)
	}
	defer rows.Close()

	var obs []types.PriceObservation
	for rows.Next() {
		o, err := scanObservation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan price: %w", err)
		}
		obs = append(obs, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price history: %w", err)
	}
	return obs, nil
}

// UpsertPrice inserts the observation or overwrites the row for its month.
func (s *SQLiteProvider) UpsertPrice(ctx context.Context, obs types.PriceObservation) error {
	var updatedAt any
	if !obs.UpdatedAt.IsZero() {
		updatedAt = obs.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO smp_history (month, price, source, created_at, updated_at, version)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(month) DO UPDATE SET
			price = excluded.price,
			source = excluded.source,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			version = excluded.version
	`,
		obs.Month,
		obs.Price,
		string(obs.Source),
		obs.CreatedAt.UTC().Format(time.RFC3339Nano),
		updatedAt,
		types.CurrentPriceObservationVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert price: %w", err)
	}
	return nil
}

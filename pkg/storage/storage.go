package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/levenlabs/go-lflag"
	"github.com/powerroof/powerroof/pkg/types"
)

var (
	ErrPriceNotFound = errors.New("price not found")
	ErrCorruptLog    = errors.New("price history log is corrupt")
)

// Database defines the interface for persisting the monthly wholesale price
// log. Implementations are not required to serialize concurrent writers;
// callers hold their own lock around read-modify-write sequences.
type Database interface {
	// GetPrice returns the observation for a single month or
	// ErrPriceNotFound.
	GetPrice(ctx context.Context, month string) (types.PriceObservation, error)
	// GetPriceHistory returns every observation sorted by month, newest
	// first.
	GetPriceHistory(ctx context.Context) ([]types.PriceObservation, error)
	// UpsertPrice inserts or replaces the observation keyed by its month.
	UpsertPrice(ctx context.Context, obs types.PriceObservation) error

	// Lifecycle
	Close() error
}

type initializer interface {
	Validate() error
	Init(ctx context.Context) error
}

// Configured sets up the Storage provider based on flags.
func Configured() Database {
	provider := lflag.String("storage-provider", "file", "Storage provider to use (available: file, firestore, sqlite)")

	var p struct{ Database }

	file := configuredFile()
	fs := configuredFirestore()
	sq := configuredSQLite()

	lflag.Do(func() {
		var db interface {
			Database
			initializer
		}
		switch *provider {
		case "file":
			db = file
		case "firestore":
			db = fs
		case "sqlite":
			db = sq
		default:
			panic(fmt.Sprintf("unknown storage provider: %s", *provider))
		}
		if err := db.Validate(); err != nil {
			panic(fmt.Sprintf("%s validation failed: %v", *provider, err))
		}
		if err := db.Init(context.Background()); err != nil {
			panic(fmt.Sprintf("%s init failed: %v", *provider, err))
		}
		p.Database = db
	})

	return &p
}

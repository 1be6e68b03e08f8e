// Package prices keeps the monthly wholesale (SMP) price log and summarizes
// it for the modeling engine.
package prices

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/powerroof/powerroof/pkg/log"
	"github.com/powerroof/powerroof/pkg/metrics"
	"github.com/powerroof/powerroof/pkg/storage"
	"github.com/powerroof/powerroof/pkg/types"
)

// seedSeries is written on first use when the log is empty.
var seedSeries = []struct {
	month string
	price float64
}{
	{"2025-01", 0.2080},
	{"2025-02", 0.1950},
	{"2025-03", 0.2120},
	{"2025-04", 0.2200},
	{"2025-05", 0.2310},
	{"2025-06", 0.2420},
	{"2025-07", 0.2350},
	{"2025-08", 0.2280},
	{"2025-09", 0.2190},
	{"2025-10", 0.2100},
	{"2025-11", 0.2050},
	{"2025-12", 0.2000},
	{"2026-01", 0.2140},
	{"2026-02", 0.2180},
}

// History is the price history store. Writers are serialized so two upserts
// of the same month resolve as last-writer-wins.
type History struct {
	db  storage.Database
	now func() time.Time

	mu sync.Mutex
}

// NewHistory wraps a storage backend.
func NewHistory(db storage.Database) *History {
	return &History{
		db:  db,
		now: time.Now,
	}
}

// Init writes the default estimated series when the backend holds nothing.
// It is safe to call on every start.
func (h *History) Init(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	existing, err := h.db.GetPriceHistory(ctx)
	if err != nil {
		return fmt.Errorf("failed to read price history: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	now := h.now().UTC()
	for _, s := range seedSeries {
		obs := types.PriceObservation{
			Month:     s.month,
			Price:     s.price,
			Source:    types.PriceSourceEstimated,
			CreatedAt: now,
		}
		if err := h.db.UpsertPrice(ctx, obs); err != nil {
			return fmt.Errorf("failed to seed %s: %w", s.month, err)
		}
	}
	log.Ctx(ctx).InfoContext(ctx, "seeded price history", slog.Int("months", len(seedSeries)))
	return nil
}

// Upsert validates and records the price for month. An existing month keeps
// its creation time and gains an update time. Nothing is written when
// validation fails.
func (h *History) Upsert(ctx context.Context, month string, price float64, source types.PriceSource) (types.PriceObservation, error) {
	obs, err := h.upsert(ctx, month, price, source)
	metrics.ObservePriceUpsert(err)
	return obs, err
}

func (h *History) upsert(ctx context.Context, month string, price float64, source types.PriceSource) (types.PriceObservation, error) {
	obs := types.PriceObservation{
		Month:  month,
		Price:  price,
		Source: source,
	}
	if err := obs.Validate(); err != nil {
		return types.PriceObservation{}, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now().UTC()
	prev, err := h.db.GetPrice(ctx, month)
	switch {
	case err == nil:
		obs.CreatedAt = prev.CreatedAt
		obs.UpdatedAt = now
		log.Ctx(ctx).InfoContext(
			ctx,
			"updating price",
			slog.String("month", month),
			slog.Float64("old", prev.Price),
			slog.Float64("new", price),
		)
	case errors.Is(err, storage.ErrPriceNotFound):
		obs.CreatedAt = now
		log.Ctx(ctx).InfoContext(ctx, "adding price", slog.String("month", month), slog.Float64("price", price))
	default:
		return types.PriceObservation{}, fmt.Errorf("failed to read existing price: %w", err)
	}

	if err := h.db.UpsertPrice(ctx, obs); err != nil {
		return types.PriceObservation{}, fmt.Errorf("failed to save price: %w", err)
	}
	return obs, nil
}

// All returns every observation, newest first.
func (h *History) All(ctx context.Context) ([]types.PriceObservation, error) {
	obs, err := h.db.GetPriceHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read price history: %w", err)
	}
	sortDescending(obs)
	return obs, nil
}

// Window returns the n most recent observations, or all of them when fewer
// exist. A non-positive n returns nothing.
func (h *History) Window(ctx context.Context, n int) ([]types.PriceObservation, error) {
	if n <= 0 {
		return []types.PriceObservation{}, nil
	}
	obs, err := h.All(ctx)
	if err != nil {
		return nil, err
	}
	if len(obs) > n {
		obs = obs[:n]
	}
	return obs, nil
}

// Statistics summarizes the most recent window. It logs a warning when the
// log is empty and the fallback values are returned.
func (h *History) Statistics(ctx context.Context, window int) (types.PriceStatistics, error) {
	obs, err := h.All(ctx)
	if err != nil {
		return types.PriceStatistics{}, err
	}
	stats := Statistics(obs, window)
	if stats.Fallback {
		metrics.IncStatisticsFallback()
		log.Ctx(ctx).WarnContext(
			ctx,
			"price history empty, using fallback statistics",
			slog.Float64("average", stats.Average),
		)
	}
	return stats, nil
}

package prices

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/powerroof/powerroof/pkg/storage"
	"github.com/powerroof/powerroof/pkg/storage/storagemock"
	"github.com/powerroof/powerroof/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newFileHistory(t *testing.T) *History {
	t.Helper()
	db := storage.NewFileProvider(filepath.Join(t.TempDir(), "smp_history.json"))
	require.NoError(t, db.Init(context.Background()))
	return NewHistory(db)
}

func TestHistoryInit(t *testing.T) {
	ctx := context.Background()

	t.Run("seeds cold start", func(t *testing.T) {
		h := newFileHistory(t)
		require.NoError(t, h.Init(ctx))

		all, err := h.All(ctx)
		require.NoError(t, err)
		require.Len(t, all, 14)
		assert.Equal(t, "2026-02", all[0].Month)
		assert.Equal(t, 0.2180, all[0].Price)
		assert.Equal(t, "2025-01", all[13].Month)
		for _, o := range all {
			assert.Equal(t, types.PriceSourceEstimated, o.Source)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		h := newFileHistory(t)
		require.NoError(t, h.Init(ctx))
		_, err := h.Upsert(ctx, "2026-03", 0.2210, types.PriceSourcePublished)
		require.NoError(t, err)
		require.NoError(t, h.Init(ctx))

		all, err := h.All(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 15)
	})

	t.Run("backend error", func(t *testing.T) {
		db := &storagemock.MockDatabase{}
		db.On("GetPriceHistory", mock.Anything).Return(nil, errors.New("boom"))
		assert.Error(t, NewHistory(db).Init(ctx))
	})
}

func TestHistoryUpsert(t *testing.T) {
	ctx := context.Background()

	t.Run("insert then overwrite", func(t *testing.T) {
		h := newFileHistory(t)
		t1 := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
		h.now = func() time.Time { return t1 }

		obs, err := h.Upsert(ctx, "2026-03", 0.2210, types.PriceSourcePublished)
		require.NoError(t, err)
		assert.True(t, obs.CreatedAt.Equal(t1))
		assert.True(t, obs.UpdatedAt.IsZero())

		t2 := t1.Add(48 * time.Hour)
		h.now = func() time.Time { return t2 }
		obs, err = h.Upsert(ctx, "2026-03", 0.2250, types.PriceSourcePublished)
		require.NoError(t, err)
		assert.True(t, obs.CreatedAt.Equal(t1))
		assert.True(t, obs.UpdatedAt.Equal(t2))

		all, err := h.All(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, 0.2250, all[0].Price)
	})

	t.Run("rejects invalid without writing", func(t *testing.T) {
		db := &storagemock.MockDatabase{}
		h := NewHistory(db)

		_, err := h.Upsert(ctx, "2026-13", 0.22, types.PriceSourcePublished)
		var verr *types.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "month", verr.Field)

		_, err = h.Upsert(ctx, "2026-03", 0.95, types.PriceSourcePublished)
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "price", verr.Field)

		db.AssertNotCalled(t, "GetPrice", mock.Anything, mock.Anything)
		db.AssertNotCalled(t, "UpsertPrice", mock.Anything, mock.Anything)
	})

	t.Run("read failure", func(t *testing.T) {
		db := &storagemock.MockDatabase{}
		db.On("GetPrice", mock.Anything, "2026-03").Return(types.PriceObservation{}, errors.New("unavailable"))
		_, err := NewHistory(db).Upsert(ctx, "2026-03", 0.22, types.PriceSourcePublished)
		assert.ErrorContains(t, err, "unavailable")
		db.AssertNotCalled(t, "UpsertPrice", mock.Anything, mock.Anything)
	})

	t.Run("concurrent writers", func(t *testing.T) {
		h := newFileHistory(t)
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := h.Upsert(ctx, "2026-03", 0.20+float64(i)/100, types.PriceSourceEstimated)
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		all, err := h.All(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.False(t, all[0].CreatedAt.IsZero())
	})
}

func TestHistoryWindow(t *testing.T) {
	ctx := context.Background()
	h := newFileHistory(t)
	require.NoError(t, h.Init(ctx))

	got, err := h.Window(ctx, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"2026-02", "2026-01", "2025-12"}, []string{got[0].Month, got[1].Month, got[2].Month})

	got, err = h.Window(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, got, 14)

	got, err = h.Window(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = h.Window(ctx, -1)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestHistoryStatistics(t *testing.T) {
	ctx := context.Background()

	t.Run("seeded", func(t *testing.T) {
		h := newFileHistory(t)
		require.NoError(t, h.Init(ctx))
		stats, err := h.Statistics(ctx, DefaultWindow)
		require.NoError(t, err)
		assert.Equal(t, 12, stats.WindowSize)
		assert.InDelta(t, 0.2195, stats.Average, 1e-9)
		assert.Equal(t, 0.2000, stats.Min)
		assert.Equal(t, 0.2420, stats.Max)
		assert.Equal(t, 0.2180, stats.Latest)
		assert.Equal(t, "2026-02", stats.LatestMonth)
		assert.True(t, stats.AllEstimated)
		assert.False(t, stats.Fallback)
	})

	t.Run("empty", func(t *testing.T) {
		db := &storagemock.MockDatabase{}
		db.On("GetPriceHistory", mock.Anything).Return([]types.PriceObservation{}, nil)
		stats, err := NewHistory(db).Statistics(ctx, DefaultWindow)
		require.NoError(t, err)
		assert.True(t, stats.Fallback)
		assert.Equal(t, FallbackAverage, stats.Average)
	})
}

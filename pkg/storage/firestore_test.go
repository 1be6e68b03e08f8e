package storage

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/powerroof/powerroof/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirestoreProvider(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	// Use a random database for isolation
	f := &FirestoreProvider{
		projectID:  "test-project-id",
		database:   fmt.Sprintf("test-db-%d", time.Now().UnixNano()),
		collection: "smp_history",
	}

	ctx := context.Background()
	require.NoError(t, f.Init(ctx))
	defer f.Close()

	t.Run("Validate", func(t *testing.T) {
		require.NoError(t, f.Validate())
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := f.GetPrice(ctx, "1999-01")
		assert.ErrorIs(t, err, ErrPriceNotFound)
	})

	t.Run("UpsertAndHistory", func(t *testing.T) {
		created := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
		require.NoError(t, f.UpsertPrice(ctx, types.PriceObservation{Month: "2026-02", Price: 0.218, Source: types.PriceSourceEstimated, CreatedAt: created}))
		require.NoError(t, f.UpsertPrice(ctx, types.PriceObservation{Month: "2026-03", Price: 0.221, Source: types.PriceSourcePublished, CreatedAt: created}))
		require.NoError(t, f.UpsertPrice(ctx, types.PriceObservation{Month: "2026-02", Price: 0.219, Source: types.PriceSourcePublished, CreatedAt: created, UpdatedAt: created.Add(time.Hour)}))

		got, err := f.GetPrice(ctx, "2026-02")
		require.NoError(t, err)
		assert.Equal(t, 0.219, got.Price)
		assert.Equal(t, types.PriceSourcePublished, got.Source)
		assert.True(t, got.CreatedAt.Equal(created))

		all, err := f.GetPriceHistory(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "2026-03", all[0].Month)
		assert.Equal(t, "2026-02", all[1].Month)
	})
}

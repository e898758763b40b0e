package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinprj/predictml/internal/core/domain"
	"github.com/vinprj/predictml/internal/core/ports/output"
)

// RunStoreSuite checks the behaviour every Store implementation shares.
// newStore must return an empty store.
func RunStoreSuite(t *testing.T, newStore func(t *testing.T) ports.Store) {
	t.Run("append assigns increasing ids", func(t *testing.T) {
		ctx := context.Background()
		h := newStore(t).History()

		var last int64
		for i := 0; i < 3; i++ {
			rec := storeRecord("salary", time.Now())
			require.NoError(t, h.Append(ctx, rec))
			assert.Greater(t, rec.ID, last)
			last = rec.ID
		}
	})

	t.Run("query orders newest first and filters", func(t *testing.T) {
		ctx := context.Background()
		h := newStore(t).History()

		base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		first := storeRecord("salary", base)
		second := storeRecord("house", base.Add(time.Minute))
		third := storeRecord("salary", base.Add(time.Minute))
		for _, r := range []*domain.HistoryRecord{first, second, third} {
			require.NoError(t, h.Append(ctx, r))
		}

		all, err := h.Query(ctx, ports.HistoryFilter{Limit: 10})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []int64{third.ID, second.ID, first.ID}, []int64{all[0].ID, all[1].ID, all[2].ID})
		assert.True(t, all[2].CreatedAt.Equal(base))
		assert.Equal(t, 5.0, all[0].InputData["years_experience"])
		assert.Equal(t, "v1.0", all[0].ModelVersion)
		require.NotNil(t, all[0].Confidence)
		assert.Equal(t, 0.75, *all[0].Confidence)

		limited, err := h.Query(ctx, ports.HistoryFilter{ModelName: "salary", Limit: 1})
		require.NoError(t, err)
		require.Len(t, limited, 1)
		assert.Equal(t, third.ID, limited[0].ID)

		none, err := h.Query(ctx, ports.HistoryFilter{ModelName: "crop", Limit: 10})
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
	})

	t.Run("nil confidence round trips", func(t *testing.T) {
		ctx := context.Background()
		h := newStore(t).History()

		rec := storeRecord("crop", time.Now())
		rec.Confidence = nil
		require.NoError(t, h.Append(ctx, rec))

		got, err := h.Query(ctx, ports.HistoryFilter{Limit: 1})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Nil(t, got[0].Confidence)
	})

	t.Run("aggregate total equals sum of models", func(t *testing.T) {
		ctx := context.Background()
		h := newStore(t).History()

		empty, err := h.Aggregate(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), empty.Total)
		assert.Empty(t, empty.ByModel)

		for _, name := range []string{"salary", "salary", "house", "crop", "salary"} {
			require.NoError(t, h.Append(ctx, storeRecord(name, time.Now())))
		}
		stats, err := h.Aggregate(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(5), stats.Total)
		assert.Equal(t, map[string]int64{"salary": 3, "house": 1, "crop": 1}, stats.ByModel)
	})

	t.Run("concurrent appends get unique ids", func(t *testing.T) {
		ctx := context.Background()
		h := newStore(t).History()

		const n = 20
		var wg sync.WaitGroup
		ids := make(chan int64, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				rec := storeRecord("house", time.Now())
				if assert.NoError(t, h.Append(ctx, rec)) {
					ids <- rec.ID
				}
			}()
		}
		wg.Wait()
		close(ids)

		seen := make(map[int64]struct{})
		for id := range ids {
			seen[id] = struct{}{}
		}
		assert.Len(t, seen, n)
	})

	t.Run("metadata seed is idempotent", func(t *testing.T) {
		ctx := context.Background()
		m := newStore(t).Metadata()

		require.NoError(t, m.Seed(ctx, domain.DefaultMetadata()))
		require.NoError(t, m.Seed(ctx, domain.DefaultMetadata()))

		list, err := m.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 5)
		names := make([]string, len(list))
		for i, e := range list {
			names[i] = e.ModelName
		}
		assert.Equal(t, []string{"crop", "house", "salary", "stock", "weather"}, names)

		stock, err := m.Get(ctx, "stock")
		require.NoError(t, err)
		assert.Equal(t, "LSTM (simulated)", stock.Description)
		require.NotNil(t, stock.Accuracy)
		assert.Equal(t, 0.85, *stock.Accuracy)

		_, err = m.Get(ctx, "unknown")
		assert.ErrorIs(t, err, domain.ErrModelNotFound)
	})

	t.Run("metadata upsert", func(t *testing.T) {
		ctx := context.Background()
		m := newStore(t).Metadata()
		require.NoError(t, m.Seed(ctx, domain.DefaultMetadata()))

		before, err := m.Get(ctx, "salary")
		require.NoError(t, err)

		// unchanged values keep updated_at
		acc := 0.98
		require.NoError(t, m.Upsert(ctx, &domain.ModelMetadata{
			ModelName: "salary", CurrentVersion: "v1.0", Description: "Linear Regression", Accuracy: &acc,
		}))
		same, err := m.Get(ctx, "salary")
		require.NoError(t, err)
		assert.True(t, before.UpdatedAt.Equal(same.UpdatedAt))

		require.NoError(t, m.Upsert(ctx, &domain.ModelMetadata{
			ModelName: "salary", CurrentVersion: "v2.0", Description: "Linear Regression", Accuracy: &acc,
		}))
		after, err := m.Get(ctx, "salary")
		require.NoError(t, err)
		assert.Equal(t, "v2.0", after.CurrentVersion)
		assert.True(t, before.CreatedAt.Equal(after.CreatedAt))
		assert.False(t, after.UpdatedAt.Before(before.UpdatedAt))

		require.NoError(t, m.Upsert(ctx, &domain.ModelMetadata{ModelName: "fresh", CurrentVersion: "v0.1"}))
		fresh, err := m.Get(ctx, "fresh")
		require.NoError(t, err)
		assert.Nil(t, fresh.Accuracy)
	})
}

func storeRecord(model string, at time.Time) *domain.HistoryRecord {
	conf := 0.75
	return &domain.HistoryRecord{
		ModelName:    model,
		ModelVersion: "v1.0",
		InputData:    map[string]any{"years_experience": 5.0, "location": "urban"},
		Prediction:   73041.99,
		Confidence:   &conf,
		CreatedAt:    at.UTC(),
	}
}

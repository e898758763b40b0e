package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinprj/predictml/internal/core/domain"
	"github.com/vinprj/predictml/internal/core/ports/output"
	"github.com/vinprj/predictml/internal/testutil"
)

func TestStoreSuite(t *testing.T) {
	testutil.RunStoreSuite(t, func(*testing.T) ports.Store { return NewStore() })
}

func TestHistory_RecordsAreCopied(t *testing.T) {
	ctx := context.Background()
	h := NewStore().History()

	rec := &domain.HistoryRecord{
		ModelName:  "salary",
		InputData:  map[string]any{"x": 1.0},
		Prediction: 1,
		CreatedAt:  time.Now(),
	}
	require.NoError(t, h.Append(ctx, rec))
	rec.InputData["x"] = 99.0

	got, err := h.Query(ctx, ports.HistoryFilter{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 1.0, got[0].InputData["x"])
}

func TestMetadata_UpsertTouchesUpdatedAtOnChange(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }
	m := s.Metadata()

	require.NoError(t, m.Seed(ctx, domain.DefaultMetadata()))

	clock = clock.Add(time.Hour)
	changed := &domain.ModelMetadata{ModelName: "salary", CurrentVersion: "v2.0", Description: "Linear Regression"}
	require.NoError(t, m.Upsert(ctx, changed))
	got, err := m.Get(ctx, "salary")
	require.NoError(t, err)
	assert.Equal(t, clock, got.UpdatedAt)
	assert.Equal(t, clock.Add(-time.Hour), got.CreatedAt)

	clock = clock.Add(time.Hour)
	require.NoError(t, m.Upsert(ctx, changed))
	got, err = m.Get(ctx, "salary")
	require.NoError(t, err)
	assert.Equal(t, clock.Add(-time.Hour), got.UpdatedAt)
}

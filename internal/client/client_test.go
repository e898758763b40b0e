package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinprj/predictml/internal/adapters/primary/http/handlers"
	"github.com/vinprj/predictml/internal/adapters/secondary/artifacts"
	"github.com/vinprj/predictml/internal/adapters/secondary/memory"
	"github.com/vinprj/predictml/internal/core/domain"
	"github.com/vinprj/predictml/internal/core/services"
)

func startServer(t *testing.T) *Client {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	store := memory.NewStore()
	require.NoError(t, store.Metadata().Seed(ctx, domain.DefaultMetadata()))
	catalog := domain.DefaultCatalog()
	registry := artifacts.NewRegistry(catalog, store.Metadata())
	builtins, err := artifacts.Builtin()
	require.NoError(t, err)
	require.NoError(t, registry.DeployAll(ctx, builtins))

	svc := services.NewPredictionService(catalog, registry, store.History(), store.Metadata())
	router := gin.New()
	handlers.New(svc, store).RegisterRoutes(router)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return New(srv.URL)
}

func TestClient_PredictAndHistory(t *testing.T) {
	c := startServer(t)
	ctx := context.Background()

	resp, err := c.Predict(ctx, "salary", map[string]any{"years_experience": 5})
	require.NoError(t, err)
	assert.Equal(t, 73041.99, resp["predicted_salary"])

	history, err := c.History(ctx, 10, "salary")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "v1.0", history[0].ModelVersion)

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalPredictions)
	assert.Equal(t, int64(1), stats.PredictionsByModel["salary"])
}

func TestClient_ValidationError(t *testing.T) {
	c := startServer(t)

	_, err := c.Predict(context.Background(), "house", map[string]any{"area": 2000, "bedrooms": 3, "location": "suburbia"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "got %v", err)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Equal(t, "location", apiErr.Field)
}

func TestClient_ModelsAndCatalog(t *testing.T) {
	c := startServer(t)
	ctx := context.Background()

	models, err := c.Models(ctx)
	require.NoError(t, err)
	assert.Len(t, models, 5)

	detail, err := c.Model(ctx, "crop")
	require.NoError(t, err)
	assert.Equal(t, "Decision Tree", detail.Description)
	assert.Len(t, detail.Fields, 2)

	_, err = c.Model(ctx, "lottery")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)

	catalog, err := c.Catalog(ctx)
	require.NoError(t, err)
	assert.Len(t, catalog, 5)
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url).Models(context.Background())
	assert.ErrorIs(t, err, ErrRequestFailed)
}

func TestClient_FeatureImportance(t *testing.T) {
	c := startServer(t)
	ctx := context.Background()

	fi, err := c.FeatureImportance(ctx, "crop")
	require.NoError(t, err)
	assert.Equal(t, "v1.0", fi.Version)
	assert.Equal(t, []string{"rainfall", "temperature"}, fi.Fields)
	assert.Equal(t, []float64{0.58, 0.42}, fi.Importance)

	_, err = c.FeatureImportance(ctx, "stock")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

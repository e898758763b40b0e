package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vinprj/predictml/internal/core/domain"
)

func TestToPredictResponse_UsesOutputKey(t *testing.T) {
	conf := 0.88
	resp := ToPredictResponse(&domain.PredictionResponse{
		ModelName:   "house",
		OutputKey:   "predicted_price",
		DisplayName: "Random Forest",
		Version:     "v1.0",
		Value:       416666.67,
		Confidence:  &conf,
	})

	assert.Equal(t, 416666.67, resp["predicted_price"])
	assert.Equal(t, "Random Forest", resp["model"])
	assert.Equal(t, "v1.0", resp["version"])
	assert.Equal(t, 0.88, resp["confidence"])
}

func TestToPredictResponse_OmitsMissingConfidence(t *testing.T) {
	resp := ToPredictResponse(&domain.PredictionResponse{
		OutputKey: "predicted_salary",
		Value:     73041.99,
	})

	_, ok := resp["confidence"]
	assert.False(t, ok)
}

func TestToHistoryStatsResponse_NilMap(t *testing.T) {
	resp := ToHistoryStatsResponse(&domain.HistoryStats{})
	assert.NotNil(t, resp.PredictionsByModel)
	assert.Equal(t, int64(0), resp.TotalPredictions)
}

func TestToCatalogEntryResponse(t *testing.T) {
	spec, ok := domain.DefaultCatalog().Lookup("house")
	assert.True(t, ok)

	resp := ToCatalogEntryResponse(spec)
	assert.Equal(t, "house", resp.ModelName)
	assert.Equal(t, "forest", resp.Family)
	assert.True(t, resp.Served)
	assert.Len(t, resp.Fields, 3)
	assert.Equal(t, []string{"rural", "suburban", "urban"}, resp.Fields[2].Options)
	assert.Equal(t, "integer", resp.Fields[1].Kind)
}

func TestToFeatureImportanceResponse(t *testing.T) {
	spec, _ := domain.DefaultCatalog().Lookup("crop")
	resp := ToFeatureImportanceResponse(&domain.FeatureImportance{
		ModelName:  "crop",
		Version:    "v1.0",
		Fields:     spec.Fields,
		Importance: []float64{0.58, 0.42},
	})

	assert.Equal(t, []string{"rainfall", "temperature"}, resp.Fields)
	assert.Equal(t, []string{"Rainfall", "Temperature"}, resp.Features)
	assert.Equal(t, []float64{0.58, 0.42}, resp.Importance)
}

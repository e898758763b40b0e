package dto

import (
	"time"

	"github.com/vinprj/predictml/internal/core/domain"
)

// ============================================================================
// Prediction DTOs
// ============================================================================

// PredictResponse is keyed by the model's output quantity, so it is built as a
// map rather than a struct.
type PredictResponse map[string]any

func ToPredictResponse(resp *domain.PredictionResponse) PredictResponse {
	out := PredictResponse{
		resp.OutputKey: resp.Value,
		"model":        resp.DisplayName,
		"version":      resp.Version,
	}
	if resp.Confidence != nil {
		out["confidence"] = *resp.Confidence
	}
	return out
}

type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// ============================================================================
// Model DTOs
// ============================================================================

type ModelMetadataResponse struct {
	ModelName      string    `json:"model_name"`
	CurrentVersion string    `json:"current_version"`
	Description    string    `json:"description"`
	Accuracy       *float64  `json:"accuracy"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func ToModelMetadataResponse(m *domain.ModelMetadata) ModelMetadataResponse {
	return ModelMetadataResponse{
		ModelName:      m.ModelName,
		CurrentVersion: m.CurrentVersion,
		Description:    m.Description,
		Accuracy:       m.Accuracy,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

type FieldResponse struct {
	Name    string   `json:"name"`
	Label   string   `json:"label"`
	Unit    string   `json:"unit,omitempty"`
	Kind    string   `json:"kind"`
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
	Options []string `json:"options,omitempty"`
}

type CatalogEntryResponse struct {
	ModelName   string          `json:"model_name"`
	DisplayName string          `json:"display_name"`
	Family      string          `json:"family"`
	OutputKey   string          `json:"output_key"`
	Served      bool            `json:"served"`
	Fields      []FieldResponse `json:"fields"`
}

func ToCatalogEntryResponse(spec domain.ModelSpec) CatalogEntryResponse {
	fields := make([]FieldResponse, 0, len(spec.Fields))
	for _, f := range spec.Fields {
		fields = append(fields, FieldResponse{
			Name:    f.Name,
			Label:   f.Label,
			Unit:    f.Unit,
			Kind:    string(f.Kind),
			Min:     f.Min,
			Max:     f.Max,
			Options: f.Options,
		})
	}
	return CatalogEntryResponse{
		ModelName:   spec.Name,
		DisplayName: spec.DisplayName,
		Family:      string(spec.Family),
		OutputKey:   spec.OutputKey,
		Served:      spec.Served,
		Fields:      fields,
	}
}

type ModelDetailResponse struct {
	ModelMetadataResponse
	DisplayName string          `json:"display_name"`
	OutputKey   string          `json:"output_key"`
	Served      bool            `json:"served"`
	Fields      []FieldResponse `json:"fields"`
}

func ToModelDetailResponse(m *domain.ModelMetadata, spec domain.ModelSpec) ModelDetailResponse {
	entry := ToCatalogEntryResponse(spec)
	return ModelDetailResponse{
		ModelMetadataResponse: ToModelMetadataResponse(m),
		DisplayName:           entry.DisplayName,
		OutputKey:             entry.OutputKey,
		Served:                entry.Served,
		Fields:                entry.Fields,
	}
}

type FeatureImportanceResponse struct {
	ModelName  string    `json:"model_name"`
	Version    string    `json:"version"`
	Fields     []string  `json:"fields"`
	Features   []string  `json:"features"`
	Importance []float64 `json:"importance"`
}

// ToFeatureImportanceResponse lists field names next to their display labels.
func ToFeatureImportanceResponse(fi *domain.FeatureImportance) FeatureImportanceResponse {
	fields := make([]string, len(fi.Fields))
	labels := make([]string, len(fi.Fields))
	for i, f := range fi.Fields {
		fields[i] = f.Name
		labels[i] = f.Label
	}
	return FeatureImportanceResponse{
		ModelName:  fi.ModelName,
		Version:    fi.Version,
		Fields:     fields,
		Features:   labels,
		Importance: fi.Importance,
	}
}

// ============================================================================
// History DTOs
// ============================================================================

type HistoryRecordResponse struct {
	ID           int64          `json:"id"`
	ModelName    string         `json:"model_name"`
	ModelVersion string         `json:"model_version"`
	InputData    map[string]any `json:"input_data"`
	Prediction   float64        `json:"prediction"`
	Confidence   *float64       `json:"confidence"`
	CreatedAt    time.Time      `json:"created_at"`
}

func ToHistoryRecordResponse(r *domain.HistoryRecord) HistoryRecordResponse {
	return HistoryRecordResponse{
		ID:           r.ID,
		ModelName:    r.ModelName,
		ModelVersion: r.ModelVersion,
		InputData:    r.InputData,
		Prediction:   r.Prediction,
		Confidence:   r.Confidence,
		CreatedAt:    r.CreatedAt,
	}
}

type HistoryStatsResponse struct {
	TotalPredictions   int64            `json:"total_predictions"`
	PredictionsByModel map[string]int64 `json:"predictions_by_model"`
}

func ToHistoryStatsResponse(s *domain.HistoryStats) HistoryStatsResponse {
	byModel := s.ByModel
	if byModel == nil {
		byModel = map[string]int64{}
	}
	return HistoryStatsResponse{
		TotalPredictions:   s.Total,
		PredictionsByModel: byModel,
	}
}

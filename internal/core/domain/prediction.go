package domain

import "time"

type PredictionResponse struct {
	ModelName   string
	OutputKey   string
	DisplayName string
	Version     string
	Value       float64
	Confidence  *float64
}

// HistoryRecord is written once per successful prediction and never mutated.
type HistoryRecord struct {
	ID           int64          `json:"id"`
	ModelName    string         `json:"model_name"`
	ModelVersion string         `json:"model_version"`
	InputData    map[string]any `json:"input_data"`
	Prediction   float64        `json:"prediction"`
	Confidence   *float64       `json:"confidence"`
	CreatedAt    time.Time      `json:"created_at"`
}

type HistoryStats struct {
	Total   int64
	ByModel map[string]int64
}

type ModelMetadata struct {
	ModelName      string    `json:"model_name"`
	CurrentVersion string    `json:"current_version"`
	Description    string    `json:"description"`
	Accuracy       *float64  `json:"accuracy"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Inference is the raw output of a model artifact.
type Inference struct {
	Value      float64
	Confidence *float64
}

// DefaultMetadata is seeded into an empty store.
func DefaultMetadata() []ModelMetadata {
	acc := func(v float64) *float64 { return &v }
	return []ModelMetadata{
		{ModelName: "salary", CurrentVersion: "v1.0", Description: "Linear Regression", Accuracy: acc(0.98)},
		{ModelName: "house", CurrentVersion: "v1.0", Description: "Random Forest", Accuracy: acc(0.95)},
		{ModelName: "crop", CurrentVersion: "v1.0", Description: "Decision Tree", Accuracy: acc(0.92)},
		{ModelName: "stock", CurrentVersion: "v1.0", Description: "LSTM (simulated)", Accuracy: acc(0.85)},
		{ModelName: "weather", CurrentVersion: "v1.0", Description: "Random Forest", Accuracy: acc(0.88)},
	}
}

// FeatureImportance pairs each input of a served model with its relative
// weight, in catalog field order.
type FeatureImportance struct {
	ModelName  string
	Version    string
	Fields     []FieldSpec
	Importance []float64
}

package ports

import (
	"context"

	"github.com/vinprj/predictml/internal/core/domain"
)

// Model is an opaque trained artifact mapping a feature vector to a scalar.
type Model interface {
	Infer(features []float64) (domain.Inference, error)
}

// ModelProvider resolves served models by name. fn runs while the model is
// pinned, so a concurrent redeploy cannot swap it mid-call.
type ModelProvider interface {
	Use(name string, fn func(Model) error) error
	// Importance returns the feature weights published with the served
	// artifact and the version they belong to.
	Importance(name string) (weights []float64, version string, err error)
}

// PredictionPublisher fans successful predictions out to other consumers.
type PredictionPublisher interface {
	Publish(ctx context.Context, record *domain.HistoryRecord) error
}

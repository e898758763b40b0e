package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vinprj/predictml/internal/core/domain"
	"github.com/vinprj/predictml/internal/core/ports/output"
	"github.com/vinprj/predictml/internal/metrics"
)

const (
	DefaultHistoryLimit = 100
	MaxHistoryLimit     = 1000
)

type PredictionService struct {
	catalog   domain.Catalog
	models    ports.ModelProvider
	history   ports.HistoryRepository
	metadata  ports.MetadataRepository
	publisher ports.PredictionPublisher

	defaultLimit int
	maxLimit     int
	now          func() time.Time
}

type Option func(*PredictionService)

func WithPublisher(p ports.PredictionPublisher) Option {
	return func(s *PredictionService) { s.publisher = p }
}

func WithHistoryLimits(defaultLimit, maxLimit int) Option {
	return func(s *PredictionService) {
		if defaultLimit > 0 {
			s.defaultLimit = defaultLimit
		}
		if maxLimit > 0 {
			s.maxLimit = maxLimit
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *PredictionService) { s.now = now }
}

func NewPredictionService(catalog domain.Catalog, models ports.ModelProvider, history ports.HistoryRepository, metadata ports.MetadataRepository, opts ...Option) *PredictionService {
	s := &PredictionService{
		catalog:      catalog,
		models:       models,
		history:      history,
		metadata:     metadata,
		defaultLimit: DefaultHistoryLimit,
		maxLimit:     MaxHistoryLimit,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *PredictionService) Predict(ctx context.Context, modelName string, fields map[string]any) (*domain.PredictionResponse, error) {
	spec, ok := s.catalog.Lookup(modelName)
	if !ok {
		metrics.PredictionFailures.WithLabelValues("unknown", metrics.ReasonValidation).Inc()
		return nil, domain.NewValidationError("model_name", "unknown model %q", modelName)
	}
	if !spec.Served {
		metrics.PredictionFailures.WithLabelValues(modelName, metrics.ReasonValidation).Inc()
		return nil, domain.NewValidationError("model_name", "model %q is not served", modelName)
	}

	input, err := spec.Validate(fields)
	if err != nil {
		metrics.PredictionFailures.WithLabelValues(modelName, metrics.ReasonValidation).Inc()
		return nil, err
	}
	features := spec.Encode(input)

	var resp *domain.PredictionResponse
	err = s.models.Use(modelName, func(m ports.Model) error {
		meta, err := s.metadata.Get(ctx, modelName)
		if err != nil {
			return fmt.Errorf("%w: read metadata: %w", domain.ErrStore, err)
		}

		start := time.Now()
		inf, err := m.Infer(features)
		metrics.InferenceDuration.WithLabelValues(modelName).Observe(time.Since(start).Seconds())
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInference, err)
		}
		if math.IsNaN(inf.Value) || math.IsInf(inf.Value, 0) {
			return fmt.Errorf("%w: model returned non-finite value", domain.ErrInference)
		}

		resp = &domain.PredictionResponse{
			ModelName:   modelName,
			OutputKey:   spec.OutputKey,
			DisplayName: displayName(spec, meta),
			Version:     meta.CurrentVersion,
			Value:       round2(inf.Value),
			Confidence:  roundConfidence(inf.Confidence),
		}
		return nil
	})
	if err != nil {
		reason := metrics.ReasonInference
		if errors.Is(err, domain.ErrStore) {
			reason = metrics.ReasonStore
		}
		metrics.PredictionFailures.WithLabelValues(modelName, reason).Inc()
		return nil, err
	}

	record := &domain.HistoryRecord{
		ModelName:    modelName,
		ModelVersion: resp.Version,
		InputData:    input,
		Prediction:   resp.Value,
		Confidence:   resp.Confidence,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.history.Append(ctx, record); err != nil {
		metrics.HistoryWriteFailures.WithLabelValues(modelName).Inc()
		log.WithError(err).WithFields(log.Fields{
			"model":   modelName,
			"version": resp.Version,
		}).Error("append prediction history failed")
	} else if s.publisher != nil {
		if err := s.publisher.Publish(ctx, record); err != nil {
			log.WithError(err).WithField("history_id", record.ID).Warn("publish prediction event failed")
		}
	}

	metrics.PredictionsTotal.WithLabelValues(modelName).Inc()
	return resp, nil
}

func (s *PredictionService) ListModels(ctx context.Context) ([]*domain.ModelMetadata, error) {
	models, err := s.metadata.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStore, err)
	}
	return models, nil
}

// GetModel returns the metadata and input schema of a catalogued model.
func (s *PredictionService) GetModel(ctx context.Context, modelName string) (*domain.ModelMetadata, domain.ModelSpec, error) {
	spec, ok := s.catalog.Lookup(modelName)
	if !ok {
		return nil, domain.ModelSpec{}, domain.ErrModelNotFound
	}
	meta, err := s.metadata.Get(ctx, modelName)
	if err != nil {
		if errors.Is(err, domain.ErrModelNotFound) {
			return nil, domain.ModelSpec{}, err
		}
		return nil, domain.ModelSpec{}, fmt.Errorf("%w: %w", domain.ErrStore, err)
	}
	return meta, spec, nil
}

// FeatureImportance reports the weights published with the served artifact.
// Unknown and unserved models are not found.
func (s *PredictionService) FeatureImportance(modelName string) (*domain.FeatureImportance, error) {
	spec, ok := s.catalog.Lookup(modelName)
	if !ok || !spec.Served {
		return nil, fmt.Errorf("%w: %s", domain.ErrModelNotFound, modelName)
	}

	weights, version, err := s.models.Importance(modelName)
	if err != nil {
		return nil, err
	}
	if len(weights) != len(spec.Fields) {
		return nil, fmt.Errorf("%w: %s has %d weights for %d fields", domain.ErrFeatureArity, modelName, len(weights), len(spec.Fields))
	}
	return &domain.FeatureImportance{
		ModelName:  modelName,
		Version:    version,
		Fields:     spec.Fields,
		Importance: weights,
	}, nil
}

func (s *PredictionService) Catalog() []domain.ModelSpec {
	names := s.catalog.Names()
	specs := make([]domain.ModelSpec, 0, len(names))
	for _, n := range names {
		specs = append(specs, s.catalog[n])
	}
	return specs
}

// ListHistory returns records most recent first. A zero limit selects the
// default; larger limits are clamped.
func (s *PredictionService) ListHistory(ctx context.Context, limit int, modelName string) ([]*domain.HistoryRecord, error) {
	if limit < 0 {
		return nil, domain.ErrInvalidLimit
	}
	if limit == 0 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	records, err := s.history.Query(ctx, ports.HistoryFilter{ModelName: modelName, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStore, err)
	}
	return records, nil
}

func (s *PredictionService) HistoryStats(ctx context.Context) (*domain.HistoryStats, error) {
	stats, err := s.history.Aggregate(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStore, err)
	}
	return stats, nil
}

func displayName(spec domain.ModelSpec, meta *domain.ModelMetadata) string {
	if meta.Description != "" {
		return meta.Description
	}
	return spec.DisplayName
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func roundConfidence(c *float64) *float64 {
	if c == nil {
		return nil
	}
	v := math.Max(0, math.Min(1, round2(*c)))
	return &v
}

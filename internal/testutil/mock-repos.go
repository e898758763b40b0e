package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/vinprj/predictml/internal/core/domain"
	"github.com/vinprj/predictml/internal/core/ports/output"
)

// MockHistoryRepo is a mock of HistoryRepository.
type MockHistoryRepo struct {
	mock.Mock
}

func (m *MockHistoryRepo) Append(ctx context.Context, record *domain.HistoryRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockHistoryRepo) Query(ctx context.Context, filter ports.HistoryFilter) ([]*domain.HistoryRecord, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.HistoryRecord), args.Error(1)
}

func (m *MockHistoryRepo) Aggregate(ctx context.Context) (*domain.HistoryStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.HistoryStats), args.Error(1)
}

// MockMetadataRepo is a mock of MetadataRepository.
type MockMetadataRepo struct {
	mock.Mock
}

func (m *MockMetadataRepo) Get(ctx context.Context, modelName string) (*domain.ModelMetadata, error) {
	args := m.Called(ctx, modelName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ModelMetadata), args.Error(1)
}

func (m *MockMetadataRepo) List(ctx context.Context) ([]*domain.ModelMetadata, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ModelMetadata), args.Error(1)
}

func (m *MockMetadataRepo) Seed(ctx context.Context, defaults []domain.ModelMetadata) error {
	args := m.Called(ctx, defaults)
	return args.Error(0)
}

func (m *MockMetadataRepo) Upsert(ctx context.Context, meta *domain.ModelMetadata) error {
	args := m.Called(ctx, meta)
	return args.Error(0)
}

// MockModel is a mock of the Model port.
type MockModel struct {
	mock.Mock
}

func (m *MockModel) Infer(features []float64) (domain.Inference, error) {
	args := m.Called(features)
	return args.Get(0).(domain.Inference), args.Error(1)
}

// MockPublisher is a mock of PredictionPublisher.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, record *domain.HistoryRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// StaticModels serves a fixed set of models.
type StaticModels map[string]ports.Model

func (s StaticModels) Use(name string, fn func(ports.Model) error) error {
	m, ok := s[name]
	if !ok {
		return domain.ErrModelMissing
	}
	return fn(m)
}

func (s StaticModels) Importance(name string) ([]float64, string, error) {
	if _, ok := s[name]; !ok {
		return nil, "", domain.ErrModelMissing
	}
	return nil, "", domain.ErrNoImportance
}

// MockModelProvider is a mock of the ModelProvider port. Use calls fn with
// the returned model when no error is configured.
type MockModelProvider struct {
	mock.Mock
}

func (m *MockModelProvider) Use(name string, fn func(ports.Model) error) error {
	args := m.Called(name)
	if err := args.Error(1); err != nil {
		return err
	}
	return fn(args.Get(0).(ports.Model))
}

func (m *MockModelProvider) Importance(name string) ([]float64, string, error) {
	args := m.Called(name)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).([]float64), args.String(1), args.Error(2)
}

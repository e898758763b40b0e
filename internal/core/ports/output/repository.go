package ports

import (
	"context"

	"github.com/vinprj/predictml/internal/core/domain"
)

type HistoryFilter struct {
	ModelName string
	Limit     int
}

// HistoryRepository is the append-only prediction log. Append assigns the
// record's ID; ids are unique and increase with every append.
type HistoryRepository interface {
	Append(ctx context.Context, record *domain.HistoryRecord) error
	Query(ctx context.Context, filter HistoryFilter) ([]*domain.HistoryRecord, error)
	Aggregate(ctx context.Context) (*domain.HistoryStats, error)
}

type MetadataRepository interface {
	Get(ctx context.Context, modelName string) (*domain.ModelMetadata, error)
	List(ctx context.Context) ([]*domain.ModelMetadata, error)
	// Seed inserts entries whose model name is not yet present.
	Seed(ctx context.Context, defaults []domain.ModelMetadata) error
	// Upsert sets version, description and accuracy, touching updated_at only
	// when something changed.
	Upsert(ctx context.Context, meta *domain.ModelMetadata) error
}

// Store bundles both repositories behind one connection.
type Store interface {
	History() HistoryRepository
	Metadata() MetadataRepository
	Ping(ctx context.Context) error
	Close() error
}

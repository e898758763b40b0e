package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vinprj/predictml/internal/core/domain"
	"github.com/vinprj/predictml/internal/core/ports/output"
)

type metadataRepo struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewMetadataRepository(pool *pgxpool.Pool) ports.MetadataRepository {
	return &metadataRepo{pool: pool, now: time.Now}
}

func (r *metadataRepo) Get(ctx context.Context, modelName string) (*domain.ModelMetadata, error) {
	query := `
		SELECT model_name, current_version, description, accuracy, created_at, updated_at
		FROM model_versions
		WHERE model_name = $1
	`
	m, err := scanMetadata(r.pool.QueryRow(ctx, query, modelName))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrModelNotFound
		}
		return nil, fmt.Errorf("get model metadata: %w", err)
	}
	return m, nil
}

func (r *metadataRepo) List(ctx context.Context) ([]*domain.ModelMetadata, error) {
	query := `
		SELECT model_name, current_version, description, accuracy, created_at, updated_at
		FROM model_versions
		ORDER BY model_name
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list model metadata: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.ModelMetadata, 0)
	for rows.Next() {
		m, err := scanMetadata(rows)
		if err != nil {
			return nil, fmt.Errorf("scan model metadata row: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate model metadata: %w", err)
	}
	return out, nil
}

func (r *metadataRepo) Seed(ctx context.Context, defaults []domain.ModelMetadata) error {
	now := r.now().UTC()
	batch := &pgx.Batch{}
	for _, d := range defaults {
		batch.Queue(`
			INSERT INTO model_versions
				(model_name, current_version, description, accuracy, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $5)
			ON CONFLICT (model_name) DO NOTHING
		`, d.ModelName, d.CurrentVersion, d.Description, d.Accuracy, now)
	}

	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("seed model metadata: %w", err)
	}
	return nil
}

func (r *metadataRepo) Upsert(ctx context.Context, meta *domain.ModelMetadata) error {
	query := `
		INSERT INTO model_versions
			(model_name, current_version, description, accuracy, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (model_name) DO UPDATE SET
			current_version = EXCLUDED.current_version,
			description     = EXCLUDED.description,
			accuracy        = EXCLUDED.accuracy,
			updated_at      = EXCLUDED.updated_at
		WHERE model_versions.current_version IS DISTINCT FROM EXCLUDED.current_version
		   OR model_versions.description IS DISTINCT FROM EXCLUDED.description
		   OR model_versions.accuracy IS DISTINCT FROM EXCLUDED.accuracy
	`
	_, err := r.pool.Exec(ctx, query,
		meta.ModelName, meta.CurrentVersion, meta.Description, meta.Accuracy, r.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert model metadata: %w", err)
	}
	return nil
}

func scanMetadata(row pgx.Row) (*domain.ModelMetadata, error) {
	m := &domain.ModelMetadata{}
	err := row.Scan(&m.ModelName, &m.CurrentVersion, &m.Description, &m.Accuracy, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.CreatedAt = m.CreatedAt.UTC()
	m.UpdatedAt = m.UpdatedAt.UTC()
	return m, nil
}

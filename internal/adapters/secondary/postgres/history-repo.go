package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vinprj/predictml/internal/core/domain"
	"github.com/vinprj/predictml/internal/core/ports/output"
)

type historyRepo struct {
	pool *pgxpool.Pool
}

func NewHistoryRepository(pool *pgxpool.Pool) ports.HistoryRepository {
	return &historyRepo{pool: pool}
}

func (r *historyRepo) Append(ctx context.Context, record *domain.HistoryRecord) error {
	inputJSON, err := json.Marshal(record.InputData)
	if err != nil {
		return fmt.Errorf("marshal input data: %w", err)
	}

	query := `
		INSERT INTO prediction_history
			(model_name, model_version, input_data, prediction, confidence, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err = r.pool.QueryRow(ctx, query,
		record.ModelName, record.ModelVersion, inputJSON,
		record.Prediction, record.Confidence, record.CreatedAt,
	).Scan(&record.ID)
	if err != nil {
		return fmt.Errorf("append prediction: %w", err)
	}
	return nil
}

func (r *historyRepo) Query(ctx context.Context, filter ports.HistoryFilter) ([]*domain.HistoryRecord, error) {
	query := `
		SELECT id, model_name, model_version, input_data, prediction, confidence, created_at
		FROM prediction_history
	`
	args := []any{}
	argIdx := 1
	if filter.ModelName != "" {
		query += fmt.Sprintf(" WHERE model_name = $%d", argIdx)
		args = append(args, filter.ModelName)
		argIdx++
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, filter.Limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.HistoryRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}

func (r *historyRepo) Aggregate(ctx context.Context) (*domain.HistoryStats, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT model_name, COUNT(*) FROM prediction_history GROUP BY model_name
	`)
	if err != nil {
		return nil, fmt.Errorf("aggregate history: %w", err)
	}
	defer rows.Close()

	stats := &domain.HistoryStats{ByModel: make(map[string]int64)}
	for rows.Next() {
		var name string
		var count int64
		if err := rows.Scan(&name, &count); err != nil {
			return nil, fmt.Errorf("scan aggregate row: %w", err)
		}
		stats.ByModel[name] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate aggregate: %w", err)
	}
	return stats, nil
}

func scanRecord(row pgx.Row) (*domain.HistoryRecord, error) {
	rec := &domain.HistoryRecord{}
	var inputJSON []byte

	err := row.Scan(
		&rec.ID, &rec.ModelName, &rec.ModelVersion, &inputJSON,
		&rec.Prediction, &rec.Confidence, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(inputJSON, &rec.InputData); err != nil {
		return nil, fmt.Errorf("unmarshal input data: %w", err)
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	return rec, nil
}

// Package sqlite is the default single-file store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// registers the "sqlite" driver
	_ "modernc.org/sqlite"

	"github.com/vinprj/predictml/internal/core/domain"
	"github.com/vinprj/predictml/internal/core/ports/output"
)

var _ ports.Store = (*Store)(nil)

type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open creates the database file and schema if needed. path may be
// ":memory:" for a private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection: pragmas are per connection and sqlite has a single writer.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}

	s := &Store{db: db, path: path, now: time.Now}
	if err := s.configure(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) configure(ctx context.Context) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, p := range pragmas {
		if _, err := s.db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("execute %s: %w", p, err)
		}
	}
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS prediction_history (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			model_name    TEXT    NOT NULL,
			model_version TEXT    NOT NULL,
			input_data    TEXT    NOT NULL,
			prediction    REAL    NOT NULL,
			confidence    REAL,
			created_at    INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_model_created
			ON prediction_history(model_name, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_history_created
			ON prediction_history(created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS model_versions (
			model_name      TEXT PRIMARY KEY,
			current_version TEXT    NOT NULL,
			description     TEXT    NOT NULL DEFAULT '',
			accuracy        REAL,
			created_at      INTEGER NOT NULL,
			updated_at      INTEGER NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) History() ports.HistoryRepository  { return &historyRepo{s} }
func (s *Store) Metadata() ports.MetadataRepository { return &metadataRepo{s} }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }
func (s *Store) Close() error                   { return s.db.Close() }

type historyRepo struct{ s *Store }

func (r *historyRepo) Append(ctx context.Context, record *domain.HistoryRecord) error {
	input, err := json.Marshal(record.InputData)
	if err != nil {
		return fmt.Errorf("marshal input data: %w", err)
	}

	res, err := r.s.db.ExecContext(ctx, `
		INSERT INTO prediction_history
			(model_name, model_version, input_data, prediction, confidence, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		record.ModelName, record.ModelVersion, string(input),
		record.Prediction, nullFloat(record.Confidence), record.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("append prediction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("append prediction: %w", err)
	}
	record.ID = id
	return nil
}

func (r *historyRepo) Query(ctx context.Context, filter ports.HistoryFilter) ([]*domain.HistoryRecord, error) {
	query := `
		SELECT id, model_name, model_version, input_data, prediction, confidence, created_at
		FROM prediction_history`
	var args []any
	if filter.ModelName != "" {
		query += ` WHERE model_name = ?`
		args = append(args, filter.ModelName)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.HistoryRecord, 0)
	for rows.Next() {
		var (
			rec     domain.HistoryRecord
			input   string
			conf    sql.NullFloat64
			created int64
		)
		if err := rows.Scan(&rec.ID, &rec.ModelName, &rec.ModelVersion, &input,
			&rec.Prediction, &conf, &created); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if err := json.Unmarshal([]byte(input), &rec.InputData); err != nil {
			return nil, fmt.Errorf("unmarshal input data for %d: %w", rec.ID, err)
		}
		if conf.Valid {
			c := conf.Float64
			rec.Confidence = &c
		}
		rec.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}

func (r *historyRepo) Aggregate(ctx context.Context) (*domain.HistoryStats, error) {
	rows, err := r.s.db.QueryContext(ctx,
		`SELECT model_name, COUNT(*) FROM prediction_history GROUP BY model_name`)
	if err != nil {
		return nil, fmt.Errorf("aggregate history: %w", err)
	}
	defer rows.Close()

	stats := &domain.HistoryStats{ByModel: make(map[string]int64)}
	for rows.Next() {
		var (
			name  string
			count int64
		)
		if err := rows.Scan(&name, &count); err != nil {
			return nil, fmt.Errorf("scan aggregate: %w", err)
		}
		stats.ByModel[name] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate aggregate: %w", err)
	}
	return stats, nil
}

type metadataRepo struct{ s *Store }

const metadataColumns = `model_name, current_version, description, accuracy, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanMetadata(row scanner) (*domain.ModelMetadata, error) {
	var (
		m                domain.ModelMetadata
		acc              sql.NullFloat64
		created, updated int64
	)
	if err := row.Scan(&m.ModelName, &m.CurrentVersion, &m.Description, &acc, &created, &updated); err != nil {
		return nil, err
	}
	if acc.Valid {
		a := acc.Float64
		m.Accuracy = &a
	}
	m.CreatedAt = time.Unix(0, created).UTC()
	m.UpdatedAt = time.Unix(0, updated).UTC()
	return &m, nil
}

func (r *metadataRepo) Get(ctx context.Context, modelName string) (*domain.ModelMetadata, error) {
	row := r.s.db.QueryRowContext(ctx,
		`SELECT `+metadataColumns+` FROM model_versions WHERE model_name = ?`, modelName)
	m, err := scanMetadata(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrModelNotFound
		}
		return nil, fmt.Errorf("get model metadata: %w", err)
	}
	return m, nil
}

func (r *metadataRepo) List(ctx context.Context) ([]*domain.ModelMetadata, error) {
	rows, err := r.s.db.QueryContext(ctx,
		`SELECT `+metadataColumns+` FROM model_versions ORDER BY model_name`)
	if err != nil {
		return nil, fmt.Errorf("list model metadata: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.ModelMetadata, 0)
	for rows.Next() {
		m, err := scanMetadata(rows)
		if err != nil {
			return nil, fmt.Errorf("scan model metadata: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate model metadata: %w", err)
	}
	return out, nil
}

func (r *metadataRepo) Seed(ctx context.Context, defaults []domain.ModelMetadata) error {
	tx, err := r.s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := r.s.now().UnixNano()
	for _, d := range defaults {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO model_versions (`+metadataColumns+`)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(model_name) DO NOTHING`,
			d.ModelName, d.CurrentVersion, d.Description, nullFloat(d.Accuracy), now, now,
		); err != nil {
			return fmt.Errorf("seed %s: %w", d.ModelName, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	return nil
}

func (r *metadataRepo) Upsert(ctx context.Context, meta *domain.ModelMetadata) error {
	now := r.s.now().UnixNano()
	_, err := r.s.db.ExecContext(ctx, `
		INSERT INTO model_versions (`+metadataColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(model_name) DO UPDATE SET
			current_version = excluded.current_version,
			description     = excluded.description,
			accuracy        = excluded.accuracy,
			updated_at      = excluded.updated_at
		WHERE model_versions.current_version IS NOT excluded.current_version
		   OR model_versions.description IS NOT excluded.description
		   OR model_versions.accuracy IS NOT excluded.accuracy`,
		meta.ModelName, meta.CurrentVersion, meta.Description, nullFloat(meta.Accuracy), now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert model metadata: %w", err)
	}
	return nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

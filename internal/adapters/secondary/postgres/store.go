package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vinprj/predictml/internal/core/ports/output"
)

var _ ports.Store = (*Store)(nil)

type PoolConfig struct {
	URL             string
	MaxOpenConns    int
	// MinConns is the number of connections the pool keeps open while idle.
	MinConns        int
	ConnMaxLifetime time.Duration
}

type Store struct {
	pool *pgxpool.Pool
}

// Open connects, pings and applies the schema.
func Open(ctx context.Context, cfg PoolConfig) (*Store, error) {
	poolCfg, err := cfg.pgxConfig()
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create db pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	s := NewStore(pool)
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (cfg PoolConfig) pgxConfig() (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = int32(cfg.MinConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	return poolCfg, nil
}

// NewStore wraps an existing pool. The caller owns the schema.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const schema = `
CREATE TABLE IF NOT EXISTS prediction_history (
	id            BIGSERIAL PRIMARY KEY,
	model_name    TEXT             NOT NULL,
	model_version TEXT             NOT NULL,
	input_data    JSONB            NOT NULL,
	prediction    DOUBLE PRECISION NOT NULL,
	confidence    DOUBLE PRECISION,
	created_at    TIMESTAMPTZ      NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_history_model_created
	ON prediction_history (model_name, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_history_created
	ON prediction_history (created_at DESC);
CREATE TABLE IF NOT EXISTS model_versions (
	model_name      TEXT PRIMARY KEY,
	current_version TEXT             NOT NULL,
	description     TEXT             NOT NULL DEFAULT '',
	accuracy        DOUBLE PRECISION,
	created_at      TIMESTAMPTZ      NOT NULL,
	updated_at      TIMESTAMPTZ      NOT NULL
);
`

func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate postgres: %w", err)
	}
	return nil
}

func (s *Store) History() ports.HistoryRepository  { return NewHistoryRepository(s.pool) }
func (s *Store) Metadata() ports.MetadataRepository { return NewMetadataRepository(s.pool) }

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/vinprj/predictml/internal/core/ports/output"
	"github.com/vinprj/predictml/internal/testutil"
)

func setupPostgresContainer(t *testing.T, ctx context.Context) string {
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("predictml_test"),
		tcpostgres.WithUsername("test_user"),
		tcpostgres.WithPassword("test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")

	t.Cleanup(func() {
		require.NoError(t, container.Terminate(context.Background()))
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return connStr
}

func TestStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	ctx := context.Background()
	url := setupPostgresContainer(t, ctx)

	testutil.RunStoreSuite(t, func(t *testing.T) ports.Store {
		s, err := Open(ctx, PoolConfig{URL: url, MaxOpenConns: 10})
		require.NoError(t, err)
		_, err = s.pool.Exec(ctx, `TRUNCATE prediction_history RESTART IDENTITY; TRUNCATE model_versions`)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestPoolConfig_Mapping(t *testing.T) {
	cfg, err := PoolConfig{
		URL:             "postgres://u:p@localhost:5432/predictml",
		MaxOpenConns:    8,
		MinConns:        3,
		ConnMaxLifetime: 5 * time.Minute,
	}.pgxConfig()
	require.NoError(t, err)
	assert.Equal(t, int32(8), cfg.MaxConns)
	assert.Equal(t, int32(3), cfg.MinConns)
	assert.Equal(t, 5*time.Minute, cfg.MaxConnLifetime)

	_, err = PoolConfig{URL: "://not a url"}.pgxConfig()
	assert.Error(t, err)
}

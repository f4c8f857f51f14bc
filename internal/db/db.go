package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"decision-ai/internal/config"
)

// NewPool construye el pool de conexiones para el historial de corridas.
func NewPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	// El historial recibe pocas escrituras; un pool chico alcanza.
	poolCfg.MaxConns = 4
	poolCfg.MinConns = 0
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 30 * time.Second
	poolCfg.ConnConfig.ConnectTimeout = 5 * time.Second

	return pgxpool.NewWithConfig(ctx, poolCfg)
}

// Ping verifica conectividad con la base de datos.
func Ping(ctx context.Context, pool *pgxpool.Pool) error {
	return pool.Ping(ctx)
}

const schema = `
CREATE TABLE IF NOT EXISTS training_runs (
	id            TEXT PRIMARY KEY,
	trained_at    TIMESTAMPTZ NOT NULL,
	precision     DOUBLE PRECISION NOT NULL,
	recall        DOUBLE PRECISION NOT NULL,
	f1            DOUBLE PRECISION NOT NULL,
	auc           DOUBLE PRECISION NOT NULL,
	cv_mean       DOUBLE PRECISION NOT NULL,
	cv_std        DOUBLE PRECISION NOT NULL,
	applications  INTEGER NOT NULL,
	positives     INTEGER NOT NULL,
	test_size     INTEGER NOT NULL,
	threshold     DOUBLE PRECISION NOT NULL,
	features      TEXT[] NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_training_runs_trained_at ON training_runs(trained_at DESC);
`

// EnsureSchema crea la tabla de historial si no existe.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}

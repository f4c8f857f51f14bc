package repository

import (
	"context"
	"fmt"

	"decision-ai/internal/config"
	"decision-ai/internal/db"
)

// OpenHistory elige el almacenamiento del historial: Postgres si hay DATABASE_URL, SQLite si hay
// HISTORY_DB_PATH, y ninguno en otro caso (repo nil). close siempre es seguro de llamar.
func OpenHistory(ctx context.Context, cfg *config.Config) (TrainingRunRepository, func(), error) {
	noop := func() {}
	switch {
	case cfg.DatabaseURL != "":
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			return nil, noop, fmt.Errorf("connect postgres: %w", err)
		}
		if err := db.Ping(ctx, pool); err != nil {
			pool.Close()
			return nil, noop, fmt.Errorf("ping postgres: %w", err)
		}
		if err := db.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, noop, fmt.Errorf("postgres schema: %w", err)
		}
		return NewPgTrainingRunRepository(pool), pool.Close, nil
	case cfg.HistoryDBPath != "":
		sqlDB, err := db.OpenSQLite(cfg.HistoryDBPath)
		if err != nil {
			return nil, noop, fmt.Errorf("open sqlite: %w", err)
		}
		if err := db.EnsureSQLiteSchema(ctx, sqlDB); err != nil {
			sqlDB.Close()
			return nil, noop, fmt.Errorf("sqlite schema: %w", err)
		}
		return NewSqliteTrainingRunRepository(sqlDB), func() { sqlDB.Close() }, nil
	default:
		return nil, noop, nil
	}
}

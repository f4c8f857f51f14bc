package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// OpenSQLite abre (o crea) el archivo de historial local usado cuando no hay Postgres.
func OpenSQLite(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite serializa escrituras; una sola conexión evita SQLITE_BUSY.
	sqlDB.SetMaxOpenConns(1)
	return sqlDB, nil
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS training_runs (
	id            TEXT PRIMARY KEY,
	trained_at    INTEGER NOT NULL,
	precision     REAL NOT NULL,
	recall        REAL NOT NULL,
	f1            REAL NOT NULL,
	auc           REAL NOT NULL,
	cv_mean       REAL NOT NULL,
	cv_std        REAL NOT NULL,
	applications  INTEGER NOT NULL,
	positives     INTEGER NOT NULL,
	test_size     INTEGER NOT NULL,
	threshold     REAL NOT NULL,
	features      TEXT NOT NULL DEFAULT '[]'
);
CREATE INDEX IF NOT EXISTS idx_training_runs_trained_at ON training_runs(trained_at DESC);
`

// EnsureSQLiteSchema crea la tabla de historial si no existe.
func EnsureSQLiteSchema(ctx context.Context, sqlDB *sql.DB) error {
	_, err := sqlDB.ExecContext(ctx, sqliteSchema)
	return err
}

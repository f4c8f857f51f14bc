package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"decision-ai/internal/domain"
)

// SqliteTrainingRunRepository guarda el historial en un archivo SQLite local.
type SqliteTrainingRunRepository struct {
	db *sql.DB
}

func NewSqliteTrainingRunRepository(db *sql.DB) *SqliteTrainingRunRepository {
	return &SqliteTrainingRunRepository{db: db}
}

func (r *SqliteTrainingRunRepository) Create(ctx context.Context, run domain.TrainingRun) error {
	features := run.Features
	if features == nil {
		features = []string{}
	}
	rawFeatures, err := json.Marshal(features)
	if err != nil {
		return fmt.Errorf("encode features: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO training_runs (
			id, trained_at, precision, recall, f1, auc, cv_mean, cv_std, applications, positives, test_size, threshold, features
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING
	`,
		run.ID,
		run.TrainedAt.UTC().UnixNano(),
		run.Metrics.Precision,
		run.Metrics.Recall,
		run.Metrics.F1,
		run.Metrics.AUC,
		run.CVMean,
		run.CVStd,
		run.Applications,
		run.Positives,
		run.TestSize,
		run.Threshold,
		string(rawFeatures),
	)
	return err
}

func (r *SqliteTrainingRunRepository) ListRecent(ctx context.Context, limit int) ([]domain.TrainingRun, error) {
	if limit <= 0 {
		limit = defaultRunLimit
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, trained_at, precision, recall, f1, auc, cv_mean, cv_std, applications, positives, test_size, threshold, features
		FROM training_runs
		ORDER BY trained_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []domain.TrainingRun{}
	for rows.Next() {
		var (
			run         domain.TrainingRun
			trainedAt   int64
			rawFeatures string
		)
		if err := rows.Scan(
			&run.ID,
			&trainedAt,
			&run.Metrics.Precision,
			&run.Metrics.Recall,
			&run.Metrics.F1,
			&run.Metrics.AUC,
			&run.CVMean,
			&run.CVStd,
			&run.Applications,
			&run.Positives,
			&run.TestSize,
			&run.Threshold,
			&rawFeatures,
		); err != nil {
			return nil, err
		}
		run.TrainedAt = time.Unix(0, trainedAt).UTC()
		if err := json.Unmarshal([]byte(rawFeatures), &run.Features); err != nil {
			return nil, fmt.Errorf("decode features of run %s: %w", run.ID, err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

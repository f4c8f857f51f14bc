package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"decision-ai/internal/domain"
)

const defaultRunLimit = 20

type TrainingRunRepository interface {
	Create(ctx context.Context, run domain.TrainingRun) error
	ListRecent(ctx context.Context, limit int) ([]domain.TrainingRun, error)
}

// pgxQuerier es la parte de pgxpool.Pool que usa el repositorio.
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type PgTrainingRunRepository struct {
	pool pgxQuerier
}

func NewPgTrainingRunRepository(pool *pgxpool.Pool) *PgTrainingRunRepository {
	return &PgTrainingRunRepository{pool: pool}
}

func (r *PgTrainingRunRepository) Create(ctx context.Context, run domain.TrainingRun) error {
	const query = `
		INSERT INTO training_runs (
			id, trained_at, precision, recall, f1, auc, cv_mean, cv_std, applications, positives, test_size, threshold, features
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO NOTHING
	`
	features := run.Features
	if features == nil {
		features = []string{}
	}
	_, err := r.pool.Exec(ctx, query,
		run.ID,
		run.TrainedAt,
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
		features,
	)
	return err
}

func (r *PgTrainingRunRepository) ListRecent(ctx context.Context, limit int) ([]domain.TrainingRun, error) {
	if limit <= 0 {
		limit = defaultRunLimit
	}
	const query = `
		SELECT id, trained_at, precision, recall, f1, auc, cv_mean, cv_std, applications, positives, test_size, threshold, features
		FROM training_runs
		ORDER BY trained_at DESC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRuns(rows)
}

func scanRuns(rows pgxRows) ([]domain.TrainingRun, error) {
	runs := []domain.TrainingRun{}
	for rows.Next() {
		var run domain.TrainingRun
		if err := rows.Scan(
			&run.ID,
			&run.TrainedAt,
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
			&run.Features,
		); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// pgxRows es la parte de pgx.Rows que usa el escaneo; facilita los tests.
type pgxRows interface {
	Next() bool
	Scan(...interface{}) error
	Err() error
	Close()
}

// MemoryTrainingRunRepository guarda el historial en memoria cuando no hay base configurada.
type MemoryTrainingRunRepository struct {
	mu   sync.Mutex
	runs []domain.TrainingRun
}

func NewMemoryTrainingRunRepository() *MemoryTrainingRunRepository {
	return &MemoryTrainingRunRepository{}
}

func (r *MemoryTrainingRunRepository) Create(_ context.Context, run domain.TrainingRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.runs {
		if existing.ID == run.ID {
			return nil
		}
	}
	r.runs = append(r.runs, run)
	return nil
}

func (r *MemoryTrainingRunRepository) ListRecent(_ context.Context, limit int) ([]domain.TrainingRun, error) {
	if limit <= 0 {
		limit = defaultRunLimit
	}
	r.mu.Lock()
	out := append([]domain.TrainingRun(nil), r.runs...)
	r.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].TrainedAt.After(out[j].TrainedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

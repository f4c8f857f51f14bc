package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"decision-ai/internal/artifact"
	"decision-ai/internal/config"
	"decision-ai/internal/domain"
	"decision-ai/internal/ml"
	"decision-ai/internal/repository"
)

var ErrNoArtifacts = errors.New("model artifacts not available")

// hoursPerFTEYear es la jornada anual usada para expresar horas ahorradas en reclutadores.
const hoursPerFTEYear = 2000

// ArtifactSource da acceso a los artefactos del entrenamiento; artifact.Store lo implementa.
type ArtifactSource interface {
	Stat() (artifact.Version, error)
	LoadResults() (domain.Results, error)
	LoadModel() (*ml.Forest, error)
}

// loadedRun es la última corrida leída de disco.
type loadedRun struct {
	version artifact.Version
	runID   string
	trees   int
}

// DashboardService arma las vistas del dashboard a partir de los artefactos del entrenamiento.
// Los archivos en disco mandan: el cache solo se usa para la corrida que se leyó de ellos.
type DashboardService struct {
	logger           *zap.Logger
	source           ArtifactSource
	cache            ResultsCache
	runs             repository.TrainingRunRepository
	impact           config.ImpactAssumptions
	defaultThreshold float64

	mu     sync.Mutex
	loaded loadedRun
}

func NewDashboardService(
	logger *zap.Logger,
	source ArtifactSource,
	cache ResultsCache,
	runs repository.TrainingRunRepository,
	impact config.ImpactAssumptions,
	defaultThreshold float64,
) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cache == nil {
		cache = NewMemoryResultsCache(time.Minute)
	}
	return &DashboardService{
		logger:           logger,
		source:           source,
		cache:            cache,
		runs:             runs,
		impact:           impact,
		defaultThreshold: ClampThreshold(defaultThreshold),
	}
}

// DefaultThreshold es el umbral usado cuando la petición no indica otro.
func (s *DashboardService) DefaultThreshold() float64 {
	return s.defaultThreshold
}

// Results devuelve el último paquete. Sin model.json o results.json devuelve ErrNoArtifacts
// aunque el cache tenga datos.
func (s *DashboardService) Results(ctx context.Context) (domain.Results, error) {
	version, err := s.source.Stat()
	if err != nil {
		return domain.Results{}, fmt.Errorf("%w: %w", ErrNoArtifacts, err)
	}

	current := s.current()
	if current.runID != "" && current.version == version {
		results, ok, err := s.cache.GetResults(ctx)
		if err != nil {
			s.logger.Warn("results cache read failed", zap.Error(err))
		}
		if ok && results.RunID == current.runID && len(results.YTest) > 0 {
			return results, nil
		}
	}
	return s.reload(ctx, version)
}

func (s *DashboardService) current() loadedRun {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

func (s *DashboardService) reload(ctx context.Context, version artifact.Version) (domain.Results, error) {
	model, err := s.source.LoadModel()
	if err != nil {
		return domain.Results{}, fmt.Errorf("%w: %w", ErrNoArtifacts, err)
	}
	if len(model.Trees) == 0 {
		return domain.Results{}, fmt.Errorf("%w: model has no trees", ErrNoArtifacts)
	}
	results, err := s.source.LoadResults()
	if err != nil {
		return domain.Results{}, fmt.Errorf("%w: %w", ErrNoArtifacts, err)
	}
	if len(results.YTest) != len(results.YProba) {
		return domain.Results{}, fmt.Errorf("%w: %d labels vs %d scores", ErrNoArtifacts, len(results.YTest), len(results.YProba))
	}
	if len(results.Features) > 0 && model.NFeatures != len(results.Features) {
		return domain.Results{}, fmt.Errorf("%w: model expects %d features, results list %d", ErrNoArtifacts, model.NFeatures, len(results.Features))
	}

	s.mu.Lock()
	s.loaded = loadedRun{version: version, runID: results.RunID, trees: len(model.Trees)}
	s.mu.Unlock()
	s.logger.Info("model artifacts loaded", zap.String("run_id", results.RunID), zap.Int("trees", len(model.Trees)))

	if err := s.cache.SetResults(ctx, results); err != nil {
		s.logger.Warn("results cache write failed", zap.Error(err))
	}
	return results, nil
}

// ClampThreshold lleva el umbral a [0,1]; NaN vuelve a 0.5.
func ClampThreshold(th float64) float64 {
	if math.IsNaN(th) {
		return 0.5
	}
	return math.Min(1, math.Max(0, th))
}

func (s *DashboardService) report(ctx context.Context, results domain.Results, threshold float64) (ml.Report, error) {
	report, ok, err := s.cache.GetReport(ctx, results.RunID, threshold)
	if err != nil {
		s.logger.Warn("report cache read failed", zap.Error(err))
	}
	if ok {
		return report, nil
	}
	report, err = ml.ReportAt(results.YTest, results.YProba, threshold)
	if err != nil {
		return ml.Report{}, err
	}
	if err := s.cache.SetReport(ctx, results.RunID, report); err != nil {
		s.logger.Warn("report cache write failed", zap.Error(err))
	}
	return report, nil
}

// Overview es la pestaña de resultados a un umbral dado.
type Overview struct {
	RunID        string                 `json:"run_id"`
	TrainedAt    time.Time              `json:"trained_at"`
	Threshold    float64                `json:"threshold"`
	Metrics      domain.Metrics         `json:"metrics"`
	Confusion    domain.ConfusionMatrix `json:"confusion_matrix"`
	Evaluated    int                    `json:"evaluated"`
	Correct      int                    `json:"correct"`
	Errors       int                    `json:"errors"`
	CorrectShare float64                `json:"correct_share"`
	ErrorShare   float64                `json:"error_share"`
}

func (s *DashboardService) Overview(ctx context.Context, threshold float64) (Overview, error) {
	results, err := s.Results(ctx)
	if err != nil {
		return Overview{}, err
	}
	threshold = ClampThreshold(threshold)
	report, err := s.report(ctx, results, threshold)
	if err != nil {
		return Overview{}, err
	}
	cm := report.Confusion
	total := cm.Total()
	ov := Overview{
		RunID:     results.RunID,
		TrainedAt: results.TrainedAt,
		Threshold: threshold,
		Metrics:   report.Metrics,
		Confusion: cm,
		Evaluated: total,
		Correct:   cm.Correct(),
		Errors:    total - cm.Correct(),
	}
	if total > 0 {
		ov.CorrectShare = float64(ov.Correct) / float64(total)
		ov.ErrorShare = float64(ov.Errors) / float64(total)
	}
	return ov, nil
}

// Distribution son los histogramas de scores separados por resultado real.
type Distribution struct {
	Threshold float64           `json:"threshold"`
	Hired     []ml.HistogramBin `json:"hired"`
	NotHired  []ml.HistogramBin `json:"not_hired"`
}

func (s *DashboardService) Distribution(ctx context.Context, threshold float64, bins int) (Distribution, error) {
	results, err := s.Results(ctx)
	if err != nil {
		return Distribution{}, err
	}
	var hired, notHired []float64
	for i, label := range results.YTest {
		if label == 1 {
			hired = append(hired, results.YProba[i])
		} else {
			notHired = append(notHired, results.YProba[i])
		}
	}
	return Distribution{
		Threshold: ClampThreshold(threshold),
		Hired:     ml.ScoreHistogram(hired, bins),
		NotHired:  ml.ScoreHistogram(notHired, bins),
	}, nil
}

// ScreeningStats compara la revisión manual con la recomendada por el modelo.
type ScreeningStats struct {
	Candidates int     `json:"candidates"`
	Good       int     `json:"good"`
	HitRate    float64 `json:"hit_rate"`
}

// Impact es la pestaña de impacto de negocio.
type Impact struct {
	Threshold             float64        `json:"threshold"`
	Manual                ScreeningStats `json:"manual"`
	WithModel             ScreeningStats `json:"with_model"`
	Reduction             float64        `json:"reduction"`
	Lift                  float64        `json:"lift"`
	DatasetCandidates     int            `json:"dataset_candidates"`
	ProjectedRecommended  int            `json:"projected_recommended"`
	ManualHours           float64        `json:"manual_hours_per_position"`
	ModelHours            float64        `json:"model_hours_per_position"`
	HoursSavedPerPosition float64        `json:"hours_saved_per_position"`
	TimeReduction         float64        `json:"time_reduction"`
	ManualCost            float64        `json:"manual_cost_per_position"`
	ModelCost             float64        `json:"model_cost_per_position"`
	SavingsPerPosition    float64        `json:"savings_per_position"`
	YearlySavings         float64        `json:"yearly_savings"`
	YearlyHoursSaved      float64        `json:"yearly_hours_saved"`
	RecruitersEquivalent  float64        `json:"recruiters_equivalent"`
}

func (s *DashboardService) Impact(ctx context.Context, threshold float64) (Impact, error) {
	results, err := s.Results(ctx)
	if err != nil {
		return Impact{}, err
	}
	threshold = ClampThreshold(threshold)
	report, err := s.report(ctx, results, threshold)
	if err != nil {
		return Impact{}, err
	}
	return computeImpact(report, results.Dataset.Applications, s.impact), nil
}

func computeImpact(report ml.Report, datasetCandidates int, a config.ImpactAssumptions) Impact {
	cm := report.Confusion
	total := cm.Total()
	recommended := cm.TP() + cm.FP()

	imp := Impact{
		Threshold: report.Threshold,
		Manual: ScreeningStats{
			Candidates: total,
			Good:       cm.TP() + cm.FN(),
		},
		WithModel: ScreeningStats{
			Candidates: recommended,
			Good:       cm.TP(),
			HitRate:    report.Metrics.Precision,
		},
		DatasetCandidates: datasetCandidates,
	}
	if total > 0 {
		imp.Manual.HitRate = float64(imp.Manual.Good) / float64(total)
		imp.Reduction = 1 - float64(recommended)/float64(total)
		imp.ProjectedRecommended = int(math.Round(float64(datasetCandidates) * float64(recommended) / float64(total)))
	}
	if imp.Manual.HitRate > 0 {
		imp.Lift = imp.WithModel.HitRate / imp.Manual.HitRate
	}

	imp.ManualHours = a.ManualHoursPerPosition
	imp.ModelHours = a.ModelMinutesPerPosition / 60
	imp.HoursSavedPerPosition = math.Max(0, imp.ManualHours-imp.ModelHours)
	if imp.ManualHours > 0 {
		imp.TimeReduction = imp.HoursSavedPerPosition / imp.ManualHours
	}
	imp.ManualCost = imp.ManualHours * a.HourlyCost
	imp.ModelCost = imp.ModelHours * a.HourlyCost
	imp.SavingsPerPosition = imp.ManualCost - imp.ModelCost
	positionsPerYear := float64(a.PositionsPerMonth * 12)
	imp.YearlySavings = imp.SavingsPerPosition * positionsPerYear
	imp.YearlyHoursSaved = imp.HoursSavedPerPosition * positionsPerYear
	imp.RecruitersEquivalent = imp.YearlyHoursSaved / hoursPerFTEYear
	return imp
}

// About describe el modelo entrenado. ModelTrees sale del model.json cargado.
type About struct {
	RunID      string                `json:"run_id"`
	TrainedAt  time.Time             `json:"trained_at"`
	Features   []string              `json:"features"`
	Threshold  float64               `json:"threshold"`
	CV         domain.CVScores       `json:"cv"`
	Dataset    domain.DatasetSummary `json:"dataset"`
	Params     domain.ModelParams    `json:"params"`
	ModelTrees int                   `json:"model_trees"`
}

func (s *DashboardService) About(ctx context.Context) (About, error) {
	results, err := s.Results(ctx)
	if err != nil {
		return About{}, err
	}
	return About{
		RunID:      results.RunID,
		TrainedAt:  results.TrainedAt,
		Features:   results.Features,
		Threshold:  results.Threshold,
		CV:         results.CV,
		Dataset:    results.Dataset,
		Params:     results.Params,
		ModelTrees: s.current().trees,
	}, nil
}

// History lista las corridas recientes; sin repositorio devuelve una lista vacía.
func (s *DashboardService) History(ctx context.Context, limit int) ([]domain.TrainingRun, error) {
	if s.runs == nil {
		return []domain.TrainingRun{}, nil
	}
	return s.runs.ListRecent(ctx, limit)
}

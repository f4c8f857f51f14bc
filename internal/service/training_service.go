package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"decision-ai/internal/artifact"
	"decision-ai/internal/config"
	"decision-ai/internal/dataset"
	"decision-ai/internal/domain"
	"decision-ai/internal/email"
	"decision-ai/internal/ml"
	"decision-ai/internal/repository"
)

// TrainingOptions es lo que el pipeline toma de la configuración.
type TrainingOptions struct {
	DataDir   string
	Params    config.TrainParams
	Skills    []string
	Threshold float64
}

// TrainingService ejecuta el pipeline completo: carga, features, balanceo, ajuste y evaluación.
type TrainingService struct {
	logger *zap.Logger
	opts   TrainingOptions
	store  *artifact.Store
	runs   repository.TrainingRunRepository
	cache  ResultsCache
	mailer email.Sender
	mailTo []string
	now    func() time.Time
}

// NewTrainingService crea el servicio; runs y cache son opcionales.
func NewTrainingService(
	logger *zap.Logger,
	opts TrainingOptions,
	store *artifact.Store,
	runs repository.TrainingRunRepository,
	cache ResultsCache,
) *TrainingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrainingService{
		logger: logger,
		opts:   opts,
		store:  store,
		runs:   runs,
		cache:  cache,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithReportEmail envía un resumen de cada corrida a los destinatarios indicados.
func (s *TrainingService) WithReportEmail(sender email.Sender, to []string) *TrainingService {
	s.mailer = sender
	s.mailTo = to
	return s
}

// Run entrena, evalúa y guarda los tres artefactos. Devuelve dataset.ErrInsufficientData
// (envuelto) cuando no hay filas o positivos para entrenar.
func (s *TrainingService) Run(ctx context.Context) (domain.Results, error) {
	p := s.opts.Params

	s.logger.Info("[1/5] loading data", zap.String("dir", s.opts.DataDir))
	src, err := dataset.Load(s.opts.DataDir)
	if err != nil {
		return domain.Results{}, fmt.Errorf("load data: %w", err)
	}
	s.logger.Info("data loaded",
		zap.Int("jobs", len(src.Jobs)),
		zap.Int("jobs_with_prospects", len(src.Prospects)),
		zap.Int("applicants", len(src.Applicants)),
		zap.Int("skipped", src.Skipped),
	)

	s.logger.Info("[2/5] flattening prospects")
	rows, stats := dataset.Flatten(src.Prospects)
	summary := dataset.Summarize(src, rows, stats)
	s.logger.Info("prospects flattened",
		zap.Int("applications", summary.Applications),
		zap.Int("unique_applicants", summary.UniqueApplicants),
		zap.Int("jobs_with_applicants", summary.JobsWithApplicants),
		zap.Int("missing_postings", summary.MissingPostings),
		zap.Float64("hire_rate", summary.HireRate),
	)

	s.logger.Info("[3/5] building features")
	fs, err := dataset.BuildFeatures(rows, dataset.ResumeIndex(src.Applicants), s.opts.Skills)
	if err != nil {
		return domain.Results{}, err
	}
	s.logger.Info("features built",
		zap.Strings("features", fs.Names),
		zap.Int("rows", len(fs.X)),
		zap.Int("positives", fs.Positives()),
	)

	s.logger.Info("[4/5] training model")
	trainIdx, testIdx, err := ml.StratifiedSplit(fs.Y, p.TestSize, ml.NewRand(p.RandomSeed, 0))
	if err != nil {
		return domain.Results{}, fmt.Errorf("split: %w", err)
	}
	xTrain, yTrain := ml.TakeRows(fs.X, trainIdx), ml.TakeLabels(fs.Y, trainIdx)
	xTest, yTest := ml.TakeRows(fs.X, testIdx), ml.TakeLabels(fs.Y, testIdx)
	s.logger.Info("split done",
		zap.Int("train", len(yTrain)),
		zap.Float64("train_positive_rate", ml.PositiveRate(yTrain)),
		zap.Int("test", len(yTest)),
		zap.Float64("test_positive_rate", ml.PositiveRate(yTest)),
	)

	xBal, yBal, err := ml.SMOTE{K: p.SMOTEK}.Resample(xTrain, yTrain, ml.NewRand(p.RandomSeed, 1))
	if err != nil {
		return domain.Results{}, fmt.Errorf("smote: %w", err)
	}
	s.logger.Info("smote applied", zap.Int("balanced", len(yBal)), zap.Float64("positive_rate", ml.PositiveRate(yBal)))

	scaler := &ml.StandardScaler{}
	xBalScaled, err := scaler.FitTransform(xBal)
	if err != nil {
		return domain.Results{}, fmt.Errorf("scale train: %w", err)
	}
	xTestScaled, err := scaler.Transform(xTest)
	if err != nil {
		return domain.Results{}, fmt.Errorf("scale test: %w", err)
	}

	forestParams := ml.ForestParams{
		NTrees:          p.NTrees,
		MaxDepth:        p.MaxDepth,
		MinSamplesSplit: p.MinSamplesSplit,
		Balanced:        true,
		Seed:            p.RandomSeed,
		Workers:         p.Workers,
	}
	model := ml.NewForest(forestParams)
	if err := model.Fit(ctx, xBalScaled, yBal); err != nil {
		return domain.Results{}, fmt.Errorf("fit: %w", err)
	}
	s.logger.Info("model trained", zap.Int("trees", len(model.Trees)), zap.Int("max_features", model.Params.MaxFeatures))

	cv, err := ml.CrossValidateF1(ctx, xBalScaled, yBal,
		ml.StratifiedKFold{K: p.CVFolds, Shuffle: true, Seed: p.RandomSeed},
		func() ml.Classifier { return ml.NewForest(forestParams) },
		s.opts.Threshold,
	)
	if err != nil {
		return domain.Results{}, fmt.Errorf("cross-validate: %w", err)
	}
	s.logger.Info("cross-validation done", zap.Float64("f1_mean", cv.Mean), zap.Float64("f1_std", cv.Std))

	s.logger.Info("[5/5] evaluating")
	proba, err := model.PredictProba(xTestScaled)
	if err != nil {
		return domain.Results{}, fmt.Errorf("predict: %w", err)
	}
	report, err := ml.ReportAt(yTest, proba, s.opts.Threshold)
	if err != nil {
		return domain.Results{}, fmt.Errorf("evaluate: %w", err)
	}

	summary.TrainSize = len(yTrain)
	summary.TestSize = len(yTest)
	summary.BalancedSize = len(yBal)
	results := domain.Results{
		RunID:           uuid.NewString(),
		TrainedAt:       s.now(),
		Features:        fs.Names,
		Threshold:       s.opts.Threshold,
		XTest:           xTestScaled,
		YTest:           yTest,
		YPred:           ml.Classify(proba, s.opts.Threshold),
		YProba:          proba,
		Metrics:         report.Metrics,
		ConfusionMatrix: report.Confusion,
		CV:              cv,
		Dataset:         summary,
		Params: domain.ModelParams{
			RandomSeed:      p.RandomSeed,
			TestSize:        p.TestSize,
			NTrees:          model.Params.NTrees,
			MaxDepth:        model.Params.MaxDepth,
			MinSamplesSplit: model.Params.MinSamplesSplit,
			MaxFeatures:     model.Params.MaxFeatures,
			CVFolds:         p.CVFolds,
			SMOTEK:          p.SMOTEK,
		},
	}

	if err := s.store.SaveModel(model); err != nil {
		return domain.Results{}, fmt.Errorf("save model: %w", err)
	}
	if err := s.store.SaveScaler(scaler); err != nil {
		return domain.Results{}, fmt.Errorf("save scaler: %w", err)
	}
	if err := s.store.SaveResults(results); err != nil {
		return domain.Results{}, fmt.Errorf("save results: %w", err)
	}
	s.logger.Info("artifacts saved", zap.String("dir", s.store.Dir), zap.String("run_id", results.RunID))

	s.publish(ctx, results)
	return results, nil
}

// publish registra la corrida en los destinos opcionales; sus fallas no invalidan el entrenamiento.
func (s *TrainingService) publish(ctx context.Context, results domain.Results) {
	if s.runs != nil {
		if err := s.runs.Create(ctx, domain.RunFromResults(results)); err != nil {
			s.logger.Warn("record training run failed", zap.Error(err))
		}
	}
	if s.cache != nil {
		if err := s.cache.SetResults(ctx, results); err != nil {
			s.logger.Warn("publish results to cache failed", zap.Error(err))
		}
	}
	if s.mailer != nil && len(s.mailTo) > 0 {
		if err := s.mailer.Send(ctx, runReportMessage(s.mailTo, results)); err != nil {
			s.logger.Warn("send training report failed", zap.Error(err))
		}
	}
}

func runReportMessage(to []string, r domain.Results) email.Message {
	cm := r.ConfusionMatrix
	var b strings.Builder
	fmt.Fprintf(&b, "Training run %s finished at %s.\n\n", r.RunID, r.TrainedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Applications: %d (%d hires, %.1f%%)\n", r.Dataset.Applications, r.Dataset.Positives, r.Dataset.HireRate*100)
	fmt.Fprintf(&b, "Held-out set: %d applications, threshold %.2f\n\n", len(r.YTest), r.Threshold)
	fmt.Fprintf(&b, "Precision: %.4f\nRecall:    %.4f\nF1:        %.4f\nROC-AUC:   %.4f\n", r.Metrics.Precision, r.Metrics.Recall, r.Metrics.F1, r.Metrics.AUC)
	fmt.Fprintf(&b, "CV F1:     %.4f (+/- %.4f)\n\n", r.CV.Mean, r.CV.Std)
	fmt.Fprintf(&b, "Confusion matrix: TN=%d FP=%d FN=%d TP=%d\n", cm.TN(), cm.FP(), cm.FN(), cm.TP())
	return email.Message{
		To:      to,
		Subject: fmt.Sprintf("Decision AI training run %s: F1 %.3f", r.RunID, r.Metrics.F1),
		Body:    b.String(),
	}
}

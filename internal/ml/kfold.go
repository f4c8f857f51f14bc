package ml

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"decision-ai/internal/domain"
)

// StratifiedKFold reparte cada clase en K folds de forma circular, opcionalmente barajada.
type StratifiedKFold struct {
	K       int
	Shuffle bool
	Seed    uint64
}

// Split devuelve los índices de prueba de cada fold.
func (s StratifiedKFold) Split(y []int) ([][]int, error) {
	if s.K < 2 {
		return nil, fmt.Errorf("k-fold needs at least 2 folds, got %d", s.K)
	}
	if len(y) < s.K {
		return nil, fmt.Errorf("cannot split %d samples into %d folds", len(y), s.K)
	}
	classes, err := classIndices(y)
	if err != nil {
		return nil, err
	}
	rng := NewRand(s.Seed, 0)
	folds := make([][]int, s.K)
	// el offset evita que la clase minoritaria caiga siempre en los primeros folds
	offset := 0
	for _, idx := range classes {
		idx = append([]int(nil), idx...)
		if s.Shuffle {
			rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		}
		for n, i := range idx {
			f := (n + offset) % s.K
			folds[f] = append(folds[f], i)
		}
		offset += len(idx)
	}
	return folds, nil
}

// CrossValidateF1 entrena un modelo nuevo por fold y devuelve el F1 de cada uno.
func CrossValidateF1(
	ctx context.Context,
	X [][]float64,
	y []int,
	kfold StratifiedKFold,
	newModel func() Classifier,
	threshold float64,
) (domain.CVScores, error) {
	if _, err := checkShape(X, y); err != nil {
		return domain.CVScores{}, err
	}
	folds, err := kfold.Split(y)
	if err != nil {
		return domain.CVScores{}, err
	}

	scores := make([]float64, 0, len(folds))
	inTest := make([]bool, len(y))
	for n, testIdx := range folds {
		clear(inTest)
		for _, i := range testIdx {
			inTest[i] = true
		}
		trainIdx := make([]int, 0, len(y)-len(testIdx))
		for i := range y {
			if !inTest[i] {
				trainIdx = append(trainIdx, i)
			}
		}

		model := newModel()
		if err := model.Fit(ctx, TakeRows(X, trainIdx), TakeLabels(y, trainIdx)); err != nil {
			return domain.CVScores{}, fmt.Errorf("fold %d: %w", n+1, err)
		}
		proba, err := model.PredictProba(TakeRows(X, testIdx))
		if err != nil {
			return domain.CVScores{}, fmt.Errorf("fold %d: %w", n+1, err)
		}
		cm, err := Confusion(TakeLabels(y, testIdx), Classify(proba, threshold))
		if err != nil {
			return domain.CVScores{}, fmt.Errorf("fold %d: %w", n+1, err)
		}
		scores = append(scores, F1(cm))
	}

	mean, variance := stat.PopMeanVariance(scores, nil)
	return domain.CVScores{Folds: scores, Mean: mean, Std: math.Sqrt(variance)}, nil
}

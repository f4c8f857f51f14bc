package ml

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

var ErrNotFitted = errors.New("model not fitted")

// Classifier es lo mínimo que necesita la validación cruzada.
type Classifier interface {
	Fit(ctx context.Context, X [][]float64, y []int) error
	PredictProba(X [][]float64) ([]float64, error)
}

// ForestParams son los hiperparámetros del random forest.
type ForestParams struct {
	NTrees          int    `json:"n_trees"`
	MaxDepth        int    `json:"max_depth"`
	MinSamplesSplit int    `json:"min_samples_split"`
	MaxFeatures     int    `json:"max_features"` // 0 = sqrt(n_features)
	Balanced        bool   `json:"balanced"`     // pesos n/(2*n_clase)
	Seed            uint64 `json:"seed"`
	Workers         int    `json:"-"`
}

// Forest es un random forest de árboles CART con bootstrap.
type Forest struct {
	Params    ForestParams `json:"params"`
	NFeatures int          `json:"n_features"`
	Trees     []Tree       `json:"trees"`
}

func NewForest(p ForestParams) *Forest {
	if p.NTrees <= 0 {
		p.NTrees = 100
	}
	if p.MaxDepth <= 0 {
		p.MaxDepth = 10
	}
	if p.MinSamplesSplit < 2 {
		p.MinSamplesSplit = 2
	}
	return &Forest{Params: p}
}

// Fit entrena los árboles en paralelo. Cada árbol usa su propio generador,
// así que el resultado no depende del número de workers.
func (f *Forest) Fit(ctx context.Context, X [][]float64, y []int) error {
	width, err := checkShape(X, y)
	if err != nil {
		return err
	}
	classes, err := classIndices(y)
	if err != nil {
		return err
	}

	maxFeatures := f.Params.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = max(1, int(math.Sqrt(float64(width))))
	}
	if maxFeatures > width {
		maxFeatures = width
	}

	classWeight := [2]float64{1, 1}
	if f.Params.Balanced {
		for c := range classWeight {
			if len(classes[c]) > 0 {
				classWeight[c] = float64(len(y)) / (2 * float64(len(classes[c])))
			}
		}
	}

	workers := f.Params.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	trees := make([]Tree, f.Params.NTrees)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for t := range trees {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := NewRand(f.Params.Seed, uint64(t)+1)

			counts := make([]float64, len(y))
			for n := 0; n < len(y); n++ {
				counts[rng.IntN(len(y))]++
			}
			w := make([]float64, len(y))
			idx := make([]int, 0, len(y))
			for i, c := range counts {
				if c == 0 {
					continue
				}
				w[i] = c * classWeight[y[i]]
				idx = append(idx, i)
			}

			b := &treeBuilder{
				X:               X,
				y:               y,
				w:               w,
				maxDepth:        f.Params.MaxDepth,
				minSamplesSplit: f.Params.MinSamplesSplit,
				maxFeatures:     maxFeatures,
				rng:             rng,
			}
			trees[t] = b.fit(idx)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("fit forest: %w", err)
	}

	f.Params.MaxFeatures = maxFeatures
	f.NFeatures = width
	f.Trees = trees
	return nil
}

// PredictProba promedia la probabilidad positiva de todos los árboles.
func (f *Forest) PredictProba(X [][]float64) ([]float64, error) {
	if len(f.Trees) == 0 {
		return nil, ErrNotFitted
	}
	out := make([]float64, len(X))
	for i, row := range X {
		if len(row) != f.NFeatures {
			return nil, fmt.Errorf("%w: row %d has %d columns, model expects %d", ErrShapeMismatch, i, len(row), f.NFeatures)
		}
		sum := 0.0
		for t := range f.Trees {
			sum += f.Trees[t].Proba(row)
		}
		out[i] = sum / float64(len(f.Trees))
	}
	return out, nil
}

// Predict clasifica con el umbral dado.
func (f *Forest) Predict(X [][]float64, threshold float64) ([]int, error) {
	proba, err := f.PredictProba(X)
	if err != nil {
		return nil, err
	}
	return Classify(proba, threshold), nil
}

// Classify marca como positivo todo score estrictamente mayor al umbral.
func Classify(scores []float64, threshold float64) []int {
	out := make([]int, len(scores))
	for i, s := range scores {
		if s > threshold {
			out[i] = 1
		}
	}
	return out
}

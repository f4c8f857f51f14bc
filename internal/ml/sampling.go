package ml

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
)

var (
	ErrEmptyDataset   = errors.New("empty dataset")
	ErrNonBinaryLabel = errors.New("labels must be 0 or 1")
	ErrShapeMismatch  = errors.New("shape mismatch")
)

// NewRand crea un generador determinista; stream separa secuencias derivadas de la misma semilla.
func NewRand(seed, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, stream))
}

// classIndices separa los índices por clase (0 y 1).
func classIndices(y []int) ([2][]int, error) {
	var out [2][]int
	for i, label := range y {
		if label != 0 && label != 1 {
			return out, fmt.Errorf("%w: index %d has %d", ErrNonBinaryLabel, i, label)
		}
		out[label] = append(out[label], i)
	}
	return out, nil
}

func checkShape(X [][]float64, y []int) (int, error) {
	if len(X) == 0 {
		return 0, ErrEmptyDataset
	}
	if len(X) != len(y) {
		return 0, fmt.Errorf("%w: %d rows vs %d labels", ErrShapeMismatch, len(X), len(y))
	}
	width := len(X[0])
	for i, row := range X {
		if len(row) != width {
			return 0, fmt.Errorf("%w: row %d has %d columns, expected %d", ErrShapeMismatch, i, len(row), width)
		}
	}
	return width, nil
}

// StratifiedSplit divide en entrenamiento y prueba manteniendo la proporción de cada clase.
// Cada clase aporta round(n*testSize) muestras a prueba, al menos una si tiene dos o más.
func StratifiedSplit(y []int, testSize float64, rng *rand.Rand) (train, test []int, err error) {
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, fmt.Errorf("test size must be in (0,1), got %v", testSize)
	}
	if len(y) == 0 {
		return nil, nil, ErrEmptyDataset
	}
	classes, err := classIndices(y)
	if err != nil {
		return nil, nil, err
	}
	for _, idx := range classes {
		if len(idx) == 0 {
			continue
		}
		idx = append([]int(nil), idx...)
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

		nTest := int(math.Round(float64(len(idx)) * testSize))
		if nTest == 0 && len(idx) >= 2 {
			nTest = 1
		}
		if nTest >= len(idx) && len(idx) >= 2 {
			nTest = len(idx) - 1
		}
		test = append(test, idx[:nTest]...)
		train = append(train, idx[nTest:]...)
	}
	if len(train) == 0 || len(test) == 0 {
		return nil, nil, fmt.Errorf("split of %d samples left an empty side", len(y))
	}
	rng.Shuffle(len(train), func(i, j int) { train[i], train[j] = train[j], train[i] })
	rng.Shuffle(len(test), func(i, j int) { test[i], test[j] = test[j], test[i] })
	return train, test, nil
}

// TakeRows copia las filas indicadas.
func TakeRows(X [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, j := range idx {
		out[i] = append([]float64(nil), X[j]...)
	}
	return out
}

// TakeLabels copia las etiquetas indicadas.
func TakeLabels(y []int, idx []int) []int {
	out := make([]int, len(idx))
	for i, j := range idx {
		out[i] = y[j]
	}
	return out
}

// PositiveRate es la fracción de etiquetas positivas.
func PositiveRate(y []int) float64 {
	if len(y) == 0 {
		return 0
	}
	pos := 0
	for _, v := range y {
		pos += v
	}
	return float64(pos) / float64(len(y))
}

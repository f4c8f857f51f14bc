package ml

import (
	"cmp"
	"errors"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/floats"
)

var ErrTooFewMinority = errors.New("too few minority samples to oversample")

const defaultSMOTEK = 5

// SMOTE sobremuestrea la clase minoritaria interpolando entre vecinos cercanos
// hasta que ambas clases tengan el mismo tamaño.
type SMOTE struct {
	K int
}

// Resample devuelve las filas originales seguidas de las sintéticas.
func (s SMOTE) Resample(X [][]float64, y []int, rng *rand.Rand) ([][]float64, []int, error) {
	if _, err := checkShape(X, y); err != nil {
		return nil, nil, err
	}
	classes, err := classIndices(y)
	if err != nil {
		return nil, nil, err
	}

	minority, majority := 1, 0
	if len(classes[1]) > len(classes[0]) {
		minority, majority = 0, 1
	}

	outX := TakeRows(X, allIndices(len(X)))
	outY := append([]int(nil), y...)

	need := len(classes[majority]) - len(classes[minority])
	if need == 0 {
		return outX, outY, nil
	}

	minIdx := classes[minority]
	if len(minIdx) < 2 {
		return nil, nil, ErrTooFewMinority
	}
	k := s.K
	if k <= 0 {
		k = defaultSMOTEK
	}
	if k > len(minIdx)-1 {
		k = len(minIdx) - 1
	}

	neighbors := nearestNeighbors(X, minIdx, k)
	for n := 0; n < need; n++ {
		i := rng.IntN(len(minIdx))
		nn := neighbors[i][rng.IntN(k)]
		base, other := X[minIdx[i]], X[minIdx[nn]]
		gap := rng.Float64()

		sample := make([]float64, len(base))
		for j := range base {
			sample[j] = base[j] + gap*(other[j]-base[j])
		}
		outX = append(outX, sample)
		outY = append(outY, minority)
	}
	return outX, outY, nil
}

// nearestNeighbors devuelve, para cada posición de idx, las k posiciones más cercanas (sin sí misma).
func nearestNeighbors(X [][]float64, idx []int, k int) [][]int {
	type candidate struct {
		pos  int
		dist float64
	}
	out := make([][]int, len(idx))
	cands := make([]candidate, 0, len(idx)-1)
	for i, a := range idx {
		cands = cands[:0]
		for j, b := range idx {
			if i == j {
				continue
			}
			cands = append(cands, candidate{pos: j, dist: floats.Distance(X[a], X[b], 2)})
		}
		slices.SortStableFunc(cands, func(p, q candidate) int { return cmp.Compare(p.dist, q.dist) })
		nn := make([]int, k)
		for n := 0; n < k; n++ {
			nn[n] = cands[n].pos
		}
		out[i] = nn
	}
	return out
}

func allIndices(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

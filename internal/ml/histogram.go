package ml

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// HistogramBin es un intervalo [Lower, Upper) de scores.
type HistogramBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// ScoreHistogram cuenta scores en bins iguales sobre [0,1]; el último bin incluye 1.
func ScoreHistogram(scores []float64, bins int) []HistogramBin {
	if bins <= 0 {
		bins = 30
	}
	dividers := floats.Span(make([]float64, bins+1), 0, 1)
	out := make([]HistogramBin, bins)
	for i := range out {
		out[i] = HistogramBin{Lower: dividers[i], Upper: dividers[i+1]}
	}
	if len(scores) == 0 {
		return out
	}

	x := make([]float64, len(scores))
	for i, s := range scores {
		if math.IsNaN(s) {
			s = 0
		}
		x[i] = math.Min(1, math.Max(0, s))
	}
	sort.Float64s(x)

	// stat.Histogram excluye el extremo superior; se corre apenas para incluir 1.
	dividers[bins] = math.Nextafter(1, 2)
	counts := stat.Histogram(nil, dividers, x, nil)
	for i, c := range counts {
		out[i].Count = int(c)
	}
	return out
}

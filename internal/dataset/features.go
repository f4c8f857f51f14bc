package dataset

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"decision-ai/internal/domain"
)

var ErrInsufficientData = errors.New("insufficient data to train")

// FeatureSet es la matriz de features con sus etiquetas, alineada con Rows.
type FeatureSet struct {
	Names []string
	X     [][]float64
	Y     []int
	Rows  []domain.Application
}

// Positives cuenta las filas contratadas.
func (fs FeatureSet) Positives() int {
	n := 0
	for _, v := range fs.Y {
		n += v
	}
	return n
}

// FeatureNames devuelve los nombres de columna en el orden de BuildFeatures.
func FeatureNames(skills []string) []string {
	names := []string{"total_applications", "success_rate", "application_order", "cv_length"}
	for _, s := range skills {
		names = append(names, "has_"+s)
	}
	return names
}

// BuildFeatures calcula las features de comportamiento y de CV de cada fila.
// Falla con ErrInsufficientData si no hay filas o ninguna es positiva.
func BuildFeatures(rows []domain.Application, resumes map[int64]string, skills []string) (FeatureSet, error) {
	if len(rows) == 0 {
		return FeatureSet{}, fmt.Errorf("%w: no applications", ErrInsufficientData)
	}

	applications := make(map[int64]int)
	hires := make(map[int64]int)
	for _, r := range rows {
		applications[r.ApplicantID]++
		if r.Hired {
			hires[r.ApplicantID]++
		}
	}

	fs := FeatureSet{
		Names: FeatureNames(skills),
		X:     make([][]float64, len(rows)),
		Y:     make([]int, len(rows)),
		Rows:  rows,
	}
	for i, r := range rows {
		total := applications[r.ApplicantID]
		successRate := 0.0
		if total > 0 {
			successRate = float64(hires[r.ApplicantID]) / float64(total)
		}
		resume := resumes[r.ApplicantID]
		lower := strings.ToLower(resume)

		x := make([]float64, 0, len(fs.Names))
		x = append(x,
			float64(total),
			successRate,
			float64(r.Order),
			float64(utf8.RuneCountInString(resume)),
		)
		for _, s := range skills {
			if strings.Contains(lower, s) {
				x = append(x, 1)
			} else {
				x = append(x, 0)
			}
		}
		for j, v := range x {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				x[j] = 0
			}
		}
		fs.X[i] = x
		fs.Y[i] = r.Label()
	}

	if fs.Positives() == 0 {
		return FeatureSet{}, fmt.Errorf("%w: no hired applications among %d", ErrInsufficientData, len(rows))
	}
	return fs, nil
}

// Summarize arma los conteos del dataset para el reporte.
func Summarize(src *Source, rows []domain.Application, stats FlattenStats) domain.DatasetSummary {
	applicants := make(map[int64]struct{})
	jobs := make(map[int64]struct{})
	positives := 0
	for _, r := range rows {
		applicants[r.ApplicantID] = struct{}{}
		jobs[r.JobID] = struct{}{}
		if r.Hired {
			positives++
		}
	}
	hireRate := 0.0
	if len(rows) > 0 {
		hireRate = float64(positives) / float64(len(rows))
	}
	summary := domain.DatasetSummary{
		ProspectEntries:    stats.ProspectEntries,
		SkippedRecords:     stats.SkippedRecords,
		Applications:       len(rows),
		UniqueApplicants:   len(applicants),
		JobsWithApplicants: len(jobs),
		Positives:          positives,
		HireRate:           hireRate,
	}
	if src != nil {
		summary.Jobs = len(src.Jobs)
		summary.JobsWithProspects = len(src.Prospects)
		summary.Applicants = len(src.Applicants)
		summary.SkippedRecords += src.Skipped
		summary.MissingPostings = MissingPostings(rows, src.Jobs)
	}
	return summary
}

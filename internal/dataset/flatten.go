package dataset

import (
	"cmp"
	"slices"
	"strings"

	"decision-ai/internal/domain"
)

const hiredKeyword = "contratado"

// FlattenStats describe lo que se descartó al aplanar.
type FlattenStats struct {
	Jobs            int
	ProspectEntries int
	SkippedJobs     int
	SkippedRecords  int
}

// Flatten convierte las listas por vacante en filas (vacante, candidato).
// Las vacantes se recorren por id ascendente y cada lista en su orden original,
// de modo que Order es estable entre corridas.
func Flatten(prospects map[string]domain.ProspectList) ([]domain.Application, FlattenStats) {
	type job struct {
		id   int64
		list domain.ProspectList
	}
	var stats FlattenStats
	jobs := make([]job, 0, len(prospects))
	for key, list := range prospects {
		stats.ProspectEntries += len(list.Prospects)
		id, ok := parseID(key)
		if !ok {
			stats.SkippedJobs++
			stats.SkippedRecords += len(list.Prospects)
			continue
		}
		jobs = append(jobs, job{id: id, list: list})
	}
	slices.SortFunc(jobs, func(a, b job) int { return cmp.Compare(a.id, b.id) })
	stats.Jobs = len(jobs)

	rows := make([]domain.Application, 0, stats.ProspectEntries)
	for _, j := range jobs {
		order := 0
		for _, p := range j.list.Prospects {
			applicantID, ok := parseID(string(p.Code))
			if !ok || applicantID <= 0 {
				stats.SkippedRecords++
				continue
			}
			order++
			rows = append(rows, domain.Application{
				JobID:       j.id,
				ApplicantID: applicantID,
				Hired:       IsHired(p),
				AppliedAt:   p.AppliedAt,
				Recruiter:   p.Recruiter,
				Order:       order,
			})
		}
	}
	return rows, stats
}

// IsHired mira si el comentario o la situación mencionan la contratación.
func IsHired(p domain.Prospect) bool {
	return strings.Contains(strings.ToLower(p.Comment), hiredKeyword) ||
		strings.Contains(strings.ToLower(p.Status), hiredKeyword)
}

// ResumeIndex arma el mapa candidato -> texto del CV.
func ResumeIndex(applicants map[int64]domain.Applicant) map[int64]string {
	out := make(map[int64]string, len(applicants))
	for id, a := range applicants {
		out[id] = a.Resume
	}
	return out
}

// MissingPostings cuenta vacantes con candidatos que no aparecen en vagas.json.
func MissingPostings(rows []domain.Application, jobs map[int64]domain.JobPosting) int {
	missing := make(map[int64]struct{})
	for _, r := range rows {
		if _, ok := jobs[r.JobID]; !ok {
			missing[r.JobID] = struct{}{}
		}
	}
	return len(missing)
}

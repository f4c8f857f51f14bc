package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"decision-ai/internal/domain"
)

const (
	JobsFile       = "vagas.json"
	ProspectsFile  = "prospects.json"
	ApplicantsFile = "applicants.json"
)

// Source reúne los tres archivos de entrada ya decodificados.
type Source struct {
	Jobs       map[int64]domain.JobPosting
	Prospects  map[string]domain.ProspectList
	Applicants map[int64]domain.Applicant
	// Skipped cuenta registros malformados descartados al decodificar.
	Skipped int
}

// Load lee vagas.json, prospects.json y applicants.json desde dir.
func Load(dir string) (*Source, error) {
	jobs, skippedJobs, err := LoadJobs(filepath.Join(dir, JobsFile))
	if err != nil {
		return nil, err
	}
	prospects, skippedProspects, err := LoadProspects(filepath.Join(dir, ProspectsFile))
	if err != nil {
		return nil, err
	}
	applicants, skippedApplicants, err := LoadApplicants(filepath.Join(dir, ApplicantsFile))
	if err != nil {
		return nil, err
	}
	return &Source{
		Jobs:       jobs,
		Prospects:  prospects,
		Applicants: applicants,
		Skipped:    skippedJobs + skippedProspects + skippedApplicants,
	}, nil
}

type jobRecord struct {
	BasicInfo struct {
		Title  string `json:"titulo_vaga"`
		Client string `json:"cliente"`
	} `json:"informacoes_basicas"`
}

// LoadJobs decodifica las vacantes; claves no numéricas o registros inválidos se descartan.
func LoadJobs(path string) (map[int64]domain.JobPosting, int, error) {
	raw, err := readObject(path)
	if err != nil {
		return nil, 0, err
	}
	jobs := make(map[int64]domain.JobPosting, len(raw))
	skipped := 0
	for key, value := range raw {
		id, ok := parseID(key)
		if !ok {
			skipped++
			continue
		}
		var rec jobRecord
		if err := json.Unmarshal(value, &rec); err != nil {
			skipped++
			continue
		}
		jobs[id] = domain.JobPosting{ID: id, Title: rec.BasicInfo.Title, Client: rec.BasicInfo.Client}
	}
	return jobs, skipped, nil
}

type prospectListRecord struct {
	Title     string            `json:"titulo"`
	Modality  string            `json:"modalidade"`
	Prospects []json.RawMessage `json:"prospects"`
}

// LoadProspects decodifica las listas de candidatos por vacante. Las claves se
// conservan como vienen: Flatten decide cuáles son ids válidos.
func LoadProspects(path string) (map[string]domain.ProspectList, int, error) {
	raw, err := readObject(path)
	if err != nil {
		return nil, 0, err
	}
	lists := make(map[string]domain.ProspectList, len(raw))
	skipped := 0
	for key, value := range raw {
		var rec prospectListRecord
		if err := json.Unmarshal(value, &rec); err != nil {
			skipped++
			continue
		}
		list := domain.ProspectList{
			Title:     rec.Title,
			Modality:  rec.Modality,
			Prospects: make([]domain.Prospect, 0, len(rec.Prospects)),
		}
		for _, p := range rec.Prospects {
			var prospect domain.Prospect
			if err := json.Unmarshal(p, &prospect); err != nil {
				skipped++
				continue
			}
			list.Prospects = append(list.Prospects, prospect)
		}
		lists[key] = list
	}
	return lists, skipped, nil
}

type applicantRecord struct {
	BasicInfo struct {
		Name string `json:"nome"`
	} `json:"infos_basicas"`
	Resume string `json:"cv_pt"`
}

// LoadApplicants decodifica los CVs indexados por código de candidato.
func LoadApplicants(path string) (map[int64]domain.Applicant, int, error) {
	raw, err := readObject(path)
	if err != nil {
		return nil, 0, err
	}
	applicants := make(map[int64]domain.Applicant, len(raw))
	skipped := 0
	for key, value := range raw {
		id, ok := parseID(key)
		if !ok {
			skipped++
			continue
		}
		var rec applicantRecord
		if err := json.Unmarshal(value, &rec); err != nil {
			skipped++
			continue
		}
		applicants[id] = domain.Applicant{Code: key, Name: rec.BasicInfo.Name, Resume: rec.Resume}
	}
	return applicants, skipped, nil
}

func readObject(path string) (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return raw, nil
}

func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

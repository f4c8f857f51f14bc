package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// JobPosting es una vacante de vagas.json; solo se decodifican los campos que usa el pipeline.
type JobPosting struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Client string `json:"client"`
}

// ProspectList agrupa los candidatos que participaron en una vacante (prospects.json).
type ProspectList struct {
	Title     string     `json:"titulo"`
	Modality  string     `json:"modalidade"`
	Prospects []Prospect `json:"prospects"`
}

type Prospect struct {
	Name       string        `json:"nome"`
	Code       ApplicantCode `json:"codigo"`
	Status     string        `json:"situacao_candidado"` // el typo viene del export original
	AppliedAt  string        `json:"data_candidatura"`
	LastUpdate string        `json:"ultima_atualizacao"`
	Comment    string        `json:"comentario"`
	Recruiter  string        `json:"recrutador"`
}

// ApplicantCode es el código del candidato en prospects.json. Algunos exports lo traen
// como texto y otros como número; ambos se normalizan a texto decimal.
type ApplicantCode string

func (c *ApplicantCode) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = ApplicantCode(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("codigo must be a string or a number: %w", err)
	}
	if i, err := n.Int64(); err == nil {
		*c = ApplicantCode(strconv.FormatInt(i, 10))
		return nil
	}
	// 42.0 vale como 42; cualquier otro decimal queda tal cual y Flatten lo descarta.
	if f, err := n.Float64(); err == nil && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		*c = ApplicantCode(strconv.FormatFloat(f, 'f', 0, 64))
		return nil
	}
	*c = ApplicantCode(n.String())
	return nil
}

// Applicant es el CV de un candidato de applicants.json.
type Applicant struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Resume string `json:"cv_pt"`
}

// Application es una fila aplanada: un candidato dentro de la lista de una vacante.
type Application struct {
	JobID       int64  `json:"job_id"`
	ApplicantID int64  `json:"applicant_id"`
	Hired       bool   `json:"is_hired"`
	AppliedAt   string `json:"applied_at,omitempty"`
	Recruiter   string `json:"recruiter,omitempty"`
	Order       int    `json:"order"` // posición 1-based dentro de la vacante
}

// Label devuelve la clase binaria de la fila.
func (a Application) Label() int {
	if a.Hired {
		return 1
	}
	return 0
}

package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"decision-ai/internal/domain"
)

var skills = []string{"python", "java", "sql", "sap"}

func loadFixture(t *testing.T) *Source {
	t.Helper()
	src, err := Load("testdata")
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	return src
}

func TestLoadSkipsMalformedRecords(t *testing.T) {
	src := loadFixture(t)

	if len(src.Jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(src.Jobs))
	}
	if src.Jobs[10].Title != "Desenvolvedor Python" || src.Jobs[10].Client != "Acme" {
		t.Fatalf("unexpected job 10: %+v", src.Jobs[10])
	}
	if len(src.Prospects) != 5 {
		t.Fatalf("expected 5 prospect lists, got %d", len(src.Prospects))
	}
	if got := len(src.Prospects["40"].Prospects); got != 1 {
		t.Fatalf("expected malformed prospect dropped from job 40, got %d entries", got)
	}
	if len(src.Applicants) != 3 {
		t.Fatalf("expected 3 applicants, got %d", len(src.Applicants))
	}
	if src.Skipped != 3 {
		t.Fatalf("expected 3 skipped records, got %d", src.Skipped)
	}
}

func TestLoadProspectsNumericCodes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prospects.json")
	body := `{"7": {"titulo": "Dev", "prospects": [
		{"nome": "Ana", "codigo": 42, "situacao_candidado": "Contratado pela Decision"},
		{"nome": "Bia", "codigo": 43.0, "situacao_candidado": "Prospect"},
		{"nome": "Caio", "codigo": "44", "situacao_candidado": "Prospect"},
		{"nome": "Duda", "codigo": 4.5, "situacao_candidado": "Prospect"}
	]}}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	lists, skipped, err := LoadProspects(path)
	if err != nil {
		t.Fatalf("load prospects: %v", err)
	}
	if skipped != 0 || len(lists["7"].Prospects) != 4 {
		t.Fatalf("numeric codes should decode, skipped=%d lists=%+v", skipped, lists)
	}

	rows, stats := Flatten(lists)
	if len(rows) != 3 || stats.SkippedRecords != 1 {
		t.Fatalf("expected 3 rows and the fractional code skipped, got %d rows stats=%+v", len(rows), stats)
	}
	if rows[0].ApplicantID != 42 || !rows[0].Hired || rows[1].ApplicantID != 43 || rows[2].ApplicantID != 44 {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(t.TempDir())
	if err == nil || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vagas.json")
	if err := os.WriteFile(path, []byte("[1,2"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := LoadJobs(path); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestFlatten(t *testing.T) {
	src := loadFixture(t)
	rows, stats := Flatten(src.Prospects)

	want := []domain.Application{
		{JobID: 10, ApplicantID: 100, Hired: true, Order: 1},
		{JobID: 10, ApplicantID: 101, Hired: false, Order: 2},
		{JobID: 10, ApplicantID: 102, Hired: true, Order: 3},
		{JobID: 20, ApplicantID: 100, Hired: false, Order: 1},
		{JobID: 20, ApplicantID: 103, Hired: false, Order: 2},
		{JobID: 30, ApplicantID: 101, Hired: false, Order: 1},
		{JobID: 40, ApplicantID: 105, Hired: false, Order: 1},
	}
	if len(rows) != len(want) {
		t.Fatalf("expected %d rows, got %d: %+v", len(want), len(rows), rows)
	}
	for i, w := range want {
		got := rows[i]
		if got.JobID != w.JobID || got.ApplicantID != w.ApplicantID || got.Hired != w.Hired || got.Order != w.Order {
			t.Fatalf("row %d: got %+v want %+v", i, got, w)
		}
	}
	if rows[0].Recruiter != "Rita" || rows[0].AppliedAt != "01-02-2021" {
		t.Fatalf("expected recruiter and date carried over, got %+v", rows[0])
	}

	if stats.ProspectEntries != 10 || stats.SkippedJobs != 1 || stats.SkippedRecords != 3 || stats.Jobs != 4 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if len(rows) > stats.ProspectEntries {
		t.Fatalf("flattened rows (%d) exceed prospect entries (%d)", len(rows), stats.ProspectEntries)
	}
}

func TestIsHired(t *testing.T) {
	cases := []struct {
		name   string
		p      domain.Prospect
		expect bool
	}{
		{"status", domain.Prospect{Status: "Contratado pela Decision"}, true},
		{"comment uppercase", domain.Prospect{Comment: "CONTRATADO"}, true},
		{"neither", domain.Prospect{Status: "Prospect", Comment: "aguardando"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsHired(tc.p); got != tc.expect {
				t.Fatalf("IsHired(%+v)=%v want %v", tc.p, got, tc.expect)
			}
		})
	}
}

func TestBuildFeatures(t *testing.T) {
	src := loadFixture(t)
	rows, _ := Flatten(src.Prospects)
	fs, err := BuildFeatures(rows, ResumeIndex(src.Applicants), skills)
	if err != nil {
		t.Fatalf("build features: %v", err)
	}

	wantNames := []string{"total_applications", "success_rate", "application_order", "cv_length", "has_python", "has_java", "has_sql", "has_sap"}
	if len(fs.Names) != len(wantNames) {
		t.Fatalf("unexpected names %v", fs.Names)
	}
	for i := range wantNames {
		if fs.Names[i] != wantNames[i] {
			t.Fatalf("unexpected names %v", fs.Names)
		}
	}

	wantRow0 := []float64{2, 0.5, 1, 28, 1, 0, 1, 0}
	for j, v := range wantRow0 {
		if fs.X[0][j] != v {
			t.Fatalf("row 0 col %s: got %v want %v (row %v)", fs.Names[j], fs.X[0][j], v, fs.X[0])
		}
	}
	wantRow2 := []float64{1, 1, 3, 6, 0, 0, 0, 1}
	for j, v := range wantRow2 {
		if fs.X[2][j] != v {
			t.Fatalf("row 2 col %s: got %v want %v", fs.Names[j], fs.X[2][j], v)
		}
	}
	// candidato sin CV
	if fs.X[4][3] != 0 {
		t.Fatalf("expected cv_length 0 for applicant without resume, got %v", fs.X[4][3])
	}

	for i, row := range fs.X {
		if row[1] < 0 || row[1] > 1 {
			t.Fatalf("row %d success rate out of range: %v", i, row[1])
		}
	}
	if fs.Positives() != 2 || fs.Y[0] != 1 || fs.Y[2] != 1 {
		t.Fatalf("unexpected labels %v", fs.Y)
	}
}

func TestBuildFeaturesInsufficientData(t *testing.T) {
	if _, err := BuildFeatures(nil, nil, skills); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData for empty rows, got %v", err)
	}
	rows := []domain.Application{{JobID: 1, ApplicantID: 1, Order: 1}}
	if _, err := BuildFeatures(rows, nil, skills); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData without positives, got %v", err)
	}
}

func TestSummarize(t *testing.T) {
	src := loadFixture(t)
	rows, stats := Flatten(src.Prospects)
	s := Summarize(src, rows, stats)

	if s.Jobs != 2 || s.JobsWithProspects != 5 || s.Applicants != 3 {
		t.Fatalf("unexpected source counts: %+v", s)
	}
	if s.Applications != 7 || s.UniqueApplicants != 5 || s.JobsWithApplicants != 4 || s.Positives != 2 {
		t.Fatalf("unexpected row counts: %+v", s)
	}
	if s.MissingPostings != 2 {
		t.Fatalf("expected jobs 30 and 40 without posting, got %d", s.MissingPostings)
	}
	if s.SkippedRecords != 6 {
		t.Fatalf("expected 6 skipped records, got %d", s.SkippedRecords)
	}
	if s.HireRate < 0.28 || s.HireRate > 0.29 {
		t.Fatalf("unexpected hire rate %v", s.HireRate)
	}
}

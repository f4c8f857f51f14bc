package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"decision-ai/internal/artifact"
	"decision-ai/internal/config"
	"decision-ai/internal/domain"
	"decision-ai/internal/ml"
	"decision-ai/internal/repository"
	"decision-ai/internal/service"
)

type stubLoader struct {
	results domain.Results
}

func (s stubLoader) Stat() (artifact.Version, error) {
	return artifact.Version{ModTime: 1, Size: 1}, nil
}

func (s stubLoader) LoadResults() (domain.Results, error) {
	return s.results, nil
}

func (s stubLoader) LoadModel() (*ml.Forest, error) {
	return &ml.Forest{NFeatures: len(s.results.Features), Trees: make([]ml.Tree, 100)}, nil
}

func sampleResults() domain.Results {
	return domain.Results{
		RunID:     "run-1",
		TrainedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Features:  []string{"total_applications", "success_rate", "application_order", "cv_length"},
		Threshold: 0.5,
		YTest:     []int{0, 0, 0, 0, 1, 1},
		YProba:    []float64{0.1, 0.2, 0.6, 0.3, 0.8, 0.4},
		CV:        domain.CVScores{Folds: []float64{0.7, 0.8}, Mean: 0.75, Std: 0.05},
		Dataset:   domain.DatasetSummary{Applications: 600, Positives: 30, HireRate: 0.05},
		Params:    domain.ModelParams{NTrees: 100, MaxDepth: 10, CVFolds: 5},
	}
}

func impactAssumptions() config.ImpactAssumptions {
	return config.ImpactAssumptions{ManualHoursPerPosition: 25, ModelMinutesPerPosition: 50, HourlyCost: 50, PositionsPerMonth: 100}
}

func newTestRouter(t *testing.T, loader service.ArtifactSource, runs repository.TrainingRunRepository, tokens *service.ViewerTokenService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := service.NewDashboardService(zap.NewNop(), loader, nil, runs, impactAssumptions(), 0.5)
	return NewRouter(zap.NewNop(), NewDashboardHandler(zap.NewNop(), svc), tokens)
}

func doGet(r http.Handler, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, stubLoader{results: sampleResults()}, nil, nil)
	rec := doGet(r, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestOverviewEndpoint(t *testing.T) {
	r := newTestRouter(t, stubLoader{results: sampleResults()}, nil, nil)

	rec := doGet(r, "/api/overview?threshold=0.5")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("unexpected content type %q", ct)
	}
	var ov service.Overview
	if err := json.Unmarshal(rec.Body.Bytes(), &ov); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ov.Confusion != (domain.ConfusionMatrix{{3, 1}, {1, 1}}) || ov.Evaluated != 6 {
		t.Fatalf("unexpected overview: %+v", ov)
	}

	rec = doGet(r, "/api/overview?threshold=0.7")
	if err := json.Unmarshal(rec.Body.Bytes(), &ov); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ov.Threshold != 0.7 || ov.Confusion.TP()+ov.Confusion.FP() != 1 {
		t.Fatalf("threshold 0.7 should recommend only one candidate: %+v", ov)
	}
}

func TestOverviewEndpoint_InvalidThreshold(t *testing.T) {
	r := newTestRouter(t, stubLoader{results: sampleResults()}, nil, nil)
	for _, q := range []string{"abc", "1.5", "-0.1", "NaN"} {
		rec := doGet(r, "/api/overview?threshold="+q)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("threshold=%s: expected 400, got %d", q, rec.Code)
		}
	}
}

func TestDistributionEndpoint(t *testing.T) {
	r := newTestRouter(t, stubLoader{results: sampleResults()}, nil, nil)

	rec := doGet(r, "/api/distribution?bins=5")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var dist service.Distribution
	if err := json.Unmarshal(rec.Body.Bytes(), &dist); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(dist.Hired) != 5 || len(dist.NotHired) != 5 {
		t.Fatalf("expected 5 bins, got %d/%d", len(dist.Hired), len(dist.NotHired))
	}

	if rec := doGet(r, "/api/distribution?bins=0"); rec.Code != http.StatusBadRequest {
		t.Fatalf("bins=0: expected 400, got %d", rec.Code)
	}
}

func TestImpactAndAboutEndpoints(t *testing.T) {
	r := newTestRouter(t, stubLoader{results: sampleResults()}, nil, nil)

	rec := doGet(r, "/api/impact")
	if rec.Code != http.StatusOK {
		t.Fatalf("impact: expected 200, got %d", rec.Code)
	}
	var imp service.Impact
	if err := json.Unmarshal(rec.Body.Bytes(), &imp); err != nil {
		t.Fatalf("decode impact: %v", err)
	}
	if imp.Manual.Candidates != 6 || imp.WithModel.Candidates != 2 {
		t.Fatalf("unexpected impact: %+v", imp)
	}

	rec = doGet(r, "/api/about")
	if rec.Code != http.StatusOK {
		t.Fatalf("about: expected 200, got %d", rec.Code)
	}
	var about service.About
	if err := json.Unmarshal(rec.Body.Bytes(), &about); err != nil {
		t.Fatalf("decode about: %v", err)
	}
	if about.RunID != "run-1" || len(about.Features) != 4 {
		t.Fatalf("unexpected about: %+v", about)
	}
}

func TestRunsEndpoint(t *testing.T) {
	runs := repository.NewMemoryTrainingRunRepository()
	if err := runs.Create(context.Background(), domain.RunFromResults(sampleResults())); err != nil {
		t.Fatalf("create run: %v", err)
	}
	r := newTestRouter(t, stubLoader{results: sampleResults()}, runs, nil)

	rec := doGet(r, "/api/runs?limit=3")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Runs []domain.TrainingRun `json:"runs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Runs) != 1 || body.Runs[0].ID != "run-1" {
		t.Fatalf("unexpected runs: %+v", body.Runs)
	}

	if rec := doGet(r, "/api/runs?limit=abc"); rec.Code != http.StatusBadRequest {
		t.Fatalf("limit=abc: expected 400, got %d", rec.Code)
	}
}

func TestMissingArtifacts(t *testing.T) {
	r := newTestRouter(t, artifact.NewStore(t.TempDir()), nil, nil)

	for _, path := range []string{"/api/overview", "/api/distribution", "/api/impact", "/api/about"} {
		rec := doGet(r, path)
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("%s: expected 503, got %d", path, rec.Code)
		}
	}

	rec := doGet(r, "/")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("page: expected 503, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Model not found") {
		t.Fatalf("expected generic missing-model message, got %s", rec.Body.String())
	}
}

func TestMissingModelFile(t *testing.T) {
	store := artifact.NewStore(t.TempDir())
	if err := store.SaveResults(sampleResults()); err != nil {
		t.Fatalf("save results: %v", err)
	}
	r := newTestRouter(t, store, nil, nil)

	if rec := doGet(r, "/api/overview"); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("overview without model.json: expected 503, got %d", rec.Code)
	}
	rec := doGet(r, "/")
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), "Model not found") {
		t.Fatalf("page without model.json: expected 503 page, got %d", rec.Code)
	}
}

func TestDashboardPage(t *testing.T) {
	r := newTestRouter(t, stubLoader{results: sampleResults()}, nil, nil)

	rec := doGet(r, "/?threshold=0.4")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{"Decision AI", "chart-confusion", "chart-distribution", "Business impact", "run-1", `value="0.40"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("page should contain %q", want)
		}
	}

	if rec := doGet(r, "/?threshold=oops"); rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid threshold: expected 400, got %d", rec.Code)
	}
}

func TestDashboardAuth(t *testing.T) {
	tokens := service.NewViewerTokenService("secret", time.Hour)
	r := newTestRouter(t, stubLoader{results: sampleResults()}, nil, tokens)

	if rec := doGet(r, "/api/about"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	if rec := doGet(r, "/healthz"); rec.Code != http.StatusOK {
		t.Fatalf("healthz should stay public, got %d", rec.Code)
	}

	token, _, err := tokens.Issue("rita")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if rec := doGet(r, "/api/about?token="+token); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with query token, got %d", rec.Code)
	}
	rec := doGet(r, "/?token="+token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for page with token, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `name="token"`) {
		t.Fatalf("threshold form should carry the token")
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Train.RandomSeed != 42 || cfg.Train.NTrees != 100 || cfg.Train.MaxDepth != 10 {
		t.Fatalf("unexpected train defaults: %+v", cfg.Train)
	}
	if cfg.Train.TestSize != 0.2 || cfg.Train.CVFolds != 5 || cfg.Train.SMOTEK != 5 {
		t.Fatalf("unexpected split defaults: %+v", cfg.Train)
	}
	if cfg.DecisionThreshold != 0.5 {
		t.Fatalf("expected threshold 0.5, got %v", cfg.DecisionThreshold)
	}
	want := []string{"python", "java", "sql", "sap"}
	if len(cfg.Skills) != len(want) {
		t.Fatalf("expected skills %v, got %v", want, cfg.Skills)
	}
	for i := range want {
		if cfg.Skills[i] != want[i] {
			t.Fatalf("expected skills %v, got %v", want, cfg.Skills)
		}
	}
	if cfg.Impact.ManualHoursPerPosition != 25 || cfg.Impact.PositionsPerMonth != 100 {
		t.Fatalf("unexpected impact defaults: %+v", cfg.Impact)
	}
}

func TestLoadConfigNormalizesSkills(t *testing.T) {
	t.Setenv("SKILLS", " Go, python ,GO,,Excel")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if len(cfg.Skills) != 3 || cfg.Skills[0] != "go" || cfg.Skills[1] != "python" || cfg.Skills[2] != "excel" {
		t.Fatalf("unexpected skills: %v", cfg.Skills)
	}
}

func TestLoadConfigRejectsInvalidTestSize(t *testing.T) {
	t.Setenv("TEST_SIZE", "1.5")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for TEST_SIZE=1.5")
	}
}

func TestLoadConfigAppliesYAMLOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.yaml")
	if err := os.WriteFile(path, []byte("n_trees: 7\nmax_depth: 3\n"), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	t.Setenv("TRAIN_PARAMS_FILE", path)
	t.Setenv("RANDOM_SEED", "7")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Train.NTrees != 7 || cfg.Train.MaxDepth != 3 {
		t.Fatalf("yaml overrides not applied: %+v", cfg.Train)
	}
	if cfg.Train.RandomSeed != 7 || cfg.Train.CVFolds != 5 {
		t.Fatalf("fields absent from yaml should keep env values: %+v", cfg.Train)
	}
}

func TestLoadTrainParamsMissingFile(t *testing.T) {
	base := TrainParams{NTrees: 10}
	got, err := LoadTrainParams(filepath.Join(t.TempDir(), "missing.yaml"), base)
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
	if got.NTrees != 10 {
		t.Fatalf("expected base params back, got %+v", got)
	}
}

func TestLoadConfigDashboardAndReportSettings(t *testing.T) {
	t.Setenv("REPORT_RECIPIENTS", "a@decision.test,b@decision.test")
	t.Setenv("HISTORY_DB_PATH", "/tmp/runs.db")
	t.Setenv("TRAIN_SCHEDULE", "0 3 * * 1")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if len(cfg.ReportRecipients) != 2 || cfg.ReportRecipients[1] != "b@decision.test" {
		t.Fatalf("unexpected recipients: %v", cfg.ReportRecipients)
	}
	if cfg.HistoryDBPath != "/tmp/runs.db" || cfg.TrainSchedule != "0 3 * * 1" {
		t.Fatalf("unexpected history/schedule: %q %q", cfg.HistoryDBPath, cfg.TrainSchedule)
	}
	if cfg.DashboardRateLimit != 10 || cfg.DashboardRateBurst != 20 || cfg.SMTPPort != 587 {
		t.Fatalf("unexpected defaults: rate=%v burst=%d smtp=%d", cfg.DashboardRateLimit, cfg.DashboardRateBurst, cfg.SMTPPort)
	}
}

func TestLoadConfigRejectsNegativeRateLimit(t *testing.T) {
	t.Setenv("DASHBOARD_RATE_LIMIT", "-1")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for negative rate limit")
	}
}

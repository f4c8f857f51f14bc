package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"
)

// Config centraliza la configuración del entrenamiento y del dashboard.
type Config struct {
	DataDir  string `env:"DATA_DIR" envDefault:"data"`
	ModelDir string `env:"MODEL_DIR" envDefault:"models"`
	HTTPPort string `env:"HTTP_PORT" envDefault:"8501"`

	TrainParamsFile string `env:"TRAIN_PARAMS_FILE"`
	Train           TrainParams
	// TrainSchedule es una expresión cron de 5 campos; vacía significa una sola corrida.
	TrainSchedule string `env:"TRAIN_SCHEDULE"`

	DecisionThreshold float64  `env:"DECISION_THRESHOLD" envDefault:"0.5"`
	Skills            []string `env:"SKILLS" envDefault:"python,java,sql,sap" envSeparator:","`

	DatabaseURL   string `env:"DATABASE_URL"`
	HistoryDBPath string `env:"HISTORY_DB_PATH"`
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	DashboardJWTSecret    string `env:"DASHBOARD_JWT_SECRET"`
	DashboardTokenTTLDays int    `env:"DASHBOARD_TOKEN_TTL_DAYS" envDefault:"30"`
	// Límite por IP sobre /api; 0 lo deshabilita.
	DashboardRateLimit float64 `env:"DASHBOARD_RATE_LIMIT" envDefault:"10"`
	DashboardRateBurst int     `env:"DASHBOARD_RATE_BURST" envDefault:"20"`

	// Reporte por correo al terminar el entrenamiento; deshabilitado sin SMTP_HOST.
	SMTPHost         string   `env:"SMTP_HOST"`
	SMTPPort         int      `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser         string   `env:"SMTP_USER"`
	SMTPPass         string   `env:"SMTP_PASS"`
	SMTPFrom         string   `env:"SMTP_FROM"`
	SMTPFromName     string   `env:"SMTP_FROM_NAME" envDefault:"Decision AI"`
	SMTPUseTLS       bool     `env:"SMTP_USE_TLS" envDefault:"false"`
	ReportRecipients []string `env:"REPORT_RECIPIENTS" envSeparator:","`

	Impact ImpactAssumptions
}

// TrainParams agrupa los hiperparámetros del pipeline. Se pueden sobreescribir con un YAML.
type TrainParams struct {
	RandomSeed      uint64  `env:"RANDOM_SEED" envDefault:"42" yaml:"random_seed"`
	TestSize        float64 `env:"TEST_SIZE" envDefault:"0.2" yaml:"test_size"`
	NTrees          int     `env:"N_TREES" envDefault:"100" yaml:"n_trees"`
	MaxDepth        int     `env:"MAX_DEPTH" envDefault:"10" yaml:"max_depth"`
	MinSamplesSplit int     `env:"MIN_SAMPLES_SPLIT" envDefault:"2" yaml:"min_samples_split"`
	CVFolds         int     `env:"CV_FOLDS" envDefault:"5" yaml:"cv_folds"`
	SMOTEK          int     `env:"SMOTE_K" envDefault:"5" yaml:"smote_k"`
	Workers         int     `env:"TRAIN_WORKERS" envDefault:"0" yaml:"workers"`
}

// ImpactAssumptions son los supuestos de negocio de la pestaña de impacto.
type ImpactAssumptions struct {
	ManualHoursPerPosition  float64 `env:"IMPACT_MANUAL_HOURS" envDefault:"25"`
	ModelMinutesPerPosition float64 `env:"IMPACT_MODEL_MINUTES" envDefault:"50"`
	HourlyCost              float64 `env:"IMPACT_HOURLY_COST" envDefault:"50"`
	PositionsPerMonth       int     `env:"IMPACT_POSITIONS_PER_MONTH" envDefault:"100"`
}

// LoadConfig carga la configuración desde variables de entorno y, si se indica, el YAML de hiperparámetros.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if cfg.TrainParamsFile != "" {
		params, err := LoadTrainParams(cfg.TrainParamsFile, cfg.Train)
		if err != nil {
			return nil, err
		}
		cfg.Train = params
	}
	cfg.Skills = normalizeSkills(cfg.Skills)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadTrainParams aplica sobre base los campos presentes en el archivo YAML.
func LoadTrainParams(path string, base TrainParams) (TrainParams, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read train params: %w", err)
	}
	params := base
	if err := yaml.Unmarshal(raw, &params); err != nil {
		return base, fmt.Errorf("parse train params %s: %w", path, err)
	}
	return params, nil
}

// Validate rechaza combinaciones que harían fallar el pipeline más adelante.
func (c *Config) Validate() error {
	if c.Train.TestSize <= 0 || c.Train.TestSize >= 1 {
		return fmt.Errorf("TEST_SIZE must be in (0,1), got %v", c.Train.TestSize)
	}
	if c.Train.NTrees <= 0 {
		return fmt.Errorf("N_TREES must be positive, got %d", c.Train.NTrees)
	}
	if c.Train.MaxDepth <= 0 {
		return fmt.Errorf("MAX_DEPTH must be positive, got %d", c.Train.MaxDepth)
	}
	if c.Train.CVFolds < 2 {
		return fmt.Errorf("CV_FOLDS must be at least 2, got %d", c.Train.CVFolds)
	}
	if c.Train.SMOTEK <= 0 {
		return fmt.Errorf("SMOTE_K must be positive, got %d", c.Train.SMOTEK)
	}
	if c.DecisionThreshold < 0 || c.DecisionThreshold > 1 {
		return fmt.Errorf("DECISION_THRESHOLD must be in [0,1], got %v", c.DecisionThreshold)
	}
	if c.DashboardRateLimit < 0 {
		return fmt.Errorf("DASHBOARD_RATE_LIMIT must not be negative, got %v", c.DashboardRateLimit)
	}
	if len(c.Skills) == 0 {
		return fmt.Errorf("SKILLS must list at least one skill")
	}
	return nil
}

func normalizeSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	seen := make(map[string]struct{}, len(skills))
	for _, s := range skills {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

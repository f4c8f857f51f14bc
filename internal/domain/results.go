package domain

import "time"

// Metrics son las métricas escalares del conjunto de prueba; todas en [0,1].
type Metrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	AUC       float64 `json:"auc"`
}

// ConfusionMatrix se indexa como [real][predicho]: [[TN, FP], [FN, TP]].
type ConfusionMatrix [2][2]int

func (m ConfusionMatrix) TN() int { return m[0][0] }
func (m ConfusionMatrix) FP() int { return m[0][1] }
func (m ConfusionMatrix) FN() int { return m[1][0] }
func (m ConfusionMatrix) TP() int { return m[1][1] }

// Total es la cantidad de muestras evaluadas.
func (m ConfusionMatrix) Total() int {
	return m[0][0] + m[0][1] + m[1][0] + m[1][1]
}

// Correct cuenta aciertos (TN + TP).
func (m ConfusionMatrix) Correct() int {
	return m[0][0] + m[1][1]
}

// CVScores resume la validación cruzada estratificada (F1 por fold).
type CVScores struct {
	Folds []float64 `json:"folds"`
	Mean  float64   `json:"mean"`
	Std   float64   `json:"std"`
}

// DatasetSummary son los conteos del dataset en cada etapa del pipeline.
type DatasetSummary struct {
	Jobs               int     `json:"jobs"`
	JobsWithProspects  int     `json:"jobs_with_prospects"`
	Applicants         int     `json:"applicants"`
	ProspectEntries    int     `json:"prospect_entries"`
	SkippedRecords     int     `json:"skipped_records"`
	MissingPostings    int     `json:"missing_postings"`
	Applications       int     `json:"applications"`
	UniqueApplicants   int     `json:"unique_applicants"`
	JobsWithApplicants int     `json:"jobs_with_applicants"`
	Positives          int     `json:"positives"`
	HireRate           float64 `json:"hire_rate"`
	TrainSize          int     `json:"train_size"`
	TestSize           int     `json:"test_size"`
	BalancedSize       int     `json:"balanced_size"`
}

// ModelParams son los hiperparámetros con los que se entrenó el modelo.
type ModelParams struct {
	RandomSeed      uint64  `json:"random_seed"`
	TestSize        float64 `json:"test_size"`
	NTrees          int     `json:"n_trees"`
	MaxDepth        int     `json:"max_depth"`
	MinSamplesSplit int     `json:"min_samples_split"`
	MaxFeatures     int     `json:"max_features"`
	CVFolds         int     `json:"cv_folds"`
	SMOTEK          int     `json:"smote_k"`
}

// Results es el paquete que el entrenamiento deja para el dashboard.
type Results struct {
	RunID           string          `json:"run_id"`
	TrainedAt       time.Time       `json:"trained_at"`
	Features        []string        `json:"features"`
	Threshold       float64         `json:"threshold"`
	XTest           [][]float64     `json:"x_test"`
	YTest           []int           `json:"y_test"`
	YPred           []int           `json:"y_pred"`
	YProba          []float64       `json:"y_proba"`
	Metrics         Metrics         `json:"metrics"`
	ConfusionMatrix ConfusionMatrix `json:"confusion_matrix"`
	CV              CVScores        `json:"cv"`
	Dataset         DatasetSummary  `json:"dataset"`
	Params          ModelParams     `json:"params"`
}

// TrainingRun es el resumen de una corrida que se guarda en el historial.
type TrainingRun struct {
	ID           string    `json:"id"`
	TrainedAt    time.Time `json:"trained_at"`
	Metrics      Metrics   `json:"metrics"`
	CVMean       float64   `json:"cv_mean"`
	CVStd        float64   `json:"cv_std"`
	Applications int       `json:"applications"`
	Positives    int       `json:"positives"`
	TestSize     int       `json:"test_size"`
	Threshold    float64   `json:"threshold"`
	Features     []string  `json:"features"`
}

// RunFromResults arma el resumen de historial de un paquete de resultados.
func RunFromResults(r Results) TrainingRun {
	return TrainingRun{
		ID:           r.RunID,
		TrainedAt:    r.TrainedAt,
		Metrics:      r.Metrics,
		CVMean:       r.CV.Mean,
		CVStd:        r.CV.Std,
		Applications: r.Dataset.Applications,
		Positives:    r.Dataset.Positives,
		TestSize:     len(r.YTest),
		Threshold:    r.Threshold,
		Features:     r.Features,
	}
}

package ml

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"

	"decision-ai/internal/domain"
)

// Confusion arma la matriz [[TN, FP], [FN, TP]].
func Confusion(yTrue, yPred []int) (domain.ConfusionMatrix, error) {
	var cm domain.ConfusionMatrix
	if len(yTrue) != len(yPred) {
		return cm, fmt.Errorf("%w: %d labels vs %d predictions", ErrShapeMismatch, len(yTrue), len(yPred))
	}
	for i := range yTrue {
		a, p := yTrue[i], yPred[i]
		if (a != 0 && a != 1) || (p != 0 && p != 1) {
			return cm, fmt.Errorf("%w: index %d", ErrNonBinaryLabel, i)
		}
		cm[a][p]++
	}
	return cm, nil
}

// Precision vale 0 cuando no hay predicciones positivas.
func Precision(cm domain.ConfusionMatrix) float64 {
	return ratio(cm.TP(), cm.TP()+cm.FP())
}

// Recall vale 0 cuando no hay positivos reales.
func Recall(cm domain.ConfusionMatrix) float64 {
	return ratio(cm.TP(), cm.TP()+cm.FN())
}

func F1(cm domain.ConfusionMatrix) float64 {
	return ratio(2*cm.TP(), 2*cm.TP()+cm.FP()+cm.FN())
}

// Accuracy es la fracción de aciertos.
func Accuracy(cm domain.ConfusionMatrix) float64 {
	return ratio(cm.Correct(), cm.Total())
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// ROCAUC calcula el área bajo la curva ROC. Con una sola clase presente la curva
// no está definida y se devuelve 0.5.
func ROCAUC(yTrue []int, scores []float64) (float64, error) {
	if len(yTrue) != len(scores) {
		return 0, fmt.Errorf("%w: %d labels vs %d scores", ErrShapeMismatch, len(yTrue), len(scores))
	}
	pos, neg := 0, 0
	y := make([]float64, len(scores))
	classes := make([]bool, len(yTrue))
	for i, label := range yTrue {
		switch label {
		case 1:
			pos++
			classes[i] = true
		case 0:
			neg++
		default:
			return 0, fmt.Errorf("%w: index %d has %d", ErrNonBinaryLabel, i, label)
		}
		y[i] = scores[i]
		if math.IsNaN(y[i]) {
			y[i] = 0
		}
	}
	if pos == 0 || neg == 0 {
		return 0.5, nil
	}

	stat.SortWeightedLabeled(y, classes, nil)
	tpr, fpr, _ := stat.ROC(nil, y, classes, nil)
	auc := integrate.Trapezoidal(fpr, tpr)
	return math.Min(1, math.Max(0, auc)), nil
}

// Report agrupa las métricas de clasificación a un umbral dado.
type Report struct {
	Threshold float64                `json:"threshold"`
	Metrics   domain.Metrics         `json:"metrics"`
	Confusion domain.ConfusionMatrix `json:"confusion_matrix"`
	Accuracy  float64                `json:"accuracy"`
}

// ReportAt clasifica los scores con el umbral y calcula todas las métricas.
func ReportAt(yTrue []int, scores []float64, threshold float64) (Report, error) {
	cm, err := Confusion(yTrue, Classify(scores, threshold))
	if err != nil {
		return Report{}, err
	}
	auc, err := ROCAUC(yTrue, scores)
	if err != nil {
		return Report{}, err
	}
	return Report{
		Threshold: threshold,
		Metrics: domain.Metrics{
			Precision: Precision(cm),
			Recall:    Recall(cm),
			F1:        F1(cm),
			AUC:       auc,
		},
		Confusion: cm,
		Accuracy:  Accuracy(cm),
	}, nil
}

package http

import (
	"encoding/json"
	"fmt"
	"html/template"

	"decision-ai/internal/domain"
	"decision-ai/internal/ml"
	"decision-ai/internal/service"
)

const (
	colorGood = "#51cf66"
	colorBad  = "#ff6b6b"
	colorWarn = "#ffd43b"
)

// plotlyFigure es el payload que recibe Plotly.newPlot en el template.
type plotlyFigure struct {
	Data   []map[string]any `json:"data"`
	Layout map[string]any   `json:"layout"`
}

// JS serializa la figura para insertarla en un <script>; los valores son numéricos o
// textos fijos, no entrada del usuario.
func (f plotlyFigure) JS() (template.JS, error) {
	raw, err := json.Marshal(f)
	if err != nil {
		return "", fmt.Errorf("encode chart: %w", err)
	}
	return template.JS(raw), nil
}

func baseLayout(title string, height int) map[string]any {
	layout := map[string]any{
		"height":        height,
		"plot_bgcolor":  "white",
		"paper_bgcolor": "white",
		"margin":        map[string]any{"t": 40, "b": 50, "l": 60, "r": 20},
	}
	if title != "" {
		layout["title"] = map[string]any{"text": title}
	}
	return layout
}

// confusionFigure dibuja la matriz con la realidad en filas y la decisión del modelo en columnas.
func confusionFigure(cm domain.ConfusionMatrix) plotlyFigure {
	z := [][]int{
		{cm.FN(), cm.TP()},
		{cm.TN(), cm.FP()},
	}
	text := [][]string{
		{fmt.Sprintf("<b>%d</b><br>Good candidates missed", cm.FN()), fmt.Sprintf("<b>%d</b><br>Correctly identified", cm.TP())},
		{fmt.Sprintf("<b>%d</b><br>Correctly rejected", cm.TN()), fmt.Sprintf("<b>%d</b><br>Recommended by mistake", cm.FP())},
	}
	colors := [][]float64{{0, 1}, {1, 0}}
	layout := baseLayout("", 420)
	layout["xaxis"] = map[string]any{"title": map[string]any{"text": "<b>Model decision</b>"}}
	layout["yaxis"] = map[string]any{"title": map[string]any{"text": "<b>Reality</b>"}}
	return plotlyFigure{
		Data: []map[string]any{{
			"type":         "heatmap",
			"x":            []string{"Model rejected", "Model recommended"},
			"y":            []string{"Was hired", "Was not hired"},
			"z":            colors,
			"customdata":   z,
			"text":         text,
			"texttemplate": "%{text}",
			"hoverinfo":    "skip",
			"showscale":    false,
			"colorscale":   [][]any{{0, colorWarn}, {1, colorGood}},
			"opacity":      0.6,
		}},
		Layout: layout,
	}
}

func histogramTrace(name, color string, bins []ml.HistogramBin) map[string]any {
	xs := make([]float64, len(bins))
	ws := make([]float64, len(bins))
	ys := make([]int, len(bins))
	for i, b := range bins {
		xs[i] = (b.Lower + b.Upper) / 2
		ws[i] = b.Upper - b.Lower
		ys[i] = b.Count
	}
	return map[string]any{
		"type":          "bar",
		"name":          name,
		"x":             xs,
		"y":             ys,
		"width":         ws,
		"opacity":       0.7,
		"marker":        map[string]any{"color": color},
		"hovertemplate": "Score: %{x:.0%}<br>Candidates: %{y}<extra></extra>",
	}
}

func distributionFigure(dist service.Distribution) plotlyFigure {
	layout := baseLayout("", 420)
	layout["barmode"] = "overlay"
	layout["xaxis"] = map[string]any{"title": map[string]any{"text": "<b>Hiring score</b>"}, "tickformat": ".0%", "range": []float64{0, 1}}
	layout["yaxis"] = map[string]any{"title": map[string]any{"text": "<b>Candidates</b>"}}
	layout["legend"] = map[string]any{"orientation": "h", "y": 1.08, "x": 0.5, "xanchor": "center"}
	layout["shapes"] = []map[string]any{{
		"type": "line", "xref": "x", "yref": "paper",
		"x0": dist.Threshold, "x1": dist.Threshold, "y0": 0, "y1": 1,
		"line": map[string]any{"color": "black", "dash": "dash"},
	}}
	layout["annotations"] = []map[string]any{{
		"x": dist.Threshold, "xref": "x", "y": 1, "yref": "paper", "yanchor": "bottom",
		"text": fmt.Sprintf("Cut-off (%.0f%%)", dist.Threshold*100), "showarrow": false,
	}}
	return plotlyFigure{
		Data: []map[string]any{
			histogramTrace("Not hired", colorBad, dist.NotHired),
			histogramTrace("Hired", colorGood, dist.Hired),
		},
		Layout: layout,
	}
}

func comparisonBars(title, yTitle string, values []float64, labels []string) plotlyFigure {
	layout := baseLayout(title, 300)
	layout["showlegend"] = false
	layout["yaxis"] = map[string]any{"title": map[string]any{"text": yTitle}}
	return plotlyFigure{
		Data: []map[string]any{{
			"type":         "bar",
			"x":            []string{"Without model", "With model"},
			"y":            values,
			"text":         labels,
			"textposition": "outside",
			"marker":       map[string]any{"color": []string{colorBad, colorGood}},
		}},
		Layout: layout,
	}
}

func candidatesFigure(imp service.Impact) plotlyFigure {
	return comparisonBars("Candidates to review", "Candidates",
		[]float64{float64(imp.Manual.Candidates), float64(imp.WithModel.Candidates)},
		[]string{fmt.Sprint(imp.Manual.Candidates), fmt.Sprint(imp.WithModel.Candidates)},
	)
}

func hitRateFigure(imp service.Impact) plotlyFigure {
	manual, model := imp.Manual.HitRate*100, imp.WithModel.HitRate*100
	return comparisonBars("Hit rate", "Percent (%)",
		[]float64{manual, model},
		[]string{fmt.Sprintf("%.1f%%", manual), fmt.Sprintf("%.1f%%", model)},
	)
}

func timeFigure(imp service.Impact) plotlyFigure {
	return comparisonBars("Time per position", "Hours",
		[]float64{imp.ManualHours, imp.ModelHours},
		[]string{fmt.Sprintf("%.0fh", imp.ManualHours), fmt.Sprintf("%.0fmin", imp.ModelHours*60)},
	)
}

package http

import (
	"embed"
	"fmt"
	"html/template"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed templates/*.html
var templateFS embed.FS

// numbers agrupa miles igual que la UI (en inglés).
var numbers = message.NewPrinter(language.English)

func parseTemplates() (*template.Template, error) {
	return template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
}

var templateFuncs = template.FuncMap{
	"pct": func(v float64) string {
		return fmt.Sprintf("%.1f%%", v*100)
	},
	"num":   formatCount,
	"money": formatMoney,
	"fixed": func(digits int, v float64) string {
		return strconv.FormatFloat(v, 'f', digits, 64)
	},
	"date": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.UTC().Format("2006-01-02 15:04 UTC")
	},
	"join":   strings.Join,
	"mulf":   func(a, b float64) float64 { return a * b },
	"roundi": func(v float64) int { return int(math.Round(v)) },
}

func formatCount(n int) string {
	return numbers.Sprintf("%d", n)
}

// formatMoney redondea a unidades enteras.
func formatMoney(v float64) string {
	return numbers.Sprintf("%d", int64(math.Round(v)))
}

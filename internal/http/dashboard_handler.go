package http

import (
	"errors"
	"html/template"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"decision-ai/internal/domain"
	"decision-ai/internal/service"
)

const (
	defaultBins  = 30
	maxBins      = 200
	defaultRuns  = 20
	maxRuns      = 100
	pageRunLimit = 5
)

// DashboardHandler expone las vistas del dashboard en HTML y JSON.
type DashboardHandler struct {
	logger *zap.Logger
	svc    *service.DashboardService
}

func NewDashboardHandler(logger *zap.Logger, svc *service.DashboardService) *DashboardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardHandler{logger: logger, svc: svc}
}

// Health maneja GET /healthz.
func (h *DashboardHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type pageData struct {
	Threshold         float64
	Token             string
	Overview          service.Overview
	Impact            service.Impact
	About             service.About
	Runs              []domain.TrainingRun
	ConfusionChart    template.JS
	DistributionChart template.JS
	CandidatesChart   template.JS
	HitRateChart      template.JS
	TimeChart         template.JS
}

// Page maneja GET /: renderiza las pestañas de resultados, impacto y sobre el modelo.
func (h *DashboardHandler) Page(c *gin.Context) {
	threshold, ok := h.threshold(c)
	if !ok {
		c.HTML(http.StatusBadRequest, "unavailable.html", gin.H{
			"Title":   "Invalid threshold",
			"Message": "The threshold must be a number between 0 and 1.",
		})
		return
	}
	ctx := c.Request.Context()

	data := pageData{Threshold: threshold, Token: strings.TrimSpace(c.Query("token"))}
	var err error
	if data.Overview, err = h.svc.Overview(ctx, threshold); err != nil {
		h.renderError(c, err)
		return
	}
	dist, err := h.svc.Distribution(ctx, threshold, defaultBins)
	if err != nil {
		h.renderError(c, err)
		return
	}
	if data.Impact, err = h.svc.Impact(ctx, threshold); err != nil {
		h.renderError(c, err)
		return
	}
	if data.About, err = h.svc.About(ctx); err != nil {
		h.renderError(c, err)
		return
	}
	if data.Runs, err = h.svc.History(ctx, pageRunLimit); err != nil {
		h.logger.Warn("list training runs failed", zap.Error(err))
		data.Runs = nil
	}

	charts := []struct {
		dst *template.JS
		fig plotlyFigure
	}{
		{&data.ConfusionChart, confusionFigure(data.Overview.Confusion)},
		{&data.DistributionChart, distributionFigure(dist)},
		{&data.CandidatesChart, candidatesFigure(data.Impact)},
		{&data.HitRateChart, hitRateFigure(data.Impact)},
		{&data.TimeChart, timeFigure(data.Impact)},
	}
	for _, ch := range charts {
		js, err := ch.fig.JS()
		if err != nil {
			h.renderError(c, err)
			return
		}
		*ch.dst = js
	}

	c.HTML(http.StatusOK, "dashboard.html", data)
}

func (h *DashboardHandler) renderError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrNoArtifacts) {
		h.logger.Warn("dashboard without artifacts", zap.Error(err))
		c.HTML(http.StatusServiceUnavailable, "unavailable.html", gin.H{
			"Title":   "Model not found",
			"Message": "Run the training pipeline first to generate the model artifacts.",
		})
		return
	}
	h.logger.Error("render dashboard failed", zap.Error(err))
	c.HTML(http.StatusInternalServerError, "unavailable.html", gin.H{
		"Title":   "Something went wrong",
		"Message": "The dashboard could not be rendered.",
	})
}

// Overview maneja GET /api/overview.
func (h *DashboardHandler) Overview(c *gin.Context) {
	threshold, ok := h.threshold(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "threshold must be a number in [0,1]"})
		return
	}
	ov, err := h.svc.Overview(c.Request.Context(), threshold)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ov)
}

// Distribution maneja GET /api/distribution.
func (h *DashboardHandler) Distribution(c *gin.Context) {
	threshold, ok := h.threshold(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "threshold must be a number in [0,1]"})
		return
	}
	bins, ok := intQuery(c, "bins", defaultBins, maxBins)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bins must be an integer between 1 and " + strconv.Itoa(maxBins)})
		return
	}
	dist, err := h.svc.Distribution(c.Request.Context(), threshold, bins)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dist)
}

// Impact maneja GET /api/impact.
func (h *DashboardHandler) Impact(c *gin.Context) {
	threshold, ok := h.threshold(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "threshold must be a number in [0,1]"})
		return
	}
	imp, err := h.svc.Impact(c.Request.Context(), threshold)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, imp)
}

// About maneja GET /api/about.
func (h *DashboardHandler) About(c *gin.Context) {
	about, err := h.svc.About(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, about)
}

// Runs maneja GET /api/runs.
func (h *DashboardHandler) Runs(c *gin.Context) {
	limit, ok := intQuery(c, "limit", defaultRuns, maxRuns)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer between 1 and " + strconv.Itoa(maxRuns)})
		return
	}
	runs, err := h.svc.History(c.Request.Context(), limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (h *DashboardHandler) writeError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrNoArtifacts) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "model artifacts not available, run the training first"})
		return
	}
	h.logger.Error("dashboard request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

// threshold lee ?threshold=; sin parámetro usa el umbral configurado.
func (h *DashboardHandler) threshold(c *gin.Context) (float64, bool) {
	raw := strings.TrimSpace(c.Query("threshold"))
	if raw == "" {
		return h.svc.DefaultThreshold(), true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || v < 0 || v > 1 {
		return 0, false
	}
	return v, true
}

func intQuery(c *gin.Context, key string, def, upper int) (int, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 || v > upper {
		return 0, false
	}
	return v, true
}

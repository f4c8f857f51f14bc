package http

import (
	"html/template"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"decision-ai/internal/service"
)

// RouterOption ajusta el router opcionalmente.
type RouterOption func(*routerOptions)

type routerOptions struct {
	ratePerSecond float64
	rateBurst     int
}

// WithAPIRateLimit limita /api por IP de cliente.
func WithAPIRateLimit(perSecond float64, burst int) RouterOption {
	return func(o *routerOptions) {
		o.ratePerSecond = perSecond
		o.rateBurst = burst
	}
}

// NewRouter configura el router de Gin con middlewares y rutas del dashboard.
// Si tokens es nil el dashboard queda abierto.
func NewRouter(
	logger *zap.Logger,
	dashH *DashboardHandler,
	tokens *service.ViewerTokenService,
	opts ...RouterOption,
) *gin.Engine {
	var o routerOptions
	for _, opt := range opts {
		opt(&o)
	}

	r := gin.New()

	// Middlewares basicos: logging y recovery.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery())
	r.SetHTMLTemplate(template.Must(parseTemplates()))

	r.GET("/healthz", dashH.Health)

	protected := r.Group("")
	if tokens != nil {
		protected.Use(ViewerAuthMiddleware(tokens))
	}
	protected.GET("/", dashH.Page)

	api := protected.Group("/api", RateLimitMiddleware(o.ratePerSecond, o.rateBurst), jsonContentTypeMiddleware())
	api.GET("/overview", dashH.Overview)
	api.GET("/distribution", dashH.Distribution)
	api.GET("/impact", dashH.Impact)
	api.GET("/about", dashH.About)
	api.GET("/runs", dashH.Runs)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}

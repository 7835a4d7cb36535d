package robots

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kilianp07/robofleet/infra/logger"
)

// ServerOptions configures NewServer.
type ServerOptions struct {
	// Metrics mounts promhttp on GET /metrics.
	Metrics bool
	// RequestTimeout bounds each request. Zero disables the timeout.
	RequestTimeout time.Duration
	// AllowOrigins enables CORS for browser clients.
	AllowOrigins []string
	Logger       logger.Logger
}

// NewServer builds the echo instance serving h.
func NewServer(h *Handler, opts ServerOptions) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = httpErrorHandler

	log := opts.Logger
	if log == nil {
		log = logger.NopLogger{}
	}
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			log.Debugw("request", map[string]any{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency_ms": v.Latency.Milliseconds(),
				"request_id": v.RequestID,
			})
			return nil
		},
	}))
	if len(opts.AllowOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: opts.AllowOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}
	if opts.RequestTimeout > 0 {
		e.Use(middleware.ContextTimeout(opts.RequestTimeout))
	}
	if opts.Metrics {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}
	Register(e.Group("/api"), h)
	return e
}

// Register mounts the fleet routes on g.
func Register(g *echo.Group, h *Handler) {
	g.GET("/health", h.Health)
	g.GET("/journal", h.Journal)

	robots := g.Group("/robots")
	{
		robots.GET("", h.List)
		robots.POST("", h.Create)
		robots.PUT("", h.Replace)
		robots.POST("/random", h.CreateRandom)
		robots.GET("/counts", h.Counts)
		robots.GET("/summary", h.Summary)
		robots.DELETE("/last", h.RemoveLast)
		robots.GET("/:id", h.Get)
		robots.PATCH("/:id/status", h.UpdateStatus)
		robots.POST("/:id/status/cycle", h.CycleStatus)
		robots.PATCH("/:id/battery", h.UpdateBattery)
		robots.POST("/:id/return-to-base", h.ReturnToBase)
	}
}

package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/recordport/recordport/internal/config"
	"github.com/recordport/recordport/internal/handler"
	"github.com/recordport/recordport/internal/middleware"
)

const maxRequestBodyBytes = 1 << 20

// routes groups the handlers mounted by setupRouter.
type routes struct {
	base     *handler.Handler
	health   *handler.HealthHandler
	importer *handler.ImportHandler
	exporter *handler.ExportHandler
	metrics  http.Handler
	limiter  middleware.IPLimiter
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(rt routes, reg prometheus.Registerer, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.HTTPMetrics(reg))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()}))
	r.Use(middleware.MaxBodySize(maxRequestBodyBytes))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()
	r.Use(middleware.CORS(corsCfg))

	r.Get("/healthz", rt.health.Healthz)
	r.Get("/readyz", rt.health.Readyz)
	r.Method(http.MethodGet, "/metrics", rt.metrics)
	r.Get("/", rt.base.Hello)

	r.Get("/ws/import", rt.importer.Import)

	exportLimit := middleware.RateLimitIP(middleware.RateLimitConfig{
		Logger:  logger,
		Limiter: rt.limiter,
		Enabled: cfg.RateLimitExportEnabled,
		Scope:   "export",
		RPS:     cfg.RateLimitExportRPS,
		Burst:   cfg.RateLimitExportBurst,
	})
	r.With(exportLimit).Get("/export", rt.exporter.Export)

	r.NotFound(rt.base.NotFound)
	r.MethodNotAllowed(rt.base.MethodNotAllowed)

	return r
}

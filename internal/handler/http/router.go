package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nextshop/storefront/pkg/health"
	"github.com/nextshop/storefront/pkg/middleware"
)

// RouterConfig carries everything the router mounts.
type RouterConfig struct {
	Products *ProductHandler
	Reviews  *ReviewHandler
	Categories *CategoryHandler

	Verifier middleware.TokenVerifier
	Health   *health.Checker
	Logger   *slog.Logger

	RateLimitRPS   int
	RateLimitBurst int
	CORS           middleware.CORSConfig

	// CategoryMaxAge is the Cache-Control max-age in seconds for the
	// category listing.
	CategoryMaxAge int
}

// NewRouter assembles the HTTP surface: public catalog reads, bearer-token
// protected review writes, health probes and metrics.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(middleware.PrometheusMetrics("storefront"))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/health/live", health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimitRPS > 0 {
			r.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
		}

		r.Get("/products", cfg.Products.List)
		r.Get("/products/{id}", cfg.Products.Get)

		r.Group(func(r chi.Router) {
			maxAge := cfg.CategoryMaxAge
			if maxAge <= 0 {
				maxAge = 300
			}
			r.Use(middleware.CacheControl(maxAge))
			r.Get("/categories", cfg.Categories.List)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.Verifier))
			r.Post("/products/{id}/reviews", cfg.Reviews.Create)
			r.Put("/products/{id}/reviews", cfg.Reviews.Update)
			r.Delete("/products/{id}/reviews", cfg.Reviews.Delete)
		})
	})

	return r
}

package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"crypto-dash/internal/metrics"
	"crypto-dash/internal/middleware"
)

// RouterConfig holds everything NewRouter wires together.
type RouterConfig struct {
	Prices         PriceFetcher
	Engine         string
	Version        string
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer // served on /metrics when set
	AllowedOrigins []string
	RateLimit      middleware.RateLimitConfig
}

func (c RouterConfig) allowsAnyOrigin() bool {
	for _, o := range c.AllowedOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

// NewRouter builds the HTTP handler for the whole service.
func NewRouter(cfg RouterConfig) http.Handler {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
		cfg.AllowedOrigins = origins
	}
	h := NewHandler(cfg.Prices, cfg.Engine, cfg.Logger, cfg.allowsAnyOrigin())

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
			ExposedHeaders: []string{middleware.RequestIDHeader},
			MaxAge:         300,
		}),
		middleware.RequestLogger(cfg.Logger),
		cfg.Metrics.Middleware,
		chimw.Recoverer,
	)

	r.Get("/health", h.GetHealth)
	r.Get("/openapi.json", serveOpenAPI(OpenAPIDocument(cfg.Version)))
	r.Get("/docs", serveDocs)
	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		if cfg.RateLimit.RequestsPerSecond > 0 {
			r.Use(middleware.RateLimiter(cfg.RateLimit))
		}
		r.Get("/crypto", h.GetCrypto)
	})

	return r
}

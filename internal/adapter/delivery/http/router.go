// Package http provides the HTTP delivery layer for the TTL URL shortener.
// It contains the chi router, the JSON API handlers and the redirect endpoint.
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/ulule/limiter/v3"
	"github.com/vadimbarashkov/ttl-shortener/internal/metrics"
	"github.com/vadimbarashkov/ttl-shortener/pkg/middleware/recoverer"
	"github.com/vadimbarashkov/ttl-shortener/pkg/response"

	limiterhttp "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
)

const defaultDocsPath = "./docs/swagger.yml"

type routerOptions struct {
	createLimiter *limiter.Limiter
	now           func() time.Time
	docsPath      string
}

type RouterOption func(*routerOptions)

// WithCreateLimiter rate limits the shortening endpoint per client IP.
func WithCreateLimiter(l *limiter.Limiter) RouterOption {
	return func(o *routerOptions) {
		o.createLimiter = l
	}
}

func WithClock(now func() time.Time) RouterOption {
	return func(o *routerOptions) {
		o.now = now
	}
}

func WithDocsPath(path string) RouterOption {
	return func(o *routerOptions) {
		o.docsPath = path
	}
}

// NewRouter initializes and returns a new Chi router configured with middleware and routes for the shortener API.
func NewRouter(logger *httplog.Logger, urlUseCase urlUseCase, opts ...RouterOption) *chi.Mux {
	o := routerOptions{
		now:      time.Now,
		docsPath: defaultDocsPath,
	}

	for _, opt := range opts {
		opt(&o)
	}

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"POST", "GET", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept", headerGeoLatitude, headerGeoLongitude, headerGeoAccuracy},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(recoverer.New(logger.Logger))

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/swagger.yml"),
	))

	r.Get("/docs/swagger.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, o.docsPath)
	})

	r.Handle("/metrics", metrics.Handler())

	h := newURLHandler(urlUseCase, validator.New(), o.now)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ping", handlePing)

		r.Route("/shorten", func(r chi.Router) {
			r.With(limit(o.createLimiter)).Post("/", h.shortenURLs)
			r.Get("/", h.listURLs)
			r.Delete("/", h.clearAll)

			r.Route("/{shortCode}", func(r chi.Router) {
				r.Get("/", h.resolveShortCode)
				r.Get("/stats", h.getURLStats)
			})
		})

		r.Get("/analytics", h.getAnalytics)
		r.Get("/stats", h.getSummary)
		r.Post("/sweep", h.sweepExpired)
	})

	r.Get("/{shortCode}", h.redirect)

	return r
}

func limit(l *limiter.Limiter) func(http.Handler) http.Handler {
	if l == nil {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return limiterhttp.NewMiddleware(l,
		limiterhttp.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			render.Status(r, http.StatusTooManyRequests)
			render.JSON(w, r, response.TooManyRequestsResponse)
		}),
	).Handler
}

package api

import (
	"net/http"
	"time"

	"collection-route-service/internal/api/handlers"
	"collection-route-service/internal/platform/obs"
	"collection-route-service/internal/ports"
	"collection-route-service/internal/services"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Deps are the collaborators the HTTP layer needs. Repo may be nil, in which
// case only inline-point optimization is available.
type Deps struct {
	Repo      ports.PointRepository
	Optimizer *services.Optimizer
	Defaults  services.OptimizeOptions
	Checks    map[string]handlers.Pinger
	Logger    zerolog.Logger

	CORSAllowed    string
	RequestTimeout time.Duration
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(requestID(d.Logger))
	r.Use(accessLog)
	r.Use(cors.Handler(corsOptions(d.CORSAllowed)))

	health := &handlers.HealthHandler{Checks: d.Checks}
	points := &handlers.PointHandler{Repo: d.Repo, Optimizer: d.Optimizer}
	optimize := &handlers.OptimizeHandler{
		Repo:      d.Repo,
		Optimizer: d.Optimizer,
		Validator: validator.New(),
		Defaults:  d.Defaults,
	}

	r.Get("/health", health.Health)
	r.Get("/points", points.List)
	r.Get("/delays", points.Delays)

	r.Group(func(r chi.Router) {
		if d.RequestTimeout > 0 {
			r.Use(chimiddleware.Timeout(d.RequestTimeout))
		}
		r.Post("/optimize", optimize.Optimize)
	})

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(obs.Registry, promhttp.HandlerOpts{}))

	return r
}

func corsOptions(allowed string) cors.Options {
	origins := []string{"*"}
	if allowed != "" && allowed != "*" {
		origins = []string{allowed}
	}
	return cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}
}

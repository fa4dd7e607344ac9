package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/crucial707/brewlog/internal/analyzer"
	"github.com/crucial707/brewlog/internal/config"
	"github.com/crucial707/brewlog/internal/handlers"
	"github.com/crucial707/brewlog/internal/middleware"
	"github.com/crucial707/brewlog/internal/repo"
	"github.com/crucial707/brewlog/internal/scheduler"
	"github.com/crucial707/brewlog/internal/service"
)

// analyzeWindow is the period ANALYZE_RATE_LIMIT applies to.
const analyzeWindow = time.Hour

// limiters holds the per-IP state the sweeper prunes.
type limiters struct {
	general       *middleware.IPRateLimiter
	generalWindow time.Duration
	analyze       *middleware.WindowLimiter
}

func (l limiters) sweepers() []scheduler.Sweeper {
	return []scheduler.Sweeper{
		scheduler.SweeperFunc{Label: "general", Fn: func() int { return l.general.Sweep(l.generalWindow) }},
		scheduler.SweeperFunc{Label: "analyze", Fn: l.analyze.Sweep},
	}
}

// newRouter wires every route. vision may be nil when no API key is configured.
func newRouter(cfg config.Config, store repo.Store, vision analyzer.VisionClient) (http.Handler, limiters) {
	clientIP := middleware.ClientIP(cfg.TrustProxy)
	lim := limiters{
		general:       middleware.PerWindow("general", cfg.RateLimitRequests, cfg.RateLimitWindow, clientIP),
		generalWindow: cfg.RateLimitWindow,
		analyze:       middleware.NewWindowLimiter("analyze", cfg.AnalyzeRateLimit, analyzeWindow, clientIP),
	}

	authSvc := service.NewAuthService(store, cfg.MaxUsers)
	coffeeSvc := service.NewCoffeeService(store, authSvc)

	health := &handlers.HealthHandler{Env: cfg.Env, Started: time.Now(), Store: store}
	authHandler := &handlers.AuthHandler{Auth: authSvc}
	coffeeHandler := &handlers.CoffeeHandler{Auth: authSvc, Coffees: coffeeSvc}
	analyzeHandler := &handlers.AnalyzeHandler{Analyzer: analyzer.New(vision)}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestLog)
	r.Use(middleware.Prometheus)
	r.Use(middleware.SecurityHeaders(cfg.TLSCertFile != ""))

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.MaxBytes(cfg.MaxBodyBytes))
		// Every caller pays the general quota, including disallowed origins.
		r.Use(lim.general.Middleware)
		r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

		r.Get("/health", health.Health)
		r.Get("/ready", health.Ready)

		r.Post("/auth/register", authHandler.Register)
		r.Get("/auth/validate", authHandler.Validate)
		r.Get("/auth/spots", authHandler.Spots)

		r.Get("/coffees", coffeeHandler.List)
		r.Post("/coffees", coffeeHandler.Save)

		r.With(lim.analyze.Middleware).Post("/analyze-coffee", analyzeHandler.Analyze)
	})

	return r, lim
}

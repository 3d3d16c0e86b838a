// Package httpserver implements the HTTP surface facing the SIP router
// (spec.md §6): the four Cx-backed routes plus the operational admin
// endpoints, grounded on the teacher's chi-based router/middleware stack.
package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/clearwater-ims/homestead/internal/config"
	stderrors "github.com/clearwater-ims/homestead/internal/errors"
	"github.com/clearwater-ims/homestead/internal/logger"
	"github.com/clearwater-ims/homestead/internal/metrics"
	"github.com/clearwater-ims/homestead/internal/orchestrator"
	"github.com/clearwater-ims/homestead/internal/ratelimit"
	"github.com/clearwater-ims/homestead/internal/realmmanager"
)

// Server wires the orchestrator handlers, middleware, and admin surface
// into a single chi router behind an http.Server.
type Server struct {
	handlers
	httpServer *http.Server
}

type handlers struct {
	impiAV       *orchestrator.ImpiAVHandler
	regStatus    *orchestrator.RegistrationStatusHandler
	locationInfo *orchestrator.LocationInfoHandler
	regData      *orchestrator.RegDataHandler
	realms       *realmmanager.Manager
	metrics      *metrics.Metrics
	logger       zerolog.Logger
}

// New builds the HTTP server for the given orchestrator handlers.
func New(cfg *config.Config, deps orchestrator.Deps, realms *realmmanager.Manager, m *metrics.Metrics, log zerolog.Logger) *Server {
	router := chi.NewRouter()

	s := &Server{
		handlers: handlers{
			impiAV:       orchestrator.NewImpiAVHandler(deps),
			regStatus:    orchestrator.NewRegistrationStatusHandler(deps),
			locationInfo: orchestrator.NewLocationInfoHandler(deps),
			regData:      orchestrator.NewRegDataHandler(deps),
			realms:       realms,
			metrics:      m,
			logger:       log,
		},
		httpServer: &http.Server{
			Addr:         cfg.Server.Address,
			ReadTimeout:  cfg.Server.ReadTimeout.Duration,
			WriteTimeout: cfg.Server.WriteTimeout.Duration,
			IdleTimeout:  cfg.Server.IdleTimeout.Duration,
			Handler:      router,
		},
	}

	s.configureRouter(router, cfg)
	return s
}

func (s *Server) configureRouter(router chi.Router, cfg *config.Config) {
	if len(cfg.Server.CORSAllowedOrigins) > 0 {
		router.Use(cors.New(cors.Options{
			AllowedOrigins: cfg.Server.CORSAllowedOrigins,
			AllowedMethods: []string{"GET", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"*"},
			MaxAge:         300,
		}).Handler)
	}

	router.Use(logger.Middleware(s.logger))
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(s.observeRequest)

	rateLimitCfg := ratelimit.Config{
		GlobalEnabled:  cfg.RateLimit.GlobalEnabled,
		GlobalLimit:    cfg.RateLimit.GlobalLimit,
		GlobalWindow:   cfg.RateLimit.GlobalWindow.Duration,
		PerImpiEnabled: cfg.RateLimit.PerImpiEnabled,
		PerImpiLimit:   cfg.RateLimit.PerImpiLimit,
		PerImpiWindow:  cfg.RateLimit.PerImpiWindow.Duration,
		PerIPEnabled:   cfg.RateLimit.PerIPEnabled,
		PerIPLimit:     cfg.RateLimit.PerIPLimit,
		PerIPWindow:    cfg.RateLimit.PerIPWindow.Duration,
		Metrics:        s.metrics,
	}
	router.Use(ratelimit.GlobalLimiter(rateLimitCfg))
	router.Use(ratelimit.IPLimiter(rateLimitCfg))

	router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		// Group middleware runs after routing, so the {impi} param is set.
		r.Use(ratelimit.ImpiLimiter(rateLimitCfg))
		r.Get("/impi/{impi}/av", s.getImpiAV)
		r.Get("/impi/{impi}/registration-status", s.getRegistrationStatus)
		r.Get("/impu/{impu}/location", s.getLocationInfo)
		r.Get("/impu/{impu}/reg-data", s.getRegData)
		r.Put("/impu/{impu}/reg-data", s.putRegData)
		r.Delete("/impu/{impu}/reg-data", s.deleteRegData)
	})

	router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(5 * time.Second))
		r.Get("/_status/healthz", s.healthz)
		r.Get("/_status/realms", s.adminAuth(cfg.Server.AdminMetricsAPIKey, s.realmStatus))
		r.Handle("/metrics", s.adminAuth(cfg.Server.AdminMetricsAPIKey, promhttp.Handler().ServeHTTP))
	})
}

// adminAuth protects an operational endpoint with an optional bearer token,
// mirroring the teacher's adminMetricsAuth gate.
func (s *Server) adminAuth(apiKey string, next http.HandlerFunc) http.HandlerFunc {
	if apiKey == "" {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+apiKey {
			stderrors.WriteSimpleError(w, stderrors.ErrCodeDenied, "invalid or missing admin API key")
			return
		}
		next(w, r)
	}
}

// observeRequest records HTTP request metrics per route pattern.
func (s *Server) observeRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.metrics == nil {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}
		s.metrics.ObserveHTTPRequest(route, r.Method, http.StatusText(ww.Status()), time.Since(start))
	})
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Close implements io.Closer for internal/lifecycle, draining in-flight
// requests before returning.
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

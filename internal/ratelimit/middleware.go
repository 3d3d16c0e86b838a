package ratelimit

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/clearwater-ims/homestead/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// Config holds rate limiting configuration.
type Config struct {
	// Global rate limiting (across all callers)
	GlobalEnabled bool
	GlobalLimit   int
	GlobalWindow  time.Duration

	// Per-IMPI rate limiting (identified by the private identity in the URL path)
	PerImpiEnabled bool
	PerImpiLimit   int
	PerImpiWindow  time.Duration

	// Per-IP rate limiting (applied to every request, alongside the other limits)
	PerIPEnabled bool
	PerIPLimit   int
	PerIPWindow  time.Duration

	// Metrics collector (optional)
	Metrics *metrics.Metrics
}

// rateLimitResponse represents the JSON error response for rate limit exceeded.
type rateLimitResponse struct {
	Error             string `json:"error"`
	Message           string `json:"message"`
	RetryAfterSeconds int    `json:"retry_after_seconds"`
}

// DefaultConfig returns sensible default rate limits for the Cx-facing HTTP surface.
func DefaultConfig() Config {
	return Config{
		GlobalEnabled: true,
		GlobalLimit:   2000,
		GlobalWindow:  1 * time.Minute,

		PerImpiEnabled: true,
		PerImpiLimit:   120,
		PerImpiWindow:  1 * time.Minute,

		PerIPEnabled: true,
		PerIPLimit:   300,
		PerIPWindow:  1 * time.Minute,
	}
}

func createRateLimitHandler(
	limitType string,
	windowSeconds int,
	extractIdentifier func(*http.Request) string,
	metricsCollector *metrics.Metrics,
) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		identifier := "all"
		if extractIdentifier != nil {
			if id := extractIdentifier(r); id != "" {
				identifier = id
			}
		}

		if metricsCollector != nil {
			metricsCollector.ObserveRateLimit(limitType, identifier)
		}

		var message string
		switch limitType {
		case "global":
			message = "Global rate limit exceeded. Please try again later."
		case "per_impi":
			message = "Per-IMPI rate limit exceeded. Please try again later."
		case "per_ip":
			message = "IP rate limit exceeded. Please try again later."
		default:
			message = "Rate limit exceeded. Please try again later."
		}

		response := rateLimitResponse{
			Error:             "rate_limit_exceeded",
			Message:           message,
			RetryAfterSeconds: windowSeconds,
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", fmt.Sprintf("%d", windowSeconds))
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(response)
	}
}

// GlobalLimiter creates a global rate limiter middleware.
func GlobalLimiter(cfg Config) func(http.Handler) http.Handler {
	if !cfg.GlobalEnabled {
		return func(next http.Handler) http.Handler { return next }
	}

	return httprate.Limit(
		cfg.GlobalLimit,
		cfg.GlobalWindow,
		httprate.WithLimitHandler(
			createRateLimitHandler("global", int(cfg.GlobalWindow.Seconds()), nil, cfg.Metrics),
		),
	)
}

// ImpiLimiter creates a per-IMPI rate limiter middleware. It keys off the
// `impi` chi URL parameter, falling back to the client IP when the route
// carries no IMPI (e.g. the /impu/... routes). URL parameters are only set
// after routing, so it must be installed on a route group, not the root router.
func ImpiLimiter(cfg Config) func(http.Handler) http.Handler {
	if !cfg.PerImpiEnabled {
		return func(next http.Handler) http.Handler { return next }
	}

	return httprate.Limit(
		cfg.PerImpiLimit,
		cfg.PerImpiWindow,
		httprate.WithKeyFuncs(impiKeyExtractor),
		httprate.WithLimitHandler(
			createRateLimitHandler("per_impi", int(cfg.PerImpiWindow.Seconds()), extractImpiFromRequest, cfg.Metrics),
		),
	)
}

// IPLimiter creates a per-IP rate limiter middleware.
func IPLimiter(cfg Config) func(http.Handler) http.Handler {
	if !cfg.PerIPEnabled {
		return func(next http.Handler) http.Handler { return next }
	}

	return httprate.Limit(
		cfg.PerIPLimit,
		cfg.PerIPWindow,
		httprate.WithKeyByIP(),
		httprate.WithLimitHandler(
			createRateLimitHandler("per_ip", int(cfg.PerIPWindow.Seconds()), func(r *http.Request) string { return r.RemoteAddr }, cfg.Metrics),
		),
	)
}

func impiKeyExtractor(r *http.Request) (string, error) {
	impi := extractImpiFromRequest(r)
	if impi == "" {
		return httprate.KeyByIP(r)
	}
	return "impi:" + impi, nil
}

// extractImpiFromRequest pulls the IMPI path parameter from the chi route
// context, if the matched route carries one.
func extractImpiFromRequest(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if impi := rctx.URLParam("impi"); impi != "" {
			return impi
		}
		if impi := rctx.URLParam("private_id"); impi != "" {
			return impi
		}
	}
	return ""
}

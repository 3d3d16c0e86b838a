package circuitbreaker

import (
	"time"

	"github.com/clearwater-ims/homestead/internal/config"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// ServiceType identifies an external collaborator for circuit breaker isolation.
type ServiceType string

const (
	// ServiceHSS guards Diameter Cx sends to the home subscriber server.
	ServiceHSS ServiceType = "hss"
	// ServiceStore guards calls to the backing cache store (Mongo/Postgres).
	ServiceStore ServiceType = "store"
	// ServiceSprout guards the downstream deregistration notification to the SIP router.
	ServiceSprout ServiceType = "sprout"
)

// Manager manages circuit breakers for different external services.
// Provides bulkhead isolation - each service has its own circuit breaker
// to prevent cascading failures across service boundaries.
type Manager struct {
	breakers map[ServiceType]*gobreaker.CircuitBreaker
	config   Config
}

// Config holds circuit breaker configuration for all services.
type Config struct {
	Enabled bool
	HSS     BreakerConfig
	Store   BreakerConfig
	Sprout  BreakerConfig
}

// BreakerConfig configures a single circuit breaker. Defaults differ per
// service; see DefaultConfig.
type BreakerConfig struct {
	// MaxRequests is the maximum number of requests allowed to pass through
	// when the circuit breaker is half-open.
	MaxRequests uint32

	// Interval is the cyclic period in closed state to clear the internal counts.
	// If 0, never clears.
	Interval time.Duration

	// Timeout is the period of the open state after which the state becomes half-open.
	Timeout time.Duration

	// The breaker trips to open when ConsecutiveFailures (if > 0) consecutive
	// failures are reached, or when at least MinRequests requests have been
	// counted and the failure rate is at least FailureRatio (if both > 0).
	ConsecutiveFailures uint32
	FailureRatio        float64
	MinRequests         uint32
}

// NewManagerFromConfig creates a circuit breaker manager from application config.
func NewManagerFromConfig(cfg config.CircuitBreakerConfig) *Manager {
	return NewManager(Config{
		Enabled: cfg.Enabled,
		HSS: BreakerConfig{
			MaxRequests:         cfg.HSS.MaxRequests,
			Interval:            cfg.HSS.Interval.Duration,
			Timeout:             cfg.HSS.Timeout.Duration,
			ConsecutiveFailures: cfg.HSS.ConsecutiveFailures,
			FailureRatio:        cfg.HSS.FailureRatio,
			MinRequests:         cfg.HSS.MinRequests,
		},
		Store: BreakerConfig{
			MaxRequests:         cfg.Store.MaxRequests,
			Interval:            cfg.Store.Interval.Duration,
			Timeout:             cfg.Store.Timeout.Duration,
			ConsecutiveFailures: cfg.Store.ConsecutiveFailures,
			FailureRatio:        cfg.Store.FailureRatio,
			MinRequests:         cfg.Store.MinRequests,
		},
		Sprout: BreakerConfig{
			MaxRequests:         cfg.Sprout.MaxRequests,
			Interval:            cfg.Sprout.Interval.Duration,
			Timeout:             cfg.Sprout.Timeout.Duration,
			ConsecutiveFailures: cfg.Sprout.ConsecutiveFailures,
			FailureRatio:        cfg.Sprout.FailureRatio,
			MinRequests:         cfg.Sprout.MinRequests,
		},
	})
}

// NewManager creates a circuit breaker manager with the given configuration.
func NewManager(cfg Config) *Manager {
	m := &Manager{
		breakers: make(map[ServiceType]*gobreaker.CircuitBreaker),
		config:   cfg,
	}

	if !cfg.Enabled {
		return m
	}

	m.breakers[ServiceHSS] = gobreaker.NewCircuitBreaker(toGobreakerSettings(string(ServiceHSS), cfg.HSS))
	m.breakers[ServiceStore] = gobreaker.NewCircuitBreaker(toGobreakerSettings(string(ServiceStore), cfg.Store))
	m.breakers[ServiceSprout] = gobreaker.NewCircuitBreaker(toGobreakerSettings(string(ServiceSprout), cfg.Sprout))

	return m
}

// Execute wraps a function call with circuit breaker protection.
// If circuit breaker is disabled or not configured for the service, executes directly.
func (m *Manager) Execute(service ServiceType, fn func() (interface{}, error)) (interface{}, error) {
	if !m.config.Enabled {
		return fn()
	}

	breaker, ok := m.breakers[service]
	if !ok {
		return fn()
	}

	return breaker.Execute(fn)
}

// State returns the current state of a circuit breaker.
// Returns "disabled" if circuit breakers are not enabled or service not found.
func (m *Manager) State(service ServiceType) string {
	if !m.config.Enabled {
		return "disabled"
	}

	breaker, ok := m.breakers[service]
	if !ok {
		return "not_configured"
	}

	return breaker.State().String()
}

// Counts returns the current counts for a circuit breaker.
func (m *Manager) Counts(service ServiceType) Counts {
	if !m.config.Enabled {
		return Counts{}
	}

	breaker, ok := m.breakers[service]
	if !ok {
		return Counts{}
	}

	c := breaker.Counts()
	return Counts{
		Requests:             c.Requests,
		TotalSuccesses:       c.TotalSuccesses,
		TotalFailures:        c.TotalFailures,
		ConsecutiveSuccesses: c.ConsecutiveSuccesses,
		ConsecutiveFailures:  c.ConsecutiveFailures,
	}
}

// Counts represents circuit breaker statistics.
type Counts struct {
	Requests             uint32
	TotalSuccesses       uint32
	TotalFailures        uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

// toGobreakerSettings converts our config to gobreaker.Settings.
func toGobreakerSettings(name string, cfg BreakerConfig) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if cfg.ConsecutiveFailures > 0 && counts.ConsecutiveFailures >= cfg.ConsecutiveFailures {
				return true
			}

			if cfg.FailureRatio > 0 && cfg.MinRequests > 0 {
				if counts.Requests >= cfg.MinRequests {
					failureRate := float64(counts.TotalFailures) / float64(counts.Requests)
					if failureRate >= cfg.FailureRatio {
						return true
					}
				}
			}

			return false
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit_breaker.state_change")
		},
	}
}

// DefaultConfig returns sensible defaults for circuit breaker configuration.
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		HSS: BreakerConfig{
			MaxRequests:         3,
			Interval:            60 * time.Second,
			Timeout:             30 * time.Second,
			ConsecutiveFailures: 5,
			FailureRatio:        0.5,
			MinRequests:         10,
		},
		Store: BreakerConfig{
			MaxRequests:         5,
			Interval:            30 * time.Second,
			Timeout:             15 * time.Second,
			ConsecutiveFailures: 5,
			FailureRatio:        0.6,
			MinRequests:         10,
		},
		Sprout: BreakerConfig{
			MaxRequests:         3,
			Interval:            60 * time.Second,
			Timeout:             30 * time.Second,
			ConsecutiveFailures: 8,
			FailureRatio:        0.6,
			MinRequests:         15,
		},
	}
}

package observability

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Registry manages a collection of observability hooks.
// It safely dispatches events to all registered hooks with error handling.
type Registry struct {
	cxHooks    []CxTransactionHook
	cacheHooks []CacheHook
	realmHooks []RealmHook
	logger     zerolog.Logger
	mu         sync.RWMutex
}

// NewRegistry creates a new hook registry.
func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		logger: logger,
	}
}

// RegisterCxTransactionHook adds a Cx transaction hook to the registry.
func (r *Registry) RegisterCxTransactionHook(hook CxTransactionHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cxHooks = append(r.cxHooks, hook)
	r.logger.Info().Str("hook", hook.Name()).Msg("registered cx transaction hook")
}

// RegisterCacheHook adds a cache hook to the registry.
func (r *Registry) RegisterCacheHook(hook CacheHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cacheHooks = append(r.cacheHooks, hook)
	r.logger.Info().Str("hook", hook.Name()).Msg("registered cache hook")
}

// RegisterRealmHook adds a realm manager hook to the registry.
func (r *Registry) RegisterRealmHook(hook RealmHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.realmHooks = append(r.realmHooks, hook)
	r.logger.Info().Str("hook", hook.Name()).Msg("registered realm hook")
}

// EmitCxTransactionCompleted dispatches the event to all Cx transaction hooks.
func (r *Registry) EmitCxTransactionCompleted(ctx context.Context, event CxTransactionEvent) {
	r.mu.RLock()
	hooks := r.cxHooks
	r.mu.RUnlock()

	for _, hook := range hooks {
		func() {
			defer r.recoverPanic("OnCxTransactionCompleted", hook.Name())
			hook.OnCxTransactionCompleted(ctx, event)
		}()
	}
}

// EmitCacheOp dispatches the event to all cache hooks.
func (r *Registry) EmitCacheOp(ctx context.Context, event CacheOpEvent) {
	r.mu.RLock()
	hooks := r.cacheHooks
	r.mu.RUnlock()

	for _, hook := range hooks {
		func() {
			defer r.recoverPanic("OnCacheOp", hook.Name())
			hook.OnCacheOp(ctx, event)
		}()
	}
}

// EmitRealmResolve dispatches the event to all realm hooks.
func (r *Registry) EmitRealmResolve(ctx context.Context, event RealmResolveEvent) {
	r.mu.RLock()
	hooks := r.realmHooks
	r.mu.RUnlock()

	for _, hook := range hooks {
		func() {
			defer r.recoverPanic("OnRealmResolve", hook.Name())
			hook.OnRealmResolve(ctx, event)
		}()
	}
}

// recoverPanic recovers from panics in hook implementations.
// This ensures one bad hook doesn't crash the entire system.
func (r *Registry) recoverPanic(method, hookName string) {
	if err := recover(); err != nil {
		r.logger.Error().
			Str("hook", hookName).
			Str("method", method).
			Interface("panic", err).
			Msg("observability hook panicked (recovered)")
	}
}

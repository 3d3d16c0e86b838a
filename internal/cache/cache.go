// Package cache implements the Cache Request Layer (C1): a typed
// request/response contract over the backing store, normalizing store
// errors into the five-kind result taxonomy consumed by the orchestrators.
package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/clearwater-ims/homestead/internal/cacheutil"
	"github.com/clearwater-ims/homestead/internal/circuitbreaker"
	"github.com/clearwater-ims/homestead/internal/metrics"
	"github.com/clearwater-ims/homestead/internal/observability"
	"github.com/clearwater-ims/homestead/internal/store"
	"github.com/sony/gobreaker"
)

// avMicroCacheTTL bounds how long a hit from GetAV may be served out of the
// in-process micro-cache before falling back to the store. It is
// intentionally much shorter than avTTL: it only absorbs bursts of MAR
// retries for the same IMPI within a single registration attempt.
const avMicroCacheTTL = 2 * time.Second

// Cache is the C1 cache request layer. It normalizes store.Store errors,
// stamps writes with a monotonic timestamp, and emits observability events
// for every operation.
type Cache struct {
	store    store.Store
	breakers *circuitbreaker.Manager
	metrics  *metrics.Metrics
	registry *observability.Registry
	ts       timestampSource

	avTTL  time.Duration
	subTTL time.Duration

	avMu    sync.RWMutex
	avCache map[string]cacheutil.CachedValue[store.AV]
}

// Option configures a Cache at construction time.
type Option func(*Cache)

// WithMetrics attaches a metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// WithObservability attaches a hook registry.
func WithObservability(r *observability.Registry) Option {
	return func(c *Cache) { c.registry = r }
}

// New builds a Cache over the given store, with the given circuit breaker
// manager (ServiceStore) and TTLs: avTTL for impi_av rows, subTTL
// (2×hss_reregistration_time, per spec.md §3) for impu_subscription rows.
func New(backing store.Store, breakers *circuitbreaker.Manager, avTTL, subTTL time.Duration, opts ...Option) *Cache {
	c := &Cache{
		store:    backing,
		breakers: breakers,
		avTTL:    avTTL,
		subTTL:   subTTL,
		avCache:  make(map[string]cacheutil.CachedValue[store.AV]),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GenerateTimestamp returns a monotonically non-decreasing microsecond
// timestamp, per spec.md §4.1.
func (c *Cache) GenerateTimestamp() int64 {
	return c.ts.next()
}

func (c *Cache) withStore(ctx context.Context, op string, fn func() error) Result {
	start := time.Now()

	_, err := c.breakers.Execute(circuitbreaker.ServiceStore, func() (interface{}, error) {
		return nil, fn()
	})

	result := classify(err)
	c.emit(ctx, op, result, time.Since(start))
	return result
}

func (c *Cache) emit(ctx context.Context, op string, result Result, duration time.Duration) {
	if c.registry == nil {
		return
	}
	c.registry.EmitCacheOp(ctx, observability.CacheOpEvent{
		Timestamp: time.Now(),
		Op:        op,
		Backend:   "store",
		Result:    string(result),
		Duration:  duration,
	})
}

// classify normalizes a store error into the C1 result taxonomy.
func classify(err error) Result {
	if err == nil {
		return ResultOK
	}
	if errors.Is(err, store.ErrNotFound) {
		return ResultNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ResultTimeout
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ResultUnavailable
	}
	return ResultUnknownError
}

// GetAV returns the stored AV for impi. Result is ResultNotFound on a cache
// miss, ResultOK on a hit, or an error result otherwise. A short-lived
// in-process micro-cache absorbs repeated lookups for the same IMPI within
// a single registration attempt without a store round trip.
func (c *Cache) GetAV(ctx context.Context, impi string) (store.AV, Result) {
	if impi == "" {
		return store.AV{}, ResultInvalidRequest
	}

	var storeResult Result
	av, err := cacheutil.ReadThrough(
		&c.avMu,
		func(now time.Time) (store.AV, bool) {
			if entry, ok := c.avCache[impi]; ok && now.Sub(entry.FetchedAt) < avMicroCacheTTL {
				return entry.Value, true
			}
			return store.AV{}, false
		},
		func(now time.Time) (store.AV, error) {
			var fetched store.AV
			storeResult = c.withStore(ctx, "get_av", func() error {
				var err error
				fetched, err = c.store.GetAV(ctx, impi)
				return err
			})
			if storeResult != ResultOK {
				return store.AV{}, errResult(storeResult)
			}
			c.avCache[impi] = cacheutil.CachedValue[store.AV]{Value: fetched, FetchedAt: now}
			return fetched, nil
		},
	)
	if err != nil {
		return store.AV{}, storeResult
	}
	if storeResult == "" {
		// Served from the micro-cache without touching the store.
		return av, ResultOK
	}
	return av, storeResult
}

// PutAV stamps and persists av for impi with the configured AV TTL. On
// success the micro-cache entry is refreshed with av, so the next read
// observes the write; on failure the entry is dropped.
func (c *Cache) PutAV(ctx context.Context, impi string, av store.AV) Result {
	if impi == "" {
		return ResultInvalidRequest
	}
	ts := c.GenerateTimestamp()
	result := c.withStore(ctx, "put_av", func() error {
		return c.store.PutAV(ctx, impi, av, ts, c.avTTL)
	})

	c.avMu.Lock()
	if result == ResultOK {
		c.avCache[impi] = cacheutil.CachedValue[store.AV]{Value: av, FetchedAt: time.Now()}
	} else {
		delete(c.avCache, impi)
	}
	c.avMu.Unlock()

	return result
}

// errResult is a sentinel wrapper so cacheutil.ReadThrough's fetch failure
// path can carry a Result back out through its plain error return.
type errResult Result

func (e errResult) Error() string { return string(e) }

// GetIMSSubscription returns the subscription row for impu.
func (c *Cache) GetIMSSubscription(ctx context.Context, impu string) (store.IMSSubscription, Result) {
	if impu == "" {
		return store.IMSSubscription{}, ResultInvalidRequest
	}

	var sub store.IMSSubscription
	result := c.withStore(ctx, "get_ims_subscription", func() error {
		var err error
		sub, err = c.store.GetIMSSubscription(ctx, impu)
		return err
	})
	return sub, result
}

// PutIMSSubscription writes an identical row for every IMPU in impus, with
// the configured subscription TTL, using a fresh monotonic timestamp.
func (c *Cache) PutIMSSubscription(ctx context.Context, impus []string, associatedImpis []string, xml string, chargingAddresses string, regState store.RegState) Result {
	if len(impus) == 0 {
		return ResultInvalidRequest
	}
	ts := c.GenerateTimestamp()
	return c.withStore(ctx, "put_ims_subscription", func() error {
		return c.store.PutIMSSubscription(ctx, impus, associatedImpis, xml, chargingAddresses, regState, ts, c.subTTL)
	})
}

// GetAssociatedPrimaryPublicIDs returns the flat union of default IMPUs
// mapped to by the given IMPIs.
func (c *Cache) GetAssociatedPrimaryPublicIDs(ctx context.Context, impis []string) ([]string, Result) {
	if len(impis) == 0 {
		return nil, ResultInvalidRequest
	}

	var impus []string
	result := c.withStore(ctx, "get_associated_primary_public_ids", func() error {
		var err error
		impus, err = c.store.GetAssociatedPrimaryPublicIDs(ctx, impis)
		return err
	})
	return impus, result
}

// DissociateImplicitRegistrationSetFromImpi clears the impu_subscription
// rows for impus and their mapping rows against impis.
func (c *Cache) DissociateImplicitRegistrationSetFromImpi(ctx context.Context, impus []string, impis []string) Result {
	ts := c.GenerateTimestamp()
	return c.withStore(ctx, "dissociate_irs_from_impi", func() error {
		return c.store.DissociateImplicitRegistrationSetFromImpi(ctx, impus, impis, ts)
	})
}

// DeleteIMPIMapping removes all impi_impu_mapping rows for the given IMPIs.
func (c *Cache) DeleteIMPIMapping(ctx context.Context, impis []string) Result {
	ts := c.GenerateTimestamp()
	return c.withStore(ctx, "delete_impi_mapping", func() error {
		return c.store.DeleteIMPIMapping(ctx, impis, ts)
	})
}

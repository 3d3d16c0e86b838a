package observability

import (
	"context"
	"time"
)

// Hook is the base interface for all observability hooks.
type Hook interface {
	// Name returns the hook's identifier for logging/debugging
	Name() string
}

// CxTransactionHook receives events from the Diameter transaction layer (C2).
type CxTransactionHook interface {
	Hook

	// OnCxTransactionCompleted is called when a Cx transaction receives an
	// answer or times out.
	OnCxTransactionCompleted(ctx context.Context, event CxTransactionEvent)
}

// CacheHook receives events from the cache request layer (C1).
type CacheHook interface {
	Hook

	// OnCacheOp is called when a cache request layer operation against the
	// backing store completes.
	OnCacheOp(ctx context.Context, event CacheOpEvent)
}

// RealmHook receives events from the realm manager (C9).
type RealmHook interface {
	Hook

	// OnRealmResolve is called after a peer resolution attempt.
	OnRealmResolve(ctx context.Context, event RealmResolveEvent)
}

// ===============================================
// Event Types
// ===============================================

// CxTransactionEvent is emitted when a Cx Diameter transaction completes.
type CxTransactionEvent struct {
	Timestamp time.Time
	Bucket    string // "hss", "hss_digest", "hss_subscription", "cache"
	Command   string // "MAR", "UAR", "LIR", "SAR" (the requests sent through diameter.Transactor)
	Success   bool
	TimedOut  bool
	Duration  time.Duration
}

// CacheOpEvent is emitted when a cache request layer operation completes.
type CacheOpEvent struct {
	Timestamp time.Time
	Op        string // "get_av", "put_av", "get_ims_subscription", ...
	Backend   string // always "store"; the backend type is not distinguished
	Result    string // "OK", "NOT_FOUND", "TIMEOUT", "UNAVAILABLE", "INVALID_REQUEST", "UNKNOWN_ERROR"
	Duration  time.Duration
}

// RealmResolveEvent is emitted after a realm manager peer resolution attempt.
type RealmResolveEvent struct {
	Timestamp       time.Time
	Realm           string
	PeersConnected  int
	PeersTombstoned int
	Success         bool
}

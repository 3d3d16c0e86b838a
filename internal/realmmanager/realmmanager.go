// Package realmmanager implements the background peer resolution/lifecycle
// loop (C9): it keeps the Diameter stack's connected peer set for a given
// (realm, hostname, max_peers) triple in line with what an injected
// Resolver reports, retrying on its own schedule and reacting to
// connection-succeeded/connection-failed callbacks from the stack.
package realmmanager

import (
	"context"
	"sync"
	"time"

	"github.com/clearwater-ims/homestead/internal/metrics"
	"github.com/clearwater-ims/homestead/internal/observability"
	"github.com/rs/zerolog"
)

// Target is one resolved connection candidate, keyed by (host, transport, port).
type Target struct {
	Host      string
	Transport string
	Port      int
}

// Resolver looks up the Diameter peers serving a realm. It returns the
// resolved targets and a TTL after which the caller should resolve again.
type Resolver interface {
	Resolve(ctx context.Context, realm, hostname string, maxPeers int) ([]Target, time.Duration, error)
}

// Stack is the subset of the Diameter stack the realm manager drives.
// Stack.Add and Stack.Remove are invoked only from the manager's own
// control-loop goroutine; the manager itself is the only mutator of its
// peer set.
type Stack interface {
	// Add connects to the peer. It returns false if the stack already
	// considers the peer connected, in which case the manager discards its
	// own record of it rather than tracking a duplicate.
	Add(peer *Peer) bool
	// Remove tears down the peer's connection. The peer is tombstoned until
	// a connection-closed callback removes it from the manager's peer set.
	Remove(peer *Peer)
}

// Peer is one tracked realm-manager connection.
type Peer struct {
	Target

	mu         sync.Mutex
	connected  bool
	tombstoned bool
}

func (p *Peer) key() Target { return p.Target }

// Connected reports whether the stack has confirmed this peer's connection.
func (p *Peer) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

// Tombstoned reports whether Remove has been called on this peer and the
// manager is waiting for the connection-closed callback.
func (p *Peer) Tombstoned() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tombstoned
}

// Manager runs the C9 control loop for one (realm, hostname) pair.
type Manager struct {
	realm    string
	hostname string
	maxPeers int
	floor    time.Duration

	resolver Resolver
	stack    Stack
	metrics  *metrics.Metrics
	registry *observability.Registry
	logger   zerolog.Logger

	mu    sync.Mutex
	peers []*Peer

	wake   chan struct{}
	stopCh chan struct{}
	done   chan struct{}
}

// Option configures a Manager at construction time.
type Option func(*Manager)

// WithMetrics attaches a metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(mgr *Manager) { mgr.metrics = m }
}

// WithObservability attaches a hook registry.
func WithObservability(r *observability.Registry) Option {
	return func(mgr *Manager) { mgr.registry = r }
}

// WithLogger attaches a logger.
func WithLogger(l zerolog.Logger) Option {
	return func(mgr *Manager) { mgr.logger = l }
}

// New builds a Manager for the given realm/hostname/max_peers triple.
// floor bounds how often the loop ticks even if the resolver reports a
// longer TTL, so a misconfigured resolver cannot starve peer churn
// detection indefinitely.
func New(realm, hostname string, maxPeers int, floor time.Duration, resolver Resolver, stack Stack, opts ...Option) *Manager {
	m := &Manager{
		realm:    realm,
		hostname: hostname,
		maxPeers: maxPeers,
		floor:    floor,
		resolver: resolver,
		stack:    stack,
		wake:     make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start launches the control loop in a background goroutine.
func (m *Manager) Start(ctx context.Context) {
	go m.run(ctx)
}

// Stop removes every still-connected peer and waits for the control loop to
// exit. It is the first resource to stop at shutdown, per spec.md §5: the
// realm manager must stop creating new peers before the HTTP frontend
// drains and the Diameter stack itself is stopped.
func (m *Manager) Stop() {
	close(m.stopCh)
	<-m.done

	m.mu.Lock()
	peers := m.peers
	m.peers = nil
	m.mu.Unlock()

	for _, p := range peers {
		if p.Connected() && !p.Tombstoned() {
			m.stack.Remove(p)
		}
	}
}

func (m *Manager) run(ctx context.Context) {
	defer close(m.done)

	ttl := m.floor
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ctx.Done():
			return
		case <-timer.C:
			resolved, err := m.manageConnections(ctx)
			if err != nil {
				m.logger.Warn().Err(err).Str("realm", m.realm).Msg("realmmanager.resolve_failed")
				ttl = m.floor
			} else {
				ttl = resolved
				if ttl <= 0 || ttl > m.floor {
					ttl = m.floor
				}
			}
			timer.Reset(ttl)
		}
	}
}

// manageConnections runs one tick of the algorithm in spec.md §4.9: resolve
// targets, add what's missing, remove what's no longer wanted.
func (m *Manager) manageConnections(ctx context.Context) (time.Duration, error) {
	targets, ttl, err := m.resolver.Resolve(ctx, m.realm, m.hostname, m.maxPeers)
	success := err == nil
	if m.metrics != nil {
		result := "success"
		if !success {
			result = "failure"
		}
		m.metrics.ObserveRealmResolve(result)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		m.emitResolve(ctx, success)
		return 0, err
	}

	wanted := make(map[Target]bool, len(targets))
	for _, t := range targets {
		wanted[t] = true
	}

	current := make(map[Target]*Peer, len(m.peers))
	for _, p := range m.peers {
		current[p.key()] = p
	}

	var kept []*Peer
	for _, p := range m.peers {
		if wanted[p.key()] {
			kept = append(kept, p)
			continue
		}
		if p.Tombstoned() {
			// Stays tracked until ConnectionClosed drops it.
			kept = append(kept, p)
			continue
		}
		if p.Connected() {
			p.mu.Lock()
			p.tombstoned = true
			p.mu.Unlock()
			m.stack.Remove(p)
			kept = append(kept, p)
		}
		// Peers that are neither connected nor tombstoned are dropped
		// outright: the stack never took ownership of them.
	}

	for t := range wanted {
		if _, ok := current[t]; ok {
			continue
		}
		peer := &Peer{Target: t}
		if m.stack.Add(peer) {
			kept = append(kept, peer)
		}
	}

	m.peers = kept
	m.emitResolveLocked(ctx, success)

	return ttl, nil
}

func (m *Manager) emitResolve(ctx context.Context, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emitResolveLocked(ctx, success)
}

func (m *Manager) emitResolveLocked(ctx context.Context, success bool) {
	connected, tombstoned := m.countsLocked()
	if m.metrics != nil {
		m.metrics.SetRealmPeerCounts(connected, tombstoned)
	}
	if m.registry != nil {
		m.registry.EmitRealmResolve(ctx, observability.RealmResolveEvent{
			Timestamp:       time.Now(),
			Realm:           m.realm,
			PeersConnected:  connected,
			PeersTombstoned: tombstoned,
			Success:         success,
		})
	}
}

func (m *Manager) countsLocked() (connected, tombstoned int) {
	for _, p := range m.peers {
		if p.Tombstoned() {
			tombstoned++
		} else if p.Connected() {
			connected++
		}
	}
	return
}

// ConnectionSucceeded marks peer connected. Call it from the stack's
// connection-succeeded callback.
func (m *Manager) ConnectionSucceeded(peer *Peer) {
	peer.mu.Lock()
	peer.connected = true
	peer.mu.Unlock()
}

// ConnectionFailed drops peer from the managed set immediately; it does not
// count against max_peers on the next tick. Call it from the stack's
// connection-failed callback.
func (m *Manager) ConnectionFailed(peer *Peer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.peers {
		if p == peer {
			m.peers = append(m.peers[:i], m.peers[i+1:]...)
			break
		}
	}
}

// ConnectionClosed drops a tombstoned peer once the stack confirms the
// connection has actually closed. Call it from the stack's
// connection-closed callback.
func (m *Manager) ConnectionClosed(peer *Peer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.peers {
		if p == peer {
			m.peers = append(m.peers[:i], m.peers[i+1:]...)
			break
		}
	}
}

// PeerSnapshot is a read-only view of one tracked peer, for the
// GET /_status/realms admin endpoint.
type PeerSnapshot struct {
	Host       string `json:"host"`
	Transport  string `json:"transport"`
	Port       int    `json:"port"`
	Connected  bool   `json:"connected"`
	Tombstoned bool   `json:"tombstoned"`
}

// Snapshot returns the current peer set for status reporting.
func (m *Manager) Snapshot() []PeerSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]PeerSnapshot, 0, len(m.peers))
	for _, p := range m.peers {
		out = append(out, PeerSnapshot{
			Host:       p.Host,
			Transport:  p.Transport,
			Port:       p.Port,
			Connected:  p.Connected(),
			Tombstoned: p.Tombstoned(),
		})
	}
	return out
}

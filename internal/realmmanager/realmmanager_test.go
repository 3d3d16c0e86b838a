package realmmanager

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeResolver struct {
	mu      sync.Mutex
	targets []Target
	ttl     time.Duration
}

func (r *fakeResolver) set(ttl time.Duration, targets ...Target) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.targets = targets
	r.ttl = ttl
}

func (r *fakeResolver) Resolve(ctx context.Context, realm, hostname string, maxPeers int) ([]Target, time.Duration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Target, len(r.targets))
	copy(out, r.targets)
	return out, r.ttl, nil
}

type fakeStack struct {
	mu      sync.Mutex
	added   []*Peer
	removed []*Peer
	reject  map[Target]bool
}

func (s *fakeStack) Add(peer *Peer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reject[peer.Target] {
		return false
	}
	s.added = append(s.added, peer)
	return true
}

func (s *fakeStack) Remove(peer *Peer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, peer)
}

func (s *fakeStack) addCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.added)
}

func (s *fakeStack) removeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.removed)
}

var (
	peer1 = Target{Host: "1.1.1.1", Transport: "tcp", Port: 3868}
	peer2 = Target{Host: "2.2.2.2", Transport: "tcp", Port: 3868}
	peer3 = Target{Host: "3.3.3.3", Transport: "tcp", Port: 3868}
)

// TestManageConnections mirrors the Clearwater realm manager's
// ManageConnections unit test: resolver churn across five ticks should
// produce the corresponding add/remove calls on the stack.
func TestManageConnections(t *testing.T) {
	resolver := &fakeResolver{}
	stack := &fakeStack{reject: map[Target]bool{}}
	m := New("hss.example.com", "hss1.example.com", 2, time.Second, resolver, stack)

	// Tick 1: resolver returns peer1, peer2. Expect two adds.
	resolver.set(15*time.Second, peer1, peer2)
	ttl, err := m.manageConnections(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ttl != 15*time.Second {
		t.Fatalf("expected ttl 15s, got %v", ttl)
	}
	if stack.addCount() != 2 {
		t.Fatalf("expected 2 adds, got %d", stack.addCount())
	}

	// peer1's connection fails; mark the rest connected.
	m.mu.Lock()
	var toFail *Peer
	for _, p := range m.peers {
		if p.Target == peer1 {
			toFail = p
		}
	}
	m.mu.Unlock()
	m.ConnectionFailed(toFail)
	m.mu.Lock()
	for _, p := range m.peers {
		m.ConnectionSucceeded(p)
	}
	m.mu.Unlock()

	// Tick 2: resolver returns peer2 (already connected), peer3 (new).
	resolver.set(10*time.Second, peer2, peer3)
	ttl, err = m.manageConnections(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ttl != 10*time.Second {
		t.Fatalf("expected ttl 10s, got %v", ttl)
	}
	if stack.addCount() != 3 {
		t.Fatalf("expected 3 cumulative adds, got %d", stack.addCount())
	}

	m.mu.Lock()
	for _, p := range m.peers {
		m.ConnectionSucceeded(p)
	}
	m.mu.Unlock()

	// Tick 3: resolver returns only peer2. Expect one remove (peer3).
	resolver.set(15*time.Second, peer2)
	if _, err := m.manageConnections(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stack.removeCount() != 1 {
		t.Fatalf("expected 1 remove, got %d", stack.removeCount())
	}

	// Tick 4: resolver returns peer2, peer3 again. peer3 is still tracked
	// as a tombstone (no connection-closed callback yet), so no new Add is
	// issued for it; the stack would refuse it anyway (Add returns false).
	// Either way the count of accepted adds stays at 3.
	stack.reject[peer3] = true
	resolver.set(15*time.Second, peer2, peer3)
	if _, err := m.manageConnections(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stack.addCount() != 3 {
		t.Fatalf("expected 3 cumulative adds, got %d", stack.addCount())
	}

	// Tick 5: resolver returns no peers. Expect the remaining connection
	// (peer2) to be torn down.
	resolver.set(15*time.Second)
	if _, err := m.manageConnections(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stack.removeCount() != 2 {
		t.Fatalf("expected 2 cumulative removes, got %d", stack.removeCount())
	}
}

func TestConnectionFailedDropsPeerImmediately(t *testing.T) {
	resolver := &fakeResolver{}
	stack := &fakeStack{reject: map[Target]bool{}}
	m := New("r", "h", 1, time.Second, resolver, stack)

	resolver.set(15*time.Second, peer1)
	if _, err := m.manageConnections(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.Snapshot()) != 1 {
		t.Fatalf("expected 1 tracked peer, got %d", len(m.Snapshot()))
	}

	m.mu.Lock()
	p := m.peers[0]
	m.mu.Unlock()
	m.ConnectionFailed(p)

	if len(m.Snapshot()) != 0 {
		t.Fatalf("expected 0 tracked peers after connection failure, got %d", len(m.Snapshot()))
	}
}

func TestStopRemovesConnectedPeers(t *testing.T) {
	resolver := &fakeResolver{}
	stack := &fakeStack{reject: map[Target]bool{}}
	m := New("r", "h", 1, time.Second, resolver, stack)

	resolver.set(15*time.Second, peer1)
	if _, err := m.manageConnections(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m.mu.Lock()
	for _, p := range m.peers {
		m.ConnectionSucceeded(p)
	}
	m.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	m.Start(ctx)
	m.Stop()
	cancel()

	if stack.removeCount() != 1 {
		t.Fatalf("expected 1 remove on stop, got %d", stack.removeCount())
	}
}

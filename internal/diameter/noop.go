package diameter

import (
	"context"
	"errors"
)

// ErrStackNotConfigured is returned by NoopStack.SendRequest. It exists so a
// Homestead instance can start up and serve HTTP (and exercise the cache
// read path) before a real Diameter driver has been wired in.
var ErrStackNotConfigured = errors.New("diameter: no stack configured")

// NoopStack satisfies Stack without a live Cx peer, mirroring the teacher's
// NoopNotifier: every outbound request fails immediately and no inbound
// handler ever fires, so the node behaves as if the HSS is always
// unreachable rather than silently hanging.
type NoopStack struct {
	Realm, Host string
}

func (NoopStack) SendRequest(ctx context.Context, destRealm, destHost string, req Message, onResponse func(Message), onTimeout func()) error {
	return ErrStackNotConfigured
}

func (s NoopStack) LocalRealm() string { return s.Realm }
func (s NoopStack) LocalHost() string  { return s.Host }

func (NoopStack) RegisterRequestHandler(commandCode uint32, handler func(ctx context.Context, req Message) Message) {
}

// Package diameter implements the Cx Diameter Transaction Layer (C2): a
// one-shot request/answer/timeout correlation on top of an injected Stack,
// the actual Diameter wire codec and peer table being an external
// collaborator. It does not retry; retry policy, if any, lives above it in
// the orchestrators.
package diameter

import (
	"context"
	"errors"
)

// ErrTimeout is returned by SendRequest when the transaction's timer fires
// before an answer arrives.
var ErrTimeout = errors.New("diameter: transaction timed out")

// AVPs is a flat bag of decoded AVP values, keyed by AVP name. Grouped AVPs
// (e.g. SIP-Auth-Data-Item, Experimental-Result) nest as []AVPs or AVPs
// values. The wire encode/decode of this bag into real Diameter octets is
// the Stack implementation's job, not this layer's.
type AVPs map[string]interface{}

// Message is the minimal shape a Stack needs to expose to the transaction
// layer: a command code plus a decoded AVP bag that internal/cx knows how
// to build and parse.
type Message struct {
	// CommandCode identifies the Diameter command, e.g. 303 for MAR/MAA.
	CommandCode uint32
	// ApplicationID is the Diameter application carrying the command (the
	// 3GPP Cx/Dx application ID).
	ApplicationID uint32
	// Request is true for a request message, false for an answer.
	Request bool
	// SessionID correlates a request to its answer when the Stack does not
	// do so itself.
	SessionID string
	// Avps carries the message's decoded AVPs.
	Avps AVPs
}

// LocalIdentity is the subset of Stack (and of Transactor, which
// passes it through) needed by internal/cx to stamp Origin-Realm/
// Origin-Host on outbound messages.
type LocalIdentity interface {
	LocalRealm() string
	LocalHost() string
}

// Stack is the interface homestead requires of the underlying Diameter
// peer/transport implementation. It is injected so that internal/diameter
// and everything above it can be exercised without a live Cx peer.
type Stack interface {
	// SendRequest transmits req to destRealm/destHost (destHost may be
	// empty to let the Stack route by realm) and invokes exactly one of
	// onResponse or onTimeout once a correlated answer arrives or the
	// deadline in ctx expires, whichever happens first.
	SendRequest(ctx context.Context, destRealm, destHost string, req Message, onResponse func(Message), onTimeout func()) error

	// LocalRealm and LocalHost identify this node on the Cx interface, used
	// to stamp Origin-Realm/Origin-Host on outbound messages built by
	// internal/cx.
	LocalRealm() string
	LocalHost() string

	// RegisterRequestHandler installs the handler invoked for inbound
	// requests of the given command code (PPR, RTR) originated by the
	// HSS. The handler's returned Message is sent back as the answer.
	RegisterRequestHandler(commandCode uint32, handler func(ctx context.Context, req Message) Message)
}

// Bucket classifies a transaction for statistics purposes.
type Bucket string

const (
	BucketHSS             Bucket = "hss"
	BucketHSSDigest       Bucket = "hss_digest"
	BucketHSSSubscription Bucket = "hss_subscription"
	BucketCache           Bucket = "cache"
)

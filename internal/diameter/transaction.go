package diameter

import (
	"context"
	"time"

	"github.com/clearwater-ims/homestead/internal/circuitbreaker"
	"github.com/clearwater-ims/homestead/internal/metrics"
	"github.com/clearwater-ims/homestead/internal/observability"
)

// Transactor sends one-shot Cx requests and correlates each to its answer
// or timeout, recording statistics against the configured buckets.
type Transactor struct {
	stack    Stack
	breakers *circuitbreaker.Manager
	metrics  *metrics.Metrics
	registry *observability.Registry
}

// NewTransactor builds a Transactor over stack, wrapping every send in the
// ServiceHSS circuit breaker.
func NewTransactor(stack Stack, breakers *circuitbreaker.Manager, m *metrics.Metrics, registry *observability.Registry) *Transactor {
	return &Transactor{stack: stack, breakers: breakers, metrics: m, registry: registry}
}

// LocalRealm and LocalHost pass through to the underlying Stack.
func (t *Transactor) LocalRealm() string { return t.stack.LocalRealm() }
func (t *Transactor) LocalHost() string  { return t.stack.LocalHost() }

// SendRequest sends req to destRealm/destHost and blocks until exactly one
// of an answer or ctx's deadline occurs. The command label used for
// statistics is derived by the caller's bucket/command arguments rather
// than inspected from the wire message, since internal/cx owns that
// mapping.
func (t *Transactor) SendRequest(ctx context.Context, bucket Bucket, command string, destRealm, destHost string, req Message) (Message, error) {
	start := time.Now()

	type outcome struct {
		msg     Message
		timeout bool
	}
	done := make(chan outcome, 1)

	_, sendErr := t.breakers.Execute(circuitbreaker.ServiceHSS, func() (interface{}, error) {
		return nil, t.stack.SendRequest(ctx, destRealm, destHost, req,
			func(answer Message) { done <- outcome{msg: answer} },
			func() { done <- outcome{timeout: true} },
		)
	})
	if sendErr != nil {
		t.complete(ctx, bucket, command, time.Since(start), false, false)
		return Message{}, sendErr
	}

	select {
	case out := <-done:
		if out.timeout {
			t.complete(ctx, bucket, command, time.Since(start), false, true)
			return Message{}, ErrTimeout
		}
		t.complete(ctx, bucket, command, time.Since(start), true, false)
		return out.msg, nil
	case <-ctx.Done():
		t.complete(ctx, bucket, command, time.Since(start), false, true)
		return Message{}, ctx.Err()
	}
}

func (t *Transactor) complete(ctx context.Context, bucket Bucket, command string, duration time.Duration, success, timedOut bool) {
	result := "error"
	switch {
	case success:
		result = "success"
	case timedOut:
		result = "timeout"
	}

	if t.metrics != nil {
		t.metrics.ObserveCxTransaction(string(bucket), command, result, duration)
		if timedOut {
			t.metrics.ObserveCxTimeout(command)
		}
	}
	if t.registry != nil {
		t.registry.EmitCxTransactionCompleted(ctx, observability.CxTransactionEvent{
			Timestamp: time.Now(),
			Bucket:    string(bucket),
			Command:   command,
			Success:   success,
			TimedOut:  timedOut,
			Duration:  duration,
		})
	}
}

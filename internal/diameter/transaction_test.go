package diameter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clearwater-ims/homestead/internal/circuitbreaker"
)

type fakeStack struct {
	realm, host string
	respond     func(onResponse func(Message), onTimeout func())
	sendErr     error
}

func (f *fakeStack) LocalRealm() string { return f.realm }
func (f *fakeStack) LocalHost() string  { return f.host }

func (f *fakeStack) SendRequest(ctx context.Context, destRealm, destHost string, req Message, onResponse func(Message), onTimeout func()) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	go f.respond(onResponse, onTimeout)
	return nil
}

func (f *fakeStack) RegisterRequestHandler(commandCode uint32, handler func(ctx context.Context, req Message) Message) {
}

func noBreakers() *circuitbreaker.Manager {
	return circuitbreaker.NewManager(circuitbreaker.Config{Enabled: false})
}

func TestTransactor_SendRequest_Success(t *testing.T) {
	stack := &fakeStack{
		realm: "homestead.example.com",
		respond: func(onResponse func(Message), onTimeout func()) {
			onResponse(Message{CommandCode: 303, Request: false})
		},
	}
	tr := NewTransactor(stack, noBreakers(), nil, nil)

	answer, err := tr.SendRequest(context.Background(), BucketHSSDigest, "MAR", "example.com", "", Message{CommandCode: 303, Request: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer.CommandCode != 303 {
		t.Fatalf("expected command code 303, got %d", answer.CommandCode)
	}
}

func TestTransactor_SendRequest_Timeout(t *testing.T) {
	stack := &fakeStack{
		respond: func(onResponse func(Message), onTimeout func()) {
			onTimeout()
		},
	}
	tr := NewTransactor(stack, noBreakers(), nil, nil)

	_, err := tr.SendRequest(context.Background(), BucketHSS, "UAR", "example.com", "", Message{})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestTransactor_SendRequest_ContextDeadline(t *testing.T) {
	stack := &fakeStack{
		respond: func(onResponse func(Message), onTimeout func()) {
			time.Sleep(50 * time.Millisecond)
			onTimeout()
		},
	}
	tr := NewTransactor(stack, noBreakers(), nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	_, err := tr.SendRequest(ctx, BucketHSS, "LIR", "example.com", "", Message{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded, got %v", err)
	}
}

func TestTransactor_SendRequest_SendError(t *testing.T) {
	wantErr := errors.New("no peers available")
	stack := &fakeStack{sendErr: wantErr}
	tr := NewTransactor(stack, noBreakers(), nil, nil)

	_, err := tr.SendRequest(context.Background(), BucketHSS, "SAR", "example.com", "", Message{})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected %v, got %v", wantErr, err)
	}
}

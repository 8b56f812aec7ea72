package mock

import (
	"context"
	"sync"
	"time"

	"github.com/Harsh-BH/edgeclassify/internal/command"
)

var _ command.Transport = (*Transport)(nil)

// Call records one Invoke.
type Call struct {
	Target  command.Target
	Method  string
	Payload []byte
	Timeout time.Duration
}

// Transport is a test double for command.Transport. By default the device
// acknowledges with status 200.
type Transport struct {
	mu sync.Mutex

	InvokeFn func(ctx context.Context, target command.Target, method string, payload []byte, timeout time.Duration) (*command.Response, error)

	Calls []Call
}

func (m *Transport) Invoke(ctx context.Context, target command.Target, method string, payload []byte, timeout time.Duration) (*command.Response, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, Call{Target: target, Method: method, Payload: payload, Timeout: timeout})
	m.mu.Unlock()
	if m.InvokeFn != nil {
		return m.InvokeFn(ctx, target, method, payload, timeout)
	}
	return &command.Response{Status: 200}, nil
}

// Silent returns an InvokeFn that never acknowledges: it blocks until the
// timeout or ctx expires and reports command.ErrTimeout.
func Silent() func(ctx context.Context, target command.Target, method string, payload []byte, timeout time.Duration) (*command.Response, error) {
	return func(ctx context.Context, _ command.Target, _ string, _ []byte, timeout time.Duration) (*command.Response, error) {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
		}
		return nil, command.ErrTimeout
	}
}

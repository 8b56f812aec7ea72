package mock

import (
	"context"
	"sync"

	"github.com/Harsh-BH/edgeclassify/internal/queue"
)

// Ensure Queue implements queue.Queue.
var _ queue.Queue = (*Queue)(nil)

// Message is one record captured by Queue.Send.
type Message struct {
	Queue string
	Body  []byte
}

// Queue is an in-memory queue for testing. CreateIfAbsent is idempotent unless
// CreateFn overrides it.
type Queue struct {
	mu      sync.Mutex
	created map[string]bool

	CreateFn func(ctx context.Context, name string) error
	SendFn   func(ctx context.Context, name string, body []byte) error
	PingFn   func(ctx context.Context) error

	// Recorded calls for assertions.
	CreateCalls []string
	Sent        []Message
}

// NewQueue creates a new mock queue.
func NewQueue() *Queue {
	return &Queue{created: make(map[string]bool)}
}

func (m *Queue) CreateIfAbsent(ctx context.Context, name string) error {
	m.mu.Lock()
	m.CreateCalls = append(m.CreateCalls, name)
	m.mu.Unlock()
	if m.CreateFn != nil {
		return m.CreateFn(ctx, name)
	}
	m.mu.Lock()
	m.created[name] = true
	m.mu.Unlock()
	return nil
}

func (m *Queue) Send(ctx context.Context, name string, body []byte) error {
	if m.SendFn != nil {
		if err := m.SendFn(ctx, name, body); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, Message{Queue: name, Body: body})
	return nil
}

func (m *Queue) Ping(ctx context.Context) error {
	if m.PingFn != nil {
		return m.PingFn(ctx)
	}
	return nil
}

func (m *Queue) Close() error {
	return nil
}

// Exists reports whether name was created.
func (m *Queue) Exists(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.created[name]
}

// Messages returns a copy of the sent records.
func (m *Queue) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.Sent))
	copy(out, m.Sent)
	return out
}

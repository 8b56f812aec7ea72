package mock

import (
	"context"
	"sync"

	"github.com/Harsh-BH/edgeclassify/internal/channel"
	"github.com/Harsh-BH/edgeclassify/internal/domain"
)

var _ channel.Channel = (*Channel)(nil)

// Channel is a spy delivery channel. It accepts every job unless DeliverFn is set.
type Channel struct {
	mu sync.Mutex

	DeliverFn func(ctx context.Context, job domain.JobRequest) domain.DeliveryOutcome

	Delivered []domain.JobRequest
}

// NewChannel creates a new spy channel.
func NewChannel() *Channel {
	return &Channel{}
}

func (m *Channel) Name() string { return "mock" }

func (m *Channel) Deliver(ctx context.Context, job domain.JobRequest) domain.DeliveryOutcome {
	m.mu.Lock()
	m.Delivered = append(m.Delivered, job)
	m.mu.Unlock()
	if m.DeliverFn != nil {
		return m.DeliverFn(ctx, job)
	}
	return domain.Accepted()
}

// Calls returns how many times Deliver ran.
func (m *Channel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Delivered)
}

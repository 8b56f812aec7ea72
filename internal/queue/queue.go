// Package queue provides durable, at-least-once work queues used to hand
// classification jobs to edge devices.
package queue

import (
	"context"
	"errors"
)

var (
	// ErrQueueExists is returned by CreateIfAbsent when the backend cannot make
	// creation idempotent on its own. Callers treat it as success.
	ErrQueueExists = errors.New("queue already exists")

	// ErrQueueUnavailable is returned when the broker connection is down.
	ErrQueueUnavailable = errors.New("queue transport unavailable")
)

// Queue is a named durable queue. Ordering across unrelated messages is not guaranteed.
type Queue interface {
	// CreateIfAbsent declares the queue. Creating an existing queue is a no-op.
	CreateIfAbsent(ctx context.Context, name string) error

	// Send appends body to the named queue and returns once the transport acknowledges it.
	Send(ctx context.Context, name string, body []byte) error

	// Ping reports whether the transport is currently usable.
	Ping(ctx context.Context) error

	Close() error
}

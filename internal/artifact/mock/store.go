package mock

import (
	"context"
	"sync"

	"github.com/Harsh-BH/edgeclassify/internal/artifact"
)

// Ensure Store implements artifact.Store and artifact.Writer.
var (
	_ artifact.Store  = (*Store)(nil)
	_ artifact.Writer = (*Store)(nil)
)

// Store is an in-memory artifact store for testing. Listings come back in
// insertion order, which is deliberately not name order.
type Store struct {
	mu         sync.RWMutex
	containers map[string][]artifact.Artifact

	// Hook for injecting errors
	ListFunc func(ctx context.Context, container string) ([]artifact.Artifact, error)

	ListCalls int
}

// NewStore creates a new mock store.
func NewStore() *Store {
	return &Store{
		containers: make(map[string][]artifact.Artifact),
	}
}

func (m *Store) List(ctx context.Context, container string) ([]artifact.Artifact, error) {
	m.mu.Lock()
	m.ListCalls++
	m.mu.Unlock()
	if m.ListFunc != nil {
		return m.ListFunc(ctx, container)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := m.containers[container]
	out := make([]artifact.Artifact, len(items))
	copy(out, items)
	return out, nil
}

func (m *Store) Put(ctx context.Context, container string, a artifact.Artifact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.containers[container]
	for i := range items {
		if items[i].Name == a.Name {
			items[i] = a
			return nil
		}
	}
	m.containers[container] = append(items, a)
	return nil
}

// Package artifact lists result artifacts written back by edge devices.
package artifact

import "context"

// Artifact is one stored object. Locator is its absolute URI.
type Artifact struct {
	Name    string
	Locator string
}

// Store lists the artifacts of a container. Listings are unsorted; any
// pagination is internal and the result is one logical sequence.
// Implementations must be safe for concurrent use.
type Store interface {
	List(ctx context.Context, container string) ([]Artifact, error)
}

// Writer registers artifacts. Devices use it to publish results; the lookup
// path never writes.
type Writer interface {
	Put(ctx context.Context, container string, a Artifact) error
}

package artifact

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
)

const (
	containerKeyPrefix = "edgeclassify:artifacts:"
	scanCount          = 100
)

var (
	_ Store  = (*RedisStore)(nil)
	_ Writer = (*RedisStore)(nil)
)

// RedisStore keeps each container as a hash of artifact name to locator.
type RedisStore struct {
	client *goredis.Client
}

// NewRedisStore creates a Redis-backed artifact store.
func NewRedisStore(client *goredis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// ContainerKey returns the hash key for container.
func ContainerKey(container string) string {
	return containerKeyPrefix + container
}

// List walks the container hash with HSCAN until the cursor returns to zero.
// HSCAN may repeat fields across pages; repeats are dropped.
func (s *RedisStore) List(ctx context.Context, container string) ([]Artifact, error) {
	key := ContainerKey(container)
	seen := make(map[string]struct{})

	var (
		out    []Artifact
		cursor uint64
	)
	for {
		kvs, next, err := s.client.HScan(ctx, key, cursor, "", scanCount).Result()
		if err != nil {
			return nil, fmt.Errorf("redis: list artifacts: %w", err)
		}
		for i := 0; i+1 < len(kvs); i += 2 {
			name := kvs[i]
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, Artifact{Name: name, Locator: kvs[i+1]})
		}
		if next == 0 {
			return out, nil
		}
		cursor = next
	}
}

// Put registers an artifact.
func (s *RedisStore) Put(ctx context.Context, container string, a Artifact) error {
	if err := s.client.HSet(ctx, ContainerKey(container), a.Name, a.Locator).Err(); err != nil {
		return fmt.Errorf("redis: put artifact: %w", err)
	}
	return nil
}

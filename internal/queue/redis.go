package queue

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	registryKey    = "edgeclassify:queues"
	queueKeyPrefix = "edgeclassify:queue:"
)

var _ Queue = (*redisQueue)(nil)

type redisQueue struct {
	client *goredis.Client
	logger *zap.Logger
}

// NewRedisQueue returns a Queue backed by Redis lists. Consumers pop from the
// head of "edgeclassify:queue:<name>".
func NewRedisQueue(client *goredis.Client, logger *zap.Logger) Queue {
	return &redisQueue{client: client, logger: logger}
}

// Key returns the Redis list key holding the named queue.
func Key(name string) string {
	return queueKeyPrefix + name
}

// CreateIfAbsent records the queue in the registry set. SADD is idempotent.
func (r *redisQueue) CreateIfAbsent(ctx context.Context, name string) error {
	added, err := r.client.SAdd(ctx, registryKey, name).Result()
	if err != nil {
		return fmt.Errorf("redis: register queue %q: %w", name, err)
	}
	if added == 1 {
		r.logger.Info("Created queue", zap.String("queue", name))
	}
	return nil
}

func (r *redisQueue) Send(ctx context.Context, name string, body []byte) error {
	if err := r.client.RPush(ctx, Key(name), body).Err(); err != nil {
		return fmt.Errorf("redis: push to queue %q: %w", name, err)
	}
	return nil
}

func (r *redisQueue) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close is a no-op; the client is owned by the caller.
func (r *redisQueue) Close() error {
	return nil
}

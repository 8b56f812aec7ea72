package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	methodChannelPrefix = "edgeclassify:methods:"
	replyKeyPrefix      = "edgeclassify:replies:"

	// replyTTL bounds how long an unread reply key lives in Redis.
	replyTTL = 5 * time.Minute

	// abandonedMarker is pushed onto a reply key nobody will read, so the key
	// exists and carries replyTTL before a late reply lands on it.
	abandonedMarker = "abandoned"
)

var _ Transport = (*redisTransport)(nil)

// Envelope is published to the device module's method channel.
type Envelope struct {
	RequestID string          `json:"request_id"`
	Method    string          `json:"method"`
	Payload   json.RawMessage `json:"payload"`
	ReplyTo   string          `json:"reply_to"`

	// ReplyTTLSeconds is the expiry the device should set on ReplyTo after pushing.
	ReplyTTLSeconds int `json:"reply_ttl_seconds"`
}

type redisTransport struct {
	client *goredis.Client
	logger *zap.Logger
}

// NewRedisTransport returns a Transport that publishes envelopes on
// "edgeclassify:methods:<device>:<module>" and waits on a per-request reply list.
func NewRedisTransport(client *goredis.Client, logger *zap.Logger) Transport {
	return &redisTransport{client: client, logger: logger}
}

// MethodChannel is the pub/sub channel a device module subscribes to.
func MethodChannel(target Target) string {
	return methodChannelPrefix + target.DeviceID + ":" + target.ModuleID
}

func (r *redisTransport) Invoke(ctx context.Context, target Target, method string, payload []byte, timeout time.Duration) (*Response, error) {
	if target.DeviceID == "" || target.ModuleID == "" || method == "" {
		return nil, fmt.Errorf("%w: target %q method %q", ErrMalformedCommand, target, method)
	}
	if !json.Valid(payload) {
		return nil, fmt.Errorf("%w: payload is not valid JSON", ErrMalformedCommand)
	}

	requestID := uuid.NewString()
	replyKey := replyKeyPrefix + requestID
	envelope, err := json.Marshal(Envelope{
		RequestID:       requestID,
		Method:          method,
		Payload:         payload,
		ReplyTo:         replyKey,
		ReplyTTLSeconds: int(replyTTL.Seconds()),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCommand, err)
	}

	receivers, err := r.client.Publish(ctx, MethodChannel(target), envelope).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: publish method %q: %w", method, err)
	}
	if receivers == 0 {
		return nil, fmt.Errorf("%w: %s", ErrDeviceUnreachable, target)
	}

	r.logger.Debug("Invoked device method",
		zap.String("target", target.String()),
		zap.String("method", method),
		zap.String("request_id", requestID),
	)

	result, err := r.client.BLPop(ctx, timeout, replyKey).Result()
	if err != nil {
		r.abandon(context.WithoutCancel(ctx), replyKey)
		switch {
		case errors.Is(err, goredis.Nil):
			return nil, fmt.Errorf("%w after %s", ErrTimeout, timeout)
		case ctx.Err() != nil:
			return nil, fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
		default:
			return nil, fmt.Errorf("redis: await reply: %w", err)
		}
	}

	// BLPOP returns [key, value].
	var resp Response
	if err := json.Unmarshal([]byte(result[1]), &resp); err != nil {
		return nil, fmt.Errorf("redis: decode reply: %w", err)
	}
	return &resp, nil
}

// abandon makes sure replyKey expires even if the device replies after the
// caller stopped waiting. RPUSH keeps an existing TTL, so a late reply
// appended after this still goes away with the key.
func (r *redisTransport) abandon(ctx context.Context, replyKey string) {
	_, err := r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.RPush(ctx, replyKey, abandonedMarker)
		pipe.Expire(ctx, replyKey, replyTTL)
		return nil
	})
	if err != nil {
		r.logger.Warn("Failed to expire abandoned reply key",
			zap.String("reply_key", replyKey),
			zap.Error(err),
		)
	}
}

package command

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testTarget = Target{DeviceID: "object-detection-device", ModuleID: "ObjectDetectionDeviceModule"}

func newTestClient(t *testing.T) *goredis.Client {
	t.Helper()
	_, client := newTestServer(t)
	return client
}

func newTestServer(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

// listen subscribes a fake device module and hands each envelope to reply.
func listen(t *testing.T, client *goredis.Client, reply func(Envelope) *Response) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	sub := client.Subscribe(ctx, MethodChannel(testTarget))
	t.Cleanup(func() { sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	go func() {
		for msg := range sub.Channel() {
			var env Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				continue
			}
			resp := reply(env)
			if resp == nil {
				continue
			}
			body, _ := json.Marshal(resp)
			client.RPush(ctx, env.ReplyTo, body)
		}
	}()
}

func TestRedisTransport_Acknowledged(t *testing.T) {
	client := newTestClient(t)
	received := make(chan Envelope, 1)
	listen(t, client, func(env Envelope) *Response {
		received <- env
		return &Response{Status: 200, Payload: json.RawMessage(`{"Response":"Executed direct method ProcessRequest"}`)}
	})

	tr := NewRedisTransport(client, zap.NewNop())
	resp, err := tr.Invoke(context.Background(), testTarget, "ProcessRequest", []byte(`{"ClassName":"dog"}`), 5*time.Second)
	require.NoError(t, err)
	assert.True(t, resp.Succeeded())

	env := <-received
	assert.Equal(t, "ProcessRequest", env.Method)
	assert.JSONEq(t, `{"ClassName":"dog"}`, string(env.Payload))
	assert.NotEmpty(t, env.RequestID)
}

func TestRedisTransport_DeviceError(t *testing.T) {
	client := newTestClient(t)
	listen(t, client, func(Envelope) *Response {
		return &Response{Status: 500}
	})

	tr := NewRedisTransport(client, zap.NewNop())
	resp, err := tr.Invoke(context.Background(), testTarget, "ProcessRequest", []byte(`{}`), 5*time.Second)
	require.NoError(t, err)
	assert.False(t, resp.Succeeded())
	assert.Equal(t, 500, resp.Status)
}

func TestRedisTransport_Unreachable(t *testing.T) {
	client := newTestClient(t)
	tr := NewRedisTransport(client, zap.NewNop())

	_, err := tr.Invoke(context.Background(), testTarget, "ProcessRequest", []byte(`{}`), time.Second)
	assert.ErrorIs(t, err, ErrDeviceUnreachable)
}

func TestRedisTransport_Timeout(t *testing.T) {
	client := newTestClient(t)
	listen(t, client, func(Envelope) *Response { return nil })

	tr := NewRedisTransport(client, zap.NewNop())
	start := time.Now()
	_, err := tr.Invoke(context.Background(), testTarget, "ProcessRequest", []byte(`{}`), time.Second)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 900*time.Millisecond)
}

func TestRedisTransport_Malformed(t *testing.T) {
	client := newTestClient(t)
	tr := NewRedisTransport(client, zap.NewNop())

	_, err := tr.Invoke(context.Background(), Target{}, "ProcessRequest", []byte(`{}`), time.Second)
	assert.ErrorIs(t, err, ErrMalformedCommand)

	_, err = tr.Invoke(context.Background(), testTarget, "ProcessRequest", []byte(`{not json`), time.Second)
	assert.ErrorIs(t, err, ErrMalformedCommand)
}

func TestRedisTransport_LateReplyExpires(t *testing.T) {
	tests := []struct {
		name    string
		ctx     func() (context.Context, context.CancelFunc)
		timeout time.Duration
	}{
		{
			name:    "reply timeout",
			ctx:     func() (context.Context, context.CancelFunc) { return context.WithCancel(context.Background()) },
			timeout: time.Second,
		},
		{
			name:    "caller deadline",
			ctx:     func() (context.Context, context.CancelFunc) { return context.WithTimeout(context.Background(), 300*time.Millisecond) },
			timeout: 2 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mr, client := newTestServer(t)
			received := make(chan Envelope, 1)
			listen(t, client, func(env Envelope) *Response {
				received <- env
				return nil
			})

			ctx, cancel := tt.ctx()
			defer cancel()
			tr := NewRedisTransport(client, zap.NewNop())
			_, err := tr.Invoke(ctx, testTarget, "ProcessRequest", []byte(`{}`), tt.timeout)
			require.ErrorIs(t, err, ErrTimeout)

			env := <-received
			assert.Equal(t, int(replyTTL.Seconds()), env.ReplyTTLSeconds)

			// The device answers after the caller gave up.
			body, _ := json.Marshal(Response{Status: 200})
			require.NoError(t, client.RPush(context.Background(), env.ReplyTo, body).Err())

			assert.True(t, mr.Exists(env.ReplyTo))
			ttl := mr.TTL(env.ReplyTo)
			assert.Greater(t, ttl, time.Duration(0))
			assert.LessOrEqual(t, ttl, replyTTL)

			mr.FastForward(replyTTL + time.Second)
			assert.False(t, mr.Exists(env.ReplyTo))
		})
	}
}

func TestRedisTransport_AnsweredReplyLeavesNoKey(t *testing.T) {
	mr, client := newTestServer(t)
	replyKeys := make(chan string, 1)
	listen(t, client, func(env Envelope) *Response {
		replyKeys <- env.ReplyTo
		return &Response{Status: 200}
	})

	tr := NewRedisTransport(client, zap.NewNop())
	_, err := tr.Invoke(context.Background(), testTarget, "ProcessRequest", []byte(`{}`), 5*time.Second)
	require.NoError(t, err)
	assert.False(t, mr.Exists(<-replyKeys))
}

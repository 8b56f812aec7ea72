package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	// Reconnection settings
	reconnectDelay    = 2 * time.Second
	maxReconnectDelay = 30 * time.Second

	// Publish timeout
	publishTimeout = 5 * time.Second
)

// Ensure rabbitQueue implements Queue.
var _ Queue = (*rabbitQueue)(nil)

type rabbitQueue struct {
	url     string
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *zap.Logger
	mu      sync.RWMutex
	closed  bool

	// declared holds queue names the broker already knows about.
	declared sync.Map
	declare  func(name string) error
}

// NewRabbitMQQueue dials RabbitMQ and returns a Queue backed by durable quorum queues.
func NewRabbitMQQueue(url string, logger *zap.Logger) (Queue, error) {
	q := &rabbitQueue{
		url:    url,
		logger: logger,
	}
	q.declare = q.declareQuorum

	if err := q.connect(); err != nil {
		return nil, err
	}

	// Watch for connection closures and reconnect
	go q.watchConnection()

	return q, nil
}

func (q *rabbitQueue) connect() error {
	conn, err := amqp.Dial(q.url)
	if err != nil {
		return fmt.Errorf("rabbitmq: dial: %w", err)
	}

	ch, err := openConfirmChannel(conn)
	if err != nil {
		conn.Close()
		return err
	}

	q.mu.Lock()
	q.conn = conn
	q.channel = ch
	q.mu.Unlock()
	q.declared.Clear()

	q.logger.Info("RabbitMQ queue transport initialized")
	return nil
}

func openConfirmChannel(conn *amqp.Connection) (*amqp.Channel, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: channel: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("rabbitmq: enable confirms: %w", err)
	}
	return ch, nil
}

// watchConnection monitors the connection and reconnects on failure.
func (q *rabbitQueue) watchConnection() {
	for {
		q.mu.RLock()
		if q.closed {
			q.mu.RUnlock()
			return
		}
		conn := q.conn
		q.mu.RUnlock()

		if conn == nil {
			time.Sleep(reconnectDelay)
			continue
		}

		// Block until the connection closes
		reason, ok := <-conn.NotifyClose(make(chan *amqp.Error, 1))
		if !ok {
			return
		}

		q.mu.Lock()
		q.channel = nil
		q.mu.Unlock()

		q.logger.Warn("RabbitMQ connection lost, reconnecting...",
			zap.String("reason", reason.Error()),
		)

		delay := reconnectDelay
		for {
			q.mu.RLock()
			if q.closed {
				q.mu.RUnlock()
				return
			}
			q.mu.RUnlock()

			time.Sleep(delay)

			if err := q.connect(); err != nil {
				q.logger.Warn("RabbitMQ reconnect failed", zap.Error(err), zap.Duration("retry_in", delay))
				delay = delay * 2
				if delay > maxReconnectDelay {
					delay = maxReconnectDelay
				}
				continue
			}

			q.logger.Info("RabbitMQ reconnected successfully")
			break
		}
	}
}

// currentChannel returns the publishing channel, reopening it when the broker
// closed it but the connection is still up.
func (q *rabbitQueue) currentChannel() (*amqp.Channel, error) {
	q.mu.RLock()
	ch := q.channel
	q.mu.RUnlock()
	if ch != nil && !ch.IsClosed() {
		return ch, nil
	}

	if err := q.reopenChannel(); err != nil {
		return nil, err
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.channel, nil
}

// CreateIfAbsent declares a durable quorum queue once per name. A
// PRECONDITION_FAILED reply means the queue already exists with other
// arguments; it is reported as ErrQueueExists the first time and remembered.
func (q *rabbitQueue) CreateIfAbsent(ctx context.Context, name string) error {
	if _, ok := q.declared.Load(name); ok {
		return nil
	}

	err := q.declare(name)
	if err == nil || errors.Is(err, ErrQueueExists) {
		q.declared.Store(name, struct{}{})
	}
	return err
}

// declareQuorum runs the declaration on its own channel. The broker closes a
// channel that fails a declaration, and the publishing channel must survive.
func (q *rabbitQueue) declareQuorum(name string) error {
	q.mu.RLock()
	conn := q.conn
	q.mu.RUnlock()
	if conn == nil || conn.IsClosed() {
		return fmt.Errorf("rabbitmq: %w (reconnecting)", ErrQueueUnavailable)
	}

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq: declare channel: %w", err)
	}
	defer ch.Close()

	args := amqp.Table{"x-queue-type": "quorum"}
	_, err = ch.QueueDeclare(name, true, false, false, false, args)
	if err == nil {
		return nil
	}

	var amqpErr *amqp.Error
	if errors.As(err, &amqpErr) && amqpErr.Code == amqp.PreconditionFailed {
		return fmt.Errorf("rabbitmq: declare queue %q: %w", name, ErrQueueExists)
	}
	return fmt.Errorf("rabbitmq: declare queue %q: %w", name, err)
}

func (q *rabbitQueue) reopenChannel() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed || q.conn == nil || q.conn.IsClosed() {
		return fmt.Errorf("rabbitmq: %w (reconnecting)", ErrQueueUnavailable)
	}
	if q.channel != nil && !q.channel.IsClosed() {
		return nil
	}
	ch, err := openConfirmChannel(q.conn)
	if err != nil {
		return err
	}
	q.channel = ch
	q.logger.Info("RabbitMQ channel reopened")
	return nil
}

// Send publishes body to the named queue through the default exchange and waits
// for the broker confirm.
func (q *rabbitQueue) Send(ctx context.Context, name string, body []byte) error {
	ch, err := q.currentChannel()
	if err != nil {
		return err
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	confirm, err := ch.PublishWithDeferredConfirmWithContext(publishCtx,
		"",    // default exchange
		name,  // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "text/plain",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("rabbitmq: publish: %w", err)
	}

	acked, err := confirm.WaitContext(publishCtx)
	if err != nil {
		return fmt.Errorf("rabbitmq: publish confirmation (queue=%s): %w", name, err)
	}
	if !acked {
		return fmt.Errorf("rabbitmq: broker nacked message (queue=%s)", name)
	}

	q.logger.Debug("Published record to RabbitMQ",
		zap.String("queue", name),
		zap.Int("body_size", len(body)),
	)
	return nil
}

// Ping fails while the connection is being re-established.
func (q *rabbitQueue) Ping(ctx context.Context) error {
	_, err := q.currentChannel()
	return err
}

func (q *rabbitQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true

	if q.channel != nil {
		q.channel.Close()
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}

package channel

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Harsh-BH/edgeclassify/internal/domain"
	"github.com/Harsh-BH/edgeclassify/internal/queue"
)

var _ Channel = (*QueueDelivery)(nil)

// QueueDelivery appends jobs to a named durable queue drained by the device.
type QueueDelivery struct {
	queue     queue.Queue
	queueName string
	logger    *zap.Logger
}

// NewQueueDelivery creates a QueueDelivery writing to queueName.
func NewQueueDelivery(q queue.Queue, queueName string, logger *zap.Logger) *QueueDelivery {
	return &QueueDelivery{
		queue:     q,
		queueName: queueName,
		logger:    logger,
	}
}

func (d *QueueDelivery) Name() string { return NameQueue }

// EncodeRecord renders "correlationId|className|thresholdPercentage". The
// delimiter is never escaped; a field containing it is an error.
func EncodeRecord(job domain.JobRequest) (string, error) {
	fields := []string{
		job.CorrelationID().String(),
		job.ClassName(),
		strconv.Itoa(job.ThresholdPercentage()),
	}
	for _, f := range fields {
		if strings.Contains(f, domain.RecordDelimiter) {
			return "", fmt.Errorf("%w: %q", domain.ErrDelimiterInField, f)
		}
	}
	return strings.Join(fields, domain.RecordDelimiter), nil
}

// Deliver creates the queue if absent and enqueues the job record. It returns
// once the transport acknowledges the enqueue.
func (d *QueueDelivery) Deliver(ctx context.Context, job domain.JobRequest) domain.DeliveryOutcome {
	log := d.logger.With(
		zap.String("correlation_id", job.CorrelationID().String()),
		zap.String("queue", d.queueName),
	)

	record, err := EncodeRecord(job)
	if err != nil {
		log.Warn("Refusing to enqueue malformed record", zap.Error(err))
		return domain.Rejected(err.Error())
	}

	if err := d.queue.CreateIfAbsent(ctx, d.queueName); err != nil && !errors.Is(err, queue.ErrQueueExists) {
		log.Error("Failed to create queue", zap.Error(err))
		return faultOutcome(err)
	}

	if err := d.queue.Send(ctx, d.queueName, []byte(record)); err != nil {
		log.Error("Failed to enqueue job", zap.Error(err))
		return faultOutcome(err)
	}

	log.Info("Job enqueued")
	return domain.Accepted()
}

func faultOutcome(err error) domain.DeliveryOutcome {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.TimedOut(err.Error())
	}
	return domain.Rejected(err.Error())
}

package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Harsh-BH/edgeclassify/internal/command"
	"github.com/Harsh-BH/edgeclassify/internal/domain"
)

// DefaultResponseTimeout bounds the wait for the device acknowledgement.
const DefaultResponseTimeout = 30 * time.Second

var _ Channel = (*DirectInvokeDelivery)(nil)

// DirectInvokeDelivery invokes a method on one connected device module and
// waits for its acknowledgement. Invocation is advisory: faults become
// outcomes and never propagate.
type DirectInvokeDelivery struct {
	transport command.Transport
	target    command.Target
	method    string
	timeout   time.Duration
	logger    *zap.Logger
}

// NewDirectInvokeDelivery creates a DirectInvokeDelivery. A non-positive
// timeout selects DefaultResponseTimeout.
func NewDirectInvokeDelivery(transport command.Transport, target command.Target, method string, timeout time.Duration, logger *zap.Logger) *DirectInvokeDelivery {
	if timeout <= 0 {
		timeout = DefaultResponseTimeout
	}
	return &DirectInvokeDelivery{
		transport: transport,
		target:    target,
		method:    method,
		timeout:   timeout,
		logger:    logger,
	}
}

func (d *DirectInvokeDelivery) Name() string { return NameDirect }

// methodPayload is the JSON the device module parses. The key spelling and the
// string-typed threshold are part of the module's contract.
type methodPayload struct {
	CorrelationID       string `json:"CoorelationId"`
	ClassName           string `json:"ClassName"`
	ThresholdPercentage string `json:"ThresholdPercentage"`
}

// EncodePayload renders the structured method payload for job.
func EncodePayload(job domain.JobRequest) ([]byte, error) {
	return json.Marshal(methodPayload{
		CorrelationID:       job.CorrelationID().String(),
		ClassName:           job.ClassName(),
		ThresholdPercentage: strconv.Itoa(job.ThresholdPercentage()),
	})
}

func (d *DirectInvokeDelivery) Deliver(ctx context.Context, job domain.JobRequest) (outcome domain.DeliveryOutcome) {
	log := d.logger.With(
		zap.String("correlation_id", job.CorrelationID().String()),
		zap.String("target", d.target.String()),
		zap.String("method", d.method),
	)

	defer func() {
		if r := recover(); r != nil {
			log.Error("Direct invocation panic recovered", zap.Any("panic", r))
			outcome = domain.Rejected(fmt.Sprintf("transport fault: %v", r))
		}
	}()

	payload, err := EncodePayload(job)
	if err != nil {
		log.Error("Failed to encode method payload", zap.Error(err))
		return domain.Rejected(err.Error())
	}

	invokeCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	resp, err := d.transport.Invoke(invokeCtx, d.target, d.method, payload, d.timeout)
	switch {
	case err == nil:
	case errors.Is(err, command.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		log.Warn("Device did not acknowledge in time", zap.Duration("timeout", d.timeout), zap.Error(err))
		return domain.TimedOut(fmt.Sprintf("no acknowledgement within %s", d.timeout))
	case errors.Is(err, command.ErrDeviceUnreachable):
		log.Warn("Device unreachable", zap.Error(err))
		return domain.Rejected("device unreachable")
	default:
		log.Error("Direct invocation failed", zap.Error(err))
		return domain.Rejected(err.Error())
	}

	if !resp.Succeeded() {
		log.Warn("Device rejected method", zap.Int("status", resp.Status))
		return domain.Rejected(fmt.Sprintf("device returned status %d", resp.Status))
	}

	log.Info("Device acknowledged job")
	return domain.Accepted()
}

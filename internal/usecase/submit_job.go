package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Harsh-BH/edgeclassify/internal/channel"
	"github.com/Harsh-BH/edgeclassify/internal/domain"
	"github.com/Harsh-BH/edgeclassify/internal/metrics"
)

// SubmitJobUsecase validates classification requests and hands them to the
// configured delivery channel. It never waits for the classification result.
type SubmitJobUsecase struct {
	channel channel.Channel
	logger  *zap.Logger
}

// NewSubmitJobUsecase creates a new SubmitJobUsecase.
func NewSubmitJobUsecase(ch channel.Channel, logger *zap.Logger) *SubmitJobUsecase {
	return &SubmitJobUsecase{
		channel: ch,
		logger:  logger,
	}
}

// BuildJob validates untrusted input and mints a correlation ID. The class
// name is checked before the threshold. BuildJob has no side effects.
func BuildJob(rawClassName, rawThreshold string) (domain.JobRequest, error) {
	className, err := domain.NormalizeClassName(rawClassName)
	if err != nil {
		return domain.JobRequest{}, err
	}
	threshold, err := domain.ParseThresholdPercentage(rawThreshold)
	if err != nil {
		return domain.JobRequest{}, err
	}

	id, err := domain.NewCorrelationID()
	if err != nil {
		return domain.JobRequest{}, err
	}
	return domain.NewJobRequest(id, className, threshold)
}

// Execute validates the input, delivers the job and returns both the job and
// the delivery outcome. Only validation failures are returned as errors.
func (uc *SubmitJobUsecase) Execute(ctx context.Context, rawClassName, rawThreshold string) (*domain.SubmitResult, error) {
	job, err := BuildJob(rawClassName, rawThreshold)
	if err != nil {
		metrics.ValidationRejectsTotal.Inc()
		uc.logger.Debug("Rejected job submission", zap.Error(err))
		return nil, fmt.Errorf("submit job: %w", err)
	}

	start := time.Now()
	outcome := uc.channel.Deliver(ctx, job)
	metrics.DeliveryDuration.WithLabelValues(uc.channel.Name()).Observe(time.Since(start).Seconds())
	metrics.SubmissionsTotal.WithLabelValues(uc.channel.Name(), string(outcome.Status)).Inc()

	fields := []zap.Field{
		zap.String("correlation_id", job.CorrelationID().String()),
		zap.String("class_name", job.ClassName()),
		zap.Int("threshold_percentage", job.ThresholdPercentage()),
		zap.String("channel", uc.channel.Name()),
		zap.String("outcome", string(outcome.Status)),
	}
	if outcome.IsAccepted() {
		uc.logger.Info("Job submitted successfully", fields...)
	} else {
		uc.logger.Warn("Job delivery not accepted", append(fields, zap.String("reason", outcome.Reason))...)
	}

	return &domain.SubmitResult{
		Job:     job,
		Outcome: outcome,
		Channel: uc.channel.Name(),
	}, nil
}

package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Harsh-BH/edgeclassify/internal/artifact"
	"github.com/Harsh-BH/edgeclassify/internal/domain"
	"github.com/Harsh-BH/edgeclassify/internal/metrics"
)

// MinPollInterval is the shortest interval at which callers should repeat a
// lookup. Each lookup lists the whole container.
const MinPollInterval = 2 * time.Second

// LookupResultUsecase answers whether the result artifact for a correlation ID
// exists yet. Each call is a single side-effect-free scan; nothing is cached.
type LookupResultUsecase struct {
	store     artifact.Store
	container string
	logger    *zap.Logger
}

// NewLookupResultUsecase creates a new LookupResultUsecase over container.
func NewLookupResultUsecase(store artifact.Store, container string, logger *zap.Logger) *LookupResultUsecase {
	return &LookupResultUsecase{
		store:     store,
		container: container,
		logger:    logger,
	}
}

// Execute lists the container and looks for "<id>/imageWithDetection.jpg",
// ignoring letter case. Entries without a locator are skipped. Absence is not
// an error. Store faults are returned wrapped in domain.ErrLookupFailed.
func (uc *LookupResultUsecase) Execute(ctx context.Context, id domain.CorrelationID) (*domain.ResultLocator, error) {
	start := time.Now()
	defer func() { metrics.LookupDuration.Observe(time.Since(start).Seconds()) }()

	items, err := uc.store.List(ctx, uc.container)
	if err != nil {
		metrics.LookupsTotal.WithLabelValues("error").Inc()
		uc.logger.Error("Failed to list result artifacts",
			zap.String("correlation_id", id.String()),
			zap.String("container", uc.container),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", domain.ErrLookupFailed, err)
	}

	want := domain.ResultArtifactPath(id)
	for _, item := range items {
		// A catalog entry without a locator cannot be served yet.
		if item.Locator == "" {
			continue
		}
		if strings.EqualFold(item.Name, want) {
			metrics.LookupsTotal.WithLabelValues("ready").Inc()
			uc.logger.Debug("Result artifact found",
				zap.String("correlation_id", id.String()),
				zap.String("uri", item.Locator),
			)
			return &domain.ResultLocator{
				CorrelationID: id,
				Status:        domain.ResultReady,
				URI:           item.Locator,
			}, nil
		}
	}

	metrics.LookupsTotal.WithLabelValues("pending").Inc()
	return &domain.ResultLocator{
		CorrelationID: id,
		Status:        domain.ResultPending,
	}, nil
}

// ExecuteRaw parses a client-supplied correlation ID before looking it up.
func (uc *LookupResultUsecase) ExecuteRaw(ctx context.Context, rawID string) (*domain.ResultLocator, error) {
	id, err := domain.ParseCorrelationID(rawID)
	if err != nil {
		return nil, err
	}
	return uc.Execute(ctx, id)
}

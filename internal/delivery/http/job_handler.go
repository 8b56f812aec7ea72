package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Harsh-BH/edgeclassify/internal/domain"
	"github.com/Harsh-BH/edgeclassify/internal/usecase"
)

// JobHandler handles HTTP requests for classification jobs.
type JobHandler struct {
	submitUC         *usecase.SubmitJobUsecase
	lookupUC         *usecase.LookupResultUsecase
	defaultThreshold int
	logger           *zap.Logger
}

// NewJobHandler creates a new JobHandler. defaultThreshold is used when a
// submission omits the threshold.
func NewJobHandler(submitUC *usecase.SubmitJobUsecase, lookupUC *usecase.LookupResultUsecase, defaultThreshold int, logger *zap.Logger) *JobHandler {
	return &JobHandler{
		submitUC:         submitUC,
		lookupUC:         lookupUC,
		defaultThreshold: defaultThreshold,
		logger:           logger,
	}
}

// ResultPath returns the polling URL for a job.
func ResultPath(id domain.CorrelationID) string {
	return "/api/v1/jobs/" + id.String() + "/result"
}

// outcomeStatus maps a delivery outcome onto the submit response code.
func outcomeStatus(outcome domain.DeliveryOutcome) int {
	switch outcome.Status {
	case domain.DeliveryAccepted:
		return http.StatusAccepted
	case domain.DeliveryTimedOut:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

// Submit handles POST /api/v1/jobs
func (h *JobHandler) Submit(c *gin.Context) {
	var req domain.SubmitRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body: " + err.Error(),
		})
		return
	}

	threshold := req.ThresholdPercentage.String()
	if threshold == "" {
		threshold = strconv.Itoa(h.defaultThreshold)
	}

	result, err := h.submitUC.Execute(c.Request.Context(), req.ClassName, threshold)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Submit job failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	id := result.Job.CorrelationID()
	c.JSON(outcomeStatus(result.Outcome), domain.SubmitResponse{
		CorrelationID:       id,
		ClassName:           result.Job.ClassName(),
		ThresholdPercentage: result.Job.ThresholdPercentage(),
		Channel:             result.Channel,
		Outcome:             result.Outcome,
		ResultURL:           ResultPath(id),
	})
}

// Result handles GET /api/v1/jobs/:id/result
func (h *JobHandler) Result(c *gin.Context) {
	loc, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, loc)
}

// HasImageUploaded handles GET /objectclassification/:id/hasimageuploaded.
// The body is a bare JSON string: the artifact URI, or "" while pending.
func (h *JobHandler) HasImageUploaded(c *gin.Context) {
	loc, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, loc.URI)
}

func (h *JobHandler) lookup(c *gin.Context) (*domain.ResultLocator, bool) {
	idStr := c.Param("id")
	loc, err := h.lookupUC.ExecuteRaw(c.Request.Context(), idStr)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCorrelationID):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid correlation ID format"})
		case errors.Is(err, domain.ErrLookupFailed):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": domain.ErrLookupFailed.Error()})
		default:
			h.logger.Error("Result lookup failed", zap.Error(err), zap.String("correlation_id", idStr))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return nil, false
	}
	return loc, true
}

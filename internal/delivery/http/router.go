package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Harsh-BH/edgeclassify/internal/delivery/http/middleware"
	"github.com/Harsh-BH/edgeclassify/internal/usecase"
)

// maxSubmitBodyBytes bounds submission bodies; a job is two short fields.
const maxSubmitBodyBytes = 16 << 10

// RouterDeps holds everything NewRouter wires into handlers.
type RouterDeps struct {
	SubmitUC         *usecase.SubmitJobUsecase
	LookupUC         *usecase.LookupResultUsecase
	Logger           *zap.Logger
	RateLimitPerMin  int
	DefaultThreshold int
	PollInterval     time.Duration
	HealthChecks     map[string]HealthCheck
}

// NewRouter creates and configures the Gin router with all routes and middleware.
func NewRouter(deps *RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger(deps.Logger))

	// Metrics endpoint (no rate limiting)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	jobHandler := NewJobHandler(deps.SubmitUC, deps.LookupUC, deps.DefaultThreshold, deps.Logger)
	wsHandler := NewWebSocketHandler(deps.LookupUC, deps.PollInterval, deps.Logger)

	// API v1 group
	v1 := router.Group("/api/v1")
	{
		healthHandler := NewHealthHandler(deps.HealthChecks, deps.Logger)
		v1.GET("/health", healthHandler.Health)

		v1.POST("/jobs",
			middleware.RateLimiter(deps.RateLimitPerMin),
			middleware.BodySizeLimit(maxSubmitBodyBytes),
			jobHandler.Submit,
		)
		v1.GET("/jobs/:id/result", jobHandler.Result)
		v1.GET("/jobs/:id/stream", wsHandler.Stream)
	}

	// Legacy route polled by the browser client.
	router.GET("/objectclassification/:id/hasimageuploaded", jobHandler.HasImageUploaded)

	return router
}

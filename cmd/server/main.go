package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Harsh-BH/edgeclassify/internal/artifact"
	"github.com/Harsh-BH/edgeclassify/internal/channel"
	"github.com/Harsh-BH/edgeclassify/internal/command"
	"github.com/Harsh-BH/edgeclassify/internal/config"
	handler "github.com/Harsh-BH/edgeclassify/internal/delivery/http"
	"github.com/Harsh-BH/edgeclassify/internal/queue"
	"github.com/Harsh-BH/edgeclassify/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	logger.Info("Starting edge classification API server")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server exited with error", zap.Error(err))
	}
	logger.Info("API server stopped")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	gin.SetMode(cfg.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	checks := map[string]handler.HealthCheck{}

	// Connect to Redis. It backs the direct-method transport, the redis queue
	// and the redis artifact catalog.
	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	logger.Info("Connected to Redis")
	checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }

	store, closeStore, err := buildArtifactStore(ctx, cfg, rdb, checks, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	ch, closeChannel, err := buildChannel(cfg, rdb, checks, logger)
	if err != nil {
		return err
	}
	defer closeChannel()
	logger.Info("Delivery channel ready", zap.String("channel", ch.Name()))

	// Initialize use cases
	submitUC := usecase.NewSubmitJobUsecase(ch, logger)
	lookupUC := usecase.NewLookupResultUsecase(store, cfg.Artifact.Container, logger)

	// Initialize router
	router := handler.NewRouter(&handler.RouterDeps{
		SubmitUC:         submitUC,
		LookupUC:         lookupUC,
		Logger:           logger,
		RateLimitPerMin:  cfg.Server.RateLimit,
		DefaultThreshold: cfg.Jobs.DefaultThresholdPercentage,
		PollInterval:     cfg.Jobs.PollInterval,
		HealthChecks:     checks,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("API server listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down API server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func buildArtifactStore(ctx context.Context, cfg *config.Config, rdb *redis.Client, checks map[string]handler.HealthCheck, logger *zap.Logger) (artifact.Store, func(), error) {
	if !cfg.NeedsPostgres() {
		return artifact.NewRedisStore(rdb), func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping postgres: %w", err)
	}
	logger.Info("Connected to PostgreSQL")

	store := artifact.NewPostgresStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	checks["postgres"] = store.Ping
	return store, pool.Close, nil
}

func buildChannel(cfg *config.Config, rdb *redis.Client, checks map[string]handler.HealthCheck, logger *zap.Logger) (channel.Channel, func(), error) {
	if cfg.Delivery.Mode == config.DeliveryDirect {
		transport := command.NewRedisTransport(rdb, logger)
		target := command.Target{DeviceID: cfg.Device.ID, ModuleID: cfg.Device.ModuleID}
		ch := channel.NewDirectInvokeDelivery(transport, target, cfg.Device.Method, cfg.Device.ResponseTimeout, logger)
		return ch, func() {}, nil
	}

	var q queue.Queue
	if cfg.NeedsRabbitMQ() {
		rq, err := queue.NewRabbitMQQueue(cfg.RabbitMQ.URL, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("initialize rabbitmq queue: %w", err)
		}
		logger.Info("Connected to RabbitMQ")
		checks["rabbitmq"] = rq.Ping
		q = rq
	} else {
		q = queue.NewRedisQueue(rdb, logger)
	}

	closeQueue := func() {
		if err := q.Close(); err != nil {
			logger.Warn("Failed to close queue", zap.Error(err))
		}
	}
	return channel.NewQueueDelivery(q, cfg.Queue.Name, logger), closeQueue, nil
}

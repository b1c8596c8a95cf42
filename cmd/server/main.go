package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"tour-booking/config"
	"tour-booking/internal/cache"
	"tour-booking/internal/database"
	"tour-booking/internal/gateway"
	"tour-booking/internal/handler"
	"tour-booking/internal/orchestrator"
	"tour-booking/internal/queue"
	"tour-booking/internal/repository"
	"tour-booking/internal/service"
	"tour-booking/internal/worker"
	"tour-booking/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()
	logger.SetLevel(cfg.LogLevel)
	log := logger.WithComponent("server")
	defer logger.L.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.InitDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		log.Fatal("Failed to initialize redis", zap.Error(err))
	}
	defer rdb.Close()

	location, err := time.LoadLocation(cfg.Booking.Timezone)
	if err != nil {
		log.Fatal("Invalid booking timezone", zap.String("timezone", cfg.Booking.Timezone), zap.Error(err))
	}

	// repositories
	tourRepository := repository.NewTourRepository(pool)
	bookingRepository := repository.NewBookingRepository(pool)
	paymentRepository := repository.NewPaymentRepository(pool)
	availabilityRepository := repository.NewAvailabilityRepository(pool, cfg.Booking.LimitedThreshold)

	// services
	availabilityCache := cache.NewRedisAvailabilityCache(rdb, cfg.Booking.AvailabilityCacheTTL)
	availabilityService := service.NewAvailabilityService(availabilityRepository, availabilityCache)
	bookingService := service.NewBookingService(
		pool,
		tourRepository,
		bookingRepository,
		paymentRepository,
		availabilityRepository,
		availabilityService,
		gateway.NewMobileMoneyClient(cfg.Payment),
		cfg.Booking.UnpaidHoldTTL,
	)
	bookingOrchestrator := orchestrator.NewBookingOrchestrator(bookingService, bookingService)

	unpaidQueue, err := newUnpaidQueue(cfg, rdb)
	if err != nil {
		log.Fatal("Failed to initialize unpaid booking queue", zap.Error(err))
	}

	wizardService := service.NewWizardService(
		tourRepository,
		availabilityService,
		bookingOrchestrator,
		unpaidQueue,
		service.WizardServiceOptions{
			Location:   location,
			WindowDays: cfg.Booking.AvailabilityWindowDays,
		},
	)

	// workers
	if err := worker.NewUnpaidBookingWorker(bookingService, unpaidQueue).Start(ctx); err != nil {
		log.Fatal("Failed to start unpaid booking worker", zap.Error(err))
	}
	go worker.NewSessionSweeper(wizardService, cfg.Booking.SessionTTL).Start(ctx)

	// http
	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.AllowedOrigins
	router.Use(cors.New(corsConfig))

	router.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	handler.NewTourHandler(wizardService).RegisterRoutes(router)
	handler.NewWizardHandler(wizardService).RegisterRoutes(router)
	handler.NewBookingHandler(bookingService).RegisterRoutes(router)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server stopped unexpectedly", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", zap.Error(err))
	}
}

func newUnpaidQueue(cfg *config.Config, rdb *redis.Client) (queue.UnpaidBookingQueue, error) {
	if cfg.Queue.Driver == "memory" {
		return queue.NewMemoryUnpaidBookingQueue(cfg.Queue.BufferSize, cfg.Queue.ClaimMinIdle), nil
	}
	return queue.NewRedisStreamUnpaidBookingQueue(rdb, cfg.Queue.ConsumerID, &queue.RedisStreamQueueConfig{
		ClaimMinIdleTime: cfg.Queue.ClaimMinIdle,
		MaxRetryCount:    cfg.Queue.MaxRetry,
	})
}

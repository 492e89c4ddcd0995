package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"transaction-service/config"
	"transaction-service/internal/api"
	"transaction-service/internal/broker"
	"transaction-service/internal/cache"
	"transaction-service/internal/redisclient"
	"transaction-service/internal/service"
	"transaction-service/internal/store"
	"transaction-service/internal/util"
	"transaction-service/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	instanceID := newInstanceID()
	logger.Info("Starting transaction service", zap.String("instance_id", instanceID))

	tp, err := util.InitTracer(util.ServiceName, cfg.Observ.JaegerEndpoint)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("Error shutting down tracer", zap.Error(err))
		}
	}()

	connectCtx, connectCancel := context.WithTimeout(context.Background(), cfg.Store.Timeout)
	db, err := store.Open(connectCtx, store.Options{
		Driver:        cfg.Store.Driver,
		MongoURI:      cfg.Store.MongoURI,
		MongoDatabase: cfg.Store.MongoDatabase,
		DatabaseURL:   cfg.Store.DatabaseURL,
	})
	if err != nil {
		connectCancel()
		logger.Fatal("Failed to connect to store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	if err := db.EnsureIndexes(connectCtx); err != nil {
		connectCancel()
		logger.Fatal("Failed to prepare store", zap.Error(err))
	}
	connectCancel()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Close(ctx); err != nil {
			logger.Warn("Error closing store", zap.Error(err))
		}
	}()
	logger.Info("Store connected", zap.String("driver", cfg.Store.Driver))

	backend, closeCache := newCache(cfg, logger)
	defer closeCache()
	// Local mutations and peer events share one flush generation.
	responseCache := cache.WithGenerations(backend)

	var publisher service.EventPublisher
	var invalidationWorker *worker.CacheInvalidationWorker

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	if cfg.Kafka.Enabled() {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents)
		defer producer.Close()
		publisher = broker.NewEventPublisher(producer)
		logger.Info("Kafka producer initialized", zap.Strings("brokers", cfg.Kafka.Brokers))

		// Every instance needs every event, so each one consumes in its own group.
		groupID := cfg.Kafka.ConsumerGroup
		if groupID == "" {
			groupID = util.ServiceName + "-" + instanceID
		}
		consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents, groupID)
		invalidationWorker = worker.NewCacheInvalidationWorker(consumer, responseCache, instanceID)
		go func() {
			if err := invalidationWorker.Start(workerCtx); err != nil && err != context.Canceled {
				logger.Error("Cache invalidation worker error", zap.Error(err))
			}
		}()
	} else {
		logger.Info("Kafka disabled, change events will not be published")
	}

	transactionService := service.NewTransactionService(db, publisher, instanceID, cfg.Store.Timeout)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(transactionService, responseCache)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if invalidationWorker != nil {
		if err := invalidationWorker.Stop(); err != nil {
			logger.Warn("Error stopping cache invalidation worker", zap.Error(err))
		}
	}

	logger.Info("Server exited")
}

// newCache builds the configured response cache and returns its cleanup
func newCache(cfg *config.Config, logger *zap.Logger) (cache.Cache, func()) {
	if cfg.Cache.Backend == "redis" {
		client, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		logger.Info("Redis cache connected", zap.String("addr", cfg.Redis.Addr))

		c := cache.NewRedisCache(client, cfg.Cache.KeyPrefix, cfg.Cache.DefaultTTL)
		return c, func() {
			_ = c.Close()
			_ = client.Close()
		}
	}

	c := cache.NewMemoryCache(cfg.Cache.DefaultTTL, cfg.Cache.SweepInterval)
	logger.Info("In-memory cache initialized",
		zap.Duration("default_ttl", cfg.Cache.DefaultTTL),
		zap.Duration("sweep_interval", cfg.Cache.SweepInterval))
	return c, func() { _ = c.Close() }
}

func newInstanceID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}
	return host + "-" + uuid.NewString()[:8]
}

package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"readscore/internal/config"
	"readscore/internal/queue"
	"readscore/internal/storage"
	"readscore/internal/stt"
	"readscore/internal/worker"
	"readscore/pkg/cache"
	"readscore/pkg/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Load .env file
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Debug); err != nil {
		panic("Failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	logger.Info("Starting readscore worker service")

	db, err := storage.NewPostgresStorage(cfg.Postgres.DSN)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
		return
	}
	defer db.Close()

	s3Storage, err := storage.NewS3Storage(
		cfg.S3.Endpoint,
		cfg.S3.AccessKey,
		cfg.S3.SecretKey,
		cfg.S3.Bucket,
	)
	if err != nil {
		logger.Fatal("Failed to initialize S3 storage", zap.Error(err))
		return
	}

	recognizer := stt.NewClient(cfg.SpeechKit.APIKey, cfg.SpeechKit.FolderID, cfg.SpeechKit.Language)

	logger.Info("SpeechKit client initialized")

	resultTTL := time.Duration(cfg.Redis.ResultTTL) * time.Minute
	redisCache, err := cache.NewRedisCache(
		cfg.Redis.Addr,
		cfg.Redis.Password,
		cfg.Redis.DB,
		resultTTL,
	)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
		return
	}
	defer redisCache.Close()

	logger.Info("Redis cache connection established")

	rabbitMQ, err := queue.NewRabbitMQ(cfg.RabbitMQ.URL)
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		return
	}
	defer rabbitMQ.Close()

	logger.Info("RabbitMQ connection established")

	processor := worker.NewProcessor(db, recognizer, redisCache, resultTTL)

	// Graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Pick up tasks stranded by a previous shutdown before consuming new ones.
	if _, err := worker.RequeueStalled(ctx, db, rabbitMQ, s3Storage.PublicURL, 100); err != nil {
		logger.Error("Failed to requeue stalled tasks", zap.Error(err))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	concurrency, err := strconv.Atoi(cfg.Worker.Concurrency)
	if err != nil || concurrency < 1 {
		concurrency = 4
	}

	logger.Info("Starting to consume messages from queue", zap.Int("concurrency", concurrency))
	for i := 0; i < concurrency; i++ {
		go func() {
			if err := rabbitMQ.Consume(queue.QueueNameAssessment, processor.ProcessJob); err != nil {
				logger.Error("Failed to consume messages", zap.Error(err))
				cancel()
			}
		}()
	}

	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	logger.Info("Worker service shutdown complete")
}

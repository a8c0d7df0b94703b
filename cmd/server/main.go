package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"readscore/internal/api"
	"readscore/internal/assist"
	"readscore/internal/config"
	"readscore/internal/queue"
	"readscore/internal/storage"
	"readscore/internal/stt"
	"readscore/internal/tts"
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

	logger.Info("Starting readscore API server")

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

	redisCache, err := cache.NewRedisCache(
		cfg.Redis.Addr,
		cfg.Redis.Password,
		cfg.Redis.DB,
		time.Duration(cfg.Redis.ResultTTL)*time.Minute,
	)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
		return
	}
	defer redisCache.Close()

	rabbitMQ, err := queue.NewRabbitMQ(cfg.RabbitMQ.URL)
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		return
	}
	defer rabbitMQ.Close()

	var recognizer stt.Recognizer
	var assistant *assist.Assistant
	if cfg.SpeechKit.APIKey != "" {
		recognizer = stt.NewClient(cfg.SpeechKit.APIKey, cfg.SpeechKit.FolderID, cfg.SpeechKit.Language)
		synth := tts.NewClient(cfg.SpeechKit.APIKey, cfg.SpeechKit.FolderID, cfg.SpeechKit.Language, cfg.SpeechKit.Voice)
		assistant = assist.NewAssistant(synth, redisCache)
	} else {
		logger.Warn("SpeechKit API key not set, speech endpoints disabled")
	}

	server := api.NewServer(db, s3Storage, rabbitMQ, redisCache, recognizer, assistant)

	go func() {
		if err := server.Start(cfg.HTTP.Addr); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	if err := server.Shutdown(context.Background()); err != nil {
		logger.Error("Failed to shut down server cleanly", zap.Error(err))
	}

	logger.Info("API server shutdown complete")
}

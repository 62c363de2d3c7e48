package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"postcart/internal/config"
	"postcart/internal/pkg/logger"
	"postcart/internal/repository/postgres"
	redisrepo "postcart/internal/repository/redis"
	s3repo "postcart/internal/repository/s3"
	"postcart/internal/service/ai"
	"postcart/internal/service/enhance"
	"postcart/internal/service/extractor"
	"postcart/internal/service/meta"
	"postcart/internal/service/worker"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Validate worker-specific configuration
	if err := cfg.ValidateForWorker(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Setup logging
	log := logger.New(cfg.LogLevel)
	log.Info("Starting worker service...")

	// Connect to PostgreSQL
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		log.Error("Failed to ping database", "error", err)
		os.Exit(1)
	}

	// Run database migrations
	if err := postgres.RunMigrations(db, log); err != nil {
		log.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}

	// Connect to Redis
	redisClient, err := redisrepo.NewClient(cfg.RedisURL, log)
	if err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	// Blob storage for enhanced images
	blobStore, err := s3repo.NewStore(context.Background(), cfg.S3Bucket, cfg.S3PublicURL)
	if err != nil {
		log.Error("Failed to create blob store", "error", err)
		os.Exit(1)
	}

	// Create repositories
	queueRepo := redisrepo.NewQueueRepository(redisClient, log)
	productRepo := postgres.NewProductRepository(db, log)
	sellerRepo := postgres.NewSellerRepository(db, log)

	// Caption extraction reuses the same pipeline stages as the API
	aiClient := ai.NewClient(cfg.GeminiAPIKey, cfg.GeminiEndpoint, log)
	fetcher := extractor.NewHTTPFetcher(log)
	extractorService := extractor.New(log, fetcher, aiClient, cfg.StrictSocialGuard)
	enhancer := enhance.NewClient(cfg.PhotoroomAPIKey, cfg.PhotoroomEndpoint, log)
	metaClient := meta.NewClient(cfg.MetaAppID, cfg.MetaAppSecret, cfg.MetaRedirectURI, cfg.MetaGraphURL, log)

	processor := worker.NewJobProcessor(log, productRepo, sellerRepo, blobStore, enhancer, metaClient, extractorService)
	workerService := worker.New(cfg, log, queueRepo, processor)

	// Create a channel to track shutdown completion
	done := make(chan struct{})

	// Start worker service in a goroutine
	go func() {
		defer close(done)
		if err := workerService.Start(); err != nil {
			log.Error("Worker service failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Wait for either shutdown signal or service completion
	select {
	case <-quit:
		log.Info("Shutdown signal received, stopping worker service...")
	case <-done:
		log.Info("Worker service completed")
	}

	// Graceful shutdown with timeout
	_, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop worker service
	if err := workerService.Stop(); err != nil {
		log.Error("Error stopping worker service", "error", err)
	}

	log.Info("Worker service shutdown complete")
}

package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"postcart/internal/config"
	postcarthttp "postcart/internal/http"
	"postcart/internal/pkg/logger"
	"postcart/internal/repository/postgres"
	redisrepo "postcart/internal/repository/redis"
	"postcart/internal/service/ai"
	"postcart/internal/service/enhance"
	"postcart/internal/service/extractor"
	"postcart/internal/service/identity"
	"postcart/internal/service/meta"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Validate API-specific configuration
	if err := cfg.ValidateForAPI(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Setup logging
	log := logger.New(cfg.LogLevel)
	log.Info("Starting API service...")

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

	// Connect to Redis for the job queue
	redisClient, err := redisrepo.NewClient(cfg.RedisURL, log)
	if err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	// Create repositories
	productRepo := postgres.NewProductRepository(db, log)
	sellerRepo := postgres.NewSellerRepository(db, log)
	orderRepo := postgres.NewOrderRepository(db, log)
	queueRepo := redisrepo.NewQueueRepository(redisClient, log)

	// Build the extraction pipeline
	aiClient := ai.NewClient(cfg.GeminiAPIKey, cfg.GeminiEndpoint, log)

	var fetcher extractor.Fetcher = extractor.NewHTTPFetcher(log)
	var browserFetcher *extractor.BrowserFetcher
	if cfg.BrowserFetch {
		browserFetcher, err = extractor.NewBrowserFetcher(log, fetcher)
		if err != nil {
			log.Warn("Browser fetch unavailable, falling back to plain HTTP", "error", err)
		} else {
			fetcher = browserFetcher
			defer browserFetcher.Close()
		}
	}

	extractorService := extractor.New(log, fetcher, aiClient, cfg.StrictSocialGuard)
	enhancer := enhance.NewClient(cfg.PhotoroomAPIKey, cfg.PhotoroomEndpoint, log)
	metaClient := meta.NewClient(cfg.MetaAppID, cfg.MetaAppSecret, cfg.MetaRedirectURI, cfg.MetaGraphURL, log)
	verifier := identity.New(sellerRepo, log)

	// Build the HTTP surface
	router := postcarthttp.NewRouter(postcarthttp.RouterDeps{
		Logger:       log,
		Verifier:     verifier,
		ProductRepo:  productRepo,
		SellerRepo:   sellerRepo,
		OrderRepo:    orderRepo,
		QueueRepo:    queueRepo,
		Extractor:    extractorService,
		Enhancer:     enhancer,
		MetaClient:   metaClient,
		DashboardURL: cfg.DashboardURL,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Create a channel to track shutdown completion
	done := make(chan struct{})

	// Start HTTP server in a goroutine
	go func() {
		defer close(done)
		log.Info("API service listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("API service failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Wait for either shutdown signal or service completion
	select {
	case <-quit:
		log.Info("Shutdown signal received, stopping API service...")
	case <-done:
		log.Info("API service completed")
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Error stopping API service", "error", err)
	}

	log.Info("API service shutdown complete")
}

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"postcart/internal/config"
	"postcart/internal/domain"
	"postcart/internal/pkg/logger"
	"postcart/internal/repository/postgres"
)

func main() {
	var (
		email   = flag.String("email", "demo@postcart.shop", "Email for the demo seller account")
		name    = flag.String("name", "Demo Shop", "Name for the demo seller account")
		token   = flag.String("token", "demo-api-token", "API token for the demo seller account")
		dryRun  = flag.Bool("dry-run", false, "Print what would be done without writing anything")
		publish = flag.Bool("publish", true, "Create demo products as published rather than drafts")
	)
	flag.Parse()

	// Load configuration
	cfg := config.Load()

	// Setup logging
	log := logger.New(cfg.LogLevel)
	log.Info("Starting demo data seeder...")
	log.Info("Seeder configuration",
		"email", *email,
		"name", *name,
		"dry_run", *dryRun,
		"publish", *publish,
	)

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
	log.Info("Successfully connected to database")

	// Run database migrations
	if err := postgres.RunMigrations(db, log); err != nil {
		log.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}

	// Create repositories
	sellerRepo := postgres.NewSellerRepository(db, log)
	productRepo := postgres.NewProductRepository(db, log)

	seeder := &Seeder{
		sellerRepo:  sellerRepo,
		productRepo: productRepo,
		logger:      log,
		email:       *email,
		name:        *name,
		token:       *token,
		dryRun:      *dryRun,
		publish:     *publish,
	}

	if err := seeder.Run(context.Background()); err != nil {
		log.Error("Seeder failed", "error", err)
		os.Exit(1)
	}

	log.Info("Seeder completed successfully")
}

// Seeder creates a demo seller account with a small product catalog
type Seeder struct {
	sellerRepo  domain.SellerRepository
	productRepo domain.ProductRepository
	logger      *slog.Logger

	email   string
	name    string
	token   string
	dryRun  bool
	publish bool
}

// demoProduct mirrors the shape of extraction output so seeded listings
// look like real pipeline results
type demoProduct struct {
	name        string
	price       string
	description string
	image       string
	platform    string
	sourceURL   string
}

// demoCatalog is a small Tanzanian social-commerce catalog with prices in TZS
var demoCatalog = []demoProduct{
	{
		name:        "Maasai Beaded Necklace",
		price:       "35000",
		description: "Handmade Maasai beaded necklace in traditional colors",
		image:       "https://images.unsplash.com/photo-1535632066927-ab7c9ab60908?w=600",
		platform:    "Instagram",
		sourceURL:   "https://www.instagram.com/p/demo-necklace/",
	},
	{
		name:        "Leather Handbag",
		price:       "80000",
		description: "Premium genuine leather handbag, fits A4 documents",
		image:       "https://images.unsplash.com/photo-1548036328-c9fa89d128fa?w=600",
		platform:    "Instagram",
		sourceURL:   "https://www.instagram.com/p/demo-handbag/",
	},
	{
		name:        "Ankara Print Dress",
		price:       "55000",
		description: "Tailored Ankara print dress, available in sizes S to XL",
		image:       "https://images.unsplash.com/photo-1595777457583-95e059d581b8?w=600",
		platform:    "Facebook",
		sourceURL:   "https://www.facebook.com/demo-shop/posts/demo-dress",
	},
	{
		name:        "Wireless Earbuds",
		price:       "95000",
		description: "Bluetooth 5.3 earbuds with charging case, 24h battery",
		image:       "https://images.unsplash.com/photo-1572569511254-d8f925fe2cbb?w=600",
		platform:    "Other",
		sourceURL:   "https://example.com/products/earbuds",
	},
	{
		name:        "Kitenge Fabric Bundle",
		price:       "28000",
		description: "Six yards of quality kitenge fabric, assorted patterns",
		image:       "https://images.unsplash.com/photo-1534889156217-d643df14f14a?w=600",
		platform:    "Instagram",
		sourceURL:   "https://www.instagram.com/p/demo-kitenge/",
	},
}

// Run executes the seeding process
func (s *Seeder) Run(ctx context.Context) error {
	sellerID, err := s.ensureSeller(ctx)
	if err != nil {
		return fmt.Errorf("failed to ensure demo seller: %w", err)
	}

	stats := s.seedProducts(ctx, sellerID)

	s.logger.Info("Seeding completed",
		"seller_id", sellerID,
		"products_created", stats.created,
		"products_skipped", stats.skipped,
		"errors", stats.errors,
	)

	return nil
}

// ensureSeller finds or creates the demo seller account and returns its ID
func (s *Seeder) ensureSeller(ctx context.Context) (string, error) {
	existing, err := s.sellerRepo.GetByAPIToken(ctx, s.token)
	if err == nil {
		s.logger.Info("Demo seller already exists",
			"seller_id", existing.ID,
			"name", existing.Name,
		)
		return existing.ID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	sellerID := uuid.New().String()

	if s.dryRun {
		s.logger.Info("[DRY RUN] Would create demo seller",
			"seller_id", sellerID,
			"email", s.email,
		)
		return sellerID, nil
	}

	token := s.token
	seller := &domain.Seller{
		ID:        sellerID,
		Name:      s.name,
		Email:     s.email,
		APIToken:  &token,
		Settings:  domain.DefaultStoreSettings(),
		CreatedAt: time.Now(),
	}
	seller.Settings["store_name"] = s.name
	seller.Settings["contact_email"] = s.email

	if err := s.sellerRepo.Create(ctx, seller); err != nil {
		return "", err
	}

	s.logger.Info("Created demo seller",
		"seller_id", sellerID,
		"email", s.email,
		"api_token", s.token,
	)

	return sellerID, nil
}

type seedingStats struct {
	created int
	skipped int
	errors  int
}

// seedProducts creates the demo catalog, skipping products that already
// exist for the source URL
func (s *Seeder) seedProducts(ctx context.Context, sellerID string) *seedingStats {
	stats := &seedingStats{}

	status := domain.ProductStatusDraft
	if s.publish {
		status = domain.ProductStatusPublished
	}

	for _, demo := range demoCatalog {
		existing, err := s.productRepo.GetBySourceURL(ctx, sellerID, demo.sourceURL)
		if err == nil && existing != nil {
			s.logger.Debug("Product already exists, skipping",
				"product_id", existing.ID,
				"source_url", demo.sourceURL,
			)
			stats.skipped++
			continue
		}
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			s.logger.Error("Duplicate check failed", "error", err, "source_url", demo.sourceURL)
			stats.errors++
			continue
		}

		productID := uuid.New()

		if s.dryRun {
			s.logger.Info("[DRY RUN] Would create product",
				"product_id", productID,
				"name", demo.name,
				"price", demo.price,
			)
			stats.created++
			continue
		}

		description := demo.description
		sourceURL := demo.sourceURL
		product := &domain.Product{
			ID:                productID,
			SellerID:          sellerID,
			Name:              demo.name,
			Price:             demo.price,
			Image:             demo.image,
			Description:       &description,
			Platform:          demo.platform,
			SourceURL:         &sourceURL,
			Status:            status,
			EnhancementStatus: domain.EnhancementStatusNone,
			Metadata: map[string]interface{}{
				"seeded": true,
			},
			CreatedAt: time.Now(),
		}

		if err := s.productRepo.Create(ctx, product); err != nil {
			s.logger.Error("Failed to create product", "error", err, "name", demo.name)
			stats.errors++
			continue
		}

		s.logger.Info("Created product",
			"product_id", productID,
			"name", demo.name,
			"price", demo.price,
		)
		stats.created++
	}

	return stats
}

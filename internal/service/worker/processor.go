package worker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"postcart/internal/domain"
	"postcart/internal/service/enhance"
	"postcart/internal/service/extractor"
	"postcart/internal/service/meta"
)

// JobProcessor handles different types of background jobs
type JobProcessor struct {
	logger      *slog.Logger
	productRepo domain.ProductRepository
	sellerRepo  domain.SellerRepository
	blobStore   domain.BlobStore
	enhancer    *enhance.Client
	metaClient  *meta.Client
	extractor   *extractor.Service
}

// NewJobProcessor creates a new job processor
func NewJobProcessor(
	logger *slog.Logger,
	productRepo domain.ProductRepository,
	sellerRepo domain.SellerRepository,
	blobStore domain.BlobStore,
	enhancer *enhance.Client,
	metaClient *meta.Client,
	extractorService *extractor.Service,
) *JobProcessor {
	return &JobProcessor{
		logger:      logger,
		productRepo: productRepo,
		sellerRepo:  sellerRepo,
		blobStore:   blobStore,
		enhancer:    enhancer,
		metaClient:  metaClient,
		extractor:   extractorService,
	}
}

// ProcessImageEnhancement runs a product image through background removal
// and stores the result durably, then points the product at the new image.
func (p *JobProcessor) ProcessImageEnhancement(ctx context.Context, payload map[string]interface{}, logger *slog.Logger) error {
	productIDStr, ok := payload["product_id"].(string)
	if !ok {
		return fmt.Errorf("missing or invalid product_id in payload")
	}

	productID, err := uuid.Parse(productIDStr)
	if err != nil {
		return fmt.Errorf("invalid product_id format: %w", err)
	}

	if !p.enhancer.Configured() {
		return fmt.Errorf("image enhancement not configured")
	}

	product, err := p.productRepo.GetByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("failed to get product for enhancement: %w", err)
	}

	logger.Info("Processing image enhancement job",
		"product_id", productID,
		"image", product.Image,
	)

	if err := p.productRepo.UpdateEnhancementStatus(ctx, productID, domain.EnhancementStatusProcessing); err != nil {
		logger.Warn("Failed to update enhancement status to processing", "error", err)
	}

	enhanced, err := p.enhancer.Enhance(ctx, product.Image)
	if err != nil {
		p.markEnhancementFailed(ctx, productID, logger)
		return fmt.Errorf("image enhancement failed: %w", err)
	}

	key := fmt.Sprintf("enhanced/%s/%s.jpg", product.SellerID, productID)
	imageURL, err := p.blobStore.Put(ctx, key, enhanced, "image/jpeg")
	if err != nil {
		p.markEnhancementFailed(ctx, productID, logger)
		return fmt.Errorf("failed to store enhanced image: %w", err)
	}

	product.Image = imageURL
	product.EnhancementStatus = domain.EnhancementStatusComplete
	if product.Metadata == nil {
		product.Metadata = map[string]interface{}{}
	}
	product.Metadata["enhanced_at"] = time.Now().Unix()

	if err := p.productRepo.Update(ctx, product); err != nil {
		return fmt.Errorf("failed to update product with enhanced image: %w", err)
	}

	logger.Info("Image enhancement completed",
		"product_id", productID,
		"image_url", imageURL,
	)

	return nil
}

// markEnhancementFailed records a failed enhancement without touching the
// product's current image
func (p *JobProcessor) markEnhancementFailed(ctx context.Context, productID uuid.UUID, logger *slog.Logger) {
	if err := p.productRepo.UpdateEnhancementStatus(ctx, productID, domain.EnhancementStatusFailed); err != nil {
		logger.Warn("Failed to update enhancement status to failed", "error", err)
	}
}

// ProcessMediaImport pulls a seller's recent Instagram business media and
// turns captioned posts into draft products via AI extraction.
func (p *JobProcessor) ProcessMediaImport(ctx context.Context, payload map[string]interface{}, logger *slog.Logger) error {
	sellerID, ok := payload["seller_id"].(string)
	if !ok {
		return fmt.Errorf("missing or invalid seller_id in payload")
	}

	if !p.metaClient.Configured() {
		return fmt.Errorf("Meta API not configured")
	}

	seller, err := p.sellerRepo.GetByID(ctx, sellerID)
	if err != nil {
		return fmt.Errorf("failed to get seller for media import: %w", err)
	}

	if !seller.HasMetaConnection() {
		return fmt.Errorf("seller has no Meta connection")
	}

	items, err := p.metaClient.ListMedia(ctx, *seller.MetaToken)
	if err != nil {
		return fmt.Errorf("failed to list Instagram media: %w", err)
	}

	logger.Info("Importing Instagram media",
		"seller_id", sellerID,
		"media_count", len(items),
	)

	imported := 0
	for _, item := range items {
		if item.Caption == "" {
			continue
		}

		// Media IDs are stable, so a synthetic source URL gives us dedup
		// across repeated imports
		sourceURL := "instagram://media/" + item.ID

		if _, err := p.productRepo.GetBySourceURL(ctx, sellerID, sourceURL); err == nil {
			logger.Debug("Skipping already imported media", "media_id", item.ID)
			continue
		} else if !errors.Is(err, sql.ErrNoRows) {
			logger.Warn("Duplicate check failed, skipping media", "error", err, "media_id", item.ID)
			continue
		}

		fields, err := p.extractor.ExtractFromCaption(ctx, item.Caption)
		if err != nil {
			logger.Warn("Caption extraction failed, skipping media",
				"error", err,
				"media_id", item.ID,
			)
			continue
		}

		image := item.Image
		if image == "" {
			image = domain.PlaceholderImageURL
		}

		description := fields.Description
		product := &domain.Product{
			ID:                uuid.New(),
			SellerID:          sellerID,
			Name:              fields.Name,
			Price:             fields.Price,
			Image:             image,
			Description:       &description,
			Platform:          domain.CategoryInstagram.DisplayName(),
			SourceURL:         &sourceURL,
			Status:            domain.ProductStatusDraft,
			EnhancementStatus: domain.EnhancementStatusNone,
			Metadata: map[string]interface{}{
				"import_source":   "instagram_media",
				"media_id":        item.ID,
				"media_timestamp": item.Timestamp,
			},
			CreatedAt: time.Now(),
		}

		if err := p.productRepo.Create(ctx, product); err != nil {
			logger.Warn("Failed to create imported product",
				"error", err,
				"media_id", item.ID,
			)
			continue
		}

		imported++
	}

	logger.Info("Media import completed",
		"seller_id", sellerID,
		"imported", imported,
		"total", len(items),
	)

	return nil
}

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"postcart/internal/domain"
)

// ProductRepository implements the domain.ProductRepository interface using PostgreSQL
type ProductRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewProductRepository creates a new PostgreSQL product repository
func NewProductRepository(db *sql.DB, logger *slog.Logger) *ProductRepository {
	return &ProductRepository{
		db:     db,
		logger: logger,
	}
}

const productColumns = `
	id, seller_id, name, price, description, image, platform, source_url,
	metadata, status, enhancement_status, created_at, updated_at`

// scanner covers both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanProduct reads one product row, handling nullable columns and the
// metadata JSONB payload
func (r *ProductRepository) scanProduct(row scanner) (*domain.Product, error) {
	product := &domain.Product{}
	var description, sourceURL sql.NullString
	var updatedAt sql.NullTime
	var metadataBytes []byte

	err := row.Scan(
		&product.ID,
		&product.SellerID,
		&product.Name,
		&product.Price,
		&description,
		&product.Image,
		&product.Platform,
		&sourceURL,
		&metadataBytes,
		&product.Status,
		&product.EnhancementStatus,
		&product.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		product.Description = &description.String
	}
	if sourceURL.Valid {
		product.SourceURL = &sourceURL.String
	}
	if updatedAt.Valid {
		product.UpdatedAt = &updatedAt.Time
	}

	product.Metadata = make(map[string]interface{})
	if len(metadataBytes) > 0 {
		if err := json.Unmarshal(metadataBytes, &product.Metadata); err != nil {
			r.logger.Warn("Failed to unmarshal product metadata",
				"error", err,
				"product_id", product.ID,
			)
			product.Metadata = make(map[string]interface{})
		}
	}

	return product, nil
}

// GetByID retrieves a product by its UUID
func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT` + productColumns + ` FROM products WHERE id = $1`

	product, err := r.scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			r.logger.Debug("Product not found", "product_id", id)
			return nil, sql.ErrNoRows
		}
		r.logger.Error("Failed to query product", "error", err, "product_id", id)
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return product, nil
}

// Create inserts a new product
func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (
			id, seller_id, name, price, description, image, platform,
			source_url, metadata, status, enhancement_status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)`

	var description, sourceURL interface{}
	if product.Description != nil {
		description = *product.Description
	}
	if product.SourceURL != nil {
		sourceURL = *product.SourceURL
	}

	metadata := product.Metadata
	if metadata == nil {
		metadata = make(map[string]interface{})
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal product metadata: %w", err)
	}

	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now()
	}
	updatedAt := product.CreatedAt
	if product.UpdatedAt != nil {
		updatedAt = *product.UpdatedAt
	}

	_, err = r.db.ExecContext(ctx, query,
		product.ID,
		product.SellerID,
		product.Name,
		product.Price,
		description,
		product.Image,
		product.Platform,
		sourceURL,
		metadataJSON,
		product.Status,
		product.EnhancementStatus,
		product.CreatedAt,
		updatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create product",
			"error", err,
			"product_id", product.ID,
			"seller_id", product.SellerID,
		)
		return fmt.Errorf("failed to create product: %w", err)
	}

	r.logger.Info("Product created",
		"product_id", product.ID,
		"seller_id", product.SellerID,
		"name", product.Name,
		"platform", product.Platform,
	)

	return nil
}

// Update modifies an existing product
func (r *ProductRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products SET
			name = $2,
			price = $3,
			description = $4,
			image = $5,
			platform = $6,
			source_url = $7,
			metadata = $8,
			status = $9,
			enhancement_status = $10,
			updated_at = $11
		WHERE id = $1`

	var description, sourceURL interface{}
	if product.Description != nil {
		description = *product.Description
	}
	if product.SourceURL != nil {
		sourceURL = *product.SourceURL
	}

	metadata := product.Metadata
	if metadata == nil {
		metadata = make(map[string]interface{})
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal product metadata: %w", err)
	}

	now := time.Now()
	product.UpdatedAt = &now

	result, err := r.db.ExecContext(ctx, query,
		product.ID,
		product.Name,
		product.Price,
		description,
		product.Image,
		product.Platform,
		sourceURL,
		metadataJSON,
		product.Status,
		product.EnhancementStatus,
		product.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to update product", "error", err, "product_id", product.ID)
		return fmt.Errorf("failed to update product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("product not found: %s", product.ID)
	}

	r.logger.Info("Product updated",
		"product_id", product.ID,
		"status", product.Status,
	)

	return nil
}

// Delete removes a product by ID
func (r *ProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete product", "error", err, "product_id", id)
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("product not found: %s", id)
	}

	r.logger.Info("Product deleted", "product_id", id)
	return nil
}

// GetBySourceURL finds a seller's product by source URL (for duplicate detection)
func (r *ProductRepository) GetBySourceURL(ctx context.Context, sellerID, sourceURL string) (*domain.Product, error) {
	query := `SELECT` + productColumns + `
		FROM products
		WHERE seller_id = $1 AND source_url = $2
		ORDER BY created_at DESC
		LIMIT 1`

	product, err := r.scanProduct(r.db.QueryRowContext(ctx, query, sellerID, sourceURL))
	if err != nil {
		if err == sql.ErrNoRows {
			r.logger.Debug("No duplicate product found",
				"seller_id", sellerID,
				"source_url", sourceURL,
			)
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to query product by source URL: %w", err)
	}

	return product, nil
}

// GetRecentBySeller gets the most recent products for a seller with cursor pagination
func (r *ProductRepository) GetRecentBySeller(ctx context.Context, sellerID string, cursor *time.Time, limit int) ([]*domain.Product, error) {
	query := `SELECT` + productColumns + `
		FROM products
		WHERE seller_id = $1 AND ($2::timestamptz IS NULL OR created_at < $2)
		ORDER BY created_at DESC
		LIMIT $3`

	return r.queryProducts(ctx, query, sellerID, cursor, limit)
}

// GetPublishedBySeller gets published products for the public storefront
func (r *ProductRepository) GetPublishedBySeller(ctx context.Context, sellerID string, cursor *time.Time, limit int) ([]*domain.Product, error) {
	query := `SELECT` + productColumns + `
		FROM products
		WHERE seller_id = $1 AND status = 'published'
			AND ($2::timestamptz IS NULL OR created_at < $2)
		ORDER BY created_at DESC
		LIMIT $3`

	return r.queryProducts(ctx, query, sellerID, cursor, limit)
}

// Search performs full-text search on a seller's products
func (r *ProductRepository) Search(ctx context.Context, sellerID, search string, cursor *time.Time, limit int) ([]*domain.Product, error) {
	query := `SELECT` + productColumns + `
		FROM products
		WHERE seller_id = $1
			AND search_vector @@ plainto_tsquery('english', $4)
			AND ($2::timestamptz IS NULL OR created_at < $2)
		ORDER BY created_at DESC
		LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, sellerID, cursor, limit, search)
	if err != nil {
		r.logger.Error("Failed to search products",
			"error", err,
			"seller_id", sellerID,
			"query", search,
		)
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	defer rows.Close()

	return r.collectProducts(rows)
}

// CountByPlatform returns product counts grouped by source platform
func (r *ProductRepository) CountByPlatform(ctx context.Context, sellerID string) (map[string]int, error) {
	query := `
		SELECT platform, COUNT(*)
		FROM products
		WHERE seller_id = $1
		GROUP BY platform`

	rows, err := r.db.QueryContext(ctx, query, sellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to count products by platform: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var platform string
		var count int
		if err := rows.Scan(&platform, &count); err != nil {
			return nil, fmt.Errorf("failed to scan platform count: %w", err)
		}
		counts[platform] = count
	}

	return counts, rows.Err()
}

// UpdateEnhancementStatus updates the image enhancement status
func (r *ProductRepository) UpdateEnhancementStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `
		UPDATE products
		SET enhancement_status = $1, updated_at = NOW()
		WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		r.logger.Error("Failed to update enhancement status",
			"error", err,
			"product_id", id,
			"status", status,
		)
		return fmt.Errorf("failed to update enhancement status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		r.logger.Warn("No product found for enhancement status update", "product_id", id)
		return fmt.Errorf("product not found: %s", id)
	}

	return nil
}

func (r *ProductRepository) queryProducts(ctx context.Context, query, sellerID string, cursor *time.Time, limit int) ([]*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, sellerID, cursor, limit)
	if err != nil {
		r.logger.Error("Failed to query products", "error", err, "seller_id", sellerID)
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	return r.collectProducts(rows)
}

func (r *ProductRepository) collectProducts(rows *sql.Rows) ([]*domain.Product, error) {
	products := make([]*domain.Product, 0)
	for rows.Next() {
		product, err := r.scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

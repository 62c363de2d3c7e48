package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ProductRepository defines the interface for product data operations
type ProductRepository interface {
	// GetByID retrieves a product by its UUID
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// Create inserts a new product
	Create(ctx context.Context, product *Product) error

	// Update modifies an existing product
	Update(ctx context.Context, product *Product) error

	// Delete removes a product by ID
	Delete(ctx context.Context, id uuid.UUID) error

	// GetBySourceURL finds a seller's product by source URL (for duplicate detection)
	GetBySourceURL(ctx context.Context, sellerID, sourceURL string) (*Product, error)

	// GetRecentBySeller gets the most recent products for a seller with cursor pagination
	GetRecentBySeller(ctx context.Context, sellerID string, cursor *time.Time, limit int) ([]*Product, error)

	// GetPublishedBySeller gets published products for the public storefront
	GetPublishedBySeller(ctx context.Context, sellerID string, cursor *time.Time, limit int) ([]*Product, error)

	// Search performs full-text search on a seller's products
	Search(ctx context.Context, sellerID, query string, cursor *time.Time, limit int) ([]*Product, error)

	// CountByPlatform returns product counts grouped by source platform
	CountByPlatform(ctx context.Context, sellerID string) (map[string]int, error)

	// UpdateEnhancementStatus updates the image enhancement status
	UpdateEnhancementStatus(ctx context.Context, id uuid.UUID, status string) error
}

// SellerRepository defines the interface for seller account data operations
type SellerRepository interface {
	// GetByID retrieves a seller by their account ID
	GetByID(ctx context.Context, id string) (*Seller, error)

	// GetByAPIToken resolves a seller from an opaque bearer token
	GetByAPIToken(ctx context.Context, token string) (*Seller, error)

	// Create inserts a new seller account
	Create(ctx context.Context, seller *Seller) error

	// UpdateSettings updates just the settings field for a seller
	UpdateSettings(ctx context.Context, id string, settings map[string]interface{}) error

	// UpdateMetaToken stores the long-lived Meta token for a seller
	UpdateMetaToken(ctx context.Context, id, token string) error
}

// OrderRepository defines the interface for order data operations
type OrderRepository interface {
	// GetByID retrieves an order by its UUID
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// Create inserts a new order
	Create(ctx context.Context, order *Order) error

	// GetRecentBySeller gets the most recent orders for a seller with cursor pagination
	GetRecentBySeller(ctx context.Context, sellerID string, cursor *time.Time, limit int) ([]*Order, error)

	// UpdateStatus transitions an order between fulfillment states
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

// QueueRepository defines the interface for job queue operations
type QueueRepository interface {
	// Enqueue adds a new job to the queue
	Enqueue(ctx context.Context, jobType string, payload interface{}) error

	// Dequeue retrieves the next job from the queue
	Dequeue(ctx context.Context, jobType string) (*QueueJob, error)

	// Complete marks a job as completed
	Complete(ctx context.Context, jobID string) error

	// Fail marks a job as failed with error details
	Fail(ctx context.Context, jobID string, errorMsg string) error

	// GetPendingCount returns the number of pending jobs
	GetPendingCount(ctx context.Context, jobType string) (int, error)
}

// BlobStore defines the interface for durable image storage
type BlobStore interface {
	// Put stores raw bytes under a key and returns a durable URL
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// TokenVerifier resolves the current seller from an opaque identity token.
// Identity/session management itself lives outside this service.
type TokenVerifier interface {
	// Verify returns the seller ID the token belongs to
	Verify(ctx context.Context, token string) (string, error)
}

// QueueJob represents a job in the processing queue
type QueueJob struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Payload   map[string]interface{} `json:"payload"`
	Status    string                 `json:"status"`
	CreatedAt string                 `json:"created_at"`
	UpdatedAt *string                `json:"updated_at"`
}

// Job types
const (
	JobTypeEnhanceImage = "enhance_image"
	JobTypeImportMedia  = "import_media"
)

// Job statuses
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

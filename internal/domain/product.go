package domain

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a listing in a seller's storefront
type Product struct {
	ID       uuid.UUID `json:"id" db:"id"`
	SellerID string    `json:"seller_id" db:"seller_id"`
	Name     string    `json:"name" db:"name"`
	Price    string    `json:"price" db:"price"`
	Image    string    `json:"image" db:"image"`

	Description *string `json:"description" db:"description"`
	Platform    string  `json:"platform" db:"platform"`
	SourceURL   *string `json:"source_url" db:"source_url"`

	// Metadata and processing
	Metadata          map[string]interface{} `json:"metadata" db:"metadata"`
	Status            string                 `json:"status" db:"status"`
	EnhancementStatus string                 `json:"enhancement_status" db:"enhancement_status"`

	// Timestamps
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at" db:"updated_at"`
}

// Product listing statuses
const (
	ProductStatusDraft     = "draft"
	ProductStatusPublished = "published"
	ProductStatusArchived  = "archived"
)

// Enhancement status constants
const (
	EnhancementStatusNone       = "none"
	EnhancementStatusPending    = "pending"
	EnhancementStatusProcessing = "processing"
	EnhancementStatusComplete   = "complete"
	EnhancementStatusFailed     = "failed"
)

// PlaceholderImageURL is used when extraction yields no product image
const PlaceholderImageURL = "https://images.unsplash.com/photo-1523275335684-37898b6baf30?w=600"

// IsValidStatus checks if the listing status is supported
func (p *Product) IsValidStatus() bool {
	validStatuses := map[string]bool{
		ProductStatusDraft:     true,
		ProductStatusPublished: true,
		ProductStatusArchived:  true,
	}
	return validStatuses[p.Status]
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Order represents a buyer checkout against a seller's storefront
type Order struct {
	ID       uuid.UUID `json:"id" db:"id"`
	SellerID string    `json:"seller_id" db:"seller_id"`

	BuyerName  string  `json:"buyer_name" db:"buyer_name"`
	BuyerPhone string  `json:"buyer_phone" db:"buyer_phone"`
	BuyerNote  *string `json:"buyer_note" db:"buyer_note"`

	// Items is stored as JSONB: [{"product_id":"...","name":"...","price":"...","quantity":1}]
	Items []OrderItem `json:"items" db:"items"`

	// Total is a digits-only TZS amount, same convention as Product.Price
	Total  string `json:"total" db:"total"`
	Status string `json:"status" db:"status"`

	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at" db:"updated_at"`
}

// OrderItem is a single product line within an order
type OrderItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Quantity  int    `json:"quantity"`
}

// Order status constants
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusFulfilled = "fulfilled"
	OrderStatusCancelled = "cancelled"
)

// IsValidOrderStatus checks if the order status is supported
func IsValidOrderStatus(status string) bool {
	switch status {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusFulfilled, OrderStatusCancelled:
		return true
	}
	return false
}

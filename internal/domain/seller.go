package domain

import "time"

// Seller represents a seller account and their storefront configuration
type Seller struct {
	ID    string `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Email string `json:"email" db:"email"`

	// Settings is stored as JSONB in the database and contains storefront
	// configuration. Schema documented in StoreSettings struct below
	Settings map[string]interface{} `json:"settings" db:"settings"`

	// APIToken is the opaque bearer token the dashboard authenticates with.
	// Never serialized to API responses.
	APIToken *string `json:"-" db:"api_token"`

	// MetaToken is the long-lived Meta Graph API token used to read the
	// seller's Instagram business media. Never serialized to API responses.
	MetaToken      *string    `json:"-" db:"meta_token"`
	TokenUpdatedAt *time.Time `json:"-" db:"token_updated_at"`

	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at" db:"updated_at"`
}

// StoreSettings represents configurable storefront options stored in the
// Settings JSONB field
//
// Example Settings JSONB:
//
//	{
//	  "store_name": "My Social Shop",
//	  "primary_color": "#6366f1",
//	  "contact_email": "seller@example.com",
//	  "layout": "grid"
//	}
type StoreSettings struct {
	StoreName    string `json:"store_name"`
	PrimaryColor string `json:"primary_color"`
	ContactEmail string `json:"contact_email"`
	Layout       string `json:"layout"`
}

// DefaultStoreSettings returns the settings applied to new seller accounts
func DefaultStoreSettings() map[string]interface{} {
	return map[string]interface{}{
		"store_name":    "My Social Shop",
		"primary_color": "#6366f1",
		"contact_email": "seller@example.com",
		"layout":        "grid",
	}
}

// HasMetaConnection returns true if the seller has linked a Meta account
func (s *Seller) HasMetaConnection() bool {
	return s.MetaToken != nil && *s.MetaToken != ""
}

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"postcart/internal/domain"
)

// SellerRepository implements the domain.SellerRepository interface using PostgreSQL
type SellerRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSellerRepository creates a new PostgreSQL seller repository
func NewSellerRepository(db *sql.DB, logger *slog.Logger) *SellerRepository {
	return &SellerRepository{
		db:     db,
		logger: logger,
	}
}

const sellerColumns = `
	id, name, email, settings, api_token, meta_token, token_updated_at, created_at, updated_at`

func (r *SellerRepository) scanSeller(row scanner) (*domain.Seller, error) {
	seller := &domain.Seller{}
	var apiToken, metaToken sql.NullString
	var tokenUpdatedAt, updatedAt sql.NullTime
	var settingsBytes []byte

	err := row.Scan(
		&seller.ID,
		&seller.Name,
		&seller.Email,
		&settingsBytes,
		&apiToken,
		&metaToken,
		&tokenUpdatedAt,
		&seller.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if apiToken.Valid {
		seller.APIToken = &apiToken.String
	}
	if metaToken.Valid {
		seller.MetaToken = &metaToken.String
	}
	if tokenUpdatedAt.Valid {
		seller.TokenUpdatedAt = &tokenUpdatedAt.Time
	}
	if updatedAt.Valid {
		seller.UpdatedAt = &updatedAt.Time
	}

	seller.Settings = make(map[string]interface{})
	if len(settingsBytes) > 0 {
		if err := json.Unmarshal(settingsBytes, &seller.Settings); err != nil {
			r.logger.Warn("Failed to unmarshal seller settings",
				"error", err,
				"seller_id", seller.ID,
			)
			seller.Settings = make(map[string]interface{})
		}
	}

	return seller, nil
}

// GetByID retrieves a seller by their account ID
func (r *SellerRepository) GetByID(ctx context.Context, id string) (*domain.Seller, error) {
	query := `SELECT` + sellerColumns + ` FROM sellers WHERE id = $1`

	seller, err := r.scanSeller(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			r.logger.Debug("Seller not found", "seller_id", id)
			return nil, sql.ErrNoRows
		}
		r.logger.Error("Failed to query seller", "error", err, "seller_id", id)
		return nil, fmt.Errorf("failed to query seller: %w", err)
	}

	return seller, nil
}

// GetByAPIToken resolves a seller from an opaque bearer token
func (r *SellerRepository) GetByAPIToken(ctx context.Context, token string) (*domain.Seller, error) {
	query := `SELECT` + sellerColumns + ` FROM sellers WHERE api_token = $1`

	seller, err := r.scanSeller(r.db.QueryRowContext(ctx, query, token))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		r.logger.Error("Failed to query seller by token", "error", err)
		return nil, fmt.Errorf("failed to query seller by token: %w", err)
	}

	return seller, nil
}

// Create inserts a new seller account
func (r *SellerRepository) Create(ctx context.Context, seller *domain.Seller) error {
	query := `
		INSERT INTO sellers (id, name, email, settings, api_token, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	settings := seller.Settings
	if settings == nil {
		settings = domain.DefaultStoreSettings()
	}
	settingsJSON, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal seller settings: %w", err)
	}

	now := time.Now()
	if seller.CreatedAt.IsZero() {
		seller.CreatedAt = now
	}
	updatedAt := seller.CreatedAt
	if seller.UpdatedAt != nil {
		updatedAt = *seller.UpdatedAt
	}

	var apiToken sql.NullString
	if seller.APIToken != nil {
		apiToken = sql.NullString{String: *seller.APIToken, Valid: true}
	}

	_, err = r.db.ExecContext(ctx, query,
		seller.ID,
		seller.Name,
		seller.Email,
		settingsJSON,
		apiToken,
		seller.CreatedAt,
		updatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create seller", "error", err, "seller_id", seller.ID)
		return fmt.Errorf("failed to create seller: %w", err)
	}

	r.logger.Info("Seller created", "seller_id", seller.ID, "name", seller.Name)
	return nil
}

// UpdateSettings updates just the settings field for a seller
func (r *SellerRepository) UpdateSettings(ctx context.Context, id string, settings map[string]interface{}) error {
	settingsJSON, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal seller settings: %w", err)
	}

	query := `
		UPDATE sellers
		SET settings = $1, updated_at = NOW()
		WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, settingsJSON, id)
	if err != nil {
		r.logger.Error("Failed to update seller settings", "error", err, "seller_id", id)
		return fmt.Errorf("failed to update seller settings: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("seller not found: %s", id)
	}

	r.logger.Info("Seller settings updated", "seller_id", id)
	return nil
}

// UpdateMetaToken stores the long-lived Meta token for a seller
func (r *SellerRepository) UpdateMetaToken(ctx context.Context, id, token string) error {
	query := `
		UPDATE sellers
		SET meta_token = $1, token_updated_at = NOW(), updated_at = NOW()
		WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, token, id)
	if err != nil {
		r.logger.Error("Failed to update Meta token", "error", err, "seller_id", id)
		return fmt.Errorf("failed to update Meta token: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("seller not found: %s", id)
	}

	r.logger.Info("Meta token stored", "seller_id", id)
	return nil
}

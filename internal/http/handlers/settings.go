package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"postcart/internal/domain"
	"postcart/internal/http/middleware"
)

type SettingsHandler struct {
	logger     *slog.Logger
	sellerRepo domain.SellerRepository
}

func NewSettingsHandler(logger *slog.Logger, sellerRepo domain.SellerRepository) *SettingsHandler {
	return &SettingsHandler{
		logger:     logger,
		sellerRepo: sellerRepo,
	}
}

// GetSettings returns the authenticated seller's storefront settings
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sellerID := middleware.SellerID(ctx)

	seller, err := h.sellerRepo.GetByID(ctx, sellerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Seller not found", http.StatusNotFound)
			return
		}
		h.logger.Error("Failed to retrieve seller", "error", err, "seller_id", sellerID)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	settings := seller.Settings
	if settings == nil {
		settings = domain.DefaultStoreSettings()
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"settings":       settings,
		"meta_connected": seller.HasMetaConnection(),
	}, h.logger)
}

// UpdateSettings replaces the seller's storefront settings
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sellerID := middleware.SellerID(ctx)

	var settings map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if len(settings) == 0 {
		http.Error(w, "Settings cannot be empty", http.StatusBadRequest)
		return
	}

	if err := h.sellerRepo.UpdateSettings(ctx, sellerID, settings); err != nil {
		h.logger.Error("Failed to update settings", "error", err, "seller_id", sellerID)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"settings": settings,
	}, h.logger)
}

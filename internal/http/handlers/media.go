package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"postcart/internal/domain"
	"postcart/internal/http/middleware"
	"postcart/internal/service/meta"
)

// MediaHandler exposes the seller's Instagram business media through their
// saved Meta connection
type MediaHandler struct {
	logger     *slog.Logger
	sellerRepo domain.SellerRepository
	queueRepo  domain.QueueRepository
	metaClient *meta.Client
}

func NewMediaHandler(
	logger *slog.Logger,
	sellerRepo domain.SellerRepository,
	queueRepo domain.QueueRepository,
	metaClient *meta.Client,
) *MediaHandler {
	return &MediaHandler{
		logger:     logger,
		sellerRepo: sellerRepo,
		queueRepo:  queueRepo,
		metaClient: metaClient,
	}
}

// ListMedia returns the seller's recent Instagram business posts
func (h *MediaHandler) ListMedia(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	seller, ok := h.connectedSeller(w, r)
	if !ok {
		return
	}

	items, err := h.metaClient.ListMedia(ctx, *seller.MetaToken)
	if err != nil {
		h.logger.Error("Failed to list Instagram media", "error", err, "seller_id", seller.ID)
		http.Error(w, "Failed to fetch Instagram media", http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"media": items,
	}, h.logger)
}

// ImportMedia schedules a background import turning captioned posts into
// draft products
func (h *MediaHandler) ImportMedia(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	seller, ok := h.connectedSeller(w, r)
	if !ok {
		return
	}

	if err := h.queueRepo.Enqueue(ctx, domain.JobTypeImportMedia, map[string]interface{}{
		"seller_id": seller.ID,
	}); err != nil {
		h.logger.Error("Failed to enqueue import job", "error", err, "seller_id", seller.ID)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"status": "import_scheduled",
	}, h.logger)
}

// connectedSeller loads the authenticated seller and verifies they have a
// linked Meta account
func (h *MediaHandler) connectedSeller(w http.ResponseWriter, r *http.Request) (*domain.Seller, bool) {
	ctx := r.Context()
	sellerID := middleware.SellerID(ctx)

	if !h.metaClient.Configured() {
		http.Error(w, "Meta integration is not configured", http.StatusServiceUnavailable)
		return nil, false
	}

	seller, err := h.sellerRepo.GetByID(ctx, sellerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Seller not found", http.StatusNotFound)
			return nil, false
		}
		h.logger.Error("Failed to retrieve seller", "error", err, "seller_id", sellerID)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return nil, false
	}

	if !seller.HasMetaConnection() {
		http.Error(w, "No Instagram account connected", http.StatusForbidden)
		return nil, false
	}

	return seller, true
}

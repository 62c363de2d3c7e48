package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"postcart/internal/domain"
	"postcart/internal/http/middleware"
)

type StatsHandler struct {
	logger      *slog.Logger
	productRepo domain.ProductRepository
}

func NewStatsHandler(logger *slog.Logger, productRepo domain.ProductRepository) *StatsHandler {
	return &StatsHandler{
		logger:      logger,
		productRepo: productRepo,
	}
}

// HandleStats returns per-platform product counts for the seller dashboard
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sellerID := middleware.SellerID(ctx)

	counts, err := h.productRepo.CountByPlatform(ctx, sellerID)
	if err != nil {
		h.logger.Error("Failed to count products by platform", "error", err, "seller_id", sellerID)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	total := 0
	for _, count := range counts {
		total += count
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total":       total,
		"by_platform": counts,
		"timestamp":   time.Now().Format(time.RFC3339),
	}, h.logger)
}

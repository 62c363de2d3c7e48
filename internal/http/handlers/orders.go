package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"postcart/internal/domain"
	"postcart/internal/http/middleware"
)

type OrdersHandler struct {
	logger    *slog.Logger
	orderRepo domain.OrderRepository
}

// OrdersResponse represents the paginated response for orders
type OrdersResponse struct {
	Orders  []*domain.Order `json:"orders"`
	HasMore bool            `json:"has_more"`
	Cursor  *string         `json:"cursor,omitempty"`
}

func NewOrdersHandler(logger *slog.Logger, orderRepo domain.OrderRepository) *OrdersHandler {
	return &OrdersHandler{
		logger:    logger,
		orderRepo: orderRepo,
	}
}

// GetOrders lists the authenticated seller's orders, newest first
func (h *OrdersHandler) GetOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sellerID := middleware.SellerID(ctx)

	cursor, err := parseCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		http.Error(w, "Invalid cursor format", http.StatusBadRequest)
		return
	}

	limit := parseLimit(r.URL.Query().Get("limit"))

	orders, err := h.orderRepo.GetRecentBySeller(ctx, sellerID, cursor, limit+1)
	if err != nil {
		h.logger.Error("Failed to retrieve orders", "error", err, "seller_id", sellerID)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	hasMore := len(orders) > limit
	if hasMore {
		orders = orders[:limit]
	}

	response := &OrdersResponse{
		Orders:  orders,
		HasMore: hasMore,
	}
	if hasMore && len(orders) > 0 {
		cursorStr := orders[len(orders)-1].CreatedAt.Format(time.RFC3339)
		response.Cursor = &cursorStr
	}

	writeJSON(w, http.StatusOK, response, h.logger)
}

// UpdateOrderStatus transitions an order between fulfillment states
func (h *OrdersHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sellerID := middleware.SellerID(ctx)

	orderID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid order ID", http.StatusBadRequest)
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if !domain.IsValidOrderStatus(req.Status) {
		http.Error(w, "Invalid order status", http.StatusBadRequest)
		return
	}

	order, err := h.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Order not found", http.StatusNotFound)
			return
		}
		h.logger.Error("Failed to retrieve order", "error", err, "order_id", orderID)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if order.SellerID != sellerID {
		http.Error(w, "Order not found", http.StatusNotFound)
		return
	}

	if err := h.orderRepo.UpdateStatus(ctx, orderID, req.Status); err != nil {
		h.logger.Error("Failed to update order status", "error", err, "order_id", orderID)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	order.Status = req.Status
	writeJSON(w, http.StatusOK, order, h.logger)
}

package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"postcart/internal/domain"
)

// StorefrontHandler serves the public, unauthenticated buyer-facing surface
type StorefrontHandler struct {
	logger      *slog.Logger
	productRepo domain.ProductRepository
	sellerRepo  domain.SellerRepository
	orderRepo   domain.OrderRepository
}

type checkoutRequest struct {
	BuyerName  string `json:"buyer_name"`
	BuyerPhone string `json:"buyer_phone"`
	BuyerNote  string `json:"buyer_note"`
	Items      []struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	} `json:"items"`
}

func NewStorefrontHandler(
	logger *slog.Logger,
	productRepo domain.ProductRepository,
	sellerRepo domain.SellerRepository,
	orderRepo domain.OrderRepository,
) *StorefrontHandler {
	return &StorefrontHandler{
		logger:      logger,
		productRepo: productRepo,
		sellerRepo:  sellerRepo,
		orderRepo:   orderRepo,
	}
}

// GetStoreProducts lists a seller's published products along with the
// storefront settings the buyer page renders with
func (h *StorefrontHandler) GetStoreProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sellerID := r.PathValue("sellerId")
	if sellerID == "" {
		http.Error(w, "Seller ID is required", http.StatusBadRequest)
		return
	}

	seller, err := h.sellerRepo.GetByID(ctx, sellerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Store not found", http.StatusNotFound)
			return
		}
		h.logger.Error("Failed to retrieve seller", "error", err, "seller_id", sellerID)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	cursor, err := parseCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		http.Error(w, "Invalid cursor format", http.StatusBadRequest)
		return
	}

	limit := parseLimit(r.URL.Query().Get("limit"))

	products, err := h.productRepo.GetPublishedBySeller(ctx, sellerID, cursor, limit+1)
	if err != nil {
		h.logger.Error("Failed to retrieve store products", "error", err, "seller_id", sellerID)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	hasMore := len(products) > limit
	if hasMore {
		products = products[:limit]
	}

	dtos := make([]*ProductDto, 0, len(products))
	for _, product := range products {
		dtos = append(dtos, buildProductDto(product))
	}

	response := map[string]interface{}{
		"settings": seller.Settings,
		"products": dtos,
		"has_more": hasMore,
	}
	if hasMore && len(products) > 0 {
		response["cursor"] = products[len(products)-1].CreatedAt.Format(time.RFC3339)
	}

	writeJSON(w, http.StatusOK, response, h.logger)
}

// CreateOrder records a buyer checkout. Prices are read from the catalog,
// never from the request, so the total cannot be tampered with.
func (h *StorefrontHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sellerID := r.PathValue("sellerId")
	if sellerID == "" {
		http.Error(w, "Seller ID is required", http.StatusBadRequest)
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.BuyerName) == "" || strings.TrimSpace(req.BuyerPhone) == "" {
		http.Error(w, "Buyer name and phone are required", http.StatusBadRequest)
		return
	}
	if len(req.Items) == 0 {
		http.Error(w, "Order must contain at least one item", http.StatusBadRequest)
		return
	}

	var total int64
	items := make([]domain.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			http.Error(w, "Item quantity must be positive", http.StatusBadRequest)
			return
		}

		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			http.Error(w, "Invalid product ID in order", http.StatusBadRequest)
			return
		}

		product, err := h.productRepo.GetByID(ctx, productID)
		if err != nil || product.SellerID != sellerID {
			http.Error(w, "Product not available in this store", http.StatusBadRequest)
			return
		}
		if product.Status != domain.ProductStatusPublished {
			http.Error(w, "Product not available in this store", http.StatusBadRequest)
			return
		}

		price, err := strconv.ParseInt(product.Price, 10, 64)
		if err != nil {
			price = 0
		}
		total += price * int64(item.Quantity)

		items = append(items, domain.OrderItem{
			ProductID: product.ID.String(),
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  item.Quantity,
		})
	}

	order := &domain.Order{
		ID:         uuid.New(),
		SellerID:   sellerID,
		BuyerName:  req.BuyerName,
		BuyerPhone: req.BuyerPhone,
		Items:      items,
		Total:      strconv.FormatInt(total, 10),
		Status:     domain.OrderStatusPending,
		CreatedAt:  time.Now(),
	}
	if note := strings.TrimSpace(req.BuyerNote); note != "" {
		order.BuyerNote = &note
	}

	if err := h.orderRepo.Create(ctx, order); err != nil {
		h.logger.Error("Failed to create order", "error", err, "seller_id", sellerID)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.Info("Order created",
		"order_id", order.ID,
		"seller_id", sellerID,
		"total", order.Total,
		"items", len(items),
	)

	writeJSON(w, http.StatusCreated, order, h.logger)
}

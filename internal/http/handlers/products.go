package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"postcart/internal/domain"
	"postcart/internal/http/middleware"
	"postcart/internal/pkg/urlclassify"
)

type ProductsHandler struct {
	logger      *slog.Logger
	productRepo domain.ProductRepository
	queueRepo   domain.QueueRepository
}

// ProductsResponse represents the paginated response for products
type ProductsResponse struct {
	Products []*ProductDto `json:"products"`
	HasMore  bool          `json:"has_more"`
	Cursor   *string       `json:"cursor,omitempty"`
}

type ProductDto struct {
	ID                string                 `json:"id"`
	Name              string                 `json:"name"`
	Price             string                 `json:"price"`
	Image             string                 `json:"image"`
	Description       string                 `json:"description"`
	Platform          string                 `json:"platform"`
	SourceURL         string                 `json:"source_url,omitempty"`
	Status            string                 `json:"status"`
	EnhancementStatus string                 `json:"enhancement_status"`
	Metadata          map[string]interface{} `json:"metadata"`
	CreatedAt         time.Time              `json:"created_at"`
}

// createProductRequest accepts a reviewed extraction draft for persistence
type createProductRequest struct {
	Name        string `json:"name"`
	Price       string `json:"price"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Platform    string `json:"platform"`
	SourceURL   string `json:"sourceUrl"`
	Status      string `json:"status"`
}

func NewProductsHandler(logger *slog.Logger, productRepo domain.ProductRepository, queueRepo domain.QueueRepository) *ProductsHandler {
	return &ProductsHandler{
		logger:      logger,
		productRepo: productRepo,
		queueRepo:   queueRepo,
	}
}

// buildProductDto converts a domain product to its API shape
func buildProductDto(product *domain.Product) *ProductDto {
	description := ""
	if product.Description != nil {
		description = *product.Description
	}
	sourceURL := ""
	if product.SourceURL != nil {
		sourceURL = *product.SourceURL
	}

	return &ProductDto{
		ID:                product.ID.String(),
		Name:              product.Name,
		Price:             product.Price,
		Image:             product.Image,
		Description:       description,
		Platform:          product.Platform,
		SourceURL:         sourceURL,
		Status:            product.Status,
		EnhancementStatus: product.EnhancementStatus,
		Metadata:          product.Metadata,
		CreatedAt:         product.CreatedAt,
	}
}

// buildProductResponse creates a paginated response from domain products
func (h *ProductsHandler) buildProductResponse(products []*domain.Product, requestedLimit int) *ProductsResponse {
	hasMore := len(products) > requestedLimit
	if hasMore {
		// Remove the extra product that was fetched to check for more results
		products = products[:requestedLimit]
	}

	dtos := make([]*ProductDto, 0, len(products))
	for _, product := range products {
		dtos = append(dtos, buildProductDto(product))
	}

	response := &ProductsResponse{
		Products: dtos,
		HasMore:  hasMore,
	}

	if hasMore && len(products) > 0 {
		last := products[len(products)-1]
		cursorStr := last.CreatedAt.Format(time.RFC3339)
		response.Cursor = &cursorStr
	}

	return response
}

// GetProducts lists the authenticated seller's products, newest first, with
// optional full-text search via the q parameter
func (h *ProductsHandler) GetProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sellerID := middleware.SellerID(ctx)

	cursor, err := parseCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		h.logger.Warn("Invalid cursor format", "cursor", r.URL.Query().Get("cursor"), "error", err)
		http.Error(w, "Invalid cursor format", http.StatusBadRequest)
		return
	}

	limit := parseLimit(r.URL.Query().Get("limit"))

	var products []*domain.Product
	if query := strings.TrimSpace(r.URL.Query().Get("q")); query != "" {
		if len(query) > 500 {
			http.Error(w, "Search query too long (max 500 characters)", http.StatusBadRequest)
			return
		}
		// Request one more item than the limit to determine if there are more results
		products, err = h.productRepo.Search(ctx, sellerID, query, cursor, limit+1)
	} else {
		products, err = h.productRepo.GetRecentBySeller(ctx, sellerID, cursor, limit+1)
	}
	if err != nil {
		h.logger.Error("Failed to retrieve products", "error", err, "seller_id", sellerID)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	response := h.buildProductResponse(products, limit)
	writeJSON(w, http.StatusOK, response, h.logger)
}

// CreateProduct persists a reviewed extraction draft as a product
func (h *ProductsHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sellerID := middleware.SellerID(ctx)

	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		http.Error(w, "Product name is required", http.StatusBadRequest)
		return
	}

	status := req.Status
	if status == "" {
		status = domain.ProductStatusDraft
	}

	price := req.Price
	if price == "" {
		price = "0"
	}

	image := req.Image
	if image == "" {
		image = domain.PlaceholderImageURL
	}

	product := &domain.Product{
		ID:                uuid.New(),
		SellerID:          sellerID,
		Name:              req.Name,
		Price:             price,
		Image:             image,
		Platform:          req.Platform,
		Status:            status,
		EnhancementStatus: domain.EnhancementStatusNone,
		Metadata:          map[string]interface{}{},
		CreatedAt:         time.Now(),
	}
	if req.Description != "" {
		product.Description = &req.Description
	}
	if req.SourceURL != "" {
		// Canonicalize before storage so the per-seller source index catches
		// repeat shares that only differ in tracking params
		sourceURL := req.SourceURL
		if normalized, err := urlclassify.NormalizeURL(sourceURL); err == nil {
			sourceURL = normalized
		}
		product.SourceURL = &sourceURL
	}
	if product.Platform == "" {
		product.Platform = domain.PlatformUnknown
	}
	if !product.IsValidStatus() {
		http.Error(w, "Invalid product status", http.StatusBadRequest)
		return
	}

	if err := h.productRepo.Create(ctx, product); err != nil {
		h.logger.Error("Failed to create product", "error", err, "seller_id", sellerID)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, buildProductDto(product), h.logger)
}

// GetProduct retrieves a single product owned by the authenticated seller
func (h *ProductsHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, ok := h.ownedProduct(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, buildProductDto(product), h.logger)
}

// UpdateProduct applies edits from the seller's review flow
func (h *ProductsHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	product, ok := h.ownedProduct(w, r)
	if !ok {
		return
	}

	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Name != "" {
		product.Name = req.Name
	}
	if req.Price != "" {
		product.Price = req.Price
	}
	if req.Image != "" {
		product.Image = req.Image
	}
	if req.Description != "" {
		product.Description = &req.Description
	}
	if req.Status != "" {
		product.Status = req.Status
		if !product.IsValidStatus() {
			http.Error(w, "Invalid product status", http.StatusBadRequest)
			return
		}
	}

	if err := h.productRepo.Update(ctx, product); err != nil {
		h.logger.Error("Failed to update product", "error", err, "product_id", product.ID)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, buildProductDto(product), h.logger)
}

// DeleteProduct removes a product from the seller's catalog
func (h *ProductsHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	product, ok := h.ownedProduct(w, r)
	if !ok {
		return
	}

	if err := h.productRepo.Delete(ctx, product.ID); err != nil {
		h.logger.Error("Failed to delete product", "error", err, "product_id", product.ID)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// EnqueueEnhancement schedules background image enhancement for a product
func (h *ProductsHandler) EnqueueEnhancement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	product, ok := h.ownedProduct(w, r)
	if !ok {
		return
	}

	if product.EnhancementStatus == domain.EnhancementStatusPending ||
		product.EnhancementStatus == domain.EnhancementStatusProcessing {
		writeJSON(w, http.StatusAccepted, map[string]interface{}{
			"status": product.EnhancementStatus,
		}, h.logger)
		return
	}

	if err := h.queueRepo.Enqueue(ctx, domain.JobTypeEnhanceImage, map[string]interface{}{
		"product_id": product.ID.String(),
	}); err != nil {
		h.logger.Error("Failed to enqueue enhancement job", "error", err, "product_id", product.ID)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if err := h.productRepo.UpdateEnhancementStatus(ctx, product.ID, domain.EnhancementStatusPending); err != nil {
		h.logger.Warn("Failed to update enhancement status", "error", err, "product_id", product.ID)
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"status": domain.EnhancementStatusPending,
	}, h.logger)
}

// ownedProduct loads the product from the path and verifies the
// authenticated seller owns it
func (h *ProductsHandler) ownedProduct(w http.ResponseWriter, r *http.Request) (*domain.Product, bool) {
	ctx := r.Context()
	sellerID := middleware.SellerID(ctx)

	productID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return nil, false
	}

	product, err := h.productRepo.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Product not found", http.StatusNotFound)
			return nil, false
		}
		h.logger.Error("Failed to retrieve product", "error", err, "product_id", productID)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return nil, false
	}

	if product.SellerID != sellerID {
		http.Error(w, "Product not found", http.StatusNotFound)
		return nil, false
	}

	return product, true
}

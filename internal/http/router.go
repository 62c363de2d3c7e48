package http

import (
	"log/slog"
	"net/http"

	"postcart/internal/domain"
	"postcart/internal/http/handlers"
	"postcart/internal/http/middleware"
	"postcart/internal/service/enhance"
	"postcart/internal/service/extractor"
	"postcart/internal/service/meta"
)

type Router struct {
	mux               *http.ServeMux
	auth              *middleware.SellerAuth
	healthHandler     *handlers.HealthHandler
	extractHandler    *handlers.ExtractHandler
	productsHandler   *handlers.ProductsHandler
	ordersHandler     *handlers.OrdersHandler
	storefrontHandler *handlers.StorefrontHandler
	settingsHandler   *handlers.SettingsHandler
	statsHandler      *handlers.StatsHandler
	enhanceHandler    *handlers.EnhanceHandler
	mediaHandler      *handlers.MediaHandler
	oauthHandler      *handlers.OAuthHandler
}

// RouterDeps carries everything the API surface needs
type RouterDeps struct {
	Logger       *slog.Logger
	Verifier     domain.TokenVerifier
	ProductRepo  domain.ProductRepository
	SellerRepo   domain.SellerRepository
	OrderRepo    domain.OrderRepository
	QueueRepo    domain.QueueRepository
	Extractor    *extractor.Service
	Enhancer     *enhance.Client
	MetaClient   *meta.Client
	DashboardURL string
}

func NewRouter(deps RouterDeps) *Router {
	mux := http.NewServeMux()
	logger := deps.Logger

	return &Router{
		mux:               mux,
		auth:              middleware.NewSellerAuth(deps.Verifier, logger),
		healthHandler:     handlers.NewHealthHandler(logger),
		extractHandler:    handlers.NewExtractHandler(logger, deps.Extractor),
		productsHandler:   handlers.NewProductsHandler(logger, deps.ProductRepo, deps.QueueRepo),
		ordersHandler:     handlers.NewOrdersHandler(logger, deps.OrderRepo),
		storefrontHandler: handlers.NewStorefrontHandler(logger, deps.ProductRepo, deps.SellerRepo, deps.OrderRepo),
		settingsHandler:   handlers.NewSettingsHandler(logger, deps.SellerRepo),
		statsHandler:      handlers.NewStatsHandler(logger, deps.ProductRepo),
		enhanceHandler:    handlers.NewEnhanceHandler(logger, deps.Enhancer),
		mediaHandler:      handlers.NewMediaHandler(logger, deps.SellerRepo, deps.QueueRepo, deps.MetaClient),
		oauthHandler:      handlers.NewOAuthHandler(logger, deps.SellerRepo, deps.MetaClient, deps.DashboardURL),
	}
}

func (r *Router) SetupRoutes() http.Handler {
	// Health check
	r.mux.HandleFunc("GET /health", r.healthHandler.HandleHealth)

	// Extraction pipeline
	r.protected("POST /api/v1/extract", r.extractHandler.HandleExtract)
	r.protected("POST /api/v1/extract/caption", r.extractHandler.HandleExtractCaption)
	r.protected("POST /api/v1/enhance", r.enhanceHandler.HandleEnhance)

	// Product catalog
	r.protected("GET /api/v1/products", r.productsHandler.GetProducts)
	r.protected("POST /api/v1/products", r.productsHandler.CreateProduct)
	r.protected("GET /api/v1/products/{id}", r.productsHandler.GetProduct)
	r.protected("PUT /api/v1/products/{id}", r.productsHandler.UpdateProduct)
	r.protected("DELETE /api/v1/products/{id}", r.productsHandler.DeleteProduct)
	r.protected("POST /api/v1/products/{id}/enhance", r.productsHandler.EnqueueEnhancement)

	// Orders
	r.protected("GET /api/v1/orders", r.ordersHandler.GetOrders)
	r.protected("PUT /api/v1/orders/{id}/status", r.ordersHandler.UpdateOrderStatus)

	// Storefront settings and dashboard stats
	r.protected("GET /api/v1/settings", r.settingsHandler.GetSettings)
	r.protected("PUT /api/v1/settings", r.settingsHandler.UpdateSettings)
	r.protected("GET /api/v1/stats", r.statsHandler.HandleStats)

	// Instagram business media
	r.protected("GET /api/v1/instagram/media", r.mediaHandler.ListMedia)
	r.protected("POST /api/v1/instagram/import", r.mediaHandler.ImportMedia)

	// Public buyer-facing storefront
	r.mux.HandleFunc("GET /api/v1/store/{sellerId}/products", r.storefrontHandler.GetStoreProducts)
	r.mux.HandleFunc("POST /api/v1/store/{sellerId}/orders", r.storefrontHandler.CreateOrder)

	// Meta OAuth callback (browser redirect, no bearer token)
	r.mux.HandleFunc("GET /auth/meta/callback", r.oauthHandler.HandleMetaCallback)

	// Add CORS middleware
	return middleware.CORS(r.mux)
}

// protected registers a route behind seller bearer-token auth
func (r *Router) protected(pattern string, handler http.HandlerFunc) {
	r.mux.Handle(pattern, r.auth.Middleware(handler))
}

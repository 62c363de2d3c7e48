package handlers

import (
	"log/slog"
	"net/http"

	"postcart/internal/domain"
	"postcart/internal/service/meta"
)

// OAuthHandler completes the Meta login flow and stores the resulting
// long-lived token on the seller record
type OAuthHandler struct {
	logger       *slog.Logger
	sellerRepo   domain.SellerRepository
	metaClient   *meta.Client
	dashboardURL string
}

func NewOAuthHandler(
	logger *slog.Logger,
	sellerRepo domain.SellerRepository,
	metaClient *meta.Client,
	dashboardURL string,
) *OAuthHandler {
	return &OAuthHandler{
		logger:       logger,
		sellerRepo:   sellerRepo,
		metaClient:   metaClient,
		dashboardURL: dashboardURL,
	}
}

// HandleMetaCallback exchanges the OAuth code for a long-lived token. The
// state parameter carries the seller ID set when the dashboard started the
// flow. The browser always ends up back on the dashboard with an auth
// outcome flag.
func (h *OAuthHandler) HandleMetaCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	code := r.URL.Query().Get("code")
	sellerID := r.URL.Query().Get("state")

	if code == "" || sellerID == "" {
		h.logger.Warn("Meta callback missing code or state")
		h.redirect(w, r, "failed")
		return
	}

	if !h.metaClient.Configured() {
		h.logger.Error("Meta callback received but Meta integration not configured")
		h.redirect(w, r, "failed")
		return
	}

	token, err := h.metaClient.ExchangeCode(ctx, code)
	if err != nil {
		h.logger.Error("Meta code exchange failed", "error", err, "seller_id", sellerID)
		h.redirect(w, r, "failed")
		return
	}

	if err := h.sellerRepo.UpdateMetaToken(ctx, sellerID, token); err != nil {
		h.logger.Error("Failed to store Meta token", "error", err, "seller_id", sellerID)
		h.redirect(w, r, "failed")
		return
	}

	h.logger.Info("Meta account connected", "seller_id", sellerID)
	h.redirect(w, r, "success")
}

func (h *OAuthHandler) redirect(w http.ResponseWriter, r *http.Request, outcome string) {
	http.Redirect(w, r, h.dashboardURL+"?auth="+outcome, http.StatusFound)
}

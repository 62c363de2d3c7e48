package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"postcart/internal/service/enhance"
)

type EnhanceHandler struct {
	logger   *slog.Logger
	enhancer *enhance.Client
}

func NewEnhanceHandler(logger *slog.Logger, enhancer *enhance.Client) *EnhanceHandler {
	return &EnhanceHandler{
		logger:   logger,
		enhancer: enhancer,
	}
}

// HandleEnhance removes the background from a product image and returns the
// result inline as a data URL. For a durable stored copy, use the async
// per-product enhancement endpoint instead.
func (h *EnhanceHandler) HandleEnhance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		ImageURL string `json:"imageUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.ImageURL) == "" {
		http.Error(w, "imageUrl is required", http.StatusBadRequest)
		return
	}

	if !h.enhancer.Configured() {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":  false,
			"imageUrl": req.ImageURL,
			"message":  "Image enhancement is not configured",
		}, h.logger)
		return
	}

	image, err := h.enhancer.Enhance(ctx, req.ImageURL)
	if err != nil {
		h.logger.Error("Image enhancement failed", "error", err, "image_url", req.ImageURL)
		// Original image is still usable, so report the failure softly
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":  false,
			"imageUrl": req.ImageURL,
			"message":  "Enhancement failed, using original image",
		}, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"imageUrl": enhance.DataURL(image),
	}, h.logger)
}

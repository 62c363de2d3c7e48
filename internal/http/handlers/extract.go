package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"postcart/internal/domain"
	"postcart/internal/service/extractor"
)

type ExtractHandler struct {
	logger    *slog.Logger
	extractor *extractor.Service
}

// extractSuccess is the boundary success envelope
type extractSuccess struct {
	Success bool                 `json:"success"`
	Product *domain.ProductDraft `json:"product"`
}

// extractFailure is the boundary failure envelope. Optional fields render
// only when the error kind carries them.
type extractFailure struct {
	Error            string `json:"error"`
	Details          string `json:"details"`
	RequiresAPI      bool   `json:"requiresApi,omitempty"`
	Platform         string `json:"platform,omitempty"`
	TechnicalDetails string `json:"technicalDetails,omitempty"`
}

func NewExtractHandler(logger *slog.Logger, extractorService *extractor.Service) *ExtractHandler {
	return &ExtractHandler{
		logger:    logger,
		extractor: extractorService,
	}
}

// HandleExtract runs the URL extraction pipeline for one request
func (h *ExtractHandler) HandleExtract(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req domain.ExtractionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, &extractFailure{
			Error:   "Invalid request body",
			Details: "expected JSON with a url field",
		}, h.logger)
		return
	}

	draft, err := h.extractor.ExtractFromURL(ctx, req)
	if err != nil {
		h.writeExtractionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, &extractSuccess{
		Success: true,
		Product: draft,
	}, h.logger)
}

// HandleExtractCaption runs the prompt/generate/sanitize stages against a
// bare caption, for posts whose text the dashboard already has
func (h *ExtractHandler) HandleExtractCaption(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Caption string `json:"caption"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, &extractFailure{
			Error:   "Invalid request body",
			Details: "expected JSON with a caption field",
		}, h.logger)
		return
	}

	if strings.TrimSpace(req.Caption) == "" {
		writeJSON(w, http.StatusBadRequest, &extractFailure{
			Error:   "Caption is required",
			Details: "caption must be a non-empty string",
		}, h.logger)
		return
	}

	fields, err := h.extractor.ExtractFromCaption(ctx, req.Caption)
	if err != nil {
		h.writeExtractionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"product": fields,
	}, h.logger)
}

// writeExtractionError maps the extraction error taxonomy to a status code
// and user-facing envelope
func (h *ExtractHandler) writeExtractionError(w http.ResponseWriter, err error) {
	var extErr *domain.ExtractionError
	if !errors.As(err, &extErr) {
		h.logger.Error("Extraction failed with untyped error", "error", err)
		writeJSON(w, http.StatusInternalServerError, &extractFailure{
			Error:   "Extraction failed",
			Details: "an unexpected error occurred",
		}, h.logger)
		return
	}

	switch extErr.Kind {
	case domain.ErrKindInputValidation:
		writeJSON(w, http.StatusBadRequest, &extractFailure{
			Error:   "Valid URL required",
			Details: extErr.Detail,
		}, h.logger)

	case domain.ErrKindPlatformProtected:
		writeJSON(w, http.StatusForbidden, &extractFailure{
			Error:       "This " + extErr.Platform + " post requires an official platform connection",
			Details:     extErr.Detail,
			RequiresAPI: true,
			Platform:    extErr.Platform,
		}, h.logger)

	case domain.ErrKindNetworkUnavailable:
		writeJSON(w, http.StatusForbidden, &extractFailure{
			Error:   "Could not fetch the post content",
			Details: extErr.Detail,
		}, h.logger)

	case domain.ErrKindAIServiceUnavailable:
		h.logger.Error("AI extraction failed",
			"reason", extErr.Reason,
			"detail", extErr.Detail,
		)
		failure := &extractFailure{Details: extErr.Detail}
		switch extErr.Reason {
		case domain.AIReasonInvalidKey:
			failure.Error = "AI service is not configured correctly"
		case domain.AIReasonRateLimited:
			failure.Error = "AI service is temporarily busy. Please try again."
		case domain.AIReasonEmpty:
			failure.Error = "AI service returned no content"
		case domain.AIReasonJSONParseFailure:
			failure.Error = "Could not parse product details from the AI response"
			failure.TechnicalDetails = extErr.Detail
		default:
			failure.Error = "AI service returned an unexpected response"
		}
		writeJSON(w, http.StatusInternalServerError, failure, h.logger)

	default:
		h.logger.Error("Extraction failed", "kind", extErr.Kind, "detail", extErr.Detail)
		writeJSON(w, http.StatusInternalServerError, &extractFailure{
			Error:   "Extraction failed",
			Details: extErr.Detail,
		}, h.logger)
	}
}

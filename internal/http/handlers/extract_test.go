package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"postcart/internal/domain"
	"postcart/internal/service/extractor"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixedFetcher struct {
	descriptor domain.ContentDescriptor
	live       bool
}

func (f *fixedFetcher) Fetch(ctx context.Context, rawURL string, category domain.URLCategory) (domain.ContentDescriptor, bool) {
	return f.descriptor, f.live
}

type fixedAI struct {
	response string
	err      error
}

func (a *fixedAI) Generate(ctx context.Context, prompt string) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	return a.response, nil
}

func newExtractHandler(fetcher extractor.Fetcher, ai extractor.AIClient, strict bool) *ExtractHandler {
	return NewExtractHandler(testLogger(), extractor.New(testLogger(), fetcher, ai, strict))
}

func postJSON(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/v1/extract", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeFailure(t *testing.T, rec *httptest.ResponseRecorder) extractFailure {
	t.Helper()
	var failure extractFailure
	if err := json.NewDecoder(rec.Body).Decode(&failure); err != nil {
		t.Fatalf("failed to decode failure envelope: %v", err)
	}
	return failure
}

func TestHandleExtractSuccess(t *testing.T) {
	fetcher := &fixedFetcher{
		descriptor: domain.ContentDescriptor{
			PageContent: "Ankara Dress 55,000 TSh",
			ImageURL:    "https://cdn.example.com/dress.jpg",
			Caption:     "Ankara Dress 55,000 TSh",
		},
		live: true,
	}
	ai := &fixedAI{response: `{"name":"Ankara Dress","price":"55000","description":"Bold print dress"}`}

	handler := newExtractHandler(fetcher, ai, false)
	rec := postJSON(t, handler.HandleExtract, `{"url":"https://example.com/p/9","platform":"Other"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp extractSuccess
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode success envelope: %v", err)
	}
	if !resp.Success {
		t.Error("expected success true")
	}
	if resp.Product == nil || resp.Product.Name != "Ankara Dress" {
		t.Errorf("unexpected product: %+v", resp.Product)
	}
	if resp.Product.Image != "https://cdn.example.com/dress.jpg" {
		t.Errorf("unexpected image: %q", resp.Product.Image)
	}
}

func TestHandleExtractInvalidBody(t *testing.T) {
	handler := newExtractHandler(&fixedFetcher{}, &fixedAI{}, false)
	rec := postJSON(t, handler.HandleExtract, `{not json`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if failure := decodeFailure(t, rec); failure.Error != "Invalid request body" {
		t.Errorf("unexpected error message: %q", failure.Error)
	}
}

func TestHandleExtractInvalidURL(t *testing.T) {
	handler := newExtractHandler(&fixedFetcher{}, &fixedAI{}, false)
	rec := postJSON(t, handler.HandleExtract, `{"url":"   "}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if failure := decodeFailure(t, rec); failure.Error != "Valid URL required" {
		t.Errorf("unexpected error message: %q", failure.Error)
	}
}

func TestHandleExtractProtectedPlatform(t *testing.T) {
	fetcher := &fixedFetcher{
		descriptor: domain.ContentDescriptor{PageContent: "fallback"},
		live:       false,
	}
	handler := newExtractHandler(fetcher, &fixedAI{}, true)
	rec := postJSON(t, handler.HandleExtract, `{"url":"https://www.instagram.com/p/abc123/"}`)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
	failure := decodeFailure(t, rec)
	if !failure.RequiresAPI {
		t.Error("expected requiresApi true")
	}
	if failure.Platform != "Instagram" {
		t.Errorf("expected Instagram platform, got %q", failure.Platform)
	}
	if !strings.Contains(failure.Error, "Instagram") {
		t.Errorf("expected platform named in message, got %q", failure.Error)
	}
}

func TestHandleExtractAIErrors(t *testing.T) {
	fetcher := &fixedFetcher{
		descriptor: domain.ContentDescriptor{PageContent: "Some product caption"},
		live:       true,
	}

	tests := []struct {
		name          string
		aiErr         error
		wantMessage   string
		wantTechnical bool
	}{
		{
			name:        "invalid key",
			aiErr:       domain.NewAIError(domain.AIReasonInvalidKey, "401 from upstream", nil),
			wantMessage: "AI service is not configured correctly",
		},
		{
			name:        "rate limited",
			aiErr:       domain.NewAIError(domain.AIReasonRateLimited, "429 from upstream", nil),
			wantMessage: "AI service is temporarily busy. Please try again.",
		},
		{
			name:        "empty response",
			aiErr:       domain.NewAIError(domain.AIReasonEmpty, "no candidates", nil),
			wantMessage: "AI service returned no content",
		},
		{
			name:        "unexpected shape",
			aiErr:       domain.NewAIError(domain.AIReasonUnexpectedShape, "body was HTML", nil),
			wantMessage: "AI service returned an unexpected response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newExtractHandler(fetcher, &fixedAI{err: tt.aiErr}, false)
			rec := postJSON(t, handler.HandleExtract, `{"url":"https://example.com/p/1"}`)

			if rec.Code != http.StatusInternalServerError {
				t.Fatalf("expected 500, got %d: %s", rec.Code, rec.Body.String())
			}
			if failure := decodeFailure(t, rec); failure.Error != tt.wantMessage {
				t.Errorf("expected %q, got %q", tt.wantMessage, failure.Error)
			}
		})
	}
}

func TestHandleExtractParseFailureCarriesTechnicalDetails(t *testing.T) {
	fetcher := &fixedFetcher{
		descriptor: domain.ContentDescriptor{PageContent: "Some product caption"},
		live:       true,
	}
	// a response with no recoverable JSON surfaces as a parse failure
	handler := newExtractHandler(fetcher, &fixedAI{response: "I cannot help with that."}, false)
	rec := postJSON(t, handler.HandleExtract, `{"url":"https://example.com/p/1"}`)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", rec.Code, rec.Body.String())
	}
	failure := decodeFailure(t, rec)
	if failure.Error != "Could not parse product details from the AI response" {
		t.Errorf("unexpected error message: %q", failure.Error)
	}
	if failure.TechnicalDetails == "" {
		t.Error("expected technicalDetails to be populated for parse failures")
	}
}

func TestHandleExtractCaption(t *testing.T) {
	ai := &fixedAI{response: `{"name":"Kitenge Bundle","price":"28000","description":"Six yards of kitenge"}`}
	handler := newExtractHandler(&fixedFetcher{}, ai, false)

	req := httptest.NewRequest("POST", "/api/v1/extract/caption", strings.NewReader(`{"caption":"Kitenge bundle 28,000 TZS"}`))
	rec := httptest.NewRecorder()
	handler.HandleExtractCaption(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Success bool `json:"success"`
		Product struct {
			Name  string `json:"name"`
			Price string `json:"price"`
		} `json:"product"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success || resp.Product.Name != "Kitenge Bundle" || resp.Product.Price != "28000" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestHandleExtractCaptionEmpty(t *testing.T) {
	handler := newExtractHandler(&fixedFetcher{}, &fixedAI{}, false)

	req := httptest.NewRequest("POST", "/api/v1/extract/caption", strings.NewReader(`{"caption":"  "}`))
	rec := httptest.NewRecorder()
	handler.HandleExtractCaption(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if failure := decodeFailure(t, rec); failure.Error != "Caption is required" {
		t.Errorf("unexpected error message: %q", failure.Error)
	}
}

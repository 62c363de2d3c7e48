package extractor

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"postcart/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFetchWithOpenGraphTags(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head>
			<meta property="og:description" content="Leather Bag 80,000 TSh">
			<meta property="og:image" content="https://cdn.example.com/bag.jpg">
		</head></html>`))
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(testLogger())
	descriptor, live := fetcher.Fetch(context.Background(), server.URL, domain.CategoryOther)

	if !live {
		t.Error("expected live content read")
	}
	if descriptor.PageContent != "Leather Bag 80,000 TSh" {
		t.Errorf("got page content %q", descriptor.PageContent)
	}
	if descriptor.Caption != "Leather Bag 80,000 TSh" {
		t.Errorf("got caption %q", descriptor.Caption)
	}
	if descriptor.ImageURL != "https://cdn.example.com/bag.jpg" {
		t.Errorf("got image %q", descriptor.ImageURL)
	}
}

func TestFetchForbiddenDegradesToFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(testLogger())
	descriptor, live := fetcher.Fetch(context.Background(), server.URL, domain.CategoryInstagram)

	if live {
		t.Error("forbidden response must not count as live content")
	}
	if !strings.Contains(descriptor.PageContent, "could not be fetched") {
		t.Errorf("expected fallback content, got %q", descriptor.PageContent)
	}
	if !strings.Contains(descriptor.PageContent, "Instagram") {
		t.Errorf("fallback should name the platform, got %q", descriptor.PageContent)
	}
	if !strings.Contains(descriptor.PageContent, server.URL) {
		t.Errorf("fallback should embed the URL, got %q", descriptor.PageContent)
	}
}

func TestFetchUnreachableHostNeverFails(t *testing.T) {
	fetcher := NewHTTPFetcher(testLogger())
	descriptor, live := fetcher.Fetch(context.Background(), "http://127.0.0.1:1", domain.CategoryOther)

	if live {
		t.Error("connection failure must not count as live content")
	}
	if descriptor.PageContent == "" {
		t.Error("fallback descriptor must carry content for the AI stage")
	}
}

func TestFetchSocialSendsBrowserHeaders(t *testing.T) {
	var gotUA, gotReferer string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotReferer = r.Header.Get("Referer")
		w.Write([]byte(`<head><meta property="og:title" content="A Post"></head>`))
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(testLogger())
	fetcher.Fetch(context.Background(), server.URL, domain.CategoryInstagram)

	if !strings.Contains(gotUA, "Chrome") {
		t.Errorf("social fetch should use a browser user agent, got %q", gotUA)
	}
	if gotReferer == "" {
		t.Error("social fetch should send a platform referer")
	}
}

func TestFetchSocialPageWithoutOGTags(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>login wall</body></html>`))
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(testLogger())
	descriptor, live := fetcher.Fetch(context.Background(), server.URL, domain.CategoryFacebook)

	if !live {
		t.Error("a readable page counts as live even without OG tags")
	}
	if !strings.Contains(descriptor.PageContent, "No caption could be extracted") {
		t.Errorf("expected URL-only analysis instruction, got %q", descriptor.PageContent)
	}
}

func TestFetchGenericPageWithoutOGTagsUsesRawBody(t *testing.T) {
	body := `<html><body>` + strings.Repeat("product text ", 100) + `</body></html>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(testLogger())
	descriptor, live := fetcher.Fetch(context.Background(), server.URL, domain.CategoryOther)

	if !live {
		t.Error("expected live content read")
	}
	if len(descriptor.PageContent) > rawBodyLimit {
		t.Errorf("raw body should be truncated to %d chars, got %d", rawBodyLimit, len(descriptor.PageContent))
	}
	if !strings.HasPrefix(descriptor.PageContent, "<html>") {
		t.Errorf("expected raw body prefix, got %q", descriptor.PageContent[:20])
	}
}

func TestFetchRawBodyCutKeepsRunesIntact(t *testing.T) {
	// Multi-byte text around the cut point must not be split mid-rune
	body := `<html><body>` + strings.Repeat("bei ✨", 120) + `</body></html>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(testLogger())
	descriptor, live := fetcher.Fetch(context.Background(), server.URL, domain.CategoryOther)

	if !live {
		t.Error("expected live content read")
	}
	if len(descriptor.PageContent) > rawBodyLimit {
		t.Errorf("raw body should be truncated to %d bytes, got %d", rawBodyLimit, len(descriptor.PageContent))
	}
	if !utf8.ValidString(descriptor.PageContent) {
		t.Error("truncated body is not valid UTF-8")
	}
}

func TestFallbackDescriptorOtherCategory(t *testing.T) {
	descriptor := fallbackDescriptor("https://example.com/p/1", domain.CategoryOther)

	if !strings.Contains(descriptor.PageContent, "https://example.com/p/1") {
		t.Errorf("fallback should embed the URL, got %q", descriptor.PageContent)
	}
	if !strings.Contains(descriptor.PageContent, "Extract product name, price, and description") {
		t.Errorf("unexpected fallback content %q", descriptor.PageContent)
	}
}

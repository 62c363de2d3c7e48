package extractor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"postcart/internal/domain"
)

const (
	// Full desktop browser signature; Instagram and Facebook serve a
	// login wall to anything that looks like a bot
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	genericUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

	fetchTimeout = 10 * time.Second
	maxBodyBytes = 1024 * 1024 // 1MB limit
	rawBodyLimit = 500         // chars of raw body used when no OG tags exist
)

// Fetcher retrieves page content for a URL using a category-specific
// strategy. Fetch never fails outward: every failure mode degrades to a
// descriptor whose PageContent instructs the AI stage instead. The second
// return value reports whether live page text was actually read.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, category domain.URLCategory) (domain.ContentDescriptor, bool)
}

// HTTPFetcher fetches pages with a single timeout-bounded GET per request
type HTTPFetcher struct {
	logger     *slog.Logger
	httpClient *http.Client
}

// NewHTTPFetcher creates the default fetcher
func NewHTTPFetcher(logger *slog.Logger) *HTTPFetcher {
	return &HTTPFetcher{
		logger: logger,
		httpClient: &http.Client{
			Timeout: fetchTimeout,
		},
	}
}

// Fetch retrieves the page behind rawURL. Social categories get a realistic
// browser signature and a platform referer; everything else a generic
// desktop user agent.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string, category domain.URLCategory) (domain.ContentDescriptor, bool) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		f.logger.Warn("Failed to build fetch request", "url", rawURL, "error", err)
		return fallbackDescriptor(rawURL, category), false
	}

	if category.IsSocial() {
		req.Header.Set("User-Agent", browserUserAgent)
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
		req.Header.Set("Accept-Language", "en-US,en;q=0.5")
		req.Header.Set("Referer", refererFor(category))
	} else {
		req.Header.Set("User-Agent", genericUserAgent)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		f.logger.Warn("Direct fetch failed, degrading to URL-only analysis",
			"url", rawURL,
			"category", category,
			"error", err,
		)
		return fallbackDescriptor(rawURL, category), false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		f.logger.Info("Fetch returned non-2xx status",
			"url", rawURL,
			"category", category,
			"status", resp.StatusCode,
		)
		return fallbackDescriptor(rawURL, category), false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		f.logger.Warn("Failed to read page body", "url", rawURL, "error", err)
		return fallbackDescriptor(rawURL, category), false
	}

	return descriptorFromHTML(string(body), rawURL, category)
}

// descriptorFromHTML builds a content descriptor from fetched page HTML,
// shared by the HTTP and browser fetch strategies
func descriptorFromHTML(html, rawURL string, category domain.URLCategory) (domain.ContentDescriptor, bool) {
	og := ExtractOG(html)

	caption := og.Description
	if caption == "" {
		caption = og.Title
	}

	if caption != "" {
		return domain.ContentDescriptor{
			PageContent: caption,
			ImageURL:    og.Image,
			Caption:     caption,
		}, true
	}

	if category.IsSocial() {
		// Page loaded but carried no usable preview text; ask the model
		// to reason from the URL alone
		return domain.ContentDescriptor{
			PageContent: fmt.Sprintf(
				"Analyze this %s post URL: %s. No caption could be extracted; infer any product information from the URL itself.",
				category.DisplayName(), rawURL,
			),
			ImageURL: og.Image,
		}, true
	}

	// Generic pages without OG tags still have body text worth reading
	text := truncate(strings.TrimSpace(html), rawBodyLimit)
	if text == "" {
		return fallbackDescriptor(rawURL, category), false
	}

	return domain.ContentDescriptor{
		PageContent: text,
		ImageURL:    og.Image,
	}, true
}

// fallbackDescriptor synthesizes content for the AI stage when the live
// fetch produced nothing usable
func fallbackDescriptor(rawURL string, category domain.URLCategory) domain.ContentDescriptor {
	if category.IsSocial() {
		return domain.ContentDescriptor{
			PageContent: fmt.Sprintf(
				"The %s post at %s could not be fetched - it may be private or require login. Extract any product information that can be inferred from the URL itself.",
				category.DisplayName(), rawURL,
			),
		}
	}

	return domain.ContentDescriptor{
		PageContent: fmt.Sprintf(
			"Analyze this social media URL: %s. Platform: %s. Extract product name, price, and description if available.",
			rawURL, category.DisplayName(),
		),
	}
}

func refererFor(category domain.URLCategory) string {
	for _, p := range domain.GetSocialPlatforms() {
		if p.Category == category {
			return p.Referer
		}
	}
	return ""
}

package extractor

import (
	"context"
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"postcart/internal/domain"
)

// BrowserFetcher renders social pages in a headless browser before reading
// them. Instagram and Facebook increasingly serve empty shells to plain
// HTTP clients; a real renderer recovers the OG tags their scripts inject.
// Enabled with BROWSER_FETCH=true; non-social URLs still use the plain
// HTTP strategy.
type BrowserFetcher struct {
	logger   *slog.Logger
	browser  *rod.Browser
	fallback Fetcher
}

// NewBrowserFetcher launches a headless browser and wraps the given plain
// fetcher for non-social categories
func NewBrowserFetcher(logger *slog.Logger, fallback Fetcher) (*BrowserFetcher, error) {
	l := launcher.New().
		Headless(true).
		Set("no-sandbox")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, err
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, err
	}

	return &BrowserFetcher{
		logger:   logger,
		browser:  browser,
		fallback: fallback,
	}, nil
}

// Close shuts down the underlying browser
func (f *BrowserFetcher) Close() error {
	return f.browser.Close()
}

// Fetch renders the page and extracts content from the resulting DOM. Keeps
// the fetcher contract: never fails outward, single timeout-bounded attempt.
func (f *BrowserFetcher) Fetch(ctx context.Context, rawURL string, category domain.URLCategory) (domain.ContentDescriptor, bool) {
	if !category.IsSocial() {
		return f.fallback.Fetch(ctx, rawURL, category)
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	page, err := f.browser.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		f.logger.Warn("Failed to open browser page", "url", rawURL, "error", err)
		return fallbackDescriptor(rawURL, category), false
	}
	defer page.Close()

	page = page.Context(ctx)

	if err := page.Navigate(rawURL); err != nil {
		f.logger.Warn("Browser navigation failed", "url", rawURL, "error", err)
		return fallbackDescriptor(rawURL, category), false
	}

	if err := page.WaitLoad(); err != nil {
		f.logger.Warn("Page load timed out", "url", rawURL, "error", err)
		return fallbackDescriptor(rawURL, category), false
	}

	source, err := page.HTML()
	if err != nil {
		f.logger.Warn("Failed to read rendered page", "url", rawURL, "error", err)
		return fallbackDescriptor(rawURL, category), false
	}

	return descriptorFromHTML(source, rawURL, category)
}

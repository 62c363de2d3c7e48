package extractor

import (
	"context"
	"log/slog"
	"strings"

	"postcart/internal/domain"
	"postcart/internal/pkg/urlclassify"
)

// minURLLength rejects inputs that cannot possibly be a fetchable URL
// before any network call is made
const minURLLength = 8

// AIClient invokes the generative text model
type AIClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Service runs the product-extraction pipeline: classify, fetch, prompt,
// generate, sanitize, assemble. Stateless; safe for concurrent requests.
type Service struct {
	logger      *slog.Logger
	fetcher     Fetcher
	ai          AIClient
	strictGuard bool
}

// New creates the extraction service. strictGuard enables the superseded
// hard-stop behavior for protected social URLs instead of degrading to
// URL-only AI inference.
func New(logger *slog.Logger, fetcher Fetcher, ai AIClient, strictGuard bool) *Service {
	return &Service{
		logger:      logger,
		fetcher:     fetcher,
		ai:          ai,
		strictGuard: strictGuard,
	}
}

// ExtractFromURL runs the full pipeline for one request. The returned draft
// is always fully populated; errors carry the taxonomy the boundary maps to
// status codes.
func (s *Service) ExtractFromURL(ctx context.Context, req domain.ExtractionRequest) (*domain.ProductDraft, error) {
	url := strings.TrimSpace(req.URL)
	if len(url) < minURLLength {
		return nil, &domain.ExtractionError{
			Kind:   domain.ErrKindInputValidation,
			Detail: "valid URL required",
		}
	}

	// Canonical form keeps stored source URLs stable across share-tracking
	// params, so repeat shares of the same post dedup in the repository
	if normalized, err := urlclassify.NormalizeURL(url); err == nil {
		url = normalized
	}

	category := urlclassify.Classify(url)

	descriptor, live := s.fetcher.Fetch(ctx, url, category)

	if s.strictGuard && category.IsSocial() && !live {
		// Opt-in policy: refuse instead of degrading, directing the seller
		// to the official platform connection
		return nil, domain.NewProtectedError(
			category.DisplayName(),
			"post could not be read without an official platform connection",
		)
	}

	platform := req.Platform
	if platform == "" {
		platform = domain.PlatformUnknown
	}

	prompt := BuildPrompt(PromptContext{
		URL:         url,
		Platform:    platform,
		PageContent: descriptor.PageContent,
	})

	raw, err := s.ai.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	fields, err := Sanitize(raw)
	if err != nil {
		s.logger.Error("Model response could not be sanitized",
			"url", url,
			"error", err,
			"raw_response", truncate(raw, 200),
		)
		return nil, err
	}

	draft := Assemble(fields, descriptor, url, platform)

	s.logger.Info("Product extracted",
		"url", url,
		"category", category,
		"live_content", live,
		"name", draft.Name,
		"price", draft.Price,
	)

	return draft, nil
}

// ExtractFromCaption runs the prompt/generate/sanitize stages against a bare
// caption, skipping classification and fetch
func (s *Service) ExtractFromCaption(ctx context.Context, caption string) (domain.ProductFields, error) {
	raw, err := s.ai.Generate(ctx, BuildCaptionPrompt(caption))
	if err != nil {
		return domain.ProductFields{}, err
	}
	return Sanitize(raw)
}

// Assemble merges sanitized fields with the fetched image and source
// metadata. Pure; by this point every input is already defaulted.
func Assemble(fields domain.ProductFields, descriptor domain.ContentDescriptor, url, platform string) *domain.ProductDraft {
	image := descriptor.ImageURL
	if image == "" {
		image = domain.PlaceholderImageURL
	}

	return &domain.ProductDraft{
		Name:        fields.Name,
		Price:       fields.Price,
		Description: fields.Description,
		Image:       image,
		Platform:    platform,
		SourceURL:   url,
	}
}

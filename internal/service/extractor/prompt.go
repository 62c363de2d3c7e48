package extractor

import (
	"fmt"
	"strings"

	"postcart/internal/domain"
)

// PromptContext carries everything the prompt template embeds for one
// extraction call
type PromptContext struct {
	URL         string
	Platform    string
	PageContent string
}

// noContentPlaceholder is used when even the synthetic fallback is empty,
// which should not happen in practice
const noContentPlaceholder = "No content could be extracted from this post."

// BuildPrompt assembles the deterministic instruction for the generative
// model. This template is the single source of truth for extraction
// semantics: the sanitizer depends on the strict-JSON and currency rules
// stated here.
func BuildPrompt(ctx PromptContext) string {
	platform := ctx.Platform
	if platform == "" {
		platform = domain.PlatformUnknown
	}

	content := strings.TrimSpace(ctx.PageContent)
	if content == "" {
		content = noContentPlaceholder
	}

	return fmt.Sprintf(`You are an expert e-commerce data extractor analyzing a social media post.

URL: %s
Platform: %s
Content: %s

Extract product information and return ONLY a valid JSON object:
{
    "name": "Product Name (short and catchy, or 'Unknown Product' if not found)",
    "price": "Numerical price as string (e.g. '50000'), or '0' if not found",
    "description": "Professional product description (or content summary if no product found)"
}

IMPORTANT:
- The store uses Tanzanian Shilling (TZS). Convert prices like '50k', '50,000/-', '50K TSh' to '50000'
- If you see prices in other currencies, convert to TZS (approximate: 1 USD = 2300 TZS)
- If no clear product is found, make an educated guess based on the content
- Keep descriptions under 150 characters
- Do not wrap the answer in markdown code fences or add any other prose`,
		ctx.URL, platform, content)
}

// BuildCaptionPrompt assembles the instruction for caption-only extraction,
// used when importing posts through the official Instagram connection
func BuildCaptionPrompt(caption string) string {
	return BuildPrompt(PromptContext{
		URL:         "(caption only)",
		Platform:    "Instagram",
		PageContent: caption,
	})
}

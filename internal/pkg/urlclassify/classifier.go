package urlclassify

import (
	"net/url"
	"strings"

	"postcart/internal/domain"
)

// Classify categorizes a source URL so the fetcher can pick a strategy.
// Pure and total: case-insensitive substring match against the fixed host
// lists in the domain platform config, anything unmatched is CategoryOther.
func Classify(rawURL string) domain.URLCategory {
	haystack := strings.ToLower(rawURL)

	// Prefer matching the parsed host so a product page that merely links
	// to instagram.com in a query param still classifies by its own host
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		haystack = strings.ToLower(u.Host + u.Path)
	}

	for _, platform := range domain.GetSocialPlatforms() {
		for _, host := range platform.Hosts {
			if strings.Contains(haystack, host) {
				return platform.Category
			}
		}
	}

	return domain.CategoryOther
}

// IsSocial reports whether the URL belongs to a protected social platform
func IsSocial(rawURL string) bool {
	return Classify(rawURL).IsSocial()
}

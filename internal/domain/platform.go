package domain

// URLCategory selects the fetch strategy for a source URL
type URLCategory string

// Fetch categories - single source of truth
const (
	CategoryInstagram URLCategory = "instagram"
	CategoryFacebook  URLCategory = "facebook"
	CategoryOther     URLCategory = "other"
)

// SocialPlatform describes a recognized social platform and the URL hosts
// that identify it
type SocialPlatform struct {
	Category URLCategory `json:"category"`
	Name     string      `json:"name"`
	Hosts    []string    `json:"hosts"`
	Referer  string      `json:"referer"`
}

// PlatformUnknown labels products whose source platform was not provided
const PlatformUnknown = "Unknown"

// GetSocialPlatforms returns the centralized platform configuration consumed
// by the URL classifier and the content fetcher
func GetSocialPlatforms() []SocialPlatform {
	return []SocialPlatform{
		{
			Category: CategoryInstagram,
			Name:     "Instagram",
			Hosts:    []string{"instagram.com", "instagr.am"},
			Referer:  "https://www.instagram.com/",
		},
		{
			Category: CategoryFacebook,
			Name:     "Facebook",
			Hosts:    []string{"facebook.com", "fb.com", "fb.me"},
			Referer:  "https://www.facebook.com/",
		},
	}
}

// IsSocial reports whether the category belongs to a protected social platform
func (c URLCategory) IsSocial() bool {
	return c == CategoryInstagram || c == CategoryFacebook
}

// DisplayName returns the user-facing platform label for a category
func (c URLCategory) DisplayName() string {
	for _, p := range GetSocialPlatforms() {
		if p.Category == c {
			return p.Name
		}
	}
	return "Other"
}

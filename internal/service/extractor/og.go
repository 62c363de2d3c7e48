package extractor

import (
	"strings"

	"golang.org/x/net/html"
)

// OGTags holds the Open Graph metadata a page exposes for link previews.
// Absent tags are empty strings.
type OGTags struct {
	Image       string
	Description string
	Title       string
}

// ExtractOG parses HTML and pulls out og:image, og:description and og:title
// meta tags. Best effort: tolerates attribute-order variance and missing
// tags; the first match per field wins. Malformed markup degrades to "no
// match" rather than an error because html.Parse always produces a tree.
func ExtractOG(source string) OGTags {
	var tags OGTags

	doc, err := html.Parse(strings.NewReader(source))
	if err != nil {
		return tags
	}

	walkMetaTags(doc, &tags)
	return tags
}

func walkMetaTags(n *html.Node, tags *OGTags) {
	if n.Type == html.ElementNode && n.Data == "meta" {
		var property, content string
		for _, attr := range n.Attr {
			switch strings.ToLower(attr.Key) {
			case "property", "name":
				property = strings.ToLower(attr.Val)
			case "content":
				content = attr.Val
			}
		}

		if content != "" {
			switch property {
			case "og:image":
				if tags.Image == "" {
					tags.Image = content
				}
			case "og:description":
				if tags.Description == "" {
					tags.Description = content
				}
			case "og:title":
				if tags.Title == "" {
					tags.Title = content
				}
			}
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkMetaTags(c, tags)
	}
}

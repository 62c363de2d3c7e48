package urlclassify

import (
	"testing"

	"postcart/internal/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want domain.URLCategory
	}{
		{
			name: "instagram post URL",
			url:  "https://www.instagram.com/p/Cxyz123/",
			want: domain.CategoryInstagram,
		},
		{
			name: "instagram short domain",
			url:  "https://instagr.am/p/abc",
			want: domain.CategoryInstagram,
		},
		{
			name: "instagram uppercase host",
			url:  "https://WWW.INSTAGRAM.COM/p/abc",
			want: domain.CategoryInstagram,
		},
		{
			name: "facebook post URL",
			url:  "https://facebook.com/somepage/posts/123",
			want: domain.CategoryFacebook,
		},
		{
			name: "facebook short domain",
			url:  "https://fb.me/xyz",
			want: domain.CategoryFacebook,
		},
		{
			name: "fb.com",
			url:  "http://fb.com/page",
			want: domain.CategoryFacebook,
		},
		{
			name: "generic shop URL",
			url:  "https://shop.example.com/item",
			want: domain.CategoryOther,
		},
		{
			name: "shop page linking instagram in query only",
			url:  "https://shop.example.com/item?share=instagram.com",
			want: domain.CategoryOther,
		},
		{
			name: "bare string without scheme",
			url:  "instagram.com/p/abc",
			want: domain.CategoryInstagram,
		},
		{
			name: "empty string",
			url:  "",
			want: domain.CategoryOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.url)
			if got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.url, got, tt.want)
			}

			// Classification is used as a routing key; it must be stable
			if again := Classify(tt.url); again != got {
				t.Errorf("Classify(%q) not idempotent: %v then %v", tt.url, got, again)
			}
		})
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "strips instagram share tracking",
			input: "https://www.instagram.com/p/abc/?igshid=xyz123",
			want:  "https://instagram.com/p/abc/",
		},
		{
			name:  "strips facebook click id",
			input: "https://facebook.com/page/posts/1?fbclid=IwAR0abc",
			want:  "https://facebook.com/page/posts/1",
		},
		{
			name:  "adds https and lowercases host",
			input: "Shop.Example.COM/item",
			want:  "https://shop.example.com/item",
		},
		{
			name:  "keeps meaningful query params",
			input: "https://shop.example.com/item?id=42&utm_source=ig",
			want:  "https://shop.example.com/item?id=42",
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: true,
		},
		{
			name:    "no domain",
			input:   "not-a-url",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeURL(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NormalizeURL(%q) expected error, got %q", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeURL(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeURL(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

package crawler

import (
	"net/url"
	"testing"
)

func TestURLFilterIsValid(t *testing.T) {
	origin, _ := url.Parse("https://shop.example.com/")
	filter := NewURLFilter(DefaultExcludePatterns, DefaultFileExtensions)

	tests := []struct {
		name string
		url  string
		want bool
	}{
		{"same origin page", "https://shop.example.com/products/shirt", true},
		{"root", "https://shop.example.com/", true},
		{"plain http on same host", "http://shop.example.com/about", true},
		{"host is case insensitive", "https://SHOP.Example.com/about", true},
		{"subdomain", "https://blog.shop.example.com/post", false},
		{"parent domain", "https://example.com/", false},
		{"different port", "https://shop.example.com:8443/", false},
		{"mailto", "mailto:team@shop.example.com", false},
		{"javascript", "javascript:void(0)", false},
		{"cdn asset path", "https://shop.example.com/cdn/shop/file", false},
		{"wordpress uploads", "https://shop.example.com/wp-content/uploads/a", false},
		{"cart", "https://shop.example.com/cart", false},
		{"checkout", "https://shop.example.com/checkout/step-1", false},
		{"account", "https://shop.example.com/account/login", false},
		{"theme preview query", "https://shop.example.com/?preview_theme_id=123", false},
		{"pattern matching ignores case", "https://shop.example.com/Admin/users", false},
		{"image", "https://shop.example.com/banner.jpg", false},
		{"uppercase extension", "https://shop.example.com/banner.WEBP", false},
		{"document", "https://shop.example.com/catalog.pdf", false},
		{"font", "https://shop.example.com/fonts/a.woff2", false},
		{"extension only checked on path", "https://shop.example.com/download?file=a.pdf", true},
		{"html page", "https://shop.example.com/page.html", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(tt.url)
			if err != nil {
				t.Fatalf("parse %q: %v", tt.url, err)
			}
			if got := filter.IsValid(u, origin); got != tt.want {
				t.Errorf("IsValid(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestURLFilterCustomLists(t *testing.T) {
	origin, _ := url.Parse("https://example.com")
	filter := NewURLFilter([]string{"/Private/"}, []string{".XML"})

	for raw, want := range map[string]bool{
		"https://example.com/private/a":  false,
		"https://example.com/feed.xml":   false,
		"https://example.com/cart":       true,
		"https://example.com/banner.png": true,
	} {
		u, _ := url.Parse(raw)
		if got := filter.IsValid(u, origin); got != want {
			t.Errorf("IsValid(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestURLFilterNilInputs(t *testing.T) {
	filter := NewURLFilter(nil, nil)
	u, _ := url.Parse("https://example.com/")
	if filter.IsValid(nil, u) || filter.IsValid(u, nil) {
		t.Error("expected nil URLs to be rejected")
	}
}

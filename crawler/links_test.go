package crawler

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractLinks(t *testing.T) {
	base, _ := url.Parse("https://example.com/blog/post")

	tests := []struct {
		name string
		html string
		want []string
	}{
		{
			name: "relative and absolute",
			html: `<a href="/about">About</a><a href="next">Next</a><a href="https://other.com/x">X</a>`,
			want: []string{
				"https://example.com/about",
				"https://example.com/blog/next",
				"https://other.com/x",
			},
		},
		{
			name: "fragments removed and deduplicated",
			html: `<a href="/a#top">A</a><a href="/a">A</a><a href="/a#bottom">A</a>`,
			want: []string{"https://example.com/a"},
		},
		{
			name: "fragment only link points at the page itself",
			html: `<a href="#section">Jump</a>`,
			want: []string{"https://example.com/blog/post"},
		},
		{
			name: "whitespace trimmed",
			html: `<a href="  /contact  ">Contact</a>`,
			want: []string{"https://example.com/contact"},
		},
		{
			name: "anchors without href ignored",
			html: `<a name="x">no href</a><link href="/style.css"><img src="/a.png">`,
			want: nil,
		},
		{
			name: "query kept",
			html: `<a href="/search?q=shoes">Search</a>`,
			want: []string{"https://example.com/search?q=shoes"},
		},
		{
			name: "non http schemes kept for the filter to reject",
			html: `<a href="mailto:hi@example.com">Mail</a>`,
			want: []string{"mailto:hi@example.com"},
		},
		{
			name: "malformed html still yields links",
			html: `<div><a href="/one">one<p><a href="/two">two`,
			want: []string{"https://example.com/one", "https://example.com/two"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractLinks([]byte(tt.html), base))
		})
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := map[string]string{
		"HTTPS://Example.COM/Path#frag": "https://example.com/Path",
		"https://example.com/a?b=1#c":   "https://example.com/a?b=1",
		"https://example.com":           "https://example.com/",
		"https://example.com?q=1":       "https://example.com/?q=1",
	}
	for in, want := range tests {
		u, err := url.Parse(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if got := normalizeURL(u); got != want {
			t.Errorf("normalizeURL(%q) = %q, want %q", in, got, want)
		}
	}
}

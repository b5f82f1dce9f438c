package crawler

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractLinks returns the absolute targets of every anchor href in body,
// fragment removed, unique and in document order. Malformed HTML yields
// whatever the lenient parser recovers.
func ExtractLinks(body []byte, base *url.URL) []string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	var links []string
	seen := make(map[string]bool)
	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if idx := strings.Index(href, "#"); idx != -1 {
			href = href[:idx]
		}

		parsedURL, err := url.Parse(href)
		if err != nil {
			return
		}
		resolved := base.ResolveReference(parsedURL).String()
		if !seen[resolved] {
			seen[resolved] = true
			links = append(links, resolved)
		}
	})
	return links
}

// normalizeURL is the visited-set key: fragment dropped, scheme and host
// lower-cased, and an empty path on a hierarchical URL written as "/".
func normalizeURL(u *url.URL) string {
	clean := *u
	clean.Fragment = ""
	clean.RawFragment = ""
	clean.Scheme = strings.ToLower(clean.Scheme)
	clean.Host = strings.ToLower(clean.Host)
	if clean.Host != "" && clean.Opaque == "" && clean.Path == "" {
		clean.Path = "/"
		clean.RawPath = ""
	}
	return clean.String()
}

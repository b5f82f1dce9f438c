package crawler

import (
	"net/url"
	"strings"
)

// URLFilter decides whether a discovered URL belongs to the crawl.
type URLFilter struct {
	excludePatterns []string
	fileExtensions  []string
}

func NewURLFilter(excludePatterns, fileExtensions []string) *URLFilter {
	f := &URLFilter{}
	for _, p := range excludePatterns {
		f.excludePatterns = append(f.excludePatterns, strings.ToLower(p))
	}
	for _, ext := range fileExtensions {
		f.fileExtensions = append(f.fileExtensions, strings.ToLower(ext))
	}
	return f
}

// IsValid accepts http(s) URLs on the origin's host[:port] whose path carries
// no excluded pattern and no disqualifying file extension.
func (f *URLFilter) IsValid(u, origin *url.URL) bool {
	if u == nil || origin == nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if !strings.EqualFold(u.Host, origin.Host) {
		return false
	}

	path := strings.ToLower(u.Path)
	// Patterns such as preview_theme_id= only ever appear in the query.
	target := path
	if u.RawQuery != "" {
		target += "?" + strings.ToLower(u.RawQuery)
	}
	for _, pattern := range f.excludePatterns {
		if strings.Contains(target, pattern) {
			return false
		}
	}
	for _, ext := range f.fileExtensions {
		if strings.HasSuffix(path, ext) {
			return false
		}
	}
	return true
}

package tools

import (
	"fmt"
	"net/url"
	"strings"
)

// SiteInput is the argument every inspection tool takes.
type SiteInput struct {
	Site string `json:"site" validate:"required"`
}

// normalizeSite accepts a full URL or a bare domain and returns an absolute
// http(s) URL. Bare domains get https.
func normalizeSite(site string) (*url.URL, error) {
	site = strings.TrimSpace(site)
	if site == "" {
		return nil, fmt.Errorf("%w: site is empty", ErrInvalidArguments)
	}
	if !strings.Contains(site, "://") {
		site = "https://" + strings.TrimPrefix(site, "//")
	}
	u, err := url.Parse(site)
	if err != nil {
		return nil, fmt.Errorf("%w: site %q: %v", ErrInvalidArguments, site, err)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: site %q must be http or https", ErrInvalidArguments, site)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("%w: site %q has no host", ErrInvalidArguments, site)
	}
	u.Fragment = ""
	return u, nil
}

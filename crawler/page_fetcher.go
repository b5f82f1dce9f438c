package crawler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DocumentFetcher loads one page as a parsed document. Implementations make
// exactly one request and never retry.
type DocumentFetcher interface {
	FetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error)
}

// PageFetcher is the net/http DocumentFetcher used by the single-page tools.
type PageFetcher struct {
	client    *http.Client
	userAgent string
}

func NewPageFetcher(userAgent string, timeout time.Duration) *PageFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PageFetcher{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        50,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     30 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
				ForceAttemptHTTP2:   true,
			},
		},
		userAgent: userAgent,
	}
}

// NewPageFetcherWithBackend picks the colly or the net/http fetcher.
func NewPageFetcherWithBackend(useColly bool, userAgent string, timeout time.Duration, collyConfig CollyConfig) DocumentFetcher {
	if useColly {
		collyConfig.Timeout = timeout
		if collyConfig.UserAgent == "" {
			collyConfig.UserAgent = userAgent
		}
		return NewCollyPageFetcher(collyConfig)
	}
	return NewPageFetcher(userAgent, timeout)
}

func (f *PageFetcher) FetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("request creation failed: %w", err)
	}

	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}
	return doc, nil
}

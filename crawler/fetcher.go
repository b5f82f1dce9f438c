package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"

	"seo-agent/logging"
)

// Fetcher retrieves one URL for the crawler. A non-nil error means the URL
// could not be reached at all; HTTP error statuses are returned as responses.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Response, error)
}

// Response describes one fetched URL.
type Response struct {
	URL         string
	StatusCode  int
	Header      http.Header
	Body        []byte
	ContentType string
}

// FetcherOptions controls HTTP fetching behaviour.
type FetcherOptions struct {
	UserAgent string
	// Timeout applies to every attempt separately.
	Timeout time.Duration
	// MaxAttempts counts the first try. Transport failures are retried until
	// it is reached.
	MaxAttempts int
	// RetryBaseDelay is the first backoff; it doubles on every retry.
	RetryBaseDelay time.Duration
	MaxBodyBytes   int64
	Limiter        *HostLimiter
	Logger         logging.Logger
}

// HTTPFetcher is a Fetcher over net/http that never follows redirects and
// retries transport failures with exponential backoff.
type HTTPFetcher struct {
	client       *http.Client
	userAgent    string
	maxAttempts  int
	baseDelay    time.Duration
	maxBodyBytes int64
	limiter      *HostLimiter
	logger       logging.Logger
}

func NewHTTPFetcher(opts FetcherOptions) *HTTPFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.RetryBaseDelay <= 0 {
		opts.RetryBaseDelay = time.Second
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 5 * 1024 * 1024
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}

	return &HTTPFetcher{
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     30 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
				ForceAttemptHTTP2:   true,
			},
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		userAgent:    opts.UserAgent,
		maxAttempts:  opts.MaxAttempts,
		baseDelay:    opts.RetryBaseDelay,
		maxBodyBytes: opts.MaxBodyBytes,
		limiter:      opts.Limiter,
		logger:       opts.Logger,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	target, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}

	// Backoff runs base, 2*base, 4*base... so the cap only has to cover the
	// last gap.
	maxDelay := f.baseDelay << uint(max(f.maxAttempts-2, 1))
	policy := retrypolicy.NewBuilder[*Response]().
		HandleIf(func(_ *Response, err error) bool {
			return err != nil && ctx.Err() == nil
		}).
		WithMaxAttempts(f.maxAttempts).
		WithBackoff(f.baseDelay, maxDelay).
		Build()

	attempt := 0
	resp, err := failsafe.With(policy).WithContext(ctx).Get(func() (*Response, error) {
		attempt++
		resp, err := f.fetchOnce(ctx, target)
		if err != nil {
			f.logger.WithFields(logging.Fields{
				"url":     rawURL,
				"attempt": attempt,
				"error":   err.Error(),
			}).Debug("Fetch attempt failed")
		}
		return resp, err
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("fetch %s failed after %d attempts: %w", rawURL, attempt, err)
	}
	return resp, nil
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, target *url.URL) (*Response, error) {
	if err := f.limiter.Wait(ctx, target.Host); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	// Bodies beyond the cap are cut rather than rejected: only the links in
	// the first part of an oversized page are followed.
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &Response{
		URL:         target.String(),
		StatusCode:  resp.StatusCode,
		Header:      resp.Header.Clone(),
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

package crawler

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/debug"
)

type CollyConfig struct {
	UserAgent   string
	Timeout     time.Duration
	Delay       time.Duration
	RandomDelay time.Duration
	Parallelism int
	DomainGlob  string
	DebugMode   bool
}

// CollyPageFetcher is a DocumentFetcher backed by a colly collector.
type CollyPageFetcher struct {
	config CollyConfig
}

func NewCollyPageFetcher(config CollyConfig) *CollyPageFetcher {
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	if config.DomainGlob == "" {
		config.DomainGlob = "*"
	}
	return &CollyPageFetcher{config: config}
}

// newCollector builds a fresh collector per request so callbacks from
// concurrent fetches never see each other's pages.
func (cpf *CollyPageFetcher) newCollector(ctx context.Context) *colly.Collector {
	c := colly.NewCollector(
		colly.StdlibContext(ctx),
		colly.AllowURLRevisit(),
	)
	c.UserAgent = cpf.config.UserAgent
	c.SetRequestTimeout(cpf.config.Timeout)

	if cpf.config.Delay > 0 || cpf.config.RandomDelay > 0 || cpf.config.Parallelism > 0 {
		c.Limit(&colly.LimitRule{
			DomainGlob:  cpf.config.DomainGlob,
			Parallelism: cpf.config.Parallelism,
			Delay:       cpf.config.Delay,
			RandomDelay: cpf.config.RandomDelay,
		})
	}

	if cpf.config.DebugMode {
		c.SetDebugger(&debug.LogDebugger{})
	}
	return c
}

func (cpf *CollyPageFetcher) FetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	c := cpf.newCollector(ctx)

	var doc *goquery.Document
	var fetchError error

	c.OnResponse(func(r *colly.Response) {
		contentType := r.Headers.Get("Content-Type")
		if contentType != "" && !strings.Contains(contentType, "html") {
			fetchError = fmt.Errorf("response is not HTML: content-type %s", contentType)
			return
		}
		var err error
		doc, err = goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
		if err != nil {
			fetchError = fmt.Errorf("parse HTML: %w", err)
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode > 0 {
			fetchError = fmt.Errorf("HTTP %d: %w", r.StatusCode, err)
			return
		}
		fetchError = fmt.Errorf("colly fetch error for %s: %w", pageURL, err)
	})

	if err := c.Visit(pageURL); err != nil && fetchError == nil {
		return nil, fmt.Errorf("colly visit failed: %w", err)
	}
	c.Wait()

	if fetchError != nil {
		return nil, fetchError
	}
	if doc == nil {
		return nil, fmt.Errorf("no document retrieved for %s", pageURL)
	}
	return doc, nil
}

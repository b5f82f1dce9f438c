package tools

import (
	"context"
	"errors"
	"time"

	"seo-agent/cache"
	"seo-agent/crawler"
	"seo-agent/logging"
)

// CrawlResult is the classification report plus per-bucket counts so the
// model does not have to count long URL lists itself.
type CrawlResult struct {
	*crawler.Report
	Counts   map[string]int `json:"counts"`
	Cached   bool           `json:"cached,omitempty"`
	CachedAt time.Time      `json:"cached_at,omitzero"`
}

// ClassifiedCrawl exposes the site crawler as a tool, reusing reports from
// the cache while they are fresh.
type ClassifiedCrawl struct {
	crawler *crawler.Crawler
	cache   *cache.Store
	logger  logging.Logger
}

func NewClassifiedCrawl(c *crawler.Crawler, store *cache.Store, logger logging.Logger) *ClassifiedCrawl {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ClassifiedCrawl{crawler: c, cache: store, logger: logger}
}

func (t *ClassifiedCrawl) Run(ctx context.Context, input SiteInput) (CrawlResult, error) {
	seed, err := normalizeSite(input.Site)
	if err != nil {
		return CrawlResult{}, err
	}
	if seed.Path == "" {
		seed.Path = "/"
	}
	key := "crawl:" + seed.String()

	var cached crawler.Report
	cachedAt, err := t.cache.Get(key, &cached)
	switch {
	case err == nil:
		t.logger.WithFields(logging.Fields{
			"site":      seed.String(),
			"cached_at": cachedAt,
		}).Info("Serving crawl report from cache")
		return CrawlResult{Report: &cached, Counts: cached.Counts(), Cached: true, CachedAt: cachedAt}, nil
	case !errors.Is(err, cache.ErrMiss):
		t.logger.WithError(err).WithField("site", seed.String()).Warn("Ignoring unreadable cache entry")
	}

	report, err := t.crawler.Crawl(ctx, seed.String())
	if err != nil {
		if errors.Is(err, crawler.ErrInvalidSeed) {
			return CrawlResult{}, errors.Join(ErrInvalidArguments, err)
		}
		return CrawlResult{}, err
	}

	if report.Truncated {
		t.logger.WithField("site", seed.String()).Info("Not caching truncated crawl report")
	} else if err := t.cache.Set(key, report); err != nil {
		t.logger.WithError(err).WithField("site", seed.String()).Warn("Failed to cache crawl report")
	}
	return CrawlResult{Report: report, Counts: report.Counts()}, nil
}

func (t *ClassifiedCrawl) Tool() Tool {
	return NewTool("get_all_pages_classified",
		"Crawl every internal page reachable by links from the site's start URL and group the URLs by HTTP status code (\"200\", \"301\", \"404\", ...). URLs outside the site, assets and admin/cart style paths are listed under \"skipped\". Slow on large sites.",
		siteParams("Start URL or domain of the site to crawl.", nil),
		t.Run)
}

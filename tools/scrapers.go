package tools

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"

	"seo-agent/crawler"
	"seo-agent/extract"
	"seo-agent/logging"
)

// Scrapers are the single-page inspection tools. Each makes one fetch
// bounded by timeout and never retries.
type Scrapers struct {
	fetcher crawler.DocumentFetcher
	timeout time.Duration
	logger  logging.Logger
}

func NewScrapers(fetcher crawler.DocumentFetcher, timeout time.Duration, logger logging.Logger) *Scrapers {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Scrapers{fetcher: fetcher, timeout: timeout, logger: logger}
}

type FullTextInput struct {
	Site            string `json:"site" validate:"required"`
	IncludeMarkdown bool   `json:"include_markdown,omitempty"`
}

type FullTextResult struct {
	URL string `json:"url"`
	extract.FullText
}

type HeadingsResult struct {
	URL string `json:"url"`
	extract.HeadingOutline
}

type MetaResult struct {
	URL string `json:"url"`
	extract.MetaTags
	Alternates []extract.Alternate `json:"alternates,omitempty"`
}

type SocialResult struct {
	URL string `json:"url"`
	extract.SocialTags
}

type ImagesResult struct {
	URL string `json:"url"`
	extract.ImageReport
}

func (s *Scrapers) load(ctx context.Context, site string) (*url.URL, *goquery.Document, error) {
	target, err := normalizeSite(site)
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	doc, err := s.fetcher.FetchDocument(ctx, target.String())
	if err != nil {
		s.logger.WithFields(logging.Fields{
			"url":   target.String(),
			"error": err.Error(),
		}).Warn("Failed to fetch page")
		return nil, nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	s.logger.WithFields(logging.Fields{
		"url":         target.String(),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Fetched page")
	return target, doc, nil
}

func (s *Scrapers) FullText(ctx context.Context, input FullTextInput) (FullTextResult, error) {
	target, doc, err := s.load(ctx, input.Site)
	if err != nil {
		return FullTextResult{}, err
	}
	return FullTextResult{URL: target.String(), FullText: extract.ExtractFullText(doc, target, input.IncludeMarkdown)}, nil
}

func (s *Scrapers) Headings(ctx context.Context, input SiteInput) (HeadingsResult, error) {
	target, doc, err := s.load(ctx, input.Site)
	if err != nil {
		return HeadingsResult{}, err
	}
	return HeadingsResult{URL: target.String(), HeadingOutline: extract.Headings(doc)}, nil
}

func (s *Scrapers) Meta(ctx context.Context, input SiteInput) (MetaResult, error) {
	target, doc, err := s.load(ctx, input.Site)
	if err != nil {
		return MetaResult{}, err
	}
	return MetaResult{
		URL:        target.String(),
		MetaTags:   extract.Meta(doc),
		Alternates: extract.Alternates(doc, target),
	}, nil
}

func (s *Scrapers) Social(ctx context.Context, input SiteInput) (SocialResult, error) {
	target, doc, err := s.load(ctx, input.Site)
	if err != nil {
		return SocialResult{}, err
	}
	return SocialResult{URL: target.String(), SocialTags: extract.Social(doc)}, nil
}

func (s *Scrapers) Images(ctx context.Context, input SiteInput) (ImagesResult, error) {
	target, doc, err := s.load(ctx, input.Site)
	if err != nil {
		return ImagesResult{}, err
	}
	return ImagesResult{URL: target.String(), ImageReport: extract.Images(doc, target)}, nil
}

// Tools returns the scraper tools with their model-facing schemas.
func (s *Scrapers) Tools() []Tool {
	return []Tool{
		NewTool("scrap_full_text",
			"Fetch a page and return its visible text as lightweight markdown with word count, paragraph count and internal/external link counts.",
			siteParams("URL or domain of the page to read.", map[string]any{
				"include_markdown": map[string]any{
					"type":        "boolean",
					"description": "Also return the full body converted to markdown (larger output).",
				},
			}),
			s.FullText),
		NewTool("scrap_headings",
			"Fetch a page and return its h1-h6 outline in document order with per-level counts.",
			siteParams("URL or domain of the page to inspect.", nil),
			s.Headings),
		NewTool("scrap_meta",
			"Fetch a page and return its title, meta description (with lengths), canonical, robots, viewport, charset, language and hreflang alternates.",
			siteParams("URL or domain of the page to inspect.", nil),
			s.Meta),
		NewTool("scrap_og_and_verification",
			"Fetch a page and return its Open Graph tags, Twitter card tags and search-console or platform verification tags.",
			siteParams("URL or domain of the page to inspect.", nil),
			s.Social),
		NewTool("scrap_images",
			"Fetch a page and list its images with alt text, dimensions and the share of images that have alt text.",
			siteParams("URL or domain of the page to inspect.", nil),
			s.Images),
	}
}

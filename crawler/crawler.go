package crawler

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	"seo-agent/logging"
)

// ErrInvalidSeed is returned when the starting URL cannot anchor a crawl.
var ErrInvalidSeed = errors.New("invalid seed url")

// Progress is emitted every BatchSize classified pages and whenever a
// milestone is crossed.
type Progress struct {
	Site      string
	Found     int
	Queued    int
	Milestone int
}

// Crawler walks a site's internal links depth-first and classifies every
// URL it meets by HTTP outcome. It holds no per-crawl state, so one Crawler
// may run any number of crawls concurrently.
type Crawler struct {
	fetcher    Fetcher
	config     Config
	filter     *URLFilter
	logger     logging.Logger
	sleep      func(ctx context.Context, d time.Duration)
	onProgress func(Progress)
}

type Option func(*Crawler)

func WithLogger(logger logging.Logger) Option {
	return func(c *Crawler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithSleep replaces the politeness pause, mainly for tests.
func WithSleep(sleep func(ctx context.Context, d time.Duration)) Option {
	return func(c *Crawler) {
		if sleep != nil {
			c.sleep = sleep
		}
	}
}

func WithProgress(fn func(Progress)) Option {
	return func(c *Crawler) {
		c.onProgress = fn
	}
}

func New(fetcher Fetcher, cfg Config, opts ...Option) (*Crawler, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("%w: fetcher is required", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Crawler{
		fetcher: fetcher,
		config:  cfg,
		filter:  NewURLFilter(cfg.ExcludePatterns, cfg.FileExtensions),
		logger:  logging.NewNopLogger(),
		sleep:   sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// crawlState is everything one Crawl call owns.
type crawlState struct {
	origin        *url.URL
	visited       map[string]struct{}
	frontier      []string
	report        *Report
	fetched       int
	nextMilestone int
}

func (s *crawlState) push(rawURL string) {
	s.frontier = append(s.frontier, rawURL)
}

// pop returns the next unvisited URL from the top of the stack.
func (s *crawlState) pop() (string, bool) {
	for len(s.frontier) > 0 {
		last := len(s.frontier) - 1
		next := s.frontier[last]
		s.frontier = s.frontier[:last]
		if _, seen := s.visited[next]; !seen {
			return next, true
		}
	}
	return "", false
}

// Crawl traverses the site rooted at seed and returns the classification
// report. Unreachable pages and HTTP error statuses are outcomes, not errors;
// only a bad seed or a canceled ctx produce an error. On cancellation the
// partial report is returned alongside ctx.Err().
func (c *Crawler) Crawl(ctx context.Context, seed string) (*Report, error) {
	origin, err := url.Parse(strings.TrimSpace(seed))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
	}
	if origin.Host == "" {
		return nil, fmt.Errorf("%w: %q has no host", ErrInvalidSeed, seed)
	}

	parent := ctx
	if c.config.MaxDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.MaxDuration)
		defer cancel()
	}

	start := normalizeURL(origin)
	state := &crawlState{
		origin:  origin,
		visited: make(map[string]struct{}),
		report:  newReport(start),
	}
	state.push(start)

	c.logger.WithField("site", start).Info("Starting classified crawl")

	for {
		next, ok := state.pop()
		if !ok {
			break
		}
		if ctx.Err() != nil {
			break
		}
		if c.config.MaxPages > 0 && state.fetched >= c.config.MaxPages {
			state.report.Truncated = true
			c.logger.WithFields(logging.Fields{
				"site":      start,
				"max_pages": c.config.MaxPages,
			}).Warn("Crawl stopped at page cap")
			break
		}
		c.visit(ctx, state, next)
	}

	if err := parent.Err(); err != nil {
		return state.report, err
	}
	// The deadline may also have cut off the fetch of the last queued URL.
	if ctx.Err() != nil {
		state.report.Truncated = true
		c.logger.WithField("site", start).Warn("Crawl stopped at max duration")
	}

	c.logger.WithFields(logging.Fields{
		"site":      start,
		"found":     state.report.Found,
		"total":     state.report.Total(),
		"buckets":   state.report.Counts(),
		"truncated": state.report.Truncated,
	}).Info("Classified crawl finished")
	return state.report, nil
}

func (c *Crawler) visit(ctx context.Context, state *crawlState, rawURL string) {
	state.visited[rawURL] = struct{}{}

	target, err := url.Parse(rawURL)
	if err != nil || !c.filter.IsValid(target, state.origin) {
		state.report.add(BucketSkipped, rawURL)
		return
	}

	resp, err := c.fetcher.Fetch(ctx, rawURL)
	state.fetched++
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		c.logger.WithFields(logging.Fields{
			"url":   rawURL,
			"error": err.Error(),
		}).Warn("Page unreachable, skipping")
		if c.config.RecordFailures {
			state.report.add(BucketFailed, rawURL)
		}
		return
	}

	state.report.addStatus(resp.StatusCode, rawURL)
	c.reportProgress(state)

	if resp.StatusCode == http.StatusOK {
		links := ExtractLinks(resp.Body, target)
		// Reverse push keeps document order on the stack, so each child and
		// its own subtree finish before the next sibling starts.
		for i := len(links) - 1; i >= 0; i-- {
			link, err := url.Parse(links[i])
			if err != nil {
				continue
			}
			key := normalizeURL(link)
			if _, seen := state.visited[key]; !seen {
				state.push(key)
			}
		}
	}

	c.throttle(ctx)
}

func (c *Crawler) reportProgress(state *crawlState) {
	found := state.report.Found
	milestone := 0
	for state.nextMilestone < len(c.config.Milestones) && found >= c.config.Milestones[state.nextMilestone] {
		milestone = c.config.Milestones[state.nextMilestone]
		state.nextMilestone++
	}
	if found%c.config.BatchSize != 0 && milestone == 0 {
		return
	}

	progress := Progress{
		Site:      state.report.Site,
		Found:     found,
		Queued:    len(state.frontier),
		Milestone: milestone,
	}
	entry := c.logger.WithFields(logging.Fields{
		"site":   progress.Site,
		"found":  progress.Found,
		"queued": progress.Queued,
	})
	if milestone > 0 {
		entry.WithField("milestone", milestone).Info("Crawl milestone reached")
	} else {
		entry.Info("Crawl progress")
	}
	if c.onProgress != nil {
		c.onProgress(progress)
	}
}

func (c *Crawler) throttle(ctx context.Context) {
	delay := c.config.DelayMin
	if spread := c.config.DelayMax - c.config.DelayMin; spread > 0 {
		delay += time.Duration(rand.Int64N(int64(spread) + 1))
	}
	if delay <= 0 {
		return
	}
	c.sleep(ctx, delay)
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

package crawler

import (
	"sort"
	"strconv"
)

const (
	BucketSkipped = "skipped"
	BucketFailed  = "failed"
)

// Report buckets every URL a crawl considered by its outcome: the status code
// as a string, "skipped" for URLs outside the crawl scope, and "failed" for
// unreachable URLs when failures are recorded. A URL is in exactly one bucket
// and each bucket keeps discovery order.
type Report struct {
	Site      string              `json:"site"`
	Pages     map[string][]string `json:"pages"`
	Found     int                 `json:"found"`
	Truncated bool                `json:"truncated,omitempty"`
}

func newReport(site string) *Report {
	return &Report{
		Site:  site,
		Pages: make(map[string][]string),
	}
}

func (r *Report) add(bucket, pageURL string) {
	r.Pages[bucket] = append(r.Pages[bucket], pageURL)
}

func (r *Report) addStatus(code int, pageURL string) {
	r.add(strconv.Itoa(code), pageURL)
	r.Found++
}

// Bucket returns the URLs recorded under key, in discovery order.
func (r *Report) Bucket(key string) []string {
	return r.Pages[key]
}

// Buckets returns the bucket keys in ascending order.
func (r *Report) Buckets() []string {
	keys := make([]string, 0, len(r.Pages))
	for key := range r.Pages {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Counts returns the number of URLs per bucket.
func (r *Report) Counts() map[string]int {
	counts := make(map[string]int, len(r.Pages))
	for key, urls := range r.Pages {
		counts[key] = len(urls)
	}
	return counts
}

// Total is the number of URLs across all buckets.
func (r *Report) Total() int {
	total := 0
	for _, urls := range r.Pages {
		total += len(urls)
	}
	return total
}

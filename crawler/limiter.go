package crawler

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// HostLimiter caps the request rate per host across every crawl sharing it.
// A nil *HostLimiter never blocks.
type HostLimiter struct {
	perSecond float64
	burst     int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewHostLimiter returns nil when requestsPerSecond is not positive.
func NewHostLimiter(requestsPerSecond float64, burst int) *HostLimiter {
	if requestsPerSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &HostLimiter{
		perSecond: requestsPerSecond,
		burst:     burst,
		limiters:  make(map[string]*rate.Limiter),
	}
}

// Wait blocks until the host may receive another request.
func (h *HostLimiter) Wait(ctx context.Context, host string) error {
	if h == nil || host == "" {
		return nil
	}
	return h.limiterFor(strings.ToLower(host)).Wait(ctx)
}

func (h *HostLimiter) limiterFor(host string) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()
	limiter, ok := h.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(h.perSecond), h.burst)
		h.limiters[host] = limiter
	}
	return limiter
}

package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/noesis-ai/noesis/internal/cache"
	"github.com/noesis-ai/noesis/internal/util"
	"github.com/noesis-ai/noesis/internal/worker"
)

// ErrRobotsDisallowed marks URLs the target site asked us not to fetch.
var ErrRobotsDisallowed = fmt.Errorf("disallowed by robots.txt")

// Fetcher retrieves document pages politely: per-host rate limiting,
// robots.txt compliance, and a layered fetch cache.
type Fetcher struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
	robots    *util.RobotsChecker
	limiter   *worker.HostLimiter
	cache     cache.Cache
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// FetcherOptions configures a Fetcher. Cache may be nil to fetch
// uncached; Robots may be nil to skip robots.txt checks.
type FetcherOptions struct {
	Timeout   time.Duration
	UserAgent string
	MaxBytes  int64
	Robots    *util.RobotsChecker
	Limiter   *worker.HostLimiter
	Cache     cache.Cache
	CacheTTL  time.Duration
	Logger    *zap.Logger
}

// NewFetcher creates a polite page fetcher.
func NewFetcher(opts FetcherOptions) *Fetcher {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: opts.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: opts.UserAgent,
		maxBytes:  opts.MaxBytes,
		robots:    opts.Robots,
		limiter:   opts.Limiter,
		cache:     opts.Cache,
		cacheTTL:  opts.CacheTTL,
		logger:    log,
	}
}

// Fetch retrieves the raw body of rawURL, honoring robots.txt and the
// per-host rate limit. Cache hits skip the network entirely.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	key := cache.Key("fetch", rawURL)
	if f.cache != nil {
		if body, ok := f.cache.Get(key); ok {
			f.logger.Debug("fetch cache hit", zap.String("url", rawURL))
			return body, nil
		}
	}

	if f.robots != nil {
		allowed, delay, err := f.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, fmt.Errorf("%s: %w", rawURL, ErrRobotsDisallowed)
		}
		if delay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, rawURL); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if f.cache != nil {
		if err := f.cache.Set(key, body, f.cacheTTL); err != nil {
			f.logger.Warn("fetch cache write failed", zap.String("url", rawURL), zap.Error(err))
		}
	}
	return body, nil
}

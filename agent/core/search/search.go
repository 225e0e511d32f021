// Package search provides pluggable web search providers (Brave, Google
// Custom Search, Bing) behind a common interface. Results are provider-native
// listings; interpretation is left to the downstream pipeline stages.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/procura-labs/procura/agent/cache"
)

// Result is a single web search listing.
type Result struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Source      string `json:"source"`
}

// Provider is the search provider interface.
type Provider interface {
	// Search runs the query and returns up to count results.
	Search(ctx context.Context, query string, count int) ([]Result, error)

	// Name returns the provider identifier (brave, google, bing).
	Name() string
}

// CacheObserver receives cache hit/miss notifications from the query cache.
// *metrics.Exporter satisfies it.
type CacheObserver interface {
	RecordCacheHit(cacheType string)
	RecordCacheMiss(cacheType string)
}

// Config represents search provider configuration.
type Config struct {
	Provider string // brave, google, bing
	APIKey   string
	EngineID string // Google Custom Search engine id (cx); unused elsewhere
	RPS      int    // Max requests per second (default: 1)

	// Cache settings for repeated queries within a session.
	CacheSize     int           // default: 256 queries
	CacheTTL      time.Duration // default: 10 minutes
	CacheObserver CacheObserver // optional
}

// NewProvider creates a search provider by name, wrapped with rate limiting
// and a query-result cache.
func NewProvider(cfg *Config) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("search provider %q requires an API key", cfg.Provider)
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}

	var p Provider
	switch cfg.Provider {
	case "brave":
		p = &braveClient{apiKey: cfg.APIKey, httpClient: httpClient}
	case "google":
		if cfg.EngineID == "" {
			return nil, fmt.Errorf("google search requires an engine id (cx)")
		}
		p = &googleClient{apiKey: cfg.APIKey, engineID: cfg.EngineID, httpClient: httpClient}
	case "bing":
		p = &bingClient{apiKey: cfg.APIKey, httpClient: httpClient}
	default:
		return nil, fmt.Errorf("unknown search provider: %q", cfg.Provider)
	}

	rps := cfg.RPS
	if rps <= 0 {
		rps = 1
	}
	cacheSize := cfg.CacheSize
	if cacheSize <= 0 {
		cacheSize = 256
	}
	cacheTTL := cfg.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}

	return &cachedProvider{
		inner: &throttledProvider{
			inner:   p,
			limiter: rate.NewLimiter(rate.Limit(rps), rps),
		},
		cache:    cache.NewLRU[string, []Result](cacheSize, cacheTTL),
		observer: cfg.CacheObserver,
	}, nil
}

// throttledProvider applies a token-bucket rate limit before each call so
// query fan-out does not trip provider quotas.
type throttledProvider struct {
	inner   Provider
	limiter *rate.Limiter
}

func (t *throttledProvider) Name() string { return t.inner.Name() }

func (t *throttledProvider) Search(ctx context.Context, query string, count int) ([]Result, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("search rate limit wait: %w", err)
	}
	return t.inner.Search(ctx, query, count)
}

// cachedProvider memoizes query results for the cache TTL.
type cachedProvider struct {
	inner    Provider
	cache    *cache.LRU[string, []Result]
	observer CacheObserver
}

func (c *cachedProvider) Name() string { return c.inner.Name() }

func (c *cachedProvider) Search(ctx context.Context, query string, count int) ([]Result, error) {
	key := fmt.Sprintf("%s|%d|%s", c.inner.Name(), count, query)
	if results, ok := c.cache.Get(key); ok {
		slog.Debug("search: cache hit", "provider", c.inner.Name(), "query", query)
		if c.observer != nil {
			c.observer.RecordCacheHit("search")
		}
		return results, nil
	}
	if c.observer != nil {
		c.observer.RecordCacheMiss("search")
	}

	results, err := c.inner.Search(ctx, query, count)
	if err != nil {
		return nil, err
	}

	c.cache.SetWithDefaultTTL(key, results)
	return results, nil
}

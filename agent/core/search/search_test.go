package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/procura-labs/procura/agent/cache"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr bool
	}{
		{
			name:    "brave",
			cfg:     &Config{Provider: "brave", APIKey: "k"},
			wantErr: false,
		},
		{
			name:    "bing",
			cfg:     &Config{Provider: "bing", APIKey: "k"},
			wantErr: false,
		},
		{
			name:    "google with engine id",
			cfg:     &Config{Provider: "google", APIKey: "k", EngineID: "cx"},
			wantErr: false,
		},
		{
			name:    "google without engine id",
			cfg:     &Config{Provider: "google", APIKey: "k"},
			wantErr: true,
		},
		{
			name:    "missing api key",
			cfg:     &Config{Provider: "brave"},
			wantErr: true,
		},
		{
			name:    "unknown provider",
			cfg:     &Config{Provider: "altavista", APIKey: "k"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, p)
		})
	}
}

func TestBraveClient_ParsesResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-Subscription-Token"))
		assert.Equal(t, "standing desk", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"web": {"results": [
				{"title": "Standing Desk X1", "url": "https://shop.example.com/desk-x1", "description": "Desk for $499.00"},
				{"title": "Desks on sale", "url": "https://shop.example.com/desks", "description": "All desks"}
			]}
		}`))
	}))
	defer srv.Close()

	// Point the client at the test server by swapping its transport.
	client := &braveClient{
		apiKey: "test-key",
		httpClient: &http.Client{
			Transport: rewriteTransport{target: srv.URL},
		},
	}

	results, err := client.Search(context.Background(), "standing desk", 5)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Standing Desk X1", results[0].Title)
	assert.Equal(t, "shop.example.com", results[0].Source)
}

func TestBraveClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := &braveClient{
		apiKey:     "test-key",
		httpClient: &http.Client{Transport: rewriteTransport{target: srv.URL}},
	}

	_, err := client.Search(context.Background(), "anything", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestCachedProvider_AvoidsSecondCall(t *testing.T) {
	var calls atomic.Int32
	fake := &fakeProvider{
		results: []Result{{Title: "cached", URL: "https://x"}},
		calls:   &calls,
	}

	p := &cachedProvider{
		inner: fake,
		cache: cache.NewLRU[string, []Result](16, time.Minute),
	}

	first, err := p.Search(context.Background(), "laptop", 5)
	require.NoError(t, err)
	second, err := p.Search(context.Background(), "laptop", 5)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), calls.Load(), "second lookup should be served from cache")
}

func TestCachedProvider_ReportsHitsAndMisses(t *testing.T) {
	observer := &countingObserver{}
	p := &cachedProvider{
		inner:    &fakeProvider{results: []Result{{Title: "cached", URL: "https://x"}}},
		cache:    cache.NewLRU[string, []Result](16, time.Minute),
		observer: observer,
	}

	_, err := p.Search(context.Background(), "laptop", 5)
	require.NoError(t, err)
	_, err = p.Search(context.Background(), "laptop", 5)
	require.NoError(t, err)
	_, err = p.Search(context.Background(), "monitor", 5)
	require.NoError(t, err)

	assert.Equal(t, 1, observer.hits, "repeated query should count one hit")
	assert.Equal(t, 2, observer.misses, "each distinct query misses once")
}

func TestNewProvider_WiresCacheObserver(t *testing.T) {
	observer := &countingObserver{}
	p, err := NewProvider(&Config{Provider: "brave", APIKey: "k", CacheObserver: observer})
	require.NoError(t, err)

	cached, ok := p.(*cachedProvider)
	require.True(t, ok)
	assert.Same(t, observer, cached.observer)
}

func TestThrottledProvider_RespectsContext(t *testing.T) {
	fake := &fakeProvider{}
	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	limiter.Allow() // drain the initial burst token
	p := &throttledProvider{inner: fake, limiter: limiter}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.Search(ctx, "anything", 5)
	assert.Error(t, err, "blocked limiter should surface the context error")
}

type countingObserver struct {
	hits   int
	misses int
}

func (o *countingObserver) RecordCacheHit(string)  { o.hits++ }
func (o *countingObserver) RecordCacheMiss(string) { o.misses++ }

type fakeProvider struct {
	results []Result
	calls   *atomic.Int32
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Search(_ context.Context, _ string, _ int) ([]Result, error) {
	if f.calls != nil {
		f.calls.Add(1)
	}
	return f.results, nil
}

// rewriteTransport redirects every request to the test server.
type rewriteTransport struct {
	target string
}

func (rt rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	u := req.URL
	u.Scheme = "http"
	u.Host = rt.target[len("http://"):]
	return http.DefaultTransport.RoundTrip(req)
}

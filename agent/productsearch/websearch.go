package productsearch

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/procura-labs/procura/agent/core/search"
)

// webSearcher fans the generated queries out to the search provider and
// collects the raw listings. Fan-out stays inside this stage; the pipeline
// around it remains strictly sequential.
type webSearcher struct {
	provider       search.Provider
	resultsPer     int
	maxConcurrency int
}

func newWebSearcher(provider search.Provider, resultsPerQuery int) *webSearcher {
	if resultsPerQuery <= 0 {
		resultsPerQuery = 5
	}
	return &webSearcher{
		provider:       provider,
		resultsPer:     resultsPerQuery,
		maxConcurrency: 3,
	}
}

// searchAll runs every query and returns the concatenated results in query
// order. A single failed query is logged and skipped; the stage only fails
// when every query fails.
func (w *webSearcher) searchAll(ctx context.Context, queries []string) ([]search.Result, error) {
	perQuery := make([][]search.Result, len(queries))

	var mu sync.Mutex
	var lastErr error
	failures := 0

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(w.maxConcurrency)

	for i, query := range queries {
		i, query := i, query
		g.Go(func() error {
			results, err := w.provider.Search(ctx, query, w.resultsPer)
			if err != nil {
				slog.Warn("productsearch: query failed", "query", query, "error", err)
				mu.Lock()
				failures++
				lastErr = err
				mu.Unlock()
				return nil
			}
			perQuery[i] = results
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if failures == len(queries) && lastErr != nil {
		return nil, lastErr
	}

	var all []search.Result
	seen := make(map[string]bool)
	for _, results := range perQuery {
		for _, r := range results {
			if r.URL == "" || seen[r.URL] {
				continue
			}
			seen[r.URL] = true
			all = append(all, r)
		}
	}

	slog.Debug("productsearch: web search complete",
		"queries", len(queries), "results", len(all), "failed_queries", failures)

	return all, nil
}

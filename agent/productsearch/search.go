// Package productsearch is the search stage of the procurement pipeline:
// query generation, multi-query web search, information extraction, listing
// page enrichment, filtering/ranking, and price estimation.
package productsearch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/procura-labs/procura/agent"
	"github.com/procura-labs/procura/agent/core/llm"
	"github.com/procura-labs/procura/agent/core/search"
)

// Options tunes the search stage.
type Options struct {
	NumQueries      int  // LLM-generated queries per request (default: 5)
	ResultsPerQuery int  // listings fetched per query (default: 5)
	TopK            int  // candidates returned (default: 5)
	UseLLMExtract   bool // LLM pass per listing instead of regex rules
	UseLLMRank      bool // LLM relevance scoring instead of the rule rubric
	EnrichPages     bool // fetch listing pages for missing prices
}

// Searcher runs the product search stage end to end.
type Searcher struct {
	queryGen  *QueryGenerator
	web       *webSearcher
	extract   *extractor
	rank      *ranker
	enrich    *enricher
	estimator *priceEstimator
	topK      int
}

// NewSearcher wires the search stage from its providers.
func NewSearcher(llmService llm.Service, provider search.Provider, opts Options) *Searcher {
	topK := opts.TopK
	if topK <= 0 {
		topK = 5
	}
	s := &Searcher{
		queryGen:  NewQueryGenerator(llmService, opts.NumQueries),
		web:       newWebSearcher(provider, opts.ResultsPerQuery),
		extract:   newExtractor(llmService, opts.UseLLMExtract),
		rank:      newRanker(llmService, opts.UseLLMRank),
		estimator: newPriceEstimator(llmService),
		topK:      topK,
	}
	if opts.EnrichPages {
		s.enrich = newEnricher(0)
	}
	return s
}

// Search returns the top candidates for the request, ranked by relevance.
func (s *Searcher) Search(ctx context.Context, req *agent.Request) ([]agent.Candidate, error) {
	startTime := time.Now()

	queries := s.queryGen.Generate(ctx, req)
	slog.Info("productsearch: queries generated", "count", len(queries))

	results, err := s.web.searchAll(ctx, queries)
	if err != nil {
		return nil, fmt.Errorf("web search failed: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	candidates := s.extract.extractAll(ctx, results)

	if s.enrichEnabled() {
		candidates = s.enrich.enrich(ctx, candidates)
	}

	ranked := s.rank.rank(ctx, candidates, req)
	ranked = s.estimator.estimateMissing(ctx, ranked, req)

	if len(ranked) > s.topK {
		ranked = ranked[:s.topK]
	}

	slog.Info("productsearch: search complete",
		"raw_results", len(results),
		"candidates", len(ranked),
		"duration_ms", time.Since(startTime).Milliseconds())

	return ranked, nil
}

func (s *Searcher) enrichEnabled() bool {
	return s.enrich != nil && s.enrich.maxPages > 0
}

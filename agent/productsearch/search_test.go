package productsearch

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procura-labs/procura/agent"
	"github.com/procura-labs/procura/agent/core/llm"
	"github.com/procura-labs/procura/agent/core/search"
)

// mockLLM is a test double for llm.Service with separate text and JSON
// responses.
type mockLLM struct {
	textResponse string
	jsonResponse string
	err          error
}

func (m *mockLLM) Chat(_ context.Context, _ []llm.Message) (string, *llm.CallStats, error) {
	return m.textResponse, &llm.CallStats{TotalTokens: 10}, m.err
}

func (m *mockLLM) ChatJSON(_ context.Context, _ []llm.Message) (string, *llm.CallStats, error) {
	return m.jsonResponse, &llm.CallStats{TotalTokens: 10}, m.err
}

func (m *mockLLM) Warmup(_ context.Context) {}

// fakeSearch is a test double for search.Provider keyed by query.
type fakeSearch struct {
	results map[string][]search.Result
	errs    map[string]error
	calls   atomic.Int64
}

func (f *fakeSearch) Search(_ context.Context, query string, _ int) ([]search.Result, error) {
	f.calls.Add(1)
	if err, ok := f.errs[query]; ok {
		return nil, err
	}
	return f.results[query], nil
}

func (f *fakeSearch) Name() string { return "fake" }

func TestSearcher_Search(t *testing.T) {
	mock := &mockLLM{
		jsonResponse: `{"queries": ["q1", "q2"]}`,
		textResponse: "$1,450.00",
	}
	provider := &fakeSearch{
		results: map[string][]search.Result{
			"q1": {
				{
					Title:       "Dell XPS 15 Laptop 9530",
					URL:         "https://www.techbay.com.au/product/xps-15",
					Description: "Dell laptop, $1,899.00, ships in 2-4 days",
					Source:      "www.techbay.com.au",
				},
				{
					Title:       "ThinkPad X1 Carbon Gen 11 Laptop",
					URL:         "https://www.techbay.com.au/product/x1c",
					Description: "Business laptop from Lenovo",
					Source:      "www.techbay.com.au",
				},
			},
			"q2": {
				// Duplicate of the first listing; must be dropped.
				{
					Title:       "Dell XPS 15 Laptop 9530",
					URL:         "https://www.techbay.com.au/product/xps-15",
					Description: "Dell laptop, $1,899.00",
					Source:      "www.techbay.com.au",
				},
			},
		},
	}

	searcher := NewSearcher(mock, provider, Options{TopK: 5})
	req := &agent.Request{ProductType: "laptop", Quantity: 1, Budget: "under $2,000"}

	candidates, err := searcher.Search(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	assert.Equal(t, "Dell XPS 15 Laptop 9530", candidates[0].Name)
	assert.Equal(t, "$1,899.00", candidates[0].Price)
	assert.False(t, candidates[0].PriceEstimated)

	// The second candidate had no listed price; the estimator filled it in.
	assert.Equal(t, "ThinkPad X1 Carbon Gen 11 Laptop", candidates[1].Name)
	assert.Equal(t, "$1,450.00", candidates[1].Price)
	assert.True(t, candidates[1].PriceEstimated)
}

func TestSearcher_Search_NoResults(t *testing.T) {
	mock := &mockLLM{jsonResponse: `{"queries": ["q1"]}`}
	provider := &fakeSearch{results: map[string][]search.Result{}}

	searcher := NewSearcher(mock, provider, Options{})
	candidates, err := searcher.Search(context.Background(), &agent.Request{ProductType: "laptop"})
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestSearcher_Search_TopKTruncation(t *testing.T) {
	results := make([]search.Result, 8)
	for i := range results {
		results[i] = search.Result{
			Title:       "Dell Latitude 5540 Laptop",
			URL:         "https://www.techbay.com.au/product/latitude-" + string(rune('a'+i)),
			Description: "Dell laptop, $1,200.00",
			Source:      "www.techbay.com.au",
		}
	}
	mock := &mockLLM{jsonResponse: `{"queries": ["q1"]}`}
	provider := &fakeSearch{results: map[string][]search.Result{"q1": results}}

	searcher := NewSearcher(mock, provider, Options{TopK: 3})
	candidates, err := searcher.Search(context.Background(), &agent.Request{ProductType: "laptop", Budget: "$1,500"})
	require.NoError(t, err)
	assert.Len(t, candidates, 3)
}

func TestWebSearcher_PartialFailure(t *testing.T) {
	provider := &fakeSearch{
		results: map[string][]search.Result{
			"good": {{Title: "Item", URL: "https://a.example/1"}},
		},
		errs: map[string]error{"bad": errors.New("rate limited")},
	}

	w := newWebSearcher(provider, 5)
	results, err := w.searchAll(context.Background(), []string{"good", "bad"})
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.EqualValues(t, 2, provider.calls.Load())
}

func TestWebSearcher_AllQueriesFail(t *testing.T) {
	provider := &fakeSearch{
		errs: map[string]error{
			"a": errors.New("boom"),
			"b": errors.New("boom"),
		},
	}

	w := newWebSearcher(provider, 5)
	_, err := w.searchAll(context.Background(), []string{"a", "b"})
	require.Error(t, err)
}

func TestQueryGenerator_Fallback(t *testing.T) {
	req := &agent.Request{
		ProductType:         "standing desk",
		Budget:              "under $800",
		SpecialRequirements: []string{"electric"},
		Location:            "Melbourne",
	}

	t.Run("provider error", func(t *testing.T) {
		g := NewQueryGenerator(&mockLLM{err: assert.AnError}, 5)
		queries := g.Generate(context.Background(), req)
		require.Len(t, queries, 1)
		assert.Equal(t, "standing desk budget under $800 electric Melbourne", queries[0])
	})

	t.Run("unparseable response", func(t *testing.T) {
		g := NewQueryGenerator(&mockLLM{jsonResponse: "no json here"}, 5)
		queries := g.Generate(context.Background(), req)
		require.Len(t, queries, 1)
	})

	t.Run("caps at numQueries", func(t *testing.T) {
		g := NewQueryGenerator(&mockLLM{jsonResponse: `{"queries": ["a", "b", "c", "d"]}`}, 2)
		queries := g.Generate(context.Background(), req)
		assert.Equal(t, []string{"a", "b"}, queries)
	})
}

func TestPriceEstimator(t *testing.T) {
	req := &agent.Request{ProductType: "laptop", Budget: "$2,000"}

	t.Run("fills missing prices only", func(t *testing.T) {
		p := newPriceEstimator(&mockLLM{textResponse: "Around $1,250.00 at retail."})
		out := p.estimateMissing(context.Background(), []agent.Candidate{
			{Name: "a", Price: "$999.00"},
			{Name: "b", Price: PriceNotSpecified},
		}, req)

		assert.Equal(t, "$999.00", out[0].Price)
		assert.False(t, out[0].PriceEstimated)
		assert.Equal(t, "$1,250.00", out[1].Price)
		assert.True(t, out[1].PriceEstimated)
	})

	t.Run("provider error marks unavailable", func(t *testing.T) {
		p := newPriceEstimator(&mockLLM{err: assert.AnError})
		out := p.estimateMissing(context.Background(), []agent.Candidate{
			{Name: "b", Price: PriceNotSpecified},
		}, req)
		assert.Equal(t, PriceNotAvailable, out[0].Price)
		assert.False(t, out[0].PriceEstimated)
	})

	t.Run("no amount in response marks unavailable", func(t *testing.T) {
		p := newPriceEstimator(&mockLLM{textResponse: "hard to say"})
		out := p.estimateMissing(context.Background(), []agent.Candidate{
			{Name: "b", Price: PriceNotSpecified},
		}, req)
		assert.Equal(t, PriceNotAvailable, out[0].Price)
	})
}

package productsearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/procura-labs/procura/agent"
)

func TestEnricher(t *testing.T) {
	const page = `<html><head>
		<meta property="og:title" content="Dell XPS 15 9530 Laptop">
		<meta property="product:price:amount" content="1899.00">
	</head><body></body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
	}))
	defer server.Close()

	e := newEnricher(5)
	candidates := []agent.Candidate{
		{Name: "dell xps search snippet", URL: server.URL, Price: PriceNotSpecified},
		{Name: "already priced", URL: server.URL, Price: "$500.00"},
	}

	out := e.enrich(context.Background(), candidates)
	assert.Equal(t, "Dell XPS 15 9530 Laptop", out[0].Name)
	assert.Equal(t, "$1899.00", out[0].Price)

	// Priced candidates are never fetched.
	assert.Equal(t, "already priced", out[1].Name)
	assert.Equal(t, "$500.00", out[1].Price)
}

func TestEnricher_PriceElementScan(t *testing.T) {
	const page = `<html><body>
		<div class="product-price">Now $749.99</div>
	</body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(page))
	}))
	defer server.Close()

	e := newEnricher(5)
	out := e.enrich(context.Background(), []agent.Candidate{
		{Name: "item", URL: server.URL, Price: PriceNotSpecified},
	})
	assert.Equal(t, "$749.99", out[0].Price)
}

func TestEnricher_FetchFailureLeavesCandidate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	e := newEnricher(5)
	out := e.enrich(context.Background(), []agent.Candidate{
		{Name: "item", URL: server.URL, Price: PriceNotSpecified},
	})
	assert.Equal(t, PriceNotSpecified, out[0].Price)
}

func TestEnricher_MaxPages(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	e := newEnricher(2)
	candidates := make([]agent.Candidate, 4)
	for i := range candidates {
		candidates[i] = agent.Candidate{Name: "item", URL: server.URL, Price: PriceNotSpecified}
	}
	e.enrich(context.Background(), candidates)
	assert.Equal(t, 2, hits)
}

package productsearch

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/procura-labs/procura/agent"
)

// enricher fetches candidate listing pages and fills in details the search
// snippet did not carry: a cleaner product title and an on-page price.
// Enrichment is best-effort; any fetch or parse failure leaves the
// candidate as-is.
type enricher struct {
	httpClient *http.Client
	maxPages   int
}

func newEnricher(maxPages int) *enricher {
	if maxPages <= 0 {
		maxPages = 5
	}
	return &enricher{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		maxPages:   maxPages,
	}
}

func (e *enricher) enrich(ctx context.Context, candidates []agent.Candidate) []agent.Candidate {
	fetched := 0
	for i := range candidates {
		if fetched >= e.maxPages {
			break
		}
		if candidates[i].Price != PriceNotSpecified {
			continue
		}
		fetched++
		e.enrichOne(ctx, &candidates[i])
	}
	return candidates
}

func (e *enricher) enrichOne(ctx context.Context, c *agent.Candidate) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; procura/1.0)")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		slog.Debug("productsearch: enrichment fetch failed", "url", c.URL, "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return
	}
	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "text/html") {
		return
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		slog.Debug("productsearch: enrichment parse failed", "url", c.URL, "error", err)
		return
	}

	// og:title tends to be the clean product name on commerce pages.
	if title, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && title != "" {
		c.Name = title
	}

	// Common price metadata, then a scan of obvious price elements.
	if amount, ok := doc.Find(`meta[property="product:price:amount"]`).Attr("content"); ok && amount != "" {
		c.Price = "$" + strings.TrimPrefix(amount, "$")
		return
	}
	if amount, ok := doc.Find(`meta[itemprop="price"]`).Attr("content"); ok && amount != "" {
		c.Price = "$" + strings.TrimPrefix(amount, "$")
		return
	}

	doc.Find(`[class*="price"], [id*="price"], [itemprop="price"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if price := ExtractPrice(s.Text()); price != PriceNotSpecified {
			c.Price = price
			return false
		}
		return true
	})
}

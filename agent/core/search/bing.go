package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

const bingEndpoint = "https://api.bing.microsoft.com/v7.0/search"

// bingClient talks to the Bing Web Search API.
type bingClient struct {
	apiKey     string
	httpClient *http.Client
}

type bingResponse struct {
	WebPages struct {
		Value []struct {
			Name    string `json:"name"`
			URL     string `json:"url"`
			Snippet string `json:"snippet"`
		} `json:"value"`
	} `json:"webPages"`
}

func (b *bingClient) Name() string { return "bing" }

func (b *bingClient) Search(ctx context.Context, query string, count int) ([]Result, error) {
	if count <= 0 {
		count = 5
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(count))
	params.Set("safeSearch", "Moderate")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, bingEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build bing request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", b.apiKey)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bing search request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read bing response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bing search returned status %d: %s", resp.StatusCode, body)
	}

	var parsed bingResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode bing response: %w", err)
	}

	results := make([]Result, 0, len(parsed.WebPages.Value))
	for _, page := range parsed.WebPages.Value {
		results = append(results, Result{
			Title:       page.Name,
			URL:         page.URL,
			Description: page.Snippet,
			Source:      hostOf(page.URL),
		})
	}
	return results, nil
}

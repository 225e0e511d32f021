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

const braveEndpoint = "https://api.search.brave.com/res/v1/web/search"

// braveClient talks to the Brave Search API.
type braveClient struct {
	apiKey     string
	httpClient *http.Client
}

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
			Profile     struct {
				Name string `json:"name"`
			} `json:"profile"`
		} `json:"results"`
	} `json:"web"`
}

func (b *braveClient) Name() string { return "brave" }

func (b *braveClient) Search(ctx context.Context, query string, count int) ([]Result, error) {
	if count <= 0 {
		count = 5
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(count))
	params.Set("search_lang", "en")
	params.Set("safesearch", "moderate")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, braveEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build brave request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", b.apiKey)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("brave search request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read brave response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("brave search returned status %d: %s", resp.StatusCode, body)
	}

	var parsed braveResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode brave response: %w", err)
	}

	results := make([]Result, 0, len(parsed.Web.Results))
	for _, r := range parsed.Web.Results {
		source := r.Profile.Name
		if source == "" {
			source = hostOf(r.URL)
		}
		results = append(results, Result{
			Title:       r.Title,
			URL:         r.URL,
			Description: r.Description,
			Source:      source,
		})
	}
	return results, nil
}

// hostOf extracts the hostname from a URL for use as a result source label.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

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

const googleEndpoint = "https://www.googleapis.com/customsearch/v1"

// googleClient talks to the Google Custom Search JSON API.
type googleClient struct {
	apiKey     string
	engineID   string
	httpClient *http.Client
}

type googleResponse struct {
	Items []struct {
		Title       string `json:"title"`
		Link        string `json:"link"`
		Snippet     string `json:"snippet"`
		DisplayLink string `json:"displayLink"`
	} `json:"items"`
}

func (g *googleClient) Name() string { return "google" }

func (g *googleClient) Search(ctx context.Context, query string, count int) ([]Result, error) {
	if count <= 0 {
		count = 5
	}
	// The API caps num at 10 per request.
	if count > 10 {
		count = 10
	}

	params := url.Values{}
	params.Set("key", g.apiKey)
	params.Set("cx", g.engineID)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(count))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build google request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google search request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read google response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google search returned status %d: %s", resp.StatusCode, body)
	}

	var parsed googleResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode google response: %w", err)
	}

	results := make([]Result, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		results = append(results, Result{
			Title:       item.Title,
			URL:         item.Link,
			Description: item.Snippet,
			Source:      item.DisplayLink,
		})
	}
	return results, nil
}

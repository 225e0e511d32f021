package productsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/procura-labs/procura/agent"
	"github.com/procura-labs/procura/agent/core/llm"
)

const queryGenSystemPrompt = `You are an expert in generating precise e-commerce search queries.
Your goal is to create queries that will find specific products for purchase.`

const queryGenPromptTemplate = `Generate %d precise search queries for finding products on e-commerce websites.

Requirements:
- Product Type: %s
- Budget: %s
- Location: %s
- Special Requirements: %v

Guidelines:
1. Include specific product names, models, and brands
2. Use the site: operator to target marketplaces relevant to the product type
3. Include the price range when a budget is specified
4. Add location-specific terms when a location is given
5. Include special requirement keywords
6. Focus on finding actual product listings, not category pages

Return a JSON object with the following structure:
{
    "queries": ["query 1", "query 2"]
}`

// QueryGenerator produces search queries from the extracted requirements.
type QueryGenerator struct {
	llm        llm.Service
	numQueries int
}

// NewQueryGenerator creates a query generator. numQueries <= 0 defaults to 5.
func NewQueryGenerator(llmService llm.Service, numQueries int) *QueryGenerator {
	if numQueries <= 0 {
		numQueries = 5
	}
	return &QueryGenerator{llm: llmService, numQueries: numQueries}
}

// Generate returns search queries for the request. The fallback on provider
// or parse failure is a single query concatenating the request fields, so
// the search stage always has something to run.
func (g *QueryGenerator) Generate(ctx context.Context, req *agent.Request) []string {
	prompt := fmt.Sprintf(queryGenPromptTemplate,
		g.numQueries, req.ProductType, req.Budget, req.Location, req.SpecialRequirements)

	response, _, err := g.llm.ChatJSON(ctx, llm.FormatMessages(queryGenSystemPrompt, prompt, nil))
	if err != nil {
		slog.Warn("productsearch: query generation failed, using fallback query", "error", err)
		return []string{fallbackQuery(req)}
	}

	var parsed struct {
		Queries []string `json:"queries"`
	}
	if err := json.Unmarshal([]byte(agent.CleanJSON(response)), &parsed); err != nil || len(parsed.Queries) == 0 {
		slog.Warn("productsearch: unparseable query response, using fallback query", "error", err)
		return []string{fallbackQuery(req)}
	}

	if len(parsed.Queries) > g.numQueries {
		parsed.Queries = parsed.Queries[:g.numQueries]
	}
	return parsed.Queries
}

// fallbackQuery builds a plain keyword query from the request fields.
func fallbackQuery(req *agent.Request) string {
	parts := []string{req.ProductType}
	if req.Budget != "" {
		parts = append(parts, "budget "+req.Budget)
	}
	parts = append(parts, req.SpecialRequirements...)
	if req.Location != "" {
		parts = append(parts, req.Location)
	}

	var nonEmpty []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}

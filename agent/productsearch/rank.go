package productsearch

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/procura-labs/procura/agent"
	"github.com/procura-labs/procura/agent/core/llm"
)

// minRelevanceScore is the cut below which a candidate is dropped.
const minRelevanceScore = 0.3

var productIndicators = []string{
	"product", "item", "sku", "p-", "prod-", "model-", "variant-",
	"model", "variant", "version", "edition", "series", "generation",
}

var categoryIndicators = []string{
	"category", "collection", "list", "search", "results", "shop", "store", "browse",
	"all-", "products-", "items-",
}

var modelNumberPattern = regexp.MustCompile(`[A-Z0-9]{4,}`)

const scoreSystemPrompt = `You are an expert product evaluator. Return only a relevance score between 0.0 and 1.0.`

const scorePromptTemplate = `Evaluate this product based on the requirements and return only a relevance score (0.0 to 1.0).

Requirements:
- Product Type: %s
- Budget: %s
- Location: %s
- Special Requirements: %v

Product:
- Name: %s
- Price: %s
- URL: %s
- Description: %s

Evaluation Criteria:
1. Must be a specific product page (not category/list)
2. Must match product type and brand
3. Price should be within ±20%% of budget
4. Location availability
5. Special requirements match

Return ONLY a number between 0.0 and 1.0 representing the relevance score.`

// ranker filters and orders candidates by relevance to the requirements.
type ranker struct {
	llm    llm.Service
	useLLM bool
}

func newRanker(llmService llm.Service, useLLM bool) *ranker {
	return &ranker{llm: llmService, useLLM: useLLM}
}

func (r *ranker) rank(ctx context.Context, candidates []agent.Candidate, req *agent.Request) []agent.Candidate {
	if len(candidates) == 0 {
		return nil
	}
	if r.useLLM {
		if ranked := r.rankWithLLM(ctx, candidates, req); ranked != nil {
			return ranked
		}
		slog.Warn("productsearch: LLM ranking produced nothing usable, falling back to rules")
	}
	return rankWithRules(candidates, req)
}

// rankWithLLM scores each candidate with a one-number LLM call.
// Returns nil when no candidate could be scored, signalling fallback.
func (r *ranker) rankWithLLM(ctx context.Context, candidates []agent.Candidate, req *agent.Request) []agent.Candidate {
	var scored []agent.Candidate

	for _, c := range candidates {
		prompt := fmt.Sprintf(scorePromptTemplate,
			req.ProductType, req.Budget, req.Location, req.SpecialRequirements,
			c.Name, c.Price, c.URL, c.Description)

		response, _, err := r.llm.Chat(ctx, llm.FormatMessages(scoreSystemPrompt, prompt, nil))
		if err != nil {
			slog.Warn("productsearch: scoring call failed", "candidate", c.Name, "error", err)
			continue
		}

		score, err := strconv.ParseFloat(strings.TrimSpace(response), 64)
		if err != nil || score < 0 || score > 1 {
			slog.Warn("productsearch: invalid score format", "candidate", c.Name, "response", response)
			continue
		}

		c.RelevanceScore = score
		scored = append(scored, c)
	}

	if len(scored) == 0 {
		return nil
	}

	var kept []agent.Candidate
	for _, c := range scored {
		if c.RelevanceScore >= 0.01 {
			kept = append(kept, c)
		}
	}
	sortByScore(kept)
	return kept
}

// rankWithRules applies the same rubric the LLM path is prompted with:
// specific-product page, type/brand match, price within ±20% of budget,
// location and special requirement hits.
func rankWithRules(candidates []agent.Candidate, req *agent.Request) []agent.Candidate {
	var kept []agent.Candidate

	for _, c := range candidates {
		isSpecific := isSpecificProductPage(c)
		relevant := matchesRequirements(c, req)
		priceOK := priceWithinBudget(c.Price, req.Budget)
		locationOK := req.Location == "" ||
			strings.Contains(strings.ToLower(c.Description), strings.ToLower(req.Location))
		reqsOK := specialRequirementsMatch(c, req.SpecialRequirements)

		score := 0.0
		if isSpecific {
			score += 0.3
		}
		if relevant {
			score += 0.3
		}
		if priceOK {
			score += 0.2
		}
		if locationOK {
			score += 0.1
		}
		if reqsOK {
			score += 0.1
		}

		c.RelevanceScore = score
		c.RecommendationReason = rankingReason(isSpecific, relevant, priceOK, locationOK, reqsOK)

		if isSpecific && relevant && score >= minRelevanceScore {
			kept = append(kept, c)
		}
	}

	sortByScore(kept)
	return kept
}

func sortByScore(candidates []agent.Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].RelevanceScore > candidates[j].RelevanceScore
	})
}

// isSpecificProductPage distinguishes product listings from category pages.
func isSpecificProductPage(c agent.Candidate) bool {
	url := strings.ToLower(c.URL)
	name := strings.ToLower(c.Name)
	description := strings.ToLower(c.Description)

	for _, indicator := range categoryIndicators {
		if strings.Contains(url, indicator) || strings.Contains(name, indicator) ||
			strings.Contains(description, indicator) {
			return false
		}
	}

	hasProductID := false
	for _, indicator := range productIndicators {
		if strings.Contains(url, indicator) || strings.Contains(name, indicator) {
			hasProductID = true
			break
		}
	}

	hasModelNumber := modelNumberPattern.MatchString(c.Name)
	hasSpecificDetails := len(strings.Fields(name)) >= 4 && strings.ContainsAny(name, "0123456789")

	return hasProductID || hasModelNumber || hasSpecificDetails
}

func matchesRequirements(c agent.Candidate, req *agent.Request) bool {
	name := strings.ToLower(c.Name)
	description := strings.ToLower(c.Description)
	productType := strings.ToLower(req.ProductType)

	if productType == "" {
		return false
	}
	// Each word of the product type must show up in the listing.
	for _, word := range strings.Fields(productType) {
		if !strings.Contains(name, word) && !strings.Contains(description, word) {
			return false
		}
	}
	return true
}

// priceWithinBudget allows ±20% around the budget ceiling.
func priceWithinBudget(price, budget string) bool {
	if budget == "" || price == PriceNotSpecified {
		return false
	}
	p, errP := agent.ParseAmount(price)
	b, errB := agent.ParseAmount(budget)
	if errP != nil || errB != nil || b == 0 {
		return false
	}
	diff := p - b
	if diff < 0 {
		diff = -diff
	}
	return diff/b <= 0.2 || p <= b
}

func specialRequirementsMatch(c agent.Candidate, reqs []string) bool {
	name := strings.ToLower(c.Name)
	description := strings.ToLower(c.Description)
	for _, r := range reqs {
		r = strings.ToLower(r)
		if !strings.Contains(name, r) && !strings.Contains(description, r) {
			return false
		}
	}
	return true
}

func rankingReason(isSpecific, relevant, priceOK, locationOK, reqsOK bool) string {
	var reasons []string
	if isSpecific {
		reasons = append(reasons, "specific product page")
	}
	if relevant {
		reasons = append(reasons, "matches product requirements")
	}
	if priceOK {
		reasons = append(reasons, "price within budget range")
	}
	if locationOK {
		reasons = append(reasons, "available in specified location")
	}
	if reqsOK {
		reasons = append(reasons, "meets special requirements")
	}
	return strings.Join(reasons, ", ")
}

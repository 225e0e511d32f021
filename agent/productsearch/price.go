package productsearch

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/procura-labs/procura/agent"
	"github.com/procura-labs/procura/agent/core/llm"
)

// PriceNotAvailable marks candidates whose price could not even be estimated.
const PriceNotAvailable = "Price not available"

var priceInResponsePattern = regexp.MustCompile(`\$?\d{1,3}(?:,\d{3})*(?:\.\d{2})?`)

const estimateSystemPrompt = `You are an expert in product pricing. Estimate the market price based on product specifications and current market rates.`

const estimatePromptTemplate = `Estimate the price for this product based on its specifications and market knowledge.

Product:
- Name: %s
- Description: %s

Requirements:
- Product Type: %s
- Budget: %s

Return ONLY the estimated price (e.g., "$999.99").`

// priceEstimator fills in prices for candidates whose listing carried none.
type priceEstimator struct {
	llm llm.Service
}

func newPriceEstimator(llmService llm.Service) *priceEstimator {
	return &priceEstimator{llm: llmService}
}

// estimateMissing asks the LLM for a market price for each unpriced
// candidate. Estimated prices are flagged so downstream consumers can tell
// them from listed ones.
func (p *priceEstimator) estimateMissing(ctx context.Context, candidates []agent.Candidate, req *agent.Request) []agent.Candidate {
	for i := range candidates {
		if candidates[i].Price != PriceNotSpecified {
			continue
		}

		prompt := fmt.Sprintf(estimatePromptTemplate,
			candidates[i].Name, candidates[i].Description, req.ProductType, req.Budget)

		response, _, err := p.llm.Chat(ctx, llm.FormatMessages(estimateSystemPrompt, prompt, nil))
		if err != nil {
			slog.Warn("productsearch: price estimation failed", "candidate", candidates[i].Name, "error", err)
			candidates[i].Price = PriceNotAvailable
			continue
		}

		match := priceInResponsePattern.FindString(response)
		if match == "" {
			candidates[i].Price = PriceNotAvailable
			continue
		}
		if !strings.HasPrefix(match, "$") {
			match = "$" + match
		}
		candidates[i].Price = match
		candidates[i].PriceEstimated = true
	}
	return candidates
}

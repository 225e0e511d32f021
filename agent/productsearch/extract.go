package productsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/procura-labs/procura/agent"
	"github.com/procura-labs/procura/agent/core/llm"
	"github.com/procura-labs/procura/agent/core/search"
)

// PriceNotSpecified marks candidates whose listing carried no price.
const PriceNotSpecified = "Price not specified"

// deliveryNotSpecified marks candidates whose listing carried no delivery info.
const deliveryNotSpecified = "Delivery time not specified"

var pricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)AUD\s*\$?(\d{1,3}(?:,\d{3})*(?:\.\d{2})?)`),
	regexp.MustCompile(`\$(\d{1,3}(?:,\d{3})*(?:\.\d{2})?)`),
	regexp.MustCompile(`(?i)Price:\s*\$?(\d{1,3}(?:,\d{3})*(?:\.\d{2})?)`),
	regexp.MustCompile(`(?i)Cost:\s*\$?(\d{1,3}(?:,\d{3})*(?:\.\d{2})?)`),
	regexp.MustCompile(`(?i)From\s*\$?(\d{1,3}(?:,\d{3})*(?:\.\d{2})?)`),
	regexp.MustCompile(`(?i)Starting at\s*\$?(\d{1,3}(?:,\d{3})*(?:\.\d{2})?)`),
}

var specPatterns = map[string]*regexp.Regexp{
	"brand":      regexp.MustCompile(`(?i)Brand:\s*([^\n]+)`),
	"model":      regexp.MustCompile(`(?i)Model:\s*([^\n]+)`),
	"color":      regexp.MustCompile(`(?i)Color:\s*([^\n]+)`),
	"size":       regexp.MustCompile(`(?i)Size:\s*([^\n]+)`),
	"weight":     regexp.MustCompile(`(?i)Weight:\s*([^\n]+)`),
	"dimensions": regexp.MustCompile(`(?i)Dimensions:\s*([^\n]+)`),
	"warranty":   regexp.MustCompile(`(?i)Warranty:\s*([^\n]+)`),
	"condition":  regexp.MustCompile(`(?i)Condition:\s*([^\n]+)`),
}

var deliveryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`delivery in (\d+-\d+ days?)`),
	regexp.MustCompile(`ships in (\d+-\d+ days?)`),
	regexp.MustCompile(`arrives in (\d+-\d+ days?)`),
	regexp.MustCompile(`express delivery`),
	regexp.MustCompile(`next day delivery`),
	regexp.MustCompile(`free shipping`),
	regexp.MustCompile(`standard delivery`),
	regexp.MustCompile(`priority delivery`),
}

const extractSystemPrompt = `You are an expert in extracting product information from e-commerce listings.
Your goal is to accurately identify and extract product details, prices, specifications, and delivery information.
Only return information that is clearly present in the input text.`

const extractPromptTemplate = `Extract product information from the following search result.

Title: %s
URL: %s
Description: %s
Source: %s

Return a JSON object with the following structure:
{
    "name": "product name",
    "price": "price (e.g., $999.99)",
    "key_specs": {"spec1": "value1"},
    "delivery_time": "delivery time information"
}

If any information is not available, use appropriate default values:
- "Price not specified" for missing price
- Empty object {} for missing specifications
- "Delivery time not specified" for missing delivery time`

// extractor turns raw search listings into product candidates, either with
// regex rules (default) or an LLM pass per listing.
type extractor struct {
	llm    llm.Service
	useLLM bool
}

func newExtractor(llmService llm.Service, useLLM bool) *extractor {
	return &extractor{llm: llmService, useLLM: useLLM}
}

func (e *extractor) extractAll(ctx context.Context, results []search.Result) []agent.Candidate {
	candidates := make([]agent.Candidate, 0, len(results))
	for _, r := range results {
		var c agent.Candidate
		if e.useLLM {
			c = e.extractWithLLM(ctx, r)
		} else {
			c = extractWithRules(r)
		}
		if c.Name == "" || c.URL == "" {
			continue
		}
		candidates = append(candidates, c)
	}
	return candidates
}

// extractWithRules pulls price, specs, and delivery info out with regexes.
func extractWithRules(r search.Result) agent.Candidate {
	text := r.Description + " " + r.Title
	return agent.Candidate{
		Name:         r.Title,
		Price:        ExtractPrice(text),
		URL:          r.URL,
		Source:       r.Source,
		Description:  r.Description,
		KeySpecs:     extractSpecs(r.Description),
		DeliveryTime: extractDeliveryTime(r.Description),
	}
}

func (e *extractor) extractWithLLM(ctx context.Context, r search.Result) agent.Candidate {
	prompt := fmt.Sprintf(extractPromptTemplate, r.Title, r.URL, r.Description, r.Source)
	response, _, err := e.llm.ChatJSON(ctx, llm.FormatMessages(extractSystemPrompt, prompt, nil))
	if err != nil {
		return extractWithRules(r)
	}

	var parsed struct {
		Name         string            `json:"name"`
		Price        string            `json:"price"`
		KeySpecs     map[string]string `json:"key_specs"`
		DeliveryTime string            `json:"delivery_time"`
	}
	if err := json.Unmarshal([]byte(agent.CleanJSON(response)), &parsed); err != nil {
		return extractWithRules(r)
	}

	c := agent.Candidate{
		Name:         parsed.Name,
		Price:        parsed.Price,
		URL:          r.URL,
		Source:       r.Source,
		Description:  r.Description,
		KeySpecs:     parsed.KeySpecs,
		DeliveryTime: parsed.DeliveryTime,
	}
	if c.Name == "" {
		c.Name = r.Title
	}
	if c.Price == "" {
		c.Price = PriceNotSpecified
	}
	if c.DeliveryTime == "" {
		c.DeliveryTime = deliveryNotSpecified
	}
	return c
}

// ExtractPrice finds the first price-looking amount in text, normalized to
// a $-prefixed string.
func ExtractPrice(text string) string {
	for _, pattern := range pricePatterns {
		match := pattern.FindStringSubmatch(text)
		if len(match) > 1 {
			return "$" + match[1]
		}
	}
	return PriceNotSpecified
}

func extractSpecs(description string) map[string]string {
	specs := make(map[string]string)
	for key, pattern := range specPatterns {
		match := pattern.FindStringSubmatch(description)
		if len(match) > 1 {
			specs[key] = strings.TrimSpace(match[1])
		}
	}
	if len(specs) == 0 {
		return nil
	}
	return specs
}

func extractDeliveryTime(description string) string {
	lower := strings.ToLower(description)
	for _, pattern := range deliveryPatterns {
		if match := pattern.FindString(lower); match != "" {
			return match
		}
	}
	return deliveryNotSpecified
}

// Package expand widens vague procurement requirements into concrete
// alternatives before search, so the query generator has more to work with.
package expand

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/procura-labs/procura/agent"
	"github.com/procura-labs/procura/agent/core/llm"
)

const systemPrompt = `You are a procurement assistant. Your task is to help users find the products they need, whether it's office supplies, electronics, or daily necessities. Keep the suggestions practical and relevant to the user's needs.`

const expandPromptTemplate = `Based on the following procurement requirements, generate expanded requirements.

Original Requirements:
%s

Guidelines for expansion:
1. Keep the original product type but suggest similar alternatives if relevant
2. Include different brands and options available in the market
3. Consider different quantities and packaging options
4. Include both premium and budget options within the specified budget
5. Maintain the original location and delivery requirements
6. Consider both online and local purchase options

Return a JSON object with the following structure:
{
    "product_type": "original product type with alternatives",
    "options": ["option 1", "option 2", "option 3"],
    "budget": "original budget information",
    "location": "original location information",
    "special_requirements": ["original requirements", "additional considerations"],
    "urgency": "original urgency level"
}`

// Expanded is a request plus the market options the model suggested for it.
type Expanded struct {
	Request *agent.Request `json:"request"`
	Options []string       `json:"options,omitempty"`
}

// Expander widens requirements via the LLM.
type Expander struct {
	llm llm.Service
}

// NewExpander creates a new requirement expander.
func NewExpander(llmService llm.Service) *Expander {
	return &Expander{llm: llmService}
}

// Expand returns the widened requirements. On any provider or parse failure
// the original requirements are returned unchanged; expansion is best-effort.
func (e *Expander) Expand(ctx context.Context, req *agent.Request) *Expanded {
	original := &Expanded{Request: req}

	raw, err := json.Marshal(req)
	if err != nil {
		return original
	}

	prompt := fmt.Sprintf(expandPromptTemplate, raw)
	response, _, err := e.llm.ChatJSON(ctx, llm.FormatMessages(systemPrompt, prompt, nil))
	if err != nil {
		slog.Warn("expand: LLM call failed, keeping original requirements", "error", err)
		return original
	}

	var parsed struct {
		ProductType         string   `json:"product_type"`
		Options             []string `json:"options"`
		Budget              string   `json:"budget"`
		Location            string   `json:"location"`
		SpecialRequirements []string `json:"special_requirements"`
		Urgency             string   `json:"urgency"`
	}
	if err := json.Unmarshal([]byte(agent.CleanJSON(response)), &parsed); err != nil {
		slog.Warn("expand: unparseable expansion response, keeping original requirements", "error", err)
		return original
	}

	expanded := *req
	if parsed.ProductType != "" {
		expanded.ProductType = parsed.ProductType
	}
	if parsed.Budget != "" {
		expanded.Budget = parsed.Budget
	}
	if parsed.Location != "" {
		expanded.Location = parsed.Location
	}
	if parsed.Urgency != "" {
		expanded.Urgency = parsed.Urgency
	}
	if len(parsed.SpecialRequirements) > 0 {
		expanded.SpecialRequirements = parsed.SpecialRequirements
	}

	slog.Info("expand: requirements expanded",
		"product_type", expanded.ProductType,
		"options", len(parsed.Options))

	return &Expanded{Request: &expanded, Options: parsed.Options}
}

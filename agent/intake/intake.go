// Package intake extracts structured procurement fields from free-form
// request text. It is the first stage of the pipeline.
package intake

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/procura-labs/procura/agent"
	"github.com/procura-labs/procura/agent/core/llm"
)

const systemPrompt = "You are a procurement information extraction assistant."

const extractionPromptTemplate = `Extract the following information from the procurement request:
- Product type/description
- Quantity needed
- Budget range
- Special requirements
- Urgency level
- Preferred suppliers (if mentioned)
- Delivery location (if mentioned)

Text: %s

Return the information in JSON format with these fields:
{
    "product_type": string,
    "quantity": number,
    "budget": string,
    "special_requirements": string[],
    "urgency": string,
    "preferred_suppliers": string[],
    "location": string
}`

// Extractor turns raw request text into a structured Request.
type Extractor struct {
	llm llm.Service
}

// NewExtractor creates a new intake extractor.
func NewExtractor(llmService llm.Service) *Extractor {
	return &Extractor{llm: llmService}
}

// extractedFields mirrors the JSON shape the model is asked to emit.
type extractedFields struct {
	ProductType         string   `json:"product_type"`
	Quantity            int      `json:"quantity"`
	Budget              string   `json:"budget"`
	SpecialRequirements []string `json:"special_requirements"`
	Urgency             string   `json:"urgency"`
	PreferredSuppliers  []string `json:"preferred_suppliers"`
	Location            string   `json:"location"`
}

// Extract processes the input text and returns the extracted request.
// A response the model fails to shape as JSON yields an empty-field request
// rather than an error; the clarification stage picks up from there.
func (e *Extractor) Extract(ctx context.Context, text string) (*agent.Request, error) {
	startTime := time.Now()

	messages := llm.FormatMessages(systemPrompt, fmt.Sprintf(extractionPromptTemplate, text), nil)
	response, _, err := e.llm.ChatJSON(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("intake extraction failed: %w", err)
	}

	req := &agent.Request{RawText: text}

	var fields extractedFields
	if err := json.Unmarshal([]byte(agent.CleanJSON(response)), &fields); err != nil {
		slog.Warn("intake: unparseable extraction response, returning empty fields",
			"error", err,
			"response_length", len(response))
		return req, nil
	}

	req.ProductType = fields.ProductType
	req.Quantity = fields.Quantity
	req.Budget = fields.Budget
	req.SpecialRequirements = fields.SpecialRequirements
	req.Urgency = fields.Urgency
	req.PreferredSuppliers = fields.PreferredSuppliers
	req.Location = fields.Location

	slog.Info("intake: fields extracted",
		"product_type", req.ProductType,
		"quantity", req.Quantity,
		"budget", req.Budget,
		"duration_ms", time.Since(startTime).Milliseconds())

	return req, nil
}

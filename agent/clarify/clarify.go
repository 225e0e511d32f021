// Package clarify detects missing required fields on a procurement request
// and generates follow-up questions for them. The exchange is capped so an
// uncooperative model cannot loop forever.
package clarify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/procura-labs/procura/agent"
	"github.com/procura-labs/procura/agent/core/llm"
)

// DefaultMaxTurns is the clarification turn cap when none is configured.
const DefaultMaxTurns = 3

const systemPrompt = "You are a procurement clarification assistant."

const questionsPromptTemplate = `Based on the following extracted procurement information, generate specific questions to clarify any missing or ambiguous details.

Extracted information:
%s

Missing required fields: %v

Return a list of questions in JSON format:
{
    "questions": string[]
}`

// Clarifier generates follow-up questions for incomplete requests.
type Clarifier struct {
	llm      llm.Service
	maxTurns int
}

// NewClarifier creates a new clarifier. maxTurns <= 0 selects the default cap.
func NewClarifier(llmService llm.Service, maxTurns int) *Clarifier {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &Clarifier{llm: llmService, maxTurns: maxTurns}
}

// MaxTurns returns the configured turn cap.
func (c *Clarifier) MaxTurns() int {
	return c.maxTurns
}

// NeedsClarification reports whether the request still misses required
// fields and the exchange has turns left.
func (c *Clarifier) NeedsClarification(req *agent.Request, exchange *agent.ClarificationExchange) bool {
	if exchange != nil && len(exchange.Turns) >= c.maxTurns {
		slog.Info("clarify: turn cap reached, proceeding with partial fields",
			"turns", len(exchange.Turns), "max_turns", c.maxTurns)
		return false
	}
	return len(req.MissingFields()) > 0
}

// GenerateQuestions asks the LLM for follow-up questions covering the
// missing fields.
func (c *Clarifier) GenerateQuestions(ctx context.Context, req *agent.Request) ([]string, error) {
	missing := req.MissingFields()
	if len(missing) == 0 {
		return nil, nil
	}

	extracted, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	prompt := fmt.Sprintf(questionsPromptTemplate, extracted, missing)
	response, _, err := c.llm.ChatJSON(ctx, llm.FormatMessages(systemPrompt, prompt, nil))
	if err != nil {
		return nil, fmt.Errorf("clarification questions failed: %w", err)
	}

	var parsed struct {
		Questions []string `json:"questions"`
	}
	if err := json.Unmarshal([]byte(agent.CleanJSON(response)), &parsed); err != nil {
		// Fall back to one generic question per missing field.
		slog.Warn("clarify: unparseable questions response, using fallback", "error", err)
		questions := make([]string, 0, len(missing))
		for _, field := range missing {
			questions = append(questions, fmt.Sprintf("Could you provide the %s for this request?", field))
		}
		return questions, nil
	}

	return parsed.Questions, nil
}

// Record appends a question/answer turn to the exchange and merges the
// answer fields into the request.
func (c *Clarifier) Record(req *agent.Request, exchange *agent.ClarificationExchange, question string, answer *agent.Request, answerText string) {
	exchange.Turns = append(exchange.Turns, agent.QA{Question: question, Answer: answerText})
	req.Merge(answer)
}

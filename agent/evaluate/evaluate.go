// Package evaluate is the evaluation stage: the LLM ranks the search
// candidates against the extracted requirements and attaches a score and a
// rationale to each.
package evaluate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/procura-labs/procura/agent"
	"github.com/procura-labs/procura/agent/core/llm"
)

const evaluateSystemPrompt = `You are a procurement evaluation assistant.`

const evaluatePromptTemplate = `Evaluate the following products based on the procurement requirements and rank them from best to worst.
Consider factors such as price, relevance to requirements, and source reliability.

Procurement Requirements:
%s

Search Results:
%s

Return the ranked results in JSON format with these fields:
{
    "ranked_results": [
        {
            "title": string,
            "url": string,
            "price": string,
            "score": number,
            "reasoning": string
        }
    ]
}`

// Evaluator ranks candidates with the LLM.
type Evaluator struct {
	llm llm.Service
}

// NewEvaluator creates an evaluator backed by the given LLM service.
func NewEvaluator(llmService llm.Service) *Evaluator {
	return &Evaluator{llm: llmService}
}

type rankedResult struct {
	Title     string  `json:"title"`
	URL       string  `json:"url"`
	Price     string  `json:"price"`
	Score     float64 `json:"score"`
	Reasoning string  `json:"reasoning"`
}

// Evaluate returns one evaluation per candidate, best first. Provider or
// parse failures degrade to a pass-through: every candidate comes back
// unranked in its original order, never fewer.
func (e *Evaluator) Evaluate(ctx context.Context, req *agent.Request, candidates []agent.Candidate) []agent.Evaluation {
	if len(candidates) == 0 {
		return nil
	}

	reqJSON, _ := json.MarshalIndent(req, "", "  ")
	candJSON, _ := json.MarshalIndent(summarize(candidates), "", "  ")
	prompt := fmt.Sprintf(evaluatePromptTemplate, reqJSON, candJSON)

	response, _, err := e.llm.ChatJSON(ctx, llm.FormatMessages(evaluateSystemPrompt, prompt, nil))
	if err != nil {
		slog.Warn("evaluate: provider call failed, passing candidates through", "error", err)
		return passthrough(candidates)
	}

	var parsed struct {
		RankedResults []rankedResult `json:"ranked_results"`
	}
	if err := json.Unmarshal([]byte(agent.CleanJSON(response)), &parsed); err != nil || len(parsed.RankedResults) == 0 {
		slog.Warn("evaluate: unparseable ranking, passing candidates through", "error", err)
		return passthrough(candidates)
	}

	return merge(candidates, parsed.RankedResults)
}

// merge maps the LLM ranking back onto the candidates by URL. Candidates
// the ranking skipped are appended unranked so the count is preserved.
func merge(candidates []agent.Candidate, ranked []rankedResult) []agent.Evaluation {
	byURL := make(map[string]agent.Candidate, len(candidates))
	for _, c := range candidates {
		byURL[c.URL] = c
	}

	evaluations := make([]agent.Evaluation, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))
	for _, r := range ranked {
		c, ok := byURL[r.URL]
		if !ok || seen[r.URL] {
			continue
		}
		seen[r.URL] = true
		evaluations = append(evaluations, agent.Evaluation{
			Candidate: c,
			Score:     r.Score,
			Rationale: r.Reasoning,
		})
	}

	for _, c := range candidates {
		if !seen[c.URL] {
			evaluations = append(evaluations, agent.Evaluation{Candidate: c})
		}
	}

	sort.SliceStable(evaluations, func(i, j int) bool {
		return evaluations[i].Score > evaluations[j].Score
	})
	return evaluations
}

func passthrough(candidates []agent.Candidate) []agent.Evaluation {
	evaluations := make([]agent.Evaluation, len(candidates))
	for i, c := range candidates {
		evaluations[i] = agent.Evaluation{Candidate: c}
	}
	return evaluations
}

type candidateSummary struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Price       string `json:"price"`
	Description string `json:"description"`
	Source      string `json:"source"`
}

func summarize(candidates []agent.Candidate) []candidateSummary {
	summaries := make([]candidateSummary, len(candidates))
	for i, c := range candidates {
		summaries[i] = candidateSummary{
			Title:       c.Name,
			URL:         c.URL,
			Price:       c.Price,
			Description: c.Description,
			Source:      c.Source,
		}
	}
	return summaries
}

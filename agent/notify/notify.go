// Package notify is the communication stage: it composes approval-request
// and order-confirmation messages with the LLM, renders them to HTML, and
// delivers them through the configured sinks.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/procura-labs/procura/agent"
	"github.com/procura-labs/procura/agent/core/llm"
)

const composeSystemPrompt = `You are a professional procurement communication assistant.`

const approvalPromptTemplate = `Generate a professional approval request email for the following procurement request.

Procurement Details:
%s

Recommended Products:
%s

Approval Level: %s
Reason: %s

The email should include:
1. Clear subject line
2. Brief explanation of the request
3. Key details of the recommended product
4. Justification for the selection
5. Request for approval with a clear call to action

Write the email body in Markdown.`

const confirmationPromptTemplate = `Generate a professional confirmation email for the following procurement request.

Procurement Details:
%s

Selected Product:
%s

Order:
%s

The email should include:
1. Clear subject line
2. Confirmation of the order
3. Key details of the selected product
4. Next steps and expected delivery timeline
5. Contact information for any questions

Write the email body in Markdown.`

// Message is a composed notification: a subject, a Markdown body, and its
// HTML rendering.
type Message struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	HTML    string `json:"html"`
}

// Composer builds approval and confirmation messages.
type Composer struct {
	llm      llm.Service
	markdown goldmark.Markdown
}

// NewComposer creates a message composer backed by the given LLM service.
func NewComposer(llmService llm.Service) *Composer {
	return &Composer{
		llm:      llmService,
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// ApprovalRequest composes the message asking the approver to sign off on
// the top recommendation. LLM failure degrades to a plain templated body.
func (c *Composer) ApprovalRequest(ctx context.Context, req *agent.Request, evaluations []agent.Evaluation, decision agent.Decision) Message {
	reqJSON, _ := json.MarshalIndent(req, "", "  ")
	evalJSON, _ := json.MarshalIndent(evaluations, "", "  ")
	prompt := fmt.Sprintf(approvalPromptTemplate, reqJSON, evalJSON, decision.ApprovalLevel, decision.Reason)

	body, _, err := c.llm.Chat(ctx, llm.FormatMessages(composeSystemPrompt, prompt, nil))
	if err != nil || strings.TrimSpace(body) == "" {
		slog.Warn("notify: approval message composition failed, using fallback", "error", err)
		body = fallbackApprovalBody(req, evaluations, decision)
	}

	return c.finish(approvalSubject(req), body)
}

// Confirmation composes the order-confirmation message for an executed
// (or simulated) order.
func (c *Composer) Confirmation(ctx context.Context, req *agent.Request, chosen *agent.Candidate, order *agent.OrderResult) Message {
	reqJSON, _ := json.MarshalIndent(req, "", "  ")
	chosenJSON, _ := json.MarshalIndent(chosen, "", "  ")
	orderJSON, _ := json.MarshalIndent(order, "", "  ")
	prompt := fmt.Sprintf(confirmationPromptTemplate, reqJSON, chosenJSON, orderJSON)

	body, _, err := c.llm.Chat(ctx, llm.FormatMessages(composeSystemPrompt, prompt, nil))
	if err != nil || strings.TrimSpace(body) == "" {
		slog.Warn("notify: confirmation message composition failed, using fallback", "error", err)
		body = fallbackConfirmationBody(req, chosen, order)
	}

	return c.finish(confirmationSubject(req), body)
}

func (c *Composer) finish(subject, body string) Message {
	msg := Message{Subject: subject, Body: body}

	var buf bytes.Buffer
	if err := c.markdown.Convert([]byte(body), &buf); err != nil {
		slog.Warn("notify: markdown rendering failed", "error", err)
		return msg
	}
	msg.HTML = buf.String()
	return msg
}

func approvalSubject(req *agent.Request) string {
	return fmt.Sprintf("Approval required: procurement of %s", requestSummary(req))
}

func confirmationSubject(req *agent.Request) string {
	return fmt.Sprintf("Order confirmation: %s", requestSummary(req))
}

func requestSummary(req *agent.Request) string {
	product := strings.TrimSpace(req.ProductType)
	if product == "" {
		product = "requested items"
	}
	if req.Quantity > 1 {
		return fmt.Sprintf("%d x %s", req.Quantity, product)
	}
	return product
}

func fallbackApprovalBody(req *agent.Request, evaluations []agent.Evaluation, decision agent.Decision) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Approval Request\n\n")
	fmt.Fprintf(&b, "A procurement request for %s requires %s approval.\n\n", requestSummary(req), decision.ApprovalLevel)
	if decision.Reason != "" {
		fmt.Fprintf(&b, "Reason: %s\n\n", decision.Reason)
	}
	if len(evaluations) > 0 {
		top := evaluations[0].Candidate
		fmt.Fprintf(&b, "Recommended product: **%s** at %s (%s)\n", top.Name, top.Price, top.URL)
	}
	return b.String()
}

func fallbackConfirmationBody(req *agent.Request, chosen *agent.Candidate, order *agent.OrderResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Order Confirmation\n\n")
	fmt.Fprintf(&b, "Your order for %s has been placed.\n\n", requestSummary(req))
	if chosen != nil {
		fmt.Fprintf(&b, "Product: **%s** at %s\n\n", chosen.Name, chosen.Price)
	}
	if order != nil {
		fmt.Fprintf(&b, "Order ID: %s\n\nTracking ID: %s\n", order.OrderID, order.TrackingID)
		if order.EstimatedDelivery != "" {
			fmt.Fprintf(&b, "\nEstimated delivery: %s\n", order.EstimatedDelivery)
		}
	}
	return b.String()
}

// Package rules is the decision stage: static company procurement rules,
// expressed as CEL predicates, route a request to auto-approval or to an
// approval level.
package rules

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"

	"github.com/procura-labs/procura/agent"
)

// Rule is one routing rule. Rules are evaluated in order and the first
// matching predicate decides.
type Rule struct {
	Name       string
	Expression string
	Action     agent.Action
	Level      agent.ApprovalLevel
	Reason     string
}

// DefaultRules mirror the company procurement policy: urgent orders always
// go to the department manager, orders up to the auto-approve limit are
// processed directly, orders up to the executive threshold need a manager,
// and anything above needs an executive.
func DefaultRules(autoApproveLimit, executiveThreshold float64) []Rule {
	return []Rule{
		{
			Name:       "urgent-to-manager",
			Expression: "urgent",
			Action:     agent.ActionNeedsApproval,
			Level:      agent.ApprovalManager,
			Reason:     "Urgent orders require immediate manager approval regardless of amount",
		},
		{
			Name:       "direct-order",
			Expression: fmt.Sprintf("price <= %f", autoApproveLimit),
			Action:     agent.ActionAutoApprove,
			Level:      agent.ApprovalNone,
			Reason:     "Order amount is within the direct processing limit",
		},
		{
			Name:       "manager-approval",
			Expression: fmt.Sprintf("price <= %f", executiveThreshold),
			Action:     agent.ActionNeedsApproval,
			Level:      agent.ApprovalManager,
			Reason:     "Order amount requires department manager approval",
		},
		{
			Name:       "executive-approval",
			Expression: "true",
			Action:     agent.ActionNeedsApproval,
			Level:      agent.ApprovalExecutive,
			Reason:     "Order amount requires executive approval",
		},
	}
}

type compiledRule struct {
	rule    Rule
	program cel.Program
}

// Engine evaluates routing rules against a request and its chosen candidate.
type Engine struct {
	rules []compiledRule
}

// NewEngine compiles the rule set. Rule expressions see the variables
// price (double), budget (double), urgent (bool), quantity (int), and
// special_requirements (list of string).
func NewEngine(rules []Rule) (*Engine, error) {
	env, err := cel.NewEnv(
		cel.Variable("price", cel.DoubleType),
		cel.Variable("budget", cel.DoubleType),
		cel.Variable("urgent", cel.BoolType),
		cel.Variable("quantity", cel.IntType),
		cel.Variable("special_requirements", cel.ListType(cel.StringType)),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create CEL environment")
	}

	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		celAST, issues := env.Compile(r.Expression)
		if issues != nil && issues.Err() != nil {
			return nil, errors.Wrapf(issues.Err(), "invalid rule expression %q", r.Name)
		}
		program, err := env.Program(celAST)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to build program for rule %q", r.Name)
		}
		compiled = append(compiled, compiledRule{rule: r, program: program})
	}
	return &Engine{rules: compiled}, nil
}

// NewDefaultEngine compiles the default company rule set with the given
// thresholds.
func NewDefaultEngine(autoApproveLimit, executiveThreshold float64) (*Engine, error) {
	return NewEngine(DefaultRules(autoApproveLimit, executiveThreshold))
}

// Decide routes the request given the chosen candidate. A candidate price
// that cannot be parsed to an amount never auto-approves; it falls back to
// manager approval, matching what an undecidable request gets.
func (e *Engine) Decide(req *agent.Request, chosen *agent.Candidate) agent.Decision {
	price, err := agent.ParseAmount(chosen.Price)
	if err != nil {
		return agent.Decision{
			Action:        agent.ActionNeedsApproval,
			ApprovalLevel: agent.ApprovalManager,
			Reason:        "Order amount could not be determined",
		}
	}
	if req.Quantity > 1 {
		price *= float64(req.Quantity)
	}

	budget, err := agent.ParseAmount(req.Budget)
	if err != nil {
		budget = 0
	}

	specialReqs := req.SpecialRequirements
	if specialReqs == nil {
		specialReqs = []string{}
	}

	input := map[string]any{
		"price":                price,
		"budget":               budget,
		"urgent":               req.IsUrgent(),
		"quantity":             int64(req.Quantity),
		"special_requirements": specialReqs,
	}

	for _, cr := range e.rules {
		out, _, err := cr.program.Eval(input)
		if err != nil {
			continue
		}
		matched, ok := out.Value().(bool)
		if !ok || !matched {
			continue
		}
		return agent.Decision{
			Action:        cr.rule.Action,
			ApprovalLevel: cr.rule.Level,
			Reason:        cr.rule.Reason,
		}
	}

	// No rule matched. The default sets end with a catch-all, so this only
	// happens with a custom rule set.
	return agent.Decision{
		Action:        agent.ActionNeedsApproval,
		ApprovalLevel: agent.ApprovalManager,
		Reason:        "No routing rule matched",
	}
}

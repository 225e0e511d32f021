// Package pipeline orchestrates the procurement stages: intake,
// clarification, expansion, product search, evaluation, decision,
// communication, and order execution. The walk is strictly sequential; the
// only fork is approve versus request-approval after the decision stage.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/procura-labs/procura/agent"
	"github.com/procura-labs/procura/agent/clarify"
	"github.com/procura-labs/procura/agent/core/llm"
	"github.com/procura-labs/procura/agent/core/search"
	"github.com/procura-labs/procura/agent/evaluate"
	"github.com/procura-labs/procura/agent/expand"
	"github.com/procura-labs/procura/agent/intake"
	"github.com/procura-labs/procura/agent/metrics"
	"github.com/procura-labs/procura/agent/notify"
	"github.com/procura-labs/procura/agent/order"
	"github.com/procura-labs/procura/agent/productsearch"
	"github.com/procura-labs/procura/agent/rules"
	"github.com/procura-labs/procura/store"
)

// Status is the terminal state of one pipeline run.
type Status string

const (
	StatusNeedsClarification Status = "needs_clarification"
	StatusAwaitingApproval   Status = "awaiting_approval"
	StatusCompleted          Status = "completed"
)

// Input is one procurement request. Answers are consumed in order by the
// clarification loop; a run that needs more answers returns
// StatusNeedsClarification with the open questions.
type Input struct {
	Text    string   `json:"text"`
	Answers []string `json:"answers,omitempty"`
}

// Result is the outcome of one pipeline run.
type Result struct {
	TraceID      string                      `json:"trace_id"`
	Status       Status                      `json:"status"`
	Request      *agent.Request              `json:"request"`
	Questions    []string                    `json:"questions,omitempty"`
	Exchange     agent.ClarificationExchange `json:"exchange"`
	Candidates   []agent.Candidate           `json:"candidates,omitempty"`
	Evaluations  []agent.Evaluation          `json:"evaluations,omitempty"`
	Decision     *agent.Decision             `json:"decision,omitempty"`
	Message      *notify.Message             `json:"message,omitempty"`
	Order        *agent.OrderResult          `json:"order,omitempty"`
	StageTimings map[string]int64            `json:"stage_timings"`
}

// Options tunes a Runner beyond the provider configuration.
type Options struct {
	Search          productsearch.Options
	MaxClarifyTurns int
	Metrics         *metrics.Exporter
	Store           *store.Store
	Sinks           []notify.Sink
}

// Runner walks the pipeline stages in order.
type Runner struct {
	intake    *intake.Extractor
	clarify   *clarify.Clarifier
	expand    *expand.Expander
	search    *productsearch.Searcher
	evaluate  *evaluate.Evaluator
	rules     *rules.Engine
	compose   *notify.Composer
	notifier  *notify.Notifier
	order     order.Provider
	metrics   *metrics.Exporter
	store     *store.Store
}

// NewRunner builds a runner from the agent configuration, constructing the
// LLM, search, and order providers it needs.
func NewRunner(cfg *agent.Config, opts Options) (*Runner, error) {
	llmService, err := llm.NewService(&cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("llm service: %w", err)
	}
	searchCfg := cfg.Search
	if opts.Metrics != nil {
		searchCfg.CacheObserver = opts.Metrics
	}
	searchProvider, err := search.NewProvider(&searchCfg)
	if err != nil {
		return nil, fmt.Errorf("search provider: %w", err)
	}
	orderProvider, err := order.NewProvider(cfg.Order)
	if err != nil {
		return nil, fmt.Errorf("order provider: %w", err)
	}
	return NewRunnerWithProviders(cfg, llmService, searchProvider, orderProvider, opts)
}

// NewRunnerWithProviders builds a runner over already-constructed providers.
func NewRunnerWithProviders(cfg *agent.Config, llmService llm.Service, searchProvider search.Provider, orderProvider order.Provider, opts Options) (*Runner, error) {
	engine, err := rules.NewDefaultEngine(cfg.Rules.AutoApproveLimit, cfg.Rules.ExecutiveThreshold)
	if err != nil {
		return nil, fmt.Errorf("rules engine: %w", err)
	}

	m := opts.Metrics
	stageLLM := func(stage string) llm.Service { return instrumentLLM(llmService, m, stage) }

	return &Runner{
		intake:    intake.NewExtractor(stageLLM("intake")),
		clarify:   clarify.NewClarifier(stageLLM("clarify"), opts.MaxClarifyTurns),
		expand:    expand.NewExpander(stageLLM("expand")),
		search:    productsearch.NewSearcher(stageLLM("productsearch"), instrumentSearch(searchProvider, m), opts.Search),
		evaluate:  evaluate.NewEvaluator(stageLLM("evaluate")),
		rules:     engine,
		compose:   notify.NewComposer(stageLLM("notify")),
		notifier:  notify.NewNotifier(opts.Sinks...),
		order:     orderProvider,
		metrics:   m,
		store:     opts.Store,
	}, nil
}

// Run executes the pipeline for one request.
func (r *Runner) Run(ctx context.Context, input Input) (*Result, error) {
	traceID := shortuuid.New()
	logger := slog.With("trace_id", traceID)
	started := time.Now()

	if r.metrics != nil {
		defer r.metrics.RunStarted()()
	}

	result := &Result{
		TraceID:      traceID,
		StageTimings: make(map[string]int64),
	}
	r.auditStart(ctx, traceID, input.Text)

	logger.Info("pipeline: run started", "text_len", len(input.Text), "answers", len(input.Answers))

	// Intake.
	req, err := r.stageIntake(ctx, result, input.Text)
	if err != nil {
		return nil, r.fail(ctx, logger, result, started, fmt.Errorf("intake: %w", err))
	}
	result.Request = req

	// Clarification loop; consumes provided answers in order.
	questions, err := r.stageClarify(ctx, result, req, input.Answers)
	if err != nil {
		return nil, r.fail(ctx, logger, result, started, fmt.Errorf("clarify: %w", err))
	}
	if len(questions) > 0 {
		result.Status = StatusNeedsClarification
		result.Questions = questions
		r.finish(ctx, logger, result, started, store.RunStatusNeedsClarification)
		return result, nil
	}

	// Requirement expansion, best-effort.
	r.stage(result, "expand", func() error {
		result.Request = r.expand.Expand(ctx, req).Request
		return nil
	})
	req = result.Request

	// Product search.
	if err := r.stage(result, "productsearch", func() error {
		candidates, err := r.search.Search(ctx, req)
		if err != nil {
			return err
		}
		if len(candidates) == 0 {
			return fmt.Errorf("no matching products found")
		}
		result.Candidates = candidates
		return nil
	}); err != nil {
		return nil, r.fail(ctx, logger, result, started, fmt.Errorf("productsearch: %w", err))
	}

	// Evaluation.
	r.stage(result, "evaluate", func() error {
		result.Evaluations = r.evaluate.Evaluate(ctx, req, result.Candidates)
		return nil
	})

	// Decision.
	top := result.Evaluations[0].Candidate
	r.stage(result, "decide", func() error {
		decision := r.rules.Decide(req, &top)
		result.Decision = &decision
		return nil
	})
	if r.metrics != nil {
		r.metrics.RecordDecision(string(result.Decision.Action), string(result.Decision.ApprovalLevel))
	}
	logger.Info("pipeline: decision made",
		"action", result.Decision.Action,
		"approval_level", result.Decision.ApprovalLevel,
		"candidate", top.Name,
		"price", top.Price)

	// Communication and order execution fork.
	if result.Decision.Action == agent.ActionNeedsApproval {
		r.stage(result, "notify", func() error {
			msg := r.compose.ApprovalRequest(ctx, req, result.Evaluations, *result.Decision)
			result.Message = &msg
			r.notifier.Dispatch(ctx, traceID, "approval_requested", msg)
			return nil
		})
		result.Status = StatusAwaitingApproval
		r.finish(ctx, logger, result, started, store.RunStatusAwaitingApproval)
		return result, nil
	}

	if err := r.stage(result, "order", func() error {
		orderResult, err := r.order.Execute(ctx, &top, req.Quantity)
		if r.metrics != nil {
			r.metrics.RecordOrder(r.order.Name(), err == nil)
		}
		if err != nil {
			return err
		}
		result.Order = orderResult
		return nil
	}); err != nil {
		return nil, r.fail(ctx, logger, result, started, fmt.Errorf("order: %w", err))
	}

	r.stage(result, "notify", func() error {
		msg := r.compose.Confirmation(ctx, req, &top, result.Order)
		result.Message = &msg
		r.notifier.Dispatch(ctx, traceID, "order_confirmed", msg)
		return nil
	})

	result.Status = StatusCompleted
	r.finish(ctx, logger, result, started, store.RunStatusCompleted)
	return result, nil
}

func (r *Runner) stageIntake(ctx context.Context, result *Result, text string) (*agent.Request, error) {
	var req *agent.Request
	err := r.stage(result, "intake", func() error {
		var err error
		req, err = r.intake.Extract(ctx, text)
		return err
	})
	return req, err
}

// stageClarify runs the clarification loop. It returns open questions when
// the provided answers run out before the required fields are filled; the
// turn cap bounds the loop regardless of what the LLM keeps asking.
func (r *Runner) stageClarify(ctx context.Context, result *Result, req *agent.Request, answers []string) ([]string, error) {
	var open []string
	err := r.stage(result, "clarify", func() error {
		answerIdx := 0
		for r.clarify.NeedsClarification(req, &result.Exchange) {
			questions, err := r.clarify.GenerateQuestions(ctx, req)
			if err != nil {
				return err
			}
			if len(questions) == 0 {
				return nil
			}
			if answerIdx >= len(answers) {
				open = questions
				return nil
			}

			answerText := answers[answerIdx]
			answerIdx++
			answerReq, err := r.intake.Extract(ctx, answerText)
			if err != nil {
				return err
			}
			r.clarify.Record(req, &result.Exchange, questions[0], answerReq, answerText)
		}
		return nil
	})
	return open, err
}

// stage measures one stage and records its metrics.
func (r *Runner) stage(result *Result, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	result.StageTimings[name] = elapsed.Milliseconds()
	if r.metrics != nil {
		r.metrics.RecordStage(name, elapsed, err == nil)
	}
	return err
}

func (r *Runner) fail(ctx context.Context, logger *slog.Logger, result *Result, started time.Time, err error) error {
	logger.Error("pipeline: run failed", "error", err)
	if r.metrics != nil {
		r.metrics.RecordRun(string(store.RunStatusFailed), time.Since(started))
	}
	r.auditFinish(ctx, result, store.RunStatusFailed, err.Error())
	return err
}

func (r *Runner) finish(ctx context.Context, logger *slog.Logger, result *Result, started time.Time, status store.RunStatus) {
	logger.Info("pipeline: run finished",
		"status", status,
		"candidates", len(result.Candidates),
		"duration_ms", time.Since(started).Milliseconds())
	if r.metrics != nil {
		r.metrics.RecordRun(string(status), time.Since(started))
	}
	r.auditFinish(ctx, result, status, "")
}

// auditStart records the run in the audit store. Audit writes are
// best-effort; a storage failure never fails the run.
func (r *Runner) auditStart(ctx context.Context, traceID, text string) {
	if r.store == nil {
		return
	}
	if _, err := r.store.CreateRun(ctx, &store.Run{TraceID: traceID, RequestText: text}); err != nil {
		slog.Warn("pipeline: failed to record run start", "trace_id", traceID, "error", err)
	}
}

func (r *Runner) auditFinish(ctx context.Context, result *Result, status store.RunStatus, errMsg string) {
	if r.store == nil {
		return
	}
	candidates := len(result.Candidates)
	update := &store.UpdateRun{
		TraceID:      result.TraceID,
		Status:       &status,
		Request:      result.Request,
		Candidates:   &candidates,
		Decision:     result.Decision,
		Order:        result.Order,
		StageTimings: result.StageTimings,
	}
	if errMsg != "" {
		update.ErrorMessage = &errMsg
	}
	if err := r.store.UpdateRun(ctx, update); err != nil {
		slog.Warn("pipeline: failed to record run outcome", "trace_id", result.TraceID, "error", err)
	}
}

package pipeline

import (
	"context"

	"github.com/procura-labs/procura/agent/core/llm"
	"github.com/procura-labs/procura/agent/core/search"
	"github.com/procura-labs/procura/agent/metrics"
)

// instrumentLLM wraps an LLM service so token usage is attributed to the
// stage that spent it.
func instrumentLLM(inner llm.Service, m *metrics.Exporter, stage string) llm.Service {
	if m == nil {
		return inner
	}
	return &measuredLLM{inner: inner, metrics: m, stage: stage}
}

type measuredLLM struct {
	inner   llm.Service
	metrics *metrics.Exporter
	stage   string
}

func (s *measuredLLM) Chat(ctx context.Context, messages []llm.Message) (string, *llm.CallStats, error) {
	response, stats, err := s.inner.Chat(ctx, messages)
	s.record(stats)
	return response, stats, err
}

func (s *measuredLLM) ChatJSON(ctx context.Context, messages []llm.Message) (string, *llm.CallStats, error) {
	response, stats, err := s.inner.ChatJSON(ctx, messages)
	s.record(stats)
	return response, stats, err
}

func (s *measuredLLM) Warmup(ctx context.Context) {
	s.inner.Warmup(ctx)
}

func (s *measuredLLM) record(stats *llm.CallStats) {
	if stats == nil {
		return
	}
	s.metrics.RecordLLMTokens(s.stage, "prompt", stats.PromptTokens)
	s.metrics.RecordLLMTokens(s.stage, "completion", stats.CompletionTokens)
}

// instrumentSearch wraps a search provider with per-query call counters.
func instrumentSearch(inner search.Provider, m *metrics.Exporter) search.Provider {
	if m == nil {
		return inner
	}
	return &measuredSearch{inner: inner, metrics: m}
}

type measuredSearch struct {
	inner   search.Provider
	metrics *metrics.Exporter
}

func (s *measuredSearch) Search(ctx context.Context, query string, count int) ([]search.Result, error) {
	results, err := s.inner.Search(ctx, query, count)
	s.metrics.RecordSearchQuery(s.inner.Name(), err == nil)
	return results, err
}

func (s *measuredSearch) Name() string {
	return s.inner.Name()
}

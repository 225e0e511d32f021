// Package v1 exposes the procurement pipeline over a JSON HTTP API.
package v1

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/procura-labs/procura/agent"
	"github.com/procura-labs/procura/agent/metrics"
	"github.com/procura-labs/procura/agent/notify"
	"github.com/procura-labs/procura/agent/pipeline"
	"github.com/procura-labs/procura/internal/profile"
	"github.com/procura-labs/procura/store"
)

// maxClarifyTurns bounds the clarification loop per run.
const maxClarifyTurns = 3

type APIV1Service struct {
	Profile *profile.Profile
	Store   *store.Store
	Metrics *metrics.Exporter

	// Runner is nil when no LLM credentials are configured; procurement
	// endpoints then answer 503 while health and metrics stay up.
	Runner *pipeline.Runner
}

func NewAPIV1Service(_ context.Context, profile *profile.Profile, store *store.Store) (*APIV1Service, error) {
	service := &APIV1Service{
		Profile: profile,
		Store:   store,
		Metrics: metrics.NewExporter(metrics.DefaultConfig()),
	}

	if !profile.IsAIEnabled() {
		slog.Warn("procurement pipeline disabled: no LLM API key configured")
		return service, nil
	}

	var sinks []notify.Sink
	if profile.WebhookURL != "" {
		sinks = append(sinks, notify.NewWebhookSink(profile.WebhookURL))
	}
	if profile.SMTPHost != "" {
		emailConfig := notify.EmailConfig{
			SMTPHost:     profile.SMTPHost,
			SMTPPort:     profile.SMTPPort,
			SMTPUsername: profile.SMTPUsername,
			SMTPPassword: profile.SMTPPassword,
			FromEmail:    profile.SMTPFrom,
			FromName:     profile.SMTPFromName,
			To:           profile.SMTPTo,
		}
		if err := emailConfig.Validate(); err != nil {
			slog.Warn("email sink disabled: invalid SMTP configuration", "error", err)
		} else {
			sinks = append(sinks, notify.NewEmailSink(emailConfig))
		}
	}

	runner, err := pipeline.NewRunner(agent.NewConfigFromProfile(profile), pipeline.Options{
		MaxClarifyTurns: maxClarifyTurns,
		Metrics:         service.Metrics,
		Store:           store,
		Sinks:           sinks,
	})
	if err != nil {
		return nil, err
	}
	service.Runner = runner

	slog.Info("procurement pipeline initialized",
		"llm_provider", profile.LLMProvider,
		"llm_model", profile.LLMModel,
		"search_provider", profile.SearchProvider,
		"order_provider", profile.OrderProvider,
	)
	return service, nil
}

// Register mounts the API routes on the given Echo instance.
func (s *APIV1Service) Register(e *echo.Echo) {
	e.GET("/metrics", echo.WrapHandler(s.Metrics.Handler()))

	g := e.Group("/api/v1")
	g.POST("/procurements", s.createProcurement)
	g.GET("/procurements", s.listProcurements)
	g.GET("/procurements/:traceId", s.getProcurement)
}

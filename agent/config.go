package agent

import (
	"github.com/procura-labs/procura/agent/core/llm"
	"github.com/procura-labs/procura/agent/core/search"
	"github.com/procura-labs/procura/internal/profile"
)

// Config represents the full agent configuration derived from the profile.
type Config struct {
	LLM     llm.Config
	Search  search.Config
	Rules   RulesConfig
	Order   OrderConfig
	Enabled bool
}

// RulesConfig configures the approval decision stage.
type RulesConfig struct {
	AutoApproveLimit   float64 // Orders at or under this amount bypass approval
	ExecutiveThreshold float64 // Orders above this amount need executive approval
}

// OrderConfig configures the order execution stage.
type OrderConfig struct {
	Provider string // simulate, browser
	Headless bool
}

// NewConfigFromProfile creates agent config from the instance profile.
func NewConfigFromProfile(p *profile.Profile) *Config {
	cfg := &Config{
		Enabled: p.IsAIEnabled(),
	}

	cfg.LLM = llm.Config{
		Provider:    p.LLMProvider,
		Model:       p.LLMModel,
		APIKey:      p.LLMAPIKey,
		BaseURL:     p.LLMBaseURL,
		MaxTokens:   2048,
		Temperature: 0.7,
		Timeout:     p.LLMTimeout,
	}

	cfg.Search = search.Config{
		Provider: p.SearchProvider,
		APIKey:   p.SearchAPIKey,
		EngineID: p.SearchEngineID,
		RPS:      p.SearchRPS,
	}

	cfg.Rules = RulesConfig{
		AutoApproveLimit:   p.AutoApproveLimit,
		ExecutiveThreshold: p.ExecutiveThreshold,
	}

	cfg.Order = OrderConfig{
		Provider: p.OrderProvider,
		Headless: p.BrowserHeadless,
	}

	return cfg
}

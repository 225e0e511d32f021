package profile

import (
	"os"
	"testing"
)

func TestProfileDefaults(t *testing.T) {
	clearProcuraEnvVars()

	profile := &Profile{}
	profile.FromEnv()

	tests := []struct {
		name     string
		expected string
		actual   string
	}{
		{"LLMProvider default", "openai", profile.LLMProvider},
		{"LLMBaseURL default", "https://api.openai.com/v1", profile.LLMBaseURL},
		{"LLMModel default", "gpt-4o", profile.LLMModel},
		{"SearchProvider default", "brave", profile.SearchProvider},
		{"OrderProvider default", "simulate", profile.OrderProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.actual != tt.expected {
				t.Errorf("%s: expected %q, got %q", tt.name, tt.expected, tt.actual)
			}
		})
	}

	if profile.AutoApproveLimit != 1000 {
		t.Errorf("AutoApproveLimit default: expected 1000, got %f", profile.AutoApproveLimit)
	}
	if profile.ExecutiveThreshold != 5000 {
		t.Errorf("ExecutiveThreshold default: expected 5000, got %f", profile.ExecutiveThreshold)
	}
	if !profile.BrowserHeadless {
		t.Error("BrowserHeadless should default to true")
	}
	if profile.IsAIEnabled() {
		t.Error("IsAIEnabled should be false without an API key")
	}
}

func TestProfileFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envVar   string
		envValue string
		field    func(*Profile) string
		expected string
	}{
		{
			name:     "LLM provider is anthropic",
			envVar:   "PROCURA_AI_LLM_PROVIDER",
			envValue: "anthropic",
			field:    func(p *Profile) string { return p.LLMProvider },
			expected: "anthropic",
		},
		{
			name:     "anthropic base URL applied by default",
			envVar:   "PROCURA_AI_LLM_PROVIDER",
			envValue: "anthropic",
			field:    func(p *Profile) string { return p.LLMBaseURL },
			expected: "https://api.anthropic.com/v1",
		},
		{
			name:     "unknown LLM provider falls back to openai",
			envVar:   "PROCURA_AI_LLM_PROVIDER",
			envValue: "watson",
			field:    func(p *Profile) string { return p.LLMProvider },
			expected: "openai",
		},
		{
			name:     "LLM API key",
			envVar:   "PROCURA_AI_LLM_API_KEY",
			envValue: "test-llm-key",
			field:    func(p *Profile) string { return p.LLMAPIKey },
			expected: "test-llm-key",
		},
		{
			name:     "search provider is bing",
			envVar:   "PROCURA_SEARCH_PROVIDER",
			envValue: "bing",
			field:    func(p *Profile) string { return p.SearchProvider },
			expected: "bing",
		},
		{
			name:     "order provider is browser",
			envVar:   "PROCURA_ORDER_PROVIDER",
			envValue: "browser",
			field:    func(p *Profile) string { return p.OrderProvider },
			expected: "browser",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearProcuraEnvVars()
			os.Setenv(tt.envVar, tt.envValue)
			defer os.Unsetenv(tt.envVar)

			profile := &Profile{}
			profile.FromEnv()

			actual := tt.field(profile)
			if actual != tt.expected {
				t.Errorf("%s: expected %q, got %q", tt.name, tt.expected, actual)
			}
		})
	}
}

func TestSMTPRecipientsFromEnv(t *testing.T) {
	clearProcuraEnvVars()
	os.Setenv("PROCURA_SMTP_HOST", "smtp.example.com")
	os.Setenv("PROCURA_SMTP_TO", "purchasing@example.com, manager@example.com ,")
	defer func() {
		os.Unsetenv("PROCURA_SMTP_HOST")
		os.Unsetenv("PROCURA_SMTP_TO")
	}()

	profile := &Profile{}
	profile.FromEnv()

	if profile.SMTPHost != "smtp.example.com" {
		t.Errorf("SMTPHost: expected smtp.example.com, got %q", profile.SMTPHost)
	}
	if profile.SMTPPort != 587 {
		t.Errorf("SMTPPort default: expected 587, got %d", profile.SMTPPort)
	}
	if len(profile.SMTPTo) != 2 || profile.SMTPTo[0] != "purchasing@example.com" || profile.SMTPTo[1] != "manager@example.com" {
		t.Errorf("SMTPTo: expected two trimmed recipients, got %v", profile.SMTPTo)
	}
}

func TestValidateThresholds(t *testing.T) {
	dir := t.TempDir()

	p := &Profile{Mode: "dev", Data: dir, AutoApproveLimit: 1000, ExecutiveThreshold: 500}
	if err := p.Validate(); err == nil {
		t.Error("expected error when executive threshold is below auto-approve limit")
	}

	p = &Profile{Mode: "dev", Data: dir, AutoApproveLimit: -1}
	if err := p.Validate(); err == nil {
		t.Error("expected error for negative auto-approve limit")
	}
}

func TestValidateSQLiteDSN(t *testing.T) {
	dir := t.TempDir()

	p := &Profile{Mode: "dev", Data: dir, Driver: "sqlite", ExecutiveThreshold: 5000, AutoApproveLimit: 1000}
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if p.DSN == "" {
		t.Error("expected a default sqlite DSN to be derived from the data dir")
	}
}

// clearProcuraEnvVars clears all procura related environment variables.
func clearProcuraEnvVars() {
	vars := []string{
		"PROCURA_AI_LLM_PROVIDER",
		"PROCURA_AI_LLM_API_KEY",
		"PROCURA_AI_LLM_BASE_URL",
		"PROCURA_AI_LLM_MODEL",
		"PROCURA_AI_LLM_TIMEOUT_SECONDS",
		"PROCURA_SEARCH_PROVIDER",
		"PROCURA_SEARCH_API_KEY",
		"PROCURA_SEARCH_ENGINE_ID",
		"PROCURA_SEARCH_RPS",
		"PROCURA_ORDER_PROVIDER",
		"PROCURA_BROWSER_HEADLESS",
		"PROCURA_AUTO_APPROVE_LIMIT",
		"PROCURA_EXECUTIVE_THRESHOLD",
		"PROCURA_APPROVAL_WEBHOOK_URL",
		"PROCURA_SMTP_HOST",
		"PROCURA_SMTP_PORT",
		"PROCURA_SMTP_USERNAME",
		"PROCURA_SMTP_PASSWORD",
		"PROCURA_SMTP_FROM",
		"PROCURA_SMTP_FROM_NAME",
		"PROCURA_SMTP_TO",
		"OPENAI_API_KEY",
		"BRAVE_API_KEY",
	}
	for _, v := range vars {
		os.Unsetenv(v)
	}
}

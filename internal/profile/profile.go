package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is configuration to start the main server.
type Profile struct {
	// Unified LLM configuration (OpenAI-compatible protocol).
	// All providers (openai, anthropic, google, deepseek, ollama) use the same config.
	LLMProvider string // Provider identifier: openai, anthropic, google, deepseek, ollama
	LLMAPIKey   string
	LLMBaseURL  string // Optional, has a default per provider
	LLMModel    string
	LLMTimeout  int // LLM request timeout in seconds (default: 120)

	// Search provider configuration
	SearchProvider string // brave, google, bing
	SearchAPIKey   string
	SearchEngineID string // Google Custom Search engine id (cx), unused by other providers
	SearchRPS      int    // Max search requests per second (default: 1)

	// Order execution configuration
	OrderProvider   string // simulate, browser
	BrowserHeadless bool

	// Approval rules configuration
	AutoApproveLimit   float64 // Orders at or under this amount bypass approval
	ExecutiveThreshold float64 // Orders above this amount need executive approval

	// Notification configuration
	WebhookURL string // Optional webhook for approval requests

	// Optional SMTP delivery for approval requests and confirmations.
	// Email is enabled when SMTPHost is set.
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string
	SMTPTo       []string

	// Other configurations
	Mode    string
	Addr    string
	Port    int
	Data    string
	Driver  string
	DSN     string
	Version string
}

// Provider default configurations for LLM.
// Used when PROCURA_AI_LLM_BASE_URL is not explicitly set.
var llmProviderDefaults = map[string]struct {
	BaseURL string
	Model   string
}{
	"openai": {
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o",
	},
	"anthropic": {
		BaseURL: "https://api.anthropic.com/v1",
		Model:   "claude-sonnet-4-20250514",
	},
	"google": {
		BaseURL: "https://generativelanguage.googleapis.com/v1beta/openai",
		Model:   "gemini-2.0-flash",
	},
	"deepseek": {
		BaseURL: "https://api.deepseek.com",
		Model:   "deepseek-chat",
	},
	"ollama": {
		BaseURL: "http://localhost:11434/v1",
		Model:   "llama3.1",
	},
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if an LLM API key is configured.
func (p *Profile) IsAIEnabled() bool {
	return p.LLMAPIKey != ""
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvOrDefaultFloat returns environment variable value as float64 or default value.
func getEnvOrDefaultFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	// Unified LLM configuration
	p.LLMProvider = getEnvOrDefault("PROCURA_AI_LLM_PROVIDER", "openai")
	p.LLMAPIKey = getEnvOrDefault("PROCURA_AI_LLM_API_KEY", os.Getenv("OPENAI_API_KEY"))
	p.LLMBaseURL = getEnvOrDefault("PROCURA_AI_LLM_BASE_URL", "")
	p.LLMModel = getEnvOrDefault("PROCURA_AI_LLM_MODEL", "")
	p.LLMTimeout = getEnvOrDefaultInt("PROCURA_AI_LLM_TIMEOUT_SECONDS", 120)

	// Validate and apply provider defaults if not explicitly set
	if p.LLMProvider != "" {
		if _, ok := llmProviderDefaults[p.LLMProvider]; !ok {
			slog.Warn("Unknown LLM provider, using default: openai", "provider", p.LLMProvider)
			p.LLMProvider = "openai"
		}
	}
	if p.LLMBaseURL == "" || p.LLMModel == "" {
		if defaults, ok := llmProviderDefaults[p.LLMProvider]; ok {
			if p.LLMBaseURL == "" {
				p.LLMBaseURL = defaults.BaseURL
			}
			if p.LLMModel == "" {
				p.LLMModel = defaults.Model
			}
		}
	}

	// Search provider configuration
	p.SearchProvider = getEnvOrDefault("PROCURA_SEARCH_PROVIDER", "brave")
	p.SearchAPIKey = getEnvOrDefault("PROCURA_SEARCH_API_KEY", os.Getenv("BRAVE_API_KEY"))
	p.SearchEngineID = getEnvOrDefault("PROCURA_SEARCH_ENGINE_ID", "")
	p.SearchRPS = getEnvOrDefaultInt("PROCURA_SEARCH_RPS", 1)

	// Order execution configuration
	p.OrderProvider = getEnvOrDefault("PROCURA_ORDER_PROVIDER", "simulate")
	p.BrowserHeadless = getEnvOrDefault("PROCURA_BROWSER_HEADLESS", "true") == "true"

	// Approval rules configuration
	p.AutoApproveLimit = getEnvOrDefaultFloat("PROCURA_AUTO_APPROVE_LIMIT", 1000)
	p.ExecutiveThreshold = getEnvOrDefaultFloat("PROCURA_EXECUTIVE_THRESHOLD", 5000)

	// Notification configuration
	p.WebhookURL = getEnvOrDefault("PROCURA_APPROVAL_WEBHOOK_URL", "")

	p.SMTPHost = getEnvOrDefault("PROCURA_SMTP_HOST", "")
	p.SMTPPort = getEnvOrDefaultInt("PROCURA_SMTP_PORT", 587)
	p.SMTPUsername = getEnvOrDefault("PROCURA_SMTP_USERNAME", "")
	p.SMTPPassword = getEnvOrDefault("PROCURA_SMTP_PASSWORD", "")
	p.SMTPFrom = getEnvOrDefault("PROCURA_SMTP_FROM", "")
	p.SMTPFromName = getEnvOrDefault("PROCURA_SMTP_FROM_NAME", "Procura")
	if to := getEnvOrDefault("PROCURA_SMTP_TO", ""); to != "" {
		for _, addr := range strings.Split(to, ",") {
			if addr = strings.TrimSpace(addr); addr != "" {
				p.SMTPTo = append(p.SMTPTo, addr)
			}
		}
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.AutoApproveLimit < 0 {
		return errors.Errorf("auto-approve limit must not be negative, got %f", p.AutoApproveLimit)
	}
	if p.ExecutiveThreshold < p.AutoApproveLimit {
		return errors.Errorf("executive threshold %f must not be below auto-approve limit %f",
			p.ExecutiveThreshold, p.AutoApproveLimit)
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
		return err
	}
	p.Data = dataDir

	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("procura_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	return nil
}

package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Message represents a chat message.
type Message struct {
	Role    string // system, user, assistant
	Content string
}

// CallStats represents statistics for a single LLM call.
// Token usage and timing are recorded for cost tracking and metrics export.
type CallStats struct {
	// PromptTokens is the number of tokens in the input prompt.
	PromptTokens int `json:"prompt_tokens"`

	// CompletionTokens is the number of tokens in the generated response.
	CompletionTokens int `json:"completion_tokens"`

	// TotalTokens is the sum of prompt and completion tokens.
	TotalTokens int `json:"total_tokens"`

	// TotalDurationMs is the total wall-clock time for the request.
	TotalDurationMs int64 `json:"total_duration_ms"`
}

// Service is the LLM service interface.
// Every pipeline stage that talks to a language model goes through it.
type Service interface {
	// Chat performs synchronous chat. Returns content, statistics, and error.
	Chat(ctx context.Context, messages []Message) (string, *CallStats, error)

	// ChatJSON performs synchronous chat in JSON mode: the provider is asked
	// to return a single JSON object. Returns the raw JSON text.
	ChatJSON(ctx context.Context, messages []Message) (string, *CallStats, error)

	// Warmup sends a lightweight ping request to establish and warm up the LLM connection.
	Warmup(ctx context.Context)
}

// Config represents LLM service configuration.
type Config struct {
	Provider    string // openai, anthropic, google, deepseek, ollama
	Model       string // gpt-4o, claude-sonnet-4-20250514, gemini-2.0-flash
	APIKey      string
	BaseURL     string
	MaxTokens   int     // default: 2048
	Temperature float32 // default: 0.7
	Timeout     int     // Request timeout in seconds (default: 120)
}

type service struct {
	client      *openai.Client
	model       string
	provider    string
	maxTokens   int
	temperature float32
	timeout     int // Request timeout in seconds
}

// NewService creates a new LLM Service.
//
// All providers are reached over the OpenAI-compatible chat completion
// protocol; only the base URL differs. Anthropic and Google both publish
// OpenAI-compatible endpoints, so a single client covers the whole set.
func NewService(cfg *Config) (Service, error) {
	if cfg.APIKey == "" && cfg.Provider != "ollama" {
		return nil, fmt.Errorf("LLM provider %q requires an API key", cfg.Provider)
	}

	httpClient := newHTTPClient()

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.HTTPClient = httpClient

	switch cfg.Provider {
	case "openai":
		if cfg.BaseURL != "" {
			clientConfig.BaseURL = cfg.BaseURL
		}

	case "anthropic":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "https://api.anthropic.com/v1"
		}
		clientConfig.BaseURL = baseURL

	case "google":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
		}
		clientConfig.BaseURL = baseURL

	case "deepseek":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "https://api.deepseek.com"
		}
		clientConfig.BaseURL = baseURL

	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434/v1"
		}
		clientConfig.BaseURL = baseURL

	default:
		// Generic fallback for any other OpenAI-compatible provider.
		slog.Info("Using generic OpenAI-compatible provider", "provider", cfg.Provider)
		if cfg.BaseURL != "" {
			clientConfig.BaseURL = cfg.BaseURL
		}
	}

	client := openai.NewClientWithConfig(clientConfig)

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = 0.7
	}

	return &service{
		client:      client,
		model:       cfg.Model,
		provider:    cfg.Provider,
		maxTokens:   maxTokens,
		temperature: temperature,
		timeout:     timeout,
	}, nil
}

func (s *service) Chat(ctx context.Context, messages []Message) (string, *CallStats, error) {
	return s.chat(ctx, messages, false)
}

func (s *service) ChatJSON(ctx context.Context, messages []Message) (string, *CallStats, error) {
	return s.chat(ctx, messages, true)
}

func (s *service) chat(ctx context.Context, messages []Message, jsonMode bool) (string, *CallStats, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.timeout)*time.Second)
	defer cancel()

	slog.Debug("LLM: chat request",
		"provider", s.provider,
		"model", s.model,
		"messages_count", len(messages),
		"json_mode", jsonMode,
	)

	startTime := time.Now()

	req := openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
		Messages:    convertMessages(messages),
	}
	if jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		slog.Error("LLM: chat request failed", "provider", s.provider, "error", err)
		return "", nil, fmt.Errorf("LLM chat failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		slog.Warn("LLM: empty response")
		return "", nil, fmt.Errorf("empty response from LLM")
	}

	totalDuration := time.Since(startTime)

	stats := &CallStats{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
		TotalDurationMs:  totalDuration.Milliseconds(),
	}

	slog.Debug("LLM: chat response received",
		"content_length", len(resp.Choices[0].Message.Content),
		"total_tokens", stats.TotalTokens,
		"duration_ms", totalDuration.Milliseconds(),
	)

	return resp.Choices[0].Message.Content, stats, nil
}

func (s *service) Warmup(ctx context.Context) {
	warmupCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	startTime := time.Now()

	req := openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   1,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: "Hi"},
		},
	}

	_, err := s.client.CreateChatCompletion(warmupCtx, req)
	duration := time.Since(startTime)

	if err != nil {
		slog.Warn("LLM: warmup ping failed (service will still work, first request may be slower)",
			"provider", s.provider,
			"model", s.model,
			"error", err,
			"duration_ms", duration.Milliseconds(),
		)
		return
	}

	slog.Info("LLM: connection warmed up",
		"provider", s.provider,
		"model", s.model,
		"duration_ms", duration.Milliseconds(),
	)
}

func convertMessages(messages []Message) []openai.ChatCompletionMessage {
	llmMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case "system":
			role = openai.ChatMessageRoleSystem
		case "assistant":
			role = openai.ChatMessageRoleAssistant
		}
		llmMessages[i] = openai.ChatCompletionMessage{
			Role:    role,
			Content: m.Content,
		}
	}
	return llmMessages
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 60 * time.Second,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// SystemPrompt creates a system message.
func SystemPrompt(content string) Message {
	return Message{Role: "system", Content: content}
}

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// AssistantMessage creates an assistant message.
func AssistantMessage(content string) Message {
	return Message{Role: "assistant", Content: content}
}

// FormatMessages assembles a prompt from an optional system prompt, prior
// history, and the current user content.
func FormatMessages(systemPrompt string, userContent string, history []Message) []Message {
	messages := []Message{}
	if systemPrompt != "" {
		messages = append(messages, SystemPrompt(systemPrompt))
	}
	messages = append(messages, history...)
	messages = append(messages, UserMessage(userContent))
	return messages
}

package llm

import (
	"testing"
)

func TestNewService_MissingAPIKey(t *testing.T) {
	cfg := &Config{
		Provider: "openai",
		Model:    "gpt-4o",
	}

	_, err := NewService(cfg)
	if err == nil {
		t.Error("NewService() without API key should return error")
	}
}

func TestNewService_OllamaNeedsNoKey(t *testing.T) {
	cfg := &Config{
		Provider: "ollama",
		Model:    "llama3.1",
	}

	svc, err := NewService(cfg)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	if svc == nil {
		t.Fatal("NewService() returned nil service")
	}
}

func TestNewService_ProviderDefaults(t *testing.T) {
	for _, provider := range []string{"openai", "anthropic", "google", "deepseek"} {
		t.Run(provider, func(t *testing.T) {
			svc, err := NewService(&Config{
				Provider: provider,
				Model:    "test-model",
				APIKey:   "test-key",
			})
			if err != nil {
				t.Fatalf("NewService() error = %v", err)
			}
			if svc == nil {
				t.Fatal("NewService() returned nil service")
			}
		})
	}
}

func TestConfig_DefaultValues(t *testing.T) {
	cfg := &Config{
		Provider: "openai",
		Model:    "gpt-4o",
		APIKey:   "test-key",
	}

	svc, err := NewService(cfg)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	s, ok := svc.(*service)
	if !ok {
		t.Fatal("NewService() did not return *service type")
	}

	if s.maxTokens != 2048 {
		t.Errorf("maxTokens = %v, want 2048", s.maxTokens)
	}
	if s.temperature != 0.7 {
		t.Errorf("temperature = %v, want 0.7", s.temperature)
	}
	if s.timeout != 120 {
		t.Errorf("timeout = %v, want 120", s.timeout)
	}
}

func TestFormatMessages(t *testing.T) {
	history := []Message{
		UserMessage("earlier question"),
		AssistantMessage("earlier answer"),
	}

	messages := FormatMessages("you are a procurement assistant", "new question", history)

	if len(messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(messages))
	}
	if messages[0].Role != "system" {
		t.Errorf("first message role = %q, want system", messages[0].Role)
	}
	if messages[3].Content != "new question" {
		t.Errorf("last message content = %q, want new question", messages[3].Content)
	}
}

func TestFormatMessages_NoSystemPrompt(t *testing.T) {
	messages := FormatMessages("", "hello", nil)
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}
	if messages[0].Role != "user" {
		t.Errorf("role = %q, want user", messages[0].Role)
	}
}

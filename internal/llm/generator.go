// Package llm wraps the hosted text-generation model that turns a composed
// prompt into clinic copy.
package llm

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/hpungsan/clinicseo/internal/config"
	"github.com/hpungsan/clinicseo/internal/errors"
)

// Generator accepts one prompt and returns one completed reply.
type Generator interface {
	Generate(ctx context.Context, prompt string) (*Result, error)
	Name() string
}

// Result is a completed generation.
type Result struct {
	Text             string
	Provider         string
	Model            string
	PromptTokens     int64
	CompletionTokens int64
}

// Providers.
const (
	ProviderGemini   = "gemini"
	ProviderOpenAI   = "openai"
	ProviderDeepSeek = "deepseek"
	ProviderMock     = "mock"
)

// Settings configures an OpenAIGenerator.
type Settings struct {
	Provider   string
	Model      string
	BaseURL    string
	APIKey     string
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
}

// providerDefaults holds the base URL, model and key variable per provider.
var providerDefaults = map[string]struct {
	baseURL   string
	model     string
	apiKeyEnv string
}{
	ProviderGemini:   {baseURL: "https://generativelanguage.googleapis.com/v1beta/openai/", model: "gemini-2.0-flash", apiKeyEnv: "GEMINI_API_KEY"},
	ProviderOpenAI:   {baseURL: "", model: "gpt-4o-mini", apiKeyEnv: "OPENAI_API_KEY"},
	ProviderDeepSeek: {baseURL: "https://api.deepseek.com/v1", model: "deepseek-chat", apiKeyEnv: "DEEPSEEK_API_KEY"},
}

// SettingsFromConfig resolves provider defaults and reads the API key from
// the configured environment variable.
func SettingsFromConfig(cfg config.LLMConfig) (Settings, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = ProviderGemini
	}

	s := Settings{
		Provider:   provider,
		Model:      cfg.Model,
		BaseURL:    cfg.BaseURL,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: time.Duration(cfg.RetryDelayMS) * time.Millisecond,
		Timeout:    time.Duration(cfg.TimeoutSeconds) * time.Second,
	}
	if s.MaxRetries < 0 {
		s.MaxRetries = 0
	}
	if provider == ProviderMock {
		return s, nil
	}

	defaults, ok := providerDefaults[provider]
	if !ok {
		return s, errors.NewInvalidRequest("unknown llm provider: " + cfg.Provider)
	}
	if s.Model == "" {
		s.Model = defaults.model
	}
	if s.BaseURL == "" {
		s.BaseURL = defaults.baseURL
	}

	keyEnv := cfg.APIKeyEnv
	if keyEnv == "" {
		keyEnv = defaults.apiKeyEnv
	}
	s.APIKey = strings.TrimSpace(os.Getenv(keyEnv))
	if s.APIKey == "" {
		return s, errors.NewInvalidRequest("missing API key: set " + keyEnv)
	}
	return s, nil
}

// NewFromConfig builds the generator named by cfg.Provider.
func NewFromConfig(cfg config.LLMConfig) (Generator, error) {
	s, err := SettingsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	if s.Provider == ProviderMock {
		return NewMock(), nil
	}
	return NewOpenAI(s)
}
